// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"fmt"

	"mental_math_bot/internal/app"
	"mental_math_bot/internal/domain/reminder"
	"mental_math_bot/internal/domain/user"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Preferences is the preference flow the handlers drive.
type Preferences interface {
	Register(ctx context.Context, telegramID int64, username, firstName string) (*user.User, bool, error)
	ApplyPreset(ctx context.Context, telegramID int64, preset reminder.Preset) (*app.PreferenceResult, error)
	ApplyCustomTimes(ctx context.Context, telegramID int64, text string) (*app.PreferenceResult, error)
	CurrentSettings(ctx context.Context, telegramID int64) (*app.Settings, error)
}

// BotCommands is the command menu shown by Telegram clients.
var BotCommands = []telebot.Command{
	{Text: "start", Description: "Главное меню"},
	{Text: "settings", Description: "Настройка уведомлений"},
	{Text: "notifications", Description: "Текущие напоминания"},
	{Text: "help", Description: "Справка"},
}

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	prefs Preferences,
	baseLogger *logrus.Entry, // For contextual logging
) {
	commandsLogger := baseLogger.WithField("handler_group", "commands")

	b.Handle("/start", func(c telebot.Context) error {
		sender := c.Sender()
		logCtx := commandsLogger.WithField("command", "/start").WithField("sender_id", sender.ID)
		logCtx.Info("Processing /start command")

		if _, _, err := prefs.Register(ctx, sender.ID, sender.Username, sender.FirstName); err != nil {
			logCtx.WithError(err).Error("Failed to register user for /start command")
			return c.Send(textGenericError)
		}

		name := sender.FirstName
		if name == "" {
			name = textWelcomeFallbackName
		}
		return c.Send(fmt.Sprintf(textWelcome, name), mainMenuKeyboard())
	})

	b.Handle("/help", func(c telebot.Context) error {
		commandsLogger.WithField("command", "/help").WithField("sender_id", c.Sender().ID).Info("Processing /help command")
		return c.Send(textHelp, backToMenuKeyboard(), telebot.ModeMarkdown)
	})

	showSettings := func(c telebot.Context, edit bool) error {
		sender := c.Sender()
		logCtx := commandsLogger.WithField("command", "notifications").WithField("sender_id", sender.ID)

		if _, _, err := prefs.Register(ctx, sender.ID, sender.Username, sender.FirstName); err != nil {
			logCtx.WithError(err).Error("Failed to register user before showing settings")
			return c.Send(textGenericError)
		}
		settings, err := prefs.CurrentSettings(ctx, sender.ID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to load current notification settings")
			return c.Send(textGenericError)
		}
		logCtx.WithField("active_jobs", len(settings.ActiveJobs)).Info("Showing current notification settings")

		if edit {
			return c.Edit(settingsText(settings), backToMenuKeyboard(), telebot.ModeMarkdown)
		}
		return c.Send(settingsText(settings), backToMenuKeyboard(), telebot.ModeMarkdown)
	}

	b.Handle("/notifications", func(c telebot.Context) error {
		return showSettings(c, false)
	})

	b.Handle(endpoint(uniqueMyReminders), func(c telebot.Context) error {
		_ = c.Respond()
		return showSettings(c, true)
	})
}
