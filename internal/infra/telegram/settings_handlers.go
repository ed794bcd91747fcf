// internal/infra/telegram/settings_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"

	"mental_math_bot/internal/app"
	"mental_math_bot/internal/domain/reminder"

	"github.com/jmhodges/clock"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterSettingsHandlers wires the notification settings menu: preset buttons,
// the custom time prompt and the text input that answers it.
func RegisterSettingsHandlers(ctx context.Context, b *telebot.Bot, prefs Preferences, clk clock.Clock, baseLogger *logrus.Entry) {
	settingsLogger := baseLogger.WithField("handler_group", "settings")
	pending := newPendingInputs(clk, customTimePromptTTL)

	ensureUser := func(c telebot.Context) error {
		sender := c.Sender()
		_, _, err := prefs.Register(ctx, sender.ID, sender.Username, sender.FirstName)
		return err
	}

	b.Handle("/settings", func(c telebot.Context) error {
		settingsLogger.WithField("command", "/settings").WithField("sender_id", c.Sender().ID).Info("Command received")
		pending.Clear(c.Sender().ID)
		return c.Send(textSettingsNotifications, presetKeyboard(), telebot.ModeMarkdown)
	})

	b.Handle(endpoint(uniqueSettings), func(c telebot.Context) error {
		pending.Clear(c.Sender().ID)
		_ = c.Respond()
		return c.Edit(textSettingsNotifications, presetKeyboard(), telebot.ModeMarkdown)
	})

	b.Handle(endpoint(uniqueBackToMenu), func(c telebot.Context) error {
		pending.Clear(c.Sender().ID)
		_ = c.Respond()
		return c.Edit(textMainMenu, mainMenuKeyboard(), telebot.ModeMarkdown)
	})

	b.Handle(endpoint(uniqueNotifyPreset), func(c telebot.Context) error {
		senderID := c.Sender().ID
		handlerLogger := settingsLogger.WithFields(logrus.Fields{
			"handler":   uniqueNotifyPreset,
			"sender_id": senderID,
			"data":      c.Data(),
		})

		preset, err := reminder.ParsePreset(c.Data())
		if err != nil {
			c.Bot().OnError(fmt.Errorf("invalid preset in callback data %q: %w", c.Data(), err), c)
			return c.Respond(&telebot.CallbackResponse{Text: textGenericError})
		}

		if err := ensureUser(c); err != nil {
			handlerLogger.WithError(err).Error("Failed to register user before changing preset")
			_ = c.Respond()
			return c.Edit(textNotificationError, backToMenuKeyboard(), telebot.ModeMarkdown)
		}

		if preset == reminder.PresetCustom {
			pending.Start(senderID)
			handlerLogger.Info("Waiting for custom reminder times")
			_ = c.Respond()
			return c.Edit(textCustomTimePrompt, cancelCustomKeyboard(), telebot.ModeMarkdown)
		}
		pending.Clear(senderID)

		result, err := prefs.ApplyPreset(ctx, senderID, preset)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to apply notification preset")
			_ = c.Respond()
			return c.Edit(textNotificationError, backToMenuKeyboard(), telebot.ModeMarkdown)
		}

		handlerLogger.WithField("degraded", result.Degraded).Info("Notification preset applied")
		_ = c.Respond(&telebot.CallbackResponse{Text: callbackAnswerOK})
		return c.Edit(confirmationText(result), backToMenuKeyboard(), telebot.ModeMarkdown)
	})

	b.Handle(endpoint(uniqueCancelCustom), func(c telebot.Context) error {
		pending.Clear(c.Sender().ID)
		_ = c.Respond(&telebot.CallbackResponse{Text: textCustomTimeCancelled})
		return c.Edit(textSettingsNotifications, presetKeyboard(), telebot.ModeMarkdown)
	})

	b.Handle(telebot.OnText, func(c telebot.Context) error {
		reply := answerCustomTimes(ctx, prefs, pending, c.Sender().ID, c.Text(), settingsLogger)
		if reply == nil {
			// Not an answer to the custom time prompt; nothing else here consumes free text.
			return nil
		}
		return c.Send(reply.text, reply.markup, telebot.ModeMarkdown)
	})
}

type textReply struct {
	text   string
	markup *telebot.ReplyMarkup
}

// answerCustomTimes handles a text message from senderID. It returns nil when
// no custom time prompt is open for the sender. Unparseable input keeps the
// prompt open; any other outcome closes it.
func answerCustomTimes(ctx context.Context, prefs Preferences, pending *pendingInputs, senderID int64, text string, baseLogger *logrus.Entry) *textReply {
	if !pending.Active(senderID) {
		return nil
	}
	handlerLogger := baseLogger.WithFields(logrus.Fields{
		"handler":   "custom_times",
		"sender_id": senderID,
	})

	result, err := prefs.ApplyCustomTimes(ctx, senderID, text)
	if err != nil {
		if errors.Is(err, app.ErrNoValidTimes) {
			handlerLogger.WithField("text", text).Info("No valid times in custom time input")
			return &textReply{text: textCustomTimeInvalid, markup: cancelCustomKeyboard()}
		}
		pending.Clear(senderID)
		handlerLogger.WithError(err).Error("Failed to apply custom reminder times")
		return &textReply{text: textNotificationError, markup: backToMenuKeyboard()}
	}

	pending.Clear(senderID)
	handlerLogger.WithFields(logrus.Fields{
		"times":    reminder.FormatTimes(result.Times),
		"degraded": result.Degraded,
	}).Info("Custom reminder times applied")
	return &textReply{text: confirmationText(result), markup: backToMenuKeyboard()}
}
