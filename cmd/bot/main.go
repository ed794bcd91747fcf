package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"mental_math_bot/internal/app"
	"mental_math_bot/internal/infra/config"
	idb "mental_math_bot/internal/infra/database"
	"mental_math_bot/internal/infra/logger"
	"mental_math_bot/internal/infra/scheduler"
	"mental_math_bot/internal/infra/telegram"

	"github.com/jmhodges/clock"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	fmt.Println("Mental Math Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	db, dialect, err := idb.Open(cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()

	startupCtx, cancelStartup := context.WithTimeout(ctx, startupTimeout)
	defer cancelStartup()

	if err := idb.Migrate(startupCtx, db, dialect); err != nil {
		mainLogger.WithError(err).Fatal("Could not apply database schema")
	}
	mainLogger.WithField("dialect", dialect).Info("Database connection established successfully")

	userRepo := idb.NewUserRepository(db, dialect)

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: cfg.PollerTimeout},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	telegramClient := telegram.NewTelebotAdapter(bot)

	// Reminder core
	reminderScheduler := scheduler.New(scheduler.Config{
		Location:    cfg.Location,
		GraceWindow: cfg.ReminderGraceWindow,
	}, logger.Component("scheduler"))
	reminderScheduler.Start()

	dispatcher := app.NewReminderDispatcher(telegramClient, cfg.ReminderSendRate, cfg.ReminderSendTimeout, logger.Component("dispatcher"))

	loader := app.NewReminderLoader(userRepo, reminderScheduler, dispatcher, logger.Component("loader"))
	if _, err := loader.Load(startupCtx); err != nil {
		// Reminders stay off until the next start; chat handling still works.
		mainLogger.WithError(err).Error("Could not load reminders from storage")
	}

	preferences := app.NewPreferenceService(userRepo, reminderScheduler, dispatcher, logger.Component("preferences"))

	// Register Handlers
	handlerLogger := logger.Component("telegram")
	telegram.RegisterBotCommands(ctx, bot, preferences, handlerLogger)
	telegram.RegisterSettingsHandlers(ctx, bot, preferences, clock.New(), handlerLogger)
	if err := bot.SetCommands(telegram.BotCommands); err != nil {
		mainLogger.WithError(err).Warn("Could not register bot command menu")
	}

	mainLogger.WithField("active_reminders", reminderScheduler.JobCount()).Info("Application setup complete. Bot is starting...")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()

	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	bot.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	reminderScheduler.Shutdown(shutdownCtx)

	mainLogger.Info("Application shut down gracefully.")
}
