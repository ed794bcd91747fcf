package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in minimal containers

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken       string
	DatabaseURL         string
	LogLevel            string
	Environment         string
	Timezone            string
	Location            *time.Location // Loaded from Timezone
	ReminderGraceWindow time.Duration  // How late a missed reminder may still be delivered
	ReminderSendRate    int            // Outbound reminder messages per second
	ReminderSendTimeout time.Duration
	PollerTimeout       time.Duration
}

const (
	defaultDatabaseURL         = "sqlite://data/bot.db"
	defaultTimezone            = "Europe/Moscow"
	defaultReminderGraceWindow = 60 * time.Second
	defaultReminderSendRate    = 25
	defaultReminderSendTimeout = 30 * time.Second
	defaultPollerTimeout       = 10 * time.Second
)

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.Timezone = os.Getenv("TIMEZONE")
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if cfg.ReminderGraceWindow, err = durationEnv("REMINDER_GRACE_WINDOW", defaultReminderGraceWindow); err != nil {
		return nil, err
	}
	if cfg.ReminderSendTimeout, err = durationEnv("REMINDER_SEND_TIMEOUT", defaultReminderSendTimeout); err != nil {
		return nil, err
	}
	if cfg.PollerTimeout, err = durationEnv("POLLER_TIMEOUT", defaultPollerTimeout); err != nil {
		return nil, err
	}

	cfg.ReminderSendRate = defaultReminderSendRate
	if rateStr := os.Getenv("REMINDER_SEND_RATE"); rateStr != "" {
		cfg.ReminderSendRate, err = strconv.Atoi(rateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REMINDER_SEND_RATE: %w", err)
		}
		if cfg.ReminderSendRate <= 0 {
			return nil, fmt.Errorf("invalid REMINDER_SEND_RATE: must be positive, got %d", cfg.ReminderSendRate)
		}
	}

	return cfg, nil
}

// durationEnv reads a positive Go duration ("60s", "2m") with a fallback.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", key, d)
	}
	return d, nil
}
