// internal/app/reminder_dispatcher.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mental_math_bot/internal/domain/reminder"
	domainTelegram "mental_math_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// ReminderText is the message delivered when a reminder fires.
const ReminderText = "🎯 *Время тренировки!*\n\n" +
	"Давай потренируем устный счёт!\n" +
	"Это займёт всего несколько минут 💪\n\n" +
	"Нажми /start, чтобы начать."

// ReminderDispatcher sends training reminders through the Telegram client.
// It implements reminder.Dispatcher and never reports failures to its caller:
// a later firing is the retry.
type ReminderDispatcher struct {
	telegramClient domainTelegram.Client
	limiter        *rate.Limiter
	sendTimeout    time.Duration
	logger         *logrus.Entry
}

// NewReminderDispatcher builds a dispatcher that sends at most ratePerSec
// reminders per second (burst of the same size) and bounds every send with sendTimeout.
func NewReminderDispatcher(tc domainTelegram.Client, ratePerSec int, sendTimeout time.Duration, logger *logrus.Entry) *ReminderDispatcher {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	return &ReminderDispatcher{
		telegramClient: tc,
		limiter:        rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		sendTimeout:    sendTimeout,
		logger:         logger,
	}
}

var _ reminder.Dispatcher = (*ReminderDispatcher)(nil)

// Dispatch sends one reminder to userID. Delivery failures are logged by kind.
func (d *ReminderDispatcher) Dispatch(ctx context.Context, userID int64) {
	log := d.logger.WithField("telegram_id", userID)
	log.Debug("Sending training reminder")

	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}

	if err := d.limiter.Wait(ctx); err != nil {
		log.WithError(err).Error("Reminder not sent: waiting for send slot failed")
		return
	}

	err := d.telegramClient.SendMessage(ctx, userID, ReminderText, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	switch {
	case err == nil:
		log.Info("Reminder sent")
	case errors.Is(err, reminder.ErrRecipientUnavailable):
		log.WithError(err).Warn("User blocked the bot or is unreachable, reminder not delivered")
	case errors.Is(err, reminder.ErrBadRequest):
		log.WithError(err).Error("Telegram rejected the reminder message")
	default:
		log.WithError(err).WithField("error_type", fmt.Sprintf("%T", err)).Error("Unexpected error sending reminder")
	}
}
