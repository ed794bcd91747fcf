// internal/app/reminder_loader.go
package app

import (
	"context"
	"errors"
	"fmt"

	"mental_math_bot/internal/domain/reminder"
	"mental_math_bot/internal/domain/user"

	"github.com/sirupsen/logrus"
)

var (
	ErrNoCustomTimes       = errors.New("custom preset but no times configured")
	ErrPresetNotConfigured = errors.New("notification preset has no configured times")
)

// ReminderScheduler is the part of the scheduler the application needs.
type ReminderScheduler interface {
	Schedule(userID int64, times []reminder.TimeOfDay, d reminder.Dispatcher) error
	Unschedule(userID int64) int
	JobsFor(userID int64) []reminder.JobKey
}

// resolveTimes returns the stored preset of u and the times it should fire at.
// Disabled yields no times and no error.
func resolveTimes(u *user.User) (reminder.Preset, []reminder.TimeOfDay, error) {
	preset, err := u.Preset()
	if err != nil {
		return "", nil, err
	}

	switch preset {
	case reminder.PresetDisabled:
		return preset, nil, nil
	case reminder.PresetCustom:
		times := reminder.Dedupe(u.CustomTimes())
		if len(times) == 0 {
			return preset, nil, ErrNoCustomTimes
		}
		return preset, times, nil
	case reminder.PresetMorning, reminder.PresetLunch, reminder.PresetEvening, reminder.PresetThreeTimes:
		times := reminder.PresetTimes(preset)
		if len(times) == 0 {
			return preset, nil, fmt.Errorf("%w: %s", ErrPresetNotConfigured, preset)
		}
		return preset, times, nil
	default:
		return preset, nil, fmt.Errorf("%w: %q", reminder.ErrUnknownPreset, preset)
	}
}

// LoadReminders registers reminders for every user with notifications enabled.
// Problems with a single user are logged and skipped. It returns the number of
// users scheduled; an error is returned only when users cannot be listed.
func LoadReminders(ctx context.Context, users user.Repository, sched ReminderScheduler, d reminder.Dispatcher, logger *logrus.Entry) (int, error) {
	logger.Info("Loading users with enabled notifications...")

	list, err := users.ListWithNotificationsEnabled(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users with notifications: %w", err)
	}
	if len(list) == 0 {
		logger.Info("No users with active notifications found")
		return 0, nil
	}

	scheduled := 0
	for _, u := range list {
		log := logger.WithFields(logrus.Fields{
			"telegram_id": u.TelegramID,
			"preset":      u.NotificationPreset,
		})

		preset, times, err := resolveTimes(u)
		switch {
		case errors.Is(err, ErrNoCustomTimes):
			log.Warn("User has custom preset but no times configured, skipping")
			continue
		case err != nil:
			log.WithError(err).Error("Cannot resolve reminder times for user, skipping")
			continue
		case !preset.Enabled():
			log.Debug("Notifications disabled for user, skipping")
			continue
		}

		if err := sched.Schedule(u.TelegramID, times, d); err != nil {
			log.WithError(err).Error("Failed to schedule reminders for user")
			continue
		}
		scheduled++
	}

	logger.WithFields(logrus.Fields{
		"users_total":     len(list),
		"users_scheduled": scheduled,
	}).Info("Reminders loaded")
	return scheduled, nil
}

// ReminderLoader binds LoadReminders to its collaborators for use at startup.
type ReminderLoader struct {
	users      user.Repository
	scheduler  ReminderScheduler
	dispatcher reminder.Dispatcher
	logger     *logrus.Entry
}

func NewReminderLoader(users user.Repository, sched ReminderScheduler, d reminder.Dispatcher, logger *logrus.Entry) *ReminderLoader {
	return &ReminderLoader{users: users, scheduler: sched, dispatcher: d, logger: logger}
}

func (l *ReminderLoader) Load(ctx context.Context) (int, error) {
	return LoadReminders(ctx, l.users, l.scheduler, l.dispatcher, l.logger)
}
