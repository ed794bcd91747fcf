package app

import (
	"context"
	"errors"
	"fmt"

	"mental_math_bot/internal/domain/reminder"
	"mental_math_bot/internal/domain/user"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for the preference flow
var (
	ErrNoValidTimes        = errors.New("no valid reminder times in input")
	ErrCustomTimesRequired = errors.New("custom preset requires explicit times")
)

// PreferenceResult describes the schedule that is active after an update.
type PreferenceResult struct {
	Preset reminder.Preset
	Times  []reminder.TimeOfDay
	// Degraded is set when the preference was saved but live reminders could not
	// be reconciled; they catch up on the next start.
	Degraded bool
}

// Settings is a user's stored preference together with the live jobs.
type Settings struct {
	Preset     reminder.Preset
	Enabled    bool
	Times      []reminder.TimeOfDay
	ActiveJobs []reminder.JobKey
}

// PreferenceService persists notification preferences and keeps the scheduler in line with them.
// Updates for one user run one at a time from the write through the scheduler
// call, so the last stored preference is also the one that is live.
type PreferenceService struct {
	locks      *userLocks
	users      user.Repository
	scheduler  ReminderScheduler
	dispatcher reminder.Dispatcher
	logger     *logrus.Entry
}

func NewPreferenceService(users user.Repository, sched ReminderScheduler, d reminder.Dispatcher, logger *logrus.Entry) *PreferenceService {
	return &PreferenceService{
		locks:      newUserLocks(),
		users:      users,
		scheduler:  sched,
		dispatcher: d,
		logger:     logger,
	}
}

// Register returns the user, creating it on first contact. A new user gets the
// default preset and its reminders are scheduled right away.
func (s *PreferenceService) Register(ctx context.Context, telegramID int64, username, firstName string) (*user.User, bool, error) {
	unlock := s.locks.lock(telegramID)
	defer unlock()

	u, created, err := s.users.GetOrCreate(ctx, telegramID, username, firstName)
	if err != nil {
		return nil, false, fmt.Errorf("failed to register user: %w", err)
	}
	if !created {
		return u, false, nil
	}

	log := s.logger.WithFields(logrus.Fields{"telegram_id": telegramID, "username": username})
	log.Info("New user registered")

	_, times, err := resolveTimes(u)
	if err != nil {
		log.WithError(err).Error("Default preset cannot be resolved, no reminders scheduled")
		return u, true, nil
	}
	if err := s.scheduler.Schedule(telegramID, times, s.dispatcher); err != nil {
		log.WithError(err).Error("Failed to schedule default reminders for new user")
	}
	return u, true, nil
}

// ApplyPreset switches the user to a fixed preset or disables reminders.
// The custom preset needs times and goes through ApplyCustomTimes instead.
func (s *PreferenceService) ApplyPreset(ctx context.Context, telegramID int64, preset reminder.Preset) (*PreferenceResult, error) {
	switch preset {
	case reminder.PresetCustom:
		return nil, ErrCustomTimesRequired
	case reminder.PresetDisabled:
		return s.apply(ctx, telegramID, preset, nil)
	case reminder.PresetMorning, reminder.PresetLunch, reminder.PresetEvening, reminder.PresetThreeTimes:
		times := reminder.PresetTimes(preset)
		if len(times) == 0 {
			s.logger.WithField("preset", preset).Error("Preset has no configured times")
			return nil, fmt.Errorf("%w: %s", ErrPresetNotConfigured, preset)
		}
		return s.apply(ctx, telegramID, preset, times)
	default:
		return nil, fmt.Errorf("%w: %q", reminder.ErrUnknownPreset, preset)
	}
}

// ApplyCustomTimes parses free text like "07:30, 20:00" and switches the user to the custom preset.
func (s *PreferenceService) ApplyCustomTimes(ctx context.Context, telegramID int64, text string) (*PreferenceResult, error) {
	times := reminder.Dedupe(reminder.ParseTimes(text))
	if len(times) == 0 {
		return nil, ErrNoValidTimes
	}
	return s.apply(ctx, telegramID, reminder.PresetCustom, times)
}

// apply persists first and reconciles the scheduler only after a successful write.
func (s *PreferenceService) apply(ctx context.Context, telegramID int64, preset reminder.Preset, times []reminder.TimeOfDay) (*PreferenceResult, error) {
	unlock := s.locks.lock(telegramID)
	defer unlock()

	log := s.logger.WithFields(logrus.Fields{
		"telegram_id": telegramID,
		"preset":      preset,
	})

	if err := s.users.UpdateNotifications(ctx, telegramID, preset, times); err != nil {
		log.WithError(err).Error("Failed to persist notification preference")
		return nil, fmt.Errorf("failed to persist notification preference: %w", err)
	}
	log.WithField("enabled", preset.Enabled()).Info("Notification preference saved")

	result := &PreferenceResult{Preset: preset, Times: times}

	if !preset.Enabled() {
		s.scheduler.Unschedule(telegramID)
		return result, nil
	}

	if err := s.scheduler.Schedule(telegramID, times, s.dispatcher); err != nil {
		log.WithError(err).Error("Preference saved but reminders were not rescheduled, they will be restored on next start")
		result.Degraded = true
	}
	return result, nil
}

// CurrentSettings reports the stored preference and the jobs currently live for the user.
func (s *PreferenceService) CurrentSettings(ctx context.Context, telegramID int64) (*Settings, error) {
	u, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}

	preset, times, err := resolveTimes(u)
	if err != nil && !errors.Is(err, ErrNoCustomTimes) {
		return nil, fmt.Errorf("failed to resolve user settings: %w", err)
	}

	return &Settings{
		Preset:     preset,
		Enabled:    u.NotificationEnabled && preset.Enabled(),
		Times:      times,
		ActiveJobs: s.scheduler.JobsFor(telegramID),
	}, nil
}
