package user

import (
	"context"

	"mental_math_bot/internal/domain/reminder"
)

// Repository defines the operations for persisting and retrieving users.
type Repository interface {
	// GetOrCreate returns the user with the given Telegram ID, registering it first
	// if needed. The bool reports whether the user was created by this call.
	GetOrCreate(ctx context.Context, telegramID int64, username, firstName string) (*User, bool, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	// ListWithNotificationsEnabled returns users with notifications on and a preset other than disabled.
	ListWithNotificationsEnabled(ctx context.Context) ([]*User, error)
	// UpdateNotifications stores the preset; the enabled flag is derived from it.
	// customTimes are written only for the custom preset.
	UpdateNotifications(ctx context.Context, telegramID int64, preset reminder.Preset, customTimes []reminder.TimeOfDay) error
}
