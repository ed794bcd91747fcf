package user

import (
	"database/sql"

	"mental_math_bot/internal/domain/reminder"
)

// User represents a bot user together with the notification preference fields.
type User struct {
	ID                      int64
	TelegramID              int64
	Username                sql.NullString
	FirstName               sql.NullString
	NotificationEnabled     bool
	NotificationPreset      string // raw column value, see Preset()
	CustomNotificationTimes string // JSON array or delimited "HH:MM" list
}

// Preset converts the stored preset column into a reminder.Preset.
func (u *User) Preset() (reminder.Preset, error) {
	return reminder.ParsePreset(u.NotificationPreset)
}

// CustomTimes parses the stored custom times. Unparseable tokens are ignored.
func (u *User) CustomTimes() []reminder.TimeOfDay {
	return reminder.ParseTimes(u.CustomNotificationTimes)
}
