package database

import (
	"context"
	"database/sql"
	"fmt" // For error wrapping
	"strings"

	"mental_math_bot/internal/domain/reminder"
	"mental_math_bot/internal/domain/user"
)

// Custom errors
var ErrUserNotFound = fmt.Errorf("user not found")

const userColumns = `id, telegram_id, username, first_name, notification_enabled, notification_preset, custom_notification_times`

type UserRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewUserRepository(db *sql.DB, dialect Dialect) *UserRepository {
	return &UserRepository{db: db, dialect: dialect}
}

func (r *UserRepository) q(query string) string {
	return rebind(r.dialect, query)
}

func (r *UserRepository) GetOrCreate(ctx context.Context, telegramID int64, username, firstName string) (*user.User, bool, error) {
	query := r.q(`INSERT INTO users (telegram_id, username, first_name, notification_enabled, notification_preset)
               VALUES (?, ?, ?, ?, ?)
               ON CONFLICT (telegram_id) DO NOTHING`)

	res, err := r.db.ExecContext(ctx, query, telegramID, nullStr(username), nullStr(firstName),
		reminder.DefaultPreset.Enabled(), string(reminder.DefaultPreset))
	if err != nil {
		return nil, false, fmt.Errorf("error creating user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("error reading rows affected for user insert: %w", err)
	}

	u, err := r.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}
	return u, affected > 0, nil
}

func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*user.User, error) {
	query := r.q(`SELECT ` + userColumns + ` FROM users WHERE telegram_id = ?`)
	u, err := scanUser(r.db.QueryRowContext(ctx, query, telegramID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by Telegram ID: %w", err)
	}
	return u, nil
}

func (r *UserRepository) ListWithNotificationsEnabled(ctx context.Context) ([]*user.User, error) {
	query := r.q(`SELECT ` + userColumns + `
               FROM users WHERE notification_enabled = ? AND notification_preset <> ? ORDER BY id`)

	rows, err := r.db.QueryContext(ctx, query, true, string(reminder.PresetDisabled))
	if err != nil {
		return nil, fmt.Errorf("error listing users with notifications: %w", err)
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user with notifications: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users with notifications: %w", err)
	}
	return users, nil
}

func (r *UserRepository) UpdateNotifications(ctx context.Context, telegramID int64, preset reminder.Preset, customTimes []reminder.TimeOfDay) error {
	var (
		query string
		args  []any
	)
	if preset == reminder.PresetCustom && len(customTimes) > 0 {
		query = `UPDATE users
               SET notification_preset = ?, notification_enabled = ?, custom_notification_times = ?, updated_at = CURRENT_TIMESTAMP
               WHERE telegram_id = ?`
		args = []any{string(preset), preset.Enabled(), reminder.FormatTimesJSON(customTimes), telegramID}
	} else {
		// Stored custom times are kept so switching back to custom can show them.
		query = `UPDATE users
               SET notification_preset = ?, notification_enabled = ?, updated_at = CURRENT_TIMESTAMP
               WHERE telegram_id = ?`
		args = []any{string(preset), preset.Enabled(), telegramID}
	}

	res, err := r.db.ExecContext(ctx, r.q(query), args...)
	if err != nil {
		return fmt.Errorf("error updating user notifications: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected for notification update: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName,
		&u.NotificationEnabled, &u.NotificationPreset, &u.CustomNotificationTimes)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func nullStr(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}
