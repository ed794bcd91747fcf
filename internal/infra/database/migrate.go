package database

import (
	"context"
	"database/sql"
	"fmt"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id                        BIGSERIAL PRIMARY KEY,
	telegram_id               BIGINT NOT NULL UNIQUE,
	username                  TEXT,
	first_name                TEXT,
	notification_enabled      BOOLEAN NOT NULL DEFAULT TRUE,
	notification_preset       TEXT NOT NULL DEFAULT 'three_times',
	custom_notification_times TEXT NOT NULL DEFAULT '',
	created_at                TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at                TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_notifications ON users (notification_enabled, notification_preset);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id                        INTEGER PRIMARY KEY AUTOINCREMENT,
	telegram_id               INTEGER NOT NULL UNIQUE,
	username                  TEXT,
	first_name                TEXT,
	notification_enabled      INTEGER NOT NULL DEFAULT 1,
	notification_preset       TEXT NOT NULL DEFAULT 'three_times',
	custom_notification_times TEXT NOT NULL DEFAULT '',
	created_at                TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at                TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_users_notifications ON users (notification_enabled, notification_preset);
`

// Migrate creates the schema if it does not exist yet. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	schema := sqliteSchema
	if d == DialectPostgres {
		schema = postgresSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply %s schema: %w", d, err)
	}
	return nil
}
