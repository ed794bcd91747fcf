package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mental_math_bot/internal/infra/logger"

	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

// Dialect selects SQL placeholder style and schema flavour.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Open picks a driver from the URL scheme: postgres:// and postgresql:// go to
// lib/pq, sqlite:// (and file:) go to modernc.org/sqlite.
func Open(databaseURL string) (*sql.DB, Dialect, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		db, err := NewPostgresConnection(databaseURL)
		return db, DialectPostgres, err
	case strings.HasPrefix(databaseURL, "sqlite://"):
		db, err := NewSQLiteConnection(strings.TrimPrefix(databaseURL, "sqlite://"))
		return db, DialectSQLite, err
	case strings.HasPrefix(databaseURL, "file:"):
		db, err := NewSQLiteConnection(databaseURL)
		return db, DialectSQLite, err
	default:
		return nil, "", fmt.Errorf("unsupported DATABASE_URL scheme: %q", databaseURL)
	}
}

// NewPostgresConnection creates and returns a new PostgreSQL database connection.
// It also pings the database to ensure connectivity.
func NewPostgresConnection(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewSQLiteConnection opens a SQLite database file, creating its directory.
// ":memory:" is accepted for tests.
func NewSQLiteConnection(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	// SQLite prefers a single writer; an in-memory database also lives on one connection only.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if path != ":memory:" {
		applyPragmas(db, logger.Component("database").WithField("path", path))
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
}

// applyPragmas tunes a file database. A failed pragma leaves SQLite defaults in
// place, which still work, so it is only logged.
func applyPragmas(db *sql.DB, log *logrus.Entry) int {
	failed := 0
	for _, pragma := range sqlitePragmas {
		if _, err := db.Exec(pragma); err != nil {
			failed++
			log.WithError(err).WithField("pragma", pragma).Warn("Could not apply SQLite pragma")
		}
	}
	return failed
}

// rebind rewrites '?' placeholders into the dialect's style.
// Queries in this package never contain a literal '?' inside strings.
func rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
