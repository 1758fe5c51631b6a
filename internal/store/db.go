// Package store persists templates, schedule instances, interactions, and
// their audit events in SQLite. Every mutating operation that touches more
// than one row runs inside a single transaction, so a crash mid-operation
// cannot leave an instance with inconsistent planned-time/status pairs or an
// interaction half-resolved.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a template or instance id does not exist
var ErrNotFound = fmt.Errorf("not found")

// Store wraps the SQLite database connection for the scheduler
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the scheduler database under statePath
func Open(statePath string) (*Store, error) {
	dbPath := filepath.Join(statePath, "dayplan.db")

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs database migrations
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		recurrence TEXT NOT NULL DEFAULT '',
		preferred_window TEXT NOT NULL DEFAULT '',
		alert_style TEXT NOT NULL DEFAULT 'visual_then_alarm',
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_templates_enabled ON templates(enabled);

	-- One instance per (template, date): the unique constraint turns a
	-- materialization race into a rejected duplicate insert.
	CREATE TABLE IF NOT EXISTS schedule_instances (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		template_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		planned_start TEXT NOT NULL,
		planned_end TEXT NOT NULL,
		actual_start DATETIME,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (template_id) REFERENCES templates(id) ON DELETE CASCADE,
		UNIQUE(template_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_instances_date ON schedule_instances(date);

	-- Append-only: interactions are resolved in place, never deleted
	CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		instance_id INTEGER NOT NULL,
		alert_type TEXT NOT NULL,
		alert_started_at DATETIME NOT NULL,
		response_type TEXT,
		response_stage TEXT,
		responded_at DATETIME,
		FOREIGN KEY (instance_id) REFERENCES schedule_instances(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_instance ON interactions(instance_id);
	CREATE INDEX IF NOT EXISTS idx_interactions_started ON interactions(alert_started_at);

	CREATE TABLE IF NOT EXISTS snooze_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		instance_id INTEGER NOT NULL,
		minutes INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (instance_id) REFERENCES schedule_instances(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS acknowledge_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		instance_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (instance_id) REFERENCES schedule_instances(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS alarm_config (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sound TEXT NOT NULL DEFAULT 'beep',
		volume_percent INTEGER NOT NULL DEFAULT 12
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// date/clock column formats. Dates land as "YYYY-MM-DD" and planned times as
// "HH:MM:SS" so SQLite string ordering matches chronological ordering.
const (
	dateFormat  = "2006-01-02"
	clockFormat = "15:04:05"
)

func formatDate(t time.Time) string {
	return t.Format(dateFormat)
}

func formatClockTime(t time.Time) string {
	return t.Format(clockFormat)
}

// combineDateClock rebuilds a full local timestamp from the stored date and
// time-of-day columns.
func combineDateClock(dateStr, clockStr string) (time.Time, error) {
	d, err := time.ParseInLocation(dateFormat, dateStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", dateStr, err)
	}
	c, err := time.Parse(clockFormat, clockStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q: %w", clockStr, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, time.Local), nil
}
