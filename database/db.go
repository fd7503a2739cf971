package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when an entity does not exist for the given user.
var ErrNotFound = errors.New("not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT,
		is_admin INTEGER NOT NULL DEFAULT 0,
		language TEXT NOT NULL DEFAULT 'de',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		last_login_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		external_id TEXT,
		title TEXT NOT NULL,
		description TEXT,
		completed INTEGER NOT NULL DEFAULT 0,
		priority TEXT NOT NULL DEFAULT 'none',
		estimated_time INTEGER,
		tracked_time INTEGER,
		tags TEXT NOT NULL DEFAULT '[]',
		subtasks TEXT NOT NULL DEFAULT '[]',
		column_id TEXT,
		project_id TEXT,
		kanban_column_id TEXT,
		pin_column_id TEXT,
		pinned INTEGER NOT NULL DEFAULT 0,
		reminder_date TEXT,
		reminder_time TEXT,
		due_date TEXT,
		position INTEGER NOT NULL,
		archived INTEGER NOT NULL DEFAULT 0,
		completed_at TIMESTAMP,
		linked_notes TEXT NOT NULL DEFAULT '[]',
		recurrence_rule_id TEXT,
		parent_series_id TEXT,
		is_series_template INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, external_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS columns (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		external_id TEXT,
		title TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'date',
		date TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		linked_notes TEXT NOT NULL DEFAULT '[]',
		timebudget TEXT,
		color TEXT,
		UNIQUE (user_id, external_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		external_id TEXT,
		name TEXT NOT NULL,
		color TEXT,
		count INTEGER NOT NULL DEFAULT 0,
		UNIQUE (user_id, name),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS pin_columns (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		external_id TEXT,
		title TEXT NOT NULL,
		color TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		UNIQUE (user_id, external_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		external_id TEXT,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		linked_tasks TEXT NOT NULL DEFAULT '[]',
		linked_notes TEXT NOT NULL DEFAULT '[]',
		linked_projects TEXT NOT NULL DEFAULT '[]',
		pinned INTEGER NOT NULL DEFAULT 0,
		archived INTEGER NOT NULL DEFAULT 0,
		daily_note INTEGER NOT NULL DEFAULT 0,
		daily_note_date TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, external_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS calendar_sources (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '#3b82f6',
		enabled INTEGER NOT NULL DEFAULT 1,
		last_sync TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS calendar_events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		external_id TEXT,
		calendar_url TEXT NOT NULL DEFAULT '',
		uid TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT,
		location TEXT,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP,
		all_day INTEGER NOT NULL DEFAULT 0,
		status TEXT,
		recurrence TEXT,
		last_modified TIMESTAMP,
		UNIQUE (user_id, external_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS recurrence_rules (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		data TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS checklist_items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		data TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS kanban_boards (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		data TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id TEXT PRIMARY KEY,
		preferences TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS view_state (
		user_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
}

// InitDB opens the sqlite database at path and creates any missing tables.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Println("Database initialized successfully")
	return db, nil
}

// DataService handles database operations for user data
type DataService struct {
	db *sql.DB
}

func NewDataService(db *sql.DB) *DataService {
	return &DataService{db: db}
}

// Helpers to bridge nullable struct fields and sql scan targets.

func nullStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}

// jsonOr returns raw as a TEXT value, substituting def when raw is empty.
func jsonOr(raw json.RawMessage, def string) string {
	if len(raw) == 0 {
		return def
	}
	return string(raw)
}

// nullIfEmpty stores an empty external id as NULL so the per-user
// uniqueness constraint never trips on id-less rows.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// rawOrNil turns an empty raw message into NULL.
func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
