package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const sourceColumns = `id, name, url, color, enabled, last_sync`

func scanCalendarSource(row rowScanner) (CalendarSource, error) {
	var cs CalendarSource
	var lastSync sql.NullTime
	if err := row.Scan(&cs.ID, &cs.Name, &cs.URL, &cs.Color, &cs.Enabled, &lastSync); err != nil {
		return CalendarSource{}, err
	}
	cs.LastSync = timePtr(lastSync)
	return cs, nil
}

func applySourceDefaults(cs *CalendarSource) {
	if cs.Color == "" {
		cs.Color = "#3b82f6"
	}
}

// ListCalendarSources returns the user's subscribed calendars.
func (s *DataService) ListCalendarSources(userID string) ([]CalendarSource, error) {
	rows, err := s.db.Query(`SELECT `+sourceColumns+` FROM calendar_sources WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar sources: %w", err)
	}
	defer rows.Close()

	sources := []CalendarSource{}
	for rows.Next() {
		cs, err := scanCalendarSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar source: %w", err)
		}
		sources = append(sources, cs)
	}
	return sources, rows.Err()
}

// CreateCalendarSource inserts a new calendar subscription.
func (s *DataService) CreateCalendarSource(userID string, cs *CalendarSource) (*CalendarSource, error) {
	applySourceDefaults(cs)
	cs.ID = uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO calendar_sources (`+sourceColumns+`, user_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cs.ID, cs.Name, cs.URL, cs.Color, cs.Enabled, nullTime(cs.LastSync), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert calendar source: %w", err)
	}
	return cs, nil
}

// UpdateCalendarSource overwrites a calendar subscription.
func (s *DataService) UpdateCalendarSource(userID, id string, cs *CalendarSource) (*CalendarSource, error) {
	applySourceDefaults(cs)
	res, err := s.db.Exec(`UPDATE calendar_sources SET name = ?, url = ?, color = ?, enabled = ?, last_sync = ?
		WHERE user_id = ? AND id = ?`,
		cs.Name, cs.URL, cs.Color, cs.Enabled, nullTime(cs.LastSync), userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update calendar source: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	cs.ID = id
	return cs, nil
}

// DeleteCalendarSource removes a subscription and its cached events.
func (s *DataService) DeleteCalendarSource(userID, id string) error {
	var url string
	err := s.db.QueryRow(`SELECT url FROM calendar_sources WHERE user_id = ? AND id = ?`, userID, id).Scan(&url)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query calendar source: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM calendar_events WHERE user_id = ? AND calendar_url = ?`, userID, url); err != nil {
		return fmt.Errorf("failed to delete calendar events: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM calendar_sources WHERE user_id = ? AND id = ?`, userID, id); err != nil {
		return fmt.Errorf("failed to delete calendar source: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const eventColumns = `id, external_id, calendar_url, uid, title, description, location,
	start_time, end_time, all_day, status, recurrence, last_modified`

func scanCalendarEvent(row rowScanner) (CalendarEvent, error) {
	var e CalendarEvent
	var external, description, location, status, recurrence sql.NullString
	var endTime, lastModified sql.NullTime

	err := row.Scan(&e.ID, &external, &e.CalendarURL, &e.UID, &e.Title, &description, &location,
		&e.StartTime, &endTime, &e.AllDay, &status, &recurrence, &lastModified)
	if err != nil {
		return CalendarEvent{}, err
	}
	if external.Valid {
		e.ExternalID = external.String
	}
	e.Description = strPtr(description)
	e.Location = strPtr(location)
	e.EndTime = timePtr(endTime)
	e.Status = strPtr(status)
	e.Recurrence = strPtr(recurrence)
	e.LastModified = timePtr(lastModified)
	return e, nil
}

// ListCalendarEvents returns cached events ordered by start time.
func (s *DataService) ListCalendarEvents(userID string) ([]CalendarEvent, error) {
	rows, err := s.db.Query(`SELECT `+eventColumns+` FROM calendar_events WHERE user_id = ? ORDER BY start_time ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar events: %w", err)
	}
	defer rows.Close()

	events := []CalendarEvent{}
	for rows.Next() {
		e, err := scanCalendarEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ReplaceCalendarEvents swaps the cached events for one calendar URL.
// Duplicate external ids are silently skipped.
func (s *DataService) ReplaceCalendarEvents(userID, calendarURL string, events []CalendarEvent) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM calendar_events WHERE user_id = ? AND calendar_url = ?`, userID, calendarURL); err != nil {
		return fmt.Errorf("failed to delete calendar events: %w", err)
	}
	for i := range events {
		e := events[i]
		if e.CalendarURL == "" {
			e.CalendarURL = calendarURL
		}
		if err := insertCalendarEvent(tx, userID, &e); err != nil {
			return fmt.Errorf("failed to insert calendar event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertCalendarEvent stores one event. The incoming ID is the client's id
// and lands in external_id; inserts are duplicate-tolerant on
// (user, external id).
func insertCalendarEvent(tx *sql.Tx, userID string, e *CalendarEvent) error {
	externalID := e.ExternalID
	if externalID == "" {
		externalID = e.ID
	}
	_, err := tx.Exec(`INSERT OR IGNORE INTO calendar_events (`+eventColumns+`, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), nullIfEmpty(externalID), e.CalendarURL, e.UID, e.Title,
		nullStr(e.Description), nullStr(e.Location), e.StartTime, nullTime(e.EndTime),
		e.AllDay, nullStr(e.Status), nullStr(e.Recurrence), nullTime(e.LastModified), userID)
	return err
}

// DeleteCalendarEvents drops cached events, optionally scoped to one
// calendar URL.
func (s *DataService) DeleteCalendarEvents(userID, calendarURL string) error {
	var err error
	if calendarURL == "" {
		_, err = s.db.Exec(`DELETE FROM calendar_events WHERE user_id = ?`, userID)
	} else {
		_, err = s.db.Exec(`DELETE FROM calendar_events WHERE user_id = ? AND calendar_url = ?`, userID, calendarURL)
	}
	if err != nil {
		return fmt.Errorf("failed to delete calendar events: %w", err)
	}
	return nil
}

// Opaque JSON rows. Recurrence rules, checklist items and kanban boards are
// mirrored 1:1 with the client and never interpreted server-side.

func (s *DataService) listOpaque(table, userID string) ([]json.RawMessage, error) {
	rows, err := s.db.Query(`SELECT data FROM `+table+` WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	out := []json.RawMessage{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		out = append(out, json.RawMessage(data))
	}
	return out, rows.Err()
}

func (s *DataService) ListRecurrenceRules(userID string) ([]json.RawMessage, error) {
	return s.listOpaque("recurrence_rules", userID)
}

func (s *DataService) ListChecklistItems(userID string) ([]json.RawMessage, error) {
	return s.listOpaque("checklist_items", userID)
}

func (s *DataService) ListKanbanBoards(userID string) ([]json.RawMessage, error) {
	return s.listOpaque("kanban_boards", userID)
}

// TouchCalendarSourceSync stamps a source's last successful refresh.
func (s *DataService) TouchCalendarSourceSync(userID, id string) error {
	_, err := s.db.Exec(`UPDATE calendar_sources SET last_sync = ? WHERE user_id = ? AND id = ?`, time.Now(), userID, id)
	if err != nil {
		return fmt.Errorf("failed to stamp calendar source: %w", err)
	}
	return nil
}
