package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// userDataTables lists every per-user entity table, in deletion order for
// the replace-all sync. The users table itself is not included.
var userDataTables = []string{
	"tasks",
	"columns",
	"tags",
	"pin_columns",
	"notes",
	"calendar_sources",
	"calendar_events",
	"recurrence_rules",
	"checklist_items",
	"kanban_boards",
	"user_preferences",
	"view_state",
}

// GetSnapshot assembles the user's complete dataset with one fan-out of
// independent reads. Tasks are partitioned into active and archived.
func (s *DataService) GetSnapshot(userID string) (*Snapshot, error) {
	snap := &Snapshot{}
	var allTasks []Task

	var g errgroup.Group
	g.Go(func() (err error) {
		allTasks, err = s.ListTasks(userID, true)
		return err
	})
	g.Go(func() (err error) {
		snap.Columns, err = s.ListColumns(userID)
		return err
	})
	g.Go(func() (err error) {
		snap.Tags, err = s.ListTags(userID)
		return err
	})
	g.Go(func() (err error) {
		snap.PinColumns, err = s.ListPinColumns(userID)
		return err
	})
	g.Go(func() (err error) {
		snap.Notes, err = s.ListNotes(userID)
		return err
	})
	g.Go(func() (err error) {
		snap.Preferences, err = s.GetPreferences(userID)
		return err
	})
	g.Go(func() (err error) {
		snap.ViewState, err = s.GetViewState(userID)
		return err
	})
	g.Go(func() (err error) {
		snap.CalendarSources, err = s.ListCalendarSources(userID)
		return err
	})
	g.Go(func() (err error) {
		snap.Events, err = s.ListCalendarEvents(userID)
		return err
	})
	g.Go(func() (err error) {
		snap.RecurrenceRules, err = s.ListRecurrenceRules(userID)
		return err
	})
	g.Go(func() (err error) {
		snap.ChecklistItems, err = s.ListChecklistItems(userID)
		return err
	})
	g.Go(func() (err error) {
		snap.KanbanBoards, err = s.ListKanbanBoards(userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.Tasks = []Task{}
	snap.ArchivedTasks = []Task{}
	for _, t := range allTasks {
		if t.Archived {
			snap.ArchivedTasks = append(snap.ArchivedTasks, t)
		} else {
			snap.Tasks = append(snap.Tasks, t)
		}
	}
	return snap, nil
}

func insertTagIgnore(tx *sql.Tx, userID string, t *Tag) error {
	_, err := tx.Exec(`INSERT OR IGNORE INTO tags (`+tagColumns+`, user_id) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), nullIfEmpty(t.ID), t.Name, nullStr(t.Color), t.Count, userID)
	return err
}

func insertPinColumn(tx *sql.Tx, userID string, p *PinColumn) error {
	_, err := tx.Exec(`INSERT INTO pin_columns (`+pinColumnColumns+`, user_id) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), nullIfEmpty(p.ID), p.Title, nullStr(p.Color), p.Order, userID)
	return err
}

func insertCalendarSource(tx *sql.Tx, userID string, cs *CalendarSource) error {
	applySourceDefaults(cs)
	_, err := tx.Exec(`INSERT INTO calendar_sources (`+sourceColumns+`, user_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), cs.Name, cs.URL, cs.Color, cs.Enabled, nullTime(cs.LastSync), userID)
	return err
}

// ReplaceSnapshot atomically discards and rewrites every row the user owns.
// This is a destructive, last-writer-wins overwrite: anything missing from
// snap is gone after the call. Tag and calendar-event inserts tolerate
// duplicates; every other insert error aborts the whole transaction and
// leaves the prior state untouched.
func (s *DataService) ReplaceSnapshot(userID string, snap *Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Deletes must complete before any insert so replayed ids cannot
	// collide with stale rows.
	for _, table := range []string{"tasks", "columns", "tags", "pin_columns", "notes",
		"calendar_sources", "calendar_events", "recurrence_rules", "checklist_items", "kanban_boards"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Active and archived tasks go back into one insert.
	allTasks := make([]Task, 0, len(snap.Tasks)+len(snap.ArchivedTasks))
	allTasks = append(allTasks, snap.Tasks...)
	allTasks = append(allTasks, snap.ArchivedTasks...)
	for i := range allTasks {
		t := allTasks[i]
		applyTaskDefaults(&t)
		t.DBID = uuid.NewString()
		if err := insertTask(tx, userID, &t); err != nil {
			return fmt.Errorf("failed to insert task %s: %w", t.ID, err)
		}
	}

	for i := range snap.Columns {
		c := snap.Columns[i]
		applyColumnDefaults(&c)
		c.DBID = uuid.NewString()
		if err := insertColumn(tx, userID, &c); err != nil {
			return fmt.Errorf("failed to insert column %s: %w", c.ID, err)
		}
	}

	for i := range snap.Tags {
		if err := insertTagIgnore(tx, userID, &snap.Tags[i]); err != nil {
			return fmt.Errorf("failed to insert tag %s: %w", snap.Tags[i].Name, err)
		}
	}

	for i := range snap.PinColumns {
		if err := insertPinColumn(tx, userID, &snap.PinColumns[i]); err != nil {
			return fmt.Errorf("failed to insert pin column %s: %w", snap.PinColumns[i].ID, err)
		}
	}

	for i := range snap.Notes {
		n := snap.Notes[i]
		applyNoteDefaults(&n)
		n.DBID = uuid.NewString()
		if err := insertNote(tx, userID, &n); err != nil {
			return fmt.Errorf("failed to insert note %s: %w", n.ID, err)
		}
	}

	for i := range snap.CalendarSources {
		if err := insertCalendarSource(tx, userID, &snap.CalendarSources[i]); err != nil {
			return fmt.Errorf("failed to insert calendar source %s: %w", snap.CalendarSources[i].Name, err)
		}
	}

	for i := range snap.Events {
		if err := insertCalendarEvent(tx, userID, &snap.Events[i]); err != nil {
			return fmt.Errorf("failed to insert calendar event %s: %w", snap.Events[i].ID, err)
		}
	}

	now := time.Now()
	if len(snap.Preferences) > 0 {
		_, err := tx.Exec(`
			INSERT INTO user_preferences (user_id, preferences, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				preferences = excluded.preferences,
				updated_at = excluded.updated_at
		`, userID, string(snap.Preferences), now)
		if err != nil {
			return fmt.Errorf("failed to upsert preferences: %w", err)
		}
	}
	if len(snap.ViewState) > 0 {
		_, err := tx.Exec(`
			INSERT INTO view_state (user_id, state, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				state = excluded.state,
				updated_at = excluded.updated_at
		`, userID, string(snap.ViewState), now)
		if err != nil {
			return fmt.Errorf("failed to upsert view state: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
