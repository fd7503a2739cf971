package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const noteColumns = `id, external_id, title, content, tags, linked_tasks, linked_notes, linked_projects,
	pinned, archived, daily_note, daily_note_date, created_at, updated_at`

func scanNote(row rowScanner) (Note, error) {
	var n Note
	var dbID string
	var external, dailyNoteDate sql.NullString

	err := row.Scan(&dbID, &external, &n.Title, &n.Content, &n.Tags, &n.LinkedTasks, &n.LinkedNotes,
		&n.LinkedProjects, &n.Pinned, &n.Archived, &n.DailyNote, &dailyNoteDate, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return Note{}, err
	}
	n.DBID = dbID
	n.ID = dbID
	if external.Valid && external.String != "" {
		n.ID = external.String
	}
	n.DailyNoteDate = strPtr(dailyNoteDate)
	return n, nil
}

func applyNoteDefaults(n *Note) {
	if n.Tags == nil {
		n.Tags = StringList{}
	}
	if n.LinkedTasks == nil {
		n.LinkedTasks = StringList{}
	}
	if n.LinkedNotes == nil {
		n.LinkedNotes = StringList{}
	}
	if n.LinkedProjects == nil {
		n.LinkedProjects = StringList{}
	}
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = now
	}
}

// ListNotes returns the user's notes, most recently edited first.
func (s *DataService) ListNotes(userID string) ([]Note, error) {
	rows, err := s.db.Query(`SELECT `+noteColumns+` FROM notes WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// GetNote fetches one note by database id or external id.
func (s *DataService) GetNote(userID, id string) (*Note, error) {
	row := s.db.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE user_id = ? AND (id = ? OR external_id = ?)`, userID, id, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query note: %w", err)
	}
	return &n, nil
}

func insertNote(tx *sql.Tx, userID string, n *Note) error {
	_, err := tx.Exec(`INSERT INTO notes (`+noteColumns+`, user_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.DBID, nullIfEmpty(n.ID), n.Title, n.Content, n.Tags, n.LinkedTasks, n.LinkedNotes, n.LinkedProjects,
		n.Pinned, n.Archived, n.DailyNote, nullStr(n.DailyNoteDate), n.CreatedAt, n.UpdatedAt, userID)
	return err
}

// CreateNote inserts a new note.
func (s *DataService) CreateNote(userID string, n *Note) (*Note, error) {
	applyNoteDefaults(n)
	n.DBID = uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertNote(tx, userID, n); err != nil {
		return nil, fmt.Errorf("failed to insert note: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.GetNote(userID, n.DBID)
}

// UpdateNote overwrites a note's mutable fields.
func (s *DataService) UpdateNote(userID, id string, n *Note) (*Note, error) {
	existing, err := s.GetNote(userID, id)
	if err != nil {
		return nil, err
	}
	applyNoteDefaults(n)

	_, err = s.db.Exec(`UPDATE notes SET title = ?, content = ?, tags = ?, linked_tasks = ?, linked_notes = ?,
		linked_projects = ?, pinned = ?, archived = ?, daily_note = ?, daily_note_date = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		n.Title, n.Content, n.Tags, n.LinkedTasks, n.LinkedNotes, n.LinkedProjects,
		n.Pinned, n.Archived, n.DailyNote, nullStr(n.DailyNoteDate), time.Now(),
		userID, existing.DBID)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return s.GetNote(userID, existing.DBID)
}

// DeleteNote removes a note by database id or external id.
func (s *DataService) DeleteNote(userID, id string) error {
	res, err := s.db.Exec(`DELETE FROM notes WHERE user_id = ? AND (id = ? OR external_id = ?)`, userID, id, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkUpsertNotes creates or updates notes keyed by their external id.
func (s *DataService) BulkUpsertNotes(userID string, notes []Note) ([]Note, []error) {
	results := make([]Note, 0, len(notes))
	var errs []error
	for i := range notes {
		n := notes[i]
		existing, err := s.GetNote(userID, n.ID)
		switch {
		case err == nil:
			updated, uerr := s.UpdateNote(userID, existing.DBID, &n)
			if uerr != nil {
				errs = append(errs, fmt.Errorf("note %s: %w", n.ID, uerr))
				continue
			}
			results = append(results, *updated)
		case err == ErrNotFound:
			created, cerr := s.CreateNote(userID, &n)
			if cerr != nil {
				errs = append(errs, fmt.Errorf("note %s: %w", n.ID, cerr))
				continue
			}
			results = append(results, *created)
		default:
			errs = append(errs, fmt.Errorf("note %s: %w", n.ID, err))
		}
	}
	return results, errs
}
