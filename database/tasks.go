package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const taskColumns = `id, external_id, title, description, completed, priority, estimated_time, tracked_time,
	tags, subtasks, column_id, project_id, kanban_column_id, pin_column_id, pinned,
	reminder_date, reminder_time, due_date, position, archived, completed_at, linked_notes,
	recurrence_rule_id, parent_series_id, is_series_template, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var t Task
	var dbID string
	var external, description, columnID, projectID, kanbanColumnID, pinColumnID sql.NullString
	var reminderDate, reminderTime, dueDate, recurrenceRuleID, parentSeriesID sql.NullString
	var estimated, tracked sql.NullInt64
	var completedAt sql.NullTime
	var subtasks string

	err := row.Scan(&dbID, &external, &t.Title, &description, &t.Completed, &t.Priority,
		&estimated, &tracked, &t.Tags, &subtasks, &columnID, &projectID, &kanbanColumnID,
		&pinColumnID, &t.Pinned, &reminderDate, &reminderTime, &dueDate, &t.Position,
		&t.Archived, &completedAt, &t.LinkedNotes, &recurrenceRuleID, &parentSeriesID,
		&t.IsSeriesTemplate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Task{}, err
	}

	// The client addresses tasks by external id; the surrogate stays in _dbId.
	t.DBID = dbID
	t.ID = dbID
	if external.Valid && external.String != "" {
		t.ID = external.String
	}
	t.Description = strPtr(description)
	t.EstimatedTime = int64Ptr(estimated)
	t.TrackedTime = int64Ptr(tracked)
	t.Subtasks = json.RawMessage(subtasks)
	t.ColumnID = strPtr(columnID)
	t.ProjectID = strPtr(projectID)
	t.KanbanColumnID = strPtr(kanbanColumnID)
	t.PinColumnID = strPtr(pinColumnID)
	t.ReminderDate = strPtr(reminderDate)
	t.ReminderTime = strPtr(reminderTime)
	t.DueDate = strPtr(dueDate)
	t.CompletedAt = timePtr(completedAt)
	t.RecurrenceRuleID = strPtr(recurrenceRuleID)
	t.ParentSeriesID = strPtr(parentSeriesID)
	return t, nil
}

// applyTaskDefaults fills the server-assigned defaults the client may omit.
// A zero position means "unset" and falls back to the current unix
// millisecond timestamp.
func applyTaskDefaults(t *Task) {
	if t.Priority == "" {
		t.Priority = "none"
	}
	if t.Position == 0 {
		t.Position = time.Now().UnixMilli()
	}
	if t.Tags == nil {
		t.Tags = StringList{}
	}
	if t.LinkedNotes == nil {
		t.LinkedNotes = StringList{}
	}
	if len(t.Subtasks) == 0 {
		t.Subtasks = json.RawMessage(`[]`)
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
}

// ListTasks returns the user's tasks ordered by position. Archived tasks are
// excluded unless includeArchived is set.
func (s *DataService) ListTasks(userID string, includeArchived bool) ([]Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	if !includeArchived {
		q += ` AND archived = 0`
	}
	q += ` ORDER BY position ASC`

	rows, err := s.db.Query(q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListArchivedTasks returns only archived tasks, most recently edited first.
func (s *DataService) ListArchivedTasks(userID string) ([]Task, error) {
	rows, err := s.db.Query(`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND archived = 1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask fetches one task by database id or external id.
func (s *DataService) GetTask(userID, id string) (*Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND (id = ? OR external_id = ?)`, userID, id, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return &t, nil
}

func insertTask(tx *sql.Tx, userID string, t *Task) error {
	_, err := tx.Exec(`INSERT INTO tasks (`+taskColumns+`, user_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.DBID, nullIfEmpty(t.ID), t.Title, nullStr(t.Description), t.Completed, t.Priority,
		t.EstimatedTime, t.TrackedTime, t.Tags, string(t.Subtasks), nullStr(t.ColumnID),
		nullStr(t.ProjectID), nullStr(t.KanbanColumnID), nullStr(t.PinColumnID), t.Pinned,
		nullStr(t.ReminderDate), nullStr(t.ReminderTime), nullStr(t.DueDate), t.Position,
		t.Archived, nullTime(t.CompletedAt), t.LinkedNotes, nullStr(t.RecurrenceRuleID),
		nullStr(t.ParentSeriesID), t.IsSeriesTemplate, t.CreatedAt, t.UpdatedAt, userID)
	return err
}

// CreateTask inserts a new task. The incoming ID is treated as the client's
// external id; a fresh surrogate id is assigned.
func (s *DataService) CreateTask(userID string, t *Task) (*Task, error) {
	applyTaskDefaults(t)
	t.DBID = uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertTask(tx, userID, t); err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.GetTask(userID, t.DBID)
}

// UpdateTask overwrites a task's mutable fields.
func (s *DataService) UpdateTask(userID, id string, t *Task) (*Task, error) {
	existing, err := s.GetTask(userID, id)
	if err != nil {
		return nil, err
	}
	if t.Tags == nil {
		t.Tags = StringList{}
	}
	if t.LinkedNotes == nil {
		t.LinkedNotes = StringList{}
	}
	if len(t.Subtasks) == 0 {
		t.Subtasks = json.RawMessage(`[]`)
	}

	_, err = s.db.Exec(`UPDATE tasks SET title = ?, description = ?, completed = ?, priority = ?,
		estimated_time = ?, tracked_time = ?, tags = ?, subtasks = ?, column_id = ?, project_id = ?,
		kanban_column_id = ?, pin_column_id = ?, pinned = ?, reminder_date = ?, reminder_time = ?,
		due_date = ?, position = ?, archived = ?, completed_at = ?, linked_notes = ?,
		recurrence_rule_id = ?, parent_series_id = ?, is_series_template = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		t.Title, nullStr(t.Description), t.Completed, t.Priority,
		t.EstimatedTime, t.TrackedTime, t.Tags, string(t.Subtasks), nullStr(t.ColumnID), nullStr(t.ProjectID),
		nullStr(t.KanbanColumnID), nullStr(t.PinColumnID), t.Pinned, nullStr(t.ReminderDate), nullStr(t.ReminderTime),
		nullStr(t.DueDate), t.Position, t.Archived, nullTime(t.CompletedAt), t.LinkedNotes,
		nullStr(t.RecurrenceRuleID), nullStr(t.ParentSeriesID), t.IsSeriesTemplate, time.Now(),
		userID, existing.DBID)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return s.GetTask(userID, existing.DBID)
}

// DeleteTask removes a task by database id or external id.
func (s *DataService) DeleteTask(userID, id string) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE user_id = ? AND (id = ? OR external_id = ?)`, userID, id, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTaskArchived flips the archived flag.
func (s *DataService) SetTaskArchived(userID, id string, archived bool) (*Task, error) {
	existing, err := s.GetTask(userID, id)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`UPDATE tasks SET archived = ?, updated_at = ? WHERE user_id = ? AND id = ?`,
		archived, time.Now(), userID, existing.DBID)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return s.GetTask(userID, existing.DBID)
}

// BulkUpsertTasks creates or updates tasks keyed by their external id.
// Failures are reported per task rather than aborting the batch.
func (s *DataService) BulkUpsertTasks(userID string, tasks []Task) ([]Task, []error) {
	results := make([]Task, 0, len(tasks))
	var errs []error
	for i := range tasks {
		t := tasks[i]
		existing, err := s.GetTask(userID, t.ID)
		switch {
		case err == nil:
			updated, uerr := s.UpdateTask(userID, existing.DBID, &t)
			if uerr != nil {
				errs = append(errs, fmt.Errorf("task %s: %w", t.ID, uerr))
				continue
			}
			results = append(results, *updated)
		case err == ErrNotFound:
			created, cerr := s.CreateTask(userID, &t)
			if cerr != nil {
				errs = append(errs, fmt.Errorf("task %s: %w", t.ID, cerr))
				continue
			}
			results = append(results, *created)
		default:
			errs = append(errs, fmt.Errorf("task %s: %w", t.ID, err))
		}
	}
	return results, errs
}

// TaskPlacement is one task's slot after a reorder. SetColumns additionally
// rewrites the column assignment, used for the task that changed columns.
type TaskPlacement struct {
	Position       int64
	ColumnID       *string
	KanbanColumnID *string
	SetColumns     bool
}

func (s *DataService) UpdateTaskPositions(userID string, placements map[string]TaskPlacement) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for id, p := range placements {
		if p.SetColumns {
			_, err = tx.Exec(`UPDATE tasks SET position = ?, column_id = ?, kanban_column_id = ?, updated_at = ?
				WHERE user_id = ? AND (id = ? OR external_id = ?)`,
				p.Position, nullStr(p.ColumnID), nullStr(p.KanbanColumnID), now, userID, id, id)
		} else {
			_, err = tx.Exec(`UPDATE tasks SET position = ?, updated_at = ?
				WHERE user_id = ? AND (id = ? OR external_id = ?)`,
				p.Position, now, userID, id, id)
		}
		if err != nil {
			return fmt.Errorf("failed to update position for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
