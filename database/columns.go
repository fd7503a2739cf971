package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const columnColumns = `id, external_id, title, type, date, sort_order, linked_notes, timebudget, color`

func scanColumn(row rowScanner) (Column, error) {
	var c Column
	var dbID string
	var external, date, timebudget, color sql.NullString

	err := row.Scan(&dbID, &external, &c.Title, &c.Type, &date, &c.Order, &c.LinkedNotes, &timebudget, &color)
	if err != nil {
		return Column{}, err
	}
	c.DBID = dbID
	c.ID = dbID
	if external.Valid && external.String != "" {
		c.ID = external.String
	}
	c.Date = strPtr(date)
	if timebudget.Valid {
		c.Timebudget = []byte(timebudget.String)
	}
	c.Color = strPtr(color)
	return c, nil
}

func applyColumnDefaults(c *Column) {
	if c.Type == "" {
		c.Type = "date"
	}
	if c.LinkedNotes == nil {
		c.LinkedNotes = StringList{}
	}
}

// ListColumns returns the user's planner and project columns by order.
func (s *DataService) ListColumns(userID string) ([]Column, error) {
	rows, err := s.db.Query(`SELECT `+columnColumns+` FROM columns WHERE user_id = ? ORDER BY sort_order ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	columns := []Column{}
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// GetColumn fetches one column by database id or external id.
func (s *DataService) GetColumn(userID, id string) (*Column, error) {
	row := s.db.QueryRow(`SELECT `+columnColumns+` FROM columns WHERE user_id = ? AND (id = ? OR external_id = ?)`, userID, id, id)
	c, err := scanColumn(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query column: %w", err)
	}
	return &c, nil
}

func insertColumn(tx *sql.Tx, userID string, c *Column) error {
	_, err := tx.Exec(`INSERT INTO columns (`+columnColumns+`, user_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.DBID, nullIfEmpty(c.ID), c.Title, c.Type, nullStr(c.Date), c.Order, c.LinkedNotes,
		rawOrNil(c.Timebudget), nullStr(c.Color), userID)
	return err
}

// CreateColumn inserts a new column, assigning a fresh surrogate id.
func (s *DataService) CreateColumn(userID string, c *Column) (*Column, error) {
	applyColumnDefaults(c)
	c.DBID = uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertColumn(tx, userID, c); err != nil {
		return nil, fmt.Errorf("failed to insert column: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.GetColumn(userID, c.DBID)
}

// UpdateColumn overwrites a column's mutable fields.
func (s *DataService) UpdateColumn(userID, id string, c *Column) (*Column, error) {
	existing, err := s.GetColumn(userID, id)
	if err != nil {
		return nil, err
	}
	applyColumnDefaults(c)

	_, err = s.db.Exec(`UPDATE columns SET title = ?, type = ?, date = ?, sort_order = ?, linked_notes = ?, timebudget = ?, color = ?
		WHERE user_id = ? AND id = ?`,
		c.Title, c.Type, nullStr(c.Date), c.Order, c.LinkedNotes, rawOrNil(c.Timebudget), nullStr(c.Color),
		userID, existing.DBID)
	if err != nil {
		return nil, fmt.Errorf("failed to update column: %w", err)
	}
	return s.GetColumn(userID, existing.DBID)
}

// DeleteColumn removes a column by database id or external id.
func (s *DataService) DeleteColumn(userID, id string) error {
	res, err := s.db.Exec(`DELETE FROM columns WHERE user_id = ? AND (id = ? OR external_id = ?)`, userID, id, id)
	if err != nil {
		return fmt.Errorf("failed to delete column: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReorderColumns rewrites each listed column's order to its index in ids.
// Unknown ids are skipped.
func (s *DataService) ReorderColumns(userID string, ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for index, id := range ids {
		_, err := tx.Exec(`UPDATE columns SET sort_order = ? WHERE user_id = ? AND (id = ? OR external_id = ?)`,
			index, userID, id, id)
		if err != nil {
			return fmt.Errorf("failed to reorder column %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// BulkUpsertColumns creates or updates columns keyed by their external id.
func (s *DataService) BulkUpsertColumns(userID string, columns []Column) ([]Column, []error) {
	results := make([]Column, 0, len(columns))
	var errs []error
	for i := range columns {
		c := columns[i]
		existing, err := s.GetColumn(userID, c.ID)
		switch {
		case err == nil:
			updated, uerr := s.UpdateColumn(userID, existing.DBID, &c)
			if uerr != nil {
				errs = append(errs, fmt.Errorf("column %s: %w", c.ID, uerr))
				continue
			}
			results = append(results, *updated)
		case err == ErrNotFound:
			created, cerr := s.CreateColumn(userID, &c)
			if cerr != nil {
				errs = append(errs, fmt.Errorf("column %s: %w", c.ID, cerr))
				continue
			}
			results = append(results, *created)
		default:
			errs = append(errs, fmt.Errorf("column %s: %w", c.ID, err))
		}
	}
	return results, errs
}
