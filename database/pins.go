package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const pinColumnColumns = `id, external_id, title, color, sort_order`

func scanPinColumn(row rowScanner) (PinColumn, error) {
	var p PinColumn
	var dbID string
	var external, color sql.NullString

	if err := row.Scan(&dbID, &external, &p.Title, &color, &p.Order); err != nil {
		return PinColumn{}, err
	}
	p.DBID = dbID
	p.ID = dbID
	if external.Valid && external.String != "" {
		p.ID = external.String
	}
	p.Color = strPtr(color)
	return p, nil
}

// ListPinColumns returns the user's pin columns by order.
func (s *DataService) ListPinColumns(userID string) ([]PinColumn, error) {
	rows, err := s.db.Query(`SELECT `+pinColumnColumns+` FROM pin_columns WHERE user_id = ? ORDER BY sort_order ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pin columns: %w", err)
	}
	defer rows.Close()

	pins := []PinColumn{}
	for rows.Next() {
		p, err := scanPinColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pin column: %w", err)
		}
		pins = append(pins, p)
	}
	return pins, rows.Err()
}

// GetPinColumn fetches one pin column by database id or external id.
func (s *DataService) GetPinColumn(userID, id string) (*PinColumn, error) {
	row := s.db.QueryRow(`SELECT `+pinColumnColumns+` FROM pin_columns WHERE user_id = ? AND (id = ? OR external_id = ?)`, userID, id, id)
	p, err := scanPinColumn(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pin column: %w", err)
	}
	return &p, nil
}

// CreatePinColumn inserts a new pin column.
func (s *DataService) CreatePinColumn(userID string, p *PinColumn) (*PinColumn, error) {
	p.DBID = uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO pin_columns (`+pinColumnColumns+`, user_id) VALUES (?, ?, ?, ?, ?, ?)`,
		p.DBID, nullIfEmpty(p.ID), p.Title, nullStr(p.Color), p.Order, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert pin column: %w", err)
	}
	return s.GetPinColumn(userID, p.DBID)
}

// UpdatePinColumn overwrites a pin column's title, color and order.
func (s *DataService) UpdatePinColumn(userID, id string, p *PinColumn) (*PinColumn, error) {
	existing, err := s.GetPinColumn(userID, id)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`UPDATE pin_columns SET title = ?, color = ?, sort_order = ? WHERE user_id = ? AND id = ?`,
		p.Title, nullStr(p.Color), p.Order, userID, existing.DBID)
	if err != nil {
		return nil, fmt.Errorf("failed to update pin column: %w", err)
	}
	return s.GetPinColumn(userID, existing.DBID)
}

// DeletePinColumn removes a pin column by database id or external id.
func (s *DataService) DeletePinColumn(userID, id string) error {
	res, err := s.db.Exec(`DELETE FROM pin_columns WHERE user_id = ? AND (id = ? OR external_id = ?)`, userID, id, id)
	if err != nil {
		return fmt.Errorf("failed to delete pin column: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
