package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrTagExists is returned when a tag with the same name already exists for
// the user.
var ErrTagExists = errors.New("tag already exists")

const tagColumns = `id, external_id, name, color, count`

func scanTag(row rowScanner) (Tag, error) {
	var t Tag
	var dbID string
	var external, color sql.NullString

	if err := row.Scan(&dbID, &external, &t.Name, &color, &t.Count); err != nil {
		return Tag{}, err
	}
	t.DBID = dbID
	t.ID = dbID
	if external.Valid && external.String != "" {
		t.ID = external.String
	}
	t.Color = strPtr(color)
	return t, nil
}

// ListTags returns the user's tags alphabetically.
func (s *DataService) ListTags(userID string) ([]Tag, error) {
	rows, err := s.db.Query(`SELECT `+tagColumns+` FROM tags WHERE user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetTag fetches one tag by database id or external id.
func (s *DataService) GetTag(userID, id string) (*Tag, error) {
	row := s.db.QueryRow(`SELECT `+tagColumns+` FROM tags WHERE user_id = ? AND (id = ? OR external_id = ?)`, userID, id, id)
	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tag: %w", err)
	}
	return &t, nil
}

// GetTagByName fetches one tag by its unique per-user name.
func (s *DataService) GetTagByName(userID, name string) (*Tag, error) {
	row := s.db.QueryRow(`SELECT `+tagColumns+` FROM tags WHERE user_id = ? AND name = ?`, userID, name)
	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tag: %w", err)
	}
	return &t, nil
}

// CreateTag inserts a new tag; ErrTagExists when the name is taken.
func (s *DataService) CreateTag(userID string, t *Tag) (*Tag, error) {
	if existing, err := s.GetTagByName(userID, t.Name); err == nil {
		return existing, ErrTagExists
	} else if err != ErrNotFound {
		return nil, err
	}

	t.DBID = uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO tags (`+tagColumns+`, user_id) VALUES (?, ?, ?, ?, ?, ?)`,
		t.DBID, nullIfEmpty(t.ID), t.Name, nullStr(t.Color), t.Count, userID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrTagExists
		}
		return nil, fmt.Errorf("failed to insert tag: %w", err)
	}
	return s.GetTag(userID, t.DBID)
}

// UpdateTag overwrites a tag's name, color and count.
func (s *DataService) UpdateTag(userID, id string, t *Tag) (*Tag, error) {
	existing, err := s.GetTag(userID, id)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`UPDATE tags SET name = ?, color = ?, count = ? WHERE user_id = ? AND id = ?`,
		t.Name, nullStr(t.Color), t.Count, userID, existing.DBID)
	if err != nil {
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}
	return s.GetTag(userID, existing.DBID)
}

// DeleteTag removes a tag by database id or external id.
func (s *DataService) DeleteTag(userID, id string) error {
	res, err := s.db.Exec(`DELETE FROM tags WHERE user_id = ? AND (id = ? OR external_id = ?)`, userID, id, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkUpsertTags creates or updates tags keyed by name (unique per user).
func (s *DataService) BulkUpsertTags(userID string, tags []Tag) ([]Tag, []error) {
	results := make([]Tag, 0, len(tags))
	var errs []error
	for i := range tags {
		t := tags[i]
		existing, err := s.GetTagByName(userID, t.Name)
		switch {
		case err == nil:
			updated, uerr := s.UpdateTag(userID, existing.DBID, &t)
			if uerr != nil {
				errs = append(errs, fmt.Errorf("tag %s: %w", t.Name, uerr))
				continue
			}
			results = append(results, *updated)
		case err == ErrNotFound:
			created, cerr := s.CreateTag(userID, &t)
			if cerr != nil {
				errs = append(errs, fmt.Errorf("tag %s: %w", t.Name, cerr))
				continue
			}
			results = append(results, *created)
		default:
			errs = append(errs, fmt.Errorf("tag %s: %w", t.Name, err))
		}
	}
	return results, errs
}
