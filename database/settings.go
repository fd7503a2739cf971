package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// GetPreferences returns the user's preferences blob, falling back to the
// hardcoded defaults when no row exists.
func (s *DataService) GetPreferences(userID string) (json.RawMessage, error) {
	var prefs string
	err := s.db.QueryRow(`SELECT preferences FROM user_preferences WHERE user_id = ?`, userID).Scan(&prefs)
	if err == sql.ErrNoRows {
		return json.RawMessage(defaultPreferences), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	return json.RawMessage(prefs), nil
}

// SavePreferences upserts the user's preferences blob.
func (s *DataService) SavePreferences(userID string, prefs json.RawMessage) error {
	_, err := s.db.Exec(`
		INSERT INTO user_preferences (user_id, preferences, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			preferences = excluded.preferences,
			updated_at = excluded.updated_at
	`, userID, jsonOr(prefs, defaultPreferences), time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return nil
}

// GetViewState returns the user's view state blob, falling back to the
// hardcoded defaults when no row exists.
func (s *DataService) GetViewState(userID string) (json.RawMessage, error) {
	var state string
	err := s.db.QueryRow(`SELECT state FROM view_state WHERE user_id = ?`, userID).Scan(&state)
	if err == sql.ErrNoRows {
		return json.RawMessage(defaultViewState), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query view state: %w", err)
	}
	return json.RawMessage(state), nil
}

// SaveViewState upserts the user's view state blob.
func (s *DataService) SaveViewState(userID string, state json.RawMessage) error {
	_, err := s.db.Exec(`
		INSERT INTO view_state (user_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`, userID, jsonOr(state, defaultViewState), time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert view state: %w", err)
	}
	return nil
}
