package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const userColumns = `id, email, name, avatar_url, is_admin, language, created_at, updated_at, last_login_at`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var avatar sql.NullString
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.Name, &avatar, &u.IsAdmin, &u.Language, &u.CreatedAt, &u.UpdatedAt, &lastLogin)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.AvatarURL = strPtr(avatar)
	u.LastLoginAt = timePtr(lastLogin)
	return &u, nil
}

// GetUser looks a user up by id.
func (s *DataService) GetUser(id string) (*User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail looks a user up by email (case-insensitive).
func (s *DataService) GetUserByEmail(email string) (*User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?)`, email)
	return scanUser(row)
}

// FindOrCreateUser returns the user for email, creating the account on
// first login. New accounts get default preferences, a default view state
// and a default "Fokus" pin column; adminEmail becomes an admin.
func (s *DataService) FindOrCreateUser(email string, adminEmail string) (*User, error) {
	user, err := s.GetUserByEmail(email)
	if err == nil {
		now := time.Now()
		_, err = s.db.Exec(`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`, now, now, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to update last login: %w", err)
		}
		user.LastLoginAt = &now
		user.UpdatedAt = now
		return user, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	now := time.Now()
	user = &User{
		ID:          uuid.NewString(),
		Email:       email,
		IsAdmin:     adminEmail != "" && strings.EqualFold(email, adminEmail),
		Language:    "de",
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLoginAt: &now,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO users (id, email, name, is_admin, language, created_at, updated_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.IsAdmin, user.Language, user.CreatedAt, user.UpdatedAt, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO user_preferences (user_id, preferences, updated_at) VALUES (?, ?, ?)`,
		user.ID, defaultPreferences, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert default preferences: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO view_state (user_id, state, updated_at) VALUES (?, ?, ?)`,
		user.ID, defaultViewState, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert default view state: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO pin_columns (id, user_id, title, color, sort_order) VALUES (?, ?, 'Fokus', '#64748b', 0)`,
		uuid.NewString(), user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert default pin column: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// UserCounts mirrors the aggregate block the admin UI expects.
type UserCounts struct {
	Tasks    int `json:"tasks"`
	Projects int `json:"projects"`
}

// UserSummary is one row of the admin user list.
type UserSummary struct {
	User
	Count          UserCounts `json:"_count"`
	LastActivityAt *time.Time `json:"lastActivityAt"`
}

// ListUsers returns every account with open-task and project counts plus a
// best-effort last-activity timestamp, most recently active first.
func (s *DataService) ListUsers() ([]UserSummary, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY last_login_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var out []UserSummary
	for rows.Next() {
		var u UserSummary
		var avatar sql.NullString
		var lastLogin sql.NullTime
		err := rows.Scan(&u.ID, &u.Email, &u.Name, &avatar, &u.IsAdmin, &u.Language, &u.CreatedAt, &u.UpdatedAt, &lastLogin)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.AvatarURL = strPtr(avatar)
		u.LastLoginAt = timePtr(lastLogin)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	for i := range out {
		u := &out[i]
		err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE user_id = ? AND completed = 0`, u.ID).Scan(&u.Count.Tasks)
		if err != nil {
			return nil, fmt.Errorf("failed to count tasks: %w", err)
		}
		err = s.db.QueryRow(`SELECT COUNT(*) FROM columns WHERE user_id = ? AND type = 'project'`, u.ID).Scan(&u.Count.Projects)
		if err != nil {
			return nil, fmt.Errorf("failed to count projects: %w", err)
		}

		// Last activity is the most recent of task edits, note edits and
		// the last login.
		var taskAt, noteAt sql.NullTime
		s.db.QueryRow(`SELECT MAX(updated_at) FROM tasks WHERE user_id = ?`, u.ID).Scan(&taskAt)
		s.db.QueryRow(`SELECT MAX(updated_at) FROM notes WHERE user_id = ?`, u.ID).Scan(&noteAt)
		last := u.LastLoginAt
		for _, candidate := range []sql.NullTime{taskAt, noteAt} {
			if candidate.Valid && (last == nil || candidate.Time.After(*last)) {
				t := candidate.Time
				last = &t
			}
		}
		u.LastActivityAt = last
	}

	return out, nil
}

// UserDetail is the admin single-user view: the account plus per-entity
// row counts.
type UserDetail struct {
	User
	Count map[string]int `json:"_count"`
}

// GetUserDetail returns one account with row counts across its entities.
func (s *DataService) GetUserDetail(id string) (*UserDetail, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	detail := &UserDetail{User: *user, Count: make(map[string]int)}
	tables := map[string]string{
		"tasks":           "tasks",
		"notes":           "notes",
		"columns":         "columns",
		"tags":            "tags",
		"pinColumns":      "pin_columns",
		"calendarSources": "calendar_sources",
		"events":          "calendar_events",
		"checklistItems":  "checklist_items",
	}
	for key, table := range tables {
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE user_id = ?`, id).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		detail.Count[key] = n
	}
	return detail, nil
}

// DeleteUser removes an account and all of its data.
func (s *DataService) DeleteUser(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range userDataTables {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE user_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	res, err := tx.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SetAdmin toggles the admin flag on an account.
func (s *DataService) SetAdmin(id string, isAdmin bool) error {
	res, err := s.db.Exec(`UPDATE users SET is_admin = ?, updated_at = ? WHERE id = ?`, isAdmin, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update admin flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats is the instance-wide admin dashboard payload.
type Stats struct {
	TotalUsers           int `json:"totalUsers"`
	TotalTasks           int `json:"totalTasks"`
	TotalProjects        int `json:"totalProjects"`
	ActiveUsersLast7Days int `json:"activeUsersLast7Days"`
	ActiveUsersLast30    int `json:"activeUsersLast30Days"`
}

// GetStats counts users, open tasks, projects and recently active users.
func (s *DataService) GetStats() (*Stats, error) {
	var st Stats
	queries := []struct {
		dest *int
		q    string
		args []any
	}{
		{&st.TotalUsers, `SELECT COUNT(*) FROM users`, nil},
		{&st.TotalTasks, `SELECT COUNT(*) FROM tasks WHERE completed = 0`, nil},
		{&st.TotalProjects, `SELECT COUNT(*) FROM columns WHERE type = 'project'`, nil},
		{&st.ActiveUsersLast7Days, `SELECT COUNT(*) FROM users WHERE last_login_at >= ?`, []any{time.Now().AddDate(0, 0, -7)}},
		{&st.ActiveUsersLast30, `SELECT COUNT(*) FROM users WHERE last_login_at >= ?`, []any{time.Now().AddDate(0, 0, -30)}},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.q, q.args...).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("failed to query stats: %w", err)
		}
	}
	return &st, nil
}
