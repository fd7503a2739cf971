package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is a JSON string array persisted as a TEXT column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	if len(b) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(b, l)
}

// User is an account row. Users own every other entity; nothing is shared
// across accounts.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name,omitempty"`
	AvatarURL   *string    `json:"avatarUrl,omitempty"`
	IsAdmin     bool       `json:"isAdmin"`
	Language    string     `json:"language"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Task is the primary mutable entity. The client addresses tasks by the
// external id it generated; the database id is a server-only surrogate. On
// every read the external id is surfaced as ID and the surrogate as DBID —
// the two must never be conflated.
type Task struct {
	ID               string          `json:"id"`
	DBID             string          `json:"_dbId,omitempty"`
	Title            string          `json:"title"`
	Description      *string         `json:"description"`
	Completed        bool            `json:"completed"`
	Priority         string          `json:"priority"`
	EstimatedTime    *int64          `json:"estimatedTime"`
	TrackedTime      *int64          `json:"trackedTime"`
	Tags             StringList      `json:"tags"`
	Subtasks         json.RawMessage `json:"subtasks"`
	ColumnID         *string         `json:"columnId"`
	ProjectID        *string         `json:"projectId"`
	KanbanColumnID   *string         `json:"kanbanColumnId"`
	PinColumnID      *string         `json:"pinColumnId"`
	Pinned           bool            `json:"pinned"`
	ReminderDate     *string         `json:"reminderDate"`
	ReminderTime     *string         `json:"reminderTime"`
	DueDate          *string         `json:"dueDate"`
	Position         int64           `json:"position"`
	Archived         bool            `json:"archived"`
	CompletedAt      *time.Time      `json:"completedAt"`
	LinkedNotes      StringList      `json:"linkedNotes"`
	RecurrenceRuleID *string         `json:"recurrenceRuleId"`
	ParentSeriesID   *string         `json:"parentSeriesId"`
	IsSeriesTemplate bool            `json:"isSeriesTemplate"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Column is either a planner date column, a project container, or a custom
// column, distinguished by Type.
type Column struct {
	ID          string          `json:"id"`
	DBID        string          `json:"_dbId,omitempty"`
	Title       string          `json:"title"`
	Type        string          `json:"type"`
	Date        *string         `json:"date"`
	Order       int             `json:"order"`
	LinkedNotes StringList      `json:"linkedNotes"`
	Timebudget  json.RawMessage `json:"timebudget,omitempty"`
	Color       *string         `json:"color"`
}

// Tag names are unique per user; Count is a denormalized usage counter
// maintained by the client.
type Tag struct {
	ID    string  `json:"id"`
	DBID  string  `json:"_dbId,omitempty"`
	Name  string  `json:"name"`
	Color *string `json:"color"`
	Count int     `json:"count"`
}

type PinColumn struct {
	ID    string  `json:"id"`
	DBID  string  `json:"_dbId,omitempty"`
	Title string  `json:"title"`
	Color *string `json:"color"`
	Order int     `json:"order"`
}

type Note struct {
	ID             string     `json:"id"`
	DBID           string     `json:"_dbId,omitempty"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Tags           StringList `json:"tags"`
	LinkedTasks    StringList `json:"linkedTasks"`
	LinkedNotes    StringList `json:"linkedNotes"`
	LinkedProjects StringList `json:"linkedProjects"`
	Pinned         bool       `json:"pinned"`
	Archived       bool       `json:"archived"`
	DailyNote      bool       `json:"dailyNote"`
	DailyNoteDate  *string    `json:"dailyNoteDate"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// CalendarSource rows are keyed by their database id alone; they carry no
// external id and are returned to the client unnormalized.
type CalendarSource struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	URL      string     `json:"url"`
	Color    string     `json:"color"`
	Enabled  bool       `json:"enabled"`
	LastSync *time.Time `json:"lastSync"`
}

type CalendarEvent struct {
	ID           string     `json:"id"`
	ExternalID   string     `json:"externalId,omitempty"`
	CalendarURL  string     `json:"calendarUrl"`
	UID          string     `json:"uid"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	Location     *string    `json:"location"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime"`
	AllDay       bool       `json:"allDay"`
	Status       *string    `json:"status"`
	Recurrence   *string    `json:"recurrence"`
	LastModified *time.Time `json:"lastModified"`
}

// Snapshot is the full per-user dataset exchanged on sync. The GET response
// splits tasks by the archived flag; the POST body merges both arrays back
// into one insert. RecurrenceRules, ChecklistItems and KanbanBoards are
// opaque rows: they appear in GET responses and are cleared on POST, but the
// POST payload never repopulates them.
type Snapshot struct {
	Tasks           []Task            `json:"tasks"`
	ArchivedTasks   []Task            `json:"archivedTasks"`
	Columns         []Column          `json:"columns"`
	Tags            []Tag             `json:"tags"`
	PinColumns      []PinColumn       `json:"pinColumns"`
	Notes           []Note            `json:"notes"`
	Preferences     json.RawMessage   `json:"preferences,omitempty"`
	ViewState       json.RawMessage   `json:"viewState,omitempty"`
	CalendarSources []CalendarSource  `json:"calendarSources"`
	Events          []CalendarEvent   `json:"events"`
	RecurrenceRules []json.RawMessage `json:"recurrenceRules"`
	ChecklistItems  []json.RawMessage `json:"checklistItems"`
	KanbanBoards    []json.RawMessage `json:"kanbanBoards"`
	SyncedAt        string            `json:"syncedAt,omitempty"`
}
