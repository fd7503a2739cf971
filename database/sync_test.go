package database

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func newTestService(t *testing.T) *DataService {
	t.Helper()

	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to init database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewDataService(db)
}

func newTestUser(t *testing.T, s *DataService) *User {
	t.Helper()

	user, err := s.FindOrCreateUser("fox@example.com", "")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func strp(s string) *string { return &s }

func testSnapshot() *Snapshot {
	return &Snapshot{
		Tasks: []Task{
			{ID: "t1", Title: "Water plants", Position: 1, ColumnID: strp("c1")},
			{ID: "t2", Title: "Write report", Position: 2, ColumnID: strp("c1"), Priority: "high"},
		},
		ArchivedTasks: []Task{
			{ID: "t3", Title: "Old chore", Position: 3, Archived: true},
		},
		Columns: []Column{
			{ID: "c1", Title: "Today", Type: "date", Order: 0},
			{ID: "c2", Title: "Garden", Type: "project", Order: 1},
		},
		Tags: []Tag{
			{ID: "g1", Name: "home", Count: 2},
		},
		PinColumns: []PinColumn{
			{ID: "p1", Title: "Fokus", Order: 0},
		},
		Notes: []Note{
			{ID: "n1", Title: "Ideas", Content: "plant more basil"},
		},
		Preferences: json.RawMessage(`{"theme":"dark"}`),
		ViewState:   json.RawMessage(`{"currentView":"planner"}`),
		CalendarSources: []CalendarSource{
			{Name: "Work", URL: "https://cal.example.com/work.ics", Enabled: true},
		},
		Events: []CalendarEvent{
			{ID: "e1", CalendarURL: "https://cal.example.com/work.ics", UID: "uid-1", Title: "Standup"},
		},
	}
}

func taskIDs(tasks []Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	user := newTestUser(t, s)

	if err := s.ReplaceSnapshot(user.ID, testSnapshot()); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	snap, err := s.GetSnapshot(user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if got := taskIDs(snap.Tasks); len(got) != 2 || got[0] != "t1" || got[1] != "t2" {
		t.Fatalf("active tasks = %v, want [t1 t2]", got)
	}
	if got := taskIDs(snap.ArchivedTasks); len(got) != 1 || got[0] != "t3" {
		t.Fatalf("archived tasks = %v, want [t3]", got)
	}
	for _, task := range snap.Tasks {
		if task.DBID == "" {
			t.Fatalf("task %s has no database id", task.ID)
		}
		if task.DBID == task.ID {
			t.Fatalf("task %s: database id equals external id", task.ID)
		}
	}
	if snap.Tasks[0].Position != 1 || snap.Tasks[1].Position != 2 {
		t.Fatalf("positions = %d, %d, want 1, 2", snap.Tasks[0].Position, snap.Tasks[1].Position)
	}
	if snap.Tasks[1].Priority != "high" {
		t.Fatalf("priority = %q, want high", snap.Tasks[1].Priority)
	}
	if snap.Tasks[0].Priority != "none" {
		t.Fatalf("default priority = %q, want none", snap.Tasks[0].Priority)
	}

	if len(snap.Columns) != 2 || snap.Columns[0].ID != "c1" {
		t.Fatalf("columns = %+v", snap.Columns)
	}
	if len(snap.Tags) != 1 || snap.Tags[0].Name != "home" {
		t.Fatalf("tags = %+v", snap.Tags)
	}
	if len(snap.PinColumns) != 1 || snap.PinColumns[0].Title != "Fokus" {
		t.Fatalf("pin columns = %+v", snap.PinColumns)
	}
	if len(snap.Notes) != 1 || snap.Notes[0].Content != "plant more basil" {
		t.Fatalf("notes = %+v", snap.Notes)
	}
	if len(snap.CalendarSources) != 1 || len(snap.Events) != 1 {
		t.Fatalf("calendar = %d sources, %d events", len(snap.CalendarSources), len(snap.Events))
	}

	var prefs map[string]any
	if err := json.Unmarshal(snap.Preferences, &prefs); err != nil {
		t.Fatalf("preferences not valid json: %v", err)
	}
	if prefs["theme"] != "dark" {
		t.Fatalf("theme = %v, want dark", prefs["theme"])
	}
}

func TestReplaceIsDestructive(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	user := newTestUser(t, s)

	if err := s.ReplaceSnapshot(user.ID, testSnapshot()); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	// A second sync that only carries one task wipes everything else.
	second := &Snapshot{
		Tasks: []Task{{ID: "t9", Title: "Only survivor", Position: 1}},
	}
	if err := s.ReplaceSnapshot(user.ID, second); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	snap, err := s.GetSnapshot(user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got := taskIDs(snap.Tasks); len(got) != 1 || got[0] != "t9" {
		t.Fatalf("tasks = %v, want [t9]", got)
	}
	if len(snap.Columns) != 0 || len(snap.Tags) != 0 || len(snap.Notes) != 0 {
		t.Fatalf("stale entities survived: %d columns, %d tags, %d notes",
			len(snap.Columns), len(snap.Tags), len(snap.Notes))
	}

	// Absent preferences keep the previously stored document.
	var prefs map[string]any
	if err := json.Unmarshal(snap.Preferences, &prefs); err != nil {
		t.Fatalf("preferences not valid json: %v", err)
	}
	if prefs["theme"] != "dark" {
		t.Fatalf("theme = %v, want dark from the first sync", prefs["theme"])
	}
}

func TestReplaceRollsBackOnDuplicateTask(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	user := newTestUser(t, s)

	if err := s.ReplaceSnapshot(user.ID, testSnapshot()); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	bad := testSnapshot()
	bad.Tasks = append(bad.Tasks, Task{ID: "t1", Title: "Duplicate", Position: 9})
	err := s.ReplaceSnapshot(user.ID, bad)
	if err == nil {
		t.Fatal("expected duplicate task ids to fail the sync")
	}
	if !strings.Contains(err.Error(), "t1") {
		t.Fatalf("error does not name the offending task: %v", err)
	}

	snap, err := s.GetSnapshot(user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got := taskIDs(snap.Tasks); len(got) != 2 {
		t.Fatalf("prior state not preserved, tasks = %v", got)
	}
	if len(snap.Columns) != 2 {
		t.Fatalf("prior state not preserved, columns = %+v", snap.Columns)
	}
}

func TestReplaceSkipsDuplicateTags(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	user := newTestUser(t, s)

	snap := testSnapshot()
	snap.Tags = append(snap.Tags, Tag{ID: "g2", Name: "home"})
	if err := s.ReplaceSnapshot(user.ID, snap); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	got, err := s.GetSnapshot(user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0].Name != "home" {
		t.Fatalf("tags = %+v, want a single home tag", got.Tags)
	}
}

func TestReplaceSkipsDuplicateEvents(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	user := newTestUser(t, s)

	snap := testSnapshot()
	snap.Events = append(snap.Events, snap.Events[0])
	if err := s.ReplaceSnapshot(user.ID, snap); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	got, err := s.GetSnapshot(user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Events) != 1 {
		t.Fatalf("events = %+v, want one", got.Events)
	}
}

func TestReplaceClearsOpaqueRows(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	user := newTestUser(t, s)

	_, err := s.db.Exec(`INSERT INTO recurrence_rules (id, user_id, data) VALUES (?, ?, ?)`,
		"r1", user.ID, `{"id":"r1","freq":"daily"}`)
	if err != nil {
		t.Fatalf("failed to seed recurrence rule: %v", err)
	}

	before, err := s.GetSnapshot(user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(before.RecurrenceRules) != 1 {
		t.Fatalf("seeded rule missing from snapshot: %+v", before.RecurrenceRules)
	}

	if err := s.ReplaceSnapshot(user.ID, testSnapshot()); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	after, err := s.GetSnapshot(user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(after.RecurrenceRules) != 0 {
		t.Fatalf("opaque rows survived the sync: %+v", after.RecurrenceRules)
	}
}

func TestNewUserGetsDefaults(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	user := newTestUser(t, s)

	snap, err := s.GetSnapshot(user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if len(snap.Tasks) != 0 || len(snap.ArchivedTasks) != 0 {
		t.Fatalf("fresh user has tasks: %v", taskIDs(snap.Tasks))
	}
	if len(snap.PinColumns) != 1 || snap.PinColumns[0].Title != "Fokus" {
		t.Fatalf("pin columns = %+v, want the provisioned Fokus column", snap.PinColumns)
	}

	var prefs map[string]any
	if err := json.Unmarshal(snap.Preferences, &prefs); err != nil {
		t.Fatalf("preferences not valid json: %v", err)
	}
	if prefs["theme"] != "light" {
		t.Fatalf("default theme = %v, want light", prefs["theme"])
	}
	var view map[string]any
	if err := json.Unmarshal(snap.ViewState, &view); err != nil {
		t.Fatalf("view state not valid json: %v", err)
	}
	if view["currentMode"] != "columns" {
		t.Fatalf("default mode = %v, want columns", view["currentMode"])
	}
}

func TestPositionDefaultsToTimestamp(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	user := newTestUser(t, s)

	snap := &Snapshot{Tasks: []Task{{ID: "t1", Title: "No position"}}}
	if err := s.ReplaceSnapshot(user.ID, snap); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	got, err := s.GetSnapshot(user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Tasks) != 1 {
		t.Fatalf("tasks = %v", taskIDs(got.Tasks))
	}
	// Millisecond epoch timestamps start well past any hand-assigned slot.
	if got.Tasks[0].Position < 1_000_000_000_000 {
		t.Fatalf("position = %d, want a millisecond timestamp", got.Tasks[0].Position)
	}
}
