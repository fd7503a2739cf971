package database

import (
	"testing"
)

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	user := newTestUser(t, s)

	created, err := s.CreateTask(user.ID, &Task{
		ID:       "t1",
		Title:    "Water plants",
		Position: 5,
		Tags:     StringList{"home"},
		ColumnID: strp("inbox"),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID != "t1" {
		t.Fatalf("id = %q, want the client id t1", created.ID)
	}
	if created.DBID == "" || created.DBID == "t1" {
		t.Fatalf("surrogate id = %q", created.DBID)
	}
	if created.Priority != "none" {
		t.Fatalf("priority = %q, want none", created.Priority)
	}

	// Lookup works by either id.
	byExternal, err := s.GetTask(user.ID, "t1")
	if err != nil {
		t.Fatalf("get by external id failed: %v", err)
	}
	bySurrogate, err := s.GetTask(user.ID, created.DBID)
	if err != nil {
		t.Fatalf("get by database id failed: %v", err)
	}
	if byExternal.DBID != bySurrogate.DBID {
		t.Fatal("lookups disagree")
	}

	created.Title = "Water the plants"
	created.Completed = true
	updated, err := s.UpdateTask(user.ID, "t1", created)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Title != "Water the plants" || !updated.Completed {
		t.Fatalf("update not applied: %+v", updated)
	}

	archived, err := s.SetTaskArchived(user.ID, "t1", true)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if !archived.Archived {
		t.Fatal("archived flag not set")
	}
	active, err := s.ListTasks(user.ID, false)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("archived task still listed: %+v", active)
	}

	if err := s.DeleteTask(user.ID, "t1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := s.GetTask(user.ID, "t1"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := s.DeleteTask(user.ID, "t1"); err != ErrNotFound {
		t.Fatalf("second delete got %v, want ErrNotFound", err)
	}
}

func TestTasksAreScopedToUser(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	fox := newTestUser(t, s)
	badger, err := s.FindOrCreateUser("badger@example.com", "")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	if _, err := s.CreateTask(fox.ID, &Task{ID: "t1", Title: "Mine", Position: 1}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := s.GetTask(badger.ID, "t1"); err != ErrNotFound {
		t.Fatalf("cross-user get got %v, want ErrNotFound", err)
	}
	tasks, err := s.ListTasks(badger.ID, true)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("cross-user list leaked %d tasks", len(tasks))
	}
}

func TestBulkUpsertTasks(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	user := newTestUser(t, s)

	if _, err := s.CreateTask(user.ID, &Task{ID: "t1", Title: "Old title", Position: 1}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	results, errs := s.BulkUpsertTasks(user.ID, []Task{
		{ID: "t1", Title: "New title", Position: 1},
		{ID: "t2", Title: "Brand new", Position: 2},
	})
	if len(errs) != 0 {
		t.Fatalf("bulk errors: %v", errs)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	got, err := s.GetTask(user.ID, "t1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Title != "New title" {
		t.Fatalf("title = %q, want New title", got.Title)
	}
	if _, err := s.GetTask(user.ID, "t2"); err != nil {
		t.Fatalf("new task missing: %v", err)
	}
}

func TestUpdateTaskPositions(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	user := newTestUser(t, s)

	for i, id := range []string{"a", "b", "c"} {
		if _, err := s.CreateTask(user.ID, &Task{ID: id, Title: id, Position: int64(i + 1), ColumnID: strp("inbox")}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	doing := "doing"
	err := s.UpdateTaskPositions(user.ID, map[string]TaskPlacement{
		"a": {Position: 0, ColumnID: &doing, SetColumns: true},
		"b": {Position: 0},
		"c": {Position: 1},
	})
	if err != nil {
		t.Fatalf("update positions failed: %v", err)
	}

	a, err := s.GetTask(user.ID, "a")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if a.ColumnID == nil || *a.ColumnID != "doing" || a.Position != 0 {
		t.Fatalf("moved task = %+v", a)
	}
	b, _ := s.GetTask(user.ID, "b")
	if b.Position != 0 || b.ColumnID == nil || *b.ColumnID != "inbox" {
		t.Fatalf("untouched task changed columns: %+v", b)
	}
}
