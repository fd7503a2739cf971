package database

import (
	"errors"
	"testing"
)

func TestCreateTagRejectsDuplicateName(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	user := newTestUser(t, s)

	first, err := s.CreateTag(user.ID, &Tag{ID: "g1", Name: "home"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	existing, err := s.CreateTag(user.ID, &Tag{ID: "g2", Name: "home"})
	if !errors.Is(err, ErrTagExists) {
		t.Fatalf("got %v, want ErrTagExists", err)
	}
	if existing == nil || existing.DBID != first.DBID {
		t.Fatalf("conflict did not return the existing tag: %+v", existing)
	}

	// Different users may reuse the name.
	badger, err := s.FindOrCreateUser("badger@example.com", "")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if _, err := s.CreateTag(badger.ID, &Tag{Name: "home"}); err != nil {
		t.Fatalf("cross-user create failed: %v", err)
	}
}

func TestBulkUpsertTagsByName(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	user := newTestUser(t, s)

	if _, err := s.CreateTag(user.ID, &Tag{Name: "home", Count: 1}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	results, errs := s.BulkUpsertTags(user.ID, []Tag{
		{Name: "home", Count: 5},
		{Name: "garden", Count: 1},
	})
	if len(errs) != 0 {
		t.Fatalf("bulk errors: %v", errs)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	tags, err := s.ListTags(user.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(tags))
	}
	// Alphabetical: garden, home.
	if tags[0].Name != "garden" || tags[1].Name != "home" {
		t.Fatalf("tags = %+v", tags)
	}
	if tags[1].Count != 5 {
		t.Fatalf("count = %d, want 5", tags[1].Count)
	}
}
