package tools

import (
	"testing"
	"time"
)

func TestSavedQueryStore_SaveListSearchCategories(t *testing.T) {
	store := NewSavedQueryStore(t.TempDir(), "")
	now := time.Now()

	if _, err := store.Save(SavedQuery{Name: "slow posts", KQL: "traces | take 1", Category: "perf"}, now); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Save(SavedQuery{Name: "errors", KQL: "traces | where level == 'error'", Category: "errors"}, now); err != nil {
		t.Fatalf("Save: %v", err)
	}

	all, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}
	if all[0].Name != "errors" {
		t.Errorf("List not sorted by name: %+v", all)
	}

	matches, err := store.Search("slow")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "slow posts" {
		t.Errorf("Search(slow) = %+v", matches)
	}

	cats, err := store.Categories()
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("Categories = %v, want 2 entries", cats)
	}
}

func TestSavedQueryStore_SaveRequiresNameAndKQL(t *testing.T) {
	store := NewSavedQueryStore(t.TempDir(), "")
	if _, err := store.Save(SavedQuery{Name: "x"}, time.Now()); err == nil {
		t.Fatal("expected error when kql is empty")
	}
	if _, err := store.Save(SavedQuery{KQL: "traces"}, time.Now()); err == nil {
		t.Fatal("expected error when name is empty")
	}
}

func TestSavedQueryStore_SaveReplacesByID(t *testing.T) {
	store := NewSavedQueryStore(t.TempDir(), "")
	first, err := store.Save(SavedQuery{Name: "a", KQL: "k1"}, time.Now())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	updated := first
	updated.KQL = "k2"
	if _, err := store.Save(updated, time.Now()); err != nil {
		t.Fatalf("Save update: %v", err)
	}

	all, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("len(all) = %d, want 1 (replaced, not appended)", len(all))
	}
	if all[0].KQL != "k2" {
		t.Errorf("KQL = %q, want k2", all[0].KQL)
	}
}
