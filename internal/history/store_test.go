package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenAt(filepath.Join(t.TempDir(), "data", "history.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func record(t *testing.T, s *Store, op Operation, name, version, previous string, at time.Time) *Entry {
	t.Helper()

	e := NewEntry(op, name, version)
	e.Timestamp = at
	e.Previous = previous
	e.MarkSuccess()
	if err := s.Record(e); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	return e
}

func TestOpenDefaultPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("LOCALAPPDATA", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	store, err := Open()
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	store.Close()
}

func TestRecordAndList(t *testing.T) {
	store := setupTestStore(t)
	base := time.Now()

	record(t, store, OpInstall, "Java", "17.0.9", "", base)
	record(t, store, OpInstall, "Node", "20.10.0", "", base.Add(time.Second))
	record(t, store, OpSwitch, "Java", "11.0.21", "17.0.9", base.Add(2*time.Second))

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}

	entries, err := store.List(2)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List(2) returned %d entries", len(entries))
	}
	if entries[0].Operation != OpSwitch || entries[1].Environment != "Node" {
		t.Errorf("List() not newest first: %v, %v", entries[0].Summary(), entries[1].Summary())
	}

	all, _ := store.List(0)
	if len(all) != 3 {
		t.Errorf("List(0) returned %d entries, want 3", len(all))
	}
}

func TestRecordSameInstant(t *testing.T) {
	store := setupTestStore(t)
	at := time.Now()

	record(t, store, OpInstall, "Java", "17.0.9", "", at)
	record(t, store, OpInstall, "Go", "1.21.5", "", at)

	if count, _ := store.Count(); count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestForEnvironment(t *testing.T) {
	store := setupTestStore(t)
	base := time.Now()

	record(t, store, OpInstall, "Java", "17.0.9", "", base)
	record(t, store, OpInstall, "Node", "20.10.0", "", base.Add(time.Second))
	record(t, store, OpSwitch, "Java", "11.0.21", "17.0.9", base.Add(2*time.Second))

	entries, err := store.ForEnvironment("java", 0)
	if err != nil {
		t.Fatalf("ForEnvironment() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ForEnvironment() returned %d entries, want 2", len(entries))
	}
	if entries[0].Version != "11.0.21" {
		t.Errorf("entries[0].Version = %s, want 11.0.21", entries[0].Version)
	}
}

func TestGetAndLast(t *testing.T) {
	store := setupTestStore(t)

	if last, err := store.Last(); err != nil || last != nil {
		t.Errorf("Last() on empty store = %v, %v", last, err)
	}

	base := time.Now()
	first := record(t, store, OpInstall, "Java", "17.0.9", "", base)
	record(t, store, OpClean, "", "", "", base.Add(time.Second))

	got, err := store.Get(first.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Target() != "Java 17.0.9" {
		t.Errorf("Get() = %s", got.Target())
	}

	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	last, err := store.Last()
	if err != nil {
		t.Fatalf("Last() error: %v", err)
	}
	if last.Operation != OpClean {
		t.Errorf("Last().Operation = %s, want %s", last.Operation, OpClean)
	}
}

func TestLastReversible(t *testing.T) {
	store := setupTestStore(t)
	base := time.Now()

	if _, err := store.LastReversible(); !errors.Is(err, ErrNotFound) {
		t.Errorf("LastReversible() on empty store error = %v", err)
	}

	record(t, store, OpSwitch, "Java", "11.0.21", "17.0.9", base)
	record(t, store, OpClean, "", "", "", base.Add(time.Second))

	e, err := store.LastReversible()
	if err != nil {
		t.Fatalf("LastReversible() error: %v", err)
	}
	if e.Version != "11.0.21" || e.Previous != "17.0.9" {
		t.Errorf("LastReversible() = %+v", e)
	}
}

func TestClear(t *testing.T) {
	store := setupTestStore(t)
	record(t, store, OpInstall, "Java", "17.0.9", "", time.Now())

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if count, _ := store.Count(); count != 0 {
		t.Errorf("Count() after Clear() = %d, want 0", count)
	}

	record(t, store, OpInstall, "Java", "17.0.9", "", time.Now())
	if count, _ := store.Count(); count != 1 {
		t.Errorf("Count() after re-record = %d, want 1", count)
	}
}

func TestPrune(t *testing.T) {
	store := setupTestStore(t)
	now := time.Now()

	record(t, store, OpInstall, "Java", "8.0.392", "", now.Add(-48*time.Hour))
	record(t, store, OpInstall, "Java", "17.0.9", "8.0.392", now)

	deleted, err := store.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted %d, want 1", deleted)
	}
	if count, _ := store.Count(); count != 1 {
		t.Errorf("Count() after Prune() = %d, want 1", count)
	}
}
