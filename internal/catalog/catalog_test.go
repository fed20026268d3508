package catalog

import (
	"context"
	"reflect"
	"testing"
)

func TestCatalog_EnsureCreatesThenRestores(t *testing.T) {
	cat := NewCatalog(NewSQLiteRepository(setupTestDB(t).DB), nil)
	ctx := context.Background()

	created, restored, err := cat.Ensure(ctx, "SER1", "Hallway")
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if restored {
		t.Error("first Ensure() reported restored")
	}

	again, restored, err := cat.Ensure(ctx, "SER1", "Hall")
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if !restored {
		t.Error("second Ensure() did not restore")
	}
	if again.AccessoryID != created.AccessoryID || again.UUID != created.UUID {
		t.Errorf("restored %+v, want identity of %+v", again, created)
	}
	if again.Name != "Hall" {
		t.Errorf("Name = %q, want renamed Hall", again.Name)
	}
}

func TestCatalog_Prune(t *testing.T) {
	cat := NewCatalog(NewSQLiteRepository(setupTestDB(t).DB), nil)
	ctx := context.Background()

	for _, s := range []string{"A", "B", "C"} {
		if _, _, err := cat.Ensure(ctx, s, s); err != nil {
			t.Fatalf("Ensure(%s) error = %v", s, err)
		}
	}

	removed, err := cat.Prune(ctx, []string{"B"})
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if !reflect.DeepEqual(removed, []string{"A", "C"}) {
		t.Errorf("removed = %v, want [A C]", removed)
	}

	list, err := cat.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].Serial != "B" {
		t.Errorf("List() = %+v, want only B", list)
	}
}

func TestCatalog_Remove(t *testing.T) {
	cat := NewCatalog(NewSQLiteRepository(setupTestDB(t).DB), nil)
	ctx := context.Background()

	if err := cat.Remove(ctx, "never-added"); err != nil {
		t.Errorf("Remove() missing = %v, want nil", err)
	}
	if _, _, err := cat.Ensure(ctx, "A", "A"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if err := cat.Remove(ctx, "A"); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
}

type journalEntry struct {
	action, serial, name string
}

type fakeJournal struct {
	entries []journalEntry
	err     error
}

func (f *fakeJournal) Record(_ context.Context, action, serial, name string, _ map[string]any) error {
	f.entries = append(f.entries, journalEntry{action, serial, name})
	return f.err
}

type warnLogger struct{ warns int }

func (l *warnLogger) Info(string, ...any) {}
func (l *warnLogger) Warn(string, ...any) { l.warns++ }

func TestCatalog_Journal(t *testing.T) {
	cat := NewCatalog(NewSQLiteRepository(setupTestDB(t).DB), nil)
	j := &fakeJournal{}
	cat.SetJournal(j)
	ctx := context.Background()

	if _, _, err := cat.Ensure(ctx, "A", "Hallway"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if _, _, err := cat.Ensure(ctx, "A", "Hallway"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if _, _, err := cat.Ensure(ctx, "B", "Landing"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if _, err := cat.Prune(ctx, []string{"A"}); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if err := cat.Remove(ctx, "missing"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	want := []journalEntry{
		{"added", "A", "Hallway"},
		{"restored", "A", "Hallway"},
		{"added", "B", "Landing"},
		{"removed", "B", "Landing"},
	}
	if !reflect.DeepEqual(j.entries, want) {
		t.Errorf("journal = %v, want %v", j.entries, want)
	}
}

func TestCatalog_JournalFailureIsNotFatal(t *testing.T) {
	logger := &warnLogger{}
	cat := NewCatalog(NewSQLiteRepository(setupTestDB(t).DB), logger)
	cat.SetJournal(&fakeJournal{err: context.DeadlineExceeded})

	if _, _, err := cat.Ensure(context.Background(), "A", "A"); err != nil {
		t.Fatalf("Ensure() error = %v, want journal failure swallowed", err)
	}
	if logger.warns != 1 {
		t.Errorf("warns = %d, want 1", logger.warns)
	}
}
