package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "store.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

// TestStoreContract verifies read/write/remove semantics shared by every
// backend: absence is not an error, writes replace, removes are idempotent.
func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Read(ctx, "missing"); err != nil || ok {
				t.Fatalf("Read(missing) = ok=%v err=%v, want ok=false err=nil", ok, err)
			}

			if err := s.Write(ctx, KeyPlans, `[1]`); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := s.Write(ctx, KeyPlans, `[2]`); err != nil {
				t.Fatalf("Write: %v", err)
			}
			v, ok, err := s.Read(ctx, KeyPlans)
			if err != nil || !ok || v != `[2]` {
				t.Fatalf("Read = %q ok=%v err=%v, want [2]", v, ok, err)
			}

			if err := s.Remove(ctx, KeyPlans); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if err := s.Remove(ctx, KeyPlans); err != nil {
				t.Fatalf("second Remove: %v", err)
			}
			if _, ok, _ := s.Read(ctx, KeyPlans); ok {
				t.Error("key still present after Remove")
			}
		})
	}
}

// TestSQLiteSurvivesReopen verifies values are durable across process restarts.
func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write(ctx, KeyAlarms, `[]`); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if v, ok, err := s.Read(ctx, KeyAlarms); err != nil || !ok || v != `[]` {
		t.Errorf("Read after reopen = %q ok=%v err=%v", v, ok, err)
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "redis"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), Options{Driver: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Open(memory) = %T, want *MemoryStore", s)
	}
}

// TestLoadJSON covers the absent, valid and corrupt cases.
func TestLoadJSON(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	var got []string
	found, err := LoadJSON(ctx, s, "k", &got)
	if err != nil || found {
		t.Fatalf("absent: found=%v err=%v", found, err)
	}

	if err := SaveJSON(ctx, s, "k", []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	found, err = LoadJSON(ctx, s, "k", &got)
	if err != nil || !found || len(got) != 2 || got[1] != "b" {
		t.Fatalf("valid: got=%v found=%v err=%v", got, found, err)
	}

	s.Write(ctx, "k", `{not json`)
	found, err = LoadJSON(ctx, s, "k", &got)
	if !found {
		t.Error("corrupt value should still report found")
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}
