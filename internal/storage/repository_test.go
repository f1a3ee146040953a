package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "presenze.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	if _, ok, err := s.Get(ctx, "attendance"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "attendance", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "attendance", `[{"id":"1"}]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, "attendance")
	if err != nil || !ok || v != `[{"id":"1"}]` {
		t.Fatalf("unexpected get: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := s.Delete(ctx, "attendance"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "attendance"); ok {
		t.Fatalf("expected key to be gone after delete")
	}
}

func TestSQLiteStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "presenze.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Set(ctx, "attendanceUser", "Mario Rossi"); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.Close()

	// Second open re-runs migrations, which must be a no-op.
	s, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s.Close()

	v, ok, err := s.Get(ctx, "attendanceUser")
	if err != nil || !ok || v != "Mario Rossi" {
		t.Fatalf("unexpected value after reopen: v=%q ok=%v err=%v", v, ok, err)
	}
}
