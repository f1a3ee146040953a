package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, ok, err := s.Get(ctx, "attendance"); ok || err != nil {
		t.Fatalf("expected empty store, ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "attendance", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, _ := s.Get(ctx, "attendance")
	if !ok || v != "[]" {
		t.Fatalf("unexpected value %q ok=%v", v, ok)
	}
	if err := s.Delete(ctx, "attendance"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "attendance"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// No files -> empty store
	s := NewFromFiles(dir)
	if _, ok, _ := s.Get(ctx, "attendance"); ok {
		t.Fatalf("expected no seed when files missing")
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("seed_attendance.json", "# seeded ledger\n[\n{\"id\":\"1\",\"day\":\"2024-01-10\",\"attend\":\"2024-01-10 09:00\",\"leave\":\"\"}\n]\n")
	mustWrite("seed_attendanceUser.json", "\n")

	s = NewFromFiles(dir)
	v, ok, _ := s.Get(ctx, "attendance")
	if !ok || v != `[{"id":"1","day":"2024-01-10","attend":"2024-01-10 09:00","leave":""}]` {
		t.Fatalf("unexpected seed %q ok=%v", v, ok)
	}
	if _, ok, _ := s.Get(ctx, "attendanceUser"); ok {
		t.Fatalf("blank seed file should not create a key")
	}
}
