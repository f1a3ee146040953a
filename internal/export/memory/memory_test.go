package memory

import (
	"context"
	"testing"

	"presenze/internal/report"
)

func TestSink_WriteSheet(t *testing.T) {
	s := New()
	ctx := context.Background()

	sheet := report.Sheet{
		Title: "Attendance_2024_2_1-15",
		Rows:  []report.Row{{Date: "01/02/2024", Attend: "9:00 AM", Leave: "5:00 PM"}},
	}
	ref, err := s.WriteSheet(ctx, sheet)
	if err != nil {
		t.Fatalf("WriteSheet() error = %v", err)
	}
	if ref != "memory:Attendance_2024_2_1-15!A1:C2" {
		t.Errorf("ref = %q", ref)
	}

	sheet.Rows[0].Leave = "changed"
	got, ok := s.Sheet("Attendance_2024_2_1-15")
	if !ok || got.Rows[0].Leave != "5:00 PM" {
		t.Errorf("stored sheet = %+v, want an independent copy", got)
	}

	if _, err := s.WriteSheet(ctx, report.Sheet{Title: "Attendance_2024_2_1-15"}); err != nil {
		t.Fatalf("WriteSheet() error = %v", err)
	}
	if titles := s.Titles(); len(titles) != 1 {
		t.Errorf("Titles() = %v, want one title", titles)
	}
	if s.Writes() != 2 {
		t.Errorf("Writes() = %d, want 2", s.Writes())
	}
}
