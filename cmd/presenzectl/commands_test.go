package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	sinkmemory "presenze/internal/export/memory"
	"presenze/internal/ledger"
	applog "presenze/internal/log"
	"presenze/internal/services"
	kvmemory "presenze/internal/storage/memory"
)

var testNow = time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, seed string) (*app, *sinkmemory.Sink) {
	t.Helper()
	ctx := context.Background()
	kv := kvmemory.New()
	if seed != "" {
		if err := kv.Set(ctx, ledger.KeyAttendance, seed); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	seq := 0
	l, err := ledger.Open(ctx, ledger.NewRecordStore(kv, time.UTC), ledger.Options{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
		NewID: func() string {
			seq++
			return fmt.Sprintf("r%d", seq)
		},
	})
	if err != nil {
		t.Fatalf("ledger.Open() error = %v", err)
	}
	sink := sinkmemory.New()
	return &app{
		logger:  applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard}),
		ledger:  l,
		exports: services.NewExportService(l, sink, nil),
	}, sink
}

func run(t *testing.T, a *app, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInOut(t *testing.T) {
	a, _ := newTestApp(t, "")

	out, err := run(t, a, "", "in")
	if err != nil || !strings.Contains(out, "Clocked in at 2024-03-20 10:00 (r1)") {
		t.Fatalf("in = %q, %v", out, err)
	}
	if _, err := run(t, a, "", "in"); err == nil {
		t.Fatal("second in succeeded")
	}

	out, err = run(t, a, "", "out")
	if err != nil || !strings.Contains(out, "run `presenzectl repair`") {
		t.Fatalf("out = %q, %v", out, err)
	}
	if _, err := run(t, a, "", "out"); err == nil {
		t.Error("out without an open record succeeded")
	}
}

func TestAddEditRepairLs(t *testing.T) {
	a, _ := newTestApp(t, "")

	out, err := run(t, a, "", "add", "2024-03-10", "22:00", "02:00")
	if err != nil || !strings.Contains(out, "2024-03-11 02:00") {
		t.Fatalf("add = %q, %v", out, err)
	}

	if _, err := run(t, a, "", "edit", "r1"); err == nil {
		t.Error("edit without flags succeeded")
	}
	out, err = run(t, a, "", "edit", "r1", "--leave", "23:30")
	if err != nil || !strings.Contains(out, "2024-03-10 23:30") {
		t.Fatalf("edit = %q, %v", out, err)
	}

	out, err = run(t, a, "", "repair")
	if err != nil || !strings.Contains(out, "Nothing to fix") {
		t.Errorf("repair = %q, %v", out, err)
	}

	out, err = run(t, a, "", "ls")
	if err != nil || !strings.Contains(out, "10/03/2024") || !strings.Contains(out, "1:30") {
		t.Errorf("ls = %q, %v", out, err)
	}
}

func TestRmConfirmation(t *testing.T) {
	seed := `[{"id":"a","day":"2024-03-18","attend":"2024-03-18 09:00","leave":"2024-03-18 17:00"}]`

	tests := []struct {
		name    string
		stdin   string
		args    []string
		deleted bool
	}{
		{"declined", "n\n", []string{"rm", "a"}, false},
		{"no answer", "", []string{"rm", "a"}, false},
		{"confirmed", "y\n", []string{"rm", "a"}, true},
		{"flag", "", []string{"rm", "a", "--yes"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestApp(t, seed)
			if _, err := run(t, a, tt.stdin, tt.args...); err != nil {
				t.Fatalf("rm error = %v", err)
			}
			if got := len(a.ledger.Records()) == 0; got != tt.deleted {
				t.Errorf("deleted = %v, want %v", got, tt.deleted)
			}
		})
	}
}

func TestMonthRangesRowsExport(t *testing.T) {
	a, sink := newTestApp(t, `[
		{"id":"a","day":"2024-03-04","attend":"2024-03-04 09:00","leave":"2024-03-04 19:00"},
		{"id":"b","day":"2024-03-18","attend":"2024-03-18 09:00","leave":""}
	]`)

	out, err := run(t, a, "", "month", "2024-03")
	if err != nil || !strings.Contains(out, "March 2024") || !strings.Contains(out, "Days: 2  Hours: 10:00  Overtime: 2:00") {
		t.Errorf("month = %q, %v", out, err)
	}
	if _, err := run(t, a, "", "month", "March"); err == nil {
		t.Error("month with a bad argument succeeded")
	}

	out, err = run(t, a, "", "ranges")
	if err != nil || !strings.Contains(out, "2024-3-1-15") || !strings.Contains(out, "16/3 - 31/3 2024") {
		t.Errorf("ranges = %q, %v", out, err)
	}

	out, err = run(t, a, "", "rows", "--key", "2024-3-16-31")
	if err != nil || !strings.Contains(out, "Attendance_2024_3_16-31") || !strings.Contains(out, "12:00 AM") {
		t.Errorf("rows = %q, %v", out, err)
	}
	if _, err := run(t, a, "", "rows", "--key", "2024-3-1-15", "--start", "2024-03-01"); err == nil {
		t.Error("rows accepted --key with --start")
	}

	out, err = run(t, a, "", "export", "--start", "2024-03-01", "--end", "2024-03-31", "--header", "Ada")
	if err != nil || !strings.Contains(out, "Wrote Attendance_2024-03-01_2024-03-31 (2 rows)") {
		t.Fatalf("export = %q, %v", out, err)
	}
	if sheet, ok := sink.Sheet("Attendance_2024-03-01_2024-03-31"); !ok || sheet.Header != "Ada" {
		t.Errorf("sink sheet = %+v, %v", sheet, ok)
	}
}

func TestUser(t *testing.T) {
	a, _ := newTestApp(t, "")

	out, _ := run(t, a, "", "user")
	if !strings.Contains(out, "(no display name)") {
		t.Errorf("user = %q", out)
	}
	if _, err := run(t, a, "", "user", "X"); err == nil {
		t.Error("short name accepted")
	}
	if out, err := run(t, a, "", "user", "Ada Lovelace"); err != nil || !strings.Contains(out, "Ada Lovelace") {
		t.Errorf("user set = %q, %v", out, err)
	}
	if out, err := run(t, a, "", "user", "--clear"); err != nil || !strings.Contains(out, "cleared") {
		t.Errorf("user clear = %q, %v", out, err)
	}
}

func TestConfirm(t *testing.T) {
	for in, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false} {
		if got := confirm(strings.NewReader(in), io.Discard, "?"); got != want {
			t.Errorf("confirm(%q) = %v, want %v", in, got, want)
		}
	}
}
