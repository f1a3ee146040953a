package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{Level: slog.LevelDebug, Component: component, Output: buf})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, ComponentLedger)
	l.Info("Clocked in", FieldRecordID, "abc")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "record_id=abc") {
		t.Errorf("log line = %q", out)
	}

	buf.Reset()
	l.WithComponent(ComponentExport).Warn("x")
	if strings.Count(buf.String(), "component=") != 1 || !strings.Contains(buf.String(), "component=export") {
		t.Errorf("log line = %q, want a single export component", buf.String())
	}
}

func TestLogFields(t *testing.T) {
	attend := time.Date(2024, 1, 10, 22, 0, 0, 0, time.UTC)
	f := NewFields().
		WithRecord("a", "2024-01-10", attend, time.Time{}).
		WithOperation(OpClockIn).
		WithError(errors.New("boom"))

	if f[FieldAttend] != "2024-01-10 22:00" || f[FieldLeave] != "" {
		t.Errorf("record fields = %v", f)
	}
	s := f.ToSlice()
	if len(s) != 2*len(f) {
		t.Fatalf("ToSlice() len = %d", len(s))
	}
	if s[0] != FieldAttend {
		t.Errorf("ToSlice() not sorted: %v", s)
	}
}

func TestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentApp)

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
			w.WriteHeader(http.StatusConflict)
		})),
	))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/clock-in", nil))

	out := buf.String()
	if !strings.Contains(out, "msg=inside") || !strings.Contains(out, "request_id=req-1") {
		t.Errorf("request logger missing id: %q", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "status_code=409") {
		t.Errorf("access log = %q, want a warn line with 409", out)
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Errorf("Component() = %q", l.Component())
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentApp))
	at := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	sl.LogLedgerChange(context.Background(), OpBackfill, "a", "2024-01-10", at, at.Add(8*time.Hour))
	if !strings.Contains(buf.String(), "operation=backfill") || !strings.Contains(buf.String(), `leave="2024-01-10 17:00"`) {
		t.Errorf("ledger change line = %q", buf.String())
	}

	buf.Reset()
	sl.LogError(context.Background(), "Export failed", errors.New("quota"), ComponentExport, OpExport, nil)
	if !strings.Contains(buf.String(), "error=quota") || !strings.Contains(buf.String(), "component=export") {
		t.Errorf("error line = %q", buf.String())
	}
}
