package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"presenze/internal/report"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("New() error = %v, want missing GOOGLE_SPREADSHEET_ID", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Options{SpreadsheetID: "sid"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("New() error = %v, want missing credentials", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sid", CredentialsFile: t.TempDir() + "/nope.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("New() error = %v, want read error", err)
	}
}

func TestSheetValues(t *testing.T) {
	sheet := report.Sheet{
		Title:  "Attendance_2024_2_1-15",
		Header: "Maria Rossi",
		Rows: []report.Row{
			{Date: "01/02/2024", Attend: "9:00 AM", Leave: "5:00 PM"},
			{Date: "02/02/2024", Attend: "10:00 PM", Leave: "12:00 AM"},
		},
	}
	got := sheetValues(sheet)
	if len(got) != 4 {
		t.Fatalf("sheetValues() = %d rows, want 4", len(got))
	}
	if got[0][0] != "Maria Rossi" {
		t.Errorf("first row = %v, want header line", got[0])
	}
	if got[1][0] != "Date" || got[1][2] != "Leave" {
		t.Errorf("column header = %v", got[1])
	}
	if got[3][1] != "10:00 PM" {
		t.Errorf("last row = %v", got[3])
	}

	sheet.Header = "  "
	if got := sheetValues(sheet); len(got) != 3 || got[0][0] != "Date" {
		t.Errorf("blank header should be skipped: %v", got)
	}
}

func TestQuoteTitle(t *testing.T) {
	tests := map[string]string{
		"Attendance_2024_2_1-15": "'Attendance_2024_2_1-15'",
		"O'Neil":                 "'O''Neil'",
	}
	for in, want := range tests {
		if got := quoteTitle(in); got != want {
			t.Errorf("quoteTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

// fakeSheetsAPI answers the handful of Sheets endpoints the sink calls.
type fakeSheetsAPI struct {
	mu       sync.Mutex
	existing []string
	calls    []string
	written  [][]any
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sid"):
		f.calls = append(f.calls, "get")
		sheets := make([]map[string]any, len(f.existing))
		for i, title := range f.existing {
			sheets[i] = map[string]any{"properties": map[string]any{"sheetId": i + 1, "title": title}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		f.calls = append(f.calls, "add")
		_, _ = io.WriteString(w, `{"replies":[{"addSheet":{"properties":{"sheetId":99,"title":"new"}}}]}`)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.calls = append(f.calls, "clear")
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		f.calls = append(f.calls, "update")
		var vr struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.written = vr.Values
		_, _ = io.WriteString(w, `{}`)
	default:
		http.Error(w, `{"error":{"code":404,"message":"unexpected call"}}`, http.StatusNotFound)
	}
}

func newFakeSink(t *testing.T, api *fakeSheetsAPI) *Sink {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return newWithService(svc, "sid")
}

func TestSink_WriteSheet(t *testing.T) {
	api := &fakeSheetsAPI{existing: []string{"Attendance_2024_1_1-15"}}
	s := newFakeSink(t, api)
	ctx := context.Background()

	sheet := report.Sheet{
		Title: "Attendance_2024_2_1-15",
		Rows:  []report.Row{{Date: "01/02/2024", Attend: "9:00 AM", Leave: "5:00 PM"}},
	}
	ref, err := s.WriteSheet(ctx, sheet)
	if err != nil {
		t.Fatalf("WriteSheet() error = %v", err)
	}
	if ref != "Attendance_2024_2_1-15!A1:C2" {
		t.Errorf("ref = %q", ref)
	}
	if got := strings.Join(api.calls, ","); got != "get,add,update" {
		t.Errorf("calls = %s, want get,add,update", got)
	}
	if len(api.written) != 2 || api.written[1][0] != "01/02/2024" {
		t.Errorf("written = %v", api.written)
	}

	// second export of the same range reuses the tab from the cache
	api.calls = nil
	if _, err := s.WriteSheet(ctx, sheet); err != nil {
		t.Fatalf("WriteSheet() again error = %v", err)
	}
	if got := strings.Join(api.calls, ","); got != "clear,update" {
		t.Errorf("calls = %s, want clear,update", got)
	}

	// an existing tab found on the spreadsheet is cleared, not added
	api.calls = nil
	if _, err := s.WriteSheet(ctx, report.Sheet{Title: "Attendance_2024_1_1-15"}); err != nil {
		t.Fatalf("WriteSheet(existing) error = %v", err)
	}
	if got := strings.Join(api.calls, ","); got != "clear,update" {
		t.Errorf("calls = %s, want clear,update (tab cached from the first lookup)", got)
	}
}

func TestSink_WriteSheetRequiresTitle(t *testing.T) {
	s := newFakeSink(t, &fakeSheetsAPI{})
	if _, err := s.WriteSheet(context.Background(), report.Sheet{}); err == nil {
		t.Fatal("expected error for empty title")
	}
}
