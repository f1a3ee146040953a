package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"presenze/internal/cache"
	"presenze/internal/export"
	"presenze/internal/report"
)

const (
	tabCacheSize = 64
	tabCacheTTL  = 30 * time.Minute
)

// Options configures the Sheets sink. One of CredentialsJSON or
// CredentialsFile must be set; GOOGLE_APPLICATION_CREDENTIALS is the
// fallback for the file.
type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

// Sink writes each export into its own tab of one spreadsheet.
type Sink struct {
	svc           *gsheet.Service
	spreadsheetID string
	// tab title -> sheet id
	tabs *cache.LRUCache[int64]
}

var _ export.SheetWriter = (*Sink)(nil)

func New(ctx context.Context, opts Options) (*Sink, error) {
	id := strings.TrimSpace(opts.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(ctx, opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets sink ready", "spreadsheet_id", id)
	return newWithService(svc, id), nil
}

func newWithService(svc *gsheet.Service, spreadsheetID string) *Sink {
	return &Sink{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		tabs:          cache.NewLRUCache[int64](tabCacheSize, tabCacheTTL),
	}
}

// TabCache exposes the tab id cache so a janitor can sweep it.
func (s *Sink) TabCache() cache.Cleaner { return s.tabs }

func credentials(ctx context.Context, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(b))
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteSheet creates the tab named after sheet.Title, or clears it when it
// already exists, then writes the header and rows from A1.
func (s *Sink) WriteSheet(ctx context.Context, sheet report.Sheet) (string, error) {
	if s.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	title := strings.TrimSpace(sheet.Title)
	if title == "" {
		return "", errors.New("sheet title is required")
	}

	created, err := s.ensureTab(ctx, title)
	if err != nil {
		return "", err
	}
	if !created {
		_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, quoteTitle(title), &gsheet.ClearValuesRequest{}).
			Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("clear tab %s: %w", title, err)
		}
	}

	values := sheetValues(sheet)
	rng := fmt.Sprintf("%s!A1:C%d", quoteTitle(title), len(values))
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write tab %s: %w", title, err)
	}

	ref := fmt.Sprintf("%s!A1:C%d", title, len(values))
	slog.InfoContext(ctx, "Export written to Google Sheets", "ref", ref, "rows", len(sheet.Rows), "new_tab", created)
	return ref, nil
}

// ensureTab returns true when the tab had to be created.
func (s *Sink) ensureTab(ctx context.Context, title string) (bool, error) {
	if _, ok := s.tabs.Get(title); ok {
		return false, nil
	}

	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			s.tabs.Set(sh.Properties.Title, sh.Properties.SheetId)
		}
	}
	if _, ok := s.tabs.Get(title); ok {
		return false, nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("add tab %s: %w", title, err)
	}
	var id int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		id = resp.Replies[0].AddSheet.Properties.SheetId
	}
	s.tabs.Set(title, id)
	return true, nil
}

// sheetValues lays out an export: optional free-text header line, the
// column header, then one row per record.
func sheetValues(sheet report.Sheet) [][]any {
	values := make([][]any, 0, len(sheet.Rows)+2)
	if h := strings.TrimSpace(sheet.Header); h != "" {
		values = append(values, []any{h})
	}
	header := make([]any, len(report.RowHeader))
	for i, h := range report.RowHeader {
		header[i] = h
	}
	values = append(values, header)
	for _, r := range sheet.Rows {
		values = append(values, []any{r.Date, r.Attend, r.Leave})
	}
	return values
}

// quoteTitle quotes a tab title for A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
