package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"presenze/internal/export"
	"presenze/internal/report"
)

// Sink keeps written sheets in memory, keyed by title. Writing a title
// twice replaces the earlier sheet.
type Sink struct {
	mu     sync.Mutex
	sheets map[string]report.Sheet
	writes int
}

var _ export.SheetWriter = (*Sink)(nil)

func New() *Sink {
	return &Sink{sheets: map[string]report.Sheet{}}
}

func (s *Sink) WriteSheet(_ context.Context, sheet report.Sheet) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sheet.Rows = slices.Clone(sheet.Rows)
	s.sheets[sheet.Title] = sheet
	s.writes++
	return fmt.Sprintf("memory:%s!A1:C%d", sheet.Title, len(sheet.Rows)+1), nil
}

func (s *Sink) Sheet(title string) (report.Sheet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.sheets[title]
	return sh, ok
}

// Titles returns the written titles in sorted order.
func (s *Sink) Titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sheets))
	for t := range s.sheets {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

func (s *Sink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
