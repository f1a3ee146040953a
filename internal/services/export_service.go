package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"presenze/internal/amqp"
	"presenze/internal/core"
	"presenze/internal/export"
	"presenze/internal/report"
)

// ErrNoExportTarget is returned when neither a queue nor a sink is wired.
var ErrNoExportTarget = errors.New("no export target configured")

type (
	// Publisher hands export jobs to the worker.
	Publisher interface {
		PublishExportJob(ctx context.Context, job *amqp.ExportJob) error
	}

	// RecordSource is the read side of the ledger the exports draw from.
	RecordSource interface {
		Records() []core.Record
		Location() *time.Location
		User() string
	}
)

// ExportRequest selects a half-month by Key, or an arbitrary range by Start
// and End. An empty Header defaults to the display name.
type ExportRequest struct {
	Key    string `json:"key"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Header string `json:"header"`
}

type ExportResult struct {
	Title  string `json:"title"`
	Rows   int    `json:"rows"`
	Queued bool   `json:"queued"`
	Ref    string `json:"ref,omitempty"`
}

// ExportService turns a range selection into rows and delivers them, either
// through the queue to the worker or straight into the sink.
type ExportService struct {
	ledger    RecordSource
	sink      export.SheetWriter
	publisher Publisher
}

// NewExportService wires the service. publisher or sink may be nil, but not
// both when Export is used.
func NewExportService(ledger RecordSource, sink export.SheetWriter, publisher Publisher) *ExportService {
	return &ExportService{ledger: ledger, sink: sink, publisher: publisher}
}

// Preview builds the sheet for req without delivering it.
func (s *ExportService) Preview(_ context.Context, req ExportRequest) (report.Sheet, error) {
	header := strings.TrimSpace(req.Header)
	if header == "" {
		header = s.ledger.User()
	}
	return report.BuildSheet(s.ledger.Records(), report.SheetRequest{
		Key:    req.Key,
		Start:  req.Start,
		End:    req.End,
		Header: header,
	}, s.ledger.Location())
}

// Export validates the selection against the current ledger, then queues it.
// When no queue is wired, or publishing fails, the sheet is written
// directly.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (ExportResult, error) {
	sheet, err := s.Preview(ctx, req)
	if err != nil {
		return ExportResult{}, err
	}
	res := ExportResult{Title: sheet.Title, Rows: len(sheet.Rows)}

	if s.publisher != nil {
		err := s.publisher.PublishExportJob(ctx, jobFor(req, sheet.Header))
		if err == nil {
			res.Queued = true
			return res, nil
		}
		if s.sink == nil {
			return ExportResult{}, fmt.Errorf("queue export: %w", err)
		}
		slog.WarnContext(ctx, "Failed to queue export, writing directly", "title", sheet.Title, "error", err)
	}

	if s.sink == nil {
		return ExportResult{}, ErrNoExportTarget
	}
	ref, err := s.sink.WriteSheet(ctx, sheet)
	if err != nil {
		return ExportResult{}, fmt.Errorf("write export: %w", err)
	}
	res.Ref = ref
	return res, nil
}

func jobFor(req ExportRequest, header string) *amqp.ExportJob {
	if strings.TrimSpace(req.Key) != "" {
		return amqp.NewHalfMonthJob(strings.TrimSpace(req.Key), header)
	}
	return amqp.NewRangeJob(strings.TrimSpace(req.Start), strings.TrimSpace(req.End), header)
}
