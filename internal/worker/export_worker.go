package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"presenze/internal/amqp"
	"presenze/internal/core"
	"presenze/internal/export"
	"presenze/internal/report"
)

// RecordLoader reads the persisted ledger. The worker never writes it.
type RecordLoader interface {
	Load(ctx context.Context) ([]core.Record, error)
}

// ExportWorker renders queued export jobs into a sheet sink.
type ExportWorker struct {
	records RecordLoader
	sink    export.SheetWriter
	loc     *time.Location
}

func NewExportWorker(records RecordLoader, sink export.SheetWriter, loc *time.Location) *ExportWorker {
	if loc == nil {
		loc = time.Local
	}
	return &ExportWorker{records: records, sink: sink, loc: loc}
}

// HandleExportJob reloads the ledger, so the export reflects the state at
// processing time rather than at request time. A range that has since
// become empty is acknowledged and skipped; an unparseable selection is
// rejected so it is not redelivered.
func (w *ExportWorker) HandleExportJob(ctx context.Context, job *amqp.ExportJob) error {
	slog.InfoContext(ctx, "Processing export job",
		"kind", job.Kind, "key", job.Key, "start", job.Start, "end", job.End)

	records, err := w.records.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	sheet, err := report.BuildSheet(records, report.SheetRequest{
		Key:    job.Key,
		Start:  job.Start,
		End:    job.End,
		Header: job.Header,
	}, w.loc)
	switch {
	case errors.Is(err, core.ErrEmptyRange):
		slog.WarnContext(ctx, "Export range has no records anymore, skipping", "key", job.Key, "start", job.Start, "end", job.End)
		return nil
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrMissingBounds):
		return fmt.Errorf("%w: %v", amqp.ErrReject, err)
	case err != nil:
		return err
	}

	ref, err := w.sink.WriteSheet(ctx, sheet)
	if err != nil {
		return fmt.Errorf("write sheet %s: %w", sheet.Title, err)
	}
	slog.InfoContext(ctx, "Export job rendered", "title", sheet.Title, "rows", len(sheet.Rows), "ref", ref)
	return nil
}

// StartupCheck verifies the ledger is readable before consuming jobs.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	records, err := w.records.Load(ctx)
	if err != nil {
		return fmt.Errorf("startup ledger read: %w", err)
	}
	slog.InfoContext(ctx, "Export worker ready", "records", len(records), "ranges", len(report.BiweeklyOptions(records)))
	return nil
}
