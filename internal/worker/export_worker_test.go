package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"presenze/internal/amqp"
	"presenze/internal/export/memory"
	"presenze/internal/ledger"
	"presenze/internal/report"
	kvmemory "presenze/internal/storage/memory"
)

const seed = `[
	{"id":"a","day":"2024-02-01","attend":"2024-02-01 09:00","leave":"2024-02-01 17:00"},
	{"id":"b","day":"2024-02-20","attend":"2024-02-20 22:00","leave":"2024-02-21 06:00"}
]`

type failingSink struct{}

func (failingSink) WriteSheet(context.Context, report.Sheet) (string, error) {
	return "", errors.New("quota exceeded")
}

func newTestStore(t *testing.T) *ledger.RecordStore {
	t.Helper()
	kv := kvmemory.New()
	if err := kv.Set(context.Background(), ledger.KeyAttendance, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return ledger.NewRecordStore(kv, time.UTC)
}

func TestExportWorker_HandleExportJob(t *testing.T) {
	sink := memory.New()
	w := NewExportWorker(newTestStore(t), sink, time.UTC)
	ctx := context.Background()

	if err := w.HandleExportJob(ctx, amqp.NewHalfMonthJob("2024-2-16-29", "Maria Rossi")); err != nil {
		t.Fatalf("HandleExportJob() error = %v", err)
	}
	sheet, ok := sink.Sheet("Attendance_2024_2_16-29")
	if !ok {
		t.Fatalf("sheet not written, titles = %v", sink.Titles())
	}
	if sheet.Header != "Maria Rossi" || len(sheet.Rows) != 1 || sheet.Rows[0].Leave != "6:00 AM" {
		t.Errorf("sheet = %+v", sheet)
	}

	if err := w.HandleExportJob(ctx, amqp.NewRangeJob("2024-02-29", "2024-02-01", "")); err != nil {
		t.Fatalf("HandleExportJob(range) error = %v", err)
	}
	if sheet, ok := sink.Sheet("Attendance_2024-02-01_2024-02-29"); !ok || len(sheet.Rows) != 2 {
		t.Errorf("range sheet = %+v, %v", sheet, ok)
	}
}

func TestExportWorker_EmptyRangeIsAcked(t *testing.T) {
	sink := memory.New()
	w := NewExportWorker(newTestStore(t), sink, time.UTC)

	if err := w.HandleExportJob(context.Background(), amqp.NewHalfMonthJob("2024-3-1-15", "")); err != nil {
		t.Fatalf("HandleExportJob() error = %v, want nil for an empty range", err)
	}
	if sink.Writes() != 0 {
		t.Errorf("empty range wrote %d sheets", sink.Writes())
	}
}

func TestExportWorker_Errors(t *testing.T) {
	ctx := context.Background()

	w := NewExportWorker(newTestStore(t), memory.New(), time.UTC)
	err := w.HandleExportJob(ctx, &amqp.ExportJob{Kind: amqp.KindHalfMonth, Key: "2024-13-1-15"})
	if !errors.Is(err, amqp.ErrReject) {
		t.Errorf("bad key error = %v, want ErrReject", err)
	}

	w = NewExportWorker(newTestStore(t), failingSink{}, time.UTC)
	err = w.HandleExportJob(ctx, amqp.NewHalfMonthJob("2024-2-1-15", ""))
	if err == nil || errors.Is(err, amqp.ErrReject) {
		t.Errorf("sink failure error = %v, want a retryable error", err)
	}
}

func TestExportWorker_StartupCheck(t *testing.T) {
	w := NewExportWorker(newTestStore(t), memory.New(), time.UTC)
	if err := w.StartupCheck(context.Background()); err != nil {
		t.Fatalf("StartupCheck() error = %v", err)
	}
}
