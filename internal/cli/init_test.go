package cli

import (
	"context"
	"testing"
	"time"

	"presenze/internal/config"
)

func memoryConfig() *config.Config {
	cfg := config.Load()
	cfg.DataBackend = config.BackendMemory
	cfg.ShiftHours = 7.5
	cfg.BackfillWindowDays = 10
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func TestLedgerOptions(t *testing.T) {
	opts := LedgerOptions(memoryConfig())
	if opts.Rules.ShiftHours != 7.5 || opts.BackfillWindowDays != 10 || opts.Location != time.Local {
		t.Errorf("LedgerOptions() = %+v", opts)
	}
}

func TestOpenLedgerMemory(t *testing.T) {
	logger := SetupLogger("error", "test")
	ctx := context.Background()

	l, cleanup, err := OpenLedger(ctx, logger.Logger, memoryConfig())
	if err != nil {
		t.Fatalf("OpenLedger() error = %v", err)
	}
	if _, err := l.ClockIn(ctx, time.Now()); err != nil {
		t.Fatalf("ClockIn() error = %v", err)
	}
	if l.BackfillWindowDays() != 10 {
		t.Errorf("BackfillWindowDays() = %d", l.BackfillWindowDays())
	}
	if err := cleanup(); err != nil {
		t.Errorf("cleanup() error = %v", err)
	}
}

func TestOpenLedgerSQLitePersists(t *testing.T) {
	logger := SetupLogger("error", "test")
	ctx := context.Background()
	cfg := memoryConfig()
	cfg.DataBackend = config.BackendSQLite
	cfg.SQLiteDBPath = t.TempDir() + "/presenze.db"

	l, cleanup, err := OpenLedger(ctx, logger.Logger, cfg)
	if err != nil {
		t.Fatalf("OpenLedger() error = %v", err)
	}
	rec, err := l.ClockIn(ctx, time.Now())
	if err != nil {
		t.Fatalf("ClockIn() error = %v", err)
	}
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup() error = %v", err)
	}

	store, closeStore, err := OpenRecordStore(ctx, logger.Logger, cfg)
	if err != nil {
		t.Fatalf("OpenRecordStore() error = %v", err)
	}
	defer closeStore()
	records, err := store.Load(ctx)
	if err != nil || len(records) != 1 || records[0].ID != rec.ID {
		t.Fatalf("Load() = %v, %v; want the clocked-in record", records, err)
	}
}
