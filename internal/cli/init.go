// Package cli holds the start-up steps shared by cmd/presenze,
// cmd/presenze-worker and cmd/presenzectl.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"presenze/internal/backend"
	"presenze/internal/config"
	"presenze/internal/core"
	"presenze/internal/ledger"
	applog "presenze/internal/log"
)

// SetupLogger installs a text logger at the given LOG_LEVEL as the slog
// default, tagged with component.
func SetupLogger(level, component string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: component,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits the process when it
// is invalid.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// LedgerOptions maps configuration onto ledger options in the host's
// local time zone.
func LedgerOptions(cfg *config.Config) ledger.Options {
	return ledger.Options{
		Rules:              core.ShiftRules{ShiftHours: cfg.ShiftHours},
		BackfillWindowDays: cfg.BackfillWindowDays,
		Location:           time.Local,
	}
}

// OpenRecordStore opens the configured KV backend and wraps it in a
// RecordStore. The cleanup closes the backend.
func OpenRecordStore(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*ledger.RecordStore, backend.CleanupFunc, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).CreateKV(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := res.Cleanup
	if cleanup == nil {
		cleanup = func() error { return nil }
	}
	return ledger.NewRecordStore(res.KV, time.Local), cleanup, nil
}

// OpenLedger opens the store and loads the ledger from it. Every mutation
// is already persisted, so the cleanup only closes the store.
func OpenLedger(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*ledger.Ledger, backend.CleanupFunc, error) {
	store, closeStore, err := OpenRecordStore(ctx, logger, cfg)
	if err != nil {
		return nil, nil, err
	}
	l, err := ledger.Open(ctx, store, LedgerOptions(cfg))
	if err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	return l, closeStore, nil
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM, then
// runs cleanup bounded by timeout. done is closed once cleanup returns.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup has
// finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
