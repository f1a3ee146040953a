// Command presenzectl drives the attendance ledger from the terminal,
// against the same store the API server uses.
package main

import (
	"context"
	"fmt"
	"os"

	"presenze/internal/backend"
	"presenze/internal/cli"
	"presenze/internal/config"
	"presenze/internal/ledger"
	applog "presenze/internal/log"
	"presenze/internal/services"
)

// app holds what the commands share. Tests fill ledger and exports in
// directly; otherwise they are opened on first use.
type app struct {
	cfg     *config.Config
	logger  *applog.Logger
	ledger  *ledger.Ledger
	exports *services.ExportService
	cleanup []func() error
}

func (a *app) open(ctx context.Context) error {
	if a.ledger != nil {
		return nil
	}
	if a.cfg == nil {
		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			return err
		}
		a.cfg = cfg
	}
	l, closeLedger, err := cli.OpenLedger(ctx, a.logger.Logger, a.cfg)
	if err != nil {
		return err
	}
	a.ledger = l
	a.cleanup = append(a.cleanup, closeLedger)
	return nil
}

// openExports wires the export service the same way the API server does.
func (a *app) openExports(ctx context.Context) error {
	if a.exports != nil {
		return nil
	}
	if err := a.open(ctx); err != nil {
		return err
	}
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return err
	}
	sinkRes, err := backend.NewFactory(a.logger.Logger).CreateSink(ctx, bcfg)
	if err != nil {
		return err
	}
	var publisher services.Publisher
	if client := backend.NewPublisher(a.logger.Logger, a.cfg); client != nil {
		publisher = client
		a.cleanup = append(a.cleanup, client.Close)
	}
	a.exports = services.NewExportService(a.ledger, sinkRes.Sink, publisher)
	return nil
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			a.logger.Warn("Cleanup failed", "error", err)
		}
	}
	a.cleanup = nil
}

func main() {
	cli.LoadEnvFile()
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	a := &app{logger: cli.SetupLogger(level, applog.ComponentCLI)}
	defer a.close()

	if err := newRootCmd(a).Execute(); err != nil {
		a.close()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
