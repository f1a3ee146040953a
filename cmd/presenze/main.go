package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"presenze/internal/backend"
	"presenze/internal/cache"
	"presenze/internal/cli"
	apphttp "presenze/internal/http"
	applog "presenze/internal/log"
	"presenze/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	l, closeLedger, err := cli.OpenLedger(ctx, logger.Logger, cfg)
	if err != nil {
		logger.Error("Failed to open ledger", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	sinkRes, err := backend.NewFactory(logger.Logger).CreateSink(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize export sink", "error", err)
		os.Exit(1)
	}

	var (
		publisher services.Publisher
		opts      []apphttp.Option
	)
	amqpClient := backend.NewPublisher(logger.Logger, cfg)
	if amqpClient != nil {
		publisher = amqpClient
		opts = append(opts, apphttp.WithReadyCheck("amqp", func(context.Context) error {
			return amqpClient.Ping()
		}))
	}
	opts = append(opts, apphttp.WithLogger(logger.WithComponent(applog.ComponentHTTP)))

	exports := services.NewExportService(l, sinkRes.Sink, publisher)
	srv := apphttp.NewServer(":"+cfg.Port, l, exports, opts...)

	janitor := cache.NewJanitor()
	if sinkRes.Cache != nil {
		janitor.Register(sinkRes.Cache)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", "error", err)
			}
		}
		if err := closeLedger(); err != nil {
			logger.Error("Failed to close ledger store", "error", err)
		}
	})
	go janitor.Run(ctx, 10*time.Minute)

	logger.Info("Starting presenze server", "port", cfg.Port, "backend", cfg.DataBackend,
		"export_mode", cfg.ExportMode, "queued_exports", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		_ = closeLedger()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
