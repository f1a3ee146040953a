package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"presenze/internal/amqp"
	"presenze/internal/backend"
	"presenze/internal/cache"
	"presenze/internal/cli"
	applog "presenze/internal/log"
	"presenze/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	logger.Info("Starting presenze-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The worker only reads the ledger; the API server owns writes.
	store, closeStore, err := cli.OpenRecordStore(ctx, logger.Logger, cfg)
	if err != nil {
		logger.Error("Failed to open record store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer closeStore()

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

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewExportWorker(store, sinkRes.Sink, time.Local)
	if err := w.StartupCheck(ctx); err != nil {
		logger.Error("Startup check failed", "error", err)
		os.Exit(1)
	}

	janitor := cache.NewJanitor()
	if sinkRes.Cache != nil {
		janitor.Register(sinkRes.Cache)
	}

	health := &http.Server{
		Addr:              ":" + cfg.WorkerHealthPort,
		Handler:           healthHandler(client),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeExportJobs(gctx, w.HandleExportJob)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Info("Health endpoint listening", "port", cfg.WorkerHealthPort)
		if err := health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		janitor.Run(gctx, 10*time.Minute)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return health.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

// healthHandler answers 200 while the broker channel is open.
func healthHandler(client *amqp.Client) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		if err := client.Ping(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
