package backend

import (
	"context"
	"fmt"
	"log/slog"

	"presenze/internal/amqp"
	"presenze/internal/config"
	gsheet "presenze/internal/export/google"
	sinkmemory "presenze/internal/export/memory"
	"presenze/internal/storage"
	kvmemory "presenze/internal/storage/memory"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateKV opens the key-value store the ledger is persisted in.
func (f *DefaultFactory) CreateKV(_ context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &Result{KV: store, Cleanup: store.Close}, nil
	case MemoryBackend:
		var store *kvmemory.Store
		if config.SeedDir != "" {
			store = kvmemory.NewFromFiles(config.SeedDir)
		} else {
			store = kvmemory.New()
		}
		f.logger.Info("Initialized memory backend", "seed_dir", config.SeedDir)
		return &Result{KV: store}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateSink builds the Google Sheets sink when a spreadsheet is
// configured, or an in-memory sink otherwise.
func (f *DefaultFactory) CreateSink(ctx context.Context, config Config) (*SinkResult, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.Warn("GOOGLE_SPREADSHEET_ID not set, exports are kept in memory")
		return &SinkResult{Sink: sinkmemory.New()}, nil
	}
	sink, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets sink: %w", err)
	}
	return &SinkResult{Sink: sink, Cache: sink.TabCache()}, nil
}

// NewPublisher connects to the export queue when the app runs in queue
// mode. A broker that cannot be reached is logged and nil is returned, so
// exports fall back to direct writes.
func NewPublisher(logger *slog.Logger, cfg *config.Config) *amqp.Client {
	if cfg.ExportMode != config.ExportQueue || cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, exports will be written directly", "error", err)
		return nil
	}
	logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}
