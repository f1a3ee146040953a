package backend

import (
	"context"

	"presenze/internal/export"
	"presenze/internal/storage"
)

// CleanupFunc releases a backend's resources.
type CleanupFunc func() error

// Result is a ready key-value store plus its cleanup.
type Result struct {
	KV      storage.KV
	Cleanup CleanupFunc
}

// SinkResult is a ready export sink. Cache, when set, holds expiring
// entries a janitor should sweep.
type SinkResult struct {
	Sink  export.SheetWriter
	Cache interface{ CleanExpired() int }
}

// Factory builds the collaborators a binary needs from configuration.
type Factory interface {
	CreateKV(ctx context.Context, config Config) (*Result, error)
	CreateSink(ctx context.Context, config Config) (*SinkResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	// Memory backend seed directory; empty starts empty.
	SeedDir string

	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
