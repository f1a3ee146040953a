package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"presenze/internal/config"
	sinkmemory "presenze/internal/export/memory"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "./x.db", GoogleSpreadsheetID: "sid"}
	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if bc.Type != SQLiteBackend || bc.SQLiteDBPath != "./x.db" || bc.GoogleSpreadsheetID != "sid" {
		t.Errorf("FromAppConfig() = %+v", bc)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestFactory_CreateKV(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateKV(ctx, Config{Type: MemoryBackend})
		if err != nil {
			t.Fatalf("CreateKV() error = %v", err)
		}
		if err := res.KV.Set(ctx, "k", "v"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if v, ok, _ := res.KV.Get(ctx, "k"); !ok || v != "v" {
			t.Errorf("Get() = %q, %v", v, ok)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "presenze.db")
		res, err := f.CreateKV(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
		if err != nil {
			t.Fatalf("CreateKV() error = %v", err)
		}
		defer res.Cleanup()
		if err := res.KV.Set(ctx, "attendance", "[]"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := f.CreateKV(ctx, Config{Type: "sheets"}); err == nil {
			t.Error("expected error for invalid type")
		}
		if _, err := f.CreateKV(ctx, Config{Type: SQLiteBackend}); err == nil || !strings.Contains(err.Error(), "path is required") {
			t.Errorf("CreateKV() error = %v, want missing path", err)
		}
	})
}

func TestFactory_CreateSink(t *testing.T) {
	f := NewFactory(nil)

	res, err := f.CreateSink(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateSink() error = %v", err)
	}
	if _, ok := res.Sink.(*sinkmemory.Sink); !ok {
		t.Errorf("CreateSink() without spreadsheet = %T, want memory sink", res.Sink)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := f.CreateSink(context.Background(), Config{GoogleSpreadsheetID: "sid"}); err == nil {
		t.Error("expected error without credentials")
	}
}

func TestNewPublisher_DirectMode(t *testing.T) {
	cfg := &config.Config{ExportMode: config.ExportDirect, AMQPURL: "amqp://localhost"}
	if p := NewPublisher(NewFactory(nil).(*DefaultFactory).logger, cfg); p != nil {
		t.Error("direct mode should not connect to AMQP")
	}
}
