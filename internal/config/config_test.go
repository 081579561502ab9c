package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimal = "project: test\nversion: 1\n"

func TestLoadProjectConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Project != "test-project" {
			t.Fatalf("expected project name, got %q", cfg.Project)
		}
		if cfg.User().String() != DefaultUserID {
			t.Fatalf("expected default user id, got %s", cfg.User())
		}
		src, ok := cfg.SourceByTimeline("What-If")
		if !ok || src.Status != "hypothetical" || src.Parent != "main" {
			t.Fatalf("unexpected source: %+v", src)
		}
		if main, _ := cfg.SourceByTimeline("main"); main.Status != "canonical" {
			t.Fatalf("expected canonical default status, got %q", main.Status)
		}
	})

	t.Run("defaults to sqlite", func(t *testing.T) {
		cfg, err := LoadProjectConfig(writeTempConfig(t, minimal))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Storage.Adapter != AdapterSQLite || cfg.Storage.DSN != DefaultDSN {
			t.Fatalf("unexpected storage: %+v", cfg.Storage)
		}
		if cfg.Vector.Adapter != AdapterNone {
			t.Fatalf("unexpected vector adapter: %q", cfg.Vector.Adapter)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("TIMELINES_STORAGE_ADAPTER", "memory")
		t.Setenv("TIMELINES_LOG_LEVEL", "warn")
		t.Setenv("TIMELINES_USER_ID", "7a0c4f0e-5b8e-4bfa-9d55-0c1f3a6a4b21")
		cfg, err := LoadProjectConfig(writeTempConfig(t, minimal+"storage:\n  adapter: sqlite\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Storage.Adapter != AdapterMemory {
			t.Fatalf("expected env adapter, got %q", cfg.Storage.Adapter)
		}
		if cfg.Logging.Level != "warn" {
			t.Fatalf("expected env log level, got %q", cfg.Logging.Level)
		}
		if cfg.User().String() != "7a0c4f0e-5b8e-4bfa-9d55-0c1f3a6a4b21" {
			t.Fatalf("expected env user, got %s", cfg.User())
		}
	})

	errorCases := []struct {
		name     string
		contents string
	}{
		{"missing project name", "version: 1\n"},
		{"unsupported version", "project: test\nversion: 2\n"},
		{"bad user id", minimal + "user_id: nope\n"},
		{"unknown storage adapter", minimal + "storage:\n  adapter: neo4j\n"},
		{"postgres without dsn", minimal + "storage:\n  adapter: postgres\n"},
		{"pgvector without dimensions", minimal + "vector:\n  adapter: pgvector\n  dsn: postgres://localhost/x\n"},
		{"pgvector on sqlite", minimal + "vector:\n  adapter: pgvector\n  dimensions: 3\n"},
		{"source missing timeline", minimal + "sources:\n  - paths: [./lore]\n"},
		{"source missing paths", minimal + "sources:\n  - timeline: main\n"},
		{"source bad status", minimal + "sources:\n  - timeline: main\n    status: rumoured\n    paths: [./lore]\n"},
		{"duplicate sources", minimal + "sources:\n  - timeline: main\n    paths: [./a]\n  - timeline: Main\n    paths: [./b]\n"},
		{"unknown parent", minimal + "sources:\n  - timeline: main\n    parent: ghost\n    paths: [./a]\n"},
		{"invalid yaml", "project: [\n"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadProjectConfig(writeTempConfig(t, tc.contents)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
