package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != DefaultDBName {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.DefaultFilter != "all" {
		t.Fatalf("expected default filter 'all', got %q", cfg.DefaultFilter)
	}
	if cfg.SearchDebounceMS != 300 || cfg.NotifyIntervalMin != 20 {
		t.Fatalf("unexpected timer defaults: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
}

func TestLoadOrCreateFillsMissingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "default_filter = \"pending\"\nweb_enabled = true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultFilter != "pending" {
		t.Fatalf("expected filter 'pending', got %q", cfg.DefaultFilter)
	}
	if !cfg.WebEnabled {
		t.Fatalf("expected web_enabled to stick")
	}
	if cfg.DBPath != DefaultDBName {
		t.Fatalf("expected db path fallback, got %q", cfg.DBPath)
	}
	if cfg.SearchDebounceMS != 300 || cfg.NotifyIntervalMin != 20 || cfg.WebPort != 8080 {
		t.Fatalf("expected timer/port fallbacks, got %+v", cfg)
	}
}
