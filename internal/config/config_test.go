package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clipvault/clipvault/internal/retention"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	m := NewManagerWithPath(filepath.Join(t.TempDir(), "config.yaml"))

	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.PollIntervalMS != 1000 {
		t.Errorf("poll interval = %d, want 1000", cfg.PollIntervalMS)
	}
	if cfg.PageSize != 50 {
		t.Errorf("page size = %d, want 50", cfg.PageSize)
	}
	if !cfg.IgnoreSensitive {
		t.Error("ignore_sensitive should default to true")
	}
	if cfg.Retention.Kind != retention.KindForever {
		t.Errorf("retention = %v, want forever", cfg.Retention)
	}
	if cfg.PollInterval() != time.Second {
		t.Errorf("PollInterval() = %v", cfg.PollInterval())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m := NewManagerWithPath(path)

	cfg := DefaultConfig()
	cfg.PollIntervalMS = 500
	cfg.PageSize = 25
	cfg.Retention = retention.Weeks(2)
	cfg.IgnoreApps = []IgnoreEntry{
		{BundleID: "com.example.vault"},
		{Path: "/usr/bin/secret-tool"},
	}

	if err := m.Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.PollIntervalMS != 500 || loaded.PageSize != 25 {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if loaded.Retention.Kind != retention.KindWeeks || loaded.Retention.N != 2 {
		t.Errorf("retention = %+v", loaded.Retention)
	}
	if len(loaded.IgnoreApps) != 2 {
		t.Fatalf("ignore list = %v", loaded.IgnoreApps)
	}

	ignore := loaded.IgnoreList()
	if ignore[0].BundleID != "com.example.vault" || ignore[1].Path != "/usr/bin/secret-tool" {
		t.Errorf("ignore list conversion = %v", ignore)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("page_size: 10\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := NewManagerWithPath(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PageSize != 10 {
		t.Errorf("page size = %d, want 10", cfg.PageSize)
	}
	if cfg.PollIntervalMS != 1000 {
		t.Errorf("unspecified field lost default: %d", cfg.PollIntervalMS)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"poll interval too small", func(c *Config) { c.PollIntervalMS = 10 }},
		{"zero page size", func(c *Config) { c.PageSize = 0 }},
		{"huge page size", func(c *Config) { c.PageSize = 10000 }},
		{"zero max size", func(c *Config) { c.MaxItemSizeKB = 0 }},
		{"bad retention", func(c *Config) { c.Retention = retention.Days(30) }},
	}

	m := NewManagerWithPath(filepath.Join(t.TempDir(), "config.yaml"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := m.Save(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
