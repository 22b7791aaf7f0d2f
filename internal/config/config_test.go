package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"lightbox/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, found, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if found {
		t.Fatal("expected found=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path even when file is missing")
	}
	if cfg.Scanner.BatchSize != 10 {
		t.Fatalf("expected default batch size 10, got %d", cfg.Scanner.BatchSize)
	}
	if cfg.Workers.Count != 4 {
		t.Fatalf("expected default worker count 4, got %d", cfg.Workers.Count)
	}
	if cfg.Workers.ShutdownTimeout != 30 {
		t.Fatalf("expected default shutdown timeout 30, got %d", cfg.Workers.ShutdownTimeout)
	}
	if cfg.Cleanup.MaxAgeHours != 24 {
		t.Fatalf("expected default cleanup max age 24, got %d", cfg.Cleanup.MaxAgeHours)
	}
	if cfg.Scanner.Priority != "normal" {
		t.Fatalf("expected default priority normal, got %q", cfg.Scanner.Priority)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, `
[paths]
library_dir = "`+filepath.Join(base, "photos")+`"
data_dir = "`+filepath.Join(base, "data")+`"

[scanner]
batch_size = 25
priority = "HIGH"

[workers]
count = 8

[logging]
format = "JSON"
level = "Debug"
`)

	cfg, resolved, found, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found || resolved != path {
		t.Fatalf("expected config found at %s, got %s found=%v", path, resolved, found)
	}
	if cfg.Scanner.BatchSize != 25 {
		t.Fatalf("expected batch size 25, got %d", cfg.Scanner.BatchSize)
	}
	if cfg.Scanner.Priority != "high" {
		t.Fatalf("expected normalized priority high, got %q", cfg.Scanner.Priority)
	}
	if cfg.Workers.Count != 8 {
		t.Fatalf("expected worker count 8, got %d", cfg.Workers.Count)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging config, got %+v", cfg.Logging)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Workers.PollInterval != 2 {
		t.Fatalf("expected default poll interval 2, got %d", cfg.Workers.PollInterval)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name     string
		contents string
	}{
		{"negative batch size", "[scanner]\nbatch_size = -1\n"},
		{"unknown priority", "[scanner]\npriority = \"extreme\"\n"},
		{"negative worker count", "[workers]\ncount = -2\n"},
		{"unsupported log format", "[logging]\nformat = \"xml\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.contents)
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, "[scanner\nbatch_size = 5")
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error for malformed TOML")
	}
}

func TestSampleConfigIsLoadable(t *testing.T) {
	path := writeConfig(t, config.SampleConfig())
	if _, _, found, err := config.Load(path); err != nil || !found {
		t.Fatalf("sample config should load cleanly: found=%v err=%v", found, err)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/tmp/lightbox-test"

	if got := cfg.CatalogPath(); got != filepath.Join("/tmp/lightbox-test", "catalog.db") {
		t.Fatalf("unexpected catalog path %q", got)
	}
	if got := cfg.LockPath(); got != filepath.Join("/tmp/lightbox-test", "lightbox.lock") {
		t.Fatalf("unexpected lock path %q", got)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.LibraryDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
