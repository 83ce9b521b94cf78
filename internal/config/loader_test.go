package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if cfg.LoopDefaults.Harness != "claude" {
		t.Fatalf("expected default harness claude, got %s", cfg.LoopDefaults.Harness)
	}
	if cfg.LoopDefaults.MaxIterations != 1 {
		t.Fatalf("expected default max_iterations 1, got %d", cfg.LoopDefaults.MaxIterations)
	}
	if !cfg.Events.Enabled {
		t.Fatal("expected events enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
  format: json
loop_defaults:
  harness: codex
  max_iterations: 7
  iteration_timeout: 10m
  stop_on_failure: true
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.LoopDefaults.Harness != "codex" {
		t.Fatalf("expected codex harness, got %s", cfg.LoopDefaults.Harness)
	}
	if cfg.LoopDefaults.MaxIterations != 7 {
		t.Fatalf("expected max_iterations 7, got %d", cfg.LoopDefaults.MaxIterations)
	}
	if cfg.LoopDefaults.IterationTimeout != 10*time.Minute {
		t.Fatalf("expected 10m timeout, got %s", cfg.LoopDefaults.IterationTimeout)
	}
	if !cfg.LoopDefaults.StopOnFailure {
		t.Fatal("expected stop_on_failure true")
	}
	// Unset keys keep their defaults.
	if cfg.LoopDefaults.CaptureLimitBytes != 256*1024 {
		t.Fatalf("expected default capture limit, got %d", cfg.LoopDefaults.CaptureLimitBytes)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RALPH_LOOP_DEFAULTS_MAX_ITERATIONS", "12")
	t.Setenv("RALPH_LOGGING_LEVEL", "warn")

	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if cfg.LoopDefaults.MaxIterations != 12 {
		t.Fatalf("expected env override 12, got %d", cfg.LoopDefaults.MaxIterations)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected env override warn, got %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfigFile(t, `
loop_defaults:
  harness: gemini
`)
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected validation failure for unknown harness")
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestDatabasePathDefaultsUnderDataDir(t *testing.T) {
	cfg := DefaultConfig()
	want := filepath.Join(cfg.Global.DataDir, "ralph.db")
	if got := cfg.DatabasePath(); got != want {
		t.Fatalf("DatabasePath = %s, want %s", got, want)
	}

	cfg.Events.DatabasePath = "/tmp/custom.db"
	if got := cfg.DatabasePath(); got != "/tmp/custom.db" {
		t.Fatalf("DatabasePath = %s", got)
	}
}
