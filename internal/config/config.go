// Package config handles ralph configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ralphloop/ralph/internal/models"
)

// Config is the root configuration structure for ralph.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Events database settings
	Events EventsConfig `yaml:"events" mapstructure:"events"`

	// Default settings for loop runs
	LoopDefaults LoopConfig `yaml:"loop_defaults" mapstructure:"loop_defaults"`
}

// GlobalConfig contains global ralph settings.
type GlobalConfig struct {
	// DataDir is where ralph stores its data (default: ~/.local/share/ralph).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/ralph).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// EventsConfig contains audit event sink settings.
type EventsConfig struct {
	// Enabled controls whether events are mirrored to the database.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// DatabasePath is the SQLite database file path (default: DataDir/ralph.db).
	DatabasePath string `yaml:"database_path" mapstructure:"database_path"`

	// BusyTimeoutMs is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoopConfig contains default settings for loop runs. The CLI resolves these
// into the stop condition the controller receives; flags override them.
type LoopConfig struct {
	// Harness is the default harness kind (claude, codex, copilot, stub).
	Harness string `yaml:"harness" mapstructure:"harness"`

	// MaxIterations bounds the number of iterations per run.
	MaxIterations int `yaml:"max_iterations" mapstructure:"max_iterations"`

	// IterationTimeout bounds a single harness invocation. Zero means no limit.
	IterationTimeout time.Duration `yaml:"iteration_timeout" mapstructure:"iteration_timeout"`

	// StopOnFailure stops the run when an iteration scans as blocked.
	StopOnFailure bool `yaml:"stop_on_failure" mapstructure:"stop_on_failure"`

	// CaptureLimitBytes bounds captured stdout/stderr per iteration.
	CaptureLimitBytes int `yaml:"capture_limit_bytes" mapstructure:"capture_limit_bytes"`

	// PromptTailIterations is how many prior iterations the prompt summarizes.
	PromptTailIterations int `yaml:"prompt_tail_iterations" mapstructure:"prompt_tail_iterations"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "ralph"),
			ConfigDir: filepath.Join(homeDir, ".config", "ralph"),
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		Events: EventsConfig{
			Enabled:       true,
			DatabasePath:  "", // Will be set to DataDir/ralph.db
			BusyTimeoutMs: 5000,
		},
		LoopDefaults: LoopConfig{
			Harness:              string(models.HarnessClaude),
			MaxIterations:        1,
			IterationTimeout:     0,
			StopOnFailure:        false,
			CaptureLimitBytes:    256 * 1024,
			PromptTailIterations: 3,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Global.DataDir) == "" {
		return fmt.Errorf("global.data_dir is required")
	}
	if strings.TrimSpace(c.Global.ConfigDir) == "" {
		return fmt.Errorf("global.config_dir is required")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be one of console, json")
	}

	if c.Events.BusyTimeoutMs < 0 {
		return fmt.Errorf("events.busy_timeout_ms must be zero or greater")
	}

	if _, err := models.ParseHarnessKind(c.LoopDefaults.Harness); err != nil {
		return fmt.Errorf("loop_defaults.harness: %w", err)
	}
	if c.LoopDefaults.MaxIterations < 1 {
		return fmt.Errorf("loop_defaults.max_iterations must be at least 1")
	}
	if c.LoopDefaults.IterationTimeout < 0 {
		return fmt.Errorf("loop_defaults.iteration_timeout must be zero or greater")
	}
	if c.LoopDefaults.CaptureLimitBytes < 1024 {
		return fmt.Errorf("loop_defaults.capture_limit_bytes must be at least 1024")
	}
	if c.LoopDefaults.PromptTailIterations < 1 {
		return fmt.Errorf("loop_defaults.prompt_tail_iterations must be at least 1")
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DatabasePath returns the full events database path.
func (c *Config) DatabasePath() string {
	if c.Events.DatabasePath != "" {
		return c.Events.DatabasePath
	}
	return filepath.Join(c.Global.DataDir, "ralph.db")
}
