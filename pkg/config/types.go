// Package config provides configuration management for ccmonitor.
//
// Configuration is loaded with the following precedence:
// 1. Command-line flags (highest, applied by the CLI layer)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest)
//
// Example usage:
//
//	cfg, err := config.NewLoader("").Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("logs root: %s\n", cfg.LogsRoot)
package config

import (
	"time"
)

// MinWatchInterval is the smallest allowed watch-mode interval.
// Intervals below this are rejected before any loop starts.
const MinWatchInterval = 5 * time.Second

// MaxCostLimit is the largest accepted rolling-window cost limit.
const MaxCostLimit = 10000

// Config represents the complete application configuration.
//
// Invariants:
// - LogsRoot must be non-empty
// - Storage.CacheDir must be non-empty
// - Monitor.CostLimit must be > 0 and <= MaxCostLimit
// - Monitor.WatchInterval must be >= MinWatchInterval.
type Config struct {
	// LogsRoot is the externally-owned projects directory holding
	// source logs.
	LogsRoot string `yaml:"logs_root"`

	// Monitor settings.
	Monitor MonitorConfig `yaml:"monitor"`

	// Storage settings.
	Storage StorageConfig `yaml:"storage"`

	// Display settings.
	Display DisplayConfig `yaml:"display"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging"`
}

// MonitorConfig contains rolling-window monitoring settings.
type MonitorConfig struct {
	// CostLimit is the trailing-window spend limit in USD.
	CostLimit float64 `yaml:"cost_limit"`

	// WatchInterval is the sleep between watch-mode passes.
	WatchInterval time.Duration `yaml:"watch_interval"`
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	// CacheDir is the directory holding the persisted cache store.
	CacheDir string `yaml:"cache_dir"`

	// PersistSeenIDs switches deduplication to the BoltDB-backed seen
	// store, so message IDs survive restarts even after source logs
	// are rotated away. Off by default: the stock behavior rebuilds
	// the set from source logs on every cold start.
	PersistSeenIDs bool `yaml:"persist_seen_ids"`
}

// DisplayConfig contains display settings.
type DisplayConfig struct {
	// Format is the default output format (table, simple, json).
	Format string `yaml:"format"`

	// ColorEnabled turns on ANSI coloring. A pointer so an explicit
	// `color_enabled: false` in the file is distinguishable from the
	// field being absent; unset means enabled.
	ColorEnabled *bool `yaml:"color_enabled"`
}

// ColorOn reports whether ANSI coloring is enabled.
func (d DisplayConfig) ColorOn() bool {
	return d.ColorEnabled == nil || *d.ColorEnabled
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level"`

	// Output is the log destination (stdout, stderr, file path).
	Output string `yaml:"output"`

	// Format is the log format (text, json).
	Format string `yaml:"format"`
}

// Validate checks if the configuration satisfies all invariants.
func (c *Config) Validate() error {
	if c.LogsRoot == "" {
		return ErrNoLogsRoot
	}
	if c.Storage.CacheDir == "" {
		return ErrNoCacheDir
	}

	if c.Monitor.CostLimit <= 0 || c.Monitor.CostLimit > MaxCostLimit {
		return ErrInvalidCostLimit
	}
	if c.Monitor.WatchInterval < MinWatchInterval {
		return ErrIntervalTooShort
	}

	validFormats := map[string]bool{
		"table":  true,
		"simple": true,
		"json":   true,
	}
	if !validFormats[c.Display.Format] {
		return ErrInvalidDisplayFormat
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}
