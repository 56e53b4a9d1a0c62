package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration.
type Loader interface {
	// Load merges defaults, config file, and environment variables,
	// then validates the result.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a configuration loader.
//
// If configPath is empty, the loader searches:
// 1. ./ccmonitor.yaml (current directory)
// 2. ~/.config/ccmonitor/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{configPath: configPath}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	configPath := l.configPath
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicitly named file must load; a discovered one may
			// be absent.
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = mergeConfigs(cfg, fileCfg)
		}
	}

	applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec // path comes from trusted config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// findConfigFile searches the standard config file locations.
func (l *loader) findConfigFile() string {
	if _, err := os.Stat("ccmonitor.yaml"); err == nil {
		return "ccmonitor.yaml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	path := filepath.Join(home, ".config", "ccmonitor", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path
	}

	return ""
}

// mergeConfigs overlays non-zero fields from overlay onto base.
func mergeConfigs(base, overlay *Config) *Config {
	merged := *base

	if overlay.LogsRoot != "" {
		merged.LogsRoot = overlay.LogsRoot
	}
	if overlay.Monitor.CostLimit != 0 {
		merged.Monitor.CostLimit = overlay.Monitor.CostLimit
	}
	if overlay.Monitor.WatchInterval != 0 {
		merged.Monitor.WatchInterval = overlay.Monitor.WatchInterval
	}
	if overlay.Storage.CacheDir != "" {
		merged.Storage.CacheDir = overlay.Storage.CacheDir
	}
	if overlay.Storage.PersistSeenIDs {
		merged.Storage.PersistSeenIDs = true
	}
	if overlay.Display.Format != "" {
		merged.Display.Format = overlay.Display.Format
	}
	if overlay.Display.ColorEnabled != nil {
		merged.Display.ColorEnabled = overlay.Display.ColorEnabled
	}
	if overlay.Logging.Level != "" {
		merged.Logging.Level = overlay.Logging.Level
	}
	if overlay.Logging.Output != "" {
		merged.Logging.Output = overlay.Logging.Output
	}
	if overlay.Logging.Format != "" {
		merged.Logging.Format = overlay.Logging.Format
	}

	return &merged
}

// applyEnvVars overrides settings from CCMONITOR_* environment variables.
func applyEnvVars(cfg *Config) {
	if v := os.Getenv("CCMONITOR_LOGS_ROOT"); v != "" {
		cfg.LogsRoot = v
	}
	if v := os.Getenv("CCMONITOR_CACHE_DIR"); v != "" {
		cfg.Storage.CacheDir = v
	}
	if v := os.Getenv("CCMONITOR_COST_LIMIT"); v != "" {
		if limit, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Monitor.CostLimit = limit
		}
	}
	if v := os.Getenv("CCMONITOR_WATCH_INTERVAL"); v != "" {
		if interval, err := time.ParseDuration(v); err == nil {
			cfg.Monitor.WatchInterval = interval
		}
	}
	if v := os.Getenv("CCMONITOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
