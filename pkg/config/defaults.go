package config

import (
	"os"
	"path/filepath"
	"time"
)

// Store file names inside the cache directory.
const (
	// CacheStoreFile is the persisted hourly-bucket store.
	CacheStoreFile = "usage.jsonl"

	// SeenDBFile is the optional BoltDB seen-ID database.
	SeenDBFile = "seen.db"
)

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		LogsRoot: defaultLogsRoot(),
		Monitor: MonitorConfig{
			CostLimit:     10.0,
			WatchInterval: 10 * time.Second,
		},
		Storage: StorageConfig{
			CacheDir: defaultCacheDir(),
		},
		Display: DisplayConfig{
			Format: "table",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}

// StorePath returns the full path of the persisted hourly-bucket store.
func (c *Config) StorePath() string {
	return filepath.Join(c.Storage.CacheDir, CacheStoreFile)
}

// SeenDBPath returns the full path of the BoltDB seen-ID database.
func (c *Config) SeenDBPath() string {
	return filepath.Join(c.Storage.CacheDir, SeenDBFile)
}

// defaultLogsRoot is the Claude Code projects directory.
func defaultLogsRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude/projects"
	}
	return filepath.Join(home, ".claude", "projects")
}

// defaultCacheDir is the ccmonitor state directory.
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ccmonitor"
	}
	return filepath.Join(home, ".ccmonitor")
}
