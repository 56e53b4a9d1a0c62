package config

import "errors"

// Common errors returned by configuration loading and validation.
var (
	// ErrNoLogsRoot is returned when no logs root directory is set.
	ErrNoLogsRoot = errors.New("no logs root directory configured")

	// ErrNoCacheDir is returned when no cache directory is set.
	ErrNoCacheDir = errors.New("no cache directory configured")

	// ErrInvalidCostLimit is returned when the cost limit is out of range.
	ErrInvalidCostLimit = errors.New("cost limit must be > 0 and <= 10000")

	// ErrIntervalTooShort is returned when the watch interval is below
	// the enforced minimum.
	ErrIntervalTooShort = errors.New("watch interval below 5s minimum")

	// ErrInvalidDisplayFormat is returned for an unknown display format.
	ErrInvalidDisplayFormat = errors.New("invalid display format")

	// ErrInvalidLogLevel is returned for an unknown log level.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidLogFormat is returned for an unknown log format.
	ErrInvalidLogFormat = errors.New("invalid log format")

	// ErrConfigNotFound is returned when a named config file is missing.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when a config file fails to parse.
	ErrInvalidYAML = errors.New("invalid YAML in config file")
)
