package monitor

import "errors"

// Common errors returned by the scheduler.
var (
	// ErrIntervalTooShort is returned when the watch interval is below
	// MinInterval.
	ErrIntervalTooShort = errors.New("watch interval below minimum")

	// ErrNoSink is returned when watch mode is started without a sink.
	ErrNoSink = errors.New("watch mode requires a sink")
)
