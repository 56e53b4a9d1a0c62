// Package display renders the hourly report and the rolling monitor
// view for the terminal. It is presentation glue over the core
// pipeline: nothing here mutates aggregation state.
package display

import (
	"io"

	"github.com/shinagaki/ccmonitor/pkg/cache"
	"github.com/shinagaki/ccmonitor/pkg/window"
)

// Formatter renders query results to a writer.
type Formatter interface {
	// FormatReport renders per-hour statistics plus a totals row.
	FormatReport(w io.Writer, report []cache.HourlyStats) error

	// FormatMonitor renders rolling-window rows with utilization bars
	// against the given cost limit.
	FormatMonitor(w io.Writer, rows []window.Row, costLimit float64) error
}

// Config contains display configuration.
type Config struct {
	// ColorEnabled turns on ANSI coloring of utilization bands.
	ColorEnabled bool
}

// NewFormatter returns a formatter for the named format.
//
// Supported formats: "table" (default), "simple", "json".
func NewFormatter(format string, cfg Config) (Formatter, error) {
	switch format {
	case "table", "":
		return &tableFormatter{config: cfg}, nil
	case "simple":
		return &simpleFormatter{}, nil
	case "json":
		return &jsonFormatter{}, nil
	default:
		return nil, ErrUnknownFormat
	}
}
