// Package monitor drives the scan-aggregate-evaluate cycle: a single
// pass on demand, or a timed watch loop that re-scans until cancelled.
package monitor

import (
	"context"
	"time"

	"github.com/shinagaki/ccmonitor/pkg/scanner"
	"github.com/shinagaki/ccmonitor/pkg/window"
)

// MinInterval is the smallest allowed watch interval. Shorter
// intervals are rejected before the loop starts.
const MinInterval = 5 * time.Second

// defaultRowLimit is used when neither an explicit tail nor a usable
// terminal height is available.
const defaultRowLimit = 24

// chromeRows is the vertical space reserved for the table frame and
// header when deriving the row limit from the terminal height.
const chromeRows = 6

// Config holds the scheduler configuration.
type Config struct {
	// Interval is the sleep between watch-mode passes.
	Interval time.Duration

	// CostLimit is the rolling-window spend limit in USD.
	CostLimit float64

	// Since and Until bound which reference hours become rows.
	Since time.Time
	Until time.Time

	// Tail, when positive, is the explicit row limit. When zero the
	// limit is derived from the terminal height.
	Tail int

	// Full synthesizes zero-valued buckets across the trailing span.
	Full bool

	// Sink receives the view produced by each pass. Required for
	// watch mode.
	Sink func(View)
}

// View is the outcome of one scan-evaluate pass.
type View struct {
	// Timestamp of the pass.
	Timestamp time.Time

	// Scan summarizes what the pass ingested.
	Scan scanner.Result

	// Rows is the bounded rolling-window view, most recent first.
	Rows []window.Row
}

// Scheduler runs evaluation passes over the pipeline.
type Scheduler interface {
	// RunOnce performs a single scan-evaluate pass.
	RunOnce(ctx context.Context) (View, error)

	// Watch runs passes repeatedly until the context is cancelled,
	// delivering each view to the configured Sink. The pass in flight
	// when cancellation arrives always runs to completion.
	Watch(ctx context.Context) error
}
