// Package window derives monitoring views from the hourly aggregation
// cache: the plain hourly report and the trailing 5-hour rolling window
// with limit-utilization classification.
package window

import (
	"time"
)

// Hours is the length of the rolling window.
const Hours = 5

// FullSpanHours is the trailing span synthesized in full mode: missing
// hours inside it appear as zero-valued buckets so consumers always see
// a temporally contiguous series.
const FullSpanHours = 24

// Band classifies rolling-window utilization against the cost limit.
type Band int

const (
	// BandNominal is utilization below 60%.
	BandNominal Band = iota

	// BandCaution is utilization from 60% up to but excluding 80%.
	BandCaution

	// BandHigh is utilization from 80% up to but excluding 90%.
	BandHigh

	// BandOverLimit is utilization of 90% and above, open-ended.
	BandOverLimit
)

// String returns the display label for a band.
func (b Band) String() string {
	switch b {
	case BandNominal:
		return "nominal"
	case BandCaution:
		return "caution"
	case BandHigh:
		return "high"
	case BandOverLimit:
		return "over-limit"
	default:
		return "unknown"
	}
}

// Classify maps a utilization percentage to its band. Boundaries are
// inclusive at the lower edge.
func Classify(utilization float64) Band {
	switch {
	case utilization >= 90:
		return BandOverLimit
	case utilization >= 80:
		return BandHigh
	case utilization >= 60:
		return BandCaution
	default:
		return BandNominal
	}
}

// Options are the caller-supplied query parameters.
type Options struct {
	// Since, when non-zero, is the inclusive lower bound on bucket hours.
	Since time.Time

	// Until, when non-zero, is the inclusive upper bound on bucket hours.
	Until time.Time

	// Tail, when positive, limits output to the most recent N rows.
	Tail int

	// Full synthesizes zero-valued buckets for missing hours across the
	// trailing FullSpanHours span.
	Full bool

	// CostLimit is the rolling-window spend limit in USD. Must be > 0
	// for rolling evaluation; any positive finite value is accepted.
	CostLimit float64
}

// Row is one reference hour of the rolling monitor view.
type Row struct {
	// Hour is the reference bucket key.
	Hour string

	// HourlyCost is the reference hour's own cost.
	HourlyCost float64

	// HourlyTokens is the reference hour's own total tokens.
	HourlyTokens int

	// RollingCost is the summed cost of the trailing window ending at
	// and including this hour.
	RollingCost float64

	// RollingTokens is the summed total tokens of the trailing window.
	RollingTokens int

	// Utilization is RollingCost / CostLimit x 100.
	Utilization float64

	// Band is the classification of Utilization.
	Band Band
}
