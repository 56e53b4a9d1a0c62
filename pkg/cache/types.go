// Package cache owns the authoritative hourly aggregation state:
// the mapping from hour bucket to accumulated token/cost statistics,
// the seen-message-ID set that makes folding idempotent, and the
// per-file modification times the incremental scanner consults.
//
// The state is an explicit value constructed once per process and
// passed into each scan; there are no package-level singletons.
package cache

import (
	"time"
)

// BucketKeyLayout is the fixed calendar representation of an hour
// bucket. Keys sort lexicographically in chronological order.
const BucketKeyLayout = "2006-01-02 15:00"

// BucketKey truncates a timestamp to the top of its UTC hour and
// renders it as a bucket key. Two timestamps within the same clock hour
// always map to the same key regardless of sub-hour precision.
func BucketKey(ts time.Time) string {
	return ts.UTC().Format(BucketKeyLayout)
}

// ParseBucketKey converts a bucket key back into the UTC hour it names.
func ParseBucketKey(key string) (time.Time, error) {
	return time.ParseInLocation(BucketKeyLayout, key, time.UTC)
}

// HourlyStats is the aggregate for one hour bucket. It only ever grows
// within a process lifetime; the sole way to shrink it is a full reset.
//
// The JSON field names are the persisted store format and must not
// change without migrating existing store files.
type HourlyStats struct {
	// Hour is the bucket key (UTC, "YYYY-MM-DD HH:00").
	Hour string `json:"hour"`

	// InputTokens is the sum of input tokens across contributing facts.
	InputTokens int `json:"inputTokens"`

	// OutputTokens is the sum of output tokens.
	OutputTokens int `json:"outputTokens"`

	// TotalTokens is the sum of all four token classes, cache included.
	TotalTokens int `json:"totalTokens"`

	// Cost is the cumulative USD cost.
	Cost float64 `json:"cost"`

	// SessionCount is the number of facts folded into this bucket.
	SessionCount int `json:"sessionCount"`

	// AvgInputPerSession is InputTokens / SessionCount.
	AvgInputPerSession float64 `json:"avgInputPerSession"`

	// AvgOutputPerSession is OutputTokens / SessionCount.
	AvgOutputPerSession float64 `json:"avgOutputPerSession"`
}
