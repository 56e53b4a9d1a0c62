package window

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shinagaki/ccmonitor/pkg/cache"
)

// timeBoundLayouts are the accepted formats for since/until bounds,
// tried in order.
var timeBoundLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

// ParseTimeBound parses a caller-supplied time bound. An unparsable
// bound is a hard failure of the request; the evaluator never guesses.
func ParseTimeBound(s string) (time.Time, error) {
	for _, layout := range timeBoundLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeBound, s)
}

// HourlyReport returns the per-hour statistics selected by opts, sorted
// ascending by hour. In full mode, missing hours inside the trailing
// span appear as zero-valued buckets. A positive Tail keeps only the
// most recent rows.
func HourlyReport(buckets map[string]cache.HourlyStats, opts Options) ([]cache.HourlyStats, error) {
	if err := validateRange(opts); err != nil {
		return nil, err
	}

	selected := selectHours(buckets, opts)

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Hour < selected[j].Hour
	})

	if opts.Tail > 0 && len(selected) > opts.Tail {
		selected = selected[len(selected)-opts.Tail:]
	}

	return selected, nil
}

// RollingView computes, for each selected reference hour, the trailing
// window sums and their utilization of the cost limit. Rows are sorted
// descending (most recent first); a positive Tail keeps the first N.
//
// The since/until bounds select which reference hours become rows;
// contributing buckets earlier than the range still count toward the
// rolling sums of rows near its edge.
func RollingView(buckets map[string]cache.HourlyStats, opts Options) ([]Row, error) {
	if opts.CostLimit <= 0 || math.IsInf(opts.CostLimit, 0) || math.IsNaN(opts.CostLimit) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCostLimit, opts.CostLimit)
	}
	if err := validateRange(opts); err != nil {
		return nil, err
	}

	// Parse every bucket hour once for the offset arithmetic below.
	hours := make(map[string]time.Time, len(buckets))
	for key := range buckets {
		ts, err := cache.ParseBucketKey(key)
		if err != nil {
			continue
		}
		hours[key] = ts
	}

	selected := selectHours(buckets, opts)
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Hour > selected[j].Hour
	})

	rows := make([]Row, 0, len(selected))
	for _, stats := range selected {
		ref, err := cache.ParseBucketKey(stats.Hour)
		if err != nil {
			continue
		}

		var rollingCost float64
		var rollingTokens int
		for key, ts := range hours {
			offset := ref.Sub(ts)
			if offset < 0 || offset >= Hours*time.Hour {
				continue
			}
			rollingCost += buckets[key].Cost
			rollingTokens += buckets[key].TotalTokens
		}

		utilization := rollingCost / opts.CostLimit * 100
		rows = append(rows, Row{
			Hour:          stats.Hour,
			HourlyCost:    stats.Cost,
			HourlyTokens:  stats.TotalTokens,
			RollingCost:   rollingCost,
			RollingTokens: rollingTokens,
			Utilization:   utilization,
			Band:          Classify(utilization),
		})
	}

	if opts.Tail > 0 && len(rows) > opts.Tail {
		rows = rows[:opts.Tail]
	}

	return rows, nil
}

// validateRange rejects inverted since/until bounds.
func validateRange(opts Options) error {
	if !opts.Since.IsZero() && !opts.Until.IsZero() && opts.Since.After(opts.Until) {
		return ErrInvalidRange
	}
	return nil
}

// selectHours picks the buckets inside the since/until bounds. In full
// mode it instead walks a contiguous trailing span, substituting
// zero-valued buckets for hours with no events.
func selectHours(buckets map[string]cache.HourlyStats, opts Options) []cache.HourlyStats {
	if opts.Full {
		return contiguousSpan(buckets, opts)
	}

	selected := make([]cache.HourlyStats, 0, len(buckets))
	for key, stats := range buckets {
		ts, err := cache.ParseBucketKey(key)
		if err != nil {
			continue
		}
		if inRange(ts, opts) {
			selected = append(selected, stats)
		}
	}
	return selected
}

// contiguousSpan materializes the trailing FullSpanHours span ending at
// the until bound (or the current hour), zero-filling missing buckets.
func contiguousSpan(buckets map[string]cache.HourlyStats, opts Options) []cache.HourlyStats {
	anchor := opts.Until
	if anchor.IsZero() {
		anchor = time.Now()
	}
	anchor = anchor.UTC().Truncate(time.Hour)

	selected := make([]cache.HourlyStats, 0, FullSpanHours)
	for i := FullSpanHours - 1; i >= 0; i-- {
		ts := anchor.Add(-time.Duration(i) * time.Hour)
		if !inRange(ts, opts) {
			continue
		}

		key := cache.BucketKey(ts)
		if stats, exists := buckets[key]; exists {
			selected = append(selected, stats)
		} else {
			selected = append(selected, cache.HourlyStats{Hour: key})
		}
	}
	return selected
}

// inRange reports whether an hour falls inside the inclusive bounds.
func inRange(ts time.Time, opts Options) bool {
	if !opts.Since.IsZero() && ts.Before(opts.Since) {
		return false
	}
	if !opts.Until.IsZero() && ts.After(opts.Until) {
		return false
	}
	return true
}
