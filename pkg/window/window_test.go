package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinagaki/ccmonitor/pkg/cache"
)

// hourStats builds a bucket map from hour key to cost, with tokens
// derived deterministically from the cost for easy assertions.
func hourStats(costs map[string]float64) map[string]cache.HourlyStats {
	buckets := make(map[string]cache.HourlyStats, len(costs))
	for hour, cost := range costs {
		buckets[hour] = cache.HourlyStats{
			Hour:         hour,
			Cost:         cost,
			TotalTokens:  int(cost * 1000),
			SessionCount: 1,
		}
	}
	return buckets
}

func TestClassify(t *testing.T) {
	tests := []struct {
		utilization float64
		want        Band
	}{
		{0, BandNominal},
		{59.9, BandNominal},
		{60, BandCaution},
		{79.9, BandCaution},
		{80, BandHigh},
		{89.9, BandHigh},
		{90, BandOverLimit},
		{95, BandOverLimit},
		{250, BandOverLimit},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.utilization), "utilization %.1f", tt.utilization)
	}
}

func TestRollingViewWindowBoundaries(t *testing.T) {
	// Buckets at offsets 0..5 hours before the reference hour 15:00.
	// The offset-5 bucket (10:00) must be excluded from 15:00's window.
	buckets := hourStats(map[string]float64{
		"2024-01-15 10:00": 100, // offset 5: excluded
		"2024-01-15 11:00": 1,   // offset 4
		"2024-01-15 12:00": 2,   // offset 3
		"2024-01-15 13:00": 4,   // offset 2
		"2024-01-15 14:00": 8,   // offset 1
		"2024-01-15 15:00": 16,  // offset 0
	})

	rows, err := RollingView(buckets, Options{CostLimit: 100})
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	// Rows are sorted descending; the first is 15:00.
	top := rows[0]
	assert.Equal(t, "2024-01-15 15:00", top.Hour)
	assert.InDelta(t, 31.0, top.RollingCost, 1e-9)
	assert.InDelta(t, 16.0, top.HourlyCost, 1e-9)
	assert.Equal(t, 31000, top.RollingTokens)
}

func TestRollingViewExcludesFutureHours(t *testing.T) {
	buckets := hourStats(map[string]float64{
		"2024-01-15 12:00": 5,
		"2024-01-15 13:00": 7, // later than the 12:00 reference
	})

	rows, err := RollingView(buckets, Options{CostLimit: 100})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// The 12:00 row must not include 13:00's cost.
	assert.Equal(t, "2024-01-15 12:00", rows[1].Hour)
	assert.InDelta(t, 5.0, rows[1].RollingCost, 1e-9)
}

func TestRollingViewUtilization(t *testing.T) {
	buckets := hourStats(map[string]float64{
		"2024-01-15 10:00": 9.5,
	})

	rows, err := RollingView(buckets, Options{CostLimit: 10.0})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.InDelta(t, 95.0, rows[0].Utilization, 1e-9)
	assert.Equal(t, BandOverLimit, rows[0].Band)
}

func TestRollingViewRejectsBadLimit(t *testing.T) {
	buckets := hourStats(map[string]float64{"2024-01-15 10:00": 1})

	for _, limit := range []float64{0, -5} {
		_, err := RollingView(buckets, Options{CostLimit: limit})
		assert.ErrorIs(t, err, ErrInvalidCostLimit, "limit %v", limit)
	}
}

func TestRollingViewTail(t *testing.T) {
	buckets := hourStats(map[string]float64{
		"2024-01-15 10:00": 1,
		"2024-01-15 11:00": 2,
		"2024-01-15 12:00": 3,
	})

	rows, err := RollingView(buckets, Options{CostLimit: 100, Tail: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-15 12:00", rows[0].Hour)
	assert.Equal(t, "2024-01-15 11:00", rows[1].Hour)
}

func TestRollingViewRangeSelectsRowsNotContributions(t *testing.T) {
	buckets := hourStats(map[string]float64{
		"2024-01-15 09:00": 10,
		"2024-01-15 10:00": 1,
	})

	since := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	rows, err := RollingView(buckets, Options{CostLimit: 100, Since: since})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// 09:00 is not a row, but still feeds 10:00's rolling sum.
	assert.Equal(t, "2024-01-15 10:00", rows[0].Hour)
	assert.InDelta(t, 11.0, rows[0].RollingCost, 1e-9)
}

func TestHourlyReport(t *testing.T) {
	buckets := hourStats(map[string]float64{
		"2024-01-15 10:00": 1,
		"2024-01-15 12:00": 2,
		"2024-01-14 08:00": 3,
	})

	t.Run("sorted ascending", func(t *testing.T) {
		report, err := HourlyReport(buckets, Options{})
		require.NoError(t, err)
		require.Len(t, report, 3)
		assert.Equal(t, "2024-01-14 08:00", report[0].Hour)
		assert.Equal(t, "2024-01-15 12:00", report[2].Hour)
	})

	t.Run("since and until are inclusive", func(t *testing.T) {
		report, err := HourlyReport(buckets, Options{
			Since: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			Until: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Len(t, report, 2)
		assert.Equal(t, "2024-01-15 10:00", report[0].Hour)
		assert.Equal(t, "2024-01-15 12:00", report[1].Hour)
	})

	t.Run("tail keeps most recent", func(t *testing.T) {
		report, err := HourlyReport(buckets, Options{Tail: 1})
		require.NoError(t, err)
		require.Len(t, report, 1)
		assert.Equal(t, "2024-01-15 12:00", report[0].Hour)
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		_, err := HourlyReport(buckets, Options{
			Since: time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
			Until: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}

func TestHourlyReportFullMode(t *testing.T) {
	buckets := hourStats(map[string]float64{
		"2024-01-15 10:00": 1,
		"2024-01-15 12:00": 2,
	})

	until := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	report, err := HourlyReport(buckets, Options{Full: true, Until: until})
	require.NoError(t, err)

	// A contiguous trailing span ending at 12:00.
	require.Len(t, report, FullSpanHours)
	assert.Equal(t, "2024-01-14 13:00", report[0].Hour)
	assert.Equal(t, "2024-01-15 12:00", report[len(report)-1].Hour)

	// The 11:00 gap is zero-filled; real buckets keep their values.
	byHour := make(map[string]cache.HourlyStats, len(report))
	for _, stats := range report {
		byHour[stats.Hour] = stats
	}
	assert.Equal(t, 0, byHour["2024-01-15 11:00"].SessionCount)
	assert.InDelta(t, 1.0, byHour["2024-01-15 10:00"].Cost, 1e-9)
}

func TestParseTimeBound(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "hour precision",
			input: "2024-01-15 10:00",
			want:  time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "date only",
			input: "2024-01-15",
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339",
			input: "2024-01-15T10:00:00Z",
			want:  time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		},
		{name: "garbage", input: "yesterday-ish", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeBound(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeBound)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}
