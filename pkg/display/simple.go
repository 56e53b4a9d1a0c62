package display

import (
	"fmt"
	"io"

	"github.com/shinagaki/ccmonitor/pkg/cache"
	"github.com/shinagaki/ccmonitor/pkg/window"
)

// simpleFormatter renders one plain-text line per row, friendly to
// grep and awk.
type simpleFormatter struct{}

// FormatReport implements Formatter.FormatReport.
func (f *simpleFormatter) FormatReport(w io.Writer, report []cache.HourlyStats) error {
	var totalCost float64
	var totalTokens int

	for _, stats := range report {
		if _, err := fmt.Fprintf(w, "%s in=%d out=%d total=%d cost=%.4f msgs=%d\n",
			stats.Hour,
			stats.InputTokens,
			stats.OutputTokens,
			stats.TotalTokens,
			stats.Cost,
			stats.SessionCount); err != nil {
			return err
		}
		totalCost += stats.Cost
		totalTokens += stats.TotalTokens
	}

	_, err := fmt.Fprintf(w, "total tokens=%d cost=%.4f\n", totalTokens, totalCost)
	return err
}

// FormatMonitor implements Formatter.FormatMonitor.
func (f *simpleFormatter) FormatMonitor(w io.Writer, rows []window.Row, costLimit float64) error {
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%s rolling=%.4f limit=%.2f usage=%.1f%% status=%s\n",
			row.Hour,
			row.RollingCost,
			costLimit,
			row.Utilization,
			row.Band); err != nil {
			return err
		}
	}
	return nil
}
