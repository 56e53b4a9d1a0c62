package display

import (
	"encoding/json"
	"io"

	"github.com/shinagaki/ccmonitor/pkg/cache"
	"github.com/shinagaki/ccmonitor/pkg/window"
)

// jsonFormatter renders rows as indented JSON for machine consumers.
type jsonFormatter struct{}

// monitorRow is the JSON wire shape of one rolling-window row.
type monitorRow struct {
	Hour          string  `json:"hour"`
	HourlyCost    float64 `json:"hourlyCost"`
	RollingCost   float64 `json:"rollingCost"`
	RollingTokens int     `json:"rollingTokens"`
	CostLimit     float64 `json:"costLimit"`
	Utilization   float64 `json:"utilization"`
	Status        string  `json:"status"`
}

// FormatReport implements Formatter.FormatReport.
func (f *jsonFormatter) FormatReport(w io.Writer, report []cache.HourlyStats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// FormatMonitor implements Formatter.FormatMonitor.
func (f *jsonFormatter) FormatMonitor(w io.Writer, rows []window.Row, costLimit float64) error {
	out := make([]monitorRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, monitorRow{
			Hour:          row.Hour,
			HourlyCost:    row.HourlyCost,
			RollingCost:   row.RollingCost,
			RollingTokens: row.RollingTokens,
			CostLimit:     costLimit,
			Utilization:   row.Utilization,
			Status:        row.Band.String(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
