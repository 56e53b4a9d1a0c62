package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/shinagaki/ccmonitor/pkg/cache"
	"github.com/shinagaki/ccmonitor/pkg/window"
)

// ANSI color codes for utilization bands.
const (
	colorReset  = "\x1b[0m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
)

// utilizationBarWidth is the character width of the monitor bar.
const utilizationBarWidth = 20

// tableFormatter renders box-drawing tables.
type tableFormatter struct {
	config Config
}

// FormatReport implements Formatter.FormatReport.
func (f *tableFormatter) FormatReport(w io.Writer, report []cache.HourlyStats) error {
	header := []string{"Hour", "Input", "Output", "Total", "Cost", "Msgs", "Avg In", "Avg Out"}

	rows := make([][]string, 0, len(report)+1)
	var total cache.HourlyStats
	for _, stats := range report {
		rows = append(rows, []string{
			stats.Hour,
			formatNumber(stats.InputTokens),
			formatNumber(stats.OutputTokens),
			formatNumber(stats.TotalTokens),
			fmt.Sprintf("$%.4f", stats.Cost),
			formatNumber(stats.SessionCount),
			formatFloat(stats.AvgInputPerSession, 1),
			formatFloat(stats.AvgOutputPerSession, 1),
		})

		total.InputTokens += stats.InputTokens
		total.OutputTokens += stats.OutputTokens
		total.TotalTokens += stats.TotalTokens
		total.Cost += stats.Cost
		total.SessionCount += stats.SessionCount
	}

	rows = append(rows, []string{
		"Total",
		formatNumber(total.InputTokens),
		formatNumber(total.OutputTokens),
		formatNumber(total.TotalTokens),
		fmt.Sprintf("$%.4f", total.Cost),
		formatNumber(total.SessionCount),
		"",
		"",
	})

	return writeTable(w, header, rows)
}

// FormatMonitor implements Formatter.FormatMonitor.
func (f *tableFormatter) FormatMonitor(w io.Writer, rows []window.Row, costLimit float64) error {
	if _, err := fmt.Fprintf(w, "Rolling %dh spend (limit $%.2f)\n", window.Hours, costLimit); err != nil {
		return err
	}

	header := []string{"Hour", "Hourly", "Rolling", "Usage", "", "Status"}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			row.Hour,
			fmt.Sprintf("$%.4f", row.HourlyCost),
			fmt.Sprintf("$%.4f", row.RollingCost),
			fmt.Sprintf("%5.1f%%", row.Utilization),
			utilizationBar(row.Utilization),
			f.bandLabel(row.Band),
		})
	}

	return writeTable(w, header, tableRows)
}

// bandLabel renders a band name, colorized when enabled.
func (f *tableFormatter) bandLabel(b window.Band) string {
	label := b.String()
	if !f.config.ColorEnabled {
		return label
	}

	switch b {
	case window.BandNominal:
		return colorGreen + label + colorReset
	case window.BandCaution:
		return colorYellow + label + colorReset
	default:
		return colorRed + label + colorReset
	}
}

// utilizationBar renders a fixed-width fill bar. Utilization beyond
// 100% shows as a full bar.
func utilizationBar(utilization float64) string {
	filled := int(utilization / 100 * utilizationBarWidth)
	if filled > utilizationBarWidth {
		filled = utilizationBarWidth
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", utilizationBarWidth-filled) + "]"
}

// writeTable writes a box-drawing table with column widths sized to
// the widest cell.
func writeTable(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = displayWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && displayWidth(cell) > widths[i] {
				widths[i] = displayWidth(cell)
			}
		}
	}

	var sb strings.Builder

	writeRule := func(left, mid, right string) {
		sb.WriteString(left)
		for i, width := range widths {
			sb.WriteString(strings.Repeat("─", width+2))
			if i < len(widths)-1 {
				sb.WriteString(mid)
			}
		}
		sb.WriteString(right + "\n")
	}

	writeCells := func(cells []string) {
		sb.WriteString("│")
		for i, width := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(" " + cell + strings.Repeat(" ", width-displayWidth(cell)) + " │")
		}
		sb.WriteString("\n")
	}

	writeRule("┌", "┬", "┐")
	writeCells(header)
	writeRule("├", "┼", "┤")
	for _, row := range rows {
		writeCells(row)
	}
	writeRule("└", "┴", "┘")

	_, err := io.WriteString(w, sb.String())
	return err
}

// displayWidth is the printable width of a cell, ignoring ANSI escapes.
func displayWidth(s string) int {
	width := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			width++
		}
	}
	return width
}

// formatNumber renders an int with thousands separators.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}

// formatFloat renders a float with the given precision.
func formatFloat(f float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, f)
}
