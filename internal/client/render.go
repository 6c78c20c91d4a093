package client

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

const barGlyph = "█"

// RenderBarChart draws the type distribution as horizontal bars, tallest first.
func RenderBarChart(w io.Writer, dist map[string]int, width int) {
	fmt.Fprintln(w, "Equipment Type Distribution")
	if len(dist) == 0 {
		fmt.Fprintln(w, "  (no data)")
		return
	}
	if width < 1 {
		width = 40
	}

	type bar struct {
		label string
		count int
	}
	bars := make([]bar, 0, len(dist))
	maxCount, labelWidth := 0, 0
	for k, v := range dist {
		bars = append(bars, bar{k, v})
		if v > maxCount {
			maxCount = v
		}
		if len(k) > labelWidth {
			labelWidth = len(k)
		}
	}
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].count != bars[j].count {
			return bars[i].count > bars[j].count
		}
		return bars[i].label < bars[j].label
	})

	for _, b := range bars {
		n := 0
		if maxCount > 0 {
			n = b.count * width / maxCount
		}
		if n == 0 && b.count > 0 {
			n = 1
		}
		fmt.Fprintf(w, "  %-*s | %s %d\n", labelWidth, b.label, strings.Repeat(barGlyph, n), b.count)
	}
}

// RenderSummary prints the four headline statistics with their units.
func RenderSummary(w io.Writer, r *UploadResult) {
	fmt.Fprintf(w, "Total Equipment: %d\n", r.TotalCount)
	fmt.Fprintf(w, "Avg Flowrate:    %g L/min\n", r.AvgFlowrate)
	fmt.Fprintf(w, "Avg Pressure:    %g PSI\n", r.AvgPressure)
	fmt.Fprintf(w, "Avg Temperature: %g °C\n", r.AvgTemperature)
}

// RenderHistory prints the recent uploads as a table.
func RenderHistory(w io.Writer, items []HistoryItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Filename\tTime\tCount\tFlow\tPressure\tTemp")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%g\t%g\t%g\n",
			it.FileName,
			it.UploadedAt.Format("15:04:05"),
			it.TotalEquipment,
			it.AvgFlowrate,
			it.AvgPressure,
			it.AvgTemperature,
		)
	}
	return tw.Flush()
}
