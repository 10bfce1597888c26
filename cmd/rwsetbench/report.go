package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	bestStyle   = cellStyle.Foreground(lipgloss.Color("42"))
)

// Report renders results as a table, highlighting the row with the highest
// throughput.
func Report(results []Result) string {
	best := -1
	for i, r := range results {
		if best < 0 || r.Throughput() > results[best].Throughput() {
			best = i
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STYLE", "ELAPSED", "READS", "WRITES", "OPS/S", "MAX WAIT R", "MAX WAIT W", "LEN").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == best:
				return bestStyle
			default:
				return cellStyle
			}
		})
	for _, r := range results {
		t.Row(
			r.Style.String(),
			r.Elapsed.Round(time.Microsecond).String(),
			strconv.FormatInt(r.Reads, 10),
			strconv.FormatInt(r.Writes, 10),
			fmt.Sprintf("%.0f", r.Throughput()),
			strconv.Itoa(r.MaxWaitingReaders),
			strconv.Itoa(r.MaxWaitingWriters),
			strconv.Itoa(r.Len),
		)
	}
	return t.String()
}
