package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-extsort/pkg/extsort"
	"github.com/dd0wney/cluso-extsort/pkg/verify"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(14)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF00"))

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))
)

type row struct {
	label, value string
}

func renderBox(title string, rows []row) string {
	lines := []string{titleStyle.Render(title)}
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r.label)+r.value)
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// formatDuration prints sub-millisecond durations in µs and the rest in ms.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%d µs", d.Microseconds())
	}
	return fmt.Sprintf("%d ms", d.Milliseconds())
}

func formatBytes(n int64) string {
	switch {
	case n >= extsort.MiB:
		return fmt.Sprintf("%.2f MiB", float64(n)/extsort.MiB)
	case n >= 1024:
		return fmt.Sprintf("%.2f KiB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func verificationLine(rep *verify.Report) string {
	if rep == nil {
		return "skipped"
	}
	if rep.OK() {
		return okStyle.Render("passed")
	}
	return failStyle.Render(rep.String())
}

func printSortSummary(w io.Writer, title string, res *extsort.Result) {
	rows := []row{
		{"records", fmt.Sprintf("%d", res.Records)},
		{"runs", fmt.Sprintf("%d", res.Runs)},
		{"passes", fmt.Sprintf("%d", res.Passes)},
		{"final merge", fmt.Sprintf("%t", res.FinalMerge)},
		{"duration", formatDuration(res.Duration)},
		{"read", fmt.Sprintf("%s in %d blocks", formatBytes(res.IO.BytesRead), res.IO.Reads)},
		{"written", fmt.Sprintf("%s in %d blocks", formatBytes(res.IO.BytesWritten), res.IO.Writes)},
		{"verification", verificationLine(res.Verification)},
	}
	fmt.Fprintln(w, renderBox(title, rows))
}
