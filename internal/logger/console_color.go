package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/foreman/internal/task"
)

// colorScheme defines consistent colors for the run metrics line.
// Green: succeeded tallies
// Red: failed tallies
// Yellow: skipped tallies
// Cyan: neutral labels
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
}

// newColorScheme creates the standard color scheme for run metrics.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
	}
}

// colorizeStatus colors a task status string: SUCCESS green, FAILED
// red, SKIPPED yellow. Unknown statuses pass through unchanged.
func colorizeStatus(status string) string {
	switch status {
	case task.StatusSuccess:
		return color.New(color.FgGreen).Sprint(status)
	case task.StatusFailed:
		return color.New(color.FgRed).Sprint(status)
	case task.StatusSkipped:
		return color.New(color.FgYellow).Sprint(status)
	default:
		return status
	}
}

// formatRunMetrics formats the per-status tallies of a finished run on
// one line. A tally keeps the neutral label color while zero so
// failures stand out only when present.
// Format: "succeeded: N, failed: N, skipped: N, events: N"
func formatRunMetrics(succeeded, failed, skipped, events int, colorOutput bool) string {
	if !colorOutput {
		return fmt.Sprintf("succeeded: %d, failed: %d, skipped: %d, events: %d",
			succeeded, failed, skipped, events)
	}

	scheme := newColorScheme()
	var parts []string

	label := scheme.label.Sprint("succeeded")
	if succeeded > 0 {
		label = scheme.success.Sprint("succeeded")
	}
	parts = append(parts, fmt.Sprintf("%s: %d", label, succeeded))

	label = scheme.label.Sprint("failed")
	if failed > 0 {
		label = scheme.fail.Sprint("failed")
	}
	parts = append(parts, fmt.Sprintf("%s: %d", label, failed))

	label = scheme.label.Sprint("skipped")
	if skipped > 0 {
		label = scheme.warn.Sprint("skipped")
	}
	parts = append(parts, fmt.Sprintf("%s: %d", label, skipped))

	parts = append(parts, fmt.Sprintf("%s: %d", scheme.label.Sprint("events"), events))

	return strings.Join(parts, ", ")
}
