package logger

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

// TestColorizeStatus verifies known statuses survive colorization with
// their text intact and unknown statuses pass through.
func TestColorizeStatus(t *testing.T) {
	for _, status := range []string{"SUCCESS", "FAILED", "SKIPPED", "WEIRD"} {
		if got := colorizeStatus(status); !strings.Contains(got, status) {
			t.Errorf("colorizeStatus(%q) = %q, lost the status text", status, got)
		}
	}
}

// TestFormatRunMetricsPlain verifies the uncolored metrics line.
func TestFormatRunMetricsPlain(t *testing.T) {
	got := formatRunMetrics(3, 1, 2, 9, false)
	want := "succeeded: 3, failed: 1, skipped: 2, events: 9"
	if got != want {
		t.Errorf("formatRunMetrics() = %q, want %q", got, want)
	}
}

// TestFormatRunMetricsColored verifies the tallies survive coloring.
func TestFormatRunMetricsColored(t *testing.T) {
	// Color output may be stripped entirely when NO_COLOR is set; the
	// numbers must survive either way.
	noColor := color.NoColor
	defer func() { color.NoColor = noColor }()
	color.NoColor = false

	got := formatRunMetrics(3, 0, 1, 5, true)
	for _, want := range []string{"succeeded", ": 3", "failed", ": 0", "skipped", ": 1", "events", ": 5"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatRunMetrics() = %q, missing %q", got, want)
		}
	}
}
