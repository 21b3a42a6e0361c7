package logger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// CompletionBar renders an ASCII bar of completed tasks out of a total,
// used in run summaries and history displays.
type CompletionBar struct {
	completed   int
	total       int
	width       int
	enableColor bool
	mu          sync.RWMutex
}

// NewCompletionBar creates a completion bar. Width is the number of
// bar characters; values below 1 fall back to 10.
func NewCompletionBar(total, width int, enableColor bool) *CompletionBar {
	if width < 1 {
		width = 10
	}
	return &CompletionBar{
		total:       total,
		width:       width,
		enableColor: enableColor,
	}
}

// Update sets the completed count.
func (b *CompletionBar) Update(completed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completed = completed
}

// Increment adds one completed task.
func (b *CompletionBar) Increment() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completed++
}

// Completed returns the current completed count.
func (b *CompletionBar) Completed() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.completed
}

// Percentage returns the completion percentage clamped to 0-100.
func (b *CompletionBar) Percentage() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.percentageLocked()
}

func (b *CompletionBar) percentageLocked() int {
	if b.total == 0 {
		return 0
	}
	perc := (b.completed * 100) / b.total
	if perc > 100 {
		return 100
	}
	if perc < 0 {
		return 0
	}
	return perc
}

// Render generates the bar string.
// Format: "[=====     ] 5/10 (50%)"
func (b *CompletionBar) Render() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	perc := b.percentageLocked()
	filled := (perc * b.width) / 100
	if filled > b.width {
		filled = b.width
	}

	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(strings.Repeat("=", filled))
	sb.WriteString(strings.Repeat(" ", b.width-filled))
	sb.WriteString("]")

	result := fmt.Sprintf("%s %d/%d (%d%%)", sb.String(), b.completed, b.total, perc)

	if b.enableColor {
		if perc == 100 && b.total > 0 {
			return color.New(color.FgGreen).Sprint(result)
		}
		return color.New(color.FgCyan).Sprint(result)
	}

	return result
}
