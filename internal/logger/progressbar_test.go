package logger

import (
	"strings"
	"testing"
)

func TestCompletionBarRender(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		completed int
		want      string
	}{
		{name: "empty", total: 4, completed: 0, want: "[          ] 0/4 (0%)"},
		{name: "half", total: 4, completed: 2, want: "[=====     ] 2/4 (50%)"},
		{name: "full", total: 4, completed: 4, want: "[==========] 4/4 (100%)"},
		{name: "zero total", total: 0, completed: 0, want: "[          ] 0/0 (0%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewCompletionBar(tt.total, 10, false)
			bar.Update(tt.completed)
			if got := bar.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompletionBarClamping(t *testing.T) {
	bar := NewCompletionBar(3, 10, false)
	bar.Update(7)

	if got := bar.Percentage(); got != 100 {
		t.Errorf("Percentage() = %d, want 100", got)
	}
	if got := bar.Render(); !strings.Contains(got, "(100%)") {
		t.Errorf("Render() = %q, want clamped to 100%%", got)
	}
}

func TestCompletionBarIncrement(t *testing.T) {
	bar := NewCompletionBar(5, 10, false)
	bar.Increment()
	bar.Increment()

	if got := bar.Completed(); got != 2 {
		t.Errorf("Completed() = %d, want 2", got)
	}
	if got := bar.Percentage(); got != 40 {
		t.Errorf("Percentage() = %d, want 40", got)
	}
}

func TestCompletionBarWidthFallback(t *testing.T) {
	bar := NewCompletionBar(2, 0, false)
	bar.Update(1)

	rendered := bar.Render()
	if !strings.HasPrefix(rendered, "[") || !strings.Contains(rendered, "] 1/2") {
		t.Errorf("Render() = %q, want default width bar", rendered)
	}
	if len(strings.TrimSuffix(strings.Split(rendered, "]")[0], "]")) != 11 {
		t.Errorf("expected 10-char bar body, got %q", rendered)
	}
}
