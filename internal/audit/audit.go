// Package audit provides the typed event trail a workflow run produces:
// fallback activations and per-task outcomes, appended in strict
// execution order.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds.
const (
	// KindToolFallback records one fallback-handler consultation for a
	// failed tool invocation.
	KindToolFallback = "tool_fallback"
	// KindTaskOutcome records the outcome of one executed task.
	KindTaskOutcome = "task_outcome"
)

// Event is a structured record of a notable workflow occurrence. Fields
// not relevant to the kind are left empty.
type Event struct {
	ID            string        `json:"id"`
	Kind          string        `json:"kind"`
	Timestamp     time.Time     `json:"timestamp"`
	TaskName      string        `json:"task_name,omitempty"`
	ToolName      string        `json:"tool_name,omitempty"`
	OriginalError string        `json:"original_error,omitempty"`
	ChosenOutcome string        `json:"chosen_outcome,omitempty"`
	Status        string        `json:"status,omitempty"`
	Duration      time.Duration `json:"duration_ns,omitempty"`
}

// ToolFallback builds the event recorded for every fallback-handler
// consultation: the tool that failed, the original error, and the
// outcome the handler chose.
func ToolFallback(toolName string, originalErr error, chosenOutcome string) Event {
	e := Event{
		ID:            uuid.New().String(),
		Kind:          KindToolFallback,
		Timestamp:     time.Now().UTC(),
		ToolName:      toolName,
		ChosenOutcome: chosenOutcome,
	}
	if originalErr != nil {
		e.OriginalError = originalErr.Error()
	}
	return e
}

// TaskOutcome builds the event the executor appends after each task
// returns.
func TaskOutcome(taskName, status string, duration time.Duration) Event {
	return Event{
		ID:        uuid.New().String(),
		Kind:      KindTaskOutcome,
		Timestamp: time.Now().UTC(),
		TaskName:  taskName,
		Status:    status,
		Duration:  duration,
	}
}
