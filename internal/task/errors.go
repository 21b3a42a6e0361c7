package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CommandError captures a shell command that ran and exited non-zero:
// the exit code plus the stderr text the process produced.
type CommandError struct {
	TaskName  string    // Task that ran the command
	ExitCode  int       // Non-zero exit code
	Stderr    string    // Captured stderr text
	Timestamp time.Time // When the failure was observed
}

// NewCommandError creates a CommandError with the current timestamp.
func NewCommandError(taskName string, exitCode int, stderr string) *CommandError {
	return &CommandError{
		TaskName:  taskName,
		ExitCode:  exitCode,
		Stderr:    strings.TrimSpace(stderr),
		Timestamp: time.Now(),
	}
}

// Error implements the error interface for CommandError.
func (e *CommandError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("task %s: command exited with code %d", e.TaskName, e.ExitCode))
	if e.Stderr != "" {
		sb.WriteString(fmt.Sprintf(": %s", e.Stderr))
	}
	return sb.String()
}

// TimeoutError represents a task that exceeded its time ceiling.
type TimeoutError struct {
	TaskName string        // Task that timed out
	Limit    time.Duration // Configured ceiling; zero when inherited from the context
}

// NewTimeoutError creates a TimeoutError for the given task.
func NewTimeoutError(taskName string, limit time.Duration) *TimeoutError {
	return &TimeoutError{TaskName: taskName, Limit: limit}
}

// Error implements the error interface for TimeoutError.
func (e *TimeoutError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("task %s: timed out after %v", e.TaskName, e.Limit)
	}
	return fmt.Sprintf("task %s: timed out", e.TaskName)
}

// Unwrap returns context.DeadlineExceeded to support error wrapping.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// IsCommandError checks if the error is or wraps a CommandError.
func IsCommandError(err error) bool {
	if err == nil {
		return false
	}
	var e *CommandError
	return errors.As(err, &e)
}

// IsTimeout checks if the error is or wraps a TimeoutError or
// context.DeadlineExceeded.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var e *TimeoutError
	if errors.As(err, &e) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
