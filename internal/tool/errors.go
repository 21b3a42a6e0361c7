package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NotFoundError indicates a lookup or invocation named a tool that was
// never registered.
type NotFoundError struct {
	Name string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

// AlreadyRegisteredError indicates a registration collided with an
// existing tool name. The original registration is untouched.
type AlreadyRegisteredError struct {
	Name string
}

// Error implements the error interface for AlreadyRegisteredError.
func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("tool already registered: %s", e.Name)
}

// ExecutionError represents a tool invocation that could not produce an
// exit status: spawn failure, cancellation, or a wait error. A run that
// completed with a non-zero exit code is not an ExecutionError; it is a
// Result with Success == false.
type ExecutionError struct {
	Tool      string    // Tool name, when known
	Message   string    // Human-readable error message
	Err       error     // Underlying error (optional)
	Timestamp time.Time // When the error occurred
}

// NewExecutionError creates an ExecutionError with the current timestamp.
func NewExecutionError(tool, msg string, err error) *ExecutionError {
	return &ExecutionError{
		Tool:      tool,
		Message:   msg,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface for ExecutionError.
func (e *ExecutionError) Error() string {
	var sb strings.Builder
	if e.Tool != "" {
		sb.WriteString(fmt.Sprintf("tool %s: ", e.Tool))
	}
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates an invocation exceeded its time ceiling and the
// process was killed.
type TimeoutError struct {
	Tool  string        // Tool name that timed out
	Limit time.Duration // Ceiling that was exceeded
}

// Error implements the error interface for TimeoutError.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("tool %s: timed out after %v", e.Tool, e.Limit)
}

// Unwrap returns context.DeadlineExceeded to support error wrapping.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// TerminationError indicates signal delivery to a guarded process
// failed. An already-exited process never produces one.
type TerminationError struct {
	PID int
	Err error
}

// Error implements the error interface for TerminationError.
func (e *TerminationError) Error() string {
	return fmt.Sprintf("process %d: termination failed: %v", e.PID, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *TerminationError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if the error is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsAlreadyRegistered checks if the error is or wraps an
// AlreadyRegisteredError.
func IsAlreadyRegistered(err error) bool {
	if err == nil {
		return false
	}
	var e *AlreadyRegisteredError
	return errors.As(err, &e)
}

// IsExecutionFailed checks if the error is or wraps an ExecutionError.
func IsExecutionFailed(err error) bool {
	if err == nil {
		return false
	}
	var e *ExecutionError
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

// IsTerminationFailed checks if the error is or wraps a
// TerminationError.
func IsTerminationFailed(err error) bool {
	if err == nil {
		return false
	}
	var e *TerminationError
	return errors.As(err, &e)
}
