// Package task defines the unit of work the workflow executor runs: a
// named task that executes under a context and yields a compensation
// action for best-effort rollback of its committed side effect.
package task

import "context"

// Task execution status constants.
const (
	StatusSuccess = "SUCCESS" // Task completed successfully
	StatusFailed  = "FAILED"  // Task failed to execute
	StatusSkipped = "SKIPPED" // Task outcome substituted by a fallback
)

// Task is the capability contract shared by all task kinds.
type Task interface {
	// Name identifies the task in results, logs, and the audit trail.
	Name() string

	// Execute runs the task to completion. The context carries
	// cancellation plus the shared tool registry and audit recorder
	// when the executor injected them.
	Execute(ctx context.Context) Result

	// Compensate returns the action that reverses the task's committed
	// side effect, or a skip action when nothing undoable was
	// committed. Safe to call whether or not Execute ran.
	Compensate() CompensationAction
}

// Result is the tagged outcome of one task execution.
type Result struct {
	Status string // StatusSuccess, StatusFailed, or StatusSkipped
	Output string // Captured output for success/skip outcomes
	Err    error  // Failure cause when Status is StatusFailed
}

// Success builds a successful result carrying the captured output.
func Success(output string) Result {
	return Result{Status: StatusSuccess, Output: output}
}

// Failure builds a failed result carrying the error.
func Failure(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}

// Skipped builds a skipped result carrying the substitute output.
func Skipped(output string) Result {
	return Result{Status: StatusSkipped, Output: output}
}

// IsSuccess reports whether the task completed successfully.
func (r Result) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// IsFailed reports whether the task failed.
func (r Result) IsFailed() bool {
	return r.Status == StatusFailed
}

// IsSkipped reports whether a fallback substituted the task's outcome.
func (r Result) IsSkipped() bool {
	return r.Status == StatusSkipped
}
