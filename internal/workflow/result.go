package workflow

import (
	"fmt"
	"time"

	"github.com/harrison/foreman/internal/audit"
	"github.com/harrison/foreman/internal/task"
)

// TaskOutcome pairs one executed task with its result, its wall-clock
// duration, and the compensation action collected at commit time.
type TaskOutcome struct {
	TaskName     string
	Result       task.Result
	Duration     time.Duration
	Compensation task.CompensationAction
}

// RunResult aggregates one workflow run: every task that executed (the
// failing one included, when the run halted), the audit events in
// strict execution order, and the failure cause if any.
type RunResult struct {
	RunID        string
	WorkflowName string
	StartedAt    time.Time
	Duration     time.Duration
	Outcomes     []TaskOutcome
	Events       []audit.Event
	Failed       bool
	FailedTask   string // Name of the task that halted the run
	Err          error  // Failure cause when Failed is true
}

// Succeeded reports whether the run completed without a halting
// failure. Skipped tasks do not count against success.
func (r *RunResult) Succeeded() bool {
	return r != nil && !r.Failed
}

// Status summarizes the whole run as SUCCESS, PARTIAL, or FAILED.
// PARTIAL means the run halted after at least one task completed.
func (r *RunResult) Status() string {
	if r == nil || !r.Failed {
		return "SUCCESS"
	}
	succeeded, _, skipped := r.Counts()
	if succeeded == 0 && skipped == 0 {
		return "FAILED"
	}
	return "PARTIAL"
}

// Counts tallies the outcomes by status.
func (r *RunResult) Counts() (succeeded, failed, skipped int) {
	if r == nil {
		return 0, 0, 0
	}
	for _, o := range r.Outcomes {
		switch {
		case o.Result.IsSuccess():
			succeeded++
		case o.Result.IsFailed():
			failed++
		case o.Result.IsSkipped():
			skipped++
		}
	}
	return succeeded, failed, skipped
}

// Rollback replays the collected compensation actions in reverse
// execution order, so the halting task's action runs first and the
// earliest task's action runs last. Replay is best-effort: a failing
// action is logged and collected, never fatal to the remaining actions.
func (r *RunResult) Rollback(log Logger) []error {
	if r == nil {
		return nil
	}

	var errs []error
	for i := len(r.Outcomes) - 1; i >= 0; i-- {
		outcome := r.Outcomes[i]
		action := outcome.Compensation
		if action.Kind == task.CompensationSkip || action.Kind == "" {
			continue
		}

		if log != nil {
			log.LogInfo(fmt.Sprintf("Rollback: replaying %s for task %s", action, outcome.TaskName))
		}
		if err := action.Invoke(); err != nil {
			if log != nil {
				log.LogWarn(fmt.Sprintf("Rollback: %s failed for task %s: %v", action, outcome.TaskName, err))
			}
			errs = append(errs, fmt.Errorf("rollback of task %s: %w", outcome.TaskName, err))
		}
	}
	return errs
}
