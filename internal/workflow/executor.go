// Package workflow runs an ordered list of tasks sequentially, sharing
// one tool registry and one audit recorder with every task through the
// context, and halting at the first failed task with the partial
// results and their compensation actions preserved.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/foreman/internal/audit"
	"github.com/harrison/foreman/internal/task"
	"github.com/harrison/foreman/internal/tool"
)

// Logger defines the interface for logging workflow progress.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
}

// Executor runs workflows one task at a time.
type Executor struct {
	logger Logger
}

// NewExecutor creates an Executor. The logger is optional and can be
// nil.
func NewExecutor(logger Logger) *Executor {
	return &Executor{logger: logger}
}

// Run executes the tasks in order under a shared registry and a fresh
// audit recorder. After each task returns, its buffered fallback events
// are drained into the trail followed by the task's own outcome event,
// so the trail reflects strict execution order. A failed task halts the
// run; skipped tasks do not.
func (e *Executor) Run(ctx context.Context, name string, tasks []task.Task, reg *tool.Registry) *RunResult {
	result := &RunResult{
		RunID:        uuid.New().String(),
		WorkflowName: name,
		StartedAt:    time.Now().UTC(),
	}

	recorder := audit.NewRecorder()
	ctx = task.WithRegistry(ctx, reg)
	ctx = task.WithRecorder(ctx, recorder)

	e.logInfo(fmt.Sprintf("Workflow %s: starting %d task(s) (run %s)", name, len(tasks), result.RunID))

	for _, tk := range tasks {
		if tk == nil {
			e.logWarn(fmt.Sprintf("Workflow %s: skipping nil task entry", name))
			continue
		}

		if err := ctx.Err(); err != nil {
			result.Failed = true
			result.Err = fmt.Errorf("workflow %s cancelled: %w", name, err)
			e.logWarn(fmt.Sprintf("Workflow %s: cancelled before task %s", name, tk.Name()))
			break
		}

		e.logDebug(fmt.Sprintf("Task %s: starting", tk.Name()))
		taskStart := time.Now()
		res := tk.Execute(ctx)
		elapsed := time.Since(taskStart)

		result.Events = append(result.Events, recorder.Drain()...)
		result.Events = append(result.Events, audit.TaskOutcome(tk.Name(), res.Status, elapsed))

		result.Outcomes = append(result.Outcomes, TaskOutcome{
			TaskName:     tk.Name(),
			Result:       res,
			Duration:     elapsed,
			Compensation: tk.Compensate(),
		})

		switch {
		case res.IsFailed():
			e.logError(fmt.Sprintf("Task %s: failed after %v: %v", tk.Name(), elapsed.Round(time.Millisecond), res.Err))
			result.Failed = true
			result.FailedTask = tk.Name()
			result.Err = res.Err
		case res.IsSkipped():
			e.logWarn(fmt.Sprintf("Task %s: outcome substituted by fallback after %v", tk.Name(), elapsed.Round(time.Millisecond)))
		default:
			e.logInfo(fmt.Sprintf("Task %s: completed in %v", tk.Name(), elapsed.Round(time.Millisecond)))
		}

		if result.Failed {
			break
		}
	}

	result.Duration = time.Since(result.StartedAt)

	succeeded, failed, skipped := result.Counts()
	e.logInfo(fmt.Sprintf("Workflow %s: finished in %v (%d succeeded, %d failed, %d skipped)",
		name, result.Duration.Round(time.Millisecond), succeeded, failed, skipped))

	return result
}

func (e *Executor) logDebug(message string) {
	if e.logger != nil {
		e.logger.LogDebug(message)
	}
}

func (e *Executor) logInfo(message string) {
	if e.logger != nil {
		e.logger.LogInfo(message)
	}
}

func (e *Executor) logWarn(message string) {
	if e.logger != nil {
		e.logger.LogWarn(message)
	}
}

func (e *Executor) logError(message string) {
	if e.logger != nil {
		e.logger.LogError(message)
	}
}
