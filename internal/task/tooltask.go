package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harrison/foreman/internal/audit"
	"github.com/harrison/foreman/internal/fallback"
	"github.com/harrison/foreman/internal/tool"
)

// ToolTask resolves a named registry entry through the context, invokes
// it, and on failure consults its fallback handler. Every handler
// consultation emits a tool_fallback audit event through the context
// recorder before the task returns, regardless of the chosen outcome.
type ToolTask struct {
	TaskName string
	Tool     string            // Registered tool name
	Args     []string          // Additional arguments after the tool's defaults
	WorkDir  string            // Empty inherits the parent's directory
	Env      map[string]string // Overlay merged over the parent environment
	Timeout  time.Duration     // Zero uses the registry default
	Handler  fallback.Handler  // Optional degradation strategy
}

// Name identifies the task.
func (t *ToolTask) Name() string {
	return t.TaskName
}

// Execute invokes the tool. The retry loop is bounded only by the
// handler's own budget: a Retry outcome re-invokes with the revised
// invocation, Skip substitutes the handler's result, Fail surfaces the
// error. Without a handler the first failure is surfaced directly.
func (t *ToolTask) Execute(ctx context.Context) Result {
	reg, ok := RegistryFrom(ctx)
	if !ok {
		// No registry reaches this task, so the tool cannot resolve.
		return Failure(&tool.NotFoundError{Name: t.Tool})
	}
	recorder, _ := RecorderFrom(ctx)

	inv := tool.Invocation{
		Tool:    t.Tool,
		Args:    t.Args,
		WorkDir: t.WorkDir,
		Env:     t.Env,
		Timeout: t.Timeout,
	}

	for {
		res, invErr := reg.Invoke(ctx, inv)
		if invErr == nil && res.Success {
			return Success(string(res.Stdout))
		}
		if invErr == nil {
			// The run completed with a non-zero exit; present it to
			// the handler as an execution failure.
			invErr = tool.NewExecutionError(t.Tool, exitMessage(res), nil)
		}

		if t.Handler == nil {
			return Failure(invErr)
		}

		outcome := t.Handler.Handle(invErr, inv)
		recorder.Record(audit.ToolFallback(t.Tool, invErr, outcome.Kind.String()))

		switch outcome.Kind {
		case fallback.KindRetry:
			inv = outcome.Invocation
		case fallback.KindSkip:
			output := ""
			if outcome.Substitute != nil {
				output = string(outcome.Substitute.Stdout)
			}
			return Skipped(output)
		default:
			err := outcome.Err
			if err == nil {
				err = invErr
			}
			return Failure(err)
		}
	}
}

// Compensate returns the skip action: registry invocations always await
// completion under their own process guard, so a finished tool task has
// nothing left to terminate.
func (t *ToolTask) Compensate() CompensationAction {
	return NoCompensation()
}

func exitMessage(res *tool.Result) string {
	msg := fmt.Sprintf("exited with code %d", res.ExitCode)
	if s := strings.TrimSpace(string(res.Stderr)); s != "" {
		msg = fmt.Sprintf("%s: %s", msg, s)
	}
	return msg
}
