package task

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/harrison/foreman/internal/tool"
)

// ShellCommandTask runs one arbitrary command line through bash with a
// configurable working directory, environment overlay, and timeout.
// Stdout and stderr are piped, never inherited.
type ShellCommandTask struct {
	TaskName string
	Command  string
	WorkDir  string            // Empty inherits the parent's directory
	Env      map[string]string // Overlay merged over the parent environment
	Timeout  time.Duration     // Zero means no ceiling beyond the context's

	mu    sync.Mutex
	guard *tool.ProcessGuard
}

// Name identifies the task.
func (s *ShellCommandTask) Name() string {
	return s.TaskName
}

// Execute spawns the command and waits for completion. Exit zero yields
// Success with the captured stdout; a non-zero exit yields Failed with
// the exit code and captured stderr; deadline expiry yields a
// timeout-flavored failure after the process group is killed.
func (s *ShellCommandTask) Execute(ctx context.Context) Result {
	if strings.TrimSpace(s.Command) == "" {
		return Failure(fmt.Errorf("task %s: command cannot be empty", s.TaskName))
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", s.Command)
	cmd.Dir = s.WorkDir
	cmd.Env = tool.MergeEnv(s.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	if err := cmd.Start(); err != nil {
		return Failure(fmt.Errorf("task %s: failed to start command: %w", s.TaskName, err))
	}

	// The process id is recorded before the wait begins so Compensate
	// can always name the spawned process.
	guard := tool.NewProcessGuard(cmd.Process.Pid, "shell")
	s.setGuard(guard)
	defer guard.Release()

	waitErr := cmd.Wait()
	guard.MarkExited()

	if waitErr != nil && ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Failure(NewTimeoutError(s.TaskName, s.Timeout))
		}
		return Failure(fmt.Errorf("task %s: cancelled: %w", s.TaskName, ctx.Err()))
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return Failure(NewCommandError(s.TaskName, exitErr.ExitCode(), stderr.String()))
		}
		return Failure(fmt.Errorf("task %s: wait failed: %w", s.TaskName, waitErr))
	}
	return Success(stdout.String())
}

// Compensate returns a skip action when nothing was spawned, otherwise
// a termination action for the recorded process. Guard idempotency
// makes the action a safe no-op after a natural exit.
func (s *ShellCommandTask) Compensate() CompensationAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.guard == nil {
		return NoCompensation()
	}
	return TerminateProcess(s.guard)
}

func (s *ShellCommandTask) setGuard(g *tool.ProcessGuard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guard = g
}
