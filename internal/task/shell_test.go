package task

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellCommandTaskSuccess(t *testing.T) {
	s := &ShellCommandTask{TaskName: "greet", Command: "echo hi"}
	assert.Equal(t, "greet", s.Name())

	res := s.Execute(context.Background())
	require.True(t, res.IsSuccess(), "unexpected result: %+v", res)
	assert.Equal(t, "hi\n", res.Output)
}

func TestShellCommandTaskNonZeroExit(t *testing.T) {
	s := &ShellCommandTask{TaskName: "broken", Command: "echo oops >&2; exit 3"}

	res := s.Execute(context.Background())
	require.True(t, res.IsFailed())
	require.True(t, IsCommandError(res.Err), "want CommandError, got %v", res.Err)

	var cmdErr *CommandError
	require.ErrorAs(t, res.Err, &cmdErr)
	assert.Equal(t, "broken", cmdErr.TaskName)
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Equal(t, "oops", cmdErr.Stderr)
	assert.Contains(t, res.Err.Error(), "exited with code 3")
}

func TestShellCommandTaskEmptyCommand(t *testing.T) {
	for _, command := range []string{"", "   "} {
		s := &ShellCommandTask{TaskName: "empty", Command: command}
		res := s.Execute(context.Background())
		assert.True(t, res.IsFailed())
		assert.Error(t, res.Err)
	}
}

func TestShellCommandTaskWorkDir(t *testing.T) {
	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	s := &ShellCommandTask{TaskName: "where", Command: "pwd", WorkDir: dir}
	res := s.Execute(context.Background())
	require.True(t, res.IsSuccess(), "unexpected result: %+v", res)
	assert.Equal(t, resolved+"\n", res.Output)
}

func TestShellCommandTaskEnvOverlay(t *testing.T) {
	t.Setenv("FOREMAN_SHELL_TEST", "parent")

	s := &ShellCommandTask{
		TaskName: "env",
		Command:  "printenv FOREMAN_SHELL_TEST",
		Env:      map[string]string{"FOREMAN_SHELL_TEST": "overlay"},
	}
	res := s.Execute(context.Background())
	require.True(t, res.IsSuccess(), "unexpected result: %+v", res)
	assert.Equal(t, "overlay\n", res.Output)
}

func TestShellCommandTaskEnvInherited(t *testing.T) {
	t.Setenv("FOREMAN_SHELL_INHERITED", "from-parent")

	s := &ShellCommandTask{
		TaskName: "env",
		Command:  "printenv FOREMAN_SHELL_INHERITED",
		Env:      map[string]string{"FOREMAN_SHELL_OTHER": "x"},
	}
	res := s.Execute(context.Background())
	require.True(t, res.IsSuccess(), "unexpected result: %+v", res)
	assert.Equal(t, "from-parent\n", res.Output)
}

func TestShellCommandTaskTimeout(t *testing.T) {
	s := &ShellCommandTask{
		TaskName: "slow",
		Command:  "sleep 5",
		Timeout:  100 * time.Millisecond,
	}

	start := time.Now()
	res := s.Execute(context.Background())
	elapsed := time.Since(start)

	require.True(t, res.IsFailed())
	assert.True(t, IsTimeout(res.Err), "want timeout, got %v", res.Err)
	assert.Less(t, elapsed, 3*time.Second, "timeout should end the task early")
}

func TestShellCommandTaskContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	s := &ShellCommandTask{TaskName: "cancelled", Command: "sleep 5"}
	res := s.Execute(ctx)
	require.True(t, res.IsFailed())
	assert.False(t, IsTimeout(res.Err), "cancellation is not a timeout: %v", res.Err)
}

func TestShellCommandTaskCompensateBeforeExecute(t *testing.T) {
	s := &ShellCommandTask{TaskName: "fresh", Command: "echo hi"}

	action := s.Compensate()
	assert.Equal(t, CompensationSkip, action.Kind)
	assert.NoError(t, action.Invoke())
}

func TestShellCommandTaskCompensateAfterExit(t *testing.T) {
	s := &ShellCommandTask{TaskName: "done", Command: "echo hi"}
	res := s.Execute(context.Background())
	require.True(t, res.IsSuccess())

	action := s.Compensate()
	assert.Equal(t, CompensationTerminateProcess, action.Kind)
	assert.NotZero(t, action.PID)

	// Replaying against an exited process is a harmless no-op.
	assert.NoError(t, action.Invoke())
	assert.NoError(t, action.Invoke())
}

func TestShellCommandTaskCompensateKillsRunning(t *testing.T) {
	s := &ShellCommandTask{TaskName: "long", Command: "sleep 30"}

	done := make(chan Result, 1)
	go func() {
		done <- s.Execute(context.Background())
	}()

	deadline := time.Now().Add(5 * time.Second)
	for s.Compensate().Kind != CompensationTerminateProcess {
		if time.Now().After(deadline) {
			t.Fatal("process guard was never recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.NoError(t, s.Compensate().Invoke())

	select {
	case res := <-done:
		assert.True(t, res.IsFailed(), "killed task should report failure")
	case <-time.After(5 * time.Second):
		t.Fatal("task did not return after termination")
	}
}
