package task

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/foreman/internal/audit"
	"github.com/harrison/foreman/internal/fallback"
	"github.com/harrison/foreman/internal/tool"
)

func lookPath(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not installed: %v", name, err)
	}
	return path
}

func registryWith(t *testing.T, tools ...tool.Tool) *tool.Registry {
	t.Helper()
	reg := tool.NewRegistry()
	for _, def := range tools {
		require.NoError(t, reg.Register(def))
	}
	return reg
}

func TestToolTaskName(t *testing.T) {
	tt := &ToolTask{TaskName: "lint", Tool: "gofmt"}
	assert.Equal(t, "lint", tt.Name())
}

func TestToolTaskNoRegistry(t *testing.T) {
	tt := &ToolTask{TaskName: "orphan", Tool: "echo"}
	res := tt.Execute(context.Background())
	require.True(t, res.IsFailed())
	assert.True(t, tool.IsNotFound(res.Err), "want not-found, got %v", res.Err)
}

func TestToolTaskUnknownTool(t *testing.T) {
	ctx := WithRegistry(context.Background(), tool.NewRegistry())
	tt := &ToolTask{TaskName: "ghostly", Tool: "ghost"}
	res := tt.Execute(ctx)
	require.True(t, res.IsFailed())
	assert.True(t, tool.IsNotFound(res.Err), "want not-found, got %v", res.Err)
}

func TestToolTaskSuccess(t *testing.T) {
	reg := registryWith(t, tool.Tool{Name: "echo", Path: lookPath(t, "echo")})
	ctx := WithRegistry(context.Background(), reg)

	tt := &ToolTask{TaskName: "greet", Tool: "echo", Args: []string{"hello", "world"}}
	res := tt.Execute(ctx)
	require.True(t, res.IsSuccess(), "unexpected result: %+v", res)
	assert.Equal(t, "hello world\n", res.Output)
}

func TestToolTaskFailureWithoutHandler(t *testing.T) {
	reg := registryWith(t, tool.Tool{
		Name:        "sh",
		Path:        lookPath(t, "bash"),
		DefaultArgs: []string{"-c"},
	})
	ctx := WithRegistry(context.Background(), reg)

	tt := &ToolTask{TaskName: "broken", Tool: "sh", Args: []string{"echo bad >&2; exit 3"}}
	res := tt.Execute(ctx)
	require.True(t, res.IsFailed())
	assert.True(t, tool.IsExecutionFailed(res.Err), "want execution error, got %v", res.Err)
	assert.Contains(t, res.Err.Error(), "exited with code 3")
	assert.Contains(t, res.Err.Error(), "bad")
}

func TestToolTaskTimeoutWithoutHandler(t *testing.T) {
	reg := registryWith(t, tool.Tool{Name: "sleep", Path: lookPath(t, "sleep")})
	ctx := WithRegistry(context.Background(), reg)

	tt := &ToolTask{
		TaskName: "slow",
		Tool:     "sleep",
		Args:     []string{"5"},
		Timeout:  100 * time.Millisecond,
	}
	res := tt.Execute(ctx)
	require.True(t, res.IsFailed())
	assert.True(t, tool.IsTimeout(res.Err), "want timeout, got %v", res.Err)
}

func TestToolTaskSkipHandler(t *testing.T) {
	reg := registryWith(t, tool.Tool{Name: "false", Path: lookPath(t, "false")})
	rec := audit.NewRecorder()
	ctx := WithRecorder(WithRegistry(context.Background(), reg), rec)

	substitute := tool.Result{ExitCode: 0, Stdout: []byte("cached result\n"), Success: true}
	tt := &ToolTask{
		TaskName: "cacheable",
		Tool:     "false",
		Handler:  fallback.NewSkipHandler(substitute),
	}

	res := tt.Execute(ctx)
	require.True(t, res.IsSkipped(), "unexpected result: %+v", res)
	assert.Equal(t, "cached result\n", res.Output)

	events := rec.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, audit.KindToolFallback, events[0].Kind)
	assert.Equal(t, "false", events[0].ToolName)
	assert.Equal(t, "skip", events[0].ChosenOutcome)
	assert.NotEmpty(t, events[0].OriginalError)
	assert.NotEmpty(t, events[0].ID)
}

func TestToolTaskSkipHandlerWithoutRecorder(t *testing.T) {
	reg := registryWith(t, tool.Tool{Name: "false", Path: lookPath(t, "false")})
	ctx := WithRegistry(context.Background(), reg)

	tt := &ToolTask{
		TaskName: "quiet",
		Tool:     "false",
		Handler:  fallback.NewSkipHandler(tool.Result{Stdout: []byte("ok"), Success: true}),
	}

	res := tt.Execute(ctx)
	require.True(t, res.IsSkipped())
	assert.Equal(t, "ok", res.Output)
}

func TestToolTaskRetryExhaustion(t *testing.T) {
	reg := registryWith(t, tool.Tool{Name: "false", Path: lookPath(t, "false")})
	rec := audit.NewRecorder()
	ctx := WithRecorder(WithRegistry(context.Background(), reg), rec)

	tt := &ToolTask{
		TaskName: "stubborn",
		Tool:     "false",
		Handler:  fallback.NewRetryHandler(3, 0),
	}

	res := tt.Execute(ctx)
	require.True(t, res.IsFailed())
	assert.True(t, tool.IsExecutionFailed(res.Err), "want execution error, got %v", res.Err)

	events := rec.Drain()
	require.Len(t, events, 3)
	outcomes := make([]string, 0, len(events))
	for _, e := range events {
		assert.Equal(t, audit.KindToolFallback, e.Kind)
		assert.Equal(t, "false", e.ToolName)
		outcomes = append(outcomes, e.ChosenOutcome)
	}
	assert.Equal(t, []string{"retry", "retry", "fail"}, outcomes)
}

func TestToolTaskRetryThenSuccess(t *testing.T) {
	reg := registryWith(t, tool.Tool{
		Name:        "sh",
		Path:        lookPath(t, "bash"),
		DefaultArgs: []string{"-c"},
	})
	rec := audit.NewRecorder()
	ctx := WithRecorder(WithRegistry(context.Background(), reg), rec)

	// Fails on the first run, then succeeds once the marker exists.
	tt := &ToolTask{
		TaskName: "flaky",
		Tool:     "sh",
		Args:     []string{"if [ -f marker ]; then echo recovered; else touch marker; exit 1; fi"},
		WorkDir:  t.TempDir(),
		Handler:  fallback.NewRetryHandler(3, 0),
	}

	res := tt.Execute(ctx)
	require.True(t, res.IsSuccess(), "unexpected result: %+v", res)
	assert.Equal(t, "recovered\n", res.Output)

	events := rec.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, "retry", events[0].ChosenOutcome)
	assert.Contains(t, events[0].OriginalError, "exited with code 1")
}

func TestToolTaskCompensate(t *testing.T) {
	tt := &ToolTask{TaskName: "any", Tool: "echo"}
	action := tt.Compensate()
	assert.Equal(t, CompensationSkip, action.Kind)
	assert.NoError(t, action.Invoke())
}
