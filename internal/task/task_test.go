package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/foreman/internal/audit"
	"github.com/harrison/foreman/internal/tool"
)

func TestResultConstructors(t *testing.T) {
	success := Success("all done")
	assert.Equal(t, StatusSuccess, success.Status)
	assert.Equal(t, "all done", success.Output)
	assert.NoError(t, success.Err)
	assert.True(t, success.IsSuccess())
	assert.False(t, success.IsFailed())
	assert.False(t, success.IsSkipped())

	cause := errors.New("boom")
	failure := Failure(cause)
	assert.Equal(t, StatusFailed, failure.Status)
	assert.Equal(t, cause, failure.Err)
	assert.True(t, failure.IsFailed())
	assert.False(t, failure.IsSuccess())

	skipped := Skipped("substitute output")
	assert.Equal(t, StatusSkipped, skipped.Status)
	assert.Equal(t, "substitute output", skipped.Output)
	assert.True(t, skipped.IsSkipped())
	assert.False(t, skipped.IsFailed())
}

func TestNoCompensation(t *testing.T) {
	action := NoCompensation()
	assert.Equal(t, CompensationSkip, action.Kind)
	assert.Equal(t, "skip", action.String())
	assert.NoError(t, action.Invoke())
}

func TestTerminateProcessAction(t *testing.T) {
	guard := tool.NewProcessGuard(12345, "sleeper")
	guard.MarkExited()

	action := TerminateProcess(guard)
	assert.Equal(t, CompensationTerminateProcess, action.Kind)
	assert.Equal(t, 12345, action.PID)
	assert.Equal(t, "terminate_process(pid 12345)", action.String())

	// The guard already observed the exit, so replay is a no-op.
	assert.NoError(t, action.Invoke())
	assert.NoError(t, action.Invoke())
}

func TestTerminateProcessNilGuard(t *testing.T) {
	action := TerminateProcess(nil)
	assert.Equal(t, CompensationSkip, action.Kind)
	assert.NoError(t, action.Invoke())
}

func TestUndoWithAction(t *testing.T) {
	calls := 0
	action := UndoWith(func() error {
		calls++
		return nil
	})
	assert.Equal(t, CompensationUndo, action.Kind)
	assert.Equal(t, "undo", action.String())

	require.NoError(t, action.Invoke())
	require.NoError(t, action.Invoke())
	assert.Equal(t, 2, calls)
}

func TestUndoWithError(t *testing.T) {
	cause := errors.New("undo failed")
	action := UndoWith(func() error { return cause })
	assert.Equal(t, cause, action.Invoke())
}

func TestUndoWithNilClosure(t *testing.T) {
	action := UndoWith(nil)
	assert.Equal(t, CompensationSkip, action.Kind)
	assert.NoError(t, action.Invoke())
}

func TestRegistryContextRoundTrip(t *testing.T) {
	_, ok := RegistryFrom(context.Background())
	assert.False(t, ok)

	reg := tool.NewRegistry()
	ctx := WithRegistry(context.Background(), reg)
	got, ok := RegistryFrom(ctx)
	require.True(t, ok)
	assert.Same(t, reg, got)
}

func TestRegistryContextNilValue(t *testing.T) {
	ctx := WithRegistry(context.Background(), nil)
	_, ok := RegistryFrom(ctx)
	assert.False(t, ok)
}

func TestRecorderContextRoundTrip(t *testing.T) {
	_, ok := RecorderFrom(context.Background())
	assert.False(t, ok)

	rec := audit.NewRecorder()
	ctx := WithRecorder(context.Background(), rec)
	got, ok := RecorderFrom(ctx)
	require.True(t, ok)
	assert.Same(t, rec, got)
}
