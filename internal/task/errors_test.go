package task

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCommandErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *CommandError
		want string
	}{
		{
			name: "with stderr",
			err:  NewCommandError("build", 2, "syntax error near line 3\n"),
			want: "task build: command exited with code 2: syntax error near line 3",
		},
		{
			name: "without stderr",
			err:  NewCommandError("build", 1, ""),
			want: "task build: command exited with code 1",
		},
		{
			name: "whitespace stderr trimmed away",
			err:  NewCommandError("build", 1, "  \n\t"),
			want: "task build: command exited with code 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCommandErrorTimestamp(t *testing.T) {
	before := time.Now()
	err := NewCommandError("build", 1, "")
	after := time.Now()

	assert.False(t, err.Timestamp.Before(before))
	assert.False(t, err.Timestamp.After(after))
}

func TestTimeoutErrorMessage(t *testing.T) {
	withLimit := NewTimeoutError("slow", 2*time.Second)
	assert.Equal(t, "task slow: timed out after 2s", withLimit.Error())

	inherited := NewTimeoutError("slow", 0)
	assert.Equal(t, "task slow: timed out", inherited.Error())
}

func TestTimeoutErrorUnwrap(t *testing.T) {
	err := NewTimeoutError("slow", time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsCommandError(t *testing.T) {
	direct := NewCommandError("build", 1, "")
	assert.True(t, IsCommandError(direct))
	assert.True(t, IsCommandError(fmt.Errorf("wrapped: %w", direct)))
	assert.False(t, IsCommandError(errors.New("plain")))
	assert.False(t, IsCommandError(nil))
}

func TestIsTimeout(t *testing.T) {
	direct := NewTimeoutError("slow", time.Second)
	assert.True(t, IsTimeout(direct))
	assert.True(t, IsTimeout(fmt.Errorf("wrapped: %w", direct)))
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.False(t, IsTimeout(context.Canceled))
	assert.False(t, IsTimeout(nil))
}
