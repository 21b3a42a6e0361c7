package tool

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	tl := Tool{
		Name:        "echo-tool",
		Path:        "echo",
		DefaultArgs: []string{"hello"},
		Description: "prints its arguments",
	}

	require.NoError(t, r.Register(tl))

	got, err := r.Get("echo-tool")
	require.NoError(t, err)
	assert.Equal(t, tl, got)
	assert.True(t, r.IsRegistered("echo-tool"))
}

func TestRegistryRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tool{Name: "echo-tool", Path: "echo"}))

	err := r.Register(Tool{Name: "echo-tool", Path: "/bin/echo"})
	require.Error(t, err)
	assert.True(t, IsAlreadyRegistered(err))

	// The original registration is untouched.
	got, err := r.Get("echo-tool")
	require.NoError(t, err)
	assert.Equal(t, "echo", got.Path)
}

func TestRegistryRegisterValidation(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(Tool{Path: "echo"}))
	assert.Error(t, r.Register(Tool{Name: "echo-tool"}))
}

func TestRegistryGetUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("ghost-tool")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "ghost-tool")
	assert.False(t, r.IsRegistered("ghost-tool"))
}

func TestRegistryListIsSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(Tool{Name: name, Path: "true"}))
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.List())
}

func TestRegistryInvokeMergesDefaultAndAdditionalArgs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tool{
		Name:        "echo-tool",
		Path:        "echo",
		DefaultArgs: []string{"hello"},
	}))

	res, err := r.Invoke(context.Background(), Invocation{
		Tool: "echo-tool",
		Args: []string{"world"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, string(res.Stdout), "hello world")
}

func TestRegistryInvokeUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Invoke(context.Background(), Invocation{Tool: "ghost-tool"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestRegistryInvokeObservesWorkingDirectory(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tool{Name: "pwd", Path: "pwd"}))

	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	res, err := r.Invoke(context.Background(), Invocation{Tool: "pwd", WorkDir: dir})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, resolved, strings.TrimSpace(string(res.Stdout)))
}

func TestRegistryInvokeEnvironmentOverlayWins(t *testing.T) {
	t.Setenv("FOREMAN_TEST_KEY", "parent-value")

	r := NewRegistry()
	require.NoError(t, r.Register(Tool{Name: "printenv", Path: "printenv"}))

	res, err := r.Invoke(context.Background(), Invocation{
		Tool: "printenv",
		Args: []string{"FOREMAN_TEST_KEY"},
		Env:  map[string]string{"FOREMAN_TEST_KEY": "overlay-value"},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "overlay-value", strings.TrimSpace(string(res.Stdout)))
}

func TestRegistryInvokeInheritsParentEnvironment(t *testing.T) {
	t.Setenv("FOREMAN_TEST_INHERITED", "from-parent")

	r := NewRegistry()
	require.NoError(t, r.Register(Tool{Name: "printenv", Path: "printenv"}))

	res, err := r.Invoke(context.Background(), Invocation{
		Tool: "printenv",
		Args: []string{"FOREMAN_TEST_INHERITED"},
		Env:  map[string]string{"UNRELATED_KEY": "x"},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "from-parent", strings.TrimSpace(string(res.Stdout)))
}

func TestRegistryInvokeNonZeroExit(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tool{
		Name:        "bash-tool",
		Path:        "bash",
		DefaultArgs: []string{"-c"},
	}))

	res, err := r.Invoke(context.Background(), Invocation{
		Tool: "bash-tool",
		Args: []string{"echo oops >&2; exit 3"},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, string(res.Stderr), "oops")
}

func TestRegistryInvokeTimeout(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tool{Name: "sleep", Path: "sleep"}))

	start := time.Now()
	_, err := r.Invoke(context.Background(), Invocation{
		Tool:    "sleep",
		Args:    []string{"5"},
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Less(t, time.Since(start), 3*time.Second, "timeout must not wait for natural exit")
}

func TestRegistryInvokeCancellation(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tool{Name: "sleep", Path: "sleep"}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := r.Invoke(ctx, Invocation{Tool: "sleep", Args: []string{"5"}})
	require.Error(t, err)
	assert.True(t, IsExecutionFailed(err))
	assert.False(t, IsTimeout(err))
}

func TestRegistryInvokeStartFailure(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tool{
		Name: "broken",
		Path: "/nonexistent/definitely-not-a-binary",
	}))

	_, err := r.Invoke(context.Background(), Invocation{Tool: "broken"})
	require.Error(t, err)
	assert.True(t, IsExecutionFailed(err))
}

func TestRegistryDefaultTimeout(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, DefaultInvokeTimeout, r.DefaultTimeout())

	r.SetDefaultTimeout(5 * time.Second)
	assert.Equal(t, 5*time.Second, r.DefaultTimeout())

	r.SetDefaultTimeout(0)
	assert.Equal(t, 5*time.Second, r.DefaultTimeout(), "non-positive override is ignored")
}

func TestRegistryActivePIDsEmptyAfterInvoke(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tool{Name: "echo-tool", Path: "echo"}))

	_, err := r.Invoke(context.Background(), Invocation{Tool: "echo-tool"})
	require.NoError(t, err)
	assert.Empty(t, r.ActivePIDs())
}

func TestRegistryConcurrentInvocations(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tool{Name: "echo-tool", Path: "echo", DefaultArgs: []string{"hi"}}))

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Invoke(context.Background(), Invocation{Tool: "echo-tool"})
			if err == nil && !res.Success {
				err = NewExecutionError("echo-tool", "unexpected failure", nil)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Empty(t, r.ActivePIDs())
}

func TestMergeEnvOverlay(t *testing.T) {
	t.Setenv("FOREMAN_MERGE_A", "parent")

	env := MergeEnv(map[string]string{"FOREMAN_MERGE_A": "child", "FOREMAN_MERGE_B": "new"})

	var sawA, sawB bool
	for _, kv := range env {
		switch kv {
		case "FOREMAN_MERGE_A=child":
			sawA = true
		case "FOREMAN_MERGE_A=parent":
			t.Error("overlay must shadow the parent value")
		case "FOREMAN_MERGE_B=new":
			sawB = true
		}
	}
	assert.True(t, sawA, "overlay value missing")
	assert.True(t, sawB, "new overlay key missing")
}

func TestToolBuildArgs(t *testing.T) {
	tl := Tool{Name: "rg", Path: "rg", DefaultArgs: []string{"--color=never"}}
	assert.Equal(t, []string{"--color=never", "TODO", "."}, tl.BuildArgs([]string{"TODO", "."}))
	assert.Equal(t, []string{"--color=never"}, tl.BuildArgs(nil))
}
