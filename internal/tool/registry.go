package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"sync"
	"syscall"
	"time"
)

// DefaultInvokeTimeout is the ceiling applied to invocations that carry
// no explicit timeout.
const DefaultInvokeTimeout = 30 * time.Second

// Registry is the name to executable lookup table shared across a
// workflow run. The tool table is write-once/read-many; the active
// guard table is the one mutable shared structure and is serialized
// separately. Safe for concurrent invocation from multiple callers.
type Registry struct {
	mu             sync.RWMutex
	tools          map[string]Tool
	defaultTimeout time.Duration

	activeMu sync.Mutex
	active   map[int]*ProcessGuard
}

// NewRegistry creates an empty registry with the default invocation
// timeout.
func NewRegistry() *Registry {
	return &Registry{
		tools:          make(map[string]Tool),
		defaultTimeout: DefaultInvokeTimeout,
		active:         make(map[int]*ProcessGuard),
	}
}

// SetDefaultTimeout overrides the ceiling applied to invocations
// without an explicit timeout. Non-positive values are ignored.
func (r *Registry) SetDefaultTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultTimeout = d
}

// DefaultTimeout returns the current default invocation ceiling.
func (r *Registry) DefaultTimeout() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultTimeout
}

// Register adds a tool to the registry. Registration fails with
// AlreadyRegisteredError on a name collision; the original entry is
// untouched.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if t.Path == "" {
		return fmt.Errorf("tool %s: executable path cannot be empty", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return &AlreadyRegisteredError{Name: t.Name}
	}

	// Stored by value with a private copy of the argument slice so the
	// registered definition stays immutable.
	t.DefaultArgs = append([]string(nil), t.DefaultArgs...)
	r.tools[t.Name] = t
	return nil
}

// Get returns the registered tool or NotFoundError.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.tools[name]
	if !exists {
		return Tool{}, &NotFoundError{Name: name}
	}
	return t, nil
}

// IsRegistered reports whether a tool name is registered.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.tools[name]
	return exists
}

// List returns the registered tool names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke resolves the named tool, spawns it with the invocation's
// working directory and merged environment, and awaits completion.
//
// Any run that reaches an exit status returns a Result, nil; Success
// mirrors the exit code. Errors are reserved for runs without an exit
// status: NotFoundError for an unregistered name, ExecutionError for
// spawn failure or cancellation, TimeoutError when the ceiling expired
// and the process group was killed.
//
// Every spawn is wrapped in a ProcessGuard registered in the active
// table. Invoke awaits full completion, so the guard normally observes
// the natural exit; its deferred release covers abandonment paths.
func (r *Registry) Invoke(ctx context.Context, inv Invocation) (*Result, error) {
	t, err := r.Get(inv.Tool)
	if err != nil {
		return nil, err
	}

	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = r.DefaultTimeout()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.Path, t.BuildArgs(inv.Args)...)
	cmd.Dir = inv.WorkDir
	cmd.Env = MergeEnv(inv.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Child gets its own process group so cancellation kills the whole
	// tree, not just the immediate child.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, NewExecutionError(t.Name, "failed to start", err)
	}

	guard := NewProcessGuard(cmd.Process.Pid, t.Name)
	r.trackGuard(guard)
	defer r.untrackGuard(guard)
	defer guard.Release()

	waitErr := cmd.Wait()
	duration := time.Since(start)
	guard.MarkExited()

	if waitErr != nil && ctx.Err() != nil {
		// Killed by the deadline or the caller, not a real exit.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Tool: t.Name, Limit: timeout}
		}
		return nil, NewExecutionError(t.Name, "invocation cancelled", ctx.Err())
	}

	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: duration,
		Success:  true,
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, NewExecutionError(t.Name, "wait failed", waitErr)
		}
		res.ExitCode = exitErr.ExitCode()
		res.Success = false
	}
	return res, nil
}

// ActivePIDs returns the process ids of invocations currently awaiting
// completion, sorted. Diagnostics only.
func (r *Registry) ActivePIDs() []int {
	r.activeMu.Lock()
	defer r.activeMu.Unlock()

	pids := make([]int, 0, len(r.active))
	for pid := range r.active {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

func (r *Registry) trackGuard(g *ProcessGuard) {
	r.activeMu.Lock()
	defer r.activeMu.Unlock()
	r.active[g.PID()] = g
}

func (r *Registry) untrackGuard(g *ProcessGuard) {
	r.activeMu.Lock()
	defer r.activeMu.Unlock()
	delete(r.active, g.PID())
}
