package tool

import (
	"errors"
	"sync/atomic"
	"syscall"
)

// ProcessGuard is a scoped handle to one spawned process. It guarantees
// the process is terminated exactly once if the owning code path is
// abandoned before the natural exit is observed: the terminated flag
// flips to true exactly once, from either the natural-exit observation
// or an explicit/implicit termination, and never reverts.
type ProcessGuard struct {
	pid        int
	tool       string
	terminated atomic.Bool
}

// NewProcessGuard creates a guard for a freshly spawned process. Create
// it right after the spawn, before the wait begins.
func NewProcessGuard(pid int, tool string) *ProcessGuard {
	return &ProcessGuard{pid: pid, tool: tool}
}

// PID returns the guarded process id.
func (g *ProcessGuard) PID() int {
	return g.pid
}

// Tool returns the tool name the process was spawned for.
func (g *ProcessGuard) Tool() string {
	return g.tool
}

// Terminated reports whether the guard has observed an exit or sent a
// termination signal.
func (g *ProcessGuard) Terminated() bool {
	return g.terminated.Load()
}

// Terminate kills the guarded process. It is idempotent: only the first
// call sends a signal, repeat calls are no-ops returning nil. An
// already-exited process is not an error; a TerminationError is
// returned only when signal delivery itself fails.
func (g *ProcessGuard) Terminate() error {
	if g == nil {
		return nil
	}
	if !g.terminated.CompareAndSwap(false, true) {
		return nil
	}
	if err := g.signal(); err != nil {
		return &TerminationError{PID: g.pid, Err: err}
	}
	return nil
}

// signal kills the process group when one exists, falling back to the
// bare pid. ESRCH means the process already exited, which is success.
func (g *ProcessGuard) signal() error {
	err := syscall.Kill(-g.pid, syscall.SIGKILL)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	err = syscall.Kill(g.pid, syscall.SIGKILL)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}

// MarkExited records an observed natural exit so later Terminate or
// Release calls send no signal.
func (g *ProcessGuard) MarkExited() {
	g.terminated.Store(true)
}

// Release is the scoped cleanup path, safe to defer at spawn time. It
// behaves exactly like Terminate with the error discarded, so a guard
// discarded without an explicit call can never leak a running process.
func (g *ProcessGuard) Release() {
	_ = g.Terminate()
}
