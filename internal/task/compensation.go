package task

import (
	"fmt"

	"github.com/harrison/foreman/internal/tool"
)

// Compensation action kinds.
const (
	// CompensationSkip is the no-op action for tasks that committed
	// nothing undoable.
	CompensationSkip = "skip"
	// CompensationTerminateProcess terminates a guarded process.
	CompensationTerminateProcess = "terminate_process"
	// CompensationUndo runs a captured-state closure.
	CompensationUndo = "undo"
)

// CompensationAction is the reverse action for a task's committed side
// effect. Actions are best-effort and in-process: the executor records
// them at commit time and a caller may replay them in reverse order,
// but nothing survives a crash.
type CompensationAction struct {
	Kind string
	PID  int // Guarded process id for terminate_process actions

	guard *tool.ProcessGuard
	undo  func() error
}

// NoCompensation returns the skip action.
func NoCompensation() CompensationAction {
	return CompensationAction{Kind: CompensationSkip}
}

// TerminateProcess returns an action that terminates the guarded
// process. The guard's idempotency makes replay safe after a natural
// exit. A nil guard degrades to the skip action.
func TerminateProcess(g *tool.ProcessGuard) CompensationAction {
	if g == nil {
		return NoCompensation()
	}
	return CompensationAction{
		Kind:  CompensationTerminateProcess,
		PID:   g.PID(),
		guard: g,
	}
}

// UndoWith returns an action that runs the given closure. A nil
// closure degrades to the skip action.
func UndoWith(fn func() error) CompensationAction {
	if fn == nil {
		return NoCompensation()
	}
	return CompensationAction{Kind: CompensationUndo, undo: fn}
}

// Invoke executes the action. Skip actions do nothing and return nil.
func (a CompensationAction) Invoke() error {
	switch a.Kind {
	case CompensationTerminateProcess:
		return a.guard.Terminate()
	case CompensationUndo:
		if a.undo != nil {
			return a.undo()
		}
		return nil
	default:
		return nil
	}
}

// String returns a loggable description of the action.
func (a CompensationAction) String() string {
	switch a.Kind {
	case CompensationTerminateProcess:
		return fmt.Sprintf("terminate_process(pid %d)", a.PID)
	case CompensationUndo:
		return "undo"
	default:
		return "skip"
	}
}
