// Package fallback provides the degradation strategies consulted when a
// tool invocation fails: retry with exponential backoff, skip with a
// substitute outcome, or escalation through an ordered handler chain.
package fallback

import (
	"github.com/harrison/foreman/internal/tool"
)

// Kind identifies the outcome of one handler consultation.
type Kind int

const (
	// KindRetry means the invocation should be attempted again.
	KindRetry Kind = iota
	// KindSkip means a substitute result stands in for the failed run.
	KindSkip
	// KindFail means the handler declined to recover.
	KindFail
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindRetry:
		return "retry"
	case KindSkip:
		return "skip"
	case KindFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Result is the outcome of one handler consultation. It is consumed
// exactly once per failure.
type Result struct {
	Kind       Kind
	Invocation tool.Invocation // Revised invocation when Kind is KindRetry
	Substitute *tool.Result    // Substitute outcome when Kind is KindSkip
	Err        error           // Surfaced error when Kind is KindFail
}

// Retry builds a retry outcome carrying the revised invocation.
func Retry(inv tool.Invocation) Result {
	return Result{Kind: KindRetry, Invocation: inv}
}

// Skip builds a skip outcome carrying the substitute result.
func Skip(substitute *tool.Result) Result {
	return Result{Kind: KindSkip, Substitute: substitute}
}

// Fail builds a fail outcome surfacing the error.
func Fail(err error) Result {
	return Result{Kind: KindFail, Err: err}
}

// Handler is a pluggable degradation strategy. Handle receives the
// invocation error and the invocation that produced it, and decides
// whether to retry, substitute, or surface the failure.
type Handler interface {
	Handle(err error, inv tool.Invocation) Result
}
