package task

import (
	"context"

	"github.com/harrison/foreman/internal/audit"
	"github.com/harrison/foreman/internal/tool"
)

// ctxKey is the private type for context values this package owns.
type ctxKey int

const (
	ctxKeyRegistry ctxKey = iota
	ctxKeyRecorder
)

// WithRegistry returns a context carrying the shared tool registry.
func WithRegistry(ctx context.Context, reg *tool.Registry) context.Context {
	return context.WithValue(ctx, ctxKeyRegistry, reg)
}

// RegistryFrom extracts the tool registry from the context, reporting
// whether one is present.
func RegistryFrom(ctx context.Context) (*tool.Registry, bool) {
	reg, ok := ctx.Value(ctxKeyRegistry).(*tool.Registry)
	return reg, ok && reg != nil
}

// WithRecorder returns a context carrying the audit recorder for the
// current run.
func WithRecorder(ctx context.Context, rec *audit.Recorder) context.Context {
	return context.WithValue(ctx, ctxKeyRecorder, rec)
}

// RecorderFrom extracts the audit recorder from the context. The
// returned recorder may be nil; audit.Recorder methods tolerate that,
// so emission sites need no presence check.
func RecorderFrom(ctx context.Context) (*audit.Recorder, bool) {
	rec, ok := ctx.Value(ctxKeyRecorder).(*audit.Recorder)
	return rec, ok && rec != nil
}
