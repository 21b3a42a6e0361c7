package tool

import (
	"os"
	"strings"
	"time"
)

// Tool describes one registered external executable. Values are stored
// by copy in the registry, so a definition is immutable after
// registration.
type Tool struct {
	Name        string   // Unique registry key
	Path        string   // Executable path (absolute or resolvable)
	DefaultArgs []string // Arguments prepended to every invocation
	Description string   // Optional human-readable summary
}

// BuildArgs returns the final argument list for an invocation: the
// tool's default arguments followed by the invocation's additional
// arguments.
func (t Tool) BuildArgs(extra []string) []string {
	args := make([]string, 0, len(t.DefaultArgs)+len(extra))
	args = append(args, t.DefaultArgs...)
	args = append(args, extra...)
	return args
}

// Invocation is one concrete call against a registered tool.
type Invocation struct {
	Tool    string            // Registered tool name
	Args    []string          // Additional arguments after the defaults
	WorkDir string            // Working directory; empty inherits the parent's
	Env     map[string]string // Environment overlay; wins on collision
	Timeout time.Duration     // Per-call ceiling; zero uses the registry default
}

// Result captures one completed tool run. Stdout and stderr are always
// piped, never inherited, so every result is fully programmatic.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
	Success  bool // Success iff ExitCode == 0
}

// MergeEnv returns the parent process environment with the overlay
// applied on top. Overlay keys replace inherited values on collision.
func MergeEnv(overlay map[string]string) []string {
	env := os.Environ()
	if len(overlay) == 0 {
		return env
	}

	merged := make([]string, 0, len(env)+len(overlay))
	for _, kv := range env {
		key := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key = kv[:i]
		}
		if _, shadowed := overlay[key]; shadowed {
			continue
		}
		merged = append(merged, kv)
	}
	for k, v := range overlay {
		merged = append(merged, k+"="+v)
	}
	return merged
}
