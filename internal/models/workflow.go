package models

import (
	"errors"
	"fmt"
	"time"
)

// Workflow represents a parsed workflow file: the tools it declares and
// the tasks to run in order.
type Workflow struct {
	Name        string     // Workflow name
	Description string     // Optional human-readable description
	Tools       []ToolSpec // Tools to register before the run
	Tasks       []TaskSpec // Tasks in execution order
	FilePath    string     // Original file path (for error messages)
}

// ToolSpec declares one external tool for the registry.
type ToolSpec struct {
	Name        string   // Registry name
	Path        string   // Executable path or bare binary name
	DefaultArgs []string // Arguments prepended to every invocation
	Description string   // Optional description
}

// TaskSpec declares one task. Exactly one of Tool or Command must be
// set: Tool invokes a registered tool, Command runs a shell line.
type TaskSpec struct {
	Name     string            // Unique task name
	Tool     string            // Registered tool to invoke
	Args     []string          // Extra arguments appended to the tool's defaults
	Command  string            // Shell command line
	WorkDir  string            // Working directory (defaults to the parent's)
	Env      map[string]string // Environment overlay (wins over inherited values)
	Timeout  time.Duration     // Per-task timeout (0 = registry default)
	Fallback *FallbackSpec     // Optional failure-handling strategy
}

// RetrySpec retries the failed invocation with exponential backoff.
type RetrySpec struct {
	MaxAttempts int           // Total attempts including the first
	Backoff     time.Duration // Base delay, doubled for each further retry
}

// SkipSpec abandons the failed invocation and reports substitute output.
type SkipSpec struct {
	Output string // Substitute stdout for the skipped task
}

// FallbackSpec selects exactly one failure-handling strategy. A Chain
// consults its entries in order and adopts the first decisive answer.
type FallbackSpec struct {
	Retry *RetrySpec
	Skip  *SkipSpec
	Chain []FallbackSpec
}

// Validate checks structural rules: a workflow name, at least one task,
// unique tool and task names, and well-formed task and fallback specs.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return errors.New("workflow name is required")
	}
	if len(w.Tasks) == 0 {
		return errors.New("workflow has no tasks")
	}

	seenTools := make(map[string]bool)
	for i := range w.Tools {
		tool := &w.Tools[i]
		if tool.Name == "" {
			return fmt.Errorf("tool %d: name is required", i+1)
		}
		if tool.Path == "" {
			return fmt.Errorf("tool %s: path is required", tool.Name)
		}
		if seenTools[tool.Name] {
			return fmt.Errorf("tool %s: duplicate name", tool.Name)
		}
		seenTools[tool.Name] = true
	}

	seenTasks := make(map[string]bool)
	for i := range w.Tasks {
		task := &w.Tasks[i]
		if err := task.Validate(); err != nil {
			return fmt.Errorf("task %d: %w", i+1, err)
		}
		if seenTasks[task.Name] {
			return fmt.Errorf("task %s: duplicate name", task.Name)
		}
		seenTasks[task.Name] = true
	}

	return nil
}

// HasTask reports whether the workflow declares a task with the name.
func (w *Workflow) HasTask(name string) bool {
	for i := range w.Tasks {
		if w.Tasks[i].Name == name {
			return true
		}
	}
	return false
}

// ReferencedTools lists the distinct tool names the workflow's tasks
// invoke, in first-use order. Shell tasks contribute nothing.
func (w *Workflow) ReferencedTools() []string {
	seen := make(map[string]bool)
	var names []string
	for i := range w.Tasks {
		name := w.Tasks[i].Tool
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Validate checks a single task: a name, exactly one of tool/command,
// and a well-formed fallback if present.
func (t *TaskSpec) Validate() error {
	if t.Name == "" {
		return errors.New("task name is required")
	}
	if t.Tool == "" && t.Command == "" {
		return errors.New("task needs a tool or a command")
	}
	if t.Tool != "" && t.Command != "" {
		return errors.New("task cannot have both a tool and a command")
	}
	if t.Command != "" && len(t.Args) > 0 {
		return errors.New("args only apply to tool tasks")
	}
	if t.Command != "" && t.Fallback != nil {
		return errors.New("fallback only applies to tool tasks")
	}
	if t.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if t.Fallback != nil {
		if err := t.Fallback.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsShell reports whether the task runs a shell command rather than a
// registered tool.
func (t *TaskSpec) IsShell() bool {
	return t.Command != ""
}

// Validate checks that exactly one strategy is chosen and that its
// parameters make sense. Chain entries are validated recursively.
func (f *FallbackSpec) Validate() error {
	chosen := 0
	if f.Retry != nil {
		chosen++
	}
	if f.Skip != nil {
		chosen++
	}
	if len(f.Chain) > 0 {
		chosen++
	}
	if chosen == 0 {
		return errors.New("fallback must choose retry, skip, or chain")
	}
	if chosen > 1 {
		return errors.New("fallback must choose exactly one of retry, skip, or chain")
	}

	if f.Retry != nil {
		if f.Retry.MaxAttempts < 1 {
			return errors.New("retry max_attempts must be at least 1")
		}
		if f.Retry.Backoff < 0 {
			return errors.New("retry backoff cannot be negative")
		}
	}

	for i := range f.Chain {
		if err := f.Chain[i].Validate(); err != nil {
			return fmt.Errorf("chain entry %d: %w", i+1, err)
		}
	}

	return nil
}

// Summary describes the chosen strategy in one short phrase, for dry-run
// listings and logs.
func (f *FallbackSpec) Summary() string {
	switch {
	case f == nil:
		return "none"
	case f.Retry != nil:
		return fmt.Sprintf("retry up to %d with %s backoff", f.Retry.MaxAttempts, f.Retry.Backoff)
	case f.Skip != nil:
		return "skip with substitute output"
	case len(f.Chain) > 0:
		return fmt.Sprintf("chain of %d strategies", len(f.Chain))
	default:
		return "none"
	}
}
