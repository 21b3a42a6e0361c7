package cmd

import (
	"fmt"

	"github.com/harrison/foreman/internal/config"
	"github.com/harrison/foreman/internal/fallback"
	"github.com/harrison/foreman/internal/models"
	"github.com/harrison/foreman/internal/task"
	"github.com/harrison/foreman/internal/tool"
)

// buildRegistry assembles the tool registry for a run: the workflow's
// own declarations first, then the probed standard toolset underneath.
// A workflow declaration shadows a standard tool of the same name.
func buildRegistry(workflow *models.Workflow, cfg *config.Config) (*tool.Registry, error) {
	reg := tool.NewRegistry()
	if cfg.DefaultTimeout > 0 {
		reg.SetDefaultTimeout(cfg.DefaultTimeout)
	}

	for _, spec := range workflow.Tools {
		t := tool.Tool{
			Name:        spec.Name,
			Path:        spec.Path,
			DefaultArgs: spec.DefaultArgs,
			Description: spec.Description,
		}
		if err := reg.Register(t); err != nil {
			return nil, fmt.Errorf("register tool %s: %w", spec.Name, err)
		}
	}

	if cfg.StandardTools {
		found, _ := tool.ProbeStandardTools()
		for _, t := range found {
			if reg.IsRegistered(t.Name) {
				continue
			}
			if err := reg.Register(t); err != nil {
				return nil, fmt.Errorf("register standard tool %s: %w", t.Name, err)
			}
		}
	}

	return reg, nil
}

// buildTasks converts validated task specs into executable tasks.
func buildTasks(workflow *models.Workflow) []task.Task {
	tasks := make([]task.Task, 0, len(workflow.Tasks))
	for i := range workflow.Tasks {
		spec := &workflow.Tasks[i]
		if spec.IsShell() {
			tasks = append(tasks, &task.ShellCommandTask{
				TaskName: spec.Name,
				Command:  spec.Command,
				WorkDir:  spec.WorkDir,
				Env:      spec.Env,
				Timeout:  spec.Timeout,
			})
			continue
		}
		tasks = append(tasks, &task.ToolTask{
			TaskName: spec.Name,
			Tool:     spec.Tool,
			Args:     spec.Args,
			WorkDir:  spec.WorkDir,
			Env:      spec.Env,
			Timeout:  spec.Timeout,
			Handler:  buildHandler(spec.Fallback),
		})
	}
	return tasks
}

// buildHandler maps a fallback spec onto a handler. Validation has
// already guaranteed exactly one strategy per node.
func buildHandler(spec *models.FallbackSpec) fallback.Handler {
	switch {
	case spec == nil:
		return nil
	case spec.Retry != nil:
		return fallback.NewRetryHandler(spec.Retry.MaxAttempts, spec.Retry.Backoff)
	case spec.Skip != nil:
		return fallback.NewSkipHandler(tool.Result{
			ExitCode: 0,
			Stdout:   []byte(spec.Skip.Output),
			Success:  true,
		})
	case len(spec.Chain) > 0:
		handlers := make([]fallback.Handler, 0, len(spec.Chain))
		for i := range spec.Chain {
			if h := buildHandler(&spec.Chain[i]); h != nil {
				handlers = append(handlers, h)
			}
		}
		return fallback.NewChainHandler(handlers...)
	default:
		return nil
	}
}
