package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/foreman/internal/filelock"
)

const configTemplate = `# foreman configuration
# Values here are merged over built-in defaults; CLI flags win over both.

# Per-invocation ceiling applied when a task does not set its own timeout.
default_timeout: 30s

# Maximum wall-clock time for a whole run (0 = unlimited).
workflow_timeout: 2h

# Logging verbosity: trace, debug, info, warn, error.
log_level: info

# Directory run logs are written to.
log_dir: .foreman/logs

# JSONL file audit events are appended to ("" disables the trail).
audit_trail: .foreman/audit.jsonl

# Probe and register the standard toolset (git, go, gofmt, make, rg).
standard_tools: true

history:
  # Record finished runs to a local SQLite database.
  enabled: true
  db_path: .foreman/history/runs.db
`

const workflowTemplate = `name: example
description: Compile and test the current module

tools:
  - name: go
    path: go
    description: Go toolchain

tasks:
  - name: compile
    tool: go
    args: [build, ./...]
    timeout: 90s

  - name: unit-tests
    tool: go
    args: [test, ./...]
    timeout: 10m
    fallback:
      retry:
        max_attempts: 2
        backoff: 2s

  - name: report
    command: echo "all checks passed"
`

// NewInitCommand creates the 'foreman init' command
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [directory]",
		Short: "Scaffold a foreman config and example workflow",
		Long: `Write a starter .foreman/config.yaml and an example workflow file
into the given directory (default: the current directory).

Existing files are never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
}

// runInit executes the init command
func runInit(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	configDir := filepath.Join(dir, ".foreman")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", configDir, err)
	}

	targets := []struct {
		path    string
		content string
	}{
		{filepath.Join(configDir, "config.yaml"), configTemplate},
		{filepath.Join(dir, "workflow.yaml"), workflowTemplate},
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	created := 0
	for _, target := range targets {
		if _, err := os.Stat(target.path); err == nil {
			yellow.Fprintf(output, "  - %s already exists, leaving it alone\n", target.path)
			continue
		}
		if err := filelock.AtomicWrite(target.path, []byte(target.content)); err != nil {
			return fmt.Errorf("failed to write %s: %w", target.path, err)
		}
		green.Fprintf(output, "  ✓ %s\n", target.path)
		created++
	}

	if created == 0 {
		fmt.Fprintf(output, "\nNothing to do.\n")
		return nil
	}

	fmt.Fprintf(output, "\nRun the example with: foreman run %s\n", filepath.Join(dir, "workflow.yaml"))
	return nil
}
