package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/foreman/internal/parser"
	"github.com/harrison/foreman/internal/tool"
)

// NewToolsCommand creates the 'foreman tools' parent command
func NewToolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the external tools a run would use",
	}

	// Add subcommands
	cmd.AddCommand(newToolsProbeCommand())
	cmd.AddCommand(newToolsListCommand())

	return cmd
}

// newToolsProbeCommand creates the 'foreman tools probe' command
func newToolsProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Probe PATH for the standard toolset",
		Long: `Resolve the well-known standard tools against PATH and report which
are available. A missing tool is not an error until a task tries to
invoke it.`,
		Args: cobra.NoArgs,
		RunE: runToolsProbe,
	}
}

// runToolsProbe executes the probe command
func runToolsProbe(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	found, missing := tool.ProbeStandardTools()

	fmt.Fprintf(output, "Standard tools:\n")
	for _, t := range found {
		green.Fprintf(output, "  ✓ %s", t.Name)
		fmt.Fprintf(output, " -> %s", t.Path)
		if t.Description != "" {
			fmt.Fprintf(output, " (%s)", t.Description)
		}
		fmt.Fprintln(output)
	}
	for _, name := range missing {
		red.Fprintf(output, "  ✗ %s", name)
		fmt.Fprintf(output, " not found on PATH\n")
	}

	fmt.Fprintf(output, "\n%d available, %d missing\n", len(found), len(missing))
	return nil
}

// newToolsListCommand creates the 'foreman tools list' command
func newToolsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <workflow-file>",
		Short: "List the tools a workflow declares and references",
		Args:  cobra.ExactArgs(1),
		RunE:  runToolsList,
	}
}

// runToolsList executes the list command
func runToolsList(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow)

	wf, err := parser.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to load workflow file: %w", err)
	}

	cyan.Fprintf(output, "Workflow %s\n", wf.Name)

	declared := make(map[string]bool)
	if len(wf.Tools) > 0 {
		fmt.Fprintf(output, "\nDeclared tools:\n")
		for _, spec := range wf.Tools {
			declared[spec.Name] = true
			fmt.Fprintf(output, "  %s -> %s", spec.Name, spec.Path)
			if len(spec.DefaultArgs) > 0 {
				fmt.Fprintf(output, " %v", spec.DefaultArgs)
			}
			if spec.Description != "" {
				fmt.Fprintf(output, " (%s)", spec.Description)
			}
			fmt.Fprintln(output)
		}
	}

	referenced := wf.ReferencedTools()
	if len(referenced) > 0 {
		fmt.Fprintf(output, "\nReferenced by tasks:\n")
		for _, name := range referenced {
			fmt.Fprintf(output, "  %s", name)
			if !declared[name] {
				yellow.Fprintf(output, " (not declared, relies on the standard toolset)")
			}
			fmt.Fprintln(output)
		}
	} else {
		fmt.Fprintf(output, "\nNo tasks reference a registered tool; all tasks are shell commands.\n")
	}

	return nil
}
