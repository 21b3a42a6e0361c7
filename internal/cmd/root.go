package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for foreman
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "foreman",
		Short: "Sequential workflow runner for external tools",
		Long: `Foreman executes workflows of shell commands and registered external
tools, one task at a time, with per-task fallback strategies.

It parses workflow files (Markdown or YAML), registers the declared
tools, runs the tasks in order, records an audit trail of every
fallback decision, and can replay compensation actions in reverse
order when a run halts.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewToolsCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewInitCommand())

	return cmd
}
