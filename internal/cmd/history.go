package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/foreman/internal/audit"
	"github.com/harrison/foreman/internal/config"
	"github.com/harrison/foreman/internal/history"
	"github.com/harrison/foreman/internal/logger"
)

// NewHistoryCommand creates the 'foreman history' parent command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past workflow runs",
		Long: `Commands for listing and inspecting recorded workflow runs.

Runs are recorded to a local SQLite database after each execution
unless history is disabled in the config or with --no-history.`,
	}

	// Add subcommands
	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())

	return cmd
}

// resolveHistoryDBPath picks the database location for a run. A path
// customized in the config is honored verbatim; the default is anchored
// at the foreman home so runs started from a subdirectory and the
// history commands agree on one database.
func resolveHistoryDBPath(cfg *config.Config) (string, error) {
	if cfg.History.DBPath != config.DefaultConfig().History.DBPath {
		return cfg.History.DBPath, nil
	}
	return config.GetHistoryDBPath()
}

// openHistoryStore resolves the history database path and opens it.
// A missing database is not an error: the store comes back nil and the
// caller reports the empty state.
func openHistoryStore() (*history.Store, string, error) {
	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	dbPath, err := resolveHistoryDBPath(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve history database path: %w", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, dbPath, nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("open history store: %w", err)
	}
	return store, dbPath, nil
}

// newHistoryListCommand creates the 'foreman history list' command
func newHistoryListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent workflow runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	cmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 = all)")
	return cmd
}

// runHistoryList executes the list command
func runHistoryList(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()
	limit, _ := cmd.Flags().GetInt("limit")

	store, dbPath, err := openHistoryStore()
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Fprintf(output, "No run history found.\n")
		fmt.Fprintf(output, "Database path: %s\n", dbPath)
		return nil
	}
	defer store.Close()

	records, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintf(output, "No runs recorded yet.\n")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(output, "Recent runs:\n\n")

	for _, record := range records {
		bar := logger.NewCompletionBar(record.TotalTasks, 10, !color.NoColor)
		bar.Update(record.Succeeded + record.Skipped)

		statusColor(record.Status).Fprintf(output, "%-8s", record.Status)
		fmt.Fprintf(output, " %s  %-20s %s  %s\n",
			record.StartedAt.Local().Format("2006-01-02 15:04"),
			record.WorkflowName,
			bar.Render(),
			record.RunID,
		)
		if record.FailedTask != "" {
			fmt.Fprintf(output, "%9shalted at %s\n", "", record.FailedTask)
		}
	}

	return nil
}

// newHistoryShowCommand creates the 'foreman history show' command
func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its audit events",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
}

// runHistoryShow executes the show command
func runHistoryShow(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()
	runID := args[0]

	store, dbPath, err := openHistoryStore()
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Fprintf(output, "No run history found.\n")
		fmt.Fprintf(output, "Database path: %s\n", dbPath)
		return nil
	}
	defer store.Close()

	record, err := store.GetRun(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	if record == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(output, "Run %s\n\n", record.RunID)
	fmt.Fprintf(output, "Workflow:   %s\n", record.WorkflowName)
	fmt.Fprintf(output, "Started:    %s\n", record.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(output, "Duration:   %s\n", record.Duration)
	fmt.Fprintf(output, "Status:     ")
	statusColor(record.Status).Fprintf(output, "%s\n", record.Status)
	fmt.Fprintf(output, "Tasks:      %d total, %d succeeded, %d failed, %d skipped\n",
		record.TotalTasks, record.Succeeded, record.Failed, record.Skipped)
	if record.FailedTask != "" {
		fmt.Fprintf(output, "Halted at:  %s\n", record.FailedTask)
	}
	if record.ErrorMessage != "" {
		fmt.Fprintf(output, "Error:      %s\n", record.ErrorMessage)
	}

	events, err := store.RunEvents(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("load run events: %w", err)
	}
	if len(events) == 0 {
		fmt.Fprintf(output, "\nNo audit events recorded for this run.\n")
		return nil
	}

	fmt.Fprintf(output, "\nAudit events:\n")
	for _, event := range events {
		ts := event.Timestamp.Local().Format("15:04:05")
		switch event.Kind {
		case audit.KindToolFallback:
			fmt.Fprintf(output, "  [%s] %-14s %s: %s -> %s\n",
				ts, event.Kind, event.ToolName, event.OriginalError, event.ChosenOutcome)
		case audit.KindTaskOutcome:
			fmt.Fprintf(output, "  [%s] %-14s %s: %s (%s)\n",
				ts, event.Kind, event.TaskName, event.Status, event.Duration)
		default:
			fmt.Fprintf(output, "  [%s] %s\n", ts, event.Kind)
		}
	}

	return nil
}

// statusColor maps a run status onto its display color
func statusColor(status string) *color.Color {
	switch status {
	case "SUCCESS":
		return color.New(color.FgGreen)
	case "PARTIAL":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
