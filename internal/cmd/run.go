package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/foreman/internal/audit"
	"github.com/harrison/foreman/internal/config"
	"github.com/harrison/foreman/internal/history"
	"github.com/harrison/foreman/internal/logger"
	"github.com/harrison/foreman/internal/parser"
	"github.com/harrison/foreman/internal/workflow"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <workflow-file>",
		Short: "Execute a workflow",
		Long: `Execute a workflow file (Markdown or YAML format) task by task.

Tasks run strictly in order. A failing task halts the run; earlier
results are kept, and their compensation actions can be replayed in
reverse order with --rollback.

Configuration is loaded from .foreman/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Run a workflow
  foreman run release.yaml

  # Validate and show the plan without executing
  foreman run --dry-run release.yaml

  # Cap the whole run at 30 minutes
  foreman run --timeout 30m release.yaml

  # Replay compensation actions if the run halts
  foreman run --rollback release.md

  # Skip the standard tool probe and run history
  foreman run --standard-tools=false --no-history release.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runCommand,
	}

	// Add flags
	cmd.Flags().String("config", "", "Path to config file (default: .foreman/config.yaml)")
	cmd.Flags().Bool("dry-run", false, "Validate the workflow without executing tasks")
	cmd.Flags().String("timeout", "", "Maximum run time (e.g., 30m, 2h, 1h30m)")
	cmd.Flags().String("default-timeout", "", "Per-invocation timeout for tools (e.g., 30s, 2m)")
	cmd.Flags().Bool("verbose", false, "Show detailed execution information")
	cmd.Flags().String("log-level", "", "Log verbosity (trace, debug, info, warn, error)")
	cmd.Flags().String("log-dir", "", "Directory for log files")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().String("audit-trail", "", "JSONL file to append audit events to (empty disables)")
	cmd.Flags().Bool("rollback", false, "Replay compensation actions in reverse order if the run halts")
	cmd.Flags().Bool("standard-tools", true, "Register the probed standard toolset")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	// Load configuration from file
	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error

	if configPath != "" {
		// Load from explicit config path
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		// Load from default .foreman/config.yaml
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Get flag values
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	rollback, _ := cmd.Flags().GetBool("rollback")

	// Build flag pointers for merge (only values the user actually set)
	var defaultTimeoutPtr *time.Duration
	if cmd.Flags().Changed("default-timeout") {
		str, _ := cmd.Flags().GetString("default-timeout")
		timeout, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("invalid default-timeout format %q: %w", str, err)
		}
		defaultTimeoutPtr = &timeout
	}

	var workflowTimeoutPtr *time.Duration
	if cmd.Flags().Changed("timeout") {
		str, _ := cmd.Flags().GetString("timeout")
		timeout, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("invalid timeout format %q: %w", str, err)
		}
		workflowTimeoutPtr = &timeout
	}

	var logLevelPtr *string
	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		logLevelPtr = &level
	}

	var logDirPtr *string
	if cmd.Flags().Changed("log-dir") {
		dir, _ := cmd.Flags().GetString("log-dir")
		logDirPtr = &dir
	}

	var auditTrailPtr *string
	if cmd.Flags().Changed("audit-trail") {
		path, _ := cmd.Flags().GetString("audit-trail")
		auditTrailPtr = &path
	}

	var historyEnabledPtr *bool
	if cmd.Flags().Changed("no-history") {
		noHistory, _ := cmd.Flags().GetBool("no-history")
		enabled := !noHistory
		historyEnabledPtr = &enabled
	}

	var standardToolsPtr *bool
	if cmd.Flags().Changed("standard-tools") {
		enabled, _ := cmd.Flags().GetBool("standard-tools")
		standardToolsPtr = &enabled
	}

	// Merge CLI flags with config (flags take precedence)
	cfg.MergeWithFlags(defaultTimeoutPtr, workflowTimeoutPtr, logLevelPtr, logDirPtr, auditTrailPtr, historyEnabledPtr, standardToolsPtr)

	// Validate merged configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Load and parse the workflow file
	workflowFile := args[0]
	fmt.Fprintf(cmd.OutOrStdout(), "Loading workflow from %s...\n", workflowFile)
	wf, err := parser.ParseFile(workflowFile)
	if err != nil {
		return fmt.Errorf("failed to load workflow file: %w", err)
	}

	// Build the tool registry
	reg, err := buildRegistry(wf, cfg)
	if err != nil {
		return err
	}

	// Warn about referenced tools nobody registered; invocation will
	// fail with a not-found error, but saying so up front is kinder
	for _, name := range wf.ReferencedTools() {
		if !reg.IsRegistered(name) {
			fmt.Fprintf(cmd.OutOrStderr(), "Warning: task references unregistered tool %q\n", name)
		}
	}

	tasks := buildTasks(wf)

	// Display workflow summary
	fmt.Fprintf(cmd.OutOrStdout(), "\nWorkflow Summary:\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  Name: %s\n", wf.Name)
	fmt.Fprintf(cmd.OutOrStdout(), "  Tasks: %d\n", len(wf.Tasks))
	fmt.Fprintf(cmd.OutOrStdout(), "  Registered tools: %d\n", len(reg.List()))
	if cfg.WorkflowTimeout > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "  Timeout: %s\n", cfg.WorkflowTimeout)
	}
	if configPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  Config: %s\n", configPath)
	}

	// Dry-run mode: validate and show the plan only
	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "\nDry-run mode: workflow is valid and ready for execution.\n")
		fmt.Fprintf(cmd.OutOrStdout(), "\nPlanned tasks:\n")
		for i := range wf.Tasks {
			spec := &wf.Tasks[i]
			if spec.IsShell() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s: shell %q\n", i+1, spec.Name, spec.Command)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s: tool %s %v (fallback: %s)\n",
					i+1, spec.Name, spec.Tool, spec.Args, spec.Fallback.Summary())
			}
		}
		return nil
	}

	// Full execution mode
	fmt.Fprintf(cmd.OutOrStdout(), "\nStarting execution...\n\n")

	// Determine log level: verbose flag overrides config
	logLevel := cfg.LogLevel
	if verbose {
		logLevel = "debug"
	}

	// Create console logger for real-time progress
	consoleLog := logger.NewConsoleLogger(os.Stdout, logLevel)

	// Create file logger for detailed logs
	fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, logLevel)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()

	// Create multi-logger that writes to both console and file
	multiLog := &multiLogger{
		loggers: []workflow.Logger{consoleLog, fileLog},
	}

	// Set up context with the run timeout
	ctx := context.Background()
	var cancel context.CancelFunc
	if cfg.WorkflowTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.WorkflowTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintf(cmd.OutOrStderr(), "\nReceived interrupt signal, shutting down gracefully...\n")
			cancel()
		case <-ctx.Done():
			// Context already canceled
		}
	}()

	consoleLog.LogRunStart(wf.Name, len(tasks))
	fileLog.LogRunStart(wf.Name, len(tasks))

	// Execute the workflow
	executor := workflow.NewExecutor(multiLog)
	result := executor.Run(ctx, wf.Name, tasks, reg)

	// Write a per-task detail log for every outcome
	for _, outcome := range result.Outcomes {
		if logErr := fileLog.LogTaskOutcome(outcome); logErr != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Warning: failed to log task outcome: %v\n", logErr)
		}
	}

	consoleLog.LogRunSummary(result)
	fileLog.LogRunSummary(result)

	// Persist the run; failures here warn but never fail the run.
	// A fresh context keeps persistence working after cancellation.
	if cfg.History.Enabled {
		dbPath, pathErr := resolveHistoryDBPath(cfg)
		if pathErr != nil {
			dbPath = cfg.History.DBPath
		}
		store, storeErr := history.NewStore(dbPath)
		if storeErr != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Warning: run history unavailable: %v\n", storeErr)
		} else {
			if recErr := store.RecordRun(context.Background(), result); recErr != nil {
				fmt.Fprintf(cmd.OutOrStderr(), "Warning: failed to record run history: %v\n", recErr)
			}
			store.Close()
		}
	}

	if cfg.AuditTrailPath != "" && len(result.Events) > 0 {
		if trailErr := audit.AppendTrail(cfg.AuditTrailPath, result.Events); trailErr != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Warning: failed to append audit trail: %v\n", trailErr)
		}
	}

	// Replay compensations if requested and the run halted
	if result.Failed && rollback {
		fmt.Fprintf(cmd.OutOrStdout(), "\nReplaying compensation actions in reverse order...\n")
		if errs := result.Rollback(multiLog); len(errs) > 0 {
			fmt.Fprintf(cmd.OutOrStderr(), "Warning: %d compensation action(s) failed\n", len(errs))
		}
	}

	// Display completion message and set the exit status
	if result.Failed {
		if result.FailedTask != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "\nRun halted at task %s.\n", result.FailedTask)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "\nRun cancelled before completion.\n")
		}
		return fmt.Errorf("workflow failed: %w", result.Err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWorkflow completed successfully!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Logs written to: %s\n", cfg.LogDir)

	return nil
}

// multiLogger implements workflow.Logger by delegating to multiple loggers
type multiLogger struct {
	loggers []workflow.Logger
}

// LogDebug forwards to all loggers
func (ml *multiLogger) LogDebug(message string) {
	for _, logger := range ml.loggers {
		logger.LogDebug(message)
	}
}

// LogInfo forwards to all loggers
func (ml *multiLogger) LogInfo(message string) {
	for _, logger := range ml.loggers {
		logger.LogInfo(message)
	}
}

// LogWarn forwards to all loggers
func (ml *multiLogger) LogWarn(message string) {
	for _, logger := range ml.loggers {
		logger.LogWarn(message)
	}
}

// LogError forwards to all loggers
func (ml *multiLogger) LogError(message string) {
	for _, logger := range ml.loggers {
		logger.LogError(message)
	}
}
