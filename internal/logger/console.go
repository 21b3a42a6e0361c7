// Package logger provides logging implementations for foreman workflow
// runs.
//
// The logger package offers progress logging at the task and run-summary
// levels. Implementations are thread-safe and support various output
// destinations (console, file, etc.).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/foreman/internal/workflow"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs run progress to a writer with timestamps and thread
// safety. All output is prefixed with [HH:MM:SS] timestamps for tracking
// execution flow. It supports log level filtering to control message
// verbosity. Color output is automatically enabled for terminal output
// (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided
// io.Writer. If writer is nil, messages are silently discarded.
// logLevel determines the minimum log level for messages to be output.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		mutex:       sync.Mutex{},
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	// The color library's NoColor flag honors NO_COLOR and friends.
	if color.NoColor {
		return false
	}

	return isatty.IsTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and
// validates it. Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}

	return "info" // Default level
}

// shouldLog checks if a message at the given level should be logged.
// Returns true if messageLevel >= configured logLevel.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo // Default to info if unknown
	}
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
// Format: "[HH:MM:SS] [DEBUG] <message>"
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
// Format: "[HH:MM:SS] [WARN] <message>"
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
// Format: "[HH:MM:SS] [ERROR] <message>"
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel is a helper that logs a message at the specified level if
// filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string

	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// LogRunStart logs the start of a workflow run at INFO level.
// Format: "[HH:MM:SS] Starting <workflow>: <count> task(s)"
func (cl *ConsoleLogger) LogRunStart(workflowName string, taskCount int) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	taskLabel := "task"
	if taskCount != 1 {
		taskLabel = "tasks"
	}

	name := workflowName
	if cl.colorOutput {
		name = color.New(color.Bold).Sprint(workflowName)
	}

	fmt.Fprintf(cl.writer, "[%s] Starting %s: %d %s\n", ts, name, taskCount, taskLabel)
}

// LogTaskOutcome logs the outcome of a single task at DEBUG level.
// Format: "[HH:MM:SS] Task <name>: <status> (<duration>)"
// Returns nil for successful logging, or an error if logging failed.
func (cl *ConsoleLogger) LogTaskOutcome(outcome workflow.TaskOutcome) error {
	if cl.writer == nil {
		return nil
	}

	if !cl.shouldLog("debug") {
		return nil
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	status := outcome.Result.Status
	if cl.colorOutput {
		status = colorizeStatus(status)
	}

	message := fmt.Sprintf("[%s] Task %s: %s (%s)\n",
		ts, outcome.TaskName, status, formatDuration(outcome.Duration))

	_, err := cl.writer.Write([]byte(message))
	return err
}

// LogRunSummary logs the run summary with completion statistics at INFO
// level: a header, the per-status tallies, a completion bar, the total
// duration, and the halting task when the run failed.
func (cl *ConsoleLogger) LogRunSummary(result *workflow.RunResult) {
	if cl.writer == nil || result == nil {
		return
	}

	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	succeeded, failed, skipped := result.Counts()
	total := len(result.Outcomes)

	header := "=== Run Summary ==="
	if cl.colorOutput {
		header = color.New(color.Bold).Sprint(header)
	}

	var output string
	output = fmt.Sprintf("[%s] %s\n", ts, header)
	output += fmt.Sprintf("[%s] Workflow: %s (run %s)\n", ts, result.WorkflowName, result.RunID)
	output += fmt.Sprintf("[%s] %s\n", ts, formatRunMetrics(succeeded, failed, skipped, len(result.Events), cl.colorOutput))

	bar := NewCompletionBar(total, 10, cl.colorOutput)
	bar.Update(succeeded + skipped)
	output += fmt.Sprintf("[%s] Tasks: %s\n", ts, bar.Render())

	output += fmt.Sprintf("[%s] Duration: %s\n", ts, formatDuration(result.Duration))

	if result.Failed {
		line := fmt.Sprintf("Halted at task %s: %v", result.FailedTask, result.Err)
		if result.FailedTask == "" {
			line = fmt.Sprintf("Halted: %v", result.Err)
		}
		if cl.colorOutput {
			line = color.New(color.FgRed).Sprint(line)
		}
		output += fmt.Sprintf("[%s] %s\n", ts, line)
	}

	cl.writer.Write([]byte(output))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}

// NoOpLogger is a logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogTrace is a no-op implementation.
func (n *NoOpLogger) LogTrace(message string) {
}

// LogDebug is a no-op implementation.
func (n *NoOpLogger) LogDebug(message string) {
}

// LogInfo is a no-op implementation.
func (n *NoOpLogger) LogInfo(message string) {
}

// LogWarn is a no-op implementation.
func (n *NoOpLogger) LogWarn(message string) {
}

// LogError is a no-op implementation.
func (n *NoOpLogger) LogError(message string) {
}

// LogRunStart is a no-op implementation.
func (n *NoOpLogger) LogRunStart(workflowName string, taskCount int) {
}

// LogTaskOutcome is a no-op implementation.
func (n *NoOpLogger) LogTaskOutcome(outcome workflow.TaskOutcome) error {
	return nil
}

// LogRunSummary is a no-op implementation.
func (n *NoOpLogger) LogRunSummary(result *workflow.RunResult) {
}
