package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/foreman/internal/workflow"
)

// FileLogger logs workflow run events to files in .foreman/logs/.
// It creates timestamped per-run log files, per-task detailed logs,
// and maintains a latest.log symlink pointing to the most recent run.
// It is thread-safe and implements the workflow.Logger interface.
// It supports log level filtering to control message verbosity.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	tasksDir string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a new FileLogger that writes to .foreman/logs/.
// It creates the log directory if it doesn't exist, opens a timestamped
// run log file, and creates/updates the latest.log symlink.
// Uses default log level "info".
func NewFileLogger() (*FileLogger, error) {
	logDir := filepath.Join(".foreman", "logs")
	return NewFileLoggerWithDirAndLevel(logDir, "info")
}

// NewFileLoggerWithDir creates a new FileLogger with a custom log
// directory. This is useful for testing or custom deployments.
// Uses default log level "info".
func NewFileLoggerWithDir(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(logDir, "info")
}

// NewFileLoggerWithDirAndLevel creates a new FileLogger with a custom
// log directory and log level.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	tasksDir := filepath.Join(logDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create tasks directory: %w", err)
	}

	// Timestamped filename: run-YYYYMMDD-HHMMSS.log
	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		tasksDir: tasksDir,
		logLevel: normalizeLogLevel(logLevel),
		mu:       sync.Mutex{},
	}

	logger.writeRunLog("=== Foreman Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of the current run log file.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

// shouldLog checks if a message at the given level should be logged.
// Returns true if messageLevel >= configured logLevel.
func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

// logWithLevel is a helper that logs a message at the specified level if
// filtering allows it.
func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}

	formatted := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message)
	fl.writeRunLog(formatted)
}

// LogRunStart logs the start of a workflow run at INFO level.
func (fl *FileLogger) LogRunStart(workflowName string, taskCount int) {
	if !fl.shouldLog("info") {
		return
	}

	taskLabel := "task"
	if taskCount != 1 {
		taskLabel = "tasks"
	}

	message := fmt.Sprintf(
		"[%s] Starting %s: %d %s\n",
		time.Now().Format("15:04:05"),
		workflowName,
		taskCount,
		taskLabel,
	)

	fl.writeRunLog(message)
}

// LogRunSummary logs the run summary with final statistics at INFO
// level: total tasks, per-status tallies, duration, and overall status.
func (fl *FileLogger) LogRunSummary(result *workflow.RunResult) {
	if result == nil {
		return
	}
	if !fl.shouldLog("info") {
		return
	}

	timestamp := time.Now().Format("15:04:05")
	succeeded, failed, skipped := result.Counts()
	total := len(result.Outcomes)

	message := fmt.Sprintf(
		"\n[%s] === RUN SUMMARY ===\n"+
			"[%s] Workflow:     %s\n"+
			"[%s] Run ID:       %s\n"+
			"[%s] Total tasks:  %d\n"+
			"[%s] Succeeded:    %d\n"+
			"[%s] Failed:       %d\n"+
			"[%s] Skipped:      %d\n"+
			"[%s] Total time:   %.1fs\n"+
			"[%s] Status:       %s\n"+
			"[%s] Completed at: %s\n",
		timestamp,
		timestamp,
		result.WorkflowName,
		timestamp,
		result.RunID,
		timestamp,
		total,
		timestamp,
		succeeded,
		timestamp,
		failed,
		timestamp,
		skipped,
		timestamp,
		result.Duration.Seconds(),
		timestamp,
		result.Status(),
		timestamp,
		time.Now().Format(time.RFC3339),
	)

	fl.writeRunLog(message)
}

// LogTaskOutcome logs detailed information about a task execution.
// It creates a separate log file for each task in the tasks/
// subdirectory.
func (fl *FileLogger) LogTaskOutcome(outcome workflow.TaskOutcome) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	taskLogPath := filepath.Join(fl.tasksDir, fmt.Sprintf("task-%s.log", sanitizeName(outcome.TaskName)))

	file, err := os.OpenFile(taskLogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create task log file: %w", err)
	}
	defer file.Close()

	content := fmt.Sprintf("=== Task %s ===\n", outcome.TaskName)
	content += fmt.Sprintf("Status: %s\n", outcome.Result.Status)
	content += fmt.Sprintf("Duration: %.1fs\n", outcome.Duration.Seconds())
	content += fmt.Sprintf("Compensation: %s\n", outcome.Compensation)
	content += "\n"

	if outcome.Result.Output != "" {
		content += fmt.Sprintf("Output:\n%s\n\n", outcome.Result.Output)
	}

	if outcome.Result.Err != nil {
		content += fmt.Sprintf("Error:\n%v\n\n", outcome.Result.Err)
	}

	content += fmt.Sprintf("Completed at: %s\n", time.Now().Format(time.RFC3339))

	if _, err = file.WriteString(content); err != nil {
		return fmt.Errorf("failed to write task log: %w", err)
	}

	return nil
}

// sanitizeName makes a task name safe to embed in a file name.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, name)
}

// Close flushes and closes the run log file.
// It should be called when the logger is no longer needed.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		// Flush after each write for real-time logging
		fl.runLog.Sync()
	}
}
