// Package history persists workflow run results to a local SQLite
// database so past runs can be listed and inspected after the fact.
// Persistence is a caller-side concern: the executor never touches the
// store, and store failures are expected to degrade to warnings.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/foreman/internal/workflow"
)

//go:embed schema.sql
var schemaSQL string

// RunRecord is one persisted workflow run.
type RunRecord struct {
	ID           int64
	RunID        string
	WorkflowName string
	Status       string
	TotalTasks   int
	Succeeded    int
	Failed       int
	Skipped      int
	FailedTask   string
	ErrorMessage string
	StartedAt    time.Time
	Duration     time.Duration
}

// EventRecord is one persisted audit event belonging to a run.
type EventRecord struct {
	ID            int64
	RunID         string
	EventID       string
	Kind          string
	TaskName      string
	ToolName      string
	OriginalError string
	ChosenOutcome string
	Status        string
	Duration      time.Duration
	Timestamp     time.Time
}

// Store manages the SQLite database holding run history.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates or opens the history database at the given path and
// ensures the schema exists. Parent directories are created as needed;
// ":memory:" opens an in-memory database for tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	return openAndInitStore(dbPath)
}

func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000", // 64MB cache
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a statement, retrying with exponential backoff
// while SQLite reports the database as locked.
func execWithRetry(db *sql.DB, query string, maxRetries int, baseDelay time.Duration) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err = db.Exec(query)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		delay := baseDelay * time.Duration(1<<attempt)
		time.Sleep(delay)
	}
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun persists one run result together with its audit events in a
// single transaction. Recording the same run ID twice is an error.
func (s *Store) RecordRun(ctx context.Context, result *workflow.RunResult) error {
	if result == nil || result.RunID == "" {
		return fmt.Errorf("record run: missing run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	succeeded, failed, skipped := result.Counts()
	errorMessage := ""
	if result.Err != nil {
		errorMessage = result.Err.Error()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, workflow_name, status, total_tasks, succeeded, failed, skipped, failed_task, error_message, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.WorkflowName,
		result.Status(),
		len(result.Outcomes),
		succeeded,
		failed,
		skipped,
		result.FailedTask,
		errorMessage,
		result.StartedAt,
		result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", result.RunID, err)
	}

	for _, event := range result.Events {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_events (run_id, event_id, kind, task_name, tool_name, original_error, chosen_outcome, status, duration_ms, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.RunID,
			event.ID,
			event.Kind,
			event.TaskName,
			event.ToolName,
			event.OriginalError,
			event.ChosenOutcome,
			event.Status,
			event.Duration.Milliseconds(),
			event.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert event for run %s: %w", result.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", result.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A limit of zero
// or less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := `SELECT id, run_id, workflow_name, status, total_tasks, succeeded, failed, skipped, failed_task, error_message, started_at, duration_ms
		FROM runs
		ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		record := &RunRecord{}
		var failedTask, errorMessage sql.NullString
		var durationMS int64
		err := rows.Scan(
			&record.ID,
			&record.RunID,
			&record.WorkflowName,
			&record.Status,
			&record.TotalTasks,
			&record.Succeeded,
			&record.Failed,
			&record.Skipped,
			&failedTask,
			&errorMessage,
			&record.StartedAt,
			&durationMS,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		if failedTask.Valid {
			record.FailedTask = failedTask.String
		}
		if errorMessage.Valid {
			record.ErrorMessage = errorMessage.String
		}
		record.Duration = time.Duration(durationMS) * time.Millisecond

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return records, nil
}

// GetRun returns the stored record for one run ID, or nil when the run
// is unknown.
func (s *Store) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	query := `SELECT id, run_id, workflow_name, status, total_tasks, succeeded, failed, skipped, failed_task, error_message, started_at, duration_ms
		FROM runs
		WHERE run_id = ?`

	record := &RunRecord{}
	var failedTask, errorMessage sql.NullString
	var durationMS int64
	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&record.ID,
		&record.RunID,
		&record.WorkflowName,
		&record.Status,
		&record.TotalTasks,
		&record.Succeeded,
		&record.Failed,
		&record.Skipped,
		&failedTask,
		&errorMessage,
		&record.StartedAt,
		&durationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}

	if failedTask.Valid {
		record.FailedTask = failedTask.String
	}
	if errorMessage.Valid {
		record.ErrorMessage = errorMessage.String
	}
	record.Duration = time.Duration(durationMS) * time.Millisecond

	return record, nil
}

// RunEvents returns the audit events recorded for a run, in their
// original execution order.
func (s *Store) RunEvents(ctx context.Context, runID string) ([]*EventRecord, error) {
	query := `SELECT id, run_id, event_id, kind, task_name, tool_name, original_error, chosen_outcome, status, duration_ms, timestamp
		FROM run_events
		WHERE run_id = ?
		ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query events for run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []*EventRecord
	for rows.Next() {
		record := &EventRecord{}
		var taskName, toolName, originalError, chosenOutcome, status sql.NullString
		var durationMS int64
		err := rows.Scan(
			&record.ID,
			&record.RunID,
			&record.EventID,
			&record.Kind,
			&taskName,
			&toolName,
			&originalError,
			&chosenOutcome,
			&status,
			&durationMS,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}

		if taskName.Valid {
			record.TaskName = taskName.String
		}
		if toolName.Valid {
			record.ToolName = toolName.String
		}
		if originalError.Valid {
			record.OriginalError = originalError.String
		}
		if chosenOutcome.Valid {
			record.ChosenOutcome = chosenOutcome.String
		}
		if status.Valid {
			record.Status = status.String
		}
		record.Duration = time.Duration(durationMS) * time.Millisecond

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return records, nil
}

// CountRuns returns the total number of stored runs.
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return count, nil
}

// tableExists reports whether the named table is present in the schema.
func (s *Store) tableExists(name string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
		name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return count > 0, nil
}

// indexExists reports whether the named index is present in the schema.
func (s *Store) indexExists(name string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?",
		name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, err)
	}
	return count > 0, nil
}
