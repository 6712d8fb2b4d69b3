// Package history keeps a SQLite record of batch runs and their task
// outcomes, so past runs can be listed after the process exits.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Sentinel errors for history operations.
var (
	ErrOpen        = errors.New("failed to open history store")
	ErrRunNotFound = errors.New("run not found")
	ErrEmptyRunID  = errors.New("run id cannot be empty")
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 20

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		poster_type TEXT NOT NULL,
		outcome TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		total INTEGER NOT NULL,
		completed INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		pending INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		task_id TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL,
		artifact TEXT NOT NULL,
		PRIMARY KEY (run_id, task_id)
	)`,
	`CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at DESC)`,
}

// Run is one recorded batch execution.
type Run struct {
	ID         string       `json:"id"`
	Subject    string       `json:"subject"`
	PosterType string       `json:"posterType"`
	Outcome    string       `json:"outcome"` // OutcomeCompleted, OutcomePartial or OutcomeCancelled
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Total      int          `json:"total"`
	Completed  int          `json:"completed"`
	Failed     int          `json:"failed"`
	Pending    int          `json:"pending"`
	Tasks      []TaskRecord `json:"tasks,omitempty"`
}

// TaskRecord is the final state of one task in a run.
type TaskRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Artifact string `json:"artifact,omitempty"` // Delivered filename or blob name
}

// Store persists runs in a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOpen, err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY between them.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: schema: %v", ErrOpen, err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores run and its tasks, replacing an earlier record with the same
// ID. A batch that is retried and restarted is recorded once per run ID.
func (s *Store) Record(ctx context.Context, run Run) (err error) {
	if run.ID == "" {
		return ErrEmptyRunID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("history: replace run: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, subject, poster_type, outcome, started_at, finished_at, total, completed, failed, pending)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Subject, run.PosterType, run.Outcome,
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		run.Total, run.Completed, run.Failed, run.Pending,
	)
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	for i, task := range run.Tasks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tasks (run_id, position, task_id, name, status, error, artifact)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, task.ID, task.Name, task.Status, task.Error, task.Artifact,
		)
		if err != nil {
			return fmt.Errorf("history: insert task %s: %w", task.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first, without their tasks.
// limit <= 0 selects DefaultListLimit.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject, poster_type, outcome, started_at, finished_at, total, completed, failed, pending
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	return runs, nil
}

// Get returns one run with its tasks in batch order.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, subject, poster_type, outcome, started_at, finished_at, total, completed, failed, pending
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, name, status, error, artifact FROM tasks WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("history: tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t TaskRecord
		if err := rows.Scan(&t.ID, &t.Name, &t.Status, &t.Error, &t.Artifact); err != nil {
			return nil, fmt.Errorf("history: scan task: %w", err)
		}
		run.Tasks = append(run.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: tasks: %w", err)
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var started, finished int64
	err := row.Scan(&run.ID, &run.Subject, &run.PosterType, &run.Outcome,
		&started, &finished, &run.Total, &run.Completed, &run.Failed, &run.Pending)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("history: scan run: %w", err)
	}
	run.StartedAt = time.UnixMilli(started)
	run.FinishedAt = time.UnixMilli(finished)
	return run, nil
}
