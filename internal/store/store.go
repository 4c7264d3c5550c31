// Package store persists pipeline runs, their stage progress and errors in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-tennis-pipeline/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Store is the SQLite run tracking database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at dbPath and creates the tables.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	// Create tables if not exists
	runTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		pipeline TEXT,
		status TEXT,
		failed_stage TEXT,
		retry_of TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	stageTable := `
	CREATE TABLE IF NOT EXISTS stage_runs (
		run_id TEXT,
		stage_id TEXT,
		position INTEGER,
		status TEXT,
		attempts INTEGER,
		started_at DATETIME,
		ended_at DATETIME,
		error_message TEXT,
		PRIMARY KEY (run_id, stage_id)
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		stage_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`
	for _, stmt := range []string{runTable, stageTable, errorTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun stores a new run. It fails if the id is taken.
func (s *Store) CreateRun(ctx context.Context, run model.RunRecord) error {
	return s.insertRun(ctx, `INSERT`, run)
}

// EnsureRun stores the run unless it already exists.
func (s *Store) EnsureRun(ctx context.Context, run model.RunRecord) error {
	return s.insertRun(ctx, `INSERT OR IGNORE`, run)
}

func (s *Store) insertRun(ctx context.Context, verb string, run model.RunRecord) error {
	now := s.now()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = run.CreatedAt
	}
	if run.Status == "" {
		run.Status = model.RunPending
	}
	_, err := s.db.ExecContext(ctx, verb+` INTO runs (id, pipeline, status, failed_stage, retry_of, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Pipeline, string(run.Status), run.FailedStage, run.RetryOf, run.CreatedAt.UTC(), run.UpdatedAt.UTC())
	return err
}

// UpdateRunStatus updates run status
func (s *Store) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, failedStage string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ?, failed_stage = ?, updated_at = ? WHERE id = ?`,
		string(status), failedStage, s.now(), runID)
	if err != nil {
		return err
	}
	return requireAffected(res, runID)
}

// SaveStageProgress inserts or replaces the progress of one stage.
func (s *Store) SaveStageProgress(ctx context.Context, rec model.StageRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO stage_runs
		(run_id, stage_id, position, status, attempts, started_at, ended_at, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, stage_id) DO UPDATE SET
			position = excluded.position,
			status = excluded.status,
			attempts = excluded.attempts,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			error_message = excluded.error_message`,
		rec.RunID, rec.StageID, rec.Position, string(rec.Status), rec.Attempts,
		nullTime(rec.StartedAt), nullTime(rec.EndedAt), rec.Error)
	return err
}

// SaveRunError records an error for a run
func (s *Store) SaveRunError(ctx context.Context, runID, stageID string, err error) error {
	if err == nil {
		return nil
	}
	_, e := s.db.ExecContext(ctx, `INSERT INTO run_errors (run_id, stage_id, error_message, created_at) VALUES (?, ?, ?, ?)`,
		runID, stageID, err.Error(), s.now())
	return e
}

// GetRun fetches a run with its stages in execution order.
func (s *Store) GetRun(ctx context.Context, runID string) (*model.RunRecord, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT run_id, stage_id, position, status, attempts, started_at, ended_at, error_message
		FROM stage_runs WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec            model.StageRecord
			status         string
			started, ended sql.NullTime
			errorMessage   sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &rec.StageID, &rec.Position, &status, &rec.Attempts,
			&started, &ended, &errorMessage); err != nil {
			return nil, err
		}
		rec.Status = model.StageStatus(status)
		rec.StartedAt = timePtr(started)
		rec.EndedAt = timePtr(ended)
		rec.Error = errorMessage.String
		run.Stages = append(run.Stages, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns all runs, newest first, without their stages.
func (s *Store) ListRuns(ctx context.Context) ([]model.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []model.RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRunErrors returns the errors recorded for a run in the order they
// occurred.
func (s *Store) GetRunErrors(ctx context.Context, runID string) ([]model.ErrorRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, run_id, stage_id, error_message, created_at
		FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	errs := []model.ErrorRecord{}
	for rows.Next() {
		var rec model.ErrorRecord
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.StageID, &rec.Message, &rec.CreatedAt); err != nil {
			return nil, err
		}
		errs = append(errs, rec)
	}
	return errs, rows.Err()
}

const runColumns = `id, pipeline, status, failed_stage, retry_of, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*model.RunRecord, error) {
	var (
		run                  model.RunRecord
		status               string
		failedStage, retryOf sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Pipeline, &status, &failedStage, &retryOf, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	run.FailedStage = failedStage.String
	run.RetryOf = retryOf.String
	return &run, nil
}

func requireAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", runID, ErrNotFound)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
