// Package runstore persists a history of completed batch runs so past capture
// sessions can be inspected after the fact.
package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"framerip/internal/config"
)

// Store manages run-history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Record is one completed batch run.
type Record struct {
	RunID          string
	Mode           string
	SaveFolder     string
	StartedAt      time.Time
	FinishedAt     time.Time
	TotalFiles     int
	Attempted      int
	Processed      int
	TimedOut       int
	SkippedAlready int
	Failures       int
	FramesSaved    int
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    run_id          TEXT PRIMARY KEY,
    mode            TEXT NOT NULL,
    save_folder     TEXT NOT NULL,
    started_at      TEXT NOT NULL,
    finished_at     TEXT NOT NULL,
    total_files     INTEGER NOT NULL,
    attempted       INTEGER NOT NULL,
    processed       INTEGER NOT NULL,
    timed_out       INTEGER NOT NULL,
    skipped_already INTEGER NOT NULL,
    failures        INTEGER NOT NULL,
    frames_saved    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at DESC);
`

// Open initializes or connects to the run-history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.StateDir, "runs.db"))
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts one run record; reruns with the same id keep the latest totals.
func (s *Store) Save(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            run_id, mode, save_folder, started_at, finished_at,
            total_files, attempted, processed, timed_out,
            skipped_already, failures, frames_saved
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(run_id) DO UPDATE SET
            finished_at = excluded.finished_at,
            total_files = excluded.total_files,
            attempted = excluded.attempted,
            processed = excluded.processed,
            timed_out = excluded.timed_out,
            skipped_already = excluded.skipped_already,
            failures = excluded.failures,
            frames_saved = excluded.frames_saved`,
		rec.RunID,
		rec.Mode,
		rec.SaveFolder,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
		rec.TotalFiles,
		rec.Attempted,
		rec.Processed,
		rec.TimedOut,
		rec.SkippedAlready,
		rec.Failures,
		rec.FramesSaved,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", rec.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, mode, save_folder, started_at, finished_at,
            total_files, attempted, processed, timed_out,
            skipped_already, failures, frames_saved
        FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var started, finished string
		if err := rows.Scan(
			&rec.RunID, &rec.Mode, &rec.SaveFolder, &started, &finished,
			&rec.TotalFiles, &rec.Attempted, &rec.Processed, &rec.TimedOut,
			&rec.SkippedAlready, &rec.Failures, &rec.FramesSaved,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}
