// Package journal keeps an audit record of translation jobs in a local
// SQLite database. It is write-only from the orchestration path and never
// consulted to short-circuit a translation.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const (
	FlowInteractive = "interactive"
	FlowBatch       = "batch"
)

type Journal struct {
	db *sql.DB
}

func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return j, nil
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		flow TEXT NOT NULL,
		source_code TEXT,
		target_code TEXT,
		status TEXT NOT NULL,
		error TEXT,
		total_pages INTEGER DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_created ON jobs(created_at);
	`

	_, err := j.db.Exec(schema)
	return err
}

type Entry struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	Flow       string    `json:"flow"`
	SourceCode string    `json:"source_code,omitempty"`
	TargetCode string    `json:"target_code,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	TotalPages int64     `json:"total_pages,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Record inserts or updates the row for e.ID. Jobs are recorded once when
// they start and again when they reach a terminal state.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO jobs (id, file_name, flow, source_code, target_code, status, error, total_pages, created_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.FileName, e.Flow, e.SourceCode, e.TargetCode, e.Status, e.Error, e.TotalPages, e.CreatedAt, e.FinishedAt)
	return err
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, file_name, flow, source_code, target_code, status, error, total_pages, created_at, finished_at
		 FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var finished sql.NullTime
		if err := rows.Scan(&e.ID, &e.FileName, &e.Flow, &e.SourceCode, &e.TargetCode,
			&e.Status, &e.Error, &e.TotalPages, &e.CreatedAt, &finished); err != nil {
			return nil, err
		}
		if finished.Valid {
			e.FinishedAt = finished.Time
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
