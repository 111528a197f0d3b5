// Package history keeps a SQLite record of every dispatched request.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS requests (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT    NOT NULL,
	file        TEXT    NOT NULL,
	line        INTEGER NOT NULL,
	method      TEXT    NOT NULL,
	url         TEXT    NOT NULL,
	status      INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	error       TEXT    NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_run ON requests(run_id);
`

// Entry is one dispatched request. Status is 0 when the request failed before
// a response arrived.
type Entry struct {
	ID         int64
	RunID      string
	File       string
	Line       int
	Method     string
	URL        string
	Status     int
	DurationMs int64
	Error      string
	CreatedAt  time.Time
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores e. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (run_id, file, line, method, url, status, duration_ms, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.File, e.Line, e.Method, e.URL, e.Status, e.DurationMs, e.Error, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording request: %w", err)
	}

	id, err := res.LastInsertId()
	if err == nil {
		e.ID = id
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	return s.query(ctx,
		`SELECT id, run_id, file, line, method, url, status, duration_ms, error, created_at
		 FROM requests ORDER BY id DESC LIMIT ?`, limit)
}

// Run returns the entries of one run in dispatch order.
func (s *Store) Run(ctx context.Context, runID string) ([]*Entry, error) {
	return s.query(ctx,
		`SELECT id, run_id, file, line, method, url, status, duration_ms, error, created_at
		 FROM requests WHERE run_id = ? ORDER BY id`, runID)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.RunID, &e.File, &e.Line, &e.Method, &e.URL,
			&e.Status, &e.DurationMs, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}
