// Package history records scan runs and their findings in SQLite.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
	"git.home.luguber.info/inful/mdlinkcheck/internal/scan"
)

// Run is one recorded scan.
type Run struct {
	ID         string        `json:"run_id"`
	Root       string        `json:"root"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Discovered int           `json:"discovered"`
	Excluded   int           `json:"excluded"`
	Scanned    int           `json:"scanned"`
	Failed     int           `json:"failed"`
	Links      int           `json:"links"`
	Findings   int           `json:"findings"`
	Outcome    string        `json:"outcome"`
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the history database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStore, "failed to create history directory").
				WithContext("path", path).
				Build()
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, "failed to open history database").
			WithContext("path", path).
			Build()
	}
	// A single connection keeps ":memory:" databases alive across queries.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, errors.WrapError(err, errors.CategoryStore, "failed to initialize history schema").
			WithContext("path", path).
			Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		discovered INTEGER NOT NULL,
		excluded INTEGER NOT NULL,
		scanned INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		links INTEGER NOT NULL,
		findings INTEGER NOT NULL,
		outcome TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		file TEXT NOT NULL,
		reason TEXT NOT NULL,
		kind TEXT NOT NULL,
		text TEXT NOT NULL,
		href TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a finished run and its findings in one transaction.
func (s *Store) Record(ctx context.Context, summary *scan.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStore, "failed to begin transaction").Build()
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, root, started_at, duration_ms, discovered, excluded, scanned, failed, links, findings, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, summary.Root, summary.StartedAt.UnixMilli(), summary.Duration.Milliseconds(),
		summary.Discovered, summary.Excluded, summary.Scanned, summary.Failed, summary.Links,
		summary.Findings(), summary.Outcome(),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStore, "failed to insert run").
			WithContext("run_id", summary.RunID).
			Build()
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO findings (run_id, file, reason, kind, text, href) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return errors.WrapError(err, errors.CategoryStore, "failed to prepare finding insert").Build()
	}
	defer stmt.Close()

	for _, d := range summary.Diagnostics {
		if _, err := stmt.ExecContext(ctx, summary.RunID, d.File, string(d.Reason), d.Kind.String(), d.Text, d.Href); err != nil {
			return errors.WrapError(err, errors.CategoryStore, "failed to insert finding").
				WithContext("run_id", summary.RunID).
				Build()
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapError(err, errors.CategoryStore, "failed to commit run").Build()
	}
	return nil
}

// Runs returns the most recent runs, newest first. limit <= 0 returns all runs.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, root, started_at, duration_ms, discovered, excluded, scanned, failed, links, findings, outcome
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, "failed to query runs").Build()
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedMS, durationMS int64
		if err := rows.Scan(&r.ID, &r.Root, &startedMS, &durationMS, &r.Discovered, &r.Excluded,
			&r.Scanned, &r.Failed, &r.Links, &r.Findings, &r.Outcome); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStore, "failed to scan run").Build()
		}
		r.StartedAt = time.UnixMilli(startedMS)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, "failed to iterate runs").Build()
	}
	return runs, nil
}

// Findings returns the diagnostics recorded for runID in report order.
func (s *Store) Findings(ctx context.Context, runID string) ([]linkcheck.Diagnostic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT file, reason, kind, text, href FROM findings WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, "failed to query findings").
			WithContext("run_id", runID).
			Build()
	}
	defer rows.Close()

	var out []linkcheck.Diagnostic
	for rows.Next() {
		var d linkcheck.Diagnostic
		var reason, kind string
		if err := rows.Scan(&d.File, &reason, &kind, &d.Text, &d.Href); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStore, "failed to scan finding").Build()
		}
		d.Reason = linkcheck.Reason(reason)
		d.Kind = linkcheck.ParseLinkKind(kind)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, "failed to iterate findings").Build()
	}
	return out, nil
}
