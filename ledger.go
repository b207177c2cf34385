package main

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

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  site TEXT NOT NULL,
  state TEXT NOT NULL,
  total INTEGER NOT NULL,
  processed INTEGER NOT NULL,
  manifest_path TEXT,
  published_key TEXT,
  started_at DATETIME NOT NULL,
  finished_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS run_items (
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  source TEXT NOT NULL,
  status TEXT NOT NULL,
  filename TEXT,
  title TEXT,
  warning TEXT,
  error TEXT,
  PRIMARY KEY (run_id, position)
);
`

// RunSummary is one row of the run history
type RunSummary struct {
	ID           string    `json:"id"`
	Site         StockSite `json:"site"`
	State        RunState  `json:"state"`
	Total        int       `json:"total"`
	Processed    int       `json:"processed"`
	ManifestPath string    `json:"manifest_path,omitempty"`
	PublishedKey string    `json:"published_key,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Ledger stores finished runs in SQLite
type Ledger struct {
	DB *sql.DB
}

// OpenLedger opens (creating if needed) the ledger database at path
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma foreign_keys: %w", err)
	}
	if _, err := db.Exec(ledgerSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}

	return &Ledger{DB: db}, nil
}

// Close closes the database
func (l *Ledger) Close() error {
	return l.DB.Close()
}

// RecordRun stores a run and its per-image outcomes, replacing an earlier
// record with the same id.
func (l *Ledger) RecordRun(ctx context.Context, result *RunResult) error {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_items WHERE run_id = ?`, result.RunID); err != nil {
		return fmt.Errorf("clear items of run %s: %w", result.RunID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, result.RunID); err != nil {
		return fmt.Errorf("clear run %s: %w", result.RunID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, site, state, total, processed, manifest_path, published_key, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, string(result.Site), string(result.State), result.Total, result.Processed(),
		result.ManifestPath, result.PublishedKey, result.StartedAt.UTC(), result.FinishedAt.UTC()); err != nil {
		return fmt.Errorf("insert run %s: %w", result.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_items (run_id, position, source, status, filename, title, warning, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for i, item := range result.Items {
		if _, err := stmt.ExecContext(ctx, result.RunID, i, item.Source, string(item.Status),
			item.Filename, item.Title, item.Warning, errorString(item.Error)); err != nil {
			return fmt.Errorf("insert item %s: %w", item.Source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := l.DB.QueryContext(ctx, `
		SELECT id, site, state, total, processed, manifest_path, published_key, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]RunSummary, 0, limit)
	for rows.Next() {
		var (
			r                 RunSummary
			site, state       string
			manifest, key     sql.NullString
			started, finished time.Time
		)
		if err := rows.Scan(&r.ID, &site, &state, &r.Total, &r.Processed, &manifest, &key, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Site = StockSite(site)
		r.State = RunState(state)
		r.ManifestPath = manifest.String
		r.PublishedKey = key.String
		r.StartedAt = started
		r.FinishedAt = finished
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunItems returns the per-image outcomes of one run in processing order
func (l *Ledger) RunItems(ctx context.Context, runID string) ([]ProcessingResult, error) {
	rows, err := l.DB.QueryContext(ctx, `
		SELECT source, status, filename, title, warning, error
		FROM run_items
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run items: %w", err)
	}
	defer rows.Close()

	var out []ProcessingResult
	for rows.Next() {
		var (
			item                                   ProcessingResult
			status                                 string
			filename, title, warning, errorMessage sql.NullString
		)
		if err := rows.Scan(&item.Source, &status, &filename, &title, &warning, &errorMessage); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		item.Status = ProcessingStatus(status)
		item.Filename = filename.String
		item.Title = title.String
		item.Warning = warning.String
		if errorMessage.String != "" {
			item.Error = errors.New(errorMessage.String)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
