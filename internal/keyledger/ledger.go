// Package keyledger tracks key generations and rotation runs in a local
// SQLite database. The ledger stores only key fingerprints and bookkeeping
// rows, never key material.
package keyledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Ledger is a handle on the key-generation database.
type Ledger struct {
	db *sql.DB
}

// Generation is one key generation: a derived cipher key that was (or is)
// active for encrypting records.
type Generation struct {
	Number      int
	Fingerprint string
	Iterations  int
	CreatedAt   time.Time
	RetiredAt   *time.Time
}

// RotationRun is one batch re-encryption pass over an entity's records.
type RotationRun struct {
	ID              string
	Entity          string
	FromFingerprint string
	ToFingerprint   string
	StartedAt       time.Time
	FinishedAt      *time.Time
	Total           int
	Rotated         int
	Failed          int
}

// RotationFailure is a single record that could not be rotated during a run.
type RotationFailure struct {
	RunID    string
	RecordID string
	Reason   string
}

// Open opens (creating if necessary) the ledger database at path and applies
// the schema.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) migrate() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS key_generations (
			number      INTEGER PRIMARY KEY,
			fingerprint TEXT NOT NULL,
			iterations  INTEGER NOT NULL,
			created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			retired_at  TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS rotation_runs (
			id               TEXT PRIMARY KEY,
			entity           TEXT NOT NULL,
			from_fingerprint TEXT NOT NULL,
			to_fingerprint   TEXT NOT NULL,
			started_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			finished_at      TIMESTAMP,
			total            INTEGER NOT NULL DEFAULT 0,
			rotated          INTEGER NOT NULL DEFAULT 0,
			failed           INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS rotation_failures (
			run_id    TEXT NOT NULL REFERENCES rotation_runs(id),
			record_id TEXT NOT NULL,
			reason    TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_rotation_failures_run
			ON rotation_failures(run_id);
	`)
	if err != nil {
		return fmt.Errorf("applying ledger schema: %w", err)
	}
	return nil
}

// RecordGeneration retires the current generation, if any, and records the
// next one. Returns the new generation number.
func (l *Ledger) RecordGeneration(ctx context.Context, fingerprint string, iterations int) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting ledger transaction: %w", err)
	}
	defer tx.Rollback()

	var current sql.NullInt64
	if err := tx.QueryRowContext(ctx, `
		SELECT MAX(number) FROM key_generations WHERE retired_at IS NULL
	`).Scan(&current); err != nil {
		return 0, fmt.Errorf("reading current generation: %w", err)
	}

	next := 1
	if current.Valid {
		next = int(current.Int64) + 1
		if _, err := tx.ExecContext(ctx, `
			UPDATE key_generations SET retired_at = CURRENT_TIMESTAMP
			WHERE number = ? AND retired_at IS NULL
		`, current.Int64); err != nil {
			return 0, fmt.Errorf("retiring generation %d: %w", current.Int64, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO key_generations (number, fingerprint, iterations) VALUES (?, ?, ?)
	`, next, fingerprint, iterations); err != nil {
		return 0, fmt.Errorf("recording generation %d: %w", next, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing generation %d: %w", next, err)
	}
	return next, nil
}

// CurrentGeneration returns the active generation, or nil if none has been
// recorded yet.
func (l *Ledger) CurrentGeneration(ctx context.Context) (*Generation, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT number, fingerprint, iterations, created_at, retired_at
		FROM key_generations
		WHERE retired_at IS NULL
		ORDER BY number DESC
		LIMIT 1
	`)
	g, err := scanGeneration(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return g, err
}

// Generations returns every recorded generation, oldest first.
func (l *Ledger) Generations(ctx context.Context) ([]Generation, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT number, fingerprint, iterations, created_at, retired_at
		FROM key_generations
		ORDER BY number ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing generations: %w", err)
	}
	defer rows.Close()

	var out []Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*Generation, error) {
	var g Generation
	var retired sql.NullTime
	if err := row.Scan(&g.Number, &g.Fingerprint, &g.Iterations, &g.CreatedAt, &retired); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning generation: %w", err)
	}
	if retired.Valid {
		g.RetiredAt = &retired.Time
	}
	return &g, nil
}

// StartRun records the beginning of a rotation run.
func (l *Ledger) StartRun(ctx context.Context, runID, entity, fromFingerprint, toFingerprint string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO rotation_runs (id, entity, from_fingerprint, to_fingerprint)
		VALUES (?, ?, ?, ?)
	`, runID, entity, fromFingerprint, toFingerprint)
	if err != nil {
		return fmt.Errorf("recording rotation run start: %w", err)
	}
	return nil
}

// FinishRun records run completion and its final counts.
func (l *Ledger) FinishRun(ctx context.Context, runID string, total, rotated, failed int) error {
	_, err := l.db.ExecContext(ctx, `
		UPDATE rotation_runs
		SET finished_at = CURRENT_TIMESTAMP, total = ?, rotated = ?, failed = ?
		WHERE id = ?
	`, total, rotated, failed, runID)
	if err != nil {
		return fmt.Errorf("recording rotation run finish: %w", err)
	}
	return nil
}

// RecordFailure records one record that failed to rotate during a run.
func (l *Ledger) RecordFailure(ctx context.Context, runID, recordID, reason string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO rotation_failures (run_id, record_id, reason) VALUES (?, ?, ?)
	`, runID, recordID, reason)
	if err != nil {
		return fmt.Errorf("recording rotation failure: %w", err)
	}
	return nil
}

// RunFailures returns the per-record failures of a run.
func (l *Ledger) RunFailures(ctx context.Context, runID string) ([]RotationFailure, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, record_id, reason FROM rotation_failures WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing rotation failures: %w", err)
	}
	defer rows.Close()

	var out []RotationFailure
	for rows.Next() {
		var f RotationFailure
		if err := rows.Scan(&f.RunID, &f.RecordID, &f.Reason); err != nil {
			return nil, fmt.Errorf("scanning rotation failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Runs returns every recorded rotation run, oldest first.
func (l *Ledger) Runs(ctx context.Context) ([]RotationRun, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, entity, from_fingerprint, to_fingerprint, started_at, finished_at,
		       total, rotated, failed
		FROM rotation_runs
		ORDER BY started_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing rotation runs: %w", err)
	}
	defer rows.Close()

	var out []RotationRun
	for rows.Next() {
		var r RotationRun
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Entity, &r.FromFingerprint, &r.ToFingerprint,
			&r.StartedAt, &finished, &r.Total, &r.Rotated, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning rotation run: %w", err)
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
