// Package usage provides durable per-call usage records for the gateway:
// one row per call with provider, model, operation, output size, and
// duration. The daily-summary and echo-report workflows read it back, and a
// cron-driven pruner enforces retention.
package usage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"taskpilot/gateway/pkg/gateway"
)

// Store records gateway calls in SQLite. It is safe for concurrent use; the
// database is opened in WAL mode.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	insertStmt *sql.Stmt
	pruneStmt  *sql.Stmt
}

// ProviderUsage is an aggregate row returned by Summary.
type ProviderUsage struct {
	Provider    string
	Model       string
	Calls       int64
	Errors      int64
	OutputBytes int64
}

// Open opens (and if needed creates) the usage database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("usage db path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: slog.Default().With("component", "usage"),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS calls (
	request_id   TEXT PRIMARY KEY,
	provider     TEXT NOT NULL,
	model        TEXT NOT NULL,
	operation    TEXT NOT NULL,
	fragments    INTEGER NOT NULL DEFAULT 0,
	output_bytes INTEGER NOT NULL DEFAULT 0,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	error        TEXT,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_calls_created_at ON calls(created_at);
CREATE INDEX IF NOT EXISTS idx_calls_provider ON calls(provider);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create usage schema: %w", err)
	}
	return nil
}

func (s *Store) prepare() error {
	var err error
	s.insertStmt, err = s.db.Prepare(`
INSERT OR REPLACE INTO calls
	(request_id, provider, model, operation, fragments, output_bytes, duration_ms, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	s.pruneStmt, err = s.db.Prepare(`DELETE FROM calls WHERE created_at < ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune: %w", err)
	}
	return nil
}

// RecordCall implements gateway.UsageRecorder. Recording failures are logged,
// never surfaced: usage tracking must not break the call it describes.
func (s *Store) RecordCall(ctx context.Context, rec gateway.CallRecord) {
	var errText any
	if rec.Err != nil {
		errText = rec.Err.Error()
	}

	_, err := s.insertStmt.ExecContext(ctx,
		rec.RequestID,
		rec.Provider,
		rec.Model,
		rec.Operation,
		rec.Fragments,
		rec.OutputBytes,
		rec.Duration.Milliseconds(),
		errText,
		time.Now().UTC(),
	)
	if err != nil {
		s.logger.Warn("failed to record usage", "request_id", rec.RequestID, "error", err)
	}
}

// Summary aggregates calls per provider and model since the given time.
func (s *Store) Summary(ctx context.Context, since time.Time) ([]ProviderUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT provider, model, COUNT(*),
	SUM(CASE WHEN error IS NOT NULL THEN 1 ELSE 0 END),
	COALESCE(SUM(output_bytes), 0)
FROM calls
WHERE created_at >= ?
GROUP BY provider, model
ORDER BY provider, model`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query usage summary: %w", err)
	}
	defer rows.Close()

	var out []ProviderUsage
	for rows.Next() {
		var u ProviderUsage
		if err := rows.Scan(&u.Provider, &u.Model, &u.Calls, &u.Errors, &u.OutputBytes); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Prune deletes records older than the retention window and returns the
// number removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := s.pruneStmt.ExecContext(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Info("pruned usage records", "removed", n, "cutoff", cutoff)
	}
	return n, nil
}

// Close releases the prepared statements and the database handle.
func (s *Store) Close() error {
	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	if s.pruneStmt != nil {
		s.pruneStmt.Close()
	}
	return s.db.Close()
}
