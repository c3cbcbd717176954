// Package history persists planning decisions to a local sqlite database so
// operators can audit what the planner decided and why loads were refused.
// Writes are best-effort: a history failure must never fail a plan.
package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"pland/internal/common/fsutil"
	"pland/pkg/types"
)

// Outcome values recorded per decision.
const (
	OutcomePlanned      = "planned"
	OutcomeInsufficient = "insufficient_memory"
)

// Store is a sqlite-backed append-only log of plan decisions.
type Store struct {
	db    *sql.DB
	limit int
}

// Open opens (creating if needed) the history database at path. limit caps
// how many rows are retained; older rows are pruned on insert.
func Open(path string, limit int) (*Store, error) {
	if err := fsutil.EnsureParentDir(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if limit <= 0 {
		limit = 1000
	}
	s := &Store{db: db, limit: limit}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS plan_log (
  id TEXT PRIMARY KEY,
  model TEXT NOT NULL,
  context INTEGER NOT NULL,
  mode TEXT NOT NULL,
  estimated_bytes INTEGER NOT NULL DEFAULT 0,
  outcome TEXT NOT NULL,
  created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS plan_log_created_at ON plan_log(created_at);
`)
	return err
}

// Record appends one decision and returns its assigned id.
func (s *Store) Record(ctx context.Context, model string, contextTokens int, mode string, estimatedBytes int64, outcome string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plan_log (id, model, context, mode, estimated_bytes, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?);`,
		id, model, contextTokens, mode, estimatedBytes, outcome, time.Now().UTC())
	if err != nil {
		return "", err
	}
	// Keep the log bounded; losing old rows is fine.
	_, _ = s.db.ExecContext(ctx,
		`DELETE FROM plan_log WHERE id NOT IN
		 (SELECT id FROM plan_log ORDER BY created_at DESC, id DESC LIMIT ?);`, s.limit)
	return id, nil
}

// Recent returns up to n decisions, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]types.PlanRecord, error) {
	if n <= 0 || n > s.limit {
		n = s.limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model, context, mode, estimated_bytes, outcome, created_at
		 FROM plan_log ORDER BY created_at DESC, id DESC LIMIT ?;`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.PlanRecord
	for rows.Next() {
		var r types.PlanRecord
		if err := rows.Scan(&r.ID, &r.Model, &r.Context, &r.Mode, &r.EstimatedBytes, &r.Outcome, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
