// Package history keeps a local journal of executed transactions so the
// dashboard's activity view survives restarts. It is a record of what this
// client submitted, not a mirror of the ledger.
package history

import (
	"context"
	"database/sql"
	"math/big"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/riverrfinance/riverr-go/internal/execution"
	"github.com/riverrfinance/riverr-go/pkg/logger"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "history: open")
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS tx_history (
  id TEXT PRIMARY KEY,
  action TEXT NOT NULL,
  owner TEXT NOT NULL,
  asset TEXT NOT NULL,
  amount TEXT NOT NULL,
  approved_delta TEXT,
  state TEXT NOT NULL,
  result TEXT,
  error TEXT,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_tx_history_owner_time ON tx_history(owner, started_at DESC);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "history: migrate")
		}
	}
	return nil
}

// Record implements execution.Recorder. Journal failures are logged, not
// propagated; a transaction must never fail because its record could not
// be written.
func (s *Store) Record(ctx context.Context, run execution.Run) {
	var delta, errText sql.NullString
	if run.ApprovedDelta != nil {
		delta = sql.NullString{String: run.ApprovedDelta.String(), Valid: true}
	}
	if run.Err != nil {
		errText = sql.NullString{String: run.Err.Error(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO tx_history (id, action, owner, asset, amount, approved_delta, state, result, error, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Action, run.Owner, run.Asset, run.Amount.String(),
		delta, run.State.String(), run.Result, errText,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		logger.Errorf("[history] record %s failed: %v", run.ID, err)
	}
}

// Entry is one journalled transaction.
type Entry struct {
	ID            string
	Action        string
	Owner         string
	Asset         string
	Amount        *big.Int
	ApprovedDelta *big.Int
	State         string
	Result        string
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Recent returns the newest entries for an owner, most recent first.
func (s *Store) Recent(ctx context.Context, owner string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, action, owner, asset, amount, approved_delta, state, result, error, started_at, finished_at
FROM tx_history WHERE owner = ? ORDER BY started_at DESC LIMIT ?`, owner, limit)
	if err != nil {
		return nil, errors.Wrap(err, "history: recent")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                  Entry
			amount             string
			delta, errText     sql.NullString
			startedS, finished string
		)
		var result sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.Owner, &e.Asset, &amount, &delta, &e.State, &result, &errText, &startedS, &finished); err != nil {
			return nil, errors.Wrap(err, "history: scan")
		}
		e.Amount, _ = new(big.Int).SetString(amount, 10)
		if delta.Valid {
			e.ApprovedDelta, _ = new(big.Int).SetString(delta.String, 10)
		}
		e.Result = result.String
		e.Error = errText.String
		e.StartedAt, _ = time.Parse(time.RFC3339Nano, startedS)
		e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, e)
	}
	return out, rows.Err()
}
