// Package store persists the run ledger: one row per stage execution with
// its row counts and drop reasons, so drops stay reportable across runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gridsight/energycast/internal/model"
)

// Store wraps the SQLite run ledger.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the ledger at the given path, configuring WAL
// mode the same way every other connection in the project does.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	artifact    TEXT,
	rows_in     INTEGER NOT NULL DEFAULT 0,
	rows_out    INTEGER NOT NULL DEFAULT 0,
	drops       TEXT,
	error       TEXT,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_stage ON runs(stage);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records a new stage execution in the running state.
func (s *Store) StartRun(ctx context.Context, stage string) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		Stage:     stage,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, stage, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Stage, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: insert run")
	}
	return run, nil
}

// FinishRun marks a run succeeded with its counts and artifact path.
func (s *Store) FinishRun(ctx context.Context, run *model.Run, rowsIn, rowsOut int, drops map[string]int, artifactPath string) error {
	dropsJSON, err := json.Marshal(drops)
	if err != nil {
		return eris.Wrap(err, "store: marshal drops")
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, rows_in = ?, rows_out = ?, drops = ?, artifact = ?, finished_at = ? WHERE id = ?`,
		string(model.RunStatusSucceeded), rowsIn, rowsOut, string(dropsJSON), artifactPath, now, run.ID,
	)
	if err != nil {
		return eris.Wrap(err, "store: finish run")
	}
	run.Status = model.RunStatusSucceeded
	run.RowsIn, run.RowsOut, run.Drops = rowsIn, rowsOut, drops
	run.Artifact = artifactPath
	run.FinishedAt = &now
	return nil
}

// FailRun marks a run failed with its error message.
func (s *Store) FailRun(ctx context.Context, run *model.Run, runErr error) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), runErr.Error(), now, run.ID,
	)
	if err != nil {
		return eris.Wrap(err, "store: fail run")
	}
	run.Status = model.RunStatusFailed
	run.Error = runErr.Error()
	run.FinishedAt = &now
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stage, status, COALESCE(artifact, ''), rows_in, rows_out, COALESCE(drops, ''), COALESCE(error, ''), started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Run
	for rows.Next() {
		var r model.Run
		var status, dropsJSON string
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Stage, &status, &r.Artifact, &r.RowsIn, &r.RowsOut, &dropsJSON, &r.Error, &r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "store: scan run")
		}
		r.Status = model.RunStatus(status)
		if dropsJSON != "" {
			if err := json.Unmarshal([]byte(dropsJSON), &r.Drops); err != nil {
				return nil, eris.Wrap(err, "store: unmarshal drops")
			}
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate runs")
}
