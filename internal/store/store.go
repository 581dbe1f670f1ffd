// Package store keeps an append-only history of assessment runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spigell/cv-assessor/internal/assessment"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	role TEXT NOT NULL,
	strategy TEXT NOT NULL,
	low_confidence INTEGER NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	total INTEGER NOT NULL,
	assessed INTEGER NOT NULL,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	run_id TEXT NOT NULL,
	candidate_id TEXT NOT NULL,
	rank INTEGER NOT NULL,
	score REAL,
	status TEXT NOT NULL,
	score_source TEXT,
	raw_report TEXT NOT NULL,
	PRIMARY KEY (run_id, candidate_id),
	FOREIGN KEY (run_id) REFERENCES runs(id)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// Summary is one line of the run history.
type Summary struct {
	ID            string
	Role          string
	Strategy      string
	LowConfidence bool
	StartedAt     time.Time
	FinishedAt    time.Time
	Total         int
	Assessed      int
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the history database. ":memory:" gives a private
// in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// Writes are serialized by SQLite anyway and an in-memory database
	// exists per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun appends a run and its records. Runs are never updated; saving the
// same id twice fails.
func (s *Store) SaveRun(ctx context.Context, run assessment.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, role, strategy, low_confidence, started_at, finished_at, total, assessed, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Role, run.Strategy, run.LowConfidence,
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.Total, run.Assessed, string(data),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for _, rec := range run.Records {
		var score sql.NullFloat64
		if rec.Score != nil {
			score = sql.NullFloat64{Float64: *rec.Score, Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO records (run_id, candidate_id, rank, score, status, score_source, raw_report)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, rec.CandidateID, rec.Rank, score, string(rec.Status), string(rec.ScoreSource), rec.RawReport,
		)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", rec.CandidateID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, strategy, low_confidence, started_at, finished_at, total, assessed
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum             Summary
			started, finish string
		)
		if err := rows.Scan(&sum.ID, &sum.Role, &sum.Strategy, &sum.LowConfidence, &started, &finish, &sum.Total, &sum.Assessed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if sum.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if sum.FinishedAt, err = parseTime(finish); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetRun loads a full run, records included.
func (s *Store) GetRun(ctx context.Context, id string) (assessment.Run, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM runs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return assessment.Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return assessment.Run{}, fmt.Errorf("query run %s: %w", id, err)
	}

	var run assessment.Run
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return assessment.Run{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
