package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Outcome is the final state of one processed print.
type Outcome string

const (
	OutcomeSaved   Outcome = "saved"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	OutcomePrimed  Outcome = "primed"
)

// ErrRunNotFound is returned for unknown run ids.
var ErrRunNotFound = errors.New("run not found")

// Entry is one capture attempt.
type Entry struct {
	Card            string
	Filename        string
	SetCode         string
	CollectorNumber string
	Outcome         Outcome
	Reason          string
	CreatedAt       time.Time
}

// Totals are the per-run counters.
type Totals struct {
	Saved   int
	Skipped int
	Failed  int
}

// Run is a ledger row.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Totals
}

// Finished reports whether FinishRun was called.
func (r Run) Finished() bool { return !r.FinishedAt.IsZero() }

// BeginRun opens a new run and returns its id.
func (s *Store) BeginRun(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.exec(ctx, "INSERT INTO runs (id, started_at) VALUES (?, ?)", id, formatTime(s.now())); err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// Record appends entry to the run.
func (s *Store) Record(ctx context.Context, runID string, entry Entry) error {
	if strings.TrimSpace(entry.Card) == "" {
		return errors.New("record capture: card name required")
	}
	if entry.Outcome == "" {
		return errors.New("record capture: outcome required")
	}
	created := entry.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	err := s.exec(ctx, `INSERT INTO captures
		(run_id, card, filename, set_code, collector_number, outcome, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, entry.Card, entry.Filename, entry.SetCode, entry.CollectorNumber,
		string(entry.Outcome), entry.Reason, formatTime(created),
	)
	if err != nil {
		return fmt.Errorf("record capture: %w", err)
	}
	return nil
}

// FinishRun stamps the run with its totals.
func (s *Store) FinishRun(ctx context.Context, runID string, totals Totals) error {
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			"UPDATE runs SET finished_at = ?, saved = ?, skipped = ?, failed = ? WHERE id = ?",
			formatTime(s.now()), totals.Saved, totals.Skipped, totals.Failed, runID,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT id, started_at, finished_at, saved, skipped, failed FROM runs ORDER BY started_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun loads a single run.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, started_at, finished_at, saved, skipped, failed FROM runs WHERE id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return run, err
}

// Captures returns the entries of a run in insertion order.
func (s *Store) Captures(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT card, filename, set_code, collector_number, outcome, reason, created_at
		FROM captures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry   Entry
			outcome string
			created sql.NullString
		)
		if err := rows.Scan(&entry.Card, &entry.Filename, &entry.SetCode, &entry.CollectorNumber, &outcome, &entry.Reason, &created); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		entry.Outcome = Outcome(outcome)
		entry.CreatedAt = parseTime(created)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		started  sql.NullString
		finished sql.NullString
	)
	if err := row.Scan(&run.ID, &started, &finished, &run.Saved, &run.Skipped, &run.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	return run, nil
}
