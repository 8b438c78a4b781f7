package tracelog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roiken/tempoval/internal/model"
)

// ErrRunNotFound is returned when a run ID has no recorded row.
var ErrRunNotFound = errors.New("run not found")

// Change is one state change read back from the log. The fluent key is
// kept in canonical text form ("robot_at(r0,p1)") as stored.
type Change struct {
	Seq    int64
	Time   int64
	Fluent string
	Value  model.Value
	Source string
}

// ReadRun fetches a run header by ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	var created string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, domain, verdict, code, failure, end_time
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &created, &run.Domain, &run.Verdict, &run.Code, &run.Failure, &run.End)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	run.CreatedAt, err = time.Parse(time.RFC3339, created)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: bad timestamp: %w", id, err)
	}
	return run, nil
}

// ReadChanges fetches a run's state-change trace in event order.
func (s *Store) ReadChanges(ctx context.Context, runID string) ([]Change, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, time, fluent, kind, value, source
		FROM changes WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read changes for %s: %w", runID, err)
	}
	defer rows.Close()

	var changes []Change
	for rows.Next() {
		var ch Change
		var kind, text string
		if err := rows.Scan(&ch.Seq, &ch.Time, &ch.Fluent, &kind, &text, &ch.Source); err != nil {
			return nil, fmt.Errorf("read changes for %s: %w", runID, err)
		}
		ch.Value, err = parseValue(kind, text)
		if err != nil {
			return nil, fmt.Errorf("read changes for %s: seq %d: %w", runID, ch.Seq, err)
		}
		changes = append(changes, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read changes for %s: %w", runID, err)
	}
	return changes, nil
}

// ListRuns returns all recorded runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, domain, verdict, code, failure, end_time
		FROM runs ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var created string
		if err := rows.Scan(&run.ID, &created, &run.Domain, &run.Verdict, &run.Code, &run.Failure, &run.End); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		run.CreatedAt, err = time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, fmt.Errorf("list runs: bad timestamp for %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
