package tracelog

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/roiken/tempoval/internal/engine"
	"github.com/roiken/tempoval/internal/model"
)

// Verdict values stored in the runs table.
const (
	VerdictValid   = "valid"
	VerdictInvalid = "invalid"
)

// Run is one recorded validation run.
type Run struct {
	ID        string
	CreatedAt time.Time
	Domain    string
	Verdict   string
	Code      string // failure code, empty for valid runs
	Failure   string // failure message, empty for valid runs
	End       int64  // plan end time in ticks
}

// RecordRun writes a run header and its state-change trace atomically.
// Duplicate run IDs are silently ignored - the log is append-only and
// re-recording the same run is a no-op, never an overwrite.
func (s *Store) RecordRun(ctx context.Context, run Run, changes []engine.StateChange) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, domain, verdict, code, failure, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339),
		run.Domain,
		run.Verdict,
		run.Code,
		run.Failure,
		run.End,
	)
	if err != nil {
		return fmt.Errorf("record run: insert run: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record run: rows affected: %w", err)
	}
	if inserted == 0 {
		// Run already recorded; the trace rows are already there too.
		return tx.Commit()
	}

	for _, ch := range changes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO changes (run_id, seq, time, fluent, kind, value, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, seq) DO NOTHING
		`,
			run.ID,
			ch.Seq,
			ch.Time,
			ch.Key.String(),
			ch.Value.Kind().String(),
			ch.Value.String(),
			ch.Source,
		)
		if err != nil {
			return fmt.Errorf("record run: insert change %d: %w", ch.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: commit: %w", err)
	}
	return nil
}

// RunFromError builds the run header for a finished validation. A nil err
// yields a valid verdict; otherwise the failure code and message are
// captured for later inspection.
func RunFromError(id, domain string, end int64, err error) Run {
	run := Run{
		ID:        id,
		CreatedAt: time.Now(),
		Domain:    domain,
		Verdict:   VerdictValid,
		End:       end,
	}
	if err != nil {
		run.Verdict = VerdictInvalid
		run.Code = string(engine.ErrorCode(err))
		run.Failure = err.Error()
	}
	return run
}

// parseValue reconstructs a fluent value from its stored kind and text.
func parseValue(kind, text string) (model.Value, error) {
	switch kind {
	case model.KindBool.String():
		switch text {
		case "true":
			return model.Bool(true), nil
		case "false":
			return model.Bool(false), nil
		}
		return nil, fmt.Errorf("invalid bool value %q", text)
	case model.KindInt.String():
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int value %q", text)
		}
		return model.Int(n), nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", kind)
	}
}
