package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/roiken/tempoval/internal/model"
	"github.com/roiken/tempoval/internal/state"
)

// StateChange is one applied write: the trace entry for an effect or an
// initial assignment. Seq numbers the change within its run, in the total
// event order, so traces from identical plans are identical.
type StateChange struct {
	Seq    int64
	Time   int64
	Key    model.Key
	Value  model.Value
	Source string
}

// Result is the outcome of a successful validation: the terminal state
// (latest value per canonical key), the ordered state changes that led to
// it, and the plan end time (maximum end over all instances).
type Result struct {
	Terminal map[string]model.Value
	Changes  []StateChange
	End      int64
}

// Option configures a validation run.
type Option func(*options)

type options struct {
	maxEvents int // 0 = unbounded
}

// WithEventBudget bounds the number of processed events. The simulation
// itself has no timeout concept - a plan either validates or fails at a
// specific event - but a caller doing many trial validations may impose
// this external budget.
func WithEventBudget(n int) Option {
	return func(o *options) { o.maxEvents = n }
}

// Validate checks a candidate plan against the domain: it instantiates
// every action instance, merges all clauses with the initial assignments
// into the total event order, sweeps the stream against a fresh state
// store, and finally evaluates the goal against the terminal state.
//
// Load-time failures (TypeMismatchError, ArityError,
// MalformedTemplateError) mean the domain or plan is not well-formed.
// PreconditionViolation and ConflictError are the definitive verdict of an
// invalid plan. GoalNotSatisfiedError is reported only after a fully
// successful simulation.
func Validate(d *model.Domain, p *model.Plan, opts ...Option) (*Result, error) {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	result := &Result{}
	st, err := sweep(d, p, cfg, func(ch StateChange) bool {
		result.Changes = append(result.Changes, ch)
		return true
	}, &result.End)
	if err != nil {
		return nil, err
	}

	if err := checkGoal(p.Goal, st); err != nil {
		return nil, err
	}

	result.Terminal = st.Snapshot()
	slog.Info("plan validated",
		"instances", len(p.Instances),
		"changes", len(result.Changes),
		"end", result.End,
	)
	return result, nil
}

// sweep executes the merged event stream in order against a fresh store.
// Every applied write is passed to emit; emit returning false stops the
// sweep early without error (used by lazy trace consumers).
func sweep(d *model.Domain, p *model.Plan, cfg options, emit func(StateChange) bool, end *int64) (*state.Store, error) {
	events, planEnd, err := buildTimeline(d, p)
	if err != nil {
		return nil, err
	}
	if end != nil {
		*end = planEnd
	}

	st := state.New()
	var seq int64
	for i := range events {
		ev := &events[i]
		if cfg.maxEvents > 0 && i >= cfg.maxEvents {
			return nil, &BudgetExceededError{Events: i, Limit: cfg.maxEvents}
		}

		switch ev.Phase {
		case PhaseCondition:
			got, err := st.Read(ev.Key, ev.Time)
			if err != nil {
				return nil, fmt.Errorf("condition %s in %s: %w", ev.Clause, ev.Instance, err)
			}
			holds := model.Equal(got, ev.Want)
			if ev.Negate {
				holds = !holds
			}
			if !holds {
				return nil, &PreconditionViolation{
					Instance: ev.Instance,
					Clause:   ev.Clause,
					Key:      ev.Key,
					Time:     ev.Time,
					Want:     ev.Want,
					Negate:   ev.Negate,
					Got:      got,
				}
			}
			slog.Debug("condition holds", "instance", ev.Instance, "clause", ev.Clause, "time", ev.Time)

		case PhaseInit, PhaseEffect:
			v, err := evalExpr(st, ev)
			if err != nil {
				return nil, err
			}
			if err := st.Write(ev.Key, v, ev.Time, ev.Instance); err != nil {
				return nil, err
			}
			seq++
			slog.Debug("effect applied",
				"instance", ev.Instance, "key", ev.Key.String(), "value", v.String(), "time", ev.Time)
			if !emit(StateChange{Seq: seq, Time: ev.Time, Key: ev.Key, Value: v, Source: ev.Instance}) {
				return st, nil
			}
		}
	}
	return st, nil
}

// evalExpr computes an effect's value. Literal assignments pass through;
// relative effects read the current value at the event's time and apply
// ordinary integer arithmetic - no saturation, no clamping, overflow is an
// error.
func evalExpr(st *state.Store, ev *event) (model.Value, error) {
	switch e := ev.Expr.(type) {
	case model.Lit:
		return e.Value, nil
	case model.Delta:
		cur, err := st.Read(ev.Key, ev.Time)
		if err != nil {
			return nil, fmt.Errorf("effect %s in %s: %w", ev.Clause, ev.Instance, err)
		}
		base, ok := cur.(model.Int)
		if !ok {
			return nil, fmt.Errorf("effect %s in %s: %s is not an int fluent", ev.Clause, ev.Instance, ev.Key)
		}
		if (e.Amount > 0 && int64(base) > math.MaxInt64-e.Amount) ||
			(e.Amount < 0 && int64(base) < math.MinInt64-e.Amount) {
			return nil, fmt.Errorf("effect %s in %s: integer overflow on %s", ev.Clause, ev.Instance, ev.Key)
		}
		return model.Int(int64(base) + e.Amount), nil
	default:
		return nil, fmt.Errorf("effect in %s has no value expression", ev.Instance)
	}
}
