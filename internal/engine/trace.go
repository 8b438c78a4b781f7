package engine

import (
	"iter"

	"github.com/roiken/tempoval/internal/model"
)

// Trace returns the plan's state-change events as a lazy, finite,
// restartable sequence in the total event order. Each iteration re-runs
// the sweep from scratch, so the sequence can be ranged over any number of
// times and always yields the same events.
//
// The sequence stops at the first simulation failure; events up to that
// point are still yielded, which is what makes the trace useful for
// diagnosing where a plan goes wrong. Use Validate for the verdict itself.
func Trace(d *model.Domain, p *model.Plan, opts ...Option) iter.Seq[StateChange] {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(yield func(StateChange) bool) {
		_, _ = sweep(d, p, cfg, yield, nil)
	}
}

// CollectTrace runs the sweep to completion or first failure and returns
// the applied changes, the plan end time, and the terminating error, if
// any. The end time is known as soon as the timeline is built, so it is
// reported even for plans that fail mid-sweep. Convenience for callers
// that want the partial trace and the verdict in one pass, such as the
// run log.
func CollectTrace(d *model.Domain, p *model.Plan, opts ...Option) ([]StateChange, int64, error) {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	var changes []StateChange
	var end int64
	st, err := sweep(d, p, cfg, func(ch StateChange) bool {
		changes = append(changes, ch)
		return true
	}, &end)
	if err != nil {
		return changes, end, err
	}
	if err := checkGoal(p.Goal, st); err != nil {
		return changes, end, err
	}
	return changes, end, nil
}
