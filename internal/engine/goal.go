package engine

import (
	"fmt"

	"github.com/roiken/tempoval/internal/model"
	"github.com/roiken/tempoval/internal/state"
)

// checkGoal evaluates the goal conjunction against the terminal state,
// reading each key at "positive infinity" (the latest recorded value).
// Clauses were schema-checked at timeline build, so evaluation only has
// to compare values. Every failing clause is collected, not just the
// first. A goal key that was never assigned counts as unsatisfied rather
// than erroring: the plan demonstrably did not achieve it, and the caller
// wants the full list.
func checkGoal(goal []model.GoalClause, st *state.Store) error {
	var unsatisfied []model.GoalClause
	for _, g := range goal {
		got, err := st.Latest(g.Key())
		if err != nil {
			unsatisfied = append(unsatisfied, g)
			continue
		}
		holds := model.Equal(got, g.Want)
		if g.Negate {
			holds = !holds
		}
		if !holds {
			unsatisfied = append(unsatisfied, g)
		}
	}
	if len(unsatisfied) > 0 {
		return &GoalNotSatisfiedError{Unsatisfied: unsatisfied}
	}
	return nil
}

// checkGoalClause validates a goal clause against the schema; malformed
// goals are load-time failures, not near-misses.
func checkGoalClause(d *model.Domain, g model.GoalClause) error {
	sig, ok := d.Fluent(g.Fluent)
	if !ok {
		return fmt.Errorf("unknown fluent %s", g.Fluent)
	}
	if len(g.Args) != len(sig.Params) {
		return fmt.Errorf("%s wants %d arguments, got %d", g.Fluent, len(sig.Params), len(g.Args))
	}
	for i, name := range g.Args {
		obj, ok := d.Object(name)
		if !ok {
			return fmt.Errorf("%s: unknown object %s", g.Key(), name)
		}
		if obj.Type != sig.Params[i] {
			return &model.TypeMismatchError{
				Param: g.Fluent, Want: sig.Params[i], Got: obj.Type, Object: obj.Name,
			}
		}
	}
	if g.Want == nil || g.Want.Kind() != sig.Kind {
		return fmt.Errorf("%s holds %s values", g.Key(), sig.Kind)
	}
	return nil
}
