package engine

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roiken/tempoval/internal/model"
	"github.com/roiken/tempoval/internal/state"
)

// buildTimeline merges the plan's initial assignments and every
// instantiated clause from every action instance into one chronologically
// ordered event stream. The returned slice is sorted by the total order
// (time, phase, instance, clause index); the plan end time is the maximum
// instance end time.
//
// Goal clauses are schema-checked here too: a malformed goal is a
// load-time failure and must surface before any simulation work, not
// after a full sweep.
func buildTimeline(d *model.Domain, p *model.Plan) ([]event, int64, error) {
	var events []event

	for idx, a := range p.Init {
		if err := checkAssignment(d, a); err != nil {
			return nil, 0, fmt.Errorf("initial assignment %d: %w", idx, err)
		}
		events = append(events, event{
			Time:     0,
			Phase:    PhaseInit,
			Instance: state.InitSource,
			Idx:      idx,
			Key:      a.Key(),
			Clause:   fmt.Sprintf("%s:=%s@init", a.Key(), a.Value),
			Expr:     model.Lit{Value: a.Value},
		})
	}
	for i, g := range p.Goal {
		if err := checkGoalClause(d, g); err != nil {
			return nil, 0, fmt.Errorf("goal clause %d: %w", i, err)
		}
	}

	var end int64
	seen := make(map[string]bool, len(p.Instances))
	for _, in := range p.Instances {
		b, err := Instantiate(d, in)
		if err != nil {
			return nil, 0, err
		}
		if seen[b.ID] {
			return nil, 0, fmt.Errorf("duplicate action instance %s", b.ID)
		}
		seen[b.ID] = true
		if b.End > end {
			end = b.End
		}
		events = append(events, b.Events...)
	}

	slices.SortFunc(events, compareEvents)
	return events, end, nil
}

// compareEvents implements the total event order. The order is
// deterministic for any input: timestamps first, then phase (init before
// condition before effect), then instance ID and clause declaration index
// as tie-breaks.
func compareEvents(a, b event) int {
	if c := cmp.Compare(a.Time, b.Time); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Phase, b.Phase); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Instance, b.Instance); c != 0 {
		return c
	}
	return cmp.Compare(a.Idx, b.Idx)
}

// checkAssignment validates an initial assignment against the schema.
func checkAssignment(d *model.Domain, a model.Assignment) error {
	sig, ok := d.Fluent(a.Fluent)
	if !ok {
		return fmt.Errorf("unknown fluent %s", a.Fluent)
	}
	if len(a.Args) != len(sig.Params) {
		return fmt.Errorf("%s wants %d arguments, got %d", a.Fluent, len(sig.Params), len(a.Args))
	}
	for i, name := range a.Args {
		obj, ok := d.Object(name)
		if !ok {
			return fmt.Errorf("%s: unknown object %s", a.Key(), name)
		}
		if obj.Type != sig.Params[i] {
			return &model.TypeMismatchError{
				Param: a.Fluent, Want: sig.Params[i], Got: obj.Type, Object: obj.Name,
			}
		}
	}
	if a.Value == nil || a.Value.Kind() != sig.Kind {
		return fmt.Errorf("%s holds %s values", a.Key(), sig.Kind)
	}
	return nil
}
