package engine

import (
	"fmt"
	"math"

	"github.com/roiken/tempoval/internal/model"
)

// Phase orders events that share a timestamp: initial assignments first,
// then conditions, then effects. A condition at time T must see the state
// as of strictly before any effect scheduled at T.
type Phase int

const (
	// PhaseInit applies initial-state assignments (conventionally time 0,
	// strictly before any action's start offset 0).
	PhaseInit Phase = iota
	// PhaseCondition evaluates a timed condition.
	PhaseCondition
	// PhaseEffect applies a timed effect.
	PhaseEffect
)

// event is one absolute-timed clause in the merged stream. The ordering
// key (Time, Phase, Instance, Idx) is total: Instance and Idx break ties
// between same-phase events so simulation is reproducible regardless of
// declaration order in the input plan.
type event struct {
	Time     int64
	Phase    Phase
	Instance string
	Idx      int // clause declaration index within the instance

	Key    model.Key
	Clause string // rendered source clause for error reports

	// Condition fields.
	Want   model.Value
	Negate bool

	// Effect field.
	Expr model.Expr
}

// Bound is an action instance resolved into absolute-timed events.
type Bound struct {
	ID     string
	Start  int64
	End    int64
	Events []event
}

// Instantiate binds a template's formal parameters to concrete objects and
// an absolute start time, producing the instance's absolute-timed clause
// bundle.
//
// Fails with ArityError when the binding is incomplete, TypeMismatchError
// when an argument's type does not match the parameter's declared type,
// and MalformedTemplateError when the evaluated duration invalidates the
// clause schedule or two same-time effects on one resolved key disagree.
func Instantiate(d *model.Domain, in model.Instance) (*Bound, error) {
	t, ok := d.Template(in.Template)
	if !ok {
		return nil, fmt.Errorf("unknown action template %s", in.Template)
	}
	if len(in.Args) != len(t.Params) {
		return nil, &model.ArityError{Template: t.Name, Want: len(t.Params), Got: len(in.Args)}
	}

	binding := make(model.Binding, len(t.Params))
	for i, p := range t.Params {
		obj, ok := d.Object(in.Args[i])
		if !ok {
			return nil, fmt.Errorf("instantiate %s: unknown object %s", t.Name, in.Args[i])
		}
		if obj.Type != p.Type {
			return nil, &model.TypeMismatchError{
				Template: t.Name, Param: p.Name,
				Want: p.Type, Got: obj.Type, Object: obj.Name,
			}
		}
		binding[p.Name] = obj
	}

	dur, err := t.Duration.Eval(binding)
	if err != nil {
		return nil, &model.MalformedTemplateError{Template: t.Name, Reason: err.Error()}
	}
	if in.Start < 0 {
		return nil, fmt.Errorf("instantiate %s: negative start time %d", t.Name, in.Start)
	}
	if in.Start > math.MaxInt64-dur {
		return nil, fmt.Errorf("instantiate %s: end time overflows at start %d", t.Name, in.Start)
	}

	// Constant durations were schedule-checked at registration; evaluated
	// ones get the same checks here.
	if _, isConst := t.Duration.(model.ConstDuration); !isConst {
		if err := model.CheckSchedule(t, dur); err != nil {
			return nil, err
		}
	}

	id := in.InstanceID()
	b := &Bound{ID: id, Start: in.Start, End: in.Start + dur}

	type slot struct {
		time int64
		key  string
	}
	effects := make(map[slot]model.Expr)

	for idx := range t.Clauses {
		c := &t.Clauses[idx]
		key, err := resolveRef(c.Fluent, binding)
		if err != nil {
			return nil, fmt.Errorf("instantiate %s: %w", t.Name, err)
		}
		at := c.Offset.Resolve(in.Start, dur)

		ev := event{
			Time:     at,
			Instance: id,
			Idx:      idx,
			Key:      key,
			Clause:   renderClause(c),
		}
		switch c.Kind {
		case model.ClauseCondition:
			ev.Phase = PhaseCondition
			ev.Want = c.Want
			ev.Negate = c.Negate
		case model.ClauseEffect:
			ev.Phase = PhaseEffect
			ev.Expr = c.Expr

			// Distinct as-written references can collapse onto one key
			// under a binding, so the contradiction check repeats here on
			// resolved keys. Identical literal rewrites stay legal.
			s := slot{time: at, key: key.String()}
			if prev, dup := effects[s]; dup {
				pl, pok := prev.(model.Lit)
				cl, cok := c.Expr.(model.Lit)
				if !pok || !cok || !model.Equal(pl.Value, cl.Value) {
					return nil, &model.MalformedTemplateError{Template: t.Name,
						Reason: fmt.Sprintf("contradictory effects on %s at time %d", key, at)}
				}
			} else {
				effects[s] = c.Expr
			}
		}
		b.Events = append(b.Events, ev)
	}

	return b, nil
}

// resolveRef substitutes a binding into a fluent reference, producing the
// concrete key.
func resolveRef(ref model.FluentRef, binding model.Binding) (model.Key, error) {
	args := make([]string, len(ref.Args))
	for i, term := range ref.Args {
		switch tm := term.(type) {
		case model.ParamTerm:
			obj, ok := binding[string(tm)]
			if !ok {
				return model.Key{}, fmt.Errorf("%s: unbound parameter %s", ref, tm)
			}
			args[i] = obj.Name
		case model.ObjectTerm:
			args[i] = string(tm)
		default:
			return model.Key{}, fmt.Errorf("%s: unsupported term %T", ref, term)
		}
	}
	return model.Key{Fluent: ref.Name, Args: args}, nil
}

// renderClause formats a clause as written in the template, for error
// reports and traces.
func renderClause(c *model.Clause) string {
	switch c.Kind {
	case model.ClauseCondition:
		op := "="
		if c.Negate {
			op = "!="
		}
		return fmt.Sprintf("%s%s%s@%s", c.Fluent, op, c.Want, c.Offset)
	case model.ClauseEffect:
		switch e := c.Expr.(type) {
		case model.Lit:
			return fmt.Sprintf("%s:=%s@%s", c.Fluent, e.Value, c.Offset)
		case model.Delta:
			return fmt.Sprintf("%s+=%d@%s", c.Fluent, e.Amount, c.Offset)
		}
	}
	return c.Fluent.String()
}
