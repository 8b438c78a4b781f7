package model

import (
	"fmt"
	"strings"
)

// Param is a typed formal parameter of an action template.
type Param struct {
	Name string
	Type string
}

// Binding maps formal parameter names to concrete objects.
type Binding map[string]Object

// DurationExpr is the duration of an action template, evaluated against a
// binding at instantiation time. Today every domain uses a closed constant,
// but the expression form keeps the door open for parameter-dependent
// durations without changing the template shape.
type DurationExpr interface {
	// Eval computes the duration in ticks for the given binding.
	Eval(b Binding) (int64, error)
}

// ConstDuration is a constant duration in ticks.
type ConstDuration int64

// Eval returns the constant, rejecting negative durations.
func (c ConstDuration) Eval(Binding) (int64, error) {
	if c < 0 {
		return 0, fmt.Errorf("negative duration %d", int64(c))
	}
	return int64(c), nil
}

// Offset is a clause's scheduled time relative to its action instance's
// start, in [0, duration]. The end offset is symbolic so that it tracks
// the evaluated duration even when the duration is not a closed constant.
type Offset struct {
	atEnd bool
	ticks int64
}

// StartOffset schedules a clause at the instance's start (offset 0).
func StartOffset() Offset { return Offset{} }

// EndOffset schedules a clause at the instance's end (offset = duration).
func EndOffset() Offset { return Offset{atEnd: true} }

// OffsetAt schedules a clause at an explicit offset from the start.
func OffsetAt(ticks int64) Offset { return Offset{ticks: ticks} }

// AtEnd reports whether the offset is duration-relative.
func (o Offset) AtEnd() bool { return o.atEnd }

// Ticks returns the explicit offset from start. Meaningless when AtEnd.
func (o Offset) Ticks() int64 { return o.ticks }

// Resolve converts the offset into an absolute timestamp.
func (o Offset) Resolve(start, duration int64) int64 {
	if o.atEnd {
		return start + duration
	}
	return start + o.ticks
}

// String renders the offset as it appears in domain documents.
func (o Offset) String() string {
	switch {
	case o.atEnd:
		return "end"
	case o.ticks == 0:
		return "start"
	default:
		return fmt.Sprintf("start+%d", o.ticks)
	}
}

// Term is a sealed interface over the two ways a clause can reference an
// object: through a formal parameter or as a literal object name.
type Term interface {
	term() // Sealed - only ParamTerm and ObjectTerm implement it

	// String renders the term for diagnostics ("?r" for params, "p0" for objects).
	String() string
}

// ParamTerm references a formal parameter of the enclosing template.
type ParamTerm string

func (ParamTerm) term() {}

func (p ParamTerm) String() string { return "?" + string(p) }

// ObjectTerm references a registered object directly by name.
type ObjectTerm string

func (ObjectTerm) term() {}

func (o ObjectTerm) String() string { return string(o) }

// FluentRef is a fluent application as written inside a template, with
// arguments still expressed as terms rather than resolved objects.
type FluentRef struct {
	Name string
	Args []Term
}

// Ref builds a FluentRef over the given terms.
func Ref(name string, args ...Term) FluentRef {
	return FluentRef{Name: name, Args: args}
}

// String renders the reference for diagnostics, e.g. "robot_at(?r,?to)".
func (r FluentRef) String() string {
	parts := make([]string, len(r.Args))
	for i, a := range r.Args {
		parts[i] = a.String()
	}
	return r.Name + "(" + strings.Join(parts, ",") + ")"
}

// Expr is a sealed interface over effect value expressions.
// Only Lit and Delta implement it.
type Expr interface {
	expr() // Sealed
}

// Lit assigns a literal value.
type Lit struct {
	Value Value
}

func (Lit) expr() {}

// Delta adds a signed amount to the fluent's current value.
// Only valid for integer fluents; reading the current value of a key that
// was never assigned is an error, not a silent zero.
type Delta struct {
	Amount int64
}

func (Delta) expr() {}

// ClauseKind distinguishes conditions from effects.
type ClauseKind int

const (
	// ClauseCondition is a boolean test on a fluent application.
	ClauseCondition ClauseKind = iota + 1
	// ClauseEffect is an assignment to a fluent application.
	ClauseEffect
)

// Clause is one timed condition or effect of an action template.
// Within a template, clauses are uniform: the timeline engine treats every
// clause, regardless of offset, as one global event after instantiation.
type Clause struct {
	Offset Offset
	Kind   ClauseKind
	Fluent FluentRef

	// Condition fields.
	Want   Value // expected value
	Negate bool  // invert the comparison

	// Effect field.
	Expr Expr
}

// Condition builds a timed condition clause: the fluent must equal want.
func Condition(off Offset, ref FluentRef, want Value) Clause {
	return Clause{Offset: off, Kind: ClauseCondition, Fluent: ref, Want: want}
}

// ConditionNot builds a negated condition: the fluent must not equal want.
func ConditionNot(off Offset, ref FluentRef, want Value) Clause {
	return Clause{Offset: off, Kind: ClauseCondition, Fluent: ref, Want: want, Negate: true}
}

// Effect builds a timed effect clause assigning the expression's value.
func Effect(off Offset, ref FluentRef, expr Expr) Clause {
	return Clause{Offset: off, Kind: ClauseEffect, Fluent: ref, Expr: expr}
}

// Assign is shorthand for a literal-value effect.
func Assign(off Offset, ref FluentRef, v Value) Clause {
	return Effect(off, ref, Lit{Value: v})
}

// Template is a parametrized, reusable specification of a durative
// activity with timed conditions and effects. Templates are validated
// against the domain schema when registered and immutable afterwards.
type Template struct {
	Name     string
	Params   []Param
	Duration DurationExpr
	Clauses  []Clause
}

// param returns the declared parameter with the given name, if any.
func (t *Template) param(name string) (Param, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}
