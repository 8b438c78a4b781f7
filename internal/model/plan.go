package model

import (
	"fmt"
	"strings"
)

// Instance is an action template bound to concrete objects plus an
// absolute start time. Instances are immutable once created; the timeline
// engine treats each as a fixed bundle of absolute-timed clauses.
type Instance struct {
	// ID identifies the instance in traces and error reports. When empty,
	// a deterministic ID is derived from template, arguments, and start.
	ID       string
	Template string
	Args     []string // object names, positional
	Start    int64
}

// InstanceID returns the instance's identifier, deriving a canonical one
// when none was supplied. The derived form is stable across runs so that
// tie-breaking stays reproducible.
func (in Instance) InstanceID() string {
	if in.ID != "" {
		return in.ID
	}
	return fmt.Sprintf("%s(%s)@%d", in.Template, strings.Join(in.Args, ","), in.Start)
}

// Assignment sets one fluent key to a value in the initial state. Initial
// assignments are applied strictly before any action event, conventionally
// at time 0 in the init phase.
type Assignment struct {
	Fluent string
	Args   []string
	Value  Value
}

// Key returns the fluent key this assignment targets.
func (a Assignment) Key() Key { return Key{Fluent: a.Fluent, Args: a.Args} }

// GoalClause is one conjunct of the goal condition: a fluent application
// compared against an expected value, with optional negation.
type GoalClause struct {
	Fluent string
	Args   []string
	Want   Value
	Negate bool
}

// Key returns the fluent key this clause tests.
func (g GoalClause) Key() Key { return Key{Fluent: g.Fluent, Args: g.Args} }

// String renders the clause for diagnostics, e.g. "treated(b0,t0)=true".
func (g GoalClause) String() string {
	op := "="
	if g.Negate {
		op = "!="
	}
	return g.Key().String() + op + g.Want.String()
}

// Plan is a candidate plan: an unordered set of action instances, the
// initial-state assignments, and the goal condition. Execution order is
// determined solely by timestamps, never by declaration order.
type Plan struct {
	Instances []Instance
	Init      []Assignment
	Goal      []GoalClause
}
