package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roiken/tempoval/internal/model"
	"github.com/roiken/tempoval/internal/state"
)

// Code categorizes validation failures for reporting surfaces (CLI, run
// log). Load-time errors carry their own types in the model package; the
// codes here cover simulation-time and goal verdicts.
type Code string

const (
	// CodePreconditionViolation: a condition did not hold at its scheduled time.
	CodePreconditionViolation Code = "PRECONDITION_VIOLATION"

	// CodeConflictingEffect: two instances disagree on a simultaneous write.
	CodeConflictingEffect Code = "CONFLICTING_EFFECT"

	// CodeUnassignedFluent: a key was read strictly before any assignment.
	CodeUnassignedFluent Code = "UNASSIGNED_FLUENT"

	// CodeGoalNotSatisfied: simulation succeeded but the goal does not hold.
	CodeGoalNotSatisfied Code = "GOAL_NOT_SATISFIED"

	// CodeBudgetExceeded: the caller-imposed event budget ran out.
	CodeBudgetExceeded Code = "BUDGET_EXCEEDED"
)

// PreconditionViolation reports a condition that failed at its scheduled
// time. The engine stops at the first violation; the fields identify the
// exact action instance, clause, and time point.
type PreconditionViolation struct {
	Instance string
	Clause   string // rendered clause, e.g. "is_depot(?p)=true@start"
	Key      model.Key
	Time     int64
	Want     model.Value
	Negate   bool
	Got      model.Value
}

// Error implements the error interface.
func (e *PreconditionViolation) Error() string {
	op := "="
	if e.Negate {
		op = "!="
	}
	return fmt.Sprintf("precondition violation in %s at time %d: %s%s%s does not hold (current value %s)",
		e.Instance, e.Time, e.Key, op, e.Want, e.Got)
}

// GoalNotSatisfiedError reports every goal clause that fails against the
// terminal state, not just the first, so a caller can diagnose a near-miss
// plan. Returned only after a fully successful simulation.
type GoalNotSatisfiedError struct {
	Unsatisfied []model.GoalClause
}

// Error implements the error interface.
func (e *GoalNotSatisfiedError) Error() string {
	parts := make([]string, len(e.Unsatisfied))
	for i, g := range e.Unsatisfied {
		parts[i] = g.String()
	}
	return fmt.Sprintf("goal not satisfied: %s", strings.Join(parts, ", "))
}

// BudgetExceededError reports that the sweep hit the caller-imposed event
// budget before completing. Events counts the events actually processed
// before the guard fired. It says nothing about plan validity, only that
// the caller cut the run short.
type BudgetExceededError struct {
	Events int
	Limit  int
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("event budget exceeded: stopped after %d events (limit %d)", e.Events, e.Limit)
}

// IsPreconditionViolation returns true if the error is a PreconditionViolation.
// Uses errors.As to handle wrapped errors.
func IsPreconditionViolation(err error) bool {
	var pv *PreconditionViolation
	return errors.As(err, &pv)
}

// IsGoalNotSatisfied returns true if the error is a GoalNotSatisfiedError.
func IsGoalNotSatisfied(err error) bool {
	var ge *GoalNotSatisfiedError
	return errors.As(err, &ge)
}

// IsBudgetExceeded returns true if the error is a BudgetExceededError.
func IsBudgetExceeded(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}

// ErrorCode maps a validation error - from this package or the state
// store - to its reporting code. Unrecognized errors map to the empty
// code; callers treat those as command-level failures.
func ErrorCode(err error) Code {
	switch {
	case IsPreconditionViolation(err):
		return CodePreconditionViolation
	case IsGoalNotSatisfied(err):
		return CodeGoalNotSatisfied
	case IsBudgetExceeded(err):
		return CodeBudgetExceeded
	case state.IsConflict(err):
		return CodeConflictingEffect
	case state.IsUnassigned(err):
		return CodeUnassignedFluent
	}
	return ""
}
