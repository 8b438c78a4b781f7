package state

import (
	"errors"
	"fmt"

	"github.com/roiken/tempoval/internal/model"
)

// UnassignedError is returned when a fluent key is read at a time point
// strictly before any assignment to it. Reading an unassigned key is an
// error, never a fabricated default.
type UnassignedError struct {
	Key  model.Key
	Time int64
}

// Error implements the error interface.
func (e *UnassignedError) Error() string {
	return fmt.Sprintf("fluent %s is unassigned at time %d", e.Key, e.Time)
}

// ConflictError is returned when two different action instances write
// different values to the same fluent key at the identical timestamp.
// The resulting state would be ambiguous, so this is a hard failure.
type ConflictError struct {
	Key     model.Key
	Time    int64
	SourceA string
	SourceB string
	ValueA  model.Value
	ValueB  model.Value
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting effects on %s at time %d: %s writes %s, %s writes %s",
		e.Key, e.Time, e.SourceA, e.ValueA, e.SourceB, e.ValueB)
}

// IsUnassigned returns true if the error is an UnassignedError.
// Uses errors.As to handle wrapped errors.
func IsUnassigned(err error) bool {
	var ue *UnassignedError
	return errors.As(err, &ue)
}

// IsConflict returns true if the error is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
