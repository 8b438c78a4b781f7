package model

import (
	"errors"
	"fmt"
)

// Load-time errors. These indicate the domain or plan is not well-formed
// and simulation cannot proceed at all. They are never produced during
// the timeline sweep itself.

// TypeMismatchError is returned when an object is bound to a parameter
// (or fluent argument slot) whose declared type it does not have.
type TypeMismatchError struct {
	Template string // action template, empty for schema-level mismatches
	Param    string // formal parameter or argument slot name
	Want     string // declared type
	Got      string // actual type of the bound object
	Object   string // the offending object name
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	if e.Template != "" {
		return fmt.Sprintf("type mismatch in %s: parameter %s wants %s, object %s is %s",
			e.Template, e.Param, e.Want, e.Object, e.Got)
	}
	return fmt.Sprintf("type mismatch: %s wants %s, object %s is %s",
		e.Param, e.Want, e.Object, e.Got)
}

// ArityError is returned when a binding does not supply exactly one
// object per formal parameter.
type ArityError struct {
	Template string
	Want     int
	Got      int
}

// Error implements the error interface.
func (e *ArityError) Error() string {
	return fmt.Sprintf("arity mismatch for %s: want %d arguments, got %d", e.Template, e.Want, e.Got)
}

// MalformedTemplateError is returned when an action template violates a
// structural invariant: negative duration, clause offset outside
// [0, duration], references to unknown fluents, or two effects that
// assign different values to the identical fluent key at the identical
// time within one instance.
type MalformedTemplateError struct {
	Template string
	Reason   string
}

// Error implements the error interface.
func (e *MalformedTemplateError) Error() string {
	return fmt.Sprintf("malformed template %s: %s", e.Template, e.Reason)
}

// IsTypeMismatch returns true if the error is a TypeMismatchError.
// Uses errors.As to handle wrapped errors.
func IsTypeMismatch(err error) bool {
	var te *TypeMismatchError
	return errors.As(err, &te)
}

// IsArityError returns true if the error is an ArityError.
func IsArityError(err error) bool {
	var ae *ArityError
	return errors.As(err, &ae)
}

// IsMalformedTemplate returns true if the error is a MalformedTemplateError.
func IsMalformedTemplate(err error) bool {
	var me *MalformedTemplateError
	return errors.As(err, &me)
}
