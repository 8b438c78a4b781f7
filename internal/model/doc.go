// Package model defines the immutable vocabulary of a temporal planning
// domain: types, objects, fluent signatures, action templates, and the
// candidate plans that bind them.
//
// Everything in this package is built once at load time and never mutated
// during simulation. The engine package consumes these values to drive a
// deterministic discrete-event sweep; the state package records fluent
// histories keyed by model.Key.
package model
