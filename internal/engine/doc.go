// Package engine validates candidate plans against a temporal planning
// domain by discrete-event simulation.
//
// Validation is a pure, deterministic fold: every instantiated clause and
// every initial assignment becomes one event in a single, totally ordered
// stream keyed by (time, phase, instance, clause index), where the phase
// orders initial assignments before conditions before effects at the same
// timestamp. The stream is swept once against the state store; the first
// failing event is the definitive verdict. There are no retries and no
// backtracking - given the same plan, the engine always produces the same
// terminal state or the same first failure.
//
// Entry points: Validate for a verdict plus terminal state, Trace for a
// lazy, restartable sequence of state-change events.
package engine
