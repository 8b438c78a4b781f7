// Package state holds the mutable fluent state of a running simulation as
// an explicit, append-only history per fluent key.
//
// Reads are pure functions over the history: Read(key, at) returns the
// value written by the latest entry with timestamp <= at, or fails with
// UnassignedError when no assignment precedes the read. History is never
// overwritten, only appended, so every state transition stays attributable
// to the event that caused it.
//
// The store does no locking. The timeline engine processes events strictly
// in their total order from a single goroutine; that order is the
// concurrency-control mechanism.
package state
