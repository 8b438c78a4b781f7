// Package tracelog persists validation runs to an append-only SQLite log.
//
// Each run records the verdict (valid, or the failure code and message)
// and the full state-change trace in event order. Writes are idempotent
// via ON CONFLICT DO NOTHING, so re-recording a run under the same ID is
// harmless. The log is a diagnostics surface for the trace command; the
// engine itself never depends on it.
package tracelog
