package state

import (
	"fmt"
	"sort"

	"github.com/roiken/tempoval/internal/model"
)

// InitSource labels initial-state writes in histories and traces.
// Initial assignments are applied strictly before any action event, so an
// action effect landing on the same timestamp overwrites the init value
// rather than conflicting with it.
const InitSource = "init"

// Entry is one recorded write: the value a source assigned to a key at a
// point in simulated time.
type Entry struct {
	Time   int64
	Value  model.Value
	Source string // action instance ID, or InitSource for initial assignments
}

// Store maps fluent keys to their append-only write histories. Histories
// are kept per canonical key string; within one history, entries are
// ordered by timestamp because the engine writes in sweep order.
type Store struct {
	hist map[string][]Entry
	keys map[string]model.Key // canonical string -> structured key
}

// New creates an empty store.
func New() *Store {
	return &Store{
		hist: make(map[string][]Entry),
		keys: make(map[string]model.Key),
	}
}

// Write appends a candidate write to the key's history.
//
// A write that lands on the identical timestamp as an existing entry is
// idempotent when the values agree and a hard ConflictError when they
// disagree: the engine's total order guarantees all same-timestamp writes
// are adjacent, so only the tail of the history needs checking. An init
// entry is exempt: init happens strictly before any action event, so an
// action effect at the same timestamp legally overwrites it. Conflicts
// between two init writes are still rejected.
//
// Writes must arrive in non-decreasing time order; the engine's sweep
// guarantees this, and the store rejects violations rather than silently
// reordering history.
func (s *Store) Write(key model.Key, v model.Value, at int64, source string) error {
	if v == nil {
		return fmt.Errorf("write %s at %d: nil value", key, at)
	}
	ck := key.String()
	h := s.hist[ck]
	if n := len(h); n > 0 {
		last := h[n-1]
		if at < last.Time {
			return fmt.Errorf("write %s at %d: history already at %d", key, at, last.Time)
		}
		if at == last.Time && !model.Equal(last.Value, v) {
			if last.Source != InitSource || source == InitSource {
				return &ConflictError{
					Key:     key,
					Time:    at,
					SourceA: last.Source,
					SourceB: source,
					ValueA:  last.Value,
					ValueB:  v,
				}
			}
		}
	}
	if _, seen := s.keys[ck]; !seen {
		s.keys[ck] = key
	}
	s.hist[ck] = append(h, Entry{Time: at, Value: v, Source: source})
	return nil
}

// Read returns the value in effect at the given time: the value written by
// the latest entry with timestamp <= at. Reads strictly before the first
// assignment fail with UnassignedError.
func (s *Store) Read(key model.Key, at int64) (model.Value, error) {
	h := s.hist[key.String()]
	// Histories are small and time-ordered; binary search for the last
	// entry at or before the requested time.
	i := sort.Search(len(h), func(i int) bool { return h[i].Time > at })
	if i == 0 {
		return nil, &UnassignedError{Key: key, Time: at}
	}
	return h[i-1].Value, nil
}

// Latest returns the most recently written value for the key, i.e. a read
// at positive infinity. Used for terminal-state checks.
func (s *Store) Latest(key model.Key) (model.Value, error) {
	h := s.hist[key.String()]
	if len(h) == 0 {
		return nil, &UnassignedError{Key: key, Time: 0}
	}
	return h[len(h)-1].Value, nil
}

// History returns the full write history for a key, oldest first. The
// returned slice is the store's own; callers must not mutate it.
func (s *Store) History(key model.Key) []Entry {
	return s.hist[key.String()]
}

// Keys returns every key that has at least one entry, sorted by canonical
// string for deterministic iteration.
func (s *Store) Keys() []model.Key {
	names := make([]string, 0, len(s.keys))
	for ck := range s.keys {
		names = append(names, ck)
	}
	sort.Strings(names)
	keys := make([]model.Key, len(names))
	for i, ck := range names {
		keys[i] = s.keys[ck]
	}
	return keys
}

// Snapshot returns the latest value per key, keyed by canonical string.
// This is the terminal state after a completed sweep.
func (s *Store) Snapshot() map[string]model.Value {
	snap := make(map[string]model.Value, len(s.hist))
	for ck, h := range s.hist {
		snap[ck] = h[len(h)-1].Value
	}
	return snap
}
