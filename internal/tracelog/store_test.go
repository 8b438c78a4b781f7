package tracelog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roiken/tempoval/internal/engine"
	"github.com/roiken/tempoval/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleChanges() []engine.StateChange {
	return []engine.StateChange{
		{Seq: 1, Time: 0, Key: model.NewKey("robot_at", "r0", "p1"), Value: model.Bool(true), Source: "init"},
		{Seq: 2, Time: 0, Key: model.NewKey("battery_level", "r0"), Value: model.Int(8), Source: "init"},
		{Seq: 3, Time: 1, Key: model.NewKey("battery_level", "r0"), Value: model.Int(7), Source: "move(r0,p1,p0)@0"},
	}
}

// TestStore_RecordAndReadRun tests the full roundtrip: record a valid
// run, read the header and trace back.
func TestStore_RecordAndReadRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := RunFromError("run-1", "logistics", 1, nil)
	require.NoError(t, s.RecordRun(ctx, run, sampleChanges()))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "logistics", got.Domain)
	assert.Equal(t, VerdictValid, got.Verdict)
	assert.Empty(t, got.Code)
	assert.Equal(t, int64(1), got.End)
	assert.False(t, got.CreatedAt.IsZero())

	changes, err := s.ReadChanges(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, int64(1), changes[0].Seq)
	assert.Equal(t, "robot_at(r0,p1)", changes[0].Fluent)
	assert.True(t, model.Equal(model.Bool(true), changes[0].Value))
	assert.Equal(t, "move(r0,p1,p0)@0", changes[2].Source)
	assert.True(t, model.Equal(model.Int(7), changes[2].Value))
}

// TestStore_RecordRunIdempotent tests that re-recording a run ID is a
// no-op, never an overwrite.
func TestStore_RecordRunIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := RunFromError("run-1", "logistics", 1, nil)
	require.NoError(t, s.RecordRun(ctx, run, sampleChanges()))

	// Second recording with a different trace must not replace the first.
	require.NoError(t, s.RecordRun(ctx, run, nil))

	changes, err := s.ReadChanges(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, changes, 3)
}

// TestStore_RecordInvalidRun tests failure capture: verdict, code, and
// message survive the roundtrip.
func TestStore_RecordInvalidRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	verr := &engine.PreconditionViolation{
		Instance: "load_at_depot(r0,b0,p0)@1",
		Clause:   "is_depot(?p)=true@start",
		Key:      model.NewKey("is_depot", "p0"),
		Time:     1,
		Want:     model.Bool(true),
		Got:      model.Bool(false),
	}
	run := RunFromError("run-2", "logistics", 2, verr)
	require.NoError(t, s.RecordRun(ctx, run, sampleChanges()[:2]))

	got, err := s.ReadRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, VerdictInvalid, got.Verdict)
	assert.Equal(t, string(engine.CodePreconditionViolation), got.Code)
	assert.Contains(t, got.Failure, "is_depot(p0)")
}

// TestStore_ReadRunNotFound tests the missing-run sentinel.
func TestStore_ReadRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ReadRun(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

// TestStore_ListRuns tests run enumeration.
func TestStore_ListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRun(ctx, RunFromError("run-a", "logistics", 1, nil), nil))
	require.NoError(t, s.RecordRun(ctx, RunFromError("run-b", "logistics", 2, nil), nil))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.Contains(t, ids, "run-a")
	assert.Contains(t, ids, "run-b")
}
