package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roiken/tempoval/internal/model"
)

func movePlan() *model.Plan {
	return &model.Plan{
		Instances: []model.Instance{
			{Template: "move", Args: []string{"r0", "p1", "p0"}, Start: 0},
		},
		Init: []model.Assignment{
			assign("robot_at", []string{"r0", "p1"}, model.Bool(true)),
			assign("robot_at", []string{"r0", "p0"}, model.Bool(false)),
			assign("battery_level", []string{"r0"}, model.Int(8)),
		},
	}
}

// TestTrace_Restartable tests that the trace sequence yields identical
// events on every iteration.
func TestTrace_Restartable(t *testing.T) {
	d := logisticsDomain(t)
	seq := Trace(d, movePlan())

	var first, second []StateChange
	for ch := range seq {
		first = append(first, ch)
	}
	for ch := range seq {
		second = append(second, ch)
	}

	require.Len(t, first, 6)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i], "event %d", i)
	}
}

// TestTrace_EarlyStop tests that breaking out of the range stops the
// sweep without error.
func TestTrace_EarlyStop(t *testing.T) {
	d := logisticsDomain(t)

	var taken []StateChange
	for ch := range Trace(d, movePlan()) {
		taken = append(taken, ch)
		if len(taken) == 2 {
			break
		}
	}
	require.Len(t, taken, 2)
	assert.Equal(t, "robot_at(r0,p1)", taken[0].Key.String())
	assert.Equal(t, "robot_at(r0,p0)", taken[1].Key.String())
}

// TestCollectTrace_PartialOnFailure tests that a failing plan still
// yields the changes leading up to the failure alongside the verdict,
// and that the plan end time is reported even for a failed sweep.
func TestCollectTrace_PartialOnFailure(t *testing.T) {
	d := logisticsDomain(t)
	p := movePlan()
	// Flip the robot's position so the start condition fails after the
	// init writes have been applied.
	p.Init[0].Value = model.Bool(false)

	changes, end, err := CollectTrace(d, p)
	require.Error(t, err)
	assert.True(t, IsPreconditionViolation(err))
	assert.Len(t, changes, 3, "init writes precede the failing condition")
	assert.Equal(t, int64(1), end, "the end time is known before the sweep starts")
}

// TestCollectTrace_IncludesGoalVerdict tests that CollectTrace reports
// goal failures, unlike the raw sweep.
func TestCollectTrace_IncludesGoalVerdict(t *testing.T) {
	d := logisticsDomain(t)
	p := movePlan()
	p.Goal = []model.GoalClause{
		{Fluent: "robot_at", Args: []string{"r0", "p1"}, Want: model.Bool(true)},
	}

	changes, end, err := CollectTrace(d, p)
	require.Error(t, err)
	assert.True(t, IsGoalNotSatisfied(err))
	assert.Len(t, changes, 6, "the full trace is kept on goal failure")
	assert.Equal(t, int64(1), end)
}
