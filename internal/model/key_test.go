package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestKey_String tests the canonical key rendering. The canonical form is
// persisted in the run log, so it must stay stable.
func TestKey_String(t *testing.T) {
	assert.Equal(t, "robot_at(r0,p1)", NewKey("robot_at", "r0", "p1").String())
	assert.Equal(t, "battery_level(r0)", NewKey("battery_level", "r0").String())
	assert.Equal(t, "global_flag()", NewKey("global_flag").String())
}

// TestEqualKeys tests key identity over name and argument tuple.
func TestEqualKeys(t *testing.T) {
	a := NewKey("robot_at", "r0", "p1")
	assert.True(t, EqualKeys(a, NewKey("robot_at", "r0", "p1")))
	assert.False(t, EqualKeys(a, NewKey("robot_at", "r0", "p0")))
	assert.False(t, EqualKeys(a, NewKey("robot_at", "r0")))
	assert.False(t, EqualKeys(a, NewKey("pallet_at", "r0", "p1")))
}

// TestInstance_DerivedID tests the deterministic instance ID fallback.
func TestInstance_DerivedID(t *testing.T) {
	in := Instance{Template: "move", Args: []string{"r0", "p1", "p0"}, Start: 0}
	assert.Equal(t, "move(r0,p1,p0)@0", in.InstanceID())

	in.ID = "custom"
	assert.Equal(t, "custom", in.InstanceID())
}

// TestGoalClause_String tests goal clause rendering in diagnostics.
func TestGoalClause_String(t *testing.T) {
	g := GoalClause{Fluent: "treated", Args: []string{"b0", "t0"}, Want: Bool(true)}
	assert.Equal(t, "treated(b0,t0)=true", g.String())

	g.Negate = true
	assert.Equal(t, "treated(b0,t0)!=true", g.String())
}

// TestOffset_ResolveAndString tests offset arithmetic and rendering.
func TestOffset_ResolveAndString(t *testing.T) {
	assert.Equal(t, int64(5), StartOffset().Resolve(5, 20))
	assert.Equal(t, int64(25), EndOffset().Resolve(5, 20))
	assert.Equal(t, int64(15), OffsetAt(10).Resolve(5, 20))

	assert.Equal(t, "start", StartOffset().String())
	assert.Equal(t, "end", EndOffset().String())
	assert.Equal(t, "start+10", OffsetAt(10).String())
}
