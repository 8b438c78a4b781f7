package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roiken/tempoval/internal/model"
)

// TestLoadPlan_Deliver tests loading a full plan document.
func TestLoadPlan_Deliver(t *testing.T) {
	p, err := LoadPlan("testdata/deliver.yaml")
	require.NoError(t, err)

	require.Len(t, p.Instances, 1)
	assert.Equal(t, "move", p.Instances[0].Template)
	assert.Equal(t, []string{"r0", "p1", "p0"}, p.Instances[0].Args)
	assert.Equal(t, int64(0), p.Instances[0].Start)

	require.Len(t, p.Init, 3)
	assert.True(t, model.Equal(model.Bool(true), p.Init[0].Value))
	assert.True(t, model.Equal(model.Int(8), p.Init[2].Value))

	require.Len(t, p.Goal, 1)
	assert.Equal(t, "robot_at(r0,p0)=true", p.Goal[0].String())
}

// TestParsePlan_UnknownFieldRejected tests that strict decoding catches
// typos instead of silently dropping a section.
func TestParsePlan_UnknownFieldRejected(t *testing.T) {
	_, err := ParsePlan([]byte(`
name: typo
instanecs:
  - action: move
    args: [r0, p1, p0]
    start: 0
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// TestParsePlan_Validation tests per-entry validation of plan documents.
func TestParsePlan_Validation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing action",
			doc: `
instances:
  - args: [r0]
    start: 0
`,
		},
		{
			name: "negative start",
			doc: `
instances:
  - action: move
    args: [r0, p1, p0]
    start: -2
`,
		},
		{
			name: "float init value",
			doc: `
init:
  - fluent: battery_level
    args: [r0]
    value: 8.5
`,
		},
		{
			name: "string goal value",
			doc: `
goal:
  - fluent: treated
    args: [b0, t0]
    value: "yes"
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

// TestParsePlan_NegatedGoal tests goal negation and explicit instance IDs.
func TestParsePlan_NegatedGoal(t *testing.T) {
	p, err := ParsePlan([]byte(`
instances:
  - id: first-move
    action: move
    args: [r0, p1, p0]
    start: 3
goal:
  - fluent: robot_at
    args: [r0, p1]
    value: true
    negate: true
`))
	require.NoError(t, err)
	assert.Equal(t, "first-move", p.Instances[0].InstanceID())
	require.Len(t, p.Goal, 1)
	assert.True(t, p.Goal[0].Negate)
	assert.Equal(t, "robot_at(r0,p1)!=true", p.Goal[0].String())
}
