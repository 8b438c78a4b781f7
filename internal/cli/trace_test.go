package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTraceCommand_Live tests computing a trace straight from documents.
func TestTraceCommand_Live(t *testing.T) {
	out, err := execute(t, "trace",
		"--domain", "testdata/logistics.cue",
		"--plan", "testdata/valid.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "robot_at(r0,p1) = true")
	assert.Contains(t, out, "battery_level(r0) = 7")
	assert.Contains(t, out, "[init]")
	assert.Contains(t, out, "[move(r0,p1,p0)@0]")
}

// TestTraceCommand_LiveFailure tests that a failing plan still prints the
// partial trace and exits with the failure code.
func TestTraceCommand_LiveFailure(t *testing.T) {
	out, err := execute(t, "trace",
		"--domain", "testdata/logistics.cue",
		"--plan", "testdata/near_miss.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "battery_level(r0) = 7", "partial trace precedes the verdict")
	assert.Contains(t, out, "GOAL_NOT_SATISFIED")
}

// TestTraceCommand_LiveJSON tests the JSON trace payload.
func TestTraceCommand_LiveJSON(t *testing.T) {
	out, err := execute(t, "trace",
		"--format", "json",
		"--domain", "testdata/logistics.cue",
		"--plan", "testdata/valid.yaml")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	changes, ok := data["changes"].([]any)
	require.True(t, ok)
	assert.Len(t, changes, 6)
}

// TestTraceCommand_NoInputs tests the flag requirements.
func TestTraceCommand_NoInputs(t *testing.T) {
	_, err := execute(t, "trace")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// TestTraceCommand_UnknownRun tests reading a run that was never
// recorded.
func TestTraceCommand_UnknownRun(t *testing.T) {
	db := t.TempDir() + "/runs.db"
	_, err := execute(t, "trace", "--db", db, "--run", "absent")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
