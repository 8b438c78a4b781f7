package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with the given args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// TestValidateCommand_ValidPlan tests the happy path: exit code 0 and the
// success banner.
func TestValidateCommand_ValidPlan(t *testing.T) {
	out, err := execute(t, "validate",
		"--domain", "testdata/logistics.cue",
		"--plan", "testdata/valid.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Plan valid")
	assert.Contains(t, out, "End time: 1")
	assert.Contains(t, out, "Changes:  6")
}

// TestValidateCommand_GoalNotSatisfied tests that an invalid plan exits
// with code 1 and the failure code.
func TestValidateCommand_GoalNotSatisfied(t *testing.T) {
	out, err := execute(t, "validate",
		"--domain", "testdata/logistics.cue",
		"--plan", "testdata/near_miss.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "GOAL_NOT_SATISFIED")
	assert.Contains(t, out, "robot_at(r0,p1)=true")
}

// TestValidateCommand_MissingInputs tests that unreadable documents are
// command errors (exit code 2), not plan verdicts.
func TestValidateCommand_MissingInputs(t *testing.T) {
	_, err := execute(t, "validate",
		"--domain", "testdata/absent.cue",
		"--plan", "testdata/valid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "validate",
		"--domain", "testdata/logistics.cue",
		"--plan", "testdata/absent.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// TestValidateCommand_JSONOutput tests the machine-readable format.
func TestValidateCommand_JSONOutput(t *testing.T) {
	out, err := execute(t, "validate",
		"--format", "json",
		"--domain", "testdata/logistics.cue",
		"--plan", "testdata/valid.yaml")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, float64(1), data["end"])
	assert.Equal(t, float64(6), data["changes"])
}

// TestValidateCommand_RecordsRun tests the optional run log: the run ID
// printed by validate can be read back with trace.
func TestValidateCommand_RecordsRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(t, "validate",
		"--domain", "testdata/logistics.cue",
		"--plan", "testdata/valid.yaml",
		"--db", db)
	require.NoError(t, err)

	runID := ""
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Run:") {
			fields := strings.Fields(line)
			runID = fields[len(fields)-1]
		}
	}
	require.NotEmpty(t, runID, "validate should print the recorded run ID")

	traced, err := execute(t, "trace", "--db", db, "--run", runID)
	require.NoError(t, err)
	assert.Contains(t, traced, runID)
	assert.Contains(t, traced, "battery_level(r0) = 7")

	listed, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, listed, runID)
	assert.Contains(t, listed, "valid")
}

// TestValidateCommand_RecordsInvalidRun tests that a failed validation
// still records a complete run log row: the partial trace, the failure
// code, and the plan end time.
func TestValidateCommand_RecordsInvalidRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	_, err := execute(t, "validate",
		"--domain", "testdata/logistics.cue",
		"--plan", "testdata/near_miss.yaml",
		"--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	listed, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, listed, "invalid")
	assert.Contains(t, listed, "GOAL_NOT_SATISFIED")
	assert.Contains(t, listed, "end=1", "the end time is recorded for failed runs")
}

// TestRootCommand_InvalidFormat tests global flag validation.
func TestRootCommand_InvalidFormat(t *testing.T) {
	_, err := execute(t, "validate",
		"--format", "xml",
		"--domain", "testdata/logistics.cue",
		"--plan", "testdata/valid.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
