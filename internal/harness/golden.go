package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file shape for a scenario execution. Every
// field is deterministic: the trace is totally ordered by the engine and
// fluent keys are rendered in canonical text form.
type TraceSnapshot struct {
	ScenarioName string          `json:"scenario_name"`
	Verdict      string          `json:"verdict"`
	Code         string          `json:"code,omitempty"`
	Trace        []SnapshotEvent `json:"trace"`
}

// SnapshotEvent is one state change in a trace snapshot.
type SnapshotEvent struct {
	Seq    int64  `json:"seq"`
	Time   int64  `json:"time"`
	Fluent string `json:"fluent"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// RunWithGolden executes a scenario and compares its trace snapshot
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) error {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return err
	}
	AssertGolden(t, s.Name, result)
	return nil
}

// AssertGolden compares an already-obtained result against the golden
// file for the given scenario name.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Verdict:      result.Verdict,
		Code:         result.Code,
		Trace:        make([]SnapshotEvent, 0, len(result.Changes)),
	}
	for _, ch := range result.Changes {
		snapshot.Trace = append(snapshot.Trace, SnapshotEvent{
			Seq:    ch.Seq,
			Time:   ch.Time,
			Fluent: ch.Key.String(),
			Value:  ch.Value.String(),
			Source: ch.Source,
		})
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
}
