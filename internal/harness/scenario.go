package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a domain document, a plan
// document, the expected verdict, and assertions on the resulting trace
// and terminal state.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Domain is the path to the CUE domain document, relative to the
	// scenario file location.
	Domain string `yaml:"domain"`

	// Plan is the path to the YAML plan document, relative to the
	// scenario file location.
	Plan string `yaml:"plan"`

	// Expect describes the expected validation outcome.
	Expect ExpectClause `yaml:"expect"`

	// Assertions validate the trace and the terminal state.
	// Supported types: final_state, trace_contains, trace_count.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectClause is the expected validation outcome of a scenario.
type ExpectClause struct {
	// Verdict is "valid" or "invalid".
	Verdict string `yaml:"verdict"`

	// Code is the required failure code for invalid verdicts, e.g.
	// "PRECONDITION_VIOLATION" or "GOAL_NOT_SATISFIED".
	Code string `yaml:"code,omitempty"`
}

// Assertion validates one fact about the trace or terminal state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Fluent and Args identify the fluent key the assertion inspects.
	Fluent string   `yaml:"fluent"`
	Args   []string `yaml:"args,omitempty"`

	// Value is the expected value (final_state, trace_contains).
	Value any `yaml:"value,omitempty"`

	// Time restricts trace_contains to a specific timestamp. Nil means
	// any timestamp matches.
	Time *int64 `yaml:"time,omitempty"`

	// Count is the expected number of trace writes (trace_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState    = "final_state"
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file, resolving the
// domain and plan paths relative to the scenario file's directory.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	base := filepath.Dir(path)
	if s.Domain != "" && !filepath.IsAbs(s.Domain) {
		s.Domain = filepath.Join(base, s.Domain)
	}
	if s.Plan != "" && !filepath.IsAbs(s.Plan) {
		s.Plan = filepath.Join(base, s.Plan)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// validateScenario checks required fields.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Domain == "" {
		return fmt.Errorf("domain is required")
	}
	if s.Plan == "" {
		return fmt.Errorf("plan is required")
	}
	if _, err := os.Stat(s.Domain); os.IsNotExist(err) {
		return fmt.Errorf("domain file not found: %s", s.Domain)
	}
	if _, err := os.Stat(s.Plan); os.IsNotExist(err) {
		return fmt.Errorf("plan file not found: %s", s.Plan)
	}

	switch s.Expect.Verdict {
	case "valid":
		if s.Expect.Code != "" {
			return fmt.Errorf("expect.code is only meaningful for invalid verdicts")
		}
	case "invalid":
		if s.Expect.Code == "" {
			return fmt.Errorf("expect.code is required for invalid verdicts")
		}
	default:
		return fmt.Errorf("expect.verdict must be valid or invalid, got %q", s.Expect.Verdict)
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertFinalState, AssertTraceContains:
			if a.Fluent == "" {
				return fmt.Errorf("assertions[%d]: fluent is required", i)
			}
			if a.Value == nil {
				return fmt.Errorf("assertions[%d]: value is required", i)
			}
		case AssertTraceCount:
			if a.Fluent == "" {
				return fmt.Errorf("assertions[%d]: fluent is required", i)
			}
			if a.Count < 0 {
				return fmt.Errorf("assertions[%d]: count must be non-negative", i)
			}
		default:
			return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
		}
	}
	return nil
}
