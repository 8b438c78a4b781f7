package harness

import (
	"fmt"

	"github.com/roiken/tempoval/internal/engine"
	"github.com/roiken/tempoval/internal/loader"
	"github.com/roiken/tempoval/internal/model"
)

// Result captures a scenario execution: the verdict, the failure code
// when invalid, and the state-change trace up to the point the run
// stopped.
type Result struct {
	Verdict string // "valid" or "invalid"
	Code    string // failure code, empty when valid
	Failure string // failure message, empty when valid
	Changes []engine.StateChange
}

// Run executes a scenario: loads its domain and plan, runs the
// simulation, checks the expected verdict, and evaluates every
// assertion. The result is returned for golden comparison even when an
// assertion fails, so callers can inspect the trace.
func Run(s *Scenario) (*Result, error) {
	d, err := loader.LoadDomain(s.Domain)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	p, err := loader.LoadPlan(s.Plan)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	changes, _, verr := engine.CollectTrace(d, p)
	result := &Result{Verdict: "valid", Changes: changes}
	if verr != nil {
		result.Verdict = "invalid"
		result.Code = string(engine.ErrorCode(verr))
		result.Failure = verr.Error()
	}

	if result.Verdict != s.Expect.Verdict {
		return result, fmt.Errorf("scenario %s: verdict %s, want %s (failure: %s)",
			s.Name, result.Verdict, s.Expect.Verdict, result.Failure)
	}
	if s.Expect.Code != "" && result.Code != s.Expect.Code {
		return result, fmt.Errorf("scenario %s: failure code %s, want %s (failure: %s)",
			s.Name, result.Code, s.Expect.Code, result.Failure)
	}

	for i, a := range s.Assertions {
		if err := checkAssertion(result, &a); err != nil {
			return result, fmt.Errorf("scenario %s: assertions[%d]: %w", s.Name, i, err)
		}
	}
	return result, nil
}

// checkAssertion evaluates one assertion against the trace.
func checkAssertion(r *Result, a *Assertion) error {
	key := model.Key{Fluent: a.Fluent, Args: a.Args}.String()

	switch a.Type {
	case AssertFinalState:
		want, ok := model.ParseValue(a.Value)
		if !ok {
			return fmt.Errorf("value must be bool or int, got %T", a.Value)
		}
		var got model.Value
		for _, ch := range r.Changes {
			if ch.Key.String() == key {
				got = ch.Value
			}
		}
		if got == nil {
			return fmt.Errorf("%s: never assigned", key)
		}
		if !model.Equal(got, want) {
			return fmt.Errorf("%s: final value %s, want %s", key, got, want)
		}
		return nil

	case AssertTraceContains:
		want, ok := model.ParseValue(a.Value)
		if !ok {
			return fmt.Errorf("value must be bool or int, got %T", a.Value)
		}
		for _, ch := range r.Changes {
			if ch.Key.String() != key || !model.Equal(ch.Value, want) {
				continue
			}
			if a.Time != nil && ch.Time != *a.Time {
				continue
			}
			return nil
		}
		if a.Time != nil {
			return fmt.Errorf("%s = %s at t=%d: not in trace", key, want, *a.Time)
		}
		return fmt.Errorf("%s = %s: not in trace", key, want)

	case AssertTraceCount:
		count := 0
		for _, ch := range r.Changes {
			if ch.Key.String() == key {
				count++
			}
		}
		if count != a.Count {
			return fmt.Errorf("%s: %d writes in trace, want %d", key, count, a.Count)
		}
		return nil

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}
