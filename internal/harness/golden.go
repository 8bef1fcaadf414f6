package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fixpoint/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string          `json:"scenario_name"`
	SessionToken string          `json:"session_token,omitempty"`
	Trace        []ir.EvalRecord `json:"trace"`
}

// toCanonicalObj converts a TraceSnapshot to an ir.Obj for canonical
// JSON serialization.
//
// Record IDs are omitted from snapshots: they are recomputed from the
// other fields during replay verification (store.VerifySession), so the
// golden file pins the observable trace rather than the hash encoding.
func (s *TraceSnapshot) toCanonicalObj() ir.Obj {
	traceList := make(ir.Arr, len(s.Trace))
	for i, rec := range s.Trace {
		recObj := ir.Obj{
			"seq":       ir.Int(rec.Seq),
			"intrinsic": ir.Str(rec.Intrinsic),
			"args":      rec.Args,
			"outcome":   ir.Str(rec.Outcome),
		}
		if rec.ErrorKind != "" {
			recObj["error_kind"] = ir.Str(rec.ErrorKind)
		}
		if rec.ErrorRule != "" {
			recObj["error_rule"] = ir.Str(rec.ErrorRule)
		}
		if rec.Message != "" {
			recObj["message"] = ir.Str(rec.Message)
		}
		if rec.Result != nil {
			recObj["result"] = rec.Result
		}
		traceList[i] = recObj
	}

	result := ir.Obj{
		"scenario_name": ir.Str(s.ScenarioName),
		"trace":         traceList,
	}
	if s.SessionToken != "" {
		result["session_token"] = ir.Str(s.SessionToken)
	}
	return result
}

// RunWithGolden executes a scenario and compares the trace against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, scenario.SessionToken, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when a scenario has already run and only the comparison
// is needed.
func AssertGolden(t *testing.T, scenarioName, sessionToken string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		SessionToken: sessionToken,
		Trace:        result.Trace,
	}

	traceJSON, err := ir.MarshalCanonical(snapshot.toCanonicalObj())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
