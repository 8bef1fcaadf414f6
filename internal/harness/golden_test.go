package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixpoint/internal/ir"
)

// TestGoldenScenarios runs every scenario under testdata/scenarios and
// compares its trace against the matching golden file. Run with -update
// to regenerate the golden files after an intentional trace change.
func TestGoldenScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestTraceSnapshot_OmitsRecordIDs(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/count_ones_basic.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotEmpty(t, result.Trace)
	require.NotEmpty(t, result.Trace[0].ID)

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		SessionToken: scenario.SessionToken,
		Trace:        result.Trace,
	}
	obj := snapshot.toCanonicalObj()

	trace, ok := obj["trace"].(ir.Arr)
	require.True(t, ok)
	require.Len(t, trace, 1)
	rec, ok := trace[0].(ir.Obj)
	require.True(t, ok)
	assert.NotContains(t, rec, "id")
	assert.NotContains(t, rec, "session_token")
	assert.Contains(t, rec, "seq")
}
