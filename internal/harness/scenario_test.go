package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/count_ones_basic.yaml")
	require.NoError(t, err)

	assert.Equal(t, "count_ones_basic", scenario.Name)
	assert.Equal(t, "test-session-golden-0001", scenario.SessionToken)
	require.Len(t, scenario.Calls, 1)
	assert.Equal(t, "ctpop", scenario.Calls[0].Intrinsic)
	assert.Equal(t, []string{"u32"}, scenario.Calls[0].Types)
	require.Len(t, scenario.Calls[0].Args, 1)
	require.NotNil(t, scenario.Calls[0].Args[0].Int)
	assert.Equal(t, int64(255), *scenario.Calls[0].Args[0].Int)
	require.NotNil(t, scenario.Calls[0].Expect)
	assert.Equal(t, "handled", scenario.Calls[0].Expect.Outcome)
}

func TestLoadScenario_ResolvesLayoutPaths(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/custom_layout_variants.yaml")
	require.NoError(t, err)

	require.Len(t, scenario.Layouts, 1)
	assert.Equal(t, filepath.Join("testdata", "layouts", "option.cue"), scenario.Layouts[0])
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does_not_exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenarioFile(t, `
name: typo_scenario
description: "unknown field should be rejected"
callz:
  - intrinsic: ctpop
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing name",
			yaml: `
description: "d"
calls:
  - intrinsic: ctpop
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			yaml: `
name: s
calls:
  - intrinsic: ctpop
`,
			wantErr: "description is required",
		},
		{
			name: "empty calls",
			yaml: `
name: s
description: "d"
calls: []
`,
			wantErr: "calls list is required",
		},
		{
			name: "missing intrinsic",
			yaml: `
name: s
description: "d"
calls:
  - types: [u32]
`,
			wantErr: "intrinsic is required",
		},
		{
			name: "operand with no form",
			yaml: `
name: s
description: "d"
calls:
  - intrinsic: ctpop
    args:
      - { type: u32 }
`,
			wantErr: "exactly one of int, ptr, or addr is required",
		},
		{
			name: "operand with two forms",
			yaml: `
name: s
description: "d"
calls:
  - intrinsic: ctpop
    args:
      - { type: u32, int: 1, addr: 16 }
`,
			wantErr: "exactly one of int, ptr, or addr is required",
		},
		{
			name: "operand missing type",
			yaml: `
name: s
description: "d"
calls:
  - intrinsic: ctpop
    args:
      - { int: 1 }
`,
			wantErr: "type is required",
		},
		{
			name: "unknown allocation reference",
			yaml: `
name: s
description: "d"
calls:
  - intrinsic: offset
    args:
      - { ptr: nowhere, type: "*const u8" }
`,
			wantErr: `unknown allocation "nowhere"`,
		},
		{
			name: "duplicate allocation",
			yaml: `
name: s
description: "d"
setup:
  - { name: buf, size: 8 }
  - { name: buf, size: 8 }
calls:
  - intrinsic: ctpop
    args:
      - { int: 1, type: u32 }
`,
			wantErr: `duplicate allocation name "buf"`,
		},
		{
			name: "bytes exceed size",
			yaml: `
name: s
description: "d"
setup:
  - { name: buf, size: 2, bytes: [1, 2, 3] }
calls:
  - intrinsic: ctpop
    args:
      - { int: 1, type: u32 }
`,
			wantErr: "3 bytes exceed size 2",
		},
		{
			name: "expect int without dest",
			yaml: `
name: s
description: "d"
calls:
  - intrinsic: ctpop
    args:
      - { int: 1, type: u32 }
    expect:
      int: 1
`,
			wantErr: "int requires a dest",
		},
		{
			name: "unknown expected outcome",
			yaml: `
name: s
description: "d"
calls:
  - intrinsic: ctpop
    expect:
      outcome: exploded
`,
			wantErr: `unknown outcome "exploded"`,
		},
		{
			name: "error_rule without error outcome",
			yaml: `
name: s
description: "d"
calls:
  - intrinsic: ctpop
    expect:
      outcome: handled
      error_rule: OUT_OF_BOUNDS
`,
			wantErr: "error_rule requires outcome: error",
		},
		{
			name: "unknown assertion type",
			yaml: `
name: s
description: "d"
calls:
  - intrinsic: ctpop
assertions:
  - type: trace_magic
`,
			wantErr: `unknown assertion type "trace_magic"`,
		},
		{
			name: "trace_order without intrinsics",
			yaml: `
name: s
description: "d"
calls:
  - intrinsic: ctpop
assertions:
  - type: trace_order
`,
			wantErr: "intrinsics list is required for trace_order",
		},
		{
			name: "layout file not found",
			yaml: `
name: s
description: "d"
layouts:
  - /does/not/exist.cue
calls:
  - intrinsic: ctpop
`,
			wantErr: "layout file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenarioFile(t, tt.yaml)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
