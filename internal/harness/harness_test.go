package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixpoint/internal/ir"
)

func intp(v int64) *int64 { return &v }

func TestRun_HandledCall_Passes(t *testing.T) {
	scenario := &Scenario{
		Name:        "ctpop_inline",
		Description: "ctpop over an immediate",
		Calls: []CallStep{
			{
				Intrinsic: "ctpop",
				Types:     []string{"u32"},
				Args:      []OperandSpec{{Type: "u32", Int: intp(0xFF)}},
				Dest:      "u32",
				Expect:    &ExpectClause{Outcome: "handled", Int: intp(8)},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "ctpop", result.Trace[0].Intrinsic)
	assert.Equal(t, ir.OutcomeHandled, result.Trace[0].Outcome)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
}

func TestRun_ResultMismatch_Fails(t *testing.T) {
	scenario := &Scenario{
		Name:        "ctpop_wrong_expect",
		Description: "expect clause disagrees with the evaluator",
		Calls: []CallStep{
			{
				Intrinsic: "ctpop",
				Types:     []string{"u32"},
				Args:      []OperandSpec{{Type: "u32", Int: intp(0xFF)}},
				Dest:      "u32",
				Expect:    &ExpectClause{Int: intp(7)},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected result 7, got 8")
}

func TestRun_UnitDestination_IsInvalidProgram(t *testing.T) {
	scenario := &Scenario{
		Name:        "ctpop_unit_dest",
		Description: "a zero-size destination is a malformed call, not a crash",
		Calls: []CallStep{
			{
				Intrinsic: "ctpop",
				Types:     []string{"u32"},
				Args:      []OperandSpec{{Type: "u32", Int: intp(0xFF)}},
				Dest:      "()",
				Expect: &ExpectClause{
					Outcome:   "error",
					ErrorKind: "INVALID_PROGRAM",
				},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, ir.OutcomeError, result.Trace[0].Outcome)
	assert.Equal(t, "INVALID_PROGRAM", result.Trace[0].ErrorKind)
}

func TestRun_OddWidthIntOperand_FailsCleanly(t *testing.T) {
	scenario := &Scenario{
		Name:        "packed3_int_operand",
		Description: "a layout without a scalar width cannot carry an immediate",
		Layouts:     []string{"testdata/layouts/packed3.cue"},
		Calls: []CallStep{
			{
				Intrinsic: "ctpop",
				Types:     []string{"Packed3"},
				Args:      []OperandSpec{{Type: "Packed3", Int: intp(1)}},
				Dest:      "u32",
			},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no scalar width")
}

func TestRun_OutcomeMismatch_Fails(t *testing.T) {
	scenario := &Scenario{
		Name:        "division_expected_clean",
		Description: "an error outcome fails a handled expectation",
		Calls: []CallStep{
			{
				Intrinsic: "exact_div",
				Types:     []string{"u32"},
				Args: []OperandSpec{
					{Type: "u32", Int: intp(10)},
					{Type: "u32", Int: intp(3)},
				},
				Dest: "u32",
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected outcome "handled", got "error"`)
}

func TestRun_ExpectedError_RuleValidated(t *testing.T) {
	scenario := &Scenario{
		Name:        "division_expected_fault",
		Description: "error kind and rule are matched against the classification",
		Calls: []CallStep{
			{
				Intrinsic: "exact_div",
				Types:     []string{"u32"},
				Args: []OperandSpec{
					{Type: "u32", Int: intp(10)},
					{Type: "u32", Int: intp(3)},
				},
				Dest: "u32",
				Expect: &ExpectClause{
					Outcome:   "error",
					ErrorKind: "UNDEFINED_BEHAVIOR",
					ErrorRule: "EXACT_DIV_HAS_REMAINDER",
				},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, ir.OutcomeError, result.Trace[0].Outcome)
	assert.Equal(t, "EXACT_DIV_HAS_REMAINDER", result.Trace[0].ErrorRule)
}

func TestRun_WrongErrorRule_Fails(t *testing.T) {
	scenario := &Scenario{
		Name:        "division_wrong_rule",
		Description: "a mismatched rule expectation fails",
		Calls: []CallStep{
			{
				Intrinsic: "exact_div",
				Types:     []string{"u32"},
				Args: []OperandSpec{
					{Type: "u32", Int: intp(10)},
					{Type: "u32", Int: intp(0)},
				},
				Dest: "u32",
				Expect: &ExpectClause{
					Outcome:   "error",
					ErrorRule: "EXACT_DIV_HAS_REMAINDER",
				},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected error rule "EXACT_DIV_HAS_REMAINDER", got "DIVISION_BY_ZERO"`)
}

func TestRun_UnhandledIntrinsic(t *testing.T) {
	scenario := &Scenario{
		Name:        "unknown_intrinsic",
		Description: "an unknown intrinsic reports unhandled",
		Calls: []CallStep{
			{
				Intrinsic: "transmute",
				Expect:    &ExpectClause{Outcome: "unhandled"},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, ir.OutcomeUnhandled, result.Trace[0].Outcome)
}

func TestRun_SetupAllocationsAndPointers(t *testing.T) {
	scenario := &Scenario{
		Name:        "copy_between_buffers",
		Description: "copy_nonoverlapping moves setup bytes between allocations",
		Setup: []AllocStep{
			{Name: "src", Size: 4, Bytes: []int{0xDE, 0xAD, 0xBE, 0xEF}},
			{Name: "dst", Size: 4},
		},
		Calls: []CallStep{
			{
				Intrinsic: "copy_nonoverlapping",
				Types:     []string{"u8"},
				Args: []OperandSpec{
					{Type: "*const u8", Ptr: "src"},
					{Type: "*mut u8", Ptr: "dst"},
					{Type: "usize", Int: intp(4)},
				},
			},
			{
				Intrinsic: "compare_bytes",
				Types:     []string{},
				Args: []OperandSpec{
					{Type: "*const u8", Ptr: "src"},
					{Type: "*const u8", Ptr: "dst"},
					{Type: "usize", Int: intp(4)},
				},
				Dest:   "i32",
				Expect: &ExpectClause{Int: intp(0)},
			},
		},
		Assertions: []Assertion{
			{Type: AssertTraceOrder, Intrinsics: []string{"copy_nonoverlapping", "compare_bytes"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 2)
}

func TestRun_UninitAllocation_FaultsOnRead(t *testing.T) {
	scenario := &Scenario{
		Name:        "uninit_compare",
		Description: "comparing uninitialized bytes is undefined behavior",
		Setup: []AllocStep{
			{Name: "a", Size: 4, Uninit: true},
			{Name: "b", Size: 4},
		},
		Calls: []CallStep{
			{
				Intrinsic: "compare_bytes",
				Args: []OperandSpec{
					{Type: "*const u8", Ptr: "a"},
					{Type: "*const u8", Ptr: "b"},
					{Type: "usize", Int: intp(4)},
				},
				Dest: "i32",
				Expect: &ExpectClause{
					Outcome:   "error",
					ErrorRule: "UNINITIALIZED_READ",
				},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_AbortOutcome(t *testing.T) {
	scenario := &Scenario{
		Name:        "assert_inhabited_never",
		Description: "instantiating an uninhabited type aborts",
		Layouts:     []string{"testdata/layouts/never.cue"},
		Calls: []CallStep{
			{
				Intrinsic: "assert_inhabited",
				Types:     []string{"Never"},
				Expect:    &ExpectClause{Outcome: "abort"},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, ir.OutcomeAbort, result.Trace[0].Outcome)
}

func TestRun_CueLayoutMergesOverBuiltin(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/custom_layout_variants.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_DeterministicAcrossRuns(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/pointer_round_trip.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	require.Equal(t, len(first.Trace), len(second.Trace))
	for i := range first.Trace {
		assert.Equal(t, first.Trace[i].ID, second.Trace[i].ID, "record %d", i)
		assert.Equal(t, first.Trace[i].Args, second.Trace[i].Args, "record %d", i)
	}
}

func TestRun_MismatchedCallsStillProduceFullTrace(t *testing.T) {
	scenario := &Scenario{
		Name:        "keeps_going",
		Description: "a failed expectation does not stop later calls",
		Calls: []CallStep{
			{
				Intrinsic: "ctpop",
				Types:     []string{"u32"},
				Args:      []OperandSpec{{Type: "u32", Int: intp(1)}},
				Dest:      "u32",
				Expect:    &ExpectClause{Outcome: "error"},
			},
			{
				Intrinsic: "bswap",
				Types:     []string{"u32"},
				Args:      []OperandSpec{{Type: "u32", Int: intp(1)}},
				Dest:      "u32",
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Len(t, result.Trace, 2)
}
