package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixpoint/internal/ir"
)

func sampleTrace() []ir.EvalRecord {
	return []ir.EvalRecord{
		{Seq: 1, Intrinsic: "offset", Outcome: ir.OutcomeHandled},
		{Seq: 2, Intrinsic: "copy_nonoverlapping", Outcome: ir.OutcomeHandled},
		{Seq: 3, Intrinsic: "offset", Outcome: ir.OutcomeError, ErrorRule: "OUT_OF_BOUNDS"},
		{Seq: 4, Intrinsic: "ptr_offset_from", Outcome: ir.OutcomeHandled},
	}
}

func TestAssertTraceContains_Found(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{
		Type:      AssertTraceContains,
		Intrinsic: "copy_nonoverlapping",
	})
	assert.NoError(t, err)
}

func TestAssertTraceContains_OutcomeFilter(t *testing.T) {
	trace := sampleTrace()

	err := assertTraceContains(trace, Assertion{
		Type:      AssertTraceContains,
		Intrinsic: "offset",
		Outcome:   ir.OutcomeError,
	})
	assert.NoError(t, err)

	err = assertTraceContains(trace, Assertion{
		Type:      AssertTraceContains,
		Intrinsic: "copy_nonoverlapping",
		Outcome:   ir.OutcomeError,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in trace")
}

func TestAssertTraceContains_Missing(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{
		Type:      AssertTraceContains,
		Intrinsic: "bswap",
	})
	require.Error(t, err)

	var assertionErr *AssertionError
	require.ErrorAs(t, err, &assertionErr)
	assert.Equal(t, AssertTraceContains, assertionErr.Type)
	assert.Contains(t, assertionErr.Expected, "bswap")
}

func TestAssertTraceOrder_InOrder(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{
		Type:       AssertTraceOrder,
		Intrinsics: []string{"offset", "copy_nonoverlapping", "ptr_offset_from"},
	})
	assert.NoError(t, err)
}

func TestAssertTraceOrder_OutOfOrder(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{
		Type:       AssertTraceOrder,
		Intrinsics: []string{"ptr_offset_from", "offset"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should be before")
}

func TestAssertTraceOrder_MissingIntrinsic(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{
		Type:       AssertTraceOrder,
		Intrinsics: []string{"offset", "bswap"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing intrinsic: bswap")
}

func TestAssertTraceCount(t *testing.T) {
	err := assertTraceCount(sampleTrace(), Assertion{
		Type:      AssertTraceCount,
		Intrinsic: "offset",
		Count:     2,
	})
	assert.NoError(t, err)

	err = assertTraceCount(sampleTrace(), Assertion{
		Type:      AssertTraceCount,
		Intrinsic: "offset",
		Count:     1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appears 2 times")
}

func TestAssertTraceCount_ZeroOccurrences(t *testing.T) {
	err := assertTraceCount(sampleTrace(), Assertion{
		Type:      AssertTraceCount,
		Intrinsic: "bswap",
		Count:     0,
	})
	assert.NoError(t, err)
}

func TestEvaluateAssertions_CollectsAllFailures(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()

	msgs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Intrinsic: "offset"},
		{Type: AssertTraceCount, Intrinsic: "offset", Count: 5},
		{Type: AssertTraceOrder, Intrinsics: []string{"ptr_offset_from", "offset"}},
	})

	assert.Len(t, msgs, 2)
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	result := NewResult()

	msgs := EvaluateAssertions(result, []Assertion{{Type: "trace_magic"}})

	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], `unknown assertion type "trace_magic"`)
}
