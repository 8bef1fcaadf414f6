package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/fixpoint/internal/ir"
)

// AssertionError is returned when a trace assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Trace    []ir.EvalRecord // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, rec := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s (%s)\n", i+1, rec.Intrinsic, rec.Outcome)
	}

	return buf.String()
}

// EvaluateAssertions checks all assertions against the result's trace
// and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var msgs []string
	for _, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

// assertTraceContains checks that the trace contains a record for the
// given intrinsic, optionally with a specific outcome.
func assertTraceContains(trace []ir.EvalRecord, assertion Assertion) error {
	for _, rec := range trace {
		if rec.Intrinsic != assertion.Intrinsic {
			continue
		}
		if assertion.Outcome == "" || rec.Outcome == assertion.Outcome {
			return nil
		}
	}

	expected := fmt.Sprintf("intrinsic %s", assertion.Intrinsic)
	if assertion.Outcome != "" {
		expected += fmt.Sprintf(" with outcome %s", assertion.Outcome)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that intrinsics appear in the specified order.
// They don't need to be consecutive (intervening records are allowed).
func assertTraceOrder(trace []ir.EvalRecord, assertion Assertion) error {
	positions := make(map[string]int)

	for i, rec := range trace {
		for _, expected := range assertion.Intrinsics {
			if rec.Intrinsic == expected && positions[expected] == 0 {
				positions[expected] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, name := range assertion.Intrinsics {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all intrinsics present: %v", assertion.Intrinsics),
				Actual:   fmt.Sprintf("missing intrinsic: %s", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Intrinsics); i++ {
		prev := assertion.Intrinsics[i-1]
		curr := assertion.Intrinsics[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("intrinsics in order: %v", assertion.Intrinsics),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks that the intrinsic appears exactly the
// specified number of times.
func assertTraceCount(trace []ir.EvalRecord, assertion Assertion) error {
	count := 0
	for _, rec := range trace {
		if rec.Intrinsic == assertion.Intrinsic {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("intrinsic %s appears %d times", assertion.Intrinsic, assertion.Count),
			Actual:   fmt.Sprintf("appears %d times", count),
			Trace:    trace,
		}
	}

	return nil
}
