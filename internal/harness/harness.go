package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/fixpoint/internal/eval"
	"github.com/roach88/fixpoint/internal/ir"
	"github.com/roach88/fixpoint/internal/layouts"
	"github.com/roach88/fixpoint/internal/mem"
	"github.com/roach88/fixpoint/internal/store"
	"github.com/roach88/fixpoint/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios with a deterministic clock and a fixed session token.
type Harness struct {
	store  *store.Store
	eval   *eval.Evaluator
	table  ir.LayoutTable
	allocs map[string]mem.Pointer
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database and a fresh memory
// arena for isolation. Deterministic helpers ensure reproducible traces:
// the same scenario always produces the same allocation addresses, seq
// values, and record IDs.
//
// Execution flow:
//  1. Create fresh in-memory trace store
//  2. Compile and merge layout tables from scenario.Layouts
//  3. Execute setup allocations
//  4. Dispatch call steps with expect validation
//  5. Read the trace back and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	table, err := loadLayouts(scenario.Layouts)
	if err != nil {
		return nil, err
	}

	sess := eval.NewSession(testutil.NewFixedTokenGenerator(scenario.SessionToken))
	ctx := context.Background()
	if err := st.WriteSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to write session: %w", err)
	}

	ev := eval.New(table, sess)
	ev.Clock = testutil.NewDeterministicClock()
	ev.Recorder = st
	ev.Logger = slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	h := &Harness{
		store:  st,
		eval:   ev,
		table:  table,
		allocs: make(map[string]mem.Pointer),
		logger: ev.Logger,
	}

	result := NewResult()
	if err := h.executeSetup(scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeCalls(ctx, scenario.Calls, result); err != nil {
		return nil, fmt.Errorf("failed to execute calls: %w", err)
	}

	trace, err := st.ReadSession(ctx, sess.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	result.Trace = trace

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// loadLayouts compiles the scenario's CUE layout files and merges them
// over the builtin table. Later files win on name collisions.
func loadLayouts(paths []string) (ir.LayoutTable, error) {
	table := layouts.Builtin()
	if len(paths) == 0 {
		return table, nil
	}

	cuectx := cuecontext.New()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read layout file: %w", err)
		}
		v := cuectx.CompileBytes(data, cue.Filename(path))
		compiled, err := layouts.CompileTable(v)
		if err != nil {
			return nil, fmt.Errorf("layout file %s: %w", path, err)
		}
		table = table.Merge(compiled)
	}
	return table, nil
}

// executeSetup creates all named allocations.
//
// A fresh allocation is uninitialized; unless the step opts out, the
// harness zero-fills it first so later reads are well defined, then
// writes the step's bytes and stored pointers.
func (h *Harness) executeSetup(setup []AllocStep) error {
	for i, step := range setup {
		align := step.Align
		if align == 0 {
			align = 1
		}
		size := step.Size
		if size == 0 {
			size = uint64(len(step.Bytes))
		}

		ptr := h.eval.Mem.Allocate(size, align)
		h.allocs[step.Name] = ptr

		if !step.Uninit {
			if err := h.eval.Mem.FillBytes(ptr, 0, size); err != nil {
				return fmt.Errorf("setup step %d: zero-fill failed: %w", i, err)
			}
		}
		for j, b := range step.Bytes {
			at := ptr.WrappingOffset(int64(j))
			if err := h.eval.Mem.WriteScalar(at, ir.ScalarFromUint64(uint64(b), 1)); err != nil {
				return fmt.Errorf("setup step %d: byte write failed: %w", i, err)
			}
		}
		for j, p := range step.Pointers {
			target, ok := h.allocs[p.To]
			if !ok {
				return fmt.Errorf("setup step %d: pointer %d targets unknown allocation %q", i, j, p.To)
			}
			at := ptr.WrappingOffset(int64(p.At))
			val := target.WrappingOffset(int64(p.Offset))
			if err := h.eval.Mem.WritePointer(at, val); err != nil {
				return fmt.Errorf("setup step %d: pointer write failed: %w", i, err)
			}
		}

		h.logger.Info("setup allocation created",
			"step", i,
			"name", step.Name,
			"ptr", ptr.String(),
		)
	}
	return nil
}

// executeCalls dispatches all call steps and validates expect clauses.
//
// Each step resolves its operands against the setup allocations,
// allocates a destination if requested, dispatches through the
// evaluator, and compares the observed outcome against the expect
// clause. Mismatches fail the result but do not stop execution: later
// calls still run so the full trace is available for debugging.
func (h *Harness) executeCalls(ctx context.Context, calls []CallStep, result *Result) error {
	for i, step := range calls {
		call := eval.Call{
			Name:     step.Intrinsic,
			TypeArgs: step.Types,
		}

		for j, spec := range step.Args {
			op, err := h.resolveOperand(spec)
			if err != nil {
				return fmt.Errorf("call step %d arg %d: %w", i, j, err)
			}
			call.Args = append(call.Args, op)
		}

		var dest *eval.Place
		if step.Dest != "" {
			layout, ok := h.table.Lookup(step.Dest)
			if !ok {
				return fmt.Errorf("call step %d: unknown dest type %q", i, step.Dest)
			}
			destPtr := h.eval.Mem.Allocate(layout.Size, layout.Align)
			dest = &eval.Place{Ptr: destPtr, Layout: layout}
			call.Dest = dest
		}

		outcome, err := h.eval.Dispatch(ctx, call)
		h.validateExpect(i, step, outcome, err, dest, result)

		h.logger.Info("call step completed",
			"step", i,
			"intrinsic", step.Intrinsic,
			"outcome", outcome,
			"error", err,
		)
	}
	return nil
}

// resolveOperand builds an evaluator operand from its YAML spec.
func (h *Harness) resolveOperand(spec OperandSpec) (eval.Operand, error) {
	layout, ok := h.table.Lookup(spec.Type)
	if !ok {
		return eval.Operand{}, fmt.Errorf("unknown type %q", spec.Type)
	}

	switch {
	case spec.Int != nil:
		if !ir.ValidScalarSize(layout.Size) {
			return eval.Operand{}, fmt.Errorf("type %q (size %d) has no scalar width", spec.Type, layout.Size)
		}
		return eval.ScalarOperand(ir.ScalarFromInt64(*spec.Int, layout.Size), layout), nil
	case spec.Ptr != "":
		base, ok := h.allocs[spec.Ptr]
		if !ok {
			return eval.Operand{}, fmt.Errorf("unknown allocation %q", spec.Ptr)
		}
		return eval.PointerOperand(base.WrappingOffset(spec.Offset), layout), nil
	case spec.Addr != nil:
		return eval.PointerOperand(mem.BarePointer(*spec.Addr), layout), nil
	default:
		return eval.Operand{}, fmt.Errorf("empty operand spec")
	}
}

// validateExpect compares one call's observed behavior against its
// expect clause and records any mismatch on the result.
func (h *Harness) validateExpect(index int, step CallStep, outcome eval.Outcome, callErr error, dest *eval.Place, result *Result) {
	expect := step.Expect
	if expect == nil {
		expect = &ExpectClause{}
	}
	expectedOutcome := expect.Outcome
	if expectedOutcome == "" {
		expectedOutcome = ir.OutcomeHandled
	}

	actualOutcome := observedOutcome(outcome, callErr)
	if actualOutcome != expectedOutcome {
		detail := ""
		if callErr != nil {
			detail = fmt.Sprintf(" (%v)", callErr)
		}
		result.AddError(fmt.Sprintf(
			"call %d (%s): expected outcome %q, got %q%s",
			index, step.Intrinsic, expectedOutcome, actualOutcome, detail))
		return
	}

	var evalErr *eval.Error
	if errors.As(callErr, &evalErr) {
		if expect.ErrorKind != "" && string(evalErr.Kind) != expect.ErrorKind {
			result.AddError(fmt.Sprintf(
				"call %d (%s): expected error kind %q, got %q",
				index, step.Intrinsic, expect.ErrorKind, evalErr.Kind))
		}
		if expect.ErrorRule != "" && string(evalErr.Rule) != expect.ErrorRule {
			result.AddError(fmt.Sprintf(
				"call %d (%s): expected error rule %q, got %q",
				index, step.Intrinsic, expect.ErrorRule, evalErr.Rule))
		}
	} else if expect.ErrorKind != "" || expect.ErrorRule != "" {
		result.AddError(fmt.Sprintf(
			"call %d (%s): expected a classified error, got %v",
			index, step.Intrinsic, callErr))
	}

	if expect.Int != nil && dest != nil {
		got, err := h.eval.Mem.ReadScalar(dest.Ptr, dest.Layout.Size)
		if err != nil {
			result.AddError(fmt.Sprintf(
				"call %d (%s): failed to read dest: %v", index, step.Intrinsic, err))
			return
		}
		if got.Int64() != *expect.Int {
			result.AddError(fmt.Sprintf(
				"call %d (%s): expected result %d, got %d",
				index, step.Intrinsic, *expect.Int, got.Int64()))
		}
	}
}

// observedOutcome maps a dispatch result onto the trace outcome strings.
func observedOutcome(outcome eval.Outcome, err error) string {
	var abortErr *eval.AbortError
	switch {
	case errors.As(err, &abortErr):
		return ir.OutcomeAbort
	case err != nil:
		return ir.OutcomeError
	case outcome == eval.OutcomeHandled:
		return ir.OutcomeHandled
	default:
		return ir.OutcomeUnhandled
	}
}
