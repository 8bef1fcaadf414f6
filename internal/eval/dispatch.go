package eval

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/bits"
	"strconv"

	"github.com/roach88/fixpoint/internal/ir"
	"github.com/roach88/fixpoint/internal/mem"
)

// Outcome reports how Dispatch handled a call.
type Outcome int

const (
	// OutcomeUnhandled means the intrinsic is not in this evaluator's
	// repertoire and the caller must fall back to its own lowering.
	OutcomeUnhandled Outcome = iota

	// OutcomeHandled means the intrinsic was fully evaluated and any
	// result written to the destination.
	OutcomeHandled
)

// Call is one intrinsic invocation: the name, the generic type arguments
// it was instantiated with, the evaluated operands, and an optional
// destination for the result.
type Call struct {
	Name     string
	TypeArgs []string
	Args     []Operand
	Dest     *Place
}

// Recorder persists evaluation trace records. The store package provides
// the durable implementation; a nil Recorder disables tracing.
type Recorder interface {
	Append(ctx context.Context, rec ir.EvalRecord) error
}

// Clock produces the logical sequence positions of trace records.
type Clock interface {
	Next() int64
}

// Evaluator evaluates intrinsics against a memory model in one session.
//
// It is not safe for concurrent use: evaluation is a single-threaded
// walk over the program, and the memory model shares that assumption.
type Evaluator struct {
	Mem     *mem.Memory
	Machine Machine
	Layouts LayoutProvider

	// Session identifies this evaluation run in the trace store.
	Session ir.Session

	// Clock, Recorder and Logger are optional; nil disables tracing or
	// logging respectively.
	Clock    Clock
	Recorder Recorder
	Logger   *slog.Logger
}

// New constructs an evaluator in strict compile-time mode over a fresh
// memory arena.
func New(layouts LayoutProvider, session ir.Session) *Evaluator {
	return &Evaluator{
		Mem:     mem.NewMemory(),
		Machine: StrictMachine{},
		Layouts: layouts,
		Session: session,
	}
}

func (ev *Evaluator) logger() *slog.Logger {
	if ev.Logger != nil {
		return ev.Logger
	}
	return slog.Default()
}

// Dispatch evaluates one intrinsic call. It returns OutcomeHandled when
// the intrinsic was evaluated (successfully or not), OutcomeUnhandled
// when the name is outside this evaluator's repertoire. Every handled
// call is appended to the trace when a Recorder is configured.
func (ev *Evaluator) Dispatch(ctx context.Context, call Call) (Outcome, error) {
	handled, result, err := ev.emulate(call)

	outcome := ir.OutcomeUnhandled
	if handled {
		outcome = ir.OutcomeHandled
	}
	var abortErr *AbortError
	switch {
	case errors.As(err, &abortErr):
		outcome = ir.OutcomeAbort
	case err != nil:
		outcome = ir.OutcomeError
	}

	if recErr := ev.record(ctx, call, outcome, result, err); recErr != nil {
		ev.logger().Error("trace append failed",
			"intrinsic", call.Name, "error", recErr)
	}
	ev.logger().Debug("intrinsic evaluated",
		"intrinsic", call.Name, "outcome", outcome)

	if err != nil {
		return OutcomeHandled, err
	}
	if !handled {
		return OutcomeUnhandled, nil
	}
	return OutcomeHandled, nil
}

// record appends one trace record, deriving the content-addressed ID from
// the session token, intrinsic name, rendered arguments and sequence.
func (ev *Evaluator) record(ctx context.Context, call Call, outcome string, result ir.Obj, err error) error {
	if ev.Recorder == nil || ev.Clock == nil {
		return nil
	}
	args := ir.Obj{}
	types := make(ir.Arr, len(call.TypeArgs))
	for i, ty := range call.TypeArgs {
		types[i] = ir.Str(ty)
	}
	if len(types) > 0 {
		args["types"] = types
	}
	for i, op := range call.Args {
		args[argKey(i)] = renderOperand(op)
	}
	seq := ev.Clock.Next()
	id, idErr := ir.RecordID(ev.Session.Token, call.Name, args, seq)
	if idErr != nil {
		return idErr
	}
	rec := ir.EvalRecord{
		ID:           id,
		SessionToken: ev.Session.Token,
		Seq:          seq,
		Intrinsic:    call.Name,
		Args:         args,
		Outcome:      outcome,
		Result:       result,
	}
	var evalErr *Error
	var abortErr *AbortError
	switch {
	case errors.As(err, &evalErr):
		rec.ErrorKind = string(evalErr.Kind)
		rec.ErrorRule = string(evalErr.Rule)
		rec.Message = evalErr.Message
	case errors.As(err, &abortErr):
		rec.Message = abortErr.Message
	case err != nil:
		rec.Message = err.Error()
	}
	return ev.Recorder.Append(ctx, rec)
}

func argKey(i int) string {
	return "a" + strconv.Itoa(i)
}

// emulate is the dispatch table proper, mirroring the intrinsic
// repertoire one group at a time. It reports whether the name was
// recognized, plus a trace rendering of the produced result.
func (ev *Evaluator) emulate(call Call) (bool, ir.Obj, error) {
	name := call.Name
	switch name {
	case "ctpop", "ctlz", "cttz", "ctlz_nonzero", "cttz_nonzero", "bswap", "bitreverse":
		layout, op, err := ev.unaryNumeric(call)
		if err != nil {
			return true, nil, err
		}
		val, err := ev.readScalar(op, name)
		if err != nil {
			return true, nil, err
		}
		if call.Dest == nil {
			return true, nil, invalidErr(name, "intrinsic produces a value but has no destination")
		}
		out, err := EvaluateNumeric(name, val, layout, call.Dest.Layout)
		if err != nil {
			return true, nil, err
		}
		return ev.finishScalar(call, out)

	case "rotate_left", "rotate_right":
		layout, op, err := ev.unaryNumeric(call)
		if err != nil {
			return true, nil, err
		}
		val, err := ev.readScalar(op, name)
		if err != nil {
			return true, nil, err
		}
		shiftOp, err := arg(call, 1)
		if err != nil {
			return true, nil, err
		}
		shift, err := ev.readScalar(shiftOp, name)
		if err != nil {
			return true, nil, err
		}
		out, err := rotate(name, val, shift, layout)
		if err != nil {
			return true, nil, err
		}
		return ev.finishScalar(call, out)

	case "saturating_add", "saturating_sub", "exact_div":
		layout, l, r, err := ev.binaryNumeric(call)
		if err != nil {
			return true, nil, err
		}
		var out ir.Scalar
		if name == "exact_div" {
			out, err = exactDiv(name, l, r, layout.Signed)
		} else {
			out, err = saturatingArith(name, l, r, layout)
		}
		if err != nil {
			return true, nil, err
		}
		return ev.finishScalar(call, out)

	case "arith_offset":
		pointee, ptr, count, err := ev.pointerAndCount(call)
		if err != nil {
			return true, nil, err
		}
		out := arithOffset(ptr, count, pointee.Size)
		return ev.finishPointer(call, out)

	case "offset":
		pointee, ptr, count, err := ev.pointerAndCount(call)
		if err != nil {
			return true, nil, err
		}
		offsetBytes, ok := mulSigned(count, pointee.Size)
		if !ok {
			return true, nil, ubErr(RulePointerArithmeticOverflow, name,
				"overflow computing byte offset (%d elements of %d bytes)", count, pointee.Size)
		}
		out, err := ev.offsetInbounds(name, ptr, offsetBytes)
		if err != nil {
			return true, nil, err
		}
		return ev.finishPointer(call, out)

	case "ptr_offset_from", "ptr_offset_from_unsigned":
		pointee, err := ev.typeArgLayout(call, 0)
		if err != nil {
			return true, nil, err
		}
		self, err := ev.pointerArg(call, 0)
		if err != nil {
			return true, nil, err
		}
		origin, err := ev.pointerArg(call, 1)
		if err != nil {
			return true, nil, err
		}
		// The distance runs from origin to self: self - origin.
		out, err := ev.ptrDistance(name, origin, self, pointee, name == "ptr_offset_from_unsigned")
		if err != nil {
			return true, nil, err
		}
		return ev.finishScalar(call, out)

	case "copy", "copy_nonoverlapping":
		elem, err := ev.typeArgLayout(call, 0)
		if err != nil {
			return true, nil, err
		}
		src, err := ev.pointerArg(call, 0)
		if err != nil {
			return true, nil, err
		}
		dst, err := ev.pointerArg(call, 1)
		if err != nil {
			return true, nil, err
		}
		count, err := ev.usizeArg(call, 2)
		if err != nil {
			return true, nil, err
		}
		return true, nil, ev.copyIntrinsic(name, elem, src, dst, count, name == "copy_nonoverlapping")

	case "write_bytes":
		elem, err := ev.typeArgLayout(call, 0)
		if err != nil {
			return true, nil, err
		}
		dst, err := ev.pointerArg(call, 0)
		if err != nil {
			return true, nil, err
		}
		valOp, err := arg(call, 1)
		if err != nil {
			return true, nil, err
		}
		val, err := ev.readScalar(valOp, name)
		if err != nil {
			return true, nil, err
		}
		count, err := ev.usizeArg(call, 2)
		if err != nil {
			return true, nil, err
		}
		return true, nil, ev.writeBytes(name, elem, dst, byte(val.Uint64()), count)

	case "compare_bytes":
		left, err := ev.pointerArg(call, 0)
		if err != nil {
			return true, nil, err
		}
		right, err := ev.pointerArg(call, 1)
		if err != nil {
			return true, nil, err
		}
		count, err := ev.usizeArg(call, 2)
		if err != nil {
			return true, nil, err
		}
		out, err := ev.compareBytes(name, left, right, count)
		if err != nil {
			return true, nil, err
		}
		return ev.finishScalar(call, out)

	case "raw_eq":
		layout, err := ev.typeArgLayout(call, 0)
		if err != nil {
			return true, nil, err
		}
		a, err := ev.pointerArg(call, 0)
		if err != nil {
			return true, nil, err
		}
		b, err := ev.pointerArg(call, 1)
		if err != nil {
			return true, nil, err
		}
		out, err := ev.rawEq(name, a, b, layout)
		if err != nil {
			return true, nil, err
		}
		return ev.finishScalar(call, out)

	case "typed_swap":
		layout, err := ev.typeArgLayout(call, 0)
		if err != nil {
			return true, nil, err
		}
		x, err := ev.pointerArg(call, 0)
		if err != nil {
			return true, nil, err
		}
		y, err := ev.pointerArg(call, 1)
		if err != nil {
			return true, nil, err
		}
		return true, nil, ev.typedSwap(name, x, y, layout)

	case "assert_inhabited", "assert_zero_valid", "assert_mem_uninitialized_valid":
		layout, err := ev.typeArgLayout(call, 0)
		if err != nil {
			return true, nil, err
		}
		req := ir.ValidityInhabited
		switch name {
		case "assert_zero_valid":
			req = ir.ValidityZero
		case "assert_mem_uninitialized_valid":
			req = ir.ValidityUninit
		}
		return true, nil, ev.assertValidity(req, layout)

	case "assume":
		op, err := arg(call, 0)
		if err != nil {
			return true, nil, err
		}
		b, err := ev.readBool(op, name)
		if err != nil {
			return true, nil, err
		}
		if !b {
			return true, nil, ubErr(RuleAssumeFalse, name, "`assume` called with `false`")
		}
		return true, nil, nil

	case "black_box":
		op, err := arg(call, 0)
		if err != nil {
			return true, nil, err
		}
		return true, nil, ev.copyOperandTo(call.Dest, op, name)

	case "type_name":
		ty, err := typeArg(call, 0)
		if err != nil {
			return true, nil, err
		}
		if call.Dest == nil {
			return true, nil, invalidErr(name, "intrinsic produces a value but has no destination")
		}
		if err := ev.typeName(name, ty, call.Dest); err != nil {
			return true, nil, err
		}
		return true, ir.Obj{"str": ir.Str(ty)}, nil

	case "type_id", "needs_drop", "variant_count", "size_of", "min_align_of", "pref_align_of":
		ty, err := typeArg(call, 0)
		if err != nil {
			return true, nil, err
		}
		out, err := ev.nullaryScalar(name, ty)
		if err != nil {
			return true, nil, err
		}
		return ev.finishScalar(call, out)

	case "vtable_size", "vtable_align":
		// Trait-object metadata is not represented in this memory model.
		return true, nil, unsupportedErr(name, "trait object vtables are not modeled")

	case "size_of_val", "min_align_of_val":
		ty, err := typeArg(call, 0)
		if err != nil {
			return true, nil, err
		}
		out, err := ev.valQuery(name, ty)
		if err != nil {
			return true, nil, err
		}
		return ev.finishScalar(call, out)

	default:
		return false, nil, nil
	}
}

// unaryNumeric resolves the common shape of the single-operand numeric
// intrinsics: one type argument and one operand of that type.
func (ev *Evaluator) unaryNumeric(call Call) (ir.Layout, Operand, error) {
	layout, err := ev.typeArgLayout(call, 0)
	if err != nil {
		return ir.Layout{}, Operand{}, err
	}
	op, err := arg(call, 0)
	if err != nil {
		return ir.Layout{}, Operand{}, err
	}
	return layout, op, nil
}

// binaryNumeric resolves the two-operand numeric intrinsics.
func (ev *Evaluator) binaryNumeric(call Call) (ir.Layout, ir.Scalar, ir.Scalar, error) {
	layout, op, err := ev.unaryNumeric(call)
	if err != nil {
		return ir.Layout{}, ir.Scalar{}, ir.Scalar{}, err
	}
	l, err := ev.readScalar(op, call.Name)
	if err != nil {
		return ir.Layout{}, ir.Scalar{}, ir.Scalar{}, err
	}
	rOp, err := arg(call, 1)
	if err != nil {
		return ir.Layout{}, ir.Scalar{}, ir.Scalar{}, err
	}
	r, err := ev.readScalar(rOp, call.Name)
	if err != nil {
		return ir.Layout{}, ir.Scalar{}, ir.Scalar{}, err
	}
	return layout, l, r, nil
}

// pointerAndCount resolves the pointer-arithmetic shape: a pointee type
// argument, a pointer operand and a signed element count.
func (ev *Evaluator) pointerAndCount(call Call) (ir.Layout, mem.Pointer, int64, error) {
	pointee, err := ev.typeArgLayout(call, 0)
	if err != nil {
		return ir.Layout{}, mem.Pointer{}, 0, err
	}
	ptr, err := ev.pointerArg(call, 0)
	if err != nil {
		return ir.Layout{}, mem.Pointer{}, 0, err
	}
	countOp, err := arg(call, 1)
	if err != nil {
		return ir.Layout{}, mem.Pointer{}, 0, err
	}
	count, err := ev.readTargetIsize(countOp, call.Name)
	if err != nil {
		return ir.Layout{}, mem.Pointer{}, 0, err
	}
	return pointee, ptr, count, nil
}

func (ev *Evaluator) typeArgLayout(call Call, n int) (ir.Layout, error) {
	ty, err := typeArg(call, n)
	if err != nil {
		return ir.Layout{}, err
	}
	return ev.layoutOf(ty, call.Name)
}

func (ev *Evaluator) pointerArg(call Call, n int) (mem.Pointer, error) {
	op, err := arg(call, n)
	if err != nil {
		return mem.Pointer{}, err
	}
	return ev.readPointer(op, call.Name)
}

func (ev *Evaluator) usizeArg(call Call, n int) (uint64, error) {
	op, err := arg(call, n)
	if err != nil {
		return 0, err
	}
	return ev.readTargetUsize(op, call.Name)
}

// finishScalar writes a scalar result and renders it for the trace.
func (ev *Evaluator) finishScalar(call Call, s ir.Scalar) (bool, ir.Obj, error) {
	if err := ev.writeScalarTo(call.Dest, s, call.Name); err != nil {
		return true, nil, err
	}
	if s.Size() <= 8 {
		return true, ir.Obj{"int": ir.Int(s.Int64())}, nil
	}
	return true, ir.Obj{"hex": ir.Str(s.String())}, nil
}

// finishPointer writes a pointer result and renders it for the trace.
func (ev *Evaluator) finishPointer(call Call, p mem.Pointer) (bool, ir.Obj, error) {
	if err := ev.writePointerTo(call.Dest, p, call.Name); err != nil {
		return true, nil, err
	}
	return true, ir.Obj{"ptr": ir.Str(p.String())}, nil
}

// mulSigned multiplies a signed element count by an element size,
// reporting failure when the product leaves the signed 64-bit range.
func mulSigned(count int64, size uint64) (int64, bool) {
	if count == 0 || size == 0 {
		return 0, true
	}
	magnitude := uint64(count)
	if count < 0 {
		magnitude = uint64(-count)
	}
	hi, lo := bits.Mul64(magnitude, size)
	if hi != 0 {
		return 0, false
	}
	if count > 0 {
		if lo > math.MaxInt64 {
			return 0, false
		}
		return int64(lo), true
	}
	if lo > uint64(math.MaxInt64)+1 {
		return 0, false
	}
	return -int64(lo), true
}
