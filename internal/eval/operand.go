package eval

import (
	"fmt"

	"github.com/roach88/fixpoint/internal/ir"
	"github.com/roach88/fixpoint/internal/mem"
)

// Operand is an already-evaluated intrinsic argument handle.
//
// Exactly one of the three forms is present: an immediate scalar, an
// immediate pointer value, or a memory place holding the value. Operands
// are transient - created per evaluation step and never persisted beyond
// the call.
type Operand struct {
	// Layout describes the operand's type.
	Layout ir.Layout

	scalar *ir.Scalar
	ptr    *mem.Pointer
	place  *mem.Pointer
}

// ScalarOperand wraps an immediate scalar.
func ScalarOperand(s ir.Scalar, layout ir.Layout) Operand {
	return Operand{Layout: layout, scalar: &s}
}

// PointerOperand wraps an immediate pointer value.
func PointerOperand(p mem.Pointer, layout ir.Layout) Operand {
	return Operand{Layout: layout, ptr: &p}
}

// PlaceOperand wraps a memory location holding the operand's value.
func PlaceOperand(p mem.Pointer, layout ir.Layout) Operand {
	return Operand{Layout: layout, place: &p}
}

// Place is a destination memory location plus the layout of what is being
// written there.
type Place struct {
	Ptr    mem.Pointer
	Layout ir.Layout
}

// readScalar reads the operand as a scalar at its layout's width.
func (ev *Evaluator) readScalar(op Operand, intrinsic string) (ir.Scalar, error) {
	switch {
	case op.scalar != nil:
		return *op.scalar, nil
	case op.ptr != nil:
		// A pointer used as an integer is just its address bits.
		return ir.ScalarFromUint64(op.ptr.Addr, mem.PointerSize), nil
	case op.place != nil:
		if !ir.ValidScalarSize(op.Layout.Size) {
			return ir.Scalar{}, invalidErr(intrinsic,
				"type %s (size %d) has no scalar width", op.Layout.Type, op.Layout.Size)
		}
		s, err := ev.Mem.ReadScalar(*op.place, op.Layout.Size)
		if err != nil {
			return ir.Scalar{}, fromMemErr(intrinsic, err)
		}
		return s, nil
	default:
		return ir.Scalar{}, invalidErr(intrinsic, "empty operand")
	}
}

// readPointer reads the operand as a pointer value, preserving provenance
// where the operand carries one. Integers read as bare pointers.
func (ev *Evaluator) readPointer(op Operand, intrinsic string) (mem.Pointer, error) {
	switch {
	case op.ptr != nil:
		return *op.ptr, nil
	case op.scalar != nil:
		if op.scalar.Size() != mem.PointerSize {
			return mem.Pointer{}, invalidErr(intrinsic,
				"scalar of width %d used as a pointer", op.scalar.Size())
		}
		return mem.BarePointer(op.scalar.Uint64()), nil
	case op.place != nil:
		p, err := ev.Mem.ReadPointer(*op.place)
		if err != nil {
			return mem.Pointer{}, fromMemErr(intrinsic, err)
		}
		return p, nil
	default:
		return mem.Pointer{}, invalidErr(intrinsic, "empty operand")
	}
}

// readTargetUsize reads the operand as an unsigned target-width integer.
func (ev *Evaluator) readTargetUsize(op Operand, intrinsic string) (uint64, error) {
	s, err := ev.readScalar(op, intrinsic)
	if err != nil {
		return 0, err
	}
	if s.Size() != mem.PointerSize {
		return 0, invalidErr(intrinsic, "expected a usize operand, got width %d", s.Size())
	}
	return s.Uint64(), nil
}

// readTargetIsize reads the operand as a signed target-width integer.
func (ev *Evaluator) readTargetIsize(op Operand, intrinsic string) (int64, error) {
	s, err := ev.readScalar(op, intrinsic)
	if err != nil {
		return 0, err
	}
	if s.Size() != mem.PointerSize {
		return 0, invalidErr(intrinsic, "expected an isize operand, got width %d", s.Size())
	}
	return s.Int64(), nil
}

// readBool reads the operand as a boolean.
func (ev *Evaluator) readBool(op Operand, intrinsic string) (bool, error) {
	s, err := ev.readScalar(op, intrinsic)
	if err != nil {
		return false, err
	}
	b, err := s.Bool()
	if err != nil {
		return false, invalidErr(intrinsic, "%v", err)
	}
	return b, nil
}

// writeScalarTo writes a scalar result to the destination place.
func (ev *Evaluator) writeScalarTo(dest *Place, s ir.Scalar, intrinsic string) error {
	if dest == nil {
		return invalidErr(intrinsic, "intrinsic produces a value but has no destination")
	}
	if err := ev.Mem.WriteScalar(dest.Ptr, s); err != nil {
		return fromMemErr(intrinsic, err)
	}
	return nil
}

// writePointerTo writes a pointer result to the destination place.
func (ev *Evaluator) writePointerTo(dest *Place, p mem.Pointer, intrinsic string) error {
	if dest == nil {
		return invalidErr(intrinsic, "intrinsic produces a value but has no destination")
	}
	if err := ev.Mem.WritePointer(dest.Ptr, p); err != nil {
		return fromMemErr(intrinsic, err)
	}
	return nil
}

// copyOperandTo performs a typed copy of an operand into the destination.
// Used by black_box and other pass-through intrinsics.
func (ev *Evaluator) copyOperandTo(dest *Place, op Operand, intrinsic string) error {
	if dest == nil {
		return invalidErr(intrinsic, "intrinsic produces a value but has no destination")
	}
	switch {
	case op.place != nil:
		if err := ev.Mem.CopyBytes(*op.place, dest.Ptr, op.Layout.Size, true); err != nil {
			return fromMemErr(intrinsic, err)
		}
		return nil
	case op.ptr != nil:
		return ev.writePointerTo(dest, *op.ptr, intrinsic)
	case op.scalar != nil:
		return ev.writeScalarTo(dest, *op.scalar, intrinsic)
	default:
		return invalidErr(intrinsic, "empty operand")
	}
}

// layoutOf resolves a type name through the layout provider, reporting
// TooGeneric on a miss.
func (ev *Evaluator) layoutOf(ty, intrinsic string) (ir.Layout, error) {
	if ty == "" {
		return ir.Layout{}, invalidErr(intrinsic, "missing type argument")
	}
	l, ok := ev.Layouts.LayoutOf(ty)
	if !ok {
		return ir.Layout{}, tooGenericErr(intrinsic, ty)
	}
	return l, nil
}

// typeArg returns the n'th generic type argument of the call.
func typeArg(call Call, n int) (string, error) {
	if n >= len(call.TypeArgs) {
		return "", invalidErr(call.Name, "missing type argument %d", n)
	}
	return call.TypeArgs[n], nil
}

// arg returns the n'th operand of the call.
func arg(call Call, n int) (Operand, error) {
	if n >= len(call.Args) {
		return Operand{}, invalidErr(call.Name, "missing argument %d (have %d)", n, len(call.Args))
	}
	return call.Args[n], nil
}

// renderOperand renders an operand for trace records.
func renderOperand(op Operand) ir.TraceValue {
	switch {
	case op.scalar != nil:
		if op.scalar.Size() <= 8 {
			return ir.Obj{"ty": ir.Str(op.Layout.Type), "int": ir.Int(op.scalar.Int64())}
		}
		return ir.Obj{"ty": ir.Str(op.Layout.Type), "hex": ir.Str(op.scalar.String())}
	case op.ptr != nil:
		return ir.Obj{"ty": ir.Str(op.Layout.Type), "ptr": ir.Str(op.ptr.String())}
	case op.place != nil:
		return ir.Obj{"ty": ir.Str(op.Layout.Type), "place": ir.Str(op.place.String())}
	default:
		return ir.Obj{"ty": ir.Str(op.Layout.Type)}
	}
}

// String implements fmt.Stringer for diagnostics.
func (op Operand) String() string {
	switch {
	case op.scalar != nil:
		return fmt.Sprintf("%s: %s", op.scalar, op.Layout.Type)
	case op.ptr != nil:
		return fmt.Sprintf("%s: %s", op.ptr, op.Layout.Type)
	case op.place != nil:
		return fmt.Sprintf("*%s: %s", op.place, op.Layout.Type)
	default:
		return "<empty operand>"
	}
}
