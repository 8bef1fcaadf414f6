package eval

import (
	"github.com/roach88/fixpoint/internal/ir"
	"github.com/roach88/fixpoint/internal/mem"
)

// typeName materializes the name of a type as a string: the bytes go
// into a fresh allocation and the destination receives a (pointer,
// length) pair.
func (ev *Evaluator) typeName(intrinsic, ty string, dest *Place) error {
	name := []byte(ty)
	ptr := ev.Mem.Allocate(uint64(len(name)), 1)
	for i, b := range name {
		byteAt := ptr.WrappingOffset(int64(i))
		if err := ev.Mem.WriteScalar(byteAt, ir.ScalarFromUint64(uint64(b), 1)); err != nil {
			return fromMemErr(intrinsic, err)
		}
	}
	if err := ev.Mem.WritePointer(dest.Ptr, ptr); err != nil {
		return fromMemErr(intrinsic, err)
	}
	lenAt := dest.Ptr.WrappingOffset(mem.PointerSize)
	if err := ev.Mem.WriteScalar(lenAt, ir.ScalarFromUint64(uint64(len(name)), mem.PointerSize)); err != nil {
		return fromMemErr(intrinsic, err)
	}
	return nil
}

// nullaryScalar evaluates the intrinsics that depend only on a type
// argument and produce a single scalar. Queries that need layout
// information a generic parameter cannot provide report TooGeneric;
// queries on types without a known layout report Unsupported.
func (ev *Evaluator) nullaryScalar(intrinsic, ty string) (ir.Scalar, error) {
	layout, err := ev.layoutOf(ty, intrinsic)
	if err != nil {
		return ir.Scalar{}, err
	}
	switch intrinsic {
	case "type_id":
		id, err := ir.TypeID(ty)
		if err != nil {
			return ir.Scalar{}, invalidErr(intrinsic, "%v", err)
		}
		return ir.ScalarFromBits(id, 16), nil
	case "needs_drop":
		return ir.ScalarFromBool(layout.NeedsDrop), nil
	case "variant_count":
		if layout.Variants < 0 {
			return ir.Scalar{}, tooGenericErr(intrinsic, ty)
		}
		return ir.ScalarFromUint64(uint64(layout.Variants), mem.PointerSize), nil
	case "size_of":
		if layout.Extern {
			return ir.Scalar{}, unsupportedErr(intrinsic, "`extern type` does not have known layout")
		}
		return ir.ScalarFromUint64(layout.Size, mem.PointerSize), nil
	case "min_align_of":
		if layout.Extern {
			return ir.Scalar{}, unsupportedErr(intrinsic, "`extern type` does not have known layout")
		}
		return ir.ScalarFromUint64(layout.Align, mem.PointerSize), nil
	case "pref_align_of":
		if layout.Extern {
			return ir.Scalar{}, unsupportedErr(intrinsic, "`extern type` does not have known layout")
		}
		return ir.ScalarFromUint64(layout.PreferredAlign(), mem.PointerSize), nil
	default:
		return ir.Scalar{}, invalidErr(intrinsic, "not a nullary scalar intrinsic")
	}
}

// valQuery evaluates size_of_val and min_align_of_val: like their
// nullary cousins, but taking a (possibly wide) pointer operand whose
// pointee layout answers the question. Extern types have no layout a
// pointer could carry, so they are rejected outright.
func (ev *Evaluator) valQuery(intrinsic, ty string) (ir.Scalar, error) {
	layout, err := ev.layoutOf(ty, intrinsic)
	if err != nil {
		return ir.Scalar{}, err
	}
	if layout.Extern {
		return ir.Scalar{}, unsupportedErr(intrinsic, "`extern type` does not have known layout")
	}
	switch intrinsic {
	case "size_of_val":
		return ir.ScalarFromUint64(layout.Size, mem.PointerSize), nil
	case "min_align_of_val":
		return ir.ScalarFromUint64(layout.Align, mem.PointerSize), nil
	default:
		return ir.Scalar{}, invalidErr(intrinsic, "not a value layout query")
	}
}
