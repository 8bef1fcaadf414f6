package eval

import (
	"bytes"
	"math/bits"

	"github.com/roach88/fixpoint/internal/ir"
	"github.com/roach88/fixpoint/internal/mem"
)

// bulkSize computes count*elemSize for a bulk memory operation, failing
// when the product does not fit in the address space. The bound is
// deliberately the full usize range rather than isize: untyped byte
// ranges are only limited by what the allocation can actually hold.
func bulkSize(intrinsic string, elemSize, count uint64) (uint64, error) {
	hi, lo := bits.Mul64(elemSize, count)
	if hi != 0 {
		return 0, ubErr(RuleSizeOverflow, intrinsic,
			"overflow computing total size of `%s` (%d elements of %d bytes)",
			intrinsic, count, elemSize)
	}
	return lo, nil
}

// copyIntrinsic copies count elements of the given layout from src to
// dst. Both pointers must be aligned for the element type; initialization
// state and provenance move with the bytes. The nonoverlapping variant
// additionally rejects overlapping ranges.
func (ev *Evaluator) copyIntrinsic(intrinsic string, elem ir.Layout, src, dst mem.Pointer, count uint64, nonoverlapping bool) error {
	length, err := bulkSize(intrinsic, elem.Size, count)
	if err != nil {
		return err
	}
	if err := ev.Mem.CheckAlign(src, elem.Align); err != nil {
		return fromMemErr(intrinsic, err)
	}
	if err := ev.Mem.CheckAlign(dst, elem.Align); err != nil {
		return fromMemErr(intrinsic, err)
	}
	if err := ev.Mem.CopyBytes(src, dst, length, nonoverlapping); err != nil {
		return fromMemErr(intrinsic, err)
	}
	return nil
}

// writeBytes fills count elements worth of memory at dst with a single
// byte value, destroying any provenance in the range.
func (ev *Evaluator) writeBytes(intrinsic string, elem ir.Layout, dst mem.Pointer, val byte, count uint64) error {
	length, err := bulkSize(intrinsic, elem.Size, count)
	if err != nil {
		return err
	}
	if err := ev.Mem.CheckAlign(dst, elem.Align); err != nil {
		return fromMemErr(intrinsic, err)
	}
	if err := ev.Mem.FillBytes(dst, val, length); err != nil {
		return fromMemErr(intrinsic, err)
	}
	return nil
}

// compareBytes lexicographically compares two byte ranges like memcmp,
// returning -1, 0 or 1 as an i32. The bytes must be initialized;
// provenance is ignored.
func (ev *Evaluator) compareBytes(intrinsic string, left, right mem.Pointer, count uint64) (ir.Scalar, error) {
	lb, err := ev.Mem.BytesStripProvenance(left, count)
	if err != nil {
		return ir.Scalar{}, fromMemErr(intrinsic, err)
	}
	rb, err := ev.Mem.BytesStripProvenance(right, count)
	if err != nil {
		return ir.Scalar{}, fromMemErr(intrinsic, err)
	}
	result := int64(bytes.Compare(lb, rb))
	return ir.ScalarFromInt64(result, 4), nil
}

// rawEq compares the underlying bytes of two values of the same layout.
// Every byte must be initialized and neither range may carry provenance,
// since pointer bytes have no stable raw representation. Zero-sized
// values compare equal without touching memory.
func (ev *Evaluator) rawEq(intrinsic string, a, b mem.Pointer, layout ir.Layout) (ir.Scalar, error) {
	if err := ev.Mem.CheckAlign(a, layout.Align); err != nil {
		return ir.Scalar{}, fromMemErr(intrinsic, err)
	}
	if err := ev.Mem.CheckAlign(b, layout.Align); err != nil {
		return ir.Scalar{}, fromMemErr(intrinsic, err)
	}
	if layout.Size == 0 {
		return ir.ScalarFromBool(true), nil
	}
	for _, p := range []mem.Pointer{a, b} {
		has, err := ev.Mem.RangeHasProvenance(p, layout.Size)
		if err != nil {
			return ir.Scalar{}, fromMemErr(intrinsic, err)
		}
		if has {
			return ir.Scalar{}, ubErr(RuleRawEqProvenance, intrinsic,
				"`raw_eq` on bytes with provenance")
		}
	}
	ab, err := ev.Mem.BytesStripProvenance(a, layout.Size)
	if err != nil {
		return ir.Scalar{}, fromMemErr(intrinsic, err)
	}
	bb, err := ev.Mem.BytesStripProvenance(b, layout.Size)
	if err != nil {
		return ir.Scalar{}, fromMemErr(intrinsic, err)
	}
	return ir.ScalarFromBool(bytes.Equal(ab, bb)), nil
}

// typedSwap exchanges the values behind two pointers of the same layout
// using a scratch allocation, so the operation stays well defined even
// for partially overlapping untyped bytes. The ranges must not overlap.
func (ev *Evaluator) typedSwap(intrinsic string, x, y mem.Pointer, layout ir.Layout) error {
	if err := ev.Mem.CheckAlign(x, layout.Align); err != nil {
		return fromMemErr(intrinsic, err)
	}
	if err := ev.Mem.CheckAlign(y, layout.Align); err != nil {
		return fromMemErr(intrinsic, err)
	}
	tmp := ev.Mem.AllocateScratch(layout)
	defer func() { _ = ev.Mem.DeallocateScratch(tmp) }()
	if err := ev.Mem.CopyBytes(x, tmp, layout.Size, true); err != nil {
		return fromMemErr(intrinsic, err)
	}
	if err := ev.Mem.CopyBytes(y, x, layout.Size, true); err != nil {
		return fromMemErr(intrinsic, err)
	}
	if err := ev.Mem.CopyBytes(tmp, y, layout.Size, true); err != nil {
		return fromMemErr(intrinsic, err)
	}
	return nil
}
