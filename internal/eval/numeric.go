package eval

import (
	"github.com/roach88/fixpoint/internal/ir"
)

// EvaluateNumeric evaluates one of the bit-manipulation intrinsics over a
// raw bit pattern. All of them ignore sign. It is exported separately from
// Dispatch so the numeric group can be driven directly.
//
// The computation widens the value to the 128-bit working width: counts
// subtract the padding afterwards, and bswap/bitreverse left-align the
// value before swapping so the padding falls off the low end.
func EvaluateNumeric(name string, val ir.Scalar, layout, retLayout ir.Layout) (ir.Scalar, error) {
	if !ir.ValidScalarSize(layout.Size) {
		return ir.Scalar{}, invalidErr(name, "type %s is not an integer", layout.Type)
	}
	if !ir.ValidScalarSize(retLayout.Size) {
		return ir.Scalar{}, invalidErr(name, "destination type %s is not an integer", retLayout.Type)
	}
	bits := ir.Truncate(val.Bits(), layout.Size)
	extra := 128 - uint(layout.Size*8)

	var out uint64
	switch name {
	case "ctpop":
		out = uint64(bits.OnesCount())
	case "ctlz", "ctlz_nonzero", "cttz", "cttz_nonzero":
		if (name == "ctlz_nonzero" || name == "cttz_nonzero") && bits.IsZero() {
			return ir.Scalar{}, ubErr(RuleNonzeroArgIsZero, name,
				"`%s` called on 0", name)
		}
		if name == "ctlz" || name == "ctlz_nonzero" {
			out = uint64(uint(bits.LeadingZeros()) - extra)
		} else {
			out = uint64(uint(bits.Lsh(extra).TrailingZeros()) - extra)
		}
	case "bswap", "bitreverse":
		if layout.Size != retLayout.Size {
			return ir.Scalar{}, invalidErr(name,
				"source width %d does not match destination width %d",
				layout.Size, retLayout.Size)
		}
		aligned := bits.Lsh(extra)
		if name == "bswap" {
			return ir.ScalarFromBits(aligned.ReverseBytes(), retLayout.Size), nil
		}
		return ir.ScalarFromBits(aligned.Reverse(), retLayout.Size), nil
	default:
		return ir.Scalar{}, invalidErr(name, "not a numeric intrinsic")
	}
	return ir.ScalarFromUint64(out, retLayout.Size), nil
}

// rotate evaluates rotate_left / rotate_right.
//
// The shift amount is reduced modulo the bit width of the rotated value
// (not of the shift operand), and the inverse shift is reduced again so a
// zero effective shift never becomes a shift by the full bit width:
//
//	rotate_left:  (x << (s % bw)) | (x >> ((bw - s % bw) % bw))
//	rotate_right: (x >> (s % bw)) | (x << ((bw - s % bw) % bw))
func rotate(name string, val ir.Scalar, rawShift ir.Scalar, layout ir.Layout) (ir.Scalar, error) {
	if !ir.ValidScalarSize(layout.Size) {
		return ir.Scalar{}, invalidErr(name, "type %s is not an integer", layout.Type)
	}
	bits := ir.Truncate(val.Bits(), layout.Size)
	width := layout.Size * 8
	shift := uint(rawShift.Uint64() % width)
	inv := uint(width-uint64(shift)) % uint(width)

	var out ir.Uint128
	if name == "rotate_left" {
		out = bits.Lsh(shift).Or(bits.Rsh(inv))
	} else {
		out = bits.Rsh(shift).Or(bits.Lsh(inv))
	}
	return ir.ScalarFromBits(out, layout.Size), nil
}

// saturatingArith evaluates saturating_add / saturating_sub via the
// add/sub-with-overflow primitives.
//
// On signed overflow the saturated bound follows the sign of the first
// operand only: overflow is possible only when both operands pull in the
// same direction, so a non-negative first term can only overflow upward
// and a negative one only downward. Unsigned add saturates to the maximum,
// unsigned sub to zero.
func saturatingArith(name string, l, r ir.Scalar, layout ir.Layout) (ir.Scalar, error) {
	if l.Size() != r.Size() {
		return ir.Scalar{}, invalidErr(name,
			"operand widths differ: %d vs %d", l.Size(), r.Size())
	}
	add := name == "saturating_add"
	var val ir.Scalar
	var overflowed bool
	if add {
		val, overflowed = addWithOverflow(l, r, layout.Signed)
	} else {
		val, overflowed = subWithOverflow(l, r, layout.Signed)
	}
	if !overflowed {
		return val, nil
	}
	size := l.Size()
	if layout.Signed {
		if !l.SignBit() {
			return ir.ScalarFromBits(ir.SignedMax(size), size), nil
		}
		return ir.ScalarFromBits(ir.SignedMin(size), size), nil
	}
	if add {
		return ir.ScalarFromBits(ir.UnsignedMax(size), size), nil
	}
	return ir.ScalarFromUint64(0, size), nil
}

// exactDiv divides a by b, requiring the division to be exact: a nonzero
// remainder is undefined behavior. Division by zero and the signed
// MIN / -1 overflow are surfaced by the underlying division primitive.
func exactDiv(intrinsic string, a, b ir.Scalar, signed bool) (ir.Scalar, error) {
	rem, err := remainder(intrinsic, a, b, signed)
	if err != nil {
		return ir.Scalar{}, err
	}
	if !rem.IsZero() {
		return ir.Scalar{}, ubErr(RuleExactDivRemainder, intrinsic,
			"exact division of %s by %s has a remainder", a, b)
	}
	return divide(intrinsic, a, b, signed)
}
