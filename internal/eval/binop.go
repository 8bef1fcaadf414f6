package eval

import "github.com/roach88/fixpoint/internal/ir"

// Width-aware integer primitives. These reproduce target-machine numeric
// behavior: operations run at the 128-bit working width and truncate back
// to the operand width, with overflow defined as "the truncated result
// does not re-extend to the exact result".

// addWithOverflow computes l+r wrapping at the operand width and reports
// whether the exact result was out of range for that width.
func addWithOverflow(l, r ir.Scalar, signed bool) (ir.Scalar, bool) {
	size := l.Size()
	if size == 16 {
		// Full working width: the classic sign rules apply directly.
		sum, carry := l.Bits().Add(r.Bits())
		res := ir.ScalarFromBits(sum, size)
		if signed {
			return res, l.SignBit() == r.SignBit() && res.SignBit() != l.SignBit()
		}
		return res, carry != 0
	}
	if signed {
		wide, _ := ir.SignExtend(l.Bits(), size).Add(ir.SignExtend(r.Bits(), size))
		res := ir.ScalarFromBits(wide, size)
		return res, ir.SignExtend(res.Bits(), size) != wide
	}
	wide, _ := l.Bits().Add(r.Bits())
	res := ir.ScalarFromBits(wide, size)
	return res, res.Bits() != wide
}

// subWithOverflow computes l-r wrapping at the operand width and reports
// whether the exact result was out of range for that width.
func subWithOverflow(l, r ir.Scalar, signed bool) (ir.Scalar, bool) {
	size := l.Size()
	if size == 16 {
		diff, borrow := l.Bits().Sub(r.Bits())
		res := ir.ScalarFromBits(diff, size)
		if signed {
			return res, l.SignBit() != r.SignBit() && res.SignBit() != l.SignBit()
		}
		return res, borrow != 0
	}
	if signed {
		wide, _ := ir.SignExtend(l.Bits(), size).Sub(ir.SignExtend(r.Bits(), size))
		res := ir.ScalarFromBits(wide, size)
		return res, ir.SignExtend(res.Bits(), size) != wide
	}
	wide, borrow := l.Bits().Sub(r.Bits())
	res := ir.ScalarFromBits(wide, size)
	return res, borrow != 0
}

// divide computes l/r truncating toward zero. Division by zero and signed
// MIN / -1 are undefined behavior, surfaced here - this is the division
// primitive exact_div builds on.
func divide(intrinsic string, l, r ir.Scalar, signed bool) (ir.Scalar, error) {
	q, _, err := quoRem(intrinsic, l, r, signed)
	return q, err
}

// remainder computes l%r with the sign of the dividend. Shares the
// undefined-behavior cases of divide.
func remainder(intrinsic string, l, r ir.Scalar, signed bool) (ir.Scalar, error) {
	_, rem, err := quoRem(intrinsic, l, r, signed)
	return rem, err
}

func quoRem(intrinsic string, l, r ir.Scalar, signed bool) (ir.Scalar, ir.Scalar, error) {
	size := l.Size()
	if r.IsZero() {
		return ir.Scalar{}, ir.Scalar{}, ubErr(RuleDivisionByZero, intrinsic,
			"dividing %s by zero", l)
	}
	if !signed {
		q, rem := l.Bits().QuoRem(r.Bits())
		return ir.ScalarFromBits(q, size), ir.ScalarFromBits(rem, size), nil
	}

	if l.Bits() == ir.SignedMin(size) && r.Bits() == ir.UnsignedMax(size) {
		return ir.Scalar{}, ir.Scalar{}, ubErr(RuleDivisionOverflow, intrinsic,
			"overflow in signed division (dividing the minimum value by -1)")
	}

	// Divide magnitudes, then restore signs: quotient negative when signs
	// differ, remainder takes the dividend's sign.
	lNeg, rNeg := l.SignBit(), r.SignBit()
	lm := ir.SignExtend(l.Bits(), size)
	if lNeg {
		lm = lm.Neg()
	}
	rm := ir.SignExtend(r.Bits(), size)
	if rNeg {
		rm = rm.Neg()
	}
	q, rem := lm.QuoRem(rm)
	if lNeg != rNeg {
		q = q.Neg()
	}
	if lNeg {
		rem = rem.Neg()
	}
	return ir.ScalarFromBits(q, size), ir.ScalarFromBits(rem, size), nil
}
