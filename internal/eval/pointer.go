package eval

import (
	"math"

	"github.com/roach88/fixpoint/internal/ir"
	"github.com/roach88/fixpoint/internal/mem"
)

// arithOffset offsets ptr by count elements of the given size using
// wrapping arithmetic throughout. This is the explicitly unchecked
// variant: it never fails, and the result may point anywhere.
func arithOffset(ptr mem.Pointer, count int64, elemSize uint64) mem.Pointer {
	offsetBytes := count * int64(elemSize) // wrapping multiply
	return ptr.WrappingOffset(offsetBytes)
}

// offsetInbounds offsets ptr by offsetBytes, requiring the arithmetic to
// stay inside the address space and the whole span between the old and new
// pointer to be in bounds of one allocation. Bare integer and null
// pointers count as their own zero-sized allocation, so they may be offset
// by exactly 0 and nothing else.
func (ev *Evaluator) offsetInbounds(intrinsic string, ptr mem.Pointer, offsetBytes int64) (mem.Pointer, error) {
	// In-bounds arithmetic cannot rely on wrapping around the address
	// space, so rule out overflow first.
	offsetPtr, ok := ptr.CheckedOffset(offsetBytes)
	if !ok {
		return mem.Pointer{}, ubErr(RulePointerArithmeticOverflow, intrinsic,
			"offsetting %s by %d overflows the address space", ptr, offsetBytes)
	}
	// All memory between the two pointers must be in one allocation. The
	// pointers need not be aligned - this is not a read or write.
	minPtr := ptr
	if offsetBytes < 0 {
		minPtr = offsetPtr
	}
	length := uint64(offsetBytes)
	if offsetBytes < 0 {
		length = uint64(-offsetBytes)
	}
	if err := ev.Mem.CheckBounds(minPtr, length, "pointer arithmetic"); err != nil {
		return mem.Pointer{}, fromMemErr(intrinsic, err)
	}
	return offsetPtr, nil
}

// ptrDistance computes the element distance from a to b: conceptually
// (b - a) / elemSize, defined only when both pointers sit in the same
// allocation (or are equal). The unsigned variant additionally requires
// b to not precede a.
func (ev *Evaluator) ptrDistance(intrinsic string, a, b mem.Pointer, pointee ir.Layout, unsigned bool) (ir.Scalar, error) {
	// Establish offsets that are at least relative to the same base.
	var aOff, bOff uint64
	aID, aOffset, aOK := ev.Mem.Resolve(a)
	bID, bOffset, bOK := ev.Mem.Resolve(b)
	switch {
	case !aOK && !bOK:
		// Two bare integers. Fine only if they are the same; the distance
		// is then trivially zero.
		if a.Addr != b.Addr {
			return ir.Scalar{}, ubErr(RuleDifferentIntegers, intrinsic,
				"`%s` called on two different pointers that are not both derived from integers", intrinsic)
		}
		aOff, bOff = a.Addr, b.Addr
	case a.Addr == b.Addr:
		// At least one pointer has provenance, but the addresses agree, so
		// provenance does not matter: the distance is zero and no
		// allocation check is needed.
		aOff, bOff = 0, 0
	case aOK && bOK && aID == bID:
		aOff, bOff = aOffset, bOffset
	default:
		return ir.Scalar{}, ubErr(RuleDifferentAllocations, intrinsic,
			"`%s` called on two different pointers where the memory range between them is not in-bounds of an allocation", intrinsic)
	}

	// Addresses are unsigned, so compute b-a as an unsigned subtraction
	// with an explicit overflow check.
	var dist int64
	diff, overflowed := subWithOverflow(
		ir.ScalarFromUint64(bOff, mem.PointerSize),
		ir.ScalarFromUint64(aOff, mem.PointerSize),
		false,
	)
	if overflowed {
		// a is past b.
		if unsigned {
			return ir.Scalar{}, ubErr(RuleDistanceUnsignedOverflow, intrinsic,
				"`%s` called when the first pointer is at offset %d and the second at offset %d",
				intrinsic, aOff, bOff)
		}
		// Reinterpreting the difference as a signed integer yields the
		// proper negative distance - unless it comes out non-negative or
		// equal to the minimum, which means the true distance exceeds the
		// signed range.
		dist = diff.Int64()
		if dist >= 0 || dist == math.MinInt64 {
			return ir.Scalar{}, ubErr(RuleDistanceUnderflow, intrinsic,
				"`%s` called when the distance between the pointers underflows an isize", intrinsic)
		}
	} else {
		// b is at or past a. A negative signed reading means they were
		// more than the signed maximum apart.
		dist = diff.Int64()
		if dist < 0 {
			return ir.Scalar{}, ubErr(RuleDistanceOverflow, intrinsic,
				"`%s` called when the distance between the pointers overflows an isize", intrinsic)
		}
	}

	// The whole span between the two pointers must be in-bounds of one
	// allocation, like in offsetInbounds.
	minPtr := a
	if dist < 0 {
		minPtr = b
	}
	span := uint64(dist)
	if dist < 0 {
		span = uint64(-dist)
	}
	if err := ev.Mem.CheckBounds(minPtr, span, "pointer distance"); err != nil {
		return ir.Scalar{}, fromMemErr(intrinsic, err)
	}

	// Divide by the element size; a distance that is not an exact
	// multiple is undefined behavior, as is division overflow.
	retSigned := !unsigned
	return exactDiv(intrinsic,
		ir.ScalarFromInt64(dist, mem.PointerSize),
		ir.ScalarFromUint64(pointee.Size, mem.PointerSize),
		retSigned)
}
