package ir

import "math/bits"

// Uint128 is an unsigned 128-bit integer built from two uint64 halves.
//
// It is the working width for every numeric intrinsic: values of any
// supported scalar width (1-16 bytes) are widened to Uint128, operated on,
// and truncated back. This mirrors how the target machine defines the
// semantics of bit-manipulation intrinsics independent of the value width.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// U128 constructs a Uint128 from a uint64.
func U128(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// U128FromHalves constructs a Uint128 from explicit high and low halves.
func U128FromHalves(hi, lo uint64) Uint128 {
	return Uint128{Hi: hi, Lo: lo}
}

// IsZero reports whether the value is zero.
func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

// Cmp returns -1, 0, or +1 comparing u against v as unsigned integers.
func (u Uint128) Cmp(v Uint128) int {
	switch {
	case u.Hi != v.Hi:
		if u.Hi < v.Hi {
			return -1
		}
		return 1
	case u.Lo != v.Lo:
		if u.Lo < v.Lo {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Add returns u+v wrapping around 2^128, plus the carry out (0 or 1).
func (u Uint128) Add(v Uint128) (Uint128, uint64) {
	lo, carry := bits.Add64(u.Lo, v.Lo, 0)
	hi, carry := bits.Add64(u.Hi, v.Hi, carry)
	return Uint128{Hi: hi, Lo: lo}, carry
}

// Sub returns u-v wrapping around 2^128, plus the borrow out (0 or 1).
// A borrow of 1 means v > u.
func (u Uint128) Sub(v Uint128) (Uint128, uint64) {
	lo, borrow := bits.Sub64(u.Lo, v.Lo, 0)
	hi, borrow := bits.Sub64(u.Hi, v.Hi, borrow)
	return Uint128{Hi: hi, Lo: lo}, borrow
}

// Neg returns the two's complement negation of u.
func (u Uint128) Neg() Uint128 {
	r, _ := Uint128{}.Sub(u)
	return r
}

// Not returns the bitwise complement of u.
func (u Uint128) Not() Uint128 {
	return Uint128{Hi: ^u.Hi, Lo: ^u.Lo}
}

// And returns the bitwise AND of u and v.
func (u Uint128) And(v Uint128) Uint128 {
	return Uint128{Hi: u.Hi & v.Hi, Lo: u.Lo & v.Lo}
}

// Or returns the bitwise OR of u and v.
func (u Uint128) Or(v Uint128) Uint128 {
	return Uint128{Hi: u.Hi | v.Hi, Lo: u.Lo | v.Lo}
}

// Lsh returns u << n. Shifts of 128 or more yield zero.
func (u Uint128) Lsh(n uint) Uint128 {
	switch {
	case n >= 128:
		return Uint128{}
	case n >= 64:
		return Uint128{Hi: u.Lo << (n - 64)}
	case n == 0:
		return u
	default:
		return Uint128{
			Hi: u.Hi<<n | u.Lo>>(64-n),
			Lo: u.Lo << n,
		}
	}
}

// Rsh returns u >> n (logical shift). Shifts of 128 or more yield zero.
func (u Uint128) Rsh(n uint) Uint128 {
	switch {
	case n >= 128:
		return Uint128{}
	case n >= 64:
		return Uint128{Lo: u.Hi >> (n - 64)}
	case n == 0:
		return u
	default:
		return Uint128{
			Hi: u.Hi >> n,
			Lo: u.Lo>>n | u.Hi<<(64-n),
		}
	}
}

// OnesCount returns the number of set bits.
func (u Uint128) OnesCount() int {
	return bits.OnesCount64(u.Hi) + bits.OnesCount64(u.Lo)
}

// LeadingZeros returns the number of leading zero bits; 128 for zero.
func (u Uint128) LeadingZeros() int {
	if u.Hi != 0 {
		return bits.LeadingZeros64(u.Hi)
	}
	return 64 + bits.LeadingZeros64(u.Lo)
}

// TrailingZeros returns the number of trailing zero bits; 128 for zero.
func (u Uint128) TrailingZeros() int {
	if u.Lo != 0 {
		return bits.TrailingZeros64(u.Lo)
	}
	return 64 + bits.TrailingZeros64(u.Hi)
}

// ReverseBytes returns u with its 16 bytes in reversed order.
func (u Uint128) ReverseBytes() Uint128 {
	return Uint128{
		Hi: bits.ReverseBytes64(u.Lo),
		Lo: bits.ReverseBytes64(u.Hi),
	}
}

// Reverse returns u with its 128 bits in reversed order.
func (u Uint128) Reverse() Uint128 {
	return Uint128{
		Hi: bits.Reverse64(u.Lo),
		Lo: bits.Reverse64(u.Hi),
	}
}

// Mul returns u*v wrapping around 2^128, plus an overflow flag that is true
// if the full product did not fit in 128 bits.
func (u Uint128) Mul(v Uint128) (Uint128, bool) {
	hi, lo := bits.Mul64(u.Lo, v.Lo)
	overflow := u.Hi != 0 && v.Hi != 0

	p1, c1 := bits.Mul64(u.Hi, v.Lo)
	p2, c2 := bits.Mul64(u.Lo, v.Hi)
	overflow = overflow || p1 != 0 || p2 != 0

	hi, carry := bits.Add64(hi, c1, 0)
	overflow = overflow || carry != 0
	hi, carry = bits.Add64(hi, c2, 0)
	overflow = overflow || carry != 0

	return Uint128{Hi: hi, Lo: lo}, overflow
}

// QuoRem returns the quotient and remainder of u/v as unsigned integers.
// Panics if v is zero; callers are expected to reject zero divisors first.
func (u Uint128) QuoRem(v Uint128) (Uint128, Uint128) {
	if v.IsZero() {
		panic("ir: Uint128 division by zero")
	}
	if v.Hi == 0 {
		if u.Hi < v.Lo {
			// Fits in a single 128/64 division step.
			q, r := bits.Div64(u.Hi, u.Lo, v.Lo)
			return Uint128{Lo: q}, Uint128{Lo: r}
		}
		// Divide the halves separately to stay within Div64's contract.
		qHi, rHi := u.Hi/v.Lo, u.Hi%v.Lo
		qLo, r := bits.Div64(rHi, u.Lo, v.Lo)
		return Uint128{Hi: qHi, Lo: qLo}, Uint128{Lo: r}
	}

	// v.Hi != 0: shift-subtract restoring division. At most 64 iterations
	// since the quotient fits in 64 bits.
	shift := v.LeadingZeros() - u.LeadingZeros()
	if shift < 0 {
		return Uint128{}, u
	}
	q := Uint128{}
	rem := u
	d := v.Lsh(uint(shift))
	for i := shift; i >= 0; i-- {
		q = q.Lsh(1)
		if rem.Cmp(d) >= 0 {
			rem, _ = rem.Sub(d)
			q.Lo |= 1
		}
		d = d.Rsh(1)
	}
	return q, rem
}
