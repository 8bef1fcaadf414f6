package ir

import "fmt"

// PointerBytes is the byte width of a target pointer (usize/isize).
const PointerBytes = 8

// Scalar is a fixed-width bit pattern. The width is explicit and every read
// must name it; values never span partial bytes. Signedness is not part of
// the scalar - callers interpret the bits through a Layout.
//
// Supported widths are 1, 2, 4, 8, and 16 bytes.
type Scalar struct {
	bits Uint128
	size uint64
}

// ValidScalarSize reports whether size is a supported scalar width.
func ValidScalarSize(size uint64) bool {
	switch size {
	case 1, 2, 4, 8, 16:
		return true
	}
	return false
}

// ScalarFromBits constructs a Scalar of the given byte width, truncating
// bits to the width. Panics on an unsupported width; widths come from
// layouts which are validated at construction.
func ScalarFromBits(bits Uint128, size uint64) Scalar {
	if !ValidScalarSize(size) {
		panic(fmt.Sprintf("ir: invalid scalar width %d", size))
	}
	return Scalar{bits: Truncate(bits, size), size: size}
}

// ScalarFromUint64 constructs a Scalar from an unsigned 64-bit value.
func ScalarFromUint64(v uint64, size uint64) Scalar {
	return ScalarFromBits(U128(v), size)
}

// ScalarFromInt64 constructs a Scalar from a signed value, truncating its
// two's complement representation to the width.
func ScalarFromInt64(v int64, size uint64) Scalar {
	hi := uint64(0)
	if v < 0 {
		hi = ^uint64(0)
	}
	return ScalarFromBits(Uint128{Hi: hi, Lo: uint64(v)}, size)
}

// ScalarFromBool constructs a 1-byte Scalar holding 0 or 1.
func ScalarFromBool(b bool) Scalar {
	if b {
		return ScalarFromUint64(1, 1)
	}
	return ScalarFromUint64(0, 1)
}

// Bits returns the raw bit pattern, zero-extended to 128 bits.
func (s Scalar) Bits() Uint128 { return s.bits }

// Size returns the byte width of the scalar.
func (s Scalar) Size() uint64 { return s.size }

// BitWidth returns the width in bits.
func (s Scalar) BitWidth() uint64 { return s.size * 8 }

// IsZero reports whether every bit is clear.
func (s Scalar) IsZero() bool { return s.bits.IsZero() }

// Uint64 returns the low 64 bits of the value. For widths of 8 bytes or
// less this is the full unsigned value.
func (s Scalar) Uint64() uint64 { return s.bits.Lo }

// Int64 returns the value sign-extended from its width into an int64.
// Only valid for widths of 8 bytes or less.
func (s Scalar) Int64() int64 {
	if s.size > PointerBytes {
		panic("ir: Int64 on scalar wider than 8 bytes")
	}
	return int64(SignExtend(s.bits, s.size).Lo)
}

// SignBit reports whether the top bit at the scalar's width is set.
func (s Scalar) SignBit() bool {
	return SignBitOf(s.bits, s.size)
}

// Bool interprets the scalar as a boolean. Errors on widths other than 1
// or bit patterns other than 0 and 1.
func (s Scalar) Bool() (bool, error) {
	if s.size != 1 || s.bits.Hi != 0 || s.bits.Lo > 1 {
		return false, fmt.Errorf("scalar %s is not a boolean", s)
	}
	return s.bits.Lo == 1, nil
}

// String renders the scalar as 0x-prefixed hex at its width.
func (s Scalar) String() string {
	if s.size > 8 {
		return fmt.Sprintf("0x%016x%016x", s.bits.Hi, s.bits.Lo)
	}
	return fmt.Sprintf("0x%0*x", s.size*2, s.bits.Lo)
}

// Truncate masks bits down to the given byte width.
func Truncate(bits Uint128, size uint64) Uint128 {
	if size >= 16 {
		return bits
	}
	return bits.And(UnsignedMax(size))
}

// SignExtend widens the value at the given byte width to 128 bits,
// replicating the sign bit.
func SignExtend(bits Uint128, size uint64) Uint128 {
	bits = Truncate(bits, size)
	if !SignBitOf(bits, size) || size >= 16 {
		return bits
	}
	return bits.Or(UnsignedMax(size).Not())
}

// SignBitOf reports whether the top bit at the given byte width is set.
func SignBitOf(bits Uint128, size uint64) bool {
	return !bits.And(U128(1).Lsh(uint(size*8 - 1))).IsZero()
}

// UnsignedMax returns the all-ones pattern at the given byte width.
func UnsignedMax(size uint64) Uint128 {
	if size >= 16 {
		return Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}
	}
	m, _ := U128(1).Lsh(uint(size * 8)).Sub(U128(1))
	return m
}

// SignedMax returns the largest two's complement value at the width
// (0111...1).
func SignedMax(size uint64) Uint128 {
	return UnsignedMax(size).Rsh(1)
}

// SignedMin returns the smallest two's complement value at the width
// (1000...0), as an unsigned bit pattern.
func SignedMin(size uint64) Uint128 {
	return U128(1).Lsh(uint(size*8 - 1))
}
