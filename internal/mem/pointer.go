package mem

import "fmt"

// AllocID identifies an allocation in the arena. Zero means "no
// provenance": the pointer is a bare integer address.
type AllocID int64

// NoAlloc is the AllocID of bare integer pointers.
const NoAlloc AllocID = 0

// Pointer is an abstract address, optionally tagged with provenance.
//
// Addr is the absolute target address used for all arithmetic. Prov, when
// nonzero, names the one allocation this pointer is derived from; the byte
// offset into that allocation is Addr minus the allocation's base address.
type Pointer struct {
	Addr uint64
	Prov AllocID
}

// BarePointer constructs a provenance-free pointer from a raw address.
func BarePointer(addr uint64) Pointer {
	return Pointer{Addr: addr}
}

// IsNull reports whether the pointer is the null address without
// provenance.
func (p Pointer) IsNull() bool {
	return p.Addr == 0 && p.Prov == NoAlloc
}

// HasProvenance reports whether the pointer is tied to an allocation.
func (p Pointer) HasProvenance() bool {
	return p.Prov != NoAlloc
}

// WrappingOffset returns the pointer moved by delta bytes with wraparound,
// keeping provenance. This is the unchecked arithmetic primitive; callers
// that need in-bounds guarantees must check separately.
func (p Pointer) WrappingOffset(delta int64) Pointer {
	return Pointer{Addr: p.Addr + uint64(delta), Prov: p.Prov}
}

// CheckedOffset returns the pointer moved by delta bytes, failing if the
// address computation overflows the address space in either direction.
func (p Pointer) CheckedOffset(delta int64) (Pointer, bool) {
	next := p.Addr + uint64(delta)
	if delta >= 0 {
		if next < p.Addr {
			return Pointer{}, false
		}
	} else if next > p.Addr {
		return Pointer{}, false
	}
	return Pointer{Addr: next, Prov: p.Prov}, true
}

// String renders the pointer for diagnostics.
func (p Pointer) String() string {
	if p.IsNull() {
		return "null"
	}
	if p.Prov == NoAlloc {
		return fmt.Sprintf("0x%x", p.Addr)
	}
	return fmt.Sprintf("alloc%d@0x%x", p.Prov, p.Addr)
}
