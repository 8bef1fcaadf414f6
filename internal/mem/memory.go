package mem

import (
	"encoding/binary"
	"fmt"

	"github.com/roach88/fixpoint/internal/ir"
)

// PointerSize is the byte width of a stored pointer on the target.
const PointerSize = ir.PointerBytes

// allocBase is the address of the first allocation. Keeping it well above
// zero preserves the null page: no allocation address can equal 0.
const allocBase uint64 = 0x10000

// guardGap separates consecutive allocations in the address space so that
// one-past-the-end of one allocation never aliases the base of the next.
const guardGap uint64 = 64

// Memory is the allocation arena for one evaluation session.
//
// Sessions are strictly single-threaded (see package doc); Memory therefore
// performs no locking. Independent sessions get independent arenas.
type Memory struct {
	allocs   map[AllocID]*Allocation
	nextID   AllocID
	nextAddr uint64
}

// NewMemory creates an empty arena.
func NewMemory() *Memory {
	return &Memory{
		allocs:   make(map[AllocID]*Allocation),
		nextID:   1,
		nextAddr: allocBase,
	}
}

// Allocate creates a new allocation of the given size and alignment and
// returns a pointer to its base. Alignment must be a power of two.
func (m *Memory) Allocate(size, align uint64) Pointer {
	return m.allocate(size, align, false)
}

// AllocateScratch creates an evaluator-internal scratch allocation for the
// given layout. Scratch allocations must be released with DeallocateScratch
// before the intrinsic call that created them returns.
func (m *Memory) AllocateScratch(layout ir.Layout) Pointer {
	return m.allocate(layout.Size, layout.Align, true)
}

func (m *Memory) allocate(size, align uint64, scratch bool) Pointer {
	if align == 0 {
		align = 1
	}
	base := alignUp(m.nextAddr, align)
	a := &Allocation{
		id:      m.nextID,
		base:    base,
		bytes:   make([]byte, size),
		align:   align,
		init:    newInitMask(size),
		prov:    make(map[uint64]AllocID),
		scratch: scratch,
	}
	m.allocs[a.id] = a
	m.nextID++
	m.nextAddr = base + size + guardGap
	return Pointer{Addr: base, Prov: a.id}
}

// DeallocateScratch releases a scratch allocation. The pointer must be the
// base pointer of a live scratch allocation.
func (m *Memory) DeallocateScratch(p Pointer) error {
	a, ok := m.allocs[p.Prov]
	if !ok || a.dead {
		return accessErrorf(ErrCodeInvalidFree, p, "", "no live allocation to free")
	}
	if !a.scratch || p.Addr != a.base {
		return accessErrorf(ErrCodeInvalidFree, p, "", "not a scratch allocation base")
	}
	a.dead = true
	return nil
}

// Allocation returns the live allocation with the given id.
func (m *Memory) Allocation(id AllocID) (*Allocation, bool) {
	a, ok := m.allocs[id]
	if !ok || a.dead {
		return nil, false
	}
	return a, true
}

// Resolve resolves a pointer's provenance to (allocation id, byte offset).
// The second result is false for bare integers, dangling pointers, and
// addresses outside [base, base+size] of their allocation.
func (m *Memory) Resolve(p Pointer) (AllocID, uint64, bool) {
	a, ok := m.Allocation(p.Prov)
	if !ok {
		return NoAlloc, 0, false
	}
	if p.Addr < a.base || p.Addr > a.base+a.Size() {
		return NoAlloc, 0, false
	}
	return a.id, p.Addr - a.base, true
}

// CheckBounds verifies that [p, p+length) is fully inside one live
// allocation. Zero-length accesses succeed at any offset, including
// one-past-the-end. Bare integer and null pointers only admit zero-length
// accesses.
func (m *Memory) CheckBounds(p Pointer, length uint64, purpose string) error {
	if !p.HasProvenance() {
		if length == 0 {
			return nil
		}
		return accessErrorf(ErrCodeBareDeref, p, purpose,
			"%d-byte access through a pointer without provenance", length)
	}
	a, ok := m.Allocation(p.Prov)
	if !ok {
		return accessErrorf(ErrCodeDangling, p, purpose, "allocation is gone")
	}
	if p.Addr < a.base {
		return accessErrorf(ErrCodeOutOfBounds, p, purpose, "address below allocation base")
	}
	off := p.Addr - a.base
	if length == 0 {
		return nil
	}
	if off+length < off || off+length > a.Size() {
		return accessErrorf(ErrCodeOutOfBounds, p, purpose,
			"range [%d, %d) escapes allocation of size %d", off, off+length, a.Size())
	}
	return nil
}

// CheckAlign verifies the pointer's address satisfies the given alignment.
func (m *Memory) CheckAlign(p Pointer, align uint64) error {
	if align <= 1 {
		return nil
	}
	if p.Addr%align != 0 {
		return accessErrorf(ErrCodeMisaligned, p, "",
			"address not aligned to %d bytes", align)
	}
	return nil
}

// ReadScalar reads a scalar of the exact given byte width. Every byte in
// the range must be initialized.
func (m *Memory) ReadScalar(p Pointer, size uint64) (ir.Scalar, error) {
	a, off, err := m.accessible(p, size, "scalar read")
	if err != nil {
		return ir.Scalar{}, err
	}
	if at, uninit := a.init.firstUninit(off, size); uninit {
		return ir.Scalar{}, accessErrorf(ErrCodeUninitRead, p, "scalar read",
			"byte %d of the read range is uninitialized", at-off)
	}
	return ir.ScalarFromBits(leBits(a.bytes[off:off+size]), size), nil
}

// WriteScalar writes a scalar at its exact width, marking the range
// initialized. Any stored pointer overlapping the range loses its
// provenance.
func (m *Memory) WriteScalar(p Pointer, s ir.Scalar) error {
	size := s.Size()
	a, off, err := m.accessible(p, size, "scalar write")
	if err != nil {
		return err
	}
	putLEBits(a.bytes[off:off+size], s.Bits())
	a.init.setRange(off, size, true)
	a.clearProvenanceOverlapping(off, size, PointerSize)
	return nil
}

// ReadPointer reads a stored pointer (PointerSize bytes). If the bytes were
// written by WritePointer and not disturbed since, the result carries the
// stored provenance; otherwise it is a bare integer.
func (m *Memory) ReadPointer(p Pointer) (Pointer, error) {
	a, off, err := m.accessible(p, PointerSize, "pointer read")
	if err != nil {
		return Pointer{}, err
	}
	if at, uninit := a.init.firstUninit(off, PointerSize); uninit {
		return Pointer{}, accessErrorf(ErrCodeUninitRead, p, "pointer read",
			"byte %d of the pointer is uninitialized", at-off)
	}
	addr := binary.LittleEndian.Uint64(a.bytes[off : off+PointerSize])
	return Pointer{Addr: addr, Prov: a.prov[off]}, nil
}

// WritePointer stores a pointer value, recording its provenance in the
// allocation's side table.
func (m *Memory) WritePointer(at Pointer, v Pointer) error {
	a, off, err := m.accessible(at, PointerSize, "pointer write")
	if err != nil {
		return err
	}
	a.clearProvenanceOverlapping(off, PointerSize, PointerSize)
	binary.LittleEndian.PutUint64(a.bytes[off:off+PointerSize], v.Addr)
	a.init.setRange(off, PointerSize, true)
	if v.Prov != NoAlloc {
		a.prov[off] = v.Prov
	}
	return nil
}

// CopyBytes copies length bytes from src to dst, carrying initialization
// state and provenance along: this is the typed copy primitive. Stored
// pointers fully inside the range keep their provenance; pointers only
// partially covered degrade to plain bytes in the destination.
//
// When nonoverlapping is false, overlapping ranges within one allocation
// behave like memmove. When nonoverlapping is true the caller asserts the
// ranges are disjoint; the copy does not detect violations.
func (m *Memory) CopyBytes(src, dst Pointer, length uint64, nonoverlapping bool) error {
	if length == 0 {
		if err := m.CheckBounds(src, 0, "copy source"); err != nil {
			return err
		}
		return m.CheckBounds(dst, 0, "copy destination")
	}
	sa, soff, err := m.accessible(src, length, "copy source")
	if err != nil {
		return err
	}
	da, doff, err := m.accessible(dst, length, "copy destination")
	if err != nil {
		return err
	}

	// Snapshot the source's metadata first so overlapping ranges within
	// one allocation stay correct.
	srcInit := make([]bool, length)
	for i := uint64(0); i < length; i++ {
		srcInit[i] = sa.init.get(soff + i)
	}
	srcProv := make(map[uint64]AllocID)
	for off, prov := range sa.prov {
		if off >= soff && off+PointerSize <= soff+length {
			srcProv[off-soff] = prov
		}
	}

	copy(da.bytes[doff:doff+length], sa.bytes[soff:soff+length])
	for i := uint64(0); i < length; i++ {
		da.init.setRange(doff+i, 1, srcInit[i])
	}
	da.clearProvenanceOverlapping(doff, length, PointerSize)
	for rel, prov := range srcProv {
		da.prov[doff+rel] = prov
	}
	return nil
}

// FillBytes writes the byte value over [dst, dst+length), marking the range
// initialized and clearing any stored provenance it touches.
func (m *Memory) FillBytes(dst Pointer, b byte, length uint64) error {
	if length == 0 {
		return m.CheckBounds(dst, 0, "fill destination")
	}
	a, off, err := m.accessible(dst, length, "fill destination")
	if err != nil {
		return err
	}
	for i := off; i < off+length; i++ {
		a.bytes[i] = b
	}
	a.init.setRange(off, length, true)
	a.clearProvenanceOverlapping(off, length, PointerSize)
	return nil
}

// BytesStripProvenance returns the raw bytes of [p, p+length), requiring
// full initialization but ignoring provenance: stored pointers read as
// their plain address bytes. The returned slice aliases the allocation and
// must not be retained across mutations.
func (m *Memory) BytesStripProvenance(p Pointer, length uint64) ([]byte, error) {
	if length == 0 {
		if err := m.CheckBounds(p, 0, "byte read"); err != nil {
			return nil, err
		}
		return nil, nil
	}
	a, off, err := m.accessible(p, length, "byte read")
	if err != nil {
		return nil, err
	}
	if at, uninit := a.init.firstUninit(off, length); uninit {
		return nil, accessErrorf(ErrCodeUninitRead, p, "byte read",
			"byte %d of the read range is uninitialized", at-off)
	}
	return a.bytes[off : off+length], nil
}

// RangeHasProvenance reports whether any stored pointer overlaps
// [p, p+length).
func (m *Memory) RangeHasProvenance(p Pointer, length uint64) (bool, error) {
	if length == 0 {
		return false, m.CheckBounds(p, 0, "provenance check")
	}
	a, off, err := m.accessible(p, length, "provenance check")
	if err != nil {
		return false, err
	}
	return a.provenanceInRange(off, length, PointerSize), nil
}

// MarkUninit clears the initialization state of [p, p+length).
// Used by scenario setup to model deliberately uninitialized memory.
func (m *Memory) MarkUninit(p Pointer, length uint64) error {
	a, off, err := m.accessible(p, length, "uninit marking")
	if err != nil {
		return err
	}
	a.init.setRange(off, length, false)
	a.clearProvenanceOverlapping(off, length, PointerSize)
	return nil
}

// accessible bounds-checks a non-zero-length access and returns the backing
// allocation and start offset.
func (m *Memory) accessible(p Pointer, length uint64, purpose string) (*Allocation, uint64, error) {
	if err := m.CheckBounds(p, length, purpose); err != nil {
		return nil, 0, err
	}
	a, ok := m.Allocation(p.Prov)
	if !ok {
		return nil, 0, accessErrorf(ErrCodeBareDeref, p, purpose,
			"%d-byte access through a pointer without provenance", length)
	}
	return a, p.Addr - a.base, nil
}

func alignUp(addr, align uint64) uint64 {
	return (addr + align - 1) &^ (align - 1)
}

// leBits decodes up to 16 little-endian bytes into a Uint128.
func leBits(b []byte) ir.Uint128 {
	var buf [16]byte
	copy(buf[:], b)
	return ir.U128FromHalves(
		binary.LittleEndian.Uint64(buf[8:]),
		binary.LittleEndian.Uint64(buf[:8]),
	)
}

// putLEBits encodes the low len(b) bytes of bits as little-endian.
func putLEBits(b []byte, bits ir.Uint128) {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], bits.Lo)
	binary.LittleEndian.PutUint64(buf[8:], bits.Hi)
	copy(b, buf[:len(b)])
}

// String summarizes the arena for diagnostics.
func (m *Memory) String() string {
	live := 0
	for _, a := range m.allocs {
		if !a.dead {
			live++
		}
	}
	return fmt.Sprintf("mem.Memory{allocs: %d live / %d total}", live, len(m.allocs))
}
