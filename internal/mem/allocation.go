package mem

// initMask tracks per-byte initialization as a bitset.
type initMask struct {
	bits []uint64
	size uint64
}

func newInitMask(size uint64) *initMask {
	return &initMask{
		bits: make([]uint64, (size+63)/64),
		size: size,
	}
}

func (m *initMask) setRange(start, length uint64, init bool) {
	for i := start; i < start+length; i++ {
		word, bit := i/64, i%64
		if init {
			m.bits[word] |= 1 << bit
		} else {
			m.bits[word] &^= 1 << bit
		}
	}
}

func (m *initMask) get(i uint64) bool {
	return m.bits[i/64]&(1<<(i%64)) != 0
}

// firstUninit returns the offset of the first uninitialized byte in
// [start, start+length), or (0, false) if the whole range is initialized.
func (m *initMask) firstUninit(start, length uint64) (uint64, bool) {
	for i := start; i < start+length; i++ {
		if !m.get(i) {
			return i, true
		}
	}
	return 0, false
}

// Allocation is an owned, contiguous byte buffer of fixed size. Size is
// immutable after creation; contents are mutable. Allocations are destroyed
// only by explicit deallocation.
type Allocation struct {
	id    AllocID
	base  uint64
	bytes []byte
	align uint64

	// init tracks which bytes hold a written value.
	init *initMask

	// prov maps byte offsets of stored pointers to the provenance of the
	// stored value. Each entry covers PointerBytes bytes starting at its
	// key offset.
	prov map[uint64]AllocID

	scratch bool
	dead    bool
}

// ID returns the allocation's arena id.
func (a *Allocation) ID() AllocID { return a.id }

// Base returns the allocation's absolute base address.
func (a *Allocation) Base() uint64 { return a.base }

// Size returns the allocation's size in bytes.
func (a *Allocation) Size() uint64 { return uint64(len(a.bytes)) }

// Align returns the allocation's alignment in bytes.
func (a *Allocation) Align() uint64 { return a.align }

// clearProvenanceOverlapping drops every stored-pointer entry whose byte
// range overlaps [start, start+length). Overwriting any byte of a stored
// pointer destroys the whole pointer's provenance.
func (a *Allocation) clearProvenanceOverlapping(start, length uint64, ptrSize uint64) {
	if length == 0 {
		return
	}
	for off := range a.prov {
		if off < start+length && start < off+ptrSize {
			delete(a.prov, off)
		}
	}
}

// provenanceInRange reports whether any stored-pointer entry overlaps
// [start, start+length).
func (a *Allocation) provenanceInRange(start, length uint64, ptrSize uint64) bool {
	if length == 0 {
		return false
	}
	for off := range a.prov {
		if off < start+length && start < off+ptrSize {
			return true
		}
	}
	return false
}
