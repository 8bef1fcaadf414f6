// Package mem implements the byte-addressable memory model the Fixpoint
// evaluator executes against.
//
// Allocations are owned arena entries referenced by integer id - never raw
// Go pointers with hidden metadata. Each allocation carries a per-byte
// initialization bitmap and a sparse provenance map recording where
// pointers are stored in its bytes. Provenance stripping and checking are
// explicit operations, which keeps them independently testable.
//
// Pointers are abstract addresses. A pointer either carries provenance
// (it resolves to exactly one allocation plus a byte offset) or it is a
// bare integer. Bare integers may only be compared for equality and never
// participate in derived-distance arithmetic.
//
// All methods are synchronous and the arena is exclusively owned by one
// evaluation session; there is no internal locking.
package mem
