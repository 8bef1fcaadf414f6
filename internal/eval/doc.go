// Package eval implements the Fixpoint intrinsic evaluator: the fixed set
// of built-in primitive operations the surrounding compiler executes to
// resolve compile-time-constant expressions.
//
// The evaluator is organized as one dispatch facade (Evaluator.Dispatch)
// over four groups of operations:
//
//   - numeric intrinsics (popcount, leading/trailing zero counts, byte
//     swap, bit reverse, rotates, saturating arithmetic, exact division)
//   - pointer arithmetic and distance (arith_offset, offset,
//     ptr_offset_from and its unsigned variant)
//   - bulk memory operations (copy, write_bytes, compare_bytes, raw_eq,
//     typed_swap)
//   - validity assertions (assert_inhabited, assert_zero_valid,
//     assert_mem_uninitialized_valid)
//
// plus the type-introspection constants the outer interpreter cannot
// compute itself (type_name, type_id, size_of, needs_drop, variant_count,
// and friends).
//
// Every failure is classified: undefined behavior carries the violated
// rule, evaluator limitations report Unsupported, unresolved type
// parameters report TooGeneric (the caller retries after substitution),
// and validity-assertion failures abort the session through the Machine.
// The facade never recovers silently, and it returns OutcomeUnhandled -
// not an error - for intrinsic names it does not implement, so the caller
// can try other handlers.
//
// Evaluation is strictly single-threaded and synchronous: a session is a
// pure function from (operands, memory state) to (new memory state,
// outcome), and the only internal resource lifecycle is the scratch
// allocation in typed_swap, which is released on every path.
package eval
