// Package ir provides the foundational value and layout types for the
// Fixpoint constant evaluator.
//
// This package contains type definitions and pure functions only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// value model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Scalars are raw bit patterns with an explicit byte width; signedness
//     is a property of the Layout, never of the Scalar itself
//   - All arithmetic that must match target-machine behavior goes through
//     Uint128, the 128-bit working width
//   - NO float types anywhere - trace values use int64 for numbers
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
