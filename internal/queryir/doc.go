// Package queryir defines the abstract filter language for trace queries.
//
// A Filter describes which evaluation records to read back from a trace
// store, independent of any storage backend. The trace CLI builds filters
// from flags; internal/querysql compiles them to parameterized SQL.
//
// The filter language is deliberately small: predicates over the columns
// every backend has (intrinsic name, outcome, error classification,
// sequence range) plus conjunction. Keeping it backend-neutral means a
// different store could compile the same filters without touching the
// callers.
//
// Filters are sealed: only types in this package implement Filter, which
// keeps backend type switches exhaustive.
package queryir
