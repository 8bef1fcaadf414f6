// Package store provides SQLite-backed durable storage for evaluation
// traces.
//
// The store implements an append-only log with:
//   - Sessions: one row per evaluation session (token, producer versions)
//   - Records: one row per intrinsic evaluation, content-addressed
//
// Records are idempotent by construction: the ID is derived from
// (session_token, intrinsic, args, seq) via internal/ir/hash.go, and
// writes use ON CONFLICT DO NOTHING, so replaying a session produces no
// duplicate rows.
//
// All ordering uses seq INTEGER (logical clock), never timestamps, and
// every query orders by seq ASC, id ASC COLLATE BINARY so replays read
// identical sequences.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: records require their session row
package store
