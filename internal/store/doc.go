// Package store provides the SQLite-backed substitution journal.
//
// The journal is append-only:
//   - passes: one row per substitution pass that committed edits
//   - edits:  the pass's edits in application order
//
// # Ordering
//
// Passes are ordered by seq (the engine's logical clock), never by wall
// time. Every query orders by seq ASC, id ASC COLLATE BINARY so reads are
// identical across runs.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: edits must reference a pass
package store
