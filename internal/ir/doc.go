// Package ir provides the shared record types for the replacer engine.
//
// This package contains type definitions and their canonical encoding only.
// All other internal packages import ir; ir imports nothing internal, so the
// journal, the engine and the test harness agree on one shape for edits and
// passes without circular dependencies.
//
// Key design constraints:
//   - Offsets and lengths are measured in characters (runes), never bytes
//   - Passes are ordered by a logical seq, never by wall-clock time
//   - All JSON tags use snake_case
package ir
