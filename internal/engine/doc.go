// Package engine implements the replacer: a virtual participant that joins
// live documents and rewrites rule patterns into their replacements.
//
// ARCHITECTURE:
//
// One Plugin serves every document of a host. For each active document the
// host reports, the Plugin creates a Session that moves through
//
//	Detached → AwaitingJoin → Attached → Detached
//
// driven by remote-participant presence. An attached session owns a virtual
// participant; every document edit schedules (at most one) deferred pass on
// the host's task scheduler. A pass:
//
//  1. evaluates the marker gate and stops if substitution is off
//  2. blocks the session's own edit notifications
//  3. for each rule in table order, re-reads the document and rewrites every
//     non-overlapping occurrence left to right (insert, then erase)
//  4. unblocks notifications
//
// Edits made by a pass therefore never re-enter the scheduler synchronously,
// and a pass is never run from inside a document notification.
//
// CONCURRENCY:
//
// All session callbacks run on the host's single event thread; sessions hold
// no locks. Rule tables come from a rules.Source and may be swapped by a
// reloader on another goroutine; each pass reads the source once and uses
// that table throughout.
//
// TERMINATION:
//
// One pass visits each rule once and never rescans text it just inserted for
// the same rule. Rules that feed each other can still keep a document
// changing across passes; rules.AnalyzeCycles reports such tables.
package engine
