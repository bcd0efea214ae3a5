// Package rules loads and validates replacer rule tables.
//
// A rule table is an ordered list of pattern → replacement rules read from an
// external source under the fixed group name "replacer". Four source formats
// are registered in Parsers:
//
//	keyfile  GLib key file ([replacer] group, key=value lines)
//	toml     TOML table [replacer]
//	yaml     YAML mapping under "replacer", checked against an embedded schema
//	cue      CUE struct "replacer"
//
// The flat formats (keyfile, toml) additionally reject a rule whose pattern
// occurs in its own replacement. The structured formats (yaml, cue) do not.
//
// # Validation order
//
//  1. every pattern is non-empty and resolves to a non-empty replacement
//  2. no pattern is a literal prefix of another pattern (E205)
//  3. self-containment, for formats that enforce it (E206)
//
// A table that fails validation is never returned; callers either get a fully
// valid, immutable table or a *ConfigError.
//
// # Trailing separator
//
// Source formats such as key files cannot express a key ending in a space. A
// single trailing "_" in a pattern therefore stands for a space: the pattern
// "teh_" matches "teh " in the document. Table order is source order and is
// significant; substitution passes visit rules in exactly this order.
package rules
