package rules

import (
	"fmt"
	"strings"
)

// Group is the logical group name every source format stores rules under.
const Group = "replacer"

// Separator is the reserved trailing character that stands for a space.
const Separator = '_'

// Rule is a single pattern → replacement substitution.
type Rule struct {
	// Pattern is the key exactly as written in the source.
	Pattern string `json:"pattern" yaml:"pattern"`

	// Replacement is the text the matched pattern is rewritten into.
	Replacement string `json:"replacement" yaml:"replacement"`
}

// Needle returns the cleaned form of the pattern: a single trailing
// Separator is replaced with a space. This is the text the engine scans
// documents for and the form used in log lines. Pattern itself is unchanged.
func (r Rule) Needle() string {
	if n := len(r.Pattern); n > 0 && r.Pattern[n-1] == Separator {
		return r.Pattern[:n-1] + " "
	}
	return r.Pattern
}

// Table is an ordered, validated and immutable rule table.
//
// INVARIANTS:
//   - rule order is source order and never changes
//   - no rule's needle is a prefix of another rule's needle
//   - every replacement is non-empty
type Table struct {
	source string
	format string
	rules  []Rule
}

// Entry is one raw pattern/value pair produced by a Parser, in source order.
// Err is set when the value exists but cannot be read as text.
type Entry struct {
	Pattern string
	Value   string
	Err     error
}

// NewTable validates entries and builds a table.
// Returns the first *ConfigError in validation order.
func NewTable(source, format string, entries []Entry, checkSelfContainment bool) (*Table, error) {
	if errs := Validate(entries, checkSelfContainment); len(errs) > 0 {
		errs[0].Source = source
		return nil, errs[0]
	}

	rules := make([]Rule, len(entries))
	for i, e := range entries {
		rules[i] = Rule{Pattern: e.Pattern, Replacement: e.Value}
	}
	return &Table{source: source, format: format, rules: rules}, nil
}

// Validate checks entries and returns every violation found, grouped by
// validation stage: values first, then prefix collisions, then
// self-containment. Errors carry no Source; NewTable fills it in.
func Validate(entries []Entry, checkSelfContainment bool) []*ConfigError {
	var errs []*ConfigError

	// Stage 1: non-empty patterns, unique patterns, readable non-empty values
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Pattern == "" {
			errs = append(errs, &ConfigError{
				Code:    ErrCodeEmptyPattern,
				Message: "empty pattern in group " + Group,
			})
			continue
		}
		if seen[e.Pattern] {
			errs = append(errs, &ConfigError{
				Code:    ErrCodeDuplicate,
				Pattern: e.Pattern,
				Message: fmt.Sprintf("duplicate pattern %q in group %q", e.Pattern, Group),
			})
			continue
		}
		seen[e.Pattern] = true

		if e.Err != nil || e.Value == "" {
			errs = append(errs, missingValueError(e.Pattern, e.Err))
		}
	}
	if len(errs) > 0 {
		return errs
	}

	// Stage 2: prefix collisions, compared on the needle actually scanned for
	for i := range entries {
		ni := Rule{Pattern: entries[i].Pattern}.Needle()
		for j := i + 1; j < len(entries); j++ {
			nj := Rule{Pattern: entries[j].Pattern}.Needle()
			switch {
			case strings.HasPrefix(nj, ni):
				errs = append(errs, prefixCollisionError(entries[i].Pattern, entries[j].Pattern))
			case strings.HasPrefix(ni, nj):
				errs = append(errs, prefixCollisionError(entries[j].Pattern, entries[i].Pattern))
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}

	// Stage 3: self-containment
	if checkSelfContainment {
		for _, e := range entries {
			if strings.Contains(e.Value, Rule{Pattern: e.Pattern}.Needle()) {
				errs = append(errs, selfContainedError(e.Pattern))
			}
		}
	}

	return errs
}

// Rules returns a copy of the rules in table order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Rule returns the i-th rule in table order.
func (t *Table) Rule(i int) Rule {
	return t.rules[i]
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Source returns the location the table was loaded from.
func (t *Table) Source() string {
	return t.source
}

// Format returns the name of the parser that produced the table.
func (t *Table) Format() string {
	return t.format
}
