package rules

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// cueParser reads a "replacer" struct of string fields:
//
//	replacer: {
//		teh:    "the"
//		"i ":   "I "
//	}
//
// Conflicting definitions of one field fail CUE unification and surface as
// parse errors. Field order is declaration order.
type cueParser struct{}

func (cueParser) ChecksSelfContainment() bool { return false }

func (cueParser) Parse(source string, data []byte) ([]Entry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(source))
	if err := v.Validate(); err != nil {
		return nil, parseError(source, err)
	}

	group := v.LookupPath(cue.ParsePath(Group))
	if !group.Exists() {
		return nil, missingGroupError(source)
	}
	if err := group.Err(); err != nil {
		return nil, parseError(source, err)
	}

	iter, err := group.Fields()
	if err != nil {
		return nil, parseError(source, fmt.Errorf("%q must be a struct: %w", Group, err))
	}

	var entries []Entry
	for iter.Next() {
		entry := Entry{Pattern: iter.Selector().Unquoted()}
		s, err := iter.Value().String()
		if err != nil {
			entry.Err = err
		} else {
			entry.Value = s
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
