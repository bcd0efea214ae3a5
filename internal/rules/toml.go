package rules

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// tomlParser reads a [replacer] table of string values:
//
//	[replacer]
//	teh = "the"
//	"i_" = "I"
//
// Entry order follows key order in the file.
type tomlParser struct{}

func (tomlParser) ChecksSelfContainment() bool { return true }

func (tomlParser) Parse(source string, data []byte) ([]Entry, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, parseError(source, err)
	}

	groupVal, ok := raw[Group]
	if !ok {
		return nil, missingGroupError(source)
	}
	group, ok := groupVal.(map[string]any)
	if !ok {
		return nil, parseError(source, fmt.Errorf("%q must be a table, got %T", Group, groupVal))
	}

	var entries []Entry
	for _, key := range md.Keys() {
		if len(key) != 2 || key[0] != Group {
			continue
		}
		pattern := key[1]
		switch v := group[pattern].(type) {
		case string:
			entries = append(entries, Entry{Pattern: pattern, Value: v})
		default:
			entries = append(entries, Entry{
				Pattern: pattern,
				Err:     fmt.Errorf("value is %s, not a string", md.Type(key...)),
			})
		}
	}
	return entries, nil
}
