package rules

import (
	"fmt"
	"os"
)

// Load reads and validates the rule table at path.
// An empty format selects one from the file extension (see DetectFormat).
func Load(path, format string) (*Table, error) {
	if format == "" {
		format = DetectFormat(path)
	}
	parser, err := lookupParser(format, path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{
			Code:    ErrCodeUnreadable,
			Source:  path,
			Message: "read rule source",
			Err:     err,
		}
	}

	return parse(parser, path, format, data)
}

// LoadBytes validates a rule table held in memory. name identifies the
// source in errors and in Table.Source.
func LoadBytes(name string, data []byte, format string) (*Table, error) {
	if format == "" {
		format = DetectFormat(name)
	}
	parser, err := lookupParser(format, name)
	if err != nil {
		return nil, err
	}
	return parse(parser, name, format, data)
}

// FromRules builds a table from rules already in memory, applying the same
// validation as a key-file source.
func FromRules(name string, rules []Rule) (*Table, error) {
	entries := make([]Entry, len(rules))
	for i, r := range rules {
		entries[i] = Entry{Pattern: r.Pattern, Value: r.Replacement}
	}
	return NewTable(name, FormatKeyFile, entries, true)
}

func parse(parser Parser, source, format string, data []byte) (*Table, error) {
	entries, err := parser.Parse(source, data)
	if err != nil {
		return nil, err
	}
	t, err := NewTable(source, format, entries, parser.ChecksSelfContainment())
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return t, nil
}
