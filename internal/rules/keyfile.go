package rules

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// keyFileParser reads GLib key files:
//
//	# comment
//	; also a comment
//	[replacer]
//	teh=the
//	i_=I
//
// Whitespace around keys and before values is dropped. Values are taken
// raw, without escape processing. Lines outside any group, other than
// comments and blank lines, are errors.
type keyFileParser struct{}

func (keyFileParser) ChecksSelfContainment() bool { return true }

func (keyFileParser) Parse(source string, data []byte) ([]Entry, error) {
	var (
		entries  []Entry
		group    string
		inGroup  bool
		hasGroup bool
		lineNo   int
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimLeft(scanner.Text(), " \t")

		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}

		if line[0] == '[' {
			end := strings.IndexByte(line, ']')
			if end < 0 || strings.TrimSpace(line[end+1:]) != "" {
				return nil, parseError(source, fmt.Errorf("line %d: malformed group header %q", lineNo, line))
			}
			group = line[1:end]
			inGroup = group == Group
			hasGroup = hasGroup || inGroup
			continue
		}

		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, parseError(source, fmt.Errorf("line %d: not a key-value pair, group, or comment", lineNo))
		}
		if group == "" {
			return nil, parseError(source, fmt.Errorf("line %d: key file does not start with a group", lineNo))
		}
		if !inGroup {
			continue
		}

		key := strings.TrimRight(line[:eq], " \t")
		value := strings.TrimLeft(line[eq+1:], " \t")
		entries = append(entries, Entry{Pattern: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, parseError(source, err)
	}

	if !hasGroup {
		return nil, missingGroupError(source)
	}
	return entries, nil
}
