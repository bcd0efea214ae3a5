package rules

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Format names accepted by Load and the --rules-format flag.
const (
	FormatKeyFile = "keyfile"
	FormatTOML    = "toml"
	FormatYAML    = "yaml"
	FormatCUE     = "cue"
)

// Parser turns raw source bytes into ordered entries of the "replacer" group.
//
// Parsers only read; all rule validation happens in NewTable so every format
// is held to the same invariants.
type Parser interface {
	// Parse returns the entries of the replacer group in source order.
	// Structural problems are returned as *ConfigError (E202 or E208).
	Parse(source string, data []byte) ([]Entry, error)

	// ChecksSelfContainment reports whether tables from this format reject a
	// pattern that occurs in its own replacement.
	ChecksSelfContainment() bool
}

// Parsers is the explicit format registry.
var Parsers = map[string]Parser{
	FormatKeyFile: keyFileParser{},
	FormatTOML:    tomlParser{},
	FormatYAML:    yamlParser{},
	FormatCUE:     cueParser{},
}

var extensions = map[string]string{
	".ini":     FormatKeyFile,
	".conf":    FormatKeyFile,
	".keyfile": FormatKeyFile,
	".toml":    FormatTOML,
	".yaml":    FormatYAML,
	".yml":     FormatYAML,
	".cue":     FormatCUE,
}

// DetectFormat picks a format from the file extension of path.
// Unknown extensions fall back to the key-file format.
func DetectFormat(path string) string {
	if f, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return FormatKeyFile
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(Parsers))
	for name := range Parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupParser(format, source string) (Parser, error) {
	p, ok := Parsers[format]
	if !ok {
		return nil, &ConfigError{
			Code:    ErrCodeUnknownFormat,
			Source:  source,
			Message: fmt.Sprintf("unknown rule format %q (supported: %s)", format, strings.Join(Formats(), ", ")),
		}
	}
	return p, nil
}

func parseError(source string, err error) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeParse,
		Source:  source,
		Message: "parse rule source",
		Err:     err,
	}
}

func missingGroupError(source string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingGroup,
		Source:  source,
		Message: fmt.Sprintf("rule source does not have group %q", Group),
	}
}
