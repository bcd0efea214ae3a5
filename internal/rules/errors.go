package rules

import (
	"errors"
	"fmt"
)

// Error codes for rule-table configuration errors (E200-E299).
const (
	ErrCodeUnreadable      = "E201" // rule source missing or unreadable
	ErrCodeParse           = "E202" // rule source could not be parsed
	ErrCodeMissingValue    = "E203" // pattern without a usable replacement
	ErrCodeDuplicate       = "E204" // pattern defined twice
	ErrCodePrefixCollision = "E205" // one pattern is a prefix of another
	ErrCodeSelfContained   = "E206" // pattern occurs in its own replacement
	ErrCodeUnknownFormat   = "E207" // no parser registered for the format
	ErrCodeMissingGroup    = "E208" // source lacks the "replacer" group
	ErrCodeEmptyPattern    = "E209" // empty pattern
)

// ConfigError reports a rule source that cannot become a rule table.
//
// ConfigError is fatal to plugin initialization: no partial table is ever
// activated.
type ConfigError struct {
	// Code identifies the error category (E2xx).
	Code string

	// Source is the rule source location (file path or name).
	Source string

	// Pattern is the offending pattern, if any.
	Pattern string

	// Other is the second pattern involved in a prefix collision.
	Other string

	// Message is a human-readable description.
	Message string

	// Err is the underlying error (optional).
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Source != "" {
		return fmt.Sprintf("%s: %s: %s", e.Source, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// CodeOf returns the ConfigError code of err, or "" if err is not one.
func CodeOf(err error) string {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func missingValueError(pattern string, err error) *ConfigError {
	msg := fmt.Sprintf("pattern %q has no replacement value in group %q", pattern, Group)
	if err != nil {
		msg = fmt.Sprintf("pattern %q has an unreadable replacement value in group %q", pattern, Group)
	}
	return &ConfigError{
		Code:    ErrCodeMissingValue,
		Pattern: pattern,
		Message: msg,
		Err:     err,
	}
}

func prefixCollisionError(prefix, other string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodePrefixCollision,
		Pattern: prefix,
		Other:   other,
		Message: fmt.Sprintf("pattern %q is a prefix of pattern %q; disambiguate them, e.g. append a separator (%q)",
			prefix, other, prefix+string(Separator)),
	}
}

func selfContainedError(pattern string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeSelfContained,
		Pattern: pattern,
		Message: fmt.Sprintf("recursive key %q in group %q: the replacement contains the pattern", pattern, Group),
	}
}
