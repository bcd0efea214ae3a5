package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			switch event.Type {
			case EventStep:
				fmt.Fprintf(&buf, "  [%d] %s %v -> %s %q\n", event.Seq, event.Step, event.Args, event.State, event.Text)
			case EventPass:
				fmt.Fprintf(&buf, "  [%d] pass %s: %d edits\n", event.Seq, event.Pass.ID, len(event.Pass.Edits))
			}
		}
	}
	return buf.String()
}

// LogCounter counts log records by message. Implemented by
// testutil.LogRecorder.
type LogCounter interface {
	Count(msg string) int
}

func fail(result *Result, kind, expected, actual string) error {
	return &AssertionError{Type: kind, Expected: expected, Actual: actual, Trace: result.Trace}
}

func assertCount(result *Result, kind string, want, got int) error {
	if want == got {
		return nil
	}
	return fail(result, kind, fmt.Sprintf("%d", want), fmt.Sprintf("%d", got))
}

func assertEditRule(result *Result, a Assertion) error {
	got := 0
	for _, p := range result.Passes {
		for _, e := range p.Edits {
			if e.Rule == a.Rule {
				got++
			}
		}
	}
	if a.Count == 0 && got > 0 {
		return nil
	}
	if a.Count == 0 {
		return fail(result, AssertEditRule, fmt.Sprintf("edits by rule %q", a.Rule), "none")
	}
	return assertCount(result, AssertEditRule, a.Count, got)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// logs may be nil when no log_count assertion is present.
func EvaluateAssertions(result *Result, assertions []Assertion, logs LogCounter) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertFinalText:
			if result.Final.Text != a.Text {
				err = fail(result, a.Type, fmt.Sprintf("%q", a.Text), fmt.Sprintf("%q", result.Final.Text))
			}
		case AssertState:
			if result.Final.State != a.State {
				err = fail(result, a.Type, a.State, result.Final.State)
			}
		case AssertEnabled:
			if a.Enabled == nil {
				err = fmt.Errorf("assertion[%d]: enabled is required", i)
			} else if result.Final.Enabled != *a.Enabled {
				err = fail(result, a.Type, fmt.Sprintf("%t", *a.Enabled), fmt.Sprintf("%t", result.Final.Enabled))
			}
		case AssertPassCount:
			err = assertCount(result, a.Type, a.Count, len(result.Passes))
		case AssertEditCount:
			err = assertCount(result, a.Type, a.Count, result.EditCount())
		case AssertJoinCount:
			err = assertCount(result, a.Type, a.Count, result.Final.Joins)
		case AssertLogCount:
			if logs == nil {
				err = fmt.Errorf("assertion[%d]: log_count requires a log recorder", i)
			} else if got := logs.Count(a.Message); got != a.Count {
				err = fail(result, a.Type, fmt.Sprintf("%d x %q", a.Count, a.Message), fmt.Sprintf("%d", got))
			}
		case AssertEditRule:
			err = assertEditRule(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}
