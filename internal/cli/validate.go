package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/replacer/internal/rules"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	RulesFormat string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                 `json:"valid"`
	Source string               `json:"source"`
	Format string               `json:"format"`
	Rules  []rules.Rule         `json:"rules"`
	Cycles []rules.CycleWarning `json:"cycles"`
}

// String renders the text-mode summary.
func (r ValidationResult) String() string {
	return fmt.Sprintf("✓ %d rule(s) valid (%s, %s)", len(r.Rules), r.Source, r.Format)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <rules>",
		Short: "Check a rule table without running the engine",
		Long: `Load and validate a rule table.

Reports the first configuration error (duplicate or empty patterns, missing
replacements, patterns that are prefixes of one another, patterns contained
in their own replacement). A valid table is summarized together with any
rules whose replacements feed each other.

Exit codes:
  0 - Table is valid (cycle warnings do not fail validation)
  1 - Table is invalid

Examples:
  replacer validate replacer.ini
  replacer validate rules.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RulesFormat, "rules-format", "", "rule format (keyfile|toml|yaml|cue); detected from the extension if empty")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	table, err := rules.Load(path, opts.RulesFormat)
	if err != nil {
		return outputConfigError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d rule(s) from %s", table.Len(), table.Source())

	cycles := rules.AnalyzeCycles(table)
	warnings := make([]string, len(cycles))
	for i, c := range cycles {
		warnings[i] = c.Message
	}

	if opts.Verbose && opts.Format != "json" {
		for _, r := range table.Rules() {
			formatter.VerboseLog("  %q -> %q", r.Pattern, r.Replacement)
		}
	}

	return formatter.Success(ValidationResult{
		Valid:  true,
		Source: table.Source(),
		Format: table.Format(),
		Rules:  table.Rules(),
		Cycles: cycles,
	}, warnings...)
}

// configErrorDetails is the JSON detail payload of a rule-table error.
type configErrorDetails struct {
	Source  string `json:"source,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Other   string `json:"other,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

// outputConfigError reports a rule loading failure and returns the exit
// error. Non-config errors are reported under ErrCodeGeneric.
func outputConfigError(formatter *OutputFormatter, err error) error {
	var ce *rules.ConfigError
	if !errors.As(err, &ce) {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "rule table invalid", err)
	}

	details := configErrorDetails{Source: ce.Source, Pattern: ce.Pattern, Other: ce.Other}
	if ce.Err != nil {
		details.Cause = ce.Err.Error()
	}
	_ = formatter.Error(ce.Code, ce.Message, details)
	return WrapExitError(ExitFailure, "rule table invalid", err)
}
