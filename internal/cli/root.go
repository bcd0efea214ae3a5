package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/replacer/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the replacer CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "replacer",
		Short: "Replacer - live text substitution for shared documents",
		Long: `Replacer joins collaborative documents as a virtual participant and
rewrites configured patterns as they are typed.

Substitution is active only in documents that start with the marker line
("#replacer on" by default). Settings are read from REPLACER_* environment
variables and may be overridden by flags.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// EngineOptions holds the flags shared by commands that run the engine.
// Unset flags fall back to the environment (see config.ParseEnv).
type EngineOptions struct {
	*RootOptions
	RulesFormat string
	Marker      string
	UserName    string
	Journal     string
}

func (o *EngineOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.RulesFormat, "rules-format", "", "rule format (keyfile|toml|yaml|cue); detected from the extension if empty")
	cmd.Flags().StringVar(&o.Marker, "marker", "", `enabling marker, \n escapes allowed; empty enables every document`)
	cmd.Flags().StringVar(&o.UserName, "user-name", "", "name of the virtual participant")
	cmd.Flags().StringVar(&o.Journal, "journal", "", "path to a SQLite journal recording every pass")
}

// resolveConfig merges the environment, positional rules path and flags,
// in increasing priority.
func (o *EngineOptions) resolveConfig(cmd *cobra.Command, rulesPath string) (config.Config, error) {
	cfg, err := config.ParseEnv()
	if err != nil {
		return config.Config{}, err
	}

	if rulesPath != "" {
		cfg.Rules = rulesPath
	}
	flags := cmd.Flags()
	if flags.Changed("rules-format") {
		cfg.Format = o.RulesFormat
	}
	if flags.Changed("marker") {
		cfg.Marker = config.Unescape(o.Marker)
	}
	if flags.Changed("user-name") {
		cfg.UserName = o.UserName
	}
	if flags.Changed("journal") {
		cfg.Journal = o.Journal
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
