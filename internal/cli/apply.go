package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/replacer/internal/engine"
	"github.com/roach88/replacer/internal/host/memhost"
	"github.com/roach88/replacer/internal/ir"
	"github.com/roach88/replacer/internal/rules"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	EngineOptions
	Write bool
}

// ApplyResult describes one apply run.
type ApplyResult struct {
	Document string    `json:"document"`
	Enabled  bool      `json:"enabled"`
	Passes   int       `json:"passes"`
	Edits    []ir.Edit `json:"edits"`
	Text     string    `json:"text"`
	Written  bool      `json:"written"`
}

// String renders the text-mode output: the rewritten document, or a
// summary when it was written back.
func (r ApplyResult) String() string {
	if r.Written {
		return fmt.Sprintf("✓ %s: %d edit(s) written", r.Document, len(r.Edits))
	}
	return r.Text
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{EngineOptions: EngineOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "apply <rules> <file>",
		Short: "Run one substitution pass over a file",
		Long: `Open a file as a shared document, let a simulated remote participant
attach the replacer, and print the document after the initial pass.

The file is only changed if it starts with the marker. Use --write to
replace the file instead of printing it.

Examples:
  replacer apply replacer.ini notes.txt
  replacer apply rules.toml notes.txt --write
  replacer apply rules.yaml notes.txt --marker "" --journal passes.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "write the result back to the file")

	return cmd
}

func runApply(opts *ApplyOptions, rulesPath, file string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.resolveConfig(cmd, rulesPath)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	table, err := rules.Load(cfg.Rules, cfg.Format)
	if err != nil {
		return outputConfigError(formatter, err)
	}

	info, err := os.Stat(file)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("document not found: %s", file), nil)
		return WrapExitError(ExitCommandError, "document not found", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read document", err)
	}

	loop := memhost.NewLoop()
	defer loop.Close()

	plugin, recorder, err := newPlugin(cmd.Context(), cfg, rules.Static(table), loop, formatter.Logger(slog.LevelWarn))
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "start engine", err)
	}
	defer recorder.Close()

	name := filepath.Base(file)
	doc := memhost.NewSession(name, string(data), loop)
	session := plugin.SessionAdded(doc)
	doc.Users().Add(remoteUser, 0)
	loop.RunPending()

	if session.State() != engine.StateAttached {
		plugin.Close()
		_ = formatter.Error(ErrCodeGeneric, "replacer did not attach to the document", nil)
		return NewExitError(ExitFailure, "replacer did not attach")
	}
	enabled := session.Enabled()
	plugin.Close()

	result := ApplyResult{
		Document: name,
		Enabled:  enabled,
		Passes:   len(recorder.passes),
		Edits:    recorder.edits(),
		Text:     doc.Buffer().Text(),
	}
	formatter.VerboseLog("%s: enabled=%t passes=%d edits=%d", name, result.Enabled, result.Passes, len(result.Edits))

	if opts.Write && len(result.Edits) > 0 {
		if err := os.WriteFile(file, []byte(result.Text), info.Mode().Perm()); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "write document", err)
		}
	}
	result.Written = opts.Write

	return formatter.Success(result)
}
