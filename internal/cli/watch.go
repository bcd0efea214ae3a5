package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/replacer/internal/host/memhost"
	"github.com/roach88/replacer/internal/rules"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	EngineOptions
	Reload bool // reload the rule file when it changes
}

// WatchResult summarizes a watch session.
type WatchResult struct {
	Document string `json:"document"`
	Passes   int    `json:"passes"`
	Edits    int    `json:"edits"`
}

func (r WatchResult) String() string {
	return fmt.Sprintf("Stopped watching %s: %d pass(es), %d edit(s)", r.Document, r.Passes, r.Edits)
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{EngineOptions: EngineOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "watch <rules> <file>",
		Short: "Keep a file substituted while it is edited",
		Long: `Open a file as a shared document and keep the replacer attached until
interrupted.

Every external write to the file is applied as an edit by a remote
participant; the replacer's edits are written back. Changes to the rule
file are picked up without a restart unless --reload=false (or
REPLACER_WATCH=false) is given. A rule file that fails validation is
reported and the previous rules stay active.

Examples:
  replacer watch replacer.ini notes.txt
  replacer watch rules.yaml notes.txt --journal passes.db --verbose`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], args[1], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.Reload, "reload", true, "reload the rule file when it changes")

	return cmd
}

func runWatch(opts *WatchOptions, rulesPath, file string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := formatter.Logger(slog.LevelInfo)

	cfg, err := opts.resolveConfig(cmd, rulesPath)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	if cmd.Flags().Changed("reload") {
		cfg.Watch = opts.Reload
	}

	reloader, err := rules.NewReloader(cfg.Rules, cfg.Format,
		rules.WithDebounce(cfg.Debounce),
		rules.WithLogger(logger),
	)
	if err != nil {
		return outputConfigError(formatter, err)
	}
	defer reloader.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := memhost.NewLoop()
	defer loop.Close()

	plugin, recorder, err := newPlugin(ctx, cfg, reloader, loop, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "start engine", err)
	}
	defer recorder.Close()

	doc, err := openDocumentFile(file, loop, cfg.Debounce, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("document not found: %s", file), nil)
		return WrapExitError(ExitCommandError, "open document", err)
	}
	defer doc.Close()

	reloader.OnChange(func(*rules.Table) {
		loop.Schedule(plugin.Refresh)
	})
	if cfg.Watch {
		if err := reloader.Watch(); err != nil {
			return WrapExitError(ExitCommandError, "watch rules", err)
		}
	}
	if err := doc.Watch(); err != nil {
		return WrapExitError(ExitCommandError, "watch document", err)
	}

	plugin.SessionAdded(doc.session)
	doc.join()

	formatter.VerboseLog("Watching %s with %d rule(s) from %s", file, reloader.Table().Len(), cfg.Rules)

	err = loop.Run(ctx)
	plugin.Close()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "watch stopped", err)
	}

	return formatter.Success(WatchResult{
		Document: doc.session.Name(),
		Passes:   len(recorder.passes),
		Edits:    len(recorder.edits()),
	})
}
