package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/replacer/internal/ir"
	"github.com/roach88/replacer/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Document string // optional - filter to one document
	Rule     string // optional - only show edits made by this rule
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Document string     `json:"document,omitempty"`
	Passes   []ir.Pass  `json:"passes"`
	Stats    TraceStats `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Passes    int            `json:"passes"`
	Edits     int            `json:"edits"`
	Documents int            `json:"documents"`
	ByRule    map[string]int `json:"by_rule"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded substitution passes",
		Long: `List the passes recorded in a journal, in logical clock order.

Every pass shows its document, the number of rules it ran with and each
edit: offset, rule, erased length and inserted text.

Examples:
  replacer trace --db ./passes.db
  replacer trace --db ./passes.db --document notes.txt
  replacer trace --db ./passes.db --rule teh --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Document, "document", "", "only show passes over this document")
	cmd.Flags().StringVar(&opts.Rule, "rule", "", "only show edits made by this rule")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	passes, err := st.ReadPasses(ctx, opts.Document)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := buildTrace(passes, opts.Document, opts.Rule)

	if opts.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: result})
	}
	return outputTraceText(cmd, result)
}

// buildTrace filters passes by rule and computes statistics. A pass left
// without edits by the rule filter is dropped.
func buildTrace(passes []ir.Pass, document, rule string) TraceResult {
	result := TraceResult{
		Document: document,
		Passes:   []ir.Pass{},
		Stats:    TraceStats{ByRule: map[string]int{}},
	}
	docs := map[string]struct{}{}

	for _, p := range passes {
		if rule != "" {
			kept := []ir.Edit{}
			for _, e := range p.Edits {
				if e.Rule == rule {
					kept = append(kept, e)
				}
			}
			if len(kept) == 0 {
				continue
			}
			p.Edits = kept
		}

		result.Passes = append(result.Passes, p)
		docs[p.Document] = struct{}{}
		result.Stats.Edits += len(p.Edits)
		for _, e := range p.Edits {
			result.Stats.ByRule[e.Rule]++
		}
	}

	result.Stats.Passes = len(result.Passes)
	result.Stats.Documents = len(docs)
	return result
}

func outputTraceText(cmd *cobra.Command, result TraceResult) error {
	w := cmd.OutOrStdout()

	if len(result.Passes) == 0 {
		fmt.Fprintln(w, "No passes recorded.")
		return nil
	}

	for _, p := range result.Passes {
		fmt.Fprintf(w, "[%d] %s  %s  rules=%d edits=%d\n", p.Seq, p.ID, p.Document, p.Rules, len(p.Edits))
		for _, e := range p.Edits {
			fmt.Fprintf(w, "      @%-5d %-16q -%d +%q\n", e.Offset, e.Rule, e.ErasedLen, e.Inserted)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d pass(es), %d edit(s) across %d document(s)\n",
		result.Stats.Passes, result.Stats.Edits, result.Stats.Documents)
	return nil
}
