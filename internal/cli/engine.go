package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/replacer/internal/config"
	"github.com/roach88/replacer/internal/engine"
	"github.com/roach88/replacer/internal/host"
	"github.com/roach88/replacer/internal/ir"
	"github.com/roach88/replacer/internal/rules"
	"github.com/roach88/replacer/internal/store"
)

// remoteUser is the participant the CLI plays to attach the replacer.
const remoteUser = "editor"

// passRecorder keeps every pass of a run and forwards it to the journal,
// if one is configured.
type passRecorder struct {
	journal *store.Store
	passes  []ir.Pass
}

func (r *passRecorder) WritePass(ctx context.Context, pass ir.Pass) error {
	r.passes = append(r.passes, pass)
	if r.journal == nil {
		return nil
	}
	return r.journal.WritePass(ctx, pass)
}

func (r *passRecorder) edits() []ir.Edit {
	out := []ir.Edit{}
	for _, p := range r.passes {
		out = append(out, p.Edits...)
	}
	return out
}

func (r *passRecorder) Close() error {
	if r.journal == nil {
		return nil
	}
	return r.journal.Close()
}

// newPlugin builds a plugin from cfg. When cfg.Journal is set the journal is
// opened and the logical clock continues from its last recorded pass.
func newPlugin(ctx context.Context, cfg config.Config, source rules.Source, scheduler host.TaskScheduler, logger *slog.Logger) (*engine.Plugin, *passRecorder, error) {
	recorder := &passRecorder{}
	clock := engine.NewClock()

	if cfg.Journal != "" {
		st, err := store.Open(cfg.Journal)
		if err != nil {
			return nil, nil, fmt.Errorf("open journal %s: %w", cfg.Journal, err)
		}
		last, err := st.LastSeq(ctx)
		if err != nil {
			st.Close()
			return nil, nil, fmt.Errorf("read journal %s: %w", cfg.Journal, err)
		}
		recorder.journal = st
		clock = engine.NewClockAt(last)
	}

	plugin, err := engine.New(source, scheduler,
		engine.WithMarker(cfg.Marker),
		engine.WithUserName(cfg.UserName),
		engine.WithLogger(logger),
		engine.WithJournal(recorder),
		engine.WithClock(clock),
	)
	if err != nil {
		recorder.Close()
		return nil, nil, err
	}
	return plugin, recorder, nil
}
