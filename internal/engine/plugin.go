package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/replacer/internal/host"
	"github.com/roach88/replacer/internal/ir"
	"github.com/roach88/replacer/internal/rules"
)

// DefaultUserName is the virtual participant's name.
const DefaultUserName = "Replacer"

// Journal records substitution passes. Implemented by store.Store.
type Journal interface {
	WritePass(ctx context.Context, pass ir.Pass) error
}

// Plugin attaches the replacer to every document a host reports.
//
// Thread-safety model:
//   - SessionAdded, SessionRemoved, Refresh, Close: host event thread only
//   - the rules.Source may be swapped from any goroutine
//
// INVARIANTS:
//   - at most one Session per host.Session
//   - sessions are kept in the order they were added
type Plugin struct {
	rules     rules.Source
	scheduler host.TaskScheduler
	gate      Gate
	userName  string
	logger    *slog.Logger
	journal   Journal
	passIDs   PassIDGenerator
	clock     *Clock

	sessions []*Session
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithMarker sets the enabling marker (default DefaultMarker).
func WithMarker(marker string) Option {
	return func(p *Plugin) {
		p.gate = NewGate(marker)
	}
}

// WithUserName sets the virtual participant's name (default DefaultUserName).
func WithUserName(name string) Option {
	return func(p *Plugin) {
		p.userName = name
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(p *Plugin) {
		p.logger = l
	}
}

// WithJournal records every pass that commits edits.
func WithJournal(j Journal) Option {
	return func(p *Plugin) {
		p.journal = j
	}
}

// WithPassIDGenerator sets the pass ID source (default UUIDv7Generator).
func WithPassIDGenerator(g PassIDGenerator) Option {
	return func(p *Plugin) {
		p.passIDs = g
	}
}

// WithClock sets the logical clock stamping passes, e.g. to continue the
// sequence of an existing journal.
func WithClock(c *Clock) Option {
	return func(p *Plugin) {
		p.clock = c
	}
}

// New creates a Plugin drawing rule tables from source and deferring passes
// to scheduler. Cycle warnings for the initial table are logged.
func New(source rules.Source, scheduler host.TaskScheduler, opts ...Option) (*Plugin, error) {
	if source == nil || source.Table() == nil {
		return nil, errors.New("replacer: no rule table")
	}
	if scheduler == nil {
		return nil, errors.New("replacer: no task scheduler")
	}

	p := &Plugin{
		rules:     source,
		scheduler: scheduler,
		gate:      NewGate(DefaultMarker),
		userName:  DefaultUserName,
		logger:    slog.Default(),
		passIDs:   UUIDv7Generator{},
		clock:     NewClock(),
	}
	for _, opt := range opts {
		opt(p)
	}

	table := source.Table()
	p.logger.Info("replacer initialized",
		"rules", table.Len(),
		"source", table.Source(),
		"format", table.Format(),
	)
	p.warnCycles(table)
	return p, nil
}

func (p *Plugin) warnCycles(table *rules.Table) {
	for _, w := range rules.AnalyzeCycles(table) {
		p.logger.Warn("rule cycle", "path", w.Path, "message", w.Message)
	}
}

// SessionAdded starts tracking a newly active document. If remote
// participants are already present, the join is issued immediately.
func (p *Plugin) SessionAdded(proxy host.Session) *Session {
	for _, s := range p.sessions {
		if s.proxy == proxy {
			return s
		}
	}
	s := newSession(p, proxy)
	p.sessions = append(p.sessions, s)
	return s
}

// SessionRemoved detaches s and forgets it.
func (p *Plugin) SessionRemoved(s *Session) {
	s.Detach()
	for i, other := range p.sessions {
		if other == s {
			p.sessions = append(p.sessions[:i], p.sessions[i+1:]...)
			break
		}
	}
}

// Sessions returns the tracked sessions in the order they were added.
func (p *Plugin) Sessions() []*Session {
	out := make([]*Session, len(p.sessions))
	copy(out, p.sessions)
	return out
}

// Refresh schedules a pass on every attached session, e.g. after the rule
// table was reloaded.
func (p *Plugin) Refresh() {
	table := p.rules.Table()
	p.warnCycles(table)
	for _, s := range p.sessions {
		if s.user != nil {
			s.OnEdit()
		}
	}
}

// Close detaches every session.
func (p *Plugin) Close() {
	for _, s := range p.sessions {
		s.Detach()
	}
	p.sessions = nil
}
