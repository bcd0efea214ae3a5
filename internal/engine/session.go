package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/replacer/internal/host"
	"github.com/roach88/replacer/internal/ir"
)

// State is a session's attachment state.
type State int

const (
	StateDetached State = iota
	StateAwaitingJoin
	StateAttached
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateDetached:
		return "detached"
	case StateAwaitingJoin:
		return "awaiting_join"
	case StateAttached:
		return "attached"
	default:
		return "unknown"
	}
}

// Stats counts a session's committed work.
type Stats struct {
	Passes int // passes that committed at least one edit
	Edits  int
	Joins  int // join requests issued
}

// Session is the replacer's state for one active document.
//
// All methods must be called on the host's event thread.
type Session struct {
	plugin *Plugin
	proxy  host.Session
	name   string
	logger *slog.Logger

	doc   host.Document // borrowed from the host until Detach
	users host.UserTable

	enabled bool
	user    *host.User // virtual participant, set only while attached

	joining     bool
	pendingJoin host.Request

	pendingDispatch host.Task

	insertSub   host.Subscription
	eraseSub    host.Subscription
	availSub    host.Subscription
	unavailSub  host.Subscription
	detached    bool
	stats       Stats
	lastPass    *ir.Pass
}

func newSession(p *Plugin, proxy host.Session) *Session {
	s := &Session{
		plugin: p,
		proxy:  proxy,
		name:   proxy.Name(),
		logger: p.logger.With("document", proxy.Name()),
		doc:    proxy.Document(),
		users:  proxy.UserTable(),
	}

	s.availSub = s.users.OnUserAvailable(s.onUserAvailable)
	s.unavailSub = s.users.OnUserUnavailable(s.onUserUnavailable)

	if s.hasAvailableRemoteUsers() {
		s.join()
	}
	return s
}

// Name returns the document name.
func (s *Session) Name() string { return s.name }

// Enabled reports the last gate decision.
func (s *Session) Enabled() bool { return s.enabled }

// User returns the virtual participant while attached.
func (s *Session) User() (host.User, bool) {
	if s.user == nil {
		return host.User{}, false
	}
	return *s.user, true
}

// State returns the attachment state.
func (s *Session) State() State {
	switch {
	case s.user != nil:
		return StateAttached
	case s.joining:
		return StateAwaitingJoin
	default:
		return StateDetached
	}
}

// Stats returns counters for the session's lifetime.
func (s *Session) Stats() Stats { return s.stats }

// LastPass returns the most recent pass that committed edits.
func (s *Session) LastPass() (ir.Pass, bool) {
	if s.lastPass == nil {
		return ir.Pass{}, false
	}
	return *s.lastPass, true
}

// DispatchPending reports whether a deferred pass is scheduled.
func (s *Session) DispatchPending() bool { return s.pendingDispatch != nil }

// hasAvailableRemoteUsers is recomputed on every call.
func (s *Session) hasAvailableRemoteUsers() bool {
	for _, u := range s.users.Users() {
		if s.user != nil && u.ID == s.user.ID {
			continue
		}
		if u.Status == host.StatusUnavailable || u.IsLocal() {
			continue
		}
		return true
	}
	return false
}

func (s *Session) onUserAvailable(u host.User) {
	if u.IsLocal() || s.user != nil || s.joining {
		return
	}
	s.join()
}

func (s *Session) onUserUnavailable(host.User) {
	if s.user != nil && !s.hasAvailableRemoteUsers() {
		s.leave()
	}
}

// join issues the single outstanding join request. The presence-added
// observer is blocked meanwhile: a host may add the participant, and even
// complete the join, before JoinUser returns.
func (s *Session) join() {
	s.joining = true
	s.stats.Joins++

	params := host.JoinParams{
		Name:   s.plugin.userName,
		Status: host.StatusActive,
		Flags:  host.FlagLocal,
		Caret:  s.doc.Length(),
	}

	s.availSub.Block()
	req := s.proxy.JoinUser(params, s.onJoinFinished)
	s.availSub.Unblock()

	if s.joining {
		s.pendingJoin = req
	}
}

func (s *Session) onJoinFinished(user host.User, err error) {
	s.joining = false
	s.pendingJoin = nil
	if s.detached {
		return
	}

	if err != nil {
		jerr := &JoinError{Document: s.name, User: s.plugin.userName, Err: err}
		s.logger.Warn("replacer user join failed", "error", jerr)
		return
	}

	s.user = &user
	s.logger.Info("replacer user joined", "user_id", user.ID, "user", user.Name)

	s.run()

	s.insertSub = s.doc.OnInserted(func(int, string, host.User) { s.OnEdit() })
	s.eraseSub = s.doc.OnErased(func(int, int, host.User) { s.OnEdit() })

	// Presence may have dropped while the join was outstanding
	if !s.hasAvailableRemoteUsers() {
		s.leave()
	}
}

// leave releases the virtual participant. The user is cleared before it is
// marked unavailable so the resulting presence notification is ignored.
func (s *Session) leave() {
	user := *s.user
	s.user = nil

	if err := s.users.SetStatus(user.ID, host.StatusUnavailable); err != nil {
		s.logger.Warn("mark replacer user unavailable", "user_id", user.ID, "error", err)
	}

	if s.insertSub != nil {
		s.insertSub.Unsubscribe()
		s.insertSub = nil
	}
	if s.eraseSub != nil {
		s.eraseSub.Unsubscribe()
		s.eraseSub = nil
	}

	s.logger.Info("replacer user left", "user_id", user.ID)
}

// OnEdit schedules a deferred pass unless one is already pending. A burst
// of edits collapses into one pass that sees the post-burst document.
func (s *Session) OnEdit() {
	if s.pendingDispatch != nil || s.detached {
		return
	}
	s.pendingDispatch = s.plugin.scheduler.Schedule(func() {
		s.pendingDispatch = nil
		s.run()
	})
}

// run performs one substitution pass. A detached session or one without a
// virtual participant does nothing.
func (s *Session) run() {
	if s.user == nil || s.doc == nil {
		return
	}

	enabled, err := s.plugin.gate.Evaluate(s.doc, s.enabled)
	if err != nil {
		s.logger.Warn("marker check failed", "error", err)
	}
	if enabled != s.enabled {
		if enabled {
			s.logger.Info("replacer turned on by marker")
		} else {
			s.logger.Info("replacer turned off: marker missing")
		}
		s.enabled = enabled
	}
	if !enabled {
		return
	}

	table := s.plugin.rules.Table()
	if table == nil || table.Len() == 0 {
		return
	}

	s.block()
	edits, err := substitute(s.doc, table, *s.user)
	s.unblock()

	if err != nil {
		s.logger.Warn("substitution pass incomplete", "error", err)
	}
	if len(edits) == 0 {
		return
	}

	s.record(ir.Pass{
		Document: s.name,
		Rules:    table.Len(),
		Edits:    edits,
	})
}

func (s *Session) block() {
	if s.insertSub != nil {
		s.insertSub.Block()
	}
	if s.eraseSub != nil {
		s.eraseSub.Block()
	}
}

func (s *Session) unblock() {
	if s.insertSub != nil {
		s.insertSub.Unblock()
	}
	if s.eraseSub != nil {
		s.eraseSub.Unblock()
	}
}

func (s *Session) record(pass ir.Pass) {
	pass.ID = s.plugin.passIDs.Generate()
	pass.Seq = s.plugin.clock.Next()
	if text, err := s.doc.Read(0, s.doc.Length()); err == nil {
		pass.Digest = ir.ContentDigest(text)
	}

	s.stats.Passes++
	s.stats.Edits += len(pass.Edits)
	s.lastPass = &pass

	s.logger.Debug("substitution pass",
		"pass", pass.ID,
		"seq", pass.Seq,
		"rules", pass.Rules,
		"edits", len(pass.Edits),
	)

	if s.plugin.journal == nil {
		return
	}
	if err := s.plugin.journal.WritePass(context.Background(), pass); err != nil {
		// Log and continue: the document is already edited
		s.logger.Warn("journal write failed", "pass", pass.ID, "error", err)
	}
}

// Detach releases everything the session holds: presence observers, the
// pending pass, the virtual participant and any outstanding join request.
// Idempotent.
func (s *Session) Detach() {
	if s.detached {
		return
	}
	s.detached = true

	s.availSub.Unsubscribe()
	s.unavailSub.Unsubscribe()

	if s.pendingDispatch != nil {
		s.pendingDispatch.Cancel()
		s.pendingDispatch = nil
	}

	if s.user != nil {
		s.leave()
	}

	if s.pendingJoin != nil {
		s.pendingJoin.Cancel()
		s.pendingJoin = nil
	}
	s.joining = false

	s.doc = nil
}
