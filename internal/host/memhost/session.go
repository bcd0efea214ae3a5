package memhost

import (
	"errors"

	"github.com/roach88/replacer/internal/host"
)

// ErrJoinRejected is the default error injected by FailNextJoin.
var ErrJoinRejected = errors.New("join rejected by host")

// Session is an in-memory document session.
//
// By default a join completes on a later Loop turn. With SyncJoins set, the
// participant is added and done is called before JoinUser returns, as a
// server-local join would.
type Session struct {
	name  string
	doc   *Document
	users *UserTable
	loop  *Loop

	// SyncJoins completes joins inside JoinUser.
	SyncJoins bool

	joinErrs []error
	joins    int
}

var _ host.Session = (*Session)(nil)

// NewSession returns a session for a document holding text. Asynchronous
// joins complete on loop.
func NewSession(name, text string, loop *Loop) *Session {
	return &Session{
		name:  name,
		doc:   NewDocument(text),
		users: NewUserTable(),
		loop:  loop,
	}
}

func (s *Session) Name() string { return s.name }

// Document returns the host.Document view of the buffer.
func (s *Session) Document() host.Document { return s.doc }

// UserTable returns the host.UserTable view of the participants.
func (s *Session) UserTable() host.UserTable { return s.users }

// Buffer returns the concrete document.
func (s *Session) Buffer() *Document { return s.doc }

// Users returns the concrete user table.
func (s *Session) Users() *UserTable { return s.users }

// Joins returns how many join requests were issued.
func (s *Session) Joins() int { return s.joins }

// FailNextJoin makes the next join request fail with err, or
// ErrJoinRejected if err is nil.
func (s *Session) FailNextJoin(err error) {
	if err == nil {
		err = ErrJoinRejected
	}
	s.joinErrs = append(s.joinErrs, err)
}

type joinRequest struct {
	task      host.Task
	cancelled bool
}

func (r *joinRequest) Cancel() {
	r.cancelled = true
	if r.task != nil {
		r.task.Cancel()
	}
}

// JoinUser adds the requested participant, then reports it to done.
func (s *Session) JoinUser(params host.JoinParams, done host.JoinFunc) host.Request {
	s.joins++

	var failure error
	if len(s.joinErrs) > 0 {
		failure = s.joinErrs[0]
		s.joinErrs = s.joinErrs[1:]
	}

	req := &joinRequest{}
	complete := func() {
		if req.cancelled {
			return
		}
		if failure != nil {
			done(host.User{}, failure)
			return
		}
		u := s.users.Add(params.Name, params.Flags)
		if params.Status != host.StatusActive {
			_ = s.users.SetStatus(u.ID, params.Status)
			u.Status = params.Status
		}
		done(u, nil)
	}

	if s.SyncJoins {
		complete()
		return req
	}
	req.task = s.loop.Schedule(complete)
	return req
}
