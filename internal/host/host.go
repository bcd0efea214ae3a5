// Package host defines the collaboration-server capabilities the replacer
// engine consumes: a shared document buffer, a user table with presence
// notifications, a join operation for the engine's own participant, and a
// task scheduler.
//
// The engine never implements these. A real collaboration server adapts its
// objects to these interfaces; package memhost provides an in-memory
// implementation for tests, scenarios and the CLI.
//
// All callbacks are delivered on the host's single event thread. Offsets and
// lengths are counted in characters (runes), never bytes.
package host

// UserStatus is a participant's presence status.
type UserStatus int

const (
	// StatusUnavailable marks a participant that has left the document.
	StatusUnavailable UserStatus = iota
	// StatusActive marks a participant that is present.
	StatusActive
)

// String returns the lowercase status name.
func (s UserStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// UserFlags carries participant attributes.
type UserFlags uint

// FlagLocal marks a participant that lives in the server process itself.
const FlagLocal UserFlags = 1 << 0

// User is a participant of a document session.
type User struct {
	ID     uint
	Name   string
	Status UserStatus
	Flags  UserFlags
}

// IsLocal reports whether the user is flagged local.
func (u User) IsLocal() bool {
	return u.Flags&FlagLocal != 0
}

// Subscription is the handle returned for every notification registration.
//
// Block and Unblock nest: a subscription blocked twice needs two Unblock
// calls. Unsubscribe is idempotent.
type Subscription interface {
	Block()
	Unblock()
	Unsubscribe()
}

// InsertFunc observes text inserted into a document.
type InsertFunc func(offset int, text string, author User)

// EraseFunc observes text erased from a document.
type EraseFunc func(offset, length int, author User)

// Document is a shared, mutable text buffer.
type Document interface {
	// Length returns the document length in characters.
	Length() int

	// Read returns length characters starting at offset.
	Read(offset, length int) (string, error)

	// Insert inserts text at offset on behalf of author.
	Insert(offset int, text string, author User) error

	// Erase removes length characters at offset on behalf of author.
	Erase(offset, length int, author User) error

	OnInserted(fn InsertFunc) Subscription
	OnErased(fn EraseFunc) Subscription
}

// UserFunc observes a presence change.
type UserFunc func(User)

// UserTable is the set of participants of one document session.
type UserTable interface {
	// Users returns every known participant, available or not.
	Users() []User

	// OnUserAvailable fires when a participant joins or becomes available.
	OnUserAvailable(fn UserFunc) Subscription

	// OnUserUnavailable fires when a participant becomes unavailable.
	OnUserUnavailable(fn UserFunc) Subscription

	// SetStatus changes a participant's status, emitting the matching
	// notification on a transition.
	SetStatus(id uint, status UserStatus) error
}

// JoinParams describes the participant requested by Session.JoinUser.
type JoinParams struct {
	Name   string
	Status UserStatus
	Flags  UserFlags
	Caret  int
}

// JoinFunc receives the outcome of a join request. Exactly one of user and
// err is meaningful.
type JoinFunc func(user User, err error)

// Request is an outstanding join request.
type Request interface {
	// Cancel drops the request; its JoinFunc is not called afterwards.
	Cancel()
}

// Session is the host's proxy for one active document.
type Session interface {
	// Name identifies the document in logs and journals.
	Name() string

	Document() Document
	UserTable() UserTable

	// JoinUser asks the host to add a participant. done may be called
	// before JoinUser returns.
	JoinUser(params JoinParams, done JoinFunc) Request
}

// Task is a scheduled callback.
type Task interface {
	// Cancel prevents the callback from running if it has not run yet.
	Cancel()
}

// TaskScheduler defers callbacks to a later turn of the host's event thread.
type TaskScheduler interface {
	Schedule(fn func()) Task
}
