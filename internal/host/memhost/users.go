package memhost

import (
	"fmt"

	"github.com/roach88/replacer/internal/host"
)

// UserTable is an in-memory participant list with presence notifications.
type UserTable struct {
	nextID      uint
	users       []host.User
	available   signal[host.UserFunc]
	unavailable signal[host.UserFunc]
}

var _ host.UserTable = (*UserTable)(nil)

// NewUserTable returns an empty table. IDs start at 1.
func NewUserTable() *UserTable {
	return &UserTable{nextID: 1}
}

// Add appends an active participant and emits OnUserAvailable.
func (t *UserTable) Add(name string, flags host.UserFlags) host.User {
	u := host.User{ID: t.nextID, Name: name, Status: host.StatusActive, Flags: flags}
	t.nextID++
	t.users = append(t.users, u)
	t.emit(&t.available, u)
	return u
}

// Users returns every participant in join order.
func (t *UserTable) Users() []host.User {
	out := make([]host.User, len(t.users))
	copy(out, t.users)
	return out
}

// Lookup finds a participant by ID.
func (t *UserTable) Lookup(id uint) (host.User, bool) {
	for _, u := range t.users {
		if u.ID == id {
			return u, true
		}
	}
	return host.User{}, false
}

// LookupName finds a participant by name.
func (t *UserTable) LookupName(name string) (host.User, bool) {
	for _, u := range t.users {
		if u.Name == name {
			return u, true
		}
	}
	return host.User{}, false
}

// SetStatus updates a participant's status. Transitions into and out of
// StatusUnavailable emit the matching notification.
func (t *UserTable) SetStatus(id uint, status host.UserStatus) error {
	for i := range t.users {
		if t.users[i].ID != id {
			continue
		}
		prev := t.users[i].Status
		t.users[i].Status = status
		u := t.users[i]
		switch {
		case prev == host.StatusUnavailable && status != host.StatusUnavailable:
			t.emit(&t.available, u)
		case prev != host.StatusUnavailable && status == host.StatusUnavailable:
			t.emit(&t.unavailable, u)
		}
		return nil
	}
	return fmt.Errorf("no user with id %d", id)
}

// OnUserAvailable registers a presence-gained observer.
func (t *UserTable) OnUserAvailable(fn host.UserFunc) host.Subscription {
	return t.available.connect(fn)
}

// OnUserUnavailable registers a presence-lost observer.
func (t *UserTable) OnUserUnavailable(fn host.UserFunc) host.Subscription {
	return t.unavailable.connect(fn)
}

// Observers returns the number of connected presence observers.
func (t *UserTable) Observers() int {
	return t.available.len() + t.unavailable.len()
}

func (t *UserTable) emit(s *signal[host.UserFunc], u host.User) {
	for _, fn := range s.active() {
		fn(u)
	}
}
