package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

// State is a cached, observable view of the current user for code that
// renders session-dependent output. It follows the Service through a
// subscription, so forced logouts show up here too.
type State struct {
	svc         *Service
	unsubscribe func()

	mu       sync.RWMutex
	user     *users.User
	closed   bool
	changed  bool
	onChange []func(user *users.User)
}

// NewState starts following svc and then seeds the user from the store. A
// change delivered while the store is read wins over the stored value.
func NewState(svc *Service) (*State, error) {
	st := &State{svc: svc}
	st.unsubscribe = svc.Subscribe(st.update)

	session, ok, err := svc.CurrentSession()
	if err != nil {
		st.unsubscribe()
		return nil, fmt.Errorf("load session: %w", err)
	}

	st.mu.Lock()
	if !st.changed && ok {
		user := session.User
		st.user = &user
	}
	st.mu.Unlock()
	return st, nil
}

func (st *State) update(session *users.Session) {
	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return
	}
	st.changed = true
	if session == nil {
		st.user = nil
	} else {
		user := session.User
		st.user = &user
	}
	current := st.user
	callbacks := append([]func(*users.User){}, st.onChange...)
	st.mu.Unlock()

	for _, fn := range callbacks {
		fn(current)
	}
}

// User returns the signed-in user, if any.
func (st *State) User() (users.User, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.user == nil {
		return users.User{}, false
	}
	return *st.user, true
}

func (st *State) IsAuthenticated() bool {
	_, ok := st.User()
	return ok
}

// OnChange registers fn to run after every session change with the new user,
// or nil when signed out.
func (st *State) OnChange(fn func(user *users.User)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.onChange = append(st.onChange, fn)
}

func (st *State) SignIn(ctx context.Context, email, password string) error {
	_, err := st.svc.SignIn(ctx, email, password)
	return err
}

func (st *State) SignUp(ctx context.Context, username, email, password string) error {
	return st.svc.SignUp(ctx, username, email, password)
}

func (st *State) SignOut() error {
	return st.svc.SignOut()
}

// Close stops following the Service. Later changes are dropped silently.
func (st *State) Close() {
	st.mu.Lock()
	st.closed = true
	st.onChange = nil
	st.mu.Unlock()
	st.unsubscribe()
}
