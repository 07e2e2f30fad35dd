package tokenstore

import (
	"slices"
	"sync"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

// MemoryStore keeps the session in process memory only.
type MemoryStore struct {
	mu      sync.Mutex
	session *users.Session
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(session users.Session) error {
	if session.Token == "" {
		return ErrInvalidSession
	}
	session.User.Roles = slices.Clone(session.User.Roles)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &session
	return nil
}

func (s *MemoryStore) Load() (users.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return users.Session{}, false, nil
	}
	out := *s.session
	out.User.Roles = slices.Clone(out.User.Roles)
	return out, true, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}
