// Package tokenstore persists the single active session: its bearer token and
// the user profile that came with it.
package tokenstore

import (
	"errors"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

// ErrInvalidSession is returned by Save for a session without a token.
var ErrInvalidSession = errors.New("session has no token")

// Store is the durable owner of the current session.
//
// Load reports ok=false whenever the stored state is incomplete (a token with no
// user record, or the reverse). A half-written session is never treated as
// authenticated.
type Store interface {
	Save(session users.Session) error
	Load() (session users.Session, ok bool, err error)
	Clear() error
}
