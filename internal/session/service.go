// Package session owns the authenticated session: signing up, signing in and
// out, and telling interested parties when the session changes.
//
// There is one Service per process. Initialize builds it together with the
// one Pipeline every backend call goes through; Reset tears it down.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/pipeline"
	"github.com/Togather-Foundation/eventdesk/internal/tokenstore"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/rs/zerolog"
)

const defaultAuthMessage = "Authentication failed"

var (
	ErrAlreadyInitialized = errors.New("session service already initialized")
	ErrNoSession          = errors.New("not signed in")
	ErrIncompleteSession  = errors.New("sign-in response is missing the token or user")
)

// AuthError is a sign-up or sign-in rejected by the backend or by input
// validation. Message is safe to show to the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// Navigator sends the user back to sign-in after a forced logout.
type Navigator interface {
	ToSignIn(ctx context.Context)
}

// Listener receives the new session, or nil once signed out.
type Listener func(session *users.Session)

// Deps are the collaborators handed to Initialize.
type Deps struct {
	BaseURL   string
	Store     tokenstore.Store
	Navigator Navigator
	Logger    zerolog.Logger
	// PipelineOptions are passed through to pipeline.New.
	PipelineOptions []pipeline.Option
}

type Service struct {
	store     tokenstore.Store
	pipeline  *pipeline.Pipeline
	navigator Navigator
	logger    zerolog.Logger

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

var (
	instanceMu sync.Mutex
	instance   *Service
)

// Initialize creates the process-wide Service. Calling it again before Reset
// returns ErrAlreadyInitialized.
func Initialize(deps Deps) (*Service, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return nil, ErrAlreadyInitialized
	}
	if deps.Store == nil {
		return nil, errors.New("session: store is required")
	}

	svc := &Service{
		store:     deps.Store,
		navigator: deps.Navigator,
		logger:    deps.Logger.With().Str("component", "session").Logger(),
		listeners: make(map[int]Listener),
	}

	opts := append([]pipeline.Option{pipeline.WithLogger(deps.Logger)}, deps.PipelineOptions...)
	opts = append(opts, pipeline.WithLogoutHooks(svc.onForcedLogout))
	svc.pipeline = pipeline.New(deps.BaseURL, deps.Store, opts...)

	instance = svc
	return svc, nil
}

// Reset drops the process-wide Service so Initialize can run again. The store
// is left as is; its owner closes it.
func Reset() {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		instance.mu.Lock()
		instance.listeners = make(map[int]Listener)
		instance.mu.Unlock()
	}
	instance = nil
}

// Pipeline returns the shared pipeline for other backend clients.
func (s *Service) Pipeline() *pipeline.Pipeline {
	return s.pipeline
}

// SignUp registers an account. It never signs the user in.
func (s *Service) SignUp(ctx context.Context, username, email, password string) error {
	input := users.SignUpInput{Username: username, Email: email, Password: password}
	if err := validation.Struct(input); err != nil {
		metrics.SessionEventsTotal.WithLabelValues("signup", "failure").Inc()
		return &AuthError{Message: err.Error(), Err: err}
	}

	err := s.pipeline.DoJSON(ctx, pipeline.Request{
		Method: http.MethodPost,
		Path:   "/auth/Register",
		Body:   input,
		Public: true,
	}, nil)
	if err != nil {
		metrics.SessionEventsTotal.WithLabelValues("signup", "failure").Inc()
		return authError(err)
	}

	metrics.SessionEventsTotal.WithLabelValues("signup", "success").Inc()
	s.logger.Info().Str("username", username).Msg("account registered")
	return nil
}

// SignIn exchanges credentials for a session and persists it. On any failure
// the stored session is left exactly as it was.
func (s *Service) SignIn(ctx context.Context, email, password string) (users.Session, error) {
	input := users.SignInInput{Email: email, Password: password}
	if err := validation.Struct(input); err != nil {
		metrics.SessionEventsTotal.WithLabelValues("signin", "failure").Inc()
		return users.Session{}, &AuthError{Message: err.Error(), Err: err}
	}

	var session users.Session
	err := s.pipeline.DoJSON(ctx, pipeline.Request{
		Method: http.MethodPost,
		Path:   "/auth/Login",
		Body:   input,
		Public: true,
	}, &session)
	if err != nil {
		metrics.SessionEventsTotal.WithLabelValues("signin", "failure").Inc()
		return users.Session{}, authError(err)
	}
	if session.Token == "" || (session.User.ID == "" && session.User.Email == "") {
		metrics.SessionEventsTotal.WithLabelValues("signin", "failure").Inc()
		return users.Session{}, &AuthError{Message: defaultAuthMessage, Err: ErrIncompleteSession}
	}

	if err := s.store.Save(session); err != nil {
		metrics.SessionEventsTotal.WithLabelValues("signin", "failure").Inc()
		return users.Session{}, fmt.Errorf("save session: %w", err)
	}

	metrics.SessionEventsTotal.WithLabelValues("signin", "success").Inc()
	s.logger.Info().Str("user_id", session.User.ID).Msg("signed in")
	s.notify(&session)
	return session, nil
}

// SignOut clears the session. Signing out with no session is not an error.
func (s *Service) SignOut() error {
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	metrics.SessionEventsTotal.WithLabelValues("signout", "success").Inc()
	s.notify(nil)
	return nil
}

// CurrentSession reads the stored session without touching the network.
func (s *Service) CurrentSession() (users.Session, bool, error) {
	return s.store.Load()
}

// TokenInfo decodes the stored token for display. The result says nothing
// about whether the backend still accepts the token.
func (s *Service) TokenInfo() (*auth.TokenInfo, error) {
	session, ok, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, ErrNoSession
	}
	return auth.Inspect(session.Token)
}

// Subscribe registers l for session changes and returns a function that
// removes it.
func (s *Service) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Service) notify(session *users.Session) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		if session == nil {
			l(nil)
			continue
		}
		copied := *session
		l(&copied)
	}
}

// onForcedLogout runs after the pipeline has already cleared the store.
func (s *Service) onForcedLogout(ctx context.Context) {
	s.notify(nil)
	if s.navigator != nil {
		s.navigator.ToSignIn(ctx)
	}
}

func authError(err error) error {
	var perr *pipeline.Error
	if errors.As(err, &perr) && perr.Message != "" {
		return &AuthError{Message: perr.Message, Err: err}
	}
	return &AuthError{Message: defaultAuthMessage, Err: err}
}
