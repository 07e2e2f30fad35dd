package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/pipeline"
	"github.com/Togather-Foundation/eventdesk/internal/testbackend"
	"github.com/Togather-Foundation/eventdesk/internal/tokenstore"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNavigator struct {
	mock.Mock
}

func (m *mockNavigator) ToSignIn(ctx context.Context) {
	m.Called(ctx)
}

func newService(t *testing.T, baseURL string, nav Navigator) (*Service, *tokenstore.MemoryStore) {
	t.Helper()
	store := tokenstore.NewMemoryStore()
	svc, err := Initialize(Deps{BaseURL: baseURL, Store: store, Navigator: nav, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(Reset)
	return svc, store
}

func TestSignIn_PersistsAndReturnsSession(t *testing.T) {
	backend := testbackend.New(t)
	user := backend.AddUser("user", "u@x.com", "secret123", "organizer")
	svc, store := newService(t, backend.URL, nil)

	session, err := svc.SignIn(context.Background(), "u@x.com", "secret123")

	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, user.ID, session.User.ID)
	assert.Equal(t, "u@x.com", session.User.Email)
	assert.True(t, session.User.HasRole("organizer"))

	stored, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session, stored)
}

func TestSignIn_RejectedLeavesStoreUntouched(t *testing.T) {
	backend := testbackend.New(t)
	backend.AddUser("user", "u@x.com", "secret123")
	nav := &mockNavigator{}
	svc, store := newService(t, backend.URL, nav)

	previous := users.Session{Token: "previous-token", User: users.User{ID: "old", Email: "old@x.com"}}
	require.NoError(t, store.Save(previous))

	_, err := svc.SignIn(context.Background(), "u@x.com", "wrong-password")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid credentials", authErr.Message)
	assert.ErrorIs(t, err, pipeline.ErrUnauthorized)

	stored, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, previous, stored)
	nav.AssertNotCalled(t, "ToSignIn", mock.Anything)
}

func TestSignIn_NetworkFailureUsesDefaultMessage(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	svc, store := newService(t, url, nil)

	_, err := svc.SignIn(context.Background(), "u@x.com", "secret123")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Authentication failed", authErr.Message)
	assert.ErrorIs(t, err, pipeline.ErrNetworkUnreachable)
	_, ok, _ := store.Load()
	assert.False(t, ok)
}

func TestSignIn_IncompleteResponseIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"abc"}`))
	}))
	defer srv.Close()
	svc, store := newService(t, srv.URL, nil)

	_, err := svc.SignIn(context.Background(), "u@x.com", "secret123")

	assert.ErrorIs(t, err, ErrIncompleteSession)
	_, ok, _ := store.Load()
	assert.False(t, ok)
}

func TestSignIn_InvalidInputSkipsNetwork(t *testing.T) {
	backend := testbackend.New(t)
	svc, _ := newService(t, backend.URL, nil)

	_, err := svc.SignIn(context.Background(), "not-an-email", "")

	var fieldErrs validation.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "email")
	assert.Contains(t, fieldErrs, "password")
	assert.Empty(t, backend.Requests())
}

func TestSignInThenSignOut_NoCurrentSession(t *testing.T) {
	backend := testbackend.New(t)
	backend.AddUser("user", "u@x.com", "secret123")
	svc, _ := newService(t, backend.URL, nil)

	_, err := svc.SignIn(context.Background(), "u@x.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut())

	_, ok, err := svc.CurrentSession()
	require.NoError(t, err)
	assert.False(t, ok)

	// idempotent
	require.NoError(t, svc.SignOut())
}

func TestSignUp_DoesNotSignIn(t *testing.T) {
	backend := testbackend.New(t)
	svc, _ := newService(t, backend.URL, nil)

	require.NoError(t, svc.SignUp(context.Background(), "newbie", "new@x.com", "longenough"))

	_, ok, err := svc.CurrentSession()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.SignIn(context.Background(), "new@x.com", "longenough")
	require.NoError(t, err)
	assert.Equal(t, "", backend.Requests()[0].Authorization, "register carries no bearer")
}

func TestSignUp_BackendRejectionMessage(t *testing.T) {
	backend := testbackend.New(t)
	backend.AddUser("taken", "u@x.com", "secret123")
	svc, _ := newService(t, backend.URL, nil)

	err := svc.SignUp(context.Background(), "another", "u@x.com", "secret123")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Email already registered", authErr.Message)
}

func TestSignUp_ValidationRules(t *testing.T) {
	backend := testbackend.New(t)
	svc, _ := newService(t, backend.URL, nil)

	err := svc.SignUp(context.Background(), "ab", "u@x.com", "short")

	var fieldErrs validation.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "must be at least 3 characters", fieldErrs["username"])
	assert.Equal(t, "must be at least 8 characters", fieldErrs["password"])
	assert.Empty(t, backend.Requests())
}

func TestInitialize_OnlyOnce(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	_, err := Initialize(Deps{BaseURL: "http://localhost:3000", Store: store})
	require.NoError(t, err)
	t.Cleanup(Reset)

	_, err = Initialize(Deps{BaseURL: "http://localhost:3000", Store: store})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	Reset()
	_, err = Initialize(Deps{BaseURL: "http://localhost:3000", Store: store})
	assert.NoError(t, err)
}

func TestInitialize_RequiresStore(t *testing.T) {
	_, err := Initialize(Deps{BaseURL: "http://localhost:3000"})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrAlreadyInitialized))
}

func TestForcedLogout_ClearsStoreNotifiesAndNavigates(t *testing.T) {
	backend := testbackend.New(t)
	backend.AddUser("user", "u@x.com", "secret123")
	nav := &mockNavigator{}
	nav.On("ToSignIn", mock.Anything).Return().Once()
	svc, store := newService(t, backend.URL, nav)

	_, err := svc.SignIn(context.Background(), "u@x.com", "secret123")
	require.NoError(t, err)

	var seen []*users.Session
	unsubscribe := svc.Subscribe(func(s *users.Session) { seen = append(seen, s) })
	defer unsubscribe()

	backend.RevokeAll()
	err = svc.Pipeline().DoJSON(context.Background(), pipeline.Request{Method: http.MethodGet, Path: "/events/"}, nil)

	assert.ErrorIs(t, err, pipeline.ErrUnauthorized)
	_, ok, _ := store.Load()
	assert.False(t, ok)
	require.Len(t, seen, 1)
	assert.Nil(t, seen[0])
	nav.AssertExpectations(t)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	backend := testbackend.New(t)
	backend.AddUser("user", "u@x.com", "secret123")
	svc, _ := newService(t, backend.URL, nil)

	var calls int
	unsubscribe := svc.Subscribe(func(*users.Session) { calls++ })

	_, err := svc.SignIn(context.Background(), "u@x.com", "secret123")
	require.NoError(t, err)
	unsubscribe()
	require.NoError(t, svc.SignOut())

	assert.Equal(t, 1, calls)
}

func TestTokenInfo(t *testing.T) {
	backend := testbackend.New(t)
	user := backend.AddUser("user", "u@x.com", "secret123", "admin")
	svc, _ := newService(t, backend.URL, nil)

	_, err := svc.TokenInfo()
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = svc.SignIn(context.Background(), "u@x.com", "secret123")
	require.NoError(t, err)

	info, err := svc.TokenInfo()
	require.NoError(t, err)
	assert.Equal(t, user.ID, info.Subject)
	assert.Equal(t, []string{"admin"}, info.Roles)
}
