package testauth

import (
	"testing"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_GenerateAndValidate(t *testing.T) {
	issuer := NewIssuer(Config{Secret: "test_secret"})

	token, err := issuer.Generate(users.User{ID: "u-1", Roles: []string{"organizer"}})
	require.NoError(t, err)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, DevIssuer, claims.Issuer)
	assert.Equal(t, []string{"organizer"}, claims.Roles)
}

func TestIssuer_ValidateHeader(t *testing.T) {
	issuer := NewIssuer(Config{})
	token, err := issuer.Generate(users.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = issuer.ValidateHeader(auth.BearerHeader(token))
	require.NoError(t, err)

	_, err = issuer.ValidateHeader("")
	assert.ErrorIs(t, err, auth.ErrMissingToken)
}

func TestIssuer_RejectsOtherSecret(t *testing.T) {
	token, err := NewIssuer(Config{Secret: "one"}).Generate(users.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewIssuer(Config{Secret: "two"}).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsExpired(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-48 * time.Hour) }
	token, err := NewIssuer(Config{Now: past}).Generate(users.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewIssuer(Config{}).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RequiresSubject(t *testing.T) {
	_, err := NewIssuer(Config{}).Generate(users.User{})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDevToken_InspectsAsJWT(t *testing.T) {
	token, err := DevToken("", "admin")
	require.NoError(t, err)

	info, err := auth.Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "test-user", info.Subject)
	assert.Equal(t, []string{"admin"}, info.Roles)
	require.NotNil(t, info.ExpiresAt)
}
