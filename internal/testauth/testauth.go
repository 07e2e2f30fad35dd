// Package testauth mints and checks access tokens the way the events backend
// does, for fake backends in tests and local development.
// This package should NEVER be used in production code.
//
// Security: tokens are signed with a well-known development secret unless a
// secret is supplied.
package testauth

import (
	"errors"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// DevSecret matches the backend's development default
	DevSecret = "dev_jwt_secret_change_me_in_production"
	// DevIssuer is the issuer claim on minted tokens
	DevIssuer = "eventdesk-test"
)

var ErrInvalidToken = errors.New("invalid token")

// Issuer signs HS256 access tokens for users.
type Issuer struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// Config configures an Issuer. Zero values fall back to dev defaults.
type Config struct {
	Secret string
	Expiry time.Duration
	Issuer string
	// Now overrides the clock, mostly to mint already-expired tokens.
	Now func() time.Time
}

func NewIssuer(cfg Config) *Issuer {
	if cfg.Secret == "" {
		cfg.Secret = DevSecret
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DevIssuer
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Issuer{
		secret: []byte(cfg.Secret),
		expiry: cfg.Expiry,
		issuer: cfg.Issuer,
		now:    cfg.Now,
	}
}

// Generate mints a token whose subject is the user's ID.
func (i *Issuer) Generate(user users.User) (string, error) {
	if user.ID == "" {
		return "", ErrInvalidToken
	}

	now := i.now()
	claims := &auth.Claims{
		Roles: user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate verifies signature and expiry and returns the claims.
func (i *Issuer) Validate(tokenString string) (*auth.Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, auth.ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &auth.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*auth.Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateHeader extracts and validates a bearer Authorization header value.
func (i *Issuer) ValidateHeader(header string) (*auth.Claims, error) {
	token, err := auth.TokenFromHeader(header)
	if err != nil {
		return nil, err
	}
	return i.Validate(token)
}

// DevToken mints a token for an ad-hoc user with the dev secret.
func DevToken(userID string, roles ...string) (string, error) {
	if userID == "" {
		userID = "test-user"
	}
	return NewIssuer(Config{}).Generate(users.User{ID: userID, Roles: roles})
}
