package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the backend's access-token claims this client reads.
type Claims struct {
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenInfo describes an access token for display. It is decoded without
// signature verification and must never be used to decide whether a session
// is valid: only the backend can say that.
type TokenInfo struct {
	Subject   string
	Issuer    string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
	Roles     []string
}

var (
	ErrMissingToken = errors.New("missing token")
	ErrOpaqueToken  = errors.New("token is not a JWT")
)

// Inspect decodes a bearer token's claims. Opaque (non-JWT) tokens return ErrOpaqueToken.
func Inspect(token string) (*TokenInfo, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, ErrOpaqueToken
	}

	info := &TokenInfo{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
		Roles:   claims.Roles,
	}
	if claims.Role != "" && len(info.Roles) == 0 {
		info.Roles = []string{claims.Role}
	}
	if claims.IssuedAt != nil {
		t := claims.IssuedAt.Time
		info.IssuedAt = &t
	}
	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		info.ExpiresAt = &t
	}
	return info, nil
}

// BearerHeader formats the Authorization header value for token.
func BearerHeader(token string) string {
	return "Bearer " + token
}

func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}
