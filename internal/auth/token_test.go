package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestInspect_JWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: "organizer",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "events-backend",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString([]byte("not-known-to-the-client"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	info, err := Inspect(signed)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.Subject != "user-1" || info.Issuer != "events-backend" {
		t.Fatalf("unexpected info: %#v", info)
	}
	if info.ExpiresAt == nil || !info.ExpiresAt.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, info.ExpiresAt)
	}
	if len(info.Roles) != 1 || info.Roles[0] != "organizer" {
		t.Fatalf("expected single role from role claim, got %v", info.Roles)
	}
}

func TestInspect_OpaqueAndMissing(t *testing.T) {
	if _, err := Inspect("   "); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if _, err := Inspect("opaque-session-token"); !errors.Is(err, ErrOpaqueToken) {
		t.Fatalf("expected opaque token error, got %v", err)
	}
}

func TestTokenFromHeader(t *testing.T) {
	if _, err := TokenFromHeader("nope"); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if token, err := TokenFromHeader(BearerHeader("token")); err != nil || token != "token" {
		t.Fatalf("expected token, got %s err %v", token, err)
	}
}
