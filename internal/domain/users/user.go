package users

import (
	"encoding/json"

	"github.com/samber/lo"
)

// User is the profile the backend returns alongside an access token.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles,omitempty"`
}

// UnmarshalJSON accepts both "id" and the document-store style "_id".
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var raw struct {
		alias
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.alias)
	if u.ID == "" {
		u.ID = raw.MongoID
	}
	return nil
}

// HasRole reports whether the user holds role. Roles compare exactly.
func (u User) HasRole(role string) bool {
	return lo.Contains(u.Roles, role)
}

// Session is the authenticated identity for the current user.
type Session struct {
	Token string `json:"access_token"`
	User  User   `json:"user"`
}

type SignUpInput struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
