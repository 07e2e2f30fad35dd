package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUpForm struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Seats    *int   `json:"seats,omitempty" validate:"omitnil,gt=0"`
}

func TestStruct_Valid(t *testing.T) {
	seats := 3
	err := Struct(signUpForm{Username: "ana", Email: "ana@example.com", Password: "secret123", Seats: &seats})
	require.NoError(t, err)

	err = Struct(signUpForm{Username: "ana", Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err, "nil optional pointer is skipped")
}

func TestStruct_FieldErrorsUseJSONNames(t *testing.T) {
	zero := 0
	err := Struct(signUpForm{Username: "an", Email: "not-an-email", Password: "short", Seats: &zero})
	require.Error(t, err)

	var fields FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Equal(t, "must be at least 3 characters", fields["username"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8 characters", fields["password"])
	assert.Equal(t, "must be greater than 0", fields["seats"])
}

func TestFieldErrors_ErrorIsSorted(t *testing.T) {
	err := FieldErrors{"password": "is required", "email": "is required"}
	assert.Equal(t, "invalid email: is required; invalid password: is required", err.Error())
}
