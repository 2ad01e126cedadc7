package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{name: "not found", err: NewNotFoundError("User not found"), is: IsNotFound},
		{name: "conflict", err: NewConflictError("taken"), is: IsConflict},
		{name: "validation", err: NewValidationError(cause, FieldError{Field: "email", Error: "bad"}), is: IsValidation},
		{name: "authentication", err: NewAuthenticationError("Token expired"), is: IsAuthentication},
		{name: "delivery", err: NewDeliveryError("a@x.com", cause), is: IsDelivery},
		{name: "shutdown", err: NewShutdownError("bye"), is: IsShutdown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(tt.err))
			assert.True(t, tt.is(errors.Wrap(tt.err, "wrapped")), "predicates look through pkg/errors wrapping")
			assert.False(t, tt.is(cause))
		})
	}
}

func TestDeliveryError(t *testing.T) {
	cause := errors.New("provider down")
	err := NewDeliveryError("a@x.com", cause)
	assert.EqualError(t, err, "delivering to a@x.com: provider down")
	assert.ErrorIs(t, err, cause)
}

func TestStoreError(t *testing.T) {
	assert.NoError(t, NewStoreError(nil, "op"))

	cause := errors.New("connection reset")
	err := NewStoreError(cause, "selecting account")
	assert.EqualError(t, err, "selecting account: connection reset")
	assert.ErrorIs(t, err, cause)
}
