package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError(`"title" is required`), http.StatusBadRequest},
		{"not found", NewNotFoundError("Listing not found"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("show listing: %w", NewNotFoundError("Listing not found")), http.StatusNotFound},
		{"auth", NewAuthError("Please login first"), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("You are not the owner of this listing"), http.StatusForbidden},
		{"rate limit", NewRateLimitError("slow down"), http.StatusTooManyRequests},
		{"unexpected", NewUnexpectedError(errors.New("connection refused")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Listing not found", PublicMessage(NewNotFoundError("Listing not found")))
	assert.Equal(t, DefaultErrorMessage, PublicMessage(NewNotFoundError("")))
	assert.Equal(t, DefaultErrorMessage, PublicMessage(errors.New("dial tcp: connection refused")))
	assert.Equal(t, DefaultErrorMessage, PublicMessage(nil))
}

func TestUnexpectedErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewUnexpectedError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, DefaultErrorMessage, (&UnexpectedError{}).Error())
}

func TestCombine(t *testing.T) {
	assert.NoError(t, Combine(nil, nil))
	err := Combine(nil, errors.New("a"), errors.New("b"))
	assert.EqualError(t, err, "a\nb")
}
