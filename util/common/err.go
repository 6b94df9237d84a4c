package common

import (
	"errors"
	"net/http"

	"github.com/wanderlust/wanderlust/logger"
)

// DefaultErrorMessage is shown when an error carries no message of its own.
const DefaultErrorMessage = "Something went wrong!"

// ValidationError reports a malformed client payload.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthError reports a missing login or rejected credentials. It is answered
// with a flash and a redirect, never with an error page.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// ForbiddenError reports an authenticated user acting on something they do not own.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// NotFoundError reports a referenced entity or route that does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// RateLimitError reports a client that exceeded its request budget.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string { return e.Message }

// UnexpectedError wraps any failure the client cannot act on.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	if e.Err == nil {
		return DefaultErrorMessage
	}
	return e.Err.Error()
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

func NewAuthError(msg string) error {
	return &AuthError{Message: msg}
}

func NewForbiddenError(msg string) error {
	return &ForbiddenError{Message: msg}
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{Message: msg}
}

func NewRateLimitError(msg string) error {
	return &RateLimitError{Message: msg}
}

func NewUnexpectedError(err error) error {
	return &UnexpectedError{Err: err}
}

// StatusCode maps an error to the HTTP status the error page is rendered with.
func StatusCode(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		auth       *AuthError
		forbidden  *ForbiddenError
		rateLimit  *RateLimitError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &auth):
		return http.StatusUnauthorized
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &rateLimit):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the text that may be shown to the client. Unexpected
// errors are replaced by DefaultErrorMessage so internals never leak.
func PublicMessage(err error) string {
	if err == nil || StatusCode(err) == http.StatusInternalServerError {
		return DefaultErrorMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultErrorMessage
}

// Recover logs a recovered panic. It must be deferred directly.
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, "panic:", panicErr)
		}
	}
	return panicErr
}
