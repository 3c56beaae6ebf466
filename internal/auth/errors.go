package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Outcome errors. These are the only distinctions visible outside the server.
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	ErrAccountConflict      = errors.New("account conflict")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrInvalidInput         = errors.New("invalid input")
	ErrTooManyAttempts      = errors.New("too many attempts")
)

// Internal subtypes, kept for logs and tests. Each wraps its outcome.
var (
	ErrAccountNotFound       = fmt.Errorf("%w: account not found", ErrAuthenticationFailed)
	ErrPasswordMismatch      = fmt.Errorf("%w: password mismatch", ErrAuthenticationFailed)
	ErrTokenMalformed        = fmt.Errorf("%w: malformed token", ErrAuthenticationFailed)
	ErrTokenSignatureInvalid = fmt.Errorf("%w: invalid token signature", ErrAuthenticationFailed)
	ErrTokenExpired          = fmt.Errorf("%w: token expired", ErrAuthenticationFailed)
	ErrTokenSubjectNotFound  = fmt.Errorf("%w: token subject not found", ErrAuthenticationFailed)

	ErrPasswordTooLong = fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordLength)

	ErrUsernameTaken = fmt.Errorf("%w: username is already taken", ErrAccountConflict)
	ErrEmailTaken    = fmt.Errorf("%w: email is already in use", ErrAccountConflict)
)

// HTTPStatus maps an error from this package to the status code the boundary reports.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAccountConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyAttempts):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the caller-facing message for err. Subtypes of
// authentication and authorization failures collapse to a single message.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthorized"
	case errors.Is(err, ErrAuthenticationFailed):
		return "invalid credentials"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrUsernameTaken):
		return "username is already taken"
	case errors.Is(err, ErrEmailTaken):
		return "email is already in use"
	case errors.Is(err, ErrAccountConflict):
		return "account already exists"
	case errors.Is(err, ErrInvalidInput):
		return err.Error()
	case errors.Is(err, ErrTooManyAttempts):
		return "too many attempts, try again later"
	default:
		return "internal error"
	}
}
