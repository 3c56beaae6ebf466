package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusAndPublicMessage(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{err: ErrUnauthenticated, status: http.StatusUnauthorized, message: "unauthorized"},
		{err: ErrAccountNotFound, status: http.StatusUnauthorized, message: "invalid credentials"},
		{err: ErrPasswordMismatch, status: http.StatusUnauthorized, message: "invalid credentials"},
		{err: ErrTokenExpired, status: http.StatusUnauthorized, message: "invalid credentials"},
		{err: ErrTokenSignatureInvalid, status: http.StatusUnauthorized, message: "invalid credentials"},
		{err: ErrTokenSubjectNotFound, status: http.StatusUnauthorized, message: "invalid credentials"},
		{err: ErrForbidden, status: http.StatusForbidden, message: "forbidden"},
		{err: ErrUsernameTaken, status: http.StatusConflict, message: "username is already taken"},
		{err: ErrEmailTaken, status: http.StatusConflict, message: "email is already in use"},
		{err: ErrAccountConflict, status: http.StatusConflict, message: "account already exists"},
		{err: ErrTooManyAttempts, status: http.StatusTooManyRequests, message: "too many attempts, try again later"},
		{err: fmt.Errorf("%w: lookup: %v", ErrStoreUnavailable, errBackendDown), status: http.StatusInternalServerError, message: "internal error"},
		{err: errors.New("boom"), status: http.StatusInternalServerError, message: "internal error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err), tt.err.Error())
		assert.Equal(t, tt.message, PublicMessage(tt.err), tt.err.Error())
	}
}

func TestPublicMessageNeverLeaksStoreDetail(t *testing.T) {
	err := fmt.Errorf("%w: dial tcp 10.0.0.5:5432: connection refused", ErrStoreUnavailable)
	assert.NotContains(t, PublicMessage(err), "10.0.0.5")
}
