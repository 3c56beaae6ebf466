package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/propmgr/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWith(middleware func(http.Handler) http.Handler, header string) (*httptest.ResponseRecorder, *Principal) {
	var seen *Principal
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := PrincipalFromContext(r.Context()); ok {
			seen = &p
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/flats", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestMiddlewareInstallsPrincipal(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleTenant)
	gate := testGate(t, accounts)
	result, err := gate.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)

	rec, seen := serveWith(gate.Middleware, "Bearer "+result.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, account.ID, seen.ID)
	assert.Equal(t, types.RoleTenant, seen.Role)
}

func TestMiddlewareMissingHeader(t *testing.T) {
	gate := testGate(t, newMemAccounts())

	rec, seen := serveWith(gate.Middleware, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "unauthorized", decodeError(t, rec))
}

func TestMiddlewareTokenFailuresLookAlike(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleTenant)
	clock := newTestClock()
	gate := NewGate(accounts, testHasher(), testTokens(t, accounts, WithClock(clock.Now), WithTTL(time.Minute)))

	issued, err := gate.Tokens().Issue(principalFor(t, account))
	require.NoError(t, err)
	other, err := NewTokenProvider([]byte("another-secret"), NewResolver(accounts), WithClock(clock.Now))
	require.NoError(t, err)
	forged, err := other.Issue(principalFor(t, account))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	headers := []string{
		"Bearer " + issued.Value,
		"Bearer " + forged.Value,
		"Bearer not.a.token",
		"Token " + issued.Value,
	}
	for _, header := range headers {
		rec, seen := serveWith(gate.Middleware, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Nil(t, seen)
		assert.Equal(t, "invalid credentials", decodeError(t, rec), header)
	}
}

func TestMiddlewareStoreUnavailable(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleTenant)
	gate := testGate(t, accounts)
	issued, err := gate.Tokens().Issue(principalFor(t, account))
	require.NoError(t, err)

	accounts.fail = errBackendDown
	rec, _ := serveWith(gate.Middleware, "Bearer "+issued.Value)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeError(t, rec))
}

func TestOptionalMiddleware(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleAdmin)
	gate := testGate(t, accounts)
	issued, err := gate.Tokens().Issue(principalFor(t, account))
	require.NoError(t, err)

	rec, seen := serveWith(gate.OptionalMiddleware, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, seen)

	rec, seen = serveWith(gate.OptionalMiddleware, "Bearer garbage")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, seen)

	rec, seen = serveWith(gate.OptionalMiddleware, "Bearer "+issued.Value)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, types.RoleAdmin, seen.Role)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{ID: 3, Role: types.RoleUser})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, 3, p.ID)
}
