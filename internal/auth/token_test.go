package auth

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/propmgr/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func principalFor(t *testing.T, account types.Account) Principal {
	t.Helper()
	principal, err := NewPrincipal(account)
	require.NoError(t, err)
	return principal
}

func TestTokenIssueAndValidate(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleTenant)
	clock := newTestClock()
	tokens := testTokens(t, accounts, WithClock(clock.Now), WithTTL(time.Hour), WithIssuer("propmgr"))

	issued, err := tokens.Issue(principalFor(t, account))
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(time.Hour), issued.ExpiresAt.UTC())
	assert.Equal(t, 2, strings.Count(issued.Value, "."))

	principal, err := tokens.Validate(context.Background(), issued.Value)
	require.NoError(t, err)
	assert.Equal(t, account.ID, principal.ID)
	assert.Equal(t, types.RoleTenant, principal.Role)
	assert.Equal(t, "ROLE_TENANT", principal.Authority)
}

func TestTokenCarriesOnlySubjectClaims(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleTenant)
	tokens := testTokens(t, accounts)

	issued, err := tokens.Issue(principalFor(t, account))
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(issued.Value, claims)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(account.ID), claims["sub"])
	assert.Contains(t, claims, "exp")
	assert.Contains(t, claims, "iat")
	assert.NotContains(t, claims, "role")
	assert.NotContains(t, claims, "email")
}

func TestTokenExpired(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleUser)
	clock := newTestClock()
	tokens := testTokens(t, accounts, WithClock(clock.Now), WithTTL(time.Minute))

	issued, err := tokens.Issue(principalFor(t, account))
	require.NoError(t, err)

	clock.Advance(time.Minute + time.Second)
	_, err = tokens.Validate(context.Background(), issued.Value)
	require.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

// exp is exclusive: a token is still valid one second before its expiry
// instant and rejected at it.
func TestTokenExpiryBoundary(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleUser)
	clock := newTestClock()
	tokens := testTokens(t, accounts, WithClock(clock.Now), WithTTL(time.Minute))

	issued, err := tokens.Issue(principalFor(t, account))
	require.NoError(t, err)
	require.True(t, issued.ExpiresAt.Equal(clock.Now().Add(time.Minute)))

	clock.Advance(time.Minute - time.Second)
	_, err = tokens.Validate(context.Background(), issued.Value)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = tokens.Validate(context.Background(), issued.Value)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenLeeway(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleUser)
	clock := newTestClock()
	tokens := testTokens(t, accounts, WithClock(clock.Now), WithTTL(time.Minute), WithLeeway(30*time.Second))

	issued, err := tokens.Issue(principalFor(t, account))
	require.NoError(t, err)

	clock.Advance(time.Minute + 10*time.Second)
	_, err = tokens.Validate(context.Background(), issued.Value)
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	_, err = tokens.Validate(context.Background(), issued.Value)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenSignedWithAnotherSecret(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleUser)

	other, err := NewTokenProvider([]byte("another-secret"), NewResolver(accounts))
	require.NoError(t, err)
	issued, err := other.Issue(principalFor(t, account))
	require.NoError(t, err)

	_, err = testTokens(t, accounts).Validate(context.Background(), issued.Value)
	require.ErrorIs(t, err, ErrTokenSignatureInvalid)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestTokenTamperedPayload(t *testing.T) {
	accounts := newMemAccounts()
	first := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleUser)
	second := accounts.seed(t, testHasher(), "bob", "bob@example.com", "secret2", types.RoleAdmin)
	tokens := testTokens(t, accounts)

	issuedA, err := tokens.Issue(principalFor(t, first))
	require.NoError(t, err)
	issuedB, err := tokens.Issue(principalFor(t, second))
	require.NoError(t, err)

	// Splice bob's claims onto alice's signature.
	partsA := strings.Split(issuedA.Value, ".")
	partsB := strings.Split(issuedB.Value, ".")
	forged := strings.Join([]string{partsA[0], partsB[1], partsA[2]}, ".")

	_, err = tokens.Validate(context.Background(), forged)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestTokenRejectsUnsignedAndForeignAlgorithms(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleUser)
	tokens := testTokens(t, accounts)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(account.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Validate(context.Background(), unsigned)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = tokens.Validate(context.Background(), hs512)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestTokenRequiresExpiry(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleUser)
	tokens := testTokens(t, accounts)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: strconv.Itoa(account.ID),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tokens.Validate(context.Background(), raw)
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenMalformed(t *testing.T) {
	tokens := testTokens(t, newMemAccounts())

	for _, raw := range []string{"", "abc", "a.b.c", "not a token at all"} {
		_, err := tokens.Validate(context.Background(), raw)
		assert.ErrorIs(t, err, ErrTokenMalformed, raw)
	}
}

func TestTokenSubjectDeleted(t *testing.T) {
	accounts := newMemAccounts()
	tokens := testTokens(t, accounts)

	issued, err := tokens.Issue(Principal{ID: 42, Role: types.RoleUser})
	require.NoError(t, err)

	_, err = tokens.Validate(context.Background(), issued.Value)
	require.ErrorIs(t, err, ErrTokenSubjectNotFound)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestTokenValidateStoreUnavailable(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleUser)
	tokens := testTokens(t, accounts)
	issued, err := tokens.Issue(principalFor(t, account))
	require.NoError(t, err)

	accounts.fail = errBackendDown
	_, err = tokens.Validate(context.Background(), issued.Value)
	require.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrAuthenticationFailed)
}

func TestTokenReflectsCurrentRole(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleUser)
	tokens := testTokens(t, accounts)
	issued, err := tokens.Issue(principalFor(t, account))
	require.NoError(t, err)

	accounts.setRole(t, account.ID, types.RoleManager)

	principal, err := tokens.Validate(context.Background(), issued.Value)
	require.NoError(t, err)
	assert.Equal(t, types.RoleManager, principal.Role)
	assert.Equal(t, "ROLE_MANAGER", principal.Authority)
}

func TestTokenRejectsAccountWithUnknownRole(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleUser)
	tokens := testTokens(t, accounts)
	issued, err := tokens.Issue(principalFor(t, account))
	require.NoError(t, err)

	accounts.setRole(t, account.ID, types.Role("SUPERUSER"))

	_, err = tokens.Validate(context.Background(), issued.Value)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestTokenIssuerMismatch(t *testing.T) {
	accounts := newMemAccounts()
	account := accounts.seed(t, testHasher(), "alice", "alice@example.com", "secret1", types.RoleUser)

	issued, err := testTokens(t, accounts, WithIssuer("someone-else")).Issue(principalFor(t, account))
	require.NoError(t, err)

	_, err = testTokens(t, accounts, WithIssuer("propmgr")).Validate(context.Background(), issued.Value)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestNewTokenProviderRequiresSecret(t *testing.T) {
	_, err := NewTokenProvider(nil, NewResolver(newMemAccounts()))
	assert.Error(t, err)

	_, err = NewTokenProvider([]byte("s"), nil)
	assert.Error(t, err)

	tokens, err := NewTokenProvider([]byte("s"), NewResolver(newMemAccounts()), WithTTL(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, tokens.TTL())
}
