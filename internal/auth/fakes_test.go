package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/propmgr/apiserver/internal/store"
	"github.com/propmgr/apiserver/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errBackendDown = errors.New("connection refused")

// memAccounts is an in-memory AccountStore enforcing unique emails and usernames.
type memAccounts struct {
	mu     sync.Mutex
	rows   map[int]types.Account
	nextID int
	fail   error
	writes int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{rows: map[int]types.Account{}, nextID: 1}
}

func (m *memAccounts) GetByID(_ context.Context, id int) (types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return types.Account{}, m.fail
	}
	account, ok := m.rows[id]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return account, nil
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (types.Account, error) {
	return m.find(func(a types.Account) bool { return a.Email == email })
}

func (m *memAccounts) GetByUsername(_ context.Context, username string) (types.Account, error) {
	return m.find(func(a types.Account) bool { return a.Username == username })
}

func (m *memAccounts) find(match func(types.Account) bool) (types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return types.Account{}, m.fail
	}
	for _, account := range m.rows {
		if match(account) {
			return account, nil
		}
	}
	return types.Account{}, store.ErrNotFound
}

func (m *memAccounts) Create(_ context.Context, account types.Account) (types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return types.Account{}, m.fail
	}
	for _, existing := range m.rows {
		if existing.Email == account.Email || existing.Username == account.Username {
			return types.Account{}, store.ErrConflict
		}
	}
	account.ID = m.nextID
	m.nextID++
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	m.rows[account.ID] = account
	m.writes++
	return account, nil
}

func (m *memAccounts) Update(_ context.Context, account types.Account) (types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return types.Account{}, m.fail
	}
	if _, ok := m.rows[account.ID]; !ok {
		return types.Account{}, store.ErrNotFound
	}
	account.UpdatedAt = time.Now()
	m.rows[account.ID] = account
	m.writes++
	return account, nil
}

func (m *memAccounts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memAccounts) setRole(t *testing.T, id int, role types.Role) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.rows[id]
	require.True(t, ok)
	account.Role = role
	m.rows[id] = account
}

// seed stores an account with a hashed password and returns it.
func (m *memAccounts) seed(t *testing.T, hasher *PasswordHasher, username, email, password string, role types.Role) types.Account {
	t.Helper()
	digest, err := hasher.Hash(password)
	require.NoError(t, err)
	account, err := m.Create(context.Background(), types.Account{
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: digest,
	})
	require.NoError(t, err)
	return account
}

// memOwners maps "kind/id" to the owning account id.
type memOwners struct {
	owners map[string]int
	fail   error
}

func (m memOwners) OwnerAccountID(_ context.Context, kind string, id int) (int, error) {
	if m.fail != nil {
		return 0, m.fail
	}
	owner, ok := m.owners[ownerKey(kind, id)]
	if !ok {
		return 0, store.ErrNotFound
	}
	return owner, nil
}

func ownerKey(kind string, id int) string {
	return fmt.Sprintf("%s/%d", kind, id)
}

type recordedEvents struct {
	mu     sync.Mutex
	events []types.AccountEvent
	fail   error
}

func (r *recordedEvents) PublishAccountEvent(_ context.Context, event types.AccountEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.fail
}

func (r *recordedEvents) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Type)
	}
	return out
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
	resets  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.err
}

func (s *stubLimiter) Reset(_ context.Context, key string) error {
	s.resets = append(s.resets, key)
	return s.err
}

// countingLimiter allows limit attempts per key until Reset.
type countingLimiter struct {
	limit    int
	attempts map[string]int
}

func newCountingLimiter(limit int) *countingLimiter {
	return &countingLimiter{limit: limit, attempts: map[string]int{}}
}

func (c *countingLimiter) Allow(_ context.Context, key string) (bool, error) {
	c.attempts[key]++
	return c.attempts[key] <= c.limit, nil
}

func (c *countingLimiter) Reset(_ context.Context, key string) error {
	delete(c.attempts, key)
	return nil
}

const testSecret = "test-secret-please-change"

func testHasher() *PasswordHasher {
	return NewPasswordHasher(bcrypt.MinCost)
}

func testTokens(t *testing.T, accounts AccountLookup, opts ...TokenOption) *TokenProvider {
	t.Helper()
	tokens, err := NewTokenProvider([]byte(testSecret), NewResolver(accounts), opts...)
	require.NoError(t, err)
	return tokens
}

func testGate(t *testing.T, accounts *memAccounts, opts ...GateOption) *Gate {
	t.Helper()
	return NewGate(accounts, testHasher(), testTokens(t, accounts), opts...)
}
