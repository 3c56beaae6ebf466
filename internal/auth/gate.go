package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/propmgr/apiserver/internal/store"
	"github.com/propmgr/apiserver/types"
	"github.com/sirupsen/logrus"
)

const minPasswordLength = 6

// AccountStore is the account persistence the gate and bootstrap need.
type AccountStore interface {
	AccountLookup
	GetByUsername(ctx context.Context, username string) (types.Account, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	Update(ctx context.Context, account types.Account) (types.Account, error)
}

// AttemptLimiter throttles credential attempts per key. Reset is called
// after a successful login so that only failures accumulate.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// EventPublisher receives account lifecycle events.
type EventPublisher interface {
	PublishAccountEvent(ctx context.Context, event types.AccountEvent) error
}

// LoginResult is returned by Login and Register.
type LoginResult struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	Principal Principal `json:"-"`
}

// RegisterInput describes a new account. Requester is the authenticated
// caller, if any; only administrators may create ADMIN or MANAGER accounts.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Role      string
	Requester *Principal
}

// Gate authenticates credentials and bearer tokens.
type Gate struct {
	accounts AccountStore
	resolver *Resolver
	hasher   *PasswordHasher
	tokens   *TokenProvider
	limiter  AttemptLimiter
	events   EventPublisher
	log      logrus.FieldLogger

	dummyOnce   sync.Once
	dummyDigest string
}

// GateOption configures a Gate.
type GateOption func(*Gate)

func WithAttemptLimiter(limiter AttemptLimiter) GateOption {
	return func(g *Gate) { g.limiter = limiter }
}

func WithEventPublisher(events EventPublisher) GateOption {
	return func(g *Gate) { g.events = events }
}

func WithLogger(log logrus.FieldLogger) GateOption {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGate wires the credential and token flows.
func NewGate(accounts AccountStore, hasher *PasswordHasher, tokens *TokenProvider, opts ...GateOption) *Gate {
	g := &Gate{
		accounts: accounts,
		resolver: NewResolver(accounts),
		hasher:   hasher,
		tokens:   tokens,
		log:      discardLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Login verifies email and password and issues a token. Unknown emails and
// wrong passwords fail identically.
func (g *Gate) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: missing credentials", ErrInvalidInput)
	}
	key := loginKey(ctx, email)
	if err := g.throttle(ctx, key); err != nil {
		return LoginResult{}, err
	}

	account, err := g.resolver.accountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Spend the same bcrypt work as a real comparison.
			g.hasher.Verify(password, g.dummy())
		}
		g.logFailure("login", email, err)
		return LoginResult{}, err
	}
	if !g.hasher.Verify(password, account.PasswordHash) {
		g.logFailure("login", email, ErrPasswordMismatch)
		return LoginResult{}, ErrPasswordMismatch
	}

	principal, err := NewPrincipal(account)
	if err != nil {
		g.logFailure("login", email, err)
		return LoginResult{}, err
	}
	g.clearAttempts(ctx, key)
	return g.issue(principal)
}

// Register creates an account and issues a token for it.
func (g *Gate) Register(ctx context.Context, in RegisterInput) (LoginResult, error) {
	username := strings.TrimSpace(in.Username)
	email := NormalizeEmail(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return LoginResult{}, fmt.Errorf("%w: missing required fields", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return LoginResult{}, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return LoginResult{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(in.Password) > maxPasswordLength {
		return LoginResult{}, ErrPasswordTooLong
	}
	role, ok := types.ParseRole(in.Role)
	if !ok {
		return LoginResult{}, fmt.Errorf("%w: unknown role", ErrInvalidInput)
	}
	if role == types.RoleAdmin || role == types.RoleManager {
		if in.Requester == nil || in.Requester.Role != types.RoleAdmin {
			return LoginResult{}, ErrForbidden
		}
	}

	if err := g.ensureAvailable(ctx, username, email); err != nil {
		return LoginResult{}, err
	}

	digest, err := g.hasher.Hash(in.Password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := g.accounts.Create(ctx, types.Account{
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: digest,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return LoginResult{}, ErrAccountConflict
		}
		return LoginResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	principal, err := NewPrincipal(created)
	if err != nil {
		return LoginResult{}, err
	}
	g.log.WithFields(logrus.Fields{"account_id": created.ID, "role": created.Role}).Info("account registered")
	g.publish(ctx, types.AccountRegistered, created)
	return g.issue(principal)
}

// Authenticate validates an Authorization header value.
func (g *Gate) Authenticate(ctx context.Context, header string) (Principal, error) {
	raw, err := bearerToken(header)
	if err != nil {
		return Principal{}, err
	}
	return g.tokens.Validate(ctx, raw)
}

// Tokens exposes the token provider.
func (g *Gate) Tokens() *TokenProvider {
	return g.tokens
}

func (g *Gate) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := g.accounts.GetByUsername(ctx, username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if _, err := g.accounts.GetByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (g *Gate) issue(principal Principal) (LoginResult, error) {
	token, err := g.tokens.Issue(principal)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{
		Token:     token.Value,
		TokenType: tokenType,
		Email:     principal.Email,
		Role:      principal.Authority,
		ExpiresAt: token.ExpiresAt,
		Principal: principal,
	}, nil
}

func (g *Gate) throttle(ctx context.Context, key string) error {
	if g.limiter == nil {
		return nil
	}
	allowed, err := g.limiter.Allow(ctx, key)
	if err != nil {
		g.log.WithError(err).Warn("login limiter unavailable")
		return nil
	}
	if !allowed {
		return ErrTooManyAttempts
	}
	return nil
}

func (g *Gate) clearAttempts(ctx context.Context, key string) {
	if g.limiter == nil {
		return
	}
	if err := g.limiter.Reset(ctx, key); err != nil {
		g.log.WithError(err).Warn("login limiter reset failed")
	}
}

// loginKey scopes attempts to the email and, when known, the client address,
// so failures from one client cannot lock the account out everywhere.
func loginKey(ctx context.Context, email string) string {
	if addr, ok := ClientAddrFromContext(ctx); ok {
		return "login:" + email + "|" + addr
	}
	return "login:" + email
}

func (g *Gate) publish(ctx context.Context, kind string, account types.Account) {
	if g.events == nil {
		return
	}
	publishAccountEvent(ctx, g.events, g.log, kind, account)
}

func (g *Gate) dummy() string {
	g.dummyOnce.Do(func() {
		digest, err := g.hasher.Hash(uuid.NewString())
		if err == nil {
			g.dummyDigest = digest
		}
	})
	return g.dummyDigest
}

func (g *Gate) logFailure(flow, email string, err error) {
	entry := g.log.WithFields(logrus.Fields{"flow": flow, "email": email})
	if errors.Is(err, ErrStoreUnavailable) {
		entry.WithError(err).Error("authentication lookup failed")
		return
	}
	entry.WithError(err).Debug("authentication rejected")
}

func publishAccountEvent(ctx context.Context, events EventPublisher, log logrus.FieldLogger, kind string, account types.Account) {
	event := types.AccountEvent{
		ID:         uuid.NewString(),
		Type:       kind,
		AccountID:  account.ID,
		Email:      account.Email,
		Role:       account.Role,
		OccurredAt: time.Now().UTC(),
	}
	if err := events.PublishAccountEvent(ctx, event); err != nil {
		log.WithError(err).WithField("event", kind).Warn("failed to publish account event")
	}
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrUnauthenticated
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], tokenType) {
		return "", fmt.Errorf("%w: invalid authorization header", ErrTokenMalformed)
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", ErrTokenMalformed)
	}
	return token, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
