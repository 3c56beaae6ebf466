package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL = 24 * time.Hour
	tokenType       = "Bearer"
)

// IssuedToken is a signed bearer token and its expiry.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenProvider issues and validates HS256 signed JWTs. Tokens carry only
// the account id; the principal is re-resolved on every validation so role
// changes take effect on the next request.
type TokenProvider struct {
	secret   []byte
	issuer   string
	ttl      time.Duration
	leeway   time.Duration
	now      func() time.Time
	resolver *Resolver
}

// TokenOption configures a TokenProvider.
type TokenOption func(*TokenProvider)

// WithTTL sets the token lifetime. Non-positive values keep the default.
func WithTTL(ttl time.Duration) TokenOption {
	return func(p *TokenProvider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithIssuer sets the iss claim written and required on validation.
func WithIssuer(issuer string) TokenOption {
	return func(p *TokenProvider) {
		p.issuer = strings.TrimSpace(issuer)
	}
}

// WithLeeway tolerates clock skew when checking expiry.
func WithLeeway(leeway time.Duration) TokenOption {
	return func(p *TokenProvider) {
		if leeway > 0 {
			p.leeway = leeway
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenOption {
	return func(p *TokenProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewTokenProvider constructs a provider signing with secret.
func NewTokenProvider(secret []byte, resolver *Resolver, opts ...TokenOption) (*TokenProvider, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if resolver == nil {
		return nil, errors.New("token provider requires a resolver")
	}
	p := &TokenProvider{
		secret:   append([]byte(nil), secret...),
		ttl:      defaultTokenTTL,
		now:      time.Now,
		resolver: resolver,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// TTL returns the configured token lifetime.
func (p *TokenProvider) TTL() time.Duration {
	return p.ttl
}

// Issue signs a token for principal.
func (p *TokenProvider) Issue(principal Principal) (IssuedToken, error) {
	if principal.ID < 1 {
		return IssuedToken{}, errors.New("cannot issue token for principal without id")
	}
	now := p.now()
	expiresAt := now.Add(p.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(principal.ID),
		Issuer:    p.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Value: signed, ExpiresAt: jwt.NewNumericDate(expiresAt).Time}, nil
}

// Validate verifies raw and resolves the principal it was issued to.
func (p *TokenProvider) Validate(ctx context.Context, raw string) (Principal, error) {
	id, err := p.parseSubject(raw)
	if err != nil {
		return Principal{}, err
	}
	principal, err := p.resolver.ResolveByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Principal{}, ErrTokenSubjectNotFound
		}
		return Principal{}, err
	}
	return principal, nil
}

func (p *TokenProvider) parseSubject(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrTokenMalformed
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	}
	if p.leeway > 0 {
		opts = append(opts, jwt.WithLeeway(p.leeway))
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	}, opts...)
	if err != nil {
		return 0, classifyTokenError(err)
	}
	if !token.Valid {
		return 0, ErrTokenMalformed
	}

	id, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid subject", ErrTokenMalformed)
	}
	return id, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenSignatureInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
