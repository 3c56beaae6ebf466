package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/propmgr/apiserver/internal/store"
	"github.com/propmgr/apiserver/types"
)

const authorityPrefix = "ROLE_"

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID        int        `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	Role      types.Role `json:"role"`
	Authority string     `json:"authority"`
}

// NewPrincipal projects an account into a principal. Accounts holding an
// unknown role cannot authenticate.
func NewPrincipal(account types.Account) (Principal, error) {
	if !account.Role.Valid() {
		return Principal{}, fmt.Errorf("%w: account %d has unknown role %q", ErrAccountNotFound, account.ID, account.Role)
	}
	return Principal{
		ID:        account.ID,
		Email:     account.Email,
		Username:  account.Username,
		Role:      account.Role,
		Authority: Authority(account.Role),
	}, nil
}

// Authority returns the authority string for a role.
func Authority(role types.Role) string {
	return authorityPrefix + string(role)
}

// HasRole reports whether the principal holds any of roles.
func (p Principal) HasRole(roles ...types.Role) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

// Privileged reports whether the principal bypasses ownership checks.
func (p Principal) Privileged() bool {
	return p.HasRole(types.RoleAdmin, types.RoleManager)
}

// AccountLookup is the read side of the account store.
type AccountLookup interface {
	GetByID(ctx context.Context, id int) (types.Account, error)
	GetByEmail(ctx context.Context, email string) (types.Account, error)
}

// Resolver builds principals from stored accounts.
type Resolver struct {
	accounts AccountLookup
}

func NewResolver(accounts AccountLookup) *Resolver {
	return &Resolver{accounts: accounts}
}

// ResolveByEmail returns the principal for the account registered under email.
func (r *Resolver) ResolveByEmail(ctx context.Context, email string) (Principal, error) {
	account, err := r.accountByEmail(ctx, email)
	if err != nil {
		return Principal{}, err
	}
	return NewPrincipal(account)
}

// ResolveByID returns the principal for the account with id.
func (r *Resolver) ResolveByID(ctx context.Context, id int) (Principal, error) {
	if id < 1 {
		return Principal{}, ErrAccountNotFound
	}
	account, err := r.accounts.GetByID(ctx, id)
	if err != nil {
		return Principal{}, lookupError(err)
	}
	return NewPrincipal(account)
}

func (r *Resolver) accountByEmail(ctx context.Context, email string) (types.Account, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return types.Account{}, ErrAccountNotFound
	}
	account, err := r.accounts.GetByEmail(ctx, email)
	if err != nil {
		return types.Account{}, lookupError(err)
	}
	return account, nil
}

func lookupError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrAccountNotFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
