package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/propmgr/apiserver/internal/store"
	"github.com/propmgr/apiserver/types"
	"github.com/sirupsen/logrus"
)

// BootstrapOutcome reports what Reconcile did.
type BootstrapOutcome string

const (
	BootstrapCreated   BootstrapOutcome = "created"
	BootstrapRepaired  BootstrapOutcome = "repaired"
	BootstrapUnchanged BootstrapOutcome = "unchanged"
)

// AdminCredentials is the configured administrator account.
type AdminCredentials struct {
	Email    string
	Username string
	Password string
}

// AdminBootstrap guarantees that the configured administrator exists, holds
// the ADMIN role and accepts the configured password.
type AdminBootstrap struct {
	accounts AccountStore
	hasher   *PasswordHasher
	creds    AdminCredentials
	events   EventPublisher
	log      logrus.FieldLogger
}

// NewAdminBootstrap validates creds and returns a bootstrapper. events may be nil.
func NewAdminBootstrap(accounts AccountStore, hasher *PasswordHasher, creds AdminCredentials, events EventPublisher, log logrus.FieldLogger) (*AdminBootstrap, error) {
	creds.Email = NormalizeEmail(creds.Email)
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Email == "" || creds.Username == "" || creds.Password == "" {
		return nil, errors.New("admin email, username and password are required")
	}
	if len(creds.Password) > maxPasswordLength {
		return nil, ErrPasswordTooLong
	}
	if log == nil {
		log = discardLogger()
	}
	return &AdminBootstrap{
		accounts: accounts,
		hasher:   hasher,
		creds:    creds,
		events:   events,
		log:      log,
	}, nil
}

// Reconcile creates or repairs the administrator account. It is safe to run
// on every start; an account that already matches is left untouched.
func (b *AdminBootstrap) Reconcile(ctx context.Context) (BootstrapOutcome, error) {
	log := b.log.WithField("email", b.creds.Email)

	account, err := b.accounts.GetByEmail(ctx, b.creds.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		created, createErr := b.create(ctx)
		if createErr == nil {
			log.WithField("account_id", created.ID).Info("admin account created")
			b.publish(ctx, created)
			return BootstrapCreated, nil
		}
		if !errors.Is(createErr, store.ErrConflict) {
			return "", createErr
		}
		// Another instance created it first; reconcile against that row.
		account, err = b.accounts.GetByEmail(ctx, b.creds.Email)
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("%w: admin username %q belongs to another account", ErrAccountConflict, b.creds.Username)
		}
		if err != nil {
			return "", fmt.Errorf("%w: load admin account: %v", ErrStoreUnavailable, err)
		}
	case err != nil:
		return "", fmt.Errorf("%w: load admin account: %v", ErrStoreUnavailable, err)
	}

	roleMatches := account.Role == types.RoleAdmin
	passwordMatches := b.hasher.Verify(b.creds.Password, account.PasswordHash)
	if roleMatches && passwordMatches {
		log.Info("admin account already valid")
		return BootstrapUnchanged, nil
	}

	digest, err := b.hasher.Hash(b.creds.Password)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}
	account.Role = types.RoleAdmin
	account.PasswordHash = digest
	updated, err := b.accounts.Update(ctx, account)
	if err != nil {
		return "", fmt.Errorf("%w: update admin account: %v", ErrStoreUnavailable, err)
	}
	log.WithFields(logrus.Fields{
		"account_id":        updated.ID,
		"role_repaired":     !roleMatches,
		"password_repaired": !passwordMatches,
	}).Warn("admin account repaired")
	b.publish(ctx, updated)
	return BootstrapRepaired, nil
}

func (b *AdminBootstrap) create(ctx context.Context) (types.Account, error) {
	digest, err := b.hasher.Hash(b.creds.Password)
	if err != nil {
		return types.Account{}, fmt.Errorf("hash admin password: %w", err)
	}
	created, err := b.accounts.Create(ctx, types.Account{
		Username:     b.creds.Username,
		Email:        b.creds.Email,
		Role:         types.RoleAdmin,
		PasswordHash: digest,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Account{}, err
		}
		return types.Account{}, fmt.Errorf("%w: create admin account: %v", ErrStoreUnavailable, err)
	}
	return created, nil
}

func (b *AdminBootstrap) publish(ctx context.Context, account types.Account) {
	if b.events == nil {
		return
	}
	publishAccountEvent(ctx, b.events, b.log, types.AccountAdminReconciled, account)
}
