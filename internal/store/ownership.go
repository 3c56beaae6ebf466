package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ownerQueries resolve a resource to the account behind its tenant record.
var ownerQueries = map[string]string{
	"tenant": `
		SELECT account_id
		FROM tenants
		WHERE id = $1`,
	"payment": `
		SELECT t.account_id
		FROM payments p
		JOIN tenants t ON t.id = p.tenant_id
		WHERE p.id = $1`,
	"complaint": `
		SELECT t.account_id
		FROM complaints c
		JOIN tenants t ON t.id = c.tenant_id
		WHERE c.id = $1`,
	"document": `
		SELECT t.account_id
		FROM documents d
		JOIN tenants t ON t.id = d.tenant_id
		WHERE d.id = $1`,
}

// OwnershipRepository answers which account owns a tenant-scoped resource.
type OwnershipRepository struct {
	db *sql.DB
}

func NewOwnershipRepository(db *sql.DB) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

// OwnerAccountID returns the account id linked to the resource of kind with id.
func (r *OwnershipRepository) OwnerAccountID(ctx context.Context, kind string, id int) (int, error) {
	query, ok := ownerQueries[kind]
	if !ok {
		return 0, fmt.Errorf("unknown ownership kind %q", kind)
	}
	var accountID int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return accountID, nil
}
