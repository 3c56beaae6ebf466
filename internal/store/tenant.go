package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/propmgr/apiserver/types"
)

const tenantColumns = `id, account_id, flat_id, lease_start, lease_end, phone, created_at, updated_at`

// TenantFilter narrows Find. Zero fields are ignored.
type TenantFilter struct {
	FlatID int
	// ActiveAt keeps tenancies whose lease covers the instant. Open-ended
	// bounds count as covering.
	ActiveAt time.Time
	// LeaseEndFrom is inclusive, LeaseEndBefore exclusive. Either one
	// excludes tenancies without a lease end.
	LeaseEndFrom   time.Time
	LeaseEndBefore time.Time
}

func (f TenantFilter) where() *whereClause {
	w := &whereClause{}
	if f.FlatID != 0 {
		w.add("flat_id = ?", f.FlatID)
	}
	if !f.ActiveAt.IsZero() {
		w.add("(lease_start IS NULL OR lease_start <= ?)", f.ActiveAt)
		w.add("(lease_end IS NULL OR lease_end >= ?)", f.ActiveAt)
	}
	if !f.LeaseEndFrom.IsZero() {
		w.add("lease_end >= ?", f.LeaseEndFrom)
	}
	if !f.LeaseEndBefore.IsZero() {
		w.add("lease_end < ?", f.LeaseEndBefore)
	}
	return w
}

// TenantRepository handles persistence for tenancy records.
type TenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) List(ctx context.Context) ([]types.Tenant, error) {
	const query = `SELECT ` + tenantColumns + ` FROM tenants ORDER BY id`
	return r.list(ctx, query)
}

func (r *TenantRepository) ListByFlat(ctx context.Context, flatID int) ([]types.Tenant, error) {
	const query = `SELECT ` + tenantColumns + ` FROM tenants WHERE flat_id = $1 ORDER BY id`
	return r.list(ctx, query, flatID)
}

// Find lists tenancies matching filter. Tenancies with a lease end come
// first, soonest ending first.
func (r *TenantRepository) Find(ctx context.Context, filter TenantFilter) ([]types.Tenant, error) {
	where := filter.where()
	query := `SELECT ` + tenantColumns + ` FROM tenants` + where.String() + ` ORDER BY lease_end NULLS LAST, id`
	return r.list(ctx, query, where.args...)
}

func (r *TenantRepository) Get(ctx context.Context, id int) (types.Tenant, error) {
	const query = `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Tenant{}, ErrNotFound
		}
		return types.Tenant{}, err
	}
	return tenant, nil
}

func (r *TenantRepository) GetByAccountID(ctx context.Context, accountID int) (types.Tenant, error) {
	const query = `SELECT ` + tenantColumns + ` FROM tenants WHERE account_id = $1`
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Tenant{}, ErrNotFound
		}
		return types.Tenant{}, err
	}
	return tenant, nil
}

func (r *TenantRepository) Create(ctx context.Context, tenant types.Tenant) (types.Tenant, error) {
	now := time.Now()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	const query = `
		INSERT INTO tenants (account_id, flat_id, lease_start, lease_end, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		tenant.AccountID,
		tenant.FlatID,
		tenant.LeaseStart,
		tenant.LeaseEnd,
		tenant.Phone,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	).Scan(&tenant.ID); err != nil {
		return types.Tenant{}, mapWriteError(err)
	}
	return tenant, nil
}

func (r *TenantRepository) Update(ctx context.Context, tenant types.Tenant) (types.Tenant, error) {
	tenant.UpdatedAt = time.Now()

	const query = `
		UPDATE tenants
		SET account_id = $1,
			flat_id = $2,
			lease_start = $3,
			lease_end = $4,
			phone = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		tenant.AccountID,
		tenant.FlatID,
		tenant.LeaseStart,
		tenant.LeaseEnd,
		tenant.Phone,
		tenant.UpdatedAt,
		tenant.ID,
	)
	if err != nil {
		return types.Tenant{}, mapWriteError(err)
	}
	if err := expectAffected(result); err != nil {
		return types.Tenant{}, err
	}
	return tenant, nil
}

func (r *TenantRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM tenants WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *TenantRepository) list(ctx context.Context, query string, args ...any) ([]types.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := []types.Tenant{}
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func scanTenant(row rowScanner) (types.Tenant, error) {
	var tenant types.Tenant
	var leaseStart, leaseEnd sql.NullTime
	err := row.Scan(
		&tenant.ID,
		&tenant.AccountID,
		&tenant.FlatID,
		&leaseStart,
		&leaseEnd,
		&tenant.Phone,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if leaseStart.Valid {
		tenant.LeaseStart = &leaseStart.Time
	}
	if leaseEnd.Valid {
		tenant.LeaseEnd = &leaseEnd.Time
	}
	return tenant, err
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
