package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/propmgr/apiserver/types"
)

const paymentColumns = `id, tenant_id, flat_id, amount, type, status, due_date, paid_at, description, created_at, updated_at`

// PaymentFilter narrows Find. Zero fields are ignored.
type PaymentFilter struct {
	TenantID int
	FlatID   int
	Type     string
	Statuses []types.PaymentStatus
	// DueFrom is inclusive, DueBefore exclusive.
	DueFrom   time.Time
	DueBefore time.Time
}

func (f PaymentFilter) where() *whereClause {
	w := &whereClause{}
	if f.TenantID != 0 {
		w.add("tenant_id = ?", f.TenantID)
	}
	if f.FlatID != 0 {
		w.add("flat_id = ?", f.FlatID)
	}
	if f.Type != "" {
		w.add("type = ?", f.Type)
	}
	if len(f.Statuses) > 0 {
		w.add("status = ANY(?)", textArray(f.Statuses))
	}
	if !f.DueFrom.IsZero() {
		w.add("due_date >= ?", f.DueFrom)
	}
	if !f.DueBefore.IsZero() {
		w.add("due_date < ?", f.DueBefore)
	}
	return w
}

// PaymentRepository handles persistence for payments.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) List(ctx context.Context) ([]types.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments ORDER BY due_date DESC, id`
	return r.list(ctx, query)
}

func (r *PaymentRepository) ListByTenant(ctx context.Context, tenantID int) ([]types.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments WHERE tenant_id = $1 ORDER BY due_date DESC, id`
	return r.list(ctx, query, tenantID)
}

func (r *PaymentRepository) ListByStatus(ctx context.Context, status types.PaymentStatus) ([]types.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments WHERE status = $1 ORDER BY due_date, id`
	return r.list(ctx, query, status)
}

// Find lists payments matching filter, earliest due first.
func (r *PaymentRepository) Find(ctx context.Context, filter PaymentFilter) ([]types.Payment, error) {
	where := filter.where()
	query := `SELECT ` + paymentColumns + ` FROM payments` + where.String() + ` ORDER BY due_date, id`
	return r.list(ctx, query, where.args...)
}

func (r *PaymentRepository) Get(ctx context.Context, id int) (types.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Payment{}, ErrNotFound
		}
		return types.Payment{}, err
	}
	return payment, nil
}

func (r *PaymentRepository) Create(ctx context.Context, payment types.Payment) (types.Payment, error) {
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	const query = `
		INSERT INTO payments (tenant_id, flat_id, amount, type, status, due_date, paid_at, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		payment.TenantID,
		payment.FlatID,
		payment.Amount,
		payment.Type,
		payment.Status,
		payment.DueDate,
		payment.PaidAt,
		payment.Description,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Scan(&payment.ID); err != nil {
		return types.Payment{}, mapWriteError(err)
	}
	return payment, nil
}

// Update rewrites the editable fields of a payment. Status and paid time
// change only through UpdateStatus.
func (r *PaymentRepository) Update(ctx context.Context, payment types.Payment) (types.Payment, error) {
	payment.UpdatedAt = time.Now()

	const query = `
		UPDATE payments
		SET flat_id = $1,
			amount = $2,
			type = $3,
			due_date = $4,
			description = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		payment.FlatID,
		payment.Amount,
		payment.Type,
		payment.DueDate,
		payment.Description,
		payment.UpdatedAt,
		payment.ID,
	)
	if err != nil {
		return types.Payment{}, mapWriteError(err)
	}
	if err := expectAffected(result); err != nil {
		return types.Payment{}, err
	}
	return payment, nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id int, status types.PaymentStatus, paidAt *time.Time) error {
	const query = `UPDATE payments SET status = $1, paid_at = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, status, paidAt, time.Now(), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *PaymentRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM payments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]types.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []types.Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func scanPayment(row rowScanner) (types.Payment, error) {
	var payment types.Payment
	var paidAt sql.NullTime
	var description sql.NullString
	err := row.Scan(
		&payment.ID,
		&payment.TenantID,
		&payment.FlatID,
		&payment.Amount,
		&payment.Type,
		&payment.Status,
		&payment.DueDate,
		&paidAt,
		&description,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if paidAt.Valid {
		payment.PaidAt = &paidAt.Time
	}
	payment.Description = description.String
	return payment, err
}
