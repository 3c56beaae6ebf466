package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/propmgr/apiserver/types"
)

const complaintColumns = `id, tenant_id, flat_id, title, description, status, priority, resolution, assigned_to, created_at, updated_at`

// ComplaintFilter narrows Find. Zero fields are ignored.
type ComplaintFilter struct {
	TenantID   int
	FlatID     int
	Priority   string
	Statuses   []types.ComplaintStatus
	AssignedTo int
}

func (f ComplaintFilter) where() *whereClause {
	w := &whereClause{}
	if f.TenantID != 0 {
		w.add("tenant_id = ?", f.TenantID)
	}
	if f.FlatID != 0 {
		w.add("flat_id = ?", f.FlatID)
	}
	if f.Priority != "" {
		w.add("priority = ?", f.Priority)
	}
	if len(f.Statuses) > 0 {
		w.add("status = ANY(?)", textArray(f.Statuses))
	}
	if f.AssignedTo != 0 {
		w.add("assigned_to = ?", f.AssignedTo)
	}
	return w
}

// ComplaintRepository handles persistence for complaints.
type ComplaintRepository struct {
	db *sql.DB
}

func NewComplaintRepository(db *sql.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

func (r *ComplaintRepository) List(ctx context.Context) ([]types.Complaint, error) {
	const query = `SELECT ` + complaintColumns + ` FROM complaints ORDER BY created_at DESC, id`
	return r.list(ctx, query)
}

func (r *ComplaintRepository) ListByTenant(ctx context.Context, tenantID int) ([]types.Complaint, error) {
	const query = `SELECT ` + complaintColumns + ` FROM complaints WHERE tenant_id = $1 ORDER BY created_at DESC, id`
	return r.list(ctx, query, tenantID)
}

// Find lists complaints matching filter, newest first.
func (r *ComplaintRepository) Find(ctx context.Context, filter ComplaintFilter) ([]types.Complaint, error) {
	where := filter.where()
	query := `SELECT ` + complaintColumns + ` FROM complaints` + where.String() + ` ORDER BY created_at DESC, id`
	return r.list(ctx, query, where.args...)
}

func (r *ComplaintRepository) Get(ctx context.Context, id int) (types.Complaint, error) {
	const query = `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	complaint, err := scanComplaint(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Complaint{}, ErrNotFound
		}
		return types.Complaint{}, err
	}
	return complaint, nil
}

func (r *ComplaintRepository) Create(ctx context.Context, complaint types.Complaint) (types.Complaint, error) {
	now := time.Now()
	complaint.CreatedAt = now
	complaint.UpdatedAt = now

	const query = `
		INSERT INTO complaints (tenant_id, flat_id, title, description, status, priority, resolution, assigned_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		complaint.TenantID,
		complaint.FlatID,
		complaint.Title,
		complaint.Description,
		complaint.Status,
		complaint.Priority,
		complaint.Resolution,
		complaint.AssignedTo,
		complaint.CreatedAt,
		complaint.UpdatedAt,
	).Scan(&complaint.ID); err != nil {
		return types.Complaint{}, mapWriteError(err)
	}
	return complaint, nil
}

// Update rewrites title, description, priority and assignee. Status and
// resolution change only through UpdateStatus.
func (r *ComplaintRepository) Update(ctx context.Context, complaint types.Complaint) (types.Complaint, error) {
	complaint.UpdatedAt = time.Now()

	const query = `
		UPDATE complaints
		SET title = $1,
			description = $2,
			priority = $3,
			assigned_to = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		complaint.Title,
		complaint.Description,
		complaint.Priority,
		complaint.AssignedTo,
		complaint.UpdatedAt,
		complaint.ID,
	)
	if err != nil {
		return types.Complaint{}, mapWriteError(err)
	}
	if err := expectAffected(result); err != nil {
		return types.Complaint{}, err
	}
	return complaint, nil
}

func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id int, status types.ComplaintStatus, resolution string) error {
	const query = `UPDATE complaints SET status = $1, resolution = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, status, resolution, time.Now(), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *ComplaintRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM complaints WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *ComplaintRepository) list(ctx context.Context, query string, args ...any) ([]types.Complaint, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	complaints := []types.Complaint{}
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, complaint)
	}
	return complaints, rows.Err()
}

func scanComplaint(row rowScanner) (types.Complaint, error) {
	var complaint types.Complaint
	var resolution sql.NullString
	var assignedTo sql.NullInt64
	err := row.Scan(
		&complaint.ID,
		&complaint.TenantID,
		&complaint.FlatID,
		&complaint.Title,
		&complaint.Description,
		&complaint.Status,
		&complaint.Priority,
		&resolution,
		&assignedTo,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
	)
	complaint.Resolution = resolution.String
	if assignedTo.Valid {
		id := int(assignedTo.Int64)
		complaint.AssignedTo = &id
	}
	return complaint, err
}
