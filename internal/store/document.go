package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/propmgr/apiserver/types"
)

const documentColumns = `id, tenant_id, name, type, content_type, size, object_key, verified, created_at, updated_at`

// DocumentFilter narrows Find. Zero fields are ignored.
type DocumentFilter struct {
	TenantID int
	// FlatID matches documents of every tenancy on the flat.
	FlatID int
	Type   string
}

func (f DocumentFilter) where() *whereClause {
	w := &whereClause{}
	if f.TenantID != 0 {
		w.add("tenant_id = ?", f.TenantID)
	}
	if f.FlatID != 0 {
		w.add("tenant_id IN (SELECT id FROM tenants WHERE flat_id = ?)", f.FlatID)
	}
	if f.Type != "" {
		w.add("type = ?", f.Type)
	}
	return w
}

// DocumentRepository handles persistence for document metadata. File
// contents live in object storage under ObjectKey.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) List(ctx context.Context) ([]types.Document, error) {
	const query = `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC, id`
	return r.list(ctx, query)
}

func (r *DocumentRepository) ListByTenant(ctx context.Context, tenantID int) ([]types.Document, error) {
	const query = `SELECT ` + documentColumns + ` FROM documents WHERE tenant_id = $1 ORDER BY created_at DESC, id`
	return r.list(ctx, query, tenantID)
}

// Find lists documents matching filter, newest first.
func (r *DocumentRepository) Find(ctx context.Context, filter DocumentFilter) ([]types.Document, error) {
	where := filter.where()
	query := `SELECT ` + documentColumns + ` FROM documents` + where.String() + ` ORDER BY created_at DESC, id`
	return r.list(ctx, query, where.args...)
}

func (r *DocumentRepository) Get(ctx context.Context, id int) (types.Document, error) {
	const query = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	document, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Document{}, ErrNotFound
		}
		return types.Document{}, err
	}
	return document, nil
}

func (r *DocumentRepository) Create(ctx context.Context, document types.Document) (types.Document, error) {
	now := time.Now()
	document.CreatedAt = now
	document.UpdatedAt = now

	const query = `
		INSERT INTO documents (tenant_id, name, type, content_type, size, object_key, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		document.TenantID,
		document.Name,
		document.Type,
		document.ContentType,
		document.Size,
		document.ObjectKey,
		document.Verified,
		document.CreatedAt,
		document.UpdatedAt,
	).Scan(&document.ID); err != nil {
		return types.Document{}, mapWriteError(err)
	}
	return document, nil
}

// Rename updates the display name and type. The stored object is untouched.
func (r *DocumentRepository) Rename(ctx context.Context, id int, name, docType string) error {
	const query = `UPDATE documents SET name = $1, type = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, name, docType, time.Now(), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *DocumentRepository) SetVerified(ctx context.Context, id int, verified bool) error {
	const query = `UPDATE documents SET verified = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, verified, time.Now(), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *DocumentRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM documents WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *DocumentRepository) list(ctx context.Context, query string, args ...any) ([]types.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	documents := []types.Document{}
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}
	return documents, rows.Err()
}

func scanDocument(row rowScanner) (types.Document, error) {
	var document types.Document
	err := row.Scan(
		&document.ID,
		&document.TenantID,
		&document.Name,
		&document.Type,
		&document.ContentType,
		&document.Size,
		&document.ObjectKey,
		&document.Verified,
		&document.CreatedAt,
		&document.UpdatedAt,
	)
	return document, err
}
