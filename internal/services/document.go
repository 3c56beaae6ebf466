package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/propmgr/apiserver/internal/storage"
	"github.com/propmgr/apiserver/internal/store"
	"github.com/propmgr/apiserver/types"
)

// ErrStorageDisabled is returned when document storage is not configured.
var ErrStorageDisabled = errors.New("document storage is not configured")

// DocumentRepository defines persistence operations for document metadata.
type DocumentRepository interface {
	List(ctx context.Context) ([]types.Document, error)
	ListByTenant(ctx context.Context, tenantID int) ([]types.Document, error)
	Find(ctx context.Context, filter store.DocumentFilter) ([]types.Document, error)
	Get(ctx context.Context, id int) (types.Document, error)
	Create(ctx context.Context, document types.Document) (types.Document, error)
	Rename(ctx context.Context, id int, name, docType string) error
	SetVerified(ctx context.Context, id int, verified bool) error
	Delete(ctx context.Context, id int) error
}

// ObjectStore holds document file contents.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// DocumentUpload is a file to attach to a tenancy.
type DocumentUpload struct {
	TenantID    int
	Name        string
	Type        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DocumentService encapsulates document use-cases.
type DocumentService struct {
	repo    DocumentRepository
	tenants TenantRepository
	objects ObjectStore
}

// NewDocumentService constructs the service. objects may be nil, in which
// case uploads and downloads fail with ErrStorageDisabled.
func NewDocumentService(repo DocumentRepository, tenants TenantRepository, objects ObjectStore) *DocumentService {
	return &DocumentService{repo: repo, tenants: tenants, objects: objects}
}

func (s *DocumentService) List(ctx context.Context) ([]types.Document, error) {
	return s.repo.List(ctx)
}

func (s *DocumentService) ListByTenant(ctx context.Context, tenantID int) ([]types.Document, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

// ListByFlat lists documents of every tenancy on the flat.
func (s *DocumentService) ListByFlat(ctx context.Context, flatID int) ([]types.Document, error) {
	return s.repo.Find(ctx, store.DocumentFilter{FlatID: flatID})
}

func (s *DocumentService) ListByType(ctx context.Context, docType string) ([]types.Document, error) {
	docType = strings.ToUpper(strings.TrimSpace(docType))
	if docType == "" {
		return nil, errors.Join(ErrInvalid, errors.New("document type is required"))
	}
	return s.repo.Find(ctx, store.DocumentFilter{Type: docType})
}

func (s *DocumentService) Get(ctx context.Context, id int) (types.Document, error) {
	return s.repo.Get(ctx, id)
}

// Upload stores the file and records its metadata. The object is removed
// again if the metadata cannot be written.
func (s *DocumentService) Upload(ctx context.Context, upload DocumentUpload) (types.Document, error) {
	if s.objects == nil {
		return types.Document{}, ErrStorageDisabled
	}
	name := path.Base(strings.TrimSpace(upload.Name))
	if name == "" || name == "." || name == "/" || upload.Size <= 0 {
		return types.Document{}, errors.Join(ErrInvalid, errors.New("a non-empty file is required"))
	}
	if _, err := s.tenants.Get(ctx, upload.TenantID); err != nil {
		return types.Document{}, err
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	docType := strings.ToUpper(strings.TrimSpace(upload.Type))
	if docType == "" {
		docType = "OTHER"
	}

	key := fmt.Sprintf("tenants/%d/%s/%s", upload.TenantID, uuid.NewString(), name)
	if err := s.objects.Put(ctx, key, upload.Body, upload.Size, contentType); err != nil {
		if errors.Is(err, storage.ErrSizeMismatch) {
			return types.Document{}, errors.Join(ErrInvalid, err)
		}
		return types.Document{}, fmt.Errorf("store document: %w", err)
	}

	created, err := s.repo.Create(ctx, types.Document{
		TenantID:    upload.TenantID,
		Name:        name,
		Type:        docType,
		ContentType: contentType,
		Size:        upload.Size,
		ObjectKey:   key,
	})
	if err != nil {
		_ = s.objects.Delete(ctx, key)
		return types.Document{}, err
	}
	return created, nil
}

// Open returns the document metadata and a reader over its contents.
func (s *DocumentService) Open(ctx context.Context, id int) (types.Document, io.ReadCloser, error) {
	if s.objects == nil {
		return types.Document{}, nil, ErrStorageDisabled
	}
	document, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Document{}, nil, err
	}
	body, err := s.objects.Get(ctx, document.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return types.Document{}, nil, fmt.Errorf("%w: %v", store.ErrNotFound, err)
		}
		return types.Document{}, nil, err
	}
	return document, body, nil
}

// Update renames a document or changes its type. The file itself is
// immutable; replace it by uploading a new document.
func (s *DocumentService) Update(ctx context.Context, id int, name, docType string) (types.Document, error) {
	document, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Document{}, err
	}
	if name = strings.TrimSpace(name); name != "" {
		name = path.Base(name)
		if name == "." || name == "/" {
			return types.Document{}, errors.Join(ErrInvalid, errors.New("invalid document name"))
		}
		document.Name = name
	}
	if docType = strings.ToUpper(strings.TrimSpace(docType)); docType != "" {
		document.Type = docType
	}
	if err := s.repo.Rename(ctx, id, document.Name, document.Type); err != nil {
		return types.Document{}, err
	}
	return document, nil
}

func (s *DocumentService) Verify(ctx context.Context, id int) error {
	return s.repo.SetVerified(ctx, id, true)
}

// Delete removes the metadata and then the stored object.
func (s *DocumentService) Delete(ctx context.Context, id int) error {
	document, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.objects != nil {
		if err := s.objects.Delete(ctx, document.ObjectKey); err != nil {
			return fmt.Errorf("delete document object: %w", err)
		}
	}
	return nil
}
