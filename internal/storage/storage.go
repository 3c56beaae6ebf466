package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/propmgr/apiserver/config"
)

var (
	// ErrObjectNotFound is returned by Get when the key does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrSizeMismatch is returned by Put when the body length differs from
	// the declared size. The partial object is removed.
	ErrSizeMismatch = errors.New("object size mismatch")
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage wraps an ObjectStorage backend with a stable API.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// NewFromConfig constructs the configured backend and ensures its bucket
// exists. It returns nil, nil when no backend is configured.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var backend ObjectStorage
	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		client, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case "gcs":
		client, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	s := NewStorage(backend)
	if err := s.EnsureBucket(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ensure bucket %s: %w", s.Bucket(), err)
	}
	return s, nil
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads exactly size bytes from r under key.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if size < 0 {
		return fmt.Errorf("%w: negative size", ErrSizeMismatch)
	}
	counted := &countingReader{r: io.LimitReader(r, size+1)}
	if err := s.backend.Put(ctx, key, counted, size, contentType); err != nil {
		return err
	}
	if counted.n != size {
		_ = s.backend.Delete(ctx, key)
		return fmt.Errorf("%w: declared %d bytes, read %d", ErrSizeMismatch, size, counted.n)
	}
	return nil
}

// Get opens a reader for an object in the configured bucket.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// Close releases the backend client when it holds one.
func (s *Storage) Close() error {
	if closer, ok := s.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
