package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/propmgr/apiserver/config"
	"google.golang.org/api/option"
)

// singleRequestLimit is the SDK's default resumable chunk size. Smaller
// documents are sent in one request.
const singleRequestLimit = 16 << 20

// GCSClient keeps document files in a Google Cloud Storage bucket. Objects
// are write-once: keys carry a random component and are never overwritten.
type GCSClient struct {
	client    *storage.Client
	bucket    *storage.BucketHandle
	name      string
	projectID string
}

// NewGCSClient connects with cfg.CredentialsFile, or application default
// credentials when it is empty.
func NewGCSClient(ctx context.Context, cfg config.GCSConfig) (*GCSClient, error) {
	name := strings.TrimSpace(cfg.Bucket)
	if name == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSClient{
		client:    client,
		bucket:    client.Bucket(name),
		name:      name,
		projectID: strings.TrimSpace(cfg.ProjectID),
	}, nil
}

// EnsureBucket creates the bucket when missing. Creation needs a project id.
func (g *GCSClient) EnsureBucket(ctx context.Context) error {
	_, err := g.bucket.Attrs(ctx)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, storage.ErrBucketNotExist):
		return err
	case g.projectID == "":
		return errors.New("gcs project id is required to create bucket")
	}
	return g.bucket.Create(ctx, g.projectID, &storage.BucketAttrs{
		UniformBucketLevelAccess: storage.UniformBucketLevelAccess{Enabled: true},
	})
}

// Put streams r into a new object.
func (g *GCSClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	obj := g.bucket.Object(key).If(storage.Conditions{DoesNotExist: true})
	writer := obj.NewWriter(ctx)
	writer.ContentType = contentType
	writer.ContentDisposition = "attachment"
	if size > 0 && size < singleRequestLimit {
		writer.ChunkSize = 0
	}
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// Get opens the object for reading.
func (g *GCSClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := g.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	return reader, err
}

// Delete removes the object. A missing object is not an error.
func (g *GCSClient) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCSClient) Bucket() string {
	return g.name
}

// Close releases the client.
func (g *GCSClient) Close() error {
	return g.client.Close()
}
