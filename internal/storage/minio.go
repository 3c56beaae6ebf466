package storage

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/propmgr/apiserver/config"
)

// MinioClient keeps document files in a MinIO or other S3 compatible bucket.
type MinioClient struct {
	client *minio.Client
	bucket string
}

// NewMinioClient validates cfg and builds the client. No request is made
// until EnsureBucket.
func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	var missing []string
	for name, value := range map[string]string{
		"endpoint":   cfg.Endpoint,
		"access key": cfg.AccessKey,
		"secret key": cfg.SecretKey,
		"bucket":     cfg.Bucket,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.New("minio config incomplete: missing " + strings.Join(missing, ", "))
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioClient{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket when missing. A concurrent create by
// another instance counts as success.
func (m *MinioClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil || exists {
		return err
	}
	err = m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	if code := minio.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
		return nil
	}
	return err
}

// Put uploads size bytes from r. Downloads are served as attachments.
func (m *MinioClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: "attachment",
	})
	return err
}

// Get opens the object. Missing objects yield ErrObjectNotFound up front
// rather than on the first Read.
func (m *MinioClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapMinioError(err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, mapMinioError(err)
	}
	return obj, nil
}

func (m *MinioClient) Delete(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

func (m *MinioClient) Bucket() string {
	return m.bucket
}

func mapMinioError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrObjectNotFound
	}
	return err
}
