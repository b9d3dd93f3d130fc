// Package storage reads learner uploads from an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/SAP-F-2025/attempt-grading-service/internal/config"
)

// ErrNotConfigured is returned by Get when no object store endpoint is set.
var ErrNotConfigured = errors.New("object storage is not configured")

// maxObjectBytes bounds how much of a single upload is read for grading.
const maxObjectBytes = 10 << 20

type MinioReader struct {
	Client *minio.Client
	Bucket string
}

// NewMinioReader returns a reader whose Get always fails with
// ErrNotConfigured when cfg.Endpoint is empty.
func NewMinioReader(cfg config.StorageConfig) (*MinioReader, error) {
	if cfg.Endpoint == "" {
		return &MinioReader{Bucket: cfg.Bucket}, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinioReader{Client: client, Bucket: cfg.Bucket}, nil
}

func (r *MinioReader) Get(ctx context.Context, key string) ([]byte, error) {
	if r == nil || r.Client == nil {
		return nil, ErrNotConfigured
	}
	obj, err := r.Client.GetObject(ctx, r.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxObjectBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}
