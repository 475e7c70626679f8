package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/netoho/hestia-app-staging-sub000/internal/config"
	"go.uber.org/zap"
)

// ObjectStore wraps the document bucket. The workflow core never reads
// file bytes; it only hands out keys and presigned links.
type ObjectStore struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

func NewObjectStore(cfg *config.StorageConfig, logger *zap.Logger) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &ObjectStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With(zap.String("service", "object_store")),
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (os *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := os.client.BucketExists(ctx, os.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := os.client.MakeBucket(ctx, os.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		os.logger.Info("bucket created", zap.String("bucket", os.bucket))
	}
	return nil
}

// Upload streams a document into the bucket under the given key.
func (os *ObjectStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := os.client.PutObject(ctx, os.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// PresignedURL returns a short-lived download link for a stored object.
func (os *ObjectStore) PresignedURL(ctx context.Context, key string) (string, error) {
	url, err := os.client.PresignedGetObject(ctx, os.bucket, key, 15*time.Minute, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}
	return url.String(), nil
}

// Delete removes a stored object by key.
func (os *ObjectStore) Delete(ctx context.Context, key string) error {
	if err := os.client.RemoveObject(ctx, os.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
