// Package storage provides object storage for generated documents.
// Currently it archives learning path markdown documents in a MinIO bucket.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"edpulse_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DocumentStore archives text documents.
type DocumentStore interface {
	EnsureBucketExists(ctx context.Context) error
	StoreDocument(ctx context.Context, folder, fileName, content string) (string, error)
}

// MinIOStore implements DocumentStore using a single MinIO bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore creates a MinIO-backed document store.
func NewMinIOStore(cfg config.StorageConfig) (*MinIOStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOStore{
		client: client,
		bucket: cfg.GetMinioBucketLearningPaths(),
	}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (s *MinIOStore) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}

	return nil
}

// StoreDocument uploads a text document and returns its object key.
// A short unique suffix prevents overwrites when the same visitor generates
// multiple documents.
func (s *MinIOStore) StoreDocument(ctx context.Context, folder, fileName, content string) (string, error) {
	key := fmt.Sprintf("%s/%s_%s_%s", folder,
		time.Now().UTC().Format("20060102"),
		uuid.New().String()[:8],
		fileName,
	)

	reader := strings.NewReader(content)
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(reader.Len()), minio.PutObjectOptions{
		ContentType: "text/markdown",
	})
	if err != nil {
		return "", fmt.Errorf("failed to store document %s: %w", key, err)
	}

	return key, nil
}
