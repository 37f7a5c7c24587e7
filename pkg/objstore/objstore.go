// Package objstore wraps the MinIO SDK behind the handful of operations the
// worker needs. A Store is safe for concurrent use.
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/config"
)

// Store is the object storage interface the worker programs against. The
// production implementation talks to MinIO; tests substitute an in-memory
// fake.
type Store interface {
	// EnsureBuckets creates the platform buckets when missing.
	EnsureBuckets(ctx context.Context) error
	GetBytes(ctx context.Context, bucket, key string) ([]byte, error)
	// DownloadToFile streams an object to a local path.
	DownloadToFile(ctx context.Context, bucket, key, localPath string) error
	PutBytes(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Remove(ctx context.Context, bucket, key string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
}

// platformBuckets is the fixed bucket set the pipeline writes to.
var platformBuckets = []string{
	config.BucketRawUploads,
	config.BucketPageCache,
	config.BucketOutputs,
}

type minioStore struct {
	client *minio.Client
}

// NewStore creates a Store backed by the configured MinIO endpoint.
func NewStore(cfg *config.Config) (Store, error) {
	client, err := minio.New(cfg.MinioAddress(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	return &minioStore{client: client}, nil
}

func (s *minioStore) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range platformBuckets {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket %q: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("failed to create bucket %q: %w", bucket, err)
			}
		}
	}
	return nil
}

func (s *minioStore) GetBytes(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (s *minioStore) DownloadToFile(ctx context.Context, bucket, key, localPath string) error {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to get %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, obj); err != nil {
		return fmt.Errorf("failed to download %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *minioStore) PutBytes(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *minioStore) Remove(ctx context.Context, bucket, key string) error {
	err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *minioStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
