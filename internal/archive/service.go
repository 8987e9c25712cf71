// Package archive stores exported document containers in S3-compatible
// object storage so finalized exports survive session eviction.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"redline/api/internal/docx"
)

// Service uploads exported containers to a single bucket, one object per
// export, keyed by document ID and timestamp.
type Service struct {
	client *minio.Client
	bucket string
}

// New connects to the object store and ensures the bucket exists.
func New(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Service, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	return &Service{client: client, bucket: bucket}, nil
}

// Store uploads one exported container and returns the object key.
func (s *Service) Store(ctx context.Context, documentID string, data []byte) (string, error) {
	key := fmt.Sprintf("%s/%s.docx", documentID, time.Now().UTC().Format("20060102T150405Z"))

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: docx.MimeType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

// StoreAsync uploads in the background. Failures are logged, never surfaced
// to the export response.
func (s *Service) StoreAsync(documentID string, data []byte) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.Store(ctx, documentID, data); err != nil {
			log.Printf("archive: store export for %s: %v", documentID, err)
		}
	}()
}
