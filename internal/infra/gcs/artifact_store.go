// Package gcs persists certificate artifacts in a Google Cloud Storage
// bucket.
package gcs

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ArtifactStore implements cert.ArtifactStore on top of a GCS bucket.
// Objects are addressed by deterministic keys, so re-uploads overwrite
// in place.
type ArtifactStore struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

func NewArtifactStore(ctx context.Context, bucket, cdnDomain string, opts ...option.ClientOption) (*ArtifactStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &ArtifactStore{client: client, bucket: bucket, cdnDomain: cdnDomain}, nil
}

func (s *ArtifactStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", key, err)
	}
	return s.publicURL(key), nil
}

func (s *ArtifactStore) publicURL(key string) string {
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}

func (s *ArtifactStore) Close() error {
	return s.client.Close()
}
