package handlers

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// GCSBlobStore keeps blobs in a Google Cloud Storage bucket. Object names are
// "<bucket prefix>/<key>" inside the single configured GCS bucket.
type GCSBlobStore struct {
	client     *storage.Client
	bucketName string
}

func NewGCSBlobStore(ctx context.Context, bucketName string) (*GCSBlobStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSBlobStore{client: client, bucketName: bucketName}, nil
}

func (s *GCSBlobStore) object(bucket, key string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucketName).Object(bucket + "/" + key)
}

func (s *GCSBlobStore) Put(bucket, key string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	w := s.object(bucket, key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s/%s", s.bucketName, bucket, key), nil
}

func (s *GCSBlobStore) Get(bucket, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r, err := s.object(bucket, key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *GCSBlobStore) Delete(bucket, key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.object(bucket, key).Delete(ctx) == nil
}
