package handlers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalBlobStore keeps blobs on the local filesystem under a root directory.
// Writes land in a per-write temp path first and are moved into place, so a
// half-written file is never visible under its final key.
type LocalBlobStore struct {
	Root string
}

func NewLocalBlobStore(root string) *LocalBlobStore {
	return &LocalBlobStore{Root: root}
}

func (s *LocalBlobStore) path(bucket, key string) string {
	return filepath.Join(s.Root, filepath.FromSlash(bucket), key)
}

func (s *LocalBlobStore) Put(bucket, key string, data []byte) (string, error) {
	final := s.path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(final), 0755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}

	tmp := filepath.Join(s.Root, ".tmp", uuid.New().String())
	if err := os.MkdirAll(filepath.Dir(tmp), 0755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("move into place: %w", err)
	}

	return "/uploads/" + bucket + "/" + key, nil
}

func (s *LocalBlobStore) Get(bucket, key string) ([]byte, error) {
	return os.ReadFile(s.path(bucket, key))
}

func (s *LocalBlobStore) Delete(bucket, key string) bool {
	return os.Remove(s.path(bucket, key)) == nil
}
