// Package blobstore holds encrypted credential payloads off the main data
// path, addressed by content hash. The registry only ever sees the hash.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// Store is a content-addressed blob store. Upload returns the reference the
// blob can later be fetched by.
type Store interface {
	Upload(ctx context.Context, data []byte) (string, error)
	Download(ctx context.Context, ref string) ([]byte, error)
}

// InMemoryStore keeps blobs in a map, keyed by their content hash.
type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[string][]byte)}
}

func (s *InMemoryStore) Upload(_ context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	ref := hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (s *InMemoryStore) Download(_ context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if blob, ok := s.blobs[ref]; ok {
		return append([]byte(nil), blob...), nil
	}
	return nil, dErrors.New(dErrors.CodeStorage, "blob not found")
}
