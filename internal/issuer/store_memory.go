package issuer

import (
	"context"
	"sort"
	"sync"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[string]CredentialRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[string]CredentialRequest)}
}

func (s *InMemoryStore) Save(_ context.Context, request CredentialRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[request.ID] = request
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (CredentialRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.requests[id]; ok {
		return r, nil
	}
	return CredentialRequest{}, ErrNotFound
}

func (s *InMemoryStore) ListByIssuer(_ context.Context, issuerDID string) ([]CredentialRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r CredentialRequest) bool { return r.IssuerDID == issuerDID }), nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userDID string) ([]CredentialRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r CredentialRequest) bool { return r.UserDID == userDID }), nil
}

func (s *InMemoryStore) collect(match func(CredentialRequest) bool) []CredentialRequest {
	var out []CredentialRequest
	for _, r := range s.requests {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
