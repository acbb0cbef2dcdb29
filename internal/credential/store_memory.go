package credential

import (
	"context"
	"sort"
	"sync"
)

type InMemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]Credential
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{credentials: make(map[string]Credential)}
}

func (s *InMemoryStore) Save(_ context.Context, credential Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[credential.ID] = credential
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.credentials[id]; ok {
		return c, nil
	}
	return Credential{}, ErrNotFound
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerDID string) ([]Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(c Credential) bool { return c.OwnerDID == ownerDID }), nil
}

func (s *InMemoryStore) ListByIssuer(_ context.Context, issuerDID string) ([]Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(c Credential) bool { return c.IssuerDID == issuerDID }), nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[id]; !ok {
		return ErrNotFound
	}
	delete(s.credentials, id)
	return nil
}

// collect assumes the read lock is held. Results are ordered newest first.
func (s *InMemoryStore) collect(match func(Credential) bool) []Credential {
	var out []Credential
	for _, c := range s.credentials {
		if match(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
