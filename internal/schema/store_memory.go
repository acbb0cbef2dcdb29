package schema

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{schemas: make(map[string]Schema)}
}

func (s *InMemoryStore) Save(_ context.Context, schema Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[schema.ID] = schema
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sc, ok := s.schemas[id]; ok {
		return sc, nil
	}
	return Schema{}, ErrNotFound
}

func (s *InMemoryStore) ListByIssuer(_ context.Context, issuerDID string) ([]Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(sc Schema) bool { return sc.IssuerDID == issuerDID }), nil
}

func (s *InMemoryStore) Search(_ context.Context, name string) ([]Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(name)
	return s.collect(func(sc Schema) bool {
		return strings.Contains(strings.ToLower(sc.Name), needle)
	}), nil
}

func (s *InMemoryStore) collect(match func(Schema) bool) []Schema {
	var out []Schema
	for _, sc := range s.schemas {
		if match(sc) {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
