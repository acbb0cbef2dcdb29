package consent

import (
	"context"
	"sort"
	"sync"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[id]; ok {
		return r, nil
	}
	return Record{}, ErrNotFound
}

func (s *InMemoryStore) ListByUser(_ context.Context, userDID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r Record) bool { return r.UserDID == userDID }), nil
}

func (s *InMemoryStore) ListByVerifier(_ context.Context, verifierDID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r Record) bool { return r.VerifierDID == verifierDID }), nil
}

func (s *InMemoryStore) collect(match func(Record) bool) []Record {
	var out []Record
	for _, r := range s.records {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
