package presentation

import (
	"context"
	"sort"
	"sync"
)

type InMemoryStore struct {
	mu            sync.RWMutex
	presentations map[string]Presentation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{presentations: make(map[string]Presentation)}
}

func (s *InMemoryStore) Save(_ context.Context, presentation Presentation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presentations[presentation.ID] = presentation
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Presentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.presentations[id]; ok {
		return p, nil
	}
	return Presentation{}, ErrNotFound
}

func (s *InMemoryStore) ListByProver(_ context.Context, proverDID string) ([]Presentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(p Presentation) bool { return p.ProverDID == proverDID }), nil
}

func (s *InMemoryStore) ListByVerifier(_ context.Context, verifierDID string) ([]Presentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(p Presentation) bool { return p.VerifierDID == verifierDID }), nil
}

func (s *InMemoryStore) collect(match func(Presentation) bool) []Presentation {
	var out []Presentation
	for _, p := range s.presentations {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type InMemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[string]Request
}

func NewInMemoryRequestStore() *InMemoryRequestStore {
	return &InMemoryRequestStore{requests: make(map[string]Request)}
}

func (s *InMemoryRequestStore) Save(_ context.Context, request Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[request.ID] = request
	return nil
}

func (s *InMemoryRequestStore) FindByID(_ context.Context, id string) (Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.requests[id]; ok {
		return r, nil
	}
	return Request{}, ErrRequestNotFound
}

func (s *InMemoryRequestStore) ListByVerifier(_ context.Context, verifierDID string) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Request
	for _, r := range s.requests {
		if r.VerifierDID == verifierDID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
