package audit

import (
	"context"
	"sync"
)

// Store is append-only so the trail cannot be rewritten.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actorDID string) ([]Event, error)
}

type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByActor(_ context.Context, actorDID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.ActorDID == actorDID {
			out = append(out, e)
		}
	}
	return out, nil
}
