package auth

import (
	"context"
	"sync"
	"time"
)

type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[string]User)}
}

func (s *InMemoryUserStore) Save(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.DID] = user
	return nil
}

func (s *InMemoryUserStore) FindByDID(_ context.Context, did string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[did]; ok {
		return u, nil
	}
	return User{}, ErrUserNotFound
}

type InMemoryChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
}

func NewInMemoryChallengeStore() *InMemoryChallengeStore {
	return &InMemoryChallengeStore{challenges: make(map[string]Challenge)}
}

func challengeKey(did, nonce string) string {
	return did + ":" + nonce
}

func (s *InMemoryChallengeStore) Put(_ context.Context, challenge Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[challengeKey(challenge.DID, challenge.Nonce)] = challenge
	return nil
}

func (s *InMemoryChallengeStore) Take(_ context.Context, did, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := challengeKey(did, nonce)
	challenge, ok := s.challenges[key]
	if !ok {
		return false, nil
	}
	delete(s.challenges, key)
	return challenge.ExpiresAt.After(time.Now()), nil
}
