// Package store keeps the per-user "has credential" flag.
package store

import (
	"context"
	"sync"

	id "verimint/pkg/domain"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	flags map[id.UserID]struct{}
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{flags: make(map[id.UserID]struct{})}
}

func (s *InMemoryStore) Set(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[userID] = struct{}{}
	return nil
}

func (s *InMemoryStore) Has(_ context.Context, userID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.flags[userID]
	return ok, nil
}
