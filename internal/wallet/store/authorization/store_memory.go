// Package authorization caches the wallet address the user last approved.
package authorization

import (
	"context"
	"sync"

	"verimint/internal/wallet/models"
	"verimint/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu   sync.RWMutex
	auth *models.Authorization
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Load(_ context.Context) (*models.Authorization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.auth == nil {
		return nil, sentinel.ErrNotFound
	}
	auth := *s.auth
	return &auth, nil
}

func (s *InMemoryStore) Save(_ context.Context, auth models.Authorization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = &auth
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = nil
	return nil
}
