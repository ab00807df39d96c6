// Package status holds StatusStore implementations for the profiles record.
package status

import (
	"context"
	"sync"
	"time"

	"verimint/internal/verification/models"
	id "verimint/pkg/domain"
	"verimint/pkg/platform/sentinel"
)

// ChangeHook is called after every write, mirroring the database trigger
// that feeds the push channel.
type ChangeHook func(models.StatusChange)

// InMemoryStore is a StatusStore for tests and local development.
type InMemoryStore struct {
	mu        sync.RWMutex
	records   map[id.UserID]models.StatusRecord
	hook      ChangeHook
	now       func() time.Time
	provision bool
}

type InMemoryOption func(*InMemoryStore)

func WithChangeHook(hook ChangeHook) InMemoryOption {
	return func(s *InMemoryStore) {
		s.hook = hook
	}
}

// WithAutoProvision creates the record for unknown users on first read or
// write, standing in for sign-up when no profiles database is configured.
func WithAutoProvision() InMemoryOption {
	return func(s *InMemoryStore) {
		s.provision = true
	}
}

func NewInMemory(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		records: make(map[id.UserID]models.StatusRecord),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Get(_ context.Context, userID id.UserID) (*models.StatusRecord, error) {
	s.mu.RLock()
	record, ok := s.records[userID]
	s.mu.RUnlock()
	if ok {
		return &record, nil
	}
	if !s.provision {
		return nil, sentinel.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok = s.records[userID]; !ok {
		record = models.StatusRecord{UserID: userID, UpdatedAt: s.now()}
		s.records[userID] = record
	}
	return &record, nil
}

// Put creates or replaces a record, as the external provider would.
func (s *InMemoryStore) Put(_ context.Context, userID id.UserID, kycVerified bool) {
	s.mu.Lock()
	s.records[userID] = models.StatusRecord{UserID: userID, KYCVerified: kycVerified, UpdatedAt: s.now()}
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		hook(models.StatusChange{UserID: userID, KYCVerified: kycVerified})
	}
}

func (s *InMemoryStore) SetKYCVerified(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	record, ok := s.records[userID]
	if !ok && !s.provision {
		s.mu.Unlock()
		return sentinel.ErrNotFound
	}
	record.UserID = userID
	record.KYCVerified = true
	record.UpdatedAt = s.now()
	s.records[userID] = record
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		hook(models.StatusChange{UserID: userID, KYCVerified: true})
	}
	return nil
}
