// Package ledger persists mint records so a pending transaction survives the
// request that submitted it.
package ledger

import (
	"context"
	"sync"
	"time"

	"verimint/internal/mint/models"
	id "verimint/pkg/domain"
	"verimint/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.Mutex
	records map[id.UserID]models.Record
	now     func() time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[id.UserID]models.Record),
		now:     time.Now,
	}
}

func (s *InMemoryStore) Get(_ context.Context, userID id.UserID) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if record.Result != nil {
		result := *record.Result
		record.Result = &result
	}
	return &record, nil
}

func (s *InMemoryStore) RecordPending(_ context.Context, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[record.UserID]; ok {
		if existing.Status == models.RecordConfirmed || existing.TransactionID != record.TransactionID {
			return sentinel.ErrConflict
		}
	}
	record.Status = models.RecordPending
	record.Result = nil
	record.UpdatedAt = s.now()
	s.records[record.UserID] = record
	return nil
}

func (s *InMemoryStore) RecordConfirmed(_ context.Context, userID id.UserID, result models.Result) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[userID]
	if ok && existing.Status == models.RecordConfirmed {
		return false, nil
	}
	existing.UserID = userID
	existing.Status = models.RecordConfirmed
	existing.TransactionID = result.TransactionID
	existing.Result = &result
	existing.UpdatedAt = s.now()
	s.records[userID] = existing
	return true, nil
}

func (s *InMemoryStore) ClearPending(_ context.Context, userID id.UserID, txID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[userID]
	if !ok || existing.Status != models.RecordPending || existing.TransactionID != txID {
		return false, nil
	}
	delete(s.records, userID)
	return true, nil
}
