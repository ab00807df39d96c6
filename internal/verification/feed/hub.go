package feed

import (
	"context"
	"sync"

	"verimint/internal/verification/models"
	"verimint/internal/verification/ports"
	id "verimint/pkg/domain"
)

const defaultBuffer = 8

// Hub fans status changes out to per-user subscriptions. It is the in-memory
// ChangeFeed and the delivery stage of the postgres and kafka feeds.
//
// Delivery is best effort: a full subscriber buffer drops the change, which
// the poll watcher covers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[id.UserID]map[*subscription]struct{}
	buffer int
}

type HubOption func(*Hub)

func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subs:   make(map[id.UserID]map[*subscription]struct{}),
		buffer: defaultBuffer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Subscribe(_ context.Context, userID id.UserID) (ports.Subscription, error) {
	sub := &subscription{
		hub:     h,
		userID:  userID,
		changes: make(chan models.StatusChange, h.buffer),
		errs:    make(chan error, 1),
	}
	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()
	return sub, nil
}

// Publish delivers change to the subscribers of change.UserID.
func (h *Hub) Publish(change models.StatusChange) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[change.UserID] {
		select {
		case sub.changes <- change:
		default:
		}
	}
}

// PublishError reports a transient delivery problem to every subscriber.
func (h *Hub) PublishError(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, byUser := range h.subs {
		for sub := range byUser {
			select {
			case sub.errs <- err:
			default:
			}
		}
	}
}

// Subscribers returns the number of open subscriptions for userID.
func (h *Hub) Subscribers(userID id.UserID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

func (h *Hub) remove(sub *subscription) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	byUser, ok := h.subs[sub.userID]
	if !ok {
		return false
	}
	if _, ok := byUser[sub]; !ok {
		return false
	}
	delete(byUser, sub)
	if len(byUser) == 0 {
		delete(h.subs, sub.userID)
	}
	close(sub.changes)
	close(sub.errs)
	return true
}

type subscription struct {
	hub     *Hub
	userID  id.UserID
	changes chan models.StatusChange
	errs    chan error
}

func (s *subscription) Changes() <-chan models.StatusChange { return s.changes }
func (s *subscription) Errors() <-chan error                { return s.errs }

// Close is idempotent.
func (s *subscription) Close() error {
	s.hub.remove(s)
	return nil
}
