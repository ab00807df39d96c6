// Package ports defines the interfaces the verification module consumes.
package ports

import (
	"context"

	"verimint/internal/verification/models"
	id "verimint/pkg/domain"
	"verimint/pkg/platform/audit"
)

// StatusStore is the external record of each user's verification state.
type StatusStore interface {
	// Get returns sentinel.ErrNotFound when the user has no record.
	Get(ctx context.Context, userID id.UserID) (*models.StatusRecord, error)
	// SetKYCVerified marks the user verified. Only the dev bypass calls it.
	SetKYCVerified(ctx context.Context, userID id.UserID) error
}

// ChangeFeed delivers push notifications about status records.
type ChangeFeed interface {
	Subscribe(ctx context.Context, userID id.UserID) (Subscription, error)
}

// Subscription is one user's filtered view of a ChangeFeed.
type Subscription interface {
	Changes() <-chan models.StatusChange
	// Errors reports transient delivery problems; the subscription stays open.
	Errors() <-chan error
	Close() error
}

// AuditPublisher emits audit events for security-relevant operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// TxRunner runs fn inside a transaction when the backing store supports one.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
