// Package ports defines what the wallet session needs from the outside.
package ports

import (
	"context"
	"errors"

	"verimint/internal/chain"
	"verimint/internal/wallet/models"
	"verimint/pkg/platform/audit"
)

var (
	// ErrUserCancelled is returned by a connector when the user dismissed the
	// connection prompt.
	ErrUserCancelled = errors.New("user cancelled")
	// ErrDeclined is returned by a connector when the user refused to sign.
	ErrDeclined = errors.New("signature declined")
)

// Connector talks to the external wallet application.
type Connector interface {
	// Connect prompts the user and returns the approved address.
	Connect(ctx context.Context) (string, error)
	// Reconnect restores a previously approved address without prompting.
	Reconnect(ctx context.Context, address string) error
	Disconnect(ctx context.Context, address string) error
	SignTransaction(ctx context.Context, address string, txn chain.UnsignedTxn) (chain.SignedTxn, error)
}

// AuthorizationCache persists the last approved address.
type AuthorizationCache interface {
	// Load returns sentinel.ErrNotFound when nothing was cached.
	Load(ctx context.Context) (*models.Authorization, error)
	Save(ctx context.Context, auth models.Authorization) error
	Clear(ctx context.Context) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
