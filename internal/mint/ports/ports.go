// Package ports defines the collaborators of the mint orchestrator.
package ports

import (
	"context"

	"verimint/internal/chain"
	"verimint/internal/mint/models"
	id "verimint/pkg/domain"
	"verimint/pkg/platform/audit"
)

// Chain is the ledger node. Implemented by internal/chain/algod.
type Chain interface {
	SuggestedParams(ctx context.Context) (chain.Params, error)
	BuildAssetCreate(spec chain.AssetSpec, params chain.Params) (chain.UnsignedTxn, error)
	// Submit wraps chain.ErrRejected only when the node definitely refused
	// the transaction. Other errors mean it may still land.
	Submit(ctx context.Context, signed chain.SignedTxn) (string, error)
	WaitForConfirmation(ctx context.Context, txID string, maxRounds uint64) (chain.Confirmation, error)
	TransactionStatus(ctx context.Context, txID string) (chain.TxStatus, error)
	CurrentRound(ctx context.Context) (uint64, error)
	FindCreatedAsset(ctx context.Context, creator, assetName string) (uint64, bool, error)
}

// Signer obtains the user's signature. Implemented by the wallet session.
type Signer interface {
	Sign(ctx context.Context, txn chain.UnsignedTxn) (chain.SignedTxn, error)
}

// Ledger remembers mints across requests and restarts.
type Ledger interface {
	// Get returns sentinel.ErrNotFound when the user never minted.
	Get(ctx context.Context, userID id.UserID) (*models.Record, error)
	// RecordPending returns sentinel.ErrConflict if a confirmed record or a
	// different pending transaction exists.
	RecordPending(ctx context.Context, record models.Record) error
	// RecordConfirmed reports whether this call moved the record to confirmed.
	RecordConfirmed(ctx context.Context, userID id.UserID, result models.Result) (bool, error)
	// ClearPending removes a pending record for txID; other records are untouched.
	ClearPending(ctx context.Context, userID id.UserID, txID string) (bool, error)
}

// Credentials owns the "has credential" flag. Grant with a nil result is the
// skip-minting override.
type Credentials interface {
	Grant(ctx context.Context, userID id.UserID, result *models.Result) error
	Has(ctx context.Context, userID id.UserID) (bool, error)
}

// VerificationGate reports whether the user passed identity verification.
type VerificationGate interface {
	IsVerified(ctx context.Context, userID id.UserID) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
