// Package models holds the mint protocol types.
package models

import (
	"time"

	"verimint/internal/chain"
	id "verimint/pkg/domain"
)

// Settings fix the shape of every credential this service issues.
type Settings struct {
	UnitName        string
	AssetNamePrefix string
	MetadataURL     string
	MaxWaitRounds   uint64
	ConfirmTimeout  time.Duration
}

// Request describes the single asset minted for one user.
type Request struct {
	OwnerAddress  string
	UnitName      string
	AssetName     string
	MetadataURL   string
	Total         uint64
	Decimals      uint32
	DefaultFrozen bool
}

// NewRequest builds the non-fungible asset for userID owned by owner.
func NewRequest(owner string, userID id.UserID, settings Settings) Request {
	return Request{
		OwnerAddress: owner,
		UnitName:     settings.UnitName,
		AssetName:    AssetName(settings.AssetNamePrefix, userID),
		MetadataURL:  settings.MetadataURL,
		Total:        1,
		Decimals:     0,
	}
}

// AssetName is "<prefix> #<first 6 characters of the user id>".
func AssetName(prefix string, userID id.UserID) string {
	return prefix + " #" + userID.String()[:6]
}

// Spec converts the request to the chain asset description. The owner holds
// every management role.
func (r Request) Spec() chain.AssetSpec {
	return chain.AssetSpec{
		Creator:       r.OwnerAddress,
		UnitName:      r.UnitName,
		AssetName:     r.AssetName,
		URL:           r.MetadataURL,
		Total:         r.Total,
		Decimals:      r.Decimals,
		DefaultFrozen: r.DefaultFrozen,
	}
}

// Result is the confirmed outcome of a mint.
type Result struct {
	TransactionID  string
	AssetID        uint64
	ConfirmedRound uint64
}

type RecordStatus string

const (
	RecordPending   RecordStatus = "pending"
	RecordConfirmed RecordStatus = "confirmed"
)

// Record is the ledger entry for a user's mint. A pending record carries what
// is needed to resolve the transaction later; a confirmed one carries Result.
type Record struct {
	UserID         id.UserID
	Status         RecordStatus
	TransactionID  string
	LastValidRound uint64
	OwnerAddress   string
	AssetName      string
	Result         *Result
	UpdatedAt      time.Time
}

// CheckOutcome is the resolution of a pending mint.
type CheckOutcome string

const (
	CheckNone      CheckOutcome = "none"
	CheckPending   CheckOutcome = "pending"
	CheckConfirmed CheckOutcome = "confirmed"
	// CheckCleared means the transaction can no longer land; retrying is safe.
	CheckCleared CheckOutcome = "cleared"
)

type CheckResult struct {
	Outcome       CheckOutcome
	TransactionID string
	Result        *Result
}

// Membership is what the dashboard shows about a user.
type Membership struct {
	KYCVerified   bool
	HasCredential bool
}
