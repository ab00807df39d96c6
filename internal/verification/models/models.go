package models

import (
	"time"

	id "verimint/pkg/domain"
)

// State is the lifecycle state of a verification session.
type State string

const (
	StateVerifying State = "verifying"
	StateVerified  State = "verified"
	StateMinted    State = "minted"
	StateTimeout   State = "timeout"
	StateError     State = "error"
)

// IsTerminal reports whether no further transition can leave s.
func (s State) IsTerminal() bool {
	switch s {
	case StateMinted, StateTimeout, StateError:
		return true
	default:
		return false
	}
}

// Snapshot is an immutable view of a verification session.
type Snapshot struct {
	ID         id.SessionID
	UserID     id.UserID
	State      State
	StartedAt  time.Time
	DeadlineAt time.Time
	// Released is true once watchers and the deadline timer are gone.
	Released bool
	// Abandoned is true when the session was released without a terminal transition.
	Abandoned bool
	Reason    string
	Mint      *MintStamp
}

// MintStamp records the credential that moved a session to minted.
type MintStamp struct {
	TransactionID  string
	AssetID        uint64
	ConfirmedRound uint64
}

// StatusRecord is the externally owned verification record of one user.
type StatusRecord struct {
	UserID      id.UserID
	KYCVerified bool
	UpdatedAt   time.Time
}

// StatusChange is a decoded push notification about one user's record.
type StatusChange struct {
	UserID      id.UserID
	KYCVerified bool
}

// ChangeEvent is the wire shape of a profiles change notification.
// Only new.id and new.kyc_verified are read.
type ChangeEvent struct {
	Table string         `json:"table"`
	Op    string         `json:"op"`
	New   map[string]any `json:"new"`
}
