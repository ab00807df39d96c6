// Package chain describes the ledger operations the mint protocol needs,
// independent of any particular SDK. Transactions cross the wallet boundary
// as encoded bytes, the way a wallet connector receives them.
package chain

import "errors"

var (
	// ErrConfirmationTimeout means the transaction was not confirmed within the wait bound.
	ErrConfirmationTimeout = errors.New("transaction not confirmed in time")
	// ErrRejected means the node refused the transaction or dropped it from its pool.
	ErrRejected = errors.New("transaction rejected by node")
	// ErrTxNotFound means the node no longer knows the transaction.
	ErrTxNotFound = errors.New("transaction not found")
)

// Params are the network parameters a transaction is built against.
type Params struct {
	FirstValid  uint64
	LastValid   uint64
	Fee         uint64
	MinFee      uint64
	FlatFee     bool
	GenesisID   string
	GenesisHash []byte
}

// AssetSpec describes a new asset. Creator is also used as manager, reserve,
// freeze and clawback address.
type AssetSpec struct {
	Creator       string
	UnitName      string
	AssetName     string
	URL           string
	Total         uint64
	Decimals      uint32
	DefaultFrozen bool
}

// UnsignedTxn is an encoded transaction awaiting a signature.
type UnsignedTxn struct {
	TxID      string
	Sender    string
	LastValid uint64
	Bytes     []byte
}

// SignedTxn is an encoded, signed transaction ready for submission.
type SignedTxn struct {
	TxID  string
	Bytes []byte
}

// Confirmation is the outcome of a confirmed asset-create transaction.
type Confirmation struct {
	TxID           string
	AssetID        uint64
	ConfirmedRound uint64
}

// TxStatus is a point-in-time view of a submitted transaction.
type TxStatus struct {
	Confirmed      bool
	AssetID        uint64
	ConfirmedRound uint64
	PoolError      string
}
