// Package devkey is a wallet connector backed by a locally held key. It stands
// in for a mobile wallet during development and tests; an Approver plays the
// part of the user answering prompts.
package devkey

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"verimint/internal/chain"
	"verimint/internal/wallet/ports"
)

// Prompt is what the user would be asked to approve.
type Prompt struct {
	Kind    string // "connect" or "sign"
	Address string
	TxID    string
}

// Approver answers prompts. Returning false is a user refusal.
type Approver func(ctx context.Context, prompt Prompt) bool

// Always returns an Approver that gives the same answer to every prompt.
func Always(answer bool) Approver {
	return func(context.Context, Prompt) bool { return answer }
}

type Connector struct {
	account  crypto.Account
	approver Approver

	mu        sync.Mutex
	connected bool
}

type Option func(*Connector)

func WithApprover(approver Approver) Option {
	return func(c *Connector) {
		if approver != nil {
			c.approver = approver
		}
	}
}

// New loads the key from a 25-word mnemonic. An empty mnemonic generates a
// throwaway account.
func New(phrase string, opts ...Option) (*Connector, error) {
	var account crypto.Account
	if phrase == "" {
		account = crypto.GenerateAccount()
	} else {
		sk, err := mnemonic.ToPrivateKey(phrase)
		if err != nil {
			return nil, fmt.Errorf("wallet mnemonic: %w", err)
		}
		account, err = crypto.AccountFromPrivateKey(ed25519.PrivateKey(sk))
		if err != nil {
			return nil, fmt.Errorf("wallet key: %w", err)
		}
	}
	c := &Connector{account: account, approver: Always(true)}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Address is the account the connector signs for.
func (c *Connector) Address() string {
	return c.account.Address.String()
}

func (c *Connector) Connect(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !c.approver(ctx, Prompt{Kind: "connect", Address: c.Address()}) {
		return "", ports.ErrUserCancelled
	}
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	return c.Address(), nil
}

func (c *Connector) Reconnect(ctx context.Context, address string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if address != c.Address() {
		return fmt.Errorf("address %s is not held by this wallet", address)
	}
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	return nil
}

func (c *Connector) Disconnect(_ context.Context, _ string) error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return nil
}

// SignTransaction decodes txn, checks the sender and asks the approver.
func (c *Connector) SignTransaction(ctx context.Context, address string, txn chain.UnsignedTxn) (chain.SignedTxn, error) {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected || address != c.Address() {
		return chain.SignedTxn{}, fmt.Errorf("wallet not connected for %s", address)
	}

	var tx types.Transaction
	if err := msgpack.Decode(txn.Bytes, &tx); err != nil {
		return chain.SignedTxn{}, fmt.Errorf("decode transaction: %w", err)
	}
	if tx.Sender != c.account.Address {
		return chain.SignedTxn{}, fmt.Errorf("transaction sender %s is not %s", tx.Sender.String(), address)
	}
	if err := ctx.Err(); err != nil {
		return chain.SignedTxn{}, ports.ErrDeclined
	}
	if !c.approver(ctx, Prompt{Kind: "sign", Address: address, TxID: txn.TxID}) {
		return chain.SignedTxn{}, ports.ErrDeclined
	}

	txID, signed, err := crypto.SignTransaction(c.account.PrivateKey, tx)
	if err != nil {
		return chain.SignedTxn{}, fmt.Errorf("sign transaction: %w", err)
	}
	return chain.SignedTxn{TxID: txID, Bytes: signed}, nil
}
