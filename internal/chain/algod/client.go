// Package algod adapts the Algorand algod REST API to the chain operations
// used by the mint protocol.
package algod

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"verimint/internal/chain"
)

const defaultRoundPoll = time.Second

var httpStatus = regexp.MustCompile(`^HTTP (\d{3}):`)

// Node is the subset of algod endpoints used here. *algod.Client satisfies it
// through nodeClient; tests substitute a fake.
type Node interface {
	SuggestedParams(ctx context.Context) (types.SuggestedParams, error)
	SendRawTransaction(ctx context.Context, raw []byte) (string, error)
	Status(ctx context.Context) (models.NodeStatus, error)
	StatusAfterBlock(ctx context.Context, round uint64) (models.NodeStatus, error)
	PendingTransactionInformation(ctx context.Context, txID string) (models.PendingTransactionInfoResponse, error)
	AccountInformation(ctx context.Context, address string) (models.Account, error)
}

// Client implements the mint chain port over algod.
type Client struct {
	node      Node
	logger    *slog.Logger
	roundPoll time.Duration
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRoundPoll sets the back-off between status checks when the node does
// not block on StatusAfterBlock.
func WithRoundPoll(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.roundPoll = d
		}
	}
}

// Dial builds an algod REST client for address.
func Dial(address, token string, opts ...Option) (*Client, error) {
	ac, err := algod.MakeClient(address, token)
	if err != nil {
		return nil, fmt.Errorf("algod client: %w", err)
	}
	return New(nodeClient{ac}, opts...), nil
}

func New(node Node, opts ...Option) *Client {
	c := &Client{
		node:      node,
		logger:    slog.Default(),
		roundPoll: defaultRoundPoll,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SuggestedParams(ctx context.Context) (chain.Params, error) {
	sp, err := c.node.SuggestedParams(ctx)
	if err != nil {
		return chain.Params{}, fmt.Errorf("suggested params: %w", err)
	}
	return chain.Params{
		FirstValid:  uint64(sp.FirstRoundValid),
		LastValid:   uint64(sp.LastRoundValid),
		Fee:         uint64(sp.Fee),
		MinFee:      sp.MinFee,
		FlatFee:     sp.FlatFee,
		GenesisID:   sp.GenesisID,
		GenesisHash: sp.GenesisHash,
	}, nil
}

// BuildAssetCreate encodes an asset-create transaction for spec against params.
func (c *Client) BuildAssetCreate(spec chain.AssetSpec, params chain.Params) (chain.UnsignedTxn, error) {
	sp := types.SuggestedParams{
		Fee:             types.MicroAlgos(params.Fee),
		MinFee:          params.MinFee,
		FlatFee:         params.FlatFee,
		GenesisID:       params.GenesisID,
		GenesisHash:     params.GenesisHash,
		FirstRoundValid: types.Round(params.FirstValid),
		LastRoundValid:  types.Round(params.LastValid),
	}
	tx, err := transaction.MakeAssetCreateTxn(
		spec.Creator, nil, sp,
		spec.Total, spec.Decimals, spec.DefaultFrozen,
		spec.Creator, spec.Creator, spec.Creator, spec.Creator,
		spec.UnitName, spec.AssetName, spec.URL, "",
	)
	if err != nil {
		return chain.UnsignedTxn{}, fmt.Errorf("build asset create: %w", err)
	}
	return chain.UnsignedTxn{
		TxID:      crypto.GetTxID(tx),
		Sender:    spec.Creator,
		LastValid: uint64(tx.LastValid),
		Bytes:     msgpack.Encode(&tx),
	}, nil
}

// Submit sends signed to the node. A 4xx answer means the node refused the
// transaction and is wrapped as chain.ErrRejected; any other failure leaves
// the outcome unknown.
func (c *Client) Submit(ctx context.Context, signed chain.SignedTxn) (string, error) {
	txID, err := c.node.SendRawTransaction(ctx, signed.Bytes)
	if err != nil {
		if refused(err) {
			return "", fmt.Errorf("send raw transaction: %w: %w", chain.ErrRejected, err)
		}
		return "", fmt.Errorf("send raw transaction: %w", err)
	}
	return txID, nil
}

// refused reports whether err is an algod 4xx response. The SDK's typed
// errors are plain aliases of error, so the status is read from the
// "HTTP <code>: ..." message it builds.
func refused(err error) bool {
	m := httpStatus.FindStringSubmatch(err.Error())
	if m == nil {
		return false
	}
	code, convErr := strconv.Atoi(m[1])
	return convErr == nil && code >= 400 && code < 500
}

func (c *Client) CurrentRound(ctx context.Context) (uint64, error) {
	status, err := c.node.Status(ctx)
	if err != nil {
		return 0, fmt.Errorf("node status: %w", err)
	}
	return status.LastRound, nil
}

// TransactionStatus reports whether txID has been confirmed or rejected.
func (c *Client) TransactionStatus(ctx context.Context, txID string) (chain.TxStatus, error) {
	info, err := c.node.PendingTransactionInformation(ctx, txID)
	if err != nil {
		return chain.TxStatus{}, fmt.Errorf("pending transaction %s: %w", txID, err)
	}
	return chain.TxStatus{
		Confirmed:      info.ConfirmedRound > 0,
		AssetID:        info.AssetIndex,
		ConfirmedRound: info.ConfirmedRound,
		PoolError:      info.PoolError,
	}, nil
}

// WaitForConfirmation blocks until txID is confirmed, rejected, maxRounds
// rounds have passed since the call, or ctx ends.
func (c *Client) WaitForConfirmation(ctx context.Context, txID string, maxRounds uint64) (chain.Confirmation, error) {
	start, err := c.CurrentRound(ctx)
	if err != nil {
		return chain.Confirmation{}, err
	}
	round := start
	for {
		status, err := c.TransactionStatus(ctx, txID)
		if err != nil {
			c.logger.WarnContext(ctx, "pending transaction lookup failed",
				"tx_id", txID,
				"round", round,
				"error", err,
			)
		} else {
			if status.Confirmed {
				return chain.Confirmation{
					TxID:           txID,
					AssetID:        status.AssetID,
					ConfirmedRound: status.ConfirmedRound,
				}, nil
			}
			if status.PoolError != "" {
				return chain.Confirmation{}, fmt.Errorf("%w: %s", chain.ErrRejected, status.PoolError)
			}
		}

		if round >= start+maxRounds {
			return chain.Confirmation{}, chain.ErrConfirmationTimeout
		}
		if ctx.Err() != nil {
			return chain.Confirmation{}, chain.ErrConfirmationTimeout
		}

		next, err := c.node.StatusAfterBlock(ctx, round)
		if err != nil {
			if ctx.Err() != nil {
				return chain.Confirmation{}, chain.ErrConfirmationTimeout
			}
			c.logger.WarnContext(ctx, "status after block failed", "round", round, "error", err)
			select {
			case <-ctx.Done():
				return chain.Confirmation{}, chain.ErrConfirmationTimeout
			case <-time.After(c.roundPoll):
			}
			continue
		}
		if next.LastRound > round {
			round = next.LastRound
		} else {
			round++
		}
	}
}

// FindCreatedAsset looks up an asset named assetName created by creator.
// Used to recover a confirmed mint after the node forgot the pending entry.
func (c *Client) FindCreatedAsset(ctx context.Context, creator, assetName string) (uint64, bool, error) {
	account, err := c.node.AccountInformation(ctx, creator)
	if err != nil {
		return 0, false, fmt.Errorf("account information: %w", err)
	}
	for _, asset := range account.CreatedAssets {
		if asset.Params.Name == assetName {
			return asset.Index, true, nil
		}
	}
	return 0, false, nil
}

// nodeClient adapts *algod.Client's request builders to Node.
type nodeClient struct {
	c *algod.Client
}

func (n nodeClient) SuggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	return n.c.SuggestedParams().Do(ctx)
}

func (n nodeClient) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	return n.c.SendRawTransaction(raw).Do(ctx)
}

func (n nodeClient) Status(ctx context.Context) (models.NodeStatus, error) {
	return n.c.Status().Do(ctx)
}

func (n nodeClient) StatusAfterBlock(ctx context.Context, round uint64) (models.NodeStatus, error) {
	return n.c.StatusAfterBlock(round).Do(ctx)
}

func (n nodeClient) PendingTransactionInformation(ctx context.Context, txID string) (models.PendingTransactionInfoResponse, error) {
	info, _, err := n.c.PendingTransactionInformation(txID).Do(ctx)
	return info, err
}

func (n nodeClient) AccountInformation(ctx context.Context, address string) (models.Account, error) {
	return n.c.AccountInformation(address).Do(ctx)
}
