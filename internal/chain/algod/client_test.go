package algod

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"verimint/internal/chain"
)

// fakeNode simulates an algod node whose round advances on every
// StatusAfterBlock call and confirms a transaction at confirmAt.
type fakeNode struct {
	mu        sync.Mutex
	round     uint64
	confirmAt uint64
	assetID   uint64
	poolError string
	statusErr error
	sendErr   error
	sent      [][]byte
	created   []models.Asset
}

func (f *fakeNode) SuggestedParams(context.Context) (types.SuggestedParams, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return types.SuggestedParams{
		Fee:             types.MicroAlgos(1000),
		MinFee:          1000,
		FlatFee:         true,
		GenesisID:       "testnet-v1.0",
		GenesisHash:     make([]byte, 32),
		FirstRoundValid: types.Round(f.round),
		LastRoundValid:  types.Round(f.round + 1000),
	}, nil
}

func (f *fakeNode) SendRawTransaction(_ context.Context, raw []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, raw)
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return "TXID", nil
}

func (f *fakeNode) Status(context.Context) (models.NodeStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return models.NodeStatus{}, f.statusErr
	}
	return models.NodeStatus{LastRound: f.round}, nil
}

func (f *fakeNode) StatusAfterBlock(_ context.Context, round uint64) (models.NodeStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.round = round + 1
	return models.NodeStatus{LastRound: f.round}, nil
}

func (f *fakeNode) PendingTransactionInformation(context.Context, string) (models.PendingTransactionInfoResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.poolError != "" {
		return models.PendingTransactionInfoResponse{PoolError: f.poolError}, nil
	}
	if f.confirmAt > 0 && f.round >= f.confirmAt {
		return models.PendingTransactionInfoResponse{ConfirmedRound: f.confirmAt, AssetIndex: f.assetID}, nil
	}
	return models.PendingTransactionInfoResponse{}, nil
}

func (f *fakeNode) AccountInformation(context.Context, string) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.Account{CreatedAssets: f.created}, nil
}

type ClientSuite struct {
	suite.Suite
	node   *fakeNode
	client *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.node = &fakeNode{round: 100}
	s.client = New(s.node, WithRoundPoll(time.Millisecond))
}

// =============================================================================
// Transaction building
// =============================================================================

func (s *ClientSuite) TestBuildAssetCreate() {
	creator := crypto.GenerateAccount().Address.String()
	params, err := s.client.SuggestedParams(context.Background())
	s.Require().NoError(err)
	s.Equal(uint64(100), params.FirstValid)

	txn, err := s.client.BuildAssetCreate(chain.AssetSpec{
		Creator:   creator,
		UnitName:  "VNFT",
		AssetName: "EarlCoin Verification #abcdef",
		URL:       "https://earlcoin.com/nft/verified",
		Total:     1,
		Decimals:  0,
	}, params)
	s.Require().NoError(err)
	s.NotEmpty(txn.TxID)
	s.Equal(uint64(1100), txn.LastValid)
	s.Equal(creator, txn.Sender)

	var decoded types.Transaction
	s.Require().NoError(msgpack.Decode(txn.Bytes, &decoded))
	s.Equal(types.AssetConfigTx, decoded.Type)
	s.Equal(uint64(1), decoded.AssetParams.Total)
	s.Equal(uint32(0), decoded.AssetParams.Decimals)
	s.False(decoded.AssetParams.DefaultFrozen)
	s.Equal("VNFT", decoded.AssetParams.UnitName)
	s.Equal("EarlCoin Verification #abcdef", decoded.AssetParams.AssetName)
	s.Equal(creator, decoded.AssetParams.Manager.String())
	s.Equal(creator, decoded.AssetParams.Reserve.String())
	s.Equal(creator, decoded.AssetParams.Freeze.String())
	s.Equal(creator, decoded.AssetParams.Clawback.String())
	s.Equal(txn.TxID, crypto.GetTxID(decoded))
}

func (s *ClientSuite) TestBuildAssetCreateRejectsBadAddress() {
	_, err := s.client.BuildAssetCreate(chain.AssetSpec{Creator: "not-an-address", UnitName: "VNFT", Total: 1}, chain.Params{})
	s.Error(err)
}

// =============================================================================
// Confirmation wait
// =============================================================================

func (s *ClientSuite) TestWaitForConfirmationConfirms() {
	s.node.confirmAt = 102
	s.node.assetID = 777

	conf, err := s.client.WaitForConfirmation(context.Background(), "TXID", 4)
	s.Require().NoError(err)
	s.Equal(uint64(777), conf.AssetID)
	s.Equal(uint64(102), conf.ConfirmedRound)
}

func (s *ClientSuite) TestWaitForConfirmationTimesOutAfterMaxRounds() {
	s.node.confirmAt = 200

	_, err := s.client.WaitForConfirmation(context.Background(), "TXID", 4)
	s.ErrorIs(err, chain.ErrConfirmationTimeout)
	s.Equal(uint64(104), s.node.round)
}

func (s *ClientSuite) TestWaitForConfirmationRejected() {
	s.node.poolError = "overspend"

	_, err := s.client.WaitForConfirmation(context.Background(), "TXID", 4)
	s.ErrorIs(err, chain.ErrRejected)
}

func (s *ClientSuite) TestWaitForConfirmationContextCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.client.WaitForConfirmation(ctx, "TXID", 4)
	s.ErrorIs(err, chain.ErrConfirmationTimeout)
}

func (s *ClientSuite) TestWaitForConfirmationStatusError() {
	s.node.statusErr = errors.New("node down")

	_, err := s.client.WaitForConfirmation(context.Background(), "TXID", 4)
	s.Error(err)
	s.NotErrorIs(err, chain.ErrConfirmationTimeout)
}

// =============================================================================
// Lookups
// =============================================================================

func (s *ClientSuite) TestTransactionStatus() {
	status, err := s.client.TransactionStatus(context.Background(), "TXID")
	s.Require().NoError(err)
	s.False(status.Confirmed)

	s.node.confirmAt = 90
	s.node.assetID = 5
	status, err = s.client.TransactionStatus(context.Background(), "TXID")
	s.Require().NoError(err)
	s.True(status.Confirmed)
	s.Equal(uint64(5), status.AssetID)
}

func (s *ClientSuite) TestFindCreatedAsset() {
	s.node.created = []models.Asset{
		{Index: 1, Params: models.AssetParams{Name: "something else"}},
		{Index: 42, Params: models.AssetParams{Name: "EarlCoin Verification #abcdef"}},
	}

	assetID, found, err := s.client.FindCreatedAsset(context.Background(), "ADDR", "EarlCoin Verification #abcdef")
	s.Require().NoError(err)
	s.True(found)
	s.Equal(uint64(42), assetID)

	_, found, err = s.client.FindCreatedAsset(context.Background(), "ADDR", "missing")
	s.Require().NoError(err)
	s.False(found)
}

func TestSubmitPassesBytes(t *testing.T) {
	node := &fakeNode{}
	c := New(node)

	txID, err := c.Submit(context.Background(), chain.SignedTxn{TxID: "TXID", Bytes: []byte{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, "TXID", txID)
	require.Len(t, node.sent, 1)
	assert.Equal(t, []byte{1, 2, 3}, node.sent[0])
}

func TestSubmitClassifiesFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		rejected bool
	}{
		{name: "bad request", err: errors.New(`HTTP 400: {"message":"overspend"}`), rejected: true},
		{name: "invalid token", err: errors.New("HTTP 401: invalid api token"), rejected: true},
		{name: "server error", err: errors.New("HTTP 500: internal error"), rejected: false},
		{name: "gateway timeout", err: errors.New("HTTP 504: upstream timed out"), rejected: false},
		{name: "connection reset", err: errors.New("read tcp 10.0.0.1:4001: connection reset by peer"), rejected: false},
		{name: "deadline", err: context.DeadlineExceeded, rejected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&fakeNode{sendErr: tt.err})

			_, err := c.Submit(context.Background(), chain.SignedTxn{Bytes: []byte{1}})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.rejected, errors.Is(err, chain.ErrRejected))
		})
	}
}
