package service

//go:generate mockgen -source=../ports/ports.go -destination=../ports/mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/mock/gomock"

	"verimint/internal/chain"
	"verimint/internal/mint/models"
	"verimint/internal/mint/ports/mocks"
	"verimint/internal/mint/store/ledger"
	walletmodels "verimint/internal/wallet/models"
	id "verimint/pkg/domain"
	dErrors "verimint/pkg/domain-errors"
)

const owner = "OWNERADDRESS"

var connected = walletmodels.Connection{Address: owner, Connected: true}

type MintSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	chain       *mocks.MockChain
	signer      *mocks.MockSigner
	credentials *mocks.MockCredentials
	auditor     *mocks.MockAuditPublisher
	ledger      *ledger.InMemoryStore
	service     *Service
	userID      id.UserID
}

func TestMintSuite(t *testing.T) {
	suite.Run(t, new(MintSuite))
}

func (s *MintSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.chain = mocks.NewMockChain(s.ctrl)
	s.signer = mocks.NewMockSigner(s.ctrl)
	s.credentials = mocks.NewMockCredentials(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	s.ledger = ledger.NewInMemory()
	s.userID = id.UserID(uuid.New())
	s.service = s.newService(s.ledger)
}

func (s *MintSuite) newService(l *ledger.InMemoryStore, opts ...Option) *Service {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.auditor),
		WithTracer(noop.NewTracerProvider().Tracer("test")),
		WithSettings(models.Settings{ConfirmTimeout: time.Second}),
	}
	svc, err := New(s.chain, s.signer, l, s.credentials, append(base, opts...)...)
	s.Require().NoError(err)
	return svc
}

func unsignedTxn() chain.UnsignedTxn {
	return chain.UnsignedTxn{TxID: "TX1", Sender: owner, LastValid: 1100, Bytes: []byte("txn")}
}

func signedTxn() chain.SignedTxn {
	return chain.SignedTxn{TxID: "TX1", Bytes: []byte("signed")}
}

// expectBuild expects one fresh parameter fetch and build.
func (s *MintSuite) expectBuild() {
	s.chain.EXPECT().SuggestedParams(gomock.Any()).Return(chain.Params{FirstValid: 100, LastValid: 1100, Fee: 1000}, nil)
	s.chain.EXPECT().BuildAssetCreate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(spec chain.AssetSpec, _ chain.Params) (chain.UnsignedTxn, error) {
			s.Equal(owner, spec.Creator)
			s.Equal("VNFT", spec.UnitName)
			s.Equal(models.AssetName("EarlCoin Verification", s.userID), spec.AssetName)
			s.Equal("https://earlcoin.com/nft/verified", spec.URL)
			s.Equal(uint64(1), spec.Total)
			s.Equal(uint32(0), spec.Decimals)
			return unsignedTxn(), nil
		})
}

func (s *MintSuite) expectSubmitAndConfirm(assetID uint64) {
	s.chain.EXPECT().Submit(gomock.Any(), signedTxn()).Return("TX1", nil)
	s.chain.EXPECT().WaitForConfirmation(gomock.Any(), "TX1", uint64(4)).
		Return(chain.Confirmation{TxID: "TX1", AssetID: assetID, ConfirmedRound: 1003}, nil)
}

func (s *MintSuite) TestWalletNotConnected() {
	for _, conn := range []walletmodels.Connection{
		{},
		{Address: owner},
		{Connected: true},
	} {
		_, err := s.service.Mint(context.Background(), s.userID, conn)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeWalletNotConnected))
	}
}

func (s *MintSuite) TestUnauthenticated() {
	_, err := s.service.Mint(context.Background(), id.UserID(uuid.Nil), connected)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *MintSuite) TestMintNotifiesExactlyOnce() {
	ctx := context.Background()
	s.expectBuild()
	s.signer.EXPECT().Sign(gomock.Any(), unsignedTxn()).Return(signedTxn(), nil)
	s.expectSubmitAndConfirm(42)
	s.credentials.EXPECT().Grant(gomock.Any(), s.userID, &models.Result{TransactionID: "TX1", AssetID: 42, ConfirmedRound: 1003}).Return(nil).Times(1)

	result, err := s.service.Mint(ctx, s.userID, connected)
	s.Require().NoError(err)
	s.Equal(uint64(42), result.AssetID)
	s.Equal("TX1", result.TransactionID)

	s.Run("a second mint returns the recorded result without submitting", func() {
		s.credentials.EXPECT().Has(gomock.Any(), s.userID).Return(true, nil)

		again, err := s.service.Mint(ctx, s.userID, connected)
		s.Require().NoError(err)
		s.Equal(result, again)
	})
}

func (s *MintSuite) TestSigningDeclinedThenRetrySucceeds() {
	ctx := context.Background()

	gomock.InOrder(
		s.chain.EXPECT().SuggestedParams(gomock.Any()).Return(chain.Params{LastValid: 1000}, nil),
		s.chain.EXPECT().SuggestedParams(gomock.Any()).Return(chain.Params{LastValid: 1100}, nil),
	)
	s.chain.EXPECT().BuildAssetCreate(gomock.Any(), gomock.Any()).Return(unsignedTxn(), nil).Times(2)
	gomock.InOrder(
		s.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).
			Return(chain.SignedTxn{}, dErrors.New(dErrors.CodeSigningFailed, "signature request was declined")),
		s.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(signedTxn(), nil),
	)
	s.expectSubmitAndConfirm(77)
	s.credentials.EXPECT().Grant(gomock.Any(), s.userID, gomock.Any()).Return(nil).Times(1)

	_, err := s.service.Mint(ctx, s.userID, connected)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeSigningFailed))
	_, lookupErr := s.ledger.Get(ctx, s.userID)
	s.Error(lookupErr, "declined signature leaves no ledger entry")

	result, err := s.service.Mint(ctx, s.userID, connected)
	s.Require().NoError(err)
	s.Equal(uint64(77), result.AssetID)
}

func (s *MintSuite) TestUnknownSignerErrorIsSigningFailed() {
	s.expectBuild()
	s.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(chain.SignedTxn{}, errors.New("bridge closed"))

	_, err := s.service.Mint(context.Background(), s.userID, connected)
	s.True(dErrors.HasCode(err, dErrors.CodeSigningFailed))
}

func (s *MintSuite) TestWalletDisconnectedDuringSigning() {
	s.expectBuild()
	s.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).
		Return(chain.SignedTxn{}, dErrors.New(dErrors.CodeWalletNotConnected, "connect a wallet first"))

	_, err := s.service.Mint(context.Background(), s.userID, connected)
	s.True(dErrors.HasCode(err, dErrors.CodeWalletNotConnected))
}

func (s *MintSuite) TestParamsUnavailable() {
	s.chain.EXPECT().SuggestedParams(gomock.Any()).Return(chain.Params{}, errors.New("node down"))

	_, err := s.service.Mint(context.Background(), s.userID, connected)
	s.True(dErrors.HasCode(err, dErrors.CodeSubmissionFailed))
}

func (s *MintSuite) TestSubmissionRejected() {
	ctx := context.Background()
	s.expectBuild()
	s.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(signedTxn(), nil)
	s.chain.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("send raw transaction: %w: HTTP 400: overspend", chain.ErrRejected))

	_, err := s.service.Mint(ctx, s.userID, connected)
	s.True(dErrors.HasCode(err, dErrors.CodeSubmissionFailed))

	_, lookupErr := s.ledger.Get(ctx, s.userID)
	s.Error(lookupErr, "a rejected submission is safe to retry")
}

func (s *MintSuite) TestLostSubmitResponseKeepsPending() {
	ctx := context.Background()
	s.expectBuild()
	s.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(signedTxn(), nil)
	s.chain.EXPECT().Submit(gomock.Any(), gomock.Any()).Return("", io.ErrUnexpectedEOF).Times(1)

	_, err := s.service.Mint(ctx, s.userID, connected)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConfirmationTimeout))

	record, lookupErr := s.ledger.Get(ctx, s.userID)
	s.Require().NoError(lookupErr)
	s.Equal(models.RecordPending, record.Status)
	s.Equal("TX1", record.TransactionID)

	s.Run("retrying does not build or submit a second transaction", func() {
		_, err := s.service.Mint(ctx, s.userID, connected)
		s.True(dErrors.HasCode(err, dErrors.CodeConfirmationTimeout))
	})

	s.Run("the transaction landing resolves through CheckPending", func() {
		s.chain.EXPECT().TransactionStatus(gomock.Any(), "TX1").
			Return(chain.TxStatus{Confirmed: true, AssetID: 55, ConfirmedRound: 1010}, nil)
		s.credentials.EXPECT().Grant(gomock.Any(), s.userID, gomock.Any()).Return(nil).Times(1)

		check, err := s.service.CheckPending(ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(models.CheckConfirmed, check.Outcome)
		s.Equal(uint64(55), check.Result.AssetID)
	})
}

func (s *MintSuite) TestDroppedFromPoolIsSubmissionFailed() {
	ctx := context.Background()
	s.expectBuild()
	s.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(signedTxn(), nil)
	s.chain.EXPECT().Submit(gomock.Any(), gomock.Any()).Return("TX1", nil)
	s.chain.EXPECT().WaitForConfirmation(gomock.Any(), "TX1", gomock.Any()).
		Return(chain.Confirmation{}, chain.ErrRejected)

	_, err := s.service.Mint(ctx, s.userID, connected)
	s.True(dErrors.HasCode(err, dErrors.CodeSubmissionFailed))
	_, lookupErr := s.ledger.Get(ctx, s.userID)
	s.Error(lookupErr)
}

func (s *MintSuite) TestConfirmationTimeoutIsNotRetried() {
	ctx := context.Background()
	s.expectBuild()
	s.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(signedTxn(), nil)
	s.chain.EXPECT().Submit(gomock.Any(), gomock.Any()).Return("TX1", nil)
	s.chain.EXPECT().WaitForConfirmation(gomock.Any(), "TX1", gomock.Any()).
		Return(chain.Confirmation{}, chain.ErrConfirmationTimeout)

	_, err := s.service.Mint(ctx, s.userID, connected)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConfirmationTimeout))

	record, lookupErr := s.ledger.Get(ctx, s.userID)
	s.Require().NoError(lookupErr)
	s.Equal(models.RecordPending, record.Status)
	s.Equal(uint64(1100), record.LastValidRound)

	s.Run("retrying reports the pending transaction instead of minting again", func() {
		_, err := s.service.Mint(ctx, s.userID, connected)
		s.True(dErrors.HasCode(err, dErrors.CodeConfirmationTimeout))
	})
}

func (s *MintSuite) TestCallerCancellationAfterSubmitDoesNotAbortWait() {
	ctx, cancel := context.WithCancel(context.Background())
	s.expectBuild()
	s.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(signedTxn(), nil)
	s.chain.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, chain.SignedTxn) (string, error) {
		cancel()
		return "TX1", nil
	})
	s.chain.EXPECT().WaitForConfirmation(gomock.Any(), "TX1", gomock.Any()).DoAndReturn(
		func(waitCtx context.Context, _ string, _ uint64) (chain.Confirmation, error) {
			s.NoError(waitCtx.Err())
			return chain.Confirmation{TxID: "TX1", AssetID: 5, ConfirmedRound: 1001}, nil
		})
	s.credentials.EXPECT().Grant(gomock.Any(), s.userID, gomock.Any()).Return(nil)

	result, err := s.service.Mint(ctx, s.userID, connected)
	s.Require().NoError(err)
	s.Equal(uint64(5), result.AssetID)
}

func (s *MintSuite) TestConcurrentMintsShareOneAttempt() {
	release := make(chan struct{})
	s.expectBuild()
	s.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, chain.UnsignedTxn) (chain.SignedTxn, error) {
		<-release
		return signedTxn(), nil
	}).Times(1)
	s.expectSubmitAndConfirm(9)
	s.credentials.EXPECT().Grant(gomock.Any(), s.userID, gomock.Any()).Return(nil).Times(1)

	var wg sync.WaitGroup
	results := make([]*models.Result, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := s.service.Mint(context.Background(), s.userID, connected)
			s.NoError(err)
			results[i] = r
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		s.Require().NotNil(r)
		s.Equal(uint64(9), r.AssetID)
	}
}

func (s *MintSuite) TestVerificationGate() {
	gate := mocks.NewMockVerificationGate(s.ctrl)
	svc := s.newService(s.ledger, WithVerificationGate(gate))

	gate.EXPECT().IsVerified(gomock.Any(), s.userID).Return(false, nil)
	_, err := svc.Mint(context.Background(), s.userID, connected)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	gate.EXPECT().IsVerified(gomock.Any(), s.userID).Return(false, errors.New("db down"))
	_, err = svc.Mint(context.Background(), s.userID, connected)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *MintSuite) TestLedgerFailure() {
	mockLedger := mocks.NewMockLedger(s.ctrl)
	svc, err := New(s.chain, s.signer, mockLedger, s.credentials,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)

	mockLedger.EXPECT().Get(gomock.Any(), s.userID).Return(nil, errors.New("redis down"))
	_, err = svc.Mint(context.Background(), s.userID, connected)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *MintSuite) seedPending() {
	s.Require().NoError(s.ledger.RecordPending(context.Background(), models.Record{
		UserID:         s.userID,
		TransactionID:  "TX1",
		LastValidRound: 1100,
		OwnerAddress:   owner,
		AssetName:      models.AssetName("EarlCoin Verification", s.userID),
	}))
}

func (s *MintSuite) TestCheckPendingNothingToCheck() {
	check, err := s.service.CheckPending(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Equal(models.CheckNone, check.Outcome)
}

func (s *MintSuite) TestCheckPendingConfirmsLateTransaction() {
	ctx := context.Background()
	s.seedPending()
	s.chain.EXPECT().TransactionStatus(gomock.Any(), "TX1").
		Return(chain.TxStatus{Confirmed: true, AssetID: 42, ConfirmedRound: 1010}, nil)
	s.credentials.EXPECT().Grant(gomock.Any(), s.userID, gomock.Any()).Return(nil).Times(1)

	check, err := s.service.CheckPending(ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(models.CheckConfirmed, check.Outcome)
	s.Equal(uint64(42), check.Result.AssetID)

	s.Run("checking again does not notify twice", func() {
		check, err := s.service.CheckPending(ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(models.CheckConfirmed, check.Outcome)
	})
}

func (s *MintSuite) TestCheckPendingWithinValidityWindow() {
	s.seedPending()
	s.chain.EXPECT().TransactionStatus(gomock.Any(), "TX1").Return(chain.TxStatus{}, nil)
	s.chain.EXPECT().CurrentRound(gomock.Any()).Return(uint64(1050), nil)

	check, err := s.service.CheckPending(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Equal(models.CheckPending, check.Outcome)
	s.Equal("TX1", check.TransactionID)
}

func (s *MintSuite) TestCheckPendingAfterWindowFindsAsset() {
	s.seedPending()
	s.chain.EXPECT().TransactionStatus(gomock.Any(), "TX1").Return(chain.TxStatus{}, chain.ErrTxNotFound)
	s.chain.EXPECT().CurrentRound(gomock.Any()).Return(uint64(1200), nil)
	s.chain.EXPECT().FindCreatedAsset(gomock.Any(), owner, models.AssetName("EarlCoin Verification", s.userID)).
		Return(uint64(88), true, nil)
	s.credentials.EXPECT().Grant(gomock.Any(), s.userID, gomock.Any()).Return(nil).Times(1)

	check, err := s.service.CheckPending(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Equal(models.CheckConfirmed, check.Outcome)
	s.Equal(uint64(88), check.Result.AssetID)
}

func (s *MintSuite) TestCheckPendingAfterWindowClearsForRetry() {
	ctx := context.Background()
	s.seedPending()
	s.chain.EXPECT().TransactionStatus(gomock.Any(), "TX1").Return(chain.TxStatus{}, chain.ErrTxNotFound)
	s.chain.EXPECT().CurrentRound(gomock.Any()).Return(uint64(1200), nil)
	s.chain.EXPECT().FindCreatedAsset(gomock.Any(), owner, gomock.Any()).Return(uint64(0), false, nil)

	check, err := s.service.CheckPending(ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(models.CheckCleared, check.Outcome)

	s.Run("a fresh mint is allowed afterwards", func() {
		s.expectBuild()
		s.signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(signedTxn(), nil)
		s.expectSubmitAndConfirm(3)
		s.credentials.EXPECT().Grant(gomock.Any(), s.userID, gomock.Any()).Return(nil)

		result, err := s.service.Mint(ctx, s.userID, connected)
		s.Require().NoError(err)
		s.Equal(uint64(3), result.AssetID)
	})
}

func (s *MintSuite) TestCheckPendingPoolErrorClears() {
	s.seedPending()
	s.chain.EXPECT().TransactionStatus(gomock.Any(), "TX1").Return(chain.TxStatus{PoolError: "fee too low"}, nil)

	check, err := s.service.CheckPending(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Equal(models.CheckCleared, check.Outcome)
}

func (s *MintSuite) TestSkipMinting() {
	ctx := context.Background()

	s.Run("forbidden outside dev mode", func() {
		err := s.service.SkipMinting(ctx, s.userID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("grants the flag without a transaction", func() {
		svc := s.newService(s.ledger, WithDevMode(true))
		s.credentials.EXPECT().Grant(gomock.Any(), s.userID, (*models.Result)(nil)).Return(nil)

		s.Require().NoError(svc.SkipMinting(ctx, s.userID))
		_, err := s.ledger.Get(ctx, s.userID)
		s.Error(err)
	})
}

func (s *MintSuite) TestMembership() {
	gate := mocks.NewMockVerificationGate(s.ctrl)
	svc := s.newService(s.ledger, WithVerificationGate(gate))
	gate.EXPECT().IsVerified(gomock.Any(), s.userID).Return(true, nil)
	s.credentials.EXPECT().Has(gomock.Any(), s.userID).Return(false, nil)

	membership, err := svc.Membership(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Equal(models.Membership{KYCVerified: true, HasCredential: false}, membership)
}
