// Package service issues the one membership credential a verified user may
// hold.
//
// A mint fetches fresh network parameters, builds an asset-create transaction
// owned by the user's wallet, obtains the wallet signature, records the
// transaction as pending and submits it, then waits a bounded number of
// rounds for confirmation. Submission is the commit point: nothing after it
// observes the caller's cancellation. A confirmed result is written to the
// ledger and the credential flag is granted only when that write is new, so a
// retried or concurrent mint never notifies twice.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"verimint/internal/chain"
	"verimint/internal/mint/metrics"
	"verimint/internal/mint/models"
	"verimint/internal/mint/ports"
	walletmodels "verimint/internal/wallet/models"
	id "verimint/pkg/domain"
	dErrors "verimint/pkg/domain-errors"
	"verimint/pkg/platform/audit"
	"verimint/pkg/platform/sentinel"
	"verimint/pkg/requestcontext"
)

const tracerName = "verimint/internal/mint"

// DefaultSettings match the credential issued by the membership dashboard.
var DefaultSettings = models.Settings{
	UnitName:        "VNFT",
	AssetNamePrefix: "EarlCoin Verification",
	MetadataURL:     "https://earlcoin.com/nft/verified",
	MaxWaitRounds:   4,
	ConfirmTimeout:  30 * time.Second,
}

type Service struct {
	chain       ports.Chain
	signer      ports.Signer
	ledger      ports.Ledger
	credentials ports.Credentials
	gate        ports.VerificationGate
	auditor     ports.AuditPublisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	settings    models.Settings
	devMode     bool
	now         func() time.Time

	flights singleflight.Group
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

// WithVerificationGate refuses mints for users who are not verified.
func WithVerificationGate(gate ports.VerificationGate) Option {
	return func(s *Service) {
		s.gate = gate
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithSettings overrides non-zero fields of DefaultSettings.
func WithSettings(settings models.Settings) Option {
	return func(s *Service) {
		if settings.UnitName != "" {
			s.settings.UnitName = settings.UnitName
		}
		if settings.AssetNamePrefix != "" {
			s.settings.AssetNamePrefix = settings.AssetNamePrefix
		}
		if settings.MetadataURL != "" {
			s.settings.MetadataURL = settings.MetadataURL
		}
		if settings.MaxWaitRounds > 0 {
			s.settings.MaxWaitRounds = settings.MaxWaitRounds
		}
		if settings.ConfirmTimeout > 0 {
			s.settings.ConfirmTimeout = settings.ConfirmTimeout
		}
	}
}

// WithDevMode enables SkipMinting.
func WithDevMode(enabled bool) Option {
	return func(s *Service) {
		s.devMode = enabled
	}
}

func New(chain ports.Chain, signer ports.Signer, ledger ports.Ledger, credentials ports.Credentials, opts ...Option) (*Service, error) {
	if chain == nil {
		return nil, errors.New("chain is required")
	}
	if signer == nil {
		return nil, errors.New("signer is required")
	}
	if ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if credentials == nil {
		return nil, errors.New("credentials are required")
	}
	s := &Service{
		chain:       chain,
		signer:      signer,
		ledger:      ledger,
		credentials: credentials,
		logger:      slog.Default(),
		tracer:      otel.Tracer(tracerName),
		settings:    DefaultSettings,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mint issues the user's credential from the connected wallet. Concurrent
// calls for one user share a single attempt.
func (s *Service) Mint(ctx context.Context, userID id.UserID, conn walletmodels.Connection) (*models.Result, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}
	if !conn.Usable() {
		s.metrics.RecordAttempt(string(dErrors.CodeWalletNotConnected))
		return nil, dErrors.New(dErrors.CodeWalletNotConnected, "connect a wallet before minting")
	}

	v, err, _ := s.flights.Do("mint:"+userID.String(), func() (any, error) {
		return s.mint(ctx, userID, conn)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Result), nil
}

func (s *Service) mint(ctx context.Context, userID id.UserID, conn walletmodels.Connection) (result *models.Result, err error) {
	ctx, span := s.tracer.Start(ctx, "mint.Mint", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
		attribute.String("owner", conn.Address),
	))
	outcome := "minted"
	defer func() {
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, dErrors.Message(err))
		}
		s.metrics.RecordAttempt(outcome)
		span.End()
	}()

	if err := s.requireVerified(ctx, userID); err != nil {
		return nil, err
	}

	existing, err := s.ledger.Get(ctx, userID)
	switch {
	case err == nil && existing.Status == models.RecordConfirmed:
		outcome = "cached"
		s.repairFlag(ctx, userID, existing.Result)
		return existing.Result, nil
	case err == nil:
		return nil, dErrors.New(dErrors.CodeConfirmationTimeout,
			"a previous mint is still awaiting confirmation; check its status before retrying")
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read mint ledger")
	}

	req := models.NewRequest(conn.Address, userID, s.settings)

	var unsigned chain.UnsignedTxn
	err = s.step(ctx, "mint.build", func(ctx context.Context) error {
		params, err := s.chain.SuggestedParams(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeSubmissionFailed, "could not fetch network parameters")
		}
		unsigned, err = s.chain.BuildAssetCreate(req.Spec(), params)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build mint transaction")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var signed chain.SignedTxn
	err = s.step(ctx, "mint.sign", func(ctx context.Context) error {
		signed, err = s.signer.Sign(ctx, unsigned)
		switch {
		case err == nil:
			return nil
		case dErrors.HasCode(err, dErrors.CodeWalletNotConnected), dErrors.HasCode(err, dErrors.CodeSigningFailed):
			return err
		default:
			return dErrors.Wrap(err, dErrors.CodeSigningFailed, "wallet did not sign the transaction")
		}
	})
	if err != nil {
		return nil, err
	}
	txID := signed.TxID
	if txID == "" {
		txID = unsigned.TxID
	}

	err = s.ledger.RecordPending(ctx, models.Record{
		UserID:         userID,
		TransactionID:  txID,
		LastValidRound: unsigned.LastValid,
		OwnerAddress:   req.OwnerAddress,
		AssetName:      req.AssetName,
	})
	if errors.Is(err, sentinel.ErrConflict) {
		return nil, dErrors.New(dErrors.CodeConflict, "another mint for this user is already in progress")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record pending mint")
	}

	// Past this point the transaction may land; the caller can no longer cancel.
	commitCtx := context.WithoutCancel(ctx)
	submittedAt := s.now()
	err = s.step(commitCtx, "mint.submit", func(ctx context.Context) error {
		_, err := s.chain.Submit(ctx, signed)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, chain.ErrRejected):
			s.clearPending(ctx, userID, txID)
			return dErrors.Wrap(err, dErrors.CodeSubmissionFailed, "the network rejected the transaction")
		default:
			// The node may have accepted it; only CheckPending can tell.
			s.emit(ctx, audit.EventCredentialMintPending, userID, txID)
			s.logger.WarnContext(ctx, "mint submission outcome unknown",
				"user_id", userID.String(),
				"tx_id", txID,
				"error", err,
			)
			return dErrors.Wrap(err, dErrors.CodeConfirmationTimeout,
				"the transaction may have been submitted; check its status before retrying")
		}
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "mint submitted",
		"user_id", userID.String(),
		"tx_id", txID,
		"request_id", requestcontext.RequestID(ctx),
	)

	var confirmation chain.Confirmation
	err = s.step(commitCtx, "mint.confirm", func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, s.settings.ConfirmTimeout)
		defer cancel()
		confirmation, err = s.chain.WaitForConfirmation(waitCtx, txID, s.settings.MaxWaitRounds)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, chain.ErrRejected):
			s.clearPending(ctx, userID, txID)
			return dErrors.Wrap(err, dErrors.CodeSubmissionFailed, "the network rejected the transaction")
		default:
			s.emit(ctx, audit.EventCredentialMintPending, userID, txID)
			s.logger.WarnContext(ctx, "mint not confirmed in time",
				"user_id", userID.String(),
				"tx_id", txID,
				"error", err,
			)
			return dErrors.Wrap(err, dErrors.CodeConfirmationTimeout,
				"the transaction was submitted but not yet confirmed; check its status before retrying")
		}
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveConfirmation(s.now().Sub(submittedAt))

	return s.confirm(commitCtx, userID, models.Result{
		TransactionID:  txID,
		AssetID:        confirmation.AssetID,
		ConfirmedRound: confirmation.ConfirmedRound,
	})
}

// confirm commits result to the ledger and grants the credential if this call
// made the commit. A losing writer returns the committed result.
func (s *Service) confirm(ctx context.Context, userID id.UserID, result models.Result) (*models.Result, error) {
	newly, err := s.ledger.RecordConfirmed(ctx, userID, result)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record confirmed mint",
			"user_id", userID.String(),
			"tx_id", result.TransactionID,
			"asset_id", result.AssetID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "mint confirmed but could not be recorded; check its status")
	}
	if !newly {
		record, err := s.ledger.Get(ctx, userID)
		if err == nil && record.Result != nil {
			return record.Result, nil
		}
		return &result, nil
	}

	if err := s.credentials.Grant(ctx, userID, &result); err != nil {
		s.logger.ErrorContext(ctx, "failed to grant credential",
			"user_id", userID.String(),
			"tx_id", result.TransactionID,
			"error", err,
		)
	}
	s.emit(ctx, audit.EventCredentialMinted, userID, result.TransactionID)
	s.logger.InfoContext(ctx, "credential minted",
		"user_id", userID.String(),
		"tx_id", result.TransactionID,
		"asset_id", result.AssetID,
		"confirmed_round", result.ConfirmedRound,
	)
	return &result, nil
}

// repairFlag grants the flag for a confirmed mint whose grant never landed.
func (s *Service) repairFlag(ctx context.Context, userID id.UserID, result *models.Result) {
	has, err := s.credentials.Has(ctx, userID)
	if err != nil || has {
		return
	}
	if err := s.credentials.Grant(ctx, userID, result); err != nil {
		s.logger.WarnContext(ctx, "failed to repair credential flag",
			"user_id", userID.String(),
			"error", err,
		)
	}
}

// CheckPending resolves a mint that timed out waiting for confirmation.
func (s *Service) CheckPending(ctx context.Context, userID id.UserID) (*models.CheckResult, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}
	v, err, _ := s.flights.Do("check:"+userID.String(), func() (any, error) {
		return s.checkPending(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	check := v.(*models.CheckResult)
	s.metrics.RecordCheck(string(check.Outcome))
	return check, nil
}

func (s *Service) checkPending(ctx context.Context, userID id.UserID) (*models.CheckResult, error) {
	ctx, span := s.tracer.Start(ctx, "mint.CheckPending", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
	))
	defer span.End()

	record, err := s.ledger.Get(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return &models.CheckResult{Outcome: models.CheckNone}, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read mint ledger")
	}
	if record.Status == models.RecordConfirmed {
		return &models.CheckResult{Outcome: models.CheckConfirmed, TransactionID: record.TransactionID, Result: record.Result}, nil
	}

	pending := &models.CheckResult{Outcome: models.CheckPending, TransactionID: record.TransactionID}
	status, statusErr := s.chain.TransactionStatus(ctx, record.TransactionID)
	if statusErr == nil {
		if status.Confirmed {
			result, err := s.confirm(ctx, userID, models.Result{
				TransactionID:  record.TransactionID,
				AssetID:        status.AssetID,
				ConfirmedRound: status.ConfirmedRound,
			})
			if err != nil {
				return nil, err
			}
			return &models.CheckResult{Outcome: models.CheckConfirmed, TransactionID: record.TransactionID, Result: result}, nil
		}
		if status.PoolError != "" {
			return s.reset(ctx, userID, record.TransactionID, status.PoolError)
		}
	}

	round, err := s.chain.CurrentRound(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not reach the network")
	}
	if round <= record.LastValidRound {
		return pending, nil
	}

	// The validity window has closed and the node no longer tracks the
	// transaction. The creator account is the remaining source of truth.
	assetID, found, err := s.chain.FindCreatedAsset(ctx, record.OwnerAddress, record.AssetName)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not reach the network")
	}
	if found {
		result, err := s.confirm(ctx, userID, models.Result{TransactionID: record.TransactionID, AssetID: assetID})
		if err != nil {
			return nil, err
		}
		return &models.CheckResult{Outcome: models.CheckConfirmed, TransactionID: record.TransactionID, Result: result}, nil
	}
	return s.reset(ctx, userID, record.TransactionID, "validity window passed")
}

func (s *Service) reset(ctx context.Context, userID id.UserID, txID, reason string) (*models.CheckResult, error) {
	if _, err := s.ledger.ClearPending(ctx, userID, txID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear pending mint")
	}
	s.emit(ctx, audit.EventCredentialPendingReset, userID, txID)
	s.logger.InfoContext(ctx, "pending mint cleared",
		"user_id", userID.String(),
		"tx_id", txID,
		"reason", reason,
	)
	return &models.CheckResult{Outcome: models.CheckCleared, TransactionID: txID}, nil
}

// SkipMinting grants the credential flag without touching the chain. Only
// available in dev mode.
func (s *Service) SkipMinting(ctx context.Context, userID id.UserID) error {
	if !s.devMode {
		return dErrors.New(dErrors.CodeForbidden, "skipping the mint is disabled")
	}
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}
	if err := s.credentials.Grant(ctx, userID, nil); err != nil {
		return err
	}
	s.emit(ctx, audit.EventCredentialMintSkipped, userID, "")
	s.logger.WarnContext(ctx, "credential mint skipped",
		"user_id", userID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

func (s *Service) HasCredential(ctx context.Context, userID id.UserID) (bool, error) {
	return s.credentials.Has(ctx, userID)
}

// Membership combines the verification flag and the credential flag.
func (s *Service) Membership(ctx context.Context, userID id.UserID) (models.Membership, error) {
	if userID.IsNil() {
		return models.Membership{}, dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}
	var membership models.Membership
	if s.gate != nil {
		verified, err := s.gate.IsVerified(ctx, userID)
		if err != nil {
			return models.Membership{}, err
		}
		membership.KYCVerified = verified
	}
	has, err := s.credentials.Has(ctx, userID)
	if err != nil {
		return models.Membership{}, err
	}
	membership.HasCredential = has
	return membership, nil
}

func (s *Service) requireVerified(ctx context.Context, userID id.UserID) error {
	if s.gate == nil {
		return nil
	}
	verified, err := s.gate.IsVerified(ctx, userID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "verification status unavailable")
	}
	if !verified {
		return dErrors.New(dErrors.CodeForbidden, "identity verification is required before minting")
	}
	return nil
}

// step runs fn in a child span.
func (s *Service) step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.Message(err))
		return err
	}
	return nil
}

func (s *Service) clearPending(ctx context.Context, userID id.UserID, txID string) {
	if _, err := s.ledger.ClearPending(ctx, userID, txID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear pending mint",
			"user_id", userID.String(),
			"tx_id", txID,
			"error", err,
		)
	}
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, userID id.UserID, txID string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Category:  event.Category(),
		UserID:    userID,
		Subject:   txID,
		Action:    string(event),
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", string(event), "error", err)
	}
}
