// Package credential flips the user's "has credential" flag once a mint is
// confirmed, or when minting is skipped.
package credential

import (
	"context"
	"errors"
	"log/slog"

	mintmodels "verimint/internal/mint/models"
	vmodels "verimint/internal/verification/models"
	id "verimint/pkg/domain"
	dErrors "verimint/pkg/domain-errors"
	"verimint/pkg/platform/sentinel"
)

// FlagStore persists the flag.
type FlagStore interface {
	Set(ctx context.Context, userID id.UserID) error
	Has(ctx context.Context, userID id.UserID) (bool, error)
}

// SessionMarker reflects a mint on the user's live verification session.
type SessionMarker interface {
	MarkMinted(ctx context.Context, userID id.UserID, stamp vmodels.MintStamp) error
}

type Service struct {
	flags    FlagStore
	sessions SessionMarker
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithSessionMarker(marker SessionMarker) Option {
	return func(s *Service) {
		s.sessions = marker
	}
}

func New(flags FlagStore, opts ...Option) *Service {
	s := &Service{flags: flags, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grant sets the flag. A non-nil result also moves the live verification
// session to minted; failing to do so is logged, not returned.
func (s *Service) Grant(ctx context.Context, userID id.UserID, result *mintmodels.Result) error {
	if err := s.flags.Set(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record credential")
	}
	if result == nil || s.sessions == nil {
		return nil
	}
	stamp := vmodels.MintStamp{
		TransactionID:  result.TransactionID,
		AssetID:        result.AssetID,
		ConfirmedRound: result.ConfirmedRound,
	}
	if err := s.sessions.MarkMinted(ctx, userID, stamp); err != nil {
		s.logger.WarnContext(ctx, "failed to mark session minted",
			"user_id", userID.String(),
			"tx_id", result.TransactionID,
			"error", err,
		)
	}
	return nil
}

func (s *Service) Has(ctx context.Context, userID id.UserID) (bool, error) {
	has, err := s.flags.Has(ctx, userID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential status unavailable")
	}
	return has, nil
}
