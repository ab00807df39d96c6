// Package service keeps one live verification session per user and exposes
// the dev-mode KYC bypass.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"verimint/internal/verification/models"
	"verimint/internal/verification/ports"
	"verimint/internal/verification/reconciler"
	id "verimint/pkg/domain"
	dErrors "verimint/pkg/domain-errors"
	"verimint/pkg/platform/audit"
	"verimint/pkg/platform/sentinel"
	"verimint/pkg/requestcontext"
)

// Starter opens reconciler sessions.
type Starter interface {
	Start(ctx context.Context, userID id.UserID) (*reconciler.Session, error)
}

type Service struct {
	starter Starter
	store   ports.StatusStore
	tx      ports.TxRunner
	auditor ports.AuditPublisher
	logger  *slog.Logger
	devMode bool

	mu       sync.Mutex
	sessions map[id.UserID]*reconciler.Session
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

// WithTxRunner makes the bypass write and its audit record commit together.
func WithTxRunner(tx ports.TxRunner) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithDevMode enables Bypass.
func WithDevMode(enabled bool) Option {
	return func(s *Service) {
		s.devMode = enabled
	}
}

func New(starter Starter, store ports.StatusStore, opts ...Option) (*Service, error) {
	if starter == nil {
		return nil, fmt.Errorf("reconciler is required")
	}
	if store == nil {
		return nil, fmt.Errorf("status store is required")
	}
	s := &Service{
		starter:  starter,
		store:    store,
		logger:   slog.Default(),
		sessions: make(map[id.UserID]*reconciler.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start begins a fresh session, abandoning any previous one for the user.
func (s *Service) Start(ctx context.Context, userID id.UserID) (*reconciler.Session, error) {
	session, err := s.starter.Start(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	previous := s.sessions[userID]
	s.sessions[userID] = session
	s.mu.Unlock()

	if previous != nil {
		previous.Abandon()
	}
	return session, nil
}

// Session returns the user's most recent session.
func (s *Service) Session(userID id.UserID) (*reconciler.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "no verification session")
	}
	return session, nil
}

// Abandon releases the user's session, if any, and forgets it.
func (s *Service) Abandon(userID id.UserID) {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if ok {
		session.Abandon()
	}
}

// MarkMinted moves the user's live session to minted. A user without a
// verified session (minting on a later visit) is not an error.
func (s *Service) MarkMinted(ctx context.Context, userID id.UserID, stamp models.MintStamp) error {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := session.MarkMinted(stamp); err != nil {
		s.logger.InfoContext(ctx, "mint not reflected on session",
			"user_id", userID.String(),
			"session_id", session.ID().String(),
			"error", err,
		)
	}
	return nil
}

// IsVerified reads the current flag from the status store.
func (s *Service) IsVerified(ctx context.Context, userID id.UserID) (bool, error) {
	record, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "verification status unavailable")
	}
	return record.KYCVerified, nil
}

// Bypass marks the user verified without the external provider. Only
// available in dev mode.
func (s *Service) Bypass(ctx context.Context, userID id.UserID) error {
	if !s.devMode {
		return dErrors.New(dErrors.CodeForbidden, "kyc bypass is disabled")
	}
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}

	run := func(ctx context.Context) error {
		if err := s.store.SetKYCVerified(ctx, userID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "profile not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to bypass verification")
		}
		if s.auditor == nil {
			return nil
		}
		return s.auditor.Emit(ctx, audit.Event{
			Category:  audit.EventKYCBypassed.Category(),
			UserID:    userID,
			Subject:   userID.String(),
			Action:    string(audit.EventKYCBypassed),
			Decision:  "granted",
			Reason:    "dev_mode",
			RequestID: requestcontext.RequestID(ctx),
		})
	}

	var err error
	if s.tx != nil {
		err = s.tx.RunInTx(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return err
	}

	s.logger.WarnContext(ctx, "kyc verification bypassed",
		"user_id", userID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Shutdown abandons every live session.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[id.UserID]*reconciler.Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Abandon()
	}
}
