// Package service owns the process-wide wallet connection.
//
// A single actor goroutine performs every mutation (connect, reconnect,
// disconnect) in the order requests arrive. Readers never touch actor state:
// each mutation publishes an immutable models.Connection through an atomic
// pointer, so Connection() and Sign() are safe from any goroutine.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"verimint/internal/chain"
	"verimint/internal/platform/device"
	"verimint/internal/wallet/metrics"
	"verimint/internal/wallet/models"
	"verimint/internal/wallet/ports"
	dErrors "verimint/pkg/domain-errors"
	"verimint/pkg/platform/audit"
	"verimint/pkg/platform/sentinel"
	"verimint/pkg/requestcontext"
)

// ErrClosed is returned for requests made after Close.
var ErrClosed = errors.New("wallet session closed")

type Service struct {
	connector ports.Connector
	cache     ports.AuthorizationCache
	auditor   ports.AuditPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	conn    atomic.Pointer[models.Connection]
	cmds    chan func()
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
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

func WithAuthorizationCache(cache ports.AuthorizationCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

// New starts the actor. Call Close to stop it.
func New(connector ports.Connector, opts ...Option) (*Service, error) {
	if connector == nil {
		return nil, errors.New("wallet connector is required")
	}
	s := &Service{
		connector: connector,
		logger:    slog.Default(),
		now:       time.Now,
		cmds:      make(chan func()),
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.conn.Store(&models.Disconnected)
	go s.loop()
	return s, nil
}

func (s *Service) loop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.stop:
			return
		case cmd := <-s.cmds:
			cmd()
		}
	}
}

// do runs fn on the actor and waits for its result. If ctx ends first the
// caller returns early; fn still completes on the actor.
func (s *Service) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	select {
	case s.cmds <- func() { result <- fn() }:
	case <-s.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) publish(conn models.Connection) {
	s.conn.Store(&conn)
	s.metrics.SetConnected(conn.Usable())
}

// Connection returns the current snapshot.
func (s *Service) Connection() models.Connection {
	return *s.conn.Load()
}

// Connect prompts the wallet for an address. A user cancellation leaves the
// session disconnected and returns nil.
func (s *Service) Connect(ctx context.Context) (models.Connection, error) {
	var out models.Connection
	err := s.do(ctx, func() error {
		if current := s.Connection(); current.Usable() {
			out = current
			return nil
		}
		address, err := s.connector.Connect(ctx)
		if errors.Is(err, ports.ErrUserCancelled) {
			s.metrics.RecordConnect("connect", "cancelled")
			s.logger.InfoContext(ctx, "wallet connection cancelled by user")
			out = s.Connection()
			return nil
		}
		if err != nil {
			s.metrics.RecordConnect("connect", "failed")
			return dErrors.Wrap(err, dErrors.CodeConnectionFailed, "could not connect to wallet")
		}
		if address == "" {
			s.metrics.RecordConnect("connect", "failed")
			return dErrors.New(dErrors.CodeConnectionFailed, "wallet returned no address")
		}

		out = models.Connection{Address: address, Connected: true}
		s.publish(out)
		s.metrics.RecordConnect("connect", "connected")
		s.remember(ctx, address)
		s.emit(ctx, audit.EventWalletConnected, address)
		s.logger.InfoContext(ctx, "wallet connected", "address", address)
		return nil
	})
	return out, err
}

// ReconnectExisting restores a cached authorization without prompting. With
// nothing cached, or a stale entry, the session stays disconnected.
func (s *Service) ReconnectExisting(ctx context.Context) (models.Connection, error) {
	var out models.Connection
	err := s.do(ctx, func() error {
		if current := s.Connection(); current.Usable() {
			out = current
			return nil
		}
		if s.cache == nil {
			return nil
		}
		auth, err := s.cache.Load(ctx)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			s.logger.WarnContext(ctx, "wallet authorization lookup failed", "error", err)
			return nil
		}
		if err := s.connector.Reconnect(ctx, auth.Address); err != nil {
			s.metrics.RecordConnect("reconnect", "failed")
			s.logger.InfoContext(ctx, "cached wallet authorization no longer valid",
				"address", auth.Address,
				"error", err,
			)
			if clearErr := s.cache.Clear(ctx); clearErr != nil {
				s.logger.WarnContext(ctx, "failed to clear wallet authorization", "error", clearErr)
			}
			return nil
		}

		out = models.Connection{Address: auth.Address, Connected: true}
		s.publish(out)
		s.metrics.RecordConnect("reconnect", "connected")
		s.logger.InfoContext(ctx, "wallet reconnected", "address", auth.Address)
		return nil
	})
	return out, err
}

// Disconnect clears the connection and the cached authorization. Safe to call
// when already disconnected.
func (s *Service) Disconnect(ctx context.Context) error {
	return s.do(ctx, func() error {
		current := s.Connection()
		s.publish(models.Disconnected)
		if s.cache != nil {
			if err := s.cache.Clear(ctx); err != nil {
				s.logger.WarnContext(ctx, "failed to clear wallet authorization", "error", err)
			}
		}
		if !current.Usable() {
			return nil
		}
		if err := s.connector.Disconnect(ctx, current.Address); err != nil {
			s.logger.WarnContext(ctx, "wallet disconnect reported an error",
				"address", current.Address,
				"error", err,
			)
		}
		s.emit(ctx, audit.EventWalletDisconnected, current.Address)
		s.logger.InfoContext(ctx, "wallet disconnected", "address", current.Address)
		return nil
	})
}

// Sign asks the connected wallet to sign txn. It blocks until the wallet
// answers or ctx ends; a refusal is SigningFailed.
func (s *Service) Sign(ctx context.Context, txn chain.UnsignedTxn) (chain.SignedTxn, error) {
	conn := s.Connection()
	if !conn.Usable() {
		return chain.SignedTxn{}, dErrors.New(dErrors.CodeWalletNotConnected, "connect a wallet first")
	}
	if txn.Sender != "" && txn.Sender != conn.Address {
		return chain.SignedTxn{}, dErrors.New(dErrors.CodeSigningFailed, "transaction sender is not the connected wallet")
	}

	signed, err := s.connector.SignTransaction(ctx, conn.Address, txn)
	switch {
	case err == nil:
		s.metrics.RecordSign("signed")
		return signed, nil
	case errors.Is(err, ports.ErrDeclined), errors.Is(err, ports.ErrUserCancelled):
		s.metrics.RecordSign("declined")
		return chain.SignedTxn{}, dErrors.Wrap(err, dErrors.CodeSigningFailed, "signature request was declined")
	default:
		s.metrics.RecordSign("failed")
		return chain.SignedTxn{}, dErrors.Wrap(err, dErrors.CodeSigningFailed, "wallet failed to sign")
	}
}

// Close stops the actor. The last snapshot stays readable.
func (s *Service) Close() {
	s.once.Do(func() {
		close(s.stop)
	})
	<-s.stopped
}

func (s *Service) remember(ctx context.Context, address string) {
	if s.cache == nil {
		return
	}
	auth := models.Authorization{Address: address, AuthorizedAt: s.now()}
	if err := s.cache.Save(ctx, auth); err != nil {
		s.logger.WarnContext(ctx, "failed to cache wallet authorization", "error", err)
	}
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, address string) {
	if s.auditor == nil {
		return
	}
	var label string
	if ua := requestcontext.UserAgent(ctx); ua != "" {
		label = device.DisplayName(ua)
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Category:  event.Category(),
		UserID:    requestcontext.UserID(ctx),
		Subject:   address,
		Action:    string(event),
		RequestID: requestcontext.RequestID(ctx),
		Device:    label,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", string(event), "error", err)
	}
}
