// Package reconciler merges the push and poll views of a user's verification
// status into one state machine per session, bounded by a hard deadline.
//
// Every input (initial check, push change, poll tick, deadline) becomes a
// models.Event sent to the session inbox. A single goroutine per session
// applies them in arrival order, so a transition out of verifying happens at
// most once no matter how the sources race.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"verimint/internal/verification/metrics"
	"verimint/internal/verification/models"
	"verimint/internal/verification/ports"
	id "verimint/pkg/domain"
	dErrors "verimint/pkg/domain-errors"
	"verimint/pkg/platform/audit"
	"verimint/pkg/platform/circuit"
	"verimint/pkg/platform/sentinel"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultDeadline     = 60 * time.Second

	inboxSize = 8
)

type Reconciler struct {
	store        ports.StatusStore
	feed         ports.ChangeFeed
	pollInterval time.Duration
	deadline     time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics
	auditor      ports.AuditPublisher
	breaker      *circuit.Breaker
	now          func() time.Time
}

type Option func(*Reconciler)

func WithPollInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

func WithDeadline(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.deadline = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(r *Reconciler) {
		r.auditor = publisher
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

func New(store ports.StatusStore, feed ports.ChangeFeed, opts ...Option) (*Reconciler, error) {
	if store == nil {
		return nil, fmt.Errorf("status store is required")
	}
	if feed == nil {
		return nil, fmt.Errorf("change feed is required")
	}
	r := &Reconciler{
		store:        store,
		feed:         feed,
		pollInterval: DefaultPollInterval,
		deadline:     DefaultDeadline,
		logger:       slog.Default(),
		breaker:      circuit.New("status-store"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start opens a new session for userID in verifying. The watchers outlive
// ctx; they stop when the session reaches a terminal state or is abandoned.
func (r *Reconciler) Start(ctx context.Context, userID id.UserID) (*Session, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	startedAt := r.now()
	s := &Session{
		r:          r,
		id:         id.NewSessionID(),
		userID:     userID,
		state:      models.StateVerifying,
		startedAt:  startedAt,
		deadlineAt: startedAt.Add(r.deadline),
		inbox:      make(chan models.Event, inboxSize),
		done:       make(chan struct{}),
		cancel:     cancel,
	}

	// Everything the release path touches is in place before any goroutine
	// can deliver an event.
	s.mu.Lock()
	s.timer = time.AfterFunc(r.deadline, func() {
		s.send(models.Event{Kind: models.EventDeadlineElapsed, Source: models.SourceDeadline})
	})
	s.mu.Unlock()

	r.metrics.IncrementSessionsStarted()
	r.emit(ctx, audit.EventVerificationStarted, s, "")
	r.logger.InfoContext(ctx, "verification session started",
		"user_id", userID.String(),
		"session_id", s.id.String(),
		"deadline_at", s.deadlineAt,
	)

	go s.run()
	s.spawn(func() { s.watchPush(watchCtx) })
	s.spawn(func() { s.watchPoll(watchCtx) })
	s.spawn(func() { s.check(watchCtx, models.SourceInitial) })
	return s, nil
}

// StoreDegraded reports whether repeated status lookups are failing.
func (r *Reconciler) StoreDegraded() bool {
	return r.breaker.IsOpen()
}

// check performs one point lookup and turns the result into an event.
func (s *Session) check(ctx context.Context, source models.Source) {
	record, err := s.r.store.Get(ctx, s.userID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			s.send(models.Event{Kind: models.EventFailed, Source: source, Err: err})
			return
		}
		s.r.transient(ctx, s, source, err)
		return
	}
	if _, change := s.r.breaker.RecordSuccess(); change.Closed {
		s.r.logger.InfoContext(ctx, "status store recovered")
	}
	if record.KYCVerified {
		s.send(models.Event{Kind: models.EventConfirmed, Source: source})
		return
	}
	s.send(models.Event{Kind: models.EventStillPending, Source: source})
}

func (r *Reconciler) transient(ctx context.Context, s *Session, source models.Source, err error) {
	r.metrics.IncrementTransientError(string(source))
	if source != models.SourcePush {
		if _, change := r.breaker.RecordFailure(); change.Opened {
			r.logger.ErrorContext(ctx, "status store degraded, relying on push notifications",
				"error", err,
			)
		}
	}
	r.logger.WarnContext(ctx, "transient verification status error",
		"user_id", s.userID.String(),
		"session_id", s.id.String(),
		"source", string(source),
		"error", err,
	)
}

func (r *Reconciler) emit(ctx context.Context, event audit.AuditEvent, s *Session, reason string) {
	if r.auditor == nil {
		return
	}
	err := r.auditor.Emit(context.WithoutCancel(ctx), audit.Event{
		Category: event.Category(),
		UserID:   s.userID,
		Subject:  s.id.String(),
		Action:   string(event),
		Reason:   reason,
	})
	if err != nil {
		r.logger.WarnContext(ctx, "failed to emit audit event",
			"action", string(event),
			"session_id", s.id.String(),
			"error", err,
		)
	}
}
