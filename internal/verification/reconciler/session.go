package reconciler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"verimint/internal/verification/models"
	"verimint/internal/verification/ports"
	id "verimint/pkg/domain"
	dErrors "verimint/pkg/domain-errors"
	"verimint/pkg/platform/audit"
)

// Session is one verification attempt. It owns a push subscription, a poll
// ticker and a deadline timer, all released together exactly once.
type Session struct {
	r *Reconciler

	id         id.SessionID
	userID     id.UserID
	startedAt  time.Time
	deadlineAt time.Time

	inbox chan models.Event
	done  chan struct{}

	mu        sync.Mutex
	state     models.State
	released  bool
	abandoned bool
	reason    string
	mint      *models.MintStamp
	timer     *time.Timer
	sub       ports.Subscription
	cancel    context.CancelFunc

	watchers sync.WaitGroup
	active   atomic.Int32
}

func (s *Session) ID() id.SessionID      { return s.id }
func (s *Session) UserID() id.UserID     { return s.userID }
func (s *Session) Done() <-chan struct{} { return s.done }

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := models.Snapshot{
		ID:         s.id,
		UserID:     s.userID,
		State:      s.state,
		StartedAt:  s.startedAt,
		DeadlineAt: s.deadlineAt,
		Released:   s.released,
		Abandoned:  s.abandoned,
		Reason:     s.reason,
	}
	if s.mint != nil {
		stamp := *s.mint
		snap.Mint = &stamp
	}
	return snap
}

// Wait blocks until the session releases its watchers or ctx ends.
func (s *Session) Wait(ctx context.Context) (models.Snapshot, error) {
	select {
	case <-s.done:
		return s.Snapshot(), nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

// ActiveWatchers is the number of watcher goroutines still running.
func (s *Session) ActiveWatchers() int {
	return int(s.active.Load())
}

// WaitWatchers blocks until every watcher goroutine has exited.
func (s *Session) WaitWatchers() {
	s.watchers.Wait()
}

// Abandon releases watchers and timer without a transition. Late events are
// dropped. Safe to call any number of times, in any state.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.abandoned = true
	s.releaseLocked("abandoned")
	s.r.logger.Info("verification session abandoned",
		"user_id", s.userID.String(),
		"session_id", s.id.String(),
		"state", string(s.state),
	)
	s.r.emit(context.Background(), audit.EventVerificationAbandoned, s, string(s.state))
}

// MarkMinted moves a verified session to minted.
func (s *Session) MarkMinted(stamp models.MintStamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case models.StateMinted:
		return nil
	case models.StateVerified:
		s.state = models.StateMinted
		s.mint = &stamp
		return nil
	default:
		return dErrors.New(dErrors.CodeConflict, "session is "+string(s.state)+", not verified")
	}
}

// Fail moves any non-terminal session to error.
func (s *Session) Fail(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsTerminal() {
		return
	}
	s.toErrorLocked(reason)
}

func (s *Session) run() {
	for {
		select {
		case ev := <-s.inbox:
			s.apply(ev)
		case <-s.done:
			return
		}
	}
}

// apply is the reducer. It is the only place verifying is left, apart from
// the direct Fail and MarkMinted calls which take the same lock.
func (s *Session) apply(ev models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.r.metrics.IncrementEvent(string(ev.Source), ev.Kind.String())
	if s.released {
		return
	}

	switch ev.Kind {
	case models.EventConfirmed:
		if s.state != models.StateVerifying {
			return
		}
		s.state = models.StateVerified
		s.releaseLocked(string(models.StateVerified))
		s.r.metrics.ObserveTimeToVerify(s.r.now().Sub(s.startedAt))
		s.r.logger.Info("verification confirmed",
			"user_id", s.userID.String(),
			"session_id", s.id.String(),
			"source", string(ev.Source),
		)
		s.r.emit(context.Background(), audit.EventVerificationConfirmed, s, string(ev.Source))

	case models.EventDeadlineElapsed:
		if s.state != models.StateVerifying {
			return
		}
		s.state = models.StateTimeout
		s.reason = "verification deadline elapsed"
		s.releaseLocked(string(models.StateTimeout))
		s.r.logger.Info("verification timed out",
			"user_id", s.userID.String(),
			"session_id", s.id.String(),
		)
		s.r.emit(context.Background(), audit.EventVerificationTimedOut, s, "")

	case models.EventFailed:
		if s.state.IsTerminal() {
			return
		}
		reason := "verification status unavailable"
		if ev.Err != nil {
			reason = ev.Err.Error()
		}
		s.toErrorLocked(reason)

	case models.EventStillPending:
	}
}

func (s *Session) toErrorLocked(reason string) {
	s.state = models.StateError
	s.reason = reason
	if !s.released {
		s.releaseLocked(string(models.StateError))
	}
	s.r.logger.Warn("verification session failed",
		"user_id", s.userID.String(),
		"session_id", s.id.String(),
		"reason", reason,
	)
	s.r.emit(context.Background(), audit.EventVerificationFailed, s, reason)
}

// releaseLocked disarms the timer, stops both watchers and closes the
// subscription. Callers hold s.mu and have checked !s.released.
func (s *Session) releaseLocked(outcome string) {
	s.released = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Close()
		s.sub = nil
	}
	close(s.done)
	s.r.metrics.RecordOutcome(outcome)
}

// send delivers ev unless the session has been released.
func (s *Session) send(ev models.Event) {
	select {
	case s.inbox <- ev:
	case <-s.done:
	}
}

func (s *Session) spawn(fn func()) {
	s.watchers.Add(1)
	s.active.Add(1)
	go func() {
		defer s.watchers.Done()
		defer s.active.Add(-1)
		fn()
	}()
}

func (s *Session) watchPoll(ctx context.Context) {
	ticker := time.NewTicker(s.r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx, models.SourcePoll)
		}
	}
}

func (s *Session) watchPush(ctx context.Context) {
	for ctx.Err() == nil {
		sub, err := s.r.feed.Subscribe(ctx, s.userID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.r.transient(ctx, s, models.SourcePush, err)
			if !sleep(ctx, s.r.pollInterval) {
				return
			}
			continue
		}
		if !s.attach(sub) {
			return
		}
		s.consume(ctx, sub)
		s.detach(sub)
	}
}

// attach records sub as the session's subscription. A subscription opened
// after release is closed immediately.
func (s *Session) attach(sub ports.Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		_ = sub.Close()
		return false
	}
	s.sub = sub
	return true
}

func (s *Session) detach(sub ports.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == sub {
		s.sub = nil
		_ = sub.Close()
	}
}

// consume forwards changes until ctx ends or the subscription closes.
func (s *Session) consume(ctx context.Context, sub ports.Subscription) {
	changes, errs := sub.Changes(), sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if change.KYCVerified {
				s.send(models.Event{Kind: models.EventConfirmed, Source: models.SourcePush})
			} else {
				s.send(models.Event{Kind: models.EventStillPending, Source: models.SourcePush})
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.r.transient(ctx, s, models.SourcePush, err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
