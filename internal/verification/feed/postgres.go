package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"verimint/internal/verification/ports"
	id "verimint/pkg/domain"
)

const (
	minReconnect = 500 * time.Millisecond
	maxReconnect = 30 * time.Second
	pingEvery    = 90 * time.Second
)

// ErrListenerLost is published to subscribers when the LISTEN connection drops.
var ErrListenerLost = errors.New("postgres listener disconnected")

// PostgresFeed receives pg_notify payloads from the profiles trigger over
// LISTEN and fans them out through a Hub.
type PostgresFeed struct {
	hub      *Hub
	listener *pq.Listener
	channel  string
	logger   *slog.Logger
}

type PostgresOption func(*PostgresFeed)

func WithPostgresLogger(logger *slog.Logger) PostgresOption {
	return func(f *PostgresFeed) {
		f.logger = logger
	}
}

// NewPostgres opens a LISTEN connection on channel.
func NewPostgres(dsn, channel string, hub *Hub, opts ...PostgresOption) (*PostgresFeed, error) {
	f := &PostgresFeed{
		hub:     hub,
		channel: channel,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.listener = pq.NewListener(dsn, minReconnect, maxReconnect, f.onEvent)
	if err := f.listener.Listen(channel); err != nil {
		_ = f.listener.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}
	return f, nil
}

func (f *PostgresFeed) Subscribe(ctx context.Context, userID id.UserID) (ports.Subscription, error) {
	return f.hub.Subscribe(ctx, userID)
}

// Run forwards notifications until ctx ends, then closes the listener.
func (f *PostgresFeed) Run(ctx context.Context) error {
	defer func() { _ = f.listener.Close() }()
	ping := time.NewTicker(pingEvery)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-f.listener.Notify:
			// nil follows a reconnect; changes during the gap are left to polling.
			if n == nil {
				continue
			}
			f.dispatch(ctx, []byte(n.Extra))
		case <-ping.C:
			if err := f.listener.Ping(); err != nil {
				f.logger.WarnContext(ctx, "postgres listener ping failed", "error", err)
			}
		}
	}
}

func (f *PostgresFeed) dispatch(ctx context.Context, payload []byte) {
	change, ok, err := Decode(payload)
	if err != nil {
		f.logger.WarnContext(ctx, "dropping malformed change event", "channel", f.channel, "error", err)
		return
	}
	if ok {
		f.hub.Publish(change)
	}
}

func (f *PostgresFeed) onEvent(event pq.ListenerEventType, err error) {
	switch event {
	case pq.ListenerEventDisconnected, pq.ListenerEventConnectionAttemptFailed:
		f.logger.Warn("postgres listener connection problem", "channel", f.channel, "error", err)
		f.hub.PublishError(fmt.Errorf("%w: %v", ErrListenerLost, err))
	case pq.ListenerEventReconnected:
		f.logger.Info("postgres listener reconnected", "channel", f.channel)
	}
}
