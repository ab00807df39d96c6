package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"verimint/internal/verification/models"
	"verimint/internal/verification/ports"
	id "verimint/pkg/domain"
)

// RedisFeed uses one pub/sub channel per user, named prefix+userID.
type RedisFeed struct {
	client *redis.Client
	prefix string
	buffer int
	logger *slog.Logger
}

type RedisOption func(*RedisFeed)

func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(f *RedisFeed) {
		f.logger = logger
	}
}

func WithRedisBuffer(n int) RedisOption {
	return func(f *RedisFeed) {
		if n > 0 {
			f.buffer = n
		}
	}
}

func NewRedis(client *redis.Client, prefix string, opts ...RedisOption) *RedisFeed {
	f := &RedisFeed{
		client: client,
		prefix: prefix,
		buffer: defaultBuffer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *RedisFeed) channel(userID id.UserID) string {
	return f.prefix + userID.String()
}

// Subscribe returns once the server has acknowledged the subscription.
func (f *RedisFeed) Subscribe(ctx context.Context, userID id.UserID) (ports.Subscription, error) {
	pubsub := f.client.Subscribe(ctx, f.channel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", f.channel(userID), err)
	}

	sub := &redisSubscription{
		pubsub:  pubsub,
		changes: make(chan models.StatusChange, f.buffer),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go sub.pump(userID, f.logger)
	return sub, nil
}

// Publish sends change on the user's channel.
func (f *RedisFeed) Publish(ctx context.Context, change models.StatusChange) error {
	payload, err := Encode(change)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, f.channel(change.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

type redisSubscription struct {
	pubsub  *redis.PubSub
	changes chan models.StatusChange
	errs    chan error
	done    chan struct{}
	once    sync.Once
}

func (s *redisSubscription) pump(userID id.UserID, logger *slog.Logger) {
	defer close(s.changes)
	defer close(s.errs)
	msgs := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			change, ok, err := Decode([]byte(msg.Payload))
			if err != nil {
				select {
				case s.errs <- err:
				default:
				}
				continue
			}
			if !ok || change.UserID != userID {
				logger.Debug("ignoring change event", "channel", msg.Channel)
				continue
			}
			select {
			case s.changes <- change:
			default:
			}
		}
	}
}

func (s *redisSubscription) Changes() <-chan models.StatusChange { return s.changes }
func (s *redisSubscription) Errors() <-chan error                { return s.errs }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}
