package authorization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"verimint/internal/wallet/models"
	"verimint/pkg/platform/sentinel"
)

const defaultKey = "wallet:authorization"

// RedisStore keeps the authorization under a single key, expiring after ttl
// so a forgotten approval does not reconnect forever.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

// WithKey namespaces the cached entry, e.g. per deployment.
func WithKey(key string) RedisOption {
	return func(s *RedisStore) {
		if key != "" {
			s.key = key
		}
	}
}

func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		key:    defaultKey,
		ttl:    30 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Load(ctx context.Context) (*models.Authorization, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load wallet authorization: %w", err)
	}
	var auth models.Authorization
	if err := json.Unmarshal(raw, &auth); err != nil {
		return nil, fmt.Errorf("decode wallet authorization: %w", err)
	}
	return &auth, nil
}

func (s *RedisStore) Save(ctx context.Context, auth models.Authorization) error {
	raw, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("encode wallet authorization: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save wallet authorization: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear wallet authorization: %w", err)
	}
	return nil
}
