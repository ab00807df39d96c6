package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "verimint/pkg/domain"
)

const defaultKeyPrefix = "credential:has:"

// RedisStore keeps one persistent key per credentialed user.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: defaultKeyPrefix}
}

func (s *RedisStore) Set(ctx context.Context, userID id.UserID) error {
	if err := s.client.Set(ctx, s.prefix+userID.String(), "1", 0).Err(); err != nil {
		return fmt.Errorf("set credential flag: %w", err)
	}
	return nil
}

func (s *RedisStore) Has(ctx context.Context, userID id.UserID) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+userID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("get credential flag: %w", err)
	}
	return n == 1, nil
}
