package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"verimint/internal/mint/models"
	id "verimint/pkg/domain"
	"verimint/pkg/platform/sentinel"
)

const defaultKeyPrefix = "mint:ledger:"

// Each record is one hash. Transitions run as scripts so that two instances
// racing on the same user see a single winner.
var (
	recordPendingScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if status == 'confirmed' then return 0 end
if status == 'pending' and redis.call('HGET', KEYS[1], 'tx_id') ~= ARGV[1] then return 0 end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'status', 'pending', 'tx_id', ARGV[1], 'last_valid', ARGV[2],
  'owner', ARGV[3], 'asset_name', ARGV[4], 'updated_at', ARGV[5])
return 1
`)

	recordConfirmedScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'status') == 'confirmed' then return 0 end
redis.call('HSET', KEYS[1], 'status', 'confirmed', 'tx_id', ARGV[1], 'asset_id', ARGV[2],
  'confirmed_round', ARGV[3], 'updated_at', ARGV[4])
return 1
`)

	clearPendingScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'status') == 'pending' and redis.call('HGET', KEYS[1], 'tx_id') == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)
)

type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(userID id.UserID) string {
	return s.prefix + userID.String()
}

func (s *RedisStore) Get(ctx context.Context, userID id.UserID) (*models.Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load mint record: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return decodeRecord(userID, fields)
}

func (s *RedisStore) RecordPending(ctx context.Context, record models.Record) error {
	ok, err := recordPendingScript.Run(ctx, s.client, []string{s.key(record.UserID)},
		record.TransactionID,
		strconv.FormatUint(record.LastValidRound, 10),
		record.OwnerAddress,
		record.AssetName,
		s.now().UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return fmt.Errorf("record pending mint: %w", err)
	}
	if ok == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisStore) RecordConfirmed(ctx context.Context, userID id.UserID, result models.Result) (bool, error) {
	ok, err := recordConfirmedScript.Run(ctx, s.client, []string{s.key(userID)},
		result.TransactionID,
		strconv.FormatUint(result.AssetID, 10),
		strconv.FormatUint(result.ConfirmedRound, 10),
		s.now().UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return false, fmt.Errorf("record confirmed mint: %w", err)
	}
	return ok == 1, nil
}

func (s *RedisStore) ClearPending(ctx context.Context, userID id.UserID, txID string) (bool, error) {
	ok, err := clearPendingScript.Run(ctx, s.client, []string{s.key(userID)}, txID).Int()
	if err != nil {
		return false, fmt.Errorf("clear pending mint: %w", err)
	}
	return ok == 1, nil
}

func decodeRecord(userID id.UserID, fields map[string]string) (*models.Record, error) {
	record := &models.Record{
		UserID:        userID,
		Status:        models.RecordStatus(fields["status"]),
		TransactionID: fields["tx_id"],
		OwnerAddress:  fields["owner"],
		AssetName:     fields["asset_name"],
	}
	var err error
	if record.LastValidRound, err = parseUint(fields["last_valid"]); err != nil {
		return nil, fmt.Errorf("decode last_valid: %w", err)
	}
	if raw := fields["updated_at"]; raw != "" {
		if record.UpdatedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, fmt.Errorf("decode updated_at: %w", err)
		}
	}
	if record.Status == models.RecordConfirmed {
		result := &models.Result{TransactionID: record.TransactionID}
		if result.AssetID, err = parseUint(fields["asset_id"]); err != nil {
			return nil, fmt.Errorf("decode asset_id: %w", err)
		}
		if result.ConfirmedRound, err = parseUint(fields["confirmed_round"]); err != nil {
			return nil, fmt.Errorf("decode confirmed_round: %w", err)
		}
		record.Result = result
	}
	return record, nil
}

func parseUint(raw string) (uint64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}
