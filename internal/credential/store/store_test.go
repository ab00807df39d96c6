package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "verimint/pkg/domain"
)

type flagStore interface {
	Set(ctx context.Context, userID id.UserID) error
	Has(ctx context.Context, userID id.UserID) (bool, error)
}

func TestFlagStores(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	for name, store := range map[string]flagStore{
		"memory": NewInMemory(),
		"redis":  NewRedis(client),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			userID := id.UserID(uuid.New())
			other := id.UserID(uuid.New())

			has, err := store.Has(ctx, userID)
			require.NoError(t, err)
			assert.False(t, has)

			require.NoError(t, store.Set(ctx, userID))
			require.NoError(t, store.Set(ctx, userID))

			has, err = store.Has(ctx, userID)
			require.NoError(t, err)
			assert.True(t, has)

			has, err = store.Has(ctx, other)
			require.NoError(t, err)
			assert.False(t, has)
		})
	}
}
