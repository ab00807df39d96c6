package authorization

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verimint/internal/wallet/models"
	"verimint/internal/wallet/ports"
	"verimint/pkg/platform/sentinel"
)

func TestStores(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stores := map[string]ports.AuthorizationCache{
		"memory": NewInMemory(),
		"redis":  NewRedis(client),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Load(ctx)
			assert.ErrorIs(t, err, sentinel.ErrNotFound)

			auth := models.Authorization{Address: "ADDR", AuthorizedAt: time.Unix(1700000000, 0).UTC()}
			require.NoError(t, store.Save(ctx, auth))

			got, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, auth.Address, got.Address)
			assert.True(t, auth.AuthorizedAt.Equal(got.AuthorizedAt))

			require.NoError(t, store.Clear(ctx))
			require.NoError(t, store.Clear(ctx))
			_, err = store.Load(ctx)
			assert.ErrorIs(t, err, sentinel.ErrNotFound)
		})
	}
}

func TestRedisStoreExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedis(client, WithKey("test:wallet"), WithTTL(time.Minute))
	require.NoError(t, store.Save(context.Background(), models.Authorization{Address: "ADDR"}))
	assert.True(t, mr.Exists("test:wallet"))

	mr.FastForward(2 * time.Minute)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
