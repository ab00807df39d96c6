package feed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verimint/internal/verification/models"
	id "verimint/pkg/domain"
)

func newRedisFeed(t *testing.T) (*RedisFeed, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "profiles_changes:"), mr
}

func TestRedisFeedDeliversOwnChannel(t *testing.T) {
	f, _ := newRedisFeed(t)
	ctx := context.Background()
	userID := id.UserID(uuid.New())

	sub, err := f.Subscribe(ctx, userID)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, f.Publish(ctx, models.StatusChange{UserID: id.UserID(uuid.New()), KYCVerified: true}))
	require.NoError(t, f.Publish(ctx, models.StatusChange{UserID: userID, KYCVerified: true}))

	select {
	case got := <-sub.Changes():
		assert.Equal(t, userID, got.UserID)
		assert.True(t, got.KYCVerified)
	case <-time.After(2 * time.Second):
		t.Fatal("change not delivered")
	}
}

func TestRedisFeedReportsMalformedPayload(t *testing.T) {
	f, mr := newRedisFeed(t)
	userID := id.UserID(uuid.New())

	sub, err := f.Subscribe(context.Background(), userID)
	require.NoError(t, err)
	defer sub.Close()

	mr.Publish("profiles_changes:"+userID.String(), "{not json")

	select {
	case err := <-sub.Errors():
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("error not reported")
	}
}

func TestRedisFeedCloseStopsPump(t *testing.T) {
	f, _ := newRedisFeed(t)
	sub, err := f.Subscribe(context.Background(), id.UserID(uuid.New()))
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case _, open := <-sub.Changes():
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("changes channel not closed")
	}
}
