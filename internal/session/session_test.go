package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()

	s, err := store.Create(ctx, userID, "jo@example.com", time.Hour)
	require.NoError(t, err)
	assert.Len(t, s.Token, 64)

	got, err := store.Get(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "jo@example.com", got.Email)

	require.NoError(t, store.Delete(ctx, s.Token))
	_, err = store.Get(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	s, err := store.Create(ctx, uuid.New(), "jo@example.com", time.Minute)
	require.NoError(t, err)

	_, err = store.Get(ctx, s.Token)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUnknownToken(t *testing.T) {
	_, err := NewMemoryStore().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDeleteAbsent(t *testing.T) {
	assert.NoError(t, NewMemoryStore().Delete(context.Background(), "nope"))
}

func TestMemoryStoreTokensAreUnique(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, err := store.Create(ctx, uuid.New(), "jo@example.com", time.Hour)
		require.NoError(t, err)
		require.False(t, seen[s.Token])
		seen[s.Token] = true
	}
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)
	userID := uuid.New()

	s, err := store.Create(ctx, userID, "jo@example.com", time.Hour)
	require.NoError(t, err)

	got, err := store.Get(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)

	require.NoError(t, store.Delete(ctx, s.Token))
	_, err = store.Get(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	s, err := store.Create(ctx, uuid.New(), "jo@example.com", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreDeleteAbsent(t *testing.T) {
	store, _ := newRedisStore(t)
	assert.NoError(t, store.Delete(context.Background(), "nope"))
}
