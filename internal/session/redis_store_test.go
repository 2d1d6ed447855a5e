package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func testSession(ttl time.Duration) Session {
	now := time.Now().UTC().Truncate(time.Second)
	return Session{
		SessionID: "sid-1",
		User:      User{ID: "u1", Email: "jane@example.com", Name: "Jane"},
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestRedisStoreCreateGet(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	s := testSession(time.Hour)

	require.NoError(t, store.Create(ctx, s))

	got, err := store.Get(ctx, s.SessionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.User, got.User)
	assert.True(t, s.ExpiresAt.Equal(got.ExpiresAt))
	assert.True(t, s.CreatedAt.Equal(got.CreatedAt))

	assert.True(t, mr.Exists("session:sid-1"))
	assert.Greater(t, mr.TTL("session:sid-1"), 59*time.Minute)
}

func TestRedisStoreGetMissing(t *testing.T) {
	store, _ := newTestStore(t)

	got, err := store.Get(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreCreateValidation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	s := testSession(time.Hour)
	s.User.ID = ""
	assert.Error(t, store.Create(ctx, s))

	expired := testSession(-time.Minute)
	assert.Error(t, store.Create(ctx, expired))
}

func TestRedisStoreUpdateExpiredDeletes(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	s := testSession(time.Hour)
	require.NoError(t, store.Create(ctx, s))

	s.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, store.Update(ctx, s))

	assert.False(t, mr.Exists("session:sid-1"))
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	s := testSession(time.Hour)
	require.NoError(t, store.Create(ctx, s))

	require.NoError(t, store.Delete(ctx, s.SessionID))

	got, err := store.Get(ctx, s.SessionID)
	assert.NoError(t, err)
	assert.Nil(t, got)
}
