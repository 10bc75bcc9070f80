package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestWithClientLockRunsAndReleases(t *testing.T) {
	mr, rdb := newTestRedis(t)
	locker := NewRedisClientLocker(rdb, 5*time.Second)
	clientID := uuid.New()

	called := false
	err := locker.WithClientLock(context.Background(), clientID, func(ctx context.Context) error {
		called = true
		assert.True(t, mr.Exists(clientLockKey(clientID)), "lock key should be held inside fn")
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, mr.Exists(clientLockKey(clientID)), "lock key should be released")
}

func TestWithClientLockContention(t *testing.T) {
	mr, rdb := newTestRedis(t)
	locker := NewRedisClientLocker(rdb, 5*time.Second)
	clientID := uuid.New()

	require.NoError(t, mr.Set(clientLockKey(clientID), "someone-else"))

	err := locker.WithClientLock(context.Background(), clientID, func(ctx context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})

	assert.ErrorIs(t, err, ErrLockNotAcquired)
	got, _ := mr.Get(clientLockKey(clientID))
	assert.Equal(t, "someone-else", got, "foreign lock must not be released")
}

func TestWithClientLockIsPerClient(t *testing.T) {
	_, rdb := newTestRedis(t)
	locker := NewRedisClientLocker(rdb, 5*time.Second)
	first, second := uuid.New(), uuid.New()

	err := locker.WithClientLock(context.Background(), first, func(ctx context.Context) error {
		return locker.WithClientLock(ctx, second, func(context.Context) error { return nil })
	})
	require.NoError(t, err)
}

func TestWithClientLockPropagatesError(t *testing.T) {
	mr, rdb := newTestRedis(t)
	locker := NewRedisClientLocker(rdb, 5*time.Second)
	clientID := uuid.New()
	boom := errors.New("boom")

	err := locker.WithClientLock(context.Background(), clientID, func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(clientLockKey(clientID)))
}

func TestMarkOnce(t *testing.T) {
	mr, rdb := newTestRedis(t)
	marker := NewRedisMarker(rdb, "overdue:notified:")
	ctx := context.Background()

	first, err := marker.MarkOnce(ctx, "a1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := marker.MarkOnce(ctx, "a1", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	mr.FastForward(2 * time.Hour)

	afterExpiry, err := marker.MarkOnce(ctx, "a1", time.Hour)
	require.NoError(t, err)
	assert.True(t, afterExpiry)
}

func TestNewRedisClientPings(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	rdb, err := NewRedisClient(context.Background(), addr, "", "")
	require.NoError(t, err)
	require.NoError(t, rdb.Close())

	mr.Close()
	_, err = NewRedisClient(context.Background(), addr, "", "")
	assert.Error(t, err)
}
