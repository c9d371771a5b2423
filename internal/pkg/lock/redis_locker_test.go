package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLocker(rdb, time.Minute), mr
}

func TestRedisLocker_TryLock(t *testing.T) {
	locker, mr := newTestRedisLocker(t)
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "session:1:turn")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("lock:session:1:turn"))

	_, ok, err = locker.TryLock(ctx, "session:1:turn")
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.False(t, mr.Exists("lock:session:1:turn"))
}

func TestRedisLocker_ReleaseDoesNotDeleteForeignToken(t *testing.T) {
	locker, mr := newTestRedisLocker(t)
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	// The lock expired and someone else took it.
	mr.FastForward(2 * time.Minute)
	require.NoError(t, mr.Set("lock:k", "someone-else"))

	release()
	value, err := mr.Get("lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", value)
}

func TestRedisLocker_LockWaitsForRelease(t *testing.T) {
	locker, _ := newTestRedisLocker(t)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "k")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := locker.Lock(ctx, "k")
		if err == nil {
			second()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock returned while the key was held")
	case <-time.After(60 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired")
	}
}
