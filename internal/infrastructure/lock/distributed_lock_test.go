package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestDistributedLock_Exclusive(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	first := NewProvisionLock(client, "uid-1", "owner-a")
	second := NewProvisionLock(client, "uid-1", "owner-b")

	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("provision:lock:user:uid-1"))

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// 其他持有者释放不掉
	released, err := second.Unlock(ctx)
	require.NoError(t, err)
	assert.False(t, released)
	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	released, err = first.Unlock(ctx)
	require.NoError(t, err)
	assert.True(t, released)
	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDistributedLock_LockGivesUp(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()

	holder := NewDistributedLock(client, "k", "a", time.Minute)
	require.NoError(t, holder.Lock(ctx, time.Millisecond, 1))

	waiter := NewDistributedLock(client, "k", "b", time.Minute)
	assert.ErrorIs(t, waiter.Lock(ctx, time.Millisecond, 3), ErrLockFailed)
}

func TestDistributedLock_Expires(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	holder := NewProvisionLock(client, "uid-2", "a")
	require.NoError(t, holder.Lock(ctx, time.Millisecond, 1))

	mr.FastForward(11 * time.Second)

	waiter := NewProvisionLock(client, "uid-2", "b")
	assert.NoError(t, waiter.Lock(ctx, time.Millisecond, 1))

	released, err := holder.Unlock(ctx)
	require.NoError(t, err)
	assert.False(t, released)
	assert.True(t, mr.Exists("provision:lock:user:uid-2"))
}

func TestDistributedLock_WithLock(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	l := NewProvisionLock(client, "uid-3", "a")
	called := false
	err := l.WithLock(ctx, time.Millisecond, 1, func() error {
		called = true
		assert.True(t, mr.Exists("provision:lock:user:uid-3"))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, mr.Exists("provision:lock:user:uid-3"))

	// fn 出错也会释放
	boom := errors.New("boom")
	assert.ErrorIs(t, l.WithLock(ctx, time.Millisecond, 1, func() error { return boom }), boom)
	assert.False(t, mr.Exists("provision:lock:user:uid-3"))
}

func TestDistributedLock_WithLockBusy(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()

	holder := NewProvisionLock(client, "uid-4", "a")
	require.NoError(t, holder.Lock(ctx, time.Millisecond, 1))

	called := false
	err := NewProvisionLock(client, "uid-4", "b").WithLock(ctx, time.Millisecond, 2, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockFailed)
	assert.False(t, called)
}

func TestDistributedLock_ReleasesAfterCancel(t *testing.T) {
	mr, client := newRedis(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := NewProvisionLock(client, "uid-5", "a").WithLock(ctx, time.Millisecond, 1, func() error {
		cancel()
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("provision:lock:user:uid-5"))
}
