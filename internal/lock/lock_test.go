package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestKeyedMutex(t *testing.T) {
	ctx := context.Background()

	t.Run("serializes the same key", func(t *testing.T) {
		m := NewKeyedMutex()
		var inside, maxInside int32
		var mu sync.Mutex

		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < 20; i++ {
			g.Go(func() error {
				unlock, err := m.Lock(gctx, GroupKey("g1"))
				if err != nil {
					return err
				}
				defer unlock()
				n := atomic.AddInt32(&inside, 1)
				mu.Lock()
				if n > maxInside {
					maxInside = n
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}
		require.NoError(t, g.Wait())
		assert.Equal(t, int32(1), maxInside)
		assert.Empty(t, m.locks)
	})

	t.Run("different keys do not block", func(t *testing.T) {
		m := NewKeyedMutex()
		unlock, err := m.Lock(ctx, GroupKey("a"))
		require.NoError(t, err)
		defer unlock()

		tctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		unlockB, err := m.Lock(tctx, GroupKey("b"))
		require.NoError(t, err)
		unlockB()
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		m := NewKeyedMutex()
		unlock, err := m.Lock(ctx, "k")
		require.NoError(t, err)

		tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = m.Lock(tctx, "k")
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		unlock()
		unlock() // second call is a no-op

		again, err := m.Lock(ctx, "k")
		require.NoError(t, err)
		again()
	})
}

// TestRedisLocker_Integration requires a running Redis.
// We skip if connection fails.
func TestRedisLocker_Integration(t *testing.T) {
	locker := NewRedisLocker("localhost:6379", "", 0, 5*time.Second)
	defer locker.Close()
	ctx := context.Background()
	if err := locker.Ping(ctx); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	key := GroupKey("redis-test-" + time.Now().Format(time.RFC3339Nano))
	unlock, err := locker.Lock(ctx, key)
	require.NoError(t, err)

	tctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(tctx, key)
	assert.ErrorIs(t, err, ErrUnavailable)

	unlock()

	unlock2, err := locker.Lock(ctx, key)
	require.NoError(t, err)
	unlock2()
}

func TestRedisLocker_ExtendsHeldLock(t *testing.T) {
	locker := NewRedisLocker("localhost:6379", "", 0, 300*time.Millisecond)
	defer locker.Close()
	ctx := context.Background()
	if err := locker.Ping(ctx); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	key := GroupKey("redis-extend-" + time.Now().Format(time.RFC3339Nano))
	unlock, err := locker.Lock(ctx, key)
	require.NoError(t, err)

	// Hold the lock for several ttls.
	time.Sleep(time.Second)

	tctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(tctx, key)
	assert.ErrorIs(t, err, ErrUnavailable)

	var g errgroup.Group
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	again, err := locker.Lock(ctx, key)
	require.NoError(t, err)
	again()
}
