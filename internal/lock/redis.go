package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token.
// KEYS[1] = lock key
// ARGV[1] = token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript resets the lock's expiry only if it still holds our token.
// KEYS[1] = lock key
// ARGV[1] = token
// ARGV[2] = ttl in milliseconds
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

const (
	minRetry   = 10 * time.Millisecond
	maxRetry   = 200 * time.Millisecond
	defaultTTL = 30 * time.Second
)

// RedisLocker is a Locker shared by every process pointed at the same Redis.
// A held lock is extended every ttl/3 until it is released, so it expires
// after ttl only if its holder dies.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisLocker creates a locker on the Redis server at addr.
func NewRedisLocker(addr, password string, db int, ttl time.Duration) *RedisLocker {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if ttl < time.Millisecond {
		ttl = defaultTTL
	}
	return &RedisLocker{client: rdb, ttl: ttl, prefix: "tontine:lock:"}
}

// Ping checks that Redis is reachable.
func (r *RedisLocker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (r *RedisLocker) Close() error {
	return r.client.Close()
}

// Lock polls SET NX with backoff until it wins or ctx is done.
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := r.prefix + key
	token := uuid.New().String()
	wait := minRetry

	for {
		ok, err := r.client.SetNX(ctx, fullKey, token, r.ttl).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("redis lock error: %w", err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ErrUnavailable, ctx.Err())
		case <-timer.C:
		}
		wait = min(wait*2, maxRetry)
	}

	done := make(chan struct{})
	go r.keepAlive(fullKey, token, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			// Release on a fresh context so a canceled request still frees the lock.
			rctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, r.client, []string{fullKey}, token).Err(); err != nil {
				slog.Warn("Failed to release redis lock", "key", fullKey, "error", err)
			}
		})
	}, nil
}

// keepAlive extends the lock until done is closed or the lock is lost.
func (r *RedisLocker) keepAlive(key, token string, done <-chan struct{}) {
	interval := r.ttl / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		held, err := extendScript.Run(ctx, r.client, []string{key}, token, r.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			slog.Warn("Failed to extend redis lock", "key", key, "error", err)
		case held == 0:
			slog.Warn("Redis lock expired while held", "key", key)
			return
		}
	}
}
