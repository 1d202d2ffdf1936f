package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"

	"github.com/mmynk/tontine/internal/auth"
	"github.com/mmynk/tontine/internal/metrics"
)

var ErrRateLimited = errors.New("too many requests, slow down")

// RateLimiter keeps one token bucket per caller. Authenticated calls are
// keyed by user ID, anonymous ones by peer address.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idle    time.Duration
	metrics *metrics.Collector

	mu       sync.Mutex
	limiters map[string]*callerLimiter
	lastGC   time.Time
}

type callerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rps requests per second per caller with bursts of
// burst. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int, m *metrics.Collector) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		idle:     10 * time.Minute,
		metrics:  m,
		limiters: make(map[string]*callerLimiter),
	}
}

// Allow reports whether key may make a request now.
func (r *RateLimiter) Allow(key string) bool {
	if r.limit <= 0 {
		return true
	}
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastGC) > r.idle {
		for k, l := range r.limiters {
			if now.Sub(l.lastSeen) > r.idle {
				delete(r.limiters, k)
			}
		}
		r.lastGC = now
	}

	l, ok := r.limiters[key]
	if !ok {
		l = &callerLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[key] = l
	}
	l.lastSeen = now
	return l.limiter.AllowN(now, 1)
}

// Interceptor rejects calls over the caller's budget with
// CodeResourceExhausted. Install it inside RequireAuth.
func (r *RateLimiter) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			key := auth.UserID(ctx)
			if key == "" {
				key = "peer:" + req.Peer().Addr
			}
			if !r.Allow(key) {
				r.metrics.RateLimited(req.Spec().Procedure)
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}
