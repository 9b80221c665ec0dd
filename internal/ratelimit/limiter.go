// Package ratelimit bounds mutating requests per caller. A Redis fixed-window
// counter is shared across instances; a per-process token bucket takes over
// while Redis is failing.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"nftmarket/pkg/platform/circuit"
)

// Result is the outcome of one limiter check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	// Degraded is set when the fallback limiter answered.
	Degraded bool
}

// Limiter decides whether key may make one more request.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// MapLimiter applies a token bucket per key and periodically evicts idle entries.
type MapLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byKey   map[string]*entry
	hits    uint64
	idleTTL time.Duration
	now     func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMapLimiter creates a key-based limiter; returns nil if args are invalid.
func NewMapLimiter(rps float64, burst int, idleTTL time.Duration) *MapLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &MapLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		byKey:   make(map[string]*entry),
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

func (l *MapLimiter) Allow(_ context.Context, key string) (Result, error) {
	if l == nil {
		return Result{Allowed: true}, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Result{Allowed: true, Limit: l.burst, Remaining: l.burst}, nil
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}

	res := Result{
		Allowed:   allowed,
		Limit:     l.burst,
		Remaining: max(int(e.limiter.TokensAt(now)), 0),
	}
	if !allowed {
		res.RetryAfter = time.Duration(math.Ceil(float64(time.Second) / float64(l.limit)))
	}
	return res, nil
}

// RedisLimiter counts requests in fixed windows shared by every instance.
// A window admits burst requests and lasts burst/rps seconds.
type RedisLimiter struct {
	client redis.Cmdable
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client redis.Cmdable, rps float64, burst int) *RedisLimiter {
	window := time.Duration(float64(burst) / rps * float64(time.Second))
	if window < time.Second {
		window = time.Second
	}
	return &RedisLimiter{
		client: client,
		prefix: "nftmarket:ratelimit:",
		limit:  burst,
		window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, windowStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit counter: %w", err)
	}

	count := int(incr.Val())
	res := Result{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: max(l.limit-count, 0),
	}
	if !res.Allowed {
		res.RetryAfter = windowStart.Add(l.window).Sub(now)
	}
	return res, nil
}

// FailoverLimiter consults primary and answers from fallback while the
// primary's circuit is open.
type FailoverLimiter struct {
	primary  Limiter
	fallback Limiter
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewFailoverLimiter(primary, fallback Limiter, breaker *circuit.Breaker, logger *slog.Logger) *FailoverLimiter {
	return &FailoverLimiter{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
		logger:   logger,
	}
}

func (l *FailoverLimiter) Allow(ctx context.Context, key string) (Result, error) {
	res, err := l.primary.Allow(ctx, key)
	if err != nil {
		useFallback, change := l.breaker.RecordFailure()
		if change.Opened && l.logger != nil {
			l.logger.WarnContext(ctx, "rate limiter circuit opened, using in-memory fallback",
				"breaker", l.breaker.Name(),
				"error", err,
			)
		}
		if !useFallback {
			return Result{}, err
		}
		return l.degraded(ctx, key)
	}

	usePrimary, change := l.breaker.RecordSuccess()
	if change.Closed && l.logger != nil {
		l.logger.InfoContext(ctx, "rate limiter circuit closed", "breaker", l.breaker.Name())
	}
	if !usePrimary {
		return l.degraded(ctx, key)
	}
	return res, nil
}

func (l *FailoverLimiter) degraded(ctx context.Context, key string) (Result, error) {
	res, err := l.fallback.Allow(ctx, key)
	res.Degraded = true
	return res, err
}
