package services

import (
	"context"
	"sync"
	"time"

	"productos_catalog/structs"

	"github.com/MonkyMars/gecho"
	"golang.org/x/time/rate"
)

// RateLimitResult describes the outcome of counting one request
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	Window    time.Duration
}

// RateLimiter counts requests per client key
type RateLimiter interface {
	Hit(ctx context.Context, key string) (RateLimitResult, error)
}

// NewRateLimiter picks the backend named in the configuration
func NewRateLimiter(logger *gecho.Logger, cfg *structs.RateLimitConfig, cache *CacheService) RateLimiter {
	if cfg.Backend == "redis" && cache != nil {
		return &RedisRateLimiter{cache: cache, limit: cfg.Limit, window: cfg.Window}
	}
	if cfg.Backend != "memory" {
		logger.Warn("Unknown rate limit backend, using memory", gecho.Field("backend", cfg.Backend))
	}
	return NewMemoryRateLimiter(cfg.Limit, cfg.Window)
}

// RedisRateLimiter keeps fixed-window counters in Redis so limits hold across replicas
type RedisRateLimiter struct {
	cache  *CacheService
	limit  int
	window time.Duration
}

func (rl *RedisRateLimiter) Hit(ctx context.Context, key string) (RateLimitResult, error) {
	count, err := rl.cache.IncrementRateLimit(ctx, key, rl.window)
	if err != nil {
		return RateLimitResult{}, err
	}

	return RateLimitResult{
		Allowed:   count <= rl.limit,
		Limit:     rl.limit,
		Remaining: max(0, rl.limit-count),
		Window:    rl.window,
	}, nil
}

// MemoryRateLimiter keeps one token bucket per key in process memory. Buckets idle for longer
// than the window are full again, so they are dropped and recreated on the next hit.
type MemoryRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   max(1, limit),
		window:  window,
		now:     time.Now,
	}
}

func (rl *MemoryRateLimiter) Hit(_ context.Context, key string) (RateLimitResult, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit)}
		rl.buckets[key] = b
	}
	b.lastSeen = now

	allowed := b.lim.AllowN(now, 1)
	return RateLimitResult{
		Allowed:   allowed,
		Limit:     rl.limit,
		Remaining: max(0, int(b.lim.TokensAt(now))),
		Window:    rl.window,
	}, nil
}

// sweep drops idle buckets at most once per window. Callers hold rl.mu.
func (rl *MemoryRateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.window {
			delete(rl.buckets, key)
		}
	}
}

// Len reports how many client buckets are currently tracked
func (rl *MemoryRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}
