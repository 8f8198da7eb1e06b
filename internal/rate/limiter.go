// Package rate limita requests por clave (IP, tenant) para los endpoints
// que disparan llamadas a Meta.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	rdb "github.com/redis/go-redis/v9"
	xrate "golang.org/x/time/rate"
)

type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// RedisLimiter: fixed window sencillo (INCR + EXPIRE NX), compartido entre réplicas.
type RedisLimiter struct {
	client *rdb.Client
	prefix string
	max    int64
	window time.Duration
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{client: client, prefix: prefix, max: int64(max), window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	winStart := time.Now().UTC().Truncate(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	hits := incr.Val()
	res := Result{Allowed: hits <= l.max, Remaining: max(l.max-hits, 0)}
	if !res.Allowed {
		res.RetryAfter = ttl.Val()
		if res.RetryAfter <= 0 {
			res.RetryAfter = l.window
		}
	}
	return res, nil
}

// MemoryLimiter: token bucket por clave para una sola instancia.
// Las claves inactivas se descartan del LRU tras una ventana.
type MemoryLimiter struct {
	buckets *expirable.LRU[string, *xrate.Limiter]
	limit   xrate.Limit
	burst   int
}

// NewMemoryLimiter permite max requests por window con ráfaga de max.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if max <= 0 {
		max = 1
	}
	return &MemoryLimiter{
		buckets: expirable.NewLRU[string, *xrate.Limiter](10000, nil, window),
		limit:   xrate.Every(window / time.Duration(max)),
		burst:   max,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	b, ok := l.buckets.Get(key)
	if !ok {
		b = xrate.NewLimiter(l.limit, l.burst)
		l.buckets.Add(key, b)
	}
	r := b.Reserve()
	if d := r.Delay(); d > 0 {
		r.Cancel()
		return Result{Allowed: false, RetryAfter: d}, nil
	}
	return Result{Allowed: true, Remaining: int64(b.Tokens())}, nil
}
