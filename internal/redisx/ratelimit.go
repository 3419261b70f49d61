package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter per identity.
type Limiter struct {
	rdb    *redis.Client
	window time.Duration
	now    func() time.Time
}

func NewLimiter(rdb *redis.Client, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{rdb: rdb, window: window, now: time.Now}
}

// Allow counts one hit for identity in the current window and reports whether
// the count is still within limit. A limit <= 0 disables the check.
func (l *Limiter) Allow(ctx context.Context, identity string, limit int) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	start := l.now().Truncate(l.window).Unix()
	key := fmt.Sprintf(KeyRateLimit, identity, start)

	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return true, err
	}
	return incr.Val() <= int64(limit), nil
}
