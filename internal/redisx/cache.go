package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

// OrderCache keeps order details (with items) for a short TTL. Entries are
// keyed by a per-order version that Invalidate bumps, so a reader that loaded
// the order before a write can only store its copy under a dead version.
type OrderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewOrderCache(rdb *redis.Client) *OrderCache {
	return &OrderCache{rdb: rdb, ttl: TTLOrderCache}
}

func (c *OrderCache) version(ctx context.Context, id int64) (int64, error) {
	v, err := c.rdb.Get(ctx, fmt.Sprintf(KeyOrderVersion, id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Get returns the cached order and the current version. On a miss the version
// is still returned; pass it to Set after loading the order.
func (c *OrderCache) Get(ctx context.Context, id int64) (restaurant.Order, int64, bool, error) {
	ver, err := c.version(ctx, id)
	if err != nil {
		return restaurant.Order{}, 0, false, err
	}
	b, err := c.rdb.Get(ctx, fmt.Sprintf(KeyOrder, id, ver)).Bytes()
	if errors.Is(err, redis.Nil) {
		return restaurant.Order{}, ver, false, nil
	}
	if err != nil {
		return restaurant.Order{}, ver, false, err
	}
	var o restaurant.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return restaurant.Order{}, ver, false, fmt.Errorf("decode cached order %d: %w", id, err)
	}
	return o, ver, true, nil
}

func (c *OrderCache) Set(ctx context.Context, o restaurant.Order, version int64) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf(KeyOrder, o.ID, version), b, c.ttl).Err()
}

func (c *OrderCache) Invalidate(ctx context.Context, id int64) error {
	key := fmt.Sprintf(KeyOrderVersion, id)
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, key)
		p.Expire(ctx, key, TTLOrderVersion)
		return nil
	})
	return err
}
