package redisx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

// Inbox stores the newest notifications of each user in a capped list.
type Inbox struct {
	rdb *redis.Client
	max int64
}

func NewInbox(rdb *redis.Client) *Inbox {
	return &Inbox{rdb: rdb, max: MaxNotifications}
}

func (in *Inbox) Push(ctx context.Context, userID int64, n restaurant.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(KeyNotifications, userID)
	_, err = in.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, b)
		p.LTrim(ctx, key, 0, in.max-1)
		p.Expire(ctx, key, TTLNotifications)
		return nil
	})
	return err
}

// List returns up to limit notifications, newest first.
func (in *Inbox) List(ctx context.Context, userID int64, limit int) ([]restaurant.Notification, error) {
	if limit <= 0 || int64(limit) > in.max {
		limit = int(in.max)
	}
	raw, err := in.rdb.LRange(ctx, fmt.Sprintf(KeyNotifications, userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]restaurant.Notification, 0, len(raw))
	for _, s := range raw {
		var n restaurant.Notification
		if err := json.Unmarshal([]byte(s), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
