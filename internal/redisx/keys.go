package redisx

import "time"

const (
	// Fixed rate-limit window: ratelimit:{identity}:{window start unix}
	KeyRateLimit = "ratelimit:%s:%d"

	// Cached order detail with items: order:{order_id}:v{version} -> JSON
	KeyOrder = "order:%d:v%d"

	// Order cache generation, bumped on every write: order:{order_id}:ver
	KeyOrderVersion = "order:%d:ver"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Capped notification list per user: notifications:{user_id}
	KeyNotifications = "notifications:%d"
)

var (
	TTLOrderCache    = 5 * time.Minute
	TTLOrderVersion  = 24 * time.Hour
	TTLDedup         = 48 * time.Hour
	TTLNotifications = 30 * 24 * time.Hour

	MaxNotifications int64 = 50
)
