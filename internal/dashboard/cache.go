package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache stores computed metrics in Redis with a TTL. Failures degrade to a
// cache miss; the store remains the source of truth.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache builds a Cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

var _ CachePort = (*Cache)(nil)

func metricsKey(userID uuid.UUID) string {
	return "dashboard:metrics:" + userID.String()
}

// GetMetrics fetches cached metrics for the user.
func (c *Cache) GetMetrics(ctx context.Context, userID uuid.UUID) (Metrics, bool) {
	data, err := c.client.Get(ctx, metricsKey(userID)).Bytes()
	if err != nil {
		return Metrics{}, false
	}
	var m Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return Metrics{}, false
	}
	return m, true
}

// SetMetrics caches metrics for the user. Best effort.
func (c *Cache) SetMetrics(ctx context.Context, userID uuid.UUID, m Metrics) {
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, metricsKey(userID), data, c.ttl).Err()
}

// Invalidate drops cached metrics for the given users after a committed
// booking or cancellation.
func (c *Cache) Invalidate(ctx context.Context, userIDs []uuid.UUID) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, metricsKey(id))
	}
	_ = c.client.Del(ctx, keys...).Err()
}
