package redisx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// OrderCache keeps full order payloads so repeated GETs skip the join
// queries. Cache failures are never surfaced; the database stays the
// source of truth.
type OrderCache struct{ R *redis.Client }

func (c *OrderCache) Put(ctx context.Context, orderID string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	key := fmt.Sprintf(KeyOrderSnapshot, orderID)
	_ = c.R.Set(ctx, key, b, TTLOrderSnapshot).Err()
}

func (c *OrderCache) Get(ctx context.Context, orderID string, out any) bool {
	key := fmt.Sprintf(KeyOrderSnapshot, orderID)
	s, err := c.R.Get(ctx, key).Result()
	if err != nil || s == "" {
		return false
	}
	return json.Unmarshal([]byte(s), out) == nil
}

func (c *OrderCache) Invalidate(ctx context.Context, orderID string) {
	key := fmt.Sprintf(KeyOrderSnapshot, orderID)
	_ = c.R.Del(ctx, key).Err()
}
