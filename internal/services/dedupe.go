package services

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const replayCacheTTL = 24 * time.Hour

// ReplayCache is the redis-backed ReplayTracker. The unique constraint on
// transaction_id remains the authority for deduplication.
type ReplayCache struct {
	redis *redis.Client
}

func NewReplayCache(redis *redis.Client) *ReplayCache {
	return &ReplayCache{redis: redis}
}

func (c *ReplayCache) Seen(ctx context.Context, transactionID string) (bool, error) {
	if transactionID == "" {
		return false, nil
	}
	n, err := c.redis.Exists(ctx, replayKey(transactionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *ReplayCache) Mark(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return nil
	}
	return c.redis.Set(ctx, replayKey(transactionID), 1, replayCacheTTL).Err()
}

func replayKey(transactionID string) string {
	return "webhook:tx:" + transactionID
}
