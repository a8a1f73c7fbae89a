package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ideogrid/internal/model"
)

// TallyCache keeps aggregate result counters in Redis sorted sets
type TallyCache interface {
	Increment(ctx context.Context, kind model.TallyKind, key string) error
	Set(ctx context.Context, kind model.TallyKind, key string, count int64) error
	Top(ctx context.Context, kind model.TallyKind, limit int) ([]model.TallyEntry, error)
}

type tallyCache struct {
	client *redis.Client
}

// NewTallyCache creates a new tally cache
func NewTallyCache(client *redis.Client) TallyCache {
	return &tallyCache{
		client: client,
	}
}

func tallyKey(kind model.TallyKind) string {
	return fmt.Sprintf("quiz:tally:%s", kind)
}

func (c *tallyCache) Increment(ctx context.Context, kind model.TallyKind, key string) error {
	return c.client.ZIncrBy(ctx, tallyKey(kind), 1, key).Err()
}

func (c *tallyCache) Set(ctx context.Context, kind model.TallyKind, key string, count int64) error {
	return c.client.ZAdd(ctx, tallyKey(kind), redis.Z{
		Score:  float64(count),
		Member: key,
	}).Err()
}

func (c *tallyCache) Top(ctx context.Context, kind model.TallyKind, limit int) ([]model.TallyEntry, error) {
	if limit < 1 {
		return nil, nil
	}
	results, err := c.client.ZRevRangeWithScores(ctx, tallyKey(kind), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.TallyEntry, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		entries[i] = model.TallyEntry{
			Key:   member,
			Count: int64(z.Score),
			Rank:  i + 1,
		}
	}
	return entries, nil
}
