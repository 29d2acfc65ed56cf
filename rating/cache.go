package rating

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Completed run payloads stay cached long enough to serve repeat result
// reads without hitting Postgres.
const resultCacheTTL = 6 * time.Hour

// ResultCache stores completed run results in Redis. A nil cache is valid
// and disables caching entirely.
type ResultCache struct {
	client *redis.Client
}

// NewResultCache connects a result cache to Redis. An empty address
// disables the cache.
func NewResultCache(addr, password string) *ResultCache {
	if addr == "" {
		return nil
	}
	return &ResultCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// Ping verifies the Redis connection.
func (c *ResultCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Set stores a completed run result for its target year.
func (c *ResultCache) Set(ctx context.Context, result *RunResult) error {
	if c == nil {
		return nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal run result: %w", err)
	}

	return c.client.Set(ctx, c.key(result.TargetYear), payload, resultCacheTTL).Err()
}

// Get loads the cached run result for a target year. The second return
// value reports a cache hit; cache errors read as misses.
func (c *ResultCache) Get(ctx context.Context, targetYear int) (*RunResult, bool) {
	if c == nil {
		return nil, false
	}

	payload, err := c.client.Get(ctx, c.key(targetYear)).Bytes()
	if err != nil {
		return nil, false
	}

	var result RunResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false
	}
	return &result, true
}

// Invalidate drops the cached result for a target year. Re-running the
// pipeline supersedes previous output, so the run path always invalidates
// before computing.
func (c *ResultCache) Invalidate(ctx context.Context, targetYear int) {
	if c == nil {
		return
	}
	c.client.Del(ctx, c.key(targetYear))
}

// Close releases the Redis connection.
func (c *ResultCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func (c *ResultCache) key(targetYear int) string {
	return fmt.Sprintf("rating:run:%d", targetYear)
}
