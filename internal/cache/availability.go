package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/profilehub/backend/internal/model"
)

const (
	// AvailabilityCachePrefix is the key prefix for availability results
	AvailabilityCachePrefix = "availability:username:"

	// AvailabilityCacheTTL is deliberately short. The cache only feeds the
	// advisory live check; the commit-time claim is atomic, so a stale hit
	// can never hand two users the same name.
	AvailabilityCacheTTL = 5 * time.Second
)

// AvailabilityCache caches recent username availability lookups.
// Using an interface enables testing with mocks and potential future backends.
type AvailabilityCache interface {
	// Get returns a cached result for a lowercase username.
	// found=false means a miss, not unavailability.
	Get(ctx context.Context, username string) (result model.Availability, found bool, err error)

	// Set stores a result under the lowercase username with a short TTL.
	Set(ctx context.Context, username string, result model.Availability) error

	// Invalidate drops a cached result, called after a successful claim so the
	// next live check sees the new owner immediately.
	Invalidate(ctx context.Context, username string) error
}

// RedisAvailabilityCache implements AvailabilityCache using plain SETEX keys.
type RedisAvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache creates a new AvailabilityCache backed by Redis.
func NewAvailabilityCache(client *redis.Client) AvailabilityCache {
	return &RedisAvailabilityCache{client: client}
}

func availabilityKey(username string) string {
	return AvailabilityCachePrefix + username
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, username string) (model.Availability, bool, error) {
	key := availabilityKey(username)

	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return model.Availability{}, false, nil
	}
	if err != nil {
		log.Printf("[AvailabilityCache] Get FAILED: username=%s err=%v", username, err)
		return model.Availability{}, false, fmt.Errorf("get availability: %w", err)
	}

	var result model.Availability
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// Treat a malformed entry as a miss and let it expire.
		log.Printf("[AvailabilityCache] Get parse error: username=%s err=%v", username, err)
		return model.Availability{}, false, nil
	}

	log.Printf("[AvailabilityCache] Get HIT: username=%s available=%t", username, result.Available)
	return result, true, nil
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, username string, result model.Availability) error {
	key := availabilityKey(username)

	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal availability: %w", err)
	}

	if err := c.client.Set(ctx, key, raw, AvailabilityCacheTTL).Err(); err != nil {
		log.Printf("[AvailabilityCache] Set FAILED: username=%s err=%v", username, err)
		return fmt.Errorf("set availability: %w", err)
	}
	return nil
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, username string) error {
	if err := c.client.Del(ctx, availabilityKey(username)).Err(); err != nil {
		log.Printf("[AvailabilityCache] Invalidate FAILED: username=%s err=%v", username, err)
		return fmt.Errorf("invalidate availability: %w", err)
	}
	return nil
}
