package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smarttransit/rail-booking-core/internal/models"
)

const searchKeyPrefix = "rail:search:"

// NewRedisClient connects to the Redis instance at url (redis://[:password@]host:port/db)
// and verifies it answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// SearchCache keeps ranked itinerary lists in Redis as JSON
type SearchCache struct {
	client redis.Cmdable
}

// NewSearchCache creates a new Redis backed search cache
func NewSearchCache(client redis.Cmdable) *SearchCache {
	return &SearchCache{client: client}
}

// Get returns the cached itineraries for key. A miss is (nil, false, nil).
func (c *SearchCache) Get(ctx context.Context, key string) ([]models.Itinerary, bool, error) {
	raw, err := c.client.Get(ctx, searchKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read search cache: %w", err)
	}

	var its []models.Itinerary
	if err := json.Unmarshal(raw, &its); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached itineraries: %w", err)
	}
	return its, true, nil
}

// Set stores itineraries under key for ttl
func (c *SearchCache) Set(ctx context.Context, key string, its []models.Itinerary, ttl time.Duration) error {
	raw, err := json.Marshal(its)
	if err != nil {
		return fmt.Errorf("failed to encode itineraries: %w", err)
	}
	if err := c.client.Set(ctx, searchKey(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write search cache: %w", err)
	}
	return nil
}

func searchKey(key string) string {
	return searchKeyPrefix + key
}
