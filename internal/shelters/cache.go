package shelters

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/furever-community/backend/internal/models"
)

const cacheKey = "shelters:all"

// Cache is a read-through Redis cache for the shelter list. Shelters
// are reference data seeded outside the API, so a TTL is the only
// invalidation.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get returns the cached shelter list, or ok=false on a miss or any
// Redis error (the caller falls back to the store).
func (c *Cache) Get(ctx context.Context) ([]models.Shelter, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var shelters []models.Shelter
	if err := json.Unmarshal(raw, &shelters); err != nil {
		return nil, false
	}
	return shelters, true
}

// Set stores the shelter list. Failures are ignored, the cache is
// best effort.
func (c *Cache) Set(ctx context.Context, shelters []models.Shelter) {
	raw, err := json.Marshal(shelters)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, cacheKey, raw, c.ttl)
}
