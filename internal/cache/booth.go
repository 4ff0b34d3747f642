package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/chalkak/chalkak-server/internal/domain"
)

const (
	boothGeoKey  = "booths:geo"
	boothDataKey = "booths:data"
)

// BoothCache keeps booth locations in a Redis geo set alongside their
// serialized records, so nearby lookups can be answered without hitting
// PostgreSQL.
type BoothCache struct {
	client *redis.Client
}

// NewBoothCache creates a booth cache backed by the given Redis client.
func NewBoothCache(client *redis.Client) *BoothCache {
	return &BoothCache{client: client}
}

// Add inserts or refreshes a booth in the cache.
func (c *BoothCache) Add(ctx context.Context, booth *domain.Booth) error {
	data, err := json.Marshal(booth)
	if err != nil {
		return fmt.Errorf("marshal booth: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.GeoAdd(ctx, boothGeoKey, &redis.GeoLocation{
		Name:      booth.ID,
		Longitude: booth.Longitude,
		Latitude:  booth.Latitude,
	})
	pipe.HSet(ctx, boothDataKey, booth.ID, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache booth %s: %w", booth.ID, err)
	}

	return nil
}

// Remove evicts a booth from the cache.
func (c *BoothCache) Remove(ctx context.Context, boothID string) error {
	pipe := c.client.TxPipeline()
	pipe.ZRem(ctx, boothGeoKey, boothID)
	pipe.HDel(ctx, boothDataKey, boothID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("evict booth %s: %w", boothID, err)
	}

	return nil
}

// Warm replaces the cached booth set with the given booths.
func (c *BoothCache) Warm(ctx context.Context, booths []domain.Booth) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, boothGeoKey, boothDataKey)
	for i := range booths {
		b := &booths[i]
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal booth %s: %w", b.ID, err)
		}
		pipe.GeoAdd(ctx, boothGeoKey, &redis.GeoLocation{
			Name:      b.ID,
			Longitude: b.Longitude,
			Latitude:  b.Latitude,
		})
		pipe.HSet(ctx, boothDataKey, b.ID, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("warm booth cache: %w", err)
	}

	return nil
}

// Nearby returns booths within radiusMeters of the given point, closest
// first. ok is false when the geo set is empty, meaning the caller should
// fall back to the database.
func (c *BoothCache) Nearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.BoothWithDistance, bool, error) {
	size, err := c.client.ZCard(ctx, boothGeoKey).Result()
	if err != nil {
		return nil, false, fmt.Errorf("check booth cache: %w", err)
	}
	if size == 0 {
		return nil, false, nil
	}

	locs, err := c.client.GeoSearchLocation(ctx, boothGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lng,
			Latitude:   lat,
			Radius:     radiusMeters,
			RadiusUnit: "m",
			Sort:       "ASC",
			Count:      limit,
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, false, fmt.Errorf("geo search booths: %w", err)
	}

	results := make([]domain.BoothWithDistance, 0, len(locs))
	for _, loc := range locs {
		raw, err := c.client.HGet(ctx, boothDataKey, loc.Name).Result()
		if err != nil {
			// A missing record means the cache is out of sync; fall back.
			return nil, false, nil
		}
		var booth domain.Booth
		if err := json.Unmarshal([]byte(raw), &booth); err != nil {
			return nil, false, fmt.Errorf("unmarshal cached booth %s: %w", loc.Name, err)
		}
		results = append(results, domain.BoothWithDistance{
			Booth:          booth,
			DistanceMeters: loc.Dist,
		})
	}

	return results, true, nil
}
