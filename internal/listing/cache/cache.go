package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"kosfinder/internal/listing/models"
)

const keyPrefix = "kosfinder:markers:"

// MarkerCache keeps marker query results in Redis for a short TTL. Every
// failure degrades to a miss so the registry keeps serving from the store
// when Redis is down.
type MarkerCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewMarkerCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *MarkerCache {
	return &MarkerCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached markers for the filter set, or ok=false on a miss.
func (c *MarkerCache) Get(ctx context.Context, filters models.Filters) ([]models.Marker, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, cacheKey(filters)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "marker cache read failed", "error", err)
		}
		return nil, false
	}
	var markers []models.Marker
	if err := json.Unmarshal(payload, &markers); err != nil {
		c.logger.WarnContext(ctx, "marker cache payload corrupt", "error", err)
		return nil, false
	}
	return markers, true
}

// Set stores the markers for the filter set. Errors are logged, not returned.
func (c *MarkerCache) Set(ctx context.Context, filters models.Filters, markers []models.Marker) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(markers)
	if err != nil {
		c.logger.WarnContext(ctx, "marker cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, cacheKey(filters), payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "marker cache write failed", "error", err)
	}
}

// Invalidate drops every cached marker set. Called after any listing
// mutation; filter combinations are unbounded so we sweep the prefix.
func (c *MarkerCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WarnContext(ctx, "marker cache scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "marker cache invalidation failed", "error", err)
	}
}

func cacheKey(f models.Filters) string {
	gender := ""
	if f.Gender != nil {
		gender = string(*f.Gender)
	}
	minPrice, maxPrice := "", ""
	if f.MinPrice != nil {
		minPrice = strconv.FormatInt(*f.MinPrice, 10)
	}
	if f.MaxPrice != nil {
		maxPrice = strconv.FormatInt(*f.MaxPrice, 10)
	}
	maxDist := ""
	if f.MaxDistanceKM != nil {
		maxDist = strconv.FormatFloat(*f.MaxDistanceKM, 'f', -1, 64)
	}
	return fmt.Sprintf("%s%s:%s:%s:%s:%t", keyPrefix, gender, minPrice, maxPrice, maxDist, f.AvailableOnly)
}
