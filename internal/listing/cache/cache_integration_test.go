//go:build integration

package cache_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kosfinder/internal/listing/cache"
	"kosfinder/internal/listing/models"
	"kosfinder/pkg/testutil/containers"
)

func TestMarkerCacheRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	c := cache.NewMarkerCache(rc.Client, time.Minute, slog.Default())

	markers := []models.Marker{
		{ID: 1, Title: "Kos Melati", Slug: "kos-melati", Gender: models.GenderPutri,
			MonthlyPrice: 750_000, DistanceToCampusKM: 1.2, AvailableRooms: 3},
	}

	_, ok := c.Get(ctx, models.Filters{})
	assert.False(t, ok, "cold cache misses")

	c.Set(ctx, models.Filters{}, markers)
	got, ok := c.Get(ctx, models.Filters{})
	require.True(t, ok)
	assert.Equal(t, markers, got)

	putri := models.GenderPutri
	_, ok = c.Get(ctx, models.Filters{Gender: &putri})
	assert.False(t, ok, "filter sets are keyed separately")
}

func TestMarkerCacheInvalidateSweepsAllFilterSets(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	c := cache.NewMarkerCache(rc.Client, time.Minute, slog.Default())

	putri := models.GenderPutri
	c.Set(ctx, models.Filters{}, []models.Marker{{ID: 1}})
	c.Set(ctx, models.Filters{Gender: &putri}, []models.Marker{{ID: 2}})

	c.Invalidate(ctx)

	_, ok := c.Get(ctx, models.Filters{})
	assert.False(t, ok)
	_, ok = c.Get(ctx, models.Filters{Gender: &putri})
	assert.False(t, ok)
}

func TestMarkerCacheTTLExpires(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	c := cache.NewMarkerCache(rc.Client, time.Second, slog.Default())

	c.Set(ctx, models.Filters{}, []models.Marker{{ID: 1}})
	require.Eventually(t, func() bool {
		_, ok := c.Get(ctx, models.Filters{})
		return !ok
	}, 5*time.Second, 200*time.Millisecond)
}
