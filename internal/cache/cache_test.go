package cache

import (
	"context"
	"testing"
	"time"

	"drink-rating/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client, time.Minute, zerolog.Nop()), mr
}

func TestRedisCache_Summary(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, version, ok := c.GetSummary(ctx, 1)
	assert.False(t, ok)
	assert.Equal(t, Version(0), version)

	c.SetSummary(ctx, version, &model.RatingSummary{DrinkID: 1, Count: 3, Average: 4.33})

	got, _, ok := c.GetSummary(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, int64(3), got.Count)
	assert.Equal(t, 4.33, got.Average)
	assert.Equal(t, time.Minute, mr.TTL(SummaryKey(1)))
}

func TestRedisCache_Dashboard(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	dashboard := &model.Dashboard{
		Drinks: []model.DrinkStats{{ID: 2, Name: "Negroni", RatingCount: 1, AverageRating: 5}},
		Stats:  model.DashboardTotals{TotalDrinks: 1, TotalRatings: 1},
	}
	_, version, _ := c.GetDashboard(ctx)
	c.SetDashboard(ctx, version, dashboard)

	got, _, ok := c.GetDashboard(ctx)
	require.True(t, ok)
	assert.Equal(t, dashboard.Stats, got.Stats)
	require.Len(t, got.Drinks, 1)
	assert.Equal(t, "Negroni", got.Drinks[0].Name)
}

func TestRedisCache_InvalidateDrink(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.SetSummary(ctx, 0, &model.RatingSummary{DrinkID: 1, Count: 1, Average: 5})
	c.SetSummary(ctx, 0, &model.RatingSummary{DrinkID: 2, Count: 1, Average: 3})
	c.SetDashboard(ctx, 0, &model.Dashboard{Drinks: []model.DrinkStats{}})

	c.InvalidateDrink(ctx, 1)

	assert.False(t, mr.Exists(SummaryKey(1)))
	assert.False(t, mr.Exists(dashboardKey))
	assert.True(t, mr.Exists(SummaryKey(2)))

	_, version, ok := c.GetSummary(ctx, 1)
	assert.False(t, ok)
	assert.Equal(t, Version(1), version)
	_, version, ok = c.GetDashboard(ctx)
	assert.False(t, ok)
	assert.Equal(t, Version(1), version)
	_, _, ok = c.GetSummary(ctx, 2)
	assert.True(t, ok)
}

func TestRedisCache_StaleWriteAfterInvalidation(t *testing.T) {
	ctx := context.Background()

	t.Run("Summary", func(t *testing.T) {
		c, _ := newTestCache(t)

		// A reader misses, a rating lands, then the reader stores what it
		// computed before the rating.
		_, version, ok := c.GetSummary(ctx, 7)
		require.False(t, ok)
		c.InvalidateDrink(ctx, 7)
		c.SetSummary(ctx, version, &model.RatingSummary{DrinkID: 7, Count: 1, Average: 2})

		_, fresh, ok := c.GetSummary(ctx, 7)
		assert.False(t, ok, "value computed before invalidation must not be served")

		c.SetSummary(ctx, fresh, &model.RatingSummary{DrinkID: 7, Count: 2, Average: 3})
		got, _, ok := c.GetSummary(ctx, 7)
		require.True(t, ok)
		assert.Equal(t, int64(2), got.Count)
	})

	t.Run("Dashboard", func(t *testing.T) {
		c, _ := newTestCache(t)

		_, version, ok := c.GetDashboard(ctx)
		require.False(t, ok)
		c.InvalidateDrink(ctx, 3)
		c.SetDashboard(ctx, version, &model.Dashboard{Drinks: []model.DrinkStats{}})

		_, _, ok = c.GetDashboard(ctx)
		assert.False(t, ok, "value computed before invalidation must not be served")
	})
}

func TestRedisCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()

	t.Run("Entry", func(t *testing.T) {
		c, mr := newTestCache(t)
		require.NoError(t, mr.Set(SummaryKey(9), "{not json"))

		_, version, ok := c.GetSummary(ctx, 9)
		assert.False(t, ok)
		assert.Equal(t, Version(0), version)
	})

	t.Run("Generation", func(t *testing.T) {
		c, mr := newTestCache(t)
		require.NoError(t, mr.Set(summaryGenKey(9), "banana"))

		_, version, ok := c.GetSummary(ctx, 9)
		assert.False(t, ok)
		assert.Equal(t, NoVersion, version)

		c.SetSummary(ctx, version, &model.RatingSummary{DrinkID: 9})
		assert.False(t, mr.Exists(SummaryKey(9)))
	})
}

func TestRedisCache_BackendDownIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	ctx := context.Background()
	_, version, ok := c.GetSummary(ctx, 1)
	assert.False(t, ok)
	assert.Equal(t, NoVersion, version)
	c.SetSummary(ctx, version, &model.RatingSummary{DrinkID: 1})
	c.InvalidateDrink(ctx, 1)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	_ = client.Close()

	_, err = Connect(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()

	c.SetSummary(ctx, 0, &model.RatingSummary{DrinkID: 1})
	_, version, ok := c.GetSummary(ctx, 1)
	assert.False(t, ok)
	assert.Equal(t, NoVersion, version)
	_, _, ok = c.GetDashboard(ctx)
	assert.False(t, ok)
}
