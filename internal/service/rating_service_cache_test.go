package service

import (
	"context"
	"testing"
	"time"

	"drink-rating/internal/cache"
	"drink-rating/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newRedisBackedFixture wires the rating service to a redis cache running on
// miniredis instead of the in-memory fake.
func newRedisBackedFixture(t *testing.T) (*ratingServiceFixture, *cache.RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	redisCache := cache.NewRedisCache(client, time.Minute, zerolog.Nop())
	f := &ratingServiceFixture{
		ratings:   new(MockRatingRepository),
		drinks:    new(MockDrinkRepository),
		publisher: &recordingPublisher{},
	}
	f.svc = NewRatingService(f.ratings, f.drinks, redisCache, f.publisher, zerolog.Nop())
	return f, redisCache
}

func TestRatingService_Aggregate_RatingDuringComputation(t *testing.T) {
	ctx := context.Background()

	t.Run("redis cache", func(t *testing.T) {
		f, redisCache := newRedisBackedFixture(t)
		f.drinks.On("Exists", ctx, int64(1)).Return(true, nil)
		f.ratings.On("Summary", ctx, int64(1)).Return(int64(1), 2.0, nil).Once().Run(func(mock.Arguments) {
			// A submission commits and invalidates while the aggregate is computed.
			redisCache.InvalidateDrink(ctx, 1)
		})
		f.ratings.On("Summary", ctx, int64(1)).Return(int64(2), 3.5, nil).Once()

		stale, err := f.svc.Aggregate(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stale.Count)

		fresh, err := f.svc.Aggregate(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), fresh.Count)
		assert.Equal(t, 3.5, fresh.Average)
		f.ratings.AssertNumberOfCalls(t, "Summary", 2)

		cached, err := f.svc.Aggregate(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, fresh, cached)
		f.ratings.AssertNumberOfCalls(t, "Summary", 2)
	})

	t.Run("fake cache", func(t *testing.T) {
		f := newRatingServiceFixture()
		f.drinks.On("Exists", ctx, int64(1)).Return(true, nil)
		f.ratings.On("Summary", ctx, int64(1)).Return(int64(1), 2.0, nil).Run(func(mock.Arguments) {
			f.cache.InvalidateDrink(ctx, 1)
		})

		_, err := f.svc.Aggregate(ctx, 1)
		require.NoError(t, err)

		_, _, cached := f.cache.GetSummary(ctx, 1)
		assert.False(t, cached)
	})
}

func TestRatingService_DashboardSummary_RatingDuringComputation(t *testing.T) {
	ctx := context.Background()
	f, redisCache := newRedisBackedFixture(t)

	f.ratings.On("DashboardRows", ctx).Return([]model.DrinkStats{
		{ID: 1, Name: "Mojito", RatingCount: 1, AverageRating: 4},
	}, nil).Once().Run(func(mock.Arguments) {
		redisCache.InvalidateDrink(ctx, 1)
	})
	f.ratings.On("DashboardRows", ctx).Return([]model.DrinkStats{
		{ID: 1, Name: "Mojito", RatingCount: 2, AverageRating: 4.5},
	}, nil).Once()

	_, err := f.svc.DashboardSummary(ctx)
	require.NoError(t, err)

	dashboard, err := f.svc.DashboardSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dashboard.Stats.TotalRatings)
	f.ratings.AssertExpectations(t)
}

func TestRatingService_Submit_InvalidatesRedisCache(t *testing.T) {
	ctx := context.Background()
	f, redisCache := newRedisBackedFixture(t)

	f.drinks.On("Exists", ctx, int64(4)).Return(true, nil)
	f.ratings.On("Summary", ctx, int64(4)).Return(int64(1), 3.0, nil).Once()
	f.ratings.On("Create", ctx, mock.Anything).Return(nil)

	_, err := f.svc.Aggregate(ctx, 4)
	require.NoError(t, err)
	_, _, cached := redisCache.GetSummary(ctx, 4)
	require.True(t, cached)

	_, err = f.svc.Submit(ctx, &model.RatingRequest{DrinkID: 4, Rating: 5})
	require.NoError(t, err)

	_, _, cached = redisCache.GetSummary(ctx, 4)
	assert.False(t, cached)
}
