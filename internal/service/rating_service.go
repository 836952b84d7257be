package service

import (
	"context"
	"fmt"
	"strings"

	"drink-rating/internal/cache"
	"drink-rating/internal/events"
	"drink-rating/internal/model"
	"drink-rating/internal/repository"

	"github.com/rs/zerolog"
)

// ratingService implements RatingService.
type ratingService struct {
	ratingRepo repository.RatingRepository
	drinkRepo  repository.DrinkRepository
	cache      cache.Cache
	publisher  events.Publisher
	logger     zerolog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(
	ratingRepo repository.RatingRepository,
	drinkRepo repository.DrinkRepository,
	cache cache.Cache,
	publisher events.Publisher,
	logger zerolog.Logger,
) RatingService {
	return &ratingService{
		ratingRepo: ratingRepo,
		drinkRepo:  drinkRepo,
		cache:      cache,
		publisher:  publisher,
		logger:     logger.With().Str("service", "rating").Logger(),
	}
}

// Submit validates and stores a rating. A blank comment is stored as NULL.
func (s *ratingService) Submit(ctx context.Context, req *model.RatingRequest) (int64, error) {
	if req == nil {
		return 0, model.NewValidationError("rating request is required")
	}
	if err := req.Validate(); err != nil {
		return 0, validationError(err)
	}

	drinkID := int64(req.DrinkID)

	exists, err := s.drinkRepo.Exists(ctx, drinkID)
	if err != nil {
		return 0, fmt.Errorf("failed to check drink: %w", err)
	}
	if !exists {
		return 0, model.ErrDrinkNotFound
	}

	rating := &model.Rating{
		DrinkID: drinkID,
		Rating:  req.Rating,
		Comment: normaliseComment(req.Comment),
	}

	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		return 0, passDomainError(err, "failed to submit rating")
	}

	s.cache.InvalidateDrink(ctx, drinkID)
	s.publish(ctx, events.Event{
		Type:     events.TypeRatingSubmitted,
		DrinkID:  drinkID,
		RatingID: rating.ID,
		Rating:   rating.Rating,
	})

	s.logger.Info().
		Int64("rating_id", rating.ID).
		Int64("drink_id", drinkID).
		Int("rating", rating.Rating).
		Msg("rating submitted")

	return rating.ID, nil
}

// ListFor retrieves the ratings of a drink. Unknown drinks have no ratings.
func (s *ratingService) ListFor(ctx context.Context, drinkID int64) ([]model.Rating, error) {
	ratings, err := s.ratingRepo.ListByDrink(ctx, drinkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	if ratings == nil {
		ratings = []model.Rating{}
	}
	return ratings, nil
}

// DeleteOne removes a single rating.
func (s *ratingService) DeleteOne(ctx context.Context, ratingID int64) error {
	deleted, err := s.ratingRepo.Delete(ctx, ratingID)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}
	if deleted == nil {
		return model.ErrRatingNotFound
	}

	s.cache.InvalidateDrink(ctx, deleted.DrinkID)
	s.publish(ctx, events.Event{
		Type:     events.TypeRatingDeleted,
		DrinkID:  deleted.DrinkID,
		RatingID: deleted.ID,
	})

	s.logger.Info().
		Int64("rating_id", ratingID).
		Int64("drink_id", deleted.DrinkID).
		Msg("rating deleted")

	return nil
}

// Aggregate returns the count and rounded average rating of a drink.
func (s *ratingService) Aggregate(ctx context.Context, drinkID int64) (*model.RatingSummary, error) {
	cached, version, ok := s.cache.GetSummary(ctx, drinkID)
	if ok {
		return cached, nil
	}

	exists, err := s.drinkRepo.Exists(ctx, drinkID)
	if err != nil {
		return nil, fmt.Errorf("failed to check drink: %w", err)
	}
	if !exists {
		return nil, model.ErrDrinkNotFound
	}

	count, average, err := s.ratingRepo.Summary(ctx, drinkID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	summary := &model.RatingSummary{
		DrinkID: drinkID,
		Count:   count,
	}
	if count > 0 {
		summary.Average = roundAverage(average)
	}

	s.cache.SetSummary(ctx, version, summary)

	return summary, nil
}

// DashboardSummary returns every drink with its aggregate. The totals are
// summed from the same rows so they always agree with them.
func (s *ratingService) DashboardSummary(ctx context.Context) (*model.Dashboard, error) {
	cached, version, ok := s.cache.GetDashboard(ctx)
	if ok {
		return cached, nil
	}

	rows, err := s.ratingRepo.DashboardRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}

	dashboard := &model.Dashboard{Drinks: make([]model.DrinkStats, 0, len(rows))}
	for _, row := range rows {
		if row.RatingCount == 0 {
			row.AverageRating = 0
		} else {
			row.AverageRating = roundAverage(row.AverageRating)
		}
		dashboard.Drinks = append(dashboard.Drinks, row)
		dashboard.Stats.TotalRatings += row.RatingCount
	}
	dashboard.Stats.TotalDrinks = int64(len(dashboard.Drinks))

	s.cache.SetDashboard(ctx, version, dashboard)

	return dashboard, nil
}

func (s *ratingService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish event")
	}
}

// normaliseComment maps missing and blank comments to nil.
func normaliseComment(comment *string) *string {
	if comment == nil || strings.TrimSpace(*comment) == "" {
		return nil
	}
	return comment
}
