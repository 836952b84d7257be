package repository

import (
	"context"
	"errors"
	"fmt"

	"drink-rating/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ratingRepository implements the RatingRepository interface using PostgreSQL.
type ratingRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRatingRepository creates a new PostgreSQL-backed rating repository.
func NewRatingRepository(pool *pgxpool.Pool, logger zerolog.Logger) RatingRepository {
	return &ratingRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "rating").Logger(),
	}
}

// Create inserts a new rating.
func (r *ratingRepository) Create(ctx context.Context, rating *model.Rating) error {
	query := `
		INSERT INTO ratings (drink_id, rating, comment)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, rating.DrinkID, rating.Rating, rating.Comment).
		Scan(&rating.ID, &rating.CreatedAt)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			// The drink was deleted between the existence check and the insert.
			r.logger.Debug().Int64("drink_id", rating.DrinkID).Msg("rating references missing drink")
			return model.ErrDrinkNotFound
		case isCheckViolation(err):
			return model.NewValidationError("rating must be between 1 and 5 and comment at most 200 characters")
		}
		r.logger.Error().Err(err).Int64("drink_id", rating.DrinkID).Msg("failed to create rating")
		return fmt.Errorf("failed to create rating: %w", err)
	}

	r.logger.Debug().
		Int64("rating_id", rating.ID).
		Int64("drink_id", rating.DrinkID).
		Msg("rating created successfully")

	return nil
}

// ListByDrink retrieves the ratings of a drink, newest first.
func (r *ratingRepository) ListByDrink(ctx context.Context, drinkID int64) ([]model.Rating, error) {
	query := `
		SELECT id, drink_id, rating, comment, created_at
		FROM ratings
		WHERE drink_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, drinkID)
	if err != nil {
		r.logger.Error().Err(err).Int64("drink_id", drinkID).Msg("failed to query ratings")
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	ratings := []model.Rating{}
	for rows.Next() {
		var rt model.Rating
		var score int16
		if err := rows.Scan(&rt.ID, &rt.DrinkID, &score, &rt.Comment, &rt.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan rating row")
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		rt.Rating = int(score)
		ratings = append(ratings, rt)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating rating rows")
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return ratings, nil
}

// Delete removes a single rating and returns the deleted row.
func (r *ratingRepository) Delete(ctx context.Context, id int64) (*model.Rating, error) {
	query := `
		DELETE FROM ratings
		WHERE id = $1
		RETURNING id, drink_id, rating, comment, created_at
	`

	var rt model.Rating
	var score int16
	err := r.pool.QueryRow(ctx, query, id).Scan(&rt.ID, &rt.DrinkID, &score, &rt.Comment, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("rating_id", id).Msg("failed to delete rating")
		return nil, fmt.Errorf("failed to delete rating: %w", err)
	}
	rt.Rating = int(score)

	r.logger.Debug().Int64("rating_id", id).Int64("drink_id", rt.DrinkID).Msg("rating deleted")

	return &rt, nil
}

// DeleteByDrink removes every rating of a drink within the provided transaction.
func (r *ratingRepository) DeleteByDrink(ctx context.Context, tx pgx.Tx, drinkID int64) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM ratings WHERE drink_id = $1`, drinkID)
	if err != nil {
		r.logger.Error().Err(err).Int64("drink_id", drinkID).Msg("failed to delete ratings of drink")
		return 0, fmt.Errorf("failed to delete ratings: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Summary returns the rating count and unrounded average for a drink.
// A drink without ratings yields (0, 0).
func (r *ratingRepository) Summary(ctx context.Context, drinkID int64) (int64, float64, error) {
	query := `
		SELECT COUNT(*), COALESCE(AVG(rating)::float8, 0)
		FROM ratings
		WHERE drink_id = $1
	`

	var count int64
	var average float64
	if err := r.pool.QueryRow(ctx, query, drinkID).Scan(&count, &average); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, nil
		}
		r.logger.Error().Err(err).Int64("drink_id", drinkID).Msg("failed to summarise ratings")
		return 0, 0, fmt.Errorf("failed to summarise ratings: %w", err)
	}

	return count, average, nil
}

// DashboardRows joins every drink with its rating aggregate in one query.
func (r *ratingRepository) DashboardRows(ctx context.Context) ([]model.DrinkStats, error) {
	query := `
		SELECT
			d.id,
			d.name,
			d.image_url,
			d.created_at,
			COUNT(r.id) AS rating_count,
			COALESCE(AVG(r.rating)::float8, 0) AS average_rating
		FROM drinks d
		LEFT JOIN ratings r ON r.drink_id = d.id
		GROUP BY d.id, d.name, d.image_url, d.created_at
		ORDER BY d.created_at DESC, d.id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query dashboard")
		return nil, fmt.Errorf("failed to query dashboard: %w", err)
	}
	defer rows.Close()

	stats := []model.DrinkStats{}
	for rows.Next() {
		var s model.DrinkStats
		if err := rows.Scan(&s.ID, &s.Name, &s.ImageURL, &s.CreatedAt, &s.RatingCount, &s.AverageRating); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan dashboard row")
			return nil, fmt.Errorf("failed to scan dashboard row: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating dashboard rows")
		return nil, fmt.Errorf("error iterating dashboard rows: %w", err)
	}

	return stats, nil
}
