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

// drinkRepository implements the DrinkRepository interface using PostgreSQL.
type drinkRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDrinkRepository creates a new PostgreSQL-backed drink repository.
func NewDrinkRepository(pool *pgxpool.Pool, logger zerolog.Logger) DrinkRepository {
	return &drinkRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "drink").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *drinkRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// List retrieves all drinks, newest first.
func (r *drinkRepository) List(ctx context.Context) ([]model.Drink, error) {
	query := `
		SELECT id, name, image_url, created_at
		FROM drinks
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query drinks")
		return nil, fmt.Errorf("failed to query drinks: %w", err)
	}
	defer rows.Close()

	drinks := []model.Drink{}
	for rows.Next() {
		var d model.Drink
		if err := rows.Scan(&d.ID, &d.Name, &d.ImageURL, &d.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan drink row")
			return nil, fmt.Errorf("failed to scan drink: %w", err)
		}
		drinks = append(drinks, d)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating drink rows")
		return nil, fmt.Errorf("error iterating drinks: %w", err)
	}

	return drinks, nil
}

// GetByID retrieves a single drink by its ID.
func (r *drinkRepository) GetByID(ctx context.Context, id int64) (*model.Drink, error) {
	query := `
		SELECT id, name, image_url, created_at
		FROM drinks
		WHERE id = $1
	`

	var d model.Drink
	err := r.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.ImageURL, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("drink_id", id).Msg("drink not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("drink_id", id).Msg("failed to query drink")
		return nil, fmt.Errorf("failed to query drink: %w", err)
	}

	return &d, nil
}

// Exists checks whether a drink with the given ID exists.
func (r *drinkRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM drinks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		r.logger.Error().Err(err).Int64("drink_id", id).Msg("failed to check drink existence")
		return false, fmt.Errorf("failed to check drink existence: %w", err)
	}
	return exists, nil
}

// Create inserts a new drink.
func (r *drinkRepository) Create(ctx context.Context, drink *model.Drink) error {
	query := `
		INSERT INTO drinks (name, image_url)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, drink.Name, drink.ImageURL).Scan(&drink.ID, &drink.CreatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return model.NewValidationError("drink name is required")
		}
		r.logger.Error().Err(err).Str("name", drink.Name).Msg("failed to create drink")
		return fmt.Errorf("failed to create drink: %w", err)
	}

	r.logger.Debug().Int64("drink_id", drink.ID).Msg("drink created successfully")

	return nil
}

// Update writes the mutable fields of an existing drink and refreshes the
// rest from the stored row. Locking and updating happen in one statement so
// the returned previous image is exactly the one this update replaced.
func (r *drinkRepository) Update(ctx context.Context, drink *model.Drink) (*string, bool, error) {
	query := `
		WITH previous AS (
			SELECT id, image_url
			FROM drinks
			WHERE id = $1
			FOR UPDATE
		)
		UPDATE drinks d
		SET name = $2, image_url = COALESCE($3, previous.image_url)
		FROM previous
		WHERE d.id = previous.id
		RETURNING d.image_url, d.created_at, previous.image_url
	`

	var previousURL *string
	err := r.pool.QueryRow(ctx, query, drink.ID, drink.Name, drink.ImageURL).
		Scan(&drink.ImageURL, &drink.CreatedAt, &previousURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		if isCheckViolation(err) {
			return nil, false, model.NewValidationError("drink name is required")
		}
		r.logger.Error().Err(err).Int64("drink_id", drink.ID).Msg("failed to update drink")
		return nil, false, fmt.Errorf("failed to update drink: %w", err)
	}

	return previousURL, true, nil
}

// LockByID retrieves a drink and locks its row for the rest of tx.
func (r *drinkRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Drink, error) {
	query := `
		SELECT id, name, image_url, created_at
		FROM drinks
		WHERE id = $1
		FOR UPDATE
	`

	var d model.Drink
	err := tx.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.ImageURL, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("drink_id", id).Msg("failed to lock drink")
		return nil, fmt.Errorf("failed to lock drink: %w", err)
	}

	return &d, nil
}

// Delete removes a drink row within the provided transaction.
func (r *drinkRepository) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	_, err := tx.Exec(ctx, `DELETE FROM drinks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("drink_id", id).Msg("failed to delete drink")
		return fmt.Errorf("failed to delete drink: %w", err)
	}

	r.logger.Debug().Int64("drink_id", id).Msg("drink deleted")

	return nil
}
