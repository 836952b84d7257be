package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"drink-rating/internal/blob"
	"drink-rating/internal/cache"
	"drink-rating/internal/events"
	"drink-rating/internal/model"
	"drink-rating/internal/repository"

	"github.com/rs/zerolog"
)

// drinkService implements DrinkService.
type drinkService struct {
	drinkRepo      repository.DrinkRepository
	ratingRepo     repository.RatingRepository
	store          blob.Store
	cache          cache.Cache
	publisher      events.Publisher
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewDrinkService creates a new drink catalog service.
func NewDrinkService(
	drinkRepo repository.DrinkRepository,
	ratingRepo repository.RatingRepository,
	store blob.Store,
	cache cache.Cache,
	publisher events.Publisher,
	maxUploadBytes int64,
	logger zerolog.Logger,
) DrinkService {
	return &drinkService{
		drinkRepo:      drinkRepo,
		ratingRepo:     ratingRepo,
		store:          store,
		cache:          cache,
		publisher:      publisher,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("service", "drink").Logger(),
	}
}

// List retrieves all drinks, newest first.
func (s *drinkService) List(ctx context.Context) ([]model.Drink, error) {
	drinks, err := s.drinkRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list drinks: %w", err)
	}
	if drinks == nil {
		drinks = []model.Drink{}
	}
	return drinks, nil
}

// Get retrieves a single drink by ID.
func (s *drinkService) Get(ctx context.Context, id int64) (*model.Drink, error) {
	drink, err := s.drinkRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get drink: %w", err)
	}
	if drink == nil {
		return nil, model.ErrDrinkNotFound
	}
	return drink, nil
}

// Create stores the image first and then inserts the drink row. A row
// failure removes the freshly stored image again.
func (s *drinkService) Create(ctx context.Context, input *model.DrinkInput) (*model.Drink, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	imageURL, err := s.storeImage(ctx, input.Image)
	if err != nil {
		return nil, err
	}

	drink := &model.Drink{Name: input.Name}
	if imageURL != "" {
		drink.ImageURL = &imageURL
	}

	if err := s.drinkRepo.Create(ctx, drink); err != nil {
		s.discardImage(ctx, imageURL)
		return nil, passDomainError(err, "failed to create drink")
	}

	s.cache.InvalidateDrink(ctx, drink.ID)
	s.publish(ctx, events.Event{Type: events.TypeDrinkCreated, DrinkID: drink.ID})

	s.logger.Info().
		Int64("drink_id", drink.ID).
		Bool("has_image", drink.ImageURL != nil).
		Msg("drink created")

	return drink, nil
}

// Update renames a drink and optionally replaces its image. The image being
// replaced is the one the row held when the update was applied, and it is
// deleted only once the row points at the new one.
func (s *drinkService) Update(ctx context.Context, id int64, input *model.DrinkInput) (*model.Drink, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	exists, err := s.drinkRepo.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check drink: %w", err)
	}
	if !exists {
		return nil, model.ErrDrinkNotFound
	}

	newURL, err := s.storeImage(ctx, input.Image)
	if err != nil {
		return nil, err
	}

	drink := &model.Drink{ID: id, Name: input.Name}
	if newURL != "" {
		drink.ImageURL = &newURL
	}

	previousURL, found, err := s.drinkRepo.Update(ctx, drink)
	if err != nil {
		s.discardImage(ctx, newURL)
		return nil, passDomainError(err, "failed to update drink")
	}
	if !found {
		s.discardImage(ctx, newURL)
		return nil, model.ErrDrinkNotFound
	}

	if newURL != "" && previousURL != nil && *previousURL != newURL {
		s.discardImage(ctx, *previousURL)
	}

	s.cache.InvalidateDrink(ctx, id)
	s.publish(ctx, events.Event{Type: events.TypeDrinkUpdated, DrinkID: id})

	s.logger.Info().
		Int64("drink_id", id).
		Bool("image_replaced", newURL != "").
		Msg("drink updated")

	return drink, nil
}

// Delete removes the drink and its ratings in one transaction, then the image.
func (s *drinkService) Delete(ctx context.Context, id int64) (err error) {
	tx, err := s.drinkRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to delete drink: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	drink, err := s.drinkRepo.LockByID(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("failed to delete drink: %w", err)
	}
	if drink == nil {
		return model.ErrDrinkNotFound
	}

	removed, err := s.ratingRepo.DeleteByDrink(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("failed to delete ratings: %w", err)
	}

	if err = s.drinkRepo.Delete(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete drink: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("drink_id", id).Msg("failed to commit transaction")
		return fmt.Errorf("failed to delete drink: %w", err)
	}

	if drink.ImageURL != nil {
		s.discardImage(ctx, *drink.ImageURL)
	}

	s.cache.InvalidateDrink(ctx, id)
	s.publish(ctx, events.Event{Type: events.TypeDrinkDeleted, DrinkID: id})

	s.logger.Info().
		Int64("drink_id", id).
		Int64("ratings_removed", removed).
		Msg("drink deleted")

	return nil
}

// validateInput trims the name and checks name and image.
func (s *drinkService) validateInput(input *model.DrinkInput) error {
	if input == nil {
		return model.NewValidationError("drink input is required")
	}

	input.Name = strings.TrimSpace(input.Name)
	if err := input.Validate(); err != nil {
		return validationError(err)
	}

	if input.Image != nil {
		if err := blob.ValidateImage(input.Image, s.maxUploadBytes); err != nil {
			return err
		}
	}

	return nil
}

// storeImage uploads image and returns its URL, or "" when there is none.
func (s *drinkService) storeImage(ctx context.Context, image *model.ImageUpload) (string, error) {
	if image == nil {
		return "", nil
	}

	url, err := s.store.Put(ctx, image)
	if err != nil {
		s.logger.Error().Err(err).Str("filename", image.Filename).Msg("failed to store image")
		return "", model.NewStorageError("failed to store image", err)
	}

	return url, nil
}

// discardImage deletes an image best-effort.
func (s *drinkService) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.store.Delete(ctx, url); err != nil {
		s.logger.Warn().Err(err).Str("image_url", url).Msg("failed to delete image")
	}
}

func (s *drinkService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish event")
	}
}

// passDomainError returns domain errors unchanged and wraps everything else.
func passDomainError(err error, msg string) error {
	var de *model.DomainError
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
