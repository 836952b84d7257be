package service

import (
	"context"
	"errors"
	"math"

	"drink-rating/internal/model"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// AuthService defines operations for admin authentication.
type AuthService interface {
	// Login checks the credentials and issues a session token.
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)

	// Verify validates a session token and returns the admin it belongs to.
	Verify(ctx context.Context, token string) (*model.AdminIdentity, error)

	// Bootstrap creates the configured admin when no admin exists yet.
	Bootstrap(ctx context.Context) error

	// ResetPassword replaces an admin's password and revokes its older tokens.
	ResetPassword(ctx context.Context, req *model.PasswordResetRequest) error
}

// DrinkService defines operations for drink catalog management.
type DrinkService interface {
	// List retrieves all drinks, newest first.
	List(ctx context.Context) ([]model.Drink, error)

	// Get retrieves a single drink by ID.
	Get(ctx context.Context, id int64) (*model.Drink, error)

	// Create validates the input, stores the optional image and inserts the drink.
	Create(ctx context.Context, input *model.DrinkInput) (*model.Drink, error)

	// Update renames a drink and optionally replaces its image.
	Update(ctx context.Context, id int64, input *model.DrinkInput) (*model.Drink, error)

	// Delete removes a drink with all its ratings and its image.
	Delete(ctx context.Context, id int64) error
}

// RatingService defines operations for drink ratings.
type RatingService interface {
	// Submit stores an anonymous rating and returns its ID.
	Submit(ctx context.Context, req *model.RatingRequest) (int64, error)

	// ListFor retrieves the ratings of a drink, newest first.
	ListFor(ctx context.Context, drinkID int64) ([]model.Rating, error)

	// DeleteOne removes a single rating.
	DeleteOne(ctx context.Context, ratingID int64) error

	// Aggregate returns the rating count and average of a drink.
	Aggregate(ctx context.Context, drinkID int64) (*model.RatingSummary, error)

	// DashboardSummary returns every drink with its rating aggregate plus totals.
	DashboardSummary(ctx context.Context) (*model.Dashboard, error)
}

// validationError converts an ozzo validation failure into a domain error.
func validationError(err error) error {
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}
	return model.NewValidationError(err.Error())
}

// roundAverage rounds half away from zero to two decimals.
func roundAverage(avg float64) float64 {
	if avg == 0 || math.IsNaN(avg) {
		return 0
	}
	return decimal.NewFromFloat(avg).Round(2).InexactFloat64()
}
