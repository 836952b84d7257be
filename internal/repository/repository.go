package repository

import (
	"context"

	"drink-rating/internal/model"

	"github.com/jackc/pgx/v5"
)

// AdminRepository defines the interface for admin data access operations.
type AdminRepository interface {
	// GetByUsername retrieves an admin by username. Returns nil if absent.
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)

	// GetByID retrieves an admin by ID. Returns nil if absent.
	GetByID(ctx context.Context, id int64) (*model.Admin, error)

	// CreateIfNone inserts the admin only when the admins table is empty.
	// Reports whether a row was inserted.
	CreateIfNone(ctx context.Context, username, passwordHash string) (bool, error)

	// UpdatePassword replaces the password hash and stamps password_changed_at.
	// Reports whether the admin exists.
	UpdatePassword(ctx context.Context, username, passwordHash string) (bool, error)
}

// DrinkRepository defines the interface for drink data access operations.
type DrinkRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// List retrieves all drinks, newest first.
	List(ctx context.Context) ([]model.Drink, error)

	// GetByID retrieves a single drink. Returns nil if absent.
	GetByID(ctx context.Context, id int64) (*model.Drink, error)

	// Exists checks whether a drink with the given ID exists.
	Exists(ctx context.Context, id int64) (bool, error)

	// Create inserts a drink and fills in its ID and creation time.
	Create(ctx context.Context, drink *model.Drink) error

	// Update renames an existing drink. A nil ImageURL keeps the stored
	// image. The row is locked for the statement and the image URL it held
	// before the update is returned; drink is filled in from the updated row.
	// Reports whether the drink exists.
	Update(ctx context.Context, drink *model.Drink) (previousImageURL *string, found bool, err error)

	// LockByID retrieves a drink with a row lock inside tx. Returns nil if absent.
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Drink, error)

	// Delete removes a drink row inside tx.
	Delete(ctx context.Context, tx pgx.Tx, id int64) error
}

// RatingRepository defines the interface for rating data access operations.
type RatingRepository interface {
	// Create inserts a rating and fills in its ID and creation time.
	// Returns model.ErrDrinkNotFound when the drink does not exist.
	Create(ctx context.Context, rating *model.Rating) error

	// ListByDrink retrieves the ratings of a drink, newest first.
	ListByDrink(ctx context.Context, drinkID int64) ([]model.Rating, error)

	// Delete removes a single rating and returns it. Returns nil if absent.
	Delete(ctx context.Context, id int64) (*model.Rating, error)

	// DeleteByDrink removes every rating of a drink inside tx.
	DeleteByDrink(ctx context.Context, tx pgx.Tx, drinkID int64) (int64, error)

	// Summary returns the rating count and raw (unrounded) average of a drink.
	Summary(ctx context.Context, drinkID int64) (count int64, average float64, err error)

	// DashboardRows returns every drink joined with its rating aggregate, newest first.
	DashboardRows(ctx context.Context) ([]model.DrinkStats, error)
}
