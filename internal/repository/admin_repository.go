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

// adminRepository implements the AdminRepository interface using PostgreSQL.
type adminRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAdminRepository creates a new PostgreSQL-backed admin repository.
func NewAdminRepository(pool *pgxpool.Pool, logger zerolog.Logger) AdminRepository {
	return &adminRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "admin").Logger(),
	}
}

const adminColumns = `id, username, password_hash, created_at, password_changed_at`

func scanAdmin(row pgx.Row) (*model.Admin, error) {
	var a model.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt, &a.PasswordChangedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByUsername retrieves an admin by username.
func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE username = $1`

	admin, err := scanAdmin(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("username", username).Msg("admin not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("username", username).Msg("failed to query admin")
		return nil, fmt.Errorf("failed to query admin: %w", err)
	}

	return admin, nil
}

// GetByID retrieves an admin by ID.
func (r *adminRepository) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`

	admin, err := scanAdmin(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("admin_id", id).Msg("failed to query admin")
		return nil, fmt.Errorf("failed to query admin: %w", err)
	}

	return admin, nil
}

// CreateIfNone inserts the admin only when no admin row exists yet. The
// unique username constraint settles concurrent bootstraps of the same name.
func (r *adminRepository) CreateIfNone(ctx context.Context, username, passwordHash string) (bool, error) {
	query := `
		INSERT INTO admins (username, password_hash)
		SELECT $1, $2
		WHERE NOT EXISTS (SELECT 1 FROM admins)
		ON CONFLICT (username) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, username, passwordHash)
	if err != nil {
		r.logger.Error().Err(err).Str("username", username).Msg("failed to create admin")
		return false, fmt.Errorf("failed to create admin: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// UpdatePassword replaces the password hash of an admin.
func (r *adminRepository) UpdatePassword(ctx context.Context, username, passwordHash string) (bool, error) {
	query := `
		UPDATE admins
		SET password_hash = $2, password_changed_at = NOW()
		WHERE username = $1
	`

	tag, err := r.pool.Exec(ctx, query, username, passwordHash)
	if err != nil {
		r.logger.Error().Err(err).Str("username", username).Msg("failed to update admin password")
		return false, fmt.Errorf("failed to update admin password: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
