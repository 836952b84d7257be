package service

import (
	"context"
	"fmt"
	"time"

	"drink-rating/internal/auth"
	"drink-rating/internal/config"
	"drink-rating/internal/model"
	"drink-rating/internal/repository"

	"github.com/rs/zerolog"
)

// maxPasswordBytes is the longest password bcrypt can compare.
const maxPasswordBytes = 72

// PasswordChecker hashes and compares admin passwords. It is satisfied by
// *auth.PasswordHasher.
type PasswordChecker interface {
	Hash(password string) (string, error)
	Matches(hash, password string) (bool, error)
	// Reject spends the time of a failed comparison without a stored hash.
	Reject(password string)
}

var _ PasswordChecker = (*auth.PasswordHasher)(nil)

// authService implements AuthService.
type authService struct {
	adminRepo repository.AdminRepository
	tokens    *auth.TokenManager
	hasher    PasswordChecker
	cfg       config.AuthConfig
	logger    zerolog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	adminRepo repository.AdminRepository,
	tokens *auth.TokenManager,
	hasher PasswordChecker,
	cfg config.AuthConfig,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		adminRepo: adminRepo,
		tokens:    tokens,
		hasher:    hasher,
		cfg:       cfg,
		logger:    logger.With().Str("service", "auth").Logger(),
	}
}

// Login checks the credentials and issues a session token. Unknown usernames
// and wrong passwords produce the same error.
func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	if req == nil {
		return nil, model.NewValidationError("login request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, model.ErrInvalidCredentials
	}

	admin, err := s.adminRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	if admin == nil {
		s.hasher.Reject(req.Password)
		s.logger.Warn().Str("username", req.Username).Msg("login attempt for unknown admin")
		return nil, model.ErrInvalidCredentials
	}

	ok, err := s.hasher.Matches(admin.PasswordHash, req.Password)
	if err != nil {
		s.logger.Error().Err(err).Int64("admin_id", admin.ID).Msg("stored password hash is unusable")
		return nil, fmt.Errorf("failed to check password: %w", err)
	}
	if !ok {
		s.logger.Warn().Str("username", req.Username).Msg("login attempt with wrong password")
		return nil, model.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(admin.ID, admin.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info().Int64("admin_id", admin.ID).Msg("admin logged in")

	return &model.LoginResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// Verify validates a session token. Tokens of deleted admins and tokens
// issued before the last password change are rejected.
func (s *authService) Verify(ctx context.Context, token string) (*model.AdminIdentity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.logger.Debug().Err(err).Msg("token rejected")
		return nil, model.ErrUnauthenticated
	}

	adminID, err := claims.AdminID()
	if err != nil {
		return nil, model.ErrUnauthenticated
	}

	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	if admin == nil {
		s.logger.Debug().Int64("admin_id", adminID).Msg("token for deleted admin")
		return nil, model.ErrUnauthenticated
	}

	if claims.IssuedAt.Time.Before(admin.PasswordChangedAt.Truncate(time.Second)) {
		s.logger.Debug().Int64("admin_id", adminID).Msg("token issued before password change")
		return nil, model.ErrUnauthenticated
	}

	return &model.AdminIdentity{ID: admin.ID, Username: admin.Username}, nil
}

// Bootstrap creates the configured admin when the admins table is empty.
// Only the hash is stored and the password is never logged.
func (s *authService) Bootstrap(ctx context.Context) error {
	hash, err := s.hasher.Hash(s.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	created, err := s.adminRepo.CreateIfNone(ctx, s.cfg.AdminUsername, hash)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	if !created {
		s.logger.Debug().Msg("admin already present, bootstrap skipped")
		return nil
	}

	s.logger.Warn().
		Str("username", s.cfg.AdminUsername).
		Msg("created admin from ADMIN_USERNAME/ADMIN_PASSWORD; rotate the password with resetadmin")

	if s.cfg.UsesDefaultAdminPassword() {
		s.logger.Warn().
			Str("username", s.cfg.AdminUsername).
			Msg("admin uses the built-in default password; set ADMIN_PASSWORD or run resetadmin before exposing the service")
	}

	return nil
}

// ResetPassword replaces the admin's hash. The repository stamps
// password_changed_at, which revokes every token issued earlier.
func (s *authService) ResetPassword(ctx context.Context, req *model.PasswordResetRequest) error {
	if req == nil {
		return model.NewValidationError("reset request is required")
	}
	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	updated, err := s.adminRepo.UpdatePassword(ctx, req.Username, hash)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	if !updated {
		return model.ErrAdminNotFound
	}

	s.logger.Info().Str("username", req.Username).Msg("admin password reset")

	return nil
}
