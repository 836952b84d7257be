// Command resetadmin replaces the admin password out of band. Tokens issued
// before the reset stop working.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"drink-rating/internal/auth"
	"drink-rating/internal/config"
	"drink-rating/internal/database"
	"drink-rating/internal/model"
	"drink-rating/internal/repository"
	"drink-rating/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("resetadmin", flag.ContinueOnError)
	username := flags.String("username", "", "admin username (defaults to ADMIN_USERNAME)")
	password := flags.String("password", "", "new admin password (8-72 bytes)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	if *username == "" {
		*username = cfg.Auth.AdminUsername
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	authService := service.NewAuthService(
		repository.NewAdminRepository(pool, logger),
		auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		cfg.Auth,
		logger,
	)

	req := &model.PasswordResetRequest{Username: *username, NewPassword: *password}
	if err := authService.ResetPassword(ctx, req); err != nil {
		return fmt.Errorf("failed to reset password for %q: %w", *username, err)
	}

	logger.Info().Str("username", *username).Msg("admin password reset")
	return nil
}
