package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"drink-rating/internal/auth"
	"drink-rating/internal/blob"
	"drink-rating/internal/cache"
	"drink-rating/internal/config"
	"drink-rating/internal/database"
	"drink-rating/internal/events"
	"drink-rating/internal/handler"
	"drink-rating/internal/report"
	"drink-rating/internal/repository"
	"drink-rating/internal/router"
	"drink-rating/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting drink-rating API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize repositories
	adminRepo := repository.NewAdminRepository(pool, logger)
	drinkRepo := repository.NewDrinkRepository(pool, logger)
	ratingRepo := repository.NewRatingRepository(pool, logger)

	// Initialize authentication and make sure an admin exists
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	authService := service.NewAuthService(adminRepo, tokens, hasher, cfg.Auth, logger)

	if err := authService.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	// Initialize blob storage for drink images
	store, err := blob.New(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize blob storage: %w", err)
	}

	aggregateCache, closeCache := newCache(ctx, cfg.Cache, logger)
	defer closeCache()

	publisher := newPublisher(cfg.Events, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Initialize services
	drinkService := service.NewDrinkService(drinkRepo, ratingRepo, store, aggregateCache, publisher, cfg.Storage.MaxUploadBytes, logger)
	ratingService := service.NewRatingService(ratingRepo, drinkRepo, aggregateCache, publisher, logger)

	// Initialize HTTP handlers
	qr := report.DefaultQRGenerator{BaseURL: cfg.Server.PublicBaseURL}
	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(authService, logger),
		Drinks:    handler.NewDrinkHandler(drinkService, ratingService, qr, cfg.Storage.MaxUploadBytes, logger),
		Ratings:   handler.NewRatingHandler(ratingService, logger),
		Dashboard: handler.NewDashboardHandler(ratingService, logger),
		Health:    handler.NewHealthHandler(pool, logger),
	}

	opts := router.Options{AllowedOrigins: cfg.Server.AllowedOrigins}
	if cfg.Storage.Backend == "local" {
		opts.UploadDir = cfg.Storage.LocalDir
	}

	// Initialize router
	mux := router.New(handlers, authService, opts, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("storage_backend", cfg.Storage.Backend).
			Bool("cache_enabled", cfg.Cache.Enabled).
			Bool("events_enabled", cfg.Events.Enabled).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newCache connects to redis when caching is enabled. An unreachable redis
// degrades to no caching rather than failing startup.
func newCache(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) (cache.Cache, func()) {
	if !cfg.Enabled {
		logger.Info().Msg("aggregate cache disabled")
		return cache.Nop{}, func() {}
	}

	client, err := cache.Connect(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unavailable, continuing without aggregate cache")
		return cache.Nop{}, func() {}
	}

	logger.Info().Str("addr", cfg.Addr).Dur("ttl", cfg.TTL).Msg("aggregate cache enabled")
	return cache.NewRedisCache(client, cfg.TTL, logger), func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}

func newPublisher(cfg config.EventsConfig, logger zerolog.Logger) events.Publisher {
	if !cfg.Enabled {
		logger.Info().Msg("event publishing disabled")
		return events.Nop{}
	}

	logger.Info().Strs("brokers", cfg.Brokers).Str("topic", cfg.Topic).Msg("publishing events to kafka")
	return events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Brokers, cfg.Topic), logger)
}
