package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"drink-rating/internal/config"
	"drink-rating/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and
// applies the embedded migrations.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPoolFromConnString(ctx, connStr, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedDrinks inserts drinks with strictly increasing creation times and
// returns their IDs in insertion order.
func SeedDrinks(t *testing.T, pool *pgxpool.Pool, names ...string) []int64 {
	t.Helper()

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	ids := make([]int64, 0, len(names))
	for i, name := range names {
		var id int64
		err := pool.QueryRow(ctx,
			"INSERT INTO drinks (name, created_at) VALUES ($1, $2) RETURNING id",
			name, base.Add(time.Duration(i)*time.Minute),
		).Scan(&id)
		if err != nil {
			t.Fatalf("failed to seed drink %s: %v", name, err)
		}
		ids = append(ids, id)
	}

	return ids
}

// SeedRatings inserts one rating per score for the given drink.
func SeedRatings(t *testing.T, pool *pgxpool.Pool, drinkID int64, scores ...int) {
	t.Helper()

	ctx := context.Background()

	for _, score := range scores {
		_, err := pool.Exec(ctx,
			"INSERT INTO ratings (drink_id, rating) VALUES ($1, $2)",
			drinkID, score,
		)
		if err != nil {
			t.Fatalf("failed to seed rating for drink %d: %v", drinkID, err)
		}
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"ratings", "drinks", "admins"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
