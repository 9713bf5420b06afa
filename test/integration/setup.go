package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"voucher-pool/internal/database"
	"voucher-pool/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
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

// SetupTestDB creates a PostgreSQL test container, connection pool and schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	// Sized above the concurrency tests' worker count.
	pool, err := database.Open(ctx, connStr, &database.PoolConfig{
		MaxConns:        40,
		MinConns:        2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
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

// SeedOffer inserts an offer and returns it.
func SeedOffer(t *testing.T, pool *pgxpool.Pool, name, discount string) *model.Offer {
	t.Helper()

	offer := &model.Offer{
		ID:                 uuid.New(),
		Name:               name,
		DiscountPercentage: decimal.RequireFromString(discount),
	}

	_, err := pool.Exec(context.Background(),
		"INSERT INTO offers (id, name, discount_percentage) VALUES ($1, $2, $3::text::numeric)",
		offer.ID, offer.Name, offer.DiscountPercentage.String(),
	)
	if err != nil {
		t.Fatalf("failed to seed offer %s: %v", name, err)
	}
	return offer
}

// SeedCustomer inserts a customer and returns it.
func SeedCustomer(t *testing.T, pool *pgxpool.Pool, name, email string) *model.Customer {
	t.Helper()

	customer := &model.Customer{ID: uuid.New(), Name: name, Email: email}

	_, err := pool.Exec(context.Background(),
		"INSERT INTO customers (id, name, email) VALUES ($1, $2, $3)",
		customer.ID, customer.Name, customer.Email,
	)
	if err != nil {
		t.Fatalf("failed to seed customer %s: %v", email, err)
	}
	return customer
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"vouchers", "voucher_codes", "offers", "customers"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
