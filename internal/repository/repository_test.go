package repository

import (
	"context"
	"testing"
	"time"

	"voucher-pool/internal/database"
	"voucher-pool/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupStore starts a PostgreSQL testcontainer with the voucher schema applied.
func setupStore(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.Open(ctx, connStr, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	t.Cleanup(func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	})

	return pool
}

// testNow is truncated to microseconds, the resolution of TIMESTAMPTZ.
func testNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func newCustomer(email string) *model.Customer {
	now := testNow()
	return &model.Customer{
		ID:        uuid.New(),
		Name:      "Test Customer",
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newOffer(name, discount string) *model.Offer {
	now := testNow()
	return &model.Offer{
		ID:                 uuid.New(),
		Name:               name,
		DiscountPercentage: decimal.RequireFromString(discount),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func newVoucher(code string, customerID, offerID uuid.UUID, expires time.Time) *model.Voucher {
	now := testNow()
	return &model.Voucher{
		ID:             uuid.New(),
		Code:           code,
		CustomerID:     customerID,
		OfferID:        offerID,
		ExpirationDate: expires,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// seedVoucher creates a customer, an offer and one voucher for them.
func seedVoucher(t *testing.T, pool *pgxpool.Pool, code string) (*model.Customer, *model.Offer, *model.Voucher) {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	customer := newCustomer(uuid.NewString() + "@example.com")
	require.NoError(t, NewCustomerRepository(pool, logger).Create(ctx, customer))

	offer := newOffer("offer-"+uuid.NewString(), "15.50")
	require.NoError(t, NewOfferRepository(pool, logger).Create(ctx, offer))

	voucher := newVoucher(code, customer.ID, offer.ID, testNow().Add(24*time.Hour))
	require.NoError(t, NewVoucherRepository(pool, 0, logger).Create(ctx, voucher))

	return customer, offer, voucher
}
