package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferRepository_CreateAndGet(t *testing.T) {
	pool := setupStore(t)
	repo := NewOfferRepository(pool, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name     string
		discount string
	}{
		{name: "Whole", discount: "10"},
		{name: "Two decimals", discount: "12.75"},
		{name: "Zero", discount: "0"},
		{name: "Hundred", discount: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer := newOffer(tt.name, tt.discount)
			require.NoError(t, repo.Create(ctx, offer))

			got, err := repo.GetByName(ctx, tt.name)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, offer.ID, got.ID)
			assert.True(t, decimal.RequireFromString(tt.discount).Equal(got.DiscountPercentage),
				"got %s", got.DiscountPercentage)

			byID, err := repo.GetByID(ctx, offer.ID)
			require.NoError(t, err)
			require.NotNil(t, byID)
			assert.Equal(t, tt.name, byID.Name)
		})
	}

	missing, err := repo.GetByName(ctx, "no such offer")
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOfferRepository_CreateDuplicateName(t *testing.T) {
	pool := setupStore(t)
	repo := NewOfferRepository(pool, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newOffer("Spring Sale", "20")))

	err := repo.Create(ctx, newOffer("Spring Sale", "30"))
	assert.ErrorIs(t, err, ErrDuplicateOfferName)
}

func TestOfferRepository_DeleteCascadesToVouchers(t *testing.T) {
	pool := setupStore(t)
	ctx := context.Background()
	logger := zerolog.Nop()

	_, offer, voucher := seedVoucher(t, pool, "CASCADE01")

	deleted, err := NewOfferRepository(pool, logger).Delete(ctx, offer.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	vouchers := NewVoucherRepository(pool, 0, logger)
	got, err := vouchers.FindByCode(ctx, voucher.Code)
	require.NoError(t, err)
	assert.Nil(t, got)

	// The code stays claimed.
	exists, err := vouchers.CodeExists(ctx, voucher.Code)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOfferRepository_List(t *testing.T) {
	pool := setupStore(t)
	repo := NewOfferRepository(pool, zerolog.Nop())
	ctx := context.Background()

	for _, name := range []string{"Winter", "Autumn", "Summer"} {
		require.NoError(t, repo.Create(ctx, newOffer(name, "5")))
	}

	offers, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "Autumn", offers[0].Name)
	assert.Equal(t, "Summer", offers[1].Name)

	offers, err = repo.List(ctx, 10, 10)
	require.NoError(t, err)
	assert.NotNil(t, offers)
	assert.Empty(t, offers)
}
