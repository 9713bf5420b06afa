package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"voucher-pool/internal/codegen"
	"voucher-pool/internal/model"
	"voucher-pool/internal/repository/sqlite"
	"voucher-pool/internal/reserved"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSQLiteVoucherService runs the real service against a temp-file store.
func newSQLiteVoucherService(t *testing.T, now time.Time) (VoucherService, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "vouchers.db"), 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := zerolog.Nop()
	generator := codegen.NewGenerator(codegen.DefaultConfig(), store.Vouchers(), reserved.NewStaticRegistry(), logger)
	svc := NewVoucherService(store.Vouchers(), store.Customers(), store.Offers(), generator,
		VoucherConfig{CodeLength: 10, MaxAttempts: 5}, logger,
		WithClock(func() time.Time { return now }))

	offer := &model.Offer{
		ID:                 uuid.New(),
		Name:               "Spring Sale",
		DiscountPercentage: decimal.RequireFromString("15"),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, store.Offers().Create(context.Background(), offer))

	return svc, store
}

func TestValidVouchers_RepeatedQueryIsStable(t *testing.T) {
	ctx := context.Background()
	svc, store := newSQLiteVoucherService(t, fixedNow)

	var issued []*model.Voucher
	for _, exp := range []time.Time{fixedNow.Add(time.Hour), fixedNow, fixedNow.Add(-time.Hour), fixedNow.Add(48 * time.Hour)} {
		v, err := svc.Issue(ctx, &model.IssueRequest{
			CustomerName:   "Olga",
			CustomerEmail:  "olga@example.com",
			OfferName:      "Spring Sale",
			ExpirationDate: exp.Format(time.RFC3339Nano),
		})
		require.NoError(t, err)
		issued = append(issued, v)
	}

	before := make(map[string]*model.Voucher, len(issued))
	for _, v := range issued {
		stored, err := store.Vouchers().FindByCode(ctx, v.Code)
		require.NoError(t, err)
		require.NotNil(t, stored)
		before[v.Code] = stored
	}

	first, err := svc.ValidVouchers(ctx, "olga@example.com")
	require.NoError(t, err)
	second, err := svc.ValidVouchers(ctx, "olga@example.com")
	require.NoError(t, err)

	// The expired voucher is excluded; the one expiring now is not.
	require.Len(t, first, 3)
	assert.Equal(t, first, second)

	for code, was := range before {
		now, err := store.Vouchers().FindByCode(ctx, code)
		require.NoError(t, err)
		require.NotNil(t, now)
		assert.False(t, now.IsUsed, code)
		assert.Nil(t, now.UsageDate, code)
		assert.True(t, was.UpdatedAt.Equal(now.UpdatedAt), code)
	}
}

func TestIssue_ExpirationRoundTripsThroughStore(t *testing.T) {
	ctx := context.Background()
	svc, store := newSQLiteVoucherService(t, fixedNow)

	v, err := svc.Issue(ctx, &model.IssueRequest{
		CustomerName:   "Olga",
		CustomerEmail:  "olga@example.com",
		OfferName:      "Spring Sale",
		ExpirationDate: "2026-03-14T12:00:00.123456789Z",
	})
	require.NoError(t, err)

	want := time.Date(2026, 3, 14, 12, 0, 0, 123456000, time.UTC)
	assert.True(t, want.Equal(v.ExpirationDate), "got %s", v.ExpirationDate)

	stored, err := store.Vouchers().FindByCode(ctx, v.Code)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, v.ExpirationDate.Equal(stored.ExpirationDate))
}
