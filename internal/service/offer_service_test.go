package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"voucher-pool/internal/model"
	"voucher-pool/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOfferService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       *model.OfferRequest
		repoErr   error
		wantErr   error
		wantCode  string
		expectDB  bool
		wantTrim  string
		wantValue string
	}{
		{
			name:      "Valid offer",
			req:       &model.OfferRequest{Name: "  Spring Sale ", DiscountPercentage: decimal.RequireFromString("12.50")},
			expectDB:  true,
			wantTrim:  "Spring Sale",
			wantValue: "12.5",
		},
		{
			name:      "Zero discount",
			req:       &model.OfferRequest{Name: "Nothing", DiscountPercentage: decimal.Zero},
			expectDB:  true,
			wantTrim:  "Nothing",
			wantValue: "0",
		},
		{
			name:      "Full discount",
			req:       &model.OfferRequest{Name: "Free", DiscountPercentage: decimal.NewFromInt(100)},
			expectDB:  true,
			wantTrim:  "Free",
			wantValue: "100",
		},
		{
			name:     "Nil request",
			req:      nil,
			wantCode: model.ErrCodeInvalidJSON,
		},
		{
			name:     "Missing name",
			req:      &model.OfferRequest{DiscountPercentage: decimal.NewFromInt(5)},
			wantCode: model.ErrCodeMissingField,
		},
		{
			name:     "Name too long",
			req:      &model.OfferRequest{Name: strings.Repeat("x", 256), DiscountPercentage: decimal.NewFromInt(5)},
			wantCode: model.ErrCodeInvalidName,
		},
		{
			name:     "Negative discount",
			req:      &model.OfferRequest{Name: "Bad", DiscountPercentage: decimal.NewFromInt(-1)},
			wantCode: model.ErrCodeInvalidDiscount,
		},
		{
			name:     "Discount above 100",
			req:      &model.OfferRequest{Name: "Bad", DiscountPercentage: decimal.RequireFromString("100.01")},
			wantCode: model.ErrCodeInvalidDiscount,
		},
		{
			name:     "Too many decimals",
			req:      &model.OfferRequest{Name: "Bad", DiscountPercentage: decimal.RequireFromString("10.125")},
			wantCode: model.ErrCodeInvalidDiscount,
		},
		{
			name:     "Duplicate name",
			req:      &model.OfferRequest{Name: "Taken", DiscountPercentage: decimal.NewFromInt(5)},
			repoErr:  repository.ErrDuplicateOfferName,
			wantErr:  model.ErrOfferNameTaken,
			expectDB: true,
		},
		{
			name:     "Storage failure",
			req:      &model.OfferRequest{Name: "Down", DiscountPercentage: decimal.NewFromInt(5)},
			repoErr:  errors.New("connection refused"),
			wantErr:  model.ErrStorageFailure,
			expectDB: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockOfferRepository)
			if tt.expectDB {
				repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Offer")).Return(tt.repoErr)
			}
			svc := NewOfferService(repo, zerolog.Nop())

			offer, err := svc.Create(context.Background(), tt.req)

			switch {
			case tt.wantCode != "":
				var de *model.DomainError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, tt.wantCode, de.Code)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, offer)
			default:
				require.NoError(t, err)
				require.NotNil(t, offer)
				assert.NotEqual(t, uuid.Nil, offer.ID)
				assert.Equal(t, tt.wantTrim, offer.Name)
				assert.Equal(t, tt.wantValue, offer.DiscountPercentage.String())
				assert.False(t, offer.CreatedAt.IsZero())
			}
		})
	}
}

func TestOfferService_GetListDelete(t *testing.T) {
	repo := new(MockOfferRepository)
	svc := NewOfferService(repo, zerolog.Nop())
	ctx := context.Background()

	existing := &model.Offer{ID: uuid.New(), Name: "Spring Sale", DiscountPercentage: decimal.NewFromInt(10)}
	missing := uuid.New()

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
	repo.On("GetByID", mock.Anything, missing).Return(nil, nil)
	repo.On("List", mock.Anything, 20, 40).Return([]model.Offer{*existing}, nil)
	repo.On("Delete", mock.Anything, existing.ID).Return(true, nil)
	repo.On("Delete", mock.Anything, missing).Return(false, nil)

	got, err := svc.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.Name, got.Name)

	_, err = svc.GetByID(ctx, missing)
	assert.ErrorIs(t, err, model.ErrOfferNotFound)

	list, err := svc.List(ctx, 20, 40)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, existing.ID))
	assert.ErrorIs(t, svc.Delete(ctx, missing), model.ErrOfferNotFound)
}
