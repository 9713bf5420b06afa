package service

import (
	"context"
	"errors"
	"testing"

	"voucher-pool/internal/model"
	"voucher-pool/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCustomerService_Create(t *testing.T) {
	repo := new(MockCustomerRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Customer) bool {
		return c.Email == "bob@example.com" && c.Name == "Bob"
	})).Return(nil)
	svc := NewCustomerService(repo, zerolog.Nop())

	c, err := svc.Create(context.Background(), &model.CustomerRequest{Name: " Bob ", Email: "Bob@Example.COM"})

	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", c.Email)
	assert.NotEqual(t, uuid.Nil, c.ID)
	repo.AssertExpectations(t)
}

func TestCustomerService_CreateErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     *model.CustomerRequest
		repoErr error
		wantErr error
		kind    model.ErrorKind
	}{
		{
			name: "Missing name",
			req:  &model.CustomerRequest{Email: "bob@example.com"},
			kind: model.KindValidation,
		},
		{
			name: "Invalid email",
			req:  &model.CustomerRequest{Name: "Bob", Email: "bob@"},
			kind: model.KindValidation,
		},
		{
			name:    "Email taken",
			req:     &model.CustomerRequest{Name: "Bob", Email: "bob@example.com"},
			repoErr: repository.ErrDuplicateEmail,
			wantErr: model.ErrCustomerEmailTaken,
			kind:    model.KindConflict,
		},
		{
			name:    "Storage failure",
			req:     &model.CustomerRequest{Name: "Bob", Email: "bob@example.com"},
			repoErr: errors.New("connection refused"),
			wantErr: model.ErrStorageFailure,
			kind:    model.KindStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockCustomerRepository)
			if tt.kind != model.KindValidation {
				repo.On("Create", mock.Anything, mock.Anything).Return(tt.repoErr)
			}
			svc := NewCustomerService(repo, zerolog.Nop())

			c, err := svc.Create(context.Background(), tt.req)

			assert.Nil(t, c)
			assert.Equal(t, tt.kind, model.KindOf(err))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.kind == model.KindValidation {
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCustomerService_GetListDelete(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := NewCustomerService(repo, zerolog.Nop())
	ctx := context.Background()

	existing := &model.Customer{ID: uuid.New(), Name: "Bob", Email: "bob@example.com"}
	missing := uuid.New()

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
	repo.On("GetByID", mock.Anything, missing).Return(nil, nil)
	repo.On("List", mock.Anything, 10, 0).Return(nil, errors.New("timeout"))
	repo.On("Delete", mock.Anything, existing.ID).Return(true, nil)
	repo.On("Delete", mock.Anything, missing).Return(false, nil)

	got, err := svc.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.Email, got.Email)

	_, err = svc.GetByID(ctx, missing)
	assert.ErrorIs(t, err, model.ErrCustomerNotFound)

	_, err = svc.List(ctx, 10, 0)
	assert.True(t, model.IsRetryable(err))

	require.NoError(t, svc.Delete(ctx, existing.ID))
	assert.ErrorIs(t, svc.Delete(ctx, missing), model.ErrCustomerNotFound)
}
