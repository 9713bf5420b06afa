package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerRepository_CreateAndGet(t *testing.T) {
	pool := setupStore(t)
	repo := NewCustomerRepository(pool, zerolog.Nop())
	ctx := context.Background()

	customer := newCustomer("alice@example.com")
	require.NoError(t, repo.Create(ctx, customer))

	byID, err := repo.GetByID(ctx, customer.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice@example.com", byID.Email)
	assert.True(t, customer.CreatedAt.Equal(byID.CreatedAt))

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, customer.ID, byEmail.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCustomerRepository_CreateDuplicateEmail(t *testing.T) {
	pool := setupStore(t)
	repo := NewCustomerRepository(pool, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newCustomer("bob@example.com")))

	err := repo.Create(ctx, newCustomer("bob@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCustomerRepository_Ensure(t *testing.T) {
	pool := setupStore(t)
	repo := NewCustomerRepository(pool, zerolog.Nop())
	ctx := context.Background()

	first, err := repo.Ensure(ctx, newCustomer("carol@example.com"))
	require.NoError(t, err)

	second, err := repo.Ensure(ctx, newCustomer("carol@example.com"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	customers, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, customers, 1)
}

func TestCustomerRepository_EnsureConcurrent(t *testing.T) {
	pool := setupStore(t)
	repo := NewCustomerRepository(pool, zerolog.Nop())
	ctx := context.Background()

	const workers = 10
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := repo.Ensure(ctx, newCustomer("race@example.com"))
			errs[i] = err
			if c != nil {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
}

func TestCustomerRepository_ListAndDelete(t *testing.T) {
	pool := setupStore(t)
	repo := NewCustomerRepository(pool, zerolog.Nop())
	ctx := context.Background()

	for _, email := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		require.NoError(t, repo.Create(ctx, newCustomer(email)))
	}

	tests := []struct {
		name     string
		limit    int
		offset   int
		expected []string
	}{
		{name: "All customers", limit: 10, offset: 0, expected: []string{"a@example.com", "b@example.com", "c@example.com"}},
		{name: "First page", limit: 2, offset: 0, expected: []string{"a@example.com", "b@example.com"}},
		{name: "Offset beyond results", limit: 10, offset: 5, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customers, err := repo.List(ctx, tt.limit, tt.offset)
			require.NoError(t, err)

			emails := make([]string, 0, len(customers))
			for _, c := range customers {
				emails = append(emails, c.Email)
			}
			assert.Equal(t, tt.expected, emails)
		})
	}

	c, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
