package repository

import (
	"context"
	"fmt"

	"voucher-pool/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const customerColumns = `id, name, email, created_at, updated_at`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// customerRepository implements the CustomerRepository interface using PostgreSQL.
type customerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCustomerRepository creates a new PostgreSQL-backed customer repository.
func NewCustomerRepository(pool *pgxpool.Pool, logger zerolog.Logger) CustomerRepository {
	return &customerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "customer").Logger(),
	}
}

// Create inserts a new customer.
func (r *customerRepository) Create(ctx context.Context, c *model.Customer) error {
	query := `
		INSERT INTO customers (id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.Email, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "customers_email_key") {
			r.logger.Debug().Str("email", c.Email).Msg("customer email already exists")
			return ErrDuplicateEmail
		}
		r.logger.Error().Err(err).Str("customer_id", c.ID.String()).Msg("failed to create customer")
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// Ensure returns the customer owning c.Email, inserting c first if there is none.
func (r *customerRepository) Ensure(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	query := `
		INSERT INTO customers (id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.Email, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("email", c.Email).Msg("failed to ensure customer")
		return nil, fmt.Errorf("failed to ensure customer: %w", err)
	}

	if tag.RowsAffected() == 1 {
		r.logger.Debug().Str("customer_id", c.ID.String()).Msg("customer created")
		return c, nil
	}

	existing, err := r.GetByEmail(ctx, c.Email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// Deleted between the insert attempt and the read.
		return nil, fmt.Errorf("failed to ensure customer: %s vanished", c.Email)
	}

	return existing, nil
}

// GetByID retrieves a single customer by its ID.
func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	c, err := scanCustomer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("customer_id", id.String()).Msg("customer not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("customer_id", id.String()).Msg("failed to query customer")
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}

	return c, nil
}

// GetByEmail retrieves a single customer by email.
func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	c, err := getCustomerByEmail(ctx, r.pool, email)
	if err != nil {
		r.logger.Error().Err(err).Str("email", email).Msg("failed to query customer")
		return nil, err
	}
	return c, nil
}

// List retrieves customers with pagination support.
func (r *customerRepository) List(ctx context.Context, limit, offset int) ([]model.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		ORDER BY email
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Int("limit", limit).Int("offset", offset).Msg("failed to query customers")
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan customer row")
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating customer rows")
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}

// Delete removes a customer; its vouchers go with it.
func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("customer_id", id.String()).Msg("failed to delete customer")
		return false, fmt.Errorf("failed to delete customer: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func getCustomerByEmail(ctx context.Context, q querier, email string) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`

	c, err := scanCustomer(q.QueryRow(ctx, query, email))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query customer by email: %w", err)
	}
	return c, nil
}

func scanCustomer(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
