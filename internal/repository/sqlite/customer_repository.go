package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"voucher-pool/internal/model"
	"voucher-pool/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const customerColumns = `id, name, email, created_at, updated_at`

type customerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func (r *customerRepository) Create(ctx context.Context, c *model.Customer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (id, name, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "customers.email") {
			return repository.ErrDuplicateEmail
		}
		r.logger.Error().Err(err).Str("customer_id", c.ID.String()).Msg("failed to create customer")
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (r *customerRepository) Ensure(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (id, name, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (email) DO NOTHING`,
		c.ID, c.Name, c.Email, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("email", c.Email).Msg("failed to ensure customer")
		return nil, fmt.Errorf("failed to ensure customer: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 1 {
		return c, nil
	}

	existing, err := getCustomerByEmail(ctx, r.db, c.Email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("failed to ensure customer: %s vanished", c.Email)
	}
	return existing, nil
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}
	return c, nil
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	return getCustomerByEmail(ctx, r.db, email)
}

func (r *customerRepository) List(ctx context.Context, limit, offset int) ([]model.Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY email LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete customer: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func getCustomerByEmail(ctx context.Context, q queryer, email string) (*model.Customer, error) {
	c, err := scanCustomer(q.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE email = ?`, email))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query customer by email: %w", err)
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row scanner) (*model.Customer, error) {
	var (
		c                    model.Customer
		createdAt, updatedAt string
		err                  error
	)
	if err = row.Scan(&c.ID, &c.Name, &c.Email, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
