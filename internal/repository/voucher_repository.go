package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voucher-pool/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const voucherColumns = `id, code, customer_id, offer_id, expiration_date, is_used, usage_date, created_at, updated_at`

// voucherRepository implements the VoucherRepository interface using PostgreSQL.
type voucherRepository struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
	logger      zerolog.Logger
}

// NewVoucherRepository creates a new PostgreSQL-backed voucher repository.
// lockTimeout bounds how long a redemption waits for a contended voucher row;
// zero waits indefinitely.
func NewVoucherRepository(pool *pgxpool.Pool, lockTimeout time.Duration, logger zerolog.Logger) VoucherRepository {
	return &voucherRepository{
		pool:        pool,
		lockTimeout: lockTimeout,
		logger:      logger.With().Str("repository", "voucher").Logger(),
	}
}

// CodeExists reports whether the code was ever issued.
func (r *voucherRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM voucher_codes WHERE code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		r.logger.Error().Err(err).Str("code", code).Msg("failed to check voucher code")
		return false, fmt.Errorf("failed to check voucher code: %w", err)
	}
	return exists, nil
}

// FindByCode retrieves a voucher by code without locking it.
func (r *voucherRepository) FindByCode(ctx context.Context, code string) (*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE code = $1`

	v, err := scanVoucher(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("code", code).Msg("voucher not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query voucher")
		return nil, fmt.Errorf("failed to query voucher: %w", err)
	}

	return v, nil
}

// FindUnusedByCustomer retrieves the customer's unused vouchers, oldest first.
func (r *voucherRepository) FindUnusedByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Voucher, error) {
	query := `
		SELECT ` + voucherColumns + `
		FROM vouchers
		WHERE customer_id = $1 AND is_used = FALSE
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		r.logger.Error().Err(err).Str("customer_id", customerID.String()).Msg("failed to query vouchers")
		return nil, fmt.Errorf("failed to query vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := []model.Voucher{}
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan voucher row")
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, *v)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating voucher rows")
		return nil, fmt.Errorf("error iterating vouchers: %w", err)
	}

	return vouchers, nil
}

// Create claims the voucher's code and inserts the voucher in one transaction.
func (r *voucherRepository) Create(ctx context.Context, v *model.Voucher) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO voucher_codes (code, issued_at) VALUES ($1, $2)`,
		v.Code, v.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Debug().Str("code", v.Code).Msg("voucher code already issued")
			return ErrDuplicateCode
		}
		r.logger.Error().Err(err).Str("code", v.Code).Msg("failed to claim voucher code")
		return fmt.Errorf("failed to claim voucher code: %w", err)
	}

	query := `
		INSERT INTO vouchers (id, code, customer_id, offer_id, expiration_date, is_used, usage_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, query,
		v.ID, v.Code, v.CustomerID, v.OfferID, v.ExpirationDate,
		v.IsUsed, v.UsageDate, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "vouchers_code_key") {
			return ErrDuplicateCode
		}
		r.logger.Error().Err(err).Str("voucher_id", v.ID.String()).Msg("failed to create voucher")
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("voucher_id", v.ID.String()).Msg("failed to commit voucher")
		return fmt.Errorf("failed to commit voucher: %w", err)
	}
	committed = true

	r.logger.Debug().
		Str("voucher_id", v.ID.String()).
		Str("code", v.Code).
		Msg("voucher created successfully")

	return nil
}

// Delete hard-deletes a voucher. The code remains claimed in voucher_codes.
func (r *voucherRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vouchers WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to delete voucher")
		return false, fmt.Errorf("failed to delete voucher: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// BeginTx starts a redemption transaction with the configured lock timeout.
func (r *voucherRepository) BeginTx(ctx context.Context) (VoucherTx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if r.lockTimeout > 0 {
		// is_local = true scopes the setting to this transaction.
		_, err = tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`,
			fmt.Sprintf("%dms", r.lockTimeout.Milliseconds()))
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			r.logger.Error().Err(err).Msg("failed to set lock timeout")
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	return &pgVoucherTx{tx: tx, logger: r.logger}, nil
}

// pgVoucherTx is a redemption transaction on PostgreSQL.
type pgVoucherTx struct {
	tx     pgx.Tx
	logger zerolog.Logger
}

func (t *pgVoucherTx) FindCustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	return getCustomerByEmail(ctx, t.tx, email)
}

// FindByCodeForUpdate locks the voucher row until the transaction ends.
// FOR NO KEY UPDATE blocks other redeemers but not inserts referencing the row.
func (t *pgVoucherTx) FindByCodeForUpdate(ctx context.Context, code string) (*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE code = $1 FOR NO KEY UPDATE`

	v, err := scanVoucher(t.tx.QueryRow(ctx, query, code))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		t.logger.Warn().Err(err).Str("code", code).Msg("failed to lock voucher")
		return nil, classify(err, "failed to lock voucher")
	}

	return v, nil
}

func (t *pgVoucherTx) FindOfferByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	return getOfferByID(ctx, t.tx, id)
}

// MarkUsed flips is_used only if the row is still unused.
func (t *pgVoucherTx) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	query := `
		UPDATE vouchers
		SET is_used = TRUE, usage_date = $2, updated_at = $2
		WHERE id = $1 AND is_used = FALSE
	`

	tag, err := t.tx.Exec(ctx, query, id, usedAt)
	if err != nil {
		t.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to mark voucher used")
		return classify(err, "failed to mark voucher used")
	}

	if tag.RowsAffected() == 0 {
		return ErrConcurrentModification
	}

	return nil
}

func (t *pgVoucherTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *pgVoucherTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func scanVoucher(row pgx.Row) (*model.Voucher, error) {
	var v model.Voucher
	err := row.Scan(
		&v.ID, &v.Code, &v.CustomerID, &v.OfferID, &v.ExpirationDate,
		&v.IsUsed, &v.UsageDate, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
