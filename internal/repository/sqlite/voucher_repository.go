package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voucher-pool/internal/model"
	"voucher-pool/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const voucherColumns = `id, code, customer_id, offer_id, expiration_date, is_used, usage_date, created_at, updated_at`

type voucherRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func (r *voucherRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM voucher_codes WHERE code = ?`, code,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check voucher code: %w", err)
	}
	return count > 0, nil
}

func (r *voucherRepository) FindByCode(ctx context.Context, code string) (*model.Voucher, error) {
	return getVoucherByCode(ctx, r.db, code)
}

// FindUnusedByCustomer returns unused vouchers in insertion order.
func (r *voucherRepository) FindUnusedByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Voucher, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers
		 WHERE customer_id = ? AND is_used = 0
		 ORDER BY rowid`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := []model.Voucher{}
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, *v)
	}
	return vouchers, rows.Err()
}

func (r *voucherRepository) Create(ctx context.Context, v *model.Voucher) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO voucher_codes (code, issued_at) VALUES (?, ?)`,
		v.Code, formatTime(v.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateCode
		}
		return fmt.Errorf("failed to claim voucher code: %w", err)
	}

	var usageDate sql.NullString
	if v.UsageDate != nil {
		usageDate = sql.NullString{String: formatTime(*v.UsageDate), Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO vouchers (`+voucherColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Code, v.CustomerID, v.OfferID, formatTime(v.ExpirationDate),
		v.IsUsed, usageDate, formatTime(v.CreatedAt), formatTime(v.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "vouchers.code") {
			return repository.ErrDuplicateCode
		}
		r.logger.Error().Err(err).Str("voucher_id", v.ID.String()).Msg("failed to create voucher")
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit voucher: %w", err)
	}
	return nil
}

func (r *voucherRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vouchers WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete voucher: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// BeginTx starts an IMMEDIATE transaction; it holds the write lock from BEGIN.
func (r *voucherRepository) BeginTx(ctx context.Context) (repository.VoucherTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		if isBusy(err) {
			return nil, fmt.Errorf("failed to begin transaction: %w", repository.ErrLockTimeout)
		}
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &voucherTx{tx: tx}, nil
}

type voucherTx struct {
	tx *sql.Tx
}

func (t *voucherTx) FindCustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	return getCustomerByEmail(ctx, t.tx, email)
}

// FindByCodeForUpdate reads inside the write-locked transaction, so no other
// writer can change the row before Commit.
func (t *voucherTx) FindByCodeForUpdate(ctx context.Context, code string) (*model.Voucher, error) {
	return getVoucherByCode(ctx, t.tx, code)
}

func (t *voucherTx) FindOfferByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	return getOfferByID(ctx, t.tx, id)
}

func (t *voucherTx) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	ts := formatTime(usedAt)
	res, err := t.tx.ExecContext(ctx,
		`UPDATE vouchers SET is_used = 1, usage_date = ?, updated_at = ?
		 WHERE id = ? AND is_used = 0`,
		ts, ts, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark voucher used: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark voucher used: %w", err)
	}
	if n == 0 {
		return repository.ErrConcurrentModification
	}
	return nil
}

func (t *voucherTx) Commit(_ context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *voucherTx) Rollback(_ context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func getVoucherByCode(ctx context.Context, q queryer, code string) (*model.Voucher, error) {
	v, err := scanVoucher(q.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE code = ?`, code))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query voucher: %w", err)
	}
	return v, nil
}

func scanVoucher(row scanner) (*model.Voucher, error) {
	var (
		v                                model.Voucher
		expiration, createdAt, updatedAt string
		usageDate                        sql.NullString
		err                              error
	)
	err = row.Scan(&v.ID, &v.Code, &v.CustomerID, &v.OfferID, &expiration,
		&v.IsUsed, &usageDate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if v.ExpirationDate, err = parseTime(expiration); err != nil {
		return nil, err
	}
	if usageDate.Valid {
		used, err := parseTime(usageDate.String)
		if err != nil {
			return nil, err
		}
		v.UsageDate = &used
	}
	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if v.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}
