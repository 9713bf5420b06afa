package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"voucher-pool/internal/model"
	"voucher-pool/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const offerColumns = `id, name, discount_percentage, created_at, updated_at`

type offerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func (r *offerRepository) Create(ctx context.Context, o *model.Offer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO offers (id, name, discount_percentage, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.Name, o.DiscountPercentage.String(), formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "offers.name") {
			return repository.ErrDuplicateOfferName
		}
		r.logger.Error().Err(err).Str("offer_id", o.ID.String()).Msg("failed to create offer")
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

func (r *offerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	return getOfferByID(ctx, r.db, id)
}

func (r *offerRepository) GetByName(ctx context.Context, name string) (*model.Offer, error) {
	o, err := scanOffer(r.db.QueryRowContext(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE name = ?`, name))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query offer: %w", err)
	}
	return o, nil
}

func (r *offerRepository) List(ctx context.Context, limit, offset int) ([]model.Offer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+offerColumns+` FROM offers ORDER BY name LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	offers := []model.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, *o)
	}
	return offers, rows.Err()
}

func (r *offerRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM offers WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete offer: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func getOfferByID(ctx context.Context, q queryer, id uuid.UUID) (*model.Offer, error) {
	o, err := scanOffer(q.QueryRowContext(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query offer: %w", err)
	}
	return o, nil
}

func scanOffer(row scanner) (*model.Offer, error) {
	var (
		o                              model.Offer
		discount, createdAt, updatedAt string
		err                            error
	)
	if err = row.Scan(&o.ID, &o.Name, &discount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if o.DiscountPercentage, err = decimal.NewFromString(discount); err != nil {
		return nil, fmt.Errorf("invalid discount %q: %w", discount, err)
	}
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
