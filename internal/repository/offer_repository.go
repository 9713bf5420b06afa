package repository

import (
	"context"
	"fmt"

	"voucher-pool/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Discounts travel as text so NUMERIC keeps its exact scale both ways.
const offerColumns = `id, name, discount_percentage::text, created_at, updated_at`

// offerRepository implements the OfferRepository interface using PostgreSQL.
type offerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOfferRepository creates a new PostgreSQL-backed offer repository.
func NewOfferRepository(pool *pgxpool.Pool, logger zerolog.Logger) OfferRepository {
	return &offerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "offer").Logger(),
	}
}

// Create inserts a new offer.
func (r *offerRepository) Create(ctx context.Context, o *model.Offer) error {
	query := `
		INSERT INTO offers (id, name, discount_percentage, created_at, updated_at)
		VALUES ($1, $2, $3::text::numeric, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, o.ID, o.Name, o.DiscountPercentage.String(), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "offers_name_key") {
			r.logger.Debug().Str("offer_name", o.Name).Msg("offer name already exists")
			return ErrDuplicateOfferName
		}
		r.logger.Error().Err(err).Str("offer_id", o.ID.String()).Msg("failed to create offer")
		return fmt.Errorf("failed to create offer: %w", err)
	}

	r.logger.Debug().
		Str("offer_id", o.ID.String()).
		Str("offer_name", o.Name).
		Msg("offer created successfully")

	return nil
}

// GetByID retrieves a single offer by its ID.
func (r *offerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	o, err := getOfferByID(ctx, r.pool, id)
	if err != nil {
		r.logger.Error().Err(err).Str("offer_id", id.String()).Msg("failed to query offer")
		return nil, err
	}
	return o, nil
}

// GetByName retrieves a single offer by its unique name.
func (r *offerRepository) GetByName(ctx context.Context, name string) (*model.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE name = $1`

	o, err := scanOffer(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("offer_name", name).Msg("offer not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("offer_name", name).Msg("failed to query offer")
		return nil, fmt.Errorf("failed to query offer: %w", err)
	}

	return o, nil
}

// List retrieves offers ordered by name.
func (r *offerRepository) List(ctx context.Context, limit, offset int) ([]model.Offer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM offers
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Int("limit", limit).Int("offset", offset).Msg("failed to query offers")
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	offers := []model.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan offer row")
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, *o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating offer rows")
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}

// Delete removes an offer together with its vouchers.
func (r *offerRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("offer_id", id.String()).Msg("failed to delete offer")
		return false, fmt.Errorf("failed to delete offer: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func getOfferByID(ctx context.Context, q querier, id uuid.UUID) (*model.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	o, err := scanOffer(q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query offer: %w", err)
	}
	return o, nil
}

func scanOffer(row pgx.Row) (*model.Offer, error) {
	var (
		o        model.Offer
		discount string
	)
	if err := row.Scan(&o.ID, &o.Name, &discount, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	d, err := decimal.NewFromString(discount)
	if err != nil {
		return nil, fmt.Errorf("invalid discount %q: %w", discount, err)
	}
	o.DiscountPercentage = d

	return &o, nil
}
