package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Schema is the PostgreSQL schema of the voucher store.
//
// voucher_codes is insert-only: a code stays taken after its voucher row is
// deleted, so codes are never recycled.
const Schema = `
	CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT customers_email_key UNIQUE (email)
	);

	CREATE TABLE IF NOT EXISTS offers (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		discount_percentage NUMERIC(5,2) NOT NULL
			CHECK (discount_percentage >= 0 AND discount_percentage <= 100),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT offers_name_key UNIQUE (name)
	);

	CREATE TABLE IF NOT EXISTS voucher_codes (
		code VARCHAR(20) PRIMARY KEY,
		issued_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS vouchers (
		id UUID PRIMARY KEY,
		code VARCHAR(20) NOT NULL REFERENCES voucher_codes(code),
		customer_id UUID NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		offer_id UUID NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		expiration_date TIMESTAMPTZ NOT NULL,
		is_used BOOLEAN NOT NULL DEFAULT FALSE,
		usage_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT vouchers_code_key UNIQUE (code),
		CONSTRAINT vouchers_usage_consistent CHECK (is_used = (usage_date IS NOT NULL))
	);

	CREATE INDEX IF NOT EXISTS idx_vouchers_customer_unused
		ON vouchers(customer_id) WHERE is_used = FALSE;
	CREATE INDEX IF NOT EXISTS idx_vouchers_offer
		ON vouchers(offer_id);
`

// Migrate creates the voucher store schema if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		logger.Error().Err(err).Msg("failed to migrate database schema")
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}

	logger.Info().Msg("database schema is up to date")

	return nil
}
