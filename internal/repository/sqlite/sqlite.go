/*
Package sqlite provides a SQLite-backed implementation of the repository
interfaces, for single-node deployments and local development.

The schema mirrors the PostgreSQL one. Timestamps are stored as fixed-width
UTC text so they sort lexically, and discounts as decimal text.

CONCURRENCY:

	Transactions are opened with _txlock=immediate, so a redemption takes the
	database write lock at BEGIN and holds it until Commit or Rollback. Other
	writers wait up to the busy timeout. MarkUsed additionally guards the flip
	with is_used = 0 and reports ErrConcurrentModification when it lost.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"voucher-pool/internal/repository"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// timeLayout is RFC 3339 with a fixed nine-digit fraction.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS offers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		discount_percentage TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Insert-only: codes are never recycled.
	CREATE TABLE IF NOT EXISTS voucher_codes (
		code TEXT PRIMARY KEY,
		issued_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vouchers (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE REFERENCES voucher_codes(code),
		customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		offer_id TEXT NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		expiration_date TEXT NOT NULL,
		is_used BOOLEAN NOT NULL DEFAULT 0,
		usage_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (is_used = (usage_date IS NOT NULL))
	);

	CREATE INDEX IF NOT EXISTS idx_vouchers_customer_unused
		ON vouchers(customer_id) WHERE is_used = 0;
	CREATE INDEX IF NOT EXISTS idx_vouchers_offer
		ON vouchers(offer_id);
`

// Store holds the SQLite handle shared by the repositories.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string, busyTimeout time.Duration, logger zerolog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate&_busy_timeout=%d",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info().Str("path", path).Msg("sqlite store ready")

	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Customers returns the customer repository.
func (s *Store) Customers() repository.CustomerRepository {
	return &customerRepository{db: s.db, logger: s.logger.With().Str("repository", "customer").Logger()}
}

// Offers returns the offer repository.
func (s *Store) Offers() repository.OfferRepository {
	return &offerRepository{db: s.db, logger: s.logger.With().Str("repository", "offer").Logger()}
}

// Vouchers returns the voucher repository.
func (s *Store) Vouchers() repository.VoucherRepository {
	return &voucherRepository{db: s.db, logger: s.logger.With().Str("repository", "voucher").Logger()}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY violation,
// optionally on one of the given "table.column" targets.
func isUniqueViolation(err error, targets ...string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique &&
		sqliteErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
		return false
	}
	if len(targets) == 0 {
		return true
	}
	for _, target := range targets {
		if strings.Contains(sqliteErr.Error(), target) {
			return true
		}
	}
	return false
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isBusy reports whether err is SQLITE_BUSY or SQLITE_LOCKED.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked)
}
