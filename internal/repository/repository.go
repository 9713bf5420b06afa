package repository

import (
	"context"
	"errors"
	"time"

	"voucher-pool/internal/model"

	"github.com/google/uuid"
)

// Storage-level conflicts. Lookups that find nothing return (nil, nil).
var (
	// ErrDuplicateCode is returned when a voucher code was already issued.
	ErrDuplicateCode = errors.New("voucher code already issued")

	// ErrDuplicateEmail is returned when a customer email is already taken.
	ErrDuplicateEmail = errors.New("customer email already exists")

	// ErrDuplicateOfferName is returned when an offer name is already taken.
	ErrDuplicateOfferName = errors.New("offer name already exists")

	// ErrConcurrentModification is returned when a voucher flip lost a race.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrLockTimeout is returned when a row lock could not be acquired in time.
	ErrLockTimeout = errors.New("lock wait timed out")
)

// CustomerRepository defines the interface for customer data access operations.
type CustomerRepository interface {
	// Create inserts a new customer. Returns ErrDuplicateEmail if the email is taken.
	Create(ctx context.Context, customer *model.Customer) error

	// Ensure returns the customer with customer.Email, inserting customer if absent.
	// Safe against concurrent callers racing on the same email.
	Ensure(ctx context.Context, customer *model.Customer) (*model.Customer, error)

	// GetByID retrieves a single customer by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)

	// GetByEmail retrieves a single customer by email.
	GetByEmail(ctx context.Context, email string) (*model.Customer, error)

	// List retrieves customers with pagination support.
	List(ctx context.Context, limit, offset int) ([]model.Customer, error)

	// Delete removes a customer and, by cascade, its vouchers.
	// Reports whether a row was deleted.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// OfferRepository defines the interface for offer data access operations.
type OfferRepository interface {
	// Create inserts a new offer. Returns ErrDuplicateOfferName if the name is taken.
	Create(ctx context.Context, offer *model.Offer) error

	// GetByID retrieves a single offer by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error)

	// GetByName retrieves a single offer by its unique name.
	GetByName(ctx context.Context, name string) (*model.Offer, error)

	// List retrieves offers with pagination support.
	List(ctx context.Context, limit, offset int) ([]model.Offer, error)

	// Delete removes an offer and, by cascade, its vouchers.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// VoucherRepository defines the interface for voucher data access operations.
type VoucherRepository interface {
	// CodeExists reports whether code was ever issued, including codes of
	// deleted vouchers. Unlocked.
	CodeExists(ctx context.Context, code string) (bool, error)

	// FindByCode retrieves a voucher by code without locking it.
	FindByCode(ctx context.Context, code string) (*model.Voucher, error)

	// FindUnusedByCustomer retrieves the customer's vouchers with is_used = false.
	// Point-in-time and unlocked.
	FindUnusedByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Voucher, error)

	// Create inserts a new voucher and claims its code.
	// Returns ErrDuplicateCode if the code was already issued.
	Create(ctx context.Context, voucher *model.Voucher) error

	// Delete hard-deletes a voucher. Its code stays claimed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// BeginTx starts a redemption transaction.
	BeginTx(ctx context.Context) (VoucherTx, error)
}

// VoucherTx is a redemption unit of work. Every read goes through the same
// transaction; nothing is visible to others before Commit.
type VoucherTx interface {
	// FindCustomerByEmail retrieves a customer by email inside the transaction.
	FindCustomerByEmail(ctx context.Context, email string) (*model.Customer, error)

	// FindByCodeForUpdate retrieves a voucher by code and holds an exclusive
	// lock on it until Commit or Rollback.
	FindByCodeForUpdate(ctx context.Context, code string) (*model.Voucher, error)

	// FindOfferByID retrieves an offer inside the transaction.
	FindOfferByID(ctx context.Context, id uuid.UUID) (*model.Offer, error)

	// MarkUsed flips the voucher to used with the given usage date. Returns
	// ErrConcurrentModification if the voucher is no longer unused.
	MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error

	// Commit makes the transaction's changes visible.
	Commit(ctx context.Context) error

	// Rollback discards the transaction. Calling it after Commit is a no-op.
	Rollback(ctx context.Context) error
}
