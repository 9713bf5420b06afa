package service

import (
	"context"

	"voucher-pool/internal/model"

	"github.com/google/uuid"
)

// VoucherService issues, redeems and queries vouchers.
type VoucherService interface {
	// Issue creates a voucher for the named offer, creating the customer if needed.
	Issue(ctx context.Context, req *model.IssueRequest) (*model.Voucher, error)

	// Redeem marks the voucher used for the customer and returns its discount.
	// Concurrent redemptions of one code succeed at most once.
	Redeem(ctx context.Context, req *model.RedeemRequest) (*model.RedeemResponse, error)

	// ValidVouchers lists the customer's unused, unexpired vouchers at the time of the call.
	ValidVouchers(ctx context.Context, email string) ([]model.ValidVoucher, error)

	// GetByCode retrieves a voucher by code without locking it.
	GetByCode(ctx context.Context, code string) (*model.Voucher, error)

	// Delete hard-deletes a voucher. Its code is never issued again.
	Delete(ctx context.Context, id uuid.UUID) error
}

// OfferService manages offers.
type OfferService interface {
	Create(ctx context.Context, req *model.OfferRequest) (*model.Offer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	List(ctx context.Context, limit, offset int) ([]model.Offer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CustomerService manages customers.
type CustomerService interface {
	Create(ctx context.Context, req *model.CustomerRequest) (*model.Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	List(ctx context.Context, limit, offset int) ([]model.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
