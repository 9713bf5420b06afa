package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Voucher is a single-use code binding one customer to one offer.
//
// IsUsed only ever moves from false to true, and UsageDate is non-nil exactly
// when IsUsed is true.
type Voucher struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Code           string     `json:"code" db:"code"`
	CustomerID     uuid.UUID  `json:"customerId" db:"customer_id"`
	OfferID        uuid.UUID  `json:"offerId" db:"offer_id"`
	ExpirationDate time.Time  `json:"expirationDate" db:"expiration_date"`
	IsUsed         bool       `json:"isUsed" db:"is_used"`
	UsageDate      *time.Time `json:"usageDate" db:"usage_date"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

// ValidAt reports whether the voucher can be redeemed at the given instant.
// A voucher expiring exactly at now is still valid.
func (v *Voucher) ValidAt(now time.Time) bool {
	return !v.IsUsed && !v.ExpirationDate.Before(now)
}

// IssueRequest represents the request payload for issuing a voucher.
type IssueRequest struct {
	CustomerName   string `json:"customerName"`
	CustomerEmail  string `json:"customerEmail"`
	OfferName      string `json:"offerName"`
	ExpirationDate string `json:"expirationDate"`
}

// RedeemRequest represents the request payload for redeeming a voucher.
type RedeemRequest struct {
	Code          string `json:"code"`
	CustomerEmail string `json:"customerEmail"`
}

// RedeemResponse is returned by a successful redemption.
type RedeemResponse struct {
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
}

// ValidVoucher is the projection returned by the validity query.
type ValidVoucher struct {
	Code               string          `json:"code"`
	OfferName          string          `json:"offerName"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	ExpirationDate     time.Time       `json:"expirationDate"`
}
