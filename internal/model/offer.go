package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Discounts are rendered as JSON numbers (10.5), not strings ("10.5").
	decimal.MarshalJSONWithoutQuotes = true
}

// Offer is a named percentage discount granted by redeeming a voucher.
type Offer struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	Name               string          `json:"name" db:"name"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage" db:"discount_percentage"`
	CreatedAt          time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time       `json:"updatedAt" db:"updated_at"`
}

// OfferRequest represents the request payload for creating an offer.
type OfferRequest struct {
	Name               string          `json:"name"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
}

var (
	minDiscount = decimal.Zero
	maxDiscount = decimal.NewFromInt(100)
)

// ValidDiscount reports whether d lies in [0, 100] with at most two fractional digits.
func ValidDiscount(d decimal.Decimal) bool {
	if d.LessThan(minDiscount) || d.GreaterThan(maxDiscount) {
		return false
	}
	return d.Equal(d.Truncate(2))
}
