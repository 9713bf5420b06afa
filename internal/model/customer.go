package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the holder a voucher is issued to.
type Customer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CustomerRequest represents the request payload for creating a customer.
type CustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
