package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorKind groups domain errors by how a caller should react to them.
type ErrorKind int

const (
	// KindValidation marks malformed input.
	KindValidation ErrorKind = iota + 1
	// KindNotFound marks input referring to a nonexistent entity. Retrying is useless.
	KindNotFound
	// KindInvalidState marks a business-rule violation on an existing voucher.
	KindInvalidState
	// KindConflict marks a uniqueness clash on a collaborator entity.
	KindConflict
	// KindExhausted marks a code space too small for the configured attempts.
	KindExhausted
	// KindStorage marks a transient storage failure. The whole operation may be retried.
	KindStorage
	// KindInternal marks broken referential integrity.
	KindInternal
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON           = "INVALID_JSON"
	ErrCodeMissingField          = "MISSING_FIELD"
	ErrCodeInvalidEmail          = "INVALID_EMAIL"
	ErrCodeInvalidCode           = "INVALID_CODE"
	ErrCodeInvalidDate           = "INVALID_DATE"
	ErrCodeInvalidDiscount       = "INVALID_DISCOUNT"
	ErrCodeInvalidID             = "INVALID_ID"
	ErrCodeInvalidName           = "INVALID_NAME"
	ErrCodeInvalidPagination     = "INVALID_PAGINATION"
	ErrCodeCustomerNotFound      = "CUSTOMER_NOT_FOUND"
	ErrCodeVoucherNotFound       = "VOUCHER_NOT_FOUND"
	ErrCodeOfferNotFound         = "OFFER_NOT_FOUND"
	ErrCodeNotAssignedToCustomer = "NOT_ASSIGNED_TO_CUSTOMER"
	ErrCodeAlreadyUsed           = "ALREADY_USED"
	ErrCodeExpired               = "EXPIRED"
	ErrCodeOfferNameTaken        = "OFFER_NAME_TAKEN"
	ErrCodeCustomerEmailTaken    = "CUSTOMER_EMAIL_TAKEN"
	ErrCodeGenerationExhausted   = "GENERATION_EXHAUSTED"
	ErrCodeStorageFailure        = "STORAGE_FAILURE"
	ErrCodeInconsistentOffer     = "INCONSISTENT_OFFER"
	ErrCodeRateLimited           = "RATE_LIMITED"
	ErrCodeUnauthorised          = "UNAUTHORIZED"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// DomainError is a business error carrying a stable code.
// Two DomainErrors match under errors.Is when their codes are equal.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Unwrap returns the underlying cause, if any.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrCustomerNotFound      = NewDomainError(KindNotFound, ErrCodeCustomerNotFound, "Customer not found")
	ErrVoucherNotFound       = NewDomainError(KindNotFound, ErrCodeVoucherNotFound, "Voucher not found")
	ErrOfferNotFound         = NewDomainError(KindNotFound, ErrCodeOfferNotFound, "Offer not found")
	ErrNotAssignedToCustomer = NewDomainError(KindInvalidState, ErrCodeNotAssignedToCustomer, "Voucher is not assigned to this customer")
	ErrAlreadyUsed           = NewDomainError(KindInvalidState, ErrCodeAlreadyUsed, "Voucher has already been used")
	ErrExpired               = NewDomainError(KindInvalidState, ErrCodeExpired, "Voucher has expired")
	ErrOfferNameTaken        = NewDomainError(KindConflict, ErrCodeOfferNameTaken, "An offer with this name already exists")
	ErrCustomerEmailTaken    = NewDomainError(KindConflict, ErrCodeCustomerEmailTaken, "A customer with this email already exists")
	ErrGenerationExhausted   = NewDomainError(KindExhausted, ErrCodeGenerationExhausted, "Could not generate a unique voucher code")
	ErrStorageFailure        = NewDomainError(KindStorage, ErrCodeStorageFailure, "Storage failure")
	ErrInconsistentOffer     = NewDomainError(KindInternal, ErrCodeInconsistentOffer, "Voucher refers to a missing offer")
)

// ValidationError builds a KindValidation error for the given code.
func ValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// StorageFailure wraps a storage error so it matches ErrStorageFailure while
// keeping the cause for logs.
func StorageFailure(cause error) error {
	if cause == nil {
		return nil
	}
	var de *DomainError
	if errors.As(cause, &de) {
		return cause
	}
	return &DomainError{
		Kind:    KindStorage,
		Code:    ErrCodeStorageFailure,
		Message: ErrStorageFailure.Message,
		cause:   cause,
	}
}

// KindOf returns the kind of the first DomainError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// IsNotFound returns true if the error refers to a missing entity.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsInvalidState returns true if the error is a business-rule rejection.
func IsInvalidState(err error) bool {
	return KindOf(err) == KindInvalidState
}

// IsRetryable returns true if the whole operation may succeed on retry.
func IsRetryable(err error) bool {
	return KindOf(err) == KindStorage
}
