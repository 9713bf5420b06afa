package service

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"voucher-pool/internal/codegen"
	"voucher-pool/internal/model"
)

const maxTextLength = 255

// normaliseEmail trims and lower-cases an RFC 5322 address.
func normaliseEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", model.ValidationError(model.ErrCodeMissingField, "email is required")
	}
	if len(email) > maxTextLength {
		return "", model.ValidationError(model.ErrCodeInvalidEmail, "email must be at most 255 characters")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", model.ValidationError(model.ErrCodeInvalidEmail, "email is not a valid address")
	}

	return strings.ToLower(email), nil
}

// normaliseCode trims and upper-cases a voucher code and checks its length.
func normaliseCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", model.ValidationError(model.ErrCodeMissingField, "code is required")
	}
	if len(code) < codegen.MinLength || len(code) > codegen.MaxLength {
		return "", model.ValidationError(model.ErrCodeInvalidCode, "code must be between 8 and 20 characters")
	}
	return code, nil
}

// requireName trims a display name and checks it is 1..255 characters.
func requireName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.ValidationError(model.ErrCodeMissingField, field+" is required")
	}
	if utf8.RuneCountInString(name) > maxTextLength {
		return "", model.ValidationError(model.ErrCodeInvalidName, field+" must be at most 255 characters")
	}
	return name, nil
}

// parseExpiration accepts RFC 3339 timestamps and plain dates (midnight UTC).
// Timestamps are truncated to microseconds, the precision both stores keep.
func parseExpiration(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, model.ValidationError(model.ErrCodeMissingField, "expirationDate is required")
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Truncate(time.Microsecond), nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.UTC(), nil
	}

	return time.Time{}, model.ValidationError(model.ErrCodeInvalidDate, "expirationDate must be an ISO-8601 date or timestamp")
}
