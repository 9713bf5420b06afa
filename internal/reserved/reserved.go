// Package reserved loads sets of codes that must never be issued as voucher
// codes, such as codes already printed on partner material.
package reserved

import (
	"context"
)

// Set is a read-only set of reserved codes.
type Set interface {
	// Contains reports whether code is reserved. Codes are compared upper-cased.
	Contains(code string) bool

	// Size returns the number of codes in the set.
	Size() int
}

// Loader reads one gzipped code file into a Set.
type Loader interface {
	Load(ctx context.Context, path string) (Set, error)
}
