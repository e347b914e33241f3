package stats

import "errors"

// Sentinel errors for caller contract violations. Data irregularities never
// produce errors.
var (
	ErrInvalidSortKey   = errors.New("invalid sort key")
	ErrInvalidDirection = errors.New("invalid sort direction")
	ErrNegativeLimit    = errors.New("limit must not be negative")
)
