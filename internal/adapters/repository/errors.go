package repository

import "errors"

// Sentinel kinds for store errors. ErrConstraint marks writes rejected by a
// storage invariant and is not retriable; ErrUnavailable marks transient
// failures that are.
var (
	ErrNotFound    = errors.New("match row not found")
	ErrConstraint  = errors.New("storage constraint violated")
	ErrUnavailable = errors.New("storage unavailable")
)
