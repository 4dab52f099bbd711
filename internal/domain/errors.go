package domain

import "errors"

// Domain errors represent error conditions in the patchview domain.
// They are returned wrapped and can be checked with errors.Is.
var (
	// ErrMalformedRecord is returned when a record lacks a numeric patch
	// index or timestamp.
	ErrMalformedRecord = errors.New("patchview: malformed record")

	// ErrInvalidWindow is returned when window bounds fall outside
	// [0, length-1] or start is after end.
	ErrInvalidWindow = errors.New("patchview: invalid window")

	// ErrEmptySeries is returned by operations that need at least one record.
	ErrEmptySeries = errors.New("patchview: empty series")

	// ErrInvalidAxis is returned when a cursor axis cannot be inverted.
	ErrInvalidAxis = errors.New("patchview: invalid axis")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("patchview: invalid configuration")
)
