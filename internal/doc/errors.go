package doc

import "errors"

// Errors returned by document operations.
var (
	// ErrPositionOutOfRange indicates a position is outside the valid
	// document range.
	ErrPositionOutOfRange = errors.New("position out of range")

	// ErrRangeInvalid indicates an invalid range (end < start).
	ErrRangeInvalid = errors.New("invalid range")
)
