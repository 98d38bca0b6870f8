package layout

import "errors"

// Errors delivered through completion signals.
var (
	// ErrRemoved indicates the layout was removed before the pending
	// invalidation was reconciled.
	ErrRemoved = errors.New("layout removed")
)
