package format

import "errors"

// Lua formatter loading errors.
var (
	// ErrScriptNoTable is returned when a formatter script does not
	// return a table.
	ErrScriptNoTable = errors.New("lua formatter script must return a table")

	// ErrScriptNoVisit is returned when the returned table has no visit
	// function.
	ErrScriptNoVisit = errors.New("lua formatter table must define visit")
)
