package layout

import "maps"

// State is formatter-local memory for one open format scope. When a
// scope is re-opened during an incremental pass, the previous pass's
// state is value-copied into the new scope, letting formatters reuse
// container nodes instead of recreating them.
type State map[string]any

// Clone returns a value copy of the state. Values are copied shallowly;
// formatters that store pointers share the pointees across clones, which
// is exactly what node caching relies on.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	return maps.Clone(s)
}

// Formatter is the per-segment-kind rendering capability.
//
// Visit is invoked repeatedly for the active segment until it returns
// true ("segment complete"). A formatter may call any of the Context's
// structural and emission operations during Begin, End, and Visit.
type Formatter interface {
	// Begin opens a format scope. It runs after the scope's state has
	// been seeded (cloned from the prior checkpoint when possible) and
	// before the scope is pushed.
	Begin(c *Context, state State)

	// End closes a format scope after it is popped.
	End(c *Context, state State)

	// Visit renders the active segment. Returning true marks the
	// segment complete; returning false re-invokes the now-active
	// formatter, which may differ if Visit pushed or popped scopes.
	Visit(c *Context, state State) bool
}

// FormatInfo pairs a formatter with its scope state. The pairing is
// immutable: once pushed, a scope keeps its formatter and state identity
// for its lifetime.
type FormatInfo struct {
	Formatter Formatter
	State     State
}

// clone returns a FormatInfo with a value-copied state.
func (f FormatInfo) clone() FormatInfo {
	return FormatInfo{Formatter: f.Formatter, State: f.State.Clone()}
}

// cloneStack deep-copies a format stack.
func cloneStack(stack []FormatInfo) []FormatInfo {
	if len(stack) == 0 {
		return nil
	}
	out := make([]FormatInfo, len(stack))
	for i, fi := range stack {
		out[i] = fi.clone()
	}
	return out
}
