package doc

import "slices"

// ChangeKind classifies an affected range within a ChangeEvent.
type ChangeKind uint8

const (
	// ChangeEdit indicates content within the range was inserted or
	// altered and needs re-reconciliation.
	ChangeEdit ChangeKind = iota

	// ChangeRemove indicates the carried segment was removed from the
	// document.
	ChangeRemove

	// ChangeAppend indicates the carried segment was absorbed into its
	// left-hand neighbor by a merge.
	ChangeAppend
)

// String returns the string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeEdit:
		return "edit"
	case ChangeRemove:
		return "remove"
	case ChangeAppend:
		return "append"
	default:
		return "unknown"
	}
}

// ChangedRange describes one affected range of a document mutation.
// Start and End are positions in the post-edit document. Segment is set
// for ChangeRemove and ChangeAppend ranges and names the dead segment.
type ChangedRange struct {
	Start   int
	End     int
	Kind    ChangeKind
	Segment Segment
}

// ChangeEvent carries the affected ranges of a single document
// mutation, in the order they were produced.
type ChangeEvent struct {
	Ranges []ChangedRange
}

// OnChange subscribes fn to document mutations. The returned function
// unsubscribes; calling it more than once is harmless.
func (d *Document) OnChange(fn func(ChangeEvent)) func() {
	id := d.nextHandler
	d.nextHandler++
	d.handlers[id] = fn
	return func() {
		delete(d.handlers, id)
	}
}

// fire delivers ev to all subscribers in subscription order.
func (d *Document) fire(ev ChangeEvent) {
	if len(ev.Ranges) == 0 {
		return
	}
	ids := make([]int, 0, len(d.handlers))
	for id := range d.handlers {
		ids = append(ids, id)
	}
	// Map iteration order is random; deliver in subscription order so
	// behavior is reproducible.
	slices.Sort(ids)
	for _, id := range ids {
		if fn, ok := d.handlers[id]; ok {
			fn(ev)
		}
	}
}
