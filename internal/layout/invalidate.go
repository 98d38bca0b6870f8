package layout

import "sync"

// Completion signals that a reconciliation pass covering an
// invalidation has finished.
//
// Completions are weakly consistent: every Invalidate call returns a
// fresh handle, and a pass resolves all handles issued before it ran.
// Do not assume strict ordering across handles.
type Completion struct {
	done chan struct{}
	err  error
	once sync.Once
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

func (c *Completion) resolve(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Done returns a channel closed when the covering pass completes.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Err returns the completion error, or nil while unresolved or on
// success.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Invalidate unions [start, end) into the pending invalidation interval
// and schedules a reconciliation pass at the next batching boundary.
// Both bounds are stored as document-anchored references so the
// interval stays valid across further edits before the pass runs.
func (l *Layout) Invalidate(start, end int) *Completion {
	c := newCompletion()
	if l.removed {
		c.resolve(ErrRemoved)
		return c
	}

	if l.invalStart == nil {
		l.invalStart = l.doc.CreateLocalRef(start)
	} else if cur := l.doc.LocalRefToPosition(l.invalStart); start < cur {
		l.doc.RemoveLocalRef(l.invalStart)
		l.invalStart = l.doc.CreateLocalRef(start)
	}
	if l.invalEnd == nil {
		l.invalEnd = l.doc.CreateLocalRef(end)
	} else if cur := l.doc.LocalRefToPosition(l.invalEnd); end > cur {
		l.doc.RemoveLocalRef(l.invalEnd)
		l.invalEnd = l.doc.CreateLocalRef(end)
	}

	l.completions = append(l.completions, c)
	l.render()
	return c
}

// renderPass is the scheduled reconciliation callback. It resolves the
// anchored interval, runs one pass over it, and resolves every
// completion issued before the pass.
func (l *Layout) renderPass() {
	if l.removed {
		return
	}
	if l.invalStart == nil || l.invalEnd == nil {
		return
	}
	start := l.doc.LocalRefToPosition(l.invalStart)
	end := l.doc.LocalRefToPosition(l.invalEnd)
	l.releaseInvalRefs()

	comps := l.completions
	l.completions = nil

	l.Sync(start, end)

	for _, c := range comps {
		c.resolve(nil)
	}
}

// releaseInvalRefs resets the pending interval to its unset sentinels.
func (l *Layout) releaseInvalRefs() {
	if l.invalStart != nil {
		l.doc.RemoveLocalRef(l.invalStart)
		l.invalStart = nil
	}
	if l.invalEnd != nil {
		l.doc.RemoveLocalRef(l.invalEnd)
		l.invalEnd = nil
	}
}
