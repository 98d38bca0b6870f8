package layout

import "github.com/dshills/flowtree/internal/doc"

// Sync runs one reconciliation pass over [start, end), clamped to the
// document. The pass resumes from the nearest checkpoint at or before
// start and stops early once a segment past end-1 reconciles to the
// same cursor as its prior checkpoint, leaving untouched trailing
// segments alone.
//
// Sync is not reentrant; invoking it from within a formatter callback
// is a contract violation.
func (l *Layout) Sync(start, end int) {
	if l.inPass {
		panic("layout: reentrant Sync")
	}
	if l.removed {
		return
	}

	length := l.doc.Length()
	start = min(max(start, 0), length)
	end = min(max(end, start), length)

	cp, pos := l.findResumePoint(start)
	c := &Context{
		layout: l,
		start:  start,
		end:    end,
		pos:    pos,
		stack:  cloneStack(cp.stack),
		cursor: cp.cursor,
		// Sets are installed per segment by syncSegment; keep the
		// cleanup path safe before the first segment.
		emitted: make(nodeSet),
		pending: make(nodeSet),
	}

	l.inPass = true
	defer func() {
		// Flush orphans for the segment in flight even when a formatter
		// fails mid-pass, then discard the working state.
		c.removePending()
		c.stack = nil
		c.segment = nil
		l.inPass = false
	}()

	reachedEnd := true
	l.doc.VisitRange(pos, func(seg doc.Segment, segPos int) bool {
		cont := l.syncSegment(c, seg, segPos)
		if !cont {
			reachedEnd = false
		}
		return cont
	})

	if reachedEnd {
		// The walk covered the document tail; unwind every open scope
		// so the format stack terminates empty.
		for len(c.stack) > 0 {
			c.PopFormat()
		}
	}
}

// syncSegment reconciles one segment and decides whether the pass
// continues past it.
func (l *Layout) syncSegment(c *Context, seg doc.Segment, pos int) bool {
	c.pos = pos
	c.segment = seg

	// Swap rule: last pass's emitted set becomes this pass's pending
	// set, and a fresh set collects this pass's output. The two must
	// never alias.
	pending := l.emitted[seg.ID()]
	if pending == nil {
		pending = make(nodeSet)
	}
	c.pending = pending
	c.emitted = make(nodeSet)
	l.emitted[seg.ID()] = c.emitted

	for {
		fi := c.activeFormat()
		if fi.Formatter.Visit(c, fi.State) {
			break
		}
	}

	// Nodes not re-emitted this pass are orphans.
	c.removePending()

	prior := l.checkpoints[seg.ID()]
	saved := &checkpoint{stack: cloneStack(c.stack), cursor: c.cursor}
	l.checkpoints[seg.ID()] = saved

	// Continue while the segment is new to us, the invalidated range is
	// not yet covered, or the insertion point moved. Otherwise
	// downstream output is provably consistent already: stop early.
	if prior == nil {
		return true
	}
	if c.pos < c.end-1 {
		return true
	}
	if prior.cursor != saved.cursor {
		return true
	}
	return false
}
