package layout

import "github.com/dshills/flowtree/internal/dom"

// Cursor is the current tree insertion point: new nodes are placed
// inside Parent immediately after Previous (or first when Previous is
// nil).
type Cursor struct {
	Parent   *dom.Node
	Previous *dom.Node
}

// checkpoint is the reconciliation state saved after a segment
// completes: a snapshot of the format stack and cursor. A later pass
// resuming at the segment's end boundary restores this state instead of
// replaying the document from the start.
type checkpoint struct {
	stack  []FormatInfo
	cursor Cursor
}

// findResumePoint walks backward from start through segment boundaries
// until it finds a segment whose end boundary equals the candidate
// position and which has a saved checkpoint. Without one, the pass
// starts from position 0 with the initial checkpoint (empty stack,
// cursor at the root).
func (l *Layout) findResumePoint(start int) (*checkpoint, int) {
	candidate := start
	for candidate > 0 {
		seg, off, ok := l.doc.GetSegmentAndOffset(candidate - 1)
		if !ok {
			break
		}
		segStart := candidate - 1 - off
		if segStart+seg.Length() == candidate {
			if cp, ok := l.checkpoints[seg.ID()]; ok {
				return cp, candidate
			}
		}
		candidate = segStart
	}
	return &checkpoint{cursor: Cursor{Parent: l.root}}, 0
}
