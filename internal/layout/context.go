package layout

import (
	"github.com/dshills/flowtree/internal/doc"
	"github.com/dshills/flowtree/internal/dom"
)

// Context is the working state of one reconciliation pass, threaded
// through every formatter callback. Holding per-pass state in a Context
// value rather than on the Layout makes nested passes impossible by
// construction.
type Context struct {
	layout *Layout

	start int // pass range start (clamped)
	end   int // pass range end (clamped)

	pos     int         // start position of the active segment
	segment doc.Segment // active segment

	stack  []FormatInfo
	cursor Cursor

	emitted nodeSet // nodes produced for the active segment this pass
	pending nodeSet // nodes produced for it last pass; orphans removed
}

// Position returns the start position of the active segment.
func (c *Context) Position() int { return c.pos }

// Segment returns the active segment.
func (c *Context) Segment() doc.Segment { return c.segment }

// StartOffset returns the segment-local offset where the pass range
// enters the active segment.
func (c *Context) StartOffset() int {
	return max(0, c.start-c.pos)
}

// EndOffset returns the segment-local offset where the pass range
// leaves the active segment.
func (c *Context) EndOffset() int {
	return min(c.segment.Length(), max(0, c.end-c.pos))
}

// Root returns the bound root node.
func (c *Context) Root() *dom.Node { return c.layout.root }

// Cursor returns the current insertion point.
func (c *Context) Cursor() Cursor { return c.cursor }

// Depth returns the current format stack depth.
func (c *Context) Depth() int { return len(c.stack) }

// NodeToSegment returns the segment that emitted n; see
// Layout.NodeToSegment.
func (c *Context) NodeToSegment(n *dom.Node) doc.Segment {
	return c.layout.NodeToSegment(n)
}

// SegmentAndOffsetToNodeAndOffset maps a document location to a node
// and offset; see the Layout method of the same name.
func (c *Context) SegmentAndOffsetToNodeAndOffset(seg doc.Segment, offset int) (*dom.Node, int, bool) {
	return c.layout.SegmentAndOffsetToNodeAndOffset(seg, offset)
}

// activeFormat returns the top of the format stack, or the root format
// when the stack is empty.
func (c *Context) activeFormat() FormatInfo {
	if n := len(c.stack); n > 0 {
		return c.stack[n-1]
	}
	return c.layout.rootFormat
}

// PushFormat opens a format scope for f. If the active segment's prior
// checkpoint has a scope at the same depth using the same formatter,
// that scope's state is value-copied as the starting state, preserving
// formatter-local memory (cached container nodes in particular) across
// incremental re-renders.
func (c *Context) PushFormat(f Formatter) {
	if c.segment != nil && c.segment.Removed() {
		panic("layout: PushFormat on removed segment")
	}
	depth := len(c.stack)
	var state State
	if cp, ok := c.layout.checkpoints[c.segment.ID()]; ok && depth < len(cp.stack) && cp.stack[depth].Formatter == f {
		state = cp.stack[depth].State.Clone()
	} else {
		state = State{}
	}
	f.Begin(c, state)
	c.stack = append(c.stack, FormatInfo{Formatter: f, State: state})
}

// PopFormat closes the innermost format scope.
func (c *Context) PopFormat() {
	n := len(c.stack)
	if n == 0 {
		panic("layout: PopFormat on empty format stack")
	}
	top := c.stack[n-1]
	c.stack = c.stack[:n-1]
	top.Formatter.End(c, top.State)
}

// PushNode emits n at the cursor and descends into it: subsequent
// emission targets n's children.
func (c *Context) PushNode(n *dom.Node) {
	c.EmitNode(n)
	c.cursor = Cursor{Parent: n}
}

// PopNode ascends out of the current parent. The cursor may not ascend
// past the bound root.
func (c *Context) PopNode() {
	parent := c.cursor.Parent
	if parent == c.layout.root {
		panic("layout: PopNode past root")
	}
	c.cursor = Cursor{Parent: parent.Parent(), Previous: parent}
}

// EmitNode places n at the cursor. When n already sits at the cursor
// position nothing is mutated; this skip is the primary mechanism for
// minimizing churn. The node joins the active segment's emitted set,
// survives orphan cleanup, and becomes the cursor's previous node.
func (c *Context) EmitNode(n *dom.Node) {
	cur := c.cursor
	if n.Parent() != cur.Parent || n.PrevSibling() != cur.Previous {
		cur.Parent.InsertAfter(cur.Previous, n)
	}
	c.emitted[n] = struct{}{}
	delete(c.pending, n)
	c.cursor.Previous = n
	c.layout.nodeSegments[n] = c.segment
}

// EmitText emits the active text segment's content, reusing the
// segment's cached text node when one exists and updating its content
// in place only when changed.
func (c *Context) EmitText() {
	seg, ok := c.segment.(*doc.TextSegment)
	if !ok {
		panic("layout: EmitText on non-text segment")
	}
	text := seg.Text()
	n, ok := c.layout.textNodes[seg.ID()]
	if !ok {
		n = dom.NewText(text)
		c.layout.textNodes[seg.ID()] = n
	} else if n.Text() != text {
		n.SetText(text)
	}
	c.EmitNode(n)
}
