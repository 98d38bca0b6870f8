package layout

import (
	"github.com/dshills/flowtree/internal/doc"
	"github.com/dshills/flowtree/internal/dom"
)

// removeNode drops n from the node→segment index and detaches it from
// its parent if attached.
func (l *Layout) removeNode(n *dom.Node) {
	delete(l.nodeSegments, n)
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
}

// removeSegment removes every node the segment emitted and purges its
// checkpoint and cached text node.
func (l *Layout) removeSegment(seg doc.Segment) {
	id := seg.ID()
	for n := range l.emitted[id] {
		l.removeNode(n)
	}
	delete(l.emitted, id)
	delete(l.checkpoints, id)
	if tn, ok := l.textNodes[id]; ok {
		l.removeNode(tn)
		delete(l.textNodes, id)
	}
}

// removePending removes every node left in the active pending set:
// output of the previous pass the current pass no longer produces.
func (c *Context) removePending() {
	for n := range c.pending {
		c.layout.removeNode(n)
		delete(c.pending, n)
	}
}
