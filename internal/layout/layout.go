package layout

import (
	"math"
	"time"

	"github.com/dshills/flowtree/internal/doc"
	"github.com/dshills/flowtree/internal/dom"
	"github.com/dshills/flowtree/internal/sched"
)

// Document is the sequence document contract Layout consumes. The
// document owns segment storage, edit application, and reference
// repositioning; Layout only reads positions and subscribes to deltas.
type Document interface {
	Length() int
	GetSegmentAndOffset(pos int) (seg doc.Segment, offset int, ok bool)
	VisitRange(start int, fn func(seg doc.Segment, pos int) bool)
	CreateLocalRef(pos int) *doc.LocalRef
	LocalRefToPosition(ref *doc.LocalRef) int
	RemoveLocalRef(ref *doc.LocalRef)
	OnChange(fn func(doc.ChangeEvent)) func()
}

// nodeSet is an identity set of emitted nodes.
type nodeSet map[*dom.Node]struct{}

// Layout reconciles a dom tree against a document. Create with New;
// release with Remove.
type Layout struct {
	doc        Document
	root       *dom.Node
	rootFormat FormatInfo

	render      func()
	unsubscribe func()

	// Side tables keyed by segment identity, purged explicitly on
	// segment removal.
	checkpoints  map[doc.SegmentID]*checkpoint
	emitted      map[doc.SegmentID]nodeSet
	textNodes    map[doc.SegmentID]*dom.Node
	nodeSegments map[*dom.Node]doc.Segment

	// Pending invalidation interval, anchored against the document.
	// Nil refs are the unset (+inf/-inf) sentinels.
	invalStart  *doc.LocalRef
	invalEnd    *doc.LocalRef
	completions []*Completion

	inPass  bool
	removed bool
}

// Option configures a Layout during creation.
type Option func(*options)

type options struct {
	trigger sched.Trigger
}

// WithTrigger sets the batching trigger for scheduled reconciliation.
// The default is a 10ms timer; tests and frame-driven hosts typically
// install a sched.Manual trigger instead.
func WithTrigger(t sched.Trigger) Option {
	return func(o *options) {
		if t != nil {
			o.trigger = t
		}
	}
}

// New creates a Layout bound to d and root for its lifetime. The root
// formatter is active whenever the format stack is empty.
func New(d Document, root *dom.Node, rootFormatter Formatter, opts ...Option) *Layout {
	o := options{trigger: &sched.Timer{Delay: 10 * time.Millisecond}}
	for _, opt := range opts {
		opt(&o)
	}

	l := &Layout{
		doc:          d,
		root:         root,
		rootFormat:   FormatInfo{Formatter: rootFormatter, State: State{}},
		checkpoints:  make(map[doc.SegmentID]*checkpoint),
		emitted:      make(map[doc.SegmentID]nodeSet),
		textNodes:    make(map[doc.SegmentID]*dom.Node),
		nodeSegments: make(map[*dom.Node]doc.Segment),
	}
	l.render = sched.Coalesce(o.trigger, l.renderPass)
	l.unsubscribe = d.OnChange(l.onChange)
	return l
}

// Root returns the bound root node.
func (l *Layout) Root() *dom.Node { return l.root }

// Remove unsubscribes from document events and clears all rendered
// output. The Layout is inert afterwards.
func (l *Layout) Remove() {
	if l.removed {
		return
	}
	l.removed = true
	l.unsubscribe()

	for n := range l.nodeSegments {
		if p := n.Parent(); p != nil {
			p.RemoveChild(n)
		}
	}
	l.nodeSegments = make(map[*dom.Node]doc.Segment)
	l.checkpoints = make(map[doc.SegmentID]*checkpoint)
	l.emitted = make(map[doc.SegmentID]nodeSet)
	l.textNodes = make(map[doc.SegmentID]*dom.Node)

	l.releaseInvalRefs()
	for _, c := range l.completions {
		c.resolve(ErrRemoved)
	}
	l.completions = nil
}

// onChange is the document delta handler. Output for segments that were
// removed or absorbed by a merge is dropped eagerly, independent of the
// next scheduled pass; the affected range is then invalidated.
func (l *Layout) onChange(ev doc.ChangeEvent) {
	start, end := math.MaxInt, math.MinInt
	for _, r := range ev.Ranges {
		switch r.Kind {
		case doc.ChangeRemove, doc.ChangeAppend:
			l.removeSegment(r.Segment)
		}
		if r.Start < start {
			start = r.Start
		}
		if r.End > end {
			end = r.End
		}
	}
	if start <= end {
		l.Invalidate(start, end)
	}
}

// NodeToSegment returns the segment that emitted n, or nil if the node
// is unknown or its segment has since been removed.
func (l *Layout) NodeToSegment(n *dom.Node) doc.Segment {
	seg, ok := l.nodeSegments[n]
	if !ok || seg.Removed() {
		return nil
	}
	return seg
}

// SegmentAndOffsetToNodeAndOffset maps a document location to a node
// and offset within it. It prefers the segment's cached text node
// (offset clamped to the text length), then the segment's checkpoint
// cursor, and reports ok=false when neither exists.
func (l *Layout) SegmentAndOffsetToNodeAndOffset(seg doc.Segment, offset int) (*dom.Node, int, bool) {
	if n, ok := l.textNodes[seg.ID()]; ok {
		return n, min(offset, len(n.Text())), true
	}
	if cp, ok := l.checkpoints[seg.ID()]; ok {
		if prev := cp.cursor.Previous; prev != nil {
			return prev, min(offset, prev.ChildCount()), true
		}
		if parent := cp.cursor.Parent; parent != nil {
			if first := parent.FirstChild(); first != nil {
				return first, min(offset, first.ChildCount()), true
			}
			return parent, 0, true
		}
	}
	return nil, 0, false
}
