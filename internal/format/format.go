package format

import (
	"github.com/dshills/flowtree/internal/doc"
	"github.com/dshills/flowtree/internal/dom"
	"github.com/dshills/flowtree/internal/layout"
)

// nodeKey holds a scope's cached container element in its State.
const nodeKey = "node"

// Registry maps segment kinds to formatters. Unknown kinds fall back to
// a default formatter when one is configured.
type Registry struct {
	formatters map[doc.Kind]layout.Formatter
	fallback   layout.Formatter
}

// NewRegistry creates a registry with the given fallback formatter.
// fallback may be nil, in which case unregistered kinds have no
// formatter and their segments are skipped by the document formatter.
func NewRegistry(fallback layout.Formatter) *Registry {
	return &Registry{
		formatters: make(map[doc.Kind]layout.Formatter),
		fallback:   fallback,
	}
}

// Register binds kind to f, replacing any previous binding. Formatter
// instances must be reused across passes: scope state survives
// incremental re-renders only when the same instance reappears at the
// same stack depth.
func (r *Registry) Register(kind doc.Kind, f layout.Formatter) {
	r.formatters[kind] = f
}

// Lookup returns the formatter bound to kind, or the fallback.
func (r *Registry) Lookup(kind doc.Kind) layout.Formatter {
	if f, ok := r.formatters[kind]; ok {
		return f
	}
	return r.fallback
}

// Document is the root formatter: it dispatches each segment to its
// kind's formatter by opening a scope for it and reporting the segment
// not done, so the segment is revisited under the new scope. It is
// never itself begun or ended.
type Document struct {
	reg *Registry
}

// NewDocument creates the root formatter over reg.
func NewDocument(reg *Registry) *Document {
	return &Document{reg: reg}
}

// DefaultDocument creates a root formatter that renders text and
// paragraph markers into <p> containers.
func DefaultDocument() *Document {
	para := NewParagraph()
	reg := NewRegistry(para)
	reg.Register(doc.KindText, para)
	reg.Register(doc.KindParagraph, para)
	return NewDocument(reg)
}

func (d *Document) Begin(*layout.Context, layout.State) {}
func (d *Document) End(*layout.Context, layout.State)   {}

// Visit opens a scope for the segment's formatter. Segments of a kind
// with no formatter are skipped.
func (d *Document) Visit(c *layout.Context, _ layout.State) bool {
	f := d.reg.Lookup(c.Segment().Kind())
	if f == nil {
		return true
	}
	c.PushFormat(f)
	return false
}

// Registry returns the registry the document formatter dispatches on.
func (d *Document) Registry() *Registry { return d.reg }

// Paragraph renders runs of text into a container element. A paragraph
// marker closes the open scope; a marker that opened its own scope
// therefore produces an empty container. The container element is
// cached in scope state, so a paragraph re-rendered after an edit keeps
// its node.
type Paragraph struct {
	tag string
}

// NewParagraph creates a paragraph formatter with the <p> tag.
func NewParagraph() *Paragraph {
	return &Paragraph{tag: "p"}
}

func (p *Paragraph) Begin(c *layout.Context, state layout.State) {
	n, _ := state[nodeKey].(*dom.Node)
	if n == nil {
		n = dom.NewElement(p.tag)
		state[nodeKey] = n
	}
	c.PushNode(n)
}

func (p *Paragraph) End(c *layout.Context, _ layout.State) {
	c.PopNode()
}

func (p *Paragraph) Visit(c *layout.Context, _ layout.State) bool {
	switch c.Segment().Kind() {
	case doc.KindText:
		c.EmitText()
		return true
	case doc.KindParagraph:
		c.PopFormat()
		return true
	default:
		// Foreign kind inside a paragraph: close the scope and let the
		// root dispatch it.
		c.PopFormat()
		return false
	}
}

// Text renders text segments directly at the cursor with no containers.
// Markers are skipped. Suitable as a root formatter for flat documents.
type Text struct{}

// NewText creates a flat text formatter.
func NewText() *Text { return &Text{} }

func (t *Text) Begin(*layout.Context, layout.State) {}
func (t *Text) End(*layout.Context, layout.State)   {}

func (t *Text) Visit(c *layout.Context, _ layout.State) bool {
	if c.Segment().Kind() == doc.KindText {
		c.EmitText()
	}
	return true
}
