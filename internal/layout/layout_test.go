package layout

import (
	"strconv"
	"strings"
	"testing"

	"github.com/dshills/flowtree/internal/doc"
	"github.com/dshills/flowtree/internal/dom"
	"github.com/dshills/flowtree/internal/sched"
)

// flatFormatter renders text segments directly under the root. Used as
// a root formatter for marker-less documents.
type flatFormatter struct{}

func (f *flatFormatter) Begin(*Context, State) {}
func (f *flatFormatter) End(*Context, State)   {}
func (f *flatFormatter) Visit(c *Context, _ State) bool {
	if c.Segment().Kind() == doc.KindText {
		c.EmitText()
	}
	return true
}

// paragraphFormatter groups content into <p> containers. A paragraph
// marker closes the open scope.
type paragraphFormatter struct {
	begins int
}

func (p *paragraphFormatter) Begin(c *Context, state State) {
	p.begins++
	n, _ := state["node"].(*dom.Node)
	if n == nil {
		n = dom.NewElement("p")
		state["node"] = n
	}
	c.PushNode(n)
}

func (p *paragraphFormatter) End(c *Context, _ State) {
	c.PopNode()
}

func (p *paragraphFormatter) Visit(c *Context, _ State) bool {
	if c.Segment().Kind() == doc.KindText {
		c.EmitText()
		return true
	}
	// Paragraph marker: close the scope, consuming the marker.
	c.PopFormat()
	return true
}

// paragraphRoot opens a paragraph scope for any content segment.
type paragraphRoot struct {
	para *paragraphFormatter
}

func (r *paragraphRoot) Begin(*Context, State) {}
func (r *paragraphRoot) End(*Context, State)   {}
func (r *paragraphRoot) Visit(c *Context, _ State) bool {
	c.PushFormat(r.para)
	return false
}

func newParagraphRoot() *paragraphRoot {
	return &paragraphRoot{para: &paragraphFormatter{}}
}

// treeString serializes a tree for comparison, e.g. body(p("a"),p("b")).
func treeString(n *dom.Node) string {
	if n.Kind() == dom.KindText {
		return strconv.Quote(n.Text())
	}
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		parts = append(parts, treeString(c))
	}
	return n.Tag() + "(" + strings.Join(parts, ",") + ")"
}

func resolved(c *Completion) bool {
	select {
	case <-c.Done():
		return true
	default:
		return false
	}
}

func TestFullSyncRendersParagraphs(t *testing.T) {
	d := doc.Load("ab\ncd")
	root := dom.NewRoot("body")
	l := New(d, root, newParagraphRoot(), WithTrigger(&sched.Manual{}))

	l.Sync(0, d.Length())

	want := `body(p("ab"),p("cd"))`
	if got := treeString(root); got != want {
		t.Errorf("tree = %s, want %s", got, want)
	}
}

func TestSyncIdempotent(t *testing.T) {
	d := doc.Load("ab\ncd\nef")
	root := dom.NewRoot("body")
	l := New(d, root, newParagraphRoot(), WithTrigger(&sched.Manual{}))

	l.Sync(0, d.Length())
	before := treeString(root)
	root.Stats().Reset()

	l.Sync(0, d.Length())

	if got := root.Stats().Total(); got != 0 {
		t.Errorf("second sync performed %d mutations, want 0 (%+v)", got, *root.Stats())
	}
	if got := treeString(root); got != before {
		t.Errorf("tree changed on idempotent sync: %s -> %s", before, got)
	}
}

func TestInsertBetweenTextNodes(t *testing.T) {
	d := doc.New()
	if err := d.InsertText(0, "A"); err != nil {
		t.Fatal(err)
	}
	if err := d.InsertText(1, "B"); err != nil {
		t.Fatal(err)
	}

	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	l := New(d, root, &flatFormatter{}, WithTrigger(trigger))
	l.Sync(0, d.Length())

	if got := treeString(root); got != `body("A","B")` {
		t.Fatalf("initial tree = %s", got)
	}
	root.Stats().Reset()

	if err := d.InsertText(1, "X"); err != nil {
		t.Fatal(err)
	}
	trigger.Fire()

	if got := treeString(root); got != `body("A","X","B")` {
		t.Errorf("tree = %s, want body(\"A\",\"X\",\"B\")", got)
	}
	stats := root.Stats()
	if stats.Inserts != 1 {
		t.Errorf("Inserts = %d, want 1", stats.Inserts)
	}
	if stats.Moves != 0 {
		t.Errorf("Moves = %d, want 0", stats.Moves)
	}
	if stats.TextUpdates != 0 {
		t.Errorf("TextUpdates = %d, want 0", stats.TextUpdates)
	}
}

func TestIncrementalMatchesFullRecompute(t *testing.T) {
	d := doc.Load("hello\nworld")
	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	l := New(d, root, newParagraphRoot(), WithTrigger(trigger))
	l.Sync(0, d.Length())

	steps := []func() error{
		func() error { return d.InsertText(3, "XY") },
		func() error { return d.Remove(0, 2) },
		func() error { return d.InsertMarker(4, doc.KindParagraph) },
		func() error { return d.InsertText(d.Length(), "!") },
		func() error { d.Compact(); return nil },
		func() error { return d.Remove(2, 7) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		trigger.Fire()

		fullRoot := dom.NewRoot("body")
		l2 := New(d, fullRoot, newParagraphRoot(), WithTrigger(&sched.Manual{}))
		l2.Sync(0, d.Length())
		if got, want := treeString(root), treeString(fullRoot); got != want {
			t.Fatalf("step %d: incremental %s != full %s", i, got, want)
		}
		l2.Remove()
	}
	_ = l
}

// conditionalFormatter emits a badge element before the text while
// enabled; disabling it must orphan the badge on the next pass.
type conditionalFormatter struct {
	badge   *dom.Node
	enabled bool
}

func (f *conditionalFormatter) Begin(*Context, State) {}
func (f *conditionalFormatter) End(*Context, State)   {}
func (f *conditionalFormatter) Visit(c *Context, _ State) bool {
	if f.enabled {
		c.EmitNode(f.badge)
	}
	c.EmitText()
	return true
}

func TestOrphanCleanup(t *testing.T) {
	d := doc.Load("ab")
	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	f := &conditionalFormatter{badge: dom.NewElement("badge"), enabled: true}
	l := New(d, root, f, WithTrigger(trigger))

	l.Sync(0, d.Length())
	if got := treeString(root); got != `body(badge(),"ab")` {
		t.Fatalf("initial tree = %s", got)
	}
	if l.NodeToSegment(f.badge) == nil {
		t.Fatal("badge should be indexed to its segment")
	}

	f.enabled = false
	l.Invalidate(0, d.Length())
	trigger.Fire()

	if f.badge.Parent() != nil {
		t.Error("orphaned badge should be detached")
	}
	if l.NodeToSegment(f.badge) != nil {
		t.Error("orphaned badge should leave the node index")
	}
	if got := treeString(root); got != `body("ab")` {
		t.Errorf("tree = %s, want body(\"ab\")", got)
	}
}

func TestRemovalEagerness(t *testing.T) {
	d := doc.Load("ab\ncd")
	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	l := New(d, root, newParagraphRoot(), WithTrigger(trigger))
	l.Sync(0, d.Length())

	// Remove the first paragraph; its nodes must be gone before the
	// scheduled pass runs.
	if err := d.Remove(0, 3); err != nil {
		t.Fatal(err)
	}
	if got := treeString(root); got != `body(p("cd"))` {
		t.Errorf("tree before pass = %s, want body(p(\"cd\"))", got)
	}
	_ = l
}

func TestRemoveTailRerendersSplicedText(t *testing.T) {
	d := doc.Load("DEF")
	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	l := New(d, root, &flatFormatter{}, WithTrigger(trigger))
	l.Sync(0, d.Length())

	if got := treeString(root); got != `body("DEF")` {
		t.Fatalf("initial tree = %s", got)
	}

	// The splice shortens the segment in place; its cached text node is
	// stale as a whole, not just past the removal point.
	if err := d.Remove(2, 3); err != nil {
		t.Fatal(err)
	}
	trigger.Fire()

	if got := treeString(root); got != `body("DE")` {
		t.Errorf("tree = %s, want body(\"DE\")", got)
	}
}

func TestRemoveLastSegment(t *testing.T) {
	d := doc.Load("A")
	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	l := New(d, root, newParagraphRoot(), WithTrigger(trigger))
	l.Sync(0, d.Length())

	if err := d.Remove(0, 1); err != nil {
		t.Fatal(err)
	}
	trigger.Fire()

	if got := root.ChildCount(); got != 0 {
		t.Errorf("root has %d children after removing the only segment, want 0", got)
	}
	_ = l
}

// spyDoc counts reconciliation passes by recording VisitRange calls.
type spyDoc struct {
	*doc.Document
	visits []int
}

func (s *spyDoc) VisitRange(start int, fn func(seg doc.Segment, pos int) bool) {
	s.visits = append(s.visits, start)
	s.Document.VisitRange(start, fn)
}

func TestMergedInvalidationSinglePass(t *testing.T) {
	d := &spyDoc{Document: doc.Load("abcdefgh")}
	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	l := New(d, root, &flatFormatter{}, WithTrigger(trigger))
	l.Sync(0, 8)
	d.visits = nil

	c1 := l.Invalidate(0, 2)
	c2 := l.Invalidate(5, 7)
	trigger.Fire()

	if len(d.visits) != 1 {
		t.Fatalf("ran %d passes, want 1 merged pass", len(d.visits))
	}
	if !resolved(c1) || !resolved(c2) {
		t.Error("both completions should resolve after the merged pass")
	}
}

func TestInvalidationRangeSurvivesEdits(t *testing.T) {
	d := doc.Load("abcdef")
	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	l := New(d, root, &flatFormatter{}, WithTrigger(trigger))
	l.Sync(0, d.Length())
	root.Stats().Reset()

	// Invalidate a tail range, then edit before it; the anchored range
	// must follow the shift so the pass still covers the right content.
	l.Invalidate(4, 6)
	if err := d.InsertText(0, "xx"); err != nil {
		t.Fatal(err)
	}
	trigger.Fire()

	if got := treeString(root); got != `body("xx","abcdef")` {
		t.Errorf("tree = %s, want body(\"xx\",\"abcdef\")", got)
	}
}

func TestEarlyStopSkipsDownstream(t *testing.T) {
	d := doc.Load("a\nb\nc")
	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	rf := newParagraphRoot()
	l := New(d, root, rf, WithTrigger(trigger))
	l.Sync(0, d.Length())

	rf.para.begins = 0
	root.Stats().Reset()

	// Append at the very end: every checkpoint at or before the edit is
	// unchanged, so no format scope is re-begun.
	if err := d.InsertText(d.Length(), "x"); err != nil {
		t.Fatal(err)
	}
	trigger.Fire()

	if rf.para.begins != 0 {
		t.Errorf("Begin invoked %d times for unchanged scopes, want 0", rf.para.begins)
	}
	if got := treeString(root); got != `body(p("a"),p("b"),p("c","x"))` {
		t.Errorf("tree = %s", got)
	}
	if root.Stats().Inserts != 1 {
		t.Errorf("Inserts = %d, want 1", root.Stats().Inserts)
	}
}

func TestEarlyStopLeavesTrailingUntouched(t *testing.T) {
	d := doc.New()
	for i, s := range []string{"a", "b", "c", "d"} {
		if err := d.InsertText(i, s); err != nil {
			t.Fatal(err)
		}
	}
	d2 := &spyDoc{Document: d}
	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	l := New(d2, root, &flatFormatter{}, WithTrigger(trigger))
	l.Sync(0, d.Length())
	root.Stats().Reset()

	// Insert between "a" and "b"; the pass must stop before reaching
	// "c" and "d".
	if err := d.InsertText(1, "x"); err != nil {
		t.Fatal(err)
	}
	trigger.Fire()

	if got := treeString(root); got != `body("a","x","b","c","d")` {
		t.Errorf("tree = %s", got)
	}
	if root.Stats().Total() != 1 {
		t.Errorf("mutations = %d, want 1 insert only (%+v)", root.Stats().Total(), *root.Stats())
	}
	_ = l
}

func TestCheckpointCursorInvariant(t *testing.T) {
	d := doc.Load("ab\ncd\nef")
	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	l := New(d, root, newParagraphRoot(), WithTrigger(trigger))
	l.Sync(0, d.Length())

	if err := d.InsertText(1, "x"); err != nil {
		t.Fatal(err)
	}
	trigger.Fire()
	if err := d.Remove(4, 6); err != nil {
		t.Fatal(err)
	}
	trigger.Fire()

	for id, cp := range l.checkpoints {
		if cp.cursor.Parent == nil {
			t.Errorf("segment %d: checkpoint parent is nil", id)
			continue
		}
		if !root.IsAncestorOf(cp.cursor.Parent) {
			t.Errorf("segment %d: checkpoint parent is not under the root", id)
		}
	}
}

func TestMergeAbsorbedSegmentCleanup(t *testing.T) {
	d := doc.New()
	if err := d.InsertText(0, "A"); err != nil {
		t.Fatal(err)
	}
	if err := d.InsertText(1, "X"); err != nil {
		t.Fatal(err)
	}
	if err := d.InsertText(2, "B"); err != nil {
		t.Fatal(err)
	}
	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	l := New(d, root, &flatFormatter{}, WithTrigger(trigger))
	l.Sync(0, d.Length())
	if got := root.ChildCount(); got != 3 {
		t.Fatalf("pre-merge children = %d, want 3", got)
	}

	d.Compact()
	trigger.Fire()

	if got := treeString(root); got != `body("AXB")` {
		t.Errorf("tree = %s, want body(\"AXB\")", got)
	}
	_ = l
}

func TestCompletionWeakConsistency(t *testing.T) {
	d := doc.Load("ab")
	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	l := New(d, root, &flatFormatter{}, WithTrigger(trigger))

	c1 := l.Invalidate(0, 1)
	if resolved(c1) {
		t.Fatal("completion resolved before any pass")
	}
	c2 := l.Invalidate(1, 2)
	trigger.Fire()

	if !resolved(c1) || !resolved(c2) {
		t.Error("completions issued before the boundary resolve together")
	}
	if c1.Err() != nil || c2.Err() != nil {
		t.Error("successful pass should resolve without error")
	}

	// A handle issued after the pass stays pending until the next one.
	c3 := l.Invalidate(0, 1)
	if resolved(c3) {
		t.Error("new completion should await the next pass")
	}
	trigger.Fire()
	if !resolved(c3) {
		t.Error("completion should resolve after its pass")
	}
}

func TestRemoveMakesLayoutInert(t *testing.T) {
	d := doc.Load("ab\ncd")
	root := dom.NewRoot("body")
	trigger := &sched.Manual{}
	l := New(d, root, newParagraphRoot(), WithTrigger(trigger))
	l.Sync(0, d.Length())

	l.Remove()
	if got := root.ChildCount(); got != 0 {
		t.Errorf("root has %d children after Remove, want 0", got)
	}

	// Document edits no longer reach the layout.
	if err := d.InsertText(0, "x"); err != nil {
		t.Fatal(err)
	}
	trigger.Fire()
	if got := root.ChildCount(); got != 0 {
		t.Errorf("removed layout re-rendered: %d children", got)
	}

	c := l.Invalidate(0, 1)
	if !resolved(c) || c.Err() != ErrRemoved {
		t.Errorf("Invalidate after Remove: err = %v, want ErrRemoved", c.Err())
	}
}

func TestNodeToSegmentStaleAfterRemoval(t *testing.T) {
	d := doc.Load("ab")
	root := dom.NewRoot("body")
	l := New(d, root, &flatFormatter{}, WithTrigger(&sched.Manual{}))
	l.Sync(0, d.Length())

	textNode := root.FirstChild()
	seg := l.NodeToSegment(textNode)
	if seg == nil || seg.Kind() != doc.KindText {
		t.Fatalf("NodeToSegment = %v, want the text segment", seg)
	}

	if err := d.Remove(0, 2); err != nil {
		t.Fatal(err)
	}
	if l.NodeToSegment(textNode) != nil {
		t.Error("mapping for a removed segment should resolve to none")
	}
}

func TestSegmentAndOffsetToNodeAndOffset(t *testing.T) {
	d := doc.Load("ab\ncd")
	root := dom.NewRoot("body")
	l := New(d, root, newParagraphRoot(), WithTrigger(&sched.Manual{}))
	l.Sync(0, d.Length())

	textSeg, _, ok := d.GetSegmentAndOffset(0)
	if !ok {
		t.Fatal("no segment at 0")
	}
	n, off, ok := l.SegmentAndOffsetToNodeAndOffset(textSeg, 1)
	if !ok || n.Kind() != dom.KindText || off != 1 {
		t.Errorf("text lookup = (%v, %d, %v)", n, off, ok)
	}
	// Offsets clamp to the cached node's text length.
	_, off, ok = l.SegmentAndOffsetToNodeAndOffset(textSeg, 99)
	if !ok || off != 2 {
		t.Errorf("clamped offset = %d, want 2", off)
	}

	// Markers have no text node; the checkpoint cursor is used.
	markerSeg, _, ok := d.GetSegmentAndOffset(2)
	if !ok || markerSeg.Kind() != doc.KindParagraph {
		t.Fatal("no marker at 2")
	}
	n, _, ok = l.SegmentAndOffsetToNodeAndOffset(markerSeg, 0)
	if !ok || n == nil {
		t.Error("marker lookup should fall back to the checkpoint cursor")
	}

	// Unknown segments resolve to nothing.
	other := doc.New()
	if err := other.InsertText(0, "zz"); err != nil {
		t.Fatal(err)
	}
	seg, _, _ := other.GetSegmentAndOffset(0)
	if _, _, ok := l.SegmentAndOffsetToNodeAndOffset(seg, 0); ok {
		t.Error("foreign segment should not resolve")
	}
}

func TestPopNodePastRootPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	d := doc.Load("a")
	root := dom.NewRoot("body")
	bad := visitFunc(func(c *Context, _ State) bool {
		c.PopNode()
		return true
	})
	l := New(d, root, bad, WithTrigger(&sched.Manual{}))
	l.Sync(0, d.Length())
}

func TestPopFormatEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	d := doc.Load("a")
	root := dom.NewRoot("body")
	bad := visitFunc(func(c *Context, _ State) bool {
		c.PopFormat()
		return true
	})
	l := New(d, root, bad, WithTrigger(&sched.Manual{}))
	l.Sync(0, d.Length())
}

func TestEmitTextOnMarkerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	d := doc.Load("\n")
	root := dom.NewRoot("body")
	bad := visitFunc(func(c *Context, _ State) bool {
		c.EmitText()
		return true
	})
	l := New(d, root, bad, WithTrigger(&sched.Manual{}))
	l.Sync(0, d.Length())
}

func TestReentrantSyncPanics(t *testing.T) {
	d := doc.Load("a")
	root := dom.NewRoot("body")
	var l *Layout
	var recovered any
	bad := visitFunc(func(c *Context, _ State) bool {
		func() {
			defer func() { recovered = recover() }()
			l.Sync(0, 1)
		}()
		c.EmitText()
		return true
	})
	l = New(d, root, bad, WithTrigger(&sched.Manual{}))
	l.Sync(0, d.Length())

	if recovered == nil {
		t.Error("nested Sync should panic")
	}
}

// visitFunc adapts a function to a Formatter with no-op Begin/End.
type visitFunc func(c *Context, state State) bool

func (f visitFunc) Begin(*Context, State)          {}
func (f visitFunc) End(*Context, State)            {}
func (f visitFunc) Visit(c *Context, s State) bool { return f(c, s) }
