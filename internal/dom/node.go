package dom

// NodeKind identifies the kind of a node.
type NodeKind uint8

// Node kinds.
const (
	KindElement NodeKind = iota // Tagged container with attributes and children
	KindText                    // Leaf holding a text run
)

// String returns the string representation of the node kind.
func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Stats counts tree mutations. A root created with NewRoot owns a Stats
// value shared by every node attached under it.
type Stats struct {
	Inserts     int // Nodes newly attached to a parent
	Removes     int // Nodes detached from a parent
	Moves       int // Nodes re-attached under a different parent or sibling
	TextUpdates int // Text content replacements
}

// Total returns the total number of mutations recorded.
func (s *Stats) Total() int {
	return s.Inserts + s.Removes + s.Moves + s.TextUpdates
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	*s = Stats{}
}

// Node is a single node in the visual tree. A node is either an element
// (tag, attributes, children) or a text leaf.
type Node struct {
	kind  NodeKind
	tag   string
	attrs map[string]string
	text  string

	parent      *Node
	firstChild  *Node
	lastChild   *Node
	prevSibling *Node
	nextSibling *Node

	// Set only on roots created with NewRoot.
	stats *Stats
}

// NewElement creates a detached element node with the given tag.
func NewElement(tag string) *Node {
	return &Node{kind: KindElement, tag: tag}
}

// NewText creates a detached text node with the given content.
func NewText(text string) *Node {
	return &Node{kind: KindText, text: text}
}

// NewRoot creates an element node that serves as a tree root. The root
// carries the Stats shared by all nodes attached under it.
func NewRoot(tag string) *Node {
	return &Node{kind: KindElement, tag: tag, stats: &Stats{}}
}

// Kind returns the node kind.
func (n *Node) Kind() NodeKind { return n.kind }

// Tag returns the element tag, or "" for text nodes.
func (n *Node) Tag() string { return n.tag }

// Text returns the text content of a text node, or "" for elements.
func (n *Node) Text() string { return n.text }

// SetText replaces the content of a text node. The update is counted
// even if the new content equals the old; callers that want to avoid
// churn compare first.
func (n *Node) SetText(text string) {
	n.text = text
	if s := n.treeStats(); s != nil {
		s.TextUpdates++
	}
}

// Attr returns the value of an attribute, or "" if unset.
func (n *Node) Attr(name string) string {
	return n.attrs[name]
}

// SetAttr sets an attribute on an element node.
func (n *Node) SetAttr(name, value string) {
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
}

// Parent returns the parent node, or nil for detached nodes and roots.
func (n *Node) Parent() *Node { return n.parent }

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node { return n.firstChild }

// LastChild returns the last child, or nil.
func (n *Node) LastChild() *Node { return n.lastChild }

// PrevSibling returns the previous sibling, or nil.
func (n *Node) PrevSibling() *Node { return n.prevSibling }

// NextSibling returns the next sibling, or nil.
func (n *Node) NextSibling() *Node { return n.nextSibling }

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	count := 0
	for c := n.firstChild; c != nil; c = c.nextSibling {
		count++
	}
	return count
}

// Root returns the topmost ancestor of the node (the node itself if
// detached).
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// IsAncestorOf reports whether n is other or one of other's ancestors.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Stats returns the mutation counters of the tree containing n, or nil
// if n is not attached under a NewRoot root.
func (n *Node) Stats() *Stats {
	return n.treeStats()
}

// InsertAfter attaches child to n immediately after prev. A nil prev
// prepends child as the first child. If child is already attached
// elsewhere it is detached first and the mutation counts as a move.
// prev must be nil or a direct child of n.
func (n *Node) InsertAfter(prev, child *Node) {
	if prev != nil && prev.parent != n {
		panic("dom: InsertAfter previous node is not a child of parent")
	}
	if child.IsAncestorOf(n) {
		panic("dom: InsertAfter would create a cycle")
	}

	moved := child.parent != nil
	if moved {
		child.parent.detach(child)
	}

	child.parent = n
	child.prevSibling = prev
	if prev == nil {
		child.nextSibling = n.firstChild
		if n.firstChild != nil {
			n.firstChild.prevSibling = child
		}
		n.firstChild = child
	} else {
		child.nextSibling = prev.nextSibling
		if prev.nextSibling != nil {
			prev.nextSibling.prevSibling = child
		}
		prev.nextSibling = child
	}
	if child.nextSibling == nil {
		n.lastChild = child
	}

	if s := n.treeStats(); s != nil {
		if moved {
			s.Moves++
		} else {
			s.Inserts++
		}
	}
}

// RemoveChild detaches child from n. child must be a direct child.
func (n *Node) RemoveChild(child *Node) {
	if child.parent != n {
		panic("dom: RemoveChild node is not a child of parent")
	}
	s := n.treeStats()
	n.detach(child)
	if s != nil {
		s.Removes++
	}
}

// detach unlinks child from n without touching counters.
func (n *Node) detach(child *Node) {
	if child.prevSibling != nil {
		child.prevSibling.nextSibling = child.nextSibling
	} else {
		n.firstChild = child.nextSibling
	}
	if child.nextSibling != nil {
		child.nextSibling.prevSibling = child.prevSibling
	} else {
		n.lastChild = child.prevSibling
	}
	child.parent = nil
	child.prevSibling = nil
	child.nextSibling = nil
}

// treeStats returns the Stats of the tree containing n, if any.
func (n *Node) treeStats() *Stats {
	return n.Root().stats
}
