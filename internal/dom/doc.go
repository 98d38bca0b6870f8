// Package dom provides the tree node primitives the layout engine
// reconciles against.
//
// A tree is a hierarchy of element and text nodes rooted at a node
// created with NewRoot. Nodes are identity-keyed: the layout engine
// tracks them by pointer, so a node must never be copied by value once
// attached. All mutation goes through InsertAfter, RemoveChild, and
// SetText; each mutation is counted on the owning tree's Stats, which
// tests use to verify that reconciliation touches the minimum number of
// nodes.
//
// The package is not safe for concurrent use. The layout engine owns
// the tree and serializes all access.
package dom
