// Package doc implements the sequence document model the layout engine
// reconciles against.
//
// A document is an ordered run of segments: text runs and single-position
// markers. Segments are identity-keyed and positionally stable — edits
// split, remove, and merge segments but never renumber the survivors'
// identities. Positions are derived from segment order and lengths, so a
// segment's position shifts as content before it changes while its ID
// does not.
//
// Local references anchor a (segment, offset) pair and are repositioned
// automatically as edits occur. They back the layout engine's anchored
// invalidation ranges.
//
// Every mutating operation emits a ChangeEvent to subscribers,
// classifying each affected range as an edit, a segment removal, or a
// merge that absorbed a segment. The layout engine's change handler
// consumes these to eagerly drop output for dead segments and to extend
// its pending invalidation range.
//
// The package is not safe for concurrent use; the document and its
// consumers run on a single goroutine.
package doc
