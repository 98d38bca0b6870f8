// Package layout implements incremental reconciliation of a dom tree
// against a sequence document.
//
// A Layout binds one document to one root node for its lifetime. It
// walks the document's segments in position order and drives pluggable
// per-segment-kind formatters, which emit and structure nodes through
// the pass Context. After each segment completes, Layout saves a
// checkpoint (format stack + cursor snapshot) so a later pass can resume
// mid-document instead of replaying from the start, and can stop early
// once its output provably matches the previous pass.
//
// Edits reach Layout through the document's change events. The change
// handler eagerly removes output for dead segments, then unions the
// affected range into a pending invalidation interval whose bounds are
// document-anchored references, so the interval stays valid across
// further edits until the scheduled reconciliation pass runs. The
// scheduler coalesces any number of invalidations into one pass per
// batching boundary.
//
// Completion signals returned by Invalidate are weakly consistent: a
// fresh signal is created per call, and a caller awaiting an earlier
// call's signal may observe completion before a later invalidation
// (issued before the batch boundary) has been reconciled.
//
// Execution is single-threaded and cooperative. Layout exclusively owns
// its format stack, cursor, and node side tables; Sync must never be
// invoked from within a formatter callback.
package layout
