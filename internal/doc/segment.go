package doc

// SegmentID is a stable identifier for a segment. IDs are unique across
// all documents in the process and survive every edit, including splits
// and merges.
type SegmentID uint64

// Kind classifies a segment for formatter dispatch.
type Kind string

// Built-in segment kinds. Hosts may define additional marker kinds.
const (
	KindText      Kind = "text"
	KindParagraph Kind = "paragraph"
)

// Segment is an atomic, positionally stable unit of document content.
// A segment may transition to the removed state, after which it no
// longer occupies document positions but keeps its identity so caches
// keyed on it can be purged.
type Segment interface {
	// ID returns the segment's stable identifier.
	ID() SegmentID

	// Kind returns the segment kind used for formatter dispatch.
	Kind() Kind

	// Length returns the number of document positions the segment
	// occupies. Markers always occupy exactly one.
	Length() int

	// Removed reports whether the segment has been removed from the
	// document.
	Removed() bool
}

// TextSegment is a run of text.
type TextSegment struct {
	id      SegmentID
	text    string
	removed bool
}

// ID returns the segment's stable identifier.
func (s *TextSegment) ID() SegmentID { return s.id }

// Kind returns KindText.
func (s *TextSegment) Kind() Kind { return KindText }

// Length returns the number of bytes in the run.
func (s *TextSegment) Length() int { return len(s.text) }

// Removed reports whether the segment has been removed.
func (s *TextSegment) Removed() bool { return s.removed }

// Text returns the segment's content.
func (s *TextSegment) Text() string { return s.text }

// MarkerSegment is a single-position structural marker, such as a
// paragraph boundary.
type MarkerSegment struct {
	id      SegmentID
	kind    Kind
	removed bool
}

// ID returns the segment's stable identifier.
func (s *MarkerSegment) ID() SegmentID { return s.id }

// Kind returns the marker kind.
func (s *MarkerSegment) Kind() Kind { return s.kind }

// Length returns 1; markers occupy exactly one position.
func (s *MarkerSegment) Length() int { return 1 }

// Removed reports whether the segment has been removed.
func (s *MarkerSegment) Removed() bool { return s.removed }
