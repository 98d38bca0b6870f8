package doc

import (
	"strings"
	"sync/atomic"
)

// Document is an ordered run of segments with edit-tracked positions.
type Document struct {
	segments []Segment
	refs     map[*LocalRef]struct{}

	handlers    map[int]func(ChangeEvent)
	nextHandler int
}

// New creates an empty document.
func New() *Document {
	return &Document{
		refs:     make(map[*LocalRef]struct{}),
		handlers: make(map[int]func(ChangeEvent)),
	}
}

// Load creates a document from plain text. Each line becomes a text
// segment; line breaks become paragraph markers.
func Load(text string) *Document {
	d := New()
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			d.segments = append(d.segments, &TextSegment{id: allocID(), text: line})
		}
		if i < len(lines)-1 {
			d.segments = append(d.segments, &MarkerSegment{id: allocID(), kind: KindParagraph})
		}
	}
	return d
}

// Length returns the total number of document positions.
func (d *Document) Length() int {
	total := 0
	for _, seg := range d.segments {
		total += seg.Length()
	}
	return total
}

// Text returns the document's text content. Markers render as line
// breaks.
func (d *Document) Text() string {
	var b strings.Builder
	for _, seg := range d.segments {
		switch s := seg.(type) {
		case *TextSegment:
			b.WriteString(s.Text())
		case *MarkerSegment:
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// GetSegmentAndOffset returns the segment containing pos and the offset
// of pos within it. ok is false when pos is outside [0, Length()).
func (d *Document) GetSegmentAndOffset(pos int) (seg Segment, offset int, ok bool) {
	if pos < 0 {
		return nil, 0, false
	}
	at := 0
	for _, s := range d.segments {
		if pos < at+s.Length() {
			return s, pos - at, true
		}
		at += s.Length()
	}
	return nil, 0, false
}

// VisitRange walks segments in position order starting with the segment
// containing start (or the first segment at or after it). fn receives
// each segment and its start position; returning false stops the walk.
func (d *Document) VisitRange(start int, fn func(seg Segment, pos int) bool) {
	if start < 0 {
		start = 0
	}
	at := 0
	for _, seg := range d.segments {
		end := at + seg.Length()
		if end > start {
			if !fn(seg, at) {
				return
			}
		}
		at = end
	}
}

// InsertText inserts text at pos as a new text segment, splitting any
// text segment that spans pos. pos may equal Length() to append.
func (d *Document) InsertText(pos int, text string) error {
	if text == "" {
		return nil
	}
	seg := &TextSegment{id: allocID(), text: text}
	editStart, err := d.insertSegment(pos, seg)
	if err != nil {
		return err
	}
	d.fire(ChangeEvent{Ranges: []ChangedRange{
		{Start: editStart, End: pos + len(text), Kind: ChangeEdit},
	}})
	return nil
}

// InsertMarker inserts a marker segment of the given kind at pos.
func (d *Document) InsertMarker(pos int, kind Kind) error {
	seg := &MarkerSegment{id: allocID(), kind: kind}
	editStart, err := d.insertSegment(pos, seg)
	if err != nil {
		return err
	}
	d.fire(ChangeEvent{Ranges: []ChangedRange{
		{Start: editStart, End: pos + 1, Kind: ChangeEdit},
	}})
	return nil
}

// insertSegment places seg at pos, splitting a spanning text segment.
// The returned edit start is pos for boundary inserts, or the split
// segment's start position: the split shortens that segment in place,
// so its previously rendered content is stale from its start, not just
// from pos.
func (d *Document) insertSegment(pos int, seg Segment) (int, error) {
	if pos < 0 || pos > d.Length() {
		return 0, ErrPositionOutOfRange
	}
	at := 0
	for i, s := range d.segments {
		if pos == at {
			d.segments = insertAt(d.segments, i, seg)
			return pos, nil
		}
		end := at + s.Length()
		if pos < end {
			ts, ok := s.(*TextSegment)
			if !ok {
				// Markers occupy one position; pos == at was handled
				// above, so this cannot happen.
				return 0, ErrPositionOutOfRange
			}
			off := pos - at
			right := &TextSegment{id: allocID(), text: ts.text[off:]}
			ts.text = ts.text[:off]
			d.splitRefs(ts, right, off)
			d.segments = insertAt(d.segments, i+1, seg)
			d.segments = insertAt(d.segments, i+2, right)
			return at, nil
		}
		at = end
	}
	d.segments = append(d.segments, seg)
	return pos, nil
}

// Remove deletes the content in [start, end). Segments fully covered
// are marked removed and leave the order; partially covered text
// segments are spliced in place.
func (d *Document) Remove(start, end int) error {
	length := d.Length()
	if start < 0 || end > length {
		return ErrPositionOutOfRange
	}
	if end < start {
		return ErrRangeInvalid
	}
	if start == end {
		return nil
	}

	// Segments spliced in place keep content before the removal, so the
	// edit range reported to subscribers must reach back to the first
	// affected segment's start: its rendered cache is stale as a whole.
	editStart := start

	var removed []Segment
	var kept []Segment
	at := 0
	for _, seg := range d.segments {
		segStart := at
		segEnd := at + seg.Length()
		at = segEnd

		if segEnd <= start || segStart >= end {
			kept = append(kept, seg)
			continue
		}
		if start <= segStart && segEnd <= end {
			d.markRemoved(seg)
			removed = append(removed, seg)
			continue
		}

		// Partial overlap: only text segments can be partially covered.
		ts := seg.(*TextSegment)
		a := max(0, start-segStart)
		b := min(seg.Length(), end-segStart)
		ts.text = ts.text[:a] + ts.text[b:]
		d.spliceRefs(ts, a, b)
		if segStart < editStart {
			editStart = segStart
		}
		kept = append(kept, seg)
	}
	d.segments = kept

	// Slide refs off dead segments to the removal point.
	if len(removed) > 0 {
		anchor, offset, ok := d.GetSegmentAndOffset(start)
		if !ok {
			anchor, offset = nil, 0
		}
		for _, seg := range removed {
			d.rebindRefs(seg, anchor, offset)
		}
	}

	ranges := make([]ChangedRange, 0, len(removed)+1)
	for _, seg := range removed {
		ranges = append(ranges, ChangedRange{Start: start, End: start, Kind: ChangeRemove, Segment: seg})
	}
	editEnd := min(start+1, d.Length())
	if editEnd < editStart {
		editEnd = editStart
	}
	ranges = append(ranges, ChangedRange{Start: editStart, End: editEnd, Kind: ChangeEdit})
	d.fire(ChangeEvent{Ranges: ranges})
	return nil
}

// Compact merges adjacent text segments. Each merge absorbs the
// right-hand segment into the left and reports it as a ChangeAppend
// range. Document content and positions are unchanged.
func (d *Document) Compact() {
	var ranges []ChangedRange
	at := 0
	i := 0
	for i < len(d.segments) {
		left, lok := d.segments[i].(*TextSegment)
		if !lok {
			at += d.segments[i].Length()
			i++
			continue
		}
		for i+1 < len(d.segments) {
			right, rok := d.segments[i+1].(*TextSegment)
			if !rok {
				break
			}
			leftLen := left.Length()
			d.mergeRefs(right, left, leftLen)
			left.text += right.text
			d.markRemoved(right)
			d.segments = append(d.segments[:i+1], d.segments[i+2:]...)
			ranges = append(ranges, ChangedRange{
				Start:   at,
				End:     at + left.Length(),
				Kind:    ChangeAppend,
				Segment: right,
			})
		}
		at += left.Length()
		i++
	}
	d.fire(ChangeEvent{Ranges: ranges})
}

// SegmentCount returns the number of live segments.
func (d *Document) SegmentCount() int {
	return len(d.segments)
}

// segmentStart returns the start position of a live segment.
func (d *Document) segmentStart(seg Segment) (int, bool) {
	at := 0
	for _, s := range d.segments {
		if s == seg {
			return at, true
		}
		at += s.Length()
	}
	return 0, false
}

// markRemoved flips a segment into the removed state.
func (d *Document) markRemoved(seg Segment) {
	switch s := seg.(type) {
	case *TextSegment:
		s.removed = true
	case *MarkerSegment:
		s.removed = true
	}
}

var segmentIDs atomic.Uint64

// allocID returns the next segment ID. IDs come from a process-global
// counter so segments from different documents never share an identity;
// caches keyed by SegmentID stay safe across document boundaries.
func allocID() SegmentID {
	return SegmentID(segmentIDs.Add(1))
}

// insertAt inserts seg into segs at index i.
func insertAt(segs []Segment, i int, seg Segment) []Segment {
	segs = append(segs, nil)
	copy(segs[i+1:], segs[i:])
	segs[i] = seg
	return segs
}
