package doc

// LocalRef is a position marker anchored to a segment and offset. The
// document repositions refs automatically as edits occur: refs on split
// segments follow their half, refs on removed segments slide to the
// removal point, and refs on merged segments move to the absorbing
// segment. A ref anchored past the last segment tracks the document
// end.
type LocalRef struct {
	seg    Segment // nil anchors to the document end
	offset int
}

// CreateLocalRef creates a ref anchored at the given position. The
// position is clamped to [0, Length()]; anchoring at Length() tracks
// the document end as it grows or shrinks.
func (d *Document) CreateLocalRef(pos int) *LocalRef {
	if pos < 0 {
		pos = 0
	}
	seg, offset, ok := d.GetSegmentAndOffset(pos)
	ref := &LocalRef{}
	if ok {
		ref.seg = seg
		ref.offset = offset
	}
	d.refs[ref] = struct{}{}
	return ref
}

// LocalRefToPosition resolves a ref to its current document position.
func (d *Document) LocalRefToPosition(ref *LocalRef) int {
	if ref.seg == nil {
		return d.Length()
	}
	start, ok := d.segmentStart(ref.seg)
	if !ok {
		// The anchor segment left the document without a repositioning
		// pass; treat the ref as end-anchored.
		return d.Length()
	}
	return start + ref.offset
}

// RemoveLocalRef releases a ref so the document stops repositioning it.
func (d *Document) RemoveLocalRef(ref *LocalRef) {
	delete(d.refs, ref)
}

// splitRefs moves refs on seg at offsets beyond off to the right-hand
// segment produced by a split.
func (d *Document) splitRefs(seg, right Segment, off int) {
	for ref := range d.refs {
		if ref.seg == seg && ref.offset > off {
			ref.seg = right
			ref.offset -= off
		}
	}
}

// spliceRefs adjusts refs on seg after text in [a, b) was removed from
// it.
func (d *Document) spliceRefs(seg Segment, a, b int) {
	for ref := range d.refs {
		if ref.seg != seg {
			continue
		}
		switch {
		case ref.offset <= a:
		case ref.offset <= b:
			ref.offset = a
		default:
			ref.offset -= b - a
		}
	}
}

// rebindRefs moves refs off a dead segment. The replacement may be nil
// to anchor them to the document end.
func (d *Document) rebindRefs(dead, replacement Segment, offset int) {
	for ref := range d.refs {
		if ref.seg == dead {
			ref.seg = replacement
			if replacement == nil {
				ref.offset = 0
			} else {
				ref.offset = offset
			}
		}
	}
}

// mergeRefs moves refs on the absorbed right segment onto the absorbing
// left segment, shifting offsets by the left segment's pre-merge length.
func (d *Document) mergeRefs(right, left Segment, leftLen int) {
	for ref := range d.refs {
		if ref.seg == right {
			ref.seg = left
			ref.offset += leftLen
		}
	}
}
