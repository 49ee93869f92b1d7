// Package text holds the position vocabulary shared by the document model:
// character ranges in UTF-16 code units, byte ranges in UTF-8 bytes, row/column
// points, and the host-side byte buffer.
package text

import "fmt"

// CharRange is a half-open range of UTF-16 code-unit offsets.
type CharRange struct {
	Start int
	End   int
}

// NewCharRange returns the range starting at location with the given length.
func NewCharRange(location, length int) CharRange {
	return CharRange{Start: location, End: location + length}
}

// Len returns the number of code units in the range.
func (r CharRange) Len() int { return r.End - r.Start }

// IsEmpty reports whether the range covers no code units.
func (r CharRange) IsEmpty() bool { return r.End <= r.Start }

func (r CharRange) String() string { return fmt.Sprintf("chars[%d,%d)", r.Start, r.End) }

// ByteRange is a half-open range of UTF-8 byte offsets.
type ByteRange struct {
	Start int
	End   int
}

// Len returns the number of bytes in the range.
func (r ByteRange) Len() int { return r.End - r.Start }

// IsEmpty reports whether the range covers no bytes.
func (r ByteRange) IsEmpty() bool { return r.End <= r.Start }

// Contains reports whether offset lies inside [Start, End).
func (r ByteRange) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// ContainsRange reports whether other lies entirely inside r.
func (r ByteRange) ContainsRange(other ByteRange) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Intersects reports whether the two ranges share at least one byte. An empty
// range intersects a range that strictly contains its position.
func (r ByteRange) Intersects(other ByteRange) bool {
	if other.IsEmpty() {
		return other.Start >= r.Start && other.Start < r.End
	}
	if r.IsEmpty() {
		return r.Start >= other.Start && r.Start < other.End
	}
	return r.Start < other.End && other.Start < r.End
}

// Intersection returns the overlap of the two ranges, or an empty range at the
// clamped start when they do not overlap.
func (r ByteRange) Intersection(other ByteRange) ByteRange {
	out := ByteRange{Start: max(r.Start, other.Start), End: min(r.End, other.End)}
	if out.End < out.Start {
		out.End = out.Start
	}
	return out
}

// Union returns the smallest range covering both ranges.
func (r ByteRange) Union(other ByteRange) ByteRange {
	return ByteRange{Start: min(r.Start, other.Start), End: max(r.End, other.End)}
}

func (r ByteRange) String() string { return fmt.Sprintf("bytes[%d,%d)", r.Start, r.End) }

// Point is a zero-based row and a byte column within that row.
type Point struct {
	Row    int
	Column int
}

// Less orders points by row, then column.
func (p Point) Less(other Point) bool {
	if p.Row != other.Row {
		return p.Row < other.Row
	}
	return p.Column < other.Column
}

func (p Point) String() string { return fmt.Sprintf("%d:%d", p.Row, p.Column) }

// MergeRanges sorts ranges and coalesces any that overlap or touch.
func MergeRanges(ranges []ByteRange) []ByteRange {
	if len(ranges) < 2 {
		return ranges
	}
	sorted := make([]ByteRange, len(ranges))
	copy(sorted, ranges)
	sortRanges(sorted)
	out := sorted[:1]
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End {
			last.End = max(last.End, r.End)
			continue
		}
		out = append(out, r)
	}
	return out
}

func sortRanges(rs []ByteRange) {
	// insertion sort; changed-range lists are short
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && (rs[j].Start < rs[j-1].Start ||
			(rs[j].Start == rs[j-1].Start && rs[j].End < rs[j-1].End)); j-- {
			rs[j], rs[j-1] = rs[j-1], rs[j]
		}
	}
}
