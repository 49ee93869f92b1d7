// Package lineindex tracks the document as an ordered sequence of lines.
//
// The index is an order-statistics treap: point queries by UTF-16 offset, byte
// offset or row are O(log n), and a replacement touching k lines is
// O(log n + k). Line identifiers survive every edit that does not delete the
// line; when two lines merge the first one keeps its identifier.
//
// The index is not safe for concurrent use. The owning document serializes
// edits and queries.
package lineindex

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/xonecas/quill/internal/text"
)

// ErrOutOfBounds is the panic value cause for edits outside the document.
var ErrOutOfBounds = errors.New("lineindex: range out of bounds")

// LineID identifies a line for as long as it exists.
type LineID uint64

// Line is a read-only snapshot of one line and its position.
type Line struct {
	ID        LineID
	Row       int
	Start     int // UTF-16 offset of the first unit
	StartByte int
	Length    int // UTF-16 units, delimiter excluded
	// ByteLength is the content byte length, delimiter excluded.
	ByteLength int
	Delimiter  text.Delimiter
}

// DelimiterLength returns 0, 1 or 2.
func (l Line) DelimiterLength() int { return l.Delimiter.Len() }

// TotalLength is the line length in UTF-16 units including the delimiter.
func (l Line) TotalLength() int { return l.Length + l.Delimiter.Len() }

// TotalByteLength is the line length in bytes including the delimiter.
func (l Line) TotalByteLength() int { return l.ByteLength + l.Delimiter.Len() }

// End returns the UTF-16 offset just past the delimiter.
func (l Line) End() int { return l.Start + l.TotalLength() }

// EndByte returns the byte offset just past the delimiter.
func (l Line) EndByte() int { return l.StartByte + l.TotalByteLength() }

// ContentByteRange is the line's byte range without the delimiter.
func (l Line) ContentByteRange() text.ByteRange {
	return text.ByteRange{Start: l.StartByte, End: l.StartByte + l.ByteLength}
}

// Index is the line-indexed view of a document.
type Index struct {
	root   *node
	nodes  map[LineID]*node
	nextID LineID
	rng    *rand.Rand
}

// New indexes s.
func New(s string) *Index {
	ix := &Index{
		nodes: make(map[LineID]*node),
		rng:   rand.New(rand.NewPCG(0x9e3779b97f4a7c15, 0xbf58476d1ce4e5b9)),
	}
	for _, seg := range text.SplitLines(s) {
		ix.root = merge(ix.root, ix.newNode(seg))
	}
	return ix
}

func (ix *Index) newNode(seg text.Segment) *node {
	ix.nextID++
	n := &node{id: ix.nextID, prio: ix.rng.Uint64()}
	n.assign(seg)
	ix.nodes[n.id] = n
	return n
}

func (n *node) assign(seg text.Segment) {
	n.length = text.UTF16Len(seg.Content)
	n.byteLength = len(seg.Content)
	n.delim = seg.Delimiter
	n.left, n.right, n.parent = nil, nil, nil
	n.update()
}

// Len returns the document length in UTF-16 units.
func (ix *Index) Len() int { return chars(ix.root) }

// ByteLen returns the document length in bytes.
func (ix *Index) ByteLen() int { return bytesOf(ix.root) }

// LineCount returns the number of lines; an empty document has one.
func (ix *Index) LineCount() int { return count(ix.root) }

// HasLoneCR reports whether any line ends with a bare carriage return.
func (ix *Index) HasLoneCR() bool { return loneCR(ix.root) > 0 }

// LineAtChar returns the line containing the UTF-16 offset. The document
// end belongs to the last line.
func (ix *Index) LineAtChar(offset int) (Line, bool) {
	if offset < 0 || offset > ix.Len() {
		return Line{}, false
	}
	if offset == ix.Len() {
		return ix.LineAtRow(ix.LineCount() - 1)
	}
	var row, start, startByte int
	n := ix.root
	for n != nil {
		lc := chars(n.left)
		if offset < lc {
			n = n.left
			continue
		}
		offset -= lc
		row += count(n.left)
		start += lc
		startByte += bytesOf(n.left)
		if offset < n.totalChars() {
			return n.snapshot(row, start, startByte), true
		}
		offset -= n.totalChars()
		row++
		start += n.totalChars()
		startByte += n.totalBytes()
		n = n.right
	}
	return Line{}, false
}

// LineAtByte returns the line containing the byte offset. The document end
// belongs to the last line.
func (ix *Index) LineAtByte(offset int) (Line, bool) {
	if offset < 0 || offset > ix.ByteLen() {
		return Line{}, false
	}
	if offset == ix.ByteLen() {
		return ix.LineAtRow(ix.LineCount() - 1)
	}
	var row, start, startByte int
	n := ix.root
	for n != nil {
		lb := bytesOf(n.left)
		if offset < lb {
			n = n.left
			continue
		}
		offset -= lb
		row += count(n.left)
		start += chars(n.left)
		startByte += lb
		if offset < n.totalBytes() {
			return n.snapshot(row, start, startByte), true
		}
		offset -= n.totalBytes()
		row++
		start += n.totalChars()
		startByte += n.totalBytes()
		n = n.right
	}
	return Line{}, false
}

// LineAtRow returns the k-th line, zero-based.
func (ix *Index) LineAtRow(k int) (Line, bool) {
	n, start, startByte := ix.nodeAtRow(k)
	if n == nil {
		return Line{}, false
	}
	return n.snapshot(k, start, startByte), true
}

func (ix *Index) nodeAtRow(k int) (*node, int, int) {
	if k < 0 || k >= ix.LineCount() {
		return nil, 0, 0
	}
	var start, startByte int
	n := ix.root
	for n != nil {
		lc := count(n.left)
		switch {
		case k < lc:
			n = n.left
		case k == lc:
			return n, start + chars(n.left), startByte + bytesOf(n.left)
		default:
			k -= lc + 1
			start += chars(n.left) + n.totalChars()
			startByte += bytesOf(n.left) + n.totalBytes()
			n = n.right
		}
	}
	return nil, 0, 0
}

// LoneCRBefore returns how many of the first row lines end with a bare CR.
func (ix *Index) LoneCRBefore(row int) int {
	n := 0
	for cur := ix.root; cur != nil; {
		lc := count(cur.left)
		if row <= lc {
			cur = cur.left
			continue
		}
		n += loneCR(cur.left)
		if cur.delim == text.DelimiterCR {
			n++
		}
		row -= lc + 1
		cur = cur.right
	}
	return n
}

// Line returns the current snapshot of the line with the given identifier.
func (ix *Index) Line(id LineID) (Line, bool) {
	n, ok := ix.nodes[id]
	if !ok {
		return Line{}, false
	}
	row, start, startByte := count(n.left), chars(n.left), bytesOf(n.left)
	for cur := n; cur.parent != nil; cur = cur.parent {
		p := cur.parent
		if cur == p.right {
			row += count(p.left) + 1
			start += chars(p.left) + p.totalChars()
			startByte += bytesOf(p.left) + p.totalBytes()
		}
	}
	return n.snapshot(row, start, startByte), true
}

func (n *node) snapshot(row, start, startByte int) Line {
	return Line{
		ID:         n.id,
		Row:        row,
		Start:      start,
		StartByte:  startByte,
		Length:     n.length,
		ByteLength: n.byteLength,
		Delimiter:  n.delim,
	}
}

// Lines returns the lines whose span intersects r, in order. An empty range
// yields the line containing r.Start.
func (ix *Index) Lines(r text.CharRange) []Line {
	firstLine, ok := ix.LineAtChar(max(r.Start, 0))
	if !ok {
		return nil
	}
	return ix.walk(firstLine, func(l Line) bool { return l.Start < r.End })
}

// LinesInByteRange is Lines for a byte range.
func (ix *Index) LinesInByteRange(r text.ByteRange) []Line {
	firstLine, ok := ix.LineAtByte(max(r.Start, 0))
	if !ok {
		return nil
	}
	return ix.walk(firstLine, func(l Line) bool { return l.StartByte < r.End })
}

func (ix *Index) walk(from Line, more func(Line) bool) []Line {
	out := []Line{from}
	n := ix.nodes[from.ID]
	cur := from
	for next := successor(n); next != nil; next = successor(next) {
		l := next.snapshot(cur.Row+1, cur.End(), cur.EndByte())
		if !more(l) {
			break
		}
		out = append(out, l)
		cur = l
	}
	return out
}

// All returns every line in order.
func (ix *Index) All() []Line {
	nodes := inorder(ix.root, make([]*node, 0, ix.LineCount()))
	out := make([]Line, len(nodes))
	var start, startByte int
	for i, n := range nodes {
		out[i] = n.snapshot(i, start, startByte)
		start += n.totalChars()
		startByte += n.totalBytes()
	}
	return out
}

// Replace updates the index for the replacement of span/byteSpan (the same
// range measured in both units) with replacement. src must still hold the pre-edit
// text. The returned set names the lines inserted, removed and edited.
//
// Out-of-bounds spans are a caller bug and panic.
func (ix *Index) Replace(span text.CharRange, byteSpan text.ByteRange, replacement string, src text.ByteSource) ChangeSet {
	var changes ChangeSet
	if span.IsEmpty() && replacement == "" {
		return changes
	}
	if span.Start < 0 || span.End < span.Start || span.End > ix.Len() ||
		byteSpan.Start < 0 || byteSpan.End < byteSpan.Start || byteSpan.End > ix.ByteLen() {
		panic(fmt.Errorf("%w: %v %v (document %d units, %d bytes)", ErrOutOfBounds, span, byteSpan, ix.Len(), ix.ByteLen()))
	}

	firstLine, _ := ix.LineAtChar(span.Start)
	joinsPrevious := false
	if firstLine.Row > 0 && span.Start == firstLine.Start {
		// A lone CR before the edit may pair with an inserted LF.
		if prev, ok := ix.LineAtRow(firstLine.Row - 1); ok && prev.Delimiter == text.DelimiterCR {
			firstLine = prev
			joinsPrevious = true
		}
	}
	lastLine, _ := ix.LineAtChar(span.End)

	var fragment strings.Builder
	fragment.Write(src.Bytes(text.ByteRange{Start: firstLine.StartByte, End: byteSpan.Start}))
	fragment.WriteString(replacement)
	fragment.Write(src.Bytes(text.ByteRange{Start: byteSpan.End, End: lastLine.EndByte()}))
	segs := text.SplitLines(fragment.String())
	if lastLine.Row < ix.LineCount()-1 {
		// The fragment ends with lastLine's delimiter; the empty tail segment
		// is the start of the next, untouched line.
		segs = segs[:len(segs)-1]
	}

	before, rest := split(ix.root, firstLine.Row)
	middle, after := split(rest, lastLine.Row-firstLine.Row+1)
	old := inorder(middle, nil)

	var rebuilt *node
	for i, seg := range segs {
		var n *node
		if i < len(old) {
			n = old[i]
			unchanged := n.length == text.UTF16Len(seg.Content) && n.delim == seg.Delimiter
			n.assign(seg)
			if !(i == 0 && joinsPrevious && unchanged) {
				changes.MarkEdited(n.id)
			}
		} else {
			n = ix.newNode(seg)
			changes.MarkInserted(n.id)
		}
		rebuilt = merge(rebuilt, n)
	}
	for _, n := range old[min(len(segs), len(old)):] {
		delete(ix.nodes, n.id)
		changes.MarkRemoved(n.id)
	}
	ix.root = merge(merge(before, rebuilt), after)
	return changes
}
