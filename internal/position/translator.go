// Package position translates between UTF-16 offsets, UTF-8 byte offsets and
// row/column points.
package position

import (
	"unicode/utf8"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/quill/internal/lineindex"
	"github.com/xonecas/quill/internal/text"
)

// Translator answers position queries against a line index and the bytes it
// describes. Both must reflect the same revision of the document.
type Translator struct {
	lines *lineindex.Index
	src   text.ByteSource
}

// New returns a translator over lines and src.
func New(lines *lineindex.Index, src text.ByteSource) *Translator {
	return &Translator{lines: lines, src: src}
}

// Lines returns the underlying index.
func (t *Translator) Lines() *lineindex.Index { return t.lines }

// ByteOffset converts a UTF-16 offset to a byte offset. It fails beyond the
// document end and inside a surrogate pair.
func (t *Translator) ByteOffset(char int) (int, bool) {
	line, ok := t.lines.LineAtChar(char)
	if !ok {
		return 0, false
	}
	rel := char - line.Start
	if rel > line.Length {
		// Inside or after the delimiter, where units and bytes coincide.
		return line.StartByte + line.ByteLength + rel - line.Length, true
	}
	content := t.src.Bytes(line.ContentByteRange())
	units := 0
	for i := 0; i < len(content); {
		if units == rel {
			return line.StartByte + i, true
		}
		r, size := utf8.DecodeRune(content[i:])
		units += text.RuneUTF16Len(r)
		i += size
		if units > rel {
			return 0, false
		}
	}
	return line.StartByte + line.ByteLength, units == rel
}

// CharOffset converts a byte offset to a UTF-16 offset. It fails beyond the
// document end and inside a multi-byte sequence.
func (t *Translator) CharOffset(b int) (int, bool) {
	line, ok := t.lines.LineAtByte(b)
	if !ok {
		return 0, false
	}
	rel := b - line.StartByte
	if rel > line.ByteLength {
		return line.Start + line.Length + rel - line.ByteLength, true
	}
	content := t.src.Bytes(line.ContentByteRange())
	if rel < len(content) && !utf8.RuneStart(content[rel]) {
		return 0, false
	}
	return line.Start + text.UTF16LenBytes(content[:rel]), true
}

// Point returns the row and byte column of a UTF-16 offset.
func (t *Translator) Point(char int) (text.Point, bool) {
	b, ok := t.ByteOffset(char)
	if !ok {
		return text.Point{}, false
	}
	return t.PointForByte(b)
}

// PointForByte returns the row and byte column of a byte offset. Rows count
// every delimiter, lone CR included.
func (t *Translator) PointForByte(b int) (text.Point, bool) {
	line, ok := t.lines.LineAtByte(b)
	if !ok {
		return text.Point{}, false
	}
	return text.Point{Row: line.Row, Column: b - line.StartByte}, true
}

// ByteForPoint is the inverse of PointForByte. The column may address the
// delimiter but not run past it.
func (t *Translator) ByteForPoint(p text.Point) (int, bool) {
	line, ok := t.lines.LineAtRow(p.Row)
	if !ok || p.Column < 0 || p.Column > line.TotalByteLength() {
		return 0, false
	}
	if p.Column == line.TotalByteLength() && line.Delimiter != text.DelimiterNone {
		return 0, false
	}
	return line.StartByte + p.Column, true
}

// ByteRange converts a UTF-16 range.
func (t *Translator) ByteRange(r text.CharRange) (text.ByteRange, bool) {
	start, ok := t.ByteOffset(r.Start)
	if !ok {
		return text.ByteRange{}, false
	}
	end, ok := t.ByteOffset(r.End)
	if !ok || end < start {
		return text.ByteRange{}, false
	}
	return text.ByteRange{Start: start, End: end}, true
}

// CharRange converts a byte range.
func (t *Translator) CharRange(r text.ByteRange) (text.CharRange, bool) {
	start, ok := t.CharOffset(r.Start)
	if !ok {
		return text.CharRange{}, false
	}
	end, ok := t.CharOffset(r.End)
	if !ok || end < start {
		return text.CharRange{}, false
	}
	return text.CharRange{Start: start, End: end}, true
}

// TreePoint returns the point tree-sitter assigns to a byte offset. The
// parser only breaks rows at LF, so lines ending in a bare CR fold into the
// row that follows them.
func (t *Translator) TreePoint(b int) (sitter.Point, bool) {
	line, ok := t.lines.LineAtByte(b)
	if !ok {
		return sitter.Point{}, false
	}
	row, colStart := line.Row, line.StartByte
	if t.lines.HasLoneCR() {
		row -= t.lines.LoneCRBefore(line.Row)
		for r := line.Row - 1; r >= 0; r-- {
			prev, _ := t.lines.LineAtRow(r)
			if prev.Delimiter != text.DelimiterCR {
				break
			}
			colStart = prev.StartByte
		}
	}
	return ToTreePoint(text.Point{Row: row, Column: b - colStart})
}

// ToTreePoint narrows p to tree-sitter's uint32 coordinates.
func ToTreePoint(p text.Point) (sitter.Point, bool) {
	row, err := safecast.Conv[uint32](p.Row)
	if err != nil {
		return sitter.Point{}, false
	}
	col, err := safecast.Conv[uint32](p.Column)
	if err != nil {
		return sitter.Point{}, false
	}
	return sitter.Point{Row: row, Column: col}, true
}

// FromTreePoint widens a tree-sitter point.
func FromTreePoint(p sitter.Point) text.Point {
	return text.Point{Row: int(p.Row), Column: int(p.Column)}
}
