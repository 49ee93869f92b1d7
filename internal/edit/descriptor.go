// Package edit turns text replacements into structured edit descriptors.
package edit

import (
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/quill/internal/lineindex"
	"github.com/xonecas/quill/internal/position"
	"github.com/xonecas/quill/internal/text"
)

// ErrOutOfBounds is the panic value cause for ranges outside the document or
// ranges that split a character.
var ErrOutOfBounds = errors.New("edit: range out of bounds")

// Descriptor describes one replacement in every coordinate system the core
// uses. Positions are measured against the pre-edit document except the new
// end, which is derived from the replacement alone.
type Descriptor struct {
	Chars       text.CharRange
	Replacement string

	StartByte  int
	OldEndByte int
	NewEndByte int
	// BytesAdded is the byte length of Replacement.
	BytesAdded int

	// Points count every delimiter as a row break.
	StartPoint  text.Point
	OldEndPoint text.Point
	NewEndPoint text.Point

	// Tree points count only LF, matching the parser.
	TreeStart  sitter.Point
	TreeOldEnd sitter.Point
	TreeNewEnd sitter.Point

	// Lines is filled in once the line index has applied the edit.
	Lines lineindex.ChangeSet
}

// Describe builds the descriptor for replacing r with replacement. It must
// run before the document is mutated.
func Describe(tr *position.Translator, r text.CharRange, replacement string) Descriptor {
	br, ok := tr.ByteRange(r)
	if !ok {
		panic(fmt.Errorf("%w: %v in a document of %d units", ErrOutOfBounds, r, tr.Lines().Len()))
	}
	start, _ := tr.PointForByte(br.Start)
	oldEnd, _ := tr.PointForByte(br.End)
	treeStart, ok1 := tr.TreePoint(br.Start)
	treeOldEnd, ok2 := tr.TreePoint(br.End)
	if !ok1 || !ok2 {
		panic(fmt.Errorf("%w: %v does not fit tree coordinates", ErrOutOfBounds, br))
	}

	d := Descriptor{
		Chars:       r,
		Replacement: replacement,
		StartByte:   br.Start,
		OldEndByte:  br.End,
		NewEndByte:  br.Start + len(replacement),
		BytesAdded:  len(replacement),
		StartPoint:  start,
		OldEndPoint: oldEnd,
		TreeStart:   treeStart,
		TreeOldEnd:  treeOldEnd,
	}
	rows, col := PointDelta(replacement)
	d.NewEndPoint = advance(start, rows, col)

	rows, col = TreePointDelta(replacement)
	end := advance(position.FromTreePoint(treeStart), rows, col)
	if d.TreeNewEnd, ok = position.ToTreePoint(end); !ok {
		panic(fmt.Errorf("%w: replacement end %v does not fit tree coordinates", ErrOutOfBounds, end))
	}
	return d
}

func advance(p text.Point, rows, col int) text.Point {
	if rows == 0 {
		return text.Point{Row: p.Row, Column: p.Column + col}
	}
	return text.Point{Row: p.Row + rows, Column: col}
}

// PointDelta returns how many delimiters s holds and the byte length of its
// last line.
func PointDelta(s string) (rows, column int) {
	segs := text.SplitLines(s)
	return len(segs) - 1, len(segs[len(segs)-1].Content)
}

// TreePointDelta is PointDelta counting only LF as a row break.
func TreePointDelta(s string) (rows, column int) {
	rows = strings.Count(s, "\n")
	if rows == 0 {
		return 0, len(s)
	}
	return rows, len(s) - strings.LastIndexByte(s, '\n') - 1
}

// IsNoop reports whether the edit changes nothing.
func (d Descriptor) IsNoop() bool {
	return d.StartByte == d.OldEndByte && d.Replacement == ""
}

// OldByteRange is the replaced range in pre-edit bytes.
func (d Descriptor) OldByteRange() text.ByteRange {
	return text.ByteRange{Start: d.StartByte, End: d.OldEndByte}
}

// NewByteRange is the inserted text's range in post-edit bytes.
func (d Descriptor) NewByteRange() text.ByteRange {
	return text.ByteRange{Start: d.StartByte, End: d.NewEndByte}
}

// Delta is the change in document byte length.
func (d Descriptor) Delta() int { return d.NewEndByte - d.OldEndByte }

// ShiftByte maps a pre-edit byte offset outside the replaced range to its
// post-edit position. Offsets inside the range collapse to its new end.
func (d Descriptor) ShiftByte(b int) int {
	switch {
	case b <= d.StartByte:
		return b
	case b >= d.OldEndByte:
		return b + d.Delta()
	default:
		return d.NewEndByte
	}
}

// TreeEdit returns the edit in the parser's terms.
func (d Descriptor) TreeEdit() sitter.EditInput {
	return sitter.EditInput{
		StartIndex:  mustUint32(d.StartByte),
		OldEndIndex: mustUint32(d.OldEndByte),
		NewEndIndex: mustUint32(d.NewEndByte),
		StartPoint:  d.TreeStart,
		OldEndPoint: d.TreeOldEnd,
		NewEndPoint: d.TreeNewEnd,
	}
}

func mustUint32(v int) uint32 {
	u, err := safecast.Conv[uint32](v)
	if err != nil {
		panic(fmt.Errorf("%w: byte offset %d: %w", ErrOutOfBounds, v, err))
	}
	return u
}
