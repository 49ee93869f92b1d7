package edit

import (
	"errors"
	"testing"

	"github.com/xonecas/quill/internal/lineindex"
	"github.com/xonecas/quill/internal/position"
	"github.com/xonecas/quill/internal/text"
)

func translator(s string) *position.Translator {
	return position.New(lineindex.New(s), text.NewBuffer(s))
}

func TestDescribe(t *testing.T) {
	tr := translator("func main() {\n\tpé()\n}\n")
	// Replace "pé" (units 15..17, bytes 15..18) with two lines.
	d := Describe(tr, text.CharRange{Start: 15, End: 17}, "a\nbc")

	if d.StartByte != 15 || d.OldEndByte != 18 || d.NewEndByte != 19 || d.BytesAdded != 4 {
		t.Errorf("bytes = %d %d %d %d", d.StartByte, d.OldEndByte, d.NewEndByte, d.BytesAdded)
	}
	if d.StartPoint != (text.Point{Row: 1, Column: 1}) || d.OldEndPoint != (text.Point{Row: 1, Column: 4}) {
		t.Errorf("points = %v %v", d.StartPoint, d.OldEndPoint)
	}
	if d.NewEndPoint != (text.Point{Row: 2, Column: 2}) {
		t.Errorf("new end = %v", d.NewEndPoint)
	}
	if d.Delta() != 1 || d.IsNoop() {
		t.Errorf("delta = %d noop = %v", d.Delta(), d.IsNoop())
	}
	te := d.TreeEdit()
	if te.StartIndex != 15 || te.OldEndIndex != 18 || te.NewEndIndex != 19 ||
		te.NewEndPoint.Row != 2 || te.NewEndPoint.Column != 2 {
		t.Errorf("tree edit = %+v", te)
	}
}

func TestDescribeTreePointsWithLoneCR(t *testing.T) {
	tr := translator("a\rb")
	d := Describe(tr, text.CharRange{Start: 3, End: 3}, "x\ry")
	if d.StartPoint != (text.Point{Row: 1, Column: 1}) || d.NewEndPoint != (text.Point{Row: 2, Column: 1}) {
		t.Errorf("points = %v -> %v", d.StartPoint, d.NewEndPoint)
	}
	if d.TreeStart.Row != 0 || d.TreeStart.Column != 3 || d.TreeNewEnd.Row != 0 || d.TreeNewEnd.Column != 6 {
		t.Errorf("tree points = %+v -> %+v", d.TreeStart, d.TreeNewEnd)
	}
}

func TestPointDelta(t *testing.T) {
	cases := []struct {
		in        string
		rows, col int
	}{
		{"", 0, 0},
		{"abc", 0, 3},
		{"a\n", 1, 0},
		{"a\r\nbcd", 1, 3},
		{"a\rb\nc", 2, 1},
	}
	for _, tc := range cases {
		if rows, col := PointDelta(tc.in); rows != tc.rows || col != tc.col {
			t.Errorf("PointDelta(%q) = %d, %d, want %d, %d", tc.in, rows, col, tc.rows, tc.col)
		}
	}
	if rows, col := TreePointDelta("a\rb\nc\r"); rows != 1 || col != 2 {
		t.Errorf("TreePointDelta = %d, %d", rows, col)
	}
}

func TestShiftByte(t *testing.T) {
	tr := translator("0123456789")
	d := Describe(tr, text.CharRange{Start: 3, End: 5}, "abcd")
	for _, tc := range []struct{ in, want int }{{2, 2}, {3, 3}, {4, 7}, {5, 7}, {9, 11}} {
		if got := d.ShiftByte(tc.in); got != tc.want {
			t.Errorf("ShiftByte(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestDescribeOutOfBoundsPanics(t *testing.T) {
	for _, r := range []text.CharRange{{Start: 0, End: 9}, {Start: 2, End: 1}, {Start: 1, End: 2}} {
		func() {
			defer func() {
				err, ok := recover().(error)
				if !ok || !errors.Is(err, ErrOutOfBounds) {
					t.Errorf("Describe(%v) did not panic with ErrOutOfBounds", r)
				}
			}()
			// Unit 1 is the middle of the emoji.
			Describe(translator("😀ab"), r, "x")
		}()
	}
}
