package lineindex

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/xonecas/quill/internal/text"
)

// applyEdit replaces the runes [from, to) of s with repl, updating ix the way
// a document does: index first (pre-edit source), then the buffer.
func applyEdit(t *testing.T, ix *Index, s string, from, to int, repl string) (string, ChangeSet) {
	t.Helper()
	runes := []rune(s)
	prefix := string(runes[:from])
	removed := string(runes[from:to])
	span := text.CharRange{Start: text.UTF16Len(prefix), End: text.UTF16Len(prefix) + text.UTF16Len(removed)}
	byteSpan := text.ByteRange{Start: len(prefix), End: len(prefix) + len(removed)}
	changes := ix.Replace(span, byteSpan, repl, text.NewBuffer(s))
	return prefix + repl + string(runes[to:]), changes
}

func checkAgainst(t *testing.T, ix *Index, s string) {
	t.Helper()
	segs := text.SplitLines(s)
	lines := ix.All()
	if len(lines) != len(segs) {
		t.Fatalf("line count = %d, want %d for %q", len(lines), len(segs), s)
	}
	total := 0
	for i, l := range lines {
		if l.Length != text.UTF16Len(segs[i].Content) || l.Delimiter != segs[i].Delimiter {
			t.Fatalf("line %d = {len %d delim %v}, want {len %d delim %v} in %q",
				i, l.Length, l.Delimiter, text.UTF16Len(segs[i].Content), segs[i].Delimiter, s)
		}
		if l.Row != i || l.Start != total {
			t.Fatalf("line %d has row %d start %d, want start %d", i, l.Row, l.Start, total)
		}
		byID, ok := ix.Line(l.ID)
		if !ok || byID != l {
			t.Fatalf("Line(%d) = %+v, want %+v", l.ID, byID, l)
		}
		total += l.TotalLength()
	}
	if total != text.UTF16Len(s) || ix.Len() != total {
		t.Fatalf("sum of line lengths = %d, index length %d, document %d", total, ix.Len(), text.UTF16Len(s))
	}
	if ix.ByteLen() != len(s) {
		t.Fatalf("byte length = %d, want %d", ix.ByteLen(), len(s))
	}
	if ix.HasLoneCR() != strings.Contains(strings.ReplaceAll(s, "\r\n", ""), "\r") {
		t.Fatalf("HasLoneCR = %v for %q", ix.HasLoneCR(), s)
	}
}

func TestNew(t *testing.T) {
	cases := []string{"", "a", "a\n", "a\nb", "a\r\nb\rc\n", "😀\né"}
	for _, s := range cases {
		checkAgainst(t, New(s), s)
	}
	if New("").LineCount() != 1 {
		t.Error("empty document should have one line")
	}
}

func TestReplaceWithinLine(t *testing.T) {
	s := "0123456789foo4567890"
	ix := New(s)
	id := ix.All()[0].ID
	s, changes := applyEdit(t, ix, s, 10, 13, "foobar")
	checkAgainst(t, ix, s)

	ids := changes.IDs()
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("changed lines = %v, want [%d]", ids, id)
	}
	if l := ix.All()[0]; l.TotalLength() != 23 {
		t.Errorf("total length = %d, want 23", l.TotalLength())
	}
}

func TestDeleteDelimiterMergesIntoFirstLine(t *testing.T) {
	s := "a\nb"
	ix := New(s)
	lines := ix.All()
	s, changes := applyEdit(t, ix, s, 1, 2, "")
	checkAgainst(t, ix, s)

	merged := ix.All()
	if len(merged) != 1 || merged[0].ID != lines[0].ID {
		t.Fatalf("merged line id = %d, want %d", merged[0].ID, lines[0].ID)
	}
	if got := changes.Removed(); len(got) != 1 || got[0] != lines[1].ID {
		t.Errorf("removed = %v, want [%d]", got, lines[1].ID)
	}
	if _, ok := ix.Line(lines[1].ID); ok {
		t.Error("second line should no longer exist")
	}
}

func TestInsertLineBreak(t *testing.T) {
	s := "hello world"
	ix := New(s)
	first := ix.All()[0].ID
	s, changes := applyEdit(t, ix, s, 5, 5, "\n")
	checkAgainst(t, ix, s)
	if len(changes.Inserted()) != 1 || len(changes.Edited()) != 1 || changes.Edited()[0] != first {
		t.Errorf("inserted=%v edited=%v", changes.Inserted(), changes.Edited())
	}
}

func TestCRLFJoins(t *testing.T) {
	// LF typed after a lone CR turns two lines into one CRLF line.
	s := "a\rb"
	ix := New(s)
	s, _ = applyEdit(t, ix, s, 2, 2, "\n")
	checkAgainst(t, ix, s)
	if ix.LineCount() != 2 || ix.All()[0].Delimiter != text.DelimiterCRLF {
		t.Fatalf("lines = %+v", ix.All())
	}

	// Deleting text between CR and LF joins them as well.
	s = "a\rX\nb"
	ix = New(s)
	s, _ = applyEdit(t, ix, s, 2, 3, "")
	checkAgainst(t, ix, s)

	// Splitting a CRLF pair yields a CR line followed by an LF line.
	s = "a\r\nb"
	ix = New(s)
	s, _ = applyEdit(t, ix, s, 2, 2, "x")
	checkAgainst(t, ix, s)
}

func TestNoopReplaceIsEmpty(t *testing.T) {
	ix := New("abc\ndef")
	if changes := ix.Replace(text.CharRange{Start: 2, End: 2}, text.ByteRange{Start: 2, End: 2}, "", text.NewBuffer("abc\ndef")); !changes.IsEmpty() {
		t.Errorf("no-op replace reported %v", changes.IDs())
	}
}

func TestReplaceOutOfBoundsPanics(t *testing.T) {
	ix := New("abc")
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("recover() = %v, want ErrOutOfBounds", r)
		}
	}()
	ix.Replace(text.CharRange{Start: 2, End: 9}, text.ByteRange{Start: 2, End: 9}, "x", text.NewBuffer("abc"))
}

func TestLookups(t *testing.T) {
	s := "ab\r\n😀c\nxyz"
	ix := New(s)
	cases := []struct {
		char, row int
	}{
		{0, 0}, {3, 0}, {4, 1}, {7, 1}, {8, 2}, {11, 2},
	}
	for _, tc := range cases {
		l, ok := ix.LineAtChar(tc.char)
		if !ok || l.Row != tc.row {
			t.Errorf("LineAtChar(%d) row = %d ok=%v, want %d", tc.char, l.Row, ok, tc.row)
		}
	}
	if _, ok := ix.LineAtChar(12); ok {
		t.Error("LineAtChar beyond document should fail")
	}
	if l, ok := ix.LineAtByte(4); !ok || l.Row != 1 || l.StartByte != 4 {
		t.Errorf("LineAtByte(4) = %+v", l)
	}
	if l, ok := ix.LineAtByte(len(s)); !ok || l.Row != 2 {
		t.Errorf("LineAtByte(end) = %+v", l)
	}
	if l, ok := ix.LineAtRow(1); !ok || l.Start != 4 || l.Length != 3 || l.ByteLength != 5 {
		t.Errorf("LineAtRow(1) = %+v", l)
	}

	got := ix.Lines(text.CharRange{Start: 3, End: 5})
	if len(got) != 2 || got[0].Row != 0 || got[1].Row != 1 {
		t.Errorf("Lines(3,5) = %+v", got)
	}
	if got := ix.Lines(text.CharRange{Start: 8, End: 8}); len(got) != 1 || got[0].Row != 2 {
		t.Errorf("Lines(empty) = %+v", got)
	}
	if got := ix.LinesInByteRange(text.ByteRange{Start: 0, End: len(s)}); len(got) != 3 {
		t.Errorf("LinesInByteRange(all) returned %d lines", len(got))
	}
}

func TestRandomEditsKeepInvariants(t *testing.T) {
	alphabet := []string{"a", "b", "c", "\n", "\n", "\r", "\r\n", "é", "😀", "  "}
	rng := rand.New(rand.NewPCG(1, 2))
	randomText := func(n int) string {
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteString(alphabet[rng.IntN(len(alphabet))])
		}
		return b.String()
	}

	s := randomText(40)
	ix := New(s)
	checkAgainst(t, ix, s)
	for i := 0; i < 500; i++ {
		n := len([]rune(s))
		from := rng.IntN(n + 1)
		to := from + rng.IntN(min(n-from, 6)+1)
		repl := randomText(rng.IntN(4))
		s, _ = applyEdit(t, ix, s, from, to, repl)
		checkAgainst(t, ix, s)
	}
}

func TestChangeSetUnion(t *testing.T) {
	var a ChangeSet
	a.MarkEdited(1)
	a.MarkInserted(2)
	var b ChangeSet
	b.MarkRemoved(1)
	b.MarkEdited(3)
	a.Union(b)
	if got := a.Edited(); len(got) != 1 || got[0] != 3 {
		t.Errorf("edited = %v, want [3]", got)
	}
	if got := a.Removed(); len(got) != 1 || got[0] != 1 {
		t.Errorf("removed = %v", got)
	}
	if got := a.IDs(); len(got) != 3 {
		t.Errorf("IDs = %v", got)
	}
}
