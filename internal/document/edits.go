package document

import (
	"strings"

	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/xonecas/quill/internal/indent"
	"github.com/xonecas/quill/internal/lineindex"
	"github.com/xonecas/quill/internal/text"
)

// SetText replaces the whole document with s as line-granular edits, so
// unchanged lines keep their identifiers and their syntax is reused.
func (d *Document) SetText(s string) lineindex.ChangeSet {
	before := d.buf.String()
	if before == s {
		return lineindex.ChangeSet{}
	}
	edits := myers.ComputeEdits(span.URIFromPath("document"), before, s)
	starts := lineStarts(before)
	offset := func(line int) int {
		if line-1 < len(starts) {
			return starts[line-1]
		}
		return len(before)
	}

	changes := lineindex.ChangeSet{}
	// Back to front so earlier offsets stay valid.
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		from, to := offset(e.Span.Start().Line()), offset(e.Span.End().Line())
		start := text.UTF16Len(before[:from])
		r := text.CharRange{Start: start, End: start + text.UTF16Len(before[from:to])}
		changes.Union(d.Replace(r, e.NewText))
	}
	d.log.Debug().Int("edits", len(edits)).Msg("text replaced")
	return changes
}

// lineStarts returns the byte offset of each LF-terminated line, the split
// the diff works in.
func lineStarts(s string) []int {
	starts := []int{0}
	for i := 0; i < len(s); {
		j := strings.IndexByte(s[i:], '\n')
		if j < 0 {
			break
		}
		i += j + 1
		starts = append(starts, i)
	}
	return starts
}

// ShiftRight indents every line touched by r by one unit. Blank lines are
// left alone.
func (d *Document) ShiftRight(r text.CharRange, unit indent.Unit) lineindex.ChangeSet {
	ins := unit.String(1)
	return d.shift(r, func(l lineindex.Line) (int, string, bool) {
		if l.Length == 0 {
			return 0, "", false
		}
		return 0, ins, true
	})
}

// ShiftLeft removes up to one unit of leading whitespace from every line
// touched by r.
func (d *Document) ShiftLeft(r text.CharRange, unit indent.Unit) lineindex.ChangeSet {
	src := d.buf.All()
	return d.shift(r, func(l lineindex.Line) (int, string, bool) {
		line := src[l.StartByte : l.StartByte+l.ByteLength]
		n := 0
		switch {
		case len(line) > 0 && line[0] == '\t':
			n = 1
		default:
			for n < len(line) && n < unit.Columns() && line[n] == ' ' {
				n++
			}
		}
		return n, "", n > 0
	})
}

// shift applies one edit at the start of each line in r, bottom up. edit
// returns how many leading characters to replace and with what.
func (d *Document) shift(r text.CharRange, edit func(lineindex.Line) (int, string, bool)) lineindex.ChangeSet {
	lines := d.lines.Lines(r)
	// A selection ending at a line start does not touch that line.
	if n := len(lines); n > 1 && lines[n-1].Start == r.End {
		lines = lines[:n-1]
	}
	changes := lineindex.ChangeSet{}
	for i := len(lines) - 1; i >= 0; i-- {
		n, ins, ok := edit(lines[i])
		if !ok {
			continue
		}
		at := lines[i].Start
		changes.Union(d.Replace(text.CharRange{Start: at, End: at + n}, ins))
	}
	return changes
}
