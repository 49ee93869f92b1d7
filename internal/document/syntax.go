package document

import (
	"context"

	"github.com/xonecas/quill/internal/indent"
	"github.com/xonecas/quill/internal/text"
	"github.com/xonecas/quill/internal/treesitter"
)

// Node is a syntax node with row/column positions.
type Node struct {
	Type     string
	Language string
	Range    text.ByteRange
	Start    text.Point
	End      text.Point
}

// SyntaxNode returns the smallest node at p.
func (d *Document) SyntaxNode(p text.Point) (Node, bool) {
	return d.node(p, (*treesitter.Tree).SyntaxNode)
}

// HighestSyntaxNode returns the largest node starting where SyntaxNode(p)
// starts.
func (d *Document) HighestSyntaxNode(p text.Point) (Node, bool) {
	return d.node(p, (*treesitter.Tree).HighestSyntaxNode)
}

func (d *Document) node(p text.Point, find func(*treesitter.Tree, int) (treesitter.Node, bool)) (Node, bool) {
	if d.tree == nil {
		return Node{}, false
	}
	tr := d.Translator()
	b, ok := tr.ByteForPoint(p)
	if !ok {
		return Node{}, false
	}
	n, ok := find(d.tree, b)
	if !ok {
		return Node{}, false
	}
	start, _ := tr.PointForByte(n.Range.Start)
	end, _ := tr.PointForByte(n.Range.End)
	return Node{Type: n.Type, Language: n.Language, Range: n.Range, Start: start, End: end}, true
}

// Layers lists the syntax layers, or nothing without a grammar.
func (d *Document) Layers() []treesitter.LayerInfo {
	if d.tree == nil {
		return nil
	}
	return d.tree.Layers()
}

func (d *Document) indentService() *indent.Service {
	return indent.NewService(d.tree, d.Translator(), d.buf.All(), d.tabWidth)
}

// DetectIndentStrategy infers the indent unit from the document's text.
func (d *Document) DetectIndentStrategy(ctx context.Context) indent.Detected {
	return d.indentService().Detect(ctx, d.detect)
}

// StrategyForInsertingLineBreak decides how to indent a line break replacing
// the characters in r. Ranges that split a character get the zero Strategy.
func (d *Document) StrategyForInsertingLineBreak(ctx context.Context, r text.CharRange, unit indent.Unit) indent.Strategy {
	br, ok := d.Translator().ByteRange(r)
	if !ok {
		return indent.Strategy{}
	}
	return d.indentService().StrategyForInsertingLineBreak(ctx, br.Start, br.End, unit)
}

// InsertLineBreak replaces r with a line break indented per
// StrategyForInsertingLineBreak and returns the caret offset after it.
func (d *Document) InsertLineBreak(ctx context.Context, r text.CharRange, unit indent.Unit) int {
	st := d.StrategyForInsertingLineBreak(ctx, r, unit)
	delim := "\n"
	if l, ok := d.lines.LineAtChar(r.Start); ok && l.Delimiter != text.DelimiterNone {
		delim = l.Delimiter.Text()
	}
	ins := delim + unit.String(st.IndentLevel)
	caret := r.Start + text.UTF16Len(ins)
	if st.InsertExtraLineBreak {
		ins += delim + unit.String(st.IndentLevel-1)
	}
	d.Replace(r, ins)
	return caret
}
