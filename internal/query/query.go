// Package query compiles tree-sitter queries and runs them into ordered,
// categorized captures.
package query

import (
	"context"
	"errors"
	"fmt"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/quill/internal/text"
)

// ErrCompile wraps every query compilation failure.
var ErrCompile = errors.New("query: compile")

// Query is a compiled query. It is read-only after Compile and may be shared
// across documents and goroutines; cursors are created per run.
type Query struct {
	q     *sitter.Query
	names []string
	cats  []Category
	keep  []bool
}

// Compile compiles source for lang. Captures whose names map to no category
// are dropped from results.
func Compile(lang *sitter.Language, source []byte) (*Query, error) {
	q, err := sitter.NewQuery(source, lang)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	n := q.CaptureCount()
	out := &Query{
		q:     q,
		names: make([]string, n),
		cats:  make([]Category, n),
		keep:  make([]bool, n),
	}
	for id := uint32(0); id < n; id++ {
		name := q.CaptureNameForId(id)
		out.names[id] = name
		out.cats[id], out.keep[id] = ParseCategory(name)
	}
	return out, nil
}

// CaptureNames returns the capture names in declaration order.
func (q *Query) CaptureNames() []string { return slices.Clone(q.names) }

// Capture is one categorized query capture.
type Capture struct {
	Category Category
	Name     string
	Range    text.ByteRange
	Node     *sitter.Node
	// Pattern is the pattern's declaration index in the query source.
	Pattern int
	// Order is the capture's position within its match.
	Order int
	// Match numbers the matches of one run; captures sharing it came from the
	// same match.
	Match    int
	Language string
	Depth    int
}

// Span restricts a run. Bytes is always honored; the point range is handed
// to the cursor only when UsePoints is set. Documents containing bare CR
// delimiters must leave it unset because the parser's rows disagree with the
// document's.
type Span struct {
	Bytes      text.ByteRange
	Start, End sitter.Point
	UsePoints  bool
}

// Run executes q over node and returns captures intersecting span in document
// order, ties broken by pattern then capture order. It stops with ctx.Err()
// when ctx is cancelled between matches.
func Run(ctx context.Context, q *Query, node *sitter.Node, src []byte, span Span) ([]Capture, error) {
	if q == nil || node == nil {
		return nil, nil
	}
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	if span.UsePoints {
		qc.SetPointRange(span.Start, span.End)
	}
	qc.Exec(q.q, node)

	var out []Capture
	for matchNo := 0; ; matchNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, src)
		for order, c := range m.Captures {
			if int(c.Index) >= len(q.keep) || !q.keep[c.Index] {
				continue
			}
			r := text.ByteRange{Start: int(c.Node.StartByte()), End: int(c.Node.EndByte())}
			if !r.Intersects(span.Bytes) {
				continue
			}
			out = append(out, Capture{
				Category: q.cats[c.Index],
				Name:     q.names[c.Index],
				Range:    r,
				Node:     c.Node,
				Pattern:  int(m.PatternIndex),
				Order:    order,
				Match:    matchNo,
			})
		}
	}
	Sort(out)
	return out, nil
}

// Sort orders captures by start, then layer depth, then pattern and capture
// order. Equal captures keep their relative order.
func Sort(cs []Capture) {
	slices.SortStableFunc(cs, Compare)
}

// Compare is the capture order used by Sort.
func Compare(a, b Capture) int {
	switch {
	case a.Range.Start != b.Range.Start:
		return a.Range.Start - b.Range.Start
	case a.Depth != b.Depth:
		return a.Depth - b.Depth
	case a.Pattern != b.Pattern:
		return a.Pattern - b.Pattern
	case a.Order != b.Order:
		return a.Order - b.Order
	}
	return b.Range.End - a.Range.End
}
