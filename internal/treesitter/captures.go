package treesitter

import (
	"context"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/quill/internal/language"
	"github.com/xonecas/quill/internal/position"
	"github.com/xonecas/quill/internal/query"
	"github.com/xonecas/quill/internal/text"
)

// view is a read-only layer projection shared by the live tree and
// snapshots.
type view struct {
	handle Handle
	lang   *language.Language
	tree   *sitter.Tree
	depth  int
	ranges []text.ByteRange
	// masks are the included ranges of the layer's children.
	masks []text.ByteRange
}

func (t *Tree) views(copyTrees bool) []view {
	var out []view
	for _, info := range t.Layers() {
		l := t.get(info.Handle)
		v := view{
			handle: info.Handle,
			lang:   l.lang,
			tree:   l.tree,
			depth:  l.depth,
			ranges: info.Ranges,
		}
		if copyTrees {
			v.tree = l.tree.Copy()
		}
		if len(v.ranges) == 0 {
			v.ranges = []text.ByteRange{l.cover}
		}
		for _, c := range l.children {
			for _, r := range t.get(c).ranges {
				v.masks = append(v.masks, byteRange(r))
			}
		}
		v.masks = text.MergeRanges(v.masks)
		out = append(out, v)
	}
	return out
}

// Captures runs the kind query of every layer that meets span and merges the
// results. Inside a child layer's ranges the child's captures replace the
// parent's.
func (t *Tree) Captures(ctx context.Context, kind language.QueryKind, span query.Span, src []byte) ([]query.Capture, error) {
	return captures(ctx, t.views(false), kind, span, src)
}

// LayerCaptures runs the kind query of a single layer without precedence.
func (t *Tree) LayerCaptures(ctx context.Context, h Handle, kind language.QueryKind, span query.Span, src []byte) ([]query.Capture, error) {
	l := t.get(h)
	if l == nil {
		return nil, nil
	}
	return runLayer(ctx, view{handle: h, lang: l.lang, tree: l.tree, depth: l.depth}, kind, span, src)
}

func captures(ctx context.Context, views []view, kind language.QueryKind, span query.Span, src []byte) ([]query.Capture, error) {
	var out []query.Capture
	for _, v := range views {
		if !slices.ContainsFunc(v.ranges, span.Bytes.Intersects) {
			continue
		}
		caps, err := runLayer(ctx, v, kind, span, src)
		if err != nil {
			return nil, err
		}
		for _, c := range caps {
			out = append(out, subtract(c, v.masks)...)
		}
	}
	query.Sort(out)
	return out, nil
}

func runLayer(ctx context.Context, v view, kind language.QueryKind, span query.Span, src []byte) ([]query.Capture, error) {
	q := v.lang.Query(kind)
	if q == nil {
		return nil, nil
	}
	caps, err := query.Run(ctx, q, v.tree.RootNode(), src, span)
	if err != nil {
		return nil, err
	}
	for i := range caps {
		caps[i].Language = v.lang.Name
		caps[i].Depth = v.depth
	}
	return caps, nil
}

// subtract removes masked ranges from c, splitting it when a mask falls in
// its middle.
func subtract(c query.Capture, masks []text.ByteRange) []query.Capture {
	rest := []query.Capture{c}
	for _, m := range masks {
		if m.Start >= c.Range.End {
			break
		}
		var next []query.Capture
		for _, piece := range rest {
			r := piece.Range
			if m.End <= r.Start || m.Start >= r.End {
				next = append(next, piece)
				continue
			}
			if m.Start > r.Start {
				left := piece
				left.Range = text.ByteRange{Start: r.Start, End: m.Start}
				next = append(next, left)
			}
			if m.End < r.End {
				right := piece
				right.Range = text.ByteRange{Start: m.End, End: r.End}
				next = append(next, right)
			}
		}
		rest = next
	}
	return rest
}

// Snapshot is a frozen copy of the layer trees, safe to query from another
// goroutine while the owner keeps editing.
type Snapshot struct {
	views []view
	src   []byte
}

// Snapshot copies every layer tree. src must not be mutated afterwards; the
// document buffer guarantees this by replacing, not rewriting, its bytes.
func (t *Tree) Snapshot(src []byte) *Snapshot {
	return &Snapshot{views: t.views(true), src: src}
}

// Source returns the bytes the snapshot was taken over.
func (s *Snapshot) Source() []byte { return s.src }

// Captures is Tree.Captures against the snapshot.
func (s *Snapshot) Captures(ctx context.Context, kind language.QueryKind, span query.Span) ([]query.Capture, error) {
	return captures(ctx, s.views, kind, span, s.src)
}

// Release drops the copied trees. Nodes returned in captures keep their tree
// reachable, so the memory goes back once the last capture is dropped.
func (s *Snapshot) Release() {
	s.views = nil
}

// SpanFor builds the query span for r. Point restriction is skipped in
// documents with bare CR delimiters, where the parser's rows drift from the
// index's.
func SpanFor(tr *position.Translator, r text.ByteRange) query.Span {
	span := query.Span{Bytes: r}
	if tr.Lines().HasLoneCR() {
		return span
	}
	start, ok1 := tr.TreePoint(r.Start)
	end, ok2 := tr.TreePoint(min(r.End, tr.Lines().ByteLen()))
	if ok1 && ok2 {
		span.Start, span.End, span.UsePoints = start, end, true
	}
	return span
}
