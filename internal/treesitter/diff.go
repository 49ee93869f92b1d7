package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/quill/internal/text"
)

// changedRanges appends the ranges where cur differs structurally from old.
// old must already carry the edit, so both trees share coordinates, and
// edited is the inserted text in those coordinates. Sibling subtrees with the
// same type and extent that the edit left alone are skipped without
// descending.
func changedRanges(old, cur *sitter.Node, edited text.ByteRange, out []text.ByteRange) []text.ByteRange {
	if old == nil || cur == nil {
		if cur != nil {
			out = append(out, nodeRange(cur))
		}
		if old != nil {
			out = append(out, nodeRange(old))
		}
		return out
	}
	if unchanged(old, cur, edited) {
		return out
	}
	if old.Type() != cur.Type() || old.ChildCount() == 0 || cur.ChildCount() == 0 {
		return append(out, nodeRange(old).Union(nodeRange(cur)))
	}

	oc, cc := int(old.ChildCount()), int(cur.ChildCount())
	i, j := 0, 0
	for i < oc && j < cc {
		o, c := old.Child(i), cur.Child(j)
		switch {
		case unchanged(o, c, edited):
			i++
			j++
		case o.Type() == c.Type() && nodeRange(o).Intersects(nodeRange(c)):
			out = changedRanges(o, c, edited, out)
			i++
			j++
		case o.StartByte() < c.StartByte():
			out = append(out, nodeRange(o))
			i++
		case c.StartByte() < o.StartByte():
			out = append(out, nodeRange(c))
			j++
		default:
			out = append(out, nodeRange(o).Union(nodeRange(c)))
			i++
			j++
		}
	}
	for ; i < oc; i++ {
		out = append(out, nodeRange(old.Child(i)))
	}
	for ; j < cc; j++ {
		out = append(out, nodeRange(cur.Child(j)))
	}
	return out
}

// unchanged reports whether a pair of nodes needs no further comparison.
// HasChanges also marks nodes whose lookahead reached the edit, so a leaf of
// the same extent that lies outside the inserted text still counts as equal.
func unchanged(o, c *sitter.Node, edited text.ByteRange) bool {
	if !sameExtent(o, c) {
		return false
	}
	if !o.HasChanges() {
		return true
	}
	if o.ChildCount() != 0 || c.ChildCount() != 0 {
		return false
	}
	r := nodeRange(c)
	return r.End <= edited.Start || r.Start >= edited.End
}

func sameExtent(a, b *sitter.Node) bool {
	return a.Type() == b.Type() && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() &&
		a.IsMissing() == b.IsMissing()
}

func nodeRange(n *sitter.Node) text.ByteRange {
	return text.ByteRange{Start: int(n.StartByte()), End: int(n.EndByte())}
}
