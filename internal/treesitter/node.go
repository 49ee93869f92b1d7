package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/quill/internal/text"
)

// Node is a syntax node resolved in a specific layer.
type Node struct {
	Type     string
	Range    text.ByteRange
	Named    bool
	Missing  bool
	Language string
	Layer    Handle
	Raw      *sitter.Node
}

// SyntaxNode returns the smallest node containing b in the deepest layer
// covering b.
func (t *Tree) SyntaxNode(b int) (Node, bool) {
	h, n, ok := t.leafAt(b)
	if !ok {
		return Node{}, false
	}
	return t.wrap(h, n), true
}

// HighestSyntaxNode returns the largest ancestor of SyntaxNode(b) that still
// starts at the same byte, stopping below the layer's root node.
func (t *Tree) HighestSyntaxNode(b int) (Node, bool) {
	h, n, ok := t.leafAt(b)
	if !ok {
		return Node{}, false
	}
	for p := n.Parent(); p != nil && p.Parent() != nil && p.StartByte() == n.StartByte(); p = n.Parent() {
		n = p
	}
	return t.wrap(h, n), true
}

func (t *Tree) leafAt(b int) (Handle, *sitter.Node, bool) {
	h, ok := t.LayerAt(b)
	if !ok {
		return Handle{}, nil, false
	}
	root := t.get(h).tree.RootNode()
	if b < int(root.StartByte()) || b > int(root.EndByte()) {
		return h, root, true
	}
	return h, descend(root, b), true
}

// descend walks to the deepest node whose range holds b.
func descend(n *sitter.Node, b int) *sitter.Node {
	for {
		var next *sitter.Node
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			c := n.Child(i)
			start, end := int(c.StartByte()), int(c.EndByte())
			if start <= b && b < end {
				next = c
				break
			}
			if start > b {
				break
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
}

func (t *Tree) wrap(h Handle, n *sitter.Node) Node {
	return Node{
		Type:     n.Type(),
		Range:    nodeRange(n),
		Named:    n.IsNamed(),
		Missing:  n.IsMissing(),
		Language: t.get(h).lang.Name,
		Layer:    h,
		Raw:      n,
	}
}
