package lineindex

import "github.com/xonecas/quill/internal/text"

// node is one line in the treap. The implicit key is the line's position in
// the document; subtree aggregates give order statistics over lines, UTF-16
// units and bytes.
type node struct {
	id         LineID
	length     int // UTF-16 units, delimiter excluded
	byteLength int // bytes, delimiter excluded
	delim      text.Delimiter
	prio       uint64

	left, right, parent *node

	count  int
	chars  int
	bytes  int
	loneCR int
}

func (n *node) totalChars() int { return n.length + n.delim.Len() }
func (n *node) totalBytes() int { return n.byteLength + n.delim.Len() }

func count(n *node) int {
	if n == nil {
		return 0
	}
	return n.count
}

func chars(n *node) int {
	if n == nil {
		return 0
	}
	return n.chars
}

func bytesOf(n *node) int {
	if n == nil {
		return 0
	}
	return n.bytes
}

func loneCR(n *node) int {
	if n == nil {
		return 0
	}
	return n.loneCR
}

// update recomputes n's aggregates and claims its children.
func (n *node) update() {
	n.count = 1 + count(n.left) + count(n.right)
	n.chars = n.totalChars() + chars(n.left) + chars(n.right)
	n.bytes = n.totalBytes() + bytesOf(n.left) + bytesOf(n.right)
	n.loneCR = loneCR(n.left) + loneCR(n.right)
	if n.delim == text.DelimiterCR {
		n.loneCR++
	}
	if n.left != nil {
		n.left.parent = n
	}
	if n.right != nil {
		n.right.parent = n
	}
}

func detach(n *node) *node {
	if n != nil {
		n.parent = nil
	}
	return n
}

// split returns the first k lines of t and the rest.
func split(t *node, k int) (*node, *node) {
	if t == nil {
		return nil, nil
	}
	if count(t.left) < k {
		a, b := split(t.right, k-count(t.left)-1)
		t.right = a
		t.update()
		return detach(t), detach(b)
	}
	a, b := split(t.left, k)
	t.left = b
	t.update()
	return detach(a), detach(t)
}

// merge concatenates a and b; every line of a precedes every line of b.
func merge(a, b *node) *node {
	if a == nil {
		return detach(b)
	}
	if b == nil {
		return detach(a)
	}
	if a.prio > b.prio {
		a.right = merge(a.right, b)
		a.update()
		return detach(a)
	}
	b.left = merge(a, b.left)
	b.update()
	return detach(b)
}

func first(n *node) *node {
	for n != nil && n.left != nil {
		n = n.left
	}
	return n
}

func successor(n *node) *node {
	if n.right != nil {
		return first(n.right)
	}
	for n.parent != nil && n == n.parent.right {
		n = n.parent
	}
	return n.parent
}

// inorder appends the nodes of t in document order.
func inorder(t *node, out []*node) []*node {
	if t == nil {
		return out
	}
	out = inorder(t.left, out)
	out = append(out, t)
	return inorder(t.right, out)
}
