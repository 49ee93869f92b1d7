// Package treesitter maintains the syntax trees of a document: one root layer
// for the document language and child layers for embedded languages, kept in
// sync with the text through incremental reparses.
package treesitter

import (
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/quill/internal/language"
	"github.com/xonecas/quill/internal/text"
)

// Handle addresses a layer in the arena. A handle goes stale when its layer
// is destroyed, even if the slot is reused. The zero Handle is never valid.
type Handle struct {
	index uint32
	gen   uint32
}

type layer struct {
	gen   uint32
	alive bool

	lang  *language.Language
	tree  *sitter.Tree
	depth int
	// ranges are the included ranges handed to the parser; empty for the
	// root, which covers the whole document.
	ranges []sitter.Range
	cover  text.ByteRange

	parent   Handle
	children []Handle
}

// Tree is the layer arena of one document. It is owned by a single
// goroutine; background readers work on a Snapshot.
type Tree struct {
	layers   []layer
	free     []uint32
	root     Handle
	lang     *language.Language
	provider language.Provider
	log      zerolog.Logger
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Tree) { t.log = l }
}

// New returns a tree for documents in lang. Injected languages are resolved
// through provider, which may be nil.
func New(lang *language.Language, provider language.Provider, opts ...Option) *Tree {
	t := &Tree{lang: lang, provider: provider, log: log.Logger}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Language returns the root language.
func (t *Tree) Language() *language.Language { return t.lang }

// Root returns the root layer handle; it is invalid until the first Parse.
func (t *Tree) Root() Handle { return t.root }

// Valid reports whether h addresses a live layer.
func (t *Tree) Valid(h Handle) bool {
	return h.gen != 0 && int(h.index) < len(t.layers) &&
		t.layers[h.index].alive && t.layers[h.index].gen == h.gen
}

func (t *Tree) get(h Handle) *layer {
	if !t.Valid(h) {
		return nil
	}
	return &t.layers[h.index]
}

func (t *Tree) alloc(l layer) Handle {
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
		l.gen = t.layers[idx].gen + 1
		t.layers[idx] = l
	} else {
		idx = uint32(len(t.layers))
		l.gen = 1
		t.layers = append(t.layers, l)
	}
	t.layers[idx].alive = true
	return Handle{index: idx, gen: t.layers[idx].gen}
}

// destroy frees h and its descendants. The trees are left to the garbage
// collector so snapshots taken earlier stay readable.
func (t *Tree) destroy(h Handle) {
	l := t.get(h)
	if l == nil {
		return
	}
	for _, c := range l.children {
		t.destroy(c)
	}
	gen := l.gen
	t.layers[h.index] = layer{gen: gen}
	t.free = append(t.free, h.index)
}

func (t *Tree) reset() {
	t.layers, t.free, t.root = nil, nil, Handle{}
}

// LayerInfo describes one layer for inspection.
type LayerInfo struct {
	Handle   Handle
	Parent   Handle
	Language string
	Depth    int
	Cover    text.ByteRange
	Ranges   []text.ByteRange
	Children int
}

// Layers lists the live layers depth first, children in document order.
func (t *Tree) Layers() []LayerInfo {
	var out []LayerInfo
	var walk func(h Handle)
	walk = func(h Handle) {
		l := t.get(h)
		if l == nil {
			return
		}
		info := LayerInfo{
			Handle:   h,
			Parent:   l.parent,
			Language: l.lang.Name,
			Depth:    l.depth,
			Cover:    l.cover,
			Children: len(l.children),
		}
		for _, r := range l.ranges {
			info.Ranges = append(info.Ranges, byteRange(r))
		}
		out = append(out, info)
		for _, c := range t.sortedChildren(l) {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

func (t *Tree) sortedChildren(l *layer) []Handle {
	kids := slices.Clone(l.children)
	slices.SortFunc(kids, func(a, b Handle) int {
		return t.layers[a.index].cover.Start - t.layers[b.index].cover.Start
	})
	return kids
}

// LayerAt returns the deepest layer whose included ranges contain b.
func (t *Tree) LayerAt(b int) (Handle, bool) {
	if !t.Valid(t.root) {
		return Handle{}, false
	}
	h := t.root
	for {
		next, ok := t.childAt(h, b)
		if !ok {
			return h, true
		}
		h = next
	}
}

func (t *Tree) childAt(h Handle, b int) (Handle, bool) {
	for _, c := range t.layers[h.index].children {
		for _, r := range t.layers[c.index].ranges {
			if br := byteRange(r); br.Start <= b && b < br.End {
				return c, true
			}
		}
	}
	return Handle{}, false
}

// LayerLanguage returns the language parsed by layer h.
func (t *Tree) LayerLanguage(h Handle) (*language.Language, bool) {
	l := t.get(h)
	if l == nil {
		return nil, false
	}
	return l.lang, true
}

// Info describes a single layer.
func (t *Tree) Info(h Handle) (LayerInfo, bool) {
	for _, info := range t.Layers() {
		if info.Handle == h {
			return info, true
		}
	}
	return LayerInfo{}, false
}

func byteRange(r sitter.Range) text.ByteRange {
	return text.ByteRange{Start: int(r.StartByte), End: int(r.EndByte)}
}

func coverOf(ranges []sitter.Range) text.ByteRange {
	if len(ranges) == 0 {
		return text.ByteRange{}
	}
	return text.ByteRange{Start: int(ranges[0].StartByte), End: int(ranges[len(ranges)-1].EndByte)}
}
