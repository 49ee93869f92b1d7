package treesitter

import (
	"context"
	"fmt"
	"math"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/quill/internal/edit"
	"github.com/xonecas/quill/internal/language"
	"github.com/xonecas/quill/internal/lineindex"
	"github.com/xonecas/quill/internal/query"
	"github.com/xonecas/quill/internal/text"
)

// Parser wraps a tree-sitter parser. It is not safe for concurrent use; a
// document owns one and passes it to Parse and Apply.
type Parser struct {
	p *sitter.Parser
}

// NewParser allocates a parser.
func NewParser() *Parser { return &Parser{p: sitter.NewParser()} }

// Close releases the parser.
func (p *Parser) Close() { p.p.Close() }

var wholeDocument = []sitter.Range{{
	EndPoint: sitter.Point{Row: math.MaxUint32, Column: math.MaxUint32},
	EndByte:  math.MaxUint32,
}}

func (p *Parser) parse(ctx context.Context, lang *language.Language, ranges []sitter.Range, old *sitter.Tree, src []byte) (*sitter.Tree, error) {
	p.p.SetLanguage(lang.Grammar)
	if len(ranges) == 0 {
		ranges = wholeDocument
	}
	p.p.SetIncludedRanges(ranges)
	tree, err := p.p.ParseCtx(ctx, old, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", lang.Name, err)
	}
	return tree, nil
}

// Parse discards every layer and parses src from scratch.
func (t *Tree) Parse(ctx context.Context, p *Parser, src []byte) error {
	t.reset()
	if !t.lang.HasGrammar() {
		return nil
	}
	tree, err := p.parse(ctx, t.lang, nil, nil, src)
	if err != nil {
		return err
	}
	t.root = t.alloc(layer{
		lang:  t.lang,
		tree:  tree,
		cover: text.ByteRange{Start: 0, End: len(src)},
	})
	return t.discover(ctx, p, t.root, src, nil, nil)
}

// Apply brings every layer up to date with an edit already applied to src
// and lines. It returns the lines whose syntax changed; the edit's own line
// changes stay in d.Lines.
func (t *Tree) Apply(ctx context.Context, p *Parser, src []byte, lines *lineindex.Index, d edit.Descriptor) (lineindex.ChangeSet, error) {
	var changes lineindex.ChangeSet
	root := t.get(t.root)
	if root == nil || d.IsNoop() {
		return changes, nil
	}

	te := d.TreeEdit()
	for i := range t.layers {
		l := &t.layers[i]
		if !l.alive {
			continue
		}
		l.tree.Edit(te)
		l.cover = shiftRange(l.cover, d)
		for j, r := range l.ranges {
			// Points are refreshed when the parent rediscovers the layer.
			br := shiftRange(byteRange(r), d)
			l.ranges[j].StartByte, l.ranges[j].EndByte = uint32(br.Start), uint32(br.End)
		}
	}
	root.cover = text.ByteRange{Start: 0, End: len(src)}

	old := root.tree
	tree, err := p.parse(ctx, root.lang, nil, old, src)
	if err != nil {
		return changes, err
	}
	root.tree = tree
	changed := changedRanges(old.RootNode(), tree.RootNode(), d.NewByteRange(), nil)
	changed = append(changed, d.NewByteRange())

	if err := t.discover(ctx, p, t.root, src, &d, &changed); err != nil {
		return changes, err
	}

	for _, r := range text.MergeRanges(changed) {
		r = clampRange(r, len(src))
		for _, line := range lines.LinesInByteRange(r) {
			changes.MarkEdited(line.ID)
		}
	}
	t.log.Debug().
		Int("layers", len(t.Layers())).
		Int("ranges", len(changed)).
		Int("lines", changes.Len()).
		Msg("syntax tree updated")
	return changes, nil
}

type injection struct {
	lang   *language.Language
	ranges []sitter.Range
	cover  text.ByteRange
}

// discover reconciles the children of h with the injections found in its
// tree. Reused children are reparsed incrementally when the edit touched
// them and in full when only their ranges moved; new ones are parsed in full
// and stale ones are destroyed. With no edit (a full parse) every child is new.
func (t *Tree) discover(ctx context.Context, p *Parser, h Handle, src []byte, d *edit.Descriptor, changed *[]text.ByteRange) error {
	found, err := t.injections(ctx, h, src)
	if err != nil {
		return err
	}

	existing := t.get(h).children
	used := make([]bool, len(existing))
	var kids []Handle
	for _, inj := range found {
		match := -1
		for i, c := range existing {
			cl := t.get(c)
			if used[i] || cl == nil || cl.lang != inj.lang {
				continue
			}
			if cl.cover.Intersects(inj.cover) || cl.cover == inj.cover {
				match = i
				break
			}
		}

		if match < 0 {
			c, err := t.create(ctx, p, h, inj, src)
			if err != nil {
				return err
			}
			kids = append(kids, c)
			if changed != nil {
				*changed = append(*changed, inj.cover)
			}
			if err := t.discover(ctx, p, c, src, nil, nil); err != nil {
				return err
			}
			continue
		}

		used[match] = true
		c := existing[match]
		cl := t.get(c)
		touched := d == nil || touches(cl.cover, *d)
		moved := !sameRanges(cl.ranges, inj.ranges)
		cl.ranges, cl.cover = inj.ranges, inj.cover
		kids = append(kids, c)
		if !touched && !moved {
			continue
		}
		old := cl.tree
		// Reused nodes keep the rows they were parsed at, so a layer that only
		// moved is parsed again from scratch.
		reuse := old
		if !touched {
			reuse = nil
		}
		tree, err := p.parse(ctx, cl.lang, cl.ranges, reuse, src)
		if err != nil {
			return err
		}
		cl.tree = tree
		if changed != nil {
			*changed = changedRanges(old.RootNode(), tree.RootNode(), d.NewByteRange(), *changed)
		}
		if err := t.discover(ctx, p, c, src, d, changed); err != nil {
			return err
		}
	}

	for i, c := range existing {
		if used[i] {
			continue
		}
		if cl := t.get(c); cl != nil && changed != nil {
			*changed = append(*changed, cl.cover)
		}
		t.destroy(c)
	}
	t.get(h).children = kids
	return nil
}

func (t *Tree) create(ctx context.Context, p *Parser, parent Handle, inj injection, src []byte) (Handle, error) {
	tree, err := p.parse(ctx, inj.lang, inj.ranges, nil, src)
	if err != nil {
		return Handle{}, err
	}
	depth := t.get(parent).depth + 1
	return t.alloc(layer{
		lang:   inj.lang,
		tree:   tree,
		depth:  depth,
		ranges: inj.ranges,
		cover:  inj.cover,
		parent: parent,
	}), nil
}

// injections runs the layer's injection query. A capture named
// injection.<lang> injects its node directly; injection.language and
// injection.content captures in the same match name the language by the
// text of the first node.
func (t *Tree) injections(ctx context.Context, h Handle, src []byte) ([]injection, error) {
	l := t.get(h)
	q := l.lang.Query(language.Injections)
	if q == nil || t.provider == nil {
		return nil, nil
	}
	caps, err := query.Run(ctx, q, l.tree.RootNode(), src, query.Span{Bytes: text.ByteRange{Start: 0, End: len(src) + 1}})
	if err != nil {
		return nil, err
	}

	type pending struct {
		name    string
		content []*sitter.Node
	}
	byMatch := make(map[int]*pending)
	var order []int
	for _, c := range caps {
		if c.Category != query.CategoryInjection {
			continue
		}
		pm, ok := byMatch[c.Match]
		if !ok {
			pm = &pending{}
			byMatch[c.Match] = pm
			order = append(order, c.Match)
		}
		switch suffix := strings.TrimPrefix(c.Name, "injection."); suffix {
		case "language":
			pm.name = strings.TrimSpace(c.Node.Content(src))
		case "content":
			pm.content = append(pm.content, c.Node)
		default:
			pm.name = suffix
			pm.content = append(pm.content, c.Node)
		}
	}

	var out []injection
	for _, m := range order {
		pm := byMatch[m]
		if pm.name == "" || len(pm.content) == 0 {
			continue
		}
		lang, ok := t.provider.Language(pm.name)
		if !ok || !lang.HasGrammar() {
			t.log.Debug().Str("language", pm.name).Str("host", l.lang.Name).Msg("no grammar for injection, skipping")
			continue
		}
		var ranges []sitter.Range
		for _, n := range pm.content {
			if n.EndByte() <= n.StartByte() {
				continue
			}
			ranges = append(ranges, sitter.Range{
				StartPoint: n.StartPoint(),
				EndPoint:   n.EndPoint(),
				StartByte:  n.StartByte(),
				EndByte:    n.EndByte(),
			})
		}
		if len(ranges) == 0 {
			continue
		}
		out = append(out, injection{lang: lang, ranges: ranges, cover: coverOf(ranges)})
	}
	return out, nil
}

// touches reports whether the edit's new range meets cover, boundaries
// included so typing at either end of an injection counts.
func touches(cover text.ByteRange, d edit.Descriptor) bool {
	return d.StartByte <= cover.End && d.NewEndByte >= cover.Start
}

// sameRanges compares included ranges by bytes and by points.
func sameRanges(prev, next []sitter.Range) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if byteRange(prev[i]) != byteRange(next[i]) ||
			prev[i].StartPoint != next[i].StartPoint || prev[i].EndPoint != next[i].EndPoint {
			return false
		}
	}
	return true
}

// shiftRange maps a pre-edit range into post-edit bytes. Ends inside the
// replaced text snap outward to the replacement's bounds.
func shiftRange(r text.ByteRange, d edit.Descriptor) text.ByteRange {
	start := r.Start
	switch {
	case start >= d.OldEndByte:
		start += d.Delta()
	case start > d.StartByte:
		start = d.StartByte
	}
	return text.ByteRange{Start: start, End: max(start, d.ShiftByte(r.End))}
}

func clampRange(r text.ByteRange, n int) text.ByteRange {
	r.Start = min(max(r.Start, 0), n)
	r.End = min(max(r.End, r.Start), n)
	return r
}
