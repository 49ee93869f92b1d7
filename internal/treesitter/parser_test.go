package treesitter

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/quill/internal/edit"
	"github.com/xonecas/quill/internal/language"
	"github.com/xonecas/quill/internal/language/builtin"
	"github.com/xonecas/quill/internal/lineindex"
	"github.com/xonecas/quill/internal/position"
	"github.com/xonecas/quill/internal/query"
	"github.com/xonecas/quill/internal/text"
)

// fixture mirrors the document's edit pipeline without the facade.
type fixture struct {
	t     *testing.T
	buf   *text.Buffer
	lines *lineindex.Index
	tree  *Tree
	p     *Parser
}

func newFixture(t *testing.T, langName, src string, provider language.Provider) *fixture {
	t.Helper()
	reg := builtin.MustRegistry()
	lang, ok := reg.Language(langName)
	if !ok {
		t.Fatalf("no language %q", langName)
	}
	f := &fixture{
		t:     t,
		buf:   text.NewBuffer(src),
		lines: lineindex.New(src),
		tree:  New(lang, provider),
		p:     NewParser(),
	}
	t.Cleanup(f.p.Close)
	if err := f.tree.Parse(context.Background(), f.p, f.buf.All()); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

func (f *fixture) replace(from, to int, repl string) lineindex.ChangeSet {
	f.t.Helper()
	tr := position.New(f.lines, f.buf)
	d := edit.Describe(tr, text.CharRange{Start: from, End: to}, repl)
	d.Lines = f.lines.Replace(d.Chars, d.OldByteRange(), repl, f.buf)
	f.buf.Replace(d.OldByteRange(), repl)
	changes, err := f.tree.Apply(context.Background(), f.p, f.buf.All(), f.lines, d)
	if err != nil {
		f.t.Fatalf("Apply: %v", err)
	}
	changes.Union(d.Lines)
	return changes
}

func (f *fixture) sexp() string {
	return f.tree.get(f.tree.root).tree.RootNode().String()
}

func (f *fixture) freshSexp() string {
	f.t.Helper()
	fresh := New(f.tree.lang, nil)
	p := NewParser()
	defer p.Close()
	if err := fresh.Parse(context.Background(), p, f.buf.All()); err != nil {
		f.t.Fatal(err)
	}
	return fresh.get(fresh.root).tree.RootNode().String()
}

// fresh parses the current text from scratch with the fixture's provider.
func (f *fixture) fresh() *Tree {
	f.t.Helper()
	fresh := New(f.tree.lang, f.tree.provider)
	p := NewParser()
	f.t.Cleanup(p.Close)
	if err := fresh.Parse(context.Background(), p, f.buf.All()); err != nil {
		f.t.Fatal(err)
	}
	return fresh
}

// shape renders every node of a layer with its type and points.
func shape(n *sitter.Node) string {
	var b strings.Builder
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		fmt.Fprintf(&b, "%s@%v-%v ", n.Type(), n.StartPoint(), n.EndPoint())
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(n)
	return b.String()
}

// lineCaptures runs the highlight query over one row the way a renderer
// does, with a point span.
func lineCaptures(t *testing.T, tree *Tree, f *fixture, row int) []string {
	t.Helper()
	l, ok := f.lines.LineAtRow(row)
	if !ok {
		t.Fatalf("no row %d", row)
	}
	tr := position.New(f.lines, f.buf)
	caps, err := tree.Captures(context.Background(), language.Highlights,
		SpanFor(tr, text.ByteRange{Start: l.StartByte, End: l.EndByte()}), f.buf.All())
	if err != nil {
		t.Fatal(err)
	}
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		out = append(out, fmt.Sprintf("%s:%v:%v", c.Language, c.Category, c.Range))
	}
	return out
}

// sameAsFresh compares every layer of f with a parse from scratch.
func sameAsFresh(t *testing.T, f *fixture) {
	t.Helper()
	fresh := f.fresh()
	got, want := f.tree.Layers(), fresh.Layers()
	if len(got) != len(want) {
		t.Fatalf("layers = %d, want %d in %q", len(got), len(want), f.buf.String())
	}
	for i := range got {
		if got[i].Language != want[i].Language || got[i].Cover != want[i].Cover {
			t.Fatalf("layer %d = %s %v, want %s %v", i, got[i].Language, got[i].Cover, want[i].Language, want[i].Cover)
		}
		g := shape(f.tree.get(got[i].Handle).tree.RootNode())
		w := shape(fresh.get(want[i].Handle).tree.RootNode())
		if g != w {
			t.Fatalf("layer %d (%s) in %q\n%s\nwant\n%s", i, got[i].Language, f.buf.String(), g, w)
		}
	}
	for row := 0; row < f.lines.LineCount(); row++ {
		if g, w := lineCaptures(t, f.tree, f, row), lineCaptures(t, fresh, f, row); strings.Join(g, " ") != strings.Join(w, " ") {
			t.Fatalf("row %d captures = %v, want %v", row, g, w)
		}
	}
}

func (f *fixture) rows(changes lineindex.ChangeSet) []int {
	var rows []int
	for _, l := range f.lines.All() {
		if changes.Contains(l.ID) {
			rows = append(rows, l.Row)
		}
	}
	return rows
}

func TestIncrementalMatchesFullParse(t *testing.T) {
	src := "package main\n\nfunc main() {\n\tx := 1\n\t_ = x\n}\n"
	f := newFixture(t, "go", src, nil)
	edits := []struct {
		from, to int
		repl     string
	}{
		{29, 30, "answer"},
		{27, 27, "\n\ty := \"s\"\n"},
		{0, 0, "// header\n"},
		{29, 33, "run"},
	}
	for i, e := range edits {
		f.replace(e.from, e.to, e.repl)
		if got, want := f.sexp(), f.freshSexp(); got != want {
			t.Fatalf("edit %d: incremental tree\n%s\nwant\n%s", i, got, want)
		}
	}
}

func TestApplyReportsEditedLine(t *testing.T) {
	src := "package main\n\nvar a = 1\nvar b = 2\nvar c = 3\n"
	f := newFixture(t, "go", src, nil)
	// Rename b, a change with no structural effect elsewhere.
	changes := f.replace(28, 29, "bb")
	rows := f.rows(changes)
	if len(rows) != 1 || rows[0] != 3 {
		t.Errorf("changed rows = %v, want [3]", rows)
	}
}

func TestApplyLeavesLinesBeforeTheEdit(t *testing.T) {
	src := "package main\n\nvar a = 1\nvar b = 2\n"
	f := newFixture(t, "go", src, nil)
	changes := f.replace(14, 14, "\n")
	for _, row := range f.rows(changes) {
		if row < 2 {
			t.Errorf("row %d reported, changed rows = %v", row, f.rows(changes))
		}
	}
	if !changes.Contains(f.lines.All()[2].ID) {
		t.Errorf("inserted row not reported: %v", f.rows(changes))
	}
}

func TestApplyReportsRangesBeyondTheEdit(t *testing.T) {
	src := "package main\n\nvar a = 1\nvar b = 2\nvar c = 3 // */\n"
	f := newFixture(t, "go", src, nil)
	// Opening a block comment turns three declarations into one comment.
	changes := f.replace(14, 14, "/*")
	rows := f.rows(changes)
	if len(rows) < 3 || rows[0] != 2 || rows[len(rows)-1] < 4 {
		t.Errorf("changed rows = %v, want rows 2 through 4 at least", rows)
	}
}

const page = "<html>\n<script>\nvar x = 1;\n</script>\n<style>\np { color: red; }\n</style>\n</html>\n"

func TestInjectedLayers(t *testing.T) {
	f := newFixture(t, "html", page, builtin.MustRegistry())
	layers := f.tree.Layers()
	if len(layers) != 3 {
		t.Fatalf("layers = %+v", layers)
	}
	if layers[0].Language != "html" || layers[1].Language != "javascript" || layers[2].Language != "css" {
		t.Errorf("languages = %s %s %s", layers[0].Language, layers[1].Language, layers[2].Language)
	}
	script := strings.Index(page, "var x")
	if h, ok := f.tree.LayerAt(script); !ok || h != layers[1].Handle {
		t.Errorf("LayerAt(script) = %v", h)
	}
	if n, ok := f.tree.SyntaxNode(script); !ok || n.Language != "javascript" || n.Type != "var" {
		t.Errorf("SyntaxNode(script) = %+v", n)
	}
}

func TestChildCapturesTakePrecedence(t *testing.T) {
	f := newFixture(t, "html", page, builtin.MustRegistry())
	layers := f.tree.Layers()
	jsRange := layers[1].Cover

	all := text.ByteRange{Start: 0, End: len(page)}
	caps, err := f.tree.Captures(context.Background(), language.Highlights, query.Span{Bytes: all}, f.buf.All())
	if err != nil {
		t.Fatal(err)
	}
	var sawJS, sawCSS bool
	for i, c := range caps {
		inside := c.Range.Start >= jsRange.Start && c.Range.End <= jsRange.End
		if inside && c.Language != "javascript" {
			t.Errorf("host capture %+v inside the script", c)
		}
		sawJS = sawJS || c.Language == "javascript"
		sawCSS = sawCSS || c.Language == "css"
		if i > 0 && query.Compare(caps[i-1], c) > 0 {
			t.Errorf("captures out of order at %d", i)
		}
	}
	if !sawJS || !sawCSS {
		t.Errorf("missing injected captures: js=%v css=%v", sawJS, sawCSS)
	}
}

func TestEditingInjectionReusesLayer(t *testing.T) {
	f := newFixture(t, "html", page, builtin.MustRegistry())
	js := f.tree.Layers()[1].Handle

	at := text.UTF16Len(page[:strings.Index(page, "1;")])
	f.replace(at, at+1, "42")
	if !f.tree.Valid(js) {
		t.Fatal("editing inside the script should keep its layer")
	}
	if n, ok := f.tree.SyntaxNode(strings.Index(f.buf.String(), "42")); !ok || n.Type != "number" {
		t.Errorf("SyntaxNode(42) = %+v", n)
	}

	start := strings.Index(f.buf.String(), "<script>")
	end := strings.Index(f.buf.String(), "</script>\n") + len("</script>\n")
	f.replace(start, end, "")
	if f.tree.Valid(js) {
		t.Error("removing the script should destroy its layer")
	}
	if got := len(f.tree.Layers()); got != 2 {
		t.Errorf("layers after removal = %d, want 2", got)
	}
}

type noGrammars struct{}

func (noGrammars) Language(string) (*language.Language, bool) { return nil, false }

func TestMissingInjectedGrammarIsSkipped(t *testing.T) {
	f := newFixture(t, "html", page, noGrammars{})
	if got := len(f.tree.Layers()); got != 1 {
		t.Fatalf("layers = %d, want only the host", got)
	}
	caps, err := f.tree.Captures(context.Background(), language.Highlights,
		query.Span{Bytes: text.ByteRange{Start: 0, End: len(page)}}, f.buf.All())
	if err != nil || len(caps) == 0 {
		t.Fatalf("host captures = %d, %v", len(caps), err)
	}
}

func TestSnapshotSurvivesEdits(t *testing.T) {
	f := newFixture(t, "go", "package main\n\nfunc f() {}\n", nil)
	snap := f.tree.Snapshot(f.buf.All())
	f.replace(0, 0, "// x\n")

	caps, err := snap.Captures(context.Background(), language.Highlights,
		query.Span{Bytes: text.ByteRange{Start: 0, End: len(snap.Source())}})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range caps {
		if c.Category == query.CategoryComment {
			t.Errorf("snapshot sees a comment added after it was taken")
		}
	}
	snap.Release()
}

func TestHighestSyntaxNode(t *testing.T) {
	src := "package main\n\nfunc f() { g() }\n"
	f := newFixture(t, "go", src, nil)
	at := strings.Index(src, "g()")
	n, ok := f.tree.SyntaxNode(at)
	if !ok || n.Type != "identifier" {
		t.Fatalf("SyntaxNode = %+v", n)
	}
	h, ok := f.tree.HighestSyntaxNode(at)
	if !ok || h.Range.Start != at || h.Range.Len() <= n.Range.Len() {
		t.Errorf("HighestSyntaxNode = %+v", h)
	}
}

func TestOutline(t *testing.T) {
	src := []byte(`package main

import "fmt"

const Version = "1.0"

type Server struct {
	addr string
}

func main() {
	fmt.Println("hello")
}

func (s *Server) Start() error {
	return nil
}
`)
	f := newFixture(t, "go", string(src), nil)
	syms := f.tree.Outline(f.buf.All())
	type key struct {
		name string
		kind SymbolKind
	}
	got := make(map[key]Symbol)
	for _, s := range syms {
		got[key{s.Name, s.Kind}] = s
	}
	for _, k := range []key{{"main", KindPackage}, {"Version", KindConst}, {"Server", KindStruct}, {"main", KindFunction}} {
		if _, ok := got[k]; !ok {
			t.Errorf("missing %v %q", k.kind, k.name)
		}
	}
	if m := got[key{"Start", KindMethod}]; m.Receiver != "*Server" || m.Signature != "func (s *Server) Start() error" {
		t.Errorf("method = %+v", m)
	}
	if s := got[key{"Server", KindStruct}]; len(s.Children) != 1 || s.Children[0].Name != "addr" {
		t.Errorf("struct fields = %+v", s.Children)
	}
}

func TestEditAboveInjectionKeepsLineCaptures(t *testing.T) {
	src := "<p>a</p>\n<script>\nvar x = 1;\n</script>\n"
	f := newFixture(t, "html", src, builtin.MustRegistry())
	f.replace(8, 9, "")

	row := 1
	if l, _ := f.lines.LineAtRow(row); string(f.buf.Bytes(l.ContentByteRange())) != "var x = 1;" {
		t.Fatalf("row %d = %q", row, f.buf.Bytes(l.ContentByteRange()))
	}
	var js int
	for _, c := range lineCaptures(t, f.tree, f, row) {
		if strings.HasPrefix(c, "javascript:") {
			js++
		}
	}
	if js == 0 {
		t.Errorf("no javascript captures on row %d", row)
	}
	sameAsFresh(t, f)
}

func TestRandomEditsMatchFreshParse(t *testing.T) {
	src := "<html>\n<p>a</p>\n<script>\nvar x = 1;\nfunction f() {\n  return x;\n}\n</script>\n" +
		"<style>\np { color: red; }\n</style>\n</html>\n"
	f := newFixture(t, "html", src, builtin.MustRegistry())
	rng := rand.New(rand.NewPCG(3, 4))
	inserts := []string{"\n", "\n\n", "  "}
	for i := 0; i < 60; i++ {
		lines := f.lines.All()
		l := lines[rng.IntN(len(lines))]
		if l.Length == 0 && l.Delimiter != text.DelimiterNone && rng.IntN(2) == 0 {
			// Drop a blank line.
			f.replace(l.Start, l.Start+1, "")
		} else {
			f.replace(l.Start, l.Start, inserts[rng.IntN(len(inserts))])
		}
		sameAsFresh(t, f)
	}
}
