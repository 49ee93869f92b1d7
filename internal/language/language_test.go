package language

import (
	"errors"
	"testing"

	"github.com/smacker/go-tree-sitter/golang"
)

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	goLang, err := New("Go", golang.GetLanguage(), map[QueryKind][]byte{
		Highlights: []byte(`"func" @keyword`),
	})
	if err != nil {
		t.Fatal(err)
	}
	goLang.Extensions = []string{".go"}
	if err := r.Register(goLang, "golang"); err != nil {
		t.Fatal(err)
	}
	makeLang, _ := New("make", nil, nil)
	makeLang.Filenames = []string{"Makefile"}
	if err := r.Register(makeLang); err != nil {
		t.Fatal(err)
	}

	if err := r.Register(goLang); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate Register error = %v", err)
	}
	for _, name := range []string{"go", "GO", "golang"} {
		if l, ok := r.Language(name); !ok || l != goLang {
			t.Errorf("Language(%q) = %v, %v", name, l, ok)
		}
	}
	if l, ok := r.ForPath("/src/main.GO"); !ok || l != goLang {
		t.Errorf("ForPath(main.GO) = %v, %v", l, ok)
	}
	if l, ok := r.ForPath("build/Makefile"); !ok || l != makeLang {
		t.Errorf("ForPath(Makefile) = %v, %v", l, ok)
	}
	if _, ok := r.ForPath("README"); ok {
		t.Error("ForPath(README) should fail")
	}
	if got := r.Names(); len(got) != 2 || got[0] != "go" || got[1] != "make" {
		t.Errorf("Names() = %v", got)
	}

	if goLang.Query(Highlights) == nil || goLang.Query(Indents) != nil {
		t.Error("only the highlights query should be compiled")
	}
	if makeLang.HasGrammar() {
		t.Error("lexer-only language reports a grammar")
	}
}

func TestNewReportsQueryErrors(t *testing.T) {
	_, err := New("go", golang.GetLanguage(), map[QueryKind][]byte{Indents: []byte("(bogus_node) @indent.begin")})
	if err == nil {
		t.Fatal("expected a compile error")
	}
}
