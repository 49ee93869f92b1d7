package builtin

import (
	"testing"

	"github.com/xonecas/quill/internal/language"
)

func TestRegistryCompilesEveryQuery(t *testing.T) {
	reg, err := Registry()
	if err != nil {
		t.Fatalf("Registry() error: %v", err)
	}
	cases := []struct {
		name  string
		kinds []language.QueryKind
	}{
		{"go", []language.QueryKind{language.Highlights, language.Indents}},
		{"javascript", []language.QueryKind{language.Highlights, language.Indents}},
		{"css", []language.QueryKind{language.Highlights, language.Indents}},
		{"html", []language.QueryKind{language.Highlights, language.Injections, language.Indents}},
	}
	for _, tc := range cases {
		l, ok := reg.Language(tc.name)
		if !ok || !l.HasGrammar() {
			t.Fatalf("%s: not registered with a grammar", tc.name)
		}
		for _, k := range tc.kinds {
			if l.Query(k) == nil {
				t.Errorf("%s: missing %s query", tc.name, k)
			}
		}
	}
}

func TestRegistryPaths(t *testing.T) {
	reg := MustRegistry()
	cases := map[string]string{
		"main.go":     "go",
		"app.mjs":     "javascript",
		"index.HTML":  "html",
		"setup.py":    "python",
		"Dockerfile":  "docker",
		"config.toml": "toml",
	}
	for path, want := range cases {
		l, ok := reg.ForPath(path)
		if !ok || l.Name != want {
			t.Errorf("ForPath(%q) = %v, %v, want %s", path, l, ok, want)
		}
	}
	if l, ok := reg.Language("js"); !ok || l.Name != "javascript" {
		t.Errorf("alias js = %v, %v", l, ok)
	}
	if l, _ := reg.Language("python"); l.HasGrammar() || l.Lexer != "python" {
		t.Errorf("python should be lexer-only, got %+v", l)
	}
}
