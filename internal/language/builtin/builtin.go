// Package builtin registers the languages shipped with the editor.
package builtin

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/xonecas/quill/internal/language"
)

//go:embed languages.toml queries
var files embed.FS

var grammars = map[string]func() *sitter.Language{
	"go":         golang.GetLanguage,
	"javascript": javascript.GetLanguage,
	"css":        css.GetLanguage,
	"html":       html.GetLanguage,
}

type manifest struct {
	Languages []entry `toml:"language"`
}

type entry struct {
	Name       string   `toml:"name"`
	Grammar    string   `toml:"grammar"`
	Lexer      string   `toml:"lexer"`
	Extensions []string `toml:"extensions"`
	Filenames  []string `toml:"filenames"`
	Aliases    []string `toml:"aliases"`
	Highlights string   `toml:"highlights"`
	Injections string   `toml:"injections"`
	Indents    string   `toml:"indents"`
}

var (
	once     sync.Once
	registry *language.Registry
	loadErr  error
)

// Registry returns the shared registry of built-in languages. Queries are
// compiled on the first call.
func Registry() (*language.Registry, error) {
	once.Do(func() {
		registry, loadErr = load()
	})
	return registry, loadErr
}

// MustRegistry is Registry for callers that treat a broken embedded manifest
// as fatal.
func MustRegistry() *language.Registry {
	r, err := Registry()
	if err != nil {
		panic(err)
	}
	return r
}

func load() (*language.Registry, error) {
	raw, err := files.ReadFile("languages.toml")
	if err != nil {
		return nil, fmt.Errorf("builtin: read manifest: %w", err)
	}
	var m manifest
	if _, err := toml.Decode(string(raw), &m); err != nil {
		return nil, fmt.Errorf("builtin: decode manifest: %w", err)
	}

	reg := language.NewRegistry()
	for _, e := range m.Languages {
		l, err := build(e)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(l, e.Aliases...); err != nil {
			return nil, fmt.Errorf("builtin: %w", err)
		}
	}
	return reg, nil
}

func build(e entry) (*language.Language, error) {
	var grammar *sitter.Language
	if e.Grammar != "" {
		get, ok := grammars[e.Grammar]
		if !ok {
			return nil, fmt.Errorf("builtin: %s: unknown grammar %q", e.Name, e.Grammar)
		}
		grammar = get()
	}

	sources := make(map[language.QueryKind][]byte)
	for kind, path := range map[language.QueryKind]string{
		language.Highlights: e.Highlights,
		language.Injections: e.Injections,
		language.Indents:    e.Indents,
	} {
		if path == "" {
			continue
		}
		src, err := files.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("builtin: %s: %w", e.Name, err)
		}
		sources[kind] = src
	}

	l, err := language.New(e.Name, grammar, sources)
	if err != nil {
		return nil, fmt.Errorf("builtin: %w", err)
	}
	l.Lexer = e.Lexer
	l.Filenames = e.Filenames
	for _, ext := range e.Extensions {
		l.Extensions = append(l.Extensions, strings.ToLower(ext))
	}
	return l, nil
}
