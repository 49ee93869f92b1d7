// Package language holds grammar definitions and the registry that resolves
// them by name or path.
package language

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/quill/internal/query"
)

// QueryKind names the queries a language may carry.
type QueryKind uint8

const (
	Highlights QueryKind = iota
	Injections
	Indents
)

func (k QueryKind) String() string {
	switch k {
	case Highlights:
		return "highlights"
	case Injections:
		return "injections"
	case Indents:
		return "indents"
	}
	return fmt.Sprintf("QueryKind(%d)", k)
}

// ErrDuplicate is returned when a language name is registered twice.
var ErrDuplicate = errors.New("language: already registered")

// Language is a grammar plus its compiled queries. It is immutable once
// built and shared by every document using it.
type Language struct {
	Name    string
	Grammar *sitter.Language
	// Lexer is the chroma lexer used when no grammar is available or for
	// terminal colors.
	Lexer      string
	Extensions []string
	Filenames  []string

	queries map[QueryKind]*query.Query
}

// New compiles the given query sources for grammar. A nil grammar builds a
// lexer-only language.
func New(name string, grammar *sitter.Language, sources map[QueryKind][]byte) (*Language, error) {
	l := &Language{Name: name, Grammar: grammar, queries: make(map[QueryKind]*query.Query)}
	if grammar == nil {
		return l, nil
	}
	for kind, src := range sources {
		if len(src) == 0 {
			continue
		}
		q, err := query.Compile(grammar, src)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", name, kind, err)
		}
		l.queries[kind] = q
	}
	return l, nil
}

// Query returns the compiled query of the given kind, or nil.
func (l *Language) Query(kind QueryKind) *query.Query {
	if l == nil {
		return nil
	}
	return l.queries[kind]
}

// HasGrammar reports whether l can build syntax trees.
func (l *Language) HasGrammar() bool { return l != nil && l.Grammar != nil }

// Provider resolves injected language names.
type Provider interface {
	Language(name string) (*Language, bool)
}

// Registry is a concurrency-safe Provider.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*Language
	aliases map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Language), aliases: make(map[string]string)}
}

// Register adds l under its name and the given aliases.
func (r *Registry) Register(l *Language, aliases ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(l.Name)
	if _, ok := r.byName[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, l.Name)
	}
	r.byName[key] = l
	for _, a := range aliases {
		r.aliases[strings.ToLower(a)] = key
	}
	return nil
}

// Language looks a language up by name or alias, case-insensitively.
func (r *Registry) Language(name string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := strings.ToLower(name)
	if alias, ok := r.aliases[key]; ok {
		key = alias
	}
	l, ok := r.byName[key]
	return l, ok
}

// ForPath picks a language by file name first, then by extension.
func (r *Registry) ForPath(path string) (*Language, bool) {
	base := strings.ToLower(filepath.Base(path))
	ext := strings.ToLower(filepath.Ext(path))
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := r.sortedNames()
	for _, name := range names {
		for _, f := range r.byName[name].Filenames {
			if strings.ToLower(f) == base {
				return r.byName[name], true
			}
		}
	}
	if ext == "" {
		return nil, false
	}
	for _, name := range names {
		if slices.Contains(r.byName[name].Extensions, ext) {
			return r.byName[name], true
		}
	}
	return nil, false
}

// Names lists the registered languages in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
