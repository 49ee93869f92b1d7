// Package document ties the text buffer, the line index and the syntax
// layers together behind one edit entry point. A Document is owned by a
// single goroutine; background work reads snapshots.
package document

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/quill/internal/edit"
	"github.com/xonecas/quill/internal/highlight"
	"github.com/xonecas/quill/internal/indent"
	"github.com/xonecas/quill/internal/language"
	"github.com/xonecas/quill/internal/lineindex"
	"github.com/xonecas/quill/internal/position"
	"github.com/xonecas/quill/internal/query"
	"github.com/xonecas/quill/internal/text"
	"github.com/xonecas/quill/internal/treesitter"
)

// Document is an editable text with incremental syntax layers.
type Document struct {
	id       uuid.UUID
	buf      *text.Buffer
	lines    *lineindex.Index
	lang     *language.Language
	provider language.Provider
	// tree is nil unless lang has a grammar.
	tree   *treesitter.Tree
	parser *treesitter.Parser

	log      zerolog.Logger
	tabWidth int
	detect   indent.DetectOptions
}

// Option configures a Document.
type Option func(*Document)

// WithLanguage sets the document language.
func WithLanguage(l *language.Language) Option {
	return func(d *Document) { d.lang = l }
}

// WithProvider resolves injected languages. Without one, injections are
// skipped.
func WithProvider(p language.Provider) Option {
	return func(d *Document) { d.provider = p }
}

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Document) { d.log = l }
}

// WithTabWidth sets the display width of a tab.
func WithTabWidth(n int) Option {
	return func(d *Document) { d.tabWidth = n }
}

// WithDetectOptions bounds indent detection.
func WithDetectOptions(o indent.DetectOptions) Option {
	return func(d *Document) { d.detect = o }
}

// New builds a document holding s and parses it when the language has a
// grammar. The error is the parse's; the document is usable either way.
func New(s string, opts ...Option) (*Document, error) {
	d := &Document{
		id:       uuid.New(),
		buf:      text.NewBuffer(s),
		lines:    lineindex.New(s),
		log:      log.Logger,
		tabWidth: 4,
		detect:   indent.DefaultDetectOptions,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With().Str("document", d.id.String()).Logger()
	return d, d.SetLanguage(d.lang)
}

// ID identifies the document in logs.
func (d *Document) ID() uuid.UUID { return d.id }

// Text returns the whole document.
func (d *Document) Text() string { return d.buf.String() }

// Bytes returns the document's bytes. The slice is never mutated by later
// edits.
func (d *Document) Bytes() []byte { return d.buf.All() }

// Len is the document length in UTF-16 code units.
func (d *Document) Len() int { return d.lines.Len() }

// Lines exposes the line index; callers must not mutate it.
func (d *Document) Lines() *lineindex.Index { return d.lines }

// Translator converts positions for the current revision.
func (d *Document) Translator() *position.Translator { return position.New(d.lines, d.buf) }

// Language returns the document language, possibly nil.
func (d *Document) Language() *language.Language { return d.lang }

// Tree returns the syntax layers, or nil when the language has no grammar.
func (d *Document) Tree() *treesitter.Tree { return d.tree }

// SetLanguage switches the language and reparses from scratch.
func (d *Document) SetLanguage(l *language.Language) error {
	d.lang = l
	d.tree = nil
	if !l.HasGrammar() {
		return nil
	}
	if d.parser == nil {
		d.parser = treesitter.NewParser()
	}
	d.tree = treesitter.New(l, d.provider, treesitter.WithLogger(d.log))
	if err := d.tree.Parse(context.Background(), d.parser, d.buf.All()); err != nil {
		return err
	}
	d.log.Debug().Str("language", l.Name).Int("layers", len(d.tree.Layers())).Msg("document parsed")
	return nil
}

// Close releases the parser.
func (d *Document) Close() {
	if d.parser != nil {
		d.parser.Close()
		d.parser = nil
	}
}

// Replace replaces the characters in r with s and returns the lines whose
// rendering is now stale. It panics with edit.ErrOutOfBounds when r is not
// a valid range of the document.
func (d *Document) Replace(r text.CharRange, s string) lineindex.ChangeSet {
	desc := edit.Describe(d.Translator(), r, s)
	if desc.IsNoop() {
		return lineindex.ChangeSet{}
	}
	desc.Lines = d.lines.Replace(desc.Chars, desc.OldByteRange(), s, d.buf)
	d.buf.Replace(desc.OldByteRange(), s)

	changes := lineindex.ChangeSet{}
	changes.Union(desc.Lines)
	if d.tree != nil {
		treeChanges, err := d.tree.Apply(context.Background(), d.parser, d.buf.All(), d.lines, desc)
		if err != nil {
			d.log.Error().Err(err).Msg("incremental parse failed, reparsing")
			if err := d.tree.Parse(context.Background(), d.parser, d.buf.All()); err != nil {
				d.log.Error().Err(err).Msg("reparse failed")
			}
			for _, l := range d.lines.All() {
				treeChanges.MarkEdited(l.ID)
			}
		}
		changes.Union(treeChanges)
	}
	return changes
}

// Insert inserts s at the character offset at.
func (d *Document) Insert(at int, s string) lineindex.ChangeSet {
	return d.Replace(text.CharRange{Start: at, End: at}, s)
}

// Captures returns the highlight captures intersecting r. Languages without a
// grammar fall back to their chroma lexer.
func (d *Document) Captures(ctx context.Context, r text.ByteRange) ([]query.Capture, error) {
	if d.tree != nil {
		return d.tree.Captures(ctx, language.Highlights, treesitter.SpanFor(d.Translator(), r), d.buf.All())
	}
	if d.lang == nil || d.lang.Lexer == "" {
		return nil, nil
	}
	caps, err := highlight.LexerCaptures(d.lang.Lexer, d.buf.All())
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(caps, func(c query.Capture) bool { return !c.Range.Intersects(r) }), nil
}

// HighlightJob captures the current revision for background highlighting of
// r. The job stays valid across later edits.
func (d *Document) HighlightJob(r text.ByteRange) highlight.Job {
	if d.tree != nil {
		return highlight.CapturesJob(d.tree.Snapshot(d.buf.All()), treesitter.SpanFor(d.Translator(), r))
	}
	src := d.buf.All()
	lexer := ""
	if d.lang != nil {
		lexer = d.lang.Lexer
	}
	return func(ctx context.Context) ([]query.Capture, error) {
		if lexer == "" {
			return nil, ctx.Err()
		}
		caps, err := highlight.LexerJob(lexer, src)(ctx)
		if err != nil {
			return nil, err
		}
		return slices.DeleteFunc(caps, func(c query.Capture) bool { return !c.Range.Intersects(r) }), nil
	}
}

// Snapshot returns a read-only view of the layers for another goroutine, or
// nil without a grammar.
func (d *Document) Snapshot() *treesitter.Snapshot {
	if d.tree == nil {
		return nil
	}
	return d.tree.Snapshot(d.buf.All())
}

// Outline lists the document's top-level symbols.
func (d *Document) Outline() []treesitter.Symbol {
	if d.tree == nil {
		return nil
	}
	return d.tree.Outline(d.buf.All())
}
