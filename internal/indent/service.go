package indent

import (
	"context"

	"github.com/xonecas/quill/internal/language"
	"github.com/xonecas/quill/internal/position"
	"github.com/xonecas/quill/internal/query"
	"github.com/xonecas/quill/internal/text"
	"github.com/xonecas/quill/internal/treesitter"
)

// Service answers indentation questions for one document revision.
type Service struct {
	tree     *treesitter.Tree
	tr       *position.Translator
	src      []byte
	tabWidth int
}

// NewService returns a service over the document's layers, positions and
// bytes. All three must describe the same revision.
func NewService(tree *treesitter.Tree, tr *position.Translator, src []byte, tabWidth int) *Service {
	return &Service{tree: tree, tr: tr, src: src, tabWidth: max(tabWidth, 1)}
}

// StrategyForInsertingLineBreak decides how to indent a line break that
// replaces the bytes [start, end).
//
// Inside an unclosed indent.begin scope the new line sits one level deeper
// than the line where the scope starts. When only whitespace separates the
// caret from the scope's opening token and from the token that closes it,
// an extra line break keeps the closing token on its own line. A caret before
// a closing token on the same line otherwise outdents to the scope's level;
// when a line break separates them the new line stays inside. Inside an
// indent.ignore capture the current line's level carries over. With nested
// adjacent pairs the innermost one decides.
func (s *Service) StrategyForInsertingLineBreak(ctx context.Context, start, end int, unit Unit) Strategy {
	if s.tree == nil {
		return Strategy{}
	}
	h, ok := s.tree.LayerAt(start)
	if !ok {
		return Strategy{}
	}
	lang, ok := s.tree.LayerLanguage(h)
	if !ok || lang.Query(language.Indents) == nil {
		return Strategy{}
	}

	after := s.skipWhitespace(end)
	line, _ := s.tr.Lines().LineAtByte(start)
	span := treesitter.SpanFor(s.tr, text.ByteRange{Start: line.StartByte, End: min(after+1, len(s.src))})
	caps, err := s.tree.LayerCaptures(ctx, h, language.Indents, span, s.src)
	if err != nil {
		return Strategy{}
	}

	for _, c := range caps {
		if c.Category == query.CategoryIndentIgnore && c.Range.Start < start && start < c.Range.End {
			return Strategy{IndentLevel: s.lineLevelAt(start, unit)}
		}
	}

	scope, ok := innermostScope(caps, start, end)
	if !ok {
		return Strategy{}
	}
	base := s.lineLevelAt(scope.Range.Start, unit)

	if !closesAt(caps, scope, after) {
		return Strategy{IndentLevel: base + 1}
	}
	if s.adjacentToOpener(scope, start) {
		return Strategy{IndentLevel: base + 1, InsertExtraLineBreak: true}
	}
	if s.breaksBetween(end, after) {
		return Strategy{IndentLevel: base + 1}
	}
	return Strategy{IndentLevel: base}
}

// innermostScope picks the indent.begin capture that starts latest among
// those enclosing the caret. A scope whose closing token is missing stays
// open through its end.
func innermostScope(caps []query.Capture, start, end int) (query.Capture, bool) {
	var best query.Capture
	found := false
	for _, c := range caps {
		if c.Category != query.CategoryIndentBegin || c.Range.Start >= start {
			continue
		}
		if end >= c.Range.End && !(end == c.Range.End && unclosed(c)) {
			continue
		}
		if !found || c.Range.Start > best.Range.Start ||
			(c.Range.Start == best.Range.Start && c.Range.Len() < best.Range.Len()) {
			best, found = c, true
		}
	}
	return best, found
}

func unclosed(c query.Capture) bool {
	n := c.Node
	if n == nil || n.ChildCount() == 0 {
		return false
	}
	last := n.Child(int(n.ChildCount()) - 1)
	return last.IsMissing()
}

// closesAt reports whether an indent.end capture starting at b closes scope.
func closesAt(caps []query.Capture, scope query.Capture, b int) bool {
	for _, c := range caps {
		if c.Category == query.CategoryIndentEnd && c.Range.Start == b && c.Range.End == scope.Range.End &&
			!c.Node.IsMissing() {
			return true
		}
	}
	return false
}

// adjacentToOpener reports whether only whitespace lies between the scope's
// first token and the caret.
func (s *Service) adjacentToOpener(scope query.Capture, caret int) bool {
	n := scope.Node
	if n == nil || n.ChildCount() == 0 {
		return false
	}
	openEnd := int(n.Child(0).EndByte())
	if openEnd > caret {
		return false
	}
	for _, c := range s.src[openEnd:caret] {
		if !text.IsWhitespace(c) {
			return false
		}
	}
	return true
}

func (s *Service) breaksBetween(from, to int) bool {
	for _, c := range s.src[from:to] {
		if c == '\n' || c == '\r' {
			return true
		}
	}
	return false
}

func (s *Service) skipWhitespace(b int) int {
	for b < len(s.src) && text.IsWhitespace(s.src[b]) {
		b++
	}
	return b
}

func (s *Service) lineLevelAt(b int, unit Unit) int {
	line, ok := s.tr.Lines().LineAtByte(b)
	if !ok {
		return 0
	}
	return Level(s.src[line.StartByte:line.StartByte+line.ByteLength], unit, s.tabWidth)
}
