package highlight

import (
	"errors"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/xonecas/quill/internal/query"
	"github.com/xonecas/quill/internal/text"
)

// ErrNoLexer is returned when chroma has no lexer under the requested name.
var ErrNoLexer = errors.New("highlight: no lexer")

var tokenCategories = map[chroma.TokenType]query.Category{
	chroma.Keyword:             query.CategoryKeyword,
	chroma.KeywordType:         query.CategoryType,
	chroma.KeywordConstant:     query.CategoryConstant,
	chroma.NameFunction:        query.CategoryFunction,
	chroma.NameBuiltin:         query.CategoryFunction,
	chroma.NameClass:           query.CategoryType,
	chroma.NameConstant:        query.CategoryConstant,
	chroma.NameVariable:        query.CategoryVariable,
	chroma.NameProperty:        query.CategoryProperty,
	chroma.NameTag:             query.CategoryTag,
	chroma.NameAttribute:       query.CategoryAttribute,
	chroma.LiteralString:       query.CategoryString,
	chroma.LiteralStringEscape: query.CategoryEscape,
	chroma.LiteralNumber:       query.CategoryNumber,
	chroma.Comment:             query.CategoryComment,
	chroma.Operator:            query.CategoryOperator,
	chroma.Punctuation:         query.CategoryPunctuation,
}

// categoryOf maps a token type by its exact entry, then its subcategory,
// then its category.
func categoryOf(tt chroma.TokenType) query.Category {
	for _, t := range []chroma.TokenType{tt, tt.SubCategory(), tt.Category()} {
		if c, ok := tokenCategories[t]; ok {
			return c
		}
	}
	return query.CategoryNone
}

// LexerCaptures tokenizes src with the named chroma lexer and returns the
// tokens as captures, for languages without a tree-sitter grammar. The
// captures carry no node and are already in document order.
func LexerCaptures(lexerName string, src []byte) ([]query.Capture, error) {
	lex := lexers.Get(lexerName)
	if lex == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoLexer, lexerName)
	}
	it, err := chroma.Coalesce(lex).Tokenise(nil, string(src))
	if err != nil {
		return nil, fmt.Errorf("highlight: tokenise %s: %w", lexerName, err)
	}
	var out []query.Capture
	off := 0
	for tok := it(); tok != chroma.EOF; tok = it() {
		start := off
		off += len(tok.Value)
		// Some lexers append a newline the source does not have.
		end := min(off, len(src))
		if start >= end {
			continue
		}
		cat := categoryOf(tok.Type)
		if cat == query.CategoryNone {
			continue
		}
		out = append(out, query.Capture{
			Category: cat,
			Name:     tok.Type.String(),
			Range:    text.ByteRange{Start: start, End: end},
			Language: lexerName,
			Match:    len(out),
		})
	}
	return out, nil
}
