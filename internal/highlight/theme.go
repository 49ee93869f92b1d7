// Package highlight turns captures into colors and schedules background
// capture jobs so only the latest edit's highlighting is published.
package highlight

import (
	"errors"
	"fmt"
	"math"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/xonecas/quill/internal/query"
)

// ErrUnknownTheme is returned by LoadTheme for unregistered chroma styles.
var ErrUnknownTheme = errors.New("highlight: unknown theme")

// tokenFor mirrors each category onto the chroma token whose style colors it.
var tokenFor = map[query.Category]chroma.TokenType{
	query.CategoryKeyword:     chroma.Keyword,
	query.CategoryComment:     chroma.Comment,
	query.CategoryString:      chroma.LiteralString,
	query.CategoryNumber:      chroma.LiteralNumber,
	query.CategoryConstant:    chroma.NameConstant,
	query.CategoryFunction:    chroma.NameFunction,
	query.CategoryType:        chroma.KeywordType,
	query.CategoryVariable:    chroma.NameVariable,
	query.CategoryProperty:    chroma.NameProperty,
	query.CategoryOperator:    chroma.Operator,
	query.CategoryPunctuation: chroma.Punctuation,
	query.CategoryTag:         chroma.NameTag,
	query.CategoryAttribute:   chroma.NameAttribute,
	query.CategoryEscape:      chroma.LiteralStringEscape,
}

// Theme resolves categories to "#rrggbb" colors from a chroma style.
type Theme struct {
	Name   string
	Bg, Fg string
	colors map[query.Category]string
	bold   map[query.Category]bool
}

// LoadTheme reads the chroma style called name.
func LoadTheme(name string) (Theme, error) {
	sty, ok := styles.Registry[name]
	if !ok {
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	entry := sty.Get(chroma.Background)
	th := Theme{
		Name:   name,
		Bg:     "#000000",
		Fg:     "#c8c8c8",
		colors: make(map[query.Category]string, len(tokenFor)),
		bold:   make(map[query.Category]bool),
	}
	if entry.Background.IsSet() {
		th.Bg = entry.Background.String()
	}
	if entry.Colour.IsSet() {
		th.Fg = entry.Colour.String()
	}
	for cat, tt := range tokenFor {
		e := sty.Get(tt)
		if e.Colour.IsSet() {
			th.colors[cat] = e.Colour.String()
		} else {
			// Themes that leave a token plain still get it set apart from text.
			th.colors[cat] = lerpHex(th.Bg, th.Fg, 0.7)
		}
		th.bold[cat] = e.Bold == chroma.Yes
	}
	return th, nil
}

// Color returns the foreground for cat, or the theme foreground for
// uncaptured text and indent categories.
func (t Theme) Color(cat query.Category) string {
	if c, ok := t.colors[cat]; ok {
		return c
	}
	return t.Fg
}

// Bold reports whether the style renders cat in bold.
func (t Theme) Bold(cat query.Category) bool { return t.bold[cat] }

// lerpHex linearly interpolates between two hex colors at fraction f.
// Unparseable colors count as black.
func lerpHex(a, b string, f float64) string {
	ca, cb := parseHex(a), parseHex(b)
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f))
	}
	return chroma.NewColour(mix(ca.Red(), cb.Red()), mix(ca.Green(), cb.Green()), mix(ca.Blue(), cb.Blue())).String()
}

func parseHex(s string) chroma.Colour {
	if c := chroma.ParseColour(s); c.IsSet() {
		return c
	}
	return chroma.NewColour(0, 0, 0)
}
