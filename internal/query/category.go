package query

import "strings"

// Category is the closed set of capture classes the core understands.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryKeyword
	CategoryComment
	CategoryString
	CategoryNumber
	CategoryConstant
	CategoryFunction
	CategoryType
	CategoryVariable
	CategoryProperty
	CategoryOperator
	CategoryPunctuation
	CategoryTag
	CategoryAttribute
	CategoryEscape
	CategoryIndentBegin
	CategoryIndentEnd
	CategoryIndentIgnore
	CategoryInjection
)

var categoryNames = map[string]Category{
	"keyword":       CategoryKeyword,
	"comment":       CategoryComment,
	"string":        CategoryString,
	"number":        CategoryNumber,
	"constant":      CategoryConstant,
	"function":      CategoryFunction,
	"type":          CategoryType,
	"variable":      CategoryVariable,
	"property":      CategoryProperty,
	"operator":      CategoryOperator,
	"punctuation":   CategoryPunctuation,
	"tag":           CategoryTag,
	"attribute":     CategoryAttribute,
	"escape":        CategoryEscape,
	"indent.begin":  CategoryIndentBegin,
	"indent.end":    CategoryIndentEnd,
	"indent.ignore": CategoryIndentIgnore,
	"injection":     CategoryInjection,
}

// ParseCategory maps a dotted capture name to its category using the longest
// known prefix: "keyword.return" is a keyword, "indent.begin" is not an
// "indent". Names starting with an underscore are private to predicates.
func ParseCategory(name string) (Category, bool) {
	if strings.HasPrefix(name, "_") {
		return CategoryNone, false
	}
	for prefix := name; prefix != ""; {
		if c, ok := categoryNames[prefix]; ok {
			return c, true
		}
		i := strings.LastIndexByte(prefix, '.')
		if i < 0 {
			break
		}
		prefix = prefix[:i]
	}
	return CategoryNone, false
}

var categoryStrings = [...]string{
	CategoryNone:         "none",
	CategoryKeyword:      "keyword",
	CategoryComment:      "comment",
	CategoryString:       "string",
	CategoryNumber:       "number",
	CategoryConstant:     "constant",
	CategoryFunction:     "function",
	CategoryType:         "type",
	CategoryVariable:     "variable",
	CategoryProperty:     "property",
	CategoryOperator:     "operator",
	CategoryPunctuation:  "punctuation",
	CategoryTag:          "tag",
	CategoryAttribute:    "attribute",
	CategoryEscape:       "escape",
	CategoryIndentBegin:  "indent.begin",
	CategoryIndentEnd:    "indent.end",
	CategoryIndentIgnore: "indent.ignore",
	CategoryInjection:    "injection",
}

func (c Category) String() string {
	if int(c) < len(categoryStrings) {
		return categoryStrings[c]
	}
	return "none"
}

// IsIndent reports whether c drives indentation rather than highlighting.
func (c Category) IsIndent() bool {
	return c == CategoryIndentBegin || c == CategoryIndentEnd || c == CategoryIndentIgnore
}
