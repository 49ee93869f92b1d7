package highlight

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/xonecas/quill/internal/language"
)

// lexerByExt covers files no registered language claims.
var lexerByExt = map[string]string{
	".py":    "python",
	".ts":    "typescript",
	".jsx":   "react",
	".tsx":   "tsx",
	".java":  "java",
	".c":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".h":     "c",
	".hpp":   "cpp",
	".cs":    "csharp",
	".rb":    "ruby",
	".php":   "php",
	".rs":    "rust",
	".swift": "swift",
	".kt":    "kotlin",
	".sh":    "bash",
	".bash":  "bash",
	".zsh":   "zsh",
	".sql":   "sql",
	".xml":   "xml",
	".scss":  "scss",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".ini":   "ini",
	".md":    "markdown",
	".lua":   "lua",
	".proto": "protobuf",
}

// DetectLanguage resolves path against reg. The lexer name is always set:
// the language's own lexer when one is registered, otherwise the lexer
// chroma picks for the file, or "text".
func DetectLanguage(reg *language.Registry, path string) (*language.Language, string) {
	if reg != nil {
		if l, ok := reg.ForPath(path); ok {
			lexer := l.Lexer
			if lexer == "" {
				lexer = l.Name
			}
			return l, lexer
		}
	}
	if lexer, ok := lexerByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return nil, lexer
	}
	if lex := lexers.Match(filepath.Base(path)); lex != nil {
		return nil, strings.ToLower(lex.Config().Name)
	}
	return nil, "text"
}
