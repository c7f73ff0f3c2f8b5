package jsast

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Dialect selects the tree-sitter grammar used for a file.
type Dialect uint8

const (
	// DialectJavaScript covers plain JS and JSX.
	DialectJavaScript Dialect = iota
	DialectTypeScript
	DialectTSX
)

func (d Dialect) String() string {
	switch d {
	case DialectJavaScript:
		return "javascript"
	case DialectTypeScript:
		return "typescript"
	case DialectTSX:
		return "tsx"
	}
	return "unknown"
}

func (d Dialect) language() *sitter.Language {
	switch d {
	case DialectTypeScript:
		return typescript.GetLanguage()
	case DialectTSX:
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

var dialectByExt = map[string]Dialect{
	".js":  DialectJavaScript,
	".mjs": DialectJavaScript,
	".cjs": DialectJavaScript,
	".jsx": DialectJavaScript,
	".ts":  DialectTypeScript,
	".mts": DialectTypeScript,
	".cts": DialectTypeScript,
	".tsx": DialectTSX,
}

// DefaultExtensions lists every extension DialectFor understands, sorted.
func DefaultExtensions() []string {
	return []string{".cjs", ".cts", ".js", ".jsx", ".mjs", ".mts", ".ts", ".tsx"}
}

// DialectFor picks the grammar by file extension. Declaration files (.d.ts)
// are TypeScript as well.
func DialectFor(path string) (Dialect, bool) {
	d, ok := dialectByExt[strings.ToLower(filepath.Ext(path))]
	return d, ok
}
