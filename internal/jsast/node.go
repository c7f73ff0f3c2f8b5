package jsast

import (
	sitter "github.com/smacker/go-tree-sitter"

	"nodeproto/internal/source"
)

// Kind is the closed set of node categories the walker dispatches on.
type Kind uint8

const (
	KindOther Kind = iota
	// KindImport is a static import declaration.
	KindImport
	// KindReExport is `export {a} from "m"`.
	KindReExport
	// KindExport is any other export statement, `export * from "m"` included.
	KindExport
	// KindDynamicImport is `import(...)`.
	KindDynamicImport
	// KindCall is any other call expression.
	KindCall
)

func (k Kind) String() string {
	switch k {
	case KindImport:
		return "import"
	case KindReExport:
		return "re-export"
	case KindExport:
		return "export"
	case KindDynamicImport:
		return "dynamic-import"
	case KindCall:
		return "call"
	}
	return "other"
}

// tree-sitter node types
const (
	typeImportStatement  = "import_statement"
	typeExportStatement  = "export_statement"
	typeExportClause     = "export_clause"
	typeCallExpression   = "call_expression"
	typeImport           = "import"
	typeString           = "string"
	typeComment          = "comment"
	typeIdentifier       = "identifier"
	typeParenthesized    = "parenthesized_expression"
	typeOptionalChain    = "optional_chain"
	typeOptionalChainTok = "?."
	typeArguments        = "arguments"
)

// Node is a tree-sitter node bound to its Tree. The zero Node is null.
type Node struct {
	n *sitter.Node
	t *Tree
}

func (n Node) IsNull() bool { return n.n == nil }

// Type returns the raw tree-sitter node type.
func (n Node) Type() string {
	if n.n == nil {
		return ""
	}
	return n.n.Type()
}

// Span returns the node's byte range in the original file.
func (n Node) Span() source.Span {
	return n.t.span(n.n)
}

// Text returns the node's source text.
func (n Node) Text() string {
	return string(n.t.src[n.n.StartByte():n.n.EndByte()])
}

// Field returns the child stored under a grammar field name.
func (n Node) Field(name string) Node {
	if n.n == nil {
		return Node{}
	}
	c := n.n.ChildByFieldName(name)
	if c == nil {
		return Node{}
	}
	return Node{n: c, t: n.t}
}

// NamedChildren returns named children without comments.
func (n Node) NamedChildren() []Node {
	count := int(n.n.NamedChildCount())
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.n.NamedChild(i)
		if c == nil || c.Type() == typeComment {
			continue
		}
		out = append(out, Node{n: c, t: n.t})
	}
	return out
}

// HasChildOfType reports whether any direct child has type typ.
func (n Node) HasChildOfType(typ string) bool {
	for i := 0; i < int(n.n.ChildCount()); i++ {
		if c := n.n.Child(i); c != nil && c.Type() == typ {
			return true
		}
	}
	return false
}

// Kind classifies the node for dispatch.
func (n Node) Kind() Kind {
	switch n.Type() {
	case typeImportStatement:
		return KindImport
	case typeExportStatement:
		if !n.Field("source").IsNull() && n.HasChildOfType(typeExportClause) {
			return KindReExport
		}
		return KindExport
	case typeCallExpression:
		if n.Field("function").Type() == typeImport {
			return KindDynamicImport
		}
		return KindCall
	}
	return KindOther
}

// Source returns the module specifier of an import or export statement.
func (n Node) Source() Node {
	return n.Field("source")
}

// Callee returns the callee of a call expression with parentheses stripped.
func (n Node) Callee() Node {
	fn := n.Field("function")
	for fn.Type() == typeParenthesized {
		inner := fn.NamedChildren()
		if len(inner) != 1 {
			return fn
		}
		fn = inner[0]
	}
	return fn
}

// IsOptionalCall reports `f?.()`.
func (n Node) IsOptionalCall() bool {
	if !n.Field("optional_chain").IsNull() {
		return true
	}
	return n.HasChildOfType(typeOptionalChain) || n.HasChildOfType(typeOptionalChainTok)
}

// Arguments returns the call arguments without comments. ok is false when the
// call has no parenthesised argument list (tagged templates).
func (n Node) Arguments() (args []Node, ok bool) {
	list := n.Field("arguments")
	if list.Type() != typeArguments {
		return nil, false
	}
	return list.NamedChildren(), true
}

// IsIdentifier reports whether n is the identifier name.
func (n Node) IsIdentifier(name string) bool {
	return n.Type() == typeIdentifier && n.Text() == name
}

// IsStringLiteral reports a plain quoted string; template strings are not.
func (n Node) IsStringLiteral() bool {
	return n.Type() == typeString
}
