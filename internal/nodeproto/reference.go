package nodeproto

import (
	"nodeproto/internal/jsast"
	"nodeproto/internal/source"
)

// Shape names the syntactic form a module reference was found in.
type Shape uint8

const (
	ShapeImport Shape = iota + 1
	ShapeReExport
	ShapeDynamicImport
	ShapeRequire
)

func (s Shape) String() string {
	switch s {
	case ShapeImport:
		return "import"
	case ShapeReExport:
		return "re-export"
	case ShapeDynamicImport:
		return "import()"
	case ShapeRequire:
		return "require()"
	}
	return "unknown"
}

// ModuleReference is a module specifier written as a string literal.
type ModuleReference struct {
	Value string      // декодированное значение
	Raw   string      // исходный текст литерала вместе с кавычками
	Token source.Span // литерал вместе с кавычками
	Shape Shape
}

// Classify extracts the module reference carried by node, if node is one of
// the recognised shapes and its specifier is a plain string literal.
func Classify(node jsast.Node) (ModuleReference, bool) {
	switch node.Kind() {
	case jsast.KindImport:
		return fromLiteral(node.Source(), ShapeImport)
	case jsast.KindReExport:
		return fromLiteral(node.Source(), ShapeReExport)
	case jsast.KindDynamicImport:
		args, ok := node.Arguments()
		if !ok || len(args) == 0 {
			return ModuleReference{}, false
		}
		return fromLiteral(args[0], ShapeDynamicImport)
	case jsast.KindCall:
		if !isStaticRequire(node) {
			return ModuleReference{}, false
		}
		args, _ := node.Arguments()
		return fromLiteral(args[0], ShapeRequire)
	case jsast.KindExport, jsast.KindOther:
		return ModuleReference{}, false
	}
	return ModuleReference{}, false
}

// isStaticRequire matches require("m"): bare callee, no optional chaining,
// exactly one argument.
func isStaticRequire(call jsast.Node) bool {
	if !call.Callee().IsIdentifier("require") || call.IsOptionalCall() {
		return false
	}
	args, ok := call.Arguments()
	return ok && len(args) == 1 && args[0].IsStringLiteral()
}

func fromLiteral(lit jsast.Node, shape Shape) (ModuleReference, bool) {
	if lit.IsNull() || !lit.IsStringLiteral() {
		return ModuleReference{}, false
	}
	value, ok := jsast.StringValue(lit)
	if !ok {
		return ModuleReference{}, false
	}
	return ModuleReference{Value: value, Raw: lit.Text(), Token: lit.Span(), Shape: shape}, true
}
