package jsast

import sitter "github.com/smacker/go-tree-sitter"

// Visitor holds callbacks keyed by node kind. Nil callbacks are skipped.
type Visitor struct {
	Import        func(Node)
	ReExport      func(Node)
	Export        func(Node)
	DynamicImport func(Node)
	Call          func(Node)
}

// Walk visits every node of t once, pre-order in document order, and calls
// the callback registered for its kind.
func Walk(t *Tree, v Visitor) {
	stack := make([]*sitter.Node, 0, 64)
	stack = append(stack, t.tree.RootNode())

	for len(stack) > 0 {
		raw := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if raw == nil {
			continue
		}
		node := Node{n: raw, t: t}

		switch node.Kind() {
		case KindImport:
			call(v.Import, node)
		case KindReExport:
			call(v.ReExport, node)
		case KindExport:
			call(v.Export, node)
		case KindDynamicImport:
			call(v.DynamicImport, node)
		case KindCall:
			call(v.Call, node)
		case KindOther:
			// ничего
		}

		// дети в обратном порядке, чтобы снимать их со стека по порядку
		for i := int(raw.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, raw.NamedChild(i))
		}
	}
}

func call(fn func(Node), n Node) {
	if fn != nil {
		fn(n)
	}
}
