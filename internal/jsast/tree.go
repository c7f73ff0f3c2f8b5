package jsast

import (
	"context"
	"errors"
	"fmt"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"

	"nodeproto/internal/source"
)

// ErrUnsupportedFile is returned by Parse for extensions without a grammar.
var ErrUnsupportedFile = errors.New("unsupported file extension")

// Tree is a parsed file. Spans of every node are in the coordinates of the
// original file content, byte order mark included.
type Tree struct {
	tree    *sitter.Tree
	src     []byte // содержимое без BOM
	offset  uint32
	file    source.FileID
	dialect Dialect
}

// Parse parses file with the grammar chosen from its path.
func Parse(ctx context.Context, file *source.File) (*Tree, error) {
	dialect, ok := DialectFor(file.Path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", file.Path, ErrUnsupportedFile)
	}
	return ParseBytes(ctx, file.ID, dialect, file.Content)
}

// ParseBytes parses content as dialect. A leading byte order mark is skipped
// for the grammar and accounted for in node spans.
func ParseBytes(ctx context.Context, file source.FileID, dialect Dialect, content []byte) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled: %w", err)
	}
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		return nil, fmt.Errorf("source too large: %w", err)
	}
	body, offset := source.StripBOM(content)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(dialect.language())

	tree, err := parser.ParseCtx(ctx, nil, body)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	return &Tree{
		tree:    tree,
		src:     body,
		offset:  offset,
		file:    file,
		dialect: dialect,
	}, nil
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

func (t *Tree) Dialect() Dialect { return t.dialect }

// Root returns the program node.
func (t *Tree) Root() Node {
	return Node{n: t.tree.RootNode(), t: t}
}

// HasError reports whether the tree contains ERROR or MISSING nodes.
func (t *Tree) HasError() bool {
	return t.tree.RootNode().HasError()
}

// FirstError returns the span of the first ERROR or MISSING node in document order.
func (t *Tree) FirstError() (source.Span, bool) {
	root := t.tree.RootNode()
	if !root.HasError() {
		return source.Span{}, false
	}
	n := root
	for {
		if n.IsError() || n.IsMissing() {
			return t.span(n), true
		}
		var next *sitter.Node
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c != nil && (c.HasError() || c.IsMissing() || c.IsError()) {
				next = c
				break
			}
		}
		if next == nil {
			return t.span(n), true
		}
		n = next
	}
}

func (t *Tree) span(n *sitter.Node) source.Span {
	return source.Span{
		File:  t.file,
		Start: n.StartByte() + t.offset,
		End:   n.EndByte() + t.offset,
	}
}
