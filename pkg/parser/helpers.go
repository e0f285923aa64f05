package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"minilua/interpreter-go/pkg/ast"
)

func parseIdentifier(node *sitter.Node, source []byte) (*ast.Identifier, error) {
	if node == nil || node.Kind() != "identifier" {
		return nil, fmt.Errorf("parser: expected identifier")
	}
	id := ast.NewIdentifier(sliceContent(node, source))
	annotateRange(id, node)
	return id, nil
}

func sliceContent(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := int(node.StartByte())
	end := int(node.EndByte())
	if start < 0 || end < start || end > len(source) {
		return ""
	}
	return string(source[start:end])
}

func isIgnorableNode(node *sitter.Node) bool {
	if node == nil {
		return true
	}
	switch node.Kind() {
	case "comment", "hash_bang_line":
		return true
	}
	return false
}

// namedChildren returns the named, non-comment children of node.
func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && !isIgnorableNode(child) {
			out = append(out, child)
		}
	}
	return out
}

func firstNamedChild(node *sitter.Node) *sitter.Node {
	children := namedChildren(node)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

func findNamedChild(node *sitter.Node, kind string) *sitter.Node {
	for _, child := range namedChildren(node) {
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// hasToken reports whether node has a direct anonymous child spelled token.
func hasToken(node *sitter.Node, token string) bool {
	if node == nil {
		return false
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == token {
			return true
		}
	}
	return false
}

// operatorToken returns the first anonymous child, which is the operator of
// binary and unary expressions.
func operatorToken(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && !child.IsNamed() {
			return child.Kind()
		}
	}
	return ""
}
