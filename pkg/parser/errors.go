package parser

import (
	"errors"
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"minilua/interpreter-go/pkg/ast"
)

// ParseError reports malformed source: ERROR and MISSING nodes in the syntax
// tree or constructs the lowering does not accept.
type ParseError struct {
	Message string
	Range   ast.Range
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Range.Start, e.Message)
}

// FormatWithSource renders the error with the offending line, one line of
// context on each side and a caret under the start column.
func (e *ParseError) FormatWithSource(source string) string {
	lines := strings.Split(source, "\n")
	line := e.Range.Start.Line
	col := e.Range.Start.Column
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	if col < 1 {
		col = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PARSE ERROR at %d:%d: %s\n\n", line, col, e.Message)
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}

// IsIncomplete reports whether err is a parse error that runs into the end of
// source, so that more input could still complete it.
func IsIncomplete(err error, source string) bool {
	var pe *ParseError
	if !errors.As(err, &pe) {
		return false
	}
	end := len(strings.TrimRight(source, " \t\r\n"))
	return pe.Range.End.Byte >= end
}

// syntaxError locates the first ERROR or MISSING node below node.
func syntaxError(node *sitter.Node, source []byte) *ParseError {
	bad := firstErrorNode(node)
	if bad == nil {
		bad = node
	}
	switch {
	case bad.IsMissing():
		return &ParseError{Message: fmt.Sprintf("missing %q", bad.Kind()), Range: rangeFromNode(bad)}
	case bad.IsError():
		text := sliceContent(bad, source)
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}
		if len(text) > 20 {
			text = text[:20] + "..."
		}
		if text == "" {
			return &ParseError{Message: "unexpected end of input", Range: rangeFromNode(bad)}
		}
		return &ParseError{Message: fmt.Sprintf("unexpected %q", text), Range: rangeFromNode(bad)}
	}
	return &ParseError{Message: "syntax error", Range: rangeFromNode(bad)}
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
