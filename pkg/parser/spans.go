package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"minilua/interpreter-go/pkg/ast"
)

func locationFromPoint(p sitter.Point, offset uint) ast.Location {
	return ast.Location{Line: int(p.Row) + 1, Column: int(p.Column) + 1, Byte: int(offset)}
}

func rangeFromNode(node *sitter.Node) ast.Range {
	if node == nil {
		return ast.Range{}
	}
	return ast.Range{
		Start: locationFromPoint(node.StartPosition(), node.StartByte()),
		End:   locationFromPoint(node.EndPosition(), node.EndByte()),
	}
}

// pointFromLocation converts back to tree-sitter's 0-based row/column.
func pointFromLocation(loc ast.Location) sitter.Point {
	row, col := loc.Line-1, loc.Column-1
	if row < 0 {
		row = 0
	}
	if col < 0 {
		col = 0
	}
	return sitter.Point{Row: uint(row), Column: uint(col)}
}

func annotateRange(node ast.Node, tsNode *sitter.Node) {
	if node == nil || tsNode == nil {
		return
	}
	ast.SetRange(node, rangeFromNode(tsNode))
}

func annotateStatement(stmt ast.Statement, tsNode *sitter.Node) ast.Statement {
	annotateRange(stmt, tsNode)
	return stmt
}

func annotateExpression(expr ast.Expression, tsNode *sitter.Node) ast.Expression {
	annotateRange(expr, tsNode)
	return expr
}
