package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"minilua/interpreter-go/pkg/ast"
)

func parseExpression(node *sitter.Node, source []byte) (ast.Expression, error) {
	if node == nil {
		return nil, fmt.Errorf("parser: nil expression node")
	}
	if node.IsMissing() || node.IsError() {
		return nil, syntaxError(node, source)
	}

	switch node.Kind() {
	case "nil":
		return annotateExpression(ast.NewNilLiteral(), node), nil
	case "true":
		return annotateExpression(ast.NewBooleanLiteral(true), node), nil
	case "false":
		return annotateExpression(ast.NewBooleanLiteral(false), node), nil
	case "number":
		return parseNumberLiteral(node, source)
	case "string":
		return parseStringLiteral(node, source)
	case "vararg_expression":
		return annotateExpression(ast.NewVarargExpression(), node), nil
	case "identifier":
		return parseIdentifier(node, source)
	case "function_definition":
		fn, err := parseFunctionBody(node, source, "")
		if err != nil {
			return nil, err
		}
		return fn, nil
	case "function_call":
		return parseFunctionCall(node, source)
	case "parenthesized_expression":
		inner, err := parseExpression(firstNamedChild(node), source)
		if err != nil {
			return nil, err
		}
		return annotateExpression(ast.NewParenthesizedExpression(inner), node), nil
	case "dot_index_expression":
		table, err := parseExpression(node.ChildByFieldName("table"), source)
		if err != nil {
			return nil, err
		}
		fieldNode := node.ChildByFieldName("field")
		if fieldNode == nil {
			return nil, syntaxError(node, source)
		}
		name := sliceContent(fieldNode, source)
		key := ast.NewStringLiteral(name, name)
		annotateRange(key, fieldNode)
		return annotateExpression(ast.NewIndexExpression(table, key, true), node), nil
	case "bracket_index_expression":
		table, err := parseExpression(node.ChildByFieldName("table"), source)
		if err != nil {
			return nil, err
		}
		key, err := parseExpression(node.ChildByFieldName("field"), source)
		if err != nil {
			return nil, err
		}
		return annotateExpression(ast.NewIndexExpression(table, key, false), node), nil
	case "table_constructor":
		return parseTableConstructor(node, source)
	case "binary_expression":
		left, err := parseExpression(node.ChildByFieldName("left"), source)
		if err != nil {
			return nil, err
		}
		right, err := parseExpression(node.ChildByFieldName("right"), source)
		if err != nil {
			return nil, err
		}
		op := operatorToken(node)
		if op == "" {
			return nil, &ParseError{Message: "binary expression missing operator", Range: rangeFromNode(node)}
		}
		return annotateExpression(ast.NewBinaryExpression(op, left, right), node), nil
	case "unary_expression":
		operand, err := parseExpression(node.ChildByFieldName("operand"), source)
		if err != nil {
			return nil, err
		}
		op := operatorToken(node)
		if op == "" {
			return nil, &ParseError{Message: "unary expression missing operator", Range: rangeFromNode(node)}
		}
		return annotateExpression(ast.NewUnaryExpression(op, operand), node), nil
	}
	return nil, &ParseError{Message: fmt.Sprintf("unsupported expression %q", node.Kind()), Range: rangeFromNode(node)}
}

func parseFunctionCall(node *sitter.Node, source []byte) (*ast.FunctionCall, error) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil, syntaxError(node, source)
	}

	var (
		callee ast.Expression
		method *ast.Identifier
		err    error
	)
	if nameNode.Kind() == "method_index_expression" {
		callee, err = parseExpression(nameNode.ChildByFieldName("table"), source)
		if err != nil {
			return nil, err
		}
		method, err = parseIdentifier(nameNode.ChildByFieldName("method"), source)
		if err != nil {
			return nil, err
		}
	} else {
		callee, err = parseExpression(nameNode, source)
		if err != nil {
			return nil, err
		}
	}

	// f"str" and f{...} put the single argument directly under arguments.
	var args []ast.Expression
	for _, child := range namedChildren(node.ChildByFieldName("arguments")) {
		arg, err := parseExpression(child, source)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	call := ast.NewFunctionCall(callee, method, args)
	annotateRange(call, node)
	return call, nil
}

// parseFunctionBody reads the parameters and body fields shared by function
// definitions and declarations. The resulting range spans the whole node.
func parseFunctionBody(node *sitter.Node, source []byte, name string) (*ast.FunctionExpression, error) {
	var (
		params   []*ast.Identifier
		isVararg bool
	)
	for _, child := range namedChildren(node.ChildByFieldName("parameters")) {
		switch child.Kind() {
		case "identifier":
			id, err := parseIdentifier(child, source)
			if err != nil {
				return nil, err
			}
			params = append(params, id)
		case "vararg_expression":
			isVararg = true
		}
	}
	body, err := parseBlock(node.ChildByFieldName("body"), source)
	if err != nil {
		return nil, err
	}
	fn := ast.NewFunctionExpression(params, isVararg, body)
	fn.Name = name
	annotateRange(fn, node)
	return fn, nil
}

func parseTableConstructor(node *sitter.Node, source []byte) (ast.Expression, error) {
	var fields []*ast.TableField
	for _, child := range namedChildren(node) {
		if child.Kind() != "field" {
			continue
		}
		value, err := parseExpression(child.ChildByFieldName("value"), source)
		if err != nil {
			return nil, err
		}
		var key ast.Expression
		if nameNode := child.ChildByFieldName("name"); nameNode != nil {
			if hasToken(child, "[") {
				key, err = parseExpression(nameNode, source)
				if err != nil {
					return nil, err
				}
			} else {
				name := sliceContent(nameNode, source)
				lit := ast.NewStringLiteral(name, name)
				annotateRange(lit, nameNode)
				key = lit
			}
		}
		field := ast.NewTableField(key, value)
		annotateRange(field, child)
		fields = append(fields, field)
	}
	return annotateExpression(ast.NewTableConstructor(fields), node), nil
}
