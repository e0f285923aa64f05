package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"minilua/interpreter-go/pkg/ast"
)

// parseBlock lowers a block node. A nil node is an empty body, which the
// grammar leaves out entirely.
func parseBlock(node *sitter.Node, source []byte) (*ast.Block, error) {
	if node == nil {
		return ast.NewBlock(nil, nil), nil
	}
	block, err := parseBlockChildren(node, source)
	if err != nil {
		return nil, err
	}
	annotateRange(block, node)
	return block, nil
}

func parseBlockChildren(node *sitter.Node, source []byte) (*ast.Block, error) {
	statements := make([]ast.Statement, 0)
	var ret *ast.ReturnStatement
	for _, child := range namedChildren(node) {
		if child.Kind() == "return_statement" {
			r, err := parseReturnStatement(child, source)
			if err != nil {
				return nil, err
			}
			ret = r
			continue
		}
		stmt, err := parseStatement(child, source)
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			statements = append(statements, stmt)
		}
	}
	return ast.NewBlock(statements, ret), nil
}

func parseStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	switch node.Kind() {
	case "empty_statement":
		return nil, nil
	case "assignment_statement":
		return parseAssignmentStatement(node, source)
	case "variable_declaration":
		return parseVariableDeclaration(node, source)
	case "function_declaration":
		return parseFunctionDeclaration(node, source)
	case "function_call":
		call, err := parseFunctionCall(node, source)
		if err != nil {
			return nil, err
		}
		return call, nil
	case "do_statement":
		body, err := parseBlock(node.ChildByFieldName("body"), source)
		if err != nil {
			return nil, err
		}
		return annotateStatement(ast.NewDoStatement(body), node), nil
	case "while_statement":
		cond, err := parseExpression(node.ChildByFieldName("condition"), source)
		if err != nil {
			return nil, err
		}
		body, err := parseBlock(node.ChildByFieldName("body"), source)
		if err != nil {
			return nil, err
		}
		return annotateStatement(ast.NewWhileStatement(cond, body), node), nil
	case "repeat_statement":
		body, err := parseBlock(node.ChildByFieldName("body"), source)
		if err != nil {
			return nil, err
		}
		cond, err := parseExpression(node.ChildByFieldName("condition"), source)
		if err != nil {
			return nil, err
		}
		return annotateStatement(ast.NewRepeatStatement(body, cond), node), nil
	case "if_statement":
		return parseIfStatement(node, source)
	case "for_statement":
		return parseForStatement(node, source)
	case "break_statement":
		return annotateStatement(ast.NewBreakStatement(), node), nil
	case "goto_statement":
		label, err := parseIdentifier(findNamedChild(node, "identifier"), source)
		if err != nil {
			return nil, err
		}
		return annotateStatement(ast.NewGotoStatement(label), node), nil
	case "label_statement":
		name, err := parseIdentifier(findNamedChild(node, "identifier"), source)
		if err != nil {
			return nil, err
		}
		return annotateStatement(ast.NewLabelStatement(name), node), nil
	case "ERROR":
		return nil, syntaxError(node, source)
	default:
		return nil, &ParseError{Message: fmt.Sprintf("unsupported statement %q", node.Kind()), Range: rangeFromNode(node)}
	}
}

func parseReturnStatement(node *sitter.Node, source []byte) (*ast.ReturnStatement, error) {
	values, err := parseExpressionList(findNamedChild(node, "expression_list"), source)
	if err != nil {
		return nil, err
	}
	ret := ast.NewReturnStatement(values)
	annotateRange(ret, node)
	return ret, nil
}

func parseExpressionList(node *sitter.Node, source []byte) ([]ast.Expression, error) {
	if node == nil {
		return nil, nil
	}
	children := namedChildren(node)
	out := make([]ast.Expression, 0, len(children))
	for _, child := range children {
		expr, err := parseExpression(child, source)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func parseAssignmentStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	targets, err := parseExpressionList(findNamedChild(node, "variable_list"), source)
	if err != nil {
		return nil, err
	}
	for _, target := range targets {
		switch target.(type) {
		case *ast.Identifier, *ast.IndexExpression:
		default:
			return nil, &ParseError{Message: "cannot assign to expression", Range: target.Range()}
		}
	}
	values, err := parseExpressionList(findNamedChild(node, "expression_list"), source)
	if err != nil {
		return nil, err
	}
	return annotateStatement(ast.NewAssignmentStatement(targets, values), node), nil
}

// parseVariableDeclaration handles `local a <const>, b = ...` and the bare
// `local a, b` form, whose names sit directly under the declaration.
func parseVariableDeclaration(node *sitter.Node, source []byte) (ast.Statement, error) {
	var (
		namesNode  *sitter.Node
		valuesNode *sitter.Node
	)
	if list := findNamedChild(node, "variable_list"); list != nil {
		namesNode = list
	} else if assign := findNamedChild(node, "assignment_statement"); assign != nil {
		namesNode = findNamedChild(assign, "variable_list")
		valuesNode = findNamedChild(assign, "expression_list")
	}
	if namesNode == nil {
		return nil, &ParseError{Message: "malformed local declaration", Range: rangeFromNode(node)}
	}

	var (
		names      []*ast.Identifier
		attributes []string
	)
	for _, child := range namedChildren(namesNode) {
		switch child.Kind() {
		case "identifier":
			id, err := parseIdentifier(child, source)
			if err != nil {
				return nil, err
			}
			names = append(names, id)
			attributes = append(attributes, "")
		case "attribute":
			if len(attributes) == 0 {
				return nil, &ParseError{Message: "attribute without name", Range: rangeFromNode(child)}
			}
			attributes[len(attributes)-1] = sliceContent(findNamedChild(child, "identifier"), source)
		}
	}
	values, err := parseExpressionList(valuesNode, source)
	if err != nil {
		return nil, err
	}
	hasAttribute := false
	for _, a := range attributes {
		if a != "" {
			hasAttribute = true
		}
	}
	if !hasAttribute {
		attributes = nil
	}
	return annotateStatement(ast.NewLocalStatement(names, attributes, values), node), nil
}

func parseFunctionDeclaration(node *sitter.Node, source []byte) (ast.Statement, error) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil, &ParseError{Message: "function declaration missing name", Range: rangeFromNode(node)}
	}
	isLocal := hasToken(node, "local")

	var (
		target ast.Expression
		method bool
		err    error
	)
	switch nameNode.Kind() {
	case "method_index_expression":
		table, tErr := parseExpression(nameNode.ChildByFieldName("table"), source)
		if tErr != nil {
			return nil, tErr
		}
		methodNode := nameNode.ChildByFieldName("method")
		key := ast.NewStringLiteral(sliceContent(methodNode, source), sliceContent(methodNode, source))
		annotateRange(key, methodNode)
		target = annotateExpression(ast.NewIndexExpression(table, key, true), nameNode)
		method = true
	default:
		target, err = parseExpression(nameNode, source)
		if err != nil {
			return nil, err
		}
	}

	fn, err := parseFunctionBody(node, source, sliceContent(nameNode, source))
	if err != nil {
		return nil, err
	}
	if method {
		self := ast.NewIdentifier("self")
		fn.Parameters = append([]*ast.Identifier{self}, fn.Parameters...)
	}
	return annotateStatement(ast.NewFunctionDeclaration(target, method, isLocal, fn), node), nil
}

func parseIfStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	cond, err := parseExpression(node.ChildByFieldName("condition"), source)
	if err != nil {
		return nil, err
	}
	body, err := parseBlock(node.ChildByFieldName("consequence"), source)
	if err != nil {
		return nil, err
	}
	first := ast.NewIfClause(cond, body)
	annotateRange(first, node)
	clauses := []*ast.IfClause{first}

	var elseBody *ast.Block
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "elseif_statement":
			c, err := parseExpression(child.ChildByFieldName("condition"), source)
			if err != nil {
				return nil, err
			}
			b, err := parseBlock(child.ChildByFieldName("consequence"), source)
			if err != nil {
				return nil, err
			}
			clause := ast.NewIfClause(c, b)
			annotateRange(clause, child)
			clauses = append(clauses, clause)
		case "else_statement":
			elseBody, err = parseBlock(child.ChildByFieldName("body"), source)
			if err != nil {
				return nil, err
			}
		}
	}
	return annotateStatement(ast.NewIfStatement(clauses, elseBody), node), nil
}

func parseForStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	clause := node.ChildByFieldName("clause")
	if clause == nil {
		return nil, &ParseError{Message: "for statement missing clause", Range: rangeFromNode(node)}
	}
	body, err := parseBlock(node.ChildByFieldName("body"), source)
	if err != nil {
		return nil, err
	}

	switch clause.Kind() {
	case "for_numeric_clause":
		variable, err := parseIdentifier(clause.ChildByFieldName("name"), source)
		if err != nil {
			return nil, err
		}
		start, err := parseExpression(clause.ChildByFieldName("start"), source)
		if err != nil {
			return nil, err
		}
		limit, err := parseExpression(clause.ChildByFieldName("end"), source)
		if err != nil {
			return nil, err
		}
		var step ast.Expression
		if stepNode := clause.ChildByFieldName("step"); stepNode != nil {
			step, err = parseExpression(stepNode, source)
			if err != nil {
				return nil, err
			}
		}
		return annotateStatement(ast.NewNumericForStatement(variable, start, limit, step, body), node), nil
	case "for_generic_clause":
		var names []*ast.Identifier
		for _, child := range namedChildren(findNamedChild(clause, "variable_list")) {
			id, err := parseIdentifier(child, source)
			if err != nil {
				return nil, err
			}
			names = append(names, id)
		}
		values, err := parseExpressionList(findNamedChild(clause, "expression_list"), source)
		if err != nil {
			return nil, err
		}
		return annotateStatement(ast.NewGenericForStatement(names, values, body), node), nil
	}
	return nil, &ParseError{Message: fmt.Sprintf("unsupported for clause %q", clause.Kind()), Range: rangeFromNode(clause)}
}
