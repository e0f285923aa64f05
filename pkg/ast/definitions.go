package ast

// Statements

type LocalStatement struct {
	nodeImpl
	statementMarker

	Names      []*Identifier `json:"names"`
	Attributes []string      `json:"attributes,omitempty"`
	Values     []Expression  `json:"values,omitempty"`
}

func NewLocalStatement(names []*Identifier, attributes []string, values []Expression) *LocalStatement {
	return &LocalStatement{nodeImpl: newNodeImpl(NodeLocalStatement), Names: names, Attributes: attributes, Values: values}
}

// AssignmentStatement targets are Identifiers or IndexExpressions.
type AssignmentStatement struct {
	nodeImpl
	statementMarker

	Targets []Expression `json:"targets"`
	Values  []Expression `json:"values"`
}

func NewAssignmentStatement(targets, values []Expression) *AssignmentStatement {
	return &AssignmentStatement{nodeImpl: newNodeImpl(NodeAssignmentStatement), Targets: targets, Values: values}
}

type DoStatement struct {
	nodeImpl
	statementMarker

	Body *Block `json:"body"`
}

func NewDoStatement(body *Block) *DoStatement {
	return &DoStatement{nodeImpl: newNodeImpl(NodeDoStatement), Body: body}
}

type WhileStatement struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
	Body      *Block     `json:"body"`
}

func NewWhileStatement(condition Expression, body *Block) *WhileStatement {
	return &WhileStatement{nodeImpl: newNodeImpl(NodeWhileStatement), Condition: condition, Body: body}
}

// RepeatStatement evaluates Condition inside the body's scope.
type RepeatStatement struct {
	nodeImpl
	statementMarker

	Body      *Block     `json:"body"`
	Condition Expression `json:"condition"`
}

func NewRepeatStatement(body *Block, condition Expression) *RepeatStatement {
	return &RepeatStatement{nodeImpl: newNodeImpl(NodeRepeatStatement), Body: body, Condition: condition}
}

type IfClause struct {
	nodeImpl

	Condition Expression `json:"condition"`
	Body      *Block     `json:"body"`
}

func NewIfClause(condition Expression, body *Block) *IfClause {
	return &IfClause{nodeImpl: newNodeImpl(NodeIfClause), Condition: condition, Body: body}
}

// IfStatement holds the `if` clause followed by every `elseif`.
type IfStatement struct {
	nodeImpl
	statementMarker

	Clauses []*IfClause `json:"clauses"`
	Else    *Block      `json:"else,omitempty"`
}

func NewIfStatement(clauses []*IfClause, elseBody *Block) *IfStatement {
	return &IfStatement{nodeImpl: newNodeImpl(NodeIfStatement), Clauses: clauses, Else: elseBody}
}

type NumericForStatement struct {
	nodeImpl
	statementMarker

	Variable *Identifier `json:"variable"`
	Start    Expression  `json:"start"`
	Limit    Expression  `json:"limit"`
	Step     Expression  `json:"step,omitempty"`
	Body     *Block      `json:"body"`
}

func NewNumericForStatement(variable *Identifier, start, limit, step Expression, body *Block) *NumericForStatement {
	return &NumericForStatement{nodeImpl: newNodeImpl(NodeNumericForStatement), Variable: variable, Start: start, Limit: limit, Step: step, Body: body}
}

type GenericForStatement struct {
	nodeImpl
	statementMarker

	Names  []*Identifier `json:"names"`
	Values []Expression  `json:"values"`
	Body   *Block        `json:"body"`
}

func NewGenericForStatement(names []*Identifier, values []Expression, body *Block) *GenericForStatement {
	return &GenericForStatement{nodeImpl: newNodeImpl(NodeGenericForStatement), Names: names, Values: values, Body: body}
}

// FunctionDeclaration is `function a.b:c() end` or `local function f() end`.
// Target is an Identifier or an IndexExpression; Method adds the implicit
// `self` parameter.
type FunctionDeclaration struct {
	nodeImpl
	statementMarker

	Target   Expression          `json:"target"`
	Method   bool                `json:"method,omitempty"`
	IsLocal  bool                `json:"isLocal,omitempty"`
	Function *FunctionExpression `json:"function"`
}

func NewFunctionDeclaration(target Expression, method, isLocal bool, fn *FunctionExpression) *FunctionDeclaration {
	return &FunctionDeclaration{nodeImpl: newNodeImpl(NodeFunctionDeclaration), Target: target, Method: method, IsLocal: isLocal, Function: fn}
}

type ReturnStatement struct {
	nodeImpl
	statementMarker

	Values []Expression `json:"values,omitempty"`
}

func NewReturnStatement(values []Expression) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Values: values}
}

type BreakStatement struct {
	nodeImpl
	statementMarker
}

func NewBreakStatement() *BreakStatement {
	return &BreakStatement{nodeImpl: newNodeImpl(NodeBreakStatement)}
}

type GotoStatement struct {
	nodeImpl
	statementMarker

	Label *Identifier `json:"label"`
}

func NewGotoStatement(label *Identifier) *GotoStatement {
	return &GotoStatement{nodeImpl: newNodeImpl(NodeGotoStatement), Label: label}
}

type LabelStatement struct {
	nodeImpl
	statementMarker

	Name *Identifier `json:"name"`
}

func NewLabelStatement(name *Identifier) *LabelStatement {
	return &LabelStatement{nodeImpl: newNodeImpl(NodeLabelStatement), Name: name}
}
