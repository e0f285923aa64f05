package ast

type NodeType string

const (
	NodeChunk                   NodeType = "Chunk"
	NodeBlock                   NodeType = "Block"
	NodeIdentifier              NodeType = "Identifier"
	NodeNilLiteral              NodeType = "NilLiteral"
	NodeBooleanLiteral          NodeType = "BooleanLiteral"
	NodeNumberLiteral           NodeType = "NumberLiteral"
	NodeStringLiteral           NodeType = "StringLiteral"
	NodeVarargExpression        NodeType = "VarargExpression"
	NodeIndexExpression         NodeType = "IndexExpression"
	NodeFunctionCall            NodeType = "FunctionCall"
	NodeFunctionExpression      NodeType = "FunctionExpression"
	NodeParenthesizedExpression NodeType = "ParenthesizedExpression"
	NodeTableConstructor        NodeType = "TableConstructor"
	NodeTableField              NodeType = "TableField"
	NodeBinaryExpression        NodeType = "BinaryExpression"
	NodeUnaryExpression         NodeType = "UnaryExpression"
	NodeLocalStatement          NodeType = "LocalStatement"
	NodeAssignmentStatement     NodeType = "AssignmentStatement"
	NodeDoStatement             NodeType = "DoStatement"
	NodeWhileStatement          NodeType = "WhileStatement"
	NodeRepeatStatement         NodeType = "RepeatStatement"
	NodeIfStatement             NodeType = "IfStatement"
	NodeIfClause                NodeType = "IfClause"
	NodeNumericForStatement     NodeType = "NumericForStatement"
	NodeGenericForStatement     NodeType = "GenericForStatement"
	NodeFunctionDeclaration     NodeType = "FunctionDeclaration"
	NodeReturnStatement         NodeType = "ReturnStatement"
	NodeBreakStatement          NodeType = "BreakStatement"
	NodeGotoStatement           NodeType = "GotoStatement"
	NodeLabelStatement          NodeType = "LabelStatement"
)

type Node interface {
	NodeType() NodeType
	Range() Range
	isNode()
}

type nodeImpl struct {
	Type NodeType `json:"type"`
	Span Range    `json:"range"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n *nodeImpl) NodeType() NodeType  { return n.Type }
func (n *nodeImpl) Range() Range        { return n.Span }
func (n *nodeImpl) setRange(span Range) { n.Span = span }
func (*nodeImpl) isNode()               {}

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

// Literal nodes are the leaves reverse evaluation rewrites in place.
type Literal interface {
	Expression
	literalNode()
}

type literalMarker struct{}

func (literalMarker) literalNode() {}

// Chunk is the root of a parsed source file.
type Chunk struct {
	nodeImpl

	Body *Block `json:"body"`
}

func NewChunk(body *Block) *Chunk {
	return &Chunk{nodeImpl: newNodeImpl(NodeChunk), Body: body}
}

// Block is a statement sequence with an optional trailing return.
type Block struct {
	nodeImpl

	Statements []Statement       `json:"statements"`
	Return     *ReturnStatement `json:"return,omitempty"`
}

func NewBlock(statements []Statement, ret *ReturnStatement) *Block {
	return &Block{nodeImpl: newNodeImpl(NodeBlock), Statements: statements, Return: ret}
}

type Identifier struct {
	nodeImpl
	expressionMarker

	Name string `json:"name"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

// Literals

type NilLiteral struct {
	nodeImpl
	expressionMarker
	literalMarker
}

func NewNilLiteral() *NilLiteral {
	return &NilLiteral{nodeImpl: newNodeImpl(NodeNilLiteral)}
}

type BooleanLiteral struct {
	nodeImpl
	expressionMarker
	literalMarker

	Value bool `json:"value"`
}

func NewBooleanLiteral(value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeImpl: newNodeImpl(NodeBooleanLiteral), Value: value}
}

type NumberLiteral struct {
	nodeImpl
	expressionMarker
	literalMarker

	Value float64 `json:"value"`
	Raw   string  `json:"raw"`
}

func NewNumberLiteral(value float64, raw string) *NumberLiteral {
	return &NumberLiteral{nodeImpl: newNodeImpl(NodeNumberLiteral), Value: value, Raw: raw}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker
	literalMarker

	Value string `json:"value"`
	Raw   string `json:"raw"`
}

func NewStringLiteral(value, raw string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value, Raw: raw}
}

type VarargExpression struct {
	nodeImpl
	expressionMarker
}

func NewVarargExpression() *VarargExpression {
	return &VarargExpression{nodeImpl: newNodeImpl(NodeVarargExpression)}
}

// Expressions

// IndexExpression covers both t[k] and t.k; for the dotted form Key is a
// StringLiteral spanning the field name.
type IndexExpression struct {
	nodeImpl
	expressionMarker

	Table Expression `json:"table"`
	Key   Expression `json:"key"`
	Dot   bool       `json:"dot,omitempty"`
}

func NewIndexExpression(table, key Expression, dot bool) *IndexExpression {
	return &IndexExpression{nodeImpl: newNodeImpl(NodeIndexExpression), Table: table, Key: key, Dot: dot}
}

// FunctionCall is both an expression and a statement. Method is set for
// `obj:name(args)` calls, where the receiver is passed as the first argument.
type FunctionCall struct {
	nodeImpl
	expressionMarker
	statementMarker

	Callee    Expression   `json:"callee"`
	Method    *Identifier  `json:"method,omitempty"`
	Arguments []Expression `json:"arguments"`
}

func NewFunctionCall(callee Expression, method *Identifier, args []Expression) *FunctionCall {
	return &FunctionCall{nodeImpl: newNodeImpl(NodeFunctionCall), Callee: callee, Method: method, Arguments: args}
}

type FunctionExpression struct {
	nodeImpl
	expressionMarker

	Name       string        `json:"name,omitempty"`
	Parameters []*Identifier `json:"parameters"`
	IsVararg   bool          `json:"isVararg,omitempty"`
	Body       *Block        `json:"body"`
}

func NewFunctionExpression(params []*Identifier, isVararg bool, body *Block) *FunctionExpression {
	return &FunctionExpression{nodeImpl: newNodeImpl(NodeFunctionExpression), Parameters: params, IsVararg: isVararg, Body: body}
}

// ParenthesizedExpression truncates multiple results to one.
type ParenthesizedExpression struct {
	nodeImpl
	expressionMarker

	Inner Expression `json:"inner"`
}

func NewParenthesizedExpression(inner Expression) *ParenthesizedExpression {
	return &ParenthesizedExpression{nodeImpl: newNodeImpl(NodeParenthesizedExpression), Inner: inner}
}

type TableConstructor struct {
	nodeImpl
	expressionMarker

	Fields []*TableField `json:"fields"`
}

func NewTableConstructor(fields []*TableField) *TableConstructor {
	return &TableConstructor{nodeImpl: newNodeImpl(NodeTableConstructor), Fields: fields}
}

// TableField is positional when Key is nil.
type TableField struct {
	nodeImpl

	Key   Expression `json:"key,omitempty"`
	Value Expression `json:"value"`
}

func NewTableField(key, value Expression) *TableField {
	return &TableField{nodeImpl: newNodeImpl(NodeTableField), Key: key, Value: value}
}

type BinaryExpression struct {
	nodeImpl
	expressionMarker

	Operator string     `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

func NewBinaryExpression(operator string, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: operator, Left: left, Right: right}
}

type UnaryExpression struct {
	nodeImpl
	expressionMarker

	Operator string     `json:"operator"`
	Operand  Expression `json:"operand"`
}

func NewUnaryExpression(operator string, operand Expression) *UnaryExpression {
	return &UnaryExpression{nodeImpl: newNodeImpl(NodeUnaryExpression), Operator: operator, Operand: operand}
}
