package ast

import "fmt"

// Location is a position in source text. Line and Column are 1-based,
// Column counts bytes; Byte is the 0-based offset into the buffer.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Byte   int `json:"byte"`
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Range is the half-open byte interval [Start.Byte, End.Byte).
type Range struct {
	Start Location `json:"start"`
	End   Location `json:"end"`
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

func (r Range) Len() int {
	return r.End.Byte - r.Start.Byte
}

func (r Range) IsZero() bool {
	return r == Range{}
}

// Overlaps reports whether the two ranges share at least one byte. Two empty
// ranges at the same offset also overlap since their insertions conflict.
func (r Range) Overlaps(other Range) bool {
	if r.Start.Byte == other.Start.Byte {
		return true
	}
	return r.Start.Byte < other.End.Byte && other.Start.Byte < r.End.Byte
}

func (r Range) Contains(offset int) bool {
	return offset >= r.Start.Byte && offset < r.End.Byte
}

// SetRange annotates the node with the provided range.
func SetRange(node Node, span Range) {
	if node == nil {
		return
	}
	if setter, ok := node.(interface{ setRange(Range) }); ok {
		setter.setRange(span)
	}
}

// Walk visits node and its descendants depth first until fn returns false.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, child := range children(node) {
		Walk(child, fn)
	}
}

func children(node Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, n := range nodes {
			if n != nil && !isNilNode(n) {
				out = append(out, n)
			}
		}
	}
	addExprs := func(exprs []Expression) {
		for _, e := range exprs {
			add(e)
		}
	}
	switch n := node.(type) {
	case *Chunk:
		add(n.Body)
	case *Block:
		for _, s := range n.Statements {
			add(s)
		}
		if n.Return != nil {
			add(n.Return)
		}
	case *IndexExpression:
		add(n.Table, n.Key)
	case *FunctionCall:
		add(n.Callee)
		if n.Method != nil {
			add(n.Method)
		}
		addExprs(n.Arguments)
	case *FunctionExpression:
		for _, p := range n.Parameters {
			add(p)
		}
		add(n.Body)
	case *ParenthesizedExpression:
		add(n.Inner)
	case *TableConstructor:
		for _, f := range n.Fields {
			add(f)
		}
	case *TableField:
		add(n.Key, n.Value)
	case *BinaryExpression:
		add(n.Left, n.Right)
	case *UnaryExpression:
		add(n.Operand)
	case *LocalStatement:
		for _, id := range n.Names {
			add(id)
		}
		addExprs(n.Values)
	case *AssignmentStatement:
		addExprs(n.Targets)
		addExprs(n.Values)
	case *DoStatement:
		add(n.Body)
	case *WhileStatement:
		add(n.Condition, n.Body)
	case *RepeatStatement:
		add(n.Body, n.Condition)
	case *IfStatement:
		for _, c := range n.Clauses {
			add(c)
		}
		if n.Else != nil {
			add(n.Else)
		}
	case *IfClause:
		add(n.Condition, n.Body)
	case *NumericForStatement:
		add(n.Variable, n.Start, n.Limit, n.Step, n.Body)
	case *GenericForStatement:
		for _, id := range n.Names {
			add(id)
		}
		addExprs(n.Values)
		add(n.Body)
	case *FunctionDeclaration:
		add(n.Target, n.Function)
	case *ReturnStatement:
		addExprs(n.Values)
	case *GotoStatement:
		add(n.Label)
	case *LabelStatement:
		add(n.Name)
	}
	return out
}

// isNilNode catches typed nil pointers stored in interfaces.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Block:
		return v == nil
	case *Identifier:
		return v == nil
	case *ReturnStatement:
		return v == nil
	case *FunctionExpression:
		return v == nil
	}
	return false
}
