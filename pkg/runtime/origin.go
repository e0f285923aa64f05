package runtime

import (
	"fmt"

	"minilua/interpreter-go/pkg/ast"
)

// Origin records how a value was produced. Composite origins keep the operand
// values themselves (with their own origins), which is what reverse
// evaluation needs to invert an operator. Origins are immutable.
type Origin interface {
	String() string
	isOrigin()
}

// NoOrigin marks values with no traceable source, such as defaults.
type NoOrigin struct{}

// ExternalOrigin marks values produced outside the program: natives and host
// injection.
type ExternalOrigin struct{}

// LiteralOrigin points at the literal token that produced the value.
type LiteralOrigin struct {
	Range ast.Range
}

type UnaryOrigin struct {
	Op      string
	Operand Value
	Range   ast.Range
}

type BinaryOrigin struct {
	Op    string
	LHS   Value
	RHS   Value
	Range ast.Range
}

func (NoOrigin) isOrigin()       {}
func (ExternalOrigin) isOrigin() {}
func (LiteralOrigin) isOrigin()  {}
func (UnaryOrigin) isOrigin()    {}
func (BinaryOrigin) isOrigin()   {}

func (NoOrigin) String() string       { return "none" }
func (ExternalOrigin) String() string { return "external" }

func (o LiteralOrigin) String() string {
	return fmt.Sprintf("literal@%s", o.Range)
}

func (o UnaryOrigin) String() string {
	return fmt.Sprintf("unary(%s %s)", o.Op, o.Operand.Origin())
}

func (o BinaryOrigin) String() string {
	return fmt.Sprintf("binary(%s %s %s)", o.LHS.Origin(), o.Op, o.RHS.Origin())
}

// WithExternalOrigin re-tags every value of a native result.
func WithExternalOrigin(values Vallist) Vallist {
	out := make(Vallist, len(values))
	for i, v := range values {
		out[i] = v.WithOrigin(ExternalOrigin{})
	}
	return out
}
