package runtime

import (
	"errors"
	"fmt"

	"minilua/interpreter-go/pkg/ast"
)

// ErrStepBudgetExceeded aborts evaluation once the step limit is reached.
// pcall does not catch it.
var ErrStepBudgetExceeded = errors.New("step budget exceeded")

// TypeError reports an operator or library function applied to operands of
// the wrong kind. Unary errors only use Left.
type TypeError struct {
	Op     string
	Left   Kind
	Right  Kind
	Unary  bool
	Detail string
	Range  ast.Range
}

func (e *TypeError) Error() string {
	msg := e.Detail
	if msg == "" {
		if e.Unary || e.Left == e.Right {
			msg = fmt.Sprintf("attempt to %s a %s value", e.Op, e.Left)
		} else {
			msg = fmt.Sprintf("attempt to %s a %s value with a %s value", e.Op, e.Left, e.Right)
		}
	} else {
		msg = fmt.Sprintf("%s (%s)", e.Op, e.Detail)
	}
	return withPosition(e.Range, msg)
}

// NameError reports a read of an undefined global when strict globals are on.
type NameError struct {
	Name  string
	Range ast.Range
}

func (e *NameError) Error() string {
	return withPosition(e.Range, fmt.Sprintf("undefined variable '%s'", e.Name))
}

// LuaError is a value raised with error(); pcall returns Value to the program.
type LuaError struct {
	Value Value
	Range ast.Range
}

func (e *LuaError) Error() string {
	if s, ok := e.Value.AsString(); ok {
		return withPosition(e.Range, s)
	}
	if e.Value.IsNil() {
		return withPosition(e.Range, "nil")
	}
	return withPosition(e.Range, fmt.Sprintf("(error object is a %s value)", e.Value.Kind()))
}

func withPosition(r ast.Range, msg string) string {
	if r.IsZero() {
		return msg
	}
	return fmt.Sprintf("%s: %s", r.Start, msg)
}
