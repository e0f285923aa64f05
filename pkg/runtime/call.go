package runtime

import (
	"fmt"

	"minilua/interpreter-go/pkg/ast"
	"minilua/interpreter-go/pkg/sourcechange"
)

// NativeFunction is the signature of host and library functions.
type NativeFunction func(*CallContext) (CallResult, error)

// Function is either a closure over a defining Environment or a native
// callback. Exactly one of Native and Decl is set.
type Function struct {
	Name    string
	Native  NativeFunction
	Decl    *ast.FunctionExpression
	Closure *Environment
}

func NewNativeFunction(name string, fn NativeFunction) *Function {
	return &Function{Name: name, Native: fn}
}

func NewClosure(decl *ast.FunctionExpression, closure *Environment) *Function {
	name := decl.Name
	if name == "" {
		name = "anonymous"
	}
	return &Function{Name: name, Decl: decl, Closure: closure}
}

// Caller lets natives call back into the evaluator (pcall, iterators).
type Caller interface {
	Call(fn Value, args Vallist, site ast.Range) (CallResult, error)
}

// CallContext is what a callee sees of its call site.
type CallContext struct {
	Env      *Environment
	Args     Vallist
	Location ast.Range
	Name     string
	Caller   Caller
}

// CallResult carries the callee's results and any source change the call
// requested.
type CallResult struct {
	Values       Vallist
	SourceChange sourcechange.Tree
}

// Results builds a CallResult without a source change.
func Results(values ...Value) CallResult {
	return CallResult{Values: values}
}

// Arg returns the i-th argument (0-based) or nil.
func (c *CallContext) Arg(i int) Value {
	return c.Args.Get(i)
}

// Call invokes fn through the evaluator that issued this call.
func (c *CallContext) Call(fn Value, args Vallist) (CallResult, error) {
	if c.Caller == nil {
		return CallResult{}, fmt.Errorf("%s: no caller available", c.Name)
	}
	return c.Caller.Call(fn, args, c.Location)
}

// CheckArg returns the i-th argument when it has the expected kind.
func (c *CallContext) CheckArg(i int, kind Kind) (Value, error) {
	v := c.Arg(i)
	if v.Kind() != kind {
		return Nil(), c.argError(i, kind.String(), v)
	}
	return v, nil
}

// CheckNumber accepts numbers and numeric strings.
func (c *CallContext) CheckNumber(i int) (float64, error) {
	v := c.Arg(i)
	n, ok := ToNumber(v)
	if !ok {
		return 0, c.argError(i, "number", v)
	}
	return n, nil
}

// OptNumber returns def when the argument is absent or nil.
func (c *CallContext) OptNumber(i int, def float64) (float64, error) {
	if c.Arg(i).IsNil() {
		return def, nil
	}
	return c.CheckNumber(i)
}

// CheckString accepts strings and numbers, like the standard library does.
func (c *CallContext) CheckString(i int) (string, error) {
	v := c.Arg(i)
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		return s, nil
	case KindNumber:
		return v.String(), nil
	}
	return "", c.argError(i, "string", v)
}

// CheckTable returns the i-th argument as a table.
func (c *CallContext) CheckTable(i int) (*Table, error) {
	v := c.Arg(i)
	t, ok := v.AsTable()
	if !ok {
		return nil, c.argError(i, "table", v)
	}
	return t, nil
}

// OptTable returns the i-th argument as a table, or nil when it is nil.
func (c *CallContext) OptTable(i int) (*Table, error) {
	v := c.Arg(i)
	if v.IsNil() {
		return nil, nil
	}
	t, ok := v.AsTable()
	if !ok {
		return nil, c.argError(i, "nil or table", v)
	}
	return t, nil
}

// Errorf raises a catchable error positioned at the call site.
func (c *CallContext) Errorf(format string, args ...any) error {
	return &LuaError{Value: String(fmt.Sprintf(format, args...)), Range: c.Location}
}

func (c *CallContext) argError(i int, expected string, got Value) error {
	return &TypeError{
		Op:     fmt.Sprintf("bad argument #%d to '%s'", i+1, c.Name),
		Left:   got.Kind(),
		Right:  got.Kind(),
		Unary:  true,
		Detail: fmt.Sprintf("%s expected, got %s", expected, describeArg(got, i, len(c.Args))),
		Range:  c.Location,
	}
}

func describeArg(v Value, i, n int) string {
	if i >= n {
		return "no value"
	}
	return v.Kind().String()
}
