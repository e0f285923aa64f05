package runtime

import (
	"bufio"
	"io"
	"os"
	"sort"
)

// shared is the state every scope of one interpreter points at.
type shared struct {
	globals       *Table
	stdin         *bufio.Reader
	stdout        io.Writer
	stderr        io.Writer
	strictGlobals bool
}

// Environment is one scope in the lexical chain. Each binding is a cell, so
// a closure and its defining scope share writes to the same local while a
// later redeclaration gets a cell of its own. Name lookups fall through to
// the global table after the outermost scope.
type Environment struct {
	values  map[string]*Value
	parent  *Environment
	shared  *shared
	varargs Vallist
	isCall  bool
}

// NewEnvironment creates a root scope with an empty global table wired to the
// process standard streams.
func NewEnvironment() *Environment {
	return &Environment{
		values: make(map[string]*Value),
		shared: &shared{
			globals: NewTable(),
			stdin:   bufio.NewReader(os.Stdin),
			stdout:  os.Stdout,
			stderr:  os.Stderr,
		},
		isCall: true,
	}
}

// Parent exposes the lexical parent (nil at the root).
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Extend creates a nested block scope.
func (e *Environment) Extend() *Environment {
	return &Environment{values: make(map[string]*Value), parent: e, shared: e.shared}
}

// Capture returns a scope holding the cells visible from e right now. A
// closure created over it keeps seeing these bindings even if a name is
// declared again in e afterwards.
func (e *Environment) Capture() *Environment {
	var chain []*Environment
	for scope := e; scope != nil; scope = scope.parent {
		chain = append(chain, scope)
	}
	values := make(map[string]*Value)
	for idx := len(chain) - 1; idx >= 0; idx-- {
		for name, cell := range chain[idx].values {
			values[name] = cell
		}
	}
	return &Environment{values: values, shared: e.shared}
}

// NewCallScope creates the scope of a function invocation holding its varargs.
func (e *Environment) NewCallScope(varargs Vallist) *Environment {
	child := e.Extend()
	child.varargs = varargs
	child.isCall = true
	return child
}

// Varargs returns the varargs of the innermost enclosing call.
func (e *Environment) Varargs() Vallist {
	for scope := e; scope != nil; scope = scope.parent {
		if scope.isCall {
			return scope.varargs
		}
	}
	return nil
}

// Global exposes the global table for host injection.
func (e *Environment) Global() *Table {
	return e.shared.globals
}

// DeclareLocal creates a new binding in this scope, shadowing any earlier one
// of the same name.
func (e *Environment) DeclareLocal(name string, value Value) {
	cell := value
	e.values[name] = &cell
}

// Lookup walks outward to the global table. found is false only when no scope
// binds name and the global is nil.
func (e *Environment) Lookup(name string) (Value, bool) {
	for scope := e; scope != nil; scope = scope.parent {
		if cell, ok := scope.values[name]; ok {
			return *cell, true
		}
	}
	v := e.shared.globals.GetString(name)
	return v, !v.IsNil()
}

// Get is Lookup without the presence flag.
func (e *Environment) Get(name string) Value {
	v, _ := e.Lookup(name)
	return v
}

// Assign updates the innermost binding of name. Undeclared names become
// globals.
func (e *Environment) Assign(name string, value Value) {
	for scope := e; scope != nil; scope = scope.parent {
		if cell, ok := scope.values[name]; ok {
			*cell = value
			return
		}
	}
	e.shared.globals.SetString(name, value)
}

// IsLocal reports whether some enclosing scope binds name.
func (e *Environment) IsLocal(name string) bool {
	for scope := e; scope != nil; scope = scope.parent {
		if _, ok := scope.values[name]; ok {
			return true
		}
	}
	return false
}

// Keys returns the bindings of this scope in sorted order.
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *Environment) StrictGlobals() bool         { return e.shared.strictGlobals }
func (e *Environment) SetStrictGlobals(strict bool) { e.shared.strictGlobals = strict }

func (e *Environment) Stdin() *bufio.Reader { return e.shared.stdin }
func (e *Environment) Stdout() io.Writer     { return e.shared.stdout }
func (e *Environment) Stderr() io.Writer     { return e.shared.stderr }

func (e *Environment) SetStdin(r io.Reader) {
	e.shared.stdin = bufio.NewReader(r)
}

func (e *Environment) SetStdout(w io.Writer) { e.shared.stdout = w }
func (e *Environment) SetStderr(w io.Writer) { e.shared.stderr = w }
