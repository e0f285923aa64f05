// Package stdlib registers the native library into an interpreter's global
// table. Every native follows the call boundary contract: it reads its
// arguments from a runtime.CallContext and answers with a runtime.CallResult.
package stdlib

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"minilua/interpreter-go/pkg/runtime"
	"minilua/interpreter-go/pkg/sourcechange"
)

// Register installs the base functions and the math, string, table and io
// libraries into env's global table.
func Register(env *runtime.Environment) {
	g := env.Global()
	register(g, map[string]runtime.NativeFunction{
		"print":          printValues,
		"type":           typeOf,
		"tostring":       tostring,
		"tonumber":       tonumber,
		"force":          force,
		"discard_origin": discardOrigin,
		"error":          raise,
		"assert":         assert,
		"pcall":          pcall,
		"select":         selectArgs,
		"pairs":          pairs,
		"ipairs":         ipairs,
		"next":           next,
		"rawequal":       rawequal,
		"rawget":         rawget,
		"rawset":         rawset,
		"setmetatable":   setmetatable,
		"getmetatable":   getmetatable,
		"unpack":         unpack,
	})
	g.SetString("math", runtime.TableValue(mathLibrary()))
	g.SetString("string", runtime.TableValue(stringLibrary()))
	g.SetString("table", runtime.TableValue(tableLibrary()))
	g.SetString("io", runtime.TableValue(ioLibrary()))
}

func register(t *runtime.Table, fns map[string]runtime.NativeFunction) {
	for name, fn := range fns {
		t.SetString(name, runtime.FunctionValue(runtime.NewNativeFunction(name, fn)))
	}
}

func library(fns map[string]runtime.NativeFunction) *runtime.Table {
	t := runtime.NewTable()
	register(t, fns)
	return t
}

func printValues(ctx *runtime.CallContext) (runtime.CallResult, error) {
	parts := make([]string, len(ctx.Args))
	for i, v := range ctx.Args {
		parts[i] = v.String()
	}
	if _, err := fmt.Fprintln(ctx.Env.Stdout(), strings.Join(parts, "\t")); err != nil {
		return runtime.CallResult{}, err
	}
	return runtime.Results(), nil
}

func typeOf(ctx *runtime.CallContext) (runtime.CallResult, error) {
	if len(ctx.Args) == 0 {
		return runtime.CallResult{}, ctx.Errorf("bad argument #1 to 'type' (value expected)")
	}
	return runtime.Results(runtime.String(ctx.Arg(0).Kind().String())), nil
}

func tostring(ctx *runtime.CallContext) (runtime.CallResult, error) {
	return runtime.Results(runtime.String(ctx.Arg(0).String())), nil
}

// tonumber converts numeric strings, optionally in a base between 2 and 36.
// Anything unconvertible yields nil.
func tonumber(ctx *runtime.CallContext) (runtime.CallResult, error) {
	v := ctx.Arg(0)
	if ctx.Arg(1).IsNil() {
		if n, ok := runtime.ToNumber(v); ok {
			return runtime.Results(runtime.Number(n)), nil
		}
		return runtime.Results(runtime.Nil()), nil
	}
	base, err := ctx.CheckNumber(1)
	if err != nil {
		return runtime.CallResult{}, err
	}
	if base < 2 || base > 36 {
		return runtime.CallResult{}, ctx.Errorf("bad argument #2 to 'tonumber' (base out of range)")
	}
	s, err := ctx.CheckString(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	n, perr := strconv.ParseInt(strings.ToLower(strings.TrimSpace(s)), int(base), 64)
	if perr != nil {
		return runtime.Results(runtime.Nil()), nil
	}
	return runtime.Results(runtime.Number(float64(n))), nil
}

// force requests the source edits that make its first argument evaluate to
// its second. The edits are returned as the call's source change.
func force(ctx *runtime.CallContext) (runtime.CallResult, error) {
	value, target := ctx.Arg(0), ctx.Arg(1)
	if value.IsNil() || target.IsNil() {
		return runtime.CallResult{}, ctx.Errorf("force requires two arguments (old_value and new_value)")
	}
	tree := runtime.Force(value, target)
	if !sourcechange.IsNoop(tree) && !sourcechange.IsUnrealizable(tree) {
		tree = sourcechange.WithLabels(tree, "force", fmt.Sprintf("line %d", ctx.Location.Start.Line))
	}
	return runtime.CallResult{SourceChange: tree}, nil
}

// discardOrigin returns its arguments cut off from the program text.
func discardOrigin(ctx *runtime.CallContext) (runtime.CallResult, error) {
	return runtime.CallResult{Values: append(runtime.Vallist(nil), ctx.Args...)}, nil
}

// raise implements error(message [, level]). String messages raised with a
// non-zero level are prefixed with the call position.
func raise(ctx *runtime.CallContext) (runtime.CallResult, error) {
	msg := ctx.Arg(0)
	level, err := ctx.OptNumber(1, 1)
	if err != nil {
		return runtime.CallResult{}, err
	}
	if s, ok := msg.AsString(); ok && level > 0 && !ctx.Location.IsZero() {
		msg = runtime.String(fmt.Sprintf("%s: %s", ctx.Location.Start, s))
	}
	return runtime.CallResult{}, &runtime.LuaError{Value: msg}
}

func assert(ctx *runtime.CallContext) (runtime.CallResult, error) {
	if len(ctx.Args) == 0 {
		return runtime.CallResult{}, ctx.Errorf("bad argument #1 to 'assert' (value expected)")
	}
	if ctx.Arg(0).Truthy() {
		return runtime.CallResult{Values: append(runtime.Vallist(nil), ctx.Args...)}, nil
	}
	if len(ctx.Args) > 1 {
		return runtime.CallResult{}, &runtime.LuaError{Value: ctx.Arg(1)}
	}
	return runtime.CallResult{}, &runtime.LuaError{Value: runtime.String("assertion failed!"), Range: ctx.Location}
}

// pcall calls its first argument in protected mode. Program errors become
// (false, message); host failures such as an exhausted step budget are not
// caught.
func pcall(ctx *runtime.CallContext) (runtime.CallResult, error) {
	if len(ctx.Args) == 0 {
		return runtime.CallResult{}, ctx.Errorf("bad argument #1 to 'pcall' (value expected)")
	}
	res, err := ctx.Call(ctx.Arg(0), ctx.Args[1:])
	if err == nil {
		values := append(runtime.Vallist{runtime.Bool(true)}, res.Values...)
		return runtime.CallResult{Values: values, SourceChange: res.SourceChange}, nil
	}

	var (
		luaErr  *runtime.LuaError
		typeErr *runtime.TypeError
		nameErr *runtime.NameError
	)
	switch {
	case errors.Is(err, runtime.ErrStepBudgetExceeded):
		return runtime.CallResult{}, err
	case errors.As(err, &luaErr):
		if s, ok := luaErr.Value.AsString(); ok && !luaErr.Range.IsZero() {
			return runtime.Results(runtime.Bool(false), runtime.String(fmt.Sprintf("%s: %s", luaErr.Range.Start, s))), nil
		}
		return runtime.Results(runtime.Bool(false), luaErr.Value), nil
	case errors.As(err, &typeErr), errors.As(err, &nameErr):
		return runtime.Results(runtime.Bool(false), runtime.String(err.Error())), nil
	}
	return runtime.CallResult{}, err
}

// selectArgs implements select(n, ...) and select('#', ...).
func selectArgs(ctx *runtime.CallContext) (runtime.CallResult, error) {
	rest := ctx.Args
	if len(rest) > 0 {
		rest = rest[1:]
	}
	if s, ok := ctx.Arg(0).AsString(); ok && s == "#" {
		return runtime.Results(runtime.Number(float64(len(rest)))), nil
	}
	n, err := ctx.CheckNumber(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	idx := int(n)
	switch {
	case idx < 0 && -idx <= len(rest):
		return runtime.CallResult{Values: append(runtime.Vallist(nil), rest[len(rest)+idx:]...)}, nil
	case idx == 0 || idx < 0:
		return runtime.CallResult{}, ctx.Errorf("bad argument #1 to 'select' (index out of range)")
	case idx > len(rest):
		return runtime.Results(), nil
	}
	return runtime.CallResult{Values: append(runtime.Vallist(nil), rest[idx-1:]...)}, nil
}

func next(ctx *runtime.CallContext) (runtime.CallResult, error) {
	t, err := ctx.CheckTable(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	k, v, ok, err := t.Next(ctx.Arg(1))
	if err != nil {
		return runtime.CallResult{}, ctx.Errorf("%v", err)
	}
	if !ok {
		return runtime.Results(runtime.Nil()), nil
	}
	return runtime.Results(k, v), nil
}

var nextFunction = runtime.FunctionValue(runtime.NewNativeFunction("next", next))

func pairs(ctx *runtime.CallContext) (runtime.CallResult, error) {
	t, err := ctx.CheckArg(0, runtime.KindTable)
	if err != nil {
		return runtime.CallResult{}, err
	}
	return runtime.Results(nextFunction, t, runtime.Nil()), nil
}

func ipairsStep(ctx *runtime.CallContext) (runtime.CallResult, error) {
	t, err := ctx.CheckTable(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	i, err := ctx.CheckNumber(1)
	if err != nil {
		return runtime.CallResult{}, err
	}
	key := runtime.Number(i + 1)
	v := t.Get(key)
	if v.IsNil() {
		return runtime.Results(runtime.Nil()), nil
	}
	return runtime.Results(key, v), nil
}

var ipairsFunction = runtime.FunctionValue(runtime.NewNativeFunction("ipairs_iterator", ipairsStep))

func ipairs(ctx *runtime.CallContext) (runtime.CallResult, error) {
	t, err := ctx.CheckArg(0, runtime.KindTable)
	if err != nil {
		return runtime.CallResult{}, err
	}
	return runtime.Results(ipairsFunction, t, runtime.Number(0)), nil
}

func rawequal(ctx *runtime.CallContext) (runtime.CallResult, error) {
	return runtime.Results(runtime.Bool(runtime.RawEquals(ctx.Arg(0), ctx.Arg(1)))), nil
}

func rawget(ctx *runtime.CallContext) (runtime.CallResult, error) {
	t, err := ctx.CheckTable(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	return runtime.Results(t.Get(ctx.Arg(1))), nil
}

func rawset(ctx *runtime.CallContext) (runtime.CallResult, error) {
	t, err := ctx.CheckTable(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	if err := t.Set(ctx.Arg(1), ctx.Arg(2)); err != nil {
		return runtime.CallResult{}, ctx.Errorf("%v", err)
	}
	return runtime.Results(ctx.Arg(0)), nil
}

// setmetatable installs mt (or clears it when nil) and returns t. A
// metatable with a __metatable field cannot be replaced.
func setmetatable(ctx *runtime.CallContext) (runtime.CallResult, error) {
	t, err := ctx.CheckTable(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	if len(ctx.Args) < 2 {
		return runtime.CallResult{}, ctx.Errorf("bad argument #2 to 'setmetatable' (nil or table expected)")
	}
	mt, err := ctx.OptTable(1)
	if err != nil {
		return runtime.CallResult{}, err
	}
	if !t.Metamethod("__metatable").IsNil() {
		return runtime.CallResult{}, ctx.Errorf("cannot change a protected metatable")
	}
	t.SetMetatable(mt)
	return runtime.Results(ctx.Arg(0)), nil
}

// getmetatable returns the __metatable field when present, else the
// metatable itself. Only tables carry metatables.
func getmetatable(ctx *runtime.CallContext) (runtime.CallResult, error) {
	t, ok := ctx.Arg(0).AsTable()
	if !ok || t.Metatable() == nil {
		return runtime.Results(runtime.Nil()), nil
	}
	if guard := t.Metamethod("__metatable"); !guard.IsNil() {
		return runtime.Results(guard), nil
	}
	return runtime.Results(runtime.TableValue(t.Metatable())), nil
}

// unpack returns t[i], ..., t[j]; i defaults to 1 and j to #t.
func unpack(ctx *runtime.CallContext) (runtime.CallResult, error) {
	t, err := ctx.CheckTable(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	from, err := ctx.OptNumber(1, 1)
	if err != nil {
		return runtime.CallResult{}, err
	}
	to, err := ctx.OptNumber(2, float64(t.Length()))
	if err != nil {
		return runtime.CallResult{}, err
	}
	if to-from >= 1e7 {
		return runtime.CallResult{}, ctx.Errorf("too many results to unpack")
	}
	var out runtime.Vallist
	for i := from; i <= to; i++ {
		out = append(out, t.Get(runtime.Number(i)))
	}
	return runtime.CallResult{Values: out}, nil
}
