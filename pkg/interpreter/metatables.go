package interpreter

import (
	"minilua/interpreter-go/pkg/ast"
	"minilua/interpreter-go/pkg/runtime"
	"minilua/interpreter-go/pkg/sourcechange"
)

// maxMetaChain bounds __index and __newindex chains through tables.
const maxMetaChain = 100

// index reads obj[key]. A missing table entry falls back to the __index
// metamethod: tables are indexed in turn, functions are called with
// (obj, key). Strings index the global string library.
func (i *Interpreter) index(obj, key runtime.Value, at ast.Node) (runtime.Value, sourcechange.Tree, error) {
	var change sourcechange.Tree
	for loop := 0; loop < maxMetaChain; loop++ {
		switch obj.Kind() {
		case runtime.KindTable:
			tbl, _ := obj.AsTable()
			v := tbl.Get(key)
			if !v.IsNil() {
				return v, change, nil
			}
			handler := tbl.Metamethod("__index")
			if handler.IsNil() {
				return runtime.Nil(), change, nil
			}
			if handler.Kind() == runtime.KindFunction {
				res, err := i.callValue(handler, runtime.Vallist{obj, key}, i.env, at.Range())
				if err != nil {
					return runtime.Nil(), nil, err
				}
				return res.Values.First(), combineChanges(change, res.SourceChange), nil
			}
			obj = handler
		case runtime.KindString:
			lib, ok := i.env.Global().GetString("string").AsTable()
			if !ok {
				return runtime.Nil(), nil, i.indexError(obj, at)
			}
			return lib.Get(key), change, nil
		default:
			return runtime.Nil(), nil, i.indexError(obj, at)
		}
	}
	return runtime.Nil(), nil, &runtime.LuaError{Value: runtime.String("'__index' chain too long; possible loop"), Range: at.Range()}
}

// setIndex performs tbl[key] = value. Assigning a key the table does not
// hold goes through __newindex when the metatable has one.
func (i *Interpreter) setIndex(tbl *runtime.Table, key, value runtime.Value, at ast.Range) (sourcechange.Tree, error) {
	for loop := 0; loop < maxMetaChain; loop++ {
		handler := tbl.Metamethod("__newindex")
		if handler.IsNil() || !tbl.Get(key).IsNil() {
			if err := tbl.Set(key, value); err != nil {
				return nil, &runtime.LuaError{Value: runtime.String(err.Error()), Range: at}
			}
			return nil, nil
		}
		switch handler.Kind() {
		case runtime.KindFunction:
			res, err := i.callValue(handler, runtime.Vallist{runtime.TableValue(tbl), key, value}, i.env, at)
			if err != nil {
				return nil, err
			}
			return res.SourceChange, nil
		case runtime.KindTable:
			tbl, _ = handler.AsTable()
		default:
			return nil, &runtime.TypeError{Op: "index", Left: handler.Kind(), Unary: true, Range: at}
		}
	}
	return nil, &runtime.LuaError{Value: runtime.String("'__newindex' chain too long; possible loop"), Range: at}
}
