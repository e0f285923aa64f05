package stdlib

import (
	"strings"

	"minilua/interpreter-go/pkg/runtime"
)

func tableLibrary() *runtime.Table {
	return library(map[string]runtime.NativeFunction{
		"insert": tableInsert,
		"remove": tableRemove,
		"concat": tableConcat,
		"unpack": unpack,
	})
}

// tableInsert implements table.insert(t, v) and table.insert(t, pos, v).
func tableInsert(ctx *runtime.CallContext) (runtime.CallResult, error) {
	t, err := ctx.CheckTable(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	switch len(ctx.Args) {
	case 2:
		t.Append(ctx.Arg(1))
	case 3:
		pos, err := ctx.CheckNumber(1)
		if err != nil {
			return runtime.CallResult{}, err
		}
		if err := t.Insert(int(pos), ctx.Arg(2)); err != nil {
			return runtime.CallResult{}, ctx.Errorf("bad argument #2 to 'insert' (%v)", err)
		}
	default:
		return runtime.CallResult{}, ctx.Errorf("wrong number of arguments to 'insert'")
	}
	return runtime.Results(), nil
}

func tableRemove(ctx *runtime.CallContext) (runtime.CallResult, error) {
	t, err := ctx.CheckTable(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	pos, err := ctx.OptNumber(1, float64(t.Length()))
	if err != nil {
		return runtime.CallResult{}, err
	}
	v, err := t.Remove(int(pos))
	if err != nil {
		return runtime.CallResult{}, ctx.Errorf("bad argument #2 to 'remove' (%v)", err)
	}
	return runtime.Results(v), nil
}

// tableConcat joins t[i..j] with sep; every element must be a string or a
// number.
func tableConcat(ctx *runtime.CallContext) (runtime.CallResult, error) {
	t, err := ctx.CheckTable(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	sep := ""
	if !ctx.Arg(1).IsNil() {
		if sep, err = ctx.CheckString(1); err != nil {
			return runtime.CallResult{}, err
		}
	}
	from, err := ctx.OptNumber(2, 1)
	if err != nil {
		return runtime.CallResult{}, err
	}
	to, err := ctx.OptNumber(3, float64(t.Length()))
	if err != nil {
		return runtime.CallResult{}, err
	}
	var parts []string
	for i := from; i <= to; i++ {
		v := t.Get(runtime.Number(i))
		switch v.Kind() {
		case runtime.KindString, runtime.KindNumber:
			parts = append(parts, v.String())
		default:
			return runtime.CallResult{}, ctx.Errorf("invalid value (at index %s) in table for 'concat'", runtime.FormatNumber(i))
		}
	}
	return runtime.Results(runtime.String(strings.Join(parts, sep))), nil
}
