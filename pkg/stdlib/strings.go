package stdlib

import (
	"fmt"
	"math"
	"strings"

	"minilua/interpreter-go/pkg/runtime"
)

func stringLibrary() *runtime.Table {
	return library(map[string]runtime.NativeFunction{
		"len":     stringLen,
		"sub":     stringSub,
		"upper":   stringMap(strings.ToUpper),
		"lower":   stringMap(strings.ToLower),
		"rep":     stringRep,
		"reverse": stringReverse,
		"byte":    stringByte,
		"char":    stringChar,
		"format":  stringFormat,
	})
}

func stringLen(ctx *runtime.CallContext) (runtime.CallResult, error) {
	s, err := ctx.CheckString(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	return runtime.Results(runtime.Number(float64(len(s)))), nil
}

func stringMap(fn func(string) string) runtime.NativeFunction {
	return func(ctx *runtime.CallContext) (runtime.CallResult, error) {
		s, err := ctx.CheckString(0)
		if err != nil {
			return runtime.CallResult{}, err
		}
		return runtime.Results(runtime.String(fn(s))), nil
	}
}

// stringRange converts Lua's 1-based, possibly negative, inclusive indices
// into a Go slice range of a string of length n.
func stringRange(i, j float64, n int) (int, int) {
	start, end := int(i), int(j)
	if start < 0 {
		start = max(n+start+1, 1)
	} else if start == 0 {
		start = 1
	}
	if end < 0 {
		end = n + end + 1
	} else if end > n {
		end = n
	}
	if start > end {
		return 0, 0
	}
	return start - 1, end
}

func stringSub(ctx *runtime.CallContext) (runtime.CallResult, error) {
	s, err := ctx.CheckString(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	i, err := ctx.OptNumber(1, 1)
	if err != nil {
		return runtime.CallResult{}, err
	}
	j, err := ctx.OptNumber(2, -1)
	if err != nil {
		return runtime.CallResult{}, err
	}
	from, to := stringRange(i, j, len(s))
	return runtime.Results(runtime.String(s[from:to])), nil
}

func stringRep(ctx *runtime.CallContext) (runtime.CallResult, error) {
	s, err := ctx.CheckString(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	n, err := ctx.CheckNumber(1)
	if err != nil {
		return runtime.CallResult{}, err
	}
	sep := ""
	if !ctx.Arg(2).IsNil() {
		if sep, err = ctx.CheckString(2); err != nil {
			return runtime.CallResult{}, err
		}
	}
	if n <= 0 {
		return runtime.Results(runtime.String("")), nil
	}
	if float64(len(s)+len(sep))*n > 1<<28 {
		return runtime.CallResult{}, ctx.Errorf("resulting string too large")
	}
	parts := make([]string, int(n))
	for i := range parts {
		parts[i] = s
	}
	return runtime.Results(runtime.String(strings.Join(parts, sep))), nil
}

func stringReverse(ctx *runtime.CallContext) (runtime.CallResult, error) {
	s, err := ctx.CheckString(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return runtime.Results(runtime.String(string(b))), nil
}

func stringByte(ctx *runtime.CallContext) (runtime.CallResult, error) {
	s, err := ctx.CheckString(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	i, err := ctx.OptNumber(1, 1)
	if err != nil {
		return runtime.CallResult{}, err
	}
	j, err := ctx.OptNumber(2, i)
	if err != nil {
		return runtime.CallResult{}, err
	}
	from, to := stringRange(i, j, len(s))
	var out runtime.Vallist
	for k := from; k < to; k++ {
		out = append(out, runtime.Number(float64(s[k])))
	}
	return runtime.CallResult{Values: out}, nil
}

func stringChar(ctx *runtime.CallContext) (runtime.CallResult, error) {
	b := make([]byte, len(ctx.Args))
	for i := range ctx.Args {
		n, err := ctx.CheckNumber(i)
		if err != nil {
			return runtime.CallResult{}, err
		}
		if n < 0 || n > 255 {
			return runtime.CallResult{}, ctx.Errorf("bad argument #%d to 'char' (value out of range)", i+1)
		}
		b[i] = byte(n)
	}
	return runtime.Results(runtime.String(string(b))), nil
}

// stringFormat supports the common directives: %d %i %u %c %x %X %o %e %E
// %f %g %G %q %s and %%, with flags, width and precision.
func stringFormat(ctx *runtime.CallContext) (runtime.CallResult, error) {
	format, err := ctx.CheckString(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	var b strings.Builder
	arg := 1
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return runtime.CallResult{}, ctx.Errorf("invalid conversion '%%' to 'format'")
		}
		if format[i] == '%' {
			b.WriteByte('%')
			continue
		}
		start := i
		for i < len(format) && strings.IndexByte("-+ #0123456789.", format[i]) >= 0 {
			i++
		}
		if i >= len(format) {
			return runtime.CallResult{}, ctx.Errorf("invalid conversion '%%%s' to 'format'", format[start:])
		}
		directive := "%" + format[start:i]
		verb := format[i]
		if arg >= len(ctx.Args) {
			return runtime.CallResult{}, ctx.Errorf("bad argument #%d to 'format' (no value)", arg+1)
		}
		switch verb {
		case 'd', 'i', 'u', 'c', 'x', 'X', 'o':
			n, err := ctx.CheckNumber(arg)
			if err != nil {
				return runtime.CallResult{}, err
			}
			if n != math.Trunc(n) {
				return runtime.CallResult{}, ctx.Errorf("bad argument #%d to 'format' (number has no integer representation)", arg+1)
			}
			goVerb := verb
			switch verb {
			case 'i', 'u':
				goVerb = 'd'
			}
			fmt.Fprintf(&b, directive+string(goVerb), int64(n))
		case 'e', 'E', 'f', 'g', 'G':
			n, err := ctx.CheckNumber(arg)
			if err != nil {
				return runtime.CallResult{}, err
			}
			fmt.Fprintf(&b, directive+string(verb), n)
		case 'q':
			b.WriteString(runtime.QuoteString(ctx.Arg(arg).String()))
		case 's':
			fmt.Fprintf(&b, directive+"s", ctx.Arg(arg).String())
		default:
			return runtime.CallResult{}, ctx.Errorf("invalid conversion '%s%c' to 'format'", directive, verb)
		}
		arg++
	}
	return runtime.Results(runtime.String(b.String())), nil
}
