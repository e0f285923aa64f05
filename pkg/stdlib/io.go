package stdlib

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"minilua/interpreter-go/pkg/runtime"
)

func ioLibrary() *runtime.Table {
	return library(map[string]runtime.NativeFunction{
		"write": ioWrite,
		"read":  ioRead,
	})
}

func ioWrite(ctx *runtime.CallContext) (runtime.CallResult, error) {
	out := ctx.Env.Stdout()
	for i, v := range ctx.Args {
		switch v.Kind() {
		case runtime.KindString, runtime.KindNumber:
		default:
			return runtime.CallResult{}, ctx.Errorf("bad argument #%d to 'write' (string expected, got %s)", i+1, v.Kind())
		}
		if _, err := io.WriteString(out, v.String()); err != nil {
			return runtime.CallResult{}, err
		}
	}
	return runtime.Results(), nil
}

// ioRead reads from the interpreter's stdin. Formats: "l" (line without the
// newline, the default), "L" (line with it), "n" (a number) and "a" (the
// rest). At end of input "l", "L" and "n" give nil.
func ioRead(ctx *runtime.CallContext) (runtime.CallResult, error) {
	formats := ctx.Args
	if len(formats) == 0 {
		formats = runtime.Vallist{runtime.String("l")}
	}
	in := ctx.Env.Stdin()
	var out runtime.Vallist
	for i, f := range formats {
		format, ok := f.AsString()
		if !ok {
			return runtime.CallResult{}, ctx.Errorf("bad argument #%d to 'read' (invalid format)", i+1)
		}
		format = strings.TrimPrefix(format, "*")
		switch {
		case strings.HasPrefix(format, "l"), strings.HasPrefix(format, "L"):
			line, err := in.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return runtime.CallResult{}, err
			}
			if line == "" && err != nil {
				return runtime.CallResult{Values: append(out, runtime.Nil())}, nil
			}
			if format[0] == 'l' {
				line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			}
			out = append(out, runtime.String(line))
		case strings.HasPrefix(format, "n"):
			var n float64
			if _, err := fmt.Fscan(in, &n); err != nil {
				return runtime.CallResult{Values: append(out, runtime.Nil())}, nil
			}
			out = append(out, runtime.Number(n))
		case strings.HasPrefix(format, "a"):
			rest, err := io.ReadAll(in)
			if err != nil {
				return runtime.CallResult{}, err
			}
			out = append(out, runtime.String(string(rest)))
		default:
			return runtime.CallResult{}, ctx.Errorf("bad argument #%d to 'read' (invalid format)", i+1)
		}
	}
	return runtime.CallResult{Values: out}, nil
}
