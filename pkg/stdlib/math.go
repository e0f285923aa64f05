package stdlib

import (
	"math"
	"math/rand/v2"

	"minilua/interpreter-go/pkg/runtime"
)

func mathLibrary() *runtime.Table {
	t := library(map[string]runtime.NativeFunction{
		"floor":  unaryMath(math.Floor),
		"ceil":   unaryMath(math.Ceil),
		"abs":    unaryMath(math.Abs),
		"sqrt":   unaryMath(math.Sqrt),
		"exp":    unaryMath(math.Exp),
		"sin":    unaryMath(math.Sin),
		"cos":    unaryMath(math.Cos),
		"log":    mathLog,
		"fmod":   mathFmod,
		"max":    mathExtreme(func(a, b float64) bool { return a > b }),
		"min":    mathExtreme(func(a, b float64) bool { return a < b }),
		"random": mathRandom,
	})
	t.SetString("pi", runtime.Number(math.Pi))
	t.SetString("huge", runtime.Number(math.Inf(1)))
	t.SetString("maxinteger", runtime.Number(math.MaxInt64))
	t.SetString("mininteger", runtime.Number(math.MinInt64))
	return t
}

func unaryMath(fn func(float64) float64) runtime.NativeFunction {
	return func(ctx *runtime.CallContext) (runtime.CallResult, error) {
		x, err := ctx.CheckNumber(0)
		if err != nil {
			return runtime.CallResult{}, err
		}
		return runtime.Results(runtime.Number(fn(x))), nil
	}
}

func mathLog(ctx *runtime.CallContext) (runtime.CallResult, error) {
	x, err := ctx.CheckNumber(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	if ctx.Arg(1).IsNil() {
		return runtime.Results(runtime.Number(math.Log(x))), nil
	}
	base, err := ctx.CheckNumber(1)
	if err != nil {
		return runtime.CallResult{}, err
	}
	return runtime.Results(runtime.Number(math.Log(x) / math.Log(base))), nil
}

func mathFmod(ctx *runtime.CallContext) (runtime.CallResult, error) {
	a, err := ctx.CheckNumber(0)
	if err != nil {
		return runtime.CallResult{}, err
	}
	b, err := ctx.CheckNumber(1)
	if err != nil {
		return runtime.CallResult{}, err
	}
	return runtime.Results(runtime.Number(math.Mod(a, b))), nil
}

func mathExtreme(better func(a, b float64) bool) runtime.NativeFunction {
	return func(ctx *runtime.CallContext) (runtime.CallResult, error) {
		best, err := ctx.CheckNumber(0)
		if err != nil {
			return runtime.CallResult{}, err
		}
		for i := 1; i < len(ctx.Args); i++ {
			x, err := ctx.CheckNumber(i)
			if err != nil {
				return runtime.CallResult{}, err
			}
			if better(x, best) {
				best = x
			}
		}
		return runtime.Results(runtime.Number(best)), nil
	}
}

// mathRandom: random() is a float in [0,1), random(m) an integer in [1,m]
// and random(m, n) an integer in [m,n].
func mathRandom(ctx *runtime.CallContext) (runtime.CallResult, error) {
	switch len(ctx.Args) {
	case 0:
		return runtime.Results(runtime.Number(rand.Float64())), nil
	case 1, 2:
	default:
		return runtime.CallResult{}, ctx.Errorf("wrong number of arguments to 'random'")
	}
	lo, hi := 1.0, 0.0
	var err error
	if len(ctx.Args) == 1 {
		if hi, err = ctx.CheckNumber(0); err != nil {
			return runtime.CallResult{}, err
		}
	} else {
		if lo, err = ctx.CheckNumber(0); err != nil {
			return runtime.CallResult{}, err
		}
		if hi, err = ctx.CheckNumber(1); err != nil {
			return runtime.CallResult{}, err
		}
	}
	l, h := int64(math.Floor(lo)), int64(math.Floor(hi))
	if l > h {
		return runtime.CallResult{}, ctx.Errorf("bad argument #%d to 'random' (interval is empty)", len(ctx.Args))
	}
	return runtime.Results(runtime.Number(float64(l + rand.Int64N(h-l+1)))), nil
}
