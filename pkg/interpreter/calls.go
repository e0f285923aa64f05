package interpreter

import (
	"fmt"

	"minilua/interpreter-go/pkg/ast"
	"minilua/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateFunctionCall(call *ast.FunctionCall, env *runtime.Environment) (runtime.CallResult, error) {
	if err := i.step(call); err != nil {
		return runtime.CallResult{}, err
	}
	callee, change, err := i.evaluateExpression(call.Callee, env)
	if err != nil {
		return runtime.CallResult{}, err
	}

	var args runtime.Vallist
	if call.Method != nil {
		receiver := callee
		method, ch, err := i.index(receiver, runtime.String(call.Method.Name), call)
		if err != nil {
			return runtime.CallResult{}, err
		}
		change = combineChanges(change, ch)
		callee = method
		args = append(args, receiver)
	}
	rest, ch, err := i.evaluateExpressionList(call.Arguments, env)
	if err != nil {
		return runtime.CallResult{}, err
	}
	args = append(args, rest...)
	change = combineChanges(change, ch)

	res, err := i.callValue(callee, args, env, call.Range())
	if err != nil {
		return runtime.CallResult{}, err
	}
	res.SourceChange = combineChanges(change, res.SourceChange)
	return res, nil
}

// Call implements runtime.Caller so natives can call back into the program.
func (i *Interpreter) Call(fn runtime.Value, args runtime.Vallist, site ast.Range) (runtime.CallResult, error) {
	return i.callValue(fn, args, i.env, site)
}

func (i *Interpreter) callValue(callee runtime.Value, args runtime.Vallist, env *runtime.Environment, site ast.Range) (runtime.CallResult, error) {
	fn, ok := callee.AsFunction()
	if !ok {
		return runtime.CallResult{}, &runtime.TypeError{Op: "call", Left: callee.Kind(), Unary: true, Range: site}
	}
	if i.depth >= i.config.MaxCallDepth {
		return runtime.CallResult{}, &runtime.LuaError{Value: runtime.String("stack overflow"), Range: site}
	}
	i.depth++
	defer func() { i.depth-- }()

	if i.config.TraceCalls {
		i.logger.Debug("call", "function", fn.Name, "args", len(args), "site", site.String())
	}
	var (
		res runtime.CallResult
		err error
	)
	if fn.Native != nil {
		res, err = i.invokeNative(fn, args, env, site)
	} else {
		res, err = i.invokeFunction(fn, args)
	}
	if err != nil {
		return runtime.CallResult{}, err
	}
	if i.config.TraceCalls {
		i.logger.Debug("call result", "function", fn.Name, "results", len(res.Values), "source_change", res.SourceChange != nil)
	}
	return res, nil
}

// invokeNative runs a host function; whatever it returns is external to the
// program text.
func (i *Interpreter) invokeNative(fn *runtime.Function, args runtime.Vallist, env *runtime.Environment, site ast.Range) (runtime.CallResult, error) {
	ctx := &runtime.CallContext{
		Env:      env,
		Args:     args,
		Location: site,
		Name:     fn.Name,
		Caller:   i,
	}
	res, err := fn.Native(ctx)
	if err != nil {
		return runtime.CallResult{}, err
	}
	res.Values = runtime.WithExternalOrigin(res.Values)
	return res, nil
}

// invokeFunction binds parameters in a fresh call scope under the closure's
// environment. Missing arguments are nil, extra ones are dropped or become
// varargs.
func (i *Interpreter) invokeFunction(fn *runtime.Function, args runtime.Vallist) (runtime.CallResult, error) {
	decl := fn.Decl
	var varargs runtime.Vallist
	if decl.IsVararg && len(args) > len(decl.Parameters) {
		varargs = args[len(decl.Parameters):]
	}
	scope := fn.Closure.NewCallScope(varargs)
	for idx, param := range decl.Parameters {
		scope.DeclareLocal(param.Name, args.Get(idx))
	}
	res, err := i.evaluateBlock(decl.Body, scope)
	if err != nil {
		return runtime.CallResult{}, err
	}
	switch res.signal {
	case flowBreak:
		return runtime.CallResult{}, fmt.Errorf("%s: break outside a loop in function '%s'", decl.Range().Start, fn.Name)
	case flowReturn:
		return runtime.CallResult{Values: res.values, SourceChange: res.change}, nil
	}
	return runtime.CallResult{SourceChange: res.change}, nil
}
