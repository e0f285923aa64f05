package interpreter

import (
	"fmt"
	"math"

	"minilua/interpreter-go/pkg/ast"
	"minilua/interpreter-go/pkg/runtime"
	"minilua/interpreter-go/pkg/sourcechange"
)

// evaluateBlock runs block in env itself; callers that need a fresh scope
// extend env first. The changes of all executed statements are ANDed.
func (i *Interpreter) evaluateBlock(block *ast.Block, env *runtime.Environment) (flow, error) {
	var change sourcechange.Tree
	for _, stmt := range block.Statements {
		res, err := i.evaluateStatement(stmt, env)
		if err != nil {
			return flow{}, err
		}
		change = combineChanges(change, res.change)
		if res.signal != flowNormal {
			res.change = change
			return res, nil
		}
	}
	if block.Return != nil {
		res, err := i.evaluateReturnStatement(block.Return, env)
		if err != nil {
			return flow{}, err
		}
		res.change = combineChanges(change, res.change)
		return res, nil
	}
	return normal(change), nil
}

// evaluateScope runs block in a nested scope.
func (i *Interpreter) evaluateScope(block *ast.Block, env *runtime.Environment) (flow, error) {
	scope := env.Extend()
	if i.config.TraceEnterBlock {
		i.logger.Debug("enter block", "range", block.Range().String(), "statements", len(block.Statements))
	}
	return i.evaluateBlock(block, scope)
}

func (i *Interpreter) evaluateStatement(node ast.Statement, env *runtime.Environment) (flow, error) {
	if err := i.step(node); err != nil {
		return flow{}, err
	}
	if i.config.TraceNodes {
		i.logger.Debug("statement", "kind", string(node.NodeType()), "range", node.Range().String())
	}
	switch n := node.(type) {
	case *ast.LocalStatement:
		return i.evaluateLocalStatement(n, env)
	case *ast.AssignmentStatement:
		return i.evaluateAssignmentStatement(n, env)
	case *ast.FunctionCall:
		res, err := i.evaluateFunctionCall(n, env)
		if err != nil {
			return flow{}, err
		}
		return normal(res.SourceChange), nil
	case *ast.DoStatement:
		return i.evaluateScope(n.Body, env)
	case *ast.WhileStatement:
		return i.evaluateWhileStatement(n, env)
	case *ast.RepeatStatement:
		return i.evaluateRepeatStatement(n, env)
	case *ast.IfStatement:
		return i.evaluateIfStatement(n, env)
	case *ast.NumericForStatement:
		return i.evaluateNumericFor(n, env)
	case *ast.GenericForStatement:
		return i.evaluateGenericFor(n, env)
	case *ast.FunctionDeclaration:
		return i.evaluateFunctionDeclaration(n, env)
	case *ast.ReturnStatement:
		return i.evaluateReturnStatement(n, env)
	case *ast.BreakStatement:
		return flow{signal: flowBreak}, nil
	case *ast.GotoStatement:
		return flow{}, &UnsupportedError{Feature: "goto", Range: n.Range()}
	case *ast.LabelStatement:
		return normal(nil), nil
	default:
		return flow{}, fmt.Errorf("unsupported statement type: %s", n.NodeType())
	}
}

func (i *Interpreter) evaluateLocalStatement(stmt *ast.LocalStatement, env *runtime.Environment) (flow, error) {
	for idx, attr := range stmt.Attributes {
		if attr != "" && attr != "const" && attr != "close" {
			return flow{}, &runtime.LuaError{
				Value: runtime.String(fmt.Sprintf("unknown attribute '%s'", attr)),
				Range: stmt.Names[idx].Range(),
			}
		}
	}
	values, change, err := i.evaluateExpressionList(stmt.Values, env)
	if err != nil {
		return flow{}, err
	}
	for idx, name := range stmt.Names {
		env.DeclareLocal(name.Name, values.Get(idx))
	}
	return normal(change), nil
}

// assignTarget is an lvalue resolved before the right-hand side is evaluated.
type assignTarget struct {
	name  string
	table *runtime.Table
	key   runtime.Value
	at    ast.Range
}

func (i *Interpreter) evaluateAssignmentStatement(stmt *ast.AssignmentStatement, env *runtime.Environment) (flow, error) {
	var change sourcechange.Tree
	targets := make([]assignTarget, 0, len(stmt.Targets))
	for _, target := range stmt.Targets {
		switch t := target.(type) {
		case *ast.Identifier:
			targets = append(targets, assignTarget{name: t.Name, at: t.Range()})
		case *ast.IndexExpression:
			tbl, key, ch, err := i.resolveIndexTarget(t, env)
			if err != nil {
				return flow{}, err
			}
			change = combineChanges(change, ch)
			targets = append(targets, assignTarget{table: tbl, key: key, at: t.Range()})
		default:
			return flow{}, fmt.Errorf("cannot assign to %s", target.NodeType())
		}
	}

	values, ch, err := i.evaluateExpressionList(stmt.Values, env)
	if err != nil {
		return flow{}, err
	}
	change = combineChanges(change, ch)

	for idx, target := range targets {
		value := values.Get(idx)
		if target.table == nil {
			env.Assign(target.name, value)
			continue
		}
		ch, err := i.setIndex(target.table, target.key, value, target.at)
		if err != nil {
			return flow{}, err
		}
		change = combineChanges(change, ch)
	}
	return normal(change), nil
}

func (i *Interpreter) resolveIndexTarget(expr *ast.IndexExpression, env *runtime.Environment) (*runtime.Table, runtime.Value, sourcechange.Tree, error) {
	obj, change, err := i.evaluateExpression(expr.Table, env)
	if err != nil {
		return nil, runtime.Nil(), nil, err
	}
	tbl, ok := obj.AsTable()
	if !ok {
		return nil, runtime.Nil(), nil, i.indexError(obj, expr)
	}
	key, ch, err := i.evaluateExpression(expr.Key, env)
	if err != nil {
		return nil, runtime.Nil(), nil, err
	}
	return tbl, key, combineChanges(change, ch), nil
}

func (i *Interpreter) evaluateWhileStatement(loop *ast.WhileStatement, env *runtime.Environment) (flow, error) {
	var change sourcechange.Tree
	for {
		cond, ch, err := i.evaluateExpression(loop.Condition, env)
		if err != nil {
			return flow{}, err
		}
		change = combineChanges(change, ch)
		if !cond.Truthy() {
			return normal(change), nil
		}
		res, err := i.evaluateScope(loop.Body, env)
		if err != nil {
			return flow{}, err
		}
		change = combineChanges(change, res.change)
		switch res.signal {
		case flowBreak:
			return normal(change), nil
		case flowReturn:
			res.change = change
			return res, nil
		}
	}
}

// The condition of repeat-until sees the body's locals.
func (i *Interpreter) evaluateRepeatStatement(loop *ast.RepeatStatement, env *runtime.Environment) (flow, error) {
	var change sourcechange.Tree
	for {
		scope := env.Extend()
		res, err := i.evaluateBlock(loop.Body, scope)
		if err != nil {
			return flow{}, err
		}
		change = combineChanges(change, res.change)
		switch res.signal {
		case flowBreak:
			return normal(change), nil
		case flowReturn:
			res.change = change
			return res, nil
		}
		cond, ch, err := i.evaluateExpression(loop.Condition, scope)
		if err != nil {
			return flow{}, err
		}
		change = combineChanges(change, ch)
		if cond.Truthy() {
			return normal(change), nil
		}
	}
}

func (i *Interpreter) evaluateIfStatement(stmt *ast.IfStatement, env *runtime.Environment) (flow, error) {
	var change sourcechange.Tree
	for _, clause := range stmt.Clauses {
		cond, ch, err := i.evaluateExpression(clause.Condition, env)
		if err != nil {
			return flow{}, err
		}
		change = combineChanges(change, ch)
		if cond.Truthy() {
			res, err := i.evaluateScope(clause.Body, env)
			if err != nil {
				return flow{}, err
			}
			res.change = combineChanges(change, res.change)
			return res, nil
		}
	}
	if stmt.Else != nil {
		res, err := i.evaluateScope(stmt.Else, env)
		if err != nil {
			return flow{}, err
		}
		res.change = combineChanges(change, res.change)
		return res, nil
	}
	return normal(change), nil
}

func (i *Interpreter) evaluateNumericFor(loop *ast.NumericForStatement, env *runtime.Environment) (flow, error) {
	var change sourcechange.Tree
	bound := func(expr ast.Expression, what string) (float64, error) {
		v, ch, err := i.evaluateExpression(expr, env)
		if err != nil {
			return 0, err
		}
		change = combineChanges(change, ch)
		n, ok := runtime.ToNumber(v)
		if !ok {
			return 0, &runtime.LuaError{
				Value: runtime.String(fmt.Sprintf("'for' %s must be a number", what)),
				Range: expr.Range(),
			}
		}
		return n, nil
	}
	start, err := bound(loop.Start, "initial value")
	if err != nil {
		return flow{}, err
	}
	limit, err := bound(loop.Limit, "limit")
	if err != nil {
		return flow{}, err
	}
	step := 1.0
	if loop.Step != nil {
		if step, err = bound(loop.Step, "step"); err != nil {
			return flow{}, err
		}
	}
	if step == 0 {
		return flow{}, &runtime.LuaError{Value: runtime.String("'for' step is zero"), Range: loop.Step.Range()}
	}
	if math.IsNaN(start) || math.IsNaN(limit) {
		return normal(change), nil
	}

	for v := start; (step > 0 && v <= limit) || (step < 0 && v >= limit); v += step {
		scope := env.Extend()
		scope.DeclareLocal(loop.Variable.Name, runtime.Number(v))
		res, err := i.evaluateBlock(loop.Body, scope)
		if err != nil {
			return flow{}, err
		}
		change = combineChanges(change, res.change)
		switch res.signal {
		case flowBreak:
			return normal(change), nil
		case flowReturn:
			res.change = change
			return res, nil
		}
	}
	return normal(change), nil
}

// evaluateGenericFor implements the iterator protocol: the explist yields an
// iterator function, a state and a control value; the loop ends when the
// first returned value is nil.
func (i *Interpreter) evaluateGenericFor(loop *ast.GenericForStatement, env *runtime.Environment) (flow, error) {
	init, change, err := i.evaluateExpressionList(loop.Values, env)
	if err != nil {
		return flow{}, err
	}
	iter, state, control := init.Get(0), init.Get(1), init.Get(2)
	if _, ok := iter.AsFunction(); !ok {
		return flow{}, &runtime.TypeError{Op: "call", Left: iter.Kind(), Unary: true, Range: loop.Values[0].Range()}
	}
	for {
		res, err := i.Call(iter, runtime.Vallist{state, control}, loop.Range())
		if err != nil {
			return flow{}, err
		}
		change = combineChanges(change, res.SourceChange)
		first := res.Values.Get(0)
		if first.IsNil() {
			return normal(change), nil
		}
		control = first

		scope := env.Extend()
		for idx, name := range loop.Names {
			scope.DeclareLocal(name.Name, res.Values.Get(idx))
		}
		body, err := i.evaluateBlock(loop.Body, scope)
		if err != nil {
			return flow{}, err
		}
		change = combineChanges(change, body.change)
		switch body.signal {
		case flowBreak:
			return normal(change), nil
		case flowReturn:
			body.change = change
			return body, nil
		}
	}
}

// evaluateFunctionDeclaration binds a named function. `local function f`
// declares f before creating the closure so the body can recurse.
func (i *Interpreter) evaluateFunctionDeclaration(decl *ast.FunctionDeclaration, env *runtime.Environment) (flow, error) {
	switch target := decl.Target.(type) {
	case *ast.Identifier:
		if decl.IsLocal {
			env.DeclareLocal(target.Name, runtime.Nil())
		}
		env.Assign(target.Name, i.makeClosure(decl.Function, env))
		return normal(nil), nil
	case *ast.IndexExpression:
		tbl, key, change, err := i.resolveIndexTarget(target, env)
		if err != nil {
			return flow{}, err
		}
		ch, err := i.setIndex(tbl, key, i.makeClosure(decl.Function, env), target.Range())
		if err != nil {
			return flow{}, err
		}
		return normal(combineChanges(change, ch)), nil
	default:
		return flow{}, fmt.Errorf("cannot declare function on %s", decl.Target.NodeType())
	}
}

func (i *Interpreter) evaluateReturnStatement(stmt *ast.ReturnStatement, env *runtime.Environment) (flow, error) {
	values, change, err := i.evaluateExpressionList(stmt.Values, env)
	if err != nil {
		return flow{}, err
	}
	return flow{signal: flowReturn, values: values, change: change}, nil
}
