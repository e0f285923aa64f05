package interpreter

import (
	"fmt"

	"minilua/interpreter-go/pkg/ast"
	"minilua/interpreter-go/pkg/runtime"
	"minilua/interpreter-go/pkg/sourcechange"
)

// evaluateExpression evaluates node to a single value. Multi-value
// expressions are truncated to their first value.
func (i *Interpreter) evaluateExpression(node ast.Expression, env *runtime.Environment) (runtime.Value, sourcechange.Tree, error) {
	switch n := node.(type) {
	case *ast.FunctionCall, *ast.VarargExpression:
		values, change, err := i.evaluateMulti(n, env)
		if err != nil {
			return runtime.Nil(), nil, err
		}
		return values.First(), change, nil
	}
	if err := i.step(node); err != nil {
		return runtime.Nil(), nil, err
	}

	literal := runtime.LiteralOrigin{Range: node.Range()}
	switch n := node.(type) {
	case *ast.NilLiteral:
		return runtime.Nil().WithOrigin(literal), nil, nil
	case *ast.BooleanLiteral:
		return runtime.Bool(n.Value).WithOrigin(literal), nil, nil
	case *ast.NumberLiteral:
		return runtime.Number(n.Value).WithOrigin(literal), nil, nil
	case *ast.StringLiteral:
		return runtime.String(n.Value).WithOrigin(literal), nil, nil
	case *ast.FunctionExpression:
		return i.makeClosure(n, env), nil, nil
	case *ast.Identifier:
		v, err := i.lookupName(n, env)
		return v, nil, err
	case *ast.ParenthesizedExpression:
		return i.evaluateExpression(n.Inner, env)
	case *ast.IndexExpression:
		return i.evaluateIndexExpression(n, env)
	case *ast.TableConstructor:
		return i.evaluateTableConstructor(n, env)
	case *ast.BinaryExpression:
		return i.evaluateBinaryExpression(n, env)
	case *ast.UnaryExpression:
		return i.evaluateUnaryExpression(n, env)
	default:
		return runtime.Nil(), nil, fmt.Errorf("unsupported expression type: %s", n.NodeType())
	}
}

// evaluateMulti keeps every value of calls and varargs.
func (i *Interpreter) evaluateMulti(node ast.Expression, env *runtime.Environment) (runtime.Vallist, sourcechange.Tree, error) {
	switch n := node.(type) {
	case *ast.FunctionCall:
		res, err := i.evaluateFunctionCall(n, env)
		if err != nil {
			return nil, nil, err
		}
		return res.Values, res.SourceChange, nil
	case *ast.VarargExpression:
		if err := i.step(node); err != nil {
			return nil, nil, err
		}
		return append(runtime.Vallist(nil), env.Varargs()...), nil, nil
	}
	v, change, err := i.evaluateExpression(node, env)
	if err != nil {
		return nil, nil, err
	}
	return runtime.Vallist{v}, change, nil
}

// evaluateExpressionList expands the last expression to all its values.
func (i *Interpreter) evaluateExpressionList(exprs []ast.Expression, env *runtime.Environment) (runtime.Vallist, sourcechange.Tree, error) {
	var (
		out    = make(runtime.Vallist, 0, len(exprs))
		change sourcechange.Tree
	)
	for idx, expr := range exprs {
		if idx == len(exprs)-1 {
			values, ch, err := i.evaluateMulti(expr, env)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, values...)
			change = combineChanges(change, ch)
			break
		}
		v, ch, err := i.evaluateExpression(expr, env)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, v)
		change = combineChanges(change, ch)
	}
	if i.config.TraceExprlists && len(exprs) > 0 {
		i.logger.Debug("exprlist", "expressions", len(exprs), "values", out.String())
	}
	return out, change, nil
}

func (i *Interpreter) lookupName(id *ast.Identifier, env *runtime.Environment) (runtime.Value, error) {
	v, found := env.Lookup(id.Name)
	if !found && env.StrictGlobals() {
		return runtime.Nil(), &runtime.NameError{Name: id.Name, Range: id.Range()}
	}
	return v, nil
}

func (i *Interpreter) makeClosure(decl *ast.FunctionExpression, env *runtime.Environment) runtime.Value {
	fn := runtime.NewClosure(decl, env.Capture())
	return runtime.FunctionValue(fn).WithOrigin(runtime.LiteralOrigin{Range: decl.Range()})
}

func (i *Interpreter) evaluateIndexExpression(expr *ast.IndexExpression, env *runtime.Environment) (runtime.Value, sourcechange.Tree, error) {
	obj, change, err := i.evaluateExpression(expr.Table, env)
	if err != nil {
		return runtime.Nil(), nil, err
	}
	key, ch, err := i.evaluateExpression(expr.Key, env)
	if err != nil {
		return runtime.Nil(), nil, err
	}
	change = combineChanges(change, ch)
	v, ch, err := i.index(obj, key, expr)
	return v, combineChanges(change, ch), err
}

func (i *Interpreter) indexError(obj runtime.Value, at ast.Node) error {
	return &runtime.TypeError{Op: "index", Left: obj.Kind(), Unary: true, Range: at.Range()}
}

func (i *Interpreter) evaluateTableConstructor(expr *ast.TableConstructor, env *runtime.Environment) (runtime.Value, sourcechange.Tree, error) {
	tbl := runtime.NewTable()
	var change sourcechange.Tree
	position := 1
	for idx, field := range expr.Fields {
		if field.Key == nil {
			if idx == len(expr.Fields)-1 {
				values, ch, err := i.evaluateMulti(field.Value, env)
				if err != nil {
					return runtime.Nil(), nil, err
				}
				change = combineChanges(change, ch)
				for _, v := range values {
					_ = tbl.Set(runtime.Number(float64(position)), v)
					position++
				}
				continue
			}
			v, ch, err := i.evaluateExpression(field.Value, env)
			if err != nil {
				return runtime.Nil(), nil, err
			}
			change = combineChanges(change, ch)
			_ = tbl.Set(runtime.Number(float64(position)), v)
			position++
			continue
		}
		key, ch, err := i.evaluateExpression(field.Key, env)
		if err != nil {
			return runtime.Nil(), nil, err
		}
		change = combineChanges(change, ch)
		v, ch, err := i.evaluateExpression(field.Value, env)
		if err != nil {
			return runtime.Nil(), nil, err
		}
		change = combineChanges(change, ch)
		if err := tbl.Set(key, v); err != nil {
			return runtime.Nil(), nil, &runtime.LuaError{Value: runtime.String(err.Error()), Range: field.Range()}
		}
	}
	return runtime.TableValue(tbl), change, nil
}

func (i *Interpreter) evaluateBinaryExpression(expr *ast.BinaryExpression, env *runtime.Environment) (runtime.Value, sourcechange.Tree, error) {
	left, change, err := i.evaluateExpression(expr.Left, env)
	if err != nil {
		return runtime.Nil(), nil, err
	}
	// and/or yield one of their operands untouched, origin included.
	switch expr.Operator {
	case "and":
		if !left.Truthy() {
			return left, change, nil
		}
		right, ch, err := i.evaluateExpression(expr.Right, env)
		return right, combineChanges(change, ch), err
	case "or":
		if left.Truthy() {
			return left, change, nil
		}
		right, ch, err := i.evaluateExpression(expr.Right, env)
		return right, combineChanges(change, ch), err
	}
	right, ch, err := i.evaluateExpression(expr.Right, env)
	if err != nil {
		return runtime.Nil(), nil, err
	}
	v, err := runtime.EvalBinary(expr.Operator, left, right, expr.Range())
	if err != nil {
		return runtime.Nil(), nil, err
	}
	return v, combineChanges(change, ch), nil
}

func (i *Interpreter) evaluateUnaryExpression(expr *ast.UnaryExpression, env *runtime.Environment) (runtime.Value, sourcechange.Tree, error) {
	operand, change, err := i.evaluateExpression(expr.Operand, env)
	if err != nil {
		return runtime.Nil(), nil, err
	}
	v, err := runtime.EvalUnary(expr.Operator, operand, expr.Range())
	if err != nil {
		return runtime.Nil(), nil, err
	}
	return v, change, nil
}
