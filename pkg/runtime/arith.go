package runtime

import (
	"math"
	"strings"

	"minilua/interpreter-go/pkg/ast"
)

// EvalBinary applies a binary operator and tags the result with a
// BinaryOrigin over both operands. `and`/`or` are handled by the evaluator
// since they short-circuit.
func EvalBinary(op string, lhs, rhs Value, at ast.Range) (Value, error) {
	var (
		result Value
		err    error
	)
	switch op {
	case "+", "-", "*", "/", "%", "//", "^":
		result, err = arith(op, lhs, rhs)
	case "..":
		result, err = concat(lhs, rhs)
	case "==":
		result = Bool(RawEquals(lhs, rhs))
	case "~=":
		result = Bool(!RawEquals(lhs, rhs))
	case "<", "<=", ">", ">=":
		result, err = compare(op, lhs, rhs)
	case "&", "|", "~", "<<", ">>":
		result, err = bitwise(op, lhs, rhs)
	default:
		return Nil(), &TypeError{Op: "apply unknown operator " + op, Left: lhs.Kind(), Right: rhs.Kind()}
	}
	if err != nil {
		if te, ok := err.(*TypeError); ok && te.Range.IsZero() {
			te.Range = at
		}
		return Nil(), err
	}
	return result.WithOrigin(BinaryOrigin{Op: op, LHS: lhs, RHS: rhs, Range: at}), nil
}

// EvalUnary applies a unary operator and tags the result with a UnaryOrigin.
func EvalUnary(op string, operand Value, at ast.Range) (Value, error) {
	var result Value
	switch op {
	case "-":
		n, ok := ToNumber(operand)
		if !ok {
			return Nil(), &TypeError{Op: "perform arithmetic on", Left: operand.Kind(), Unary: true, Range: at}
		}
		result = Number(-n)
	case "not":
		result = Bool(!operand.Truthy())
	case "#":
		switch operand.Kind() {
		case KindString:
			s, _ := operand.AsString()
			result = Number(float64(len(s)))
		case KindTable:
			t, _ := operand.AsTable()
			result = Number(float64(t.Length()))
		default:
			return Nil(), &TypeError{Op: "get length of", Left: operand.Kind(), Unary: true, Range: at}
		}
	case "~":
		i, ok := ToInteger(operand)
		if !ok {
			return Nil(), &TypeError{Op: "perform bitwise operation on", Left: operand.Kind(), Unary: true, Range: at}
		}
		result = Number(float64(^i))
	default:
		return Nil(), &TypeError{Op: "apply unknown operator " + op, Left: operand.Kind(), Unary: true, Range: at}
	}
	return result.WithOrigin(UnaryOrigin{Op: op, Operand: operand, Range: at}), nil
}

// ArithNumbers is the numeric core shared with reverse evaluation.
func ArithNumbers(op string, a, b float64) float64 {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	case "/":
		return a / b
	case "%":
		return floorMod(a, b)
	case "//":
		return math.Floor(a / b)
	case "^":
		return math.Pow(a, b)
	}
	return math.NaN()
}

func floorMod(a, b float64) float64 {
	if math.IsInf(b, 0) && !math.IsInf(a, 0) {
		if (a >= 0) == (b > 0) {
			return a
		}
		return b
	}
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func arith(op string, lhs, rhs Value) (Value, error) {
	a, okA := ToNumber(lhs)
	b, okB := ToNumber(rhs)
	if !okA || !okB {
		bad := lhs
		if okA {
			bad = rhs
		}
		return Nil(), &TypeError{Op: "perform arithmetic on", Left: bad.Kind(), Unary: true}
	}
	return Number(ArithNumbers(op, a, b)), nil
}

func concat(lhs, rhs Value) (Value, error) {
	a, okA := concatOperand(lhs)
	b, okB := concatOperand(rhs)
	if !okA || !okB {
		bad := lhs
		if okA {
			bad = rhs
		}
		return Nil(), &TypeError{Op: "concatenate", Left: bad.Kind(), Unary: true}
	}
	var sb strings.Builder
	sb.Grow(len(a) + len(b))
	sb.WriteString(a)
	sb.WriteString(b)
	return String(sb.String()), nil
}

func concatOperand(v Value) (string, bool) {
	switch v.Kind() {
	case KindString, KindNumber:
		return v.String(), true
	}
	return "", false
}

func compare(op string, lhs, rhs Value) (Value, error) {
	var less, equal bool
	switch {
	case lhs.Kind() == KindNumber && rhs.Kind() == KindNumber:
		less, equal = lhs.n < rhs.n, lhs.n == rhs.n
	case lhs.Kind() == KindString && rhs.Kind() == KindString:
		less, equal = lhs.s < rhs.s, lhs.s == rhs.s
	default:
		return Nil(), &TypeError{Op: "compare", Left: lhs.Kind(), Right: rhs.Kind()}
	}
	switch op {
	case "<":
		return Bool(less), nil
	case "<=":
		return Bool(less || equal), nil
	case ">":
		return Bool(!less && !equal && !isNaNPair(lhs, rhs)), nil
	default:
		return Bool(!less && !isNaNPair(lhs, rhs)), nil
	}
}

// isNaNPair keeps > and >= false when either number is NaN.
func isNaNPair(a, b Value) bool {
	return a.Kind() == KindNumber && (math.IsNaN(a.n) || math.IsNaN(b.n))
}

func bitwise(op string, lhs, rhs Value) (Value, error) {
	a, okA := ToInteger(lhs)
	b, okB := ToInteger(rhs)
	if !okA || !okB {
		bad := lhs
		if okA {
			bad = rhs
		}
		return Nil(), &TypeError{Op: "perform bitwise operation on", Left: bad.Kind(), Unary: true}
	}
	var r int64
	switch op {
	case "&":
		r = a & b
	case "|":
		r = a | b
	case "~":
		r = a ^ b
	case "<<":
		r = shiftLeft(a, b)
	case ">>":
		r = shiftLeft(a, -b)
	}
	return Number(float64(r)), nil
}

// shiftLeft follows Lua: logical shifts, negative counts shift the other way.
func shiftLeft(a, n int64) int64 {
	switch {
	case n <= -64 || n >= 64:
		return 0
	case n >= 0:
		return int64(uint64(a) << uint(n))
	default:
		return int64(uint64(a) >> uint(-n))
	}
}
