package runtime

import (
	"fmt"
	"math"
	"strings"

	"minilua/interpreter-go/pkg/ast"
	"minilua/interpreter-go/pkg/sourcechange"
)

var opNames = map[string]string{
	"+":   "add",
	"-":   "sub",
	"*":   "mul",
	"/":   "div",
	"%":   "mod",
	"//":  "idiv",
	"^":   "pow",
	"..":  "concat",
	"neg": "unm",
	"not": "not",
	"~":   "bnot",
}

// Force computes the source edits that make v evaluate to target. It walks
// v's origin: literals are rewritten in place, operators are inverted into an
// Alternative over their operands, and anything else is unrealizable. The
// result is a no-op when v already equals target.
func Force(v, target Value) sourcechange.Tree {
	return force(v, target, ast.Range{})
}

// force is Force for an operand of the operator spanning enclosing. A
// negative number written inside that span is parenthesized so it does not
// merge with a preceding minus.
func force(v, target Value, enclosing ast.Range) sourcechange.Tree {
	if RawEquals(v, target) {
		return sourcechange.Noop()
	}
	switch o := v.Origin().(type) {
	case LiteralOrigin:
		text, ok := RenderLiteral(target)
		if !ok || v.Kind() == KindFunction {
			return sourcechange.Unrealizable()
		}
		if strings.HasPrefix(text, "-") && contains(enclosing, o.Range) {
			text = "(" + text + ")"
		}
		return sourcechange.WithLabels(sourcechange.Leaf(o.Range, text), "literal", hint(o.Range.Start.Line))
	case UnaryOrigin:
		return label(reverseUnary(o, target), unaryName(o.Op), o.Range.Start.Line)
	case BinaryOrigin:
		return label(reverseBinary(o, target), opNames[o.Op], o.Range.Start.Line)
	}
	return sourcechange.Unrealizable()
}

func contains(outer, inner ast.Range) bool {
	if outer.End.Byte <= outer.Start.Byte {
		return false
	}
	return inner.Start.Byte >= outer.Start.Byte && inner.End.Byte <= outer.End.Byte
}

func hint(line int) string {
	if line == 0 {
		return ""
	}
	return fmt.Sprintf("line %d", line)
}

func unaryName(op string) string {
	if op == "-" {
		return opNames["neg"]
	}
	return opNames[op]
}

// label names composite results after the operator that produced them. Leaves
// keep the label of the literal they rewrite.
func label(t sourcechange.Tree, name string, line int) sourcechange.Tree {
	switch t.(type) {
	case *sourcechange.Alternative, *sourcechange.Combination:
		if sourcechange.IsNoop(t) || sourcechange.IsUnrealizable(t) {
			return t
		}
		return sourcechange.WithLabels(t, name, hint(line))
	}
	return t
}

func reverseUnary(o UnaryOrigin, target Value) sourcechange.Tree {
	switch o.Op {
	case "-":
		n, ok := ToNumber(target)
		if !ok {
			return sourcechange.Unrealizable()
		}
		return force(o.Operand, retarget(o.Operand, -n), o.Range)
	case "not":
		want := !target.Truthy()
		if o.Operand.Kind() == KindBool || o.Operand.Kind() == KindNil {
			return force(o.Operand, Bool(want), o.Range)
		}
		if want {
			// Already truthy and not a boolean: nothing to change.
			return sourcechange.Noop()
		}
		return force(o.Operand, Bool(false), o.Range)
	case "~":
		i, ok := ToInteger(target)
		if !ok {
			return sourcechange.Unrealizable()
		}
		return force(o.Operand, retarget(o.Operand, float64(^i)), o.Range)
	}
	return sourcechange.Unrealizable()
}

func reverseBinary(o BinaryOrigin, target Value) sourcechange.Tree {
	if o.Op == ".." {
		return reverseConcat(o, target)
	}
	v, ok := ToNumber(target)
	if !ok || math.IsNaN(v) {
		return sourcechange.Unrealizable()
	}
	a, okA := ToNumber(o.LHS)
	b, okB := ToNumber(o.RHS)
	if !okA || !okB {
		return sourcechange.Unrealizable()
	}

	var lhs, rhs sourcechange.Tree
	forceLHS := func(n float64) {
		if isFinite(n) {
			lhs = force(o.LHS, retarget(o.LHS, n), o.Range)
		}
	}
	forceRHS := func(n float64) {
		if isFinite(n) {
			rhs = force(o.RHS, retarget(o.RHS, n), o.Range)
		}
	}

	switch o.Op {
	case "+":
		forceLHS(v - b)
		forceRHS(v - a)
	case "-":
		forceLHS(v + b)
		forceRHS(a - v)
	case "*":
		if b != 0 {
			forceLHS(v / b)
		}
		if a != 0 {
			forceRHS(v / a)
		}
	case "/":
		forceLHS(v * b)
		if v != 0 {
			forceRHS(a / v)
		}
	case "^":
		if b != 0 && (v >= 0 || math.Mod(b, 2) != 0) {
			forceLHS(signedRoot(v, b))
		}
		if a > 0 && a != 1 && v > 0 {
			forceRHS(math.Log(v) / math.Log(a))
		}
	case "%":
		// a % b keeps a's quotient; only the dividend can move.
		if b != 0 && ((b > 0 && v >= 0 && v < b) || (b < 0 && v <= 0 && v > b)) {
			forceLHS(a - floorMod(a, b) + v)
		}
	case "//":
		if b != 0 && v == math.Trunc(v) {
			forceLHS(v*b + floorMod(a, b))
		}
	default:
		return sourcechange.Unrealizable()
	}
	return orPresent(lhs, rhs)
}

// orPresent builds the Alternative of the branches that were attempted;
// branches left nil were not invertible.
func orPresent(trees ...sourcechange.Tree) sourcechange.Tree {
	present := make([]sourcechange.Tree, 0, len(trees))
	for _, t := range trees {
		if t != nil {
			present = append(present, t)
		}
	}
	return sourcechange.Or(present...)
}

func reverseConcat(o BinaryOrigin, target Value) sourcechange.Tree {
	want, ok := concatOperand(target)
	if !ok {
		return sourcechange.Unrealizable()
	}
	left, okL := concatOperand(o.LHS)
	right, okR := concatOperand(o.RHS)
	if !okL || !okR {
		return sourcechange.Unrealizable()
	}
	var lhs, rhs sourcechange.Tree
	if strings.HasSuffix(want, right) {
		if next, ok := restring(o.LHS, strings.TrimSuffix(want, right)); ok {
			lhs = force(o.LHS, next, o.Range)
		}
	}
	if strings.HasPrefix(want, left) {
		if next, ok := restring(o.RHS, strings.TrimPrefix(want, left)); ok {
			rhs = force(o.RHS, next, o.Range)
		}
	}
	return orPresent(lhs, rhs)
}

// retarget keeps a coerced string operand a string.
func retarget(operand Value, n float64) Value {
	if operand.Kind() == KindString {
		return String(literalNumber(n))
	}
	return Number(n)
}

// restring keeps a number operand of a concatenation a number.
func restring(operand Value, s string) (Value, bool) {
	if operand.Kind() == KindNumber {
		n, ok := ParseNumber(s)
		if !ok || FormatNumber(n) != s {
			return Nil(), false
		}
		return Number(n), true
	}
	return String(s), true
}

func signedRoot(v, b float64) float64 {
	if v < 0 {
		return -math.Pow(-v, 1/b)
	}
	return math.Pow(v, 1/b)
}

func isFinite(n float64) bool {
	return !math.IsInf(n, 0) && !math.IsNaN(n)
}
