package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindTable
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTable:
		return "table"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a closed tagged variant. Only the payload matching kind is set.
// Tables and functions are shared handles: copying a Value aliases them.
// The zero Value is nil with no origin.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	s      string
	table  *Table
	fn     *Function
	origin Origin
}

// Vallist is an ordered sequence of values used for arguments and results.
type Vallist []Value

func Nil() Value                      { return Value{kind: KindNil} }
func Bool(b bool) Value               { return Value{kind: KindBool, b: b} }
func Number(n float64) Value          { return Value{kind: KindNumber, n: n} }
func String(s string) Value           { return Value{kind: KindString, s: s} }
func TableValue(t *Table) Value       { return Value{kind: KindTable, table: t} }
func FunctionValue(f *Function) Value { return Value{kind: KindFunction, fn: f} }

func (v Value) Kind() Kind { return v.kind }

// Origin never returns nil; values built without provenance report NoOrigin.
func (v Value) Origin() Origin {
	if v.origin == nil {
		return NoOrigin{}
	}
	return v.origin
}

// WithOrigin returns a copy of v tagged with origin.
func (v Value) WithOrigin(origin Origin) Value {
	v.origin = origin
	return v
}

func (v Value) IsNil() bool { return v.kind == KindNil }

func (v Value) AsBool() (bool, bool)         { return v.b, v.kind == KindBool }
func (v Value) AsNumber() (float64, bool)    { return v.n, v.kind == KindNumber }
func (v Value) AsString() (string, bool)     { return v.s, v.kind == KindString }
func (v Value) AsTable() (*Table, bool)      { return v.table, v.kind == KindTable }
func (v Value) AsFunction() (*Function, bool) { return v.fn, v.kind == KindFunction }

// Truthy follows Lua: only nil and false are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// RawEquals compares without metamethods. Numbers use IEEE equality, tables
// and functions compare by identity. Origins are ignored.
func RawEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindTable:
		return a.table == b.table
	case KindFunction:
		return a.fn == b.fn
	}
	return false
}

// String renders the value the way tostring does.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return FormatNumber(v.n)
	case KindString:
		return v.s
	case KindTable:
		return fmt.Sprintf("table: %p", v.table)
	case KindFunction:
		if v.fn.Native != nil {
			return fmt.Sprintf("builtin: %p", v.fn)
		}
		return fmt.Sprintf("function: %p", v.fn)
	}
	return "<invalid>"
}

// FormatNumber is the display form used by tostring, print and
// concatenation: integral values without a fractional part, everything else
// with 14 significant digits.
func FormatNumber(n float64) string {
	switch {
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case math.IsNaN(n):
		return "nan"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', 14, 64)
}

// ParseNumber accepts Lua numeric literals: decimal, exponent and hex forms,
// with surrounding whitespace.
func ParseNumber(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	neg := false
	body := s
	if body[0] == '-' || body[0] == '+' {
		neg = body[0] == '-'
		body = body[1:]
	}
	if len(body) > 2 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		n, ok := parseHex(body[2:])
		if !ok {
			return 0, false
		}
		if neg {
			n = -n
		}
		return n, true
	}
	if !isDecimalLiteral(body) {
		return 0, false
	}
	n, err := strconv.ParseFloat(body, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return 0, false
		}
	}
	if neg {
		n = -n
	}
	return n, true
}

// isDecimalLiteral reports whether s is digits with an optional fraction and
// exponent. strconv.ParseFloat alone also takes underscores, "inf" and hex.
func isDecimalLiteral(s string) bool {
	i, digits := 0, 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == exp {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func parseHex(digits string) (float64, bool) {
	mantissa, exponent, hasExp := digits, "", false
	if i := strings.IndexAny(digits, "pP"); i >= 0 {
		mantissa, exponent, hasExp = digits[:i], digits[i+1:], true
	}
	if mantissa == "" || mantissa == "." {
		return 0, false
	}
	var n float64
	scale := 0
	seenDot := false
	for _, r := range mantissa {
		if r == '.' {
			if seenDot {
				return 0, false
			}
			seenDot = true
			continue
		}
		d, err := strconv.ParseUint(string(r), 16, 8)
		if err != nil {
			return 0, false
		}
		n = n*16 + float64(d)
		if seenDot {
			scale -= 4
		}
	}
	if hasExp {
		e, err := strconv.Atoi(exponent)
		if err != nil {
			return 0, false
		}
		scale += e
	}
	return math.Ldexp(n, scale), true
}

// ToNumber converts numbers and numeric strings.
func ToNumber(v Value) (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		return ParseNumber(v.s)
	}
	return 0, false
}

// ToInteger converts to an exact integer for bitwise operators.
func ToInteger(v Value) (int64, bool) {
	n, ok := ToNumber(v)
	if !ok || n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > 1<<63 {
		return 0, false
	}
	return int64(n), true
}

// First returns the first value or nil.
func (l Vallist) First() Value {
	if len(l) == 0 {
		return Nil()
	}
	return l[0]
}

// Get returns the i-th value (0-based) or nil when absent.
func (l Vallist) Get(i int) Value {
	if i < 0 || i >= len(l) {
		return Nil()
	}
	return l[i]
}

func (l Vallist) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return strings.Join(parts, "\t")
}
