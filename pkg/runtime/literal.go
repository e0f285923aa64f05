package runtime

import (
	"math"
	"strconv"
	"strings"
)

// RenderLiteral returns source text that evaluates to v. Tables, functions
// and non-finite numbers have no literal form.
func RenderLiteral(v Value) (string, bool) {
	switch v.Kind() {
	case KindNil:
		return "nil", true
	case KindBool:
		if v.b {
			return "true", true
		}
		return "false", true
	case KindNumber:
		if math.IsInf(v.n, 0) || math.IsNaN(v.n) {
			return "", false
		}
		return literalNumber(v.n), true
	case KindString:
		return QuoteString(v.s), true
	}
	return "", false
}

// literalNumber is the shortest text that reads back as exactly n.
func literalNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// QuoteString produces a double-quoted Lua string literal.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\a':
			sb.WriteString(`\a`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\v':
			sb.WriteString(`\v`)
		default:
			if c < 0x20 || c == 0x7f {
				// Three digits so a following digit is not absorbed.
				sb.WriteByte('\\')
				d := strconv.Itoa(int(c))
				sb.WriteString(strings.Repeat("0", 3-len(d)))
				sb.WriteString(d)
				continue
			}
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
