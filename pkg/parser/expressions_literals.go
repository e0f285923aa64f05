package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"minilua/interpreter-go/pkg/ast"
	"minilua/interpreter-go/pkg/runtime"
)

func parseNumberLiteral(node *sitter.Node, source []byte) (ast.Expression, error) {
	content := sliceContent(node, source)
	if content == "" {
		return nil, &ParseError{Message: "empty number literal", Range: rangeFromNode(node)}
	}
	value, ok := runtime.ParseNumber(content)
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("invalid number literal %q", content), Range: rangeFromNode(node)}
	}
	return annotateExpression(ast.NewNumberLiteral(value, content), node), nil
}

func parseStringLiteral(node *sitter.Node, source []byte) (ast.Expression, error) {
	raw := sliceContent(node, source)
	value, err := decodeString(raw)
	if err != nil {
		return nil, &ParseError{Message: err.Error(), Range: rangeFromNode(node)}
	}
	return annotateExpression(ast.NewStringLiteral(value, raw), node), nil
}

// decodeString turns the source text of a string literal into its value.
func decodeString(raw string) (string, error) {
	if strings.HasPrefix(raw, "[") {
		return decodeLongString(raw)
	}
	if len(raw) < 2 || (raw[0] != '"' && raw[0] != '\'') || raw[len(raw)-1] != raw[0] {
		return "", fmt.Errorf("invalid string literal %s", raw)
	}
	body := raw[1 : len(raw)-1]

	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("unfinished escape in %s", raw)
		}
		switch e := body[i]; e {
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case '\\', '"', '\'':
			sb.WriteByte(e)
		case '\n':
			sb.WriteByte('\n')
			if i+1 < len(body) && body[i+1] == '\r' {
				i++
			}
		case '\r':
			sb.WriteByte('\n')
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case 'z':
			for i+1 < len(body) && isSpace(body[i+1]) {
				i++
			}
		case 'x':
			if i+3 > len(body) {
				return "", fmt.Errorf("hexadecimal digit expected in %s", raw)
			}
			n, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("hexadecimal digit expected in %s", raw)
			}
			sb.WriteByte(byte(n))
			i += 2
		case 'u':
			end := strings.IndexByte(body[i:], '}')
			if i+1 >= len(body) || body[i+1] != '{' || end < 0 {
				return "", fmt.Errorf("malformed \\u escape in %s", raw)
			}
			n, err := strconv.ParseUint(body[i+2:i+end], 16, 32)
			if err != nil || n > utf8.MaxRune {
				return "", fmt.Errorf("UTF-8 value too large in %s", raw)
			}
			sb.WriteRune(rune(n))
			i += end
		default:
			if e < '0' || e > '9' {
				return "", fmt.Errorf("invalid escape sequence '\\%c' in %s", e, raw)
			}
			j := i
			for j < len(body) && j < i+3 && body[j] >= '0' && body[j] <= '9' {
				j++
			}
			n, _ := strconv.Atoi(body[i:j])
			if n > 255 {
				return "", fmt.Errorf("decimal escape too large in %s", raw)
			}
			sb.WriteByte(byte(n))
			i = j - 1
		}
	}
	return sb.String(), nil
}

// decodeLongString handles [[...]] and [==[...]==]; a newline right after
// the opening bracket is skipped.
func decodeLongString(raw string) (string, error) {
	level := 0
	for level+1 < len(raw) && raw[level+1] == '=' {
		level++
	}
	open := 2 + level
	if len(raw) < 2*open || raw[open-1] != '[' {
		return "", fmt.Errorf("invalid long string %s", raw)
	}
	body := raw[open : len(raw)-open]
	switch {
	case strings.HasPrefix(body, "\r\n"):
		body = body[2:]
	case strings.HasPrefix(body, "\n"):
		body = body[1:]
	}
	return body, nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
