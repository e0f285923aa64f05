package interpreter

import (
	"fmt"
	"strings"

	"minilua/interpreter-go/pkg/runtime"
	"minilua/interpreter-go/pkg/sourcechange"
)

const maxInspectDepth = 4

// FormatValue renders a value for the REPL. Strings are quoted and tables
// are expanded a few levels deep; cycles print as <cycle>.
func FormatValue(v runtime.Value) string {
	var b strings.Builder
	formatValue(&b, v, 0, map[*runtime.Table]bool{})
	return b.String()
}

func formatValue(b *strings.Builder, v runtime.Value, depth int, seen map[*runtime.Table]bool) {
	switch v.Kind() {
	case runtime.KindString:
		s, _ := v.AsString()
		b.WriteString(runtime.QuoteString(s))
	case runtime.KindTable:
		tbl, _ := v.AsTable()
		if seen[tbl] {
			b.WriteString("<cycle>")
			return
		}
		if depth >= maxInspectDepth {
			b.WriteString(v.String())
			return
		}
		seen[tbl] = true
		defer delete(seen, tbl)
		formatTable(b, tbl, depth, seen)
	default:
		b.WriteString(v.String())
	}
}

func formatTable(b *strings.Builder, tbl *runtime.Table, depth int, seen map[*runtime.Table]bool) {
	b.WriteString("{")
	n := tbl.Length()
	first := true
	sep := func() {
		if !first {
			b.WriteString(", ")
		}
		first = false
	}
	for idx := 1; idx <= n; idx++ {
		sep()
		formatValue(b, tbl.Get(runtime.Number(float64(idx))), depth+1, seen)
	}
	key := runtime.Nil()
	for {
		k, val, ok, err := tbl.Next(key)
		if err != nil || !ok {
			break
		}
		key = k
		if idx, isInt := runtime.ToInteger(k); isInt && k.Kind() == runtime.KindNumber && idx >= 1 && idx <= int64(n) {
			continue
		}
		sep()
		if s, isStr := k.AsString(); isStr && isName(s) {
			b.WriteString(s)
		} else {
			b.WriteString("[")
			formatValue(b, k, depth+1, seen)
			b.WriteString("]")
		}
		b.WriteString(" = ")
		formatValue(b, val, depth+1, seen)
	}
	b.WriteString("}")
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for idx, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case idx > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// FormatResults renders returned values separated by tabs, or "" for none.
func FormatResults(values runtime.Vallist) string {
	parts := make([]string, len(values))
	for idx, v := range values {
		parts[idx] = FormatValue(v)
	}
	return strings.Join(parts, "\t")
}

// FormatChanges renders concrete edits one per line, as `L:C-L:C -> "text"`,
// with the labels of the change when present.
func FormatChanges(changes []*sourcechange.Change) string {
	var b strings.Builder
	for _, c := range changes {
		fmt.Fprintf(&b, "%s -> %s", c.Range, runtime.QuoteString(c.Replacement))
		if c.Origin != "" || c.Hint != "" {
			fmt.Fprintf(&b, " (%s)", strings.TrimSpace(c.Origin+" "+c.Hint))
		}
		b.WriteString("\n")
	}
	return b.String()
}
