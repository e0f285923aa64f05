package stdlib_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"minilua/interpreter-go/pkg/interpreter"
	"minilua/interpreter-go/pkg/runtime"
	"minilua/interpreter-go/pkg/sourcechange"
	"minilua/interpreter-go/pkg/stdlib"
)

func eval(t *testing.T, source string) []string {
	t.Helper()
	interp, err := interpreter.New(source, interpreter.Config{Stdout: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer interp.Close()
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run(%q): %v", source, err)
	}
	out := make([]string, len(res.Values))
	for i, v := range res.Values {
		out[i] = v.String()
	}
	return out
}

func TestLibraryFunctions(t *testing.T) {
	cases := []struct {
		source string
		want   []string
	}{
		{`return type(nil), type(1), type("s"), type({}), type(print), type(true)`, []string{"nil", "number", "string", "table", "function", "boolean"}},
		{`return tostring(12), tostring(1.5), tostring(nil)`, []string{"12", "1.5", "nil"}},
		{`return tostring(2^53), tostring(1/3), 0.1 + 0.2`, []string{"9.007199254741e+15", "0.33333333333333", "0.3"}},
		{`return tonumber("1_000"), tonumber("1e"), tonumber("0x1_0"), (pcall(function() return "1_000" + 1 end))`, []string{"nil", "nil", "nil", "false"}},
		{`return tonumber("0x10"), tonumber(" 12 "), tonumber("z"), tonumber("ff", 16), tonumber("777", 8)`, []string{"16", "12", "nil", "255", "511"}},
		{`return select(2, "a", "b", "c")`, []string{"b", "c"}},
		{`return select(-1, "a", "b", "c")`, []string{"c"}},
		{`return next({})`, []string{"nil"}},
		{`return rawequal("a", "a"), rawget({5}, 1)`, []string{"true", "5"}},
		{`local t = {} rawset(t, "k", 1) return t.k`, []string{"1"}},
		{`local mt = {} local t = setmetatable({}, mt) return getmetatable(t) == mt, getmetatable({}), getmetatable("s")`, []string{"true", "nil", "nil"}},
		{`local t = setmetatable({}, {__index = {k = 1}}) return rawget(t, "k"), t.k`, []string{"nil", "1"}},
		{`return unpack({1, 2, 3})`, []string{"1", "2", "3"}},
		{`return table.unpack({1, 2, 3}, 2)`, []string{"2", "3"}},
		{`local t = {1, 3} table.insert(t, 2, 2) table.insert(t, 4) return table.concat(t, "-")`, []string{"1-2-3-4"}},
		{`local t = {1, 2, 3} local r = table.remove(t, 1) return r, #t, t[1]`, []string{"1", "2", "2"}},
		{`local t = {1, 2, 3} return table.remove(t), #t`, []string{"3", "2"}},
		{`return math.floor(2.7), math.ceil(2.1), math.abs(-3), math.sqrt(16)`, []string{"2", "3", "3", "4"}},
		{`return math.max(3, 9, 2), math.min(3, 9, 2), math.huge, -math.huge`, []string{"9", "2", "inf", "-inf"}},
		{`local r = math.random(3, 3) return r`, []string{"3"}},
		{`local r = math.random() return r >= 0 and r < 1`, []string{"true"}},
		{`return string.len("abc"), string.sub("hello", 2, 4), string.sub("hello", -3)`, []string{"3", "ell", "llo"}},
		{`return string.upper("a"), string.lower("B"), string.rep("ab", 3, ","), string.reverse("abc")`, []string{"A", "b", "ab,ab,ab", "cba"}},
		{`return string.byte("A"), string.char(104, 105)`, []string{"65", "hi"}},
		{`return string.format("%d|%5.2f|%s|%x|%q|%%", 42, 3.14159, "s", 255, "a\"b")`, []string{`42| 3.14|s|ff|"a\"b"|%`}},
		{`return assert(1, "unused")`, []string{"1", "unused"}},
		{`return discard_origin(5)`, []string{"5"}},
	}
	for _, tc := range cases {
		t.Run(tc.source, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, eval(t, tc.source)); diff != "" {
				t.Fatalf("results mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIORead(t *testing.T) {
	stdin := strings.NewReader("first line\n42\nrest\nof it")
	interp, err := interpreter.New(`local l = io.read()
local n = io.read("n")
local a = io.read("a")
return l, n, a, io.read()`, interpreter.Config{Stdin: stdin})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer interp.Close()
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := make([]string, len(res.Values))
	for i, v := range res.Values {
		got[i] = v.String()
	}
	want := []string{"first line", "42", "\nrest\nof it", "nil"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("io.read mismatch (-want +got):\n%s", diff)
	}
}

// The natives can be driven without an evaluator through a bare CallContext.
func TestForceNative(t *testing.T) {
	env := runtime.NewEnvironment()
	stdlib.Register(env)
	forceFn, ok := env.Global().GetString("force").AsFunction()
	if !ok {
		t.Fatalf("force is not registered")
	}

	literal := runtime.Number(2).WithOrigin(runtime.LiteralOrigin{})
	res, err := forceFn.Native(&runtime.CallContext{Env: env, Name: "force", Args: runtime.Vallist{literal, runtime.Number(9)}})
	if err != nil {
		t.Fatalf("force: %v", err)
	}
	if len(res.Values) != 0 {
		t.Fatalf("force should not return values, got %s", res.Values)
	}
	if res.SourceChange == nil || res.SourceChange.Label().Origin != "force" {
		t.Fatalf("expected a labelled source change, got %v", res.SourceChange)
	}
	// The label goes on the change itself rather than on a wrapper.
	change, ok := res.SourceChange.(*sourcechange.Change)
	if !ok {
		t.Fatalf("expected a single *sourcechange.Change, got %T", res.SourceChange)
	}
	if change.Replacement != "9" {
		t.Fatalf("replacement = %q, want 9", change.Replacement)
	}

	external := runtime.Number(2).WithOrigin(runtime.ExternalOrigin{})
	res, err = forceFn.Native(&runtime.CallContext{Env: env, Name: "force", Args: runtime.Vallist{external, runtime.Number(9)}})
	if err != nil {
		t.Fatalf("force: %v", err)
	}
	if !sourcechange.IsUnrealizable(res.SourceChange) {
		t.Fatalf("forcing an external value should be unrealizable, got %s", res.SourceChange)
	}

	if _, err := forceFn.Native(&runtime.CallContext{Env: env, Name: "force", Args: runtime.Vallist{literal}}); err == nil {
		t.Fatalf("force with one argument should fail")
	}
}

func TestPcallPropagatesSourceChange(t *testing.T) {
	source := "local x = 1\nlocal ok = pcall(function() force(x, 4) end)\nreturn ok"
	interp, err := interpreter.New(source, interpreter.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer interp.Close()
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	changes, ok := sourcechange.CollectFirstAlternative(res.SourceChange)
	if !ok || len(changes) != 1 || changes[0].Replacement != "4" {
		t.Fatalf("unexpected changes %v", changes)
	}
}

func TestBadArguments(t *testing.T) {
	cases := map[string]string{
		`math.floor("x")`:          "bad argument #1 to 'floor' (number expected, got string)",
		`table.insert(1, 2)`:       "bad argument #1 to 'insert' (table expected, got number)",
		`select(0)`:                "bad argument #1 to 'select' (index out of range)",
		`string.format("%d", 1.5)`: "number has no integer representation",
		`io.write({})`:             "bad argument #1 to 'write' (string expected, got table)",
		`ipairs(nil)`:              "bad argument #1 to 'ipairs' (table expected, got nil)",
	}
	for source, want := range cases {
		t.Run(source, func(t *testing.T) {
			interp, err := interpreter.New(source, interpreter.Config{Stdout: &bytes.Buffer{}})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer interp.Close()
			_, err = interp.Run()
			if err == nil || !strings.Contains(err.Error(), want) {
				t.Fatalf("error = %v, want it to contain %q", err, want)
			}
		})
	}
}
