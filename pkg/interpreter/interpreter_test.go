package interpreter

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"minilua/interpreter-go/pkg/parser"
	"minilua/interpreter-go/pkg/runtime"
	"minilua/interpreter-go/pkg/sourcechange"
)

func TestLiteralsCarryTheirRange(t *testing.T) {
	source := `return 25, "x", true`
	res, _ := mustRun(t, source)
	if len(res.Values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(res.Values))
	}
	for i, want := range []string{"25", `"x"`, "true"} {
		origin, ok := res.Values[i].Origin().(runtime.LiteralOrigin)
		if !ok {
			t.Fatalf("value %d: expected literal origin, got %s", i, res.Values[i].Origin())
		}
		if got := source[origin.Range.Start.Byte:origin.Range.End.Byte]; got != want {
			t.Fatalf("value %d: origin covers %q, want %q", i, got, want)
		}
	}
}

func TestBinaryOriginKeepsOperands(t *testing.T) {
	source := "local a, b = 3, 4\nreturn a + b"
	res, _ := mustRun(t, source)
	origin, ok := res.Values.First().Origin().(runtime.BinaryOrigin)
	if !ok {
		t.Fatalf("expected binary origin, got %s", res.Values.First().Origin())
	}
	if origin.Op != "+" {
		t.Fatalf("op = %q, want +", origin.Op)
	}
	lhs := origin.LHS.Origin().(runtime.LiteralOrigin)
	rhs := origin.RHS.Origin().(runtime.LiteralOrigin)
	if source[lhs.Range.Start.Byte:lhs.Range.End.Byte] != "3" || source[rhs.Range.Start.Byte:rhs.Range.End.Byte] != "4" {
		t.Fatalf("operand origins point at %s and %s", lhs.Range, rhs.Range)
	}
	if origin.Range.Start.Line != 2 {
		t.Fatalf("expression range starts at %s, want line 2", origin.Range.Start)
	}
}

func TestAndOrPropagateOperandOrigin(t *testing.T) {
	res, _ := mustRun(t, "return nil or 7, 1 and 8")
	for i, v := range res.Values {
		if _, ok := v.Origin().(runtime.LiteralOrigin); !ok {
			t.Fatalf("value %d: expected the operand's literal origin, got %s", i, v.Origin())
		}
	}
}

func TestNativeResultsAreExternal(t *testing.T) {
	res, _ := mustRun(t, "return math.random(), tostring(1)")
	for i, v := range res.Values {
		if _, ok := v.Origin().(runtime.ExternalOrigin); !ok {
			t.Fatalf("value %d: expected external origin, got %s", i, v.Origin())
		}
	}
}

const sumSource = "local a = 3\nlocal b = 4\nreturn a + b\n"

func TestForceSumOffersBothOperands(t *testing.T) {
	interp, _ := newTestInterpreter(t, sumSource, Config{})
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tree := interp.Force(res.Values.First(), runtime.Number(10))
	if tree.Label().Origin != "add" || tree.Label().Hint != "line 3" {
		t.Fatalf("unexpected labels %+v", tree.Label())
	}
	sets, truncated := sourcechange.Alternatives(tree, 0)
	if truncated || len(sets) != 2 {
		t.Fatalf("expected two alternatives, got %d (truncated=%v)", len(sets), truncated)
	}
	type edit struct {
		Text        string
		Replacement string
	}
	var got []edit
	for _, set := range sets {
		for _, c := range set {
			got = append(got, edit{sumSource[c.Range.Start.Byte:c.Range.End.Byte], c.Replacement})
		}
	}
	want := []edit{{"3", "6"}, {"4", "7"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("alternatives mismatch (-want +got):\n%s", diff)
	}
}

func TestForceRoundTrip(t *testing.T) {
	pickSecond := func(tree sourcechange.Tree) ([]*sourcechange.Change, error) {
		sets, _ := sourcechange.Alternatives(tree, 0)
		return sets[1], nil
	}
	cases := []struct {
		name    string
		resolve sourcechange.Resolver
		source  string
	}{
		{name: "first alternative", resolve: nil, source: "local a = 6\nlocal b = 4\nreturn a + b\n"},
		{name: "second alternative", resolve: pickSecond, source: "local a = 3\nlocal b = 7\nreturn a + b\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			interp, _ := newTestInterpreter(t, sumSource, Config{})
			res, err := interp.Run()
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			tree := interp.Force(res.Values.First(), runtime.Number(10))
			applied, err := interp.ApplySourceChanges(tree, tc.resolve)
			if err != nil {
				t.Fatalf("ApplySourceChanges: %v", err)
			}
			if len(applied) != 1 {
				t.Fatalf("expected one applied change, got %d", len(applied))
			}
			if interp.Source() != tc.source {
				t.Fatalf("source = %q, want %q", interp.Source(), tc.source)
			}
			rerun, err := interp.Run()
			if err != nil {
				t.Fatalf("re-run: %v", err)
			}
			if got := numberOf(t, rerun.Values.First()); got != 10 {
				t.Fatalf("re-evaluated to %v, want 10", got)
			}
		})
	}
}

// Each program forces a value, the first alternative is written back and the
// rewritten program must then produce the target without further requests.
func TestForceApplyAndRerun(t *testing.T) {
	cases := []struct {
		name    string
		source  string
		rewrite string
		want    []string
	}{
		{
			name:    "negative target",
			source:  "local x = 2\nforce(x, -4)\nreturn x\n",
			rewrite: "local x = -4\nforce(x, -4)\nreturn x\n",
			want:    []string{"-4"},
		},
		{
			name:    "unary minus literal",
			source:  "local x = -3\nforce(x, 5)\nreturn x\n",
			rewrite: "local x = -(-5)\nforce(x, 5)\nreturn x\n",
			want:    []string{"5"},
		},
		{
			name:    "literal after binary minus",
			source:  "local y = tonumber(\"10\")-3\nforce(y, 15)\nreturn y\n",
			rewrite: "local y = tonumber(\"10\")-(-5)\nforce(y, 15)\nreturn y\n",
			want:    []string{"15"},
		},
		{
			name:    "negative left operand",
			source:  "local a = 1 + 2\nforce(a, -1)\nreturn a\n",
			rewrite: "local a = (-3) + 2\nforce(a, -1)\nreturn a\n",
			want:    []string{"-1"},
		},
		{
			name:    "string concatenation",
			source:  "local s = \"ab\" .. \"c\"\nforce(s, \"abd\")\nreturn s\n",
			rewrite: "local s = \"ab\" .. \"d\"\nforce(s, \"abd\")\nreturn s\n",
			want:    []string{"abd"},
		},
		{
			name:    "number inside concatenation",
			source:  "local s = \"v\" .. 1\nforce(s, \"v2\")\nreturn s\n",
			rewrite: "local s = \"v\" .. 2\nforce(s, \"v2\")\nreturn s\n",
			want:    []string{"v2"},
		},
		{
			name:    "coerced string operand",
			source:  "local n = \"10\" + 1\nforce(n, 20)\nreturn n\n",
			rewrite: "local n = \"19\" + 1\nforce(n, 20)\nreturn n\n",
			want:    []string{"20"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			interp, _ := newTestInterpreter(t, tc.source, Config{})
			res, err := interp.Run()
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if _, err := interp.ApplySourceChanges(res.SourceChange, nil); err != nil {
				t.Fatalf("ApplySourceChanges: %v", err)
			}
			if interp.Source() != tc.rewrite {
				t.Fatalf("source = %q, want %q", interp.Source(), tc.rewrite)
			}
			rerun, err := interp.Run()
			if err != nil {
				t.Fatalf("re-run: %v", err)
			}
			if diff := cmp.Diff(tc.want, stringsOf(rerun.Values)); diff != "" {
				t.Fatalf("re-run results mismatch (-want +got):\n%s", diff)
			}
			if !sourcechange.IsNoop(rerun.SourceChange) {
				t.Fatalf("re-run still requests %s", rerun.SourceChange)
			}
		})
	}
}

func TestForceThroughFunctionCall(t *testing.T) {
	source := "local function double(x) return x * 2 end\nreturn double(5)\n"
	interp, _ := newTestInterpreter(t, source, Config{})
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tree := interp.Force(res.Values.First(), runtime.Number(14))
	if _, err := interp.ApplySourceChanges(tree, nil); err != nil {
		t.Fatalf("ApplySourceChanges: %v", err)
	}
	if want := "local function double(x) return x * 2 end\nreturn double(7)\n"; interp.Source() != want {
		t.Fatalf("source = %q, want %q", interp.Source(), want)
	}
}

func TestForceInsideProgramSurfacesInResult(t *testing.T) {
	source := "local x = 2\nforce(x, 5)\nreturn x\n"
	interp, _ := newTestInterpreter(t, source, Config{})
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.SourceChange == nil {
		t.Fatalf("expected a source change")
	}
	if res.SourceChange.Label().Origin != "force" || res.SourceChange.Label().Hint != "line 2" {
		t.Fatalf("unexpected labels %+v", res.SourceChange.Label())
	}
	if _, ok := res.SourceChange.(*sourcechange.Combination); ok {
		t.Fatalf("a single forced change should not be wrapped, got %s", res.SourceChange)
	}
	if _, err := interp.ApplySourceChanges(res.SourceChange, nil); err != nil {
		t.Fatalf("ApplySourceChanges: %v", err)
	}
	if want := "local x = 5\nforce(x, 5)\nreturn x\n"; interp.Source() != want {
		t.Fatalf("source = %q, want %q", interp.Source(), want)
	}

	rerun, err := interp.Run()
	if err != nil {
		t.Fatalf("re-run: %v", err)
	}
	if !sourcechange.IsNoop(rerun.SourceChange) {
		t.Fatalf("forcing the current value should be a no-op, got %s", rerun.SourceChange)
	}
}

func TestForceChangesAreCombinedAcrossStatements(t *testing.T) {
	source := "local a, b = 1, 2\nforce(a, 5)\nforce(b, 6)\n"
	interp, _ := newTestInterpreter(t, source, Config{})
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	applied, err := interp.ApplySourceChanges(res.SourceChange, nil)
	if err != nil {
		t.Fatalf("ApplySourceChanges: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("expected both changes, got %d", len(applied))
	}
	if want := "local a, b = 5, 6\nforce(a, 5)\nforce(b, 6)\n"; interp.Source() != want {
		t.Fatalf("source = %q, want %q", interp.Source(), want)
	}
}

func TestRandomIsUnrealizable(t *testing.T) {
	source := "return math.random()"
	interp, _ := newTestInterpreter(t, source, Config{})
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tree := interp.Force(res.Values.First(), runtime.Number(0.5))
	if !sourcechange.IsUnrealizable(tree) {
		t.Fatalf("expected unrealizable tree, got %s", tree)
	}
	applied, err := interp.ApplySourceChanges(tree, nil)
	if err != nil || len(applied) != 0 {
		t.Fatalf("ApplySourceChanges = %v, %v; want nothing applied", applied, err)
	}
	if interp.Source() != source {
		t.Fatalf("source changed to %q", interp.Source())
	}
}

func TestHostInjectedValues(t *testing.T) {
	interp, _ := newTestInterpreter(t, "return answer + 0", Config{})
	interp.Environment().Global().SetString("answer", runtime.Number(42).WithOrigin(runtime.ExternalOrigin{}))
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := numberOf(t, res.Values.First()); got != 42 {
		t.Fatalf("answer = %v", got)
	}
	// Only the literal 0 can absorb the change.
	tree := interp.Force(res.Values.First(), runtime.Number(50))
	changes, ok := sourcechange.CollectFirstAlternative(tree)
	if !ok || len(changes) != 1 || changes[0].Replacement != "8" {
		t.Fatalf("unexpected changes %v (ok=%v)", changes, ok)
	}
}

func TestApplySingleAlternativeRefusesAmbiguity(t *testing.T) {
	interp, _ := newTestInterpreter(t, sumSource, Config{})
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tree := interp.Force(res.Values.First(), runtime.Number(10))
	if _, err := interp.ApplySourceChanges(tree, sourcechange.SingleAlternative); !errors.Is(err, sourcechange.ErrAmbiguous) {
		t.Fatalf("expected ErrAmbiguous, got %v", err)
	}
	if interp.Source() != sumSource {
		t.Fatalf("refused apply changed the source")
	}
}

func TestIncrementalReparseAfterApply(t *testing.T) {
	interp, _ := newTestInterpreter(t, sumSource, Config{})
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := interp.ApplySourceChanges(interp.Force(res.Values.First(), runtime.Number(100)), nil); err != nil {
		t.Fatalf("ApplySourceChanges: %v", err)
	}
	incremental, err := interp.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fresh, err := parser.ParseChunk([]byte(interp.Source()))
	if err != nil {
		t.Fatalf("ParseChunk: %v", err)
	}
	if diff := cmp.Diff(fresh, incremental, cmp.Exporter(func(reflect.Type) bool { return true })); diff != "" {
		t.Fatalf("incremental parse differs (-fresh +incremental):\n%s", diff)
	}
}

func TestEvalPersistsEnvironment(t *testing.T) {
	interp, _ := newTestInterpreter(t, "", Config{})
	for _, line := range []string{"x = 1", "local y = 5", "function inc(n) return n + x end"} {
		if _, err := interp.Eval(line); err != nil {
			t.Fatalf("Eval(%q): %v", line, err)
		}
	}
	res, err := interp.Eval("return inc(y)")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got := numberOf(t, res.Values.First()); got != 6 {
		t.Fatalf("inc(y) = %v, want 6", got)
	}
}

func TestStepCounterAndBudget(t *testing.T) {
	interp, _ := newTestInterpreter(t, "local n = 0\nfor i = 1, 10 do n = n + i end\nreturn n", Config{})
	if _, err := interp.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	first := interp.Steps()
	if first == 0 {
		t.Fatalf("step counter did not move")
	}
	if _, err := interp.Run(); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if interp.Steps() != 2*first {
		t.Fatalf("steps after two runs = %d, want %d", interp.Steps(), 2*first)
	}

	looping, _ := newTestInterpreter(t, "while true do end", Config{MaxSteps: 1000})
	if _, err := looping.Run(); !errors.Is(err, ErrStepBudgetExceeded) {
		t.Fatalf("expected ErrStepBudgetExceeded, got %v", err)
	}
	if looping.Steps() != 1001 {
		t.Fatalf("steps = %d, want 1001", looping.Steps())
	}
}

func TestPcallDoesNotCatchStepBudget(t *testing.T) {
	interp, _ := newTestInterpreter(t, "return pcall(function() while true do end end)", Config{MaxSteps: 500})
	if _, err := interp.Run(); !errors.Is(err, ErrStepBudgetExceeded) {
		t.Fatalf("expected ErrStepBudgetExceeded, got %v", err)
	}
}

func TestTraceCallsLogs(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	interp, out := newTestInterpreter(t, `print("hi")`, Config{Logger: logger, TraceCalls: true, TraceNodes: true})
	if _, err := interp.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "hi\n" {
		t.Fatalf("stdout = %q", out.String())
	}
	for _, want := range []string{"msg=call", "function=print", `msg="call result"`, "msg=statement"} {
		if !strings.Contains(logs.String(), want) {
			t.Fatalf("log output missing %q:\n%s", want, logs.String())
		}
	}
}

func TestNoStdlib(t *testing.T) {
	interp, _ := newTestInterpreter(t, "return print", Config{NoStdlib: true})
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Values.First().IsNil() {
		t.Fatalf("print should be undefined without the standard library")
	}
}

func TestFormatValue(t *testing.T) {
	res, _ := mustRun(t, `local t = {1, "two", x = 3, ["not a name"] = true}
t.self = t
return t, "s", nil`)
	got := FormatResults(res.Values)
	want := `{1, "two", x = 3, ["not a name"] = true, self = <cycle>}` + "\t\"s\"\tnil"
	if got != want {
		t.Fatalf("FormatResults = %s, want %s", got, want)
	}
}

func TestFormatChanges(t *testing.T) {
	interp, _ := newTestInterpreter(t, sumSource, Config{})
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	changes, _ := sourcechange.CollectFirstAlternative(interp.Force(res.Values.First(), runtime.Number(10)))
	if got, want := FormatChanges(changes), "1:11-1:12 -> \"6\" (literal line 1)\n"; got != want {
		t.Fatalf("FormatChanges = %q, want %q", got, want)
	}
}
