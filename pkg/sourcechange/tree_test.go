package sourcechange

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"minilua/interpreter-go/pkg/ast"
)

func span(start, end int) ast.Range {
	return ast.Range{
		Start: ast.Location{Line: 1, Column: start + 1, Byte: start},
		End:   ast.Location{Line: 1, Column: end + 1, Byte: end},
	}
}

func TestEmptyConstructors(t *testing.T) {
	if !IsNoop(And()) {
		t.Fatalf("And() = %s, want empty combination", And())
	}
	if !IsUnrealizable(Or()) {
		t.Fatalf("Or() = %s, want empty alternative", Or())
	}
	if !IsNoop(And(nil, nil)) {
		t.Fatalf("nil children should be dropped")
	}
}

func TestSingletonCollapse(t *testing.T) {
	a := Leaf(span(0, 1), "1")
	if got := And(a); got != Tree(a) {
		t.Fatalf("And(a) = %s, want the leaf itself", got)
	}
	if got := Or(a); got != Tree(a) {
		t.Fatalf("Or(a) = %s, want the leaf itself", got)
	}
	if got := And(Noop(), a, Noop()); got != Tree(a) {
		t.Fatalf("no-ops should be dropped, got %s", got)
	}
	if got := Or(Unrealizable(), a); got != Tree(a) {
		t.Fatalf("unrealizable branches should be dropped, got %s", got)
	}
}

func TestFlattening(t *testing.T) {
	a := Leaf(span(0, 1), "a")
	b := Leaf(span(2, 3), "b")
	c := Leaf(span(4, 5), "c")

	if diff := cmp.Diff(Or(a, b, c), Or(Or(a, b), c)); diff != "" {
		t.Fatalf("or flattening mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Or(a, b, c), Or(a, Or(b, c))); diff != "" {
		t.Fatalf("or flattening mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(And(a, b, c), And(And(a, b), c)); diff != "" {
		t.Fatalf("and flattening mismatch (-want +got):\n%s", diff)
	}

	// Alternatives nested in a combination are kept as a unit.
	got := And(a, Or(b, c))
	comb, ok := got.(*Combination)
	if !ok || len(comb.Changes) != 2 {
		t.Fatalf("And(a, Or(b, c)) = %s", got)
	}
	if _, ok := comb.Changes[1].(*Alternative); !ok {
		t.Fatalf("expected alternative child, got %T", comb.Changes[1])
	}
}

func TestAndWithUnrealizableChild(t *testing.T) {
	a := Leaf(span(0, 1), "a")
	if got := And(a, Unrealizable()); !IsUnrealizable(got) {
		t.Fatalf("And(a, unrealizable) = %s, want unrealizable", got)
	}
}

func TestOrNoopAbsorbs(t *testing.T) {
	a := Leaf(span(0, 1), "a")
	if got := Or(a, Noop()); !IsNoop(got) {
		t.Fatalf("Or(a, noop) = %s, want noop", got)
	}
}

func TestCollectFirstAlternative(t *testing.T) {
	a := Leaf(span(0, 1), "a")
	b := Leaf(span(2, 3), "b")
	c := Leaf(span(4, 5), "c")
	d := Leaf(span(6, 7), "d")

	tree := And(Or(a, b), Or(c, d))
	got, ok := CollectFirstAlternative(tree)
	if !ok {
		t.Fatalf("expected realizable tree")
	}
	if diff := cmp.Diff([]*Change{a, c}, got); diff != "" {
		t.Fatalf("first alternative mismatch (-want +got):\n%s", diff)
	}

	if _, ok := CollectFirstAlternative(Unrealizable()); ok {
		t.Fatalf("unrealizable tree must not resolve")
	}
	empty, ok := CollectFirstAlternative(Noop())
	if !ok || len(empty) != 0 {
		t.Fatalf("noop should resolve to no changes, got %v (%v)", empty, ok)
	}
}

func TestAlternativesExpansion(t *testing.T) {
	a := Leaf(span(0, 1), "a")
	b := Leaf(span(2, 3), "b")
	c := Leaf(span(4, 5), "c")

	sets, truncated := Alternatives(And(c, Or(a, b)), 0)
	if truncated {
		t.Fatalf("unexpected truncation")
	}
	want := [][]*Change{{c, a}, {c, b}}
	if diff := cmp.Diff(want, sets); diff != "" {
		t.Fatalf("expansion mismatch (-want +got):\n%s", diff)
	}

	sets, truncated = Alternatives(Or(a, b, c), 2)
	if !truncated || len(sets) != 2 {
		t.Fatalf("expected 2 truncated sets, got %d (truncated=%v)", len(sets), truncated)
	}

	sets, truncated = Alternatives(Or(a, b), 2)
	if truncated || len(sets) != 2 {
		t.Fatalf("exact fit must not report truncation, got %d (truncated=%v)", len(sets), truncated)
	}
}

func TestDistribute(t *testing.T) {
	r := Leaf(span(0, 1), "r")
	a := Leaf(span(2, 3), "a")
	b := Leaf(span(4, 5), "b")

	got := Distribute(And(r, Or(a, b)))
	want := Or(And(r, a), And(r, b))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("distribute mismatch (-want +got):\n%s", diff)
	}
	if !IsUnrealizable(Distribute(Unrealizable())) {
		t.Fatalf("distributing unrealizable must stay unrealizable")
	}
	if !IsNoop(Distribute(Noop())) {
		t.Fatalf("distributing noop must stay noop")
	}
}

func TestSimplify(t *testing.T) {
	a := Leaf(span(0, 1), "a")
	b := Leaf(span(2, 3), "b")

	cases := []struct {
		name string
		in   Tree
		want Tree
	}{
		{"empty combination", &Combination{}, Noop()},
		{"singleton alternative", &Alternative{Changes: []Tree{a}}, a},
		{"nested combination", &Combination{Changes: []Tree{&Combination{Changes: []Tree{a, b}}}}, And(a, b)},
		{"alternative of empties", &Alternative{Changes: []Tree{&Alternative{}, &Alternative{}}}, Unrealizable()},
		{"labels kept", &Alternative{Labels: Labels{Origin: "add"}, Changes: []Tree{a, b}}, WithLabels(Or(a, b), "add", "")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Simplify(tc.in)); diff != "" {
				t.Fatalf("simplify mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWithLabelsCopies(t *testing.T) {
	a := Leaf(span(0, 1), "a")
	labelled := WithLabels(a, "force", "line 1")
	if a.Origin != "" {
		t.Fatalf("WithLabels mutated its input")
	}
	if got := labelled.Label(); got.Origin != "force" || got.Hint != "line 1" {
		t.Fatalf("unexpected labels %+v", got)
	}
}
