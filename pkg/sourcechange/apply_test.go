package sourcechange

import (
	"errors"
	"testing"
)

func TestApplyDisjointChangesAnyOrder(t *testing.T) {
	source := "a = 1, b = 2"
	one := Leaf(span(4, 5), "5")
	two := Leaf(span(11, 12), "6")

	for _, order := range [][]*Change{{one, two}, {two, one}} {
		got, applied, err := Apply(source, order)
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if got != "a = 5, b = 6" {
			t.Fatalf("Apply = %q", got)
		}
		if len(applied) != 2 || applied[0] != two {
			t.Fatalf("expected descending application order, got %v", applied)
		}
	}
}

func TestApplyLengthChangingEdits(t *testing.T) {
	source := "x = 1 + 2"
	got, _, err := Apply(source, []*Change{Leaf(span(4, 5), "100"), Leaf(span(8, 9), "-3")})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != "x = 100 + -3" {
		t.Fatalf("Apply = %q", got)
	}
}

func TestApplyRejectsOverlap(t *testing.T) {
	source := "return 123"
	_, _, err := Apply(source, []*Change{Leaf(span(7, 10), "1"), Leaf(span(8, 9), "9")})
	if !errors.Is(err, ErrOverlappingChanges) {
		t.Fatalf("expected overlap error, got %v", err)
	}

	_, _, err = Apply(source, []*Change{Leaf(span(7, 10), "1"), Leaf(span(7, 10), "2")})
	if !errors.Is(err, ErrOverlappingChanges) {
		t.Fatalf("conflicting replacements of one range must fail, got %v", err)
	}
}

func TestApplyMergesDuplicates(t *testing.T) {
	source := "return 1"
	got, applied, err := Apply(source, []*Change{Leaf(span(7, 8), "2"), Leaf(span(7, 8), "2")})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != "return 2" || len(applied) != 1 {
		t.Fatalf("Apply = %q (%d applied)", got, len(applied))
	}
}

func TestApplyOutOfBounds(t *testing.T) {
	source := "x"
	got, _, err := Apply(source, []*Change{Leaf(span(0, 1), "y"), Leaf(span(3, 4), "z")})
	if !errors.Is(err, ErrRangeOutOfBounds) {
		t.Fatalf("expected bounds error, got %v", err)
	}
	if got != source {
		t.Fatalf("failed Apply must leave source untouched, got %q", got)
	}
}

func TestResolvers(t *testing.T) {
	a := Leaf(span(0, 1), "a")
	b := Leaf(span(2, 3), "b")

	changes, err := FirstAlternative(Unrealizable())
	if err != nil || changes != nil {
		t.Fatalf("unrealizable should resolve to nothing, got %v, %v", changes, err)
	}
	changes, err = FirstAlternative(Or(a, b))
	if err != nil || len(changes) != 1 || changes[0] != a {
		t.Fatalf("FirstAlternative = %v, %v", changes, err)
	}
	if _, err := SingleAlternative(Or(a, b)); !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
	changes, err = SingleAlternative(And(a, b))
	if err != nil || len(changes) != 2 {
		t.Fatalf("SingleAlternative = %v, %v", changes, err)
	}
}
