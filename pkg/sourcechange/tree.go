// Package sourcechange implements the edit algebra used to turn a requested
// runtime value into concrete edits of the program text.
//
// A Tree is either a single Change, a Combination whose children must all be
// applied together, or an Alternative of which exactly one child is chosen.
// An empty Combination means no edit is needed; an empty Alternative means the
// request cannot be realized in source.
package sourcechange

import (
	"fmt"
	"strings"

	"minilua/interpreter-go/pkg/ast"
)

// Labels are informational tags carried by every tree node. The algebra never
// inspects them.
type Labels struct {
	Origin string `json:"origin,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

type Tree interface {
	Label() Labels
	String() string
	isTree()
}

// Change replaces the bytes covered by Range with Replacement.
type Change struct {
	Labels
	Range       ast.Range `json:"range"`
	Replacement string    `json:"replacement"`
}

type Combination struct {
	Labels
	Changes []Tree `json:"changes"`
}

type Alternative struct {
	Labels
	Changes []Tree `json:"changes"`
}

func (c *Change) Label() Labels      { return c.Labels }
func (c *Combination) Label() Labels { return c.Labels }
func (a *Alternative) Label() Labels { return a.Labels }

func (*Change) isTree()      {}
func (*Combination) isTree() {}
func (*Alternative) isTree() {}

func (c *Change) String() string {
	return fmt.Sprintf("%s->%q", c.Range, c.Replacement)
}

func (c *Combination) String() string {
	return "and(" + joinTrees(c.Changes) + ")"
}

func (a *Alternative) String() string {
	return "or(" + joinTrees(a.Changes) + ")"
}

func joinTrees(trees []Tree) string {
	parts := make([]string, len(trees))
	for i, t := range trees {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// Leaf builds a single Change.
func Leaf(r ast.Range, replacement string) *Change {
	return &Change{Range: r, Replacement: replacement}
}

// Noop is the empty Combination.
func Noop() *Combination {
	return &Combination{}
}

// Unrealizable is the empty Alternative.
func Unrealizable() *Alternative {
	return &Alternative{}
}

func IsNoop(t Tree) bool {
	c, ok := t.(*Combination)
	return ok && len(c.Changes) == 0
}

func IsUnrealizable(t Tree) bool {
	a, ok := t.(*Alternative)
	return ok && len(a.Changes) == 0
}

// And requires every tree. Nested Combinations are flattened and no-ops are
// dropped; a nil tree counts as a no-op. If any child is unrealizable the
// conjunction is unrealizable too. A single surviving child is returned as is.
func And(trees ...Tree) Tree {
	var out []Tree
	for _, t := range trees {
		if t == nil {
			continue
		}
		switch v := t.(type) {
		case *Combination:
			for _, child := range v.Changes {
				if IsUnrealizable(child) {
					return Unrealizable()
				}
				if !IsNoop(child) {
					out = append(out, child)
				}
			}
		case *Alternative:
			if len(v.Changes) == 0 {
				return Unrealizable()
			}
			out = append(out, v)
		default:
			out = append(out, t)
		}
	}
	switch len(out) {
	case 0:
		return Noop()
	case 1:
		return out[0]
	}
	return &Combination{Changes: out}
}

// Or offers the trees as mutually exclusive choices. Nested Alternatives are
// flattened and unrealizable children dropped. A no-op child absorbs the whole
// Alternative, since leaving the source alone already realizes the value.
func Or(trees ...Tree) Tree {
	var out []Tree
	for _, t := range trees {
		if t == nil {
			continue
		}
		switch v := t.(type) {
		case *Alternative:
			for _, child := range v.Changes {
				if IsNoop(child) {
					return Noop()
				}
				if !IsUnrealizable(child) {
					out = append(out, child)
				}
			}
		case *Combination:
			if len(v.Changes) == 0 {
				return Noop()
			}
			out = append(out, v)
		default:
			out = append(out, t)
		}
	}
	switch len(out) {
	case 0:
		return Unrealizable()
	case 1:
		return out[0]
	}
	return &Alternative{Changes: out}
}

// WithLabels returns a shallow copy of t carrying the given labels.
func WithLabels(t Tree, origin, hint string) Tree {
	labels := Labels{Origin: origin, Hint: hint}
	switch v := t.(type) {
	case *Change:
		c := *v
		c.Labels = labels
		return &c
	case *Combination:
		return &Combination{Labels: labels, Changes: v.Changes}
	case *Alternative:
		return &Alternative{Labels: labels, Changes: v.Changes}
	}
	return t
}

// Simplify rebuilds t bottom-up through And and Or so that hand-built trees
// reach the canonical shape. Labels of surviving nodes are kept.
func Simplify(t Tree) Tree {
	switch v := t.(type) {
	case nil:
		return nil
	case *Change:
		return v
	case *Combination:
		children := make([]Tree, 0, len(v.Changes))
		for _, child := range v.Changes {
			children = append(children, Simplify(child))
		}
		return relabel(And(children...), v.Labels)
	case *Alternative:
		children := make([]Tree, 0, len(v.Changes))
		for _, child := range v.Changes {
			children = append(children, Simplify(child))
		}
		return relabel(Or(children...), v.Labels)
	}
	return t
}

// relabel keeps the parent's labels on a rebuilt composite, but never
// overwrites the labels of a collapsed child.
func relabel(t Tree, labels Labels) Tree {
	if labels == (Labels{}) {
		return t
	}
	switch v := t.(type) {
	case *Combination:
		if v.Labels == (Labels{}) {
			return WithLabels(v, labels.Origin, labels.Hint)
		}
	case *Alternative:
		if v.Labels == (Labels{}) {
			return WithLabels(v, labels.Origin, labels.Hint)
		}
	}
	return t
}

// CollectFirstAlternative picks one concrete edit set by taking the leftmost
// branch of every Alternative and every child of every Combination. The
// boolean is false when an empty Alternative is reached.
func CollectFirstAlternative(t Tree) ([]*Change, bool) {
	var out []*Change
	ok := collectFirst(t, &out)
	if !ok {
		return nil, false
	}
	return out, true
}

func collectFirst(t Tree, out *[]*Change) bool {
	switch v := t.(type) {
	case nil:
		return true
	case *Change:
		*out = append(*out, v)
		return true
	case *Combination:
		for _, child := range v.Changes {
			if !collectFirst(child, out) {
				return false
			}
		}
		return true
	case *Alternative:
		if len(v.Changes) == 0 {
			return false
		}
		return collectFirst(v.Changes[0], out)
	}
	return true
}

// Alternatives expands t into disjunctive normal form: every element is one
// complete edit set. Expansion stops after limit sets when limit > 0; the
// boolean reports whether the result was truncated.
func Alternatives(t Tree, limit int) ([][]*Change, bool) {
	sets := expand(t, limit)
	truncated := false
	if limit > 0 && len(sets) >= limit {
		truncated = countAlternatives(t, limit+1) > limit
		sets = sets[:limit]
	}
	return sets, truncated
}

func expand(t Tree, limit int) [][]*Change {
	switch v := t.(type) {
	case nil:
		return [][]*Change{nil}
	case *Change:
		return [][]*Change{{v}}
	case *Combination:
		acc := [][]*Change{nil}
		for _, child := range v.Changes {
			sub := expand(child, limit)
			next := make([][]*Change, 0, len(acc)*len(sub))
			for _, left := range acc {
				for _, right := range sub {
					merged := make([]*Change, 0, len(left)+len(right))
					merged = append(merged, left...)
					merged = append(merged, right...)
					next = append(next, merged)
					if limit > 0 && len(next) >= limit {
						break
					}
				}
				if limit > 0 && len(next) >= limit {
					break
				}
			}
			acc = next
		}
		return acc
	case *Alternative:
		var out [][]*Change
		for _, child := range v.Changes {
			out = append(out, expand(child, limit)...)
			if limit > 0 && len(out) >= limit {
				return out[:limit]
			}
		}
		return out
	}
	return nil
}

// countAlternatives counts edit sets without materializing them, saturating
// at ceiling.
func countAlternatives(t Tree, ceiling int) int {
	switch v := t.(type) {
	case nil, *Change:
		return 1
	case *Combination:
		n := 1
		for _, child := range v.Changes {
			n *= countAlternatives(child, ceiling)
			if n == 0 {
				return 0
			}
			if n > ceiling {
				n = ceiling
			}
		}
		return n
	case *Alternative:
		n := 0
		for _, child := range v.Changes {
			n += countAlternatives(child, ceiling)
			if n > ceiling {
				return ceiling
			}
		}
		return n
	}
	return 0
}

// Distribute pushes every Combination below the Alternatives, producing an
// Alternative of Combinations of Changes.
func Distribute(t Tree) Tree {
	sets := expand(t, 0)
	branches := make([]Tree, 0, len(sets))
	for _, set := range sets {
		parts := make([]Tree, len(set))
		for i, c := range set {
			parts[i] = c
		}
		branches = append(branches, And(parts...))
	}
	return Or(branches...)
}
