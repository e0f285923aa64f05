package sourcechange

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrOverlappingChanges = errors.New("overlapping source changes")
	ErrRangeOutOfBounds   = errors.New("source change out of bounds")
	ErrAmbiguous          = errors.New("source change has more than one alternative")
)

// Resolver turns a tree into the single edit set to apply. A nil result with
// a nil error means there is nothing to apply.
type Resolver func(Tree) ([]*Change, error)

// FirstAlternative resolves with CollectFirstAlternative. Unrealizable trees
// resolve to nothing.
func FirstAlternative(t Tree) ([]*Change, error) {
	changes, ok := CollectFirstAlternative(t)
	if !ok {
		return nil, nil
	}
	return changes, nil
}

// SingleAlternative refuses trees that offer a choice.
func SingleAlternative(t Tree) ([]*Change, error) {
	sets, _ := Alternatives(t, 2)
	switch len(sets) {
	case 0:
		return nil, nil
	case 1:
		return sets[0], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrAmbiguous, t)
}

// Apply performs the replacements on source. Changes are applied by
// descending start offset so earlier ranges stay valid; exact duplicates are
// merged. Nothing is applied if any change is out of bounds or two changes
// overlap. The returned slice is the deduplicated set in application order.
func Apply(source string, changes []*Change) (string, []*Change, error) {
	ordered := make([]*Change, 0, len(changes))
	for _, c := range changes {
		if c == nil {
			continue
		}
		start, end := c.Range.Start.Byte, c.Range.End.Byte
		if start < 0 || end < start || end > len(source) {
			return source, nil, fmt.Errorf("%w: %s (source is %d bytes)", ErrRangeOutOfBounds, c.Range, len(source))
		}
		ordered = append(ordered, c)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Range.Start.Byte != ordered[j].Range.Start.Byte {
			return ordered[i].Range.Start.Byte > ordered[j].Range.Start.Byte
		}
		return ordered[i].Range.End.Byte > ordered[j].Range.End.Byte
	})

	deduped := ordered[:0:0]
	for _, c := range ordered {
		if n := len(deduped); n > 0 {
			prev := deduped[n-1]
			if prev.Range.Start.Byte == c.Range.Start.Byte && prev.Range.End.Byte == c.Range.End.Byte && prev.Replacement == c.Replacement {
				continue
			}
			if prev.Range.Overlaps(c.Range) {
				return source, nil, fmt.Errorf("%w: %s and %s", ErrOverlappingChanges, c, prev)
			}
		}
		deduped = append(deduped, c)
	}

	out := source
	for _, c := range deduped {
		out = out[:c.Range.Start.Byte] + c.Replacement + out[c.Range.End.Byte:]
	}
	return out, deduped, nil
}
