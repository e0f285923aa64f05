package runtime

import (
	"fmt"
	"math"
)

// tableKey is the comparable projection of a Value used as a map key.
type tableKey struct {
	kind  Kind
	b     bool
	n     float64
	s     string
	table *Table
	fn    *Function
}

func keyOf(v Value) tableKey {
	return tableKey{kind: v.kind, b: v.b, n: v.n, s: v.s, table: v.table, fn: v.fn}
}

type tableSlot struct {
	key   Value
	value Value
}

// Table is a mutable associative array shared by every Value that refers to
// it. Iteration follows insertion order. Assigning nil to an existing key
// leaves a tombstone so a traversal in progress can continue past it.
type Table struct {
	index map[tableKey]int
	slots []tableSlot
	dead  int
	meta  *Table
}

func NewTable() *Table {
	return &Table{index: make(map[tableKey]int)}
}

// Get returns nil for absent keys.
func (t *Table) Get(key Value) Value {
	if i, ok := t.index[keyOf(key)]; ok {
		return t.slots[i].value
	}
	return Nil()
}

// GetString is a shortcut for string keys.
func (t *Table) GetString(key string) Value {
	return t.Get(String(key))
}

// Set stores value under key; a nil value removes the entry.
func (t *Table) Set(key, value Value) error {
	switch key.kind {
	case KindNil:
		return fmt.Errorf("table index is nil")
	case KindNumber:
		if math.IsNaN(key.n) {
			return fmt.Errorf("table index is NaN")
		}
	}
	k := keyOf(key)
	if i, ok := t.index[k]; ok {
		wasDead := t.slots[i].value.IsNil()
		t.slots[i].value = value
		switch {
		case value.IsNil() && !wasDead:
			t.dead++
		case !value.IsNil() && wasDead:
			t.dead--
		}
		return nil
	}
	if value.IsNil() {
		return nil
	}
	if t.dead > 8 && t.dead > len(t.slots)/2 {
		t.compact()
	}
	t.index[k] = len(t.slots)
	t.slots = append(t.slots, tableSlot{key: key, value: value})
	return nil
}

// Metatable returns the table set by SetMetatable, or nil.
func (t *Table) Metatable() *Table {
	return t.meta
}

func (t *Table) SetMetatable(mt *Table) {
	t.meta = mt
}

// Metamethod reads event from the metatable without further dispatch.
func (t *Table) Metamethod(event string) Value {
	if t.meta == nil {
		return Nil()
	}
	return t.meta.GetString(event)
}

// SetString is a shortcut for string keys.
func (t *Table) SetString(key string, value Value) {
	_ = t.Set(String(key), value)
}

func (t *Table) compact() {
	live := t.slots[:0]
	for _, slot := range t.slots {
		if slot.value.IsNil() {
			delete(t.index, keyOf(slot.key))
			continue
		}
		t.index[keyOf(slot.key)] = len(live)
		live = append(live, slot)
	}
	for i := len(live); i < len(t.slots); i++ {
		t.slots[i] = tableSlot{}
	}
	t.slots = live
	t.dead = 0
}

// Length returns a border: n such that t[n] is non-nil and t[n+1] is nil, or
// zero when t[1] is nil.
func (t *Table) Length() int {
	n := 0
	for !t.Get(Number(float64(n + 1))).IsNil() {
		n++
	}
	return n
}

// Next returns the entry following key in iteration order; a nil key starts
// the traversal. ok is false once the traversal is over.
func (t *Table) Next(key Value) (Value, Value, bool, error) {
	start := 0
	if !key.IsNil() {
		i, found := t.index[keyOf(key)]
		if !found {
			return Nil(), Nil(), false, fmt.Errorf("invalid key to 'next'")
		}
		start = i + 1
	}
	for i := start; i < len(t.slots); i++ {
		if slot := t.slots[i]; !slot.value.IsNil() {
			return slot.key, slot.value, true, nil
		}
	}
	return Nil(), Nil(), false, nil
}

// Append stores value at Length()+1.
func (t *Table) Append(value Value) {
	_ = t.Set(Number(float64(t.Length()+1)), value)
}

// Insert shifts the sequence up from pos and stores value there.
func (t *Table) Insert(pos int, value Value) error {
	n := t.Length()
	if pos < 1 || pos > n+1 {
		return fmt.Errorf("position out of bounds")
	}
	for i := n; i >= pos; i-- {
		_ = t.Set(Number(float64(i+1)), t.Get(Number(float64(i))))
	}
	return t.Set(Number(float64(pos)), value)
}

// Remove deletes the element at pos, shifting the rest of the sequence down.
func (t *Table) Remove(pos int) (Value, error) {
	n := t.Length()
	if n == 0 && (pos == 0 || pos == n) {
		return Nil(), nil
	}
	if pos < 1 || pos > n+1 {
		return Nil(), fmt.Errorf("position out of bounds")
	}
	removed := t.Get(Number(float64(pos)))
	for i := pos; i < n; i++ {
		_ = t.Set(Number(float64(i)), t.Get(Number(float64(i+1))))
	}
	if pos <= n {
		_ = t.Set(Number(float64(n)), Nil())
	}
	return removed, nil
}

// Sequence returns t[1..Length()].
func (t *Table) Sequence() Vallist {
	n := t.Length()
	out := make(Vallist, n)
	for i := 1; i <= n; i++ {
		out[i-1] = t.Get(Number(float64(i)))
	}
	return out
}

// Count returns the number of live entries.
func (t *Table) Count() int {
	return len(t.slots) - t.dead
}
