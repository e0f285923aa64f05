package runtime

import (
	"math"
	"testing"
)

func TestTableAliasing(t *testing.T) {
	tbl := NewTable()
	a := TableValue(tbl)
	b := a
	bt, _ := b.AsTable()
	bt.SetString("x", Number(1))
	at, _ := a.AsTable()
	if got := at.GetString("x"); !RawEquals(got, Number(1)) {
		t.Fatalf("mutation through one alias should be visible through the other, got %s", got)
	}
}

func TestTableRejectsBadKeys(t *testing.T) {
	tbl := NewTable()
	if err := tbl.Set(Nil(), Number(1)); err == nil {
		t.Fatalf("nil key should be rejected")
	}
	if err := tbl.Set(Number(math.NaN()), Number(1)); err == nil {
		t.Fatalf("NaN key should be rejected")
	}
}

func TestTableNextInsertionOrder(t *testing.T) {
	tbl := NewTable()
	tbl.SetString("b", Number(2))
	tbl.SetString("a", Number(1))
	_ = tbl.Set(Number(1), String("one"))
	tbl.SetString("gone", Bool(true))
	tbl.SetString("gone", Nil())

	var keys []string
	key := Nil()
	for {
		k, _, ok, err := tbl.Next(key)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		keys = append(keys, k.String())
		key = k
	}
	want := []string{"b", "a", "1"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestTableDeleteDuringTraversal(t *testing.T) {
	tbl := NewTable()
	for i := 1; i <= 20; i++ {
		tbl.Append(Number(float64(i)))
	}
	key := Nil()
	seen := 0
	for {
		k, _, ok, err := tbl.Next(key)
		if err != nil {
			t.Fatalf("Next after delete: %v", err)
		}
		if !ok {
			break
		}
		_ = tbl.Set(k, Nil())
		seen++
		key = k
	}
	if seen != 20 || tbl.Count() != 0 {
		t.Fatalf("seen %d entries, %d left", seen, tbl.Count())
	}
}

func TestTableSequenceOps(t *testing.T) {
	tbl := NewTable()
	tbl.Append(String("a"))
	tbl.Append(String("c"))
	if err := tbl.Insert(2, String("b")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := tbl.Sequence().String(); got != "a\tb\tc" {
		t.Fatalf("sequence = %q", got)
	}
	removed, err := tbl.Remove(1)
	if err != nil || !RawEquals(removed, String("a")) {
		t.Fatalf("Remove(1) = %s, %v", removed, err)
	}
	if tbl.Length() != 2 {
		t.Fatalf("Length() = %d, want 2", tbl.Length())
	}
	if err := tbl.Insert(5, Nil()); err == nil {
		t.Fatalf("insert past the border should fail")
	}
}

func TestTableMetamethod(t *testing.T) {
	tbl := NewTable()
	if !tbl.Metamethod("__index").IsNil() {
		t.Fatalf("a table without a metatable has no metamethods")
	}
	mt := NewTable()
	fallback := NewTable()
	mt.SetString("__index", TableValue(fallback))
	tbl.SetMetatable(mt)
	if tbl.Metatable() != mt {
		t.Fatalf("Metatable did not return the installed table")
	}
	if h, ok := tbl.Metamethod("__index").AsTable(); !ok || h != fallback {
		t.Fatalf("unexpected __index %s", tbl.Metamethod("__index"))
	}
	// Raw access ignores the metatable.
	fallback.SetString("x", Number(1))
	if !tbl.GetString("x").IsNil() {
		t.Fatalf("Get must not consult __index")
	}
}
