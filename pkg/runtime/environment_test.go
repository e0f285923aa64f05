package runtime

import "testing"

func TestEnvironmentShadowing(t *testing.T) {
	root := NewEnvironment()
	root.DeclareLocal("x", Number(1))

	inner := root.Extend()
	inner.DeclareLocal("x", Number(2))
	if got := inner.Get("x"); !RawEquals(got, Number(2)) {
		t.Fatalf("inner x = %s, want 2", got)
	}
	if got := root.Get("x"); !RawEquals(got, Number(1)) {
		t.Fatalf("outer x = %s after shadowing, want 1", got)
	}
}

func TestEnvironmentAssignWalksOutward(t *testing.T) {
	root := NewEnvironment()
	root.DeclareLocal("x", Number(1))
	inner := root.Extend().Extend()
	inner.Assign("x", Number(5))
	if got := root.Get("x"); !RawEquals(got, Number(5)) {
		t.Fatalf("assignment should update the declaring scope, got %s", got)
	}
}

func TestEnvironmentImplicitGlobals(t *testing.T) {
	root := NewEnvironment()
	inner := root.NewCallScope(nil)
	inner.Assign("g", String("hi"))
	if inner.IsLocal("g") {
		t.Fatalf("undeclared assignment must not create a local")
	}
	if got := root.Global().GetString("g"); !RawEquals(got, String("hi")) {
		t.Fatalf("global g = %s", got)
	}
	if _, found := root.Lookup("missing"); found {
		t.Fatalf("missing name reported as found")
	}
}

func TestEnvironmentSharedByClosures(t *testing.T) {
	root := NewEnvironment()
	scope := root.Extend()
	scope.DeclareLocal("n", Number(0))
	captured := scope
	scope.Assign("n", Number(3))
	if got := captured.Get("n"); !RawEquals(got, Number(3)) {
		t.Fatalf("captured scope should observe later writes, got %s", got)
	}
}

func TestEnvironmentVarargs(t *testing.T) {
	root := NewEnvironment()
	call := root.NewCallScope(Vallist{Number(1), Number(2)})
	block := call.Extend()
	if got := block.Varargs(); len(got) != 2 {
		t.Fatalf("block should see the enclosing call's varargs, got %v", got)
	}
	nested := block.NewCallScope(nil)
	if got := nested.Varargs(); len(got) != 0 {
		t.Fatalf("nested call must not inherit varargs, got %v", got)
	}
}

func TestEnvironmentRedeclarationMakesNewBinding(t *testing.T) {
	root := NewEnvironment()
	root.DeclareLocal("x", Number(1))
	captured := root.Capture()
	root.DeclareLocal("x", Number(2))
	if got := captured.Get("x"); !RawEquals(got, Number(1)) {
		t.Fatalf("captured x = %s, want the earlier binding 1", got)
	}
	if got := root.Get("x"); !RawEquals(got, Number(2)) {
		t.Fatalf("x = %s, want 2", got)
	}
}

func TestEnvironmentCaptureSharesCells(t *testing.T) {
	root := NewEnvironment()
	root.DeclareLocal("x", Number(1))
	block := root.Extend()
	block.DeclareLocal("y", Number(2))
	captured := block.Capture()

	block.Assign("x", Number(10))
	captured.Assign("y", Number(20))
	if got := captured.Get("x"); !RawEquals(got, Number(10)) {
		t.Fatalf("captured x = %s, want 10", got)
	}
	if got := block.Get("y"); !RawEquals(got, Number(20)) {
		t.Fatalf("y = %s, want 20", got)
	}
	// Names declared after the capture are not in its lexical scope.
	block.DeclareLocal("later", Number(3))
	if captured.IsLocal("later") {
		t.Fatalf("capture should not see later declarations")
	}
}
