package interpreter

import (
	"bytes"
	"testing"

	"minilua/interpreter-go/pkg/runtime"
)

// newTestInterpreter builds an interpreter whose stdout is captured.
func newTestInterpreter(t *testing.T, source string, config Config) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	if config.Stdout == nil {
		config.Stdout = &out
	}
	interp, err := New(source, config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(interp.Close)
	return interp, &out
}

// mustRun runs source with the default configuration.
func mustRun(t *testing.T, source string) (*EvalResult, string) {
	t.Helper()
	interp, out := newTestInterpreter(t, source, Config{})
	res, err := interp.Run()
	if err != nil {
		t.Fatalf("Run(%q): %v", source, err)
	}
	return res, out.String()
}

func numberOf(t *testing.T, v runtime.Value) float64 {
	t.Helper()
	n, ok := v.AsNumber()
	if !ok {
		t.Fatalf("expected number, got %s %s", v.Kind(), v)
	}
	return n
}

func stringsOf(values runtime.Vallist) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}
