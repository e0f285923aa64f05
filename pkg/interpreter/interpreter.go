package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"minilua/interpreter-go/pkg/ast"
	"minilua/interpreter-go/pkg/parser"
	"minilua/interpreter-go/pkg/runtime"
	"minilua/interpreter-go/pkg/sourcechange"
	"minilua/interpreter-go/pkg/stdlib"
)

// ErrStepBudgetExceeded is returned once Config.MaxSteps is exhausted.
var ErrStepBudgetExceeded = runtime.ErrStepBudgetExceeded

const defaultMaxCallDepth = 8000

// Config controls tracing, limits and the initial environment.
type Config struct {
	Logger *slog.Logger

	TraceNodes      bool
	TraceCalls      bool
	TraceExprlists  bool
	TraceEnterBlock bool

	// MaxSteps bounds the number of evaluated nodes; zero means unlimited.
	MaxSteps int64
	// MaxCallDepth bounds call nesting; zero selects the default.
	MaxCallDepth int

	StrictGlobals bool
	NoStdlib      bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// EvalResult is the outcome of running a chunk: its returned values and the
// source changes requested while running it.
type EvalResult struct {
	Values       runtime.Vallist
	SourceChange sourcechange.Tree
}

// Interpreter evaluates one source document against a persistent
// environment.
type Interpreter struct {
	config Config
	logger *slog.Logger
	doc    *parser.Document
	env    *runtime.Environment
	ctx    context.Context
	steps  int64
	depth  int
}

// New parses nothing yet; the source is parsed on the first Parse or Run.
func New(source string, config Config) (*Interpreter, error) {
	doc, err := parser.NewDocument(source)
	if err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.MaxCallDepth <= 0 {
		config.MaxCallDepth = defaultMaxCallDepth
	}

	env := runtime.NewEnvironment()
	env.SetStrictGlobals(config.StrictGlobals)
	if config.Stdin != nil {
		env.SetStdin(config.Stdin)
	}
	if config.Stdout != nil {
		env.SetStdout(config.Stdout)
	}
	if config.Stderr != nil {
		env.SetStderr(config.Stderr)
	}
	if !config.NoStdlib {
		stdlib.Register(env)
	}

	return &Interpreter{config: config, logger: logger, doc: doc, env: env}, nil
}

// Environment exposes the root environment for host injection.
func (i *Interpreter) Environment() *runtime.Environment {
	return i.env
}

// Source returns the current source text, including applied changes.
func (i *Interpreter) Source() string {
	return i.doc.Source()
}

// SetSource replaces the source; the environment is kept.
func (i *Interpreter) SetSource(source string) {
	i.doc.SetSource(source)
}

// Steps reports how many nodes have been evaluated so far.
func (i *Interpreter) Steps() int64 {
	return i.steps
}

// Parse re-parses the current source, incrementally after applied changes.
func (i *Interpreter) Parse() (*ast.Chunk, error) {
	return i.doc.Parse()
}

// Run evaluates the current source's top-level statements against the root
// environment.
func (i *Interpreter) Run() (*EvalResult, error) {
	return i.RunContext(context.Background())
}

// RunContext is Run with a context whose cancellation is checked between
// statements.
func (i *Interpreter) RunContext(ctx context.Context) (*EvalResult, error) {
	chunk, err := i.Parse()
	if err != nil {
		return nil, err
	}
	i.logger.Debug("run", "statements", len(chunk.Body.Statements))

	prev := i.ctx
	i.ctx = ctx
	defer func() { i.ctx = prev }()

	res, err := i.evaluateBlock(chunk.Body, i.env)
	if err != nil {
		return nil, err
	}
	if res.signal == flowBreak {
		return nil, fmt.Errorf("break outside a loop")
	}
	out := &EvalResult{SourceChange: res.change}
	if res.signal == flowReturn {
		out.Values = res.values
	}
	return out, nil
}

// Eval replaces the source with a snippet and runs it in the existing
// environment.
func (i *Interpreter) Eval(source string) (*EvalResult, error) {
	i.SetSource(source)
	return i.Run()
}

// Force computes the source changes that would make value evaluate to
// target.
func (i *Interpreter) Force(value, target runtime.Value) sourcechange.Tree {
	tree := runtime.Force(value, target)
	i.logger.Debug("force", "value", value.String(), "target", target.String(), "changes", tree.String())
	return tree
}

// ApplySourceChanges resolves tree into one edit set and applies it to the
// source, all or nothing. A nil resolver takes the first alternative. An
// unrealizable tree applies nothing and is not an error.
func (i *Interpreter) ApplySourceChanges(tree sourcechange.Tree, resolve sourcechange.Resolver) ([]*sourcechange.Change, error) {
	if tree == nil {
		return nil, nil
	}
	if resolve == nil {
		resolve = sourcechange.FirstAlternative
	}
	changes, err := resolve(tree)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, nil
	}
	applied, err := i.doc.ApplyChanges(changes)
	if err != nil {
		return nil, err
	}
	i.logger.Debug("applied source changes", "count", len(applied))
	return applied, nil
}

// Close releases the parser.
func (i *Interpreter) Close() {
	i.doc.Close()
}

// step counts one evaluated node and enforces the budget.
func (i *Interpreter) step(node ast.Node) error {
	i.steps++
	if i.config.MaxSteps > 0 && i.steps > i.config.MaxSteps {
		return fmt.Errorf("%w: limit %d reached at %s", ErrStepBudgetExceeded, i.config.MaxSteps, node.Range().Start)
	}
	if i.ctx != nil {
		if err := i.ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// UnsupportedError reports syntax the evaluator recognises but does not run.
type UnsupportedError struct {
	Feature string
	Range   ast.Range
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s is not supported", e.Range.Start, e.Feature)
}

// IsRuntimeError reports whether err came from evaluating the program rather
// than from parsing or the host.
func IsRuntimeError(err error) bool {
	var (
		te *runtime.TypeError
		ne *runtime.NameError
		le *runtime.LuaError
		ue *UnsupportedError
	)
	return errors.As(err, &te) || errors.As(err, &ne) || errors.As(err, &le) || errors.As(err, &ue)
}
