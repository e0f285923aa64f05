package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"minilua/interpreter-go/pkg/driver"
	"minilua/interpreter-go/pkg/interpreter"
	"minilua/interpreter-go/pkg/parser"
	"minilua/interpreter-go/pkg/sourcechange"
)

const cliToolVersion = "minilua 0.0.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	return runWith(args, os.Stdin, os.Stdout, os.Stderr)
}

func runWith(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cli := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	root := cli.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		cli.reportError(err)
		return 1
	}
	return 0
}

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	maxSteps   int64
	strict     bool
	traceCalls bool
	verbose    bool

	write bool
	diff  bool
}

// sourceError keeps the evaluated text so parse errors can quote it.
type sourceError struct {
	err    error
	source string
}

func (e *sourceError) Error() string { return e.err.Error() }
func (e *sourceError) Unwrap() error { return e.err }

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "minilua",
		Short:         "Run Lua scripts and write requested value changes back to their source",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to minilua.yml (default: nearest one above the script)")
	root.PersistentFlags().Int64Var(&c.maxSteps, "max-steps", 0, "abort after this many evaluation steps (0 = unlimited)")
	root.PersistentFlags().BoolVar(&c.strict, "strict", false, "treat reads of undefined globals as errors")
	root.PersistentFlags().BoolVar(&c.traceCalls, "trace-calls", false, "log every function call")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Evaluate a script and list the source changes it requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFile(cmd, args[0])
		},
	}

	applyCmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "Evaluate a script and apply the source changes it requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.applyFile(cmd, args[0])
		},
	}
	applyCmd.Flags().BoolVarP(&c.write, "write", "w", false, "write the result back to FILE")
	applyCmd.Flags().BoolVarP(&c.diff, "diff", "d", false, "print a patch instead of the rewritten source")

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.repl(cmd)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(c.stdout, cliToolVersion)
		},
	}

	root.AddCommand(runCmd, applyCmd, replCmd, versionCmd)
	return root
}

func (c *cli) logger() *slog.Logger {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config or the nearest minilua.yml, then applies the
// flags that were set explicitly.
func (c *cli) loadConfig(cmd *cobra.Command, start string) (*driver.Config, error) {
	var (
		cfg *driver.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = driver.LoadConfig(c.configPath)
	} else {
		cfg, err = driver.LoadConfigFrom(start)
	}
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("max-steps") {
		cfg.MaxSteps = c.maxSteps
	}
	if flags.Changed("strict") {
		cfg.StrictGlobals = c.strict
	}
	if flags.Changed("trace-calls") {
		cfg.Trace.Calls = c.traceCalls
	}
	return cfg, nil
}

func (c *cli) newInterpreter(cfg *driver.Config, source string) (*interpreter.Interpreter, error) {
	config := cfg.InterpreterConfig(c.logger())
	config.Stdin = c.stdin
	config.Stdout = c.stdout
	config.Stderr = c.stderr
	return interpreter.New(source, config)
}

// evaluate runs path and returns the interpreter for follow-up application.
func (c *cli) evaluate(cmd *cobra.Command, path string) (*interpreter.Interpreter, *interpreter.EvalResult, *driver.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := c.loadConfig(cmd, filepath.Dir(path))
	if err != nil {
		return nil, nil, nil, err
	}
	interp, err := c.newInterpreter(cfg, string(data))
	if err != nil {
		return nil, nil, nil, err
	}
	res, err := interp.RunContext(cmd.Context())
	if err != nil {
		interp.Close()
		return nil, nil, nil, &sourceError{err: err, source: string(data)}
	}
	return interp, res, cfg, nil
}

func (c *cli) runFile(cmd *cobra.Command, path string) error {
	interp, res, cfg, err := c.evaluate(cmd, path)
	if err != nil {
		return err
	}
	defer interp.Close()
	if len(res.Values) > 0 {
		fmt.Fprintln(c.stdout, interpreter.FormatResults(res.Values))
	}
	c.reportChanges(res.SourceChange, cfg.MaxAlternatives)
	return nil
}

func (c *cli) applyFile(cmd *cobra.Command, path string) error {
	interp, res, cfg, err := c.evaluate(cmd, path)
	if err != nil {
		return err
	}
	defer interp.Close()

	before := interp.Source()
	applied, err := interp.ApplySourceChanges(res.SourceChange, cfg.Policy.Resolver())
	if err != nil {
		return fmt.Errorf("apply source changes: %w", err)
	}
	if len(applied) == 0 {
		if sourcechange.IsUnrealizable(sourcechange.Simplify(res.SourceChange)) {
			fmt.Fprintln(c.stderr, "requested source changes cannot be realized")
		} else {
			fmt.Fprintln(c.stderr, "no source changes requested")
		}
		return nil
	}
	fmt.Fprint(c.stderr, interpreter.FormatChanges(applied))
	after := interp.Source()

	if c.diff {
		fmt.Fprint(c.stdout, linePatch(path, before, after))
	}
	if c.write {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(after), info.Mode().Perm()); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}
	if !c.diff {
		fmt.Fprint(c.stdout, after)
	}
	return nil
}

// reportChanges lists the requested edit sets on stderr, one block per
// alternative.
func (c *cli) reportChanges(tree sourcechange.Tree, limit int) {
	if tree == nil {
		return
	}
	tree = sourcechange.Simplify(tree)
	switch {
	case sourcechange.IsNoop(tree):
		return
	case sourcechange.IsUnrealizable(tree):
		fmt.Fprintln(c.stderr, "requested source changes cannot be realized")
		return
	}
	sets, truncated := sourcechange.Alternatives(tree, limit)
	if len(sets) == 1 {
		fmt.Fprint(c.stderr, "requested source changes:\n"+interpreter.FormatChanges(sets[0]))
		return
	}
	for idx, set := range sets {
		fmt.Fprintf(c.stderr, "alternative %d:\n", idx+1)
		for _, line := range strings.SplitAfter(interpreter.FormatChanges(set), "\n") {
			if line != "" {
				fmt.Fprint(c.stderr, "  "+line)
			}
		}
	}
	if truncated {
		fmt.Fprintf(c.stderr, "(more than %d alternatives; showing the first %d)\n", limit, limit)
	}
}

func (c *cli) reportError(err error) {
	var srcErr *sourceError
	var parseErr *parser.ParseError
	if errors.As(err, &srcErr) && errors.As(err, &parseErr) {
		fmt.Fprint(c.stderr, parseErr.FormatWithSource(srcErr.source))
		return
	}
	if errors.Is(err, interpreter.ErrStepBudgetExceeded) {
		fmt.Fprintf(c.stderr, "aborted: %v\n", err)
		return
	}
	fmt.Fprintf(c.stderr, "error: %v\n", err)
}

const patchContext = 2

// linePatch renders a line-level diff between two versions of path. Runs of
// unchanged lines longer than the context are elided.
func linePatch(path, before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	fmt.Fprintf(&out, "--- %s\n+++ %s\n", path, path)
	for idx, d := range diffs {
		text := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			writePrefixed(&out, "-", text)
		case diffmatchpatch.DiffInsert:
			writePrefixed(&out, "+", text)
		case diffmatchpatch.DiffEqual:
			head, tail := patchContext, patchContext
			if idx == 0 {
				head = 0
			}
			if idx == len(diffs)-1 {
				tail = 0
			}
			if len(text) <= head+tail {
				writePrefixed(&out, " ", text)
				continue
			}
			writePrefixed(&out, " ", text[:head])
			out.WriteString("@@\n")
			writePrefixed(&out, " ", text[len(text)-tail:])
		}
	}
	return out.String()
}

func splitLines(text string) []string {
	parts := strings.SplitAfter(text, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func writePrefixed(out *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		out.WriteString(prefix)
		out.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			out.WriteString("\n")
		}
	}
}
