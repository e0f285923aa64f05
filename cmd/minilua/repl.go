package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"minilua/interpreter-go/pkg/driver"
	"minilua/interpreter-go/pkg/interpreter"
	"minilua/interpreter-go/pkg/parser"
)

const (
	historyFile = ".minilua_history"
	promptMain  = "> "
	promptCont  = ">> "
)

// lineReader is the part of liner.State the session needs, so a plain
// reader can stand in when stdin is not the terminal.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type scannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *scannerReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scannerReader) AppendHistory(string) {}

func (c *cli) repl(cmd *cobra.Command) error {
	cfg, err := c.loadConfig(cmd, ".")
	if err != nil {
		return err
	}
	interp, err := c.newInterpreter(cfg, "")
	if err != nil {
		return err
	}
	defer interp.Close()

	var reader lineReader
	if c.stdin == os.Stdin {
		ln := liner.NewLiner()
		defer ln.Close()
		ln.SetCtrlCAborts(true)
		if histPath, ok := historyPath(); ok {
			if f, err := os.Open(histPath); err == nil {
				_, _ = ln.ReadHistory(f)
				_ = f.Close()
			}
			defer func() {
				if f, err := os.Create(histPath); err == nil {
					_, _ = ln.WriteHistory(f)
					_ = f.Close()
				}
			}()
		}
		reader = ln
	} else {
		reader = &scannerReader{scanner: bufio.NewScanner(c.stdin), out: c.stdout}
	}

	fmt.Fprintf(c.stdout, "%s (type :quit to exit)\n", cliToolVersion)
	return c.session(interp, cfg, reader)
}

func (c *cli) session(interp *interpreter.Interpreter, cfg *driver.Config, reader lineReader) error {
	for {
		code, ok := readChunk(reader)
		if !ok {
			fmt.Fprintln(c.stdout)
			return nil
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return nil
			case ":source":
				fmt.Fprintln(c.stdout, interp.Source())
			default:
				fmt.Fprintln(c.stdout, "unknown command. Type :quit to exit.")
			}
			continue
		}
		reader.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		// A bare expression is evaluated as a return statement.
		res, err := interp.Eval("return " + code)
		var parseErr *parser.ParseError
		if errors.As(err, &parseErr) {
			res, err = interp.Eval(code)
		}
		if err != nil {
			if errors.As(err, &parseErr) {
				fmt.Fprint(c.stderr, parseErr.FormatWithSource(code))
			} else {
				fmt.Fprintf(c.stderr, "error: %v\n", err)
			}
			continue
		}
		if len(res.Values) > 0 {
			fmt.Fprintln(c.stdout, interpreter.FormatResults(res.Values))
		}
		c.reportChanges(res.SourceChange, cfg.MaxAlternatives)
	}
}

// readChunk keeps prompting while the accumulated input parses as an
// incomplete chunk.
func readChunk(reader lineReader) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := reader.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		_, perr := parser.ParseChunk([]byte(src))
		if perr == nil || !parser.IsIncomplete(perr, src) {
			return src, true
		}
		if _, rerr := parser.ParseChunk([]byte("return " + src)); rerr == nil {
			return src, true
		}
	}
}

func historyPath() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", false
	}
	return filepath.Join(home, historyFile), true
}
