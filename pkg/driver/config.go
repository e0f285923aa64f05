package driver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"minilua/interpreter-go/pkg/interpreter"
	"minilua/interpreter-go/pkg/sourcechange"
)

// ConfigFileName is the file FindConfig looks for.
const ConfigFileName = "minilua.yml"

// ErrConfigNotFound is returned by FindConfig when no directory up to the
// filesystem root holds a config file.
var ErrConfigNotFound = errors.New("minilua.yml not found")

// ChangePolicy selects how alternatives are resolved before applying.
type ChangePolicy string

const (
	// PolicyFirst takes the leftmost branch of every alternative.
	PolicyFirst ChangePolicy = "first"
	// PolicySingle refuses trees that offer more than one edit set.
	PolicySingle ChangePolicy = "single"
)

func (p ChangePolicy) IsValid() bool {
	switch p {
	case PolicyFirst, PolicySingle:
		return true
	default:
		return false
	}
}

// Resolver returns the sourcechange.Resolver implementing the policy.
func (p ChangePolicy) Resolver() sourcechange.Resolver {
	if p == PolicySingle {
		return sourcechange.SingleAlternative
	}
	return sourcechange.FirstAlternative
}

// Config is the validated contents of minilua.yml.
type Config struct {
	Path            string
	StrictGlobals   bool
	Stdlib          bool
	MaxSteps        int64
	MaxCallDepth    int
	Trace           TraceConfig
	Policy          ChangePolicy
	MaxAlternatives int
}

type TraceConfig struct {
	Nodes      bool
	Calls      bool
	Exprlists  bool
	EnterBlock bool
}

// DefaultConfig is used when no file is found.
func DefaultConfig() *Config {
	return &Config{Stdlib: true, Policy: PolicyFirst, MaxAlternatives: 64}
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed")
	if e.Path != "" {
		b.WriteString(" for ")
		b.WriteString(e.Path)
	}
	b.WriteString(":")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadConfig parses a config file from disk and validates it. Unknown keys
// are rejected.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	cfg, err := DecodeConfig(file)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Path = absPath
			return nil, verr
		}
		return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
	}
	cfg.Path = absPath
	return cfg, nil
}

// DecodeConfig reads a config document from r. An empty document yields the
// defaults.
func DecodeConfig(r io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	cfg := raw.toConfig()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs ValidationError
	if c.MaxSteps < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("limits.max_steps must not be negative, got %d", c.MaxSteps))
	}
	if c.MaxCallDepth < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("limits.max_call_depth must not be negative, got %d", c.MaxCallDepth))
	}
	if !c.Policy.IsValid() {
		errs.Issues = append(errs.Issues, fmt.Sprintf("changes.policy must be %q or %q, got %q", PolicyFirst, PolicySingle, c.Policy))
	}
	if c.MaxAlternatives < 1 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("changes.max_alternatives must be at least 1, got %d", c.MaxAlternatives))
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// InterpreterConfig translates the file settings into interpreter options.
// Streams are left for the caller to set.
func (c *Config) InterpreterConfig(logger *slog.Logger) interpreter.Config {
	return interpreter.Config{
		Logger:          logger,
		TraceNodes:      c.Trace.Nodes,
		TraceCalls:      c.Trace.Calls,
		TraceExprlists:  c.Trace.Exprlists,
		TraceEnterBlock: c.Trace.EnterBlock,
		MaxSteps:        c.MaxSteps,
		MaxCallDepth:    c.MaxCallDepth,
		StrictGlobals:   c.StrictGlobals,
		NoStdlib:        !c.Stdlib,
	}
}

// FindConfig walks up from start (a file or directory) looking for
// minilua.yml.
func FindConfig(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start directory %q: %w", start, err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	origin := dir
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found from %s upwards: %w", ConfigFileName, origin, ErrConfigNotFound)
		}
		dir = parent
	}
}

// LoadConfigFrom finds and loads the nearest config, falling back to the
// defaults when there is none.
func LoadConfigFrom(start string) (*Config, error) {
	path, err := FindConfig(start)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return LoadConfig(path)
}

type configFile struct {
	StrictGlobals bool        `yaml:"strict_globals"`
	Stdlib        *bool       `yaml:"stdlib"`
	Limits        limitsFile  `yaml:"limits"`
	Trace         traceFile   `yaml:"trace"`
	Changes       changesFile `yaml:"changes"`
}

type limitsFile struct {
	MaxSteps     int64 `yaml:"max_steps"`
	MaxCallDepth int   `yaml:"max_call_depth"`
}

type traceFile struct {
	Nodes      bool `yaml:"nodes"`
	Calls      bool `yaml:"calls"`
	Exprlists  bool `yaml:"exprlists"`
	EnterBlock bool `yaml:"enter_block"`
}

type changesFile struct {
	Policy          policyName `yaml:"policy"`
	MaxAlternatives *int       `yaml:"max_alternatives"`
}

// policyName accepts the policy in any case and with surrounding blanks.
type policyName string

func (p *policyName) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*p = ""
			return nil
		}
		*p = policyName(strings.ToLower(strings.TrimSpace(value.Value)))
		return nil
	case yaml.AliasNode:
		if value.Alias != nil {
			return p.UnmarshalYAML(value.Alias)
		}
	}
	return fmt.Errorf("line %d: changes.policy must be a string", value.Line)
}

func (f configFile) toConfig() *Config {
	cfg := DefaultConfig()
	cfg.StrictGlobals = f.StrictGlobals
	if f.Stdlib != nil {
		cfg.Stdlib = *f.Stdlib
	}
	cfg.MaxSteps = f.Limits.MaxSteps
	cfg.MaxCallDepth = f.Limits.MaxCallDepth
	cfg.Trace = TraceConfig{
		Nodes:      f.Trace.Nodes,
		Calls:      f.Trace.Calls,
		Exprlists:  f.Trace.Exprlists,
		EnterBlock: f.Trace.EnterBlock,
	}
	if f.Changes.Policy != "" {
		cfg.Policy = ChangePolicy(f.Changes.Policy)
	}
	if f.Changes.MaxAlternatives != nil {
		cfg.MaxAlternatives = *f.Changes.MaxAlternatives
	}
	return cfg
}
