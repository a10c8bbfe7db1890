package main

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/mgomes/kwbind/kwbind"
)

type sessionOptions struct {
	libraries      stringList
	vars           stringList
	useEnv         bool
	strictDefaults bool
	verbose        bool
}

// session is an engine with its libraries installed plus the suite scope
// that variables are assigned into.
type session struct {
	engine *kwbind.Engine
	scope  *kwbind.Scope
}

func newSession(opts sessionOptions) (*session, error) {
	cfg := kwbind.Config{
		Environment:             kwbind.MapEnvironment{},
		StrictDefaultConversion: opts.strictDefaults,
	}
	if opts.useEnv {
		cfg.Environment = kwbind.OSEnvironment{}
	}
	if opts.verbose {
		cfg.Logger = log.New(os.Stderr, "kwbind: ", 0)
	}
	engine, err := kwbind.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	for _, path := range opts.libraries {
		lib, err := kwbind.LoadLibrary(path)
		if err != nil {
			return nil, err
		}
		if err := engine.InstallLibrary(lib); err != nil {
			return nil, err
		}
	}
	sess := &session{engine: engine, scope: kwbind.NewScope(nil)}
	for _, def := range opts.vars {
		name, value, ok := strings.Cut(def, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid -var %q: expected name=value", def)
		}
		if _, err := engine.Assign(sess.scope, "${"+name+"}", []string{value}); err != nil {
			return nil, fmt.Errorf("invalid -var %q: %w", def, err)
		}
	}
	return sess, nil
}

var cellSeparator = regexp.MustCompile(`\t+|  +`)

// splitCells splits a line on tabs or runs of two or more spaces.
func splitCells(line string) []string {
	var cells []string
	for _, cell := range cellSeparator.Split(strings.TrimSpace(line), -1) {
		if cell = strings.TrimSpace(cell); cell != "" {
			cells = append(cells, cell)
		}
	}
	return cells
}

// execute runs one input line. "VAR  ${x: T}  v1  v2" declares a variable;
// anything else binds a keyword call.
func (s *session) execute(line string) (string, error) {
	cells := splitCells(line)
	if len(cells) == 0 {
		return "", nil
	}
	if cells[0] == "VAR" {
		if len(cells) < 2 {
			return "", fmt.Errorf("VAR requires a variable declaration")
		}
		decl, err := s.engine.Registry().ParseVariableDecl(cells[1])
		if err != nil {
			return "", err
		}
		val, err := s.engine.Assign(s.scope, cells[1], cells[2:])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%c{%s} = %s", decl.Kind.Sigil(), decl.Name, kwbind.Render(val)), nil
	}
	call, err := s.engine.BindRaw(s.scope, cells[0], cells[1:])
	if err != nil {
		return "", err
	}
	return formatCall(call), nil
}

func formatCall(call *kwbind.BoundCall) string {
	parts := make([]string, 0, len(call.Args)+call.Kwargs.Len())
	for _, arg := range call.Args {
		parts = append(parts, formatValue(arg))
	}
	for _, name := range call.Kwargs.Keys() {
		val, _ := call.Kwargs.Get(name)
		parts = append(parts, name+"="+formatValue(val))
	}
	return fmt.Sprintf("%s(%s)", call.Keyword, strings.Join(parts, ", "))
}

func formatValue(v kwbind.Value) string {
	return fmt.Sprintf("%s: %s", kwbind.Render(v), v.TypeName())
}

// variables returns "name = value" lines sorted by name.
func (s *session) variables() []string {
	names := s.scope.Names()
	lines := make([]string, 0, len(names))
	for _, name := range names {
		val, _ := s.scope.Get(name)
		lines = append(lines, fmt.Sprintf("%s = %s", name, formatValue(val)))
	}
	return lines
}

// keywordNames returns the registered keyword names in sorted order.
func (s *session) keywordNames() []string {
	kws := s.engine.Keywords()
	names := make([]string, len(kws))
	for i, kw := range kws {
		names[i] = kw.Name
	}
	return names
}

func (s *session) describeKeyword(name string) (string, error) {
	kw, ok := s.engine.Keyword(name)
	if !ok {
		return "", fmt.Errorf("no keyword with name '%s' found", name)
	}
	desc := kw.Name + kw.Signature.String()
	if kw.ReturnType != nil {
		desc += " -> " + kw.ReturnType.String()
	}
	if kw.Doc != "" {
		desc += "\n" + kw.Doc
	}
	return desc, nil
}
