package kwbind

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
)

// Config controls binding behavior.
type Config struct {
	// Environment backs %{NAME} references. Defaults to the process
	// environment.
	Environment EnvProvider
	// RecursionLimit bounds nested container conversion.
	RecursionLimit int
	// StrictDefaultConversion reports conversion failures against types
	// inferred from default values instead of passing the value through.
	StrictDefaultConversion bool
	// Logger receives a trace of binding steps. Nil disables tracing.
	Logger *log.Logger
}

// KeywordFunc implements a keyword. It receives a fully bound call.
type KeywordFunc func(ctx context.Context, call *BoundCall) (Value, error)

// Keyword is a callable unit with a declared signature and optional return
// type. Fn may be nil for keywords that are declared but not implemented.
type Keyword struct {
	Name       string
	Library    string
	Doc        string
	Signature  *Signature
	ReturnType *TypeExpr
	Fn         KeywordFunc
}

// Engine owns a type registry and a keyword table.
type Engine struct {
	config   Config
	registry *Registry
	binder   *Binder

	mu       sync.RWMutex
	keywords map[string]*Keyword
}

// NewEngine constructs an Engine with defaults for unset config fields.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.RecursionLimit < 0 {
		return nil, fmt.Errorf("kwbind: recursion limit must be positive, got %d", cfg.RecursionLimit)
	}
	if cfg.RecursionLimit == 0 {
		cfg.RecursionLimit = defaultRecursionLimit
	}
	if cfg.Environment == nil {
		cfg.Environment = OSEnvironment{}
	}

	reg := NewRegistry()
	reg.SetRecursionLimit(cfg.RecursionLimit)
	return &Engine{
		config:   cfg,
		registry: reg,
		binder: &Binder{
			Registry:       reg,
			StrictDefaults: cfg.StrictDefaultConversion,
			Logger:         cfg.Logger,
		},
		keywords: make(map[string]*Keyword),
	}, nil
}

// MustNewEngine constructs an Engine or panics if the config is invalid.
func MustNewEngine(cfg Config) *Engine {
	engine, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return engine
}

func (e *Engine) Registry() *Registry { return e.registry }

func (e *Engine) Binder() *Binder { return e.binder }

// RegisterKeyword adds kw to the keyword table. Names are matched ignoring
// case, spaces and underscores; registering a name twice is an error.
func (e *Engine) RegisterKeyword(kw *Keyword) error {
	if kw == nil || strings.TrimSpace(kw.Name) == "" {
		return fmt.Errorf("kwbind: keyword name must be non-empty")
	}
	if kw.Signature == nil {
		sig, err := NewSignature()
		if err != nil {
			return err
		}
		kw.Signature = sig
	}
	key := NormalizeName(kw.Name)
	e.mu.Lock()
	defer e.mu.Unlock()
	if prev, exists := e.keywords[key]; exists {
		return fmt.Errorf("kwbind: keyword '%s' conflicts with '%s'", kw.Name, prev.Name)
	}
	e.keywords[key] = kw
	logf(e.config.Logger, "registered keyword %s%s", kw.Name, kw.Signature)
	return nil
}

// Implement attaches fn to an already registered keyword.
func (e *Engine) Implement(name string, fn KeywordFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	kw, ok := e.keywords[NormalizeName(name)]
	if !ok {
		return fmt.Errorf("kwbind: no keyword with name '%s' found", name)
	}
	kw.Fn = fn
	return nil
}

// Keyword finds a registered keyword by name.
func (e *Engine) Keyword(name string) (*Keyword, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	kw, ok := e.keywords[NormalizeName(name)]
	return kw, ok
}

// Keywords lists registered keywords sorted by name.
func (e *Engine) Keywords() []*Keyword {
	e.mu.RLock()
	out := make([]*Keyword, 0, len(e.keywords))
	for _, kw := range e.keywords {
		out = append(out, kw)
	}
	e.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (e *Engine) lookup(name string) (*Keyword, error) {
	if kw, ok := e.Keyword(name); ok {
		return kw, nil
	}
	names := make([]string, 0)
	for _, kw := range e.Keywords() {
		names = append(names, kw.Name)
	}
	if suggestion := nearestName(name, names); suggestion != "" {
		return nil, fmt.Errorf("no keyword with name '%s' found. Did you mean '%s'?", name, suggestion)
	}
	return nil, fmt.Errorf("no keyword with name '%s' found", name)
}

// NewResolver returns a resolver over scope using the engine's environment.
func (e *Engine) NewResolver(scope *Scope) *Resolver {
	return NewResolver(scope, e.config.Environment)
}

// Bind binds site against its keyword without invoking it.
func (e *Engine) Bind(scope *Scope, site *CallSite) (*BoundCall, error) {
	kw, err := e.lookup(site.Keyword)
	if err != nil {
		return nil, err
	}
	return e.binder.Bind(e.NewResolver(scope), kw, site)
}

// BindRaw splits raw call-site texts and binds them.
func (e *Engine) BindRaw(scope *Scope, name string, raw []string) (*BoundCall, error) {
	kw, err := e.lookup(name)
	if err != nil {
		return nil, err
	}
	site, err := SplitArguments(kw.Signature, kw.Name, raw)
	if err != nil {
		return nil, &CallError{Keyword: kw.Name, Err: err}
	}
	return e.binder.Bind(e.NewResolver(scope), kw, site)
}

// Call binds site, invokes the keyword and converts its return value.
// Nothing is invoked unless binding succeeds completely.
func (e *Engine) Call(ctx context.Context, scope *Scope, site *CallSite) (Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	kw, err := e.lookup(site.Keyword)
	if err != nil {
		return NewNone(), err
	}
	call, err := e.binder.Bind(e.NewResolver(scope), kw, site)
	if err != nil {
		return NewNone(), err
	}
	return e.invoke(ctx, kw, call)
}

// CallRaw is Call for raw call-site texts.
func (e *Engine) CallRaw(ctx context.Context, scope *Scope, name string, raw []string) (Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	call, err := e.BindRaw(scope, name, raw)
	if err != nil {
		return NewNone(), err
	}
	kw, _ := e.Keyword(name)
	return e.invoke(ctx, kw, call)
}

func (e *Engine) invoke(ctx context.Context, kw *Keyword, call *BoundCall) (Value, error) {
	if err := ctx.Err(); err != nil {
		return NewNone(), err
	}
	e.mu.RLock()
	fn := kw.Fn
	e.mu.RUnlock()
	if fn == nil {
		return NewNone(), fmt.Errorf("keyword '%s' is declared but has no implementation", kw.Name)
	}
	result, err := fn(ctx, call)
	if err != nil {
		return NewNone(), err
	}
	return e.binder.ConvertReturn(kw, result)
}

// Assign parses decl, builds its value from raw texts and defines it in
// scope. A failed assignment leaves the variable undefined.
func (e *Engine) Assign(scope *Scope, decl string, raw []string) (Value, error) {
	parsed, err := e.registry.ParseVariableDecl(decl)
	if err != nil {
		return NewNone(), err
	}
	return e.binder.DeclareVariable(e.NewResolver(scope), parsed, raw)
}
