package kwbind

import (
	"fmt"
	"strconv"
	"strings"
)

type ParamKind int

const (
	PositionalOrNamed ParamKind = iota
	PositionalOnly
	NamedOnly
	VarPositional
	VarNamed
)

func (k ParamKind) String() string {
	switch k {
	case PositionalOrNamed:
		return "POSITIONAL_OR_NAMED"
	case PositionalOnly:
		return "POSITIONAL_ONLY"
	case NamedOnly:
		return "NAMED_ONLY"
	case VarPositional:
		return "VAR_POSITIONAL"
	case VarNamed:
		return "VAR_NAMED"
	default:
		return fmt.Sprintf("ParamKind(%d)", int(k))
	}
}

// rank gives the canonical declaration order of parameter kinds.
func (k ParamKind) rank() int {
	switch k {
	case PositionalOnly:
		return 0
	case PositionalOrNamed:
		return 1
	case VarPositional:
		return 2
	case NamedOnly:
		return 3
	default:
		return 4
	}
}

// Param declares one keyword parameter. An optional parameter without a
// default is simply left out of the binding when not supplied. Type, when
// set, applies to every element of a variadic parameter.
type Param struct {
	Name     string
	Kind     ParamKind
	Required bool
	Default  *Value
	Type     *TypeExpr
}

func (p Param) String() string {
	var b strings.Builder
	switch p.Kind {
	case VarPositional:
		b.WriteByte('*')
	case VarNamed:
		b.WriteString("**")
	}
	b.WriteString(p.Name)
	if p.Type != nil {
		b.WriteString(": ")
		b.WriteString(p.Type.String())
	}
	if p.Default != nil {
		if p.Type != nil {
			b.WriteString(" = ")
		} else {
			b.WriteByte('=')
		}
		b.WriteString(Render(*p.Default))
	}
	return b.String()
}

// Signature is an immutable, validated parameter list in canonical order:
// positional-only, positional-or-named, var-positional, named-only,
// var-named.
type Signature struct {
	params []Param
}

// NewSignature validates params and returns a signature over a copy of them.
func NewSignature(params ...Param) (*Signature, error) {
	seen := make(map[string]struct{}, len(params))
	lastRank := -1
	sawOptionalPositional := false
	for i, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("parameter %d has no name", i+1)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("duplicate parameter '%s'", p.Name)
		}
		seen[p.Name] = struct{}{}

		rank := p.Kind.rank()
		if rank < lastRank || (rank == lastRank && (p.Kind == VarPositional || p.Kind == VarNamed)) {
			return nil, fmt.Errorf("parameter '%s' (%s) is out of order", p.Name, p.Kind)
		}
		lastRank = rank

		switch p.Kind {
		case VarPositional, VarNamed:
			if p.Required || p.Default != nil {
				return nil, fmt.Errorf("variadic parameter '%s' cannot be required or have a default", p.Name)
			}
		default:
			if p.Required && p.Default != nil {
				return nil, fmt.Errorf("required parameter '%s' cannot have a default", p.Name)
			}
		}
		if p.Kind == PositionalOnly || p.Kind == PositionalOrNamed {
			if !p.Required {
				sawOptionalPositional = true
			} else if sawOptionalPositional {
				return nil, fmt.Errorf("required parameter '%s' follows an optional parameter", p.Name)
			}
		}
	}
	return &Signature{params: append([]Param(nil), params...)}, nil
}

// Params returns the parameters. The slice must not be modified.
func (s *Signature) Params() []Param {
	if s == nil {
		return nil
	}
	return s.params
}

// Param finds a parameter by exact name.
func (s *Signature) Param(name string) (*Param, bool) {
	for i := range s.Params() {
		if s.params[i].Name == name {
			return &s.params[i], true
		}
	}
	return nil, false
}

func (s *Signature) variadic(kind ParamKind) *Param {
	for i := range s.Params() {
		if s.params[i].Kind == kind {
			return &s.params[i]
		}
	}
	return nil
}

// AcceptsNamed reports whether name=value at a call site is a named
// argument rather than positional text containing '='.
func (s *Signature) AcceptsNamed(name string) bool {
	if p, ok := s.Param(name); ok && (p.Kind == PositionalOrNamed || p.Kind == NamedOnly) {
		return true
	}
	return s.variadic(VarNamed) != nil
}

// PositionalRange returns the minimum and maximum number of positional
// arguments; max is -1 when a var-positional parameter exists.
func (s *Signature) PositionalRange() (min, max int) {
	unbounded := false
	for _, p := range s.Params() {
		switch p.Kind {
		case PositionalOnly, PositionalOrNamed:
			if p.Required {
				min++
			}
			max++
		case VarPositional:
			unbounded = true
		}
	}
	if unbounded {
		max = -1
	}
	return min, max
}

func (s *Signature) String() string {
	parts := make([]string, 0, len(s.Params()))
	wroteStar := false
	for i, p := range s.Params() {
		if p.Kind == VarPositional {
			wroteStar = true
		}
		if p.Kind == NamedOnly && !wroteStar {
			parts = append(parts, "*")
			wroteStar = true
		}
		parts = append(parts, p.String())
		if p.Kind == PositionalOnly && (i+1 == len(s.params) || s.params[i+1].Kind != PositionalOnly) {
			parts = append(parts, "/")
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ParseSignature builds a signature from parameter declarations. Two forms
// are accepted and may not be mixed within one entry:
//
//	a, b=2, *c, d: int = 4, e, **f, and bare "*" or "/" markers
//	${a}, ${b}=2, @{c}, ${d: int}=4, &{f}
//
// Parameters after a var-positional or "*" are named-only. A parameter
// without a default is required. Defaults in the first form are literals
// (integers, floats, True, False, None, quoted strings, list and dict
// literals); defaults in the second form are always strings.
func (r *Registry) ParseSignature(specs ...string) (*Signature, error) {
	params := make([]Param, 0, len(specs))
	namedOnly := false
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		switch spec {
		case "":
			continue
		case "*":
			namedOnly = true
			continue
		case "/":
			for i := range params {
				if params[i].Kind == PositionalOrNamed {
					params[i].Kind = PositionalOnly
				}
			}
			continue
		}
		p, err := r.parseParam(spec)
		if err != nil {
			return nil, err
		}
		switch p.Kind {
		case VarPositional:
			namedOnly = true
		case PositionalOrNamed:
			if namedOnly {
				p.Kind = NamedOnly
			}
		}
		if p.Kind != VarPositional && p.Kind != VarNamed {
			p.Required = p.Default == nil
		}
		params = append(params, p)
	}
	return NewSignature(params...)
}

func (r *Registry) parseParam(spec string) (Param, error) {
	var (
		p        Param
		nameType string
		def      *Value
	)
	if kind, ok := refKindForSigil(spec[0]); ok && kind != RefEnv && len(spec) > 1 && spec[1] == '{' {
		end := matchingBrace(spec, 1)
		if end < 0 {
			return Param{}, fmt.Errorf("invalid parameter %q: unclosed '{'", spec)
		}
		nameType = spec[2:end]
		rest := spec[end+1:]
		switch {
		case rest == "":
		case strings.HasPrefix(rest, "="):
			if kind != RefScalar {
				return Param{}, fmt.Errorf("invalid parameter %q: variadic parameters cannot have defaults", spec)
			}
			val := NewString(rest[1:])
			def = &val
		default:
			return Param{}, fmt.Errorf("invalid parameter %q", spec)
		}
		switch kind {
		case RefList:
			p.Kind = VarPositional
		case RefDict:
			p.Kind = VarNamed
		}
	} else {
		nameType = spec
		if left, right, ok := strings.Cut(spec, "="); ok {
			nameType = left
			val := parseDefaultLiteral(strings.TrimSpace(right))
			def = &val
		}
		switch {
		case strings.HasPrefix(nameType, "**"):
			p.Kind = VarNamed
			nameType = nameType[2:]
		case strings.HasPrefix(nameType, "*"):
			p.Kind = VarPositional
			nameType = nameType[1:]
		}
		if def != nil && p.Kind != PositionalOrNamed {
			return Param{}, fmt.Errorf("invalid parameter %q: variadic parameters cannot have defaults", spec)
		}
	}

	name, typeText, hasType := strings.Cut(nameType, ":")
	p.Name = strings.TrimSpace(name)
	if p.Name == "" {
		return Param{}, fmt.Errorf("invalid parameter %q: missing name", spec)
	}
	if hasType {
		ty, err := r.ParseType(typeText)
		if err != nil {
			return Param{}, fmt.Errorf("parameter '%s': %w", p.Name, err)
		}
		p.Type = ty
	}
	p.Default = def
	return p, nil
}

// parseDefaultLiteral interprets default text written in library style.
func parseDefaultLiteral(text string) Value {
	switch text {
	case "None":
		return NewNone()
	case "True":
		return NewBool(true)
	case "False":
		return NewBool(false)
	}
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return NewInt(i)
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return NewFloat(f)
	}
	if len(text) >= 2 && (text[0] == '\'' || text[0] == '"') && text[len(text)-1] == text[0] {
		if unquoted, err := strconv.Unquote("\"" + text[1:len(text)-1] + "\""); err == nil {
			return NewString(unquoted)
		}
		return NewString(text[1 : len(text)-1])
	}
	if val, ok := parseLiteral(text, '['); ok {
		return val
	}
	if val, ok := parseLiteral(text, '{'); ok {
		return val
	}
	return NewString(text)
}
