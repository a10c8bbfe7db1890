package kwbind

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

// CallSite is what the execution collaborator hands over for one call.
type CallSite struct {
	Keyword    string
	Positional []Argument
	Named      []NamedArgument
}

// SplitArguments turns raw call-site arguments into a CallSite. An argument
// written name=value is named only when sig accepts that name (or declares
// a var-named parameter); otherwise it is positional text. name\=value is
// always positional. Positional arguments may not follow named ones.
func SplitArguments(sig *Signature, keyword string, raw []string) (*CallSite, error) {
	site := &CallSite{Keyword: keyword}
	for _, text := range raw {
		if name, value, ok := splitNamed(text); ok && sig.AcceptsNamed(name) {
			tmpl, err := ParseTemplate(value)
			if err != nil {
				return nil, err
			}
			site.Named = append(site.Named, NamedArgument{Name: name, Argument: TemplateArg(tmpl)})
			continue
		}
		if len(site.Named) > 0 {
			return nil, &BindingError{Kind: PositionalAfterNamed, Keyword: keyword}
		}
		tmpl, err := ParseTemplate(text)
		if err != nil {
			return nil, err
		}
		site.Positional = append(site.Positional, TemplateArg(tmpl))
	}
	return site, nil
}

// splitNamed splits at the first unescaped '=' when the text before it is a
// plain name without references.
func splitNamed(text string) (name, value string, ok bool) {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '=':
			name = text[:i]
			if name == "" || strings.ContainsAny(name, "${}@&%\\") {
				return "", "", false
			}
			return name, text[i+1:], true
		}
	}
	return "", "", false
}

// BoundCall is a fully bound and typed call, ready to invoke.
type BoundCall struct {
	Keyword string
	// Args are positional values in order, var-positional values last.
	Args []Value
	// Kwargs holds named-only and var-named values, plus positional
	// parameters that could not be passed positionally.
	Kwargs *Mapping
	// Params maps every bound parameter name to its value. Var-positional
	// parameters map to a list and var-named parameters to a dictionary.
	Params *Mapping
}

// Get returns the value bound to a parameter.
func (c *BoundCall) Get(name string) (Value, bool) {
	return c.Params.Get(name)
}

// Binder matches call sites to signatures and converts every argument.
type Binder struct {
	Registry *Registry
	// StrictDefaults makes a failed conversion to a type inferred from a
	// default value an error instead of passing the original value through.
	StrictDefaults bool
	Logger         *log.Logger
}

// Bind resolves, matches and converts a call site for kw. It returns a
// complete BoundCall or an error; partial bindings are never returned.
func (b *Binder) Bind(res *Resolver, kw *Keyword, site *CallSite) (*BoundCall, error) {
	positional, named, err := expandArguments(res, site)
	if err != nil {
		return nil, &CallError{Keyword: kw.Name, Err: err}
	}
	binding, err := Match(kw.Signature, kw.Name, positional, named)
	if err != nil {
		return nil, &CallError{Keyword: kw.Name, Err: err}
	}

	in := &Interpolator{Resolver: res, Registry: b.Registry}
	call := &BoundCall{Keyword: kw.Name, Kwargs: &Mapping{}, Params: &Mapping{}}
	gap := false
	for _, bp := range binding.Params {
		val := bp.Arg.Value
		if !bp.Defaulted {
			val, err = b.convertArg(in, kw.Name, bp.Param.Name, bp.Arg, bp.Param.Type, inferredType(bp.Param))
			if err != nil {
				return nil, err
			}
		}
		call.Params.Set(bp.Param.Name, val)
		switch bp.Param.Kind {
		case PositionalOnly, PositionalOrNamed:
			if !gap && b.positionalIndex(binding, bp.Param) == len(call.Args) {
				call.Args = append(call.Args, val)
				continue
			}
			gap = true
			call.Kwargs.Set(bp.Param.Name, val)
		default:
			call.Kwargs.Set(bp.Param.Name, val)
		}
	}

	if vp := kw.Signature.variadic(VarPositional); vp != nil {
		items := make([]Value, len(binding.VarPositional))
		for i, arg := range binding.VarPositional {
			val, err := b.convertArg(in, kw.Name, vp.Name, arg, vp.Type, nil)
			if err != nil {
				return nil, err
			}
			items[i] = val
		}
		call.Args = append(call.Args, items...)
		call.Params.Set(vp.Name, NewSequence(items))
	}
	if vn := kw.Signature.variadic(VarNamed); vn != nil {
		items := &Mapping{}
		for _, arg := range binding.VarNamed {
			val, err := b.convertArg(in, kw.Name, arg.Name, arg.Argument, vn.Type, nil)
			if err != nil {
				return nil, err
			}
			items.Set(arg.Name, val)
			call.Kwargs.Set(arg.Name, val)
		}
		call.Params.Set(vn.Name, NewMapping(items))
	}
	return call, nil
}

// positionalIndex is the zero-based position of p among positional slots.
func (b *Binder) positionalIndex(binding *Binding, p *Param) int {
	idx := 0
	for i := range binding.Signature.params {
		q := &binding.Signature.params[i]
		if q == p {
			return idx
		}
		if q.Kind == PositionalOnly || q.Kind == PositionalOrNamed {
			idx++
		}
	}
	return -1
}

func (b *Binder) convertArg(in *Interpolator, keyword, name string, arg Argument, declared, inferred *TypeExpr) (Value, error) {
	target := declared
	if target == nil {
		target = inferred
	}
	val, err := convertArgument(in, arg, target)
	if err != nil && declared == nil && inferred != nil && !b.StrictDefaults {
		var conv *ConversionError
		if errors.As(err, &conv) {
			val, err = convertArgument(in, arg, nil)
		}
	}
	if err != nil {
		var conv *ConversionError
		if errors.As(err, &conv) {
			return Value{}, &CallError{Keyword: keyword, Entity: fmt.Sprintf("Argument '%s'", name), Value: arg.Text(), Err: err}
		}
		return Value{}, &CallError{Keyword: keyword, Value: arg.Text(), Err: err}
	}
	logf(b.Logger, "%s: argument %s = %s (%s)", keyword, name, Render(val), val.TypeName())
	return val, nil
}

func convertArgument(in *Interpolator, arg Argument, target *TypeExpr) (Value, error) {
	if arg.Resolved {
		return in.Registry.Convert(arg.Value, target)
	}
	return in.Interpolate(arg.Template, target)
}

// inferredType derives a conversion target from a default value when no
// type is declared.
func inferredType(p *Param) *TypeExpr {
	if p.Type != nil || p.Default == nil {
		return nil
	}
	switch p.Default.Kind() {
	case KindInt:
		return IntType
	case KindFloat:
		return FloatType
	case KindBool:
		return BoolType
	default:
		return nil
	}
}

// expandArguments replaces positional @{list} arguments with their items and
// positional &{dict} arguments with named items.
func expandArguments(res *Resolver, site *CallSite) ([]Argument, []NamedArgument, error) {
	var (
		positional []Argument
		named      []NamedArgument
	)
	for _, arg := range site.Positional {
		ref, exact := arg.Template.Exact()
		if arg.Resolved || !exact || (ref.Kind != RefList && ref.Kind != RefDict) {
			if len(named) > 0 {
				return nil, nil, &BindingError{Kind: PositionalAfterNamed, Keyword: site.Keyword}
			}
			positional = append(positional, arg)
			continue
		}
		val, err := res.Resolve(*ref)
		if err != nil {
			return nil, nil, err
		}
		if ref.Kind == RefList {
			if len(named) > 0 {
				return nil, nil, &BindingError{Kind: PositionalAfterNamed, Keyword: site.Keyword}
			}
			for _, item := range val.Sequence() {
				positional = append(positional, ValueArg(item))
			}
			continue
		}
		m := val.Mapping()
		for _, key := range m.Keys() {
			item, _ := m.Get(key)
			named = append(named, NamedArgument{Name: key, Argument: ValueArg(item)})
		}
	}
	named = append(named, site.Named...)
	return positional, named, nil
}

// ConvertReturn enforces the keyword's return type on a value it returned.
func (b *Binder) ConvertReturn(kw *Keyword, v Value) (Value, error) {
	if kw.ReturnType == nil {
		return v, nil
	}
	val, err := b.Registry.Convert(v, kw.ReturnType)
	if err != nil {
		var conv *ConversionError
		if errors.As(err, &conv) {
			return Value{}, &ReturnValueError{Keyword: kw.Name, Err: conv}
		}
		return Value{}, err
	}
	return val, nil
}
