package kwbind

// Argument is one call-site value. It is either a template still to be
// interpolated, or a value that was already resolved, as happens when a
// @{list} or &{dict} argument is expanded.
type Argument struct {
	Template Template
	Value    Value
	Resolved bool
}

func TemplateArg(t Template) Argument { return Argument{Template: t} }
func ValueArg(v Value) Argument       { return Argument{Value: v, Resolved: true} }

// Text is the argument as the script author wrote it, for error messages.
func (a Argument) Text() string {
	if a.Resolved {
		return Render(a.Value)
	}
	return a.Template.String()
}

type NamedArgument struct {
	Name string
	Argument
}

// BoundParam is one non-variadic parameter together with the argument that
// filled it. Defaulted marks a parameter filled from its default.
type BoundParam struct {
	Param     *Param
	Arg       Argument
	Defaulted bool
}

// Binding is the structural result of matching a call site against a
// signature, before any conversion. Optional parameters without defaults
// that were not supplied are absent from Params.
type Binding struct {
	Signature     *Signature
	Params        []BoundParam
	VarPositional []Argument
	VarNamed      []NamedArgument
}

func (b *Binding) Lookup(name string) (BoundParam, bool) {
	for _, bp := range b.Params {
		if bp.Param.Name == name {
			return bp, true
		}
	}
	return BoundParam{}, false
}

// Match assigns positional and named arguments to the parameters of sig.
// keyword is used only in error messages.
func Match(sig *Signature, keyword string, positional []Argument, named []NamedArgument) (*Binding, error) {
	params := sig.Params()
	filled := make([]*Argument, len(params))

	slot := 0
	extra := 0
	for i := range positional {
		for slot < len(params) && params[slot].Kind != PositionalOnly && params[slot].Kind != PositionalOrNamed {
			slot++
		}
		if slot >= len(params) || (params[slot].Kind != PositionalOnly && params[slot].Kind != PositionalOrNamed) {
			extra = len(positional) - i
			break
		}
		filled[slot] = &positional[i]
		slot++
	}

	binding := &Binding{Signature: sig}
	if extra > 0 {
		if sig.variadic(VarPositional) == nil {
			min, max := sig.PositionalRange()
			return nil, &BindingError{Kind: TooManyPositionalArguments, Keyword: keyword, Min: min, Max: max, Given: len(positional)}
		}
		binding.VarPositional = append([]Argument(nil), positional[len(positional)-extra:]...)
	}

	varNamed := sig.variadic(VarNamed)
	usedNames := make(map[string]struct{}, len(named))
	for i := range named {
		arg := &named[i]
		if _, dup := usedNames[arg.Name]; dup {
			return nil, &BindingError{Kind: DuplicateArgument, Keyword: keyword, Name: arg.Name}
		}
		usedNames[arg.Name] = struct{}{}

		idx := -1
		for j, p := range params {
			if p.Name == arg.Name && (p.Kind == PositionalOrNamed || p.Kind == NamedOnly) {
				idx = j
				break
			}
		}
		if idx >= 0 {
			if filled[idx] != nil {
				return nil, &BindingError{Kind: DuplicateArgument, Keyword: keyword, Name: arg.Name}
			}
			filled[idx] = &arg.Argument
			continue
		}
		if varNamed == nil {
			return nil, &BindingError{Kind: UnexpectedNamedArgument, Keyword: keyword, Name: arg.Name}
		}
		binding.VarNamed = append(binding.VarNamed, *arg)
	}

	for i := range params {
		p := &params[i]
		if p.Kind == VarPositional || p.Kind == VarNamed {
			continue
		}
		switch {
		case filled[i] != nil:
			binding.Params = append(binding.Params, BoundParam{Param: p, Arg: *filled[i]})
		case p.Default != nil:
			binding.Params = append(binding.Params, BoundParam{Param: p, Arg: ValueArg(*p.Default), Defaulted: true})
		case p.Required:
			return nil, &BindingError{Kind: MissingRequiredArgument, Keyword: keyword, Name: p.Name}
		}
	}
	return binding, nil
}
