package kwbind

import "strings"

// Interpolator assembles template values and converts them to a target type.
type Interpolator struct {
	Resolver *Resolver
	Registry *Registry
}

// Interpolate resolves t and converts the result to target; a nil target
// leaves the value unconverted.
//
// A template holding exactly one reference yields the referenced value
// itself, so opaque and container values survive intact. Any other template
// is joined into a string. When the target is an opaque type, the joined
// string is only accepted if at least one segment already was an instance
// of that type; the type's constructor then rebuilds an instance from it.
// A union target tries its members left to right against the joined string,
// rebuilding opaque members the same way.
func (in *Interpolator) Interpolate(t Template, target *TypeExpr) (Value, error) {
	if ref, ok := t.Exact(); ok {
		val, err := in.Resolver.Resolve(*ref)
		if err != nil {
			return Value{}, err
		}
		return in.Registry.Convert(val, target)
	}
	if len(t) <= 1 {
		text := ""
		if len(t) == 1 {
			text = t[0].Literal
		}
		return in.Registry.Convert(NewString(text), target)
	}

	parts := make([]Value, len(t))
	types := make([]string, len(t))
	for i, seg := range t {
		if seg.Ref == nil {
			parts[i] = NewString(seg.Literal)
		} else {
			val, err := in.Resolver.Resolve(*seg.Ref)
			if err != nil {
				return Value{}, err
			}
			parts[i] = val
		}
		types[i] = parts[i].TypeName()
	}
	display := joinRendered(parts)

	if target != nil {
		switch target.Kind {
		case TypeOpaque:
			val, ok, err := rebuild(parts, types, display, target)
			if err != nil || ok {
				return val, err
			}
			return Value{}, &ConversionError{
				Kind:   NoImplicitStringConversion,
				Value:  display,
				Types:  types,
				Target: target.QualifiedName(),
			}
		case TypeUnion:
			for _, member := range target.Union {
				if member.Kind == TypeOpaque {
					if val, ok, err := rebuild(parts, types, display, member); err == nil && ok {
						return val, nil
					}
					continue
				}
				if val, err := in.Registry.Convert(NewString(display), member); err == nil {
					return val, nil
				}
			}
		}
	}

	val, err := in.Registry.Convert(NewString(display), target)
	if err != nil {
		if conv, ok := err.(*ConversionError); ok && len(conv.Path) == 0 {
			clone := *conv
			clone.Types = types
			return Value{}, &clone
		}
		return Value{}, err
	}
	return val, nil
}

// rebuild constructs an instance of the opaque target from the joined
// parts. It reports false when no part already is an instance.
func rebuild(parts []Value, types []string, display string, target *TypeExpr) (Value, bool, error) {
	ot := target.Opaque
	fail := func(err error) (Value, bool, error) {
		return Value{}, false, &ConversionError{
			Kind:   CustomConverterFailed,
			Value:  display,
			Types:  types,
			Target: target.QualifiedName(),
			Detail: err.Error(),
			Err:    err,
		}
	}

	var b strings.Builder
	found := false
	for _, part := range parts {
		self, err := isInstance(ot, part)
		if err != nil {
			return fail(err)
		}
		if !self {
			b.WriteString(Render(part))
			continue
		}
		found = true
		text, err := renderInstance(ot, part)
		if err != nil {
			return fail(err)
		}
		b.WriteString(text)
	}
	if !found {
		return Value{}, false, nil
	}

	joined := b.String()
	val, err := callOpaque(func() (Value, error) { return ot.Construct(joined) })
	if err == nil {
		err = checkInstance(ot, val, "constructor")
	}
	if err != nil {
		return fail(err)
	}
	return val, true, nil
}

func joinRendered(parts []Value) string {
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(Render(part))
	}
	return b.String()
}
