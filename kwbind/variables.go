package kwbind

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// VariableDecl is a parsed variable declaration such as ${port: int},
// @{ids: int | Secret} or &{limits: str=int}. For lists Type applies to each
// element; for dictionaries Type applies to each value and KeyType to each
// key.
type VariableDecl struct {
	Kind     RefKind
	Name     string
	Type     *TypeExpr
	KeyType  *TypeExpr
	typeText string
}

func (d *VariableDecl) String() string {
	var b strings.Builder
	b.WriteByte(d.Kind.Sigil())
	b.WriteByte('{')
	b.WriteString(d.Name)
	if d.typeText != "" {
		b.WriteString(": ")
		b.WriteString(d.typeText)
	}
	b.WriteByte('}')
	return b.String()
}

// ParseVariableDecl parses the left-hand side of a variable assignment.
func (r *Registry) ParseVariableDecl(text string) (*VariableDecl, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimSpace(strings.TrimSuffix(text, "="))
	if len(text) < 3 || text[1] != '{' || text[len(text)-1] != '}' {
		return nil, fmt.Errorf("invalid variable declaration %q", text)
	}
	kind, ok := refKindForSigil(text[0])
	if !ok || kind == RefEnv {
		return nil, fmt.Errorf("invalid variable declaration %q: unsupported sigil %q", text, text[0])
	}
	name, typeText, hasType := strings.Cut(text[2:len(text)-1], ":")
	decl := &VariableDecl{Kind: kind, Name: strings.TrimSpace(name)}
	if decl.Name == "" {
		return nil, fmt.Errorf("invalid variable declaration %q: missing name", text)
	}
	if !hasType {
		return decl, nil
	}
	decl.typeText = strings.TrimSpace(typeText)
	valueText := decl.typeText
	if kind == RefDict {
		if keyText, rest, ok := strings.Cut(valueText, "="); ok {
			keyType, err := r.ParseType(keyText)
			if err != nil {
				return nil, fmt.Errorf("variable '%s': %w", decl.Name, err)
			}
			decl.KeyType = keyType
			valueText = rest
		}
	}
	ty, err := r.ParseType(valueText)
	if err != nil {
		return nil, fmt.Errorf("variable '%s': %w", decl.Name, err)
	}
	decl.Type = ty
	return decl, nil
}

// DeclareVariable builds the value for decl from raw value texts and
// defines it in the resolver's scope. On any failure the scope is left
// untouched.
//
// Scalar values join multiple items with a single space. List values take
// one element per item, with @{list} items expanded. Dictionary values take
// key=value items, with &{dict} items expanded.
func (b *Binder) DeclareVariable(res *Resolver, decl *VariableDecl, raw []string) (Value, error) {
	val, err := b.variableValue(res, decl, raw)
	if err != nil {
		var conv *ConversionError
		if errors.As(err, &conv) {
			return Value{}, &CallError{Entity: fmt.Sprintf("Variable '%s'", decl), Value: strings.Join(raw, " "), Err: err}
		}
		return Value{}, &CallError{Value: strings.Join(raw, " "), Err: err}
	}
	res.Scope.Define(decl.Name, val)
	logf(b.Logger, "variable %s = %s", decl, Render(val))
	return val, nil
}

func (b *Binder) variableValue(res *Resolver, decl *VariableDecl, raw []string) (Value, error) {
	in := &Interpolator{Resolver: res, Registry: b.Registry}
	switch decl.Kind {
	case RefList:
		return b.listVariable(in, decl, raw)
	case RefDict:
		return b.dictVariable(in, decl, raw)
	}

	var joined Template
	for i, text := range raw {
		tmpl, err := ParseTemplate(text)
		if err != nil {
			return Value{}, err
		}
		if i > 0 {
			joined = append(joined, Lit(" "))
		}
		joined = append(joined, tmpl...)
	}
	return in.Interpolate(joined, decl.Type)
}

func (b *Binder) listVariable(in *Interpolator, decl *VariableDecl, raw []string) (Value, error) {
	var items []Value
	for _, text := range raw {
		tmpl, err := ParseTemplate(text)
		if err != nil {
			return Value{}, err
		}
		if ref, ok := tmpl.Exact(); ok && ref.Kind == RefList {
			val, err := in.Resolver.Resolve(*ref)
			if err != nil {
				return Value{}, err
			}
			for _, item := range val.Sequence() {
				conv, err := in.Registry.Convert(item, decl.Type)
				if err != nil {
					return Value{}, atIndex(err, len(items))
				}
				items = append(items, conv)
			}
			continue
		}
		val, err := in.Interpolate(tmpl, decl.Type)
		if err != nil {
			return Value{}, atIndex(err, len(items))
		}
		items = append(items, val)
	}
	if items == nil {
		items = []Value{}
	}
	return NewSequence(items), nil
}

func (b *Binder) dictVariable(in *Interpolator, decl *VariableDecl, raw []string) (Value, error) {
	out := &Mapping{}
	for _, text := range raw {
		tmpl, err := ParseTemplate(text)
		if err != nil {
			return Value{}, err
		}
		if ref, ok := tmpl.Exact(); ok && ref.Kind == RefDict {
			val, err := in.Resolver.Resolve(*ref)
			if err != nil {
				return Value{}, err
			}
			m := val.Mapping()
			for _, key := range m.Keys() {
				item, _ := m.Get(key)
				if err := b.setDictItem(in, decl, out, ValueArg(NewString(key)), ValueArg(item), key); err != nil {
					return Value{}, err
				}
			}
			continue
		}

		keyText, valueText, ok := splitItem(text)
		if !ok {
			return Value{}, fmt.Errorf("invalid dictionary variable item '%s': items must use 'name=value' syntax or be dictionary variables themselves", text)
		}
		keyTmpl, err := ParseTemplate(keyText)
		if err != nil {
			return Value{}, err
		}
		valTmpl, err := ParseTemplate(valueText)
		if err != nil {
			return Value{}, err
		}
		if err := b.setDictItem(in, decl, out, TemplateArg(keyTmpl), TemplateArg(valTmpl), keyText); err != nil {
			return Value{}, err
		}
	}
	return NewMapping(out), nil
}

func (b *Binder) setDictItem(in *Interpolator, decl *VariableDecl, out *Mapping, key, val Argument, path string) error {
	k, err := convertArgument(in, key, decl.KeyType)
	if err != nil {
		return atKey(err, path)
	}
	v, err := convertArgument(in, val, decl.Type)
	if err != nil {
		return atKey(err, path)
	}
	out.Set(Render(k), v)
	return nil
}

func atIndex(err error, i int) error {
	return atKey(err, strconv.Itoa(i))
}

func atKey(err error, key string) error {
	var conv *ConversionError
	if errors.As(err, &conv) {
		return conv.withPath(key)
	}
	return err
}

// splitItem splits a dictionary item at its first unescaped '=' that is
// not inside a reference.
func splitItem(text string) (key, value string, ok bool) {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '=':
			if depth == 0 {
				return text[:i], text[i+1:], true
			}
		}
	}
	return "", "", false
}

// logf writes a trace line when a logger is configured.
func logf(l *log.Logger, format string, args ...any) {
	if l != nil {
		l.Printf(format, args...)
	}
}
