package kwbind

import (
	"fmt"
	"strings"
)

// ParseType parses a type annotation such as "int", "int | Secret",
// "list[int | str]", "dict[str, Credentials]" or "Optional[int]". Angle
// brackets are accepted in place of square brackets. Names are resolved
// through the registry.
func (r *Registry) ParseType(expr string) (*TypeExpr, error) {
	p := &typeParser{src: expr, reg: r}
	p.skipSpace()
	if p.eof() {
		return nil, fmt.Errorf("invalid type %q: empty annotation", expr)
	}
	ty, err := p.parseUnion()
	if err != nil {
		return nil, fmt.Errorf("invalid type %q: %w", expr, err)
	}
	p.skipSpace()
	if !p.eof() {
		return nil, fmt.Errorf("invalid type %q: unexpected %q", expr, p.src[p.pos:])
	}
	return ty, nil
}

type typeParser struct {
	src string
	pos int
	reg *Registry
}

func (p *typeParser) eof() bool { return p.pos >= len(p.src) }

func (p *typeParser) skipSpace() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) parseUnion() (*TypeExpr, error) {
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	options := []*TypeExpr{first}
	for p.peek() == '|' {
		p.pos++
		next, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		options = append(options, next)
	}
	if len(options) == 1 {
		return first, nil
	}
	return NewUnion(options...)
}

func (p *typeParser) parseAtom() (*TypeExpr, error) {
	p.skipSpace()
	start := p.pos
	for !p.eof() && isTypeNameByte(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if name == "" {
		if p.eof() {
			return nil, fmt.Errorf("expected type name")
		}
		return nil, fmt.Errorf("expected type name, got %q", p.src[p.pos:])
	}

	var args []*TypeExpr
	if open := p.peek(); open == '[' || open == '<' {
		closer := byte(']')
		if open == '<' {
			closer = '>'
		}
		p.pos++
		for {
			arg, err := p.parseUnion()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			switch p.peek() {
			case ',':
				p.pos++
				continue
			case closer:
				p.pos++
			default:
				return nil, fmt.Errorf("expected ',' or %q after type argument of %s", closer, name)
			}
			break
		}
	}
	return p.resolve(name, args)
}

func (p *typeParser) resolve(name string, args []*TypeExpr) (*TypeExpr, error) {
	switch strings.ToLower(name) {
	case "union":
		if len(args) == 0 {
			return nil, fmt.Errorf("union requires type arguments")
		}
		return NewUnion(args...)
	case "optional":
		if len(args) != 1 {
			return nil, fmt.Errorf("optional requires exactly 1 type argument")
		}
		return NewUnion(args[0], NoneType)
	}

	base, ok := p.reg.Lookup(name)
	if !ok {
		if suggestion := nearestName(name, p.reg.Names()); suggestion != "" {
			return nil, fmt.Errorf("unrecognized type %s, did you mean %s?", name, suggestion)
		}
		return nil, fmt.Errorf("unrecognized type %s", name)
	}
	if len(args) == 0 {
		return base, nil
	}
	switch base.Kind {
	case TypeList:
		if len(args) != 1 {
			return nil, fmt.Errorf("list type expects exactly 1 type argument")
		}
		return ListOf(args[0]), nil
	case TypeDict:
		if len(args) != 2 {
			return nil, fmt.Errorf("dict type expects exactly 2 type arguments")
		}
		return DictOf(args[0], args[1]), nil
	default:
		return nil, fmt.Errorf("type %s does not accept type arguments", name)
	}
}

func isTypeNameByte(c byte) bool {
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
