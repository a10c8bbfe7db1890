package kwbind

import "strings"

type RefKind int

const (
	RefScalar RefKind = iota
	RefList
	RefDict
	RefEnv
)

func (k RefKind) Sigil() byte {
	switch k {
	case RefList:
		return '@'
	case RefDict:
		return '&'
	case RefEnv:
		return '%'
	default:
		return '$'
	}
}

func refKindForSigil(c byte) (RefKind, bool) {
	switch c {
	case '$':
		return RefScalar, true
	case '@':
		return RefList, true
	case '&':
		return RefDict, true
	case '%':
		return RefEnv, true
	}
	return RefScalar, false
}

// Reference is an embedded lookup such as ${name} or %{NAME=default}.
// Default is only meaningful for environment references.
type Reference struct {
	Kind    RefKind
	Name    string
	Default *string
}

func (r Reference) String() string {
	var b strings.Builder
	b.WriteByte(r.Kind.Sigil())
	b.WriteByte('{')
	b.WriteString(r.Name)
	if r.Default != nil {
		b.WriteByte('=')
		b.WriteString(*r.Default)
	}
	b.WriteByte('}')
	return b.String()
}

// Segment is either literal text or a reference; exactly one is set.
type Segment struct {
	Literal string
	Ref     *Reference
}

func Lit(text string) Segment { return Segment{Literal: text} }

func Ref(kind RefKind, name string) Segment {
	return Segment{Ref: &Reference{Kind: kind, Name: name}}
}

func EnvRef(name string, def *string) Segment {
	return Segment{Ref: &Reference{Kind: RefEnv, Name: name, Default: def}}
}

// Template is an ordered sequence of segments. The empty template
// interpolates to the empty string.
type Template []Segment

// Exact reports whether the template is a single reference with no
// surrounding text, the only form that preserves the referenced value's kind.
func (t Template) Exact() (*Reference, bool) {
	if len(t) == 1 && t[0].Ref != nil {
		return t[0].Ref, true
	}
	return nil, false
}

// String reconstructs source text for the template, escaping literal sigils.
func (t Template) String() string {
	var b strings.Builder
	for _, seg := range t {
		if seg.Ref != nil {
			b.WriteString(seg.Ref.String())
			continue
		}
		for i := 0; i < len(seg.Literal); i++ {
			c := seg.Literal[i]
			if _, isSigil := refKindForSigil(c); isSigil && i+1 < len(seg.Literal) && seg.Literal[i+1] == '{' {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Literal wraps plain text in a template without interpreting references.
func Literal(text string) Template {
	if text == "" {
		return Template{}
	}
	return Template{Lit(text)}
}

// ParseTemplate splits src into literal text and references. A backslash
// escapes a following sigil, backslash or equals sign.
func ParseTemplate(src string) (Template, error) {
	var (
		tmpl Template
		text strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			tmpl = append(tmpl, Lit(text.String()))
			text.Reset()
		}
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == '\\' && i+1 < len(src) && strings.IndexByte(`$@&%\=`, src[i+1]) >= 0 {
			text.WriteByte(src[i+1])
			i++
			continue
		}
		kind, isSigil := refKindForSigil(c)
		if !isSigil || i+1 >= len(src) || src[i+1] != '{' {
			text.WriteByte(c)
			continue
		}
		end := matchingBrace(src, i+1)
		if end < 0 {
			return nil, &ResolutionError{Kind: MalformedReference, Name: src[i:], Reference: src[i:]}
		}
		body := src[i+2 : end]
		if strings.TrimSpace(body) == "" {
			return nil, &ResolutionError{Kind: MalformedReference, Name: src[i : end+1], Reference: src[i : end+1]}
		}
		ref := &Reference{Kind: kind, Name: body}
		if kind == RefEnv {
			if name, def, ok := strings.Cut(body, "="); ok {
				ref.Name = name
				ref.Default = &def
			}
		}
		flush()
		tmpl = append(tmpl, Segment{Ref: ref})
		i = end
	}
	flush()
	return tmpl, nil
}

func matchingBrace(src string, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
