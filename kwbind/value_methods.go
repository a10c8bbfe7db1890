package kwbind

import (
	"fmt"
	"strconv"
	"strings"
)

func (k ValueKind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindOpaque:
		return "opaque"
	case KindSequence:
		return "list"
	case KindMapping:
		return "dictionary"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// String implements fmt.Stringer using Render.
func (v Value) String() string {
	return Render(v)
}

// Render converts any value to its string representation. It is the only
// rendering used when template segments are joined, so it must stay total.
func Render(v Value) string {
	switch v.kind {
	case KindString:
		return v.data.(string)
	case KindNone:
		return "None"
	case KindBool:
		if v.Bool() {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.data.(int64), 10)
	case KindFloat:
		return formatFloat(v.data.(float64))
	case KindOpaque:
		if s, ok := v.data.(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprintf("<%s>", opaqueTypeName(v.data))
	case KindSequence, KindMapping:
		var b strings.Builder
		writeRepr(&b, v)
		return b.String()
	default:
		return fmt.Sprintf("<%v>", v.kind)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// writeRepr renders v in the literal form accepted back by the list and
// dictionary converters.
func writeRepr(b *strings.Builder, v Value) {
	switch v.kind {
	case KindString:
		b.WriteString(quoteString(v.data.(string)))
	case KindSequence:
		b.WriteByte('[')
		for i, elem := range v.Sequence() {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, elem)
		}
		b.WriteByte(']')
	case KindMapping:
		m := v.Mapping()
		b.WriteByte('{')
		for i, key := range m.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quoteString(key))
			b.WriteString(": ")
			val, _ := m.Get(key)
			writeRepr(b, val)
		}
		b.WriteByte('}')
	default:
		b.WriteString(Render(v))
	}
}

func quoteString(s string) string {
	switch {
	case !strings.ContainsAny(s, "'\\\n\t"):
		return "'" + s + "'"
	case !strings.Contains(s, "\"") && !strings.ContainsAny(s, "\\\n\t"):
		return "\"" + s + "\""
	default:
		return strconv.Quote(s)
	}
}

// TypeName reports the runtime type name used in error messages.
func (v Value) TypeName() string {
	if v.kind == KindOpaque {
		return opaqueTypeName(v.data)
	}
	return v.kind.String()
}

type typeNamer interface {
	TypeName() string
}

func opaqueTypeName(obj any) string {
	if named, ok := obj.(typeNamer); ok {
		return named.TypeName()
	}
	name := strings.TrimLeft(fmt.Sprintf("%T", obj), "*")
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// Equal reports whether two values are structurally equal. Opaque values
// compare by identity of the carried object.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNone:
		return true
	case KindBool:
		return v.Bool() == other.Bool()
	case KindInt:
		return v.Int() == other.Int()
	case KindFloat:
		return v.Float() == other.Float()
	case KindString:
		return v.Str() == other.Str()
	case KindOpaque:
		return v.data == other.data
	case KindSequence:
		left, right := v.Sequence(), other.Sequence()
		if len(left) != len(right) {
			return false
		}
		for i := range left {
			if !left[i].Equal(right[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		left, right := v.Mapping(), other.Mapping()
		if left.Len() != right.Len() {
			return false
		}
		for _, key := range left.Keys() {
			lv, _ := left.Get(key)
			rv, ok := right.Get(key)
			if !ok || !lv.Equal(rv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
