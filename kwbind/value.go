package kwbind

type ValueKind int

const (
	KindNone ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindOpaque
	KindSequence
	KindMapping
)

// Value is a runtime value tagged with the concrete kind it currently holds.
// Values are treated as immutable once bound; conversions build new values.
type Value struct {
	kind ValueKind
	data any
}

// Mapping is an insertion-ordered mapping from string keys to values.
type Mapping struct {
	keys   []string
	values map[string]Value
}

func NewNone() Value              { return Value{kind: KindNone} }
func NewBool(b bool) Value        { return Value{kind: KindBool, data: b} }
func NewInt(i int64) Value        { return Value{kind: KindInt, data: i} }
func NewFloat(f float64) Value    { return Value{kind: KindFloat, data: f} }
func NewString(s string) Value    { return Value{kind: KindString, data: s} }
func NewSequence(s []Value) Value { return Value{kind: KindSequence, data: s} }
func NewMapping(m *Mapping) Value { return Value{kind: KindMapping, data: m} }
func NewOpaque(obj any) Value     { return Value{kind: KindOpaque, data: obj} }
func NewStrings(items ...string) Value {
	elems := make([]Value, len(items))
	for i, item := range items {
		elems[i] = NewString(item)
	}
	return NewSequence(elems)
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNone() bool { return v.kind == KindNone }

func (v Value) Bool() bool {
	if v.kind == KindBool {
		return v.data.(bool)
	}
	return false
}

func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.data.(int64)
	case KindFloat:
		return int64(v.data.(float64))
	default:
		return 0
	}
}

func (v Value) Float() float64 {
	switch v.kind {
	case KindFloat:
		return v.data.(float64)
	case KindInt:
		return float64(v.data.(int64))
	default:
		return 0
	}
}

// Str returns the string payload of a string value, or "" for other kinds.
// Use Render for a textual form of any value.
func (v Value) Str() string {
	if v.kind == KindString {
		return v.data.(string)
	}
	return ""
}

func (v Value) Sequence() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.data.([]Value)
}

func (v Value) Mapping() *Mapping {
	if v.kind != KindMapping {
		return nil
	}
	return v.data.(*Mapping)
}

// Opaque returns the host object carried by an opaque value.
func (v Value) Opaque() any {
	if v.kind != KindOpaque {
		return nil
	}
	return v.data
}

// NewOrderedMapping builds a Mapping, keeping the first position of
// duplicate keys and the last value written to them.
func NewOrderedMapping(keys []string, values []Value) *Mapping {
	m := &Mapping{values: make(map[string]Value, len(keys))}
	for i, key := range keys {
		m.Set(key, values[i])
	}
	return m
}

func (m *Mapping) Set(key string, val Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = val
}

func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	val, ok := m.values[key]
	return val, ok
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The slice must not be modified.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}
