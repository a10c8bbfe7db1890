package kwbind

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

func (c *converter) convertList(v Value, ty *TypeExpr, depth int) (Value, *ConversionError) {
	src := v
	if v.Kind() == KindString {
		parsed, ok := parseLiteral(v.Str(), '[')
		if !ok {
			return Value{}, mismatch(v, ty)
		}
		src = parsed
	}
	if src.Kind() != KindSequence {
		return Value{}, mismatch(v, ty)
	}
	elemType := ty.elemType()
	if elemType == nil || elemType.Kind == TypeAny {
		return src, nil
	}
	elems := src.Sequence()
	out := make([]Value, len(elems))
	for i, elem := range elems {
		val, err := c.convert(elem, elemType, depth+1)
		if err != nil {
			return Value{}, err.withPath(strconv.Itoa(i))
		}
		out[i] = val
	}
	return NewSequence(out), nil
}

func (c *converter) convertDict(v Value, ty *TypeExpr, depth int) (Value, *ConversionError) {
	src, ok := mappingSource(v)
	if !ok {
		return Value{}, mismatch(v, ty)
	}
	if len(ty.TypeArgs) != 2 {
		return src, nil
	}
	keyType, valType := ty.TypeArgs[0], ty.TypeArgs[1]
	in := src.Mapping()
	out := &Mapping{}
	for _, key := range in.Keys() {
		convKey, err := c.convert(NewString(key), keyType, depth+1)
		if err != nil {
			return Value{}, err.withPath(key)
		}
		val, _ := in.Get(key)
		convVal, err := c.convert(val, valType, depth+1)
		if err != nil {
			return Value{}, err.withPath(key)
		}
		out.Set(Render(convKey), convVal)
	}
	return NewMapping(out), nil
}

func (c *converter) convertStruct(v Value, ty *TypeExpr, depth int) (Value, *ConversionError) {
	src, ok := mappingSource(v)
	if !ok {
		return Value{}, mismatch(v, ty)
	}
	in := src.Mapping()
	converted := make(map[string]Value, len(ty.Fields))
	for _, field := range ty.Fields {
		val, present := in.Get(field.Key)
		if !present {
			if field.Required {
				err := mismatch(v, ty)
				err.Kind = MissingField
				err.Detail = fmt.Sprintf("Required item '%s' missing", field.Key)
				return Value{}, err
			}
			continue
		}
		convVal, err := c.convert(val, field.Type, depth+1)
		if err != nil {
			return Value{}, err.withPath(field.Key)
		}
		converted[field.Key] = convVal
	}

	out := &Mapping{}
	for _, key := range in.Keys() {
		if val, ok := converted[key]; ok {
			out.Set(key, val)
			continue
		}
		if ty.Closed {
			allowed := make([]string, len(ty.Fields))
			for i, f := range ty.Fields {
				allowed[i] = "'" + f.Key + "'"
			}
			err := mismatch(v, ty)
			err.Kind = UnknownField
			err.Detail = fmt.Sprintf("Item '%s' is not allowed, only %s", key, joinTypeNames(allowed))
			return Value{}, err
		}
		val, _ := in.Get(key)
		out.Set(key, val)
	}
	return NewMapping(out), nil
}

func mappingSource(v Value) (Value, bool) {
	switch v.Kind() {
	case KindMapping:
		return v, true
	case KindString:
		parsed, ok := parseLiteral(v.Str(), '{')
		if ok && parsed.Kind() == KindMapping {
			return parsed, true
		}
	}
	return Value{}, false
}

// parseLiteral reads a list or dictionary literal such as "['a', 1]" or
// "{'k': True}". The text must start with open after trimming. YAML flow
// syntax covers the accepted forms.
func parseLiteral(text string, open byte) (Value, bool) {
	text = strings.TrimSpace(text)
	if text == "" || text[0] != open {
		return Value{}, false
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return Value{}, false
	}
	val, err := valueFromYAML(&doc)
	if err != nil {
		return Value{}, false
	}
	return val, true
}

// valueFromYAML maps a decoded YAML node onto a Value, keeping mapping order.
func valueFromYAML(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return NewNone(), nil
		}
		return valueFromYAML(node.Content[0])
	case yaml.AliasNode:
		return valueFromYAML(node.Alias)
	case yaml.SequenceNode:
		elems := make([]Value, len(node.Content))
		for i, child := range node.Content {
			val, err := valueFromYAML(child)
			if err != nil {
				return Value{}, err
			}
			elems[i] = val
		}
		return NewSequence(elems), nil
	case yaml.MappingNode:
		m := &Mapping{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			val, err := valueFromYAML(node.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			m.Set(keyNode.Value, val)
		}
		return NewMapping(m), nil
	case yaml.ScalarNode:
		return scalarFromYAML(node)
	default:
		return Value{}, fmt.Errorf("line %d: unsupported YAML node", node.Line)
	}
}

func scalarFromYAML(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return NewNone(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Value{}, err
		}
		return NewBool(b), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return Value{}, err
		}
		return NewInt(i), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Value{}, err
		}
		return NewFloat(f), nil
	default:
		if node.Style == 0 && node.Value == "None" {
			return NewNone(), nil
		}
		return NewString(node.Value), nil
	}
}
