package kwbind

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"
)

// ToProto exports v as a protobuf Value. Opaque values export their display
// rendering, so secrets stay masked.
func ToProto(v Value) (*structpb.Value, error) {
	switch v.Kind() {
	case KindNone:
		return structpb.NewNullValue(), nil
	case KindBool:
		return structpb.NewBoolValue(v.Bool()), nil
	case KindInt:
		return structpb.NewNumberValue(float64(v.Int())), nil
	case KindFloat:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return structpb.NewStringValue(Render(v)), nil
		}
		return structpb.NewNumberValue(f), nil
	case KindString, KindOpaque:
		return structpb.NewStringValue(Render(v)), nil
	case KindSequence:
		items := v.Sequence()
		list := &structpb.ListValue{Values: make([]*structpb.Value, len(items))}
		for i, item := range items {
			pv, err := ToProto(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			list.Values[i] = pv
		}
		return structpb.NewListValue(list), nil
	case KindMapping:
		s, err := mappingProto(v.Mapping())
		if err != nil {
			return nil, err
		}
		return structpb.NewStructValue(s), nil
	default:
		return nil, fmt.Errorf("cannot export %s value", v.Kind())
	}
}

func mappingProto(m *Mapping) (*structpb.Struct, error) {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, m.Len())}
	for _, key := range m.Keys() {
		val, _ := m.Get(key)
		pv, err := ToProto(val)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		out.Fields[key] = pv
	}
	return out, nil
}

// Proto exports the call as {keyword, args, kwargs, types}. types maps each
// bound parameter to the type name of its value.
func (c *BoundCall) Proto() (*structpb.Struct, error) {
	args, err := ToProto(NewSequence(c.Args))
	if err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}
	kwargs, err := mappingProto(c.Kwargs)
	if err != nil {
		return nil, fmt.Errorf("kwargs: %w", err)
	}
	types := &structpb.Struct{Fields: make(map[string]*structpb.Value, c.Params.Len())}
	for _, name := range c.Params.Keys() {
		val, _ := c.Params.Get(name)
		types.Fields[name] = structpb.NewStringValue(val.TypeName())
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"keyword": structpb.NewStringValue(c.Keyword),
		"args":    args,
		"kwargs":  structpb.NewStructValue(kwargs),
		"types":   structpb.NewStructValue(types),
	}}, nil
}

// ErrorProto exports a binding failure as {kind, entity, value, message}.
func ErrorProto(err error) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"kind":    structpb.NewStringValue(errorKind(err)),
		"message": structpb.NewStringValue(err.Error()),
	}
	var call *CallError
	if errors.As(err, &call) {
		if call.Keyword != "" {
			fields["keyword"] = structpb.NewStringValue(call.Keyword)
		}
		if call.Entity != "" {
			fields["entity"] = structpb.NewStringValue(call.Entity)
		}
		if call.Value != "" {
			fields["value"] = structpb.NewStringValue(call.Value)
		}
	}
	return &structpb.Struct{Fields: fields}
}
