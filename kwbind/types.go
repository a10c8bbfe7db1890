package kwbind

import (
	"errors"
	"fmt"
	"strings"
)

type TypeKind int

const (
	TypeAny TypeKind = iota
	TypeString
	TypeInt
	TypeFloat
	TypeBool
	TypeNone
	TypeList
	TypeDict
	TypeEnum
	TypeStruct
	TypeUnion
	TypeOpaque
)

// TypeExpr describes a conversion target. It is a closed tagged union: Kind
// selects which of TypeArgs, Union, Members, Fields or Opaque is meaningful.
// TypeExprs are immutable once built and may be shared between goroutines.
type TypeExpr struct {
	Name   string
	Module string
	Kind   TypeKind

	// TypeArgs holds the element type of a list, or key and value types of a
	// dict. Empty means the container accepts any elements.
	TypeArgs []*TypeExpr
	Union    []*TypeExpr
	Members  []EnumMember
	Fields   []Field
	// Closed rejects struct keys that are not declared fields.
	Closed bool
	Opaque OpaqueType

	enumValues []*EnumValue
}

// EnumMember is one named literal of an enumeration.
type EnumMember struct {
	Name    string
	Literal Value
}

// Field is one declared key of a structured mapping.
type Field struct {
	Key      string
	Type     *TypeExpr
	Required bool
}

// EnumValue is the opaque payload of a converted enumeration member.
type EnumValue struct {
	Enum    string
	Name    string
	Literal Value
}

func (e *EnumValue) String() string   { return e.Name }
func (e *EnumValue) TypeName() string { return e.Enum }

var (
	AnyType    = &TypeExpr{Name: "Any", Kind: TypeAny}
	StringType = &TypeExpr{Name: "string", Kind: TypeString}
	IntType    = &TypeExpr{Name: "integer", Kind: TypeInt}
	FloatType  = &TypeExpr{Name: "float", Kind: TypeFloat}
	BoolType   = &TypeExpr{Name: "boolean", Kind: TypeBool}
	NoneType   = &TypeExpr{Name: "None", Kind: TypeNone}
)

func ListOf(elem *TypeExpr) *TypeExpr {
	ty := &TypeExpr{Name: "list", Kind: TypeList}
	if elem != nil {
		ty.TypeArgs = []*TypeExpr{elem}
	}
	return ty
}

func DictOf(key, val *TypeExpr) *TypeExpr {
	ty := &TypeExpr{Name: "dict", Kind: TypeDict}
	if key != nil || val != nil {
		if key == nil {
			key = AnyType
		}
		if val == nil {
			val = AnyType
		}
		ty.TypeArgs = []*TypeExpr{key, val}
	}
	return ty
}

// NewEnum builds an enumeration. Member names must be unique.
func NewEnum(name string, members ...EnumMember) (*TypeExpr, error) {
	if name == "" {
		return nil, errors.New("enum name must not be empty")
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("enum %s must have at least one member", name)
	}
	ty := &TypeExpr{Name: name, Kind: TypeEnum, Members: members}
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, dup := seen[m.Name]; dup {
			return nil, fmt.Errorf("enum %s has duplicate member %s", name, m.Name)
		}
		seen[m.Name] = struct{}{}
		ty.enumValues = append(ty.enumValues, &EnumValue{Enum: name, Name: m.Name, Literal: m.Literal})
	}
	return ty, nil
}

// enumMembers returns the member payloads. Types built by NewEnum share one
// payload per member; literal TypeExprs get fresh payloads on each call.
func (t *TypeExpr) enumMembers() []*EnumValue {
	if len(t.enumValues) == len(t.Members) {
		return t.enumValues
	}
	out := make([]*EnumValue, len(t.Members))
	for i, m := range t.Members {
		out[i] = &EnumValue{Enum: t.Name, Name: m.Name, Literal: m.Literal}
	}
	return out
}

// Member returns the value of the named enumeration member.
func (t *TypeExpr) Member(name string) (Value, bool) {
	for _, ev := range t.enumMembers() {
		if ev.Name == name {
			return NewOpaque(ev), true
		}
	}
	return Value{}, false
}

// NewStruct builds a structured mapping type with the given fields in order.
func NewStruct(name string, closed bool, fields ...Field) (*TypeExpr, error) {
	if name == "" {
		return nil, errors.New("struct name must not be empty")
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Type == nil {
			return nil, fmt.Errorf("struct %s field %s has no type", name, f.Key)
		}
		if _, dup := seen[f.Key]; dup {
			return nil, fmt.Errorf("struct %s has duplicate field %s", name, f.Key)
		}
		seen[f.Key] = struct{}{}
	}
	return &TypeExpr{Name: name, Kind: TypeStruct, Fields: fields, Closed: closed}, nil
}

// NewUnion combines options tried left to right. Nested unions are
// flattened and repeated members dropped, so the result never nests.
func NewUnion(options ...*TypeExpr) (*TypeExpr, error) {
	var flat []*TypeExpr
	seen := make(map[string]struct{})
	for _, opt := range options {
		if opt == nil {
			return nil, errors.New("union member must not be nil")
		}
		members := []*TypeExpr{opt}
		if opt.Kind == TypeUnion {
			members = opt.Union
		}
		for _, m := range members {
			key := m.String()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			flat = append(flat, m)
		}
	}
	switch len(flat) {
	case 0:
		return nil, errors.New("union must have at least one member")
	case 1:
		return flat[0], nil
	}
	names := make([]string, len(flat))
	for i, m := range flat {
		names[i] = m.String()
	}
	return &TypeExpr{Name: strings.Join(names, " | "), Kind: TypeUnion, Union: flat}, nil
}

// OpaqueOf describes a custom type converted through its OpaqueType.
func OpaqueOf(ot OpaqueType) *TypeExpr {
	return &TypeExpr{Name: ot.TypeName(), Kind: TypeOpaque, Opaque: ot}
}

// QualifiedName includes the declaring module, if any.
func (t *TypeExpr) QualifiedName() string {
	if t == nil {
		return "Any"
	}
	if t.Module != "" && (t.Kind == TypeEnum || t.Kind == TypeStruct || t.Kind == TypeOpaque) {
		return t.Module + "." + t.Name
	}
	return t.String()
}

func (t *TypeExpr) String() string {
	if t == nil {
		return "Any"
	}
	switch t.Kind {
	case TypeList, TypeDict:
		if len(t.TypeArgs) == 0 {
			return t.Name
		}
		args := make([]string, len(t.TypeArgs))
		for i, arg := range t.TypeArgs {
			args[i] = arg.String()
		}
		return fmt.Sprintf("%s[%s]", t.Name, strings.Join(args, ", "))
	case TypeUnion:
		names := make([]string, len(t.Union))
		for i, m := range t.Union {
			names[i] = m.String()
		}
		return strings.Join(names, " | ")
	default:
		return t.Name
	}
}

func (t *TypeExpr) elemType() *TypeExpr {
	if len(t.TypeArgs) == 0 {
		return nil
	}
	return t.TypeArgs[len(t.TypeArgs)-1]
}
