package kwbind

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Convert converts v to ty. A nil ty or Any passes v through unchanged.
// Converting a value that already has the target type returns it as is, so
// converting a result again against the same type is a no-op.
func (r *Registry) Convert(v Value, ty *TypeExpr) (Value, error) {
	c := converter{limit: r.limit()}
	val, err := c.convert(v, ty, 0)
	if err != nil {
		return Value{}, err
	}
	return val, nil
}

type converter struct {
	limit int
}

func (c *converter) convert(v Value, ty *TypeExpr, depth int) (Value, *ConversionError) {
	if ty == nil || ty.Kind == TypeAny {
		return v, nil
	}
	if depth > c.limit {
		err := mismatch(v, ty)
		err.Detail = fmt.Sprintf("nesting exceeds %d levels", c.limit)
		return Value{}, err
	}
	switch ty.Kind {
	case TypeString:
		return convertString(v, ty)
	case TypeInt:
		return convertInt(v, ty)
	case TypeFloat:
		return convertFloat(v, ty)
	case TypeBool:
		return convertBool(v, ty)
	case TypeNone:
		return convertNone(v, ty)
	case TypeList:
		return c.convertList(v, ty, depth)
	case TypeDict:
		return c.convertDict(v, ty, depth)
	case TypeStruct:
		return c.convertStruct(v, ty, depth)
	case TypeEnum:
		return convertEnum(v, ty)
	case TypeUnion:
		return c.convertUnion(v, ty, depth)
	case TypeOpaque:
		return convertOpaque(v, ty)
	default:
		err := mismatch(v, ty)
		err.Detail = fmt.Sprintf("unknown type kind %d", int(ty.Kind))
		return Value{}, err
	}
}

func mismatch(v Value, ty *TypeExpr) *ConversionError {
	return &ConversionError{
		Kind:   TypeMismatch,
		Value:  Render(v),
		Types:  []string{v.TypeName()},
		Target: ty.QualifiedName(),
	}
}

func convertString(v Value, ty *TypeExpr) (Value, *ConversionError) {
	switch v.Kind() {
	case KindString:
		return v, nil
	case KindOpaque:
		// Opaque values are not silently degraded to their display text.
		return Value{}, mismatch(v, ty)
	default:
		return NewString(Render(v)), nil
	}
}

func convertInt(v Value, ty *TypeExpr) (Value, *ConversionError) {
	switch v.Kind() {
	case KindInt:
		return v, nil
	case KindFloat:
		if i, ok := integralFloat(v.Float()); ok {
			return NewInt(i), nil
		}
	case KindString:
		s := strings.TrimSpace(v.Str())
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return NewInt(i), nil
		}
		if f, err := parseFloatText(s); err == nil {
			if i, ok := integralFloat(f); ok {
				return NewInt(i), nil
			}
		}
	}
	return Value{}, mismatch(v, ty)
}

func integralFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func parseFloatText(s string) (float64, error) {
	if strings.Contains(s, "_") {
		s = strings.ReplaceAll(s, "_", "")
	}
	return strconv.ParseFloat(s, 64)
}

func convertFloat(v Value, ty *TypeExpr) (Value, *ConversionError) {
	switch v.Kind() {
	case KindFloat:
		return v, nil
	case KindInt:
		return NewFloat(float64(v.Int())), nil
	case KindString:
		if f, err := parseFloatText(strings.TrimSpace(v.Str())); err == nil {
			return NewFloat(f), nil
		}
	}
	return Value{}, mismatch(v, ty)
}

var (
	truthyStrings = map[string]bool{"TRUE": true, "YES": true, "ON": true, "1": true}
	falsyStrings  = map[string]bool{"FALSE": true, "NO": true, "OFF": true, "0": true, "NONE": true, "": true}
)

func convertBool(v Value, ty *TypeExpr) (Value, *ConversionError) {
	switch v.Kind() {
	case KindBool:
		return v, nil
	case KindInt:
		return NewBool(v.Int() != 0), nil
	case KindFloat:
		return NewBool(v.Float() != 0), nil
	case KindString:
		s := strings.ToUpper(strings.TrimSpace(v.Str()))
		if truthyStrings[s] {
			return NewBool(true), nil
		}
		if falsyStrings[s] {
			return NewBool(false), nil
		}
	}
	return Value{}, mismatch(v, ty)
}

func convertNone(v Value, ty *TypeExpr) (Value, *ConversionError) {
	switch v.Kind() {
	case KindNone:
		return v, nil
	case KindString:
		if strings.EqualFold(strings.TrimSpace(v.Str()), "none") {
			return NewNone(), nil
		}
	}
	return Value{}, mismatch(v, ty)
}

func convertEnum(v Value, ty *TypeExpr) (Value, *ConversionError) {
	members := ty.enumMembers()
	if ev, ok := v.Opaque().(*EnumValue); ok {
		for _, member := range members {
			if member == ev || (ev.Enum == ty.Name && ev.Name == member.Name) {
				return v, nil
			}
		}
	}
	for _, member := range members {
		if member.Literal.Equal(v) || (v.Kind() == KindString && member.Literal.Kind() != KindString && Render(member.Literal) == v.Str()) {
			return NewOpaque(member), nil
		}
	}
	if v.Kind() == KindString {
		for _, member := range members {
			if member.Name == v.Str() {
				return NewOpaque(member), nil
			}
		}
	}
	names := make([]string, len(ty.Members))
	for i, m := range ty.Members {
		names[i] = "'" + m.Name + "'"
	}
	err := mismatch(v, ty)
	err.Kind = NotAnEnumMember
	err.Detail = fmt.Sprintf("%s does not have member '%s'. Available: %s", ty.Name, Render(v), joinTypeNames(names))
	return Value{}, err
}

func (c *converter) convertUnion(v Value, ty *TypeExpr, depth int) (Value, *ConversionError) {
	attempted := make([]string, 0, len(ty.Union))
	for _, option := range ty.Union {
		val, err := c.convert(v, option, depth+1)
		if err == nil {
			return val, nil
		}
		attempted = append(attempted, option.QualifiedName())
	}
	err := mismatch(v, ty)
	err.Kind = NoUnionMemberMatched
	err.Target = joinAlternatives(attempted)
	err.Attempted = attempted
	return Value{}, err
}

// checkInstance verifies that a host callback named by role produced an
// instance of ot.
func checkInstance(ot OpaqueType, val Value, role string) error {
	ok, err := isInstance(ot, val)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s returned %s instead of %s", role, val.TypeName(), ot.TypeName())
	}
	return nil
}

func convertOpaque(v Value, ty *TypeExpr) (Value, *ConversionError) {
	ot := ty.Opaque
	already, callErr := isInstance(ot, v)
	if already {
		return v, nil
	}
	var val Value
	if callErr == nil {
		val, callErr = callOpaque(func() (Value, error) { return ot.Convert(v) })
		if errors.Is(callErr, ErrNotConvertible) {
			err := mismatch(v, ty)
			err.mustHave = true
			return Value{}, err
		}
	}
	if callErr == nil {
		callErr = checkInstance(ot, val, "converter")
	}
	if callErr != nil {
		err := mismatch(v, ty)
		err.Kind = CustomConverterFailed
		err.Detail = callErr.Error()
		err.Err = callErr
		return Value{}, err
	}
	return val, nil
}
