package kwbind

import (
	"errors"
	"fmt"
)

// ErrNotConvertible is returned by OpaqueType.Convert when the value simply
// has the wrong type. It is reported as a type mismatch instead of a
// converter failure.
var ErrNotConvertible = errors.New("value is not convertible")

// OpaqueType is the capability a host registers for a custom value type
// that has no structural decomposition.
type OpaqueType interface {
	TypeName() string
	// IsInstance reports whether v already holds an instance of the type.
	IsInstance(v Value) bool
	// Convert turns a value that is not an instance into one.
	Convert(v Value) (Value, error)
	// Construct rebuilds an instance from a joined string that contained at
	// least one existing instance.
	Construct(s string) (Value, error)
	// Render is the string an instance contributes to such a join.
	Render(v Value) string
}

// OpaqueFuncs adapts plain functions to OpaqueType. A nil ConvertFn rejects
// every non-instance; a nil ConstructFn falls back to ConvertFn; a nil
// RenderFn uses Render.
type OpaqueFuncs struct {
	Name        string
	IsFn        func(v Value) bool
	ConvertFn   func(v Value) (Value, error)
	ConstructFn func(s string) (Value, error)
	RenderFn    func(v Value) string
}

func (o *OpaqueFuncs) TypeName() string { return o.Name }

func (o *OpaqueFuncs) IsInstance(v Value) bool {
	if o.IsFn == nil {
		return false
	}
	return o.IsFn(v)
}

func (o *OpaqueFuncs) Convert(v Value) (Value, error) {
	if o.ConvertFn == nil {
		return Value{}, ErrNotConvertible
	}
	return o.ConvertFn(v)
}

func (o *OpaqueFuncs) Construct(s string) (Value, error) {
	if o.ConstructFn != nil {
		return o.ConstructFn(s)
	}
	return o.Convert(NewString(s))
}

func (o *OpaqueFuncs) Render(v Value) string {
	if o.RenderFn != nil {
		return o.RenderFn(v)
	}
	return Render(v)
}

// IsInstanceOf is an IsFn helper matching opaque values whose payload has
// the same dynamic Go type as sample.
func IsInstanceOf(sample any) func(v Value) bool {
	want := fmt.Sprintf("%T", sample)
	return func(v Value) bool {
		return v.Kind() == KindOpaque && fmt.Sprintf("%T", v.Opaque()) == want
	}
}

// callOpaque runs a host callback, turning a panic into an error so that
// converter bugs surface as conversion failures.
func callOpaque(fn func() (Value, error)) (val Value, err error) {
	defer recoverOpaque(&err)
	return fn()
}

// isInstance calls ot.IsInstance, reporting a panic as an error.
func isInstance(ot OpaqueType, v Value) (ok bool, err error) {
	defer recoverOpaque(&err)
	return ot.IsInstance(v), nil
}

// renderInstance calls ot.Render, reporting a panic as an error.
func renderInstance(ot OpaqueType, v Value) (s string, err error) {
	defer recoverOpaque(&err)
	return ot.Render(v), nil
}

func recoverOpaque(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("converter panicked: %v", r)
	}
}
