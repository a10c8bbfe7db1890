package kwbind

import "os"

// EnvProvider gives the resolver access to environment variables.
type EnvProvider interface {
	LookupEnv(name string) (string, bool)
}

// OSEnvironment reads the process environment.
type OSEnvironment struct{}

func (OSEnvironment) LookupEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}

// MapEnvironment is a fixed environment, mostly useful in tests and for
// hosts that sandbox the process environment.
type MapEnvironment map[string]string

func (m MapEnvironment) LookupEnv(name string) (string, bool) {
	val, ok := m[name]
	return val, ok
}

// Resolver resolves references against a scope chain and an environment.
type Resolver struct {
	Scope *Scope
	Env   EnvProvider
}

func NewResolver(scope *Scope, env EnvProvider) *Resolver {
	if env == nil {
		env = OSEnvironment{}
	}
	if scope == nil {
		scope = NewScope(nil)
	}
	return &Resolver{Scope: scope, Env: env}
}

// Resolve looks up ref. List references must hold a sequence and dictionary
// references a mapping; indexing into the result is left to the caller.
func (r *Resolver) Resolve(ref Reference) (Value, error) {
	if ref.Kind == RefEnv {
		if val, ok := r.Env.LookupEnv(ref.Name); ok {
			return NewString(val), nil
		}
		if ref.Default != nil {
			return NewString(*ref.Default), nil
		}
		return Value{}, &ResolutionError{Kind: UndefinedEnvironmentVariable, Name: ref.Name, Reference: ref.String()}
	}

	val, ok := r.Scope.Get(ref.Name)
	if !ok {
		return Value{}, &ResolutionError{
			Kind:       UndefinedVariable,
			Name:       ref.Name,
			Reference:  ref.String(),
			Suggestion: r.suggest(ref),
		}
	}
	switch ref.Kind {
	case RefList:
		if val.Kind() != KindSequence {
			return Value{}, &ResolutionError{Kind: WrongReferenceType, Name: ref.Name, Reference: ref.String(), Actual: val.TypeName()}
		}
	case RefDict:
		if val.Kind() != KindMapping {
			return Value{}, &ResolutionError{Kind: WrongReferenceType, Name: ref.Name, Reference: ref.String(), Actual: val.TypeName()}
		}
	}
	return val, nil
}

func (r *Resolver) suggest(ref Reference) string {
	best := nearestName(ref.Name, r.Scope.Names())
	if best == "" {
		return ""
	}
	return Reference{Kind: ref.Kind, Name: best}.String()
}
