package kwbind

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const defaultRecursionLimit = 64

// Registry maps type names to descriptors and converts values to them.
// Built-in types are installed by NewRegistry; user types are registered as
// libraries load. Lookups and conversions may run concurrently with each
// other; registration takes a write lock.
type Registry struct {
	mu             sync.RWMutex
	types          map[string]*TypeExpr
	builtin        map[string]struct{}
	recursionLimit int
}

// NewRegistry returns a registry holding the built-in primitive, container
// and Secret types.
func NewRegistry() *Registry {
	r := &Registry{
		types:          make(map[string]*TypeExpr),
		builtin:        make(map[string]struct{}),
		recursionLimit: defaultRecursionLimit,
	}
	builtins := map[*TypeExpr][]string{
		AnyType:                {"any", "object"},
		StringType:             {"string", "str", "text"},
		IntType:                {"integer", "int", "long"},
		FloatType:              {"float", "double", "number"},
		BoolType:               {"boolean", "bool"},
		NoneType:               {"none", "nonetype", "null"},
		ListOf(nil):            {"list", "sequence", "array"},
		DictOf(nil, nil):       {"dict", "dictionary", "mapping", "map"},
		OpaqueOf(SecretType{}): {"secret"},
	}
	for ty, names := range builtins {
		for _, name := range names {
			r.types[name] = ty
			r.builtin[name] = struct{}{}
		}
	}
	return r
}

// SetRecursionLimit bounds how deeply nested containers are converted.
func (r *Registry) SetRecursionLimit(limit int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = defaultRecursionLimit
	}
	r.recursionLimit = limit
}

// Register installs an enum, struct or opaque type under its name, and
// under extra aliases. Built-in names cannot be replaced; re-registering a
// user type replaces it.
func (r *Registry) Register(ty *TypeExpr, aliases ...string) error {
	if ty == nil {
		return fmt.Errorf("register: nil type")
	}
	switch ty.Kind {
	case TypeEnum, TypeStruct, TypeOpaque:
	default:
		return fmt.Errorf("register %s: only enum, struct and opaque types can be registered", ty.Name)
	}
	names := append([]string{ty.Name}, aliases...)
	if ty.Module != "" {
		names = append(names, ty.Module+"."+ty.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		key := strings.ToLower(name)
		if _, ok := r.builtin[key]; ok {
			return fmt.Errorf("register %s: %s is a built-in type", ty.Name, name)
		}
	}
	for _, name := range names {
		r.types[strings.ToLower(name)] = ty
	}
	return nil
}

// RegisterOpaque wraps ot in a descriptor and registers it.
func (r *Registry) RegisterOpaque(ot OpaqueType, aliases ...string) (*TypeExpr, error) {
	ty := OpaqueOf(ot)
	if err := r.Register(ty, aliases...); err != nil {
		return nil, err
	}
	return ty, nil
}

// Lookup finds a type by name, ignoring case.
func (r *Registry) Lookup(name string) (*TypeExpr, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ty, ok := r.types[strings.ToLower(strings.TrimSpace(name))]
	return ty, ok
}

// Names lists every registered name, built-in aliases included.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) limit() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recursionLimit
}
