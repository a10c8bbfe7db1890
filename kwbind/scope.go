package kwbind

import (
	"sort"
	"strings"
)

// Scope is one level of the variable scope chain. Lookups search the
// innermost scope first and continue through parents.
type Scope struct {
	parent *Scope
	values map[string]scopeEntry
}

type scopeEntry struct {
	name  string
	value Value
}

// NewScope returns a scope nested inside parent, which may be nil.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, values: make(map[string]scopeEntry)}
}

// Child returns a new scope whose parent is s.
func (s *Scope) Child() *Scope {
	return NewScope(s)
}

// NormalizeName folds a variable or keyword name so that case, spaces and
// underscores are not significant.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r == ' ' || r == '_' || r == '\t' {
			continue
		}
		b.WriteString(strings.ToLower(string(r)))
	}
	return b.String()
}

func (s *Scope) Get(name string) (Value, bool) {
	key := NormalizeName(name)
	for scope := s; scope != nil; scope = scope.parent {
		if entry, ok := scope.values[key]; ok {
			return entry.value, true
		}
	}
	return Value{}, false
}

// Define stores a variable in this scope, shadowing any outer definition.
func (s *Scope) Define(name string, val Value) {
	s.values[NormalizeName(name)] = scopeEntry{name: name, value: val}
}

// Assign replaces the innermost existing definition of name, or defines it
// in this scope when no scope holds it yet.
func (s *Scope) Assign(name string, val Value) {
	key := NormalizeName(name)
	for scope := s; scope != nil; scope = scope.parent {
		if entry, ok := scope.values[key]; ok {
			scope.values[key] = scopeEntry{name: entry.name, value: val}
			return
		}
	}
	s.values[key] = scopeEntry{name: name, value: val}
}

func (s *Scope) Delete(name string) {
	delete(s.values, NormalizeName(name))
}

// Names returns the visible variable names as they were first defined,
// sorted. Shadowed names are reported once.
func (s *Scope) Names() []string {
	seen := make(map[string]struct{})
	var names []string
	for scope := s; scope != nil; scope = scope.parent {
		for key, entry := range scope.values {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			names = append(names, entry.name)
		}
	}
	sort.Strings(names)
	return names
}
