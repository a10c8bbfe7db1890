package kwbind

import (
	"errors"
	"testing"
)

func textArgs(items ...string) []Argument {
	out := make([]Argument, len(items))
	for i, item := range items {
		out[i] = TemplateArg(Literal(item))
	}
	return out
}

func namedArg(name, text string) NamedArgument {
	return NamedArgument{Name: name, Argument: TemplateArg(Literal(text))}
}

func bindingError(t *testing.T, err error) *BindingError {
	t.Helper()
	var berr *BindingError
	if !errors.As(err, &berr) {
		t.Fatalf("expected BindingError, got %T: %v", err, err)
	}
	return berr
}

func TestMatchRequiresNamedOnlyArgument(t *testing.T) {
	sig := mustSignature(t, NewRegistry(), "a", "b=2", "*c", "d=4", "e", "**f")

	_, err := Match(sig, "Kw", textArgs("1", "2", "3"), nil)
	berr := bindingError(t, err)
	if berr.Kind != MissingRequiredArgument || berr.Name != "e" {
		t.Fatalf("error = %v (%s)", err, berr.Kind)
	}
	if want := "Keyword 'Kw' missing value for argument 'e'."; err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestMatchRoutesUnknownNamedToVarNamed(t *testing.T) {
	sig := mustSignature(t, NewRegistry(), "a", "b=2", "*c", "d=4", "e", "**f")

	binding, err := Match(sig, "Kw", textArgs("1", "2", "3", "4"), []NamedArgument{namedArg("e", "5"), namedArg("g", "1")})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(binding.VarPositional) != 2 || binding.VarPositional[0].Text() != "3" {
		t.Fatalf("var-positional = %v", binding.VarPositional)
	}
	if len(binding.VarNamed) != 1 || binding.VarNamed[0].Name != "g" {
		t.Fatalf("var-named = %v", binding.VarNamed)
	}
	d, ok := binding.Lookup("d")
	if !ok || !d.Defaulted || d.Arg.Value.Int() != 4 {
		t.Fatalf("d = %+v", d)
	}
	if e, ok := binding.Lookup("e"); !ok || e.Arg.Text() != "5" {
		t.Fatalf("e = %+v", e)
	}
}

func TestMatchStructuralErrors(t *testing.T) {
	reg := NewRegistry()
	pair := mustSignature(t, reg, "a", "b")
	optional := mustSignature(t, reg, "a", "b=1")

	tests := []struct {
		name       string
		sig        *Signature
		positional []Argument
		named      []NamedArgument
		kind       BindingErrorKind
		message    string
	}{
		{
			name:       "too many",
			sig:        pair,
			positional: textArgs("1", "2", "3"),
			kind:       TooManyPositionalArguments,
			message:    "Keyword 'Kw' expected 2 arguments, got 3.",
		},
		{
			name:       "too many with optional",
			sig:        optional,
			positional: textArgs("1", "2", "3"),
			kind:       TooManyPositionalArguments,
			message:    "Keyword 'Kw' expected 1 to 2 arguments, got 3.",
		},
		{
			name:       "unexpected named",
			sig:        pair,
			positional: textArgs("1", "2"),
			named:      []NamedArgument{namedArg("c", "3")},
			kind:       UnexpectedNamedArgument,
			message:    "Keyword 'Kw' got unexpected named argument 'c'.",
		},
		{
			name:       "duplicate via positional",
			sig:        pair,
			positional: textArgs("1", "2"),
			named:      []NamedArgument{namedArg("a", "3")},
			kind:       DuplicateArgument,
			message:    "Keyword 'Kw' got multiple values for argument 'a'.",
		},
		{
			name:    "duplicate named",
			sig:     pair,
			named:   []NamedArgument{namedArg("a", "1"), namedArg("a", "2")},
			kind:    DuplicateArgument,
			message: "Keyword 'Kw' got multiple values for argument 'a'.",
		},
		{
			name:       "missing",
			sig:        pair,
			positional: textArgs("1"),
			kind:       MissingRequiredArgument,
			message:    "Keyword 'Kw' missing value for argument 'b'.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Match(tt.sig, "Kw", tt.positional, tt.named)
			berr := bindingError(t, err)
			if berr.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s", berr.Kind, tt.kind)
			}
			if err.Error() != tt.message {
				t.Fatalf("message = %q, want %q", err.Error(), tt.message)
			}
		})
	}
}

func TestMatchPositionalOnlyCannotBeNamed(t *testing.T) {
	sig := mustSignature(t, NewRegistry(), "a", "/", "**rest")
	binding, err := Match(sig, "Kw", textArgs("1"), []NamedArgument{namedArg("a", "2")})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(binding.VarNamed) != 1 || binding.VarNamed[0].Name != "a" {
		t.Fatalf("named a should go to **rest, got %v", binding.VarNamed)
	}
}

func TestMatchOmitsOptionalWithoutDefault(t *testing.T) {
	sig, err := NewSignature(Param{Name: "a", Required: true}, Param{Name: "b"})
	if err != nil {
		t.Fatalf("NewSignature: %v", err)
	}
	binding, err := Match(sig, "Kw", textArgs("1"), nil)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if _, ok := binding.Lookup("b"); ok {
		t.Fatalf("b should be absent")
	}
}
