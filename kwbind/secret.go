package kwbind

// Secret wraps a sensitive string. It renders masked everywhere except when
// joined into a template that rebuilds another Secret.
type Secret struct {
	value string
}

func NewSecret(value string) Value {
	return NewOpaque(&Secret{value: value})
}

func (s *Secret) Reveal() string   { return s.value }
func (s *Secret) String() string   { return "<secret>" }
func (s *Secret) TypeName() string { return "Secret" }

// SecretType is the OpaqueType for Secret. Plain strings are rejected so a
// secret can only come from another secret or a secret-producing keyword.
type SecretType struct{}

func (SecretType) TypeName() string { return "Secret" }

func (SecretType) IsInstance(v Value) bool {
	_, ok := v.Opaque().(*Secret)
	return ok
}

func (SecretType) Convert(v Value) (Value, error) {
	return Value{}, ErrNotConvertible
}

func (SecretType) Construct(s string) (Value, error) {
	return NewSecret(s), nil
}

func (SecretType) Render(v Value) string {
	if s, ok := v.Opaque().(*Secret); ok {
		return s.value
	}
	return Render(v)
}
