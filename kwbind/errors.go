package kwbind

import (
	"errors"
	"fmt"
	"strings"
)

type ResolutionErrorKind int

const (
	UndefinedVariable ResolutionErrorKind = iota
	UndefinedEnvironmentVariable
	MalformedReference
	WrongReferenceType
)

func (k ResolutionErrorKind) String() string {
	switch k {
	case UndefinedVariable:
		return "UndefinedVariable"
	case UndefinedEnvironmentVariable:
		return "UndefinedEnvironmentVariable"
	case MalformedReference:
		return "MalformedReference"
	case WrongReferenceType:
		return "WrongReferenceType"
	default:
		return fmt.Sprintf("ResolutionErrorKind(%d)", int(k))
	}
}

// ResolutionError reports a reference that could not be resolved to a value.
type ResolutionError struct {
	Kind      ResolutionErrorKind
	Name      string
	Reference string
	// Suggestion is the closest visible name for an undefined variable.
	Suggestion string
	// Actual is the runtime type found for a WrongReferenceType failure.
	Actual string
}

func (e *ResolutionError) Error() string {
	switch e.Kind {
	case UndefinedVariable:
		if e.Suggestion != "" {
			return fmt.Sprintf("Variable '%s' not found. Did you mean '%s'?", e.Reference, e.Suggestion)
		}
		return fmt.Sprintf("Variable '%s' not found.", e.Reference)
	case UndefinedEnvironmentVariable:
		return fmt.Sprintf("Environment variable '%s' not found.", e.Reference)
	case MalformedReference:
		return fmt.Sprintf("Variable '%s' was not closed properly.", e.Reference)
	case WrongReferenceType:
		want := "list"
		if strings.HasPrefix(e.Reference, "&") {
			want = "dictionary"
		}
		return fmt.Sprintf("Value of variable '%s' is not %s or %s-like, got %s.", e.Reference, want, want, e.Actual)
	default:
		return fmt.Sprintf("cannot resolve '%s'", e.Reference)
	}
}

type ConversionErrorKind int

const (
	TypeMismatch ConversionErrorKind = iota
	NotAnEnumMember
	MissingField
	UnknownField
	NoUnionMemberMatched
	CustomConverterFailed
	NoImplicitStringConversion
)

func (k ConversionErrorKind) String() string {
	switch k {
	case TypeMismatch:
		return "TypeMismatch"
	case NotAnEnumMember:
		return "NotAnEnumMember"
	case MissingField:
		return "MissingField"
	case UnknownField:
		return "UnknownField"
	case NoUnionMemberMatched:
		return "NoUnionMemberMatched"
	case CustomConverterFailed:
		return "CustomConverterFailed"
	case NoImplicitStringConversion:
		return "NoImplicitStringConversion"
	default:
		return fmt.Sprintf("ConversionErrorKind(%d)", int(k))
	}
}

// ConversionError reports a value that could not be converted to a target
// type. Types holds one name per constituent when the value came from a
// multi-segment join. Path locates the failing item inside a container.
type ConversionError struct {
	Kind      ConversionErrorKind
	Value     string
	Types     []string
	Target    string
	Path      []string
	Detail    string
	Attempted []string
	Err       error

	// mustHave selects the "must have type" wording used for targets that
	// only accept their own instances.
	mustHave bool
}

func (e *ConversionError) Error() string {
	return e.Describe("")
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Describe renders the error with subject naming the failing entity, for
// example "Argument 'port'". An empty subject describes the bare value.
func (e *ConversionError) Describe(subject string) string {
	if len(e.Path) > 0 {
		item := fmt.Sprintf("item '%s'", strings.Join(e.Path, "."))
		if subject == "" {
			subject = "I" + item[1:]
		} else {
			subject += " " + item
		}
	}
	types := joinTypeNames(e.Types)

	var b strings.Builder
	if e.mustHave || e.Kind == NoImplicitStringConversion {
		if subject == "" {
			subject = fmt.Sprintf("Value '%s'", e.Value)
		}
		fmt.Fprintf(&b, "%s must have type '%s', got %s", subject, e.Target, types)
	} else if subject == "" {
		fmt.Fprintf(&b, "Value '%s' (%s) cannot be converted to %s", e.Value, types, e.Target)
	} else {
		fmt.Fprintf(&b, "%s got value '%s' (%s) that cannot be converted to %s", subject, e.Value, types, e.Target)
	}
	if detail := strings.TrimSuffix(e.Detail, "."); detail != "" {
		b.WriteString(": ")
		b.WriteString(detail)
	}
	b.WriteByte('.')
	return b.String()
}

// withPath returns a copy of e located under key.
func (e *ConversionError) withPath(key string) *ConversionError {
	clone := *e
	clone.Path = append([]string{key}, e.Path...)
	return &clone
}

func joinTypeNames(names []string) string {
	switch len(names) {
	case 0:
		return "unknown"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

func joinAlternatives(names []string) string {
	switch len(names) {
	case 0:
		return "nothing"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
	}
}

type BindingErrorKind int

const (
	TooManyPositionalArguments BindingErrorKind = iota
	UnexpectedNamedArgument
	MissingRequiredArgument
	DuplicateArgument
	PositionalAfterNamed
)

func (k BindingErrorKind) String() string {
	switch k {
	case TooManyPositionalArguments:
		return "TooManyPositionalArguments"
	case UnexpectedNamedArgument:
		return "UnexpectedNamedArgument"
	case MissingRequiredArgument:
		return "MissingRequiredArgument"
	case DuplicateArgument:
		return "DuplicateArgument"
	case PositionalAfterNamed:
		return "PositionalAfterNamed"
	default:
		return fmt.Sprintf("BindingErrorKind(%d)", int(k))
	}
}

// BindingError reports a structural mismatch between a call site and a
// signature. It never involves type conversion.
type BindingError struct {
	Kind    BindingErrorKind
	Keyword string
	Name    string
	Min     int
	Max     int // -1 means unbounded
	Given   int
}

func (e *BindingError) Error() string {
	who := "Keyword"
	if e.Keyword != "" {
		who = fmt.Sprintf("Keyword '%s'", e.Keyword)
	}
	switch e.Kind {
	case TooManyPositionalArguments:
		return fmt.Sprintf("%s expected %s, got %d.", who, formatArgCount(e.Min, e.Max), e.Given)
	case UnexpectedNamedArgument:
		return fmt.Sprintf("%s got unexpected named argument '%s'.", who, e.Name)
	case MissingRequiredArgument:
		return fmt.Sprintf("%s missing value for argument '%s'.", who, e.Name)
	case DuplicateArgument:
		return fmt.Sprintf("%s got multiple values for argument '%s'.", who, e.Name)
	case PositionalAfterNamed:
		return fmt.Sprintf("%s got positional argument after named arguments.", who)
	default:
		return fmt.Sprintf("%s binding failed.", who)
	}
}

func formatArgCount(min, max int) string {
	plural := func(n int) string {
		if n == 1 {
			return "1 argument"
		}
		return fmt.Sprintf("%d arguments", n)
	}
	switch {
	case max < 0:
		return "at least " + plural(min)
	case min == max:
		return plural(min)
	default:
		return fmt.Sprintf("%d to %s", min, plural(max))
	}
}

// CallError is the structured failure handed back to the execution
// collaborator when a call or variable assignment cannot be bound.
type CallError struct {
	Keyword string
	// Entity names what failed, for example "Argument 'port'" or
	// "Variable '${x}'". It is empty for structural binding failures.
	Entity string
	// Value is the attempted literal value, when one is known.
	Value string
	Err   error
}

func (e *CallError) Error() string {
	var conv *ConversionError
	if e.Entity != "" && errors.As(e.Err, &conv) {
		return conv.Describe(e.Entity)
	}
	return e.Err.Error()
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Kind names the underlying error kind, such as "MissingRequiredArgument".
func (e *CallError) Kind() string {
	return errorKind(e.Err)
}

// ReturnValueError reports a keyword that executed but returned a value
// violating its declared return type.
type ReturnValueError struct {
	Keyword string
	Err     *ConversionError
}

func (e *ReturnValueError) Error() string {
	return e.Err.Describe(fmt.Sprintf("Return value of keyword '%s'", e.Keyword))
}

func (e *ReturnValueError) Unwrap() error {
	return e.Err
}

func errorKind(err error) string {
	var (
		res  *ResolutionError
		conv *ConversionError
		bind *BindingError
		ret  *ReturnValueError
	)
	switch {
	case errors.As(err, &ret):
		return "ReturnValue" + ret.Err.Kind.String()
	case errors.As(err, &res):
		return res.Kind.String()
	case errors.As(err, &conv):
		return conv.Kind.String()
	case errors.As(err, &bind):
		return bind.Kind.String()
	default:
		return "Error"
	}
}
