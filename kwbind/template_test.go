package kwbind

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTemplateSegments(t *testing.T) {
	home := "/tmp"
	tests := []struct {
		src  string
		want Template
	}{
		{"plain", Template{Lit("plain")}},
		{"Hello ${name}!", Template{Lit("Hello "), Ref(RefScalar, "name"), Lit("!")}},
		{"@{items}", Template{Ref(RefList, "items")}},
		{"&{opts}", Template{Ref(RefDict, "opts")}},
		{"%{HOME=/tmp}/x", Template{EnvRef("HOME", &home), Lit("/x")}},
		{"%{USER}", Template{EnvRef("USER", nil)}},
		{`\${x} costs $5`, Template{Lit("${x} costs $5")}},
		{`a\=b`, Template{Lit("a=b")}},
		{"${a}${b}", Template{Ref(RefScalar, "a"), Ref(RefScalar, "b")}},
	}
	for _, tt := range tests {
		got, err := ParseTemplate(tt.src)
		if err != nil {
			t.Fatalf("ParseTemplate(%q): %v", tt.src, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("ParseTemplate(%q) mismatch (-want +got):\n%s", tt.src, diff)
		}
	}
}

func TestParseTemplateEmptyIsEmptyString(t *testing.T) {
	got, err := ParseTemplate("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no segments, got %v", got)
	}
}

func TestParseTemplateRejectsMalformedReferences(t *testing.T) {
	for _, src := range []string{"${x", "value ${", "${}", "@{ }"} {
		_, err := ParseTemplate(src)
		var res *ResolutionError
		if !errors.As(err, &res) || res.Kind != MalformedReference {
			t.Fatalf("ParseTemplate(%q) error = %v, want MalformedReference", src, err)
		}
	}
	_, err := ParseTemplate("${x")
	if got, want := err.Error(), "Variable '${x' was not closed properly."; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
}

func TestTemplateStringEscapesLiteralSigils(t *testing.T) {
	src := `pay \${amount} to ${name}`
	tmpl, err := ParseTemplate(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tmpl.String(); got != src {
		t.Fatalf("String = %q, want %q", got, src)
	}
	again, err := ParseTemplate(tmpl.String())
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if diff := cmp.Diff(tmpl, again); diff != "" {
		t.Fatalf("reparse mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplateExact(t *testing.T) {
	tmpl, _ := ParseTemplate("${only}")
	ref, ok := tmpl.Exact()
	if !ok || ref.Name != "only" {
		t.Fatalf("expected exact reference, got %v %v", ref, ok)
	}
	tmpl, _ = ParseTemplate("x${only}")
	if _, ok := tmpl.Exact(); ok {
		t.Fatalf("template with literal text should not be exact")
	}
}
