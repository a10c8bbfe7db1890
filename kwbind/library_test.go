package kwbind

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const accountsLibrary = `
library: Accounts
enums:
  - name: Role
    members:
      - admin
      - name: guest
        value: 0
structs:
  - name: Credentials
    closed: true
    fields:
      - key: username
        type: str
      - key: password
        type: Secret
      - key: role
        type: Role
        required: false
keywords:
  - name: Create User
    args: ["creds: Credentials", "quota: int = 10", "*groups: str", "**attrs"]
    returns: bool
    doc: Creates a user account.
  - name: Delete User
    args: ["${name}", "${force: bool}=False"]
`

func TestParseLibrary(t *testing.T) {
	lib, err := ParseLibrary([]byte(accountsLibrary))
	if err != nil {
		t.Fatalf("ParseLibrary: %v", err)
	}
	if lib.Name != "Accounts" || len(lib.Enums) != 1 || len(lib.Structs) != 1 || len(lib.Keywords) != 2 {
		t.Fatalf("library = %+v", lib)
	}
	role := lib.Enums[0]
	if role.Members[0].Literal.Str() != "admin" || role.Members[1].Literal.Int() != 0 {
		t.Fatalf("role members = %+v", role.Members)
	}
	fields := lib.Structs[0].Fields
	if !fields[0].Required || fields[2].Required {
		t.Fatalf("fields = %+v", fields)
	}
}

func TestParseLibraryRejectsUnknownFields(t *testing.T) {
	_, err := ParseLibrary([]byte("library: X\nkeywrds: []\n"))
	if err == nil || !strings.Contains(err.Error(), "keywrds") {
		t.Fatalf("error = %v", err)
	}
}

func TestInstallLibrary(t *testing.T) {
	engine := MustNewEngine(Config{Environment: MapEnvironment{}})
	lib, err := ParseLibrary([]byte(accountsLibrary))
	if err != nil {
		t.Fatalf("ParseLibrary: %v", err)
	}
	if err := engine.InstallLibrary(lib); err != nil {
		t.Fatalf("InstallLibrary: %v", err)
	}

	if _, ok := engine.Registry().Lookup("Accounts.Credentials"); !ok {
		t.Fatalf("qualified type name should be registered")
	}
	kw, ok := engine.Keyword("create_user")
	if !ok {
		t.Fatalf("keyword not found")
	}
	if kw.Library != "Accounts" || kw.Doc != "Creates a user account." || kw.ReturnType.Kind != TypeBool {
		t.Fatalf("keyword = %+v", kw)
	}
	if got, want := kw.Signature.String(), "(creds: Credentials, quota: integer = 10, *groups: string, **attrs)"; got != want {
		t.Fatalf("signature = %q, want %q", got, want)
	}

	var created *BoundCall
	if err := engine.Implement("Create User", func(_ context.Context, call *BoundCall) (Value, error) {
		created = call
		return NewString("yes"), nil
	}); err != nil {
		t.Fatalf("Implement: %v", err)
	}
	scope := NewScope(nil)
	scope.Define("creds", NewMapping(NewOrderedMapping(
		[]string{"username", "password", "role"},
		[]Value{NewString("ann"), NewSecret("pw"), NewString("0")},
	)))
	got, err := engine.CallRaw(context.Background(), scope, "Create User", []string{"${creds}", "5", "ops", "team=core"})
	if err != nil {
		t.Fatalf("CallRaw: %v", err)
	}
	if got.Kind() != KindBool || !got.Bool() {
		t.Fatalf("result = %v", got)
	}
	creds, _ := created.Get("creds")
	role, _ := creds.Mapping().Get("role")
	if Render(role) != "guest" || role.TypeName() != "Role" {
		t.Fatalf("role = %v (%s)", role, role.TypeName())
	}

	_, err = engine.BindRaw(scope, "Delete User", []string{"ann", "force=yes"})
	if err != nil {
		t.Fatalf("BindRaw: %v", err)
	}
}

func TestInstallLibraryReportsBadDeclarations(t *testing.T) {
	engine := MustNewEngine(Config{})
	lib := &Library{Name: "Broken", Keywords: []KeywordDecl{{Name: "Bad", Args: []string{"x: Missing"}}}}
	err := engine.InstallLibrary(lib)
	if err == nil || !strings.Contains(err.Error(), "keyword 'Bad'") {
		t.Fatalf("error = %v", err)
	}

	lib = &Library{Name: "Broken", Structs: []StructDecl{{Name: "S", Fields: []FieldDecl{{Key: "k", Type: "Nope", Required: true}}}}}
	if err := engine.InstallLibrary(lib); err == nil {
		t.Fatalf("expected unknown field type error")
	}
}

func TestLoadLibraryFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.yaml")
	body := strings.Replace(accountsLibrary, "library: Accounts\n", "", 1)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	lib, err := LoadLibrary(path)
	if err != nil {
		t.Fatalf("LoadLibrary: %v", err)
	}
	if lib.Name != "accounts" || lib.Path != path {
		t.Fatalf("name = %q path = %q", lib.Name, lib.Path)
	}
	if _, err := LoadLibrary(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
