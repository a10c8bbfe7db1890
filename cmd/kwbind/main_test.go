package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/structpb"
)

const networkLibrary = "testdata/network.yaml"

func TestRunCLIHelp(t *testing.T) {
	if err := runCLI([]string{"kwbind", "help"}); err != nil {
		t.Fatalf("runCLI help failed: %v", err)
	}
}

func TestRunCLIInvalidCommand(t *testing.T) {
	for _, args := range [][]string{{"kwbind"}, {"kwbind", "unknown"}} {
		err := runCLI(args)
		if err == nil {
			t.Fatalf("runCLI(%v): expected invalid command error", args)
		}
		if !strings.Contains(err.Error(), "invalid command") {
			t.Fatalf("runCLI(%v): unexpected error: %v", args, err)
		}
	}
}

func TestBindCommandPrintsBoundCall(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return bindCommand([]string{"-library", networkLibrary, "-var", "port=2222", "Connect", "db", "${port}", "primary", "retries=5"})
	})
	if err != nil {
		t.Fatalf("bindCommand failed: %v", err)
	}
	got := decodeStruct(t, out)
	want, err := structpb.NewStruct(map[string]any{
		"keyword": "Connect",
		"args":    []any{"db", 2222, "primary"},
		"kwargs":  map[string]any{"timeout": 1.5, "retries": 5},
		"types": map[string]any{
			"host":    "string",
			"port":    "integer",
			"timeout": "float",
			"tags":    "list",
			"opts":    "dictionary",
		},
	})
	if err != nil {
		t.Fatalf("structpb.NewStruct: %v", err)
	}
	if diff := cmp.Diff(want, got, protocmp.Transform()); diff != "" {
		t.Fatalf("bound call mismatch (-want +got):\n%s", diff)
	}
}

func TestBindCommandReportsConversionFailure(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return bindCommand([]string{"-library", networkLibrary, "Connect", "db", "abc"})
	})
	if err == nil || !strings.Contains(err.Error(), "bind failed") {
		t.Fatalf("unexpected error: %v", err)
	}
	got := decodeStruct(t, out)
	if kind := got.GetFields()["kind"].GetStringValue(); kind != "TypeMismatch" {
		t.Fatalf("kind = %q", kind)
	}
	if entity := got.GetFields()["entity"].GetStringValue(); entity != "Argument 'port'" {
		t.Fatalf("entity = %q", entity)
	}
}

func TestBindCommandResolvesEnvironmentOnlyWhenEnabled(t *testing.T) {
	t.Setenv("KWBIND_TEST_HOST", "env.example.com")

	out, err := captureStdout(t, func() error {
		return bindCommand([]string{"-library", networkLibrary, "-env", "Connect", "%{KWBIND_TEST_HOST}"})
	})
	if err != nil {
		t.Fatalf("bindCommand failed: %v", err)
	}
	args := decodeStruct(t, out).GetFields()["args"].GetListValue().GetValues()
	if len(args) != 2 || args[0].GetStringValue() != "env.example.com" {
		t.Fatalf("unexpected args: %v", args)
	}

	_, err = captureStdout(t, func() error {
		return bindCommand([]string{"-library", networkLibrary, "Connect", "%{KWBIND_TEST_HOST}"})
	})
	if err == nil || !strings.Contains(err.Error(), "KWBIND_TEST_HOST") {
		t.Fatalf("expected unresolved environment variable, got %v", err)
	}
}

func TestBindCommandRequiresKeyword(t *testing.T) {
	err := bindCommand([]string{"-library", networkLibrary})
	if err == nil || !strings.Contains(err.Error(), "keyword name required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBindCommandRejectsBadLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("keywords:\n  - name: X\n    args: [\"a: nope\"]\n"), 0o644); err != nil {
		t.Fatalf("write library: %v", err)
	}
	if err := bindCommand([]string{"-library", path, "X", "1"}); err == nil {
		t.Fatalf("expected library install error")
	}
	if err := bindCommand([]string{"-library", filepath.Join(t.TempDir(), "missing.yaml"), "X"}); err == nil {
		t.Fatalf("expected missing library error")
	}
}

func TestBindCommandRejectsMalformedVar(t *testing.T) {
	err := bindCommand([]string{"-library", networkLibrary, "-var", "port", "Connect", "db"})
	if err == nil || !strings.Contains(err.Error(), "expected name=value") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func decodeStruct(t *testing.T, out string) *structpb.Struct {
	t.Helper()
	var msg structpb.Struct
	if err := protojson.Unmarshal([]byte(out), &msg); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	return &msg
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()
	_ = w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	if _, copyErr := io.Copy(&buf, r); copyErr != nil {
		t.Fatalf("read stdout: %v", copyErr)
	}
	_ = r.Close()
	return buf.String(), runErr
}
