package kwbind

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestToProto(t *testing.T) {
	val := NewMapping(NewOrderedMapping(
		[]string{"name", "port", "ratio", "tags", "token", "missing", "inf"},
		[]Value{
			NewString("db"),
			NewInt(5432),
			NewFloat(0.5),
			NewStrings("a", "b"),
			NewSecret("pw"),
			NewNone(),
			NewFloat(math.Inf(1)),
		},
	))
	got, err := ToProto(val)
	if err != nil {
		t.Fatalf("ToProto: %v", err)
	}
	want, err := structpb.NewValue(map[string]any{
		"name":    "db",
		"port":    5432,
		"ratio":   0.5,
		"tags":    []any{"a", "b"},
		"token":   "<secret>",
		"missing": nil,
		"inf":     "+Inf",
	})
	if err != nil {
		t.Fatalf("structpb.NewValue: %v", err)
	}
	if diff := cmp.Diff(want, got, protocmp.Transform()); diff != "" {
		t.Fatalf("ToProto mismatch (-want +got):\n%s", diff)
	}
}

func TestBoundCallProto(t *testing.T) {
	engine := newTestEngine(t, Config{})
	call, err := engine.BindRaw(NewScope(nil), "Connect", []string{"h", "1", "x", "retries=2"})
	if err != nil {
		t.Fatalf("BindRaw: %v", err)
	}
	got, err := call.Proto()
	if err != nil {
		t.Fatalf("Proto: %v", err)
	}
	want, err := structpb.NewStruct(map[string]any{
		"keyword": "Connect",
		"args":    []any{"h", 1, "x"},
		"kwargs":  map[string]any{"timeout": 1.5, "retries": 2},
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
		t.Fatalf("Proto mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorProto(t *testing.T) {
	engine := newTestEngine(t, Config{})
	_, err := engine.BindRaw(NewScope(nil), "Connect", []string{"h", "abc"})
	if err == nil {
		t.Fatalf("expected error")
	}
	got := ErrorProto(err)
	want, _ := structpb.NewStruct(map[string]any{
		"kind":    "TypeMismatch",
		"keyword": "Connect",
		"entity":  "Argument 'port'",
		"value":   "abc",
		"message": "Argument 'port' got value 'abc' (string) that cannot be converted to integer.",
	})
	if diff := cmp.Diff(want, got, protocmp.Transform()); diff != "" {
		t.Fatalf("ErrorProto mismatch (-want +got):\n%s", diff)
	}
}
