package kwbind

import (
	"context"
	"strings"
	"sync"
	"testing"
)

func TestNewEngineAppliesDefaults(t *testing.T) {
	engine, err := NewEngine(Config{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if engine.config.RecursionLimit != defaultRecursionLimit {
		t.Fatalf("recursion limit = %d", engine.config.RecursionLimit)
	}
	if _, ok := engine.config.Environment.(OSEnvironment); !ok {
		t.Fatalf("environment = %T", engine.config.Environment)
	}
	if _, err := NewEngine(Config{RecursionLimit: -1}); err == nil {
		t.Fatalf("expected error for negative recursion limit")
	}
}

func TestRegisterKeywordNormalizesNames(t *testing.T) {
	engine := MustNewEngine(Config{})
	if err := engine.RegisterKeyword(&Keyword{Name: "Open Browser"}); err != nil {
		t.Fatalf("RegisterKeyword: %v", err)
	}
	if _, ok := engine.Keyword("open_browser"); !ok {
		t.Fatalf("lookup should ignore case, spaces and underscores")
	}
	err := engine.RegisterKeyword(&Keyword{Name: "OPEN BROWSER"})
	if err == nil || !strings.Contains(err.Error(), "conflicts with 'Open Browser'") {
		t.Fatalf("error = %v", err)
	}
	if err := engine.RegisterKeyword(&Keyword{Name: " "}); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := engine.Implement("Close Browser", nil); err == nil {
		t.Fatalf("expected error for unknown keyword")
	}
}

func TestKeywordsAreSorted(t *testing.T) {
	engine := MustNewEngine(Config{})
	for _, name := range []string{"b", "c", "a"} {
		if err := engine.RegisterKeyword(&Keyword{Name: name}); err != nil {
			t.Fatalf("RegisterKeyword: %v", err)
		}
	}
	var names []string
	for _, kw := range engine.Keywords() {
		names = append(names, kw.Name)
	}
	if strings.Join(names, ",") != "a,b,c" {
		t.Fatalf("names = %v", names)
	}
}

func TestConcurrentBinding(t *testing.T) {
	engine := newTestEngine(t, Config{})
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scope := NewScope(nil)
			scope.Define("port", NewString("80"))
			if _, err := engine.BindRaw(scope, "Connect", []string{"h", "${port}"}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("BindRaw: %v", err)
	}
}

func TestImplementWhileCalling(t *testing.T) {
	engine := newTestEngine(t, Config{})
	echo := func(_ context.Context, call *BoundCall) (Value, error) {
		msg, _ := call.Get("message")
		return msg, nil
	}
	if err := engine.Implement("Echo", echo); err != nil {
		t.Fatalf("Implement: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := engine.CallRaw(context.Background(), NewScope(nil), "Echo", []string{"hi"})
			if err == nil && got.Str() != "hi" {
				t.Errorf("Echo = %v", got)
			}
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := engine.Implement("Echo", echo); err != nil {
			t.Fatalf("Implement: %v", err)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("CallRaw: %v", err)
		}
	}
}
