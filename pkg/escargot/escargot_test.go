package escargot

import (
	"testing"

	"escargot/internal/runtime"
)

func TestEvaluateReturnsCompletionValue(t *testing.T) {
	vm := New()
	v, err := vm.Evaluate(`1 + 2;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsNumber() || v.Number64() != 3 {
		t.Errorf("got %#v, want 3", v)
	}
}

func TestEvaluatePersistsGlobalsAcrossCalls(t *testing.T) {
	vm := New()
	if _, err := vm.Evaluate(`var x = 10;`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := vm.Evaluate(`x + 1;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Number64() != 11 {
		t.Errorf("got %v, want 11", v.Number64())
	}
}

func TestEvaluateSyntaxErrorIsFormattable(t *testing.T) {
	vm := New()
	_, err := vm.Evaluate(`var = ;`)
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if FormatError(err) == "" {
		t.Error("expected a non-empty formatted error message")
	}
}

func TestWithDefaultStrictRejectsSloppyOnlyConstructs(t *testing.T) {
	vm := New(WithDefaultStrict(true))
	_, err := vm.Evaluate(`with ({}) {}`)
	if err == nil {
		t.Fatal("expected a strict-mode parse error for a with statement")
	}
}

func TestWithMaxCallDepthBoundsRecursion(t *testing.T) {
	vm := New(WithMaxCallDepth(8))
	_, err := vm.Evaluate(`
		function recurse(n) { return recurse(n + 1); }
		recurse(0);
	`)
	if err == nil {
		t.Fatal("expected a range error from exceeding the call depth limit")
	}
}

func TestParseAndMakeFunctionRoundTrip(t *testing.T) {
	vm := New()
	fn, err := ParseFunction("a, b", "return a + b;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fnVal, err := vm.MakeFunction(fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := vm.Call(fnVal, runtime.Undefined(), []runtime.Value{
		runtime.Int32(2),
		runtime.Int32(3),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Number64() != 5 {
		t.Errorf("got %v, want 5", result.Number64())
	}
}

func TestGlobalObjectIsReachableAndMutable(t *testing.T) {
	vm := New()
	if vm.Global() == nil {
		t.Fatal("expected a non-nil global object")
	}
	runtime.PutOwn(&vm.Global().BaseObject, "hostValue", runtime.Int32(7))
	v, err := vm.Evaluate(`hostValue;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Number64() != 7 {
		t.Errorf("got %v, want 7", v.Number64())
	}
}
