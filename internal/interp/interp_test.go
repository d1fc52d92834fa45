package interp

import (
	"testing"

	"escargot/internal/compiler"
	"escargot/internal/parser"
	"escargot/internal/runtime"
)

// run parses, compiles, and executes src as a top-level program against
// a fresh interpreter, the table-driven "source in, value out" helper
// style the teacher's internal/vm/vm_test.go uses for its own
// calculator/closure/scoping test suites.
func run(t *testing.T, src string) runtime.Value {
	t.Helper()
	prog, err := parser.Parse(src, false)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	cb, err := compiler.CompileProgram(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	v, err := NewInterp().RunProgram(cb)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return v
}

func runErr(t *testing.T, src string) error {
	t.Helper()
	prog, err := parser.Parse(src, false)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	cb, err := compiler.CompileProgram(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	_, err = NewInterp().RunProgram(cb)
	return err
}

func testNumber(t *testing.T, v runtime.Value, want float64) {
	t.Helper()
	if !v.IsNumber() {
		t.Fatalf("value is not a number: %#v", v)
	}
	if got := v.Number64(); got != want {
		t.Errorf("got=%v want=%v", got, want)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"1 + 2;", 3},
		{"1 - 2;", -1},
		{"2 * 3;", 6},
		{"10 / 4;", 2.5},
		{"10 % 3;", 1},
		{"2 + 3 * 4;", 14},
		{"(2 + 3) * 4;", 20},
		{"-5 + 3;", -2},
		{"1 << 3;", 8},
		{"8 >> 2;", 2},
		{"-1 >>> 28;", 15},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			testNumber(t, run(t, tt.src), tt.want)
		})
	}
}

func TestStringConcatenation(t *testing.T) {
	v := run(t, `"foo" + "bar";`)
	if got := runtime.ToStringGo(v); got != "foobar" {
		t.Errorf("got=%q want=%q", got, "foobar")
	}
}

func TestVarHoisting(t *testing.T) {
	v := run(t, `var x = typeof y; var y = 1; x;`)
	if got := runtime.ToStringGo(v); got != "undefined" {
		t.Errorf("got=%q, want undefined (y hoisted but not yet assigned)", got)
	}
}

func TestFunctionCallAndClosure(t *testing.T) {
	v := run(t, `
		function makeCounter() {
			var count = 0;
			return function() {
				count = count + 1;
				return count;
			};
		}
		var counter = makeCounter();
		counter();
		counter();
		counter();
	`)
	testNumber(t, v, 3)
}

func TestRecursiveFunction(t *testing.T) {
	v := run(t, `
		function fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		fib(10);
	`)
	testNumber(t, v, 55)
}

func TestObjectAndPropertyAccess(t *testing.T) {
	v := run(t, `
		var o = { a: 1, b: 2 };
		o.c = o.a + o.b;
		o.c;
	`)
	testNumber(t, v, 3)
}

func TestArrayIndexing(t *testing.T) {
	v := run(t, `
		var a = [1, 2, 3];
		a[1] = a[0] + a[2];
		a[1];
	`)
	testNumber(t, v, 4)
}

func TestTryCatchFinally(t *testing.T) {
	v := run(t, `
		var log = "";
		try {
			throw "boom";
		} catch (e) {
			log = log + "caught:" + e;
		} finally {
			log = log + ":done";
		}
		log;
	`)
	if got := runtime.ToStringGo(v); got != "caught:boom:done" {
		t.Errorf("got=%q", got)
	}
}

func TestReturnInsideFinallyOverridesTryReturn(t *testing.T) {
	// spec.md's literal end-to-end scenario: the finally's own return
	// must supersede the try block's, not re-enter the already-running
	// finally it is itself inside.
	v := run(t, `
		function f() {
			try {
				return 1;
			} finally {
				return 2;
			}
		}
		f();
	`)
	testNumber(t, v, 2)
}

func TestReturnInsideFinallyInsideNestedTry(t *testing.T) {
	v := run(t, `
		function f() {
			try {
				try {
					return 1;
				} finally {
					return 2;
				}
			} finally {
				// falls through: must not re-run and must not clobber
				// the inner finally's already-overriding return value.
			}
		}
		f();
	`)
	testNumber(t, v, 2)
}

// TestBreakInsideFinallyOverridesTryBreak exercises opJumpComplexCase's
// twin of the return bug: the inner try's own break (issued from
// inside its own currently-running finally) must not re-enter that
// same finally, and the outer try's finally must still run exactly
// once on the way out. Before the fix this hangs forever re-appending
// "b" to log.
func TestBreakInsideFinallyOverridesTryBreak(t *testing.T) {
	v := run(t, `
		function f() {
			var log = "";
			for (;;) {
				try {
					try {
						log = log + "a";
						break;
					} finally {
						log = log + "b";
						break;
					}
				} finally {
					log = log + "c";
				}
			}
			return log;
		}
		f();
	`)
	if got := runtime.ToStringGo(v); got != "abc" {
		t.Errorf("got=%q, want %q (inner finally's break must win without re-entering itself, outer finally must still run)", got, "abc")
	}
}

// TestContinueInsideFinallyOverridesTryContinue is the continue analog:
// each loop iteration's inner continue is overridden by the inner
// try's own finally re-issuing continue, which must cross into the
// outer try's finally rather than looping on the inner one forever.
func TestContinueInsideFinallyOverridesTryContinue(t *testing.T) {
	v := run(t, `
		function f() {
			var log = "";
			for (var i = 0; i < 2; i++) {
				try {
					try {
						log = log + "a" + i;
						continue;
					} finally {
						log = log + "b" + i;
						continue;
					}
				} finally {
					log = log + "c" + i;
				}
			}
			return log;
		}
		f();
	`)
	if got := runtime.ToStringGo(v); got != "a0b0c0a1b1c1" {
		t.Errorf("got=%q, want %q", got, "a0b0c0a1b1c1")
	}
}

func TestUncaughtThrowPropagates(t *testing.T) {
	err := runErr(t, `throw new Error("nope");`)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestThisBinding(t *testing.T) {
	v := run(t, `
		var o = {
			value: 42,
			get: function() { return this.value; }
		};
		o.get();
	`)
	testNumber(t, v, 42)
}

func TestInlineCacheStaysCorrectAcrossShapes(t *testing.T) {
	// Two objects sharing a property-access site but diverging shapes
	// (b gets an extra own property first) must each still resolve "x"
	// to their own value: a regression guard for getPropertyCached's
	// shape-identity check.
	v := run(t, `
		function get(o) { return o.x; }
		var a = { x: 1 };
		var b = { y: 0, x: 2 };
		get(a) + get(b);
	`)
	testNumber(t, v, 3)
}
