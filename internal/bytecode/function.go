package bytecode

import "escargot/internal/runtime"

// FunctionObject is the heap entity backing every user-defined
// function value. It lives in this package rather than runtime because
// it needs a concrete *CodeBlock (the compiled body); runtime only
// needs to see it as an opaque runtime.HeapObject (via Callable, below)
// so that embedding it in a runtime.Value never requires runtime to
// import bytecode back. This mirrors how the teacher keeps a VM
// closure behind the same-package evaluator.Object interface instead
// of a concrete *vm.Chunk pointer in evaluator.Function.
type FunctionObject struct {
	runtime.BaseObject

	CodeBlock *CodeBlock
	OuterEnv  *runtime.LexicalEnvironment
	Name      string

	// BoundThis/BoundArgs are set for a Function.prototype.bind result;
	// Target is the function being bound. A bound function's own
	// CodeBlock is nil.
	IsBound   bool
	Target    *FunctionObject
	BoundThis runtime.Value
	BoundArgs []runtime.Value

	IsConstructor bool
}

func NewFunctionObject(cb *CodeBlock, outer *runtime.LexicalEnvironment, proto runtime.Value) *FunctionObject {
	return &FunctionObject{
		BaseObject:    runtime.BaseObject{Shape: runtime.RootShape(), Proto: proto, Extensible: true, Class: "Function"},
		CodeBlock:     cb,
		OuterEnv:      outer,
		IsConstructor: true,
	}
}

func (*FunctionObject) HeapTag() string { return "FunctionObject" }

// NativeFunc is a host-implemented builtin: the signature every
// function in the standard-library prelude (Object, Array, String
// methods, console.log, ...) implements. thisVal is already resolved;
// newTarget is non-nil when invoked via `new`.
type NativeFunc func(thisVal runtime.Value, args []runtime.Value, newTarget *FunctionObject) (runtime.Value, error)

// NativeFunctionObject wraps a NativeFunc as a callable heap object so
// it can sit in a property slot exactly like a FunctionObject.
type NativeFunctionObject struct {
	runtime.BaseObject
	Name string
	Fn   NativeFunc
}

func NewNativeFunctionObject(name string, fn NativeFunc, proto runtime.Value) *NativeFunctionObject {
	return &NativeFunctionObject{
		BaseObject: runtime.BaseObject{Shape: runtime.RootShape(), Proto: proto, Extensible: true, Class: "Function"},
		Name:       name,
		Fn:         fn,
	}
}

func (*NativeFunctionObject) HeapTag() string { return "FunctionObject" }

// Callable is satisfied by both function heap kinds, letting the
// interpreter's OpCallFunction handler dispatch without caring which
// one it has until it actually needs to invoke the body.
type Callable interface {
	runtime.HeapObject
	callable()
}

func (*FunctionObject) callable()       {}
func (*NativeFunctionObject) callable() {}
