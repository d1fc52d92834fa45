// Package errs constructs the ECMAScript error hierarchy spec.md §7
// names (SyntaxError, ReferenceError, TypeError, RangeError) as thrown
// runtime.Value error objects, plus InternalError for invariant
// violations that are Go-level engine bugs rather than a JS-observable
// throw. Grounded on the teacher's internal/typesystem/error.go
// convention of one exported struct per error kind with a message-
// formatting Error() method and a New* constructor.
package errs

import (
	"fmt"

	"escargot/internal/runtime"
)

// Kind names one of the ECMAScript native error constructors.
type Kind string

const (
	KindSyntax    Kind = "SyntaxError"
	KindReference Kind = "ReferenceError"
	KindType      Kind = "TypeError"
	KindRange     Kind = "RangeError"
)

// JSError wraps a thrown ECMAScript value (almost always, but not
// necessarily, an Error-kind object — `throw "x"` is legal ES5 and
// throws a bare string) so it can travel as a Go error through every
// interpreter call that can raise an exception.
type JSError struct {
	Value runtime.Value
}

func (e *JSError) Error() string {
	if o, ok := e.Value.Pointer().(*runtime.Obj); ok {
		name, _ := runtime.GetOwn(&o.BaseObject, "name")
		msg, _ := runtime.GetOwn(&o.BaseObject, "message")
		return fmt.Sprintf("%s: %s", runtime.ToStringGo(name), runtime.ToStringGo(msg))
	}
	return runtime.ToStringGo(e.Value)
}

// Throw wraps v as a JSError, for `throw` statements and builtins that
// re-throw a value they were handed.
func Throw(v runtime.Value) *JSError { return &JSError{Value: v} }

// New builds a native error object of the given kind rooted at proto
// (the realm's <Kind>.prototype) and wraps it as a JSError.
func New(kind Kind, proto runtime.Value, message string) *JSError {
	o := runtime.NewObject(proto)
	runtime.PutOwn(&o.BaseObject, "name", runtime.NewString(string(kind)))
	runtime.PutOwn(&o.BaseObject, "message", runtime.NewString(message))
	return &JSError{Value: runtime.FromPointer(o)}
}

func NewSyntaxError(proto runtime.Value, format string, args ...interface{}) *JSError {
	return New(KindSyntax, proto, fmt.Sprintf(format, args...))
}

func NewReferenceError(proto runtime.Value, format string, args ...interface{}) *JSError {
	return New(KindReference, proto, fmt.Sprintf(format, args...))
}

func NewTypeError(proto runtime.Value, format string, args ...interface{}) *JSError {
	return New(KindType, proto, fmt.Sprintf(format, args...))
}

func NewRangeError(proto runtime.Value, format string, args ...interface{}) *JSError {
	return New(KindRange, proto, fmt.Sprintf(format, args...))
}

// InternalError signals an engine invariant broken (unreachable opcode
// dispatch, a shape/slot mismatch) rather than a JS-observable throw.
// It is never caught by a `Try`; the top-level interpret call and the
// CLI host are the only things allowed to handle it, and a debug build
// is expected to treat it as fatal.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string { return "internal error: " + e.Message }

func NewInternalError(format string, args ...interface{}) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}
