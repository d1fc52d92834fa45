// Package interp implements the threaded bytecode interpreter: the
// switch-dispatch execution loop (exec.go), call-frame management and
// closure invocation (calls.go), shape/inline-cache-aware property
// access (objects.go), and the ToNumber/ToPrimitive-adjacent operator
// semantics binary/unary opcodes need (operators.go). It is grounded
// on the teacher's internal/vm package: one VM-like struct holding the
// realm and call machinery, one CallFrame-like Frame per active call
// (internal/vm's vm.go/vm_calls.go), and a big opcode switch run per
// frame (internal/vm/vm_exec.go's executeOneOp), adapted from funxy's
// stack-of-frames single-VM-struct design to one Frame per Go-level
// recursive call — idiomatic for a tree of user function calls that
// can themselves re-enter the interpreter via native callbacks
// (Array.prototype.sort comparators, etc.) without a shared mutable
// frame stack to keep synchronized.
package interp

import (
	"escargot/internal/bytecode"
	"escargot/internal/errs"
	"escargot/internal/runtime"
	"escargot/internal/telemetry"
)

// Interp is the engine's execution context: the realm (prototype
// objects every construction opcode roots new objects at) plus the
// global lexical environment every top-level and dynamically-resolved
// identifier access eventually walks to.
type Interp struct {
	Realm        *runtime.Realm
	GlobalEnv    *runtime.LexicalEnvironment
	Metrics      *telemetry.Metrics
	maxCallDepth int
	callDepth    int
}

// NewInterp builds an interpreter over a fresh realm, with telemetry
// going to a private, unscraped registry (see telemetry.Discard). Use
// NewInterpWithMetrics to wire a host-supplied Metrics instead.
func NewInterp() *Interp {
	return NewInterpWithMetrics(telemetry.Discard())
}

// NewInterpWithMetrics builds an interpreter that records IC and call
// counters onto m, letting a host serve it over its own Prometheus
// registry (pkg/escargot's VM wires this to a per-VM UUID-labeled
// Metrics; cmd/escargot's optional --metrics-addr listener scrapes it).
func NewInterpWithMetrics(m *telemetry.Metrics) *Interp {
	return NewInterpWithOptions(m, defaultMaxCallDepth)
}

// defaultMaxCallDepth is the maxCallDepth a host gets without its own
// internal/config.Engine.MaxCallDepth override.
const defaultMaxCallDepth = 1024

// NewInterpWithOptions builds an interpreter with an explicit call-depth
// ceiling, the internal/interp-level counterpart of
// internal/config.Engine.MaxCallDepth, wired through by
// pkg/escargot.New so a host's config file actually governs how deep
// recursive script calls are allowed to go before RangeError fires.
func NewInterpWithOptions(m *telemetry.Metrics, maxCallDepth int) *Interp {
	realm := runtime.NewRealm()
	globalRecord := runtime.NewGlobalRecord(realm.GlobalObject)
	return &Interp{
		Realm:        realm,
		GlobalEnv:    runtime.NewLexicalEnvironment(globalRecord, nil),
		Metrics:      m,
		maxCallDepth: maxCallDepth,
	}
}

// RunProgram executes a top-level CodeBlock (from compiler.CompileProgram)
// against the interpreter's global environment and returns the
// program's completion value: the value of the last expression
// statement executed, or undefined. Every var/function name the
// compiler hoisted to the top level is pre-declared as undefined
// first, matching ES5 hoisting: a read of one before its declaring
// statement runs sees undefined rather than throwing ReferenceError.
func (ip *Interp) RunProgram(cb *bytecode.CodeBlock) (runtime.Value, error) {
	ip.Metrics.BytecodeBytes.Set(float64(len(cb.Code)))
	for _, name := range cb.InnerIdentifiers {
		if !ip.GlobalEnv.Record.HasBinding(name) {
			ip.GlobalEnv.Record.CreateBinding(name, false, runtime.Undefined())
		}
	}
	frame := newFrame(cb, ip.GlobalEnv, runtime.FromPointer(ip.Realm.GlobalObject), nil)
	return ip.run(frame)
}

// errInternalf signals an engine invariant violated by malformed
// bytecode or an unreachable dispatch case — never a JS-observable
// throw, so it is never offered to a live try/catch the way a
// *errs.JSError is.
func errInternalf(format string, args ...interface{}) error {
	return errs.NewInternalError(format, args...)
}

func (ip *Interp) throwType(format string, args ...interface{}) error {
	return errs.NewTypeError(ip.Realm.ErrorProtoFor("TypeError"), format, args...)
}

func (ip *Interp) throwReference(format string, args ...interface{}) error {
	return errs.NewReferenceError(ip.Realm.ErrorProtoFor("ReferenceError"), format, args...)
}

func (ip *Interp) throwRange(format string, args ...interface{}) error {
	return errs.NewRangeError(ip.Realm.ErrorProtoFor("RangeError"), format, args...)
}

// stringConstant reads constant idx as a Go string, the form every
// name-bearing opcode operand (property names, binding names) needs.
func stringConstant(cb *bytecode.CodeBlock, idx uint16) string {
	return runtime.StringValueGo(cb.Constants[idx])
}
