// Package escargot is the host embedding API: construct a VM, Evaluate
// source strings against it, or Parse/ParseFunction source without
// running it. Grounded on the teacher's pkg/embed/vm.go, whose VM type
// wraps a *vm.VM plus a marshaller and exposes New/Eval/LoadFile/Call
// as the embedding surface; escargot.VM plays the same role around
// internal/interp.Interp, minus the reflection-based Go value
// marshalling the teacher needs for host bindings (escargot has no
// scripting-language type system to bridge — a VM consumer works with
// runtime.Value directly).
package escargot

import (
	"os"

	"github.com/google/uuid"

	"escargot/internal/ast"
	"escargot/internal/compiler"
	"escargot/internal/errs"
	"escargot/internal/interp"
	"escargot/internal/parser"
	"escargot/internal/runtime"
	"escargot/internal/telemetry"
)

// VM is one independent ES5 execution context: its own realm,
// global object, and telemetry. Each VM gets a UUID at construction
// (the teacher's go.mod-required github.com/google/uuid, unused by
// the teacher's own embedding layer but a natural fit here) so a host
// running several VMs in one process can correlate log lines and
// metric series back to the VM that produced them.
type VM struct {
	ID      uuid.UUID
	Metrics *telemetry.Metrics

	ip            *interp.Interp
	defaultStrict bool
}

// Option configures a VM at construction.
type Option func(*vmConfig)

type vmConfig struct {
	metrics       *telemetry.Metrics
	maxCallDepth  int
	defaultStrict bool
}

// WithDefaultStrict makes Evaluate treat source with no own "use
// strict" prologue as strict anyway, the embedding-API counterpart of
// internal/config.Engine.DefaultStrict.
func WithDefaultStrict(strict bool) Option {
	return func(c *vmConfig) { c.defaultStrict = strict }
}

// WithMetrics wires the VM's inline-cache/call/throw counters onto a
// host-supplied telemetry.Metrics instead of a private, unscraped one.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *vmConfig) { c.metrics = m }
}

// WithMaxCallDepth overrides how many nested script calls are allowed
// before the interpreter raises a RangeError, the embedding-API
// counterpart of internal/config.Engine.MaxCallDepth.
func WithMaxCallDepth(n int) Option {
	return func(c *vmConfig) { c.maxCallDepth = n }
}

// New builds a VM ready to Evaluate source.
func New(opts ...Option) *VM {
	id := uuid.New()
	cfg := &vmConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.metrics == nil {
		cfg.metrics = telemetry.New(id.String())
	}
	if cfg.maxCallDepth == 0 {
		cfg.maxCallDepth = 1024
	}
	return &VM{
		ID:            id,
		Metrics:       cfg.metrics,
		ip:            interp.NewInterpWithOptions(cfg.metrics, cfg.maxCallDepth),
		defaultStrict: cfg.defaultStrict,
	}
}

// Evaluate parses and runs source as a top-level Program against this
// VM's global object, returning its completion value (the value of the
// last expression statement executed, or undefined) the way the
// teacher's VM.Eval returns a Funxy value from an internal pipeline
// run. Source is parsed sloppy unless WithDefaultStrict(true) was
// passed to New; an explicit "use strict" directive prologue inside
// source always opts that program into strict semantics regardless.
func (v *VM) Evaluate(source string) (runtime.Value, error) {
	prog, err := parser.Parse(source, v.defaultStrict)
	if err != nil {
		return runtime.Value{}, errs.NewSyntaxError(v.ip.Realm.ErrorProtoFor("SyntaxError"), "%s", err.Error())
	}
	cb, err := compiler.CompileProgram(prog)
	if err != nil {
		return runtime.Value{}, errs.NewSyntaxError(v.ip.Realm.ErrorProtoFor("SyntaxError"), "%s", err.Error())
	}
	return v.ip.RunProgram(cb)
}

// EvaluateFile reads path and Evaluates its contents, matching the
// teacher's VM.LoadFile convenience.
func (v *VM) EvaluateFile(path string) (runtime.Value, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return runtime.Value{}, err
	}
	return v.Evaluate(string(content))
}

// Global returns this VM's global object, letting a host Set/inspect
// globals directly through runtime's own Get/PutOwn rather than a
// reflection-based Bind the way the teacher's embedding layer offers
// (escargot has no Go-value marshaller to generate one from).
func (v *VM) Global() *runtime.Obj { return v.ip.Realm.GlobalObject }

// Parse parses source as a top-level Program without compiling or
// running it, the `parse` host hook named by spec's external
// interfaces section.
func Parse(source string, strict bool) (*ast.Program, error) {
	return parser.Parse(source, strict)
}

// ParseFunction parses argsSrc/bodySrc as the two argument strings the
// `Function` constructor concatenates (`new Function(arg1, ..., body)`)
// into a single function expression, the `parseFunction` host hook
// named by spec's external interfaces section.
func ParseFunction(argsSrc, bodySrc string) (*ast.FunctionExpression, error) {
	return parser.ParseFunctionBody(argsSrc, bodySrc)
}

// MakeFunction compiles a FunctionExpression produced by ParseFunction
// into a live, callable value closing over v's global environment,
// matching ES5 15.3.2.1's rule that a Function-constructor function
// closes over nothing but the global scope regardless of where
// `new Function(...)` was itself called from.
func (v *VM) MakeFunction(fn *ast.FunctionExpression) (runtime.Value, error) {
	cb, err := compiler.CompileTopLevelFunction(fn)
	if err != nil {
		return runtime.Value{}, errs.NewSyntaxError(v.ip.Realm.ErrorProtoFor("SyntaxError"), "%s", err.Error())
	}
	return v.ip.MakeFunctionValue(cb)
}

// Call invokes a callable runtime.Value (as obtained from Evaluate,
// Global, or MakeFunction) with thisVal and args.
func (v *VM) Call(fn, thisVal runtime.Value, args []runtime.Value) (runtime.Value, error) {
	return v.ip.InvokeValue(fn, thisVal, args)
}

// FormatError renders an error returned by Evaluate/Call the way a
// host's top-level error reporter would: JSError.Error() already
// renders a thrown Error object's name/message, so this only exists to
// give the embedding API one documented entry point rather than
// requiring a host to know to type-assert *errs.JSError itself.
func FormatError(err error) string {
	return err.Error()
}
