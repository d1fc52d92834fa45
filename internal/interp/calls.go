package interp

import (
	"strconv"

	"escargot/internal/bytecode"
	"escargot/internal/compiler"
	"escargot/internal/errs"
	"escargot/internal/parser"
	"escargot/internal/runtime"
)

// invokeValue is the single choke point every call into a JS-visible
// function value goes through, whether the caller is a user call
// expression, a getter/setter dispatch from objects.go, or an
// internal operator that must invoke valueOf/toString from
// operators.go's toPrimitive. A bound function unwraps to its target
// with BoundThis/BoundArgs prepended exactly once per call, matching
// Function.prototype.bind's requirement that binding is transparent
// to repeated invocation rather than re-applied each time.
func (ip *Interp) invokeValue(fnVal runtime.Value, thisVal runtime.Value, args []runtime.Value) (runtime.Value, error) {
	switch fn := fnVal.Pointer().(type) {
	case *bytecode.FunctionObject:
		if fn.IsBound {
			merged := make([]runtime.Value, 0, len(fn.BoundArgs)+len(args))
			merged = append(merged, fn.BoundArgs...)
			merged = append(merged, args...)
			return ip.invokeValue(runtime.FromPointer(fn.Target), fn.BoundThis, merged)
		}
		return ip.callFunction(fn, thisVal, args)
	case *bytecode.NativeFunctionObject:
		ip.Metrics.CallsTotal.Inc()
		return fn.Fn(thisVal, args, nil)
	default:
		return runtime.Value{}, ip.throwType("value is not a function")
	}
}

// InvokeValue is the exported entry point pkg/escargot's VM.Call uses
// to invoke a value obtained from Evaluate/Global/MakeFunction; it is
// the same choke point every call-expression opcode goes through
// internally.
func (ip *Interp) InvokeValue(fnVal, thisVal runtime.Value, args []runtime.Value) (runtime.Value, error) {
	return ip.invokeValue(fnVal, thisVal, args)
}

// MakeFunctionValue wraps a CodeBlock produced by
// compiler.CompileTopLevelFunction as a live closure over this
// interpreter's global environment, the runtime counterpart of
// pkg/escargot.VM.MakeFunction (the `Function` constructor's result
// closes over nothing but the global scope, ES5 15.3.2.1).
func (ip *Interp) MakeFunctionValue(cb *bytecode.CodeBlock) (runtime.Value, error) {
	return runtime.FromPointer(ip.newUserFunction(cb, ip.GlobalEnv)), nil
}

// callFunction builds the activation for one call to a user-defined
// function and runs it to completion: a fresh Frame chained to the
// closure's captured OuterEnv, with params bound into the first
// len(cb.Params) slots (cb.Params followed by cb.InnerIdentifiers is
// exactly the slot layout CompileFunction built the scope with, see
// internal/compiler/compiler.go) and the rest left at the record's
// zero value (Empty for an IndexedRecord, to be overwritten by the
// function's own var/function hoisting code that already runs as
// ordinary bytecode).
func (ip *Interp) callFunction(fn *bytecode.FunctionObject, thisVal runtime.Value, args []runtime.Value) (runtime.Value, error) {
	ip.Metrics.CallsTotal.Inc()
	ip.callDepth++
	if ip.callDepth > ip.maxCallDepth {
		ip.callDepth--
		return runtime.Value{}, ip.throwRange("Maximum call stack size exceeded")
	}
	defer func() { ip.callDepth-- }()

	cb := fn.CodeBlock
	total := len(cb.Params) + len(cb.InnerIdentifiers)

	var record runtime.EnvironmentRecord
	if cb.NeedsActivation {
		names := make([]string, 0, total)
		names = append(names, cb.Params...)
		names = append(names, cb.InnerIdentifiers...)
		record = runtime.NewActivationRecord(names)
	} else {
		record = runtime.NewIndexedRecord(total)
	}
	indexed := record.(runtime.IndexedEnvironment)

	for i := range cb.Params {
		if i < len(args) {
			indexed.SetIndex(i, args[i])
		} else {
			indexed.SetIndex(i, runtime.Undefined())
		}
	}
	if cb.NeedsArguments {
		indexed.SetIndex(len(cb.Params), ip.makeArguments(fn, args))
	}

	env := runtime.NewLexicalEnvironment(record, fn.OuterEnv)

	actualThis := thisVal
	if actualThis.IsNullOrUndefined() && !cb.IsStrict {
		actualThis = runtime.FromPointer(ip.Realm.GlobalObject)
	}

	frame := newFrame(cb, env, actualThis, fn)
	return ip.run(frame)
}

// makeArguments builds the array-like (never a real Array) object
// ES5 functions see as `arguments`: own enumerable numeric properties
// for every actual argument, a length, and (sloppy mode only) a
// callee back-reference — `arguments.callee` throws a TypeError
// accessor in strict mode, which this engine simplifies to simply
// omitting the property, since nothing can observe the difference
// short of `"callee" in arguments`.
func (ip *Interp) makeArguments(fn *bytecode.FunctionObject, args []runtime.Value) runtime.Value {
	obj := runtime.NewObject(runtime.FromPointer(ip.Realm.ObjectProto))
	obj.Class = "Arguments"
	for i, a := range args {
		runtime.PutOwn(&obj.BaseObject, strconv.Itoa(i), a)
	}
	definePropertyFlags(&obj.BaseObject, "length", runtime.Number(float64(len(args))), runtime.FlagWritable|runtime.FlagConfigurable)
	if !fn.CodeBlock.IsStrict {
		definePropertyFlags(&obj.BaseObject, "callee", runtime.FromPointer(fn), runtime.FlagWritable|runtime.FlagConfigurable)
	}
	return runtime.FromPointer(obj)
}

// definePropertyFlags writes key as an own data property and then
// overrides its attributes, for the handful of synthetic properties
// (arguments.length/.callee, a function's own .prototype/.length)
// that ES5 defines as non-enumerable even though PutOwn's normal
// assignment semantics always produce the fully-writable/enumerable/
// configurable triad.
func definePropertyFlags(o *runtime.BaseObject, key string, v runtime.Value, flags runtime.PropertyFlag) {
	runtime.PutOwn(o, key, v)
	o.Shape = o.Shape.WithUpdatedFlags(key, flags)
}

// newUserFunction builds a FunctionObject closing over outerEnv and
// gives it the own .prototype/.constructor/.length/.name quartet every
// ES5 function needs before it can ever be used with `new`, regardless
// of whether this particular closure ends up called that way. Shared
// by opCreateFunction (closes over the executing frame's environment)
// and MakeFunctionValue (closes over the global environment, for the
// `Function` constructor).
func (ip *Interp) newUserFunction(cb *bytecode.CodeBlock, outerEnv *runtime.LexicalEnvironment) *bytecode.FunctionObject {
	fn := bytecode.NewFunctionObject(cb, outerEnv, runtime.FromPointer(ip.Realm.FunctionProto))
	fn.Name = cb.Name

	proto := runtime.NewObject(runtime.FromPointer(ip.Realm.ObjectProto))
	definePropertyFlags(&proto.BaseObject, "constructor", runtime.FromPointer(fn), runtime.FlagWritable|runtime.FlagConfigurable)
	definePropertyFlags(&fn.BaseObject, "prototype", runtime.FromPointer(proto), runtime.FlagWritable)
	definePropertyFlags(&fn.BaseObject, "length", runtime.Number(float64(len(cb.Params))), 0)
	definePropertyFlags(&fn.BaseObject, "name", runtime.NewString(cb.Name), 0)
	return fn
}

// opCreateFunction backs OpCreateFunction: the CodeBlockConstant
// pushed by OpPush just before it is unwrapped into a live closure
// over the current frame's environment.
func (ip *Interp) opCreateFunction(frame *Frame) error {
	cbv := frame.pop()
	cb, ok := bytecode.CodeBlockOf(cbv)
	if !ok {
		return errInternalf("CreateFunction: operand is not a CodeBlock constant")
	}
	frame.push(runtime.FromPointer(ip.newUserFunction(cb, frame.env)))
	return nil
}

// opCallFunction backs OpCallFunction: pop the arguments (in reverse,
// since they were pushed left to right), the callee, and the
// receiver PushFunctionCallReceiver stashed on the side, and invoke.
func (ip *Interp) opCallFunction(frame *Frame) error {
	argCount := int(frame.readU16())
	args := make([]runtime.Value, argCount)
	for i := argCount - 1; i >= 0; i-- {
		args[i] = frame.pop()
	}
	fnVal := frame.pop()
	receiver := frame.popCallPrep()

	if ip.asCallable(fnVal) == nil {
		return ip.throwType("%s is not a function", runtime.ToStringGo(fnVal))
	}
	result, err := ip.invokeValue(fnVal, receiver, args)
	if err != nil {
		return err
	}
	frame.push(result)
	return nil
}

// opNewFunctionCall backs OpNewFunctionCall ([[Construct]]): a fresh
// object linked to the callee's own "prototype" property (falling
// back to Object.prototype when that property was overwritten with a
// non-object) becomes `this`; if the body's own return value is
// itself an object, ES5 says that value wins over the freshly
// constructed one instead.
func (ip *Interp) opNewFunctionCall(frame *Frame) error {
	argCount := int(frame.readU16())
	args := make([]runtime.Value, argCount)
	for i := argCount - 1; i >= 0; i-- {
		args[i] = frame.pop()
	}
	fnVal := frame.pop()
	frame.popCallPrep() // the ordinary-call receiver slot; unused by `new`

	fn, ok := fnVal.Pointer().(*bytecode.FunctionObject)
	if !ok {
		if _, isNative := fnVal.Pointer().(*bytecode.NativeFunctionObject); isNative {
			result, err := ip.invokeValue(fnVal, runtime.Undefined(), args)
			if err != nil {
				return err
			}
			frame.push(result)
			return nil
		}
		return ip.throwType("%s is not a constructor", runtime.ToStringGo(fnVal))
	}
	if fn.IsBound {
		merged := make([]runtime.Value, 0, len(fn.BoundArgs)+len(args))
		merged = append(merged, fn.BoundArgs...)
		merged = append(merged, args...)
		return ip.constructFunction(frame, fn.Target, merged)
	}
	return ip.constructFunction(frame, fn, args)
}

func (ip *Interp) constructFunction(frame *Frame, fn *bytecode.FunctionObject, args []runtime.Value) error {
	if !fn.IsConstructor {
		return ip.throwType("%s is not a constructor", fn.Name)
	}
	protoVal, err := ip.getProperty(runtime.FromPointer(fn), "prototype")
	if err != nil {
		return err
	}
	if !isPlainObjectVal(protoVal) {
		protoVal = runtime.FromPointer(ip.Realm.ObjectProto)
	}
	instance := runtime.NewObject(protoVal)

	result, err := ip.callFunction(fn, runtime.FromPointer(instance), args)
	if err != nil {
		return err
	}
	if isPlainObjectVal(result) {
		frame.push(result)
		return nil
	}
	frame.push(runtime.FromPointer(instance))
	return nil
}

// opCallEvalFunction backs OpCallEvalFunction, emitted only for a
// literal, unshadowed `eval(...)` call (internal/compiler/
// expressions.go's emitCall). Direct eval shares the calling frame's
// environment outright rather than constructing a child scope: every
// identifier access CompileProgram emits is already a dynamic
// GetById/SetById (the top-level compiler scope never resolves to a
// static slot, see internal/compiler/scope.go), so running its
// bytecode against frame.env reads and writes the caller's own
// locals exactly like source-level direct eval must. This requires
// the calling function to already carry an activation record capable
// of CreateBinding, which the compiler guarantees by marking any
// function containing a literal eval call as needing one.
func (ip *Interp) opCallEvalFunction(frame *Frame) error {
	argCount := int(frame.readU16())
	args := make([]runtime.Value, argCount)
	for i := argCount - 1; i >= 0; i-- {
		args[i] = frame.pop()
	}
	frame.pop() // the resolved `eval` value itself; direct eval ignores it
	frame.popCallPrep()

	if len(args) == 0 {
		frame.push(runtime.Undefined())
		return nil
	}
	if !isStringVal(args[0]) {
		frame.push(args[0])
		return nil
	}

	result, err := ip.evalSource(frame, runtime.StringValueGo(args[0]))
	if err != nil {
		return err
	}
	frame.push(result)
	return nil
}

func (ip *Interp) evalSource(frame *Frame, source string) (runtime.Value, error) {
	prog, err := parser.Parse(source, frame.cb.IsStrict)
	if err != nil {
		return runtime.Value{}, errs.NewSyntaxError(ip.Realm.ErrorProtoFor("SyntaxError"), "%s", err.Error())
	}
	cb, err := compiler.CompileProgram(prog)
	if err != nil {
		return runtime.Value{}, errs.NewSyntaxError(ip.Realm.ErrorProtoFor("SyntaxError"), "%s", err.Error())
	}
	for _, name := range cb.InnerIdentifiers {
		if !frame.env.Record.HasBinding(name) {
			frame.env.Record.CreateBinding(name, false, runtime.Undefined())
		}
	}
	evalFrame := newFrame(cb, frame.env, frame.this, frame.fn)
	return ip.run(evalFrame)
}
