package interp

import (
	"escargot/internal/bytecode"
	"escargot/internal/runtime"
)

// tryPhase tracks which region of a try statement is currently
// executing, since a bare "in catch or not" boolean can't distinguish
// "still eligible to dispatch to this try's own catch" from "already
// running this try's own finally, which cannot catch its own overflow
// and must let the exception fall to the next enclosing try".
type tryPhase int

const (
	tryPhaseBody tryPhase = iota
	tryPhaseCatch
	tryPhaseFinally
)

// tryState is the runtime counterpart of a bytecode.TryEntry: one per
// currently-live try statement in the executing frame, pushed by
// OpTry and consulted by exception unwinding, OpTryCatchBodyEnd,
// OpJumpComplexCase, and the return opcodes.
type tryState struct {
	entry      bytecode.TryEntry
	stackDepth int // frame.stack length to restore before dispatching to CatchIP or FinallyIP
	phase      tryPhase
}

// Frame is one call's execution state: its own operand stack, its
// lexical environment (which may grow with `with` statements pushed
// during execution), and the bookkeeping OpPrepareFunctionCall/
// OpPushToTemp/OpTry and friends need. Every user function call and
// the top-level program each get their own Frame; native calls never
// do, since NativeFunc runs as a plain Go call with no bytecode.
type Frame struct {
	cb  *bytecode.CodeBlock
	ip  int
	env *runtime.LexicalEnvironment
	fn  *bytecode.FunctionObject // nil for the top-level program frame

	this runtime.Value

	stack     []runtime.Value
	tempStack []runtime.Value
	callPrep  []runtime.Value // one pending receiver per in-flight OpPrepareFunctionCall

	tryStack []*tryState
	pending  *runtime.ControlFlowRecord

	// withStack holds the target object record of every `with`
	// statement currently active in this frame, innermost last. It is
	// consulted only by the dynamic by-name opcodes (GetById/SetById);
	// env itself never changes after call entry, so a `with` cannot
	// disturb the compile-time (up-count, index) pairs every
	// other identifier reference already resolved to.
	withStack []*runtime.ObjectRecord

	// completion tracks the value of the most recently popped
	// expression statement. Only the top-level program frame's caller
	// (Interp.RunProgram) ever reads it, matching the ES5 notion of a
	// Program's completion value; function frames set it too (cheap)
	// but nothing consumes it there.
	completion runtime.Value
}

func newFrame(cb *bytecode.CodeBlock, env *runtime.LexicalEnvironment, this runtime.Value, fn *bytecode.FunctionObject) *Frame {
	return &Frame{
		cb:         cb,
		env:        env,
		this:       this,
		fn:         fn,
		stack:      make([]runtime.Value, 0, 16),
		completion: runtime.Undefined(),
	}
}

func (f *Frame) push(v runtime.Value) { f.stack = append(f.stack, v) }

func (f *Frame) pop() runtime.Value {
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

func (f *Frame) peek() runtime.Value { return f.stack[len(f.stack)-1] }

func (f *Frame) truncate(depth int) { f.stack = f.stack[:depth] }

func (f *Frame) pushTemp(v runtime.Value) { f.tempStack = append(f.tempStack, v) }

func (f *Frame) popTemp() runtime.Value {
	v := f.tempStack[len(f.tempStack)-1]
	f.tempStack = f.tempStack[:len(f.tempStack)-1]
	return v
}

func (f *Frame) pushCallPrep(receiver runtime.Value) { f.callPrep = append(f.callPrep, receiver) }

func (f *Frame) popCallPrep() runtime.Value {
	v := f.callPrep[len(f.callPrep)-1]
	f.callPrep = f.callPrep[:len(f.callPrep)-1]
	return v
}

// readU8/readU16 decode an operand at the current ip and advance it;
// every opcode handler that needs operands is called after the opcode
// byte itself has already been consumed by the dispatch loop.
func (f *Frame) readU8() byte {
	b := f.cb.Code[f.ip]
	f.ip++
	return b
}

func (f *Frame) readU16() uint16 {
	v := f.cb.ReadUint16(f.ip)
	f.ip += 2
	return v
}

func (f *Frame) jumpTo(target int) { f.ip = target }
