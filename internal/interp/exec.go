package interp

import (
	"escargot/internal/bytecode"
	"escargot/internal/errs"
	"escargot/internal/runtime"
)

// run drives frame's bytecode to completion: the central dispatch
// switch every opcode handler feeds into, and the seam where a thrown
// *errs.JSError is offered to the frame's live try-stack before ever
// propagating as a Go error. Grounded on the teacher's
// internal/vm/vm_exec.go executeOneOp dispatch loop, adapted from its
// single shared VM stack to one operand stack per Frame.
func (ip *Interp) run(frame *Frame) (runtime.Value, error) {
	for {
		op := bytecode.Opcode(frame.cb.Code[frame.ip])
		frame.ip++

		if err := ip.step(frame, op); err != nil {
			if done, result, rerr := ip.handleStepError(frame, err); done {
				return result, rerr
			}
			continue
		}

		if op == bytecode.OpEnd {
			return frame.completion, nil
		}
		if frame.pending != nil && frame.pending.Reason != runtime.ReasonThrow {
			if done, result := ip.drainPendingCompletion(frame); done {
				return result, nil
			}
		}
	}
}

// handleStepError decides what a handler's returned error means for
// the running frame: a JS-observable throw is offered to the frame's
// try-stack (continuing the loop if caught), anything else (an
// InternalError, or a JSError no enclosing try wants) unwinds this
// frame's Go call entirely.
func (ip *Interp) handleStepError(frame *Frame, err error) (done bool, result runtime.Value, rerr error) {
	je, ok := err.(*errs.JSError)
	if !ok {
		return true, runtime.Value{}, err
	}
	ip.Metrics.ThrowsTotal.Inc()
	if ip.dispatchThrow(frame, je.Value) {
		return false, runtime.Value{}, nil
	}
	return true, runtime.Value{}, je
}

// drainPendingCompletion checks whether a non-throw ControlFlowRecord
// (a return, or a break/continue that has finished crossing every
// intervening finally) has reached the bottom of frame.tryStack, in
// which case the frame itself is done: a return completes the call, a
// break/continue escaping the outermost loop inside this frame is a
// compiler invariant violation (loops always have a target inside the
// same frame) and is therefore only ever observed mid-unwind, never
// here.
func (ip *Interp) drainPendingCompletion(frame *Frame) (done bool, result runtime.Value) {
	if len(frame.tryStack) > 0 {
		return false, runtime.Value{}
	}
	pending := frame.pending
	frame.pending = nil
	if pending.Reason == runtime.ReasonReturn {
		return true, pending.Value
	}
	return false, runtime.Value{}
}

// step executes exactly one opcode, already consumed from frame.ip,
// decoding whatever operands it carries itself.
func (ip *Interp) step(frame *Frame, op bytecode.Opcode) error {
	switch op {
	case bytecode.OpPush:
		idx := frame.readU16()
		frame.push(frame.cb.Constants[idx])
		return nil
	case bytecode.OpPop:
		frame.pop()
		return nil
	case bytecode.OpDup:
		frame.push(frame.peek())
		return nil
	case bytecode.OpPopExpressionStatement:
		frame.completion = frame.pop()
		return nil
	case bytecode.OpPushToTemp:
		frame.pushTemp(frame.pop())
		return nil
	case bytecode.OpPopFromTemp:
		frame.push(frame.popTemp())
		return nil

	case bytecode.OpGetById:
		return ip.opGetById(frame)
	case bytecode.OpSetById:
		return ip.opSetById(frame)
	case bytecode.OpGetByIndex, bytecode.OpGetByIndexWithActivation:
		upCount := int(frame.readU8())
		index := int(frame.readU16())
		env := frame.env.AtDepth(upCount)
		rec, ok := env.Record.(runtime.IndexedEnvironment)
		if !ok {
			return errInternalf("GetByIndex: record at depth %d is not indexed", upCount)
		}
		frame.push(rec.GetIndex(index))
		return nil
	case bytecode.OpSetByIndex, bytecode.OpSetByIndexWithActivation:
		upCount := int(frame.readU8())
		index := int(frame.readU16())
		env := frame.env.AtDepth(upCount)
		rec, ok := env.Record.(runtime.IndexedEnvironment)
		if !ok {
			return errInternalf("SetByIndex: record at depth %d is not indexed", upCount)
		}
		rec.SetIndex(index, frame.peek())
		return nil
	case bytecode.OpCreateBinding:
		return errInternalf("CreateBinding: never emitted by the current compiler")

	case bytecode.OpPlus, bytecode.OpMinus, bytecode.OpMultiply, bytecode.OpDivision, bytecode.OpMod:
		b := frame.pop()
		a := frame.pop()
		v, err := ip.arith(op, a, b)
		if err != nil {
			return err
		}
		frame.push(v)
		return nil
	case bytecode.OpIncrement:
		frame.push(runtime.Number(frame.pop().Number64() + 1))
		return nil
	case bytecode.OpDecrement:
		frame.push(runtime.Number(frame.pop().Number64() - 1))
		return nil
	case bytecode.OpUnaryMinus:
		frame.push(unaryMinus(frame.pop()))
		return nil
	case bytecode.OpUnaryPlus:
		frame.push(unaryPlus(frame.pop()))
		return nil
	case bytecode.OpUnaryNot:
		frame.push(unaryNot(frame.pop()))
		return nil
	case bytecode.OpUnaryBitNot:
		frame.push(unaryBitNot(frame.pop()))
		return nil

	case bytecode.OpEqual, bytecode.OpNotEqual:
		b := frame.pop()
		a := frame.pop()
		eq, err := ip.looseEquals(a, b)
		if err != nil {
			return err
		}
		if op == bytecode.OpNotEqual {
			eq = !eq
		}
		frame.push(runtime.Bool(eq))
		return nil
	case bytecode.OpStrictEqual, bytecode.OpNotStrictEqual:
		b := frame.pop()
		a := frame.pop()
		eq := runtime.StrictEquals(a, b)
		if op == bytecode.OpNotStrictEqual {
			eq = !eq
		}
		frame.push(runtime.Bool(eq))
		return nil
	case bytecode.OpLessThan, bytecode.OpLessThanOrEqual, bytecode.OpGreaterThan, bytecode.OpGreaterThanOrEqual:
		b := frame.pop()
		a := frame.pop()
		v, err := ip.relational(op, a, b)
		if err != nil {
			return err
		}
		frame.push(v)
		return nil

	case bytecode.OpBitwiseAnd, bytecode.OpBitwiseOr, bytecode.OpBitwiseXor,
		bytecode.OpLeftShift, bytecode.OpSignedRightShift, bytecode.OpUnsignedRightShift:
		b := frame.pop()
		a := frame.pop()
		frame.push(bitwise(op, a, b))
		return nil

	case bytecode.OpUnaryTypeOf:
		frame.push(runtime.NewString(ip.typeOf(frame.pop())))
		return nil
	case bytecode.OpUnaryDelete:
		key := frame.pop()
		obj := frame.pop()
		ok, err := ip.deleteProperty(obj, toPropertyKey(key))
		if err != nil {
			return err
		}
		frame.push(runtime.Bool(ok))
		return nil
	case bytecode.OpUnaryVoid:
		frame.pop()
		frame.push(runtime.Undefined())
		return nil
	case bytecode.OpStringIn:
		obj := frame.pop()
		key := frame.pop()
		ok, err := ip.stringIn(key, obj)
		if err != nil {
			return err
		}
		frame.push(runtime.Bool(ok))
		return nil
	case bytecode.OpInstanceOf:
		ctor := frame.pop()
		obj := frame.pop()
		ok, err := ip.instanceOf(obj, ctor)
		if err != nil {
			return err
		}
		frame.push(runtime.Bool(ok))
		return nil
	case bytecode.OpToNumber:
		n, err := ip.toNumber(frame.pop())
		if err != nil {
			return err
		}
		frame.push(runtime.Number(n))
		return nil

	case bytecode.OpCreateObject:
		frame.push(runtime.FromPointer(runtime.NewObject(runtime.FromPointer(ip.Realm.ObjectProto))))
		return nil
	case bytecode.OpCreateArray:
		count := frame.readU16()
		arr := runtime.NewArray(runtime.FromPointer(ip.Realm.ArrayProto))
		if count > 0 {
			arr.Vector = make([]runtime.Value, 0, count)
		}
		frame.push(runtime.FromPointer(arr))
		return nil
	case bytecode.OpInitObject:
		return ip.opInitObject(frame)
	case bytecode.OpGetObject:
		key := frame.pop()
		obj := frame.pop()
		v, err := ip.getProperty(obj, toPropertyKey(key))
		if err != nil {
			return err
		}
		frame.push(v)
		return nil
	case bytecode.OpGetObjectPreComputed:
		nameIdx := frame.readU16()
		icSite := frame.readU16()
		name := stringConstant(frame.cb, nameIdx)
		obj := frame.pop()
		v, err := ip.getPropertyCached(obj, name, &frame.cb.ICSites[icSite])
		if err != nil {
			return err
		}
		frame.push(v)
		return nil
	case bytecode.OpGetObjectPreComputedSlowMode:
		nameIdx := frame.readU16()
		frame.readU16()
		name := stringConstant(frame.cb, nameIdx)
		obj := frame.pop()
		v, err := ip.getProperty(obj, name)
		if err != nil {
			return err
		}
		frame.push(v)
		return nil
	case bytecode.OpSetObject:
		key := frame.pop()
		obj := frame.pop()
		val := frame.pop()
		if err := ip.setProperty(obj, toPropertyKey(key), val); err != nil {
			return err
		}
		frame.push(val)
		return nil
	case bytecode.OpSetObjectPreComputed:
		nameIdx := frame.readU16()
		icSite := frame.readU16()
		name := stringConstant(frame.cb, nameIdx)
		val := frame.pop()
		obj := frame.pop()
		if err := ip.setPropertyCached(obj, name, val, &frame.cb.ICSites[icSite]); err != nil {
			return err
		}
		frame.push(val)
		return nil
	case bytecode.OpSetObjectPreComputedSlowMode:
		nameIdx := frame.readU16()
		frame.readU16()
		name := stringConstant(frame.cb, nameIdx)
		val := frame.pop()
		obj := frame.pop()
		if err := ip.setProperty(obj, name, val); err != nil {
			return err
		}
		frame.push(val)
		return nil
	case bytecode.OpSetObjectPropertyGetter:
		return ip.opSetAccessor(frame, true)
	case bytecode.OpSetObjectPropertySetter:
		return ip.opSetAccessor(frame, false)

	case bytecode.OpCreateFunction:
		return ip.opCreateFunction(frame)
	case bytecode.OpPrepareFunctionCall:
		return nil
	case bytecode.OpPushFunctionCallReceiver:
		frame.pushCallPrep(frame.pop())
		return nil
	case bytecode.OpCallFunction:
		return ip.opCallFunction(frame)
	case bytecode.OpNewFunctionCall:
		return ip.opNewFunctionCall(frame)
	case bytecode.OpCallEvalFunction:
		return ip.opCallEvalFunction(frame)
	case bytecode.OpCallBoundFunction:
		return errInternalf("CallBoundFunction: never emitted by the current compiler")
	case bytecode.OpReturnFunction:
		return ip.opReturn(frame, runtime.Undefined())
	case bytecode.OpReturnFunctionWithValue:
		return ip.opReturn(frame, frame.pop())

	case bytecode.OpJump:
		target := int(frame.readU16())
		frame.jumpTo(target)
		return nil
	case bytecode.OpJumpIfFalse:
		target := int(frame.readU16())
		if !runtime.ToBoolean(frame.pop()) {
			frame.jumpTo(target)
		}
		return nil
	case bytecode.OpJumpIfTrue:
		target := int(frame.readU16())
		if runtime.ToBoolean(frame.pop()) {
			frame.jumpTo(target)
		}
		return nil
	case bytecode.OpJumpIfFalseWithPeeking:
		target := int(frame.readU16())
		if !runtime.ToBoolean(frame.peek()) {
			frame.jumpTo(target)
		} else {
			frame.pop()
		}
		return nil
	case bytecode.OpJumpIfTrueWithPeeking:
		target := int(frame.readU16())
		if runtime.ToBoolean(frame.peek()) {
			frame.jumpTo(target)
		} else {
			frame.pop()
		}
		return nil
	case bytecode.OpLoopStart:
		return nil

	case bytecode.OpTry:
		idx := frame.readU16()
		frame.tryStack = append(frame.tryStack, &tryState{
			entry:      frame.cb.TryTable[idx],
			stackDepth: len(frame.stack),
			phase:      tryPhaseBody,
		})
		return nil
	case bytecode.OpTryCatchBodyEnd:
		frame.readU16() // idx: the top of frame.tryStack is always this entry
		ts := frame.tryStack[len(frame.tryStack)-1]
		ts.phase = tryPhaseFinally
		frame.jumpTo(ts.entry.FinallyIP)
		return nil
	case bytecode.OpThrow:
		val := frame.pop()
		if ip.dispatchThrow(frame, val) {
			return nil
		}
		return errs.Throw(val)
	case bytecode.OpFinallyEnd:
		frame.tryStack = frame.tryStack[:len(frame.tryStack)-1]
		if frame.pending != nil {
			return ip.resumePending(frame)
		}
		return nil
	case bytecode.OpJumpComplexCase:
		return ip.opJumpComplexCase(frame)

	case bytecode.OpWithEnter:
		v := frame.pop()
		bo, ok := v.Pointer().(*runtime.Obj)
		if !ok {
			return ip.throwType("with statement requires an object")
		}
		frame.withStack = append(frame.withStack, runtime.NewObjectRecord(bo))
		return nil
	case bytecode.OpWithExit:
		frame.withStack = frame.withStack[:len(frame.withStack)-1]
		return nil

	case bytecode.OpEnumerateObject:
		v := frame.pop()
		frame.push(runtime.FromPointer(buildEnumState(v)))
		return nil
	case bytecode.OpEnumerateObjectKey:
		es, ok := frame.peek().Pointer().(*enumState)
		if !ok {
			return errInternalf("EnumerateObjectKey: top of stack is not an enumeration state")
		}
		if es.pos >= len(es.keys) {
			frame.push(runtime.Bool(false))
			return nil
		}
		k := es.keys[es.pos]
		es.pos++
		frame.push(runtime.NewString(k))
		return nil

	case bytecode.OpThis:
		frame.push(frame.this)
		return nil
	case bytecode.OpGetArgumentsObject, bytecode.OpSetArgumentsObject:
		return errInternalf("%s: never emitted; arguments is compiled as an ordinary local", op)
	case bytecode.OpLoadStackPointer, bytecode.OpCheckStackPointer:
		return errInternalf("%s: never emitted by the current compiler", op)
	case bytecode.OpExecuteNativeFunction:
		return errInternalf("ExecuteNativeFunction: native calls run as plain Go calls, never bytecode")

	case bytecode.OpEnd:
		return nil

	default:
		return errInternalf("unhandled opcode %v", op)
	}
}

// opReturn starts a return's unwind: if no try is active, it completes
// the frame's execution at the next loop iteration (run checks
// frame.pending once step returns successfully); otherwise the
// innermost live try must run its finally first, exactly like a
// thrown exception except the completion resumes the return instead
// of escaping as an error.
func (ip *Interp) opReturn(frame *Frame, val runtime.Value) error {
	frame.pending = &runtime.ControlFlowRecord{Reason: runtime.ReasonReturn, Value: val}
	ts := popToEnclosingTry(frame)
	if ts == nil {
		return nil
	}
	ts.phase = tryPhaseFinally
	frame.truncate(ts.stackDepth)
	frame.jumpTo(ts.entry.FinallyIP)
	return nil
}

// popToEnclosingTry finds the try-stack entry a fresh return/break/
// continue completion should be redirected into, popping any entry
// already in tryPhaseFinally along the way. An entry in that phase is
// the one currently unwinding (its own finally block is what's
// executing right now, possibly running the very statement that
// produced this new completion), so it cannot catch its own overflow
// any more than dispatchThrow's tryPhaseFinally case lets a throw
// re-enter its own finally; it is popped here exactly as dispatchThrow
// pops it, and the next enclosing try (or none) gets the completion
// instead. Returns nil once the stack is exhausted.
func popToEnclosingTry(frame *Frame) *tryState {
	for len(frame.tryStack) > 0 {
		ts := frame.tryStack[len(frame.tryStack)-1]
		if ts.phase != tryPhaseFinally {
			return ts
		}
		frame.tryStack = frame.tryStack[:len(frame.tryStack)-1]
	}
	return nil
}

// resumePending is called once OpFinallyEnd has popped the try-stack
// entry whose finally just finished running, for whichever
// ControlFlowRecord (throw, return, or a break/continue mid-crossing)
// is still pending: a rethrow (the finally's try had no catch, or the
// catch itself threw) is offered to the next enclosing try exactly
// like a fresh OpThrow; a return keeps unwinding through any further
// enclosing try (handled identically to opReturn); a break/continue
// either keeps crossing (its Depth not yet zero) or is re-dispatched
// to its JumpTarget now that every intervening finally has run.
func (ip *Interp) resumePending(frame *Frame) error {
	pending := frame.pending
	switch pending.Reason {
	case runtime.ReasonThrow:
		frame.pending = nil
		if ip.dispatchThrow(frame, pending.Value) {
			return nil
		}
		return errs.Throw(pending.Value)
	case runtime.ReasonReturn:
		ts := popToEnclosingTry(frame)
		if ts == nil {
			return nil
		}
		ts.phase = tryPhaseFinally
		frame.truncate(ts.stackDepth)
		frame.jumpTo(ts.entry.FinallyIP)
		return nil
	case runtime.ReasonBreak, runtime.ReasonContinue:
		pending.Depth--
		if pending.Depth > 0 {
			if ts := popToEnclosingTry(frame); ts != nil {
				ts.phase = tryPhaseFinally
				frame.jumpTo(ts.entry.FinallyIP)
				return nil
			}
		}
		frame.pending = nil
		frame.jumpTo(pending.JumpTarget)
		return nil
	default:
		return errInternalf("resumePending: unexpected reason %v", pending.Reason)
	}
}

// opJumpComplexCase handles a break/continue whose target lies outside
// one or more active `finally` blocks: it starts (or continues) the
// same try-stack unwind a thrown exception uses, carrying the jump's
// eventual target in a ControlFlowRecord rather than a thrown value.
func (ip *Interp) opJumpComplexCase(frame *Frame) error {
	reason := frame.readU8()
	depth := int32(frame.readU16())
	target := int(frame.readU16())

	cfReason := runtime.ReasonBreak
	if bytecode.JumpReason(reason) == bytecode.ReasonJumpContinue {
		cfReason = runtime.ReasonContinue
	}
	frame.pending = &runtime.ControlFlowRecord{Reason: cfReason, Depth: depth, JumpTarget: target}
	ts := popToEnclosingTry(frame)
	if ts == nil {
		frame.pending = nil
		frame.jumpTo(target)
		return nil
	}
	ts.phase = tryPhaseFinally
	frame.jumpTo(ts.entry.FinallyIP)
	return nil
}

// dispatchThrow routes a thrown value through frame's live try-stack.
// It returns true once some entry has redirected control (the caller
// should simply let the dispatch loop continue from frame.ip), or
// false once the stack is exhausted and the exception must escape
// this frame as a Go error.
func (ip *Interp) dispatchThrow(frame *Frame, val runtime.Value) bool {
	for len(frame.tryStack) > 0 {
		ts := frame.tryStack[len(frame.tryStack)-1]
		switch ts.phase {
		case tryPhaseBody:
			if ts.entry.HasCatch {
				frame.truncate(ts.stackDepth)
				frame.push(val)
				ts.phase = tryPhaseCatch
				frame.jumpTo(ts.entry.CatchIP)
				return true
			}
			frame.truncate(ts.stackDepth)
			frame.pending = &runtime.ControlFlowRecord{Reason: runtime.ReasonThrow, Value: val}
			ts.phase = tryPhaseFinally
			frame.jumpTo(ts.entry.FinallyIP)
			return true
		case tryPhaseCatch:
			frame.truncate(ts.stackDepth)
			frame.pending = &runtime.ControlFlowRecord{Reason: runtime.ReasonThrow, Value: val}
			ts.phase = tryPhaseFinally
			frame.jumpTo(ts.entry.FinallyIP)
			return true
		case tryPhaseFinally:
			// This try's own finally is what's currently running (or
			// just threw); it cannot catch its own overflow, so it is
			// done and the next enclosing try gets a turn.
			frame.tryStack = frame.tryStack[:len(frame.tryStack)-1]
		}
	}
	return false
}
