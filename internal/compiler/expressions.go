package compiler

import (
	"escargot/internal/ast"
	"escargot/internal/bytecode"
	"escargot/internal/runtime"
)

// emitLoadResolved and emitStoreResolved are the single choke point
// every identifier reference goes through: a compile-time scope-chain
// walk (resolveIdentifier) decides whether the binding has a known
// (upCount, index) slot — in which case the access compiles to a
// direct indexed opcode — or must fall back to a dynamic by-name
// lookup against whatever environment record turns out to own it at
// run time (true globals, `with`-shadowed names, names introduced by
// `eval`). ActivationRecord implements IndexedEnvironment exactly like
// IndexedRecord does (see internal/runtime/environment.go), so a
// resolved slot stays valid regardless of whether its owning scope
// needs activation; only the opcode variant (fast fixed-layout access
// vs the interface-dispatched "WithActivation" access) depends on that
// flag.
func (c *Compiler) emitLoadResolved(name string, line, col int) {
	r := resolveIdentifier(c.scope, name)
	if r.found {
		op := bytecode.OpGetByIndex
		if r.ownerActivation {
			op = bytecode.OpGetByIndexWithActivation
		}
		c.emit(op, line, col)
		c.cb.Write(byte(r.upCount), line, col)
		c.cb.WriteUint16(uint16(r.index), line, col)
		return
	}
	c.emitGetById(name, false, line, col)
}

// emitGetById emits a dynamic by-name binding lookup. safe suppresses
// the ReferenceError an unbound name would otherwise throw, pushing
// Undefined instead — the one case ES5 needs this is `typeof` applied
// to an identifier that might not be bound at all (spec: `typeof x`
// never throws, even when `x` was never declared).
func (c *Compiler) emitGetById(name string, safe bool, line, col int) {
	c.emit(bytecode.OpGetById, line, col)
	c.cb.WriteUint16(c.stringConst(name), line, col)
	c.cb.WriteUint16(c.cb.NewICSite(), line, col)
	if safe {
		c.cb.Write(1, line, col)
	} else {
		c.cb.Write(0, line, col)
	}
}

// emitStoreResolved, the Set counterpart of emitLoadResolved. Every Set
// opcode only *peeks* the value to store (leaves it on the stack
// afterward) rather than consuming it: an assignment is itself an
// expression whose value is the assigned value, so emitting a bare
// `x = 1;` statement is exactly emit(Init); emitStoreResolved(x);
// Pop — the same sequence a `var x = 1;` declarator and an assignment
// expression both want, just with a different final consumer of the
// left-on-stack value.
func (c *Compiler) emitStoreResolved(name string, line, col int) {
	r := resolveIdentifier(c.scope, name)
	if r.found {
		op := bytecode.OpSetByIndex
		if r.ownerActivation {
			op = bytecode.OpSetByIndexWithActivation
		}
		c.emit(op, line, col)
		c.cb.Write(byte(r.upCount), line, col)
		c.cb.WriteUint16(uint16(r.index), line, col)
		return
	}
	c.emit(bytecode.OpSetById, line, col)
	c.cb.WriteUint16(c.stringConst(name), line, col)
	c.cb.WriteUint16(c.cb.NewICSite(), line, col)
}

var binaryOps = map[ast.BinaryOperator]bytecode.Opcode{
	ast.BinAdd:        bytecode.OpPlus,
	ast.BinSub:        bytecode.OpMinus,
	ast.BinMul:        bytecode.OpMultiply,
	ast.BinDiv:        bytecode.OpDivision,
	ast.BinMod:        bytecode.OpMod,
	ast.BinEq:         bytecode.OpEqual,
	ast.BinNeq:        bytecode.OpNotEqual,
	ast.BinStrictEq:   bytecode.OpStrictEqual,
	ast.BinStrictNeq:  bytecode.OpNotStrictEqual,
	ast.BinLt:         bytecode.OpLessThan,
	ast.BinLte:        bytecode.OpLessThanOrEqual,
	ast.BinGt:         bytecode.OpGreaterThan,
	ast.BinGte:        bytecode.OpGreaterThanOrEqual,
	ast.BinBitAnd:     bytecode.OpBitwiseAnd,
	ast.BinBitOr:      bytecode.OpBitwiseOr,
	ast.BinBitXor:     bytecode.OpBitwiseXor,
	ast.BinLShift:     bytecode.OpLeftShift,
	ast.BinRShift:     bytecode.OpSignedRightShift,
	ast.BinURShift:    bytecode.OpUnsignedRightShift,
	ast.BinIn:         bytecode.OpStringIn,
	ast.BinInstanceOf: bytecode.OpInstanceOf,
}

// compoundOps maps a compound assignment's "op=" to the binary opcode
// that combines old-value and rhs (AssignPlain has no entry, it never
// reaches this table).
var compoundOps = map[ast.AssignOperator]bytecode.Opcode{
	ast.AssignAdd:     bytecode.OpPlus,
	ast.AssignSub:     bytecode.OpMinus,
	ast.AssignMul:     bytecode.OpMultiply,
	ast.AssignDiv:     bytecode.OpDivision,
	ast.AssignMod:     bytecode.OpMod,
	ast.AssignBitAnd:  bytecode.OpBitwiseAnd,
	ast.AssignBitOr:   bytecode.OpBitwiseOr,
	ast.AssignBitXor:  bytecode.OpBitwiseXor,
	ast.AssignLShift:  bytecode.OpLeftShift,
	ast.AssignRShift:  bytecode.OpSignedRightShift,
	ast.AssignURShift: bytecode.OpUnsignedRightShift,
}

func (c *Compiler) emitExpression(e ast.Expression) error {
	switch n := e.(type) {
	case *ast.Identifier:
		c.emitLoadResolved(n.Name, n.Line, n.Column)
		return nil
	case *ast.NullLiteral:
		c.cb.WriteConstant(runtime.Null(), n.Line, n.Column)
		return nil
	case *ast.BooleanLiteral:
		c.cb.WriteConstant(runtime.Bool(n.Value), n.Line, n.Column)
		return nil
	case *ast.NumberLiteral:
		c.cb.WriteConstant(runtime.Number(n.Value), n.Line, n.Column)
		return nil
	case *ast.StringLiteral:
		idx := c.stringConst(n.Value)
		c.emit(bytecode.OpPush, n.Line, n.Column)
		c.cb.WriteUint16(idx, n.Line, n.Column)
		return nil
	case *ast.RegexLiteral:
		v := runtime.FromPointer(runtime.NewRegExp(runtime.Undefined(), n.Pattern, n.Flags))
		c.cb.WriteConstant(v, n.Line, n.Column)
		return nil
	case *ast.ThisExpression:
		c.emit(bytecode.OpThis, n.Line, n.Column)
		return nil
	case *ast.BinaryExpression:
		return c.emitBinary(n)
	case *ast.LogicalExpression:
		return c.emitLogical(n)
	case *ast.AssignmentExpression:
		return c.emitAssignment(n)
	case *ast.UnaryExpression:
		return c.emitUnary(n)
	case *ast.UpdateExpression:
		return c.emitUpdate(n)
	case *ast.ConditionalExpression:
		return c.emitConditional(n)
	case *ast.SequenceExpression:
		for i, sub := range n.Expressions {
			if err := c.emitExpression(sub); err != nil {
				return err
			}
			if i != len(n.Expressions)-1 {
				c.emit(bytecode.OpPop, n.Line, n.Column)
			}
		}
		return nil
	case *ast.MemberExpression:
		return c.emitMemberRead(n)
	case *ast.CallExpression:
		return c.emitCall(n)
	case *ast.NewExpression:
		return c.emitNew(n)
	case *ast.ObjectExpression:
		return c.emitObjectLiteral(n)
	case *ast.ArrayExpression:
		return c.emitArrayLiteral(n)
	case *ast.FunctionExpression:
		return c.emitFunctionLiteral(n)
	default:
		return c.errf(e.Pos(), "compiler: unhandled expression %T", e)
	}
}

func (c *Compiler) emitBinary(n *ast.BinaryExpression) error {
	if err := c.emitExpression(n.Left); err != nil {
		return err
	}
	if err := c.emitExpression(n.Right); err != nil {
		return err
	}
	op, ok := binaryOps[n.Operator]
	if !ok {
		return c.errf(n.Position, "compiler: unknown binary operator %v", n.Operator)
	}
	c.emit(op, n.Line, n.Column)
	return nil
}

// emitLogical compiles && / || with the short-circuit peeking jumps:
// JumpIfFalseWithPeeking/JumpIfTrueWithPeeking leave the tested value
// on the stack and jump without popping it when the branch is taken,
// otherwise pop it and fall through to evaluate Right, whose value
// becomes the expression's result either way.
func (c *Compiler) emitLogical(n *ast.LogicalExpression) error {
	if err := c.emitExpression(n.Left); err != nil {
		return err
	}
	op := bytecode.OpJumpIfFalseWithPeeking
	if n.Operator == ast.LogOr {
		op = bytecode.OpJumpIfTrueWithPeeking
	}
	end := c.emitJump(op, n.Line, n.Column)
	if err := c.emitExpression(n.Right); err != nil {
		return err
	}
	c.patchJump(end)
	return nil
}

func (c *Compiler) emitConditional(n *ast.ConditionalExpression) error {
	if err := c.emitExpression(n.Test); err != nil {
		return err
	}
	elseJump := c.emitJump(bytecode.OpJumpIfFalse, n.Line, n.Column)
	if err := c.emitExpression(n.Consequent); err != nil {
		return err
	}
	endJump := c.emitJump(bytecode.OpJump, n.Line, n.Column)
	c.patchJump(elseJump)
	if err := c.emitExpression(n.Alternate); err != nil {
		return err
	}
	c.patchJump(endJump)
	return nil
}

// emitMemberRead compiles a MemberExpression read (not an assignment
// target). Named access resolves the property name to a constant and
// an inline-cache site at compile time (OpGetObjectPreComputed);
// computed access pushes the key expression's value and uses the
// generic OpGetObject, since the key is not known until run time.
func (c *Compiler) emitMemberRead(n *ast.MemberExpression) error {
	if err := c.emitExpression(n.Object); err != nil {
		return err
	}
	if n.Computed {
		if err := c.emitExpression(n.Property); err != nil {
			return err
		}
		c.emit(bytecode.OpGetObject, n.Line, n.Column)
		return nil
	}
	name, err := c.propertyName(n.Property)
	if err != nil {
		return err
	}
	c.emit(bytecode.OpGetObjectPreComputed, n.Line, n.Column)
	c.cb.WriteUint16(c.stringConst(name), n.Line, n.Column)
	c.cb.WriteUint16(c.cb.NewICSite(), n.Line, n.Column)
	return nil
}

// propertyName extracts the literal name of a non-computed member
// access's Property node (always *ast.Identifier per the parser).
func (c *Compiler) propertyName(p ast.Expression) (string, error) {
	id, ok := p.(*ast.Identifier)
	if !ok {
		return "", c.errf(p.Pos(), "compiler: non-computed member property must be an identifier")
	}
	return id.Name, nil
}

// emitAssignment compiles both plain (`=`) and compound (`op=`)
// assignment, dispatching on the target's shape. Identifier targets go
// through emitStoreResolved, exactly like a VariableDeclarator's
// initializer. Member targets are handled by emitMemberAssign.
func (c *Compiler) emitAssignment(n *ast.AssignmentExpression) error {
	switch target := n.Target.(type) {
	case *ast.Identifier:
		if n.Operator == ast.AssignPlain {
			if err := c.emitExpression(n.Value); err != nil {
				return err
			}
			c.emitStoreResolved(target.Name, n.Line, n.Column)
			return nil
		}
		c.emitLoadResolved(target.Name, n.Line, n.Column)
		if err := c.emitExpression(n.Value); err != nil {
			return err
		}
		op, ok := compoundOps[n.Operator]
		if !ok {
			return c.errf(n.Position, "compiler: unknown compound assignment operator %v", n.Operator)
		}
		c.emit(op, n.Line, n.Column)
		c.emitStoreResolved(target.Name, n.Line, n.Column)
		return nil
	case *ast.MemberExpression:
		return c.emitMemberAssign(target, n.Operator, n.Value)
	default:
		return c.errf(n.Position, "compiler: invalid assignment target %T", n.Target)
	}
}

// emitMemberAssign compiles an assignment (plain or compound) whose
// target is obj.prop or obj[key]. Named targets reuse the object
// value via OpDup since only one extra stack slot is needed; computed
// targets stash the evaluated object and key into hidden per-call
// local bindings (see Compiler.newTemp) so that, whatever the sequence
// of Get/combine/Set operations a compound assignment needs, the
// Object and Property subexpressions still run exactly once each, per
// ECMA-262's reference-evaluation semantics.
func (c *Compiler) emitMemberAssign(target *ast.MemberExpression, op ast.AssignOperator, value ast.Expression) error {
	line, col := target.Line, target.Column
	if !target.Computed {
		name, err := c.propertyName(target.Property)
		if err != nil {
			return err
		}
		if err := c.emitExpression(target.Object); err != nil {
			return err
		}
		if op == ast.AssignPlain {
			if err := c.emitExpression(value); err != nil {
				return err
			}
			c.emit(bytecode.OpSetObjectPreComputed, line, col)
			c.cb.WriteUint16(c.stringConst(name), line, col)
			c.cb.WriteUint16(c.cb.NewICSite(), line, col)
			return nil
		}
		c.emit(bytecode.OpDup, line, col)
		c.emit(bytecode.OpGetObjectPreComputed, line, col)
		c.cb.WriteUint16(c.stringConst(name), line, col)
		c.cb.WriteUint16(c.cb.NewICSite(), line, col)
		if err := c.emitExpression(value); err != nil {
			return err
		}
		combine, ok := compoundOps[op]
		if !ok {
			return c.errf(target.Position, "compiler: unknown compound assignment operator %v", op)
		}
		c.emit(combine, line, col)
		c.emit(bytecode.OpSetObjectPreComputed, line, col)
		c.cb.WriteUint16(c.stringConst(name), line, col)
		c.cb.WriteUint16(c.cb.NewICSite(), line, col)
		return nil
	}

	tmpObj, tmpKey := c.newTemp(), c.newTemp()
	c.scope.declare(tmpObj)
	c.scope.declare(tmpKey)
	if err := c.emitExpression(target.Object); err != nil {
		return err
	}
	c.emitStoreResolved(tmpObj, line, col)
	c.emit(bytecode.OpPop, line, col)
	if err := c.emitExpression(target.Property); err != nil {
		return err
	}
	c.emitStoreResolved(tmpKey, line, col)
	c.emit(bytecode.OpPop, line, col)

	if op != ast.AssignPlain {
		c.emitLoadResolved(tmpObj, line, col)
		c.emitLoadResolved(tmpKey, line, col)
		c.emit(bytecode.OpGetObject, line, col)
	}
	if err := c.emitExpression(value); err != nil {
		return err
	}
	if op != ast.AssignPlain {
		combine, ok := compoundOps[op]
		if !ok {
			return c.errf(target.Position, "compiler: unknown compound assignment operator %v", op)
		}
		c.emit(combine, line, col)
	}
	// Stack is [value]; SetObject's contract is [value, obj, key] —
	// obj and key pushed last so the opcode can pop key then obj and
	// leave value as the expression's result.
	c.emitLoadResolved(tmpObj, line, col)
	c.emitLoadResolved(tmpKey, line, col)
	c.emit(bytecode.OpSetObject, line, col)
	return nil
}

// emitUnary compiles the prefix unary operators. typeof on a bare
// identifier is the one ES5 expression that must not throw even when
// the name is entirely unbound, so it routes through emitGetById's
// safe flag instead of emitLoadResolved's dynamic-fallback path; every
// other shape of argument (including typeof on a statically resolved
// local, which can never be "unbound") just evaluates normally.
func (c *Compiler) emitUnary(n *ast.UnaryExpression) error {
	if n.Operator == ast.UnaryDelete {
		return c.emitDelete(n)
	}
	if n.Operator == ast.UnaryTypeof {
		if id, ok := n.Argument.(*ast.Identifier); ok {
			r := resolveIdentifier(c.scope, id.Name)
			if r.found {
				c.emitLoadResolved(id.Name, n.Line, n.Column)
			} else {
				c.emitGetById(id.Name, true, n.Line, n.Column)
			}
			c.emit(bytecode.OpUnaryTypeOf, n.Line, n.Column)
			return nil
		}
	}
	if err := c.emitExpression(n.Argument); err != nil {
		return err
	}
	switch n.Operator {
	case ast.UnaryMinus:
		c.emit(bytecode.OpUnaryMinus, n.Line, n.Column)
	case ast.UnaryPlus:
		c.emit(bytecode.OpUnaryPlus, n.Line, n.Column)
	case ast.UnaryNot:
		c.emit(bytecode.OpUnaryNot, n.Line, n.Column)
	case ast.UnaryBitNot:
		c.emit(bytecode.OpUnaryBitNot, n.Line, n.Column)
	case ast.UnaryTypeof:
		c.emit(bytecode.OpUnaryTypeOf, n.Line, n.Column)
	case ast.UnaryVoid:
		c.emit(bytecode.OpUnaryVoid, n.Line, n.Column)
	default:
		return c.errf(n.Position, "compiler: unknown unary operator %v", n.Operator)
	}
	return nil
}

// emitDelete handles `delete`. A bare identifier target always
// compiles to the literal `false`: ES5 var/function bindings and
// function parameters are non-configurable own properties of their
// environment record, so `delete x` can never actually remove a
// statically resolved local, and the rare case of an implicit global
// created by a bare assignment is left unimplemented here (noted in
// DESIGN.md) rather than threading a global-object delete path through
// the by-name opcodes for a construct real-world ES5 code essentially
// never uses in non-strict mode.
func (c *Compiler) emitDelete(n *ast.UnaryExpression) error {
	member, ok := n.Argument.(*ast.MemberExpression)
	if !ok {
		c.cb.WriteConstant(runtime.Bool(false), n.Line, n.Column)
		return nil
	}
	if err := c.emitExpression(member.Object); err != nil {
		return err
	}
	if member.Computed {
		if err := c.emitExpression(member.Property); err != nil {
			return err
		}
	} else {
		name, err := c.propertyName(member.Property)
		if err != nil {
			return err
		}
		c.cb.WriteConstant(runtime.NewString(name), n.Line, n.Column)
	}
	c.emit(bytecode.OpUnaryDelete, n.Line, n.Column)
	return nil
}

// emitUpdate compiles prefix/postfix ++ and --. Named-member and
// identifier targets need only one extra stack slot (via OpDup) to
// read-then-write through the same reference; computed-member targets
// reuse the hidden-local technique from emitMemberAssign.
func (c *Compiler) emitUpdate(n *ast.UpdateExpression) error {
	line, col := n.Line, n.Column
	incDec := bytecode.OpIncrement
	if n.Operator == ast.UpdateDecrement {
		incDec = bytecode.OpDecrement
	}

	switch target := n.Argument.(type) {
	case *ast.Identifier:
		c.emitLoadResolved(target.Name, line, col)
		c.emit(bytecode.OpToNumber, line, col)
		if n.Prefix {
			c.emit(incDec, line, col)
			c.emitStoreResolved(target.Name, line, col)
			return nil
		}
		c.emit(bytecode.OpDup, line, col)
		c.emit(incDec, line, col)
		c.emitStoreResolved(target.Name, line, col)
		c.emit(bytecode.OpPop, line, col)
		return nil
	case *ast.MemberExpression:
		if !target.Computed {
			name, err := c.propertyName(target.Property)
			if err != nil {
				return err
			}
			if err := c.emitExpression(target.Object); err != nil {
				return err
			}
			c.emit(bytecode.OpDup, line, col)
			c.emit(bytecode.OpGetObjectPreComputed, line, col)
			c.cb.WriteUint16(c.stringConst(name), line, col)
			c.cb.WriteUint16(c.cb.NewICSite(), line, col)
			c.emit(bytecode.OpToNumber, line, col)
			if n.Prefix {
				c.emit(incDec, line, col)
				c.emit(bytecode.OpSetObjectPreComputed, line, col)
				c.cb.WriteUint16(c.stringConst(name), line, col)
				c.cb.WriteUint16(c.cb.NewICSite(), line, col)
				return nil
			}
			c.emit(bytecode.OpDup, line, col)
			c.emit(bytecode.OpPushToTemp, line, col)
			c.emit(incDec, line, col)
			c.emit(bytecode.OpSetObjectPreComputed, line, col)
			c.cb.WriteUint16(c.stringConst(name), line, col)
			c.cb.WriteUint16(c.cb.NewICSite(), line, col)
			c.emit(bytecode.OpPop, line, col)
			c.emit(bytecode.OpPopFromTemp, line, col)
			return nil
		}

		tmpObj, tmpKey := c.newTemp(), c.newTemp()
		c.scope.declare(tmpObj)
		c.scope.declare(tmpKey)
		if err := c.emitExpression(target.Object); err != nil {
			return err
		}
		c.emitStoreResolved(tmpObj, line, col)
		c.emit(bytecode.OpPop, line, col)
		if err := c.emitExpression(target.Property); err != nil {
			return err
		}
		c.emitStoreResolved(tmpKey, line, col)
		c.emit(bytecode.OpPop, line, col)

		c.emitLoadResolved(tmpObj, line, col)
		c.emitLoadResolved(tmpKey, line, col)
		c.emit(bytecode.OpGetObject, line, col)
		c.emit(bytecode.OpToNumber, line, col)
		if n.Prefix {
			c.emit(incDec, line, col)
			c.emitLoadResolved(tmpObj, line, col)
			c.emitLoadResolved(tmpKey, line, col)
			c.emit(bytecode.OpSetObject, line, col)
			return nil
		}
		c.emit(bytecode.OpDup, line, col)
		c.emit(bytecode.OpPushToTemp, line, col)
		c.emit(incDec, line, col)
		c.emitLoadResolved(tmpObj, line, col)
		c.emitLoadResolved(tmpKey, line, col)
		c.emit(bytecode.OpSetObject, line, col)
		c.emit(bytecode.OpPop, line, col)
		c.emit(bytecode.OpPopFromTemp, line, col)
		return nil
	default:
		return c.errf(n.Position, "compiler: invalid update target %T", n.Argument)
	}
}

// emitCall compiles a function call, special-casing a MemberExpression
// callee so the receiver (the object the method was looked up on)
// becomes `this` inside the call, and a direct `eval(...)` callee so
// the interpreter can give it access to the calling scope.
func (c *Compiler) emitCall(n *ast.CallExpression) error {
	line, col := n.Line, n.Column
	if id, ok := n.Callee.(*ast.Identifier); ok && id.Name == "eval" {
		if _, found := c.scope.has("eval"); !found {
			c.emit(bytecode.OpPrepareFunctionCall, line, col)
			c.emitLoadResolved(id.Name, line, col)
			c.cb.WriteConstant(runtime.Undefined(), line, col)
			c.emit(bytecode.OpPushFunctionCallReceiver, line, col)
			for _, a := range n.Arguments {
				if err := c.emitExpression(a); err != nil {
					return err
				}
			}
			c.emit(bytecode.OpCallEvalFunction, line, col)
			c.cb.WriteUint16(uint16(len(n.Arguments)), line, col)
			return nil
		}
	}

	c.emit(bytecode.OpPrepareFunctionCall, line, col)
	if member, ok := n.Callee.(*ast.MemberExpression); ok {
		if err := c.emitExpression(member.Object); err != nil {
			return err
		}
		c.emit(bytecode.OpDup, line, col)
		if member.Computed {
			if err := c.emitExpression(member.Property); err != nil {
				return err
			}
			c.emit(bytecode.OpGetObject, line, col)
		} else {
			name, err := c.propertyName(member.Property)
			if err != nil {
				return err
			}
			c.emit(bytecode.OpGetObjectPreComputed, line, col)
			c.cb.WriteUint16(c.stringConst(name), line, col)
			c.cb.WriteUint16(c.cb.NewICSite(), line, col)
		}
		// Stack: [receiver, fn]. PushFunctionCallReceiver expects the
		// receiver on top, so stash fn in the temp stack momentarily.
		c.emit(bytecode.OpPushToTemp, line, col)
		c.emit(bytecode.OpPushFunctionCallReceiver, line, col)
		c.emit(bytecode.OpPopFromTemp, line, col)
	} else {
		if err := c.emitExpression(n.Callee); err != nil {
			return err
		}
		c.cb.WriteConstant(runtime.Undefined(), line, col)
		c.emit(bytecode.OpPushFunctionCallReceiver, line, col)
	}
	for _, a := range n.Arguments {
		if err := c.emitExpression(a); err != nil {
			return err
		}
	}
	c.emit(bytecode.OpCallFunction, line, col)
	c.cb.WriteUint16(uint16(len(n.Arguments)), line, col)
	return nil
}

func (c *Compiler) emitNew(n *ast.NewExpression) error {
	line, col := n.Line, n.Column
	c.emit(bytecode.OpPrepareFunctionCall, line, col)
	if err := c.emitExpression(n.Callee); err != nil {
		return err
	}
	c.cb.WriteConstant(runtime.Undefined(), line, col)
	c.emit(bytecode.OpPushFunctionCallReceiver, line, col)
	for _, a := range n.Arguments {
		if err := c.emitExpression(a); err != nil {
			return err
		}
	}
	c.emit(bytecode.OpNewFunctionCall, line, col)
	c.cb.WriteUint16(uint16(len(n.Arguments)), line, col)
	return nil
}

// emitObjectLiteral compiles an object literal. Property construction
// uses OpInitObject rather than OpSetObject/OpSetObjectPreComputed:
// literal properties are always own-property definitions (no
// prototype-chain walk, no setter dispatch), the same distinction the
// data-model invariants draw between "define" and "[[Set]]".
func (c *Compiler) emitObjectLiteral(n *ast.ObjectExpression) error {
	c.emit(bytecode.OpCreateObject, n.Line, n.Column)
	for _, p := range n.Properties {
		c.emit(bytecode.OpDup, n.Line, n.Column)
		var nameIdx uint16
		switch key := p.Key.(type) {
		case *ast.Identifier:
			nameIdx = c.stringConst(key.Name)
		case *ast.StringLiteral:
			nameIdx = c.stringConst(key.Value)
		case *ast.NumberLiteral:
			nameIdx = c.stringConst(ast.NumberToString(key.Value))
		default:
			return c.errf(p.Key.Pos(), "compiler: invalid object literal key %T", p.Key)
		}
		if err := c.emitExpression(p.Value); err != nil {
			return err
		}
		switch p.Kind {
		case ast.PropertyGet:
			c.emit(bytecode.OpSetObjectPropertyGetter, n.Line, n.Column)
		case ast.PropertySet:
			c.emit(bytecode.OpSetObjectPropertySetter, n.Line, n.Column)
		default:
			c.emit(bytecode.OpInitObject, n.Line, n.Column)
		}
		c.cb.WriteUint16(nameIdx, n.Line, n.Column)
		c.emit(bytecode.OpPop, n.Line, n.Column)
	}
	return nil
}

// emitArrayLiteral compiles an array literal. A nil Elements entry is
// an elision (`[1,,3]`); it leaves the corresponding index unset
// rather than writing an Empty sentinel value, matching ES5's
// distinction between a hole and an explicit `undefined` element.
func (c *Compiler) emitArrayLiteral(n *ast.ArrayExpression) error {
	c.emit(bytecode.OpCreateArray, n.Line, n.Column)
	c.cb.WriteUint16(uint16(len(n.Elements)), n.Line, n.Column)
	for i, el := range n.Elements {
		if el == nil {
			continue
		}
		c.emit(bytecode.OpDup, n.Line, n.Column)
		if err := c.emitExpression(el); err != nil {
			return err
		}
		c.emit(bytecode.OpInitObject, n.Line, n.Column)
		c.cb.WriteUint16(c.stringConst(ast.NumberToString(float64(i))), n.Line, n.Column)
		c.emit(bytecode.OpPop, n.Line, n.Column)
	}
	return nil
}

func (c *Compiler) emitFunctionLiteral(n *ast.FunctionExpression) error {
	inner, err := CompileFunction(n, c.scope)
	if err != nil {
		return err
	}
	idx := c.cb.AddConstant(bytecode.NewCodeBlockConstant(inner))
	c.emit(bytecode.OpPush, n.Line, n.Column)
	c.cb.WriteUint16(idx, n.Line, n.Column)
	c.emit(bytecode.OpCreateFunction, n.Line, n.Column)
	return nil
}
