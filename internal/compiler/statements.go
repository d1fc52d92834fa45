package compiler

import (
	"escargot/internal/ast"
	"escargot/internal/bytecode"
)

func (c *Compiler) emitStatement(s ast.Statement) error {
	switch n := s.(type) {
	case *ast.BlockStatement:
		return c.compileStatementsInline(n.Body)
	case *ast.ExpressionStatement:
		if err := c.emitExpression(n.Expression); err != nil {
			return err
		}
		c.emit(bytecode.OpPopExpressionStatement, n.Line, n.Column)
		return nil
	case *ast.EmptyStatement, *ast.DebuggerStatement:
		return nil
	case *ast.VariableDeclaration:
		for _, d := range n.Declarations {
			if d.Init == nil {
				continue
			}
			if err := c.emitExpression(d.Init); err != nil {
				return err
			}
			c.emitStoreResolved(d.Name, d.Line, d.Column)
			c.emit(bytecode.OpPop, d.Line, d.Column)
		}
		return nil
	case *ast.IfStatement:
		return c.emitIf(n)
	case *ast.WhileStatement:
		return c.emitWhile(n, "")
	case *ast.DoWhileStatement:
		return c.emitDoWhile(n, "")
	case *ast.ForStatement:
		return c.emitFor(n, "")
	case *ast.ForInStatement:
		return c.emitForIn(n, "")
	case *ast.ReturnStatement:
		if n.Argument == nil {
			c.emit(bytecode.OpReturnFunction, n.Line, n.Column)
			return nil
		}
		if err := c.emitExpression(n.Argument); err != nil {
			return err
		}
		c.emit(bytecode.OpReturnFunctionWithValue, n.Line, n.Column)
		return nil
	case *ast.BreakStatement:
		return c.emitBreak(n)
	case *ast.ContinueStatement:
		return c.emitContinue(n)
	case *ast.ThrowStatement:
		if err := c.emitExpression(n.Argument); err != nil {
			return err
		}
		c.emit(bytecode.OpThrow, n.Line, n.Column)
		return nil
	case *ast.TryStatement:
		return c.emitTry(n)
	case *ast.SwitchStatement:
		return c.emitSwitch(n, "")
	case *ast.LabeledStatement:
		return c.emitLabeled(n)
	case *ast.WithStatement:
		return c.emitWith(n)
	case *ast.FunctionDeclaration:
		// Already bound by compileBody's hoisting pre-pass.
		return nil
	default:
		return c.errf(s.Pos(), "compiler: unhandled statement %T", s)
	}
}

// compileStatementsInline emits a block's statements without opening a
// new compile-time scope: ES5 has no block scoping, so `{ var x; }`
// declares x in the enclosing function, already handled by the
// hoisting pre-pass that ran once at function entry.
func (c *Compiler) compileStatementsInline(stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := c.emitStatement(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) emitIf(n *ast.IfStatement) error {
	if err := c.emitExpression(n.Test); err != nil {
		return err
	}
	elseJump := c.emitJump(bytecode.OpJumpIfFalse, n.Line, n.Column)
	if err := c.emitStatement(n.Consequent); err != nil {
		return err
	}
	if n.Alternate == nil {
		c.patchJump(elseJump)
		return nil
	}
	endJump := c.emitJump(bytecode.OpJump, n.Line, n.Column)
	c.patchJump(elseJump)
	if err := c.emitStatement(n.Alternate); err != nil {
		return err
	}
	c.patchJump(endJump)
	return nil
}

func (c *Compiler) pushLoop(label string) *loopFrame {
	lf := &loopFrame{label: label, continueAt: -1, tryDepthAtEntry: c.tryDepth}
	c.loops = append(c.loops, lf)
	return lf
}

func (c *Compiler) popLoop() *loopFrame {
	lf := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	return lf
}

func (c *Compiler) currentLoop(label string) *loopFrame {
	if label == "" {
		if len(c.loops) == 0 {
			return nil
		}
		return c.loops[len(c.loops)-1]
	}
	for i := len(c.loops) - 1; i >= 0; i-- {
		if c.loops[i].label == label {
			return c.loops[i]
		}
	}
	return nil
}

func (c *Compiler) emitWhile(n *ast.WhileStatement, label string) error {
	lf := c.pushLoop(label)
	top := c.cb.Len()
	lf.continueAt = top
	if err := c.emitExpression(n.Test); err != nil {
		return err
	}
	exitJump := c.emitJump(bytecode.OpJumpIfFalse, n.Line, n.Column)
	c.emit(bytecode.OpLoopStart, n.Line, n.Column)
	if err := c.emitStatement(n.Body); err != nil {
		return err
	}
	c.emitJumpTo(bytecode.OpJump, top, n.Line, n.Column)
	c.patchJump(exitJump)
	lf = c.popLoop()
	c.patchJumpList(lf.breaks)
	return nil
}

func (c *Compiler) emitDoWhile(n *ast.DoWhileStatement, label string) error {
	lf := c.pushLoop(label)
	top := c.cb.Len()
	if err := c.emitStatement(n.Body); err != nil {
		return err
	}
	continueAt := c.cb.Len()
	lf.continueAt = continueAt
	if err := c.emitExpression(n.Test); err != nil {
		return err
	}
	c.emitJumpTo(bytecode.OpJumpIfTrue, top, n.Line, n.Column)
	lf = c.popLoop()
	c.patchJumpList(lf.continues)
	c.patchJumpList(lf.breaks)
	return nil
}

func (c *Compiler) emitFor(n *ast.ForStatement, label string) error {
	switch init := n.Init.(type) {
	case *ast.VariableDeclaration:
		if err := c.emitStatement(init); err != nil {
			return err
		}
	case ast.Expression:
		if err := c.emitExpression(init); err != nil {
			return err
		}
		c.emit(bytecode.OpPop, n.Line, n.Column)
	}

	lf := c.pushLoop(label)
	top := c.cb.Len()
	var exitJump int
	hasTest := n.Test != nil
	if hasTest {
		if err := c.emitExpression(n.Test); err != nil {
			return err
		}
		exitJump = c.emitJump(bytecode.OpJumpIfFalse, n.Line, n.Column)
	}
	c.emit(bytecode.OpLoopStart, n.Line, n.Column)
	if err := c.emitStatement(n.Body); err != nil {
		return err
	}
	continueAt := c.cb.Len()
	lf.continueAt = continueAt
	if n.Update != nil {
		if err := c.emitExpression(n.Update); err != nil {
			return err
		}
		c.emit(bytecode.OpPop, n.Line, n.Column)
	}
	c.emitJumpTo(bytecode.OpJump, top, n.Line, n.Column)
	if hasTest {
		c.patchJump(exitJump)
	}
	lf = c.popLoop()
	c.patchJumpList(lf.breaks)
	c.patchContinueList(lf.continues, continueAt)
	return nil
}

// emitForIn compiles a for-in statement. OpEnumerateObjectKey leaves
// either the next key or the literal false (exhausted) on top of the
// enumeration state. The exit test uses JumpIfTrueWithPeeking rather
// than the more obvious JumpIfFalseWithPeeking: that opcode peeks
// (keeps the tested value on the stack) on the branch it *takes* and
// pops it on the branch it falls through, and it's the truthy
// (non-exhausted) case that needs its value to survive into
// emitStoreResolved below, so the jump must be taken precisely when
// the key is truthy. Exhaustion and `break` converge on the same
// cleanup sequence (discard the enumeration state, then leave).
func (c *Compiler) emitForIn(n *ast.ForInStatement, label string) error {
	if err := c.emitExpression(n.Right); err != nil {
		return err
	}
	c.emit(bytecode.OpEnumerateObject, n.Line, n.Column)

	lf := c.pushLoop(label)
	top := c.cb.Len()
	lf.continueAt = top
	c.emit(bytecode.OpEnumerateObjectKey, n.Line, n.Column)
	continueJump := c.emitJump(bytecode.OpJumpIfTrueWithPeeking, n.Line, n.Column)

	cleanup := c.cb.Len()
	c.emit(bytecode.OpPop, n.Line, n.Column) // discard enumeration state
	exitJump := c.emitJump(bytecode.OpJump, n.Line, n.Column)

	c.patchJump(continueJump)
	switch left := n.Left.(type) {
	case *ast.Identifier:
		c.emitStoreResolved(left.Name, n.Line, n.Column)
	case *ast.VariableDeclaration:
		c.emitStoreResolved(left.Declarations[0].Name, n.Line, n.Column)
	}
	c.emit(bytecode.OpPop, n.Line, n.Column)

	if err := c.emitStatement(n.Body); err != nil {
		return err
	}
	c.emitJumpTo(bytecode.OpJump, top, n.Line, n.Column)
	c.patchJump(exitJump)
	lf = c.popLoop()
	c.patchContinueList(lf.breaks, cleanup)
	return nil
}

func (c *Compiler) patchJumpList(list jumpList) {
	for _, pos := range list {
		c.patchJump(pos)
	}
}

func (c *Compiler) patchContinueList(list jumpList, target int) {
	for _, pos := range list {
		c.patchJumpTo(pos, target)
	}
}

// crossesFinally reports whether a break/continue targeting lf must
// first run one or more intervening `finally` blocks (the loop was
// entered before the try statement the break/continue sits inside),
// along with how many try levels stand between the two.
func (c *Compiler) crossesFinally(lf *loopFrame) (int, bool) {
	depth := c.tryDepth - lf.tryDepthAtEntry
	return depth, depth > 0
}

func (c *Compiler) emitBreak(n *ast.BreakStatement) error {
	lf := c.currentLoop(n.Label)
	if lf == nil {
		return c.errf(n.Position, "illegal break statement")
	}
	if depth, crosses := c.crossesFinally(lf); crosses {
		pos := c.emitComplexJump(bytecode.ReasonJumpBreak, depth, n.Line, n.Column)
		lf.breaks = append(lf.breaks, pos)
		return nil
	}
	pos := c.emitJump(bytecode.OpJump, n.Line, n.Column)
	lf.breaks = append(lf.breaks, pos)
	return nil
}

func (c *Compiler) emitContinue(n *ast.ContinueStatement) error {
	lf := c.currentLoop(n.Label)
	if lf == nil {
		return c.errf(n.Position, "illegal continue statement")
	}
	depth, crosses := c.crossesFinally(lf)
	if crosses {
		if lf.continueAt >= 0 {
			c.emitComplexJumpTo(bytecode.ReasonJumpContinue, depth, lf.continueAt, n.Line, n.Column)
			return nil
		}
		pos := c.emitComplexJump(bytecode.ReasonJumpContinue, depth, n.Line, n.Column)
		lf.continues = append(lf.continues, pos)
		return nil
	}
	if lf.continueAt >= 0 {
		c.emitJumpTo(bytecode.OpJump, lf.continueAt, n.Line, n.Column)
		return nil
	}
	pos := c.emitJump(bytecode.OpJump, n.Line, n.Column)
	lf.continues = append(lf.continues, pos)
	return nil
}

// emitComplexJump writes OpJumpComplexCase <reason:u8> <depth:u16>
// <target:u16> and returns the offset of the target operand, so the
// caller can patch it into a break/continue jump list exactly like a
// plain OpJump. The interpreter runs `depth` levels of pending
// `finally` blocks (via the current frame's try-stack) before handing
// control to target.
func (c *Compiler) emitComplexJump(reason bytecode.JumpReason, depth, line, col int) int {
	c.cb.WriteOp(bytecode.OpJumpComplexCase, line, col)
	c.cb.Write(byte(reason), line, col)
	c.cb.WriteUint16(uint16(depth), line, col)
	pos := c.cb.Len()
	c.cb.WriteUint16(0, line, col)
	return pos
}

func (c *Compiler) emitComplexJumpTo(reason bytecode.JumpReason, depth, target, line, col int) {
	pos := c.emitComplexJump(reason, depth, line, col)
	c.patchJumpTo(pos, target)
}

// emitTry lowers try/catch/finally. OpTry/OpTryCatchBodyEnd carry a
// TryTable index rather than an inline jump offset: the interpreter
// needs both the catch IP (to dispatch an in-flight exception) and the
// finally IP (to run on every path, including a cross-finally
// break/continue/return via OpJumpComplexCase) from one runtime
// try-stack entry, not just the one offset a plain jump operand could
// carry. A try with no source `finally` still gets a finally region
// (empty, immediately followed by OpFinallyEnd) so every exit path —
// normal completion, caught exception, uncaught exception, and
// cross-finally control flow — goes through the same FinallyIP.
func (c *Compiler) emitTry(n *ast.TryStatement) error {
	idx := c.cb.NewTryEntry(n.Handler != nil)
	c.emit(bytecode.OpTry, n.Line, n.Column)
	c.cb.WriteUint16(uint16(idx), n.Line, n.Column)

	c.tryDepth++
	if err := c.compileStatementsInline(n.Block.Body); err != nil {
		return err
	}
	c.tryDepth--

	c.emit(bytecode.OpTryCatchBodyEnd, n.Line, n.Column)
	c.cb.WriteUint16(uint16(idx), n.Line, n.Column)

	if n.Handler != nil {
		c.cb.SetTryCatchIP(idx, c.cb.Len())
		// The interpreter pushes the thrown value before dispatching
		// here, whether from an exception in the try block or from a
		// pending cross-finally rethrow.
		c.scope.declare(n.Handler.Param)
		c.emitStoreResolved(n.Handler.Param, n.Line, n.Column)
		c.emit(bytecode.OpPop, n.Line, n.Column)
		c.tryDepth++
		if err := c.compileStatementsInline(n.Handler.Body.Body); err != nil {
			return err
		}
		c.tryDepth--
		c.emit(bytecode.OpTryCatchBodyEnd, n.Line, n.Column)
		c.cb.WriteUint16(uint16(idx), n.Line, n.Column)
	}

	c.cb.SetTryFinallyIP(idx, c.cb.Len())
	if n.Finally != nil {
		if err := c.compileStatementsInline(n.Finally.Body); err != nil {
			return err
		}
	}
	c.emit(bytecode.OpFinallyEnd, n.Line, n.Column)
	return nil
}

// emitSwitch compiles a switch statement. The discriminant is pushed
// once and never touched directly by a comparison: each case Dups its
// own throwaway copy, so the discriminant survives regardless of how
// many comparisons run. JumpIfTrueWithPeeking peeks (keeps the
// comparison result on the stack) on a match and pops it on a miss,
// which is exactly what lets misses chain straight into the next
// case's Dup with the stack back to just the discriminant. A match's
// leftover `true` still needs discarding before the case's statements
// run, so each tested case gets a tiny trampoline (Pop, then jump to
// the real statement address) separate from that address itself —
// that way a previous case's fall-through (the source omitted
// `break`) lands directly on the next case's statements without
// re-popping anything a trampoline already handled. A single final
// Pop discards the discriminant at the statement's unified exit,
// reached by falling off the last case, by any `break`, or by the
// default/no-match path, none of which leave a comparison result
// behind to begin with.
func (c *Compiler) emitSwitch(n *ast.SwitchStatement, label string) error {
	if err := c.emitExpression(n.Discriminant); err != nil {
		return err
	}
	lf := c.pushLoop(label) // switch participates in break scoping like a loop
	var caseJumps []int
	defaultIndex := -1
	for i, cs := range n.Cases {
		if cs.Test == nil {
			defaultIndex = i
			continue
		}
		c.emit(bytecode.OpDup, n.Line, n.Column)
		if err := c.emitExpression(cs.Test); err != nil {
			return err
		}
		c.emit(bytecode.OpStrictEqual, n.Line, n.Column)
		caseJumps = append(caseJumps, c.emitJump(bytecode.OpJumpIfTrueWithPeeking, n.Line, n.Column))
	}
	defaultJump := c.emitJump(bytecode.OpJump, n.Line, n.Column)

	bodyStart := make([]int, len(n.Cases))
	ci := 0
	for i, cs := range n.Cases {
		if cs.Test == nil {
			continue
		}
		c.patchJump(caseJumps[ci])
		ci++
		c.emit(bytecode.OpPop, n.Line, n.Column)
		bodyStart[i] = c.emitJump(bytecode.OpJump, n.Line, n.Column)
	}

	for i, cs := range n.Cases {
		if cs.Test == nil {
			c.patchJump(defaultJump)
		} else {
			c.patchJump(bodyStart[i])
		}
		if err := c.compileStatementsInline(cs.Consequent); err != nil {
			return err
		}
	}
	lf = c.popLoop()
	c.patchJumpList(lf.breaks)
	if defaultIndex < 0 {
		c.patchJump(defaultJump)
	}
	c.emit(bytecode.OpPop, n.Line, n.Column)
	return nil
}

func (c *Compiler) emitLabeled(n *ast.LabeledStatement) error {
	switch body := n.Body.(type) {
	case *ast.WhileStatement:
		return c.emitWhile(body, n.Label)
	case *ast.DoWhileStatement:
		return c.emitDoWhile(body, n.Label)
	case *ast.ForStatement:
		return c.emitFor(body, n.Label)
	case *ast.ForInStatement:
		return c.emitForIn(body, n.Label)
	case *ast.SwitchStatement:
		return c.emitSwitch(body, n.Label)
	default:
		// A label on a non-loop statement only matters for `break
		// label;` escaping it; model it as a pseudo loop frame with no
		// continue target.
		lf := c.pushLoop(n.Label)
		err := c.emitStatement(body)
		lf = c.popLoop()
		c.patchJumpList(lf.breaks)
		return err
	}
}

func (c *Compiler) emitWith(n *ast.WithStatement) error {
	if err := c.emitExpression(n.Object); err != nil {
		return err
	}
	c.emit(bytecode.OpWithEnter, n.Line, n.Column)
	if err := c.emitStatement(n.Body); err != nil {
		return err
	}
	c.emit(bytecode.OpWithExit, n.Line, n.Column)
	return nil
}
