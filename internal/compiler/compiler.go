// Package compiler lowers the parser's AST into internal/bytecode
// CodeBlocks by a type switch over ast.Node, the same dispatch shape
// the teacher uses in internal/vm/compiler_expressions.go for
// compileExpression/compileStatement rather than per-node virtual
// emit methods (see internal/ast's package doc for why the AST itself
// stays data-only).
package compiler

import (
	"fmt"

	"escargot/internal/ast"
	"escargot/internal/bytecode"
	"escargot/internal/runtime"
)

// jumpList accumulates the byte offsets of forward jumps (break or
// continue targets) that need patching once the loop/switch body's end
// offset is known.
type jumpList []int

type loopFrame struct {
	label        string
	continueAt   int // patched immediately for `for`/`while`; -1 until known for others
	breaks       jumpList
	continues    jumpList
	tryDepthAtEntry int
}

// Compiler holds the mutable state threaded through one function (or
// the top-level program)'s compilation. A new Compiler is created per
// CodeBlock; nested function literals get their own Compiler chained
// through parentScope for identifier resolution.
type Compiler struct {
	cb    *bytecode.CodeBlock
	scope *scope

	loops   []*loopFrame
	tryDepth int

	constIndex map[string]uint16 // dedup for string constants only
	tempCounter int             // synthetic hidden-local names for compound computed-member ops
}

// newTemp names a hidden local binding that can never collide with a
// source identifier: the name starts with a space, which no ES5
// identifier can contain, and the counter keeps the temps of one
// compilation distinct from each other. This is the standard "gensym"
// trick compilers use to hold an evaluate-once subexpression, here for a
// computed MemberExpression's object/key in a compound assignment or
// update so the object/key expressions run exactly once each even
// though the operation needs to both read and write through them).
func (c *Compiler) newTemp() string {
	c.tempCounter++
	return fmt.Sprintf(" tmp%d", c.tempCounter)
}

func newCompiler(cb *bytecode.CodeBlock, parent *scope, needsActivation bool) *Compiler {
	return &Compiler{
		cb:         cb,
		scope:      newScope(parent, needsActivation),
		constIndex: map[string]uint16{},
	}
}

// CompileProgram compiles a top-level program. Top-level code always
// runs against the global record, so identifiers never resolve to a
// static slot here even when collectHoisted finds them: the scope
// this Compiler tracks exists only to size the global hoist list
// reported on the CodeBlock, not to drive GetByIndex emission.
func CompileProgram(prog *ast.Program) (*bytecode.CodeBlock, error) {
	cb := bytecode.NewCodeBlock("<program>")
	cb.IsStrict = prog.Strict
	c := newCompiler(cb, nil, true) // global scope is always name-based
	if err := c.compileBody(prog.Body); err != nil {
		return nil, err
	}
	c.cb.WriteOp(bytecode.OpEnd, 0, 0)
	// InnerIdentifiers has no indexed meaning at the top level (the
	// global record has no slots vector) but doubles here as the
	// var/function hoist list RunProgram pre-declares on the global
	// object before executing, so `typeof x` and a read of x before
	// its declaration's assignment runs both see undefined rather than
	// a ReferenceError.
	cb.InnerIdentifiers = c.scope.order
	return cb, nil
}

// CompileTopLevelFunction compiles fn as if it were declared directly
// in global code, the shape the `Function` constructor needs (its
// result closes over nothing but the global object, per ES5 15.3.2.1).
// It hands CompileFunction a bare sentinel scope with no parent of its
// own, exactly the scope-chain shape CompileProgram's global scope
// already has, so free identifiers inside fn fall through to ordinary
// dynamic global lookups while fn's own parameters and locals still
// resolve to static slots.
func CompileTopLevelFunction(fn *ast.FunctionExpression) (*bytecode.CodeBlock, error) {
	sentinel := newScope(nil, true)
	return CompileFunction(fn, sentinel)
}

// CompileFunction compiles fn's body into a CodeBlock, resolving free
// variables against parentScope (the enclosing function's compile-time
// layout).
func CompileFunction(fn *ast.FunctionExpression, parentScope *scope) (*bytecode.CodeBlock, error) {
	cb := bytecode.NewCodeBlock("<function>")
	cb.Name = fn.Name
	cb.IsStrict = fn.IsStrict
	cb.IsFunctionExpression = true
	cb.NeedsActivation = fn.NeedsActivation
	cb.NeedsArguments = fn.NeedsArguments
	cb.Params = fn.Params

	c := newCompiler(cb, parentScope, fn.NeedsActivation)
	for _, p := range fn.Params {
		c.scope.declare(p)
	}
	// "arguments" is declared as an ordinary resolved local rather than
	// routed through OpGetArgumentsObject/OpSetArgumentsObject: giving
	// it a slot like any parameter lets every other identifier-access
	// opcode handle it for free, and the interpreter only needs to
	// populate that one slot at call entry (see internal/interp) before
	// running a single instruction. A source-declared parameter or var
	// literally named "arguments" shadows it exactly as ES5 requires,
	// since scope.declare is idempotent on an already-declared name.
	if fn.NeedsArguments {
		c.scope.declare("arguments")
	}
	if err := c.compileBody(fn.Body.Body); err != nil {
		return nil, err
	}
	// Implicit `return undefined;` for control falling off the end.
	c.cb.WriteOp(bytecode.OpReturnFunction, 0, 0)
	cb.InnerIdentifiers = c.scope.order[len(fn.Params):]
	return cb, nil
}

// compileBody runs the hoisting pre-pass and then emits every
// statement in order.
func (c *Compiler) compileBody(stmts []ast.Statement) error {
	vars, funcs := collectHoisted(stmts)
	for _, v := range vars {
		c.scope.declare(v)
	}
	for _, f := range funcs {
		c.scope.declare(f.name)
	}
	for _, f := range funcs {
		if err := c.emitFunctionBinding(f); err != nil {
			return err
		}
	}
	for _, s := range stmts {
		if err := c.emitStatement(s); err != nil {
			return err
		}
	}
	return nil
}

// emitFunctionBinding compiles a hoisted function declaration's body
// into its own CodeBlock and binds the resulting FunctionObject to its
// name before any other statement in the current scope runs.
func (c *Compiler) emitFunctionBinding(f hoistedFunction) error {
	fe := &ast.FunctionExpression{
		Position:        f.decl.Position,
		Name:            f.decl.Name,
		Params:          f.decl.Params,
		Body:            f.decl.Body,
		IsStrict:        f.decl.IsStrict,
		NeedsArguments:  f.decl.NeedsArguments,
		NeedsActivation: f.decl.NeedsActivation,
	}
	inner, err := CompileFunction(fe, c.scope)
	if err != nil {
		return err
	}
	idx := c.cb.AddConstant(bytecode.NewCodeBlockConstant(inner))
	line := f.decl.Line
	c.cb.WriteOp(bytecode.OpPush, line, f.decl.Column)
	c.cb.WriteUint16(idx, line, f.decl.Column)
	c.cb.WriteOp(bytecode.OpCreateFunction, line, f.decl.Column)
	c.emitStoreResolved(f.name, line, f.decl.Column)
	c.cb.WriteOp(bytecode.OpPop, line, f.decl.Column)
	return nil
}

func (c *Compiler) errf(pos ast.Position, format string, args ...interface{}) error {
	return fmt.Errorf("%s (line %d)", fmt.Sprintf(format, args...), pos.Line)
}

func (c *Compiler) stringConst(s string) uint16 {
	if idx, ok := c.constIndex[s]; ok {
		return idx
	}
	idx := c.cb.AddConstant(runtime.NewString(s))
	c.constIndex[s] = idx
	return idx
}

func (c *Compiler) emit(op bytecode.Opcode, line, col int) { c.cb.WriteOp(op, line, col) }

func (c *Compiler) emitJump(op bytecode.Opcode, line, col int) int {
	c.cb.WriteOp(op, line, col)
	pos := c.cb.Len()
	c.cb.WriteUint16(0, line, col)
	return pos
}

func (c *Compiler) patchJump(operandPos int) {
	c.cb.PatchUint16(operandPos, uint16(c.cb.Len()))
}

func (c *Compiler) patchJumpTo(operandPos, target int) {
	c.cb.PatchUint16(operandPos, uint16(target))
}

func (c *Compiler) emitJumpTo(op bytecode.Opcode, target, line, col int) {
	c.cb.WriteOp(op, line, col)
	c.cb.WriteUint16(uint16(target), line, col)
}
