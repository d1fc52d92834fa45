package bytecode

import "escargot/internal/runtime"

// CodeBlock is the compiled form of one function body or the top-level
// program: a flat instruction stream plus everything the interpreter
// needs to run it without consulting the AST again. It plays the role
// the teacher's Chunk plays for its stack machine, extended with the
// flags and name tables a scope-resolving, strict-mode-aware compiler
// needs.
type CodeBlock struct {
	Code      []byte
	Constants []runtime.Value
	Lines     []int
	Columns   []int
	File      string

	Name             string // function name, empty for anonymous expressions and the top-level program
	Params           []string
	InnerIdentifiers []string // var/function-declared names hoisted into this scope

	NeedsActivation      bool
	NeedsArguments       bool
	IsStrict             bool
	IsFunctionExpression bool

	// ICSites holds one inline-cache slot per call site that performs a
	// shape-checked property access (GetObjectPreComputed /
	// SetObjectPreComputed) or a by-id binding lookup (GetById /
	// SetById), indexed by the operand written after the opcode byte.
	ICSites []InlineCache

	// TryTable holds one entry per try statement, indexed by the
	// operand OpTry/OpTryCatchBodyEnd carry. A bare index (rather than
	// an inline jump target) lets the interpreter recover both the
	// catch entry point and the finally entry point from a single
	// lookup when unwinding for an exception or a cross-finally
	// break/continue/return.
	TryTable []TryEntry
}

// TryEntry describes one try statement's catch/finally entry points.
// FinallyIP always points at real code: a try with no source `finally`
// still gets an (empty) finally region, so OpTryCatchBodyEnd and
// exception unwinding never need a HasFinally check.
type TryEntry struct {
	HasCatch bool
	CatchIP  int
	FinallyIP int
}

// NewTryEntry appends a zeroed TryEntry and returns its index; the
// caller patches CatchIP/FinallyIP in with SetTryCatchIP/SetTryFinallyIP
// once those offsets are known.
func (c *CodeBlock) NewTryEntry(hasCatch bool) int {
	c.TryTable = append(c.TryTable, TryEntry{HasCatch: hasCatch})
	return len(c.TryTable) - 1
}

func (c *CodeBlock) SetTryCatchIP(idx, ip int)   { c.TryTable[idx].CatchIP = ip }
func (c *CodeBlock) SetTryFinallyIP(idx, ip int) { c.TryTable[idx].FinallyIP = ip }

func NewCodeBlock(file string) *CodeBlock {
	return &CodeBlock{
		Code:      make([]byte, 0, 256),
		Constants: make([]runtime.Value, 0, 16),
		Lines:     make([]int, 0, 256),
		Columns:   make([]int, 0, 256),
		File:      file,
	}
}

func (c *CodeBlock) Write(b byte, line, col int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	c.Columns = append(c.Columns, col)
}

func (c *CodeBlock) WriteOp(op Opcode, line, col int) {
	c.Write(byte(op), line, col)
}

// WriteUint16 writes a big-endian two-byte operand, the width used for
// jump targets, constant indices, local-slot indices, and IC-site
// indices.
func (c *CodeBlock) WriteUint16(v uint16, line, col int) {
	c.Write(byte(v>>8), line, col)
	c.Write(byte(v), line, col)
}

func (c *CodeBlock) ReadUint16(offset int) uint16 {
	return uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1])
}

func (c *CodeBlock) PatchUint16(offset int, v uint16) {
	c.Code[offset] = byte(v >> 8)
	c.Code[offset+1] = byte(v)
}

// AddConstant appends v to the constant pool and returns its index.
// Equal string/number constants are not deduplicated; the compiler may
// do so itself when it already tracks a mapping for the literal.
func (c *CodeBlock) AddConstant(v runtime.Value) uint16 {
	c.Constants = append(c.Constants, v)
	return uint16(len(c.Constants) - 1)
}

// WriteConstant emits OpPush followed by a two-byte constant index.
func (c *CodeBlock) WriteConstant(v runtime.Value, line, col int) {
	idx := c.AddConstant(v)
	c.WriteOp(OpPush, line, col)
	c.WriteUint16(idx, line, col)
}

// NewICSite appends an empty inline-cache slot and returns its index,
// for use as the two-byte operand of an IC-checked opcode.
func (c *CodeBlock) NewICSite() uint16 {
	c.ICSites = append(c.ICSites, InlineCache{})
	return uint16(len(c.ICSites) - 1)
}

func (c *CodeBlock) Len() int { return len(c.Code) }

// CodeBlockConstant wraps a nested *CodeBlock as a runtime.HeapObject
// so a function literal or hoisted function declaration can sit in its
// enclosing CodeBlock's constant pool. Living in this package (rather
// than internal/compiler, which originally defined it) means
// internal/interp's OpCreateFunction handler can unwrap one without
// importing the compiler just to reach a constant-pool helper type.
type CodeBlockConstant struct {
	CB *CodeBlock
}

func (*CodeBlockConstant) HeapTag() string { return "CodeBlock" }

func NewCodeBlockConstant(cb *CodeBlock) runtime.Value {
	return runtime.FromPointer(&CodeBlockConstant{CB: cb})
}

// CodeBlockOf extracts the wrapped *CodeBlock from a constant produced
// by NewCodeBlockConstant, for OpCreateFunction.
func CodeBlockOf(v runtime.Value) (*CodeBlock, bool) {
	w, ok := v.Pointer().(*CodeBlockConstant)
	if !ok {
		return nil, false
	}
	return w.CB, true
}
