// Package bytecode defines the instruction set and code-block
// container produced by the compiler and consumed by the interpreter.
package bytecode

// Opcode identifies a single bytecode instruction. Operands (when any)
// follow the opcode byte inline in the code stream; widths are fixed
// per opcode so the interpreter can skip forward without decoding.
type Opcode byte

const (
	// stack
	OpPush Opcode = iota
	OpPop
	OpDup
	OpPopExpressionStatement
	OpPushToTemp
	OpPopFromTemp

	// locals / bindings
	OpGetById
	OpGetByIndex
	OpGetByIndexWithActivation
	OpSetById
	OpSetByIndex
	OpSetByIndexWithActivation
	OpCreateBinding

	// arithmetic
	OpPlus
	OpMinus
	OpMultiply
	OpDivision
	OpMod
	OpIncrement
	OpDecrement
	OpUnaryMinus
	OpUnaryPlus
	OpUnaryNot
	OpUnaryBitNot

	// relational / equality
	OpEqual
	OpNotEqual
	OpStrictEqual
	OpNotStrictEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual

	// bitwise
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpLeftShift
	OpSignedRightShift
	OpUnsignedRightShift

	// type operators
	OpUnaryTypeOf
	OpUnaryDelete
	OpUnaryVoid
	OpStringIn
	OpInstanceOf
	OpToNumber

	// objects. Stack contracts (top of stack listed last):
	//   CreateObject                 ()              -> (obj)
	//   CreateArray      <u16 count>  ()              -> (arr)
	//   InitObject       <u16 nameIdx>(obj, value)    -> (value)   ; own-property define, no [[Set]] walk
	//   GetObject                    (obj, key)      -> (value)
	//   GetObjectPreComputed <u16 nameIdx, u16 icSite> (obj)        -> (value)
	//   SetObject                    (value, obj, key) -> (value)
	//   SetObjectPreComputed <u16 nameIdx, u16 icSite> (obj, value) -> (value)
	//   SetObjectPropertyGetter/Setter <u16 nameIdx>   (obj, fn)    -> (value=fn)
	// Each pops every operand in one atomic step and pushes its single
	// result; there is no requirement that operands be adjacent beyond
	// "on top of the stack at the time the opcode executes" — compound
	// assignment sequences (internal/compiler/expressions.go) rely on
	// this to read-modify-write through a property with only OpDup/
	// OpPushToTemp for the one extra value each shape needs.
	OpCreateObject
	OpCreateArray
	OpInitObject
	OpGetObject
	OpGetObjectPreComputed
	OpGetObjectPreComputedSlowMode
	OpSetObject
	OpSetObjectPreComputed
	OpSetObjectPreComputedSlowMode
	OpSetObjectPropertyGetter
	OpSetObjectPropertySetter

	// functions
	OpCreateFunction
	OpPrepareFunctionCall
	OpPushFunctionCallReceiver
	OpCallFunction
	OpNewFunctionCall
	OpCallEvalFunction
	OpCallBoundFunction
	OpReturnFunction
	OpReturnFunctionWithValue

	// control flow
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpJumpIfFalseWithPeeking
	OpJumpIfTrueWithPeeking
	OpLoopStart

	// exceptions
	OpTry
	OpTryCatchBodyEnd
	OpThrow
	OpFinallyEnd
	OpJumpComplexCase

	// with
	OpWithEnter
	OpWithExit

	// enumeration
	OpEnumerateObject
	OpEnumerateObjectKey

	// introspection
	OpThis
	OpGetArgumentsObject
	OpSetArgumentsObject
	OpLoadStackPointer
	OpCheckStackPointer

	// misc / native / terminator
	OpExecuteNativeFunction
	OpEnd
)

// Names maps each opcode to its disassembler mnemonic.
var Names = map[Opcode]string{
	OpPush:                    "Push",
	OpPop:                     "Pop",
	OpDup:                     "Dup",
	OpPopExpressionStatement:  "PopExpressionStatement",
	OpPushToTemp:              "PushToTemp",
	OpPopFromTemp:             "PopFromTemp",

	OpGetById:                  "GetById",
	OpGetByIndex:               "GetByIndex",
	OpGetByIndexWithActivation: "GetByIndexWithActivation",
	OpSetById:                  "SetById",
	OpSetByIndex:               "SetByIndex",
	OpSetByIndexWithActivation: "SetByIndexWithActivation",
	OpCreateBinding:            "CreateBinding",

	OpPlus:        "Plus",
	OpMinus:       "Minus",
	OpMultiply:    "Multiply",
	OpDivision:    "Division",
	OpMod:         "Mod",
	OpIncrement:   "Increment",
	OpDecrement:   "Decrement",
	OpUnaryMinus:  "UnaryMinus",
	OpUnaryPlus:   "UnaryPlus",
	OpUnaryNot:    "UnaryNot",
	OpUnaryBitNot: "UnaryBitNot",

	OpEqual:              "Equal",
	OpNotEqual:           "NotEqual",
	OpStrictEqual:        "StrictEqual",
	OpNotStrictEqual:     "NotStrictEqual",
	OpLessThan:           "LessThan",
	OpLessThanOrEqual:    "LessThanOrEqual",
	OpGreaterThan:        "GreaterThan",
	OpGreaterThanOrEqual: "GreaterThanOrEqual",

	OpBitwiseAnd:          "BitwiseAnd",
	OpBitwiseOr:           "BitwiseOr",
	OpBitwiseXor:          "BitwiseXor",
	OpLeftShift:           "LeftShift",
	OpSignedRightShift:    "SignedRightShift",
	OpUnsignedRightShift:  "UnsignedRightShift",

	OpUnaryTypeOf: "UnaryTypeOf",
	OpUnaryDelete: "UnaryDelete",
	OpUnaryVoid:   "UnaryVoid",
	OpStringIn:    "StringIn",
	OpInstanceOf:  "InstanceOf",
	OpToNumber:    "ToNumber",

	OpCreateObject:                  "CreateObject",
	OpCreateArray:                   "CreateArray",
	OpInitObject:                    "InitObject",
	OpGetObject:                     "GetObject",
	OpGetObjectPreComputed:          "GetObjectPreComputed",
	OpGetObjectPreComputedSlowMode:  "GetObjectPreComputedSlowMode",
	OpSetObject:                     "SetObject",
	OpSetObjectPreComputed:          "SetObjectPreComputed",
	OpSetObjectPreComputedSlowMode:  "SetObjectPreComputedSlowMode",
	OpSetObjectPropertyGetter:       "SetObjectPropertyGetter",
	OpSetObjectPropertySetter:       "SetObjectPropertySetter",

	OpCreateFunction:           "CreateFunction",
	OpPrepareFunctionCall:      "PrepareFunctionCall",
	OpPushFunctionCallReceiver: "PushFunctionCallReceiver",
	OpCallFunction:             "CallFunction",
	OpNewFunctionCall:          "NewFunctionCall",
	OpCallEvalFunction:         "CallEvalFunction",
	OpCallBoundFunction:        "CallBoundFunction",
	OpReturnFunction:           "ReturnFunction",
	OpReturnFunctionWithValue:  "ReturnFunctionWithValue",

	OpJump:                    "Jump",
	OpJumpIfFalse:             "JumpIfFalse",
	OpJumpIfTrue:              "JumpIfTrue",
	OpJumpIfFalseWithPeeking:  "JumpIfFalseWithPeeking",
	OpJumpIfTrueWithPeeking:   "JumpIfTrueWithPeeking",
	OpLoopStart:               "LoopStart",

	OpTry:             "Try",
	OpTryCatchBodyEnd: "TryCatchBodyEnd",
	OpThrow:           "Throw",
	OpFinallyEnd:      "FinallyEnd",
	OpJumpComplexCase: "JumpComplexCase",

	OpWithEnter: "WithEnter",
	OpWithExit:  "WithExit",

	OpEnumerateObject:    "EnumerateObject",
	OpEnumerateObjectKey: "EnumerateObjectKey",

	OpThis:                 "This",
	OpGetArgumentsObject:   "GetArgumentsObject",
	OpSetArgumentsObject:   "SetArgumentsObject",
	OpLoadStackPointer:     "LoadStackPointer",
	OpCheckStackPointer:    "CheckStackPointer",

	OpExecuteNativeFunction: "ExecuteNativeFunction",
	OpEnd:                   "End",
}

func (op Opcode) String() string {
	if name, ok := Names[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// JumpReason tags an OpJumpComplexCase site with why control is
// leaving the current try region: a break/continue whose target lies
// outside one or more active `finally` blocks. OpJumpComplexCase's
// operands are <reason:u8> <depth:u16> <target:u16> — depth is how
// many of the current frame's try-stack entries must run their
// finally body (innermost first) before target is honored; the
// interpreter re-dispatches the jump itself once depth reaches zero,
// so target is an ordinary jump offset exactly like OpJump's.
//
// OpTry/OpTryCatchBodyEnd take a single u16 operand: the index of
// their TryEntry in the owning CodeBlock's TryTable, not a raw jump
// offset. OpFinallyEnd takes no operand; it always pops the
// innermost live try-stack entry for the current call frame.
type JumpReason byte

const (
	ReasonJumpBreak JumpReason = iota
	ReasonJumpContinue
)
