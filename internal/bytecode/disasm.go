package bytecode

import (
	"fmt"
	"strings"

	"escargot/internal/runtime"
)

// Disassemble returns a human-readable listing of cb's instruction
// stream, one line per opcode, grounded on the teacher's
// internal/vm/disasm.go (Disassemble/disassembleInstruction walking a
// Chunk's byte stream with per-opcode operand-width helpers), adapted
// to this package's fixed-width u8/u16 operand encodings instead of
// the teacher's mix of 1-, 2-, 3- and 7-byte instruction forms.
func Disassemble(cb *CodeBlock, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	offset := 0
	for offset < len(cb.Code) {
		offset = disassembleInstruction(&sb, cb, offset)
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, cb *CodeBlock, offset int) int {
	fmt.Fprintf(sb, "%04d ", offset)
	if offset > 0 && cb.Lines[offset] == cb.Lines[offset-1] {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(sb, "%4d ", cb.Lines[offset])
	}

	op := Opcode(cb.Code[offset])
	switch op {
	case OpPush:
		return constantInstruction(sb, cb, op, offset)
	case OpCreateArray:
		return u16Instruction(sb, cb, op, offset)

	case OpGetByIndex, OpGetByIndexWithActivation, OpSetByIndex, OpSetByIndexWithActivation:
		upCount := cb.Code[offset+1]
		index := cb.ReadUint16(offset + 2)
		fmt.Fprintf(sb, "%-24s up=%d idx=%d\n", op, upCount, index)
		return offset + 4

	case OpGetById:
		nameIdx := cb.ReadUint16(offset + 1)
		icSite := cb.ReadUint16(offset + 3)
		safe := cb.Code[offset+5]
		fmt.Fprintf(sb, "%-24s %4d %s ic=%d safe=%d\n", op, nameIdx, quotedConstant(cb, nameIdx), icSite, safe)
		return offset + 6

	case OpSetById:
		nameIdx := cb.ReadUint16(offset + 1)
		icSite := cb.ReadUint16(offset + 3)
		fmt.Fprintf(sb, "%-24s %4d %s ic=%d\n", op, nameIdx, quotedConstant(cb, nameIdx), icSite)
		return offset + 5

	case OpInitObject, OpSetObjectPropertyGetter, OpSetObjectPropertySetter:
		return constantInstruction(sb, cb, op, offset)

	case OpGetObjectPreComputed, OpGetObjectPreComputedSlowMode,
		OpSetObjectPreComputed, OpSetObjectPreComputedSlowMode:
		nameIdx := cb.ReadUint16(offset + 1)
		icSite := cb.ReadUint16(offset + 3)
		fmt.Fprintf(sb, "%-24s %4d %s ic=%d\n", op, nameIdx, quotedConstant(cb, nameIdx), icSite)
		return offset + 5

	case OpCallFunction, OpNewFunctionCall, OpCallEvalFunction, OpCallBoundFunction:
		return u16Instruction(sb, cb, op, offset)

	case OpJump, OpJumpIfFalse, OpJumpIfTrue, OpJumpIfFalseWithPeeking, OpJumpIfTrueWithPeeking:
		target := cb.ReadUint16(offset + 1)
		fmt.Fprintf(sb, "%-24s -> %d\n", op, target)
		return offset + 3

	case OpTry, OpTryCatchBodyEnd:
		idx := cb.ReadUint16(offset + 1)
		fmt.Fprintf(sb, "%-24s try#%d\n", op, idx)
		return offset + 3

	case OpJumpComplexCase:
		reason := JumpReason(cb.Code[offset+1])
		depth := cb.ReadUint16(offset + 2)
		target := cb.ReadUint16(offset + 4)
		fmt.Fprintf(sb, "%-24s %v depth=%d -> %d\n", op, reason, depth, target)
		return offset + 6

	default:
		if _, ok := Names[op]; ok {
			fmt.Fprintf(sb, "%s\n", op)
			return offset + 1
		}
		fmt.Fprintf(sb, "UNKNOWN opcode %d\n", op)
		return offset + 1
	}
}

func u16Instruction(sb *strings.Builder, cb *CodeBlock, op Opcode, offset int) int {
	v := cb.ReadUint16(offset + 1)
	fmt.Fprintf(sb, "%-24s %4d\n", op, v)
	return offset + 3
}

func constantInstruction(sb *strings.Builder, cb *CodeBlock, op Opcode, offset int) int {
	idx := cb.ReadUint16(offset + 1)
	fmt.Fprintf(sb, "%-24s %4d %s\n", op, idx, quotedConstant(cb, idx))
	return offset + 3
}

// quotedConstant renders constants[idx] for a disassembly line. A
// CodeBlock constant (a nested function) recurses into its own
// listing, indented, the way the teacher's closureInstruction does
// for a CompiledFunction constant.
func quotedConstant(cb *CodeBlock, idx uint16) string {
	if int(idx) >= len(cb.Constants) {
		return "(invalid)"
	}
	v := cb.Constants[idx]
	if inner, ok := CodeBlockOf(v); ok {
		name := inner.Name
		if name == "" {
			name = "<anonymous>"
		}
		nested := Disassemble(inner, name)
		return "\n    | " + strings.ReplaceAll(strings.TrimRight(nested, "\n"), "\n", "\n    | ")
	}
	return fmt.Sprintf("'%s'", runtime.ToStringGo(v))
}
