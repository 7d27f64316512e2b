// Package disasm implements the bytecode disassembler used for debug
// tracing. It is an external-collaborator concern (spec §1): the compiler
// never imports it and the VM uses it only for its debug trace log; it only
// reads a *value.Chunk after the fact.
package disasm

import (
	"fmt"
	"io"

	"github.com/mna/corvid/lang/value"
)

// Chunk writes a human-readable disassembly of every instruction in c to
// w, prefixed with name (typically the owning function's name).
func Chunk(w io.Writer, c *value.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = Instruction(w, c, offset)
	}
}

// Instruction writes the disassembly of the single instruction at offset
// and returns the offset of the next instruction.
func Instruction(w io.Writer, c *value.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Lines[offset])
	}

	op := value.OpCode(c.Code[offset])
	switch op {
	case value.OpConstant, value.OpGetGlobal, value.OpDefineGlobal, value.OpSetGlobal:
		return constantInstruction(w, op, c, offset)
	case value.OpGetLocal, value.OpSetLocal, value.OpGetUpvalue, value.OpSetUpvalue:
		return indexInstruction(w, op, c, offset)
	case value.OpJump, value.OpJumpIfFalse:
		return jumpInstruction(w, op, c, offset, 1)
	case value.OpLoop:
		return jumpInstruction(w, op, c, offset, -1)
	case value.OpCall:
		argc := c.Code[offset+1]
		fmt.Fprintf(w, "%-16s %4d\n", op, argc)
		return offset + 2
	case value.OpClosure:
		return closureInstruction(w, c, offset)
	default:
		fmt.Fprintf(w, "%s\n", op)
		return offset + 1
	}
}

func constantInstruction(w io.Writer, op value.OpCode, c *value.Chunk, offset int) int {
	idx := c.ReadUint16(offset + 1)
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, c.Constants[idx])
	return offset + 3
}

func indexInstruction(w io.Writer, op value.OpCode, c *value.Chunk, offset int) int {
	idx := c.ReadUint16(offset + 1)
	fmt.Fprintf(w, "%-16s %4d\n", op, idx)
	return offset + 3
}

func jumpInstruction(w io.Writer, op value.OpCode, c *value.Chunk, offset, sign int) int {
	jump := int(c.ReadUint16(offset + 1))
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func closureInstruction(w io.Writer, c *value.Chunk, offset int) int {
	idx := c.ReadUint16(offset + 1)
	fn := c.Constants[idx].(*value.Function)
	fmt.Fprintf(w, "%-16s %4d '%s'\n", value.OpClosure, idx, fn)
	offset += 3
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := c.Code[offset]
		index := c.Code[offset+1]
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset, kind, index)
		offset += 2
	}
	return offset
}
