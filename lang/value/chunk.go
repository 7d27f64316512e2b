package value

import "fmt"

// Chunk is a function's compiled body: the flat instruction stream, its
// constant pool, and a source-line table aligned 1:1 with Code so every
// byte of an instruction (not just its opcode) maps back to a line (§3).
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
}

// WriteOp appends an opcode with no operand, recording line for it.
func (c *Chunk) WriteOp(op OpCode, line int) int {
	return c.writeByte(byte(op), line)
}

// WriteOpByte appends an opcode followed by a single-byte operand (used
// only by OP_CALL, whose operand is an argument count that never exceeds
// 255 — see the call-expression grammar's comma-separated argument list).
func (c *Chunk) WriteOpByte(op OpCode, operand byte, line int) int {
	start := c.writeByte(byte(op), line)
	c.writeByte(operand, line)
	return start
}

// WriteOpUint16 appends an opcode followed by a 2-byte big-endian operand
// (a constant/local/upvalue index, or a placeholder jump offset to be
// patched later with PatchUint16). It returns the byte offset of the
// operand's first byte, for later patching.
func (c *Chunk) WriteOpUint16(op OpCode, operand uint16, line int) (operandOffset int) {
	c.writeByte(byte(op), line)
	operandOffset = len(c.Code)
	c.writeByte(byte(operand>>8), line)
	c.writeByte(byte(operand), line)
	return operandOffset
}

func (c *Chunk) writeByte(b byte, line int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// PatchUint16 overwrites the 2-byte operand starting at offset (as
// returned by WriteOpUint16) with v. Used to backpatch forward jumps once
// the destination address is known.
func (c *Chunk) PatchUint16(offset int, v uint16) {
	c.Code[offset] = byte(v >> 8)
	c.Code[offset+1] = byte(v)
}

// ReadUint16 reads the 2-byte big-endian operand at offset.
func (c *Chunk) ReadUint16(offset int) uint16 {
	return uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1])
}

// AddConstant appends v to the constant pool and returns its index. Identical
// constants are not deduplicated, here or by the compiler: every call adds a
// new entry.
func (c *Chunk) AddConstant(v Value) uint16 {
	c.Constants = append(c.Constants, v)
	if len(c.Constants) > 1<<16 {
		panic(fmt.Sprintf("too many constants in one chunk: %d", len(c.Constants)))
	}
	return uint16(len(c.Constants) - 1)
}

// Len returns the current number of bytes emitted, i.e. the address the
// next instruction will be written at.
func (c *Chunk) Len() int { return len(c.Code) }
