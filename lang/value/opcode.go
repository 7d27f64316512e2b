package value

import "fmt"

// OpCode identifies one bytecode instruction (§6.2). Operand-carrying
// opcodes are encoded as the opcode byte followed by a fixed 2-byte
// big-endian operand (see Chunk.WriteOpUint16), except OP_CALL, whose
// argument count is a single byte (see Chunk.WriteOpByte);
// JUMP/JUMP_IF_FALSE/LOOP operands are backpatched offsets of 2 bytes.
type OpCode uint8

//nolint:revive
const (
	OpConstant OpCode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpClosure
	OpCloseUpvalue
	OpReturn

	opCodeMax
)

var opCodeNames = [...]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetUpvalue:   "OP_GET_UPVALUE",
	OpSetUpvalue:   "OP_SET_UPVALUE",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
	OpClosure:      "OP_CLOSURE",
	OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpReturn:       "OP_RETURN",
}

func (op OpCode) String() string {
	if op < opCodeMax {
		return opCodeNames[op]
	}
	return fmt.Sprintf("illegal opcode (%d)", uint8(op))
}

// hasOperand reports whether op is followed by an operand in the
// instruction stream. OpCall's operand is a single byte (an argument
// count never exceeding 255); every other operand-carrying opcode uses 2
// bytes (a constant/local/upvalue index or a jump offset).
func hasOperand(op OpCode) bool {
	switch op {
	case OpPop, OpEqual, OpGreater, OpLess, OpAdd, OpSubtract, OpMultiply,
		OpDivide, OpNot, OpNegate, OpPrint, OpCloseUpvalue, OpReturn,
		OpNil, OpTrue, OpFalse:
		return false
	default:
		return true
	}
}
