package vm

import (
	"fmt"

	"github.com/mna/corvid/lang/value"
)

// run executes frames until the outermost CallFrame returns (§4.3
// "Dispatch loop"). Each iteration fetches one opcode from the top
// frame's chunk, advances its ip, and executes it.
func (v *VM) run() error {
	for {
		v.traceInstruction()

		f := v.frame()
		chunk := f.closure.Function.Chunk
		op := value.OpCode(chunk.Code[f.ip])
		f.ip++

		switch op {
		case value.OpConstant:
			v.push(chunk.Constants[v.readUint16(f)])

		case value.OpNil:
			v.push(value.Nil)
		case value.OpTrue:
			v.push(value.Bool(true))
		case value.OpFalse:
			v.push(value.Bool(false))
		case value.OpPop:
			v.pop()

		case value.OpGetLocal:
			idx := v.readUint16(f)
			v.push(v.stack[f.base+int(idx)])
		case value.OpSetLocal:
			idx := v.readUint16(f)
			v.stack[f.base+int(idx)] = v.peek(0)

		case value.OpGetGlobal:
			name := chunk.Constants[v.readUint16(f)].(value.String)
			val, ok := v.globals.Get(name)
			if !ok {
				return v.runtimeError("Undefined variable '%s'.", name)
			}
			v.push(val)
		case value.OpDefineGlobal:
			name := chunk.Constants[v.readUint16(f)].(value.String)
			v.globals.Put(name, v.peek(0))
			v.pop()
		case value.OpSetGlobal:
			name := chunk.Constants[v.readUint16(f)].(value.String)
			if _, ok := v.globals.Get(name); !ok {
				return v.runtimeError("Undefined variable '%s'.", name)
			}
			v.globals.Put(name, v.peek(0))

		case value.OpGetUpvalue:
			idx := v.readUint16(f)
			v.push(f.closure.Upvalues[idx].Get())
		case value.OpSetUpvalue:
			idx := v.readUint16(f)
			f.closure.Upvalues[idx].Set(v.peek(0))

		case value.OpEqual:
			b, a := v.pop(), v.pop()
			v.push(value.Bool(value.Equal(a, b)))
		case value.OpGreater:
			if err := v.numericCompare(func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case value.OpLess:
			if err := v.numericCompare(func(a, b float64) bool { return a < b }); err != nil {
				return err
			}

		case value.OpAdd:
			if err := v.add(); err != nil {
				return err
			}
		case value.OpSubtract:
			if err := v.arithmetic(func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case value.OpMultiply:
			if err := v.arithmetic(func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case value.OpDivide:
			if err := v.arithmetic(func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}

		case value.OpNot:
			v.push(value.Bool(value.IsFalsey(v.pop())))
		case value.OpNegate:
			n, ok := v.peek(0).(value.Number)
			if !ok {
				return v.runtimeError("Operand must be a number.")
			}
			v.pop()
			v.push(-n)

		case value.OpPrint:
			fmt.Fprintln(v.stdout, v.pop().String())

		case value.OpJump:
			offset := v.readUint16(f)
			f.ip += int(offset)
		case value.OpJumpIfFalse:
			offset := v.readUint16(f)
			if value.IsFalsey(v.peek(0)) {
				f.ip += int(offset)
			}
		case value.OpLoop:
			offset := v.readUint16(f)
			f.ip -= int(offset)

		case value.OpCall:
			argc := int(chunk.Code[f.ip])
			f.ip++
			if err := v.call(argc); err != nil {
				return err
			}

		case value.OpClosure:
			v.buildClosure(f, chunk)

		case value.OpCloseUpvalue:
			v.closeUpvalues(len(v.stack) - 1)
			v.pop()

		case value.OpReturn:
			result := v.pop()
			v.closeUpvalues(f.base)
			v.frames = v.frames[:len(v.frames)-1]
			v.stack = v.stack[:f.base]
			if len(v.frames) == 0 {
				return nil
			}
			v.push(result)
		}
	}
}

func (v *VM) readUint16(f *callFrame) uint16 {
	hi := f.closure.Function.Chunk.Code[f.ip]
	lo := f.closure.Function.Chunk.Code[f.ip+1]
	f.ip += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (v *VM) numericCompare(cmp func(a, b float64) bool) error {
	bv, aOk := v.peek(0).(value.Number)
	av, bOk := v.peek(1).(value.Number)
	if !aOk || !bOk {
		return v.runtimeError("Operands must be numbers.")
	}
	v.pop()
	v.pop()
	v.push(value.Bool(cmp(float64(av), float64(bv))))
	return nil
}

func (v *VM) arithmetic(op func(a, b float64) float64) error {
	bv, aOk := v.peek(0).(value.Number)
	av, bOk := v.peek(1).(value.Number)
	if !aOk || !bOk {
		return v.runtimeError("Operands must be numbers.")
	}
	v.pop()
	v.pop()
	v.push(value.Number(op(float64(av), float64(bv))))
	return nil
}

// add implements OP_ADD's dual numeric/string semantics (§4.3).
func (v *VM) add() error {
	bs, bIsStr := v.peek(0).(value.String)
	as, aIsStr := v.peek(1).(value.String)
	if aIsStr && bIsStr {
		v.pop()
		v.pop()
		v.push(v.Intern(string(as) + string(bs)))
		return nil
	}

	bn, bIsNum := v.peek(0).(value.Number)
	an, aIsNum := v.peek(1).(value.Number)
	if aIsNum && bIsNum {
		v.pop()
		v.pop()
		v.push(an + bn)
		return nil
	}

	return v.runtimeError("Operands must be two numbers or two strings.")
}
