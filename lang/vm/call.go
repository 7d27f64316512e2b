package vm

import "github.com/mna/corvid/lang/value"

// call implements the Call{argc} instruction (§4.3 "Call/Return"): the
// callee sits argc slots below the top of the stack, underneath its
// arguments.
func (v *VM) call(argc int) error {
	callee := v.peek(argc)

	switch c := callee.(type) {
	case *value.Closure:
		return v.callClosure(c, argc)
	case *value.Function:
		// A bare Function constant (not yet wrapped in a Closure) can only
		// reach here for a function with no upvalues to capture.
		return v.callClosure(&value.Closure{Function: c}, argc)
	case *value.Native:
		if argc != c.Arity {
			return v.runtimeError("Expected %d arguments but got %d.", c.Arity, argc)
		}
		args := make([]value.Value, argc)
		copy(args, v.stack[len(v.stack)-argc:])
		result, err := c.Handler(args)
		if err != nil {
			return v.runtimeError("%s", err.Error())
		}
		v.stack = v.stack[:len(v.stack)-argc-1]
		v.push(result)
		return nil
	default:
		return v.runtimeError("Can only call functions and classes.")
	}
}

func (v *VM) callClosure(c *value.Closure, argc int) error {
	if argc != c.Function.Arity {
		return v.runtimeError("Expected %d arguments but got %d.", c.Function.Arity, argc)
	}
	if len(v.frames) >= v.maxFrames {
		return v.runtimeError("Stack overflow.")
	}
	v.frames = append(v.frames, callFrame{
		closure: c,
		ip:      0,
		base:    len(v.stack) - argc - 1,
	})
	return nil
}

// buildClosure executes a Closure instruction: it reads the Function
// constant plus the UpvalueDesc pairs the compiler emitted immediately
// after it, resolving each to either a live stack slot of the enclosing
// frame or an upvalue of the enclosing closure (§4.3 "Closure
// construction").
func (v *VM) buildClosure(f *callFrame, chunk *value.Chunk) {
	idx := v.readUint16(f)
	fn := chunk.Constants[idx].(*value.Function)

	upvalues := make([]*value.Upvalue, fn.UpvalueCount)
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := chunk.Code[f.ip] != 0
		index := chunk.Code[f.ip+1]
		f.ip += 2

		if isLocal {
			upvalues[i] = v.captureUpvalue(f.base + int(index))
		} else {
			upvalues[i] = f.closure.Upvalues[index]
		}
	}

	v.push(&value.Closure{Function: fn, Upvalues: upvalues})
}

// captureUpvalue returns the existing open Upvalue aliasing stackIndex, or
// creates one, keeping v.openUpvalues ordered by descending stack index.
func (v *VM) captureUpvalue(stackIndex int) *value.Upvalue {
	for _, ou := range v.openUpvalues {
		if ou.index == stackIndex {
			return ou.upvalue
		}
	}

	uv := &value.Upvalue{Location: &v.stack[stackIndex]}

	i := 0
	for i < len(v.openUpvalues) && v.openUpvalues[i].index > stackIndex {
		i++
	}
	v.openUpvalues = append(v.openUpvalues, openUpvalue{})
	copy(v.openUpvalues[i+1:], v.openUpvalues[i:])
	v.openUpvalues[i] = openUpvalue{index: stackIndex, upvalue: uv}
	return uv
}

// closeUpvalues closes every open upvalue whose stack index is >=
// threshold, in descending order (§4.3), and drops them from the open list.
func (v *VM) closeUpvalues(threshold int) {
	kept := v.openUpvalues[:0]
	for _, ou := range v.openUpvalues {
		if ou.index >= threshold {
			ou.upvalue.Close()
			continue
		}
		kept = append(kept, ou)
	}
	v.openUpvalues = kept
}
