package compiler

import (
	"github.com/mna/corvid/lang/token"
	"github.com/mna/corvid/lang/value"
)

// resolveLocal searches unit's locals from the innermost outward for name,
// returning its slot index. A local found with depth == -1 means its own
// initializer is reading it before the declaration completed — a compile
// error (§4.2 "a := a is a compile-time error, not an implicit nil read").
func (p *parser) resolveLocal(unit *compileUnit, name token.Token) (int, bool) {
	for i := len(unit.locals) - 1; i >= 0; i-- {
		l := unit.locals[i]
		if l.name == name.Lexeme {
			if l.depth == -1 {
				p.error("Can't read local variable in its own initializer.")
			}
			return i, true
		}
	}
	return -1, false
}

// resolveUpvalue recursively searches enclosing compileUnits for name. If
// found as a local of the immediately enclosing function, that local is
// marked captured and unit gets an upvalue descriptor pointing at it
// (IsLocal: true). Otherwise, if the enclosing function resolves name as
// one of its own upvalues (recursively), unit gets a descriptor pointing at
// that upvalue (IsLocal: false), so every intermediate compileUnit re-exports
// the capture.
func (p *parser) resolveUpvalue(unit *compileUnit, name token.Token) (int, bool) {
	if unit.enclosing == nil {
		return -1, false
	}

	if localIdx, ok := p.resolveLocal(unit.enclosing, name); ok {
		unit.enclosing.locals[localIdx].isCaptured = true
		return p.addUpvalue(unit, uint8(localIdx), true), true
	}

	if upIdx, ok := p.resolveUpvalue(unit.enclosing, name); ok {
		return p.addUpvalue(unit, uint8(upIdx), false), true
	}

	return -1, false
}

// addUpvalue records an upvalue descriptor on unit, deduplicating against
// any existing entry with the same (index, isLocal) pair.
func (p *parser) addUpvalue(unit *compileUnit, index uint8, isLocal bool) int {
	for i, uv := range unit.upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return i
		}
	}
	if len(unit.upvalues) == 255 {
		p.error("Too many closure variables in function.")
		return 0
	}
	unit.upvalues = append(unit.upvalues, value.UpvalueDesc{Index: index, IsLocal: isLocal})
	return len(unit.upvalues) - 1
}

// declareVariable registers previous (the just-consumed identifier) as a
// new local of the current block, rejecting a duplicate name already
// declared in that same block. At global scope it is a no-op: globals are
// resolved purely by name at runtime, with no compile-time slot.
func (p *parser) declareVariable() {
	if p.unit.scopeDepth == 0 {
		return
	}

	name := p.previous
	for i := len(p.unit.locals) - 1; i >= 0; i-- {
		l := p.unit.locals[i]
		if l.depth != -1 && l.depth < p.unit.scopeDepth {
			break
		}
		if l.name == name.Lexeme {
			p.error("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

func (p *parser) addLocal(name token.Token) {
	if len(p.unit.locals) >= 1<<8 {
		p.error("Too many local variables in function.")
		return
	}
	p.unit.locals = append(p.unit.locals, local{name: name.Lexeme, depth: -1})
}

// markInitialized flips the most recently declared local from "declared"
// to "ready", making it visible to resolveLocal. Called immediately after
// a var's initializer expression is compiled, and — for a function
// declaration — before the function body is compiled, so the function can
// call itself by name (§4.2 "mark_initialized for recursion support").
func (p *parser) markInitialized() {
	if p.unit.scopeDepth == 0 {
		return
	}
	p.unit.locals[len(p.unit.locals)-1].depth = p.unit.scopeDepth
}

// parseVariable consumes an identifier, declares it, and — for a global —
// returns the constant-pool index of its name string. Locals need no
// constant: they are addressed purely by stack slot.
func (p *parser) parseVariable(errorMessage string) uint16 {
	p.consume(token.IDENT, errorMessage)

	p.declareVariable()
	if p.unit.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(p.previous)
}

// defineVariable makes a declared variable usable: for a local, that's
// simply marking it initialized (its value is already sitting in its
// stack slot); for a global, it emits the instruction that moves the
// value on top of the stack into the globals table.
func (p *parser) defineVariable(global uint16) {
	if p.unit.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitOpUint16(value.OpDefineGlobal, global)
}
