package compiler

import (
	"github.com/mna/corvid/lang/token"
	"github.com/mna/corvid/lang/value"
)

// declaration is the entry production for anything that can appear at
// statement position: a var/fun declaration, or a bare statement. It
// re-synchronizes on a compile error so one bad statement does not abort
// the whole file (§4.2 panic mode).
func (p *parser) declaration() {
	switch {
	case p.match(token.VAR):
		p.varDeclaration()
	case p.match(token.FUN):
		p.funDeclaration()
	default:
		p.statement()
	}

	if p.panicMode {
		p.synchronize()
	}
}

func (p *parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")

	if p.match(token.EQUAL) {
		p.expression()
	} else {
		p.emitOp(value.OpNil)
	}
	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")

	p.defineVariable(global)
}

func (p *parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(p.previous.Lexeme, typeFunction)
	p.defineVariable(global)
}

// function compiles a function's parameter list and body in a freshly
// pushed compileUnit, then emits a Closure instruction (plus its upvalue
// descriptors) into the *enclosing* unit's chunk (§4.2 "Function
// declaration").
func (p *parser) function(name string, fnType functionType) {
	p.unit = newCompileUnit(p.unit, fnType, name)
	p.beginScope()

	p.consume(token.LEFT_PAREN, "Expect '(' after function name.")
	if !p.check(token.RIGHT_PAREN) {
		for {
			p.unit.function.Arity++
			if p.unit.function.Arity > 255 {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := p.parseVariable("Expect parameter name.")
			p.defineVariable(constant)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")
	p.consume(token.LEFT_BRACE, "Expect '{' before function body.")
	p.block()

	upvalues := p.unit.upvalues
	fn := p.endCompileUnit()

	idx := p.makeConstant(fn)
	p.emitOpUint16(value.OpClosure, idx)
	for _, uv := range upvalues {
		var isLocal byte
		if uv.IsLocal {
			isLocal = 1
		}
		p.emitRawByte(isLocal)
		p.emitRawByte(uv.Index)
	}
}

func (p *parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.LEFT_BRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) block() {
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after value.")
	p.emitOp(value.OpPrint)
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	p.emitOp(value.OpPop)
}

func (p *parser) returnStatement() {
	if p.unit.fnType == typeScript {
		p.error("Can't return from top-level code.")
	}

	if p.match(token.SEMICOLON) {
		p.emitReturn()
		return
	}
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after return value.")
	p.emitOp(value.OpReturn)
}

func (p *parser) ifStatement() {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(value.OpJumpIfFalse)
	p.emitOp(value.OpPop)
	p.statement()

	elseJump := p.emitJump(value.OpJump)
	p.patchJump(thenJump)
	p.emitOp(value.OpPop)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *parser) whileStatement() {
	loopStart := p.unit.chunk().Len()
	p.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(value.OpJumpIfFalse)
	p.emitOp(value.OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(value.OpPop)
}

// forStatement desugars `for (init; cond; incr) body` into the equivalent
// while loop, splicing the increment clause in after the body via a pair
// of jumps so it still runs once per iteration even though it is parsed
// before the body (§4.2 "for-loop desugaring").
func (p *parser) forStatement() {
	p.beginScope()
	p.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")

	switch {
	case p.match(token.SEMICOLON):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := p.unit.chunk().Len()
	exitJump := -1
	if !p.match(token.SEMICOLON) {
		p.expression()
		p.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = p.emitJump(value.OpJumpIfFalse)
		p.emitOp(value.OpPop)
	}

	if !p.check(token.RIGHT_PAREN) {
		bodyJump := p.emitJump(value.OpJump)

		incrStart := p.unit.chunk().Len()
		p.expression()
		p.emitOp(value.OpPop)
		p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrStart
		p.patchJump(bodyJump)
	} else {
		p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(value.OpPop)
	}

	p.endScope()
}
