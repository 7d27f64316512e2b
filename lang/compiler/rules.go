package compiler

import (
	"strconv"

	"github.com/mna/corvid/lang/token"
	"github.com/mna/corvid/lang/value"
)

// precedence orders operators from loosest to tightest binding, per the
// expression grammar's precedence climbing table (§4.2).
type precedence uint8

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(p *parser, canAssign bool)

type rule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var ruleTable = map[token.Kind]rule{
	token.LEFT_PAREN:    {prefix: (*parser).grouping, infix: (*parser).call, precedence: precCall},
	token.MINUS:         {prefix: (*parser).unary, infix: (*parser).binary, precedence: precTerm},
	token.PLUS:          {infix: (*parser).binary, precedence: precTerm},
	token.SLASH:         {infix: (*parser).binary, precedence: precFactor},
	token.STAR:          {infix: (*parser).binary, precedence: precFactor},
	token.BANG:          {prefix: (*parser).unary},
	token.BANG_EQUAL:    {infix: (*parser).binary, precedence: precEquality},
	token.EQUAL_EQUAL:   {infix: (*parser).binary, precedence: precEquality},
	token.GREATER:       {infix: (*parser).binary, precedence: precComparison},
	token.GREATER_EQUAL: {infix: (*parser).binary, precedence: precComparison},
	token.LESS:          {infix: (*parser).binary, precedence: precComparison},
	token.LESS_EQUAL:    {infix: (*parser).binary, precedence: precComparison},
	token.IDENT:         {prefix: (*parser).variable},
	token.STRING:        {prefix: (*parser).stringLiteral},
	token.NUMBER:        {prefix: (*parser).number},
	token.AND:           {infix: (*parser).and_, precedence: precAnd},
	token.OR:            {infix: (*parser).or_, precedence: precOr},
	token.FALSE:         {prefix: (*parser).literal},
	token.NIL:           {prefix: (*parser).literal},
	token.TRUE:          {prefix: (*parser).literal},
}

func getRule(k token.Kind) rule { return ruleTable[k] }

// parsePrecedence is the core of the Pratt parser: it parses a prefix
// expression, then repeatedly folds in infix operators whose precedence is
// at least prec.
func (p *parser) parsePrecedence(prec precedence) {
	p.advance()
	prefix := getRule(p.previous.Kind).prefix
	if prefix == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	prefix(p, canAssign)

	for prec <= getRule(p.current.Kind).precedence {
		p.advance()
		infix := getRule(p.previous.Kind).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQUAL) {
		p.error("Invalid assignment target.")
	}
}

func (p *parser) expression() { p.parsePrecedence(precAssignment) }

func (p *parser) number(canAssign bool) {
	n, err := strconv.ParseFloat(p.previous.Lexeme, 64)
	if err != nil {
		p.error("Invalid number literal.")
		return
	}
	p.emitConstant(value.Number(n))
}

func (p *parser) stringLiteral(canAssign bool) {
	lex := p.previous.Lexeme
	// Lexeme spans the full token including its surrounding quotes.
	p.emitConstant(value.String(lex[1 : len(lex)-1]))
}

func (p *parser) literal(canAssign bool) {
	switch p.previous.Kind {
	case token.FALSE:
		p.emitOp(value.OpFalse)
	case token.TRUE:
		p.emitOp(value.OpTrue)
	case token.NIL:
		p.emitOp(value.OpNil)
	}
}

func (p *parser) grouping(canAssign bool) {
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func (p *parser) unary(canAssign bool) {
	opKind := p.previous.Kind
	p.parsePrecedence(precUnary)
	switch opKind {
	case token.MINUS:
		p.emitOp(value.OpNegate)
	case token.BANG:
		p.emitOp(value.OpNot)
	}
}

func (p *parser) binary(canAssign bool) {
	opKind := p.previous.Kind
	r := getRule(opKind)
	p.parsePrecedence(r.precedence + 1)

	switch opKind {
	case token.PLUS:
		p.emitOp(value.OpAdd)
	case token.MINUS:
		p.emitOp(value.OpSubtract)
	case token.STAR:
		p.emitOp(value.OpMultiply)
	case token.SLASH:
		p.emitOp(value.OpDivide)
	case token.EQUAL_EQUAL:
		p.emitOp(value.OpEqual)
	case token.BANG_EQUAL:
		p.emitOp(value.OpEqual)
		p.emitOp(value.OpNot)
	case token.GREATER:
		p.emitOp(value.OpGreater)
	case token.GREATER_EQUAL:
		p.emitOp(value.OpLess)
		p.emitOp(value.OpNot)
	case token.LESS:
		p.emitOp(value.OpLess)
	case token.LESS_EQUAL:
		p.emitOp(value.OpGreater)
		p.emitOp(value.OpNot)
	}
}

// and_ short-circuits: if the left operand is falsey, jump over the right
// operand leaving the falsey left value as the result; otherwise discard
// it and evaluate the right operand.
func (p *parser) and_(canAssign bool) {
	endJump := p.emitJump(value.OpJumpIfFalse)
	p.emitOp(value.OpPop)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

// or_ short-circuits the other way: if the left operand is truthy, jump
// over the right operand.
func (p *parser) or_(canAssign bool) {
	elseJump := p.emitJump(value.OpJumpIfFalse)
	endJump := p.emitJump(value.OpJump)

	p.patchJump(elseJump)
	p.emitOp(value.OpPop)

	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func (p *parser) call(canAssign bool) {
	argc := p.argumentList()
	p.emitOpByte(value.OpCall, argc)
}

func (p *parser) argumentList() byte {
	var argc int
	if !p.check(token.RIGHT_PAREN) {
		for {
			p.expression()
			if argc == 255 {
				p.error("Can't have more than 255 arguments.")
			}
			argc++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return byte(argc)
}

// variable resolves name as a local, an upvalue, or (failing both) a
// global, and emits either a read or — if an assignment follows and one is
// syntactically permitted here — a write (§4.2 "Name resolution").
func (p *parser) variable(canAssign bool) {
	p.namedVariable(p.previous, canAssign)
}

func (p *parser) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp value.OpCode
	arg, ok := p.resolveLocal(p.unit, name)
	if ok {
		getOp, setOp = value.OpGetLocal, value.OpSetLocal
	} else if idx, ok := p.resolveUpvalue(p.unit, name); ok {
		arg = idx
		getOp, setOp = value.OpGetUpvalue, value.OpSetUpvalue
	} else {
		arg = int(p.identifierConstant(name))
		getOp, setOp = value.OpGetGlobal, value.OpSetGlobal
	}

	if canAssign && p.match(token.EQUAL) {
		p.expression()
		p.emitOpUint16(setOp, uint16(arg))
	} else {
		p.emitOpUint16(getOp, uint16(arg))
	}
}

func (p *parser) identifierConstant(name token.Token) uint16 {
	return p.makeConstant(value.String(name.Lexeme))
}
