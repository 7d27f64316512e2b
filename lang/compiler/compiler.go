// Package compiler implements the single-pass Pratt compiler: it consumes
// tokens one at a time (one token of lookahead), resolves every identifier
// reference to a local slot, an upvalue, or a global as it parses, and
// emits bytecode directly — there is no separate AST pass (§4.2).
package compiler

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/mna/corvid/lang/scanner"
	"github.com/mna/corvid/lang/token"
	"github.com/mna/corvid/lang/value"
	"github.com/sirupsen/logrus"
)

// CompileError is one diagnosed compile-time error, formatted exactly per
// §6.4: "[line L] Error[ at end | at '<lexeme>']: <message>".
type CompileError struct {
	Line    int
	AtEnd   bool
	Lexeme  string
	Message string
}

func (e *CompileError) Error() string {
	where := fmt.Sprintf(" at '%s'", e.Lexeme)
	if e.AtEnd {
		where = " at end"
	}
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, where, e.Message)
}

// Option configures a Compile call.
type Option func(*parser)

// WithLogger sets the logger used for panic-mode synchronization trace
// messages (debug level). A nil logger (the default) discards all output.
func WithLogger(l *logrus.Logger) Option {
	return func(p *parser) {
		if l != nil {
			p.log = l
		}
	}
}

// Compile compiles source into the top-level script Function, ready to be
// run by a vm.VM. On any compile error it returns a nil Function and a
// non-nil error (a *multierror.Error whose Errors are *CompileError values,
// one per diagnosed problem — parsing continues past each error to
// surface as many as possible, per §4.2's panic-mode recovery).
func Compile(source string, opts ...Option) (*value.Function, error) {
	var sc scanner.Scanner
	sc.Init(source)

	p := &parser{scanner: &sc, log: discardLogger()}
	for _, opt := range opts {
		opt(p)
	}

	p.unit = newCompileUnit(nil, typeScript, "")
	p.advance()
	for !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.EOF, "Expect end of expression.")

	fn := p.endCompileUnit()
	if p.hadError {
		return nil, p.errs.ErrorOrNil()
	}
	return fn, nil
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return l
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// local describes one slot in a compileUnit's locals array. depth == -1
// means "declared but not yet initialized" (§4.2 name resolution step 1).
type local struct {
	name       string
	depth      int
	isCaptured bool
}

type functionType uint8

const (
	typeFunction functionType = iota
	typeScript
)

// compileUnit is the "ScopeCell" of spec §4.2: one per enclosing function
// (the outermost is the top-level script), holding its locals, its
// upvalue descriptors, its current block depth, and the Chunk under
// construction.
type compileUnit struct {
	enclosing *compileUnit
	fnType    functionType
	function  *value.Function

	locals     []local
	upvalues   []value.UpvalueDesc
	scopeDepth int
}

func newCompileUnit(enclosing *compileUnit, fnType functionType, name string) *compileUnit {
	kind := value.KindFunction
	if fnType == typeScript {
		kind = value.KindScript
	}
	u := &compileUnit{
		enclosing: enclosing,
		fnType:    fnType,
		function:  &value.Function{Name: name, Kind: kind, Chunk: &value.Chunk{}},
	}
	// Slot 0 is reserved for the callee itself (the Closure being called).
	u.locals = append(u.locals, local{name: "", depth: 0})
	return u
}

func (u *compileUnit) chunk() *value.Chunk { return u.function.Chunk }

// parser holds the single-pass compiler's global state: the scanner, the
// one-token lookahead, error/panic-mode bookkeeping, and the chain of
// compileUnits (innermost first) being built.
type parser struct {
	scanner *scanner.Scanner
	log     *logrus.Logger

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errs      *multierror.Error

	unit *compileUnit
}

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scanner.Next()
		if p.current.Kind != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *parser) check(k token.Kind) bool { return p.current.Kind == k }

func (p *parser) match(k token.Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(k token.Kind, message string) {
	if p.current.Kind == k {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *parser) errorAtCurrent(message string) { p.errorAt(p.current, message) }
func (p *parser) error(message string)          { p.errorAt(p.previous, message) }

func (p *parser) errorAt(tok token.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true
	ce := &CompileError{Line: tok.Line, AtEnd: tok.Kind == token.EOF, Lexeme: tok.Lexeme, Message: message}
	p.errs = multierror.Append(p.errs, ce)
}

// synchronize discards tokens until it reaches a likely statement
// boundary, so a single syntax error does not cascade into spurious
// follow-on errors (§4.2 panic mode).
func (p *parser) synchronize() {
	p.panicMode = false

	for p.current.Kind != token.EOF {
		if p.previous.Kind == token.SEMICOLON {
			return
		}
		switch p.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.log.Debugf("synchronize: discarding %s", p.current)
		p.advance()
	}
}

// --- emission helpers -------------------------------------------------

func (p *parser) emitOp(op value.OpCode) {
	p.unit.chunk().WriteOp(op, p.previous.Line)
}

func (p *parser) emitOpByte(op value.OpCode, operand byte) {
	p.unit.chunk().WriteOpByte(op, operand, p.previous.Line)
}

func (p *parser) emitOpUint16(op value.OpCode, operand uint16) int {
	return p.unit.chunk().WriteOpUint16(op, operand, p.previous.Line)
}

func (p *parser) emitRawByte(b byte) {
	p.unit.chunk().Code = append(p.unit.chunk().Code, b)
	p.unit.chunk().Lines = append(p.unit.chunk().Lines, p.previous.Line)
}

func (p *parser) emitReturn() {
	p.emitOp(value.OpNil)
	p.emitOp(value.OpReturn)
}

func (p *parser) emitConstant(v value.Value) {
	p.emitOpUint16(value.OpConstant, p.makeConstant(v))
}

func (p *parser) makeConstant(v value.Value) uint16 {
	return p.unit.chunk().AddConstant(v)
}

// emitJump emits a jump opcode with a placeholder 2-byte offset and
// returns the offset of that placeholder, for patchJump.
func (p *parser) emitJump(op value.OpCode) int {
	return p.emitOpUint16(op, 0xffff)
}

func (p *parser) patchJump(offset int) {
	jump := p.unit.chunk().Len() - (offset + 2)
	if jump > 1<<16-1 {
		p.error("too much code to jump over")
	}
	p.unit.chunk().PatchUint16(offset, uint16(jump))
}

func (p *parser) emitLoop(loopStart int) {
	start := p.emitJump(value.OpLoop)
	offset := (start + 2) - loopStart
	if offset > 1<<16-1 {
		p.error("loop body too large")
	}
	p.unit.chunk().PatchUint16(start, uint16(offset))
}

// endCompileUnit finalizes the current compileUnit's chunk (an implicit
// `return nil` covers any fallthrough) and pops back to the enclosing
// unit, returning the finished Function.
func (p *parser) endCompileUnit() *value.Function {
	p.emitReturn()
	fn := p.unit.function
	fn.UpvalueCount = len(p.unit.upvalues)
	p.unit = p.unit.enclosing
	return fn
}

// --- scopes -------------------------------------------------------------

func (p *parser) beginScope() { p.unit.scopeDepth++ }

// endScope pops locals that belong to the block just exited. A captured
// local is closed over (its Upvalue is severed from the stack) rather than
// simply popped (§4.2 "Block end").
func (p *parser) endScope() {
	p.unit.scopeDepth--

	u := p.unit
	for len(u.locals) > 0 && u.locals[len(u.locals)-1].depth > u.scopeDepth {
		if u.locals[len(u.locals)-1].isCaptured {
			p.emitOp(value.OpCloseUpvalue)
		} else {
			p.emitOp(value.OpPop)
		}
		u.locals = u.locals[:len(u.locals)-1]
	}
}
