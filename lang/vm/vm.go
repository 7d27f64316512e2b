// Package vm implements the stack-based bytecode interpreter: it compiles
// source via lang/compiler, then runs the resulting Function in a
// dispatch loop over lang/value's instruction set (§4.3).
package vm

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/dolthub/swiss"
	"github.com/mna/corvid/lang/compiler"
	"github.com/mna/corvid/lang/disasm"
	"github.com/mna/corvid/lang/value"
	"github.com/sirupsen/logrus"
)

const (
	// defaultStackSize is allocated up front as the value stack's capacity
	// and never exceeded in practice: defaultMaxFrames bounds how deep
	// calls can nest, which in turn bounds how many slots are ever live at
	// once. Keeping the stack's backing array from ever reallocating is
	// required, not just an optimization — open Upvalues hold a *Value
	// pointing directly into a stack slot, which a reallocation would
	// silently invalidate.
	defaultStackSize  = 1 << 16
	defaultMaxFrames  = 256
	initialGlobalsCap = 64
)

// RuntimeError is returned by Interpret when a runtime fault (type
// mismatch, undefined variable, arity mismatch, non-callable value...)
// aborts the dispatch loop. Its Error form matches §6.4 exactly: the
// message, then "[line L] in script" on the following line.
type RuntimeError struct {
	Message string
	Line    int
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d] in script", e.Message, e.Line)
}

type callFrame struct {
	closure *value.Closure
	ip      int
	base    int
}

// openUpvalue pairs a not-yet-closed Upvalue with the stack index it still
// aliases, so closeUpvalues can find and sever it without pointer
// arithmetic over the stack slice.
type openUpvalue struct {
	index   int
	upvalue *value.Upvalue
}

// VM owns one interpreter's entire mutable state: the value stack, the
// call-frame stack, the globals table, and the interned-string set. These
// are never exposed for external mutation (§5 "Shared resources"); a
// failed Interpret call clears the stack/frames but globals and interned
// strings persist, matching REPL semantics (§7).
type VM struct {
	stack   []value.Value
	frames  []callFrame
	globals *swiss.Map[value.String, value.Value]
	strings *swiss.Map[string, value.String]

	openUpvalues []openUpvalue // ordered by descending stack index

	stdout    io.Writer
	maxFrames int
	log       *logrus.Logger
}

// Option configures a new VM.
type Option func(*VM)

// WithStdout redirects Print output (default os.Stdout).
func WithStdout(w io.Writer) Option {
	return func(v *VM) { v.stdout = w }
}

// WithMaxFrames caps call-frame depth, bounding unbounded recursion with a
// "Stack overflow." runtime error instead of an unbounded Go stack/heap
// allocation (default 256).
func WithMaxFrames(n int) Option {
	return func(v *VM) { v.maxFrames = n }
}

// WithLogger sets the logger used for dispatch tracing (debug level) and
// handed to the compiler for its own diagnostics. Discards by default.
func WithLogger(l *logrus.Logger) Option {
	return func(v *VM) {
		if l != nil {
			v.log = l
		}
	}
}

// New constructs a VM with the standard library natives already defined.
func New(opts ...Option) *VM {
	v := &VM{
		stack:     make([]value.Value, 0, defaultStackSize),
		globals:   swiss.NewMap[value.String, value.Value](initialGlobalsCap),
		strings:   swiss.NewMap[string, value.String](initialGlobalsCap),
		stdout:    os.Stdout,
		maxFrames: defaultMaxFrames,
		log:       discardLogger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	registerStandardNatives(v)
	return v
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Intern returns the canonical value.String for s: the first call with a
// given byte sequence stores it, every later call with an equal byte
// sequence returns the same entry (§4.4).
func (v *VM) Intern(s string) value.String {
	if existing, ok := v.strings.Get(s); ok {
		return existing
	}
	interned := value.String(s)
	v.strings.Put(s, interned)
	return interned
}

// Define registers a native function as a global, callable by name from
// corvid source before any Interpret call that needs it.
func (v *VM) Define(name string, arity int, fn value.NativeFunc) {
	v.globals.Put(v.Intern(name), &value.Native{Name: name, Arity: arity, Handler: fn})
}

// Interpret compiles and runs source. A compile failure returns the
// compiler's aggregated error unchanged (its Errors are *compiler.CompileError
// values already formatted per §6.4); a runtime failure returns
// *RuntimeError. Either failure leaves the VM itself reusable: the stack
// and frame list are reset, but globals and interned strings persist
// (§7 propagation).
func (v *VM) Interpret(source string) error {
	fn, err := compiler.Compile(source, compiler.WithLogger(v.log))
	if err != nil {
		return err
	}

	v.stack = v.stack[:0]
	v.frames = v.frames[:0]
	v.openUpvalues = nil

	closure := &value.Closure{Function: fn}
	v.push(closure)
	v.frames = append(v.frames, callFrame{closure: closure, ip: 0, base: 0})

	if err := v.run(); err != nil {
		v.stack = v.stack[:0]
		v.frames = v.frames[:0]
		v.openUpvalues = nil
		return err
	}
	return nil
}

func (v *VM) push(val value.Value) { v.stack = append(v.stack, val) }

func (v *VM) pop() value.Value {
	n := len(v.stack) - 1
	val := v.stack[n]
	v.stack = v.stack[:n]
	return val
}

func (v *VM) peek(distance int) value.Value {
	return v.stack[len(v.stack)-1-distance]
}

func (v *VM) frame() *callFrame { return &v.frames[len(v.frames)-1] }

func (v *VM) runtimeError(format string, args ...any) *RuntimeError {
	f := v.frame()
	line := f.closure.Function.Chunk.Lines[f.ip-1]
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Line: line}
}

func (v *VM) traceInstruction() {
	if !v.log.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	f := v.frame()
	var buf bytes.Buffer
	disasm.Instruction(&buf, f.closure.Function.Chunk, f.ip)
	v.log.Debugf("%s", buf.String())
}
