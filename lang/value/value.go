// Package value defines the tagged value union manipulated by the compiler
// and virtual machine: Nil, Bool, Number and the heap Object variants
// (String, Function, Closure, Native).
package value

import "fmt"

// Value is implemented by every value a corvid program can manipulate. Its
// String method returns the literal print form used by the Print
// instruction and by error messages (§6.3), never a Go-debug form.
type Value interface {
	String() string
	Type() string
}

type nilType struct{}

func (nilType) String() string { return "nil" }
func (nilType) Type() string   { return "nil" }

// Nil is the single value of nil type.
var Nil Value = nilType{}

// Bool is a boolean value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "boolean" }

// Number is a 64-bit IEEE-754 floating point value.
type Number float64

func (n Number) String() string { return fmt.Sprintf("%g", float64(n)) }
func (Number) Type() string     { return "number" }

// IsFalsey reports whether v is falsey: nil and the boolean false are the
// only falsey values, everything else is truthy.
func IsFalsey(v Value) bool {
	switch v := v.(type) {
	case nilType:
		return true
	case Bool:
		return !bool(v)
	default:
		return false
	}
}

// Equal implements the cross-tag equality used by the Equal instruction:
// values of different tags are never
// equal, Number/Bool/Nil compare by Go equality, String compares by bytes,
// Function/Native compare structurally (two distinct compilations of the
// same signature are equal), and Closure compares by identity (two
// activations of the same Function are distinct values — see its doc).
func Equal(x, y Value) bool {
	switch x := x.(type) {
	case nilType:
		_, ok := y.(nilType)
		return ok
	case Bool:
		yb, ok := y.(Bool)
		return ok && x == yb
	case Number:
		yn, ok := y.(Number)
		return ok && x == yn
	case String:
		ys, ok := y.(String)
		return ok && x == ys
	case *Function:
		yf, ok := y.(*Function)
		return ok && x.Arity == yf.Arity && x.Name == yf.Name && x.Kind == yf.Kind
	case *Native:
		yn, ok := y.(*Native)
		return ok && x.Name == yn.Name && x.Arity == yn.Arity
	default:
		// *Closure and any other object: identity.
		return x == y
	}
}
