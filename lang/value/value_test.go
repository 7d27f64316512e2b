package value_test

import (
	"testing"

	"github.com/mna/corvid/lang/value"
	"github.com/stretchr/testify/require"
)

func TestIsFalsey(t *testing.T) {
	require.True(t, value.IsFalsey(value.Nil))
	require.True(t, value.IsFalsey(value.Bool(false)))
	require.False(t, value.IsFalsey(value.Bool(true)))
	require.False(t, value.IsFalsey(value.Number(0)))
	require.False(t, value.IsFalsey(value.String("")))
}

func TestEqualCrossTag(t *testing.T) {
	require.True(t, value.Equal(value.Nil, value.Nil))
	require.False(t, value.Equal(value.Nil, value.Bool(false)))
	require.False(t, value.Equal(value.Number(0), value.Bool(false)))
	require.True(t, value.Equal(value.Number(1), value.Number(1)))
	require.True(t, value.Equal(value.String("ab"), value.String("ab")))
	require.False(t, value.Equal(value.String("ab"), value.String("ac")))
}

func TestClosureEqualityIsIdentity(t *testing.T) {
	fn := &value.Function{Name: "f", Arity: 0}
	c1 := &value.Closure{Function: fn}
	c2 := &value.Closure{Function: fn}
	require.True(t, value.Equal(c1, c1))
	require.False(t, value.Equal(c1, c2), "distinct closure activations must not compare equal")
}

func TestLiteralPrintForms(t *testing.T) {
	require.Equal(t, "nil", value.Nil.String())
	require.Equal(t, "true", value.Bool(true).String())
	require.Equal(t, "false", value.Bool(false).String())
	require.Equal(t, "3.5", value.Number(3.5).String())
	require.Equal(t, "hello", value.String("hello").String())

	script := &value.Function{Kind: value.KindScript}
	require.Equal(t, "<script>", script.String())

	named := &value.Function{Kind: value.KindFunction, Name: "inc", Arity: 1}
	require.Equal(t, "<fn inc/1>", named.String())

	nat := &value.Native{Name: "clock", Arity: 0}
	require.Equal(t, "<native fn clock/0>", nat.String())
}

func TestUpvalueOpenThenClose(t *testing.T) {
	slot := value.Number(1)
	var v value.Value = slot
	up := &value.Upvalue{Location: &v}
	require.Equal(t, value.Number(1), up.Get())

	v = value.Number(2)
	require.Equal(t, value.Number(2), up.Get(), "open upvalue reads through the live slot")

	up.Close()
	v = value.Number(99) // mutating the old slot must no longer be observed
	require.Equal(t, value.Number(2), up.Get(), "closed upvalue owns its value")

	up.Set(value.Number(3))
	require.Equal(t, value.Number(3), up.Get())
}
