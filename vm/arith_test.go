package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vellumlang/vellum/bytecode"
)

func TestAddValuesNumericVsStringConcat(t *testing.T) {
	m := &Machine{}
	require.Equal(t, 3.0, m.addValues(Num(1), Num(2)).AsNum())
	require.Equal(t, "a1", m.addValues(Str("a"), Num(1)).AsStr())
	require.Equal(t, "1a", m.addValues(Num(1), Str("a")).AsStr())
}

func TestSubMultDivRequireNumbers(t *testing.T) {
	m := &Machine{}
	_, err := m.subValues(Str("a"), Num(1))
	require.Error(t, err)

	v, err := m.subValues(Num(5), Num(2))
	require.NoError(t, err)
	require.Equal(t, 3.0, v.AsNum())
}

func TestCompareValuesEqualUsesValueIndexProjection(t *testing.T) {
	m := &Machine{}
	require.True(t, m.compareValues(bytecode.Equal, Num(1), Num(1)).AsBool())
	require.False(t, m.compareValues(bytecode.Equal, Num(1), Str("1")).AsBool())
	require.True(t, m.compareValues(bytecode.GreaterThan, Num(2), Num(1)).AsBool())
	require.False(t, m.compareValues(bytecode.GreaterThan, Str("b"), Str("a")).AsBool())
}

func TestInValuesString(t *testing.T) {
	m := &Machine{}
	v, err := m.inValues(Str("ell"), Str("hello"))
	require.NoError(t, err)
	require.True(t, v.AsBool())
}

func TestInValuesArray(t *testing.T) {
	m := &Machine{valueStack: ValueStack{Num(1), Num(2), Num(3)}}
	v, err := m.inValues(Num(2), ArrayOf([]int{0, 1, 2}))
	require.NoError(t, err)
	require.True(t, v.AsBool())

	v, err = m.inValues(Num(9), ArrayOf([]int{0, 1, 2}))
	require.NoError(t, err)
	require.False(t, v.AsBool())
}

func TestFormatNumIntegralVsFractional(t *testing.T) {
	require.Equal(t, "3", formatNum(3.0))
	require.Equal(t, "3.5", formatNum(3.5))
}

func TestStringifyArrayWalksValueStack(t *testing.T) {
	m := &Machine{valueStack: ValueStack{Num(1), Str("x")}}
	require.Equal(t, "[1, x]", m.stringify(ArrayOf([]int{0, 1})))
}
