package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruthyRules(t *testing.T) {
	require.False(t, Null().Truthy())
	require.False(t, Bool(false).Truthy())
	require.True(t, Bool(true).Truthy())
	require.False(t, Num(0).Truthy())
	require.True(t, Num(-1).Truthy())
	require.False(t, Str("").Truthy())
	require.True(t, Str("0").Truthy())
	require.True(t, ArrayOf(nil).Truthy())
}

func TestTypeName(t *testing.T) {
	require.Equal(t, "boolean", Bool(true).TypeName())
	require.Equal(t, "null", Null().TypeName())
	require.Equal(t, "number", Num(1).TypeName())
	require.Equal(t, "string", Str("a").TypeName())
	require.Equal(t, "array", ArrayOf(nil).TypeName())
	require.Equal(t, "object", DictLiteral(nil).TypeName())
	require.Equal(t, "resource", ResourceValue(0).TypeName())
}

func TestValueIndexNumberComparesByRawBits(t *testing.T) {
	nan := Num(negNan())
	require.Equal(t, nan.ToValueIndex(), nan.ToValueIndex())

	posZero := Num(0.0)
	negZero := Num(negZeroFloat())
	require.NotEqual(t, posZero.ToValueIndex(), negZero.ToValueIndex())
}

func TestValueIndexCollapsesNonHashableKindsToNull(t *testing.T) {
	require.Equal(t, VINull, ArrayOf(nil).ToValueIndex().kind)
	require.Equal(t, VINull, DictLiteral(nil).ToValueIndex().kind)
}

func TestStrIndexMatchesStrValueProjection(t *testing.T) {
	require.Equal(t, Str("hi").ToValueIndex(), StrIndex("hi"))
}

func negNan() float64 {
	return math.NaN()
}

func negZeroFloat() float64 {
	return math.Copysign(0, -1)
}
