package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltinTypeofReportsKindName(t *testing.T) {
	m := &Machine{}
	v, err := builtinTypeof(Null(), []Value{Str("x")}, m)
	require.NoError(t, err)
	require.Equal(t, "string", v.AsStr())
}

func TestBuiltinBooleanCoercesTruthiness(t *testing.T) {
	m := &Machine{}
	v, err := builtinBoolean(Null(), []Value{Num(0)}, m)
	require.NoError(t, err)
	require.False(t, v.AsBool())

	v, err = builtinBoolean(Null(), []Value{Str("x")}, m)
	require.NoError(t, err)
	require.True(t, v.AsBool())
}

func TestBuiltinOkAndErrShapes(t *testing.T) {
	m := &Machine{}
	ok, err := builtinOk(Null(), []Value{Num(1)}, m)
	require.NoError(t, err)
	entries := ok.AsDict()
	require.True(t, entries[StrIndex("ok")].Value.AsBool())
	require.Equal(t, 1.0, entries[StrIndex("value")].Value.AsNum())

	errVal, err := builtinErr(Null(), []Value{Str("boom")}, m)
	require.NoError(t, err)
	entries = errVal.AsDict()
	require.False(t, entries[StrIndex("ok")].Value.AsBool())
	require.Equal(t, "boom", entries[StrIndex("error")].Value.AsStr())
}

func TestMathDictExposesFloorAndPI(t *testing.T) {
	dict := mathDict().AsDict()
	floor := dict[StrIndex("floor")].Value
	v, err := floor.AsNativeFn().Call(Null(), []Value{Num(3.7)}, &Machine{})
	require.NoError(t, err)
	require.Equal(t, 3.0, v.AsNum())

	pi := dict[StrIndex("PI")].Value
	require.InDelta(t, 3.14159, pi.AsNum(), 0.0001)
}

func TestWindowDictOmitsEnvWithoutPermission(t *testing.T) {
	m := &Machine{perms: map[string]bool{}}
	win := m.windowDict().AsDict()
	_, hasEnv := win[StrIndex("env")]
	require.False(t, hasEnv)
}

func TestWindowDictExposesEnvWithPermission(t *testing.T) {
	m := &Machine{perms: map[string]bool{"env": true}}
	win := m.windowDict().AsDict()
	_, hasEnv := win[StrIndex("env")]
	require.True(t, hasEnv)
}

func TestWindowDictExposesMemoryWithPermission(t *testing.T) {
	m := &Machine{perms: map[string]bool{"memory": true}, valueStack: ValueStack{Num(1)}}
	win := m.windowDict().AsDict()
	memDict, ok := win[StrIndex("memory")]
	require.True(t, ok)

	lenFn := memDict.Value.AsDict()[StrIndex("len")].Value
	v, err := lenFn.AsNativeFn().Call(Null(), nil, m)
	require.NoError(t, err)
	require.Equal(t, 1.0, v.AsNum())
}
