package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveStringAttrLength(t *testing.T) {
	m := &Machine{}
	v, err := m.resolveStringAttr("hello", Str("length"))
	require.NoError(t, err)
	require.Equal(t, 5.0, v.AsNum())
}

func TestResolveStringAttrIndexing(t *testing.T) {
	m := &Machine{}
	v, err := m.resolveStringAttr("hello", Num(1))
	require.NoError(t, err)
	require.Equal(t, "e", v.AsStr())

	v, err = m.resolveStringAttr("hello", Num(99))
	require.NoError(t, err)
	require.Equal(t, KindNull, v.Kind)
}

func TestResolveStringAttrUnknownMethodIsNull(t *testing.T) {
	m := &Machine{}
	v, err := m.resolveStringAttr("hello", Str("notAMethod"))
	require.NoError(t, err)
	require.Equal(t, KindNull, v.Kind)
}

func TestStringMethodsStartsEndsIncludes(t *testing.T) {
	m := &Machine{}
	fn, err := m.resolveStringAttr("hello world", Str("startsWith"))
	require.NoError(t, err)
	v, err := fn.AsNativeFn().Call(fn.AsNativeFn().This, []Value{Str("hello")}, m)
	require.NoError(t, err)
	require.True(t, v.AsBool())

	fn, _ = m.resolveStringAttr("hello world", Str("endsWith"))
	v, _ = fn.AsNativeFn().Call(fn.AsNativeFn().This, []Value{Str("world")}, m)
	require.True(t, v.AsBool())

	fn, _ = m.resolveStringAttr("hello world", Str("includes"))
	v, _ = fn.AsNativeFn().Call(fn.AsNativeFn().This, []Value{Str("lo wo")}, m)
	require.True(t, v.AsBool())
}

func TestToNumberReturnsOkDict(t *testing.T) {
	m := &Machine{}
	fn, err := m.resolveStringAttr("42.5", Str("toNumber"))
	require.NoError(t, err)
	result, err := fn.AsNativeFn().Call(fn.AsNativeFn().This, nil, m)
	require.NoError(t, err)
	entries := result.AsDict()
	require.True(t, entries[StrIndex("ok")].Value.AsBool())
	require.Equal(t, 42.5, entries[StrIndex("value")].Value.AsNum())
}

func TestToNumberOnInvalidStringReturnsErrDict(t *testing.T) {
	m := &Machine{}
	fn, err := m.resolveStringAttr("not-a-number", Str("toNumber"))
	require.NoError(t, err)
	result, err := fn.AsNativeFn().Call(fn.AsNativeFn().This, nil, m)
	require.NoError(t, err)
	entries := result.AsDict()
	require.False(t, entries[StrIndex("ok")].Value.AsBool())
}

func TestEscapeDebugEscapesControlChars(t *testing.T) {
	require.Equal(t, `a\nb\tc`, escapeDebug("a\nb\tc"))
}
