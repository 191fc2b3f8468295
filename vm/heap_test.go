package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocMapLivesUntilCollected(t *testing.T) {
	h := NewHeap()
	handle := h.AllocMap(map[ValueIndex]DictEntry{
		StrIndex("a"): {Value: Num(1)},
	})
	require.Equal(t, 1, h.LiveCount())

	h.Collect(Roots{})
	require.Equal(t, 0, h.LiveCount())
	require.Nil(t, h.Map(handle.Index()))
}

func TestCollectKeepsObjectsReachableFromValueStackRoot(t *testing.T) {
	h := NewHeap()
	handle := h.AllocMap(map[ValueIndex]DictEntry{
		StrIndex("a"): {Value: Num(1)},
	})
	roots := Roots{ValueStack: []Value{DictRef(handle.Index())}}

	h.Collect(roots)
	require.Equal(t, 1, h.LiveCount())
}

func TestCollectKeepsObjectsReachableFromRegisterViaStack(t *testing.T) {
	h := NewHeap()
	handle := h.AllocMap(map[ValueIndex]DictEntry{
		StrIndex("a"): {Value: Num(1)},
	})
	stack := []Value{DictRef(handle.Index())}
	register := []ValueRegisterEntry{{Name: "x", StackIndex: 0, Depth: 1, Mutable: false}}

	h.Collect(Roots{ValueStack: stack, Register: register})
	require.Equal(t, 1, h.LiveCount())
}

func TestCollectTracesNestedArrayIndicesThroughValueStack(t *testing.T) {
	h := NewHeap()
	handle := h.AllocMap(map[ValueIndex]DictEntry{
		StrIndex("a"): {Value: Num(1)},
	})
	// stack[0] is an array holding one element: stack[1], which is the dict ref.
	stack := []Value{
		ArrayOf([]int{1}),
		DictRef(handle.Index()),
	}
	roots := Roots{ValueStack: stack}

	h.Collect(roots)
	require.Equal(t, 1, h.LiveCount())
}

func TestMarkObjectIndexIsIdempotentAgainstSelfReferentialMaps(t *testing.T) {
	h := NewHeap()
	handle := h.AllocMap(map[ValueIndex]DictEntry{})
	// a dict referencing itself must not cause infinite recursion on mark.
	h.Map(handle.Index())[StrIndex("self")] = DictEntry{Value: DictRef(handle.Index())}
	require.NotPanics(t, func() {
		h.Collect(Roots{ValueStack: []Value{DictRef(handle.Index())}})
	})
	require.Equal(t, 1, h.LiveCount())
}
