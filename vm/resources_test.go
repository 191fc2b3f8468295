package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeResource struct {
	kind   ResourceKind
	closed bool
}

func (f *fakeResource) Kind() ResourceKind { return f.kind }
func (f *fakeResource) Close() error {
	f.closed = true
	return nil
}

func TestResourceTableAllocAndGet(t *testing.T) {
	var table resourceTable
	handle := table.alloc(&fakeResource{kind: ResourceIo})

	r, ok := table.get(handle)
	require.True(t, ok)
	require.Equal(t, ResourceIo, r.Kind())
}

func TestResourceTableGetOnInvalidHandleFails(t *testing.T) {
	var table resourceTable
	_, ok := table.get(42)
	require.False(t, ok)
}

func TestResourceTableCloseIsIdempotent(t *testing.T) {
	var table resourceTable
	res := &fakeResource{kind: ResourceChild}
	handle := table.alloc(res)

	require.NoError(t, table.close(handle))
	require.True(t, res.closed)

	// closing again, or reading after close, must not panic or re-close.
	require.NoError(t, table.close(handle))
	_, ok := table.get(handle)
	require.False(t, ok)
}

func TestResolveResourceAttrCloseOnMachine(t *testing.T) {
	m := &Machine{}
	handle := m.resources.alloc(&fakeResource{kind: ResourceChild})

	fn, err := m.resolveResourceAttr(handle, Str("close"))
	require.NoError(t, err)

	result, err := fn.AsNativeFn().Call(fn.AsNativeFn().This, nil, m)
	require.NoError(t, err)
	require.True(t, result.AsDict()[StrIndex("ok")].Value.AsBool())
}

func TestResolveResourceAttrOnClosedHandleErrors(t *testing.T) {
	m := &Machine{}
	handle := m.resources.alloc(&fakeResource{kind: ResourceIo})
	require.NoError(t, m.resources.close(handle))

	_, err := m.resolveResourceAttr(handle, Str("close"))
	require.Error(t, err)
	rerr, ok := err.(RuntimeError)
	require.True(t, ok)
	require.Equal(t, SegmentationFault, rerr.Kind)
}
