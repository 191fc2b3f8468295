package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRuntimeErrorFiltersSyntheticFramesByDefault(t *testing.T) {
	m := &Machine{
		filename: "main.vl",
		frames: []Frame{
			{Name: "@runtime"},
			{Name: "main"},
		},
	}
	err := m.runtimeError(UnknownRuntimeError, "boom").(RuntimeError)
	require.NotContains(t, err.Frames, "@runtime")
	require.Contains(t, err.Frames, "main")
}

func TestRuntimeErrorKeepsSyntheticFramesWithDeepStackTracePermission(t *testing.T) {
	m := &Machine{
		filename: "main.vl",
		perms:    map[string]bool{"deep-stack-trace": true},
		frames: []Frame{
			{Name: "@runtime"},
			{Name: "main"},
		},
	}
	err := m.runtimeError(UnknownRuntimeError, "boom").(RuntimeError)
	require.Contains(t, err.Frames, "@runtime")
}

func TestRuntimeErrorMessageIncludesKindPrefix(t *testing.T) {
	m := &Machine{}
	err := m.runtimeError(MemoryFailure, "out of bounds")
	require.Contains(t, err.Error(), string(MemoryFailure))
	require.Contains(t, err.Error(), "out of bounds")
}
