package vm

import (
	"io"
	"os/exec"
)

// ResourceKind distinguishes the two boundary-surface resource shapes
// spec.md §4.6 names: a raw Io stream, and a Child process handle.
type ResourceKind byte

const (
	ResourceIo ResourceKind = iota
	ResourceChild
)

// Resource is a host object referenced from a Value by handle but owned
// by the Machine's resource table, per spec.md §4.6 and grounded on
// original_source/core/src/runtime/resources.rs's Resource trait.
type Resource interface {
	Kind() ResourceKind
	Close() error
}

// IoResource additionally supports the read/write/flush surface. Not
// every Resource implements it: a Child handle only supports Close
// (killing the process), matching the original's Resource/IoResource
// trait split.
type IoResource interface {
	Resource
	Read(buf []byte) (int, error)
	Write(buf []byte) (int, error)
	Flush() error
}

// childResource wraps a spawned child process. Close kills it, mirroring
// ChildResource::close in the original.
type childResource struct {
	cmd    *exec.Cmd
	closed bool
}

func (c *childResource) Kind() ResourceKind { return ResourceChild }
func (c *childResource) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.cmd.Process == nil {
		return nil
	}
	return c.cmd.Process.Kill()
}

// pipeResource wraps one of a child's stdio pipes. Exactly one of
// writer/reader is non-nil depending on direction, matching the
// ChildStdinResource/ChildStdoutResource/ChildStderrResource split.
type pipeResource struct {
	writer io.WriteCloser
	reader io.ReadCloser
	closed bool
}

func (p *pipeResource) Kind() ResourceKind { return ResourceIo }

func (p *pipeResource) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if p.writer != nil {
		return p.writer.Close()
	}
	if p.reader != nil {
		return p.reader.Close()
	}
	return nil
}

func (p *pipeResource) Read(buf []byte) (int, error) {
	if p.reader == nil {
		return 0, errInterrupted
	}
	return p.reader.Read(buf)
}

func (p *pipeResource) Write(buf []byte) (int, error) {
	if p.writer == nil {
		return 0, errInterrupted
	}
	return p.writer.Write(buf)
}

func (p *pipeResource) Flush() error {
	if f, ok := p.writer.(interface{ Sync() error }); ok {
		return f.Sync()
	}
	return nil
}

type interruptedError struct{}

func (interruptedError) Error() string { return "resource does not support this operation" }

var errInterrupted = interruptedError{}

// resourceTable is the handle-indexed owner of every live resource.
// Handles are stable for the resource's lifetime; a closed slot stays
// allocated (nil'd out) rather than being reused, so a stale handle
// fails predictably instead of aliasing a new resource.
type resourceTable struct {
	entries []Resource
}

func (t *resourceTable) alloc(r Resource) int {
	t.entries = append(t.entries, r)
	return len(t.entries) - 1
}

func (t *resourceTable) get(handle int) (Resource, bool) {
	if handle < 0 || handle >= len(t.entries) || t.entries[handle] == nil {
		return nil, false
	}
	return t.entries[handle], true
}

func (t *resourceTable) close(handle int) error {
	r, ok := t.get(handle)
	if !ok {
		return nil
	}
	err := r.Close()
	t.entries[handle] = nil
	return err
}

// spawnChild starts a child process and registers resource handles for
// the child itself and each of its stdio pipes, returning a dict of the
// shape {child, stdin, stdout, stderr} (each a KindResource value) that
// window.spawn hands back to user code.
func (m *Machine) spawnChild(name string, args []string) (Value, error) {
	cmd := exec.Command(name, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Value{}, m.runtimeError(InvalidArgumentError, err.Error())
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Value{}, m.runtimeError(InvalidArgumentError, err.Error())
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Value{}, m.runtimeError(InvalidArgumentError, err.Error())
	}
	if err := cmd.Start(); err != nil {
		return Value{}, m.runtimeError(InvalidArgumentError, err.Error())
	}

	childHandle := m.resources.alloc(&childResource{cmd: cmd})
	stdinHandle := m.resources.alloc(&pipeResource{writer: stdin})
	stdoutHandle := m.resources.alloc(&pipeResource{reader: stdout})
	stderrHandle := m.resources.alloc(&pipeResource{reader: stderr})

	entries := map[ValueIndex]DictEntry{
		StrIndex("child"):  {Value: ResourceValue(childHandle), Mutable: false},
		StrIndex("stdin"):  {Value: ResourceValue(stdinHandle), Mutable: false},
		StrIndex("stdout"): {Value: ResourceValue(stdoutHandle), Mutable: false},
		StrIndex("stderr"): {Value: ResourceValue(stderrHandle), Mutable: false},
	}
	return DictLiteral(entries), nil
}

// resolveResourceAttr implements the read/write/flush/close method
// surface spec.md §4.6 names, dispatched against the resource table
// entry a KindResource value points at.
func (m *Machine) resolveResourceAttr(handle int, key Value) (Value, error) {
	if key.Kind != KindStr {
		return Value{}, m.runtimeError(UnexpectedAttributeAccess, "resource attribute key must be a string")
	}
	resource, ok := m.resources.get(handle)
	if !ok {
		return Value{}, m.runtimeError(SegmentationFault, "use of a closed or invalid resource handle")
	}

	switch key.AsStr() {
	case "close":
		return NativeFnValue(&NativeFn{This: ResourceValue(handle), Call: func(this Value, args []Value, mm *Machine) (Value, error) {
			if err := mm.resources.close(this.ResourceHandle()); err != nil {
				return okErrDict(false, Str(err.Error())), nil
			}
			return okErrDict(true, Null()), nil
		}}), nil
	case "read":
		if _, ok := resource.(IoResource); !ok {
			return Null(), nil
		}
		return NativeFnValue(&NativeFn{This: ResourceValue(handle), Call: m.resourceRead}), nil
	case "write":
		_, ok := resource.(IoResource)
		if !ok {
			return Null(), nil
		}
		return NativeFnValue(&NativeFn{This: ResourceValue(handle), Call: m.resourceWrite}), nil
	case "flush":
		_, ok := resource.(IoResource)
		if !ok {
			return Null(), nil
		}
		return NativeFnValue(&NativeFn{This: ResourceValue(handle), Call: m.resourceFlush}), nil
	default:
		return Null(), nil
	}
}

func (m *Machine) resourceRead(this Value, args []Value, mm *Machine) (Value, error) {
	resource, ok := mm.resources.get(this.ResourceHandle())
	if !ok {
		return okErrDict(false, Str("closed resource")), nil
	}
	ioRes, ok := resource.(IoResource)
	if !ok {
		return okErrDict(false, Str("resource does not support read")), nil
	}
	size := 4096
	if len(args) > 0 && args[0].Kind == KindNum {
		size = int(args[0].AsNum())
	}
	buf := make([]byte, size)
	n, err := ioRes.Read(buf)
	if err != nil && n == 0 {
		return okErrDict(false, Str(err.Error())), nil
	}
	return okErrDict(true, Str(string(buf[:n]))), nil
}

func (m *Machine) resourceWrite(this Value, args []Value, mm *Machine) (Value, error) {
	resource, ok := mm.resources.get(this.ResourceHandle())
	if !ok {
		return okErrDict(false, Str("closed resource")), nil
	}
	ioRes, ok := resource.(IoResource)
	if !ok {
		return okErrDict(false, Str("resource does not support write")), nil
	}
	data := ""
	if len(args) > 0 {
		data = mm.stringify(args[0])
	}
	n, err := ioRes.Write([]byte(data))
	if err != nil {
		return okErrDict(false, Str(err.Error())), nil
	}
	return okErrDict(true, Num(float64(n))), nil
}

func (m *Machine) resourceFlush(this Value, args []Value, mm *Machine) (Value, error) {
	resource, ok := mm.resources.get(this.ResourceHandle())
	if !ok {
		return okErrDict(false, Str("closed resource")), nil
	}
	ioRes, ok := resource.(IoResource)
	if !ok {
		return okErrDict(true, Null()), nil
	}
	if err := ioRes.Flush(); err != nil {
		return okErrDict(false, Str(err.Error())), nil
	}
	return okErrDict(true, Null()), nil
}
