package vm

import (
	"fmt"
	"strings"
)

// ErrorKind is one of the taxonomy of runtime error prefixes that is
// part of the user-visible contract (spec.md §7).
type ErrorKind string

const (
	AssignmentError           ErrorKind = "AssignmentError"
	AssignmentToConstant      ErrorKind = "AssignmentToConstant"
	UnexpectedAttributeAccess ErrorKind = "UnexpectedAttributeAccess"
	UnexpectedAssignment      ErrorKind = "UnexpectedAssignment"
	UnexpectedTypeError       ErrorKind = "UnexpectedTypeError"
	InvalidArgumentError      ErrorKind = "InvalidArgumentError"
	MemoryFailure             ErrorKind = "MemoryFailure"
	SegmentationFault         ErrorKind = "SegmentationFault"
	ExpectedValueStack        ErrorKind = "ExpectedValueStack"
	UnknownRuntimeError       ErrorKind = "UnknownRuntimeError"
)

// RuntimeError is a positioned runtime error carrying the captured frame
// trace at the time of failure.
type RuntimeError struct {
	Kind      ErrorKind
	Message   string
	Filename  string
	Frames    []string
	ByteStart int
	ByteEnd   int
	Line      int32
	Column    int
}

func (e RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "💥 %s: %s", e.Kind, e.Message)
	if e.Filename != "" {
		fmt.Fprintf(&b, " (%s:%d:%d)", e.Filename, e.Line, e.Column)
	} else if e.Line != 0 || e.Column != 0 {
		fmt.Fprintf(&b, " (%d:%d)", e.Line, e.Column)
	}
	if len(e.Frames) > 0 {
		b.WriteString("\n  at " + strings.Join(e.Frames, "\n  at "))
	}
	return b.String()
}

// runtimeError builds a RuntimeError carrying the machine's current
// frame trace and the position of the statement being decoded, excluding
// synthetic frames whose names begin with "@" unless the deep-stack-trace
// permission is granted.
func (m *Machine) runtimeError(kind ErrorKind, message string) error {
	deep := m.perms["deep-stack-trace"]
	frames := make([]string, 0, len(m.frames))
	for _, f := range m.frames {
		if !deep && strings.HasPrefix(f.Name, "@") {
			continue
		}
		frames = append(frames, f.Name)
	}
	err := RuntimeError{
		Kind:     kind,
		Message:  message,
		Filename: m.filename,
		Frames:   frames,
	}
	if m.reader != nil {
		pos := m.reader.CurrentPosition()
		err.ByteStart = pos.ByteOffset
		err.ByteEnd = m.reader.Offset()
		err.Line = pos.Line
		err.Column = pos.Column
	}
	return err
}
