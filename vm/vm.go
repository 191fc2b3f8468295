// Package vm implements the Vellum bytecode virtual machine: the tagged
// value model, the garbage-collected heap, the bytecode reader, and the
// execution engine that ties them together.
package vm

import (
	"github.com/vellumlang/vellum/bytecode"
)

// ValueRegisterEntry names one value-stack slot visible at a given
// lexical depth. Lookup scans the register from newest to oldest.
type ValueRegisterEntry struct {
	Name       string
	StackIndex int
	Depth      int
	Mutable    bool
}

// Frame is one call-stack entry: the name it executes under and the
// register length to truncate back to on pop.
type Frame struct {
	Name           string
	RegisterCutoff int
}

// controlFlowKind distinguishes the three ways executing a statement
// list can end early.
type controlFlowKind byte

const (
	cfNone controlFlowKind = iota
	cfBreak
	cfContinue
	cfReturn
)

type controlFlow struct {
	kind  controlFlowKind
	value Value
}

var flowNone = controlFlow{kind: cfNone}

// Machine is a single owning VM context: its value stack, name
// register, frame stack, heap, reader, and permission set. There is no
// process-wide singleton; every piece of "global" state lives here.
type Machine struct {
	valueStack ValueStack
	register   []ValueRegisterEntry
	frames     []Frame
	heap       *Heap
	reader     *Reader
	perms      map[string]bool
	filename   string
	resources  resourceTable
}

// NewMachine constructs a Machine ready to run a compiled program. perms
// is the set of capability names granted by the launcher (env, memory,
// deep-stack-trace).
func NewMachine(program bytecode.Program, filename string, perms map[string]bool) *Machine {
	if perms == nil {
		perms = map[string]bool{}
	}
	m := &Machine{
		heap:     NewHeap(),
		reader:   NewReader(program.Bytes, program.Constants, program.Positions),
		perms:    perms,
		filename: filename,
	}
	m.frames = append(m.frames, Frame{Name: "@runtime", RegisterCutoff: 0})
	registerBuiltins(m)
	return m
}

// Run decodes and executes every top-level statement until the reader
// is exhausted, returning the first uncaught runtime error.
func (m *Machine) Run() error {
	for !m.reader.AtEnd() {
		flow, err := m.executeStatement()
		if err != nil {
			return err
		}
		if flow.kind == cfReturn {
			// a bare top-level return simply ends execution early.
			return nil
		}
	}
	return nil
}

// executeStatement decodes and runs exactly one top-level instruction.
func (m *Machine) executeStatement() (controlFlow, error) {
	op := m.reader.ReadOpcode()
	switch op {
	case bytecode.OpVar, bytecode.OpConst:
		return flowNone, m.executeVar(op == bytecode.OpConst)
	case bytecode.OpAssign:
		return flowNone, m.executeAssignStatement()
	case bytecode.OpValue:
		_, err := m.executeValue()
		return flowNone, err
	case bytecode.OpReturn:
		v, err := m.executeValue()
		if err != nil {
			return flowNone, err
		}
		return controlFlow{kind: cfReturn, value: v}, nil
	case bytecode.OpBreak:
		return controlFlow{kind: cfBreak}, nil
	case bytecode.OpContinue:
		return controlFlow{kind: cfContinue}, nil
	case bytecode.OpCondition:
		return m.executeCondition()
	case bytecode.OpWhile:
		return m.executeWhile()
	default:
		return flowNone, m.runtimeError(UnknownRuntimeError, "unrecognised top-level opcode "+op.String())
	}
}

// executeBlock runs a sub-chunk's statements in sequence, stopping and
// propagating the first non-None control flow it encounters.
func (m *Machine) executeBlock(chunk []byte) (controlFlow, error) {
	saved := m.reader
	m.reader = NewReader(chunk, m.reader.Constants(), m.reader.Positions())
	defer func() { m.reader = saved }()

	for !m.reader.AtEnd() {
		flow, err := m.executeStatement()
		if err != nil {
			return flowNone, err
		}
		if flow.kind != cfNone {
			return flow, nil
		}
	}
	return flowNone, nil
}

func (m *Machine) executeVar(isConst bool) error {
	op := m.reader.ReadOpcode()
	name := m.reader.ReadRawRef(op)
	value, err := m.executeValue()
	if err != nil {
		return err
	}
	if m.valueExistsAtCurrentDepth(name) {
		return m.runtimeError(AssignmentError, "cannot redeclare '"+name+"' in the same scope")
	}
	m.addValue(name, value, !isConst)
	return nil
}

func (m *Machine) executeAssignStatement() error {
	kind, name, keyChain, err := m.readAssignTarget()
	if err != nil {
		return err
	}
	opByte := m.reader.ReadByte()
	assignOp := bytecode.Opcode(opByte)
	value, err := m.executeValue()
	if err != nil {
		return err
	}

	if kind == targetWord {
		return m.assignWord(name, assignOp, value)
	}
	return m.assignAttr(name, keyChain, assignOp, value)
}

type assignTargetKind byte

const (
	targetWord assignTargetKind = iota
	targetAttr
)

// readAssignTarget decodes an assignment target: either a bare Short/Long
// raw name, or a chain of Attr(base, key) links terminating in one. The
// base name is returned along with the ordered key expressions still to
// be evaluated against it.
func (m *Machine) readAssignTarget() (assignTargetKind, string, []Value, error) {
	op := m.reader.ReadOpcode()
	if op == bytecode.OpShort || op == bytecode.OpLong {
		return targetWord, m.reader.ReadRawRef(op), nil, nil
	}
	if op != bytecode.OpAttr {
		return 0, "", nil, m.runtimeError(UnexpectedAssignment, "invalid assignment target")
	}
	_, name, keys, err := m.readAssignTarget()
	if err != nil {
		return 0, "", nil, err
	}
	keyVal, err := m.executeValue()
	if err != nil {
		return 0, "", nil, err
	}
	return targetAttr, name, append(keys, keyVal), nil
}

func (m *Machine) assignWord(name string, op bytecode.Opcode, value Value) error {
	entry, ok := m.getValueRegister(name)
	if !ok {
		return m.runtimeError(ExpectedValueStack, "undeclared identifier '"+name+"'")
	}
	if !entry.Mutable {
		return m.runtimeError(AssignmentToConstant, "cannot assign to constant '"+name+"'")
	}
	current := m.valueStack[entry.StackIndex]
	final, err := m.applyCompoundOp(op, current, value)
	if err != nil {
		return err
	}
	m.valueStack[entry.StackIndex] = m.borrow(final)
	return nil
}

func (m *Machine) assignAttr(rootName string, keys []Value, op bytecode.Opcode, value Value) error {
	entry, ok := m.getValueRegister(rootName)
	if !ok {
		return m.runtimeError(ExpectedValueStack, "undeclared identifier '"+rootName+"'")
	}
	base := m.valueStack[entry.StackIndex]
	for i := 0; i < len(keys)-1; i++ {
		next, err := m.dictEntryValue(base, keys[i])
		if err != nil {
			return err
		}
		base = next
	}
	lastKey := keys[len(keys)-1]
	return m.setDictEntry(base, lastKey, op, value)
}

func (m *Machine) dictEntryValue(base Value, key Value) (Value, error) {
	entries, err := m.dictEntries(base)
	if err != nil {
		return Value{}, err
	}
	entry, ok := entries[key.ToValueIndex()]
	if !ok {
		return Value{}, m.runtimeError(UnexpectedAttributeAccess, "no such attribute")
	}
	return entry.Value, nil
}

func (m *Machine) dictEntries(base Value) (map[ValueIndex]DictEntry, error) {
	if base.Kind != KindDict {
		return nil, m.runtimeError(UnexpectedAttributeAccess, "attribute access on non-object")
	}
	if base.IsDictRef() {
		return m.heap.Map(base.DictRefIndex()), nil
	}
	return base.AsDict(), nil
}

func (m *Machine) setDictEntry(base Value, key Value, op bytecode.Opcode, value Value) error {
	entries, err := m.dictEntries(base)
	if err != nil {
		return err
	}
	idx := key.ToValueIndex()
	existing, exists := entries[idx]
	if exists {
		if !existing.Mutable {
			return m.runtimeError(AssignmentToConstant, "cannot assign to read-only attribute")
		}
		final, err := m.applyCompoundOp(op, existing.Value, value)
		if err != nil {
			return err
		}
		entries[idx] = DictEntry{Value: m.borrow(final), Mutable: true}
		return nil
	}
	if op != bytecode.AssignSet {
		return m.runtimeError(UnexpectedAssignment, "compound assignment to a missing attribute")
	}
	entries[idx] = DictEntry{Value: m.borrow(value), Mutable: true}
	return nil
}

func (m *Machine) applyCompoundOp(op bytecode.Opcode, current, value Value) (Value, error) {
	switch op {
	case bytecode.AssignSet:
		return value, nil
	case bytecode.AssignAdd:
		return m.addValues(current, value), nil
	case bytecode.AssignSub:
		return m.subValues(current, value)
	default:
		return Value{}, m.runtimeError(UnknownRuntimeError, "unrecognised assignment operator")
	}
}

func (m *Machine) executeCondition() (controlFlow, error) {
	armCount := int(m.reader.ReadByte())
	for i := 0; i < armCount; i++ {
		guard, err := m.executeValue()
		if err != nil {
			return flowNone, err
		}
		body := m.reader.ReadChunkBytes()
		if guard.Truthy() {
			flow, err := m.executeBlock(body)
			if err != nil {
				return flowNone, err
			}
			m.skipRemainingArms(armCount - i - 1)
			return flow, nil
		}
	}
	hasElse := m.reader.ReadByte() == 1
	if hasElse {
		body := m.reader.ReadChunkBytes()
		return m.executeBlock(body)
	}
	return flowNone, nil
}

// skipRemainingArms advances the reader past arms that were not taken,
// without evaluating their guards, since each arm's guard and body must
// still be consumed byte-for-byte.
func (m *Machine) skipRemainingArms(remaining int) {
	for i := 0; i < remaining; i++ {
		m.reader.SkipExpr()
		m.reader.ReadChunkBytes()
	}
	hasElse := m.reader.ReadByte()
	if hasElse == 1 {
		m.reader.ReadChunkBytes()
	}
}

func (m *Machine) executeWhile() (controlFlow, error) {
	guardStart := m.reader.Save()
	for {
		m.reader.Restore(guardStart)
		guard, err := m.executeValue()
		if err != nil {
			return flowNone, err
		}
		if !guard.Truthy() {
			m.reader.ReadChunkBytes()
			return flowNone, nil
		}
		body := m.reader.ReadChunkBytes()
		flow, err := m.executeBlock(body)
		if err != nil {
			return flowNone, err
		}
		switch flow.kind {
		case cfBreak:
			return flowNone, nil
		case cfReturn:
			return flow, nil
		}
	}
}

func (m *Machine) createFrame(name string) {
	m.frames = append(m.frames, Frame{Name: name, RegisterCutoff: len(m.register)})
}

func (m *Machine) removeFrame() {
	top := m.frames[len(m.frames)-1]
	m.frames = m.frames[:len(m.frames)-1]
	m.register = m.register[:top.RegisterCutoff]
}

func (m *Machine) currentDepth() int {
	return len(m.frames)
}

func (m *Machine) addValue(name string, value Value, mutable bool) {
	idx := m.valueStack.Push(m.borrow(value))
	m.register = append(m.register, ValueRegisterEntry{
		Name:       name,
		StackIndex: idx,
		Depth:      m.currentDepth(),
		Mutable:    mutable,
	})
}

func (m *Machine) getValueRegister(name string) (ValueRegisterEntry, bool) {
	depth := m.currentDepth()
	for i := len(m.register) - 1; i >= 0; i-- {
		entry := m.register[i]
		if entry.Name == name && entry.Depth <= depth {
			return entry, true
		}
	}
	return ValueRegisterEntry{}, false
}

func (m *Machine) getValue(name string) (Value, bool) {
	entry, ok := m.getValueRegister(name)
	if !ok {
		return Value{}, false
	}
	return m.valueStack[entry.StackIndex], true
}

func (m *Machine) valueExistsAtCurrentDepth(name string) bool {
	depth := m.currentDepth()
	for i := len(m.register) - 1; i >= 0; i-- {
		entry := m.register[i]
		if entry.Depth < depth {
			break
		}
		if entry.Name == name {
			return true
		}
	}
	return false
}

// borrow promotes an immediate Dict to a heap-resident map referenced by
// a DictRef handle, so subsequent attribute assignment mutates the shared
// map rather than a copy. Every other value is returned unchanged,
// including arrays (which already indirect through the value stack) and
// a dict already holding a DictRef.
func (m *Machine) borrow(v Value) Value {
	if v.Kind == KindDict && !v.IsDictRef() {
		handle := m.heap.AllocMap(v.AsDict())
		return DictRef(handle.Index())
	}
	return v
}

// RunShutdownCollection performs the mandatory end-of-program collection
// required by spec.md's testable property 1: every handle must be freed
// after the root set goes empty.
func (m *Machine) RunShutdownCollection() {
	m.heap.Collect(Roots{})
}

func (m *Machine) Heap() *Heap { return m.heap }

// LoadProgram rebinds the machine to a freshly compiled program while
// keeping its value stack, register, and heap intact, so a REPL can
// recompile and run one line at a time against accumulated globals.
func (m *Machine) LoadProgram(program bytecode.Program) {
	m.reader = NewReader(program.Bytes, program.Constants, program.Positions)
}
