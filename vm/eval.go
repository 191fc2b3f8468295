package vm

import (
	"github.com/vellumlang/vellum/bytecode"
)

// executeValue decodes and evaluates exactly one expression, centralising
// the switch over every expression opcode in one place as spec.md's
// Design Notes recommend for dynamic dispatch on value tags.
func (m *Machine) executeValue() (Value, error) {
	op := m.reader.ReadOpcode()
	switch op {
	case bytecode.OpTrue:
		return Bool(true), nil
	case bytecode.OpFalse:
		return Bool(false), nil
	case bytecode.OpNull:
		return Null(), nil
	case bytecode.OpNum:
		return Num(m.reader.ReadFloat64()), nil
	case bytecode.OpStr, bytecode.OpStrLong:
		return Str(m.reader.ReadTypedRef(op)), nil
	case bytecode.OpWord, bytecode.OpWordLong:
		name := m.reader.ReadTypedRef(op)
		v, ok := m.getValue(name)
		if !ok {
			return Value{}, m.runtimeError(ExpectedValueStack, "undeclared identifier '"+name+"'")
		}
		return v, nil
	case bytecode.OpGroup:
		return m.executeValue()
	case bytecode.OpAttr:
		return m.executeAttr()
	case bytecode.OpCall:
		return m.executeCall()
	case bytecode.OpAdd:
		left, right, err := m.binaryOperands()
		if err != nil {
			return Value{}, err
		}
		return m.addValues(left, right), nil
	case bytecode.OpSub:
		left, right, err := m.binaryOperands()
		if err != nil {
			return Value{}, err
		}
		return m.subValues(left, right)
	case bytecode.OpMult:
		left, right, err := m.binaryOperands()
		if err != nil {
			return Value{}, err
		}
		return m.multValues(left, right)
	case bytecode.OpDiv:
		left, right, err := m.binaryOperands()
		if err != nil {
			return Value{}, err
		}
		return m.divValues(left, right)
	case bytecode.OpPow:
		left, right, err := m.binaryOperands()
		if err != nil {
			return Value{}, err
		}
		return m.powValues(left, right)
	case bytecode.OpAnd:
		left, err := m.executeValue()
		if err != nil {
			return Value{}, err
		}
		if !left.Truthy() {
			m.reader.SkipExpr()
			return Bool(false), nil
		}
		right, err := m.executeValue()
		if err != nil {
			return Value{}, err
		}
		return Bool(left.Truthy() && right.Truthy()), nil
	case bytecode.OpOr:
		left, err := m.executeValue()
		if err != nil {
			return Value{}, err
		}
		if left.Truthy() {
			m.reader.SkipExpr()
			return Bool(true), nil
		}
		right, err := m.executeValue()
		if err != nil {
			return Value{}, err
		}
		return Bool(left.Truthy() || right.Truthy()), nil
	case bytecode.OpInvert:
		v, err := m.executeValue()
		if err != nil {
			return Value{}, err
		}
		return Bool(!v.Truthy()), nil
	case bytecode.OpIn:
		left, right, err := m.binaryOperands()
		if err != nil {
			return Value{}, err
		}
		return m.inValues(left, right)
	case bytecode.OpCompare:
		logOp := bytecode.LogicalOperator(m.reader.ReadByte())
		left, right, err := m.binaryOperands()
		if err != nil {
			return Value{}, err
		}
		return m.compareValues(logOp, left, right), nil
	case bytecode.OpTernary:
		cond, err := m.executeValue()
		if err != nil {
			return Value{}, err
		}
		if cond.Truthy() {
			v, err := m.executeValue()
			if err != nil {
				return Value{}, err
			}
			m.reader.SkipExpr()
			return v, nil
		}
		m.reader.SkipExpr()
		return m.executeValue()
	case bytecode.OpArray:
		return m.executeArray()
	case bytecode.OpDict:
		return m.executeDict()
	case bytecode.OpFunc:
		return m.executeFuncLiteral()
	case bytecode.OpAwait:
		// reserved, no runtime semantics: evaluate and pass through.
		return m.executeValue()
	default:
		return Value{}, m.runtimeError(UnknownRuntimeError, "unrecognised expression opcode "+op.String())
	}
}

func (m *Machine) binaryOperands() (Value, Value, error) {
	left, err := m.executeValue()
	if err != nil {
		return Value{}, Value{}, err
	}
	right, err := m.executeValue()
	if err != nil {
		return Value{}, Value{}, err
	}
	return left, right, nil
}

func (m *Machine) executeArray() (Value, error) {
	count := int(m.reader.ReadUint32())
	indices := make([]int, 0, count)
	for i := 0; i < count; i++ {
		elem, err := m.executeValue()
		if err != nil {
			return Value{}, err
		}
		idx := m.valueStack.Push(m.borrow(elem))
		indices = append(indices, idx)
	}
	return ArrayOf(indices), nil
}

func (m *Machine) executeDict() (Value, error) {
	count := int(m.reader.ReadUint32())
	entries := make(map[ValueIndex]DictEntry, count)
	for i := 0; i < count; i++ {
		op := m.reader.ReadOpcode()
		key := m.reader.ReadRawRef(op)
		value, err := m.executeValue()
		if err != nil {
			return Value{}, err
		}
		entries[StrIndex(key)] = DictEntry{Value: value, Mutable: true}
	}
	return DictLiteral(entries), nil
}

func (m *Machine) executeFuncLiteral() (Value, error) {
	name := m.reader.ReadRawRef(m.reader.ReadOpcode())
	arity := int(m.reader.ReadByte())
	params := make([]Param, arity)
	for i := 0; i < arity; i++ {
		pname := m.reader.ReadRawRef(m.reader.ReadOpcode())
		isRest := m.reader.ReadByte() == 1
		params[i] = Param{Name: pname, Rest: isRest}
	}
	bodyStart := m.reader.ci
	for m.reader.PeekOpcode() != bytecode.OpFuncEnd {
		m.reader.SkipStatement()
	}
	body := m.reader.bytes[bodyStart:m.reader.ci]
	m.reader.ReadOpcode() // consume FuncEnd

	fn := &Function{Name: name, Params: params, Body: body}
	value := FuncValue(fn)
	if name != "anonymous" {
		m.addValue(name, value, false)
	}
	return value, nil
}

func (m *Machine) executeAttr() (Value, error) {
	target, err := m.executeValue()
	if err != nil {
		return Value{}, err
	}
	key, err := m.executeValue()
	if err != nil {
		return Value{}, err
	}
	return m.resolveAttr(target, key)
}

func (m *Machine) resolveAttr(target, key Value) (Value, error) {
	switch target.Kind {
	case KindDict:
		entries, err := m.dictEntries(target)
		if err != nil {
			return Value{}, err
		}
		entry, ok := entries[key.ToValueIndex()]
		if !ok {
			return Null(), nil
		}
		return entry.Value, nil
	case KindStr:
		return m.resolveStringAttr(target.AsStr(), key)
	case KindArray:
		return m.resolveArrayAttr(target.AsArrayIndices(), key)
	case KindResource:
		return m.resolveResourceAttr(target.ResourceHandle(), key)
	default:
		return Value{}, m.runtimeError(UnexpectedAttributeAccess, "cannot access attribute on "+target.TypeName())
	}
}

func (m *Machine) resolveArrayAttr(indices []int, key Value) (Value, error) {
	if key.Kind == KindStr && key.AsStr() == "length" {
		return Num(float64(len(indices))), nil
	}
	if key.Kind != KindNum {
		return Value{}, m.runtimeError(UnexpectedAttributeAccess, "array index must be a number")
	}
	i := int(key.AsNum())
	if i < 0 || i >= len(indices) {
		return Null(), nil
	}
	stackIdx := indices[i]
	if stackIdx < 0 || stackIdx >= len(m.valueStack) {
		return Value{}, m.runtimeError(MemoryFailure, "array element index out of range")
	}
	return m.valueStack[stackIdx], nil
}

func (m *Machine) executeCall() (Value, error) {
	callee, err := m.executeValue()
	if err != nil {
		return Value{}, err
	}
	arity := int(m.reader.ReadByte())
	args := make([]Value, 0, arity)
	for i := 0; i < arity; i++ {
		arg, err := m.executeValue()
		if err != nil {
			return Value{}, err
		}
		args = append(args, arg)
	}

	switch callee.Kind {
	case KindNativeFn:
		native := callee.AsNativeFn()
		m.createFrame("NativeFunction")
		defer m.removeFrame()
		return native.Call(native.This, args, m)
	case KindFunc:
		return m.callFunc(callee.AsFunc(), args)
	default:
		return Value{}, m.runtimeError(UnexpectedTypeError, "value of type "+callee.TypeName()+" is not callable")
	}
}

// callFunc binds parameters and executes a user-defined function's body
// chunk per spec.md §4.4: push a frame, rebind the reader to the chunk,
// bind parameters, run to Return/end-of-chunk/control-flow, then restore.
func (m *Machine) callFunc(fn *Function, args []Value) (Value, error) {
	m.createFrame(fn.Name)
	defer m.removeFrame()

	for i, param := range fn.Params {
		if param.Rest {
			rest := args[restStart(i, len(args)):]
			indices := make([]int, 0, len(rest))
			for _, v := range rest {
				idx := m.valueStack.Push(m.borrow(v))
				indices = append(indices, idx)
			}
			m.addValue(param.Name, ArrayOf(indices), true)
			break
		}
		var arg Value
		if i < len(args) {
			arg = args[i]
		} else {
			arg = Null()
		}
		m.addValue(param.Name, arg, true)
	}

	saved := m.reader
	m.reader = NewReader(fn.Body, saved.Constants(), saved.Positions())
	defer func() { m.reader = saved }()

	for !m.reader.AtEnd() {
		flow, err := m.executeStatement()
		if err != nil {
			return Value{}, err
		}
		switch flow.kind {
		case cfReturn:
			return flow.value, nil
		case cfBreak, cfContinue:
			return Value{}, m.runtimeError(UnknownRuntimeError, "break/continue outside a loop")
		}
	}
	return Null(), nil
}

func restStart(i, n int) int {
	if i < n {
		return i
	}
	return n
}
