package vm

import (
	"fmt"
	"math"
	"strings"

	"github.com/vellumlang/vellum/bytecode"
)

// addValues implements Add: numeric addition between two numbers,
// string concatenation whenever either operand is a string (with the
// other operand stringified), and the Str representation otherwise.
func (m *Machine) addValues(a, b Value) Value {
	if a.Kind == KindNum && b.Kind == KindNum {
		return Num(a.AsNum() + b.AsNum())
	}
	if a.Kind == KindStr || b.Kind == KindStr {
		return Str(m.stringify(a) + m.stringify(b))
	}
	return Str(m.stringify(a) + m.stringify(b))
}

func (m *Machine) subValues(a, b Value) (Value, error) {
	if a.Kind != KindNum || b.Kind != KindNum {
		return Value{}, m.runtimeError(UnexpectedTypeError, "'-' requires two numbers")
	}
	return Num(a.AsNum() - b.AsNum()), nil
}

func (m *Machine) multValues(a, b Value) (Value, error) {
	if a.Kind != KindNum || b.Kind != KindNum {
		return Value{}, m.runtimeError(UnexpectedTypeError, "'*' requires two numbers")
	}
	return Num(a.AsNum() * b.AsNum()), nil
}

func (m *Machine) divValues(a, b Value) (Value, error) {
	if a.Kind != KindNum || b.Kind != KindNum {
		return Value{}, m.runtimeError(UnexpectedTypeError, "'/' requires two numbers")
	}
	return Num(a.AsNum() / b.AsNum()), nil
}

func (m *Machine) powValues(a, b Value) (Value, error) {
	if a.Kind != KindNum || b.Kind != KindNum {
		return Value{}, m.runtimeError(UnexpectedTypeError, "'**' requires two numbers")
	}
	return Num(math.Pow(a.AsNum(), b.AsNum())), nil
}

// compareValues implements Compare: ordering operators return false for
// any non-numeric pair; Equal/NotEqual compare by ValueIndex projection
// (so Num compares by raw bit pattern, matching dict-key semantics).
func (m *Machine) compareValues(op bytecode.LogicalOperator, a, b Value) Value {
	switch op {
	case bytecode.Equal:
		return Bool(a.ToValueIndex() == b.ToValueIndex())
	case bytecode.NotEqual:
		return Bool(a.ToValueIndex() != b.ToValueIndex())
	}
	if a.Kind != KindNum || b.Kind != KindNum {
		return Bool(false)
	}
	switch op {
	case bytecode.GreaterThan:
		return Bool(a.AsNum() > b.AsNum())
	case bytecode.LessThan:
		return Bool(a.AsNum() < b.AsNum())
	case bytecode.GreaterThanOrEqual:
		return Bool(a.AsNum() >= b.AsNum())
	case bytecode.LessThanOrEqual:
		return Bool(a.AsNum() <= b.AsNum())
	default:
		return Bool(false)
	}
}

// inValues implements the `in` operator: dict membership by key, string
// substring containment, array element containment.
func (m *Machine) inValues(needle, haystack Value) (Value, error) {
	switch haystack.Kind {
	case KindDict:
		entries, err := m.dictEntries(haystack)
		if err != nil {
			return Value{}, err
		}
		_, ok := entries[needle.ToValueIndex()]
		return Bool(ok), nil
	case KindStr:
		if needle.Kind != KindStr {
			return Bool(false), nil
		}
		return Bool(strings.Contains(haystack.AsStr(), needle.AsStr())), nil
	case KindArray:
		needleIdx := needle.ToValueIndex()
		for _, idx := range haystack.AsArrayIndices() {
			if idx < 0 || idx >= len(m.valueStack) {
				continue
			}
			if m.valueStack[idx].ToValueIndex() == needleIdx {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	default:
		return Bool(false), nil
	}
}

// stringify renders a value the way string concatenation and print()
// display it.
func (m *Machine) stringify(v Value) string {
	switch v.Kind {
	case KindStr:
		return v.AsStr()
	case KindBoolean:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KindNull:
		return "null"
	case KindNum:
		return formatNum(v.AsNum())
	case KindArray:
		parts := make([]string, 0, len(v.AsArrayIndices()))
		for _, idx := range v.AsArrayIndices() {
			if idx >= 0 && idx < len(m.valueStack) {
				parts = append(parts, m.stringify(m.valueStack[idx]))
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindDict:
		entries, _ := m.dictEntries(v)
		parts := make([]string, 0, len(entries))
		for k, entry := range entries {
			parts = append(parts, k.s+": "+m.stringify(entry.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindFunc, KindNativeFn:
		return "[function]"
	case KindResource:
		return "[resource]"
	default:
		return ""
	}
}

func formatNum(n float64) string {
	if n == math.Trunc(n) && !math.IsInf(n, 0) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
