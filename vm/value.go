package vm

import "math"

// Value is the tagged union of every runtime value Vellum bytecode can
// produce. Exactly one of the typed fields is meaningful; which one is
// determined by Kind.
type Value struct {
	Kind ValueKind

	boolean bool
	num     float64
	str     string

	// Array holds value-stack indices, not values directly, so element
	// aliasing through assignment is visible to every holder.
	array []int

	// Dict is either an immediate entry map (DictRef < 0) or a reference
	// to a heap-resident dict living at DictRef in the VM's heap.
	dict    map[ValueIndex]DictEntry
	dictRef int

	fn     *Function
	native *NativeFn

	// resourceHandle indexes into the Machine's resource table when
	// Kind is KindResource (child-process stdio streams, child handles).
	resourceHandle int
}

// ValueKind discriminates which field of a Value is populated.
type ValueKind byte

const (
	KindNull ValueKind = iota
	KindBoolean
	KindNum
	KindStr
	KindArray
	KindDict
	KindFunc
	KindNativeFn
	KindResource
)

// DictEntry pairs a dict value with whether it can be reassigned.
type DictEntry struct {
	Value   Value
	Mutable bool
}

// Function is a user-defined function: its declared name, its parameter
// list, and its self-contained body chunk.
type Function struct {
	Name    string
	Params  []Param
	Body    []byte
	IsAsync bool
}

// Param is one declared function parameter.
type Param struct {
	Name string
	Rest bool
}

// NativeFn is a host-implemented callable bound to an optional receiver.
type NativeFn struct {
	This Value
	Call func(this Value, args []Value, m *Machine) (Value, error)
}

func Null() Value                { return Value{Kind: KindNull} }
func Bool(b bool) Value          { return Value{Kind: KindBoolean, boolean: b} }
func Num(n float64) Value        { return Value{Kind: KindNum, num: n} }
func Str(s string) Value         { return Value{Kind: KindStr, str: s} }
func ArrayOf(indices []int) Value {
	return Value{Kind: KindArray, array: indices}
}

// DictLiteral builds an immediate (not yet heap-borrowed) dict value.
func DictLiteral(entries map[ValueIndex]DictEntry) Value {
	return Value{Kind: KindDict, dict: entries, dictRef: -1}
}

// DictRef builds a dict value that refers to a heap-resident map at the
// given handle index.
func DictRef(index int) Value {
	return Value{Kind: KindDict, dictRef: index}
}

func FuncValue(fn *Function) Value {
	return Value{Kind: KindFunc, fn: fn}
}

func NativeFnValue(n *NativeFn) Value {
	return Value{Kind: KindNativeFn, native: n}
}

// ResourceValue wraps a resource-table handle as a value, for passing
// child-process stdio streams and child handles through user code.
func ResourceValue(handle int) Value {
	return Value{Kind: KindResource, resourceHandle: handle}
}

func (v Value) AsBool() bool            { return v.boolean }
func (v Value) AsNum() float64          { return v.num }
func (v Value) AsStr() string           { return v.str }
func (v Value) AsArrayIndices() []int   { return v.array }
func (v Value) AsDict() map[ValueIndex]DictEntry { return v.dict }
func (v Value) IsDictRef() bool         { return v.Kind == KindDict && v.dict == nil }
func (v Value) DictRefIndex() int       { return v.dictRef }
func (v Value) AsFunc() *Function       { return v.fn }
func (v Value) AsNativeFn() *NativeFn   { return v.native }
func (v Value) ResourceHandle() int     { return v.resourceHandle }

// TypeName returns the runtime type-name string exposed to user code via
// typeof().
func (v Value) TypeName() string {
	switch v.Kind {
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	case KindStr:
		return "string"
	case KindNum:
		return "number"
	case KindFunc, KindNativeFn:
		return "function"
	case KindDict:
		return "object"
	case KindArray:
		return "array"
	case KindResource:
		return "resource"
	default:
		return "null"
	}
}

// Truthy implements the language's truthiness rule: false booleans, null,
// 0.0, and the empty string are falsy; everything else is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBoolean:
		return v.boolean
	case KindNull:
		return false
	case KindNum:
		return v.num != 0
	case KindStr:
		return v.str != ""
	default:
		return true
	}
}

// ValueIndex is a hashable projection of a Value usable as a Go map key
// (dict entries are keyed by ValueIndex rather than Value directly).
// Floats compare and hash by their raw bit pattern, so NaN is self-equal
// and -0.0 is distinct from 0.0 — an intentional, preserved quirk.
type ValueIndex struct {
	kind ValueIndexKind
	b    bool
	bits uint64
	s    string
}

type ValueIndexKind byte

const (
	VIBoolean ValueIndexKind = iota
	VIStr
	VINum
	VINull
)

// ToValueIndex projects v into a ValueIndex. Non-hashable kinds (Array,
// Dict, Func, NativeFn) collapse to VINull, matching the original's
// catch-all behavior.
func (v Value) ToValueIndex() ValueIndex {
	switch v.Kind {
	case KindBoolean:
		return ValueIndex{kind: VIBoolean, b: v.boolean}
	case KindNum:
		return ValueIndex{kind: VINum, bits: math.Float64bits(v.num)}
	case KindStr:
		return ValueIndex{kind: VIStr, s: v.str}
	default:
		return ValueIndex{kind: VINull}
	}
}

// StrIndex builds a ValueIndex directly from a string, for dict keys
// known at decode time without constructing an intermediate Value.
func StrIndex(s string) ValueIndex {
	return ValueIndex{kind: VIStr, s: s}
}
