package vm

import (
	"strconv"
	"strings"
)

// resolveStringAttr implements attribute access on a string: a fixed
// library of method closures bound to the receiver string, a `length`
// property, and per-character substring indexing for numeric keys.
func (m *Machine) resolveStringAttr(s string, key Value) (Value, error) {
	if key.Kind == KindNum {
		i := int(key.AsNum())
		runes := []rune(s)
		if i < 0 || i >= len(runes) {
			return Null(), nil
		}
		return Str(string(runes[i])), nil
	}

	if key.Kind != KindStr {
		return Value{}, m.runtimeError(UnexpectedAttributeAccess, "string attribute key must be a string or number")
	}

	if key.AsStr() == "length" {
		return Num(float64(len([]rune(s)))), nil
	}

	method, ok := stringMethods[key.AsStr()]
	if !ok {
		return Null(), nil
	}
	return NativeFnValue(&NativeFn{This: Str(s), Call: method}), nil
}

var stringMethods = map[string]func(this Value, args []Value, m *Machine) (Value, error){
	"toLowerCase": func(this Value, args []Value, m *Machine) (Value, error) {
		return Str(strings.ToLower(this.AsStr())), nil
	},
	"toUpperCase": func(this Value, args []Value, m *Machine) (Value, error) {
		return Str(strings.ToUpper(this.AsStr())), nil
	},
	"toNumber": func(this Value, args []Value, m *Machine) (Value, error) {
		n, err := parseNumber(this.AsStr())
		if err != nil {
			return okErrDict(false, Str(err.Error())), nil
		}
		return okErrDict(true, Num(n)), nil
	},
	"startsWith": func(this Value, args []Value, m *Machine) (Value, error) {
		if len(args) == 0 || args[0].Kind != KindStr {
			return Bool(false), nil
		}
		return Bool(strings.HasPrefix(this.AsStr(), args[0].AsStr())), nil
	},
	"endsWith": func(this Value, args []Value, m *Machine) (Value, error) {
		if len(args) == 0 || args[0].Kind != KindStr {
			return Bool(false), nil
		}
		return Bool(strings.HasSuffix(this.AsStr(), args[0].AsStr())), nil
	},
	"includes": func(this Value, args []Value, m *Machine) (Value, error) {
		if len(args) == 0 || args[0].Kind != KindStr {
			return Bool(false), nil
		}
		return Bool(strings.Contains(this.AsStr(), args[0].AsStr())), nil
	},
	"escapeDebug": func(this Value, args []Value, m *Machine) (Value, error) {
		return Str(escapeDebug(this.AsStr())), nil
	},
	"trim": func(this Value, args []Value, m *Machine) (Value, error) {
		return Str(strings.TrimSpace(this.AsStr())), nil
	},
}

func escapeDebug(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		case '\r':
			b.WriteString("\\r")
		case '"':
			b.WriteString("\\\"")
		case '\\':
			b.WriteString("\\\\")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// okErrDict builds the plain dict the `Ok`/`Err` built-ins use by
// convention: {ok: bool, value|error: v}.
func okErrDict(ok bool, v Value) Value {
	key := "error"
	if ok {
		key = "value"
	}
	return DictLiteral(map[ValueIndex]DictEntry{
		StrIndex("ok"): {Value: Bool(ok), Mutable: false},
		StrIndex(key):  {Value: v, Mutable: false},
	})
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
