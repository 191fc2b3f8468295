package vm

import (
	"bufio"
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"strings"
	"time"
)

// registerBuiltins preloads the global scope spec.md §6 describes: the
// free functions, the Math/Date namespace dicts, and the window object
// (whose env/memory surfaces are gated by launcher-granted permissions).
func registerBuiltins(m *Machine) {
	m.addValue("print", nativeFn(builtinPrint), false)
	m.addValue("typeof", nativeFn(builtinTypeof), false)
	m.addValue("panic", nativeFn(builtinPanic), false)
	m.addValue("readline", nativeFn(builtinReadline), false)
	m.addValue("prompt", nativeFn(builtinPrompt), false)
	m.addValue("confirm", nativeFn(builtinConfirm), false)
	m.addValue("boolean", nativeFn(builtinBoolean), false)
	m.addValue("inf", Num(math.Inf(1)), false)
	m.addValue("Ok", nativeFn(builtinOk), false)
	m.addValue("Err", nativeFn(builtinErr), false)
	m.addValue("Math", mathDict(), false)
	m.addValue("Date", dateDict(), false)
	m.addValue("window", m.windowDict(), false)
}

func nativeFn(fn func(this Value, args []Value, m *Machine) (Value, error)) Value {
	return NativeFnValue(&NativeFn{This: Null(), Call: fn})
}

func argOr(args []Value, i int, fallback Value) Value {
	if i < len(args) {
		return args[i]
	}
	return fallback
}

func builtinPrint(this Value, args []Value, m *Machine) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = m.stringify(a)
	}
	fmt.Println(strings.Join(parts, " "))
	return Null(), nil
}

func builtinTypeof(this Value, args []Value, m *Machine) (Value, error) {
	return Str(argOr(args, 0, Null()).TypeName()), nil
}

func builtinPanic(this Value, args []Value, m *Machine) (Value, error) {
	msg := m.stringify(argOr(args, 0, Str("")))
	fmt.Fprintln(os.Stderr, "💥 panic: "+msg)
	os.Exit(1)
	return Null(), nil
}

var stdinReader = bufio.NewReader(os.Stdin)

func builtinReadline(this Value, args []Value, m *Machine) (Value, error) {
	line, err := stdinReader.ReadString('\n')
	if err != nil {
		return Str(""), nil
	}
	return Str(strings.TrimRight(line, "\r\n")), nil
}

func builtinPrompt(this Value, args []Value, m *Machine) (Value, error) {
	if len(args) > 0 {
		fmt.Print(m.stringify(args[0]))
	}
	return builtinReadline(this, nil, m)
}

func builtinConfirm(this Value, args []Value, m *Machine) (Value, error) {
	if len(args) > 0 {
		fmt.Print(m.stringify(args[0]) + " (y/n) ")
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil {
		return Bool(false), nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return Bool(answer == "y" || answer == "yes"), nil
}

func builtinBoolean(this Value, args []Value, m *Machine) (Value, error) {
	return Bool(argOr(args, 0, Null()).Truthy()), nil
}

func builtinOk(this Value, args []Value, m *Machine) (Value, error) {
	return okErrDict(true, argOr(args, 0, Null())), nil
}

func builtinErr(this Value, args []Value, m *Machine) (Value, error) {
	return okErrDict(false, argOr(args, 0, Null())), nil
}

func mathDict() Value {
	entries := map[ValueIndex]DictEntry{
		StrIndex("floor"): {Value: nativeFn(mathUnary(math.Floor)), Mutable: false},
		StrIndex("round"): {Value: nativeFn(mathUnary(math.Round)), Mutable: false},
		StrIndex("ceil"):  {Value: nativeFn(mathUnary(math.Ceil)), Mutable: false},
		StrIndex("trunc"): {Value: nativeFn(mathUnary(math.Trunc)), Mutable: false},
		StrIndex("abs"):   {Value: nativeFn(mathUnary(math.Abs)), Mutable: false},
		StrIndex("sqrt"):  {Value: nativeFn(mathUnary(math.Sqrt)), Mutable: false},
		StrIndex("sin"):   {Value: nativeFn(mathUnary(math.Sin)), Mutable: false},
		StrIndex("cos"):   {Value: nativeFn(mathUnary(math.Cos)), Mutable: false},
		StrIndex("tan"):   {Value: nativeFn(mathUnary(math.Tan)), Mutable: false},
		StrIndex("random"): {Value: nativeFn(func(this Value, args []Value, m *Machine) (Value, error) {
			return Num(rand.Float64()), nil
		}), Mutable: false},
		StrIndex("randomRange"): {Value: nativeFn(func(this Value, args []Value, m *Machine) (Value, error) {
			lo := argOr(args, 0, Num(0)).AsNum()
			hi := argOr(args, 1, Num(1)).AsNum()
			return Num(lo + rand.Float64()*(hi-lo)), nil
		}), Mutable: false},
		StrIndex("randomInt"): {Value: nativeFn(func(this Value, args []Value, m *Machine) (Value, error) {
			lo := int(argOr(args, 0, Num(0)).AsNum())
			hi := int(argOr(args, 1, Num(1)).AsNum())
			if hi <= lo {
				return Num(float64(lo)), nil
			}
			return Num(float64(lo + rand.Intn(hi-lo))), nil
		}), Mutable: false},
		StrIndex("PI"): {Value: Num(math.Pi), Mutable: false},
		StrIndex("E"):  {Value: Num(math.E), Mutable: false},
	}
	return DictLiteral(entries)
}

func mathUnary(fn func(float64) float64) func(this Value, args []Value, m *Machine) (Value, error) {
	return func(this Value, args []Value, m *Machine) (Value, error) {
		return Num(fn(argOr(args, 0, Num(0)).AsNum())), nil
	}
}

func dateDict() Value {
	entries := map[ValueIndex]DictEntry{
		StrIndex("now"): {Value: nativeFn(func(this Value, args []Value, m *Machine) (Value, error) {
			return Num(float64(time.Now().UnixMilli())), nil
		}), Mutable: false},
	}
	return DictLiteral(entries)
}

// windowDict builds the `window` global: always-present host-info and
// lifecycle entries, plus env/memory sub-objects gated by permission.
func (m *Machine) windowDict() Value {
	entries := map[ValueIndex]DictEntry{
		StrIndex("filename"):       {Value: Str(m.filename), Mutable: false},
		StrIndex("platform"):       {Value: Str(runtime.GOOS), Mutable: false},
		StrIndex("arch"):           {Value: Str(runtime.GOARCH), Mutable: false},
		StrIndex("platformFamily"): {Value: Str(platformFamily()), Mutable: false},
		StrIndex("version"):        {Value: Str("0.1.0"), Mutable: false},
		StrIndex("exit"): {Value: nativeFn(func(this Value, args []Value, m *Machine) (Value, error) {
			code := int(argOr(args, 0, Num(0)).AsNum())
			os.Exit(code)
			return Null(), nil
		}), Mutable: false},
		StrIndex("inspect"): {Value: nativeFn(func(this Value, args []Value, m *Machine) (Value, error) {
			return Str(m.stringify(argOr(args, 0, Null()))), nil
		}), Mutable: false},
		StrIndex("sleep"): {Value: nativeFn(func(this Value, args []Value, m *Machine) (Value, error) {
			ms := argOr(args, 0, Num(0)).AsNum()
			time.Sleep(time.Duration(ms) * time.Millisecond)
			return Null(), nil
		}), Mutable: false},
		StrIndex("spawn"): {Value: nativeFn(func(this Value, args []Value, m *Machine) (Value, error) {
			if len(args) == 0 || args[0].Kind != KindStr {
				return Value{}, m.runtimeError(InvalidArgumentError, "spawn requires a command name")
			}
			spawnArgs := make([]string, 0, len(args)-1)
			for _, a := range args[1:] {
				spawnArgs = append(spawnArgs, m.stringify(a))
			}
			return m.spawnChild(args[0].AsStr(), spawnArgs)
		}), Mutable: false},
	}

	if m.perms["env"] {
		for k, v := range envDict() {
			entries[k] = v
		}
	}
	if m.perms["memory"] {
		entries[StrIndex("memory")] = DictEntry{Value: m.memoryDict(), Mutable: false}
	}

	return DictLiteral(entries)
}

func platformFamily() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	default:
		return "unix"
	}
}

func envDict() map[ValueIndex]DictEntry {
	inner := map[ValueIndex]DictEntry{
		StrIndex("get"): {Value: nativeFn(func(this Value, args []Value, m *Machine) (Value, error) {
			name := argOr(args, 0, Str("")).AsStr()
			v, ok := os.LookupEnv(name)
			if !ok {
				return Null(), nil
			}
			return Str(v), nil
		}), Mutable: false},
		StrIndex("set"): {Value: nativeFn(func(this Value, args []Value, m *Machine) (Value, error) {
			name := argOr(args, 0, Str("")).AsStr()
			value := argOr(args, 1, Str("")).AsStr()
			if err := os.Setenv(name, value); err != nil {
				return Value{}, m.runtimeError(InvalidArgumentError, err.Error())
			}
			return Null(), nil
		}), Mutable: false},
		StrIndex("all"): {Value: nativeFn(func(this Value, args []Value, m *Machine) (Value, error) {
			all := map[ValueIndex]DictEntry{}
			for _, kv := range os.Environ() {
				parts := strings.SplitN(kv, "=", 2)
				if len(parts) == 2 {
					all[StrIndex(parts[0])] = DictEntry{Value: Str(parts[1]), Mutable: false}
				}
			}
			return DictLiteral(all), nil
		}), Mutable: false},
		StrIndex("delete"): {Value: nativeFn(func(this Value, args []Value, m *Machine) (Value, error) {
			name := argOr(args, 0, Str("")).AsStr()
			if err := os.Unsetenv(name); err != nil {
				return Value{}, m.runtimeError(InvalidArgumentError, err.Error())
			}
			return Null(), nil
		}), Mutable: false},
	}
	return map[ValueIndex]DictEntry{
		StrIndex("env"): {Value: DictLiteral(inner), Mutable: false},
	}
}

// memoryDict exposes the permission-gated heap introspection surface:
// reading a stack slot by pointer, pushing a raw value, and reporting
// stack length.
func (m *Machine) memoryDict() Value {
	entries := map[ValueIndex]DictEntry{
		StrIndex("getByPointer"): {Value: nativeFn(func(this Value, args []Value, mm *Machine) (Value, error) {
			idx := int(argOr(args, 0, Num(-1)).AsNum())
			v, ok := mm.valueStack.At(idx)
			if !ok {
				return Value{}, mm.runtimeError(MemoryFailure, "pointer out of range")
			}
			return v, nil
		}), Mutable: false},
		StrIndex("push"): {Value: nativeFn(func(this Value, args []Value, mm *Machine) (Value, error) {
			v := argOr(args, 0, Null())
			idx := mm.valueStack.Push(mm.borrow(v))
			return Num(float64(idx)), nil
		}), Mutable: false},
		StrIndex("len"): {Value: nativeFn(func(this Value, args []Value, mm *Machine) (Value, error) {
			return Num(float64(len(mm.valueStack))), nil
		}), Mutable: false},
	}
	return DictLiteral(entries)
}
