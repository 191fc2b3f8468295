package vm

import (
	"fmt"
	"strings"

	"github.com/vellumlang/vellum/bytecode"
)

// Disassemble renders a compiled program as one line per instruction,
// indented by nesting depth, for the "emit -disassemble" command. It
// walks the same prefix-order structure SkipStatement/SkipExpr do, but
// prints instead of discarding each operand.
func Disassemble(prog bytecode.Program) string {
	var out strings.Builder
	r := NewReader(prog.Bytes, prog.Constants, prog.Positions)
	depth := 0
	for !r.AtEnd() {
		disasmStatement(&out, r, depth)
	}
	return out.String()
}

func indent(out *strings.Builder, depth int) {
	out.WriteString(strings.Repeat("  ", depth))
}

func disasmStatement(out *strings.Builder, r *Reader, depth int) {
	op := r.ReadOpcode()
	switch op {
	case bytecode.OpVar, bytecode.OpConst:
		name := r.ReadRawRef(r.ReadOpcode())
		indent(out, depth)
		fmt.Fprintf(out, "%s %s =\n", op, name)
		disasmExpr(out, r, depth+1)
	case bytecode.OpAssign:
		indent(out, depth)
		out.WriteString("Assign\n")
		disasmAssignTarget(out, r, depth+1)
		opByte := r.ReadByte()
		indent(out, depth+1)
		fmt.Fprintf(out, "op=%d\n", opByte)
		disasmExpr(out, r, depth+1)
	case bytecode.OpValue, bytecode.OpReturn:
		indent(out, depth)
		fmt.Fprintf(out, "%s\n", op)
		disasmExpr(out, r, depth+1)
	case bytecode.OpBreak, bytecode.OpContinue:
		indent(out, depth)
		fmt.Fprintf(out, "%s\n", op)
	case bytecode.OpCondition:
		indent(out, depth)
		out.WriteString("Condition\n")
		armCount := int(r.ReadByte())
		for i := 0; i < armCount; i++ {
			indent(out, depth+1)
			fmt.Fprintf(out, "arm %d guard:\n", i)
			disasmExpr(out, r, depth+2)
			disasmChunk(out, r, depth+1)
		}
		if r.ReadByte() == 1 {
			indent(out, depth+1)
			out.WriteString("else:\n")
			disasmChunk(out, r, depth+1)
		}
	case bytecode.OpWhile:
		indent(out, depth)
		out.WriteString("While\n")
		disasmExpr(out, r, depth+1)
		disasmChunk(out, r, depth+1)
	default:
		panic(RuntimeError{Message: "cannot disassemble unrecognised statement opcode " + op.String()})
	}
}

func disasmChunk(out *strings.Builder, r *Reader, depth int) {
	chunk := r.ReadChunkBytes()
	sub := NewReader(chunk, r.Constants(), r.Positions())
	for !sub.AtEnd() {
		disasmStatement(out, sub, depth+1)
	}
}

func disasmAssignTarget(out *strings.Builder, r *Reader, depth int) {
	op := r.ReadOpcode()
	if op == bytecode.OpShort || op == bytecode.OpLong {
		indent(out, depth)
		fmt.Fprintf(out, "target %s\n", r.ReadRawRef(op))
		return
	}
	// OpAttr
	indent(out, depth)
	out.WriteString("target Attr\n")
	disasmAssignTarget(out, r, depth+1)
	disasmExpr(out, r, depth+1)
}

func disasmExpr(out *strings.Builder, r *Reader, depth int) {
	op := r.ReadOpcode()
	switch op {
	case bytecode.OpTrue, bytecode.OpFalse, bytecode.OpNull:
		indent(out, depth)
		fmt.Fprintf(out, "%s\n", op)
	case bytecode.OpNum:
		indent(out, depth)
		fmt.Fprintf(out, "Num %v\n", r.ReadFloat64())
	case bytecode.OpStr, bytecode.OpWord:
		indent(out, depth)
		fmt.Fprintf(out, "%s %q\n", op, r.ReadTypedRef(op))
	case bytecode.OpStrLong, bytecode.OpWordLong:
		indent(out, depth)
		fmt.Fprintf(out, "%s %q\n", op, r.ReadTypedRef(op))
	case bytecode.OpShort, bytecode.OpLong:
		indent(out, depth)
		fmt.Fprintf(out, "Ref %s\n", r.ReadRawRef(op))
	case bytecode.OpGroup, bytecode.OpAwait, bytecode.OpInvert:
		indent(out, depth)
		fmt.Fprintf(out, "%s\n", op)
		disasmExpr(out, r, depth+1)
	case bytecode.OpAttr:
		indent(out, depth)
		out.WriteString("Attr\n")
		disasmExpr(out, r, depth+1)
		disasmExpr(out, r, depth+1)
	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMult, bytecode.OpDiv,
		bytecode.OpPow, bytecode.OpAnd, bytecode.OpOr, bytecode.OpIn:
		indent(out, depth)
		fmt.Fprintf(out, "%s\n", op)
		disasmExpr(out, r, depth+1)
		disasmExpr(out, r, depth+1)
	case bytecode.OpCompare:
		logicalOp := bytecode.LogicalOperator(r.ReadByte())
		indent(out, depth)
		fmt.Fprintf(out, "Compare %d\n", logicalOp)
		disasmExpr(out, r, depth+1)
		disasmExpr(out, r, depth+1)
	case bytecode.OpTernary:
		indent(out, depth)
		out.WriteString("Ternary\n")
		disasmExpr(out, r, depth+1)
		disasmExpr(out, r, depth+1)
		disasmExpr(out, r, depth+1)
	case bytecode.OpCall:
		indent(out, depth)
		out.WriteString("Call\n")
		disasmExpr(out, r, depth+1)
		arity := int(r.ReadByte())
		for i := 0; i < arity; i++ {
			disasmExpr(out, r, depth+1)
		}
	case bytecode.OpArray:
		count := int(r.ReadUint32())
		indent(out, depth)
		fmt.Fprintf(out, "Array len=%d\n", count)
		for i := 0; i < count; i++ {
			disasmExpr(out, r, depth+1)
		}
	case bytecode.OpDict:
		count := int(r.ReadUint32())
		indent(out, depth)
		fmt.Fprintf(out, "Dict len=%d\n", count)
		for i := 0; i < count; i++ {
			key := r.ReadRawRef(r.ReadOpcode())
			indent(out, depth+1)
			fmt.Fprintf(out, "key %s:\n", key)
			disasmExpr(out, r, depth+2)
		}
	case bytecode.OpFunc:
		name := r.ReadRawRef(r.ReadOpcode())
		arity := int(r.ReadByte())
		indent(out, depth)
		fmt.Fprintf(out, "Func %s/%d\n", name, arity)
		for i := 0; i < arity; i++ {
			paramName := r.ReadRawRef(r.ReadOpcode())
			rest := r.ReadByte()
			indent(out, depth+1)
			fmt.Fprintf(out, "param %s rest=%d\n", paramName, rest)
		}
		for r.PeekOpcode() != bytecode.OpFuncEnd {
			disasmStatement(out, r, depth+1)
		}
		r.ReadOpcode() // consume FuncEnd
	default:
		panic(RuntimeError{Message: "cannot disassemble unrecognised expression opcode " + op.String()})
	}
}
