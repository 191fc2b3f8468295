package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vellumlang/vellum/bytecode"
	"github.com/vellumlang/vellum/lexer"
	"github.com/vellumlang/vellum/parser"
)

func compileSource(t *testing.T, source string) bytecode.Program {
	t.Helper()
	toks, err := lexer.New(source).Scan()
	require.NoError(t, err)
	stmts, errs := parser.Make(toks).Parse()
	require.Empty(t, errs)
	enc := NewEncoder()
	compileErrs := enc.CompileStatements(stmts)
	require.Empty(t, compileErrs)
	return enc.Program()
}

func TestConstantPoolSeededWithWindow(t *testing.T) {
	prog := compileSource(t, `var x = 1;`)
	require.Equal(t, "window", prog.Constants[0])
}

func TestConstantPoolDeduplicates(t *testing.T) {
	prog := compileSource(t, `var a = "hi"; var b = "hi";`)
	count := 0
	for _, c := range prog.Constants {
		if c == "hi" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestVarStatementEncoding(t *testing.T) {
	prog := compileSource(t, `var x = 1;`)
	require.Equal(t, bytecode.OpVar, bytecode.Opcode(prog.Bytes[0]))
	require.Equal(t, bytecode.OpShort, bytecode.Opcode(prog.Bytes[1]))
}

func TestConstDeclarationEncodesConstOpcode(t *testing.T) {
	prog := compileSource(t, `const x = 1;`)
	require.Equal(t, bytecode.OpConst, bytecode.Opcode(prog.Bytes[0]))
}

func TestBinaryArithmeticPrefixOrder(t *testing.T) {
	prog := compileSource(t, `var x = 1 + 2;`)
	// Var, Short(name), Add, Num(8 bytes), Num(8 bytes)
	require.Equal(t, bytecode.OpVar, bytecode.Opcode(prog.Bytes[0]))
	require.Equal(t, bytecode.OpShort, bytecode.Opcode(prog.Bytes[1]))
	require.Equal(t, bytecode.OpAdd, bytecode.Opcode(prog.Bytes[3]))
	require.Equal(t, bytecode.OpNum, bytecode.Opcode(prog.Bytes[4]))
}

func TestComparisonEncodesCompareOpcodeWithOperatorByte(t *testing.T) {
	prog := compileSource(t, `var x = 1 < 2;`)
	require.Equal(t, bytecode.OpCompare, bytecode.Opcode(prog.Bytes[3]))
	require.Equal(t, bytecode.LessThan, bytecode.LogicalOperator(prog.Bytes[4]))
}

func TestArrayEncodesCountThenElements(t *testing.T) {
	prog := compileSource(t, `var a = [1, 2, 3];`)
	// Var, Short(name), Array, 4-byte count
	require.Equal(t, bytecode.OpArray, bytecode.Opcode(prog.Bytes[3]))
}

func TestFuncBodyTerminatesWithFuncEnd(t *testing.T) {
	prog := compileSource(t, `func f() { return 1; }`)
	require.Equal(t, byte(bytecode.OpFuncEnd), prog.Bytes[len(prog.Bytes)-1])
}

func TestAssignCompoundOperatorByte(t *testing.T) {
	prog := compileSource(t, `var x = 1; x += 1;`)
	require.Contains(t, prog.Bytes, byte(bytecode.OpAssign))
	require.Equal(t, byte(bytecode.AssignAdd), prog.Bytes[15])
}

func TestInvalidAssignmentTargetPanicsIntoError(t *testing.T) {
	toks, err := lexer.New(`1 = 2;`).Scan()
	require.NoError(t, err)
	stmts, parseErrs := parser.Make(toks).Parse()
	if len(parseErrs) > 0 {
		// the parser already rejects this; nothing further to encode
		return
	}
	enc := NewEncoder()
	errs := enc.CompileStatements(stmts)
	require.NotEmpty(t, errs)
}

func TestShortRefUsedBelowLimit(t *testing.T) {
	prog := compileSource(t, `var x = 1;`)
	require.Equal(t, bytecode.OpShort, bytecode.Opcode(prog.Bytes[1]))
}
