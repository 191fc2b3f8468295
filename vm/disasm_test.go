package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vellumlang/vellum/compiler"
	"github.com/vellumlang/vellum/lexer"
	"github.com/vellumlang/vellum/parser"
)

func disassembleSource(t *testing.T, source string) string {
	t.Helper()
	toks, err := lexer.New(source).Scan()
	require.NoError(t, err)
	stmts, errs := parser.Make(toks).Parse()
	require.Empty(t, errs)
	enc := compiler.NewEncoder()
	require.Empty(t, enc.CompileStatements(stmts))
	return Disassemble(enc.Program())
}

func TestDisassembleVarDeclarationNamesTargetAndValue(t *testing.T) {
	out := disassembleSource(t, `var x = 1 + 2;`)
	require.True(t, strings.Contains(out, "Var x ="))
	require.True(t, strings.Contains(out, "Add"))
	require.True(t, strings.Contains(out, "Num 1"))
}

func TestDisassembleConditionWalksAllArms(t *testing.T) {
	out := disassembleSource(t, `
		if (true) { var a = 1; } elif (false) { var b = 2; } else { var c = 3; }
	`)
	require.True(t, strings.Contains(out, "Condition"))
	require.True(t, strings.Contains(out, "else:"))
}

func TestDisassembleFuncLiteralListsParamsAndBody(t *testing.T) {
	out := disassembleSource(t, `func add(a, b) { return a + b; }`)
	require.True(t, strings.Contains(out, "Func add/2"))
	require.True(t, strings.Contains(out, "param a"))
	require.True(t, strings.Contains(out, "Return"))
}
