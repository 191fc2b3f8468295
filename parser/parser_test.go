package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vellumlang/vellum/ast"
	"github.com/vellumlang/vellum/lexer"
)

func parseSource(t *testing.T, source string) ([]ast.Stmt, []error) {
	t.Helper()
	toks, err := lexer.New(source).Scan()
	require.NoError(t, err)
	return Make(toks).Parse()
}

func TestParseVarDeclaration(t *testing.T) {
	stmts, errs := parseSource(t, `var x = 1;`)
	require.Empty(t, errs)
	require.Len(t, stmts, 1)
	varStmt, ok := stmts[0].(ast.VarStmt)
	require.True(t, ok)
	require.Equal(t, "x", varStmt.Name.Lexeme)
	require.False(t, varStmt.Const)
}

func TestParseConstRequiresInitializer(t *testing.T) {
	_, errs := parseSource(t, `const x;`)
	require.NotEmpty(t, errs)
}

func TestParseBinaryPrecedence(t *testing.T) {
	stmts, errs := parseSource(t, `1 + 2 * 3;`)
	require.Empty(t, errs)
	require.Len(t, stmts, 1)
	exprStmt := stmts[0].(ast.ExpressionStmt)
	binary := exprStmt.Expression.(ast.Binary)
	require.Equal(t, "+", binary.Operator.Lexeme)
	_, rightIsBinary := binary.Right.(ast.Binary)
	require.True(t, rightIsBinary)
}

func TestParsePowerIsRightAssociative(t *testing.T) {
	stmts, errs := parseSource(t, `2 ** 3 ** 2;`)
	require.Empty(t, errs)
	exprStmt := stmts[0].(ast.ExpressionStmt)
	binary := exprStmt.Expression.(ast.Binary)
	require.Equal(t, "**", binary.Operator.Lexeme)
	_, rightIsPow := binary.Right.(ast.Binary)
	require.True(t, rightIsPow)
}

func TestParseCallAndAttr(t *testing.T) {
	stmts, errs := parseSource(t, `foo.bar(1, 2);`)
	require.Empty(t, errs)
	exprStmt := stmts[0].(ast.ExpressionStmt)
	call := exprStmt.Expression.(ast.Call)
	require.Len(t, call.Arguments, 2)
	attr, ok := call.Callee.(ast.Attr)
	require.True(t, ok)
	require.Equal(t, "bar", attr.Key.(ast.Literal).Value)
}

func TestParseIndexDesugarsToAttr(t *testing.T) {
	stmts, errs := parseSource(t, `arr[0];`)
	require.Empty(t, errs)
	exprStmt := stmts[0].(ast.ExpressionStmt)
	attr, ok := exprStmt.Expression.(ast.Attr)
	require.True(t, ok)
	lit, ok := attr.Key.(ast.Literal)
	require.True(t, ok)
	require.Equal(t, int64(0), lit.Value)
}

func TestParseArrayAndDictLiterals(t *testing.T) {
	stmts, errs := parseSource(t, `[1, 2, 3];`)
	require.Empty(t, errs)
	arr, ok := stmts[0].(ast.ExpressionStmt).Expression.(ast.Array)
	require.True(t, ok)
	require.Len(t, arr.Elements, 3)

	stmts, errs = parseSource(t, `{ a: 1, b: 2 };`)
	require.Empty(t, errs)
	dict, ok := stmts[0].(ast.ExpressionStmt).Expression.(ast.Dict)
	require.True(t, ok)
	require.Len(t, dict.Entries, 2)
}

func TestParseTernary(t *testing.T) {
	stmts, errs := parseSource(t, `a ? 1 : 2;`)
	require.Empty(t, errs)
	ternary, ok := stmts[0].(ast.ExpressionStmt).Expression.(ast.Ternary)
	require.True(t, ok)
	require.NotNil(t, ternary.Then)
	require.NotNil(t, ternary.Else)
}

func TestParseFuncLiteralWithRestParam(t *testing.T) {
	stmts, errs := parseSource(t, `func add(a, b, ...rest) { return a + b; }`)
	require.Empty(t, errs)
	fn, ok := stmts[0].(ast.ExpressionStmt).Expression.(ast.Func)
	require.True(t, ok)
	require.Equal(t, "add", fn.Name.Lexeme)
	require.Len(t, fn.Params, 3)
	require.True(t, fn.Params[2].Rest)
	require.Len(t, fn.Body, 1)
}

func TestParseIfElifElse(t *testing.T) {
	stmts, errs := parseSource(t, `
		if (a) { b; } elif (c) { d; } else { e; }
	`)
	require.Empty(t, errs)
	ifStmt, ok := stmts[0].(ast.IfStmt)
	require.True(t, ok)
	require.Len(t, ifStmt.Arms, 2)
	require.NotNil(t, ifStmt.Else)
}

func TestParseWhileBreakContinue(t *testing.T) {
	stmts, errs := parseSource(t, `
		while (true) { break; continue; }
	`)
	require.Empty(t, errs)
	whileStmt, ok := stmts[0].(ast.WhileStmt)
	require.True(t, ok)
	require.Len(t, whileStmt.Body, 2)
	_, isBreak := whileStmt.Body[0].(ast.BreakStmt)
	require.True(t, isBreak)
	_, isContinue := whileStmt.Body[1].(ast.ContinueStmt)
	require.True(t, isContinue)
}

func TestParseAssignOperators(t *testing.T) {
	stmts, errs := parseSource(t, `x += 1;`)
	require.Empty(t, errs)
	assign, ok := stmts[0].(ast.ExpressionStmt).Expression.(ast.Assign)
	require.True(t, ok)
	require.Equal(t, "+=", assign.Operator.Lexeme)
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	_, errs := parseSource(t, `1 = 2;`)
	require.NotEmpty(t, errs)
}

func TestParseAwait(t *testing.T) {
	stmts, errs := parseSource(t, `await f();`)
	require.Empty(t, errs)
	_, ok := stmts[0].(ast.ExpressionStmt).Expression.(ast.Await)
	require.True(t, ok)
}

func TestParseInOperator(t *testing.T) {
	stmts, errs := parseSource(t, `a in b;`)
	require.Empty(t, errs)
	_, ok := stmts[0].(ast.ExpressionStmt).Expression.(ast.In)
	require.True(t, ok)
}
