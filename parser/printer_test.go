package parser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vellumlang/vellum/ast"
	"github.com/vellumlang/vellum/token"
)

func TestPrintASTJSON_Literal(t *testing.T) {
	stmts := []ast.Stmt{
		ast.ExpressionStmt{Expression: ast.Literal{Value: 42.0}},
	}

	jsonString, err := PrintASTJSON(stmts)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(jsonString), &out))
	require.Len(t, out, 1)

	node := out[0]
	require.Equal(t, "ExpressionStmt", node["type"])
	require.Equal(t, 42.0, node["expression"])
}

func TestPrintASTJSON_VarStmt_NilInitializer(t *testing.T) {
	name := token.CreateLiteralToken(token.IDENTIFIER, nil, "x", 0, 0)
	stmts := []ast.Stmt{
		ast.VarStmt{Name: name, Initializer: nil},
	}

	jsonStr, err := PrintASTJSON(stmts)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(jsonStr), &out))
	require.Len(t, out, 1)

	node := out[0]
	require.Equal(t, "VarStmt", node["type"])
	require.Equal(t, "x", node["name"])
	require.Contains(t, node, "initializer")
	require.Nil(t, node["initializer"])
}

func TestPrintASTJSON_BinaryExpression(t *testing.T) {
	stmts := []ast.Stmt{
		ast.ExpressionStmt{Expression: ast.Binary{
			Left:     ast.Literal{Value: 1.0},
			Operator: token.CreateToken(token.ADD, 0, 0),
			Right:    ast.Literal{Value: 2.0},
		}},
	}

	jsonStr, err := PrintASTJSON(stmts)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(jsonStr), &out))
	require.Len(t, out, 1)

	node := out[0]
	require.Equal(t, "ExpressionStmt", node["type"])

	expr, ok := node["expression"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Binary", expr["type"])
	require.Equal(t, "+", expr["operator"])
	require.Equal(t, 1.0, expr["left"])
	require.Equal(t, 2.0, expr["right"])
}

func TestPrintASTJSON_IfStmtArms(t *testing.T) {
	stmts := []ast.Stmt{
		ast.IfStmt{
			Arms: []ast.ConditionArm{
				{Condition: ast.Literal{Value: true}, Body: []ast.Stmt{}},
			},
		},
	}

	jsonStr, err := PrintASTJSON(stmts)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(jsonStr), &out))
	require.Len(t, out, 1)
	require.Equal(t, "IfStmt", out[0]["type"])
	arms, ok := out[0]["arms"].([]any)
	require.True(t, ok)
	require.Len(t, arms, 1)
}

func TestWriteASTJSONToFile(t *testing.T) {
	stmts := []ast.Stmt{
		ast.ExpressionStmt{Expression: ast.Literal{Value: "hello vellum!"}},
	}

	filePath := filepath.Join(os.TempDir(), "vellum_ast_printer_test.json")
	defer os.Remove(filePath)

	require.NoError(t, WriteASTJSONToFile(stmts, filePath))

	bytes, err := os.ReadFile(filePath)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(bytes, &out))
	require.Len(t, out, 1)

	node := out[0]
	require.Equal(t, "ExpressionStmt", node["type"])
	require.Equal(t, "hello vellum!", node["expression"])
}
