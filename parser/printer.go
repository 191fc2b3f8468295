package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vellumlang/vellum/ast"
)

const (
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// astPrinter implements the ast.ExpressionVisitor/ast.StmtVisitor interfaces
// and builds a JSON-friendly representation of the AST using maps and
// slices. Each Visit method returns a value that can be marshaled to JSON.
type astPrinter struct{}

func (p astPrinter) VisitExpressionStmt(exprStmt ast.ExpressionStmt) any {
	return map[string]any{
		"type":       "ExpressionStmt",
		"expression": exprStmt.Expression.Accept(p),
	}
}

func (p astPrinter) VisitVarStmt(varStmt ast.VarStmt) any {
	return map[string]any{
		"type":        "VarStmt",
		"name":        varStmt.Name.Lexeme,
		"const":       varStmt.Const,
		"initializer": nilOrAccept(varStmt.Initializer, p),
	}
}

func (p astPrinter) VisitBlockStmt(blockStmt ast.BlockStmt) any {
	return map[string]any{
		"type":       "BlockStmt",
		"statements": stmtList(blockStmt.Statements, p),
	}
}

func (p astPrinter) VisitWhileStmt(stmt ast.WhileStmt) any {
	return map[string]any{
		"type":      "WhileStmt",
		"condition": stmt.Condition.Accept(p),
		"body":      stmtList(stmt.Body, p),
	}
}

func (p astPrinter) VisitIfStmt(stmt ast.IfStmt) any {
	arms := make([]any, 0, len(stmt.Arms))
	for _, arm := range stmt.Arms {
		arms = append(arms, map[string]any{
			"condition": arm.Condition.Accept(p),
			"body":      stmtList(arm.Body, p),
		})
	}
	var elseVal any
	if stmt.Else != nil {
		elseVal = stmtList(stmt.Else, p)
	}
	return map[string]any{
		"type": "IfStmt",
		"arms": arms,
		"else": elseVal,
	}
}

func (p astPrinter) VisitReturnStmt(stmt ast.ReturnStmt) any {
	return map[string]any{
		"type":  "ReturnStmt",
		"value": nilOrAccept(stmt.Value, p),
	}
}

func (p astPrinter) VisitBreakStmt(stmt ast.BreakStmt) any {
	return map[string]any{"type": "BreakStmt"}
}

func (p astPrinter) VisitContinueStmt(stmt ast.ContinueStmt) any {
	return map[string]any{"type": "ContinueStmt"}
}

func (p astPrinter) VisitLogicalExpression(expr ast.Logical) any {
	return map[string]any{
		"type":     "Logical",
		"operator": expr.Operator.Lexeme,
		"left":     expr.Left.Accept(p),
		"right":    expr.Right.Accept(p),
	}
}

func (p astPrinter) VisitAssignExpression(assign ast.Assign) any {
	return map[string]any{
		"type":     "Assign",
		"target":   assign.Target.Accept(p),
		"operator": assign.Operator.Lexeme,
		"value":    assign.Value.Accept(p),
	}
}

func (p astPrinter) VisitVariableExpression(variable ast.Variable) any {
	return map[string]any{
		"type": "Variable",
		"name": variable.Name.Lexeme,
	}
}

func (p astPrinter) VisitBinary(b ast.Binary) any {
	return map[string]any{
		"type":     "Binary",
		"operator": b.Operator.Lexeme,
		"left":     b.Left.Accept(p),
		"right":    b.Right.Accept(p),
	}
}

func (p astPrinter) VisitUnary(u ast.Unary) any {
	return map[string]any{
		"type":     "Unary",
		"operator": u.Operator.Lexeme,
		"right":    u.Right.Accept(p),
	}
}

func (p astPrinter) VisitLiteral(l ast.Literal) any {
	// literals are terminal values and can be used directly in JSON
	return l.Value
}

func (p astPrinter) VisitGrouping(g ast.Grouping) any {
	return map[string]any{
		"type":       "Grouping",
		"expression": g.Expression.Accept(p),
	}
}

func (p astPrinter) VisitArray(a ast.Array) any {
	elements := make([]any, 0, len(a.Elements))
	for _, el := range a.Elements {
		elements = append(elements, el.Accept(p))
	}
	return map[string]any{
		"type":     "Array",
		"elements": elements,
	}
}

func (p astPrinter) VisitDict(d ast.Dict) any {
	entries := make([]any, 0, len(d.Entries))
	for _, entry := range d.Entries {
		entries = append(entries, map[string]any{
			"key":   entry.Key.Accept(p),
			"value": entry.Value.Accept(p),
		})
	}
	return map[string]any{
		"type":    "Dict",
		"entries": entries,
	}
}

func (p astPrinter) VisitCall(c ast.Call) any {
	args := make([]any, 0, len(c.Arguments))
	for _, arg := range c.Arguments {
		args = append(args, arg.Accept(p))
	}
	return map[string]any{
		"type":      "Call",
		"callee":    c.Callee.Accept(p),
		"arguments": args,
	}
}

func (p astPrinter) VisitAttr(a ast.Attr) any {
	return map[string]any{
		"type":   "Attr",
		"target": a.Target.Accept(p),
		"key":    a.Key.Accept(p),
	}
}

func (p astPrinter) VisitTernary(t ast.Ternary) any {
	return map[string]any{
		"type":      "Ternary",
		"condition": t.Condition.Accept(p),
		"then":      t.Then.Accept(p),
		"else":      t.Else.Accept(p),
	}
}

func (p astPrinter) VisitFunc(f ast.Func) any {
	params := make([]any, 0, len(f.Params))
	for _, param := range f.Params {
		params = append(params, map[string]any{
			"name": param.Name.Lexeme,
			"rest": param.Rest,
		})
	}
	return map[string]any{
		"type":   "Func",
		"name":   f.Name.Lexeme,
		"params": params,
		"body":   stmtList(f.Body, p),
	}
}

func (p astPrinter) VisitAwait(a ast.Await) any {
	return map[string]any{
		"type":  "Await",
		"value": a.Value.Accept(p),
	}
}

func (p astPrinter) VisitIn(in ast.In) any {
	return map[string]any{
		"type":  "In",
		"left":  in.Left.Accept(p),
		"right": in.Right.Accept(p),
	}
}

func stmtList(stmts []ast.Stmt, p ast.StmtVisitor) []any {
	out := make([]any, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, s.Accept(p))
	}
	return out
}

// nilOrAccept returns nil if expr is nil, otherwise it continues
// processing the expression and returns the result.
func nilOrAccept(expr ast.Expression, p ast.ExpressionVisitor) any {
	if expr == nil {
		return nil
	}
	return expr.Accept(p)
}

// PrintASTJSON converts a slice of statements into a prettified JSON string.
func PrintASTJSON(statements []ast.Stmt) (string, error) {
	printer := astPrinter{}
	out := stmtList(statements, printer)
	bytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}

	jsonStr := string(bytes)
	fmt.Println(colorYellow + "----- AST JSON -----")
	fmt.Println(colorYellow + jsonStr)
	fmt.Println(colorYellow + "-----" + colorReset)
	fmt.Println("")
	return jsonStr, nil
}

// WriteASTJSONToFile writes the prettified AST JSON to the given file path.
func WriteASTJSONToFile(statements []ast.Stmt, path string) error {
	s, err := PrintASTJSON(statements)
	if err != nil {
		return err
	}
	fDescriptor, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating AST file: %s", err.Error())
	}
	defer fDescriptor.Close()

	_, writeErr := fDescriptor.Write([]byte(s))
	if writeErr != nil {
		return fmt.Errorf("error writing AST to file: %s", writeErr.Error())
	}
	return nil
}
