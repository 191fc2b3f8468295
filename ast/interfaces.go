// interfaces.go contains all visitor interfaces that any code traversing expression and statement AST nodes must implement.
// It also contains the interfaces that all statement and expression AST nodes must implement, which also follows the
// visitor design pattern.

package ast

// ExpressionVisitor is the interface for operating on all Expression AST nodes.
// Any type that wants to perform an operation on expressions (e.g., a compiler,
// ast-printer, or type checker) must implement this interface.
//
// Each Visit method corresponds to a distinct Expression type.
type ExpressionVisitor interface {
	VisitBinary(binary Binary) any
	VisitUnary(unary Unary) any
	VisitLiteral(literal Literal) any
	VisitGrouping(grouping Grouping) any
	VisitVariableExpression(variable Variable) any
	VisitAssignExpression(assign Assign) any
	VisitLogicalExpression(logical Logical) any
	VisitArray(array Array) any
	VisitDict(dict Dict) any
	VisitCall(call Call) any
	VisitAttr(attr Attr) any
	VisitTernary(ternary Ternary) any
	VisitFunc(fn Func) any
	VisitAwait(await Await) any
	VisitIn(in In) any
}

// StmtVisitor is the interface for operating on all Statement AST nodes.
// Like ExpressionVisitor, it defines one Visit method per statement type.
// This separation between expressions and statements mirrors the grammar structure.
type StmtVisitor interface {
	VisitExpressionStmt(exprStmt ExpressionStmt) any
	VisitVarStmt(varStmt VarStmt) any
	VisitBlockStmt(blockStmt BlockStmt) any
	VisitIfStmt(stmt IfStmt) any
	VisitWhileStmt(stmt WhileStmt) any
	VisitReturnStmt(stmt ReturnStmt) any
	VisitBreakStmt(stmt BreakStmt) any
	VisitContinueStmt(stmt ContinueStmt) any
}

// Stmt is the base interface for all statement nodes in the AST.
// Each statement implements Accept, calling back into the correct
// Visit method on a StmtVisitor.
//
// A statement represents an action in a program. Unlike expressions,
// statements do not produce a value.
type Stmt interface {
	Accept(v StmtVisitor) any
}

// Expression is the core interface for all expression nodes in the Abstract Syntax Tree (AST).
// The Accept method enables the Visitor design pattern so that operations can be performed on
// expressions without the expression types needing to know the details of those operations.
type Expression interface {
	Accept(v ExpressionVisitor) any
}
