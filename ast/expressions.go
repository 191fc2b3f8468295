// expressions.go contains all the expression AST nodes. An expression node always evaluates to a value.

package ast

import (
	"github.com/vellumlang/vellum/token"
)

// Binary represents a binary operation expression (e.g., "a + b").
// It consists of a left-hand side expression, an operator token (e.g., +, -, *, /, **),
// and a right-hand side expression.
type Binary struct {
	Left     Expression  // The left-hand expression (e.g., "a" in "a + b")
	Operator token.Token // The operator (e.g., "+")
	Right    Expression  // The right-hand expression (e.g., "b" in "a + b")
}

func (binary Binary) Accept(v ExpressionVisitor) any {
	return v.VisitBinary(binary)
}

// Unary represents a unary operation expression (e.g., "!a" or "-b").
// It consists of an operator token and a single right-hand expression.
type Unary struct {
	Operator token.Token // The operator (e.g., "!" or "-")
	Right    Expression  // The expression the operator is applied to (e.g., "a" or "b")
}

func (unary Unary) Accept(v ExpressionVisitor) any {
	return v.VisitUnary(unary)
}

// Literal represents a literal value in the source code
// (e.g., numbers, strings, booleans, or null).
type Literal struct {
	Value any // The literal value (Go's `any` allows different possible types)
}

func (literal Literal) Accept(v ExpressionVisitor) any {
	return v.VisitLiteral(literal)
}

// Grouping represents a parenthesized expression (e.g., "(a + b)").
// Useful for controlling evaluation precedence.
type Grouping struct {
	Expression Expression // The inner expression inside the parentheses
}

func (grouping Grouping) Accept(v ExpressionVisitor) any {
	return v.VisitGrouping(grouping)
}

// Variable represents a variable expression in the abstract syntax tree (AST).
// It models the retrieval of a value previously bound to a variable name.
type Variable struct {
	Name token.Token // An IDENTIFIER token
}

func (variable Variable) Accept(v ExpressionVisitor) any {
	return v.VisitVariableExpression(variable)
}

// Assign represents an assignment expression in the abstract syntax tree (AST).
// Target is either a Variable or an Attr (attribute chain ending in a name);
// Operator is one of ASSIGN, PLUS_ASSIGN, MINUS_ASSIGN.
type Assign struct {
	Target   Expression
	Operator token.Token
	Value    Expression
}

func (assign Assign) Accept(v ExpressionVisitor) any {
	return v.VisitAssignExpression(assign)
}

// Logical represents a short-circuiting "and"/"or" expression. Kept distinct
// from Binary since the right-hand side must not always be evaluated.
type Logical struct {
	Left     Expression
	Operator token.Token
	Right    Expression
}

func (logical Logical) Accept(v ExpressionVisitor) any {
	return v.VisitLogicalExpression(logical)
}

// Array represents an array literal expression, e.g. "[1, 2, a + b]".
type Array struct {
	Elements []Expression
}

func (array Array) Accept(v ExpressionVisitor) any {
	return v.VisitArray(array)
}

// DictEntry is a single key/value pair inside a Dict literal.
type DictEntry struct {
	Key   Expression
	Value Expression
}

// Dict represents a dictionary literal expression, e.g. "{ a: 1, b: 2 }".
type Dict struct {
	Entries []DictEntry
}

func (dict Dict) Accept(v ExpressionVisitor) any {
	return v.VisitDict(dict)
}

// Call represents a function call expression, e.g. "f(a, b)".
type Call struct {
	Callee    Expression
	Arguments []Expression
}

func (call Call) Accept(v ExpressionVisitor) any {
	return v.VisitCall(call)
}

// Attr represents attribute/index access, e.g. "a.b" or "a[0]". Index access
// desugars to an Attr whose Key is the index expression (any expression,
// evaluated at runtime), matching the array/dict attribute-access model.
type Attr struct {
	Target Expression
	Key    Expression
}

func (attr Attr) Accept(v ExpressionVisitor) any {
	return v.VisitAttr(attr)
}

// Ternary represents a conditional expression, e.g. "cond ? a : b".
type Ternary struct {
	Condition Expression
	Then      Expression
	Else      Expression
}

func (ternary Ternary) Accept(v ExpressionVisitor) any {
	return v.VisitTernary(ternary)
}

// Param describes a single function parameter: its name and whether it
// collects trailing arguments as a rest array.
type Param struct {
	Name token.Token
	Rest bool
}

// Func represents a function literal, e.g. "func add(a, b) { return a + b; }".
// Name is the zero Token when the function is anonymous.
type Func struct {
	Name   token.Token
	Params []Param
	Body   []Stmt
}

func (fn Func) Accept(v ExpressionVisitor) any {
	return v.VisitFunc(fn)
}

// Await represents an "await expr" expression. Parsed and compiled, but has
// no runtime effect — it exists purely as a pass-through wrapper.
type Await struct {
	Value Expression
}

func (await Await) Accept(v ExpressionVisitor) any {
	return v.VisitAwait(await)
}

// In represents the "a in b" membership test expression.
type In struct {
	Left  Expression
	Right Expression
}

func (in In) Accept(v ExpressionVisitor) any {
	return v.VisitIn(in)
}
