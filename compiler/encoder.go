// encoder.go lowers an AST (see package ast) into the bytecode wire format
// defined by package bytecode: a byte stream, a de-duplicated constant
// pool, and a position map.
package compiler

import (
	"encoding/binary"
	"math"

	"github.com/vellumlang/vellum/ast"
	"github.com/vellumlang/vellum/bytecode"
	"github.com/vellumlang/vellum/token"
)

// Encoder implements ast.ExpressionVisitor and ast.StmtVisitor, emitting
// bytecode as it walks the tree. Use NewEncoder, then CompileStatements.
type Encoder struct {
	bytes     []byte
	constants []string
	positions []bytecode.Position
}

// NewEncoder returns an Encoder with constant 0 pre-seeded as "window",
// matching the reserved slot the runtime's global object occupies.
func NewEncoder() *Encoder {
	return &Encoder{
		constants: []string{"window"},
	}
}

// CompileStatements compiles a top-level statement list, recovering from
// any single statement's compile-time panic (SemanticError/DeveloperError)
// so that later statements can still be attempted and all diagnostics
// collected.
func (e *Encoder) CompileStatements(statements []ast.Stmt) []error {
	var errs []error
	for _, stmt := range statements {
		if err := e.compileOne(stmt); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (e *Encoder) compileOne(stmt ast.Stmt) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if asErr, ok := r.(error); ok {
				err = asErr
			} else {
				err = DeveloperError{Message: "unrecognised panic during compilation"}
			}
		}
	}()
	e.emitStatementPosition(stmt)
	stmt.Accept(e)
	return nil
}

// Program returns the encoded program built so far.
func (e *Encoder) Program() bytecode.Program {
	return bytecode.Program{
		Bytes:     e.bytes,
		Constants: e.constants,
		Positions: e.positions,
	}
}

// compileBody compiles a function/branch/loop body to an independent byte
// stream sharing this Encoder's constant pool, returning just the bytes.
// Used when emitting self-contained chunks (spec.md invariant 6).
func (e *Encoder) compileBody(statements []ast.Stmt) []byte {
	saved := e.bytes
	e.bytes = nil
	for _, stmt := range statements {
		e.emitStatementPosition(stmt)
		stmt.Accept(e)
	}
	body := e.bytes
	e.bytes = saved
	return body
}

func (e *Encoder) emitStatementPosition(stmt ast.Stmt) {
	line, col := statementPosition(stmt)
	e.positions = append(e.positions, bytecode.Position{
		ByteOffset: len(e.bytes),
		Line:       line,
		Column:     col,
	})
}

// statementPosition recovers a representative token from a statement for
// position tracking. Not every statement kind carries one directly, so
// this best-effort walks to the nearest expression.
func statementPosition(stmt ast.Stmt) (int32, int) {
	switch s := stmt.(type) {
	case ast.VarStmt:
		return s.Name.Line, s.Name.Column
	case ast.ReturnStmt:
		return s.Keyword.Line, s.Keyword.Column
	case ast.BreakStmt:
		return s.Keyword.Line, s.Keyword.Column
	case ast.ContinueStmt:
		return s.Keyword.Line, s.Keyword.Column
	case ast.ExpressionStmt:
		return expressionPosition(s.Expression)
	case ast.IfStmt:
		if len(s.Arms) > 0 {
			return expressionPosition(s.Arms[0].Condition)
		}
	case ast.WhileStmt:
		return expressionPosition(s.Condition)
	}
	return 0, 0
}

// expressionPosition best-effort walks an expression to the nearest token
// it carries, for statements (condition, expression-statement, assignment)
// whose own Stmt node holds no token directly.
func expressionPosition(expr ast.Expression) (int32, int) {
	switch e := expr.(type) {
	case ast.Variable:
		return e.Name.Line, e.Name.Column
	case ast.Binary:
		return e.Operator.Line, e.Operator.Column
	case ast.Unary:
		return e.Operator.Line, e.Operator.Column
	case ast.Logical:
		return e.Operator.Line, e.Operator.Column
	case ast.Assign:
		return e.Operator.Line, e.Operator.Column
	case ast.Grouping:
		return expressionPosition(e.Expression)
	case ast.Call:
		return expressionPosition(e.Callee)
	case ast.Attr:
		return expressionPosition(e.Target)
	case ast.Ternary:
		return expressionPosition(e.Condition)
	case ast.In:
		return expressionPosition(e.Left)
	case ast.Func:
		if e.Name.Lexeme != "" {
			return e.Name.Line, e.Name.Column
		}
	}
	return 0, 0
}

func (e *Encoder) emit(op bytecode.Opcode) {
	e.bytes = append(e.bytes, byte(op))
}

func (e *Encoder) emitByte(b byte) {
	e.bytes = append(e.bytes, b)
}

func (e *Encoder) emitUint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	e.bytes = append(e.bytes, buf[:]...)
}

func (e *Encoder) emitFloat64(v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	e.bytes = append(e.bytes, buf[:]...)
}

// constantIndex returns the de-duplicated pool index for s, inserting it
// if not already present.
func (e *Encoder) constantIndex(s string) int {
	for i, existing := range e.constants {
		if existing == s {
			return i
		}
	}
	e.constants = append(e.constants, s)
	return len(e.constants) - 1
}

// emitTypedRef emits a typed constant reference (Str/StrLong or
// Word/WordLong depending on shortOp/longOp) for s.
func (e *Encoder) emitTypedRef(shortOp, longOp bytecode.Opcode, s string) {
	idx := e.constantIndex(s)
	if len(e.constants) > bytecode.ShortRefLimit {
		e.emit(longOp)
		e.emitUint32(uint32(idx))
		return
	}
	e.emit(shortOp)
	e.emitByte(byte(idx))
}

// emitRawRef emits a raw constant reference (Short/Long) for s, used for
// declared names, function/parameter names, and identifier dict keys.
func (e *Encoder) emitRawRef(s string) {
	idx := e.constantIndex(s)
	if len(e.constants) > bytecode.ShortRefLimit {
		e.emit(bytecode.OpLong)
		e.emitUint32(uint32(idx))
		return
	}
	e.emit(bytecode.OpShort)
	e.emitByte(byte(idx))
}

// --- Statements ---

func (e *Encoder) VisitExpressionStmt(s ast.ExpressionStmt) any {
	if _, isAssign := s.Expression.(ast.Assign); !isAssign {
		e.emit(bytecode.OpValue)
	}
	s.Expression.Accept(e)
	return nil
}

func (e *Encoder) VisitVarStmt(s ast.VarStmt) any {
	if s.Const {
		e.emit(bytecode.OpConst)
	} else {
		e.emit(bytecode.OpVar)
	}
	e.emitRawRef(s.Name.Lexeme)
	if s.Initializer != nil {
		s.Initializer.Accept(e)
	} else {
		e.emit(bytecode.OpNull)
	}
	return nil
}

func (e *Encoder) VisitBlockStmt(s ast.BlockStmt) any {
	for _, stmt := range s.Statements {
		e.emitStatementPosition(stmt)
		stmt.Accept(e)
	}
	return nil
}

func (e *Encoder) VisitIfStmt(s ast.IfStmt) any {
	e.emit(bytecode.OpCondition)
	e.emitByte(byte(len(s.Arms)))
	for _, arm := range s.Arms {
		arm.Condition.Accept(e)
		body := e.compileBody(arm.Body)
		e.emitUint32(uint32(len(body)))
		e.bytes = append(e.bytes, body...)
	}
	if s.Else != nil {
		e.emitByte(1)
		body := e.compileBody(s.Else)
		e.emitUint32(uint32(len(body)))
		e.bytes = append(e.bytes, body...)
	} else {
		e.emitByte(0)
	}
	return nil
}

func (e *Encoder) VisitWhileStmt(s ast.WhileStmt) any {
	e.emit(bytecode.OpWhile)
	s.Condition.Accept(e)
	body := e.compileBody(s.Body)
	e.emitUint32(uint32(len(body)))
	e.bytes = append(e.bytes, body...)
	return nil
}

func (e *Encoder) VisitReturnStmt(s ast.ReturnStmt) any {
	e.emit(bytecode.OpReturn)
	if s.Value != nil {
		s.Value.Accept(e)
	} else {
		e.emit(bytecode.OpNull)
	}
	return nil
}

func (e *Encoder) VisitBreakStmt(s ast.BreakStmt) any {
	e.emit(bytecode.OpBreak)
	return nil
}

func (e *Encoder) VisitContinueStmt(s ast.ContinueStmt) any {
	e.emit(bytecode.OpContinue)
	return nil
}

// --- Expressions ---

func (e *Encoder) VisitBinary(b ast.Binary) any {
	if op, ok := comparisonOperator(b.Operator.TokenType); ok {
		e.emit(bytecode.OpCompare)
		e.emitByte(byte(op))
		b.Left.Accept(e)
		b.Right.Accept(e)
		return nil
	}
	e.emit(binaryOpcode(b.Operator.TokenType))
	b.Left.Accept(e)
	b.Right.Accept(e)
	return nil
}

func comparisonOperator(tt token.TokenType) (bytecode.LogicalOperator, bool) {
	switch tt {
	case token.LARGER:
		return bytecode.GreaterThan, true
	case token.LESS:
		return bytecode.LessThan, true
	case token.LARGER_EQUAL:
		return bytecode.GreaterThanOrEqual, true
	case token.LESS_EQUAL:
		return bytecode.LessThanOrEqual, true
	case token.EQUAL_EQUAL:
		return bytecode.Equal, true
	case token.NOT_EQUAL:
		return bytecode.NotEqual, true
	default:
		return 0, false
	}
}

func binaryOpcode(tt token.TokenType) bytecode.Opcode {
	switch tt {
	case token.ADD:
		return bytecode.OpAdd
	case token.SUB:
		return bytecode.OpSub
	case token.MULT:
		return bytecode.OpMult
	case token.DIV:
		return bytecode.OpDiv
	case token.POW:
		return bytecode.OpPow
	default:
		panic(DeveloperError{Message: "unsupported binary operator " + string(tt)})
	}
}

func (e *Encoder) VisitUnary(u ast.Unary) any {
	switch u.Operator.TokenType {
	case token.BANG:
		e.emit(bytecode.OpInvert)
		u.Right.Accept(e)
	case token.SUB:
		// numeric negation has no dedicated opcode; encode as 0 - x.
		e.emit(bytecode.OpSub)
		e.emit(bytecode.OpNum)
		e.emitFloat64(0)
		u.Right.Accept(e)
	default:
		panic(SemanticError{Message: "unsupported unary operator"})
	}
	return nil
}

func (e *Encoder) VisitLiteral(l ast.Literal) any {
	switch v := l.Value.(type) {
	case nil:
		e.emit(bytecode.OpNull)
	case bool:
		if v {
			e.emit(bytecode.OpTrue)
		} else {
			e.emit(bytecode.OpFalse)
		}
	case string:
		e.emitTypedRef(bytecode.OpStr, bytecode.OpStrLong, v)
	case float64:
		e.emit(bytecode.OpNum)
		e.emitFloat64(v)
	case int64:
		e.emit(bytecode.OpNum)
		e.emitFloat64(float64(v))
	default:
		panic(DeveloperError{Message: "unsupported literal value type"})
	}
	return nil
}

func (e *Encoder) VisitGrouping(g ast.Grouping) any {
	e.emit(bytecode.OpGroup)
	g.Expression.Accept(e)
	return nil
}

func (e *Encoder) VisitVariableExpression(v ast.Variable) any {
	e.emitTypedRef(bytecode.OpWord, bytecode.OpWordLong, v.Name.Lexeme)
	return nil
}

func (e *Encoder) VisitAssignExpression(a ast.Assign) any {
	e.emit(bytecode.OpAssign)
	e.emitAssignTarget(a.Target)
	e.emitByte(byte(assignOpcode(a.Operator.TokenType)))
	a.Value.Accept(e)
	return nil
}

func assignOpcode(tt token.TokenType) bytecode.Opcode {
	switch tt {
	case token.ASSIGN:
		return bytecode.AssignSet
	case token.PLUS_ASSIGN:
		return bytecode.AssignAdd
	case token.MINUS_ASSIGN:
		return bytecode.AssignSub
	default:
		panic(DeveloperError{Message: "unsupported assignment operator"})
	}
}

// emitAssignTarget emits a variable name (raw ref) or an Attr chain as the
// target of an assignment.
func (e *Encoder) emitAssignTarget(target ast.Expression) {
	switch t := target.(type) {
	case ast.Variable:
		e.emitRawRef(t.Name.Lexeme)
	case ast.Attr:
		e.emit(bytecode.OpAttr)
		e.emitAssignTarget(t.Target)
		t.Key.Accept(e)
	default:
		panic(SemanticError{Message: "invalid assignment target"})
	}
}

func (e *Encoder) VisitLogicalExpression(l ast.Logical) any {
	if l.Operator.TokenType == token.AND {
		e.emit(bytecode.OpAnd)
	} else {
		e.emit(bytecode.OpOr)
	}
	l.Left.Accept(e)
	l.Right.Accept(e)
	return nil
}

func (e *Encoder) VisitArray(a ast.Array) any {
	e.emit(bytecode.OpArray)
	e.emitUint32(uint32(len(a.Elements)))
	for _, el := range a.Elements {
		el.Accept(e)
	}
	return nil
}

func (e *Encoder) VisitDict(d ast.Dict) any {
	e.emit(bytecode.OpDict)
	e.emitUint32(uint32(len(d.Entries)))
	for _, entry := range d.Entries {
		if lit, ok := entry.Key.(ast.Literal); ok {
			if s, ok := lit.Value.(string); ok {
				e.emitRawRef(s)
				entry.Value.Accept(e)
				continue
			}
		}
		panic(SemanticError{Message: "dict keys must be string literals"})
	}
	return nil
}

func (e *Encoder) VisitCall(c ast.Call) any {
	e.emit(bytecode.OpCall)
	c.Callee.Accept(e)
	e.emitByte(byte(len(c.Arguments)))
	for _, arg := range c.Arguments {
		arg.Accept(e)
	}
	return nil
}

func (e *Encoder) VisitAttr(a ast.Attr) any {
	e.emit(bytecode.OpAttr)
	a.Target.Accept(e)
	a.Key.Accept(e)
	return nil
}

func (e *Encoder) VisitTernary(t ast.Ternary) any {
	e.emit(bytecode.OpTernary)
	t.Condition.Accept(e)
	t.Then.Accept(e)
	t.Else.Accept(e)
	return nil
}

func (e *Encoder) VisitFunc(f ast.Func) any {
	e.emit(bytecode.OpFunc)
	name := f.Name.Lexeme
	if name == "" {
		name = "anonymous"
	}
	e.emitRawRef(name)
	e.emitByte(byte(len(f.Params)))
	for _, param := range f.Params {
		e.emitRawRef(param.Name.Lexeme)
		if param.Rest {
			e.emitByte(1)
		} else {
			e.emitByte(0)
		}
	}
	body := e.compileBody(f.Body)
	e.bytes = append(e.bytes, body...)
	e.emit(bytecode.OpFuncEnd)
	return nil
}

func (e *Encoder) VisitAwait(a ast.Await) any {
	e.emit(bytecode.OpAwait)
	a.Value.Accept(e)
	return nil
}

func (e *Encoder) VisitIn(in ast.In) any {
	e.emit(bytecode.OpIn)
	in.Left.Accept(e)
	in.Right.Accept(e)
	return nil
}
