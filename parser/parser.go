// Recursive descent parser
// https://en.wikipedia.org/wiki/Recursive_descent_parser
//
// A Recursive descent parser is a top-down parser because it starts from the top
// grammar rule and works its way down into the nested sub-expressions before reaching
// the leaves of the syntax tree (terminal rules).
package parser

import (
	"fmt"

	"github.com/vellumlang/vellum/ast"
	"github.com/vellumlang/vellum/token"
)

var equalityTokenTypes = []token.TokenType{
	token.NOT_EQUAL,
	token.EQUAL_EQUAL,
}

var comparisonTokenTypes = []token.TokenType{
	token.LARGER,
	token.LARGER_EQUAL,
	token.LESS,
	token.LESS_EQUAL,
}

var termTokenTypes = []token.TokenType{
	token.SUB,
	token.ADD,
}

var factorExpressionTypes = []token.TokenType{
	token.MULT,
	token.DIV,
}

var assignmentOperatorTypes = []token.TokenType{
	token.ASSIGN,
	token.PLUS_ASSIGN,
	token.MINUS_ASSIGN,
}

type Parser struct {
	tokens   []token.Token
	position int
}

// NOTE: The parsers position is always one unit ahead of the
// current token

// Make initializes and returns a new Parser instance over the given token
// stream produced by the lexer.
func Make(tokens []token.Token) *Parser {
	return &Parser{
		tokens:   tokens,
		position: 0,
	}
}

// Print prints the AST as prettified JSON to standard output.
func (parser *Parser) Print(statements []ast.Stmt) {
	_, err := PrintASTJSON(statements)
	if err != nil {
		fmt.Println("error producing AST JSON:", err)
	}
}

// PrintToFile writes the AST for the provided statements to a .json file at the given path.
func (parser *Parser) PrintToFile(statements []ast.Stmt, path string) error {
	return WriteASTJSONToFile(statements, path)
}

func (parser *Parser) peek() token.Token {
	return parser.tokens[parser.position]
}

func (parser *Parser) previous() token.Token {
	return parser.tokens[parser.position-1]
}

func (parser *Parser) advance() token.Token {
	if !parser.isFinished() {
		parser.position++
	}
	return parser.previous()
}

func (parser *Parser) isFinished() bool {
	tok := parser.peek()
	return tok.TokenType == token.EOF
}

func (parser *Parser) checkType(tokenType token.TokenType) bool {
	if parser.isFinished() {
		return tokenType == token.EOF
	}
	tok := parser.peek()
	return tok.TokenType == tokenType
}

// isMatch reports whether the TokenType at the current position matches
// any of the provided tokenTypes. If a match is found the parser advances
// past it.
func (parser *Parser) isMatch(tokenTypes []token.TokenType) bool {
	for i := range tokenTypes {
		if parser.checkType(tokenTypes[i]) {
			parser.advance()
			return true
		}
	}
	return false
}

// Parse parses the entire token stream into a slice of Stmt (statement) nodes,
// continuing until the end of input. Errors during parsing are collected
// but parsing continues to find additional errors where possible.
func (parser *Parser) Parse() ([]ast.Stmt, []error) {
	statements := []ast.Stmt{}
	errors := []error{}

	for !parser.isFinished() {
		statement, err := parser.declaration()
		if err != nil {
			errors = append(errors, err)
			parser.synchronize()
			continue
		}
		statements = append(statements, statement)
	}

	return statements, errors
}

// synchronize discards tokens until it reaches a plausible statement
// boundary, used to recover after a syntax error so parsing can continue
// and collect further errors.
func (parser *Parser) synchronize() {
	if parser.isFinished() {
		return
	}
	parser.advance()
	for !parser.isFinished() {
		if parser.previous().TokenType == token.SEMICOLON {
			return
		}
		switch parser.peek().TokenType {
		case token.VAR, token.CONST, token.FUNC, token.IF, token.WHILE, token.RETURN:
			return
		}
		parser.advance()
	}
}

// declaration parses a top-level declaration: a "var"/"const" binding or a
// general statement.
func (parser *Parser) declaration() (ast.Stmt, error) {
	if parser.isMatch([]token.TokenType{token.VAR}) {
		return parser.varDeclaration(false)
	}
	if parser.isMatch([]token.TokenType{token.CONST}) {
		return parser.varDeclaration(true)
	}
	return parser.statement()
}

// varDeclaration parses "var name = expr;" / "const name = expr;". A bare
// "var name;" is permitted and binds the name to null; a bare
// "const name;" is a syntax error since a constant must have a value.
func (parser *Parser) varDeclaration(isConst bool) (ast.Stmt, error) {
	tok, consumeError := parser.consume(token.IDENTIFIER, "expected variable name")
	if consumeError != nil {
		return nil, consumeError
	}

	var initializer ast.Expression
	if parser.isMatch([]token.TokenType{token.ASSIGN}) {
		var err error
		initializer, err = parser.expression()
		if err != nil {
			return nil, err
		}
	} else if isConst {
		return nil, CreateSyntaxError(tok.Line, tok.Column, "const declaration requires an initializer")
	}

	parser.consumeOptionalSemicolon()

	return ast.VarStmt{
		Name:        tok,
		Initializer: initializer,
		Const:       isConst,
	}, nil
}

func (parser *Parser) consumeOptionalSemicolon() {
	parser.isMatch([]token.TokenType{token.SEMICOLON})
}

// statement parses a single statement.
func (parser *Parser) statement() (ast.Stmt, error) {
	// "{" followed by a key and ":" opens a dict literal, not a block.
	if parser.checkType(token.LCUR) && parser.position+2 < len(parser.tokens) &&
		parser.tokens[parser.position+2].TokenType == token.COLON {
		return parser.expressionStatement()
	}

	if parser.isMatch([]token.TokenType{token.LCUR}) {
		statements, err := parser.block()
		if err != nil {
			return nil, err
		}
		return ast.BlockStmt{Statements: statements}, nil
	}

	if parser.isMatch([]token.TokenType{token.IF}) {
		return parser.ifStatement()
	}

	if parser.isMatch([]token.TokenType{token.WHILE}) {
		return parser.whileStatement()
	}

	if parser.isMatch([]token.TokenType{token.RETURN}) {
		return parser.returnStatement()
	}

	if parser.isMatch([]token.TokenType{token.BREAK}) {
		keyword := parser.previous()
		parser.consumeOptionalSemicolon()
		return ast.BreakStmt{Keyword: keyword}, nil
	}

	if parser.isMatch([]token.TokenType{token.CONTINUE}) {
		keyword := parser.previous()
		parser.consumeOptionalSemicolon()
		return ast.ContinueStmt{Keyword: keyword}, nil
	}

	return parser.expressionStatement()
}

// whileStatement parses "while (cond) { ... }".
func (parser *Parser) whileStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LPA, "expected '(' after 'while'"); err != nil {
		return nil, err
	}
	condition, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.RPA, "expected ')' after while condition"); err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LCUR, "expected '{' to begin while body"); err != nil {
		return nil, err
	}
	body, err := parser.block()
	if err != nil {
		return nil, err
	}

	return ast.WhileStmt{Condition: condition, Body: body}, nil
}

// ifStatement parses "if (cond) { ... } elif (cond) { ... } else { ... }".
func (parser *Parser) ifStatement() (ast.Stmt, error) {
	arm, err := parser.conditionArm()
	if err != nil {
		return nil, err
	}
	arms := []ast.ConditionArm{arm}

	for parser.isMatch([]token.TokenType{token.ELIF}) {
		elifArm, err := parser.conditionArm()
		if err != nil {
			return nil, err
		}
		arms = append(arms, elifArm)
	}

	var elseBody []ast.Stmt
	if parser.isMatch([]token.TokenType{token.ELSE}) {
		if _, err := parser.consume(token.LCUR, "expected '{' to begin else body"); err != nil {
			return nil, err
		}
		elseBody, err = parser.block()
		if err != nil {
			return nil, err
		}
	}

	return ast.IfStmt{Arms: arms, Else: elseBody}, nil
}

func (parser *Parser) conditionArm() (ast.ConditionArm, error) {
	if _, err := parser.consume(token.LPA, "expected '(' after 'if'/'elif'"); err != nil {
		return ast.ConditionArm{}, err
	}
	condition, err := parser.expression()
	if err != nil {
		return ast.ConditionArm{}, err
	}
	if _, err := parser.consume(token.RPA, "expected ')' after condition"); err != nil {
		return ast.ConditionArm{}, err
	}
	if _, err := parser.consume(token.LCUR, "expected '{' to begin branch body"); err != nil {
		return ast.ConditionArm{}, err
	}
	body, err := parser.block()
	if err != nil {
		return ast.ConditionArm{}, err
	}
	return ast.ConditionArm{Condition: condition, Body: body}, nil
}

// returnStatement parses "return expr;" or a bare "return;".
func (parser *Parser) returnStatement() (ast.Stmt, error) {
	keyword := parser.previous()
	var value ast.Expression
	if !parser.checkType(token.SEMICOLON) && !parser.checkType(token.RCUR) {
		var err error
		value, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	parser.consumeOptionalSemicolon()
	return ast.ReturnStmt{Keyword: keyword, Value: value}, nil
}

// expressionStatement parses a statement consisting of a single expression.
func (parser *Parser) expressionStatement() (ast.Stmt, error) {
	expression, err := parser.expression()
	if err != nil {
		return nil, err
	}
	parser.consumeOptionalSemicolon()
	return ast.ExpressionStmt{Expression: expression}, nil
}

// block parses a list of declarations up to and including the closing '}'.
// The opening '{' must already have been consumed by the caller.
func (parser *Parser) block() ([]ast.Stmt, error) {
	statements := []ast.Stmt{}

	for !parser.checkType(token.RCUR) && !parser.isFinished() {
		stmt, err := parser.declaration()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	if _, err := parser.consume(token.RCUR, "expected '}' after block"); err != nil {
		return nil, err
	}
	return statements, nil
}

// expression is the entry point for parsing expressions, starting at the
// lowest-precedence rule (assignment).
func (parser *Parser) expression() (ast.Expression, error) {
	return parser.assignment()
}

// assignment parses an assignment expression. The left-hand side is parsed
// as a ternary expression first; if an assignment operator follows, the
// left-hand side must be a Variable or Attr target.
func (parser *Parser) assignment() (ast.Expression, error) {
	expression, err := parser.ternary()
	if err != nil {
		return nil, err
	}

	if parser.isMatch(assignmentOperatorTypes) {
		operator := parser.previous()
		value, err := parser.assignment()
		if err != nil {
			return nil, err
		}
		switch expression.(type) {
		case ast.Variable, ast.Attr:
			return ast.Assign{Target: expression, Operator: operator, Value: value}, nil
		default:
			return nil, CreateSyntaxError(operator.Line, operator.Column, "invalid assignment target")
		}
	}

	return expression, nil
}

// ternary parses "cond ? then : else".
func (parser *Parser) ternary() (ast.Expression, error) {
	condition, err := parser.or()
	if err != nil {
		return nil, err
	}
	if parser.isMatch([]token.TokenType{token.QUESTION}) {
		then, err := parser.assignment()
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.COLON, "expected ':' in ternary expression"); err != nil {
			return nil, err
		}
		elseExpr, err := parser.assignment()
		if err != nil {
			return nil, err
		}
		return ast.Ternary{Condition: condition, Then: then, Else: elseExpr}, nil
	}
	return condition, nil
}

func (parser *Parser) or() (ast.Expression, error) {
	expr, err := parser.and()
	if err != nil {
		return nil, err
	}
	for parser.isMatch([]token.TokenType{token.OR}) {
		op := parser.previous()
		right, err := parser.and()
		if err != nil {
			return nil, err
		}
		expr = ast.Logical{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) and() (ast.Expression, error) {
	expr, err := parser.in()
	if err != nil {
		return nil, err
	}
	for parser.isMatch([]token.TokenType{token.AND}) {
		op := parser.previous()
		right, err := parser.in()
		if err != nil {
			return nil, err
		}
		expr = ast.Logical{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) in() (ast.Expression, error) {
	expr, err := parser.equality()
	if err != nil {
		return nil, err
	}
	for parser.isMatch([]token.TokenType{token.IN}) {
		right, err := parser.equality()
		if err != nil {
			return nil, err
		}
		expr = ast.In{Left: expr, Right: right}
	}
	return expr, nil
}

func (parser *Parser) equality() (ast.Expression, error) {
	exp, err := parser.comparison()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(equalityTokenTypes) {
		operator := parser.previous()
		right, err := parser.comparison()
		if err != nil {
			return nil, err
		}
		exp = ast.Binary{Left: exp, Operator: operator, Right: right}
	}
	return exp, nil
}

func (parser *Parser) comparison() (ast.Expression, error) {
	exp, err := parser.term()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(comparisonTokenTypes) {
		operator := parser.previous()
		right, err := parser.term()
		if err != nil {
			return nil, err
		}
		exp = ast.Binary{Left: exp, Operator: operator, Right: right}
	}
	return exp, nil
}

func (parser *Parser) term() (ast.Expression, error) {
	exp, err := parser.factor()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(termTokenTypes) {
		operator := parser.previous()
		right, err := parser.factor()
		if err != nil {
			return nil, err
		}
		exp = ast.Binary{Left: exp, Operator: operator, Right: right}
	}
	return exp, nil
}

func (parser *Parser) factor() (ast.Expression, error) {
	exp, err := parser.power()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(factorExpressionTypes) {
		operator := parser.previous()
		right, err := parser.power()
		if err != nil {
			return nil, err
		}
		exp = ast.Binary{Left: exp, Operator: operator, Right: right}
	}
	return exp, nil
}

// power parses the right-associative "**" operator.
func (parser *Parser) power() (ast.Expression, error) {
	exp, err := parser.unary()
	if err != nil {
		return nil, err
	}
	if parser.isMatch([]token.TokenType{token.POW}) {
		operator := parser.previous()
		right, err := parser.power()
		if err != nil {
			return nil, err
		}
		return ast.Binary{Left: exp, Operator: operator, Right: right}, nil
	}
	return exp, nil
}

// unary parses unary prefix expressions: "!a", "-a", "await a".
func (parser *Parser) unary() (ast.Expression, error) {
	if parser.isMatch([]token.TokenType{token.BANG, token.SUB}) {
		operator := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Operator: operator, Right: right}, nil
	}
	if parser.isMatch([]token.TokenType{token.AWAIT}) {
		value, err := parser.unary()
		if err != nil {
			return nil, err
		}
		return ast.Await{Value: value}, nil
	}
	return parser.call()
}

// call parses postfix call/attribute/index chains: "f(a)", "a.b", "a[0]".
func (parser *Parser) call() (ast.Expression, error) {
	expr, err := parser.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case parser.isMatch([]token.TokenType{token.LPA}):
			expr, err = parser.finishCall(expr)
			if err != nil {
				return nil, err
			}
		case parser.isMatch([]token.TokenType{token.DOT}):
			name, err := parser.consume(token.IDENTIFIER, "expected property name after '.'")
			if err != nil {
				return nil, err
			}
			expr = ast.Attr{Target: expr, Key: ast.Literal{Value: name.Lexeme}}
		case parser.isMatch([]token.TokenType{token.LBRACKET}):
			index, err := parser.expression()
			if err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.RBRACKET, "expected ']' after index expression"); err != nil {
				return nil, err
			}
			expr = ast.Attr{Target: expr, Key: index}
		default:
			return expr, nil
		}
	}
}

func (parser *Parser) finishCall(callee ast.Expression) (ast.Expression, error) {
	arguments := []ast.Expression{}

	if !parser.checkType(token.RPA) {
		for {
			arg, err := parser.expression()
			if err != nil {
				return nil, err
			}
			arguments = append(arguments, arg)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}

	if _, err := parser.consume(token.RPA, "expected ')' after arguments"); err != nil {
		return nil, err
	}

	return ast.Call{Callee: callee, Arguments: arguments}, nil
}

// primary parses the most basic forms of expressions: literals, grouping,
// arrays, dicts, identifiers, and function literals.
func (parser *Parser) primary() (ast.Expression, error) {
	if parser.isMatch([]token.TokenType{token.FALSE}) {
		return ast.Literal{Value: false}, nil
	}
	if parser.isMatch([]token.TokenType{token.TRUE}) {
		return ast.Literal{Value: true}, nil
	}
	if parser.isMatch([]token.TokenType{token.NULL}) {
		return ast.Literal{Value: nil}, nil
	}

	if parser.isMatch([]token.TokenType{token.FLOAT, token.INT, token.STRING}) {
		return ast.Literal{Value: parser.previous().Literal}, nil
	}

	if parser.isMatch([]token.TokenType{token.FUNC}) {
		return parser.functionLiteral()
	}

	if parser.isMatch([]token.TokenType{token.IDENTIFIER}) {
		return ast.Variable{Name: parser.previous()}, nil
	}

	if parser.isMatch([]token.TokenType{token.LBRACKET}) {
		return parser.arrayLiteral()
	}

	if parser.isMatch([]token.TokenType{token.LCUR}) {
		return parser.dictLiteral()
	}

	if parser.isMatch([]token.TokenType{token.LPA}) {
		expr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.RPA, fmt.Sprintf("expression is missing '%s'", token.RPA)); err != nil {
			return nil, err
		}
		return ast.Grouping{Expression: expr}, nil
	}

	currentToken := parser.peek()
	return nil, CreateSyntaxError(currentToken.Line, currentToken.Column, "unrecognised expression")
}

func (parser *Parser) arrayLiteral() (ast.Expression, error) {
	elements := []ast.Expression{}
	for !parser.checkType(token.RBRACKET) {
		element, err := parser.expression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)
		if !parser.isMatch([]token.TokenType{token.COMMA}) {
			break
		}
	}
	if _, err := parser.consume(token.RBRACKET, "expected ']' after array elements"); err != nil {
		return nil, err
	}
	return ast.Array{Elements: elements}, nil
}

func (parser *Parser) dictLiteral() (ast.Expression, error) {
	entries := []ast.DictEntry{}
	for !parser.checkType(token.RCUR) {
		var key ast.Expression
		switch {
		case parser.isMatch([]token.TokenType{token.STRING}):
			key = ast.Literal{Value: parser.previous().Literal}
		case parser.isMatch([]token.TokenType{token.IDENTIFIER}):
			key = ast.Literal{Value: parser.previous().Lexeme}
		default:
			return nil, CreateSyntaxError(parser.peek().Line, parser.peek().Column, "expected dict key")
		}
		if _, err := parser.consume(token.COLON, "expected ':' after dict key"); err != nil {
			return nil, err
		}
		value, err := parser.expression()
		if err != nil {
			return nil, err
		}
		entries = append(entries, ast.DictEntry{Key: key, Value: value})
		if !parser.isMatch([]token.TokenType{token.COMMA}) {
			break
		}
	}
	if _, err := parser.consume(token.RCUR, "expected '}' after dict entries"); err != nil {
		return nil, err
	}
	return ast.Dict{Entries: entries}, nil
}

// functionLiteral parses "func name(a, b, ...rest) { ... }". Name is the
// zero token for an anonymous function literal.
func (parser *Parser) functionLiteral() (ast.Expression, error) {
	var name token.Token
	if parser.checkType(token.IDENTIFIER) {
		name = parser.advance()
	}

	if _, err := parser.consume(token.LPA, "expected '(' after function name"); err != nil {
		return nil, err
	}

	params := []ast.Param{}
	if !parser.checkType(token.RPA) {
		for {
			rest := parser.isMatch([]token.TokenType{token.ELLIPSIS})
			paramName, err := parser.consume(token.IDENTIFIER, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, ast.Param{Name: paramName, Rest: rest})
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}

	if _, err := parser.consume(token.RPA, "expected ')' after parameters"); err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LCUR, "expected '{' to begin function body"); err != nil {
		return nil, err
	}
	body, err := parser.block()
	if err != nil {
		return nil, err
	}

	return ast.Func{Name: name, Params: params, Body: body}, nil
}

// consume advances past the current token if it matches tokenType, otherwise
// it returns a SyntaxError carrying errorMessage.
func (parser *Parser) consume(tokenType token.TokenType, errorMessage string) (token.Token, error) {
	if parser.checkType(tokenType) {
		return parser.advance(), nil
	}
	currentToken := parser.peek()
	return token.CreateToken(token.EOF, 0, 0), CreateSyntaxError(currentToken.Line, currentToken.Column, errorMessage)
}
