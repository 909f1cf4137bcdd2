package parse

import (
	"fmt"
	"io"

	"golox/ast"
)

type parseError struct {
	msg string
}

func (p parseError) Error() string {
	return p.msg
}

// Parser parses a flat list of tokens into
// an AST representation of the source program
type Parser struct {
	tokens   []ast.Token
	current  int
	hadError bool
	stdErr   io.Writer
}

// NewParser returns a new Parser that reads a list of tokens
func NewParser(tokens []ast.Token, stdErr io.Writer) *Parser {
	return &Parser{tokens: tokens, stdErr: stdErr}
}

/**
Parser grammar:

	program     => declaration* EOF
	declaration => classDecl | funDecl | varDecl | statement
	classDecl   => "class" IDENTIFIER ( "<" IDENTIFIER )? "{" function* "}"
	funDecl     => "fun" function
	function    => IDENTIFIER "(" parameters? ")" block
	parameters  => IDENTIFIER ( "," IDENTIFIER )*
	varDecl     => "var" IDENTIFIER ( "=" expression )? ";"
	statement   => exprStmt | forStmt | ifStmt | printStmt | returnStmt
	               | whileStmt | block
	exprStmt    => expression ";"
	forStmt     => "for" "(" ( varDecl | exprStmt | ";" ) expression? ";" expression? ")" statement
	ifStmt      => "if" "(" expression ")" statement ( "else" statement )?
	printStmt   => "print" expression ";"
	returnStmt  => "return" expression? ";"
	whileStmt   => "while" "(" expression ")" statement
	block       => "{" declaration* "}"
	expression  => assignment
	assignment  => ( call "." )? IDENTIFIER "=" assignment | logic_or
	logic_or    => logic_and ( "or" logic_and )*
	logic_and   => equality ( "and" equality )*
	equality    => comparison ( ( "!=" | "==" ) comparison )*
	comparison  => term ( ( ">" | ">=" | "<" | "<=" ) term )*
	term        => factor ( ( "-" | "+" ) factor )*
	factor      => unary ( ( "/" | "*" ) unary )*
	unary       => ( "!" | "-" ) unary | call
	call        => primary ( "(" arguments? ")" | "." IDENTIFIER )*
	arguments   => expression ( "," expression )*
	primary     => "true" | "false" | "nil" | "this" | NUMBER | STRING
	               | IDENTIFIER | "(" expression ")" | "super" "." IDENTIFIER
*/

// Parse reads the list of tokens and returns a list of statements
// representing the source program, along with whether any syntax
// error was reported
func (p *Parser) Parse() ([]ast.Stmt, bool) {
	var statements []ast.Stmt
	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	return statements, p.hadError
}

// declaration parses declaration statements. A declaration statement is
// a class, function, or variable declaration, or a regular statement.
// If the statement contains a parse error, it skips to the start of the
// next statement and returns nil.
func (p *Parser) declaration() (stmt ast.Stmt) {
	defer func() {
		if err := recover(); err != nil {
			// If the error is a parseError, synchronize to
			// the next statement. If not, propagate the panic.
			if _, ok := err.(parseError); ok {
				p.synchronize()
				stmt = nil
			} else {
				panic(err)
			}
		}
	}()

	switch {
	case p.match(ast.TokenClass):
		return p.classDeclaration()
	case p.match(ast.TokenFun):
		return p.function("function")
	case p.match(ast.TokenVar):
		return p.varDeclaration()
	}
	return p.statement()
}

func (p *Parser) classDeclaration() ast.Stmt {
	name := p.consume(ast.TokenIdentifier, "Expect class name.")

	var superclass *ast.VariableExpr
	if p.match(ast.TokenLess) {
		p.consume(ast.TokenIdentifier, "Expect superclass name.")
		superclass = &ast.VariableExpr{Name: p.previous()}
	}

	p.consume(ast.TokenLeftBrace, "Expect '{' before class body.")

	var methods []*ast.FunctionStmt
	for !p.check(ast.TokenRightBrace) && !p.isAtEnd() {
		methods = append(methods, p.function("method"))
	}

	p.consume(ast.TokenRightBrace, "Expect '}' after class body.")
	return &ast.ClassStmt{Name: name, Superclass: superclass, Methods: methods}
}

func (p *Parser) varDeclaration() ast.Stmt {
	name := p.consume(ast.TokenIdentifier, "Expect variable name.")

	var initializer ast.Expr = &ast.LiteralExpr{}
	if p.match(ast.TokenEqual) {
		initializer = p.expression()
	}

	p.consume(ast.TokenSemicolon, "Expect ';' after variable declaration.")
	return &ast.VarStmt{Name: name, Initializer: initializer}
}

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(ast.TokenFor):
		return p.forStatement()
	case p.match(ast.TokenIf):
		return p.ifStatement()
	case p.match(ast.TokenPrint):
		return p.printStatement()
	case p.match(ast.TokenReturn):
		return p.returnStatement()
	case p.match(ast.TokenWhile):
		return p.whileStatement()
	case p.match(ast.TokenLeftBrace):
		return &ast.BlockStmt{Statements: p.block()}
	}
	return p.expressionStatement()
}

// forStatement desugars a for loop into a while loop:
// "for (init; cond; inc) body" becomes "{ init; while (cond) { body; inc; } }"
func (p *Parser) forStatement() ast.Stmt {
	p.consume(ast.TokenLeftParen, "Expect '(' after 'for'.")

	var initializer ast.Stmt
	if p.match(ast.TokenSemicolon) {
		initializer = nil
	} else if p.match(ast.TokenVar) {
		initializer = p.varDeclaration()
	} else {
		initializer = p.expressionStatement()
	}

	var condition ast.Expr
	if !p.check(ast.TokenSemicolon) {
		condition = p.expression()
	}
	p.consume(ast.TokenSemicolon, "Expect ';' after loop condition.")

	var increment ast.Expr
	if !p.check(ast.TokenRightParen) {
		increment = p.expression()
	}
	p.consume(ast.TokenRightParen, "Expect ')' after for clauses.")

	body := p.statement()

	if increment != nil {
		body = &ast.BlockStmt{Statements: []ast.Stmt{body, &ast.ExpressionStmt{Expr: increment}}}
	}

	if condition == nil {
		condition = &ast.LiteralExpr{Value: true}
	}
	body = &ast.WhileStmt{Condition: condition, Body: body}

	if initializer != nil {
		body = &ast.BlockStmt{Statements: []ast.Stmt{initializer, body}}
	}

	return body
}

func (p *Parser) ifStatement() ast.Stmt {
	p.consume(ast.TokenLeftParen, "Expect '(' after 'if'.")
	condition := p.expression()
	p.consume(ast.TokenRightParen, "Expect ')' after if condition.")

	thenBranch := p.statement()
	var elseBranch ast.Stmt
	if p.match(ast.TokenElse) {
		elseBranch = p.statement()
	}

	return &ast.IfStmt{Condition: condition, ThenBranch: thenBranch, ElseBranch: elseBranch}
}

func (p *Parser) printStatement() ast.Stmt {
	expr := p.expression()
	p.consume(ast.TokenSemicolon, "Expect ';' after value.")
	return &ast.PrintStmt{Expr: expr}
}

func (p *Parser) returnStatement() ast.Stmt {
	keyword := p.previous()
	var value ast.Expr
	if !p.check(ast.TokenSemicolon) {
		value = p.expression()
	}
	p.consume(ast.TokenSemicolon, "Expect ';' after return value.")
	return &ast.ReturnStmt{Keyword: keyword, Value: value}
}

func (p *Parser) whileStatement() ast.Stmt {
	p.consume(ast.TokenLeftParen, "Expect '(' after 'while'.")
	condition := p.expression()
	p.consume(ast.TokenRightParen, "Expect ')' after condition.")
	body := p.statement()
	return &ast.WhileStmt{Condition: condition, Body: body}
}

func (p *Parser) expressionStatement() ast.Stmt {
	expr := p.expression()
	p.consume(ast.TokenSemicolon, "Expect ';' after expression.")
	return &ast.ExpressionStmt{Expr: expr}
}

func (p *Parser) function(kind string) *ast.FunctionStmt {
	name := p.consume(ast.TokenIdentifier, "Expect "+kind+" name.")
	p.consume(ast.TokenLeftParen, "Expect '(' after "+kind+" name.")

	var parameters []ast.Token
	if !p.check(ast.TokenRightParen) {
		for {
			if len(parameters) >= 255 {
				p.report(p.peek(), "Can't have more than 255 parameters.")
			}
			parameters = append(parameters, p.consume(ast.TokenIdentifier, "Expect parameter name."))
			if !p.match(ast.TokenComma) {
				break
			}
		}
	}
	p.consume(ast.TokenRightParen, "Expect ')' after parameters.")

	p.consume(ast.TokenLeftBrace, "Expect '{' before "+kind+" body.")
	body := p.block()
	return &ast.FunctionStmt{Name: name, Kind: kind, Params: parameters, Body: body}
}

func (p *Parser) block() []ast.Stmt {
	var statements []ast.Stmt
	for !p.check(ast.TokenRightBrace) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	p.consume(ast.TokenRightBrace, "Expect '}' after block.")
	return statements
}

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

// assignment parses the left-hand side as an expression first. If an
// "=" follows, the expression must be a variable access or a property
// get; anything else is reported, without panicking, and the left-hand
// side is returned as parsed.
func (p *Parser) assignment() ast.Expr {
	expr := p.or()

	if p.match(ast.TokenEqual) {
		equals := p.previous()
		value := p.assignment()

		switch target := expr.(type) {
		case *ast.VariableExpr:
			return &ast.AssignExpr{Name: target.Name, Value: value}
		case *ast.GetExpr:
			return &ast.SetExpr{Object: target.Object, Name: target.Name, Value: value}
		}
		p.report(equals, "Invalid assignment target.")
	}

	return expr
}

func (p *Parser) or() ast.Expr {
	expr := p.and()

	for p.match(ast.TokenOr) {
		operator := p.previous()
		right := p.and()
		expr = &ast.LogicalExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	expr := p.equality()

	for p.match(ast.TokenAnd) {
		operator := p.previous()
		right := p.equality()
		expr = &ast.LogicalExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	expr := p.comparison()

	for p.match(ast.TokenBangEqual, ast.TokenEqualEqual) {
		operator := p.previous()
		right := p.comparison()
		expr = &ast.BinaryExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.term()

	for p.match(ast.TokenGreater, ast.TokenGreaterEqual, ast.TokenLess, ast.TokenLessEqual) {
		operator := p.previous()
		right := p.term()
		expr = &ast.BinaryExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) term() ast.Expr {
	expr := p.factor()

	for p.match(ast.TokenMinus, ast.TokenPlus) {
		operator := p.previous()
		right := p.factor()
		expr = &ast.BinaryExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) factor() ast.Expr {
	expr := p.unary()

	for p.match(ast.TokenSlash, ast.TokenStar) {
		operator := p.previous()
		right := p.unary()
		expr = &ast.BinaryExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.match(ast.TokenBang, ast.TokenMinus) {
		operator := p.previous()
		right := p.unary()
		return &ast.UnaryExpr{Operator: operator, Right: right}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()

	for {
		if p.match(ast.TokenLeftParen) {
			expr = p.finishCall(expr)
		} else if p.match(ast.TokenDot) {
			name := p.consume(ast.TokenIdentifier, "Expect property name after '.'.")
			expr = &ast.GetExpr{Object: expr, Name: name}
		} else {
			break
		}
	}
	return expr
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(ast.TokenRightParen) {
		for {
			if len(args) >= 255 {
				p.report(p.peek(), "Can't have more than 255 arguments.")
			}
			args = append(args, p.expression())
			if !p.match(ast.TokenComma) {
				break
			}
		}
	}

	paren := p.consume(ast.TokenRightParen, "Expect ')' after arguments.")
	return &ast.CallExpr{Callee: callee, Paren: paren, Arguments: args}
}

func (p *Parser) primary() ast.Expr {
	switch {
	case p.match(ast.TokenFalse):
		return &ast.LiteralExpr{Value: false}
	case p.match(ast.TokenTrue):
		return &ast.LiteralExpr{Value: true}
	case p.match(ast.TokenNil):
		return &ast.LiteralExpr{}
	case p.match(ast.TokenNumber, ast.TokenString):
		return &ast.LiteralExpr{Value: p.previous().Literal}
	case p.match(ast.TokenSuper):
		keyword := p.previous()
		p.consume(ast.TokenDot, "Expect '.' after 'super'.")
		method := p.consume(ast.TokenIdentifier, "Expect superclass method name.")
		return &ast.SuperExpr{Keyword: keyword, Method: method}
	case p.match(ast.TokenThis):
		return &ast.ThisExpr{Keyword: p.previous()}
	case p.match(ast.TokenIdentifier):
		return &ast.VariableExpr{Name: p.previous()}
	case p.match(ast.TokenLeftParen):
		expr := p.expression()
		p.consume(ast.TokenRightParen, "Expect ')' after expression.")
		return &ast.GroupingExpr{Expression: expr}
	}

	p.error(p.peek(), "Expect expression.")
	return nil
}

// consume checks that the next token is of the given type and then
// advances to the next token. If the check fails, it panics with the
// given message.
func (p *Parser) consume(tokenType ast.TokenType, message string) ast.Token {
	if p.check(tokenType) {
		return p.advance()
	}
	p.error(p.peek(), message)
	return ast.Token{}
}

// report writes an error at the given token without entering panic mode
func (p *Parser) report(token ast.Token, message string) {
	var where string
	if token.TokenType == ast.TokenEof {
		where = " at end"
	} else {
		where = " at '" + token.Lexeme + "'"
	}

	_, _ = fmt.Fprintf(p.stdErr, "[line %d] Error%s: %s\n", token.Line, where, message)
	p.hadError = true
}

// error reports an error at the given token and enters panic mode
func (p *Parser) error(token ast.Token, message string) {
	p.report(token, message)
	panic(parseError{msg: message})
}

// synchronize discards tokens until it reaches a statement boundary:
// just past a semicolon, or at a statement-introducing keyword
func (p *Parser) synchronize() {
	p.advance()

	for !p.isAtEnd() {
		if p.previous().TokenType == ast.TokenSemicolon {
			return
		}

		switch p.peek().TokenType {
		case ast.TokenClass, ast.TokenFor, ast.TokenFun, ast.TokenIf,
			ast.TokenPrint, ast.TokenReturn, ast.TokenVar, ast.TokenWhile:
			return
		}

		p.advance()
	}
}

func (p *Parser) match(types ...ast.TokenType) bool {
	for _, tokenType := range types {
		if p.check(tokenType) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(tokenType ast.TokenType) bool {
	return p.peek().TokenType == tokenType
}

func (p *Parser) advance() ast.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.peek().TokenType == ast.TokenEof
}

func (p *Parser) peek() ast.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() ast.Token {
	return p.tokens[p.current-1]
}
