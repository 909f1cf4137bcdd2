package resolve

import (
	"fmt"
	"io"

	"golox/ast"
	"golox/interpret"
)

type functionType int

const (
	functionTypeNone functionType = iota
	functionTypeFunction
	functionTypeMethod
	functionTypeInitializer
)

type classType int

const (
	classTypeNone classType = iota
	classTypeClass
	classTypeSubclass
)

// scope maps the names declared in a lexical scope to whether
// each one's initializer has finished resolving
type scope map[string]bool

type scopes []scope

func (s *scopes) peek() scope {
	return (*s)[len(*s)-1]
}

func (s *scopes) push() {
	*s = append(*s, make(scope))
}

func (s *scopes) pop() {
	*s = (*s)[:len(*s)-1]
}

// Resolver walks the syntax tree after parsing and reports the lexical
// depth of every local variable access to the interpreter. It also
// surfaces the static errors that don't need a running program: bad
// "return", "this", and "super" placement, re-declared locals, and
// variables read in their own initializer.
type Resolver struct {
	interpreter *interpret.Interpreter
	// stack of local scopes; globals are not tracked here
	scopes          scopes
	currentFunction functionType
	currentClass    classType
	stdErr          io.Writer
	hadError        bool
}

// NewResolver returns a new Resolver reporting depths to the given interpreter
func NewResolver(interpreter *interpret.Interpreter, stdErr io.Writer) *Resolver {
	return &Resolver{interpreter: interpreter, stdErr: stdErr}
}

// ResolveStmts resolves all the local variable accesses in a list of
// statements. Unlike the parser, the resolver does not synchronize:
// it reports every error it finds and keeps going.
func (r *Resolver) ResolveStmts(statements []ast.Stmt) (hadError bool) {
	for _, statement := range statements {
		r.resolveStmt(statement)
	}
	return r.hadError
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	stmt.Accept(r)
}

func (r *Resolver) resolveExpr(expr ast.Expr) {
	expr.Accept(r)
}

// resolveFunction resolves a function body in its own scope, with the
// parameters declared and defined before the body
func (r *Resolver) resolveFunction(function *ast.FunctionStmt, fnType functionType) {
	enclosingFunction := r.currentFunction
	r.currentFunction = fnType
	defer func() { r.currentFunction = enclosingFunction }()

	r.beginScope()
	for _, param := range function.Params {
		r.declare(param)
		r.define(param)
	}
	r.ResolveStmts(function.Body)
	r.endScope()
}

func (r *Resolver) beginScope() {
	r.scopes.push()
}

func (r *Resolver) endScope() {
	r.scopes.pop()
}

// declare records a name in the current scope as not yet usable.
// Declaring the same local twice is an error; globals may shadow freely.
func (r *Resolver) declare(name ast.Token) {
	if len(r.scopes) == 0 {
		return
	}

	sc := r.scopes.peek()
	if _, ok := sc[name.Lexeme]; ok {
		r.error(name, "Already a variable with this name in this scope.")
	}
	sc[name.Lexeme] = false
}

// define marks a declared name as fully initialized and usable
func (r *Resolver) define(name ast.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes.peek()[name.Lexeme] = true
}

// resolveLocal reports the depth of a variable access to the
// interpreter: the number of scopes between the access and the
// innermost scope declaring the name. Names found in no local scope
// are left unannotated and resolve against the globals at runtime.
func (r *Resolver) resolveLocal(expr ast.Expr, name ast.Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.interpreter.Resolve(expr, len(r.scopes)-1-i)
			return
		}
	}
}

func (r *Resolver) VisitBlockStmt(stmt *ast.BlockStmt) interface{} {
	r.beginScope()
	r.ResolveStmts(stmt.Statements)
	r.endScope()
	return nil
}

func (r *Resolver) VisitClassStmt(stmt *ast.ClassStmt) interface{} {
	enclosingClass := r.currentClass
	r.currentClass = classTypeClass
	defer func() { r.currentClass = enclosingClass }()

	r.declare(stmt.Name)
	r.define(stmt.Name)

	if stmt.Superclass != nil {
		if stmt.Name.Lexeme == stmt.Superclass.Name.Lexeme {
			r.error(stmt.Superclass.Name, "A class can't inherit from itself.")
		}

		r.currentClass = classTypeSubclass
		r.resolveExpr(stmt.Superclass)

		r.beginScope()
		defer r.endScope()
		r.scopes.peek()["super"] = true
	}

	r.beginScope()
	r.scopes.peek()["this"] = true

	for _, method := range stmt.Methods {
		declaration := functionTypeMethod
		if method.Name.Lexeme == "init" {
			declaration = functionTypeInitializer
		}
		r.resolveFunction(method, declaration)
	}

	r.endScope()
	return nil
}

func (r *Resolver) VisitExpressionStmt(stmt *ast.ExpressionStmt) interface{} {
	r.resolveExpr(stmt.Expr)
	return nil
}

func (r *Resolver) VisitFunctionStmt(stmt *ast.FunctionStmt) interface{} {
	r.declare(stmt.Name)
	r.define(stmt.Name)
	r.resolveFunction(stmt, functionTypeFunction)
	return nil
}

func (r *Resolver) VisitIfStmt(stmt *ast.IfStmt) interface{} {
	r.resolveExpr(stmt.Condition)
	r.resolveStmt(stmt.ThenBranch)
	if stmt.ElseBranch != nil {
		r.resolveStmt(stmt.ElseBranch)
	}
	return nil
}

func (r *Resolver) VisitPrintStmt(stmt *ast.PrintStmt) interface{} {
	r.resolveExpr(stmt.Expr)
	return nil
}

func (r *Resolver) VisitReturnStmt(stmt *ast.ReturnStmt) interface{} {
	if r.currentFunction == functionTypeNone {
		r.error(stmt.Keyword, "Can't return from top-level code.")
	}

	if stmt.Value != nil {
		if r.currentFunction == functionTypeInitializer {
			r.error(stmt.Keyword, "Can't return a value from an initializer.")
		}
		r.resolveExpr(stmt.Value)
	}
	return nil
}

func (r *Resolver) VisitVarStmt(stmt *ast.VarStmt) interface{} {
	r.declare(stmt.Name)
	r.resolveExpr(stmt.Initializer)
	r.define(stmt.Name)
	return nil
}

func (r *Resolver) VisitWhileStmt(stmt *ast.WhileStmt) interface{} {
	r.resolveExpr(stmt.Condition)
	r.resolveStmt(stmt.Body)
	return nil
}

func (r *Resolver) VisitAssignExpr(expr *ast.AssignExpr) interface{} {
	r.resolveExpr(expr.Value)
	r.resolveLocal(expr, expr.Name)
	return nil
}

func (r *Resolver) VisitBinaryExpr(expr *ast.BinaryExpr) interface{} {
	r.resolveExpr(expr.Left)
	r.resolveExpr(expr.Right)
	return nil
}

func (r *Resolver) VisitCallExpr(expr *ast.CallExpr) interface{} {
	r.resolveExpr(expr.Callee)
	for _, argument := range expr.Arguments {
		r.resolveExpr(argument)
	}
	return nil
}

func (r *Resolver) VisitGetExpr(expr *ast.GetExpr) interface{} {
	r.resolveExpr(expr.Object)
	return nil
}

func (r *Resolver) VisitGroupingExpr(expr *ast.GroupingExpr) interface{} {
	r.resolveExpr(expr.Expression)
	return nil
}

func (r *Resolver) VisitLiteralExpr(_ *ast.LiteralExpr) interface{} {
	return nil
}

func (r *Resolver) VisitLogicalExpr(expr *ast.LogicalExpr) interface{} {
	r.resolveExpr(expr.Left)
	r.resolveExpr(expr.Right)
	return nil
}

func (r *Resolver) VisitSetExpr(expr *ast.SetExpr) interface{} {
	r.resolveExpr(expr.Value)
	r.resolveExpr(expr.Object)
	return nil
}

func (r *Resolver) VisitSuperExpr(expr *ast.SuperExpr) interface{} {
	if r.currentClass == classTypeNone {
		r.error(expr.Keyword, "Can't use 'super' outside of a class.")
	} else if r.currentClass != classTypeSubclass {
		r.error(expr.Keyword, "Can't use 'super' in a class with no superclass.")
	}

	r.resolveLocal(expr, expr.Keyword)
	return nil
}

func (r *Resolver) VisitThisExpr(expr *ast.ThisExpr) interface{} {
	if r.currentClass == classTypeNone {
		r.error(expr.Keyword, "Can't use 'this' outside of a class.")
	}

	r.resolveLocal(expr, expr.Keyword)
	return nil
}

func (r *Resolver) VisitUnaryExpr(expr *ast.UnaryExpr) interface{} {
	r.resolveExpr(expr.Right)
	return nil
}

func (r *Resolver) VisitVariableExpr(expr *ast.VariableExpr) interface{} {
	if len(r.scopes) > 0 {
		if defined, declared := r.scopes.peek()[expr.Name.Lexeme]; declared && !defined {
			r.error(expr.Name, "Can't read local variable in its own initializer.")
		}
	}

	r.resolveLocal(expr, expr.Name)
	return nil
}

func (r *Resolver) error(token ast.Token, message string) {
	var where string
	if token.TokenType == ast.TokenEof {
		where = " at end"
	} else {
		where = " at '" + token.Lexeme + "'"
	}

	_, _ = fmt.Fprintf(r.stdErr, "[line %d] Error%s: %s\n", token.Line, where, message)
	r.hadError = true
}
