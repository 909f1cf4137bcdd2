package interpret

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"golox/ast"
)

// maxCallDepth bounds user-program recursion so a runaway program
// reports "Stack overflow." instead of exhausting the host stack
const maxCallDepth = 100

type runtimeError struct {
	token ast.Token
	msg   string
}

func (r runtimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", r.msg, r.token.Line)
}

// returnSignal unwinds a return statement out of blocks and loops
// until the nearest enclosing call frame catches it
type returnSignal struct {
	value interface{}
}

// Interpreter holds the globals and current execution
// environment for a program to be executed
type Interpreter struct {
	// global variables, the root of every environment chain
	globals *Environment
	// current execution environment
	environment *Environment
	// depth of each resolved local variable access, keyed by node identity
	locals map[ast.Expr]int
	// active user/native call count
	callDepth int
	stdOut    io.Writer
	stdErr    io.Writer
}

// NewInterpreter sets up a new interpreter with a globals
// environment seeded with the built-in functions
func NewInterpreter(stdOut io.Writer, stdErr io.Writer) *Interpreter {
	globals := NewEnvironment(nil)
	globals.Define("clock", clock{})

	return &Interpreter{
		globals:     globals,
		environment: globals,
		locals:      make(map[ast.Expr]int),
		stdOut:      stdOut,
		stdErr:      stdErr,
	}
}

// Interpret executes a list of statements within the interpreter's
// environment. A runtime error aborts the remaining statements and is
// reported to the interpreter's standard error.
func (in *Interpreter) Interpret(stmts []ast.Stmt) (hadRuntimeError bool) {
	defer func() {
		if err := recover(); err != nil {
			e, ok := err.(runtimeError)
			if !ok {
				panic(err)
			}
			_, _ = in.stdErr.Write([]byte(e.Error() + "\n"))
			hadRuntimeError = true
		}
	}()

	for _, statement := range stmts {
		in.execute(statement)
	}
	return
}

// Resolve records the lookup depth of a local variable access
func (in *Interpreter) Resolve(expr ast.Expr, depth int) {
	in.locals[expr] = depth
}

// LocalDepth returns the recorded lookup depth of a variable access.
// Accesses with no recorded depth refer to globals.
func (in *Interpreter) LocalDepth(expr ast.Expr) (int, bool) {
	depth, ok := in.locals[expr]
	return depth, ok
}

func (in *Interpreter) execute(stmt ast.Stmt) {
	stmt.Accept(in)
}

func (in *Interpreter) evaluate(expr ast.Expr) interface{} {
	return expr.Accept(in)
}

// executeBlock executes statements in the given environment, restoring
// the previous environment on every exit path
func (in *Interpreter) executeBlock(statements []ast.Stmt, env *Environment) {
	previous := in.environment
	defer func() {
		in.environment = previous
	}()

	in.environment = env
	for _, statement := range statements {
		in.execute(statement)
	}
}

func (in *Interpreter) VisitBlockStmt(stmt *ast.BlockStmt) interface{} {
	in.executeBlock(stmt.Statements, NewEnvironment(in.environment))
	return nil
}

func (in *Interpreter) VisitClassStmt(stmt *ast.ClassStmt) interface{} {
	var superclass *class
	if stmt.Superclass != nil {
		superclass, _ = in.evaluate(stmt.Superclass).(*class)
		if superclass == nil {
			in.error(stmt.Superclass.Name, "Superclass must be a class.")
		}
	}

	in.environment.Define(stmt.Name.Lexeme, nil)

	if superclass != nil {
		in.environment = NewEnvironment(in.environment)
		in.environment.Define("super", superclass)
	}

	methods := make(map[string]function, len(stmt.Methods))
	for _, method := range stmt.Methods {
		methods[method.Name.Lexeme] = function{
			declaration:   method,
			closure:       in.environment,
			isInitializer: method.Name.Lexeme == "init",
		}
	}

	if superclass != nil {
		in.environment = in.environment.enclosing
	}

	if err := in.environment.Assign(stmt.Name, &class{name: stmt.Name.Lexeme, superclass: superclass, methods: methods}); err != nil {
		panic(err)
	}
	return nil
}

func (in *Interpreter) VisitExpressionStmt(stmt *ast.ExpressionStmt) interface{} {
	in.evaluate(stmt.Expr)
	return nil
}

// VisitFunctionStmt creates a new function closing over the current
// environment and binds it to the function's name
func (in *Interpreter) VisitFunctionStmt(stmt *ast.FunctionStmt) interface{} {
	fn := function{declaration: stmt, closure: in.environment}
	in.environment.Define(stmt.Name.Lexeme, fn)
	return nil
}

func (in *Interpreter) VisitIfStmt(stmt *ast.IfStmt) interface{} {
	if isTruthy(in.evaluate(stmt.Condition)) {
		in.execute(stmt.ThenBranch)
	} else if stmt.ElseBranch != nil {
		in.execute(stmt.ElseBranch)
	}
	return nil
}

// VisitPrintStmt evaluates the statement's expression and prints
// the result to the interpreter's standard output
func (in *Interpreter) VisitPrintStmt(stmt *ast.PrintStmt) interface{} {
	value := in.evaluate(stmt.Expr)
	_, _ = in.stdOut.Write([]byte(in.Stringify(value) + "\n"))
	return nil
}

func (in *Interpreter) VisitReturnStmt(stmt *ast.ReturnStmt) interface{} {
	var value interface{}
	if stmt.Value != nil {
		value = in.evaluate(stmt.Value)
	}
	panic(returnSignal{value: value})
}

func (in *Interpreter) VisitVarStmt(stmt *ast.VarStmt) interface{} {
	value := in.evaluate(stmt.Initializer)
	in.environment.Define(stmt.Name.Lexeme, value)
	return nil
}

func (in *Interpreter) VisitWhileStmt(stmt *ast.WhileStmt) interface{} {
	for isTruthy(in.evaluate(stmt.Condition)) {
		in.execute(stmt.Body)
	}
	return nil
}

func (in *Interpreter) VisitAssignExpr(expr *ast.AssignExpr) interface{} {
	value := in.evaluate(expr.Value)

	if distance, ok := in.LocalDepth(expr); ok {
		in.environment.AssignAt(distance, expr.Name, value)
	} else if err := in.globals.Assign(expr.Name, value); err != nil {
		panic(err)
	}
	return value
}

func (in *Interpreter) VisitBinaryExpr(expr *ast.BinaryExpr) interface{} {
	left := in.evaluate(expr.Left)
	right := in.evaluate(expr.Right)

	switch expr.Operator.TokenType {
	case ast.TokenPlus:
		if leftNum, ok := left.(float64); ok {
			if rightNum, ok := right.(float64); ok {
				return leftNum + rightNum
			}
		}
		if leftStr, ok := left.(string); ok {
			if rightStr, ok := right.(string); ok {
				return leftStr + rightStr
			}
		}
		in.error(expr.Operator, "Operands must be two numbers or two strings.")
	case ast.TokenMinus:
		in.checkNumberOperands(expr.Operator, left, right)
		return left.(float64) - right.(float64)
	case ast.TokenSlash:
		// division by zero follows IEEE 754
		in.checkNumberOperands(expr.Operator, left, right)
		return left.(float64) / right.(float64)
	case ast.TokenStar:
		in.checkNumberOperands(expr.Operator, left, right)
		return left.(float64) * right.(float64)
	case ast.TokenGreater:
		in.checkNumberOperands(expr.Operator, left, right)
		return left.(float64) > right.(float64)
	case ast.TokenGreaterEqual:
		in.checkNumberOperands(expr.Operator, left, right)
		return left.(float64) >= right.(float64)
	case ast.TokenLess:
		in.checkNumberOperands(expr.Operator, left, right)
		return left.(float64) < right.(float64)
	case ast.TokenLessEqual:
		in.checkNumberOperands(expr.Operator, left, right)
		return left.(float64) <= right.(float64)
	case ast.TokenEqualEqual:
		return left == right
	case ast.TokenBangEqual:
		return left != right
	}
	return nil
}

func (in *Interpreter) VisitCallExpr(expr *ast.CallExpr) interface{} {
	callee := in.evaluate(expr.Callee)

	args := make([]interface{}, len(expr.Arguments))
	for i, arg := range expr.Arguments {
		args[i] = in.evaluate(arg)
	}

	fn, ok := callee.(callable)
	if !ok {
		in.error(expr.Paren, "Can only call functions and classes.")
	}

	if len(args) != fn.arity() {
		in.error(expr.Paren, fmt.Sprintf("Expected %d arguments but got %d.", fn.arity(), len(args)))
	}

	in.callDepth++
	defer func() { in.callDepth-- }()
	if in.callDepth > maxCallDepth {
		in.error(expr.Paren, "Stack overflow.")
	}

	return fn.call(in, args)
}

func (in *Interpreter) VisitGetExpr(expr *ast.GetExpr) interface{} {
	object := in.evaluate(expr.Object)
	if inst, ok := object.(*instance); ok {
		value, err := inst.get(expr.Name)
		if err != nil {
			panic(err)
		}
		return value
	}

	in.error(expr.Name, "Only instances have properties.")
	return nil
}

func (in *Interpreter) VisitGroupingExpr(expr *ast.GroupingExpr) interface{} {
	return in.evaluate(expr.Expression)
}

func (in *Interpreter) VisitLiteralExpr(expr *ast.LiteralExpr) interface{} {
	return expr.Value
}

// VisitLogicalExpr short-circuits, returning the deciding operand's own
// value rather than a coerced boolean
func (in *Interpreter) VisitLogicalExpr(expr *ast.LogicalExpr) interface{} {
	left := in.evaluate(expr.Left)

	if expr.Operator.TokenType == ast.TokenOr {
		if isTruthy(left) {
			return left
		}
	} else if !isTruthy(left) {
		return left
	}
	return in.evaluate(expr.Right)
}

func (in *Interpreter) VisitSetExpr(expr *ast.SetExpr) interface{} {
	object := in.evaluate(expr.Object)

	inst, ok := object.(*instance)
	if !ok {
		in.error(expr.Name, "Only instances have fields.")
	}

	value := in.evaluate(expr.Value)
	inst.set(expr.Name, value)
	return value
}

func (in *Interpreter) VisitSuperExpr(expr *ast.SuperExpr) interface{} {
	distance, _ := in.LocalDepth(expr)
	superclass := in.environment.GetAt(distance, "super").(*class)
	// "this" lives in the receiver scope that bind adds just inside
	// the "super" scope
	object := in.environment.GetAt(distance-1, "this").(*instance)

	method, ok := superclass.findMethod(expr.Method.Lexeme)
	if !ok {
		in.error(expr.Method, fmt.Sprintf("Undefined property '%s'.", expr.Method.Lexeme))
	}
	return method.bind(object)
}

func (in *Interpreter) VisitThisExpr(expr *ast.ThisExpr) interface{} {
	return in.lookUpVariable(expr.Keyword, expr)
}

func (in *Interpreter) VisitUnaryExpr(expr *ast.UnaryExpr) interface{} {
	right := in.evaluate(expr.Right)

	switch expr.Operator.TokenType {
	case ast.TokenBang:
		return !isTruthy(right)
	case ast.TokenMinus:
		num, ok := right.(float64)
		if !ok {
			in.error(expr.Operator, "Operand must be a number.")
		}
		return -num
	}
	return nil
}

func (in *Interpreter) VisitVariableExpr(expr *ast.VariableExpr) interface{} {
	return in.lookUpVariable(expr.Name, expr)
}

// lookUpVariable reads a variable at its resolved depth, or from the
// globals when the resolver left it unannotated
func (in *Interpreter) lookUpVariable(name ast.Token, expr ast.Expr) interface{} {
	if distance, ok := in.LocalDepth(expr); ok {
		return in.environment.GetAt(distance, name.Lexeme)
	}

	value, err := in.globals.Get(name)
	if err != nil {
		panic(err)
	}
	return value
}

func (in *Interpreter) error(token ast.Token, message string) {
	panic(runtimeError{token: token, msg: message})
}

func (in *Interpreter) checkNumberOperands(operator ast.Token, left, right interface{}) {
	if _, ok := left.(float64); ok {
		if _, ok = right.(float64); ok {
			return
		}
	}
	in.error(operator, "Operands must be numbers.")
}

// isTruthy reports whether a value is truthy: everything
// except nil and false, including 0 and ""
func isTruthy(value interface{}) bool {
	if value == nil {
		return false
	}
	if b, ok := value.(bool); ok {
		return b
	}
	return true
}

// Stringify renders a runtime value the way the print statement shows
// it. Integral numbers print without a decimal point.
func (in *Interpreter) Stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "nil"
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'f', 0, 64)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprint(value)
}
