package ast

import (
	"fmt"
	"strings"
)

// Printer renders an expression tree as a parenthesized prefix string,
// e.g. "(+ 1 (* 2 3))".
type Printer struct{}

// Print returns a string representation of an Expr node
func (a Printer) Print(expr Expr) string {
	return expr.Accept(a).(string)
}

func (a Printer) VisitAssignExpr(expr *AssignExpr) interface{} {
	return a.parenthesize("= "+expr.Name.Lexeme, expr.Value)
}

func (a Printer) VisitBinaryExpr(expr *BinaryExpr) interface{} {
	return a.parenthesize(expr.Operator.Lexeme, expr.Left, expr.Right)
}

func (a Printer) VisitCallExpr(expr *CallExpr) interface{} {
	return a.parenthesize("call", append([]Expr{expr.Callee}, expr.Arguments...)...)
}

func (a Printer) VisitGetExpr(expr *GetExpr) interface{} {
	return a.parenthesize(". "+expr.Name.Lexeme, expr.Object)
}

func (a Printer) VisitGroupingExpr(expr *GroupingExpr) interface{} {
	return a.parenthesize("group", expr.Expression)
}

func (a Printer) VisitLiteralExpr(expr *LiteralExpr) interface{} {
	if expr.Value == nil {
		return "nil"
	}
	return fmt.Sprint(expr.Value)
}

func (a Printer) VisitLogicalExpr(expr *LogicalExpr) interface{} {
	return a.parenthesize(expr.Operator.Lexeme, expr.Left, expr.Right)
}

func (a Printer) VisitSetExpr(expr *SetExpr) interface{} {
	return a.parenthesize("= ."+expr.Name.Lexeme, expr.Object, expr.Value)
}

func (a Printer) VisitSuperExpr(expr *SuperExpr) interface{} {
	return "(super " + expr.Method.Lexeme + ")"
}

func (a Printer) VisitThisExpr(expr *ThisExpr) interface{} {
	return expr.Keyword.Lexeme
}

func (a Printer) VisitUnaryExpr(expr *UnaryExpr) interface{} {
	return a.parenthesize(expr.Operator.Lexeme, expr.Right)
}

func (a Printer) VisitVariableExpr(expr *VariableExpr) interface{} {
	return expr.Name.Lexeme
}

func (a Printer) parenthesize(name string, exprs ...Expr) string {
	var str strings.Builder
	str.WriteString("(" + name)
	for _, expr := range exprs {
		str.WriteString(" " + a.Print(expr))
	}
	str.WriteString(")")
	return str.String()
}
