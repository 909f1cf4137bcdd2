// Generates the AST node types in ast/ast.go
package main

import (
	"fmt"
	"go/format"
	"os"
	"strings"
)

func main() {
	var str string
	str += "// Code generated by cmd/astgen. DO NOT EDIT.\n\n"
	str += "package ast\n"

	str += defineAst("Expr", []string{
		"Assign   : Name Token, Value Expr",
		"Binary   : Left Expr, Operator Token, Right Expr",
		"Call     : Callee Expr, Paren Token, Arguments []Expr",
		"Get      : Object Expr, Name Token",
		"Grouping : Expression Expr",
		"Literal  : Value interface{}",
		"Logical  : Left Expr, Operator Token, Right Expr",
		"Set      : Object Expr, Name Token, Value Expr",
		"Super    : Keyword Token, Method Token",
		"This     : Keyword Token",
		"Unary    : Operator Token, Right Expr",
		"Variable : Name Token",
	})

	str += defineAst("Stmt", []string{
		"Block      : Statements []Stmt",
		"Class      : Name Token, Superclass *VariableExpr, Methods []*FunctionStmt",
		"Expression : Expr Expr",
		"Function   : Name Token, Kind string, Params []Token, Body []Stmt",
		"If         : Condition Expr, ThenBranch Stmt, ElseBranch Stmt",
		"Print      : Expr Expr",
		"Return     : Keyword Token, Value Expr",
		"Var        : Name Token, Initializer Expr",
		"While      : Condition Expr, Body Stmt",
	})

	src, err := format.Source([]byte(str))
	if err != nil {
		panic(err)
	}

	if err = os.WriteFile("ast/ast.go", src, 0o644); err != nil {
		panic(err)
	}
}

func defineAst(family string, types []string) string {
	str := defineInterface(family)
	str += defineTypes(family, types)
	str += defineVisitor(family, types)
	return str
}

func defineInterface(family string) string {
	return fmt.Sprintf(`
type %s interface {
	Accept(visitor %sVisitor) interface{}
}
`, family, family)
}

func defineTypes(family string, types []string) (str string) {
	for _, t := range types {
		name, fields, _ := strings.Cut(t, ":")
		typeName := strings.TrimSpace(name) + family
		str += fmt.Sprintf("\ntype %s struct {\n", typeName)

		for _, field := range strings.Split(fields, ", ") {
			str += fmt.Sprintf("\t%s\n", strings.TrimSpace(field))
		}
		str += "}\n"

		str += fmt.Sprintf(`
func (b *%s) Accept(visitor %sVisitor) interface{} {
	return visitor.Visit%s(b)
}
`, typeName, family, typeName)
	}
	return str
}

func defineVisitor(family string, types []string) (str string) {
	str += fmt.Sprintf("\ntype %sVisitor interface {\n", family)
	for _, t := range types {
		name, _, _ := strings.Cut(t, ":")
		typeName := strings.TrimSpace(name) + family
		str += fmt.Sprintf("\tVisit%s(%s *%s) interface{}\n", typeName, strings.ToLower(family), typeName)
	}
	str += "}\n"
	return str
}
