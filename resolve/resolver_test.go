package resolve_test

import (
	"bytes"
	"strings"
	"testing"

	"golox/ast"
	"golox/interpret"
	"golox/parse"
	"golox/resolve"
	"golox/scan"
)

func resolveSource(t *testing.T, source string) ([]ast.Stmt, *interpret.Interpreter, string, bool) {
	t.Helper()
	stdErr := &bytes.Buffer{}
	tokens, scanErr := scan.NewScanner(source, stdErr).ScanTokens()
	if scanErr {
		t.Fatalf("scan error: %s", stdErr)
	}
	statements, parseErr := parse.NewParser(tokens, stdErr).Parse()
	if parseErr {
		t.Fatalf("parse error: %s", stdErr)
	}

	interpreter := interpret.NewInterpreter(&bytes.Buffer{}, stdErr)
	hadError := resolve.NewResolver(interpreter, stdErr).ResolveStmts(statements)
	return statements, interpreter, stdErr.String(), hadError
}

func TestResolver_Depths(t *testing.T) {
	source := `var g = 1;
{
  var a = 2;
  {
    print a;
    print g;
  }
}`
	statements, interpreter, stdErr, hadError := resolveSource(t, source)
	if hadError {
		t.Fatalf("unexpected error: %s", stdErr)
	}

	outer := statements[1].(*ast.BlockStmt)
	inner := outer.Statements[1].(*ast.BlockStmt)

	a := inner.Statements[0].(*ast.PrintStmt).Expr
	if depth, ok := interpreter.LocalDepth(a); !ok || depth != 1 {
		t.Errorf("a: depth %d (resolved %t), want 1", depth, ok)
	}

	// globals are left unannotated
	g := inner.Statements[1].(*ast.PrintStmt).Expr
	if _, ok := interpreter.LocalDepth(g); ok {
		t.Error("g: resolved as a local, want global")
	}
}

func TestResolver_SameNameDifferentScopes(t *testing.T) {
	// the two reads of "a" are distinct nodes and resolve to
	// different depths even though the expressions look identical
	source := `{
  var a = 1;
  print a;
  {
    print a;
  }
}`
	statements, interpreter, stdErr, hadError := resolveSource(t, source)
	if hadError {
		t.Fatalf("unexpected error: %s", stdErr)
	}

	block := statements[0].(*ast.BlockStmt)
	direct := block.Statements[1].(*ast.PrintStmt).Expr
	nested := block.Statements[2].(*ast.BlockStmt).Statements[0].(*ast.PrintStmt).Expr

	if depth, ok := interpreter.LocalDepth(direct); !ok || depth != 0 {
		t.Errorf("direct read: depth %d (resolved %t), want 0", depth, ok)
	}
	if depth, ok := interpreter.LocalDepth(nested); !ok || depth != 1 {
		t.Errorf("nested read: depth %d (resolved %t), want 1", depth, ok)
	}
}

func TestResolver_ParameterDepth(t *testing.T) {
	source := `fun f(x) {
  print x;
}`
	statements, interpreter, stdErr, hadError := resolveSource(t, source)
	if hadError {
		t.Fatalf("unexpected error: %s", stdErr)
	}

	fn := statements[0].(*ast.FunctionStmt)
	x := fn.Body[0].(*ast.PrintStmt).Expr
	if depth, ok := interpreter.LocalDepth(x); !ok || depth != 0 {
		t.Errorf("x: depth %d (resolved %t), want 0", depth, ok)
	}
}

func TestResolver_Errors(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		wantStdErr string
	}{
		{
			"read local in its own initializer",
			"{ var a = 1; { var a = a; } }",
			"[line 1] Error at 'a': Can't read local variable in its own initializer.\n",
		},
		{
			"duplicate local",
			"{ var a = 1; var a = 2; }",
			"[line 1] Error at 'a': Already a variable with this name in this scope.\n",
		},
		{
			"return outside function",
			"return 1;",
			"[line 1] Error at 'return': Can't return from top-level code.\n",
		},
		{
			"return value from initializer",
			"class A { init() { return 1; } }",
			"[line 1] Error at 'return': Can't return a value from an initializer.\n",
		},
		{
			"this outside class",
			"print this;",
			"[line 1] Error at 'this': Can't use 'this' outside of a class.\n",
		},
		{
			"super outside class",
			"print super.m;",
			"[line 1] Error at 'super': Can't use 'super' outside of a class.\n",
		},
		{
			"super without superclass",
			"class A { m() { super.m(); } }",
			"[line 1] Error at 'super': Can't use 'super' in a class with no superclass.\n",
		},
		{
			"class inheriting from itself",
			"class A < A { }",
			"[line 1] Error at 'A': A class can't inherit from itself.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, stdErr, hadError := resolveSource(t, tt.source)
			if !hadError {
				t.Error("expected an error")
			}
			if stdErr != tt.wantStdErr {
				t.Errorf("stderr: got %q, want %q", stdErr, tt.wantStdErr)
			}
		})
	}
}

func TestResolver_ReportsEveryError(t *testing.T) {
	// no panic-mode recovery: resolution continues past errors
	source := "return 1;\nprint this;"
	_, _, stdErr, hadError := resolveSource(t, source)
	if !hadError {
		t.Error("expected errors")
	}
	if !strings.Contains(stdErr, "Can't return from top-level code.") ||
		!strings.Contains(stdErr, "Can't use 'this' outside of a class.") {
		t.Errorf("stderr: got %q, want both errors reported", stdErr)
	}
}

func TestResolver_GlobalShadowingIsAllowed(t *testing.T) {
	_, _, stdErr, hadError := resolveSource(t, "var a = 1;\nvar a = 2;")
	if hadError {
		t.Errorf("unexpected error: %s", stdErr)
	}
}

func TestResolver_EmptyReturnFromInitializerIsAllowed(t *testing.T) {
	_, _, stdErr, hadError := resolveSource(t, "class A { init() { return; } }")
	if hadError {
		t.Errorf("unexpected error: %s", stdErr)
	}
}
